package license

import (
	"errors"
	"fmt"

	"github.com/PancyStudios/PancyLedger/pkg/database"
	"github.com/PancyStudios/PancyLedger/pkg/discord"
	"github.com/PancyStudios/PancyLedger/pkg/logger"
	"github.com/PancyStudios/PancyLedger/pkg/models"
	"github.com/bwmarrin/discordgo"
)

func userOption(description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "user",
		Description: description,
		Required:    required,
	}
}

func stringOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

var minHistoryLimit = 1.0

// createAddCommand creates the /license add subcommand
func (m *Module) createAddCommand() *discord.Command {
	return discord.NewCommand("add", "Assign a license key to a user", "license", m.addHandler).
		WithOptions(
			userOption("The user to assign the license to", true),
			stringOption("key", "The 40 character license key", true),
			stringOption("note", "Optional note", false),
		).
		ForModerators()
}

func (m *Module) addHandler(ctx *discord.CommandContext) error {
	target := ctx.GetUserOption("user")
	if target == nil {
		return ctx.ReplyEphemeral("❌ You must specify a user.")
	}
	targetID, err := discord.ParseSnowflake(target.ID)
	if err != nil {
		return ctx.ReplyEphemeral("❌ Invalid user.")
	}
	moderator := ctx.User()
	moderatorID, err := discord.ParseSnowflake(moderator.ID)
	if err != nil {
		return err
	}
	note := ctx.GetStringOption("note")

	out, err := m.add(ctx.Context, targetID, ctx.GetStringOption("key"), moderatorID, note)
	if errors.Is(err, ErrInvalidKey) {
		return ctx.ReplyEphemeralEmbed(errorEmbed("Invalid License Format", "License must be 40 hexadecimal characters."))
	}
	if err != nil {
		return m.storageError(ctx, err)
	}

	if !out.Added {
		return ctx.ReplyEphemeralEmbed(addEmbed(target, moderator.ID, note, out))
	}
	if err := ctx.ReplyEmbed(addEmbed(target, moderator.ID, note, out)); err != nil {
		return err
	}
	m.sendLog(ctx, actionLogEmbed(target, moderator, models.LicenseActionAdd, out.Key, note))
	return nil
}

// createRemoveCommand creates the /license remove subcommand
func (m *Module) createRemoveCommand() *discord.Command {
	return discord.NewCommand("remove", "Remove the license of a user", "license", m.removeHandler).
		WithOptions(
			userOption("The user to remove the license from", true),
			stringOption("reason", "Reason for removal", false),
		).
		ForModerators()
}

func (m *Module) removeHandler(ctx *discord.CommandContext) error {
	target := ctx.GetUserOption("user")
	if target == nil {
		return ctx.ReplyEphemeral("❌ You must specify a user.")
	}
	targetID, err := discord.ParseSnowflake(target.ID)
	if err != nil {
		return ctx.ReplyEphemeral("❌ Invalid user.")
	}
	moderator := ctx.User()
	moderatorID, err := discord.ParseSnowflake(moderator.ID)
	if err != nil {
		return err
	}
	reason := ctx.GetStringOption("reason")
	if reason == "" {
		reason = defaultReason
	}

	key, removed, err := m.remove(ctx.Context, targetID, moderatorID, reason)
	if err != nil && !removed {
		return m.storageError(ctx, err)
	}
	if err != nil {
		logger.Warn("No se pudo leer la clave eliminada: "+err.Error(), "CMD-License")
	}

	if !removed {
		return ctx.ReplyEphemeralEmbed(removeEmbed(target, moderator.ID, reason, false))
	}
	if err := ctx.ReplyEmbed(removeEmbed(target, moderator.ID, reason, true)); err != nil {
		return err
	}
	m.sendLog(ctx, actionLogEmbed(target, moderator, models.LicenseActionRemove, key, reason))
	return nil
}

// createCheckCommand creates the /license check subcommand
func (m *Module) createCheckCommand() *discord.Command {
	return discord.NewCommand("check", "Check the license of a user", "license", m.checkHandler).
		WithOptions(userOption("The user to check", true)).
		ForModerators()
}

func (m *Module) checkHandler(ctx *discord.CommandContext) error {
	target := ctx.GetUserOption("user")
	if target == nil {
		return ctx.ReplyEphemeral("❌ You must specify a user.")
	}
	targetID, err := discord.ParseSnowflake(target.ID)
	if err != nil {
		return ctx.ReplyEphemeral("❌ Invalid user.")
	}

	record, err := m.Licenses.LicenseForUser(ctx.Context, targetID)
	if err != nil {
		return m.storageError(ctx, err)
	}
	return ctx.ReplyEphemeralEmbed(checkEmbed(target, record))
}

// createLookupCommand creates the /license lookup subcommand
func (m *Module) createLookupCommand() *discord.Command {
	return discord.NewCommand("lookup", "Find who holds a license, or search keys by fragment", "license", m.lookupHandler).
		WithOptions(&discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionString,
			Name:         "query",
			Description:  "A full license key or part of one",
			Required:     true,
			Autocomplete: true,
		}).
		WithAutoComplete(m.lookupAutoComplete).
		ForModerators()
}

func (m *Module) lookupAutoComplete(ctx *discord.CommandContext) {
	choices, err := m.suggest(ctx.Context, ctx.GetStringOption("query"))
	if err != nil {
		logger.Warn("Error en el autocompletado de licencias: "+err.Error(), "CMD-License")
	}
	if err := ctx.RespondChoices(choices); err != nil {
		logger.Warn("Error respondiendo autocompletado: "+err.Error(), "CMD-License")
	}
}

func (m *Module) lookupHandler(ctx *discord.CommandContext) error {
	query := ctx.GetStringOption("query")
	if query == "" {
		return ctx.ReplyEphemeral("❌ You must specify a query.")
	}

	out, err := m.lookup(ctx.Context, query)
	if err != nil {
		return m.storageError(ctx, err)
	}
	return ctx.ReplyEphemeralEmbed(lookupEmbed(out))
}

// createHistoryCommand creates the /license history subcommand
func (m *Module) createHistoryCommand() *discord.Command {
	return discord.NewCommand("history", "Show license assignment history", "license", m.historyHandler).
		WithOptions(
			userOption("Filter by user", false),
			stringOption("key", "Filter by license key", false),
			&discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "limit",
				Description: "Number of entries to show",
				MinValue:    &minHistoryLimit,
				MaxValue:    maxHistoryLimit,
			},
		).
		ForModerators()
}

func (m *Module) historyHandler(ctx *discord.CommandContext) error {
	filter := database.HistoryFilter{
		LicenseKey: NormalizeKey(ctx.GetStringOption("key")),
		Limit:      historyFilterLimit(ctx.GetIntOption("limit")),
	}
	if target := ctx.GetUserOption("user"); target != nil {
		targetID, err := discord.ParseSnowflake(target.ID)
		if err != nil {
			return ctx.ReplyEphemeral("❌ Invalid user.")
		}
		filter.UserID = &targetID
	}

	entries, err := m.Licenses.History(ctx.Context, filter)
	if err != nil {
		return m.storageError(ctx, err)
	}
	return ctx.ReplyEphemeralEmbed(historyEmbed(entries))
}

func (m *Module) sendLog(ctx *discord.CommandContext, embed *discordgo.MessageEmbed) {
	if _, err := ctx.SendEmbed(m.WarningLogChannelID, embed); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo enviar el log de licencias: %v", err), "CMD-License")
	}
}

func (m *Module) storageError(ctx *discord.CommandContext, err error) error {
	logger.Error("Error accediendo a las licencias: "+err.Error(), "CMD-License")
	return ctx.ReplyEphemeral("❌ The license database is unavailable right now.")
}
