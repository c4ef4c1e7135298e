package mod

import (
	"fmt"
	"strings"

	"github.com/PancyStudios/PancyLedger/pkg/discord"
	"github.com/PancyStudios/PancyLedger/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

const noReason = "No reason provided"

func reasonOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "reason",
		Description: "Reason for removal",
	}
}

// createRemoveCommand creates the /mod remove subcommand
func (m *Module) createRemoveCommand() *discord.Command {
	return discord.NewCommand("remove", "Remove one warning, or all active warnings when no ID is given", "mod", m.removeHandler).
		WithOptions(
			userOption("The user to remove warnings from"),
			&discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "id",
				Description: "Specific warning ID to remove",
			},
			reasonOption(),
		).
		ForModerators()
}

// createClearCommand creates the /mod clear subcommand
func (m *Module) createClearCommand() *discord.Command {
	return discord.NewCommand("clear", "Remove all active warnings of a user", "mod", m.removeHandler).
		WithOptions(userOption("The user to clear"), reasonOption()).
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
		reason = noReason
	}
	warningID := strings.TrimPrefix(strings.TrimSpace(ctx.GetStringOption("id")), "#")

	var out *removeOutcome
	if warningID != "" {
		out, err = m.removeOne(ctx.Context, targetID, moderatorID, warningID, reason)
	} else {
		out, err = m.removeAll(ctx.Context, targetID, moderatorID, reason)
	}
	if err != nil {
		logger.Error(fmt.Sprintf("Error retirando advertencias de %s: %v", target.ID, err), "CMD-Remove")
		return ctx.ReplyEphemeral("❌ The warnings could not be removed.")
	}

	if err := ctx.ReplyEmbed(removalEmbed(target, moderator.ID, reason, out)); err != nil {
		return err
	}
	if !out.Found || out.Count == 0 {
		return nil
	}

	if _, err := ctx.SendEmbed(m.WarningLogChannelID, removalLogEmbed(target, moderator, reason, out)); err != nil {
		logger.Warn("No se pudo enviar el log de retiro: "+err.Error(), "CMD-Remove")
	}

	guildName := ""
	if g, err := ctx.Session.State.Guild(ctx.Interaction.GuildID); err == nil {
		guildName = g.Name
	}
	if err := ctx.SendDM(target.ID, removalDMEmbed(guildName, reason, out)); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo enviar DM a %s: %v", target.ID, err), "CMD-Remove")
		_ = ctx.FollowupEphemeralEmbed(dmFailedEmbed("<@" + target.ID + ">"))
	}
	return nil
}
