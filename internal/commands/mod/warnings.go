package mod

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PancyStudios/PancyLedger/pkg/discord"
	"github.com/PancyStudios/PancyLedger/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

func userOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "user",
		Description: description,
		Required:    true,
	}
}

// createPointsCommand creates the /mod points subcommand
func (m *Module) createPointsCommand() *discord.Command {
	return discord.NewCommand("points", "Check a user's current points", "mod", m.pointsHandler).
		WithOptions(userOption("The user to check points for"))
}

func (m *Module) pointsHandler(ctx *discord.CommandContext) error {
	target := ctx.GetUserOption("user")
	if target == nil {
		return ctx.ReplyEphemeral("❌ You must specify a user.")
	}
	targetID, err := discord.ParseSnowflake(target.ID)
	if err != nil {
		return ctx.ReplyEphemeral("❌ Invalid user.")
	}

	points, err := m.Warnings.UserActivePoints(ctx.Context, targetID)
	if err != nil {
		return m.storageError(ctx, err)
	}
	active, err := m.Warnings.UserActiveWarnings(ctx.Context, targetID)
	if err != nil {
		return m.storageError(ctx, err)
	}

	return ctx.ReplyEmbed(pointsEmbed(target, points, m.Catalog.PunishmentAction(points), active))
}

// createWarningsCommand creates the /mod warnings subcommand
func (m *Module) createWarningsCommand() *discord.Command {
	return discord.NewCommand("warnings", "View the warning history of a user", "mod", m.warningsHandler).
		WithOptions(userOption("The user to check warnings for"))
}

func (m *Module) warningsHandler(ctx *discord.CommandContext) error {
	target := ctx.GetUserOption("user")
	if target == nil {
		return ctx.ReplyEphemeral("❌ You must specify a user.")
	}

	embed, components, err := m.warningsPage(ctx, target, 0)
	if err != nil {
		return m.storageError(ctx, err)
	}

	return ctx.Session.InteractionRespond(ctx.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
}

func (m *Module) warningsPage(ctx *discord.CommandContext, target *discordgo.User, page int) (*discordgo.MessageEmbed, []discordgo.MessageComponent, error) {
	targetID, err := discord.ParseSnowflake(target.ID)
	if err != nil {
		return nil, nil, err
	}

	all, err := m.Warnings.FindAllWarningsForUser(ctx.Context, targetID, warningsMaxShown)
	if err != nil {
		return nil, nil, err
	}
	points, err := m.Warnings.UserActivePoints(ctx.Context, targetID)
	if err != nil {
		return nil, nil, err
	}

	embed := warningsEmbed(target, all, page, points, m.Catalog.PunishmentAction(points))
	return embed, warningsComponents(target.ID, page, len(all)), nil
}

// parsePageID splits "warnings_page:<user>:<page>"
func parsePageID(customID string) (userID string, page int, err error) {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 || parts[0] != warningsPageID {
		return "", 0, fmt.Errorf("malformed page id %q", customID)
	}
	page, err = strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, fmt.Errorf("malformed page id %q: %w", customID, err)
	}
	return parts[1], page, nil
}

// createWarningsPageComponent creates the pager for /mod warnings
func (m *Module) createWarningsPageComponent() *discord.Component {
	return &discord.Component{
		ID:  warningsPageID,
		Run: m.warningsPageHandler,
	}
}

func (m *Module) warningsPageHandler(ctx *discord.CommandContext) error {
	userID, page, err := parsePageID(ctx.CustomID())
	if err != nil {
		return err
	}

	target, err := ctx.Session.User(userID)
	if err != nil {
		target = &discordgo.User{ID: userID, Username: userID}
	}

	embed, components, err := m.warningsPage(ctx, target, page)
	if err != nil {
		return m.storageError(ctx, err)
	}
	return ctx.UpdateMessage(embed, components)
}

// createLookupCommand creates the /mod lookup subcommand
func (m *Module) createLookupCommand() *discord.Command {
	return discord.NewCommand("lookup", "Look up warning details by ID", "mod", m.lookupHandler).
		WithOptions(&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "id",
			Description: "The warning ID to look up",
			Required:    true,
		})
}

func (m *Module) lookupHandler(ctx *discord.CommandContext) error {
	id := strings.TrimPrefix(strings.TrimSpace(ctx.GetStringOption("id")), "#")

	w, err := m.Warnings.GetWarning(ctx.Context, id)
	if err != nil {
		return m.storageError(ctx, err)
	}
	if w == nil {
		return ctx.ReplyEphemeralEmbed(notFoundEmbed("Warning Not Found", fmt.Sprintf("Warning ID `%s` not found.", id)))
	}
	return ctx.ReplyEphemeralEmbed(lookupEmbed(w))
}

func (m *Module) storageError(ctx *discord.CommandContext, err error) error {
	logger.Error("Error leyendo el ledger: "+err.Error(), "CMD-Mod")
	return ctx.ReplyEphemeral("❌ The moderation database is unavailable right now.")
}
