package mod

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PancyStudios/PancyLedger/pkg/discord"
	"github.com/PancyStudios/PancyLedger/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

const (
	maxClips       = 5
	maxMenuOptions = 25
)

// createWarnCommand creates the /mod warn subcommand. Violations are picked
// afterwards from a multi-select menu.
func (m *Module) createWarnCommand() *discord.Command {
	options := []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "The user to warn",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "clip1",
			Description: "First evidence clip",
			Required:    true,
		},
	}
	for i := 2; i <= maxClips; i++ {
		options = append(options, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        fmt.Sprintf("clip%d", i),
			Description: "Additional evidence clip",
		})
	}
	options = append(options, &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "reason",
		Description: "Reason, defaults to each violation's description",
	})

	return discord.NewCommand("warn", "Warn a user for rule violations", "mod", m.warnHandler).
		WithOptions(options...).
		ForModerators()
}

// createWarnSelectComponent creates the handler for the violation menu
func (m *Module) createWarnSelectComponent() *discord.Component {
	return &discord.Component{
		ID:            warnSelectID,
		ModeratorOnly: true,
		Run:           m.warnSelectHandler,
	}
}

func clipOptions(ctx *discord.CommandContext) []string {
	clips := make([]string, 0, maxClips)
	for i := 1; i <= maxClips; i++ {
		if clip := ctx.GetStringOption(fmt.Sprintf("clip%d", i)); clip != "" {
			clips = append(clips, clip)
		}
	}
	return clips
}

func (m *Module) warnHandler(ctx *discord.CommandContext) error {
	target := ctx.GetUserOption("user")
	if target == nil {
		return ctx.ReplyEphemeral("❌ You must specify a user.")
	}
	if _, err := discord.ParseSnowflake(target.ID); err != nil {
		return ctx.ReplyEphemeral("❌ Invalid user.")
	}
	moderator := ctx.User()

	clips := clipOptions(ctx)
	token := m.pendingWarns().put(&pendingWarn{
		Target:      target,
		ModeratorID: moderator.ID,
		Clips:       clips,
		Reason:      ctx.GetStringOption("reason"),
	})

	return ctx.ReplyEphemeralComponents(
		violationPromptEmbed(target, moderator.ID, len(clips)),
		violationMenu(warnSelectID+":"+token, m.Catalog.Definitions()),
	)
}

func (m *Module) warnSelectHandler(ctx *discord.CommandContext) error {
	moderator := ctx.User()
	token := strings.TrimPrefix(ctx.CustomID(), warnSelectID+":")

	pending, ok := m.pendingWarns().take(token, moderator.ID)
	if !ok {
		return ctx.UpdateMessage(notFoundEmbed("Warning Expired", "This menu has expired. Run `/mod warn` again."), nil)
	}
	if err := ctx.DeferUpdate(); err != nil {
		return err
	}

	target := pending.Target
	targetID, err := discord.ParseSnowflake(target.ID)
	if err != nil {
		return err
	}
	moderatorID, err := discord.ParseSnowflake(moderator.ID)
	if err != nil {
		return err
	}

	out, err := m.issue(ctx.Context, targetID, moderatorID, ctx.Values(), pending.Clips, pending.Reason)
	if errors.Is(err, ErrUnknownViolation) || errors.Is(err, ErrNoViolations) {
		return ctx.EditReplyEmbed(notFoundEmbed("Unknown Violation", err.Error()))
	}
	if err != nil {
		logger.Error(fmt.Sprintf("Error emitiendo advertencias a %s: %v", target.ID, err), "CMD-Warn")
		return ctx.EditReplyEmbed(notFoundEmbed("Warning Failed", "The warning could not be saved."))
	}

	if err := ctx.EditReplyEmbed(warnEmbed(target, moderator.ID, out, pending.Clips)); err != nil {
		return err
	}

	if _, err := ctx.SendEmbed(m.WarningLogChannelID, warningLogEmbed(target, moderator, out, pending.Clips)); err != nil {
		logger.Warn("No se pudo enviar el log de advertencia: "+err.Error(), "CMD-Warn")
	}

	if err := ctx.SendDM(target.ID, warnDMEmbed(m.Catalog, out, pending.Clips)); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo enviar DM a %s: %v", target.ID, err), "CMD-Warn")
		_ = ctx.FollowupEphemeralEmbed(dmFailedEmbed("<@" + target.ID + ">"))
	}

	if out.RequiresBan {
		m.requestBan(ctx, target, out)
	}
	return nil
}
