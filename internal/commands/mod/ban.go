package mod

import (
	"fmt"

	"github.com/PancyStudios/PancyLedger/pkg/discord"
	"github.com/PancyStudios/PancyLedger/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// requestBan posts a ban request with a completion button and records it
// under the id of the posted message
func (m *Module) requestBan(ctx *discord.CommandContext, target *discordgo.User, out *warnOutcome) {
	if m.BanRequestChannelID == "" {
		logger.Warn("BAN_REQUEST_CHANNEL_ID no configurado, se omite la solicitud de ban", "CMD-Ban")
		return
	}

	msg, err := ctx.SendEmbed(m.BanRequestChannelID, banRequestEmbed(target, ctx.User().ID, out), banRequestComponents()...)
	if err != nil {
		logger.Error("Error enviando solicitud de ban: "+err.Error(), "CMD-Ban")
		return
	}

	messageID, err := discord.ParseSnowflake(msg.ID)
	if err != nil {
		logger.Error(err.Error(), "CMD-Ban")
		return
	}
	if _, err := m.Bans.CreateBanRequest(ctx.Context, out.UserID, out.TotalPoints, out.Action, messageID); err != nil {
		logger.Error("Error guardando solicitud de ban: "+err.Error(), "CMD-Ban")
	}
}

// createBanCompleteComponent creates the handler for the "Complete Ban" button
func (m *Module) createBanCompleteComponent() *discord.Component {
	return &discord.Component{
		ID:            banCompleteID,
		ModeratorOnly: true,
		Run:           m.banCompleteHandler,
	}
}

func (m *Module) banCompleteHandler(ctx *discord.CommandContext) error {
	msg := ctx.Message()
	if msg == nil {
		return nil
	}
	messageID, err := discord.ParseSnowflake(msg.ID)
	if err != nil {
		return err
	}
	moderator := ctx.User()
	moderatorID, err := discord.ParseSnowflake(moderator.ID)
	if err != nil {
		return err
	}

	req, err := m.Bans.CompleteBanRequest(ctx.Context, messageID, moderatorID)
	if err != nil {
		logger.Error("Error completando solicitud de ban: "+err.Error(), "CMD-Ban")
		return ctx.ReplyEphemeral("❌ The ban request could not be updated.")
	}
	if req == nil {
		return ctx.ReplyEphemeral("❌ This ban request is not tracked.")
	}

	license, err := m.Licenses.LicenseForUser(ctx.Context, req.UserID)
	if err != nil {
		logger.Warn("No se pudo leer la licencia: "+err.Error(), "CMD-Ban")
	}

	if _, err := ctx.SendEmbed(m.BanCompletedChannelID, banCompletedEmbed(req, moderator.ID, license)); err != nil {
		logger.Warn("No se pudo enviar el ban completado: "+err.Error(), "CMD-Ban")
	}

	var original *discordgo.MessageEmbed
	if len(msg.Embeds) > 0 {
		original = msg.Embeds[0]
	}
	if err := ctx.UpdateMessage(markBanCompleted(original, moderator.ID), nil); err != nil {
		return err
	}

	guildName := ""
	if g, err := ctx.Session.State.Guild(ctx.Interaction.GuildID); err == nil {
		guildName = g.Name
	}
	userID := discord.FormatSnowflake(req.UserID)
	if err := ctx.SendDM(userID, banDMEmbed(guildName, req)); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo enviar DM de ban a %s: %v", userID, err), "CMD-Ban")
		if _, err := ctx.SendEmbed(m.BanCompletedChannelID, dmFailedEmbed("<@"+userID+">")); err != nil {
			logger.Warn(err.Error(), "CMD-Ban")
		}
	}
	return nil
}
