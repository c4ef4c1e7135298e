package discord

import (
	"time"

	"github.com/PancyStudios/PancyLedger/pkg/config"
	"github.com/PancyStudios/PancyLedger/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// HasModeratorRole reports whether member is an administrator or holds a
// role listed in MODERATOR_ROLES
func HasModeratorRole(member *discordgo.Member, cfg *config.Config) bool {
	if member == nil {
		return false
	}
	if member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	if cfg == nil {
		return false
	}
	for _, role := range member.Roles {
		if cfg.IsModeratorRole(role) {
			return true
		}
	}
	return false
}

// ModeratorMiddleware replies with a denial and returns false when the
// invoking member is not a moderator
func (c *ExtendedClient) ModeratorMiddleware(ctx *CommandContext) bool {
	if HasModeratorRole(ctx.Member(), c.Config) {
		return true
	}

	user := ctx.User()
	if user != nil {
		logger.Warn("Acceso de moderador denegado a "+user.ID, "Client")
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🚫 Access Denied",
		Description: "You don't have permission to use this.",
		Color:       0xFF0000,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	if err := ctx.ReplyEphemeralEmbed(embed); err != nil {
		logger.Error("Error respondiendo denegación: "+err.Error(), "Client")
	}
	return false
}
