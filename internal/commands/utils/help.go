package utils

import "github.com/PancyStudios/PancyLedger/pkg/discord"

const helpText = "📖 **PancyLedger Help**\n\n" +
	"**Moderation:**\n" +
	"• `/mod warn <user> <clip>` - Issue warnings, violations are picked from a menu\n" +
	"• `/mod points <user>` - Active points and punishment\n" +
	"• `/mod warnings <user>` - Warning history\n" +
	"• `/mod lookup <id>` - Show a single warning\n" +
	"• `/mod remove <user> [id]` - Remove one or all active warnings\n" +
	"• `/mod clear <user>` - Remove all active warnings\n\n" +
	"**Licenses:**\n" +
	"• `/license add <user> <key>` - Assign a license\n" +
	"• `/license remove <user>` - Remove a license\n" +
	"• `/license check <user>` - Show a user's license\n" +
	"• `/license lookup <query>` - Find a license holder\n" +
	"• `/license history [user] [key] [limit]` - License history\n\n" +
	"**Utilities:**\n" +
	"• `/utils ping`, `/utils status`, `/utils stats`"

// createHelpCommand creates the /utils help subcommand
func createHelpCommand() *discord.Command {
	return discord.NewCommand("help", "Show help information", "utils", helpHandler)
}

func helpHandler(ctx *discord.CommandContext) error {
	return ctx.ReplyEphemeral(helpText)
}
