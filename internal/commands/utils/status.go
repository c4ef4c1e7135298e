package utils

import (
	"fmt"

	"github.com/PancyStudios/PancyLedger/internal/commands/embeds"
	"github.com/PancyStudios/PancyLedger/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

// createStatusCommand creates the /utils status subcommand
func (m *Module) createStatusCommand() *discord.Command {
	return discord.NewCommand("status", "Show the ledger status", "utils", m.statusHandler)
}

func (m *Module) statusHandler(ctx *discord.CommandContext) error {
	return ctx.ReplyEmbed(m.statusEmbed(ctx))
}

func (m *Module) statusEmbed(ctx *discord.CommandContext) *discordgo.MessageEmbed {
	e := embeds.New("📊 Ledger Status", embeds.ColorBlue)
	embeds.AddField(e, "Bot", "🟢 Online", true)
	embeds.AddField(e, "Store", fmt.Sprintf("%s (%s)", m.Backend, m.LoadMode), true)

	if m.Database != nil {
		if latency, err := m.Database.Ping(ctx.Context); err != nil {
			embeds.AddField(e, "Database", "🔴 "+err.Error(), true)
		} else {
			embeds.AddField(e, "Database", fmt.Sprintf("🟢 %dms", latency.Milliseconds()), true)
		}
	}

	events := "⚪ Disabled"
	if m.Events != nil {
		events = "🔴 Disconnected"
		if m.Events.IsConnected() {
			events = "🟢 Connected"
		}
	}
	embeds.AddField(e, "Events", events, true)
	return e
}
