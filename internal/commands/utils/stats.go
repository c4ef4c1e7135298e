package utils

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/PancyStudios/PancyLedger/internal/commands/embeds"
	"github.com/PancyStudios/PancyLedger/pkg/config"
	"github.com/PancyStudios/PancyLedger/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

// createStatsCommand creates the /utils stats subcommand
func createStatsCommand() *discord.Command {
	return discord.NewCommand("stats", "Show bot runtime statistics", "utils", statsHandler)
}

func statsHandler(ctx *discord.CommandContext) error {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	e := embeds.New("📊 Bot Statistics", 0x5865F2)
	embeds.AddField(e, "🤖 Version", config.Version, true)
	embeds.AddField(e, "🐹 Go", strings.TrimPrefix(runtime.Version(), "go"), true)
	embeds.AddField(e, "📚 DiscordGo", discordgo.VERSION, true)
	embeds.AddField(e, "🖥 RAM", fmt.Sprintf("%.2f MB", float64(mem.Alloc)/1024/1024), true)
	embeds.AddField(e, "⚙ CPU", fmt.Sprintf("%d Goroutines / %d CPUs", runtime.NumGoroutine(), runtime.NumCPU()), true)
	embeds.AddField(e, "⏱ Uptime", formatDuration(time.Since(ctx.Client.StartTime)), true)
	e.Footer = &discordgo.MessageEmbedFooter{Text: "💫 - Developed by PancyStudios"}
	if ctx.Session.State != nil && ctx.Session.State.User != nil {
		e.Footer.IconURL = ctx.Session.State.User.AvatarURL("")
	}
	e.Timestamp = time.Now().Format(time.RFC3339)

	return ctx.ReplyEmbed(e)
}

// formatDuration formats a duration as "1 days, 2 hours, 3 minutes, 4 seconds"
func formatDuration(dur time.Duration) string {
	days := int(dur.Hours() / 24)
	hours := int(dur.Hours()) % 24
	minutes := int(dur.Minutes()) % 60
	seconds := int(dur.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%d days", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d hours", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d minutes", minutes))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%d seconds", seconds))
	}

	return strings.Join(parts, ", ")
}
