// Package embeds holds the embed helpers shared by the command packages.
package embeds

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Embed colors
const (
	ColorBlue    = 0x3498DB
	ColorGreen   = 0x2ECC71
	ColorOrange  = 0xE67E22
	ColorRed     = 0xE74C3C
	ColorDarkRed = 0x992D22
	ColorYellow  = 0xF1C40F
	ColorPurple  = 0x9B59B6
	ColorGray    = 0x95A5A6
)

// FieldLimit is Discord's maximum embed field value length
const FieldLimit = 1024

var urlPattern = regexp.MustCompile(`(?i)^https?://` +
	`(?:(?:[A-Z0-9](?:[A-Z0-9-]{0,61}[A-Z0-9])?\.)+[A-Z]{2,6}\.?|localhost|\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
	`(?::\d+)?(?:/?|[/?]\S+)$`)

// IsURL reports whether s looks like an http(s) link
func IsURL(s string) bool {
	return urlPattern.MatchString(strings.TrimSpace(s))
}

// Truncate shortens values that would not fit in an embed field
func Truncate(s string) string {
	r := []rune(s)
	if len(r) <= FieldLimit {
		return s
	}
	return string(r[:1000]) + "... (truncated)"
}

// FormatClips renders evidence. Links become [Clip n](url), anything else
// is listed as plain text. Numbering is dropped when there is only one.
func FormatClips(clips []string, newlines bool) string {
	var links, texts []string
	for _, c := range clips {
		if strings.TrimSpace(c) == "" {
			continue
		}
		if IsURL(c) {
			links = append(links, c)
		} else {
			texts = append(texts, c)
		}
	}
	total := len(links) + len(texts)
	if total == 0 {
		return ""
	}

	out := make([]string, 0, total)
	for i, link := range links {
		if len(links) == 1 {
			out = append(out, fmt.Sprintf("[Clip](%s)", link))
		} else {
			out = append(out, fmt.Sprintf("[Clip %d](%s)", i+1, link))
		}
	}
	for i, text := range texts {
		if total == 1 {
			out = append(out, text)
		} else {
			out = append(out, fmt.Sprintf("%d) %s", i+1, text))
		}
	}

	sep := ", "
	if newlines {
		sep = "\n"
	}
	return strings.Join(out, sep)
}

// New starts an embed stamped with the current time
func New(title string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:     title,
		Color:     color,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// AddField appends a field, truncating long values and skipping empty ones
func AddField(e *discordgo.MessageEmbed, name, value string, inline bool) {
	if value == "" {
		return
	}
	e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
		Name:   name,
		Value:  Truncate(value),
		Inline: inline,
	})
}

// Mention formats a user mention from a ledger id
func Mention(userID int64) string {
	return fmt.Sprintf("<@%d>", userID)
}

// Relative renders a Discord relative timestamp
func Relative(t time.Time) string {
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}

// Field returns the value of the named field, "" when absent
func Field(e *discordgo.MessageEmbed, name string) string {
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}
