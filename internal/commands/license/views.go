package license

import (
	"fmt"
	"strings"

	"github.com/PancyStudios/PancyLedger/internal/commands/embeds"
	"github.com/PancyStudios/PancyLedger/pkg/models"
	"github.com/bwmarrin/discordgo"
)

func userLine(u *discordgo.User) string {
	return fmt.Sprintf("<@%s> (%s)", u.ID, u.ID)
}

func errorEmbed(title, description string) *discordgo.MessageEmbed {
	e := embeds.New(title, embeds.ColorRed)
	e.Description = description
	return e
}

func addEmbed(target *discordgo.User, moderatorID, note string, out *addOutcome) *discordgo.MessageEmbed {
	if !out.Added {
		if out.Holder != nil {
			return errorEmbed("License Already Assigned",
				fmt.Sprintf("License `%s` is already assigned to %s", out.Key, embeds.Mention(out.Holder.UserID)))
		}
		return errorEmbed("Error Adding License", "An error occurred while adding the license.")
	}

	e := embeds.New("License Added", embeds.ColorGreen)
	embeds.AddField(e, "User", userLine(target), true)
	embeds.AddField(e, "License", "`"+out.Key+"`", true)
	embeds.AddField(e, "Added by", "<@"+moderatorID+">", true)
	embeds.AddField(e, "Note", note, false)
	return e
}

func removeEmbed(target *discordgo.User, moderatorID, reason string, removed bool) *discordgo.MessageEmbed {
	if !removed {
		return errorEmbed("No License Found", "No license found for "+userLine(target))
	}

	e := embeds.New("License Removed", embeds.ColorOrange)
	embeds.AddField(e, "User", userLine(target), true)
	embeds.AddField(e, "Removed by", "<@"+moderatorID+">", true)
	embeds.AddField(e, "Reason", reason, false)
	return e
}

func checkEmbed(target *discordgo.User, record *models.LicenseRecord) *discordgo.MessageEmbed {
	e := embeds.New("License Info for "+target.Username, embeds.ColorBlue)
	if record == nil {
		embeds.AddField(e, "Status", "No license assigned", false)
		return e
	}
	embeds.AddField(e, "License", "`"+record.LicenseKey+"`", true)
	embeds.AddField(e, "Added by", embeds.Mention(record.AddedBy), true)
	embeds.AddField(e, "Added", embeds.Relative(record.AddedAt.Time), true)
	embeds.AddField(e, "Note", record.Note, false)
	e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: target.AvatarURL("")}
	return e
}

func lookupEmbed(out *lookupOutcome) *discordgo.MessageEmbed {
	if out.Exact {
		if out.Record == nil {
			return errorEmbed("License Not Found", fmt.Sprintf("No user found with license: `%s`", out.Query))
		}
		r := out.Record
		e := embeds.New("License Details", embeds.ColorBlue)
		embeds.AddField(e, "License", "`"+r.LicenseKey+"`", false)
		embeds.AddField(e, "User", embeds.Mention(r.UserID), true)
		embeds.AddField(e, "Added by", embeds.Mention(r.AddedBy), true)
		embeds.AddField(e, "Added", embeds.Relative(r.AddedAt.Time), true)
		embeds.AddField(e, "Note", r.Note, false)
		return e
	}

	if len(out.Results) == 0 {
		return errorEmbed("No Results", fmt.Sprintf("No licenses found matching: `%s`", out.Query))
	}

	e := embeds.New(fmt.Sprintf("License Search Results for '%s'", out.Query), embeds.ColorBlue)
	for i, r := range out.Results {
		if i == searchLimit {
			break
		}
		embeds.AddField(e,
			fmt.Sprintf("%d. %s", i+1, ShortKey(r.LicenseKey)),
			fmt.Sprintf("User: %s\nAdded: %s", embeds.Mention(r.UserID), embeds.Relative(r.AddedAt.Time)),
			true)
	}
	if len(out.Results) > searchLimit {
		e.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Showing %d of %d results", searchLimit, len(out.Results))}
	}
	return e
}

func historyEmbed(entries []*models.LicenseHistoryEntry) *discordgo.MessageEmbed {
	if len(entries) == 0 {
		return errorEmbed("No History", "No license history matches the filter.")
	}

	e := embeds.New("License History", embeds.ColorPurple)
	for _, h := range entries {
		var b strings.Builder
		fmt.Fprintf(&b, "User: %s\nBy: %s\nWhen: %s", embeds.Mention(h.UserID), embeds.Mention(h.ModeratorID), embeds.Relative(h.Timestamp.Time))
		if h.Note != "" {
			b.WriteString("\nNote: " + h.Note)
		}
		if h.Reason != "" {
			b.WriteString("\nReason: " + h.Reason)
		}
		embeds.AddField(e, fmt.Sprintf("%s `%s`", actionTitle(h.Action), ShortKey(h.LicenseKey)), b.String(), false)
	}
	return e
}

func actionTitle(action models.LicenseAction) string {
	if action == models.LicenseActionRemove {
		return "Remove"
	}
	return "Add"
}

func actionLogEmbed(target, moderator *discordgo.User, action models.LicenseAction, key, note string) *discordgo.MessageEmbed {
	title := actionTitle(action)

	e := embeds.New("License "+title+" Log", embeds.ColorPurple)
	embeds.AddField(e, "User", userLine(target), true)
	embeds.AddField(e, "Action", title, true)
	embeds.AddField(e, "Moderator", userLine(moderator), true)
	if key != "" {
		embeds.AddField(e, "License", "`"+key+"`", false)
	}
	embeds.AddField(e, "Note/Reason", note, false)
	return e
}
