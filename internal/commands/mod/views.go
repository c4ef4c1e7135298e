package mod

import (
	"fmt"
	"strings"
	"time"

	"github.com/PancyStudios/PancyLedger/internal/commands/embeds"
	"github.com/PancyStudios/PancyLedger/pkg/models"
	"github.com/PancyStudios/PancyLedger/pkg/violations"
	"github.com/bwmarrin/discordgo"
)

const (
	banCompleteID    = "ban_complete"
	warnSelectID     = "warn_select"
	warningsPageID   = "warnings_page"
	warningsPerPage  = 5
	warningsMaxShown = 100
	recentWarnings   = 5
)

func displayName(u *discordgo.User) string {
	if u == nil {
		return "Unknown user"
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

func userLine(u *discordgo.User) string {
	return fmt.Sprintf("<@%s> (%s)", u.ID, u.ID)
}

func thumbnail(e *discordgo.MessageEmbed, u *discordgo.User) {
	if u != nil {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: u.AvatarURL("")}
	}
}

func violationPromptEmbed(target *discordgo.User, moderatorID string, clips int) *discordgo.MessageEmbed {
	e := embeds.New("Issue Warning", embeds.ColorBlue)
	e.Description = "Select the violation type(s) for <@" + target.ID + ">"
	embeds.AddField(e, "User", userLine(target), true)
	embeds.AddField(e, "Moderator", "<@"+moderatorID+">", true)
	embeds.AddField(e, "Evidence Clips", fmt.Sprint(clips), true)
	return e
}

// violationMenu builds a string select allowing every violation at once
func violationMenu(customID string, defs []violations.Definition) []discordgo.MessageComponent {
	if len(defs) > maxMenuOptions {
		defs = defs[:maxMenuOptions]
	}

	options := make([]discordgo.SelectMenuOption, 0, len(defs))
	for _, d := range defs {
		description := d.Description
		if r := []rune(description); len(r) > 100 {
			description = string(r[:100])
		}
		options = append(options, discordgo.SelectMenuOption{
			Label:       d.Name,
			Value:       d.Name,
			Description: description,
		})
	}

	minValues := 1
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    customID,
				Placeholder: "Select violation type(s)...",
				MinValues:   &minValues,
				MaxValues:   len(options),
				Options:     options,
			},
		}},
	}
}

// violationLines renders "• type (n pts)" per issued warning
func violationLines(out *warnOutcome) string {
	var b strings.Builder
	for _, w := range out.Warnings {
		fmt.Fprintf(&b, "• %s (%d pts)\n", w.ViolationType, w.Points)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func warningIDsFooter(prefix string, out *warnOutcome) *discordgo.MessageEmbedFooter {
	return &discordgo.MessageEmbedFooter{Text: prefix + strings.Join(out.IDs(), ", ")}
}

func warnEmbed(target *discordgo.User, moderatorID string, out *warnOutcome, clips []string) *discordgo.MessageEmbed {
	e := embeds.New("Warning(s) Issued", embeds.ColorOrange)
	embeds.AddField(e, "User", userLine(target), true)
	embeds.AddField(e, "Violations", fmt.Sprint(len(out.Warnings)), true)
	embeds.AddField(e, "Points Added", fmt.Sprint(out.PointsAdded), true)
	embeds.AddField(e, "Total Points", fmt.Sprint(out.TotalPoints), true)
	embeds.AddField(e, "Action Required", out.Action, true)
	embeds.AddField(e, "Moderator", "<@"+moderatorID+">", true)
	embeds.AddField(e, "Violation Details", violationLines(out), false)
	embeds.AddField(e, "Evidence", embeds.FormatClips(clips, true), false)
	e.Footer = warningIDsFooter("Warning IDs: ", out)
	return e
}

func warningLogEmbed(target *discordgo.User, moderator *discordgo.User, out *warnOutcome, clips []string) *discordgo.MessageEmbed {
	e := embeds.New("Warning Log", embeds.ColorOrange)
	embeds.AddField(e, "User", userLine(target), true)
	embeds.AddField(e, "Moderator", userLine(moderator), true)
	embeds.AddField(e, "Total Points", fmt.Sprint(out.TotalPoints), true)
	embeds.AddField(e, "License", licenseText(out.License), true)
	embeds.AddField(e, "Action Required", out.Action, true)
	embeds.AddField(e, "Violations", violationLines(out), false)
	embeds.AddField(e, "Points Added", fmt.Sprint(out.PointsAdded), true)
	embeds.AddField(e, "Evidence", embeds.FormatClips(clips, true), false)
	thumbnail(e, target)
	e.Footer = warningIDsFooter("Warning IDs: ", out)
	return e
}

func warnDMEmbed(catalog *violations.Catalog, out *warnOutcome, clips []string) *discordgo.MessageEmbed {
	var b strings.Builder
	for _, w := range out.Warnings {
		def, _ := catalog.Lookup(w.ViolationType)
		fmt.Fprintf(&b, "• %s: %s\n", w.ViolationType, def.Description)
	}

	e := embeds.New("You have received warning(s)", embeds.ColorRed)
	embeds.AddField(e, "Violations", strings.TrimSuffix(b.String(), "\n"), false)
	embeds.AddField(e, "Points Added", fmt.Sprint(out.PointsAdded), true)
	embeds.AddField(e, "Total Points", fmt.Sprint(out.TotalPoints), true)
	embeds.AddField(e, "Current Status", out.Action, true)
	embeds.AddField(e, "Evidence", embeds.FormatClips(clips, true), false)
	if out.RequiresBan {
		embeds.AddField(e, "Action Required", "**"+out.Action+"**", false)
		embeds.AddField(e, "Note", "Please contact staff if you believe this is in error.", false)
	}
	return e
}

func dmFailedEmbed(who string) *discordgo.MessageEmbed {
	e := embeds.New("⚠️ DM Failed", embeds.ColorYellow)
	e.Description = "Could not send a direct message to " + who
	return e
}

func banRequestEmbed(target *discordgo.User, moderatorID string, out *warnOutcome) *discordgo.MessageEmbed {
	e := embeds.New("Ban Request", embeds.ColorRed)
	embeds.AddField(e, "User", userLine(target), true)
	embeds.AddField(e, "Total Points", fmt.Sprint(out.TotalPoints), true)
	embeds.AddField(e, "Required Action", out.Action, true)
	embeds.AddField(e, "Requested by", "<@"+moderatorID+">", true)
	embeds.AddField(e, "License", licenseText(out.License), true)
	thumbnail(e, target)
	e.Footer = warningIDsFooter("Triggered by Warning IDs: ", out)
	return e
}

func banRequestComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Complete Ban",
				Style:    discordgo.DangerButton,
				CustomID: banCompleteID,
			},
		}},
	}
}

func banCompletedEmbed(req *models.BanRequest, completedBy string, license *models.LicenseRecord) *discordgo.MessageEmbed {
	e := embeds.New("Ban Completed", embeds.ColorDarkRed)
	embeds.AddField(e, "User", embeds.Mention(req.UserID), true)
	embeds.AddField(e, "Total Points", fmt.Sprint(req.TotalPoints), true)
	embeds.AddField(e, "Action", req.Action, true)
	embeds.AddField(e, "Completed by", "<@"+completedBy+">", true)
	embeds.AddField(e, "License", licenseText(license), true)
	return e
}

// markBanCompleted copies the original request embed and stamps it completed
func markBanCompleted(original *discordgo.MessageEmbed, completedBy string) *discordgo.MessageEmbed {
	e := embeds.New("Ban Request", embeds.ColorDarkRed)
	if original != nil {
		cp := *original
		cp.Fields = append([]*discordgo.MessageEmbedField(nil), original.Fields...)
		e = &cp
	}
	e.Color = embeds.ColorDarkRed
	embeds.AddField(e, "Status", "Completed by <@"+completedBy+">", false)
	return e
}

func banDMEmbed(guildName string, req *models.BanRequest) *discordgo.MessageEmbed {
	e := embeds.New("You have been banned", embeds.ColorDarkRed)
	embeds.AddField(e, "Server", guildName, false)
	embeds.AddField(e, "Total Points", fmt.Sprint(req.TotalPoints), true)
	embeds.AddField(e, "Ban Duration", req.Action, true)
	embeds.AddField(e, "Appeal", "Contact staff if you believe this is in error.", false)
	return e
}

func pointsEmbed(target *discordgo.User, points int, action string, active []*models.Warning) *discordgo.MessageEmbed {
	e := embeds.New("Points for "+displayName(target), embeds.ColorBlue)
	embeds.AddField(e, "Total Points", fmt.Sprint(points), true)
	embeds.AddField(e, "Active Warnings", fmt.Sprint(len(active)), true)
	embeds.AddField(e, "Current Status", action, true)

	if len(active) > 0 {
		var b strings.Builder
		for i, w := range active {
			if i == recentWarnings {
				fmt.Fprintf(&b, "... and %d more", len(active)-recentWarnings)
				break
			}
			fmt.Fprintf(&b, "• %s (%d pts)\n", w.ViolationType, w.Points)
		}
		embeds.AddField(e, "Recent Warnings", b.String(), false)
	}
	thumbnail(e, target)
	return e
}

// pageCount returns the number of warning pages, at least one
func pageCount(n int) int {
	if n == 0 {
		return 1
	}
	return (n-1)/warningsPerPage + 1
}

func clampPage(page, pages int) int {
	if page < 0 {
		return 0
	}
	if page >= pages {
		return pages - 1
	}
	return page
}

func warningsEmbed(target *discordgo.User, all []*models.Warning, page, points int, action string) *discordgo.MessageEmbed {
	if len(all) == 0 {
		return embeds.New("No warnings found for "+displayName(target), embeds.ColorGreen)
	}

	pages := pageCount(len(all))
	page = clampPage(page, pages)
	start := page * warningsPerPage
	end := start + warningsPerPage
	if end > len(all) {
		end = len(all)
	}

	e := embeds.New("Warnings for "+displayName(target), embeds.ColorOrange)
	for i, w := range all[start:end] {
		status := ""
		if w.Removed {
			status = " (REMOVED)"
		}

		value := fmt.Sprintf("By: %s\nDate: %s\nID: `%s`", embeds.Mention(w.ModeratorID), embeds.Relative(w.CreatedAt.Time), w.ID)
		if clips := embeds.FormatClips(w.Clips, false); clips != "" {
			value += "\nEvidence: " + clips
		}
		if w.Removed && w.RemovedBy != nil {
			value += "\nRemoved by: " + embeds.Mention(*w.RemovedBy)
		}

		embeds.AddField(e, fmt.Sprintf("%d. %s (%d pts)%s", start+i+1, w.ViolationType, w.Points, status), value, false)
	}
	embeds.AddField(e, "Summary", fmt.Sprintf("Points: %d | %s", points, action), false)

	if pages > 1 {
		e.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Page %d of %d • Showing %d of %d warnings", page+1, pages, end-start, len(all)),
		}
	} else {
		e.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Showing all %d warnings", len(all))}
	}
	return e
}

// warningsComponents returns the pager buttons, nil for a single page
func warningsComponents(userID string, page, total int) []discordgo.MessageComponent {
	pages := pageCount(total)
	if pages <= 1 {
		return nil
	}
	page = clampPage(page, pages)

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Previous",
				Style:    discordgo.SecondaryButton,
				CustomID: fmt.Sprintf("%s:%s:%d", warningsPageID, userID, page-1),
				Disabled: page == 0,
			},
			discordgo.Button{
				Label:    fmt.Sprintf("Page %d/%d", page+1, pages),
				Style:    discordgo.SecondaryButton,
				CustomID: fmt.Sprintf("%s:%s:current", warningsPageID, userID),
				Disabled: true,
			},
			discordgo.Button{
				Label:    "Next",
				Style:    discordgo.SecondaryButton,
				CustomID: fmt.Sprintf("%s:%s:%d", warningsPageID, userID, page+1),
				Disabled: page >= pages-1,
			},
		}},
	}
}

func notFoundEmbed(title, description string) *discordgo.MessageEmbed {
	e := embeds.New(title, embeds.ColorRed)
	e.Description = description
	return e
}

func lookupEmbed(w *models.Warning) *discordgo.MessageEmbed {
	color := embeds.ColorBlue
	status := "Active"
	if w.Removed {
		color = embeds.ColorGray
		status = "Removed"
	}

	e := embeds.New("Warning Details", color)
	e.Timestamp = w.CreatedAt.Time.Format(time.RFC3339)
	embeds.AddField(e, "Warning ID", w.ID, true)
	embeds.AddField(e, "User", embeds.Mention(w.UserID), true)
	embeds.AddField(e, "Violation", w.ViolationType, true)
	embeds.AddField(e, "Points", fmt.Sprint(w.Points), true)
	embeds.AddField(e, "Moderator", embeds.Mention(w.ModeratorID), true)
	embeds.AddField(e, "Status", status, true)
	embeds.AddField(e, "Expires", embeds.Relative(w.ExpiresAt.Time), true)
	if w.Removed {
		if w.RemovedBy != nil {
			embeds.AddField(e, "Removed by", embeds.Mention(*w.RemovedBy), true)
		}
		reason := w.RemovalReason
		if reason == "" {
			reason = "No reason"
		}
		embeds.AddField(e, "Removal Reason", reason, true)
	}
	embeds.AddField(e, "Reason", w.Reason, false)
	embeds.AddField(e, "Evidence", embeds.FormatClips(w.Clips, true), false)
	return e
}

func removalEmbed(target *discordgo.User, moderatorID, reason string, out *removeOutcome) *discordgo.MessageEmbed {
	var e *discordgo.MessageEmbed
	switch {
	case out.WarningID != "" && !out.Found:
		e = notFoundEmbed("Warning Not Found", fmt.Sprintf("Warning ID `%s` not found for %s.", out.WarningID, displayName(target)))
	case out.WarningID != "":
		e = embeds.New("Warning Removed", embeds.ColorGreen)
		embeds.AddField(e, "Warning ID", out.WarningID, true)
		embeds.AddField(e, "Removed by", "<@"+moderatorID+">", true)
		embeds.AddField(e, "Reason", reason, false)
	default:
		e = embeds.New("Warnings Removed", embeds.ColorGreen)
		embeds.AddField(e, "User", userLine(target), true)
		embeds.AddField(e, "Warnings Removed", fmt.Sprint(out.Count), true)
		embeds.AddField(e, "Removed by", "<@"+moderatorID+">", true)
		embeds.AddField(e, "Reason", reason, false)
	}

	embeds.AddField(e, "New Point Total", fmt.Sprint(out.NewPoints), true)
	embeds.AddField(e, "New Status", out.Action, true)
	thumbnail(e, target)
	return e
}

// removalSummary describes what was removed for logs and DMs
func removalSummary(out *removeOutcome) string {
	if out.WarningID != "" {
		return "ID: " + out.WarningID
	}
	return fmt.Sprintf("All warnings (%d)", out.Count)
}

func removalLogEmbed(target, moderator *discordgo.User, reason string, out *removeOutcome) *discordgo.MessageEmbed {
	e := embeds.New("Warning Removal Log", embeds.ColorBlue)
	embeds.AddField(e, "User", userLine(target), true)
	embeds.AddField(e, "Removed by", userLine(moderator), true)
	embeds.AddField(e, "Warning(s)", removalSummary(out), true)
	embeds.AddField(e, "Reason", reason, false)
	thumbnail(e, target)
	if out.WarningID != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: "Warning ID: " + out.WarningID}
	}
	return e
}

func removalDMEmbed(guildName, reason string, out *removeOutcome) *discordgo.MessageEmbed {
	e := embeds.New("Warning(s) Removed", embeds.ColorGreen)
	embeds.AddField(e, "Server", guildName, false)
	embeds.AddField(e, "Removed", removalSummary(out), true)
	embeds.AddField(e, "Reason", reason, false)
	embeds.AddField(e, "New Point Total", fmt.Sprint(out.NewPoints), true)
	embeds.AddField(e, "New Status", out.Action, true)
	return e
}
