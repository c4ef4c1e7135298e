package mod

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/PancyStudios/PancyLedger/internal/commands/embeds"
	"github.com/PancyStudios/PancyLedger/pkg/database"
	"github.com/PancyStudios/PancyLedger/pkg/logger"
	"github.com/PancyStudios/PancyLedger/pkg/models"
	"github.com/PancyStudios/PancyLedger/pkg/violations"
	"github.com/bwmarrin/discordgo"
)

func TestMain(m *testing.M) {
	dir, _ := os.MkdirTemp("", "mod-logs")
	l := logger.Init(logger.Options{Dir: dir, Console: io.Discard})
	code := m.Run()
	l.Close()
	os.RemoveAll(dir)
	os.Exit(code)
}

var ctx = context.Background()

func newTestModule(t *testing.T) *Module {
	t.Helper()

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	opts := database.Options{Clock: func() time.Time { return now }}
	warnings := database.NewWarningsStore(database.NewMemoryBackend("warnings"), database.LoadFailOpen)
	licenses := database.NewLicensesStore(database.NewMemoryBackend("licenses"), database.LoadFailOpen)

	return &Module{
		Warnings: database.NewWarningLedger(warnings, opts),
		Bans:     database.NewBanRequestLedger(warnings, opts),
		Licenses: database.NewLicenseLedger(licenses, opts),
		Catalog:  violations.Default(),
	}
}

func TestIssue(t *testing.T) {
	m := newTestModule(t)

	out, err := m.issue(ctx, 1, 2, []string{"NLR"}, []string{"https://clips.example.com/1"}, "")
	if err != nil {
		t.Fatalf("issue() error: %v", err)
	}
	if out.Warnings[0].Reason != "Returning to the scene after death." {
		t.Errorf("Reason = %q, want violation description", out.Warnings[0].Reason)
	}
	if out.TotalPoints != 10 || out.Action != violations.ActionWrittenWarning || out.RequiresBan {
		t.Errorf("outcome = %+v", out)
	}
	if out.License != nil {
		t.Errorf("License = %+v, want nil", out.License)
	}

	out, err = m.issue(ctx, 1, 2, []string{"NLR"}, nil, "again")
	if err != nil {
		t.Fatalf("issue() error: %v", err)
	}
	if out.PointsAdded != 15 || out.TotalPoints != 25 || !out.RequiresBan {
		t.Errorf("second outcome = points %d total %d ban %v", out.PointsAdded, out.TotalPoints, out.RequiresBan)
	}
}

func TestIssueUnknownViolation(t *testing.T) {
	m := newTestModule(t)

	tests := []struct {
		name     string
		selected []string
		want     error
	}{
		{"unknown", []string{"Jaywalking"}, ErrUnknownViolation},
		{"unknown after valid", []string{"NLR", "Jaywalking"}, ErrUnknownViolation},
		{"empty", nil, ErrNoViolations},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.issue(ctx, 1, 2, tt.selected, nil, "")
			if !errors.Is(err, tt.want) {
				t.Fatalf("issue(%v) error = %v, want %v", tt.selected, err, tt.want)
			}
			if ws, _ := m.Warnings.FindAllWarningsForUser(ctx, 1, 0); len(ws) != 0 {
				t.Errorf("rejected selection stored %d warnings", len(ws))
			}
		})
	}
}

func TestIssueSeveralViolations(t *testing.T) {
	m := newTestModule(t)
	clips := []string{"https://clips.example.com/a", "https://clips.example.com/b"}

	out, err := m.issue(ctx, 42, 7, []string{"NLR", "Metagaming", "NLR"}, clips, "")
	if err != nil {
		t.Fatalf("issue() error: %v", err)
	}
	if len(out.Warnings) != 2 {
		t.Fatalf("warnings = %d, want 2", len(out.Warnings))
	}
	if got := strings.Join(out.IDs(), ","); got != "1,2" {
		t.Errorf("IDs() = %v, want 1,2", got)
	}
	if out.PointsAdded != 25 || out.TotalPoints != 25 || out.Action != "12-Hour Ban" || !out.RequiresBan {
		t.Errorf("outcome = added %d total %d action %q ban %v", out.PointsAdded, out.TotalPoints, out.Action, out.RequiresBan)
	}
	for _, w := range out.Warnings {
		if len(w.Clips) != 2 {
			t.Errorf("warning %s clips = %v, want both clips", w.ID, w.Clips)
		}
	}
	if out.Warnings[1].Reason != "Using OOC info for IC advantage." {
		t.Errorf("Reason = %q, want Metagaming description", out.Warnings[1].Reason)
	}

	e := warnEmbed(testUser(), "7", out, clips)
	if e.Footer.Text != "Warning IDs: 1, 2" {
		t.Errorf("footer = %v", e.Footer.Text)
	}
	if embeds.Field(e, "Violations") != "2" || embeds.Field(e, "Points Added") != "25" {
		t.Errorf("warnEmbed fields = %+v", e.Fields)
	}
	if got := embeds.Field(e, "Violation Details"); got != "• NLR (10 pts)\n• Metagaming (15 pts)" {
		t.Errorf("Violation Details = %q", got)
	}

	dm := warnDMEmbed(m.Catalog, out, clips)
	if got := embeds.Field(dm, "Violations"); !strings.Contains(got, "• Metagaming: Using OOC info") {
		t.Errorf("DM Violations = %q", got)
	}
	if req := banRequestEmbed(testUser(), "7", out); req.Footer.Text != "Triggered by Warning IDs: 1, 2" {
		t.Errorf("ban request footer = %v", req.Footer.Text)
	}
}

func TestViolationMenu(t *testing.T) {
	defs := violations.Default().Definitions()
	row := violationMenu("warn_select:abc", defs)[0].(discordgo.ActionsRow)
	menu := row.Components[0].(discordgo.SelectMenu)

	if menu.CustomID != "warn_select:abc" || menu.MenuType != discordgo.StringSelectMenu {
		t.Errorf("menu = %+v", menu)
	}
	want := len(defs)
	if want > maxMenuOptions {
		want = maxMenuOptions
	}
	if len(menu.Options) != want || menu.MaxValues != want || *menu.MinValues != 1 {
		t.Errorf("options = %d, max %d, min %d", len(menu.Options), menu.MaxValues, *menu.MinValues)
	}
}

func TestPendingWarns(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	p := newPendingWarns(time.Minute)
	p.now = func() time.Time { return now }

	token := p.put(&pendingWarn{Target: testUser(), ModeratorID: "7", Clips: []string{"c"}})

	if _, ok := p.take(token, "8"); ok {
		t.Error("take() by another moderator should fail")
	}
	w, ok := p.take(token, "7")
	if !ok || len(w.Clips) != 1 {
		t.Fatalf("take() = %+v, %v", w, ok)
	}
	if _, ok := p.take(token, "7"); ok {
		t.Error("take() should only succeed once")
	}

	expired := p.put(&pendingWarn{ModeratorID: "7"})
	now = now.Add(2 * time.Minute)
	if _, ok := p.take(expired, "7"); ok {
		t.Error("take() of an expired entry should fail")
	}

	p.put(&pendingWarn{ModeratorID: "7"})
	now = now.Add(2 * time.Minute)
	p.put(&pendingWarn{ModeratorID: "7"})
	if p.size() != 1 {
		t.Errorf("size() = %d, want 1 after sweeping expired entries", p.size())
	}
}

func TestIssueIncludesLicense(t *testing.T) {
	m := newTestModule(t)
	key := strings.Repeat("ab", 20)
	if ok, err := m.Licenses.AddLicense(ctx, 1, key, 9, ""); !ok || err != nil {
		t.Fatalf("AddLicense() = %v, %v", ok, err)
	}

	out, err := m.issue(ctx, 1, 2, []string{"Metagaming"}, nil, "")
	if err != nil {
		t.Fatalf("issue() error: %v", err)
	}
	if licenseText(out.License) != "`"+key+"`" {
		t.Errorf("licenseText() = %v", licenseText(out.License))
	}
}

func TestRemoveOne(t *testing.T) {
	m := newTestModule(t)
	for i := 0; i < 2; i++ {
		if _, err := m.issue(ctx, 1, 2, []string{"Cop Baiting"}, nil, ""); err != nil {
			t.Fatalf("issue() error: %v", err)
		}
	}

	out, err := m.removeOne(ctx, 1, 3, "1", "appeal")
	if err != nil {
		t.Fatalf("removeOne() error: %v", err)
	}
	if !out.Found || out.Count != 1 || out.NewPoints != 15 || out.Action != "3-Hour Ban" {
		t.Errorf("removeOne() = %+v", out)
	}

	// warning of a different user
	out, err = m.removeOne(ctx, 99, 3, "2", "wrong user")
	if err != nil {
		t.Fatalf("removeOne() error: %v", err)
	}
	if out.Found {
		t.Error("removeOne() must not remove another user's warning")
	}
	if w, _ := m.Warnings.GetWarning(ctx, "2"); w.Removed {
		t.Error("warning #2 should still be active")
	}

	out, _ = m.removeOne(ctx, 1, 3, "404", "")
	if out.Found {
		t.Error("removeOne(404) should not be found")
	}
}

func TestRemoveAll(t *testing.T) {
	m := newTestModule(t)
	m.issue(ctx, 1, 2, []string{"NLR"}, nil, "")
	m.issue(ctx, 1, 2, []string{"Metagaming"}, nil, "")

	out, err := m.removeAll(ctx, 1, 3, noReason)
	if err != nil {
		t.Fatalf("removeAll() error: %v", err)
	}
	if out.Count != 2 || out.NewPoints != 0 || out.Action != violations.ActionWrittenWarning {
		t.Errorf("removeAll() = %+v", out)
	}
	if removalSummary(out) != "All warnings (2)" {
		t.Errorf("removalSummary() = %v", removalSummary(out))
	}
}

func testUser() *discordgo.User {
	return &discordgo.User{ID: "42", Username: "player", GlobalName: "Player"}
}

func TestWarnEmbeds(t *testing.T) {
	m := newTestModule(t)
	clips := []string{"https://clips.example.com/x"}
	out, err := m.issue(ctx, 42, 7, []string{"Racism / Hate Speech"}, clips, "")
	if err != nil {
		t.Fatalf("issue() error: %v", err)
	}

	e := warnEmbed(testUser(), "7", out, clips)
	if embeds.Field(e, "Total Points") != "50" || embeds.Field(e, "Action Required") != "3-Day Ban" {
		t.Errorf("warnEmbed fields = %+v", e.Fields)
	}
	if embeds.Field(e, "Evidence") != "[Clip](https://clips.example.com/x)" {
		t.Errorf("Evidence = %v", embeds.Field(e, "Evidence"))
	}
	if e.Footer.Text != "Warning IDs: 1" {
		t.Errorf("footer = %v", e.Footer.Text)
	}

	log := warningLogEmbed(testUser(), &discordgo.User{ID: "7"}, out, clips)
	if embeds.Field(log, "License") != "Not assigned" {
		t.Errorf("License = %v", embeds.Field(log, "License"))
	}

	dm := warnDMEmbed(m.Catalog, out, clips)
	if embeds.Field(dm, "Action Required") != "**3-Day Ban**" {
		t.Errorf("DM Action Required = %v", embeds.Field(dm, "Action Required"))
	}

	req := banRequestEmbed(testUser(), "7", out)
	if embeds.Field(req, "Required Action") != "3-Day Ban" {
		t.Errorf("ban request = %+v", req.Fields)
	}
	row := banRequestComponents()[0].(discordgo.ActionsRow)
	if btn := row.Components[0].(discordgo.Button); btn.CustomID != banCompleteID {
		t.Errorf("button custom id = %v", btn.CustomID)
	}
}

func TestMarkBanCompleted(t *testing.T) {
	original := embeds.New("Ban Request", embeds.ColorRed)
	embeds.AddField(original, "User", "<@1>", true)

	updated := markBanCompleted(original, "9")
	if updated.Color != embeds.ColorDarkRed {
		t.Errorf("Color = %x", updated.Color)
	}
	if embeds.Field(updated, "Status") != "Completed by <@9>" {
		t.Errorf("Status = %v", embeds.Field(updated, "Status"))
	}
	if len(original.Fields) != 1 {
		t.Error("original embed must not be modified")
	}

	if markBanCompleted(nil, "9").Title != "Ban Request" {
		t.Error("nil original should still produce an embed")
	}
}

func TestPointsEmbed(t *testing.T) {
	active := make([]*models.Warning, 7)
	for i := range active {
		active[i] = &models.Warning{ViolationType: "NLR", Points: 10}
	}

	e := pointsEmbed(testUser(), 70, "1-Week Ban", active)
	if e.Title != "Points for Player" {
		t.Errorf("Title = %v", e.Title)
	}
	if recent := embeds.Field(e, "Recent Warnings"); !strings.HasSuffix(recent, "... and 2 more") {
		t.Errorf("Recent Warnings = %q", recent)
	}
}

func TestWarningsPaging(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{0, 1}, {1, 1}, {5, 1}, {6, 2}, {11, 3},
	}
	for _, tt := range tests {
		if got := pageCount(tt.n); got != tt.want {
			t.Errorf("pageCount(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}

	all := make([]*models.Warning, 7)
	for i := range all {
		all[i] = &models.Warning{ID: string(rune('1' + i)), ViolationType: "NLR", Points: 10}
	}
	by := int64(3)
	all[0].Removed = true
	all[0].RemovedBy = &by

	e := warningsEmbed(testUser(), all, 0, 60, "1-Week Ban")
	if len(e.Fields) != warningsPerPage+1 {
		t.Fatalf("fields = %d, want %d", len(e.Fields), warningsPerPage+1)
	}
	if !strings.HasSuffix(e.Fields[0].Name, "(REMOVED)") || !strings.Contains(e.Fields[0].Value, "Removed by: <@3>") {
		t.Errorf("first field = %+v", e.Fields[0])
	}
	if e.Footer.Text != "Page 1 of 2 • Showing 5 of 7 warnings" {
		t.Errorf("footer = %v", e.Footer.Text)
	}

	last := warningsEmbed(testUser(), all, 9, 60, "1-Week Ban")
	if last.Footer.Text != "Page 2 of 2 • Showing 2 of 7 warnings" {
		t.Errorf("clamped footer = %v", last.Footer.Text)
	}

	if warningsComponents("42", 0, 5) != nil {
		t.Error("single page should have no buttons")
	}
	row := warningsComponents("42", 0, 7)[0].(discordgo.ActionsRow)
	prev := row.Components[0].(discordgo.Button)
	next := row.Components[2].(discordgo.Button)
	if !prev.Disabled || next.Disabled || next.CustomID != "warnings_page:42:1" {
		t.Errorf("buttons = %+v / %+v", prev, next)
	}

	empty := warningsEmbed(testUser(), nil, 0, 0, violations.ActionWrittenWarning)
	if empty.Title != "No warnings found for Player" {
		t.Errorf("empty Title = %v", empty.Title)
	}
}

func TestParsePageID(t *testing.T) {
	user, page, err := parsePageID("warnings_page:42:3")
	if err != nil || user != "42" || page != 3 {
		t.Errorf("parsePageID() = %v, %v, %v", user, page, err)
	}

	for _, bad := range []string{"warnings_page:42", "ban_complete:1:2", "warnings_page:42:current"} {
		if _, _, err := parsePageID(bad); err == nil {
			t.Errorf("parsePageID(%q) should fail", bad)
		}
	}
}

func TestLookupEmbed(t *testing.T) {
	by := int64(5)
	w := &models.Warning{
		ID:            "3",
		UserID:        1,
		ModeratorID:   2,
		ViolationType: "NLR",
		Points:        10,
		Reason:        "r",
		CreatedAt:     models.At(time.Unix(1700000000, 0)),
		ExpiresAt:     models.At(time.Unix(1701000000, 0)),
		Removed:       true,
		RemovedBy:     &by,
	}

	e := lookupEmbed(w)
	if e.Color != embeds.ColorGray || embeds.Field(e, "Status") != "Removed" {
		t.Errorf("lookupEmbed status = %v / %x", embeds.Field(e, "Status"), e.Color)
	}
	if embeds.Field(e, "Removal Reason") != "No reason" || embeds.Field(e, "Removed by") != "<@5>" {
		t.Errorf("lookupEmbed removal fields = %+v", e.Fields)
	}
}

func TestRemovalEmbed(t *testing.T) {
	missing := removalEmbed(testUser(), "7", "r", &removeOutcome{WarningID: "9", Action: violations.ActionWrittenWarning})
	if missing.Title != "Warning Not Found" {
		t.Errorf("Title = %v", missing.Title)
	}

	one := removalEmbed(testUser(), "7", "r", &removeOutcome{WarningID: "9", Found: true, Count: 1, NewPoints: 5, Action: violations.ActionWrittenWarning})
	if one.Title != "Warning Removed" || embeds.Field(one, "New Point Total") != "5" {
		t.Errorf("removalEmbed = %+v", one)
	}

	log := removalLogEmbed(testUser(), &discordgo.User{ID: "7"}, "r", &removeOutcome{WarningID: "9", Found: true, Count: 1})
	if log.Footer == nil || log.Footer.Text != "Warning ID: 9" {
		t.Errorf("removal log footer = %+v", log.Footer)
	}
}
