package license

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
	"github.com/bwmarrin/discordgo"
)

func TestMain(m *testing.M) {
	dir, _ := os.MkdirTemp("", "license-logs")
	l := logger.Init(logger.Options{Dir: dir, Console: io.Discard})
	code := m.Run()
	l.Close()
	os.RemoveAll(dir)
	os.Exit(code)
}

var ctx = context.Background()

const (
	keyA = "0123456789abcdef0123456789abcdef01234567"
	keyB = "fedcba9876543210fedcba9876543210fedcba98"
)

func newTestModule(t *testing.T) *Module {
	t.Helper()

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
	store := database.NewLicensesStore(database.NewMemoryBackend("licenses"), database.LoadFailOpen)
	return &Module{Licenses: database.NewLicenseLedger(store, database.Options{Clock: clock})}
}

func TestValidKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{keyA, true},
		{strings.ToUpper(keyA), true},
		{keyA[:39], false},
		{keyA + "0", false},
		{strings.Repeat("g", 40), false},
		{"", false},
		{strings.Repeat("é", 20), false},
	}

	for _, tt := range tests {
		if got := ValidKey(tt.key); got != tt.want {
			t.Errorf("ValidKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestShortKey(t *testing.T) {
	if got := ShortKey(keyA); got != "01234567...01234567" {
		t.Errorf("ShortKey() = %v, want 01234567...01234567", got)
	}
	if got := ShortKey("abc"); got != "abc" {
		t.Errorf("ShortKey(abc) = %v, want abc", got)
	}
}

func TestAdd(t *testing.T) {
	m := newTestModule(t)

	out, err := m.add(ctx, 1, "  "+strings.ToUpper(keyA)+" ", 9, "note")
	if err != nil {
		t.Fatalf("add() error: %v", err)
	}
	if !out.Added || out.Key != keyA {
		t.Errorf("add() = %+v, want added lower-cased key", out)
	}

	record, _ := m.Licenses.LicenseForUser(ctx, 1)
	if record == nil || record.LicenseKey != keyA {
		t.Errorf("LicenseForUser() = %+v, want %v", record, keyA)
	}

	out, err = m.add(ctx, 2, keyA, 9, "")
	if err != nil {
		t.Fatalf("add() error: %v", err)
	}
	if out.Added {
		t.Error("add() of a held key should not succeed")
	}
	if out.Holder == nil || out.Holder.UserID != 1 {
		t.Errorf("Holder = %+v, want user 1", out.Holder)
	}

	if _, err := m.add(ctx, 2, "not-a-key", 9, ""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("add(invalid) error = %v, want ErrInvalidKey", err)
	}
}

func TestLookup(t *testing.T) {
	m := newTestModule(t)
	m.add(ctx, 1, keyA, 9, "")
	m.add(ctx, 2, keyB, 9, "")

	out, err := m.lookup(ctx, strings.ToUpper(keyB))
	if err != nil {
		t.Fatalf("lookup() error: %v", err)
	}
	if !out.Exact || out.Record == nil || out.Record.UserID != 2 {
		t.Errorf("lookup(exact) = %+v", out)
	}

	out, _ = m.lookup(ctx, strings.Repeat("1", 40))
	if !out.Exact || out.Record != nil {
		t.Errorf("lookup(unknown exact) = %+v, want exact miss", out)
	}

	out, _ = m.lookup(ctx, "BA98")
	if out.Exact || len(out.Results) != 1 || out.Results[0].UserID != 2 {
		t.Errorf("lookup(fragment) = %+v", out)
	}

	out, _ = m.lookup(ctx, "0123")
	if len(out.Results) != 1 {
		t.Errorf("lookup(0123) results = %v, want 1", len(out.Results))
	}
}

func TestRemove(t *testing.T) {
	// every entry shares one timestamp
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	store := database.NewLicensesStore(database.NewMemoryBackend("licenses"), database.LoadFailOpen)
	m := &Module{Licenses: database.NewLicenseLedger(store, database.Options{Clock: func() time.Time { return now }})}

	m.add(ctx, 1, keyA, 9, "")
	if _, removed, _ := m.remove(ctx, 1, 9, "first"); !removed {
		t.Fatal("remove() should remove keyA")
	}
	m.add(ctx, 1, keyB, 9, "")

	key, removed, err := m.remove(ctx, 1, 9, defaultReason)
	if err != nil || !removed {
		t.Fatalf("remove() = %v, %v", removed, err)
	}
	if key != keyB {
		t.Errorf("remove() key = %v, want %v", key, keyB)
	}

	key, removed, err = m.remove(ctx, 1, 9, defaultReason)
	if err != nil || removed || key != "" {
		t.Errorf("remove(no license) = %q, %v, %v", key, removed, err)
	}
}

func TestSuggest(t *testing.T) {
	m := newTestModule(t)
	m.add(ctx, 1, keyA, 9, "")
	m.add(ctx, 2, keyB, 9, "")

	choices, err := m.suggest(ctx, "BA98")
	if err != nil {
		t.Fatalf("suggest() error: %v", err)
	}
	if len(choices) != 1 || choices[0].Value != keyB || choices[0].Name != "fedcba98...fedcba98 (user 2)" {
		t.Errorf("suggest(BA98) = %+v", choices)
	}

	all, _ := m.suggest(ctx, "")
	if len(all) != 2 {
		t.Errorf("suggest(\"\") = %d choices, want 2", len(all))
	}
}

func TestHistoryFilterLimit(t *testing.T) {
	tests := []struct {
		requested int64
		want      int
	}{
		{0, historyLimit},
		{-3, historyLimit},
		{5, 5},
		{25, 25},
		{100, maxHistoryLimit},
	}
	for _, tt := range tests {
		if got := historyFilterLimit(tt.requested); got != tt.want {
			t.Errorf("historyFilterLimit(%d) = %v, want %v", tt.requested, got, tt.want)
		}
	}
}

func TestAddEmbed(t *testing.T) {
	target := &discordgo.User{ID: "1", Username: "player"}

	e := addEmbed(target, "9", "vip", &addOutcome{Key: keyA, Added: true})
	if e.Title != "License Added" || e.Color != embeds.ColorGreen {
		t.Errorf("addEmbed() = %v/%v", e.Title, e.Color)
	}
	if got := embeds.Field(e, "Note"); got != "vip" {
		t.Errorf("Note = %v, want vip", got)
	}

	e = addEmbed(target, "9", "", &addOutcome{Key: keyA, Holder: &models.LicenseRecord{UserID: 7}})
	if e.Title != "License Already Assigned" || !strings.Contains(e.Description, "<@7>") {
		t.Errorf("addEmbed(conflict) = %v: %v", e.Title, e.Description)
	}
}

func TestLookupEmbed(t *testing.T) {
	at := models.At(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))

	e := lookupEmbed(&lookupOutcome{Query: keyA, Exact: true})
	if e.Title != "License Not Found" {
		t.Errorf("Title = %v, want License Not Found", e.Title)
	}

	results := make([]*models.LicenseRecord, 12)
	for i := range results {
		results[i] = &models.LicenseRecord{LicenseKey: keyA, UserID: int64(i + 1), AddedAt: at}
	}
	e = lookupEmbed(&lookupOutcome{Query: "0123", Results: results})
	if len(e.Fields) != searchLimit {
		t.Errorf("len(Fields) = %v, want %v", len(e.Fields), searchLimit)
	}
	if e.Fields[0].Name != "1. 01234567...01234567" {
		t.Errorf("Fields[0].Name = %v", e.Fields[0].Name)
	}
	if e.Footer == nil || e.Footer.Text != "Showing 10 of 12 results" {
		t.Errorf("Footer = %+v", e.Footer)
	}

	e = lookupEmbed(&lookupOutcome{Query: "zz"})
	if e.Title != "No Results" {
		t.Errorf("Title = %v, want No Results", e.Title)
	}
}

func TestHistoryEmbed(t *testing.T) {
	at := models.At(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	entries := []*models.LicenseHistoryEntry{
		{Action: models.LicenseActionRemove, UserID: 1, LicenseKey: keyA, ModeratorID: 9, Timestamp: at, Reason: "expired"},
		{Action: models.LicenseActionAdd, UserID: 1, LicenseKey: keyA, ModeratorID: 9, Timestamp: at},
	}

	e := historyEmbed(entries)
	if len(e.Fields) != 2 {
		t.Fatalf("len(Fields) = %v, want 2", len(e.Fields))
	}
	if !strings.HasPrefix(e.Fields[0].Name, "Remove") || !strings.Contains(e.Fields[0].Value, "Reason: expired") {
		t.Errorf("Fields[0] = %+v", e.Fields[0])
	}
	if !strings.HasPrefix(e.Fields[1].Name, "Add") {
		t.Errorf("Fields[1].Name = %v", e.Fields[1].Name)
	}

	if e := historyEmbed(nil); e.Title != "No History" {
		t.Errorf("Title = %v, want No History", e.Title)
	}
}

func TestActionLogEmbed(t *testing.T) {
	target := &discordgo.User{ID: "1"}
	moderator := &discordgo.User{ID: "9"}

	e := actionLogEmbed(target, moderator, models.LicenseActionRemove, keyA, "expired")
	if e.Title != "License Remove Log" || e.Color != embeds.ColorPurple {
		t.Errorf("actionLogEmbed() = %v/%v", e.Title, e.Color)
	}
	if got := embeds.Field(e, "License"); got != "`"+keyA+"`" {
		t.Errorf("License = %v", got)
	}
}
