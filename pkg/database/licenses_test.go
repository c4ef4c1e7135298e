package database

import (
	"strings"
	"testing"
	"time"

	"github.com/PancyStudios/PancyLedger/pkg/models"
)

const (
	keyA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	keyB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	keyC = "0123456789abcdef0123456789abcdef01234567"
)

type licenseFixture struct {
	backend   *MemoryBackend
	ledger    *LicenseLedger
	clock     *fakeClock
	publisher *recordingPublisher
}

func newLicenseFixture(t *testing.T) *licenseFixture {
	t.Helper()
	clock := newFakeClock()
	publisher := &recordingPublisher{}
	backend := NewMemoryBackend("licenses")
	return &licenseFixture{
		backend:   backend,
		ledger:    NewLicenseLedger(NewLicensesStore(backend, LoadFailOpen), Options{Clock: clock.Now, Publisher: publisher}),
		clock:     clock,
		publisher: publisher,
	}
}

func TestAddLicenseUniqueness(t *testing.T) {
	f := newLicenseFixture(t)

	ok, err := f.ledger.AddLicense(ctx, 1, keyA, 100, "first")
	if err != nil || !ok {
		t.Fatalf("AddLicense(u1, kA) = %v, %v, want true, nil", ok, err)
	}

	ok, err = f.ledger.AddLicense(ctx, 2, keyA, 100, "steal")
	if err != nil || ok {
		t.Fatalf("AddLicense(u2, kA) = %v, %v, want false, nil", ok, err)
	}

	holder, _ := f.ledger.UserForLicense(ctx, keyA)
	if holder == nil || holder.UserID != 1 {
		t.Errorf("UserForLicense(kA) = %+v, want user 1", holder)
	}
	if rec, _ := f.ledger.LicenseForUser(ctx, 2); rec != nil {
		t.Errorf("LicenseForUser(u2) = %+v, want nil", rec)
	}
}

func TestAddLicenseRelicense(t *testing.T) {
	f := newLicenseFixture(t)

	if ok, _ := f.ledger.AddLicense(ctx, 1, keyA, 100, ""); !ok {
		t.Fatal("AddLicense(u1, kA) failed")
	}
	f.clock.Advance(time.Minute)
	if ok, _ := f.ledger.AddLicense(ctx, 1, keyB, 100, "new machine"); !ok {
		t.Fatal("AddLicense(u1, kB) failed")
	}

	if rec, _ := f.ledger.UserForLicense(ctx, keyA); rec != nil {
		t.Errorf("old key still mapped: %+v", rec)
	}
	rec, _ := f.ledger.LicenseForUser(ctx, 1)
	if rec == nil || rec.LicenseKey != keyB || rec.Note != "new machine" {
		t.Errorf("LicenseForUser(u1) = %+v, want kB", rec)
	}

	// The freed key can now go to someone else
	if ok, _ := f.ledger.AddLicense(ctx, 2, keyA, 100, ""); !ok {
		t.Error("freed key should be assignable to another user")
	}
}

func TestAddSameLicenseAgain(t *testing.T) {
	f := newLicenseFixture(t)

	_, _ = f.ledger.AddLicense(ctx, 1, keyA, 100, "one")
	ok, err := f.ledger.AddLicense(ctx, 1, keyA, 101, "two")
	if err != nil || !ok {
		t.Fatalf("re-adding the same key = %v, %v, want true, nil", ok, err)
	}

	rec, _ := f.ledger.UserForLicense(ctx, keyA)
	if rec.AddedBy != 101 || rec.Note != "two" {
		t.Errorf("record not refreshed: %+v", rec)
	}
}

func TestRemoveLicense(t *testing.T) {
	f := newLicenseFixture(t)

	if ok, err := f.ledger.RemoveLicense(ctx, 1, 100, "none"); ok || err != nil {
		t.Errorf("RemoveLicense(no license) = %v, %v, want false, nil", ok, err)
	}

	_, _ = f.ledger.AddLicense(ctx, 1, keyA, 100, "")
	ok, err := f.ledger.RemoveLicense(ctx, 1, 100, "left server")
	if err != nil || !ok {
		t.Fatalf("RemoveLicense() = %v, %v, want true, nil", ok, err)
	}

	if rec, _ := f.ledger.LicenseForUser(ctx, 1); rec != nil {
		t.Errorf("LicenseForUser() after removal = %+v", rec)
	}
	if rec, _ := f.ledger.UserForLicense(ctx, keyA); rec != nil {
		t.Errorf("UserForLicense() after removal = %+v", rec)
	}
}

func TestSearchLicenses(t *testing.T) {
	f := newLicenseFixture(t)

	_, _ = f.ledger.AddLicense(ctx, 3, keyC, 100, "")
	f.clock.Advance(time.Second)
	_, _ = f.ledger.AddLicense(ctx, 1, keyA, 100, "")
	f.clock.Advance(time.Second)
	_, _ = f.ledger.AddLicense(ctx, 2, keyB, 100, "")

	got, err := f.ledger.SearchLicenses(ctx, "ABCDEF")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].LicenseKey != keyC {
		t.Errorf("SearchLicenses(ABCDEF) = %v, want [kC]", got)
	}

	// The user id is not searched
	if got, _ := f.ledger.SearchLicenses(ctx, "3"); len(got) != 1 || got[0].UserID != 3 {
		t.Errorf("SearchLicenses(3) = %v, want only kC", got)
	}

	all, _ := f.ledger.SearchLicenses(ctx, "")
	if len(all) != 3 {
		t.Fatalf("SearchLicenses(\"\") returned %d, want 3", len(all))
	}
	for i, want := range []string{keyC, keyA, keyB} {
		if all[i].LicenseKey != want {
			t.Errorf("all[%d] = %v, want %v", i, all[i].LicenseKey, want)
		}
	}
}

func TestLicenseHistory(t *testing.T) {
	f := newLicenseFixture(t)

	_, _ = f.ledger.AddLicense(ctx, 1, keyA, 100, "a")
	f.clock.Advance(time.Minute)
	_, _ = f.ledger.AddLicense(ctx, 2, keyB, 100, "b")
	f.clock.Advance(time.Minute)
	_, _ = f.ledger.AddLicense(ctx, 2, keyA, 100, "rejected")
	f.clock.Advance(time.Minute)
	_, _ = f.ledger.RemoveLicense(ctx, 1, 101, "gone")
	f.clock.Advance(time.Minute)
	_, _ = f.ledger.AddLicense(ctx, 2, keyA, 100, "moved")

	all, _ := f.ledger.History(ctx, HistoryFilter{})
	if len(all) != 4 {
		t.Fatalf("History() returned %d entries, want 4", len(all))
	}
	if all[0].Note != "moved" || all[3].Note != "a" {
		t.Errorf("History() not newest first: %v ... %v", all[0].Note, all[3].Note)
	}

	user1 := int64(1)
	byUser, _ := f.ledger.History(ctx, HistoryFilter{UserID: &user1})
	if len(byUser) != 2 || byUser[0].Action != models.LicenseActionRemove || byUser[0].Reason != "gone" {
		t.Errorf("History(user 1) = %+v", byUser)
	}

	byKey, _ := f.ledger.History(ctx, HistoryFilter{LicenseKey: keyA})
	if len(byKey) != 3 {
		t.Errorf("History(kA) returned %d, want 3", len(byKey))
	}

	user2 := int64(2)
	both, _ := f.ledger.History(ctx, HistoryFilter{UserID: &user2, LicenseKey: keyA, Limit: 5})
	if len(both) != 1 || both[0].Note != "moved" {
		t.Errorf("History(user 2, kA) = %+v", both)
	}

	limited, _ := f.ledger.History(ctx, HistoryFilter{Limit: 2})
	if len(limited) != 2 {
		t.Errorf("History(limit 2) returned %d", len(limited))
	}
}

func TestLicenseHistorySameTimestamp(t *testing.T) {
	f := newLicenseFixture(t)

	_, _ = f.ledger.AddLicense(ctx, 1, keyA, 100, "")
	_, _ = f.ledger.RemoveLicense(ctx, 1, 101, "gone")

	latest, _ := f.ledger.History(ctx, HistoryFilter{Limit: 1})
	if len(latest) != 1 || latest[0].Action != models.LicenseActionRemove {
		t.Errorf("History(limit 1) = %+v, want the removal", latest)
	}
}

func TestLicenseDocumentShape(t *testing.T) {
	f := newLicenseFixture(t)
	_, _ = f.ledger.AddLicense(ctx, 123456789012345678, keyA, 1, "")

	raw, _ := f.backend.Raw()
	doc := string(raw)
	for _, want := range []string{`"user_licenses"`, `"license_users"`, `"license_history"`, `"123456789012345678"`, `"user_id": 123456789012345678`} {
		if !strings.Contains(doc, want) {
			t.Errorf("stored document missing %s:\n%s", want, doc)
		}
	}

	events := f.publisher.Events()
	if len(events) != 1 || events[0] != EventLicenseAdded {
		t.Errorf("events = %v, want [%s]", events, EventLicenseAdded)
	}
}
