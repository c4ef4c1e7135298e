package license

import (
	"context"
	"errors"
	"fmt"

	"github.com/PancyStudios/PancyLedger/pkg/database"
	"github.com/PancyStudios/PancyLedger/pkg/models"
	"github.com/bwmarrin/discordgo"
)

const (
	searchLimit     = 10
	historyLimit    = 10
	maxHistoryLimit = 25
	maxChoices      = 25
	defaultReason   = "Manual removal"
)

// ErrInvalidKey is returned for keys that are not 40 hex characters
var ErrInvalidKey = errors.New("license key must be 40 hexadecimal characters")

// Module carries the ledger and channel used by license commands
type Module struct {
	Licenses            *database.LicenseLedger
	WarningLogChannelID string
}

// addOutcome is the result of binding a key. Holder is set when the key
// already belongs to someone else.
type addOutcome struct {
	Key    string
	Added  bool
	Holder *models.LicenseRecord
}

func (m *Module) add(ctx context.Context, userID int64, rawKey string, moderatorID int64, note string) (*addOutcome, error) {
	key := NormalizeKey(rawKey)
	if !ValidKey(key) {
		return nil, ErrInvalidKey
	}

	out := &addOutcome{Key: key}
	added, err := m.Licenses.AddLicense(ctx, userID, key, moderatorID, note)
	if err != nil {
		return nil, err
	}
	out.Added = added
	if !added {
		out.Holder, err = m.Licenses.UserForLicense(ctx, key)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// lookupOutcome is either an exact key match or a substring search
type lookupOutcome struct {
	Query   string
	Exact   bool
	Record  *models.LicenseRecord
	Results []*models.LicenseRecord
}

func (m *Module) lookup(ctx context.Context, query string) (*lookupOutcome, error) {
	out := &lookupOutcome{Query: query}

	if ValidKey(query) {
		out.Exact = true
		out.Query = NormalizeKey(query)
		record, err := m.Licenses.UserForLicense(ctx, out.Query)
		out.Record = record
		return out, err
	}

	results, err := m.Licenses.SearchLicenses(ctx, query)
	out.Results = results
	return out, err
}

// remove unbinds the license of userID and returns the key it held, read
// from the removal's own history entry.
func (m *Module) remove(ctx context.Context, userID, moderatorID int64, reason string) (string, bool, error) {
	removed, err := m.Licenses.RemoveLicense(ctx, userID, moderatorID, reason)
	if err != nil || !removed {
		return "", false, err
	}

	entries, err := m.Licenses.History(ctx, database.HistoryFilter{UserID: &userID, Limit: 1})
	if err != nil {
		return "", true, err
	}
	if len(entries) == 0 || entries[0].Action != models.LicenseActionRemove {
		return "", true, nil
	}
	return entries[0].LicenseKey, true, nil
}

// suggest returns autocomplete choices for keys containing fragment
func (m *Module) suggest(ctx context.Context, fragment string) ([]*discordgo.ApplicationCommandOptionChoice, error) {
	results, err := m.Licenses.SearchLicenses(ctx, NormalizeKey(fragment))
	if err != nil {
		return nil, err
	}
	if len(results) > maxChoices {
		results = results[:maxChoices]
	}

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(results))
	for _, r := range results {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  fmt.Sprintf("%s (user %d)", ShortKey(r.LicenseKey), r.UserID),
			Value: r.LicenseKey,
		})
	}
	return choices, nil
}

// historyFilterLimit clamps a requested page size, zero meaning the default
func historyFilterLimit(requested int64) int {
	switch {
	case requested <= 0:
		return historyLimit
	case requested > maxHistoryLimit:
		return maxHistoryLimit
	default:
		return int(requested)
	}
}
