package database

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/PancyStudios/PancyLedger/pkg/logger"
	"github.com/PancyStudios/PancyLedger/pkg/models"
)

// LicenseLedger keeps a one-to-one mapping between users and license keys
// through two indexes that are always updated together. Key format is the
// caller's concern; any string is accepted.
type LicenseLedger struct {
	store *LicensesStore
	opts  Options
}

// HistoryFilter narrows a history query. Zero fields match everything.
type HistoryFilter struct {
	UserID     *int64
	LicenseKey string
	Limit      int
}

// NewLicenseLedger creates a ledger over store
func NewLicenseLedger(store *LicensesStore, opts Options) *LicenseLedger {
	return &LicenseLedger{store: store, opts: opts.withDefaults()}
}

// AddLicense binds licenseKey to userID. It returns false when the key
// already belongs to another user. A user's previous key is released.
func (l *LicenseLedger) AddLicense(ctx context.Context, userID int64, licenseKey string, moderatorID int64, note string) (bool, error) {
	var added *models.LicenseRecord

	err := l.store.Update(ctx, func(doc *models.LicensesDocument) (bool, error) {
		if holder, ok := doc.LicenseUsers[licenseKey]; ok && holder.UserID != userID {
			return false, nil
		}

		key := models.Key(userID)
		if old, ok := doc.UserLicenses[key]; ok {
			delete(doc.LicenseUsers, old.LicenseKey)
		}

		now := l.opts.now()
		added = &models.LicenseRecord{
			LicenseKey: licenseKey,
			UserID:     userID,
			AddedBy:    moderatorID,
			AddedAt:    models.At(now),
			Note:       note,
		}
		doc.UserLicenses[key] = added
		doc.LicenseUsers[licenseKey] = added

		doc.LicenseHistory = append(doc.LicenseHistory, &models.LicenseHistoryEntry{
			Action:      models.LicenseActionAdd,
			UserID:      userID,
			LicenseKey:  licenseKey,
			ModeratorID: moderatorID,
			Timestamp:   models.At(now),
			Note:        note,
		})
		return true, nil
	})
	if err != nil || added == nil {
		if err == nil {
			logger.Warn(fmt.Sprintf("Licencia ya asignada a otro usuario, rechazada para %d", userID), "Licenses")
		}
		return false, err
	}

	logger.Info(fmt.Sprintf("Licencia asignada a %d por %d", userID, moderatorID), "Licenses")
	l.opts.publish(EventLicenseAdded, added)
	return true, nil
}

// RemoveLicense releases the user's license. It returns false when the user
// holds none.
func (l *LicenseLedger) RemoveLicense(ctx context.Context, userID, moderatorID int64, reason string) (bool, error) {
	var entry *models.LicenseHistoryEntry

	err := l.store.Update(ctx, func(doc *models.LicensesDocument) (bool, error) {
		key := models.Key(userID)
		record, ok := doc.UserLicenses[key]
		if !ok {
			return false, nil
		}

		delete(doc.UserLicenses, key)
		delete(doc.LicenseUsers, record.LicenseKey)

		entry = &models.LicenseHistoryEntry{
			Action:      models.LicenseActionRemove,
			UserID:      userID,
			LicenseKey:  record.LicenseKey,
			ModeratorID: moderatorID,
			Timestamp:   models.At(l.opts.now()),
			Reason:      reason,
		}
		doc.LicenseHistory = append(doc.LicenseHistory, entry)
		return true, nil
	})
	if err != nil || entry == nil {
		return false, err
	}

	logger.Info(fmt.Sprintf("Licencia de %d retirada por %d", userID, moderatorID), "Licenses")
	l.opts.publish(EventLicenseRemoved, entry)
	return true, nil
}

// LicenseForUser returns the user's license, nil when none
func (l *LicenseLedger) LicenseForUser(ctx context.Context, userID int64) (*models.LicenseRecord, error) {
	var record *models.LicenseRecord
	err := l.store.View(ctx, func(doc *models.LicensesDocument) error {
		record = doc.UserLicenses[models.Key(userID)]
		return nil
	})
	return record, err
}

// UserForLicense returns the record holding licenseKey, nil when unassigned
func (l *LicenseLedger) UserForLicense(ctx context.Context, licenseKey string) (*models.LicenseRecord, error) {
	var record *models.LicenseRecord
	err := l.store.View(ctx, func(doc *models.LicensesDocument) error {
		record = doc.LicenseUsers[licenseKey]
		return nil
	})
	return record, err
}

// SearchLicenses returns records whose key contains query, case-insensitive.
// Results are ordered by assignment time, oldest first.
func (l *LicenseLedger) SearchLicenses(ctx context.Context, query string) ([]*models.LicenseRecord, error) {
	results := make([]*models.LicenseRecord, 0)
	needle := strings.ToLower(query)

	err := l.store.View(ctx, func(doc *models.LicensesDocument) error {
		for key, record := range doc.LicenseUsers {
			if strings.Contains(strings.ToLower(key), needle) {
				results = append(results, record)
			}
		}
		return nil
	})

	sort.Slice(results, func(i, j int) bool {
		if results[i].AddedAt.Equal(results[j].AddedAt.Time) {
			return results[i].LicenseKey < results[j].LicenseKey
		}
		return results[i].AddedAt.Before(results[j].AddedAt.Time)
	})
	return results, err
}

// History returns license history entries matching filter, newest first.
// Entries sharing a timestamp come back in reverse append order.
func (l *LicenseLedger) History(ctx context.Context, filter HistoryFilter) ([]*models.LicenseHistoryEntry, error) {
	entries := make([]*models.LicenseHistoryEntry, 0)

	err := l.store.View(ctx, func(doc *models.LicensesDocument) error {
		for i := len(doc.LicenseHistory) - 1; i >= 0; i-- {
			h := doc.LicenseHistory[i]
			if h == nil {
				continue
			}
			if filter.UserID != nil && h.UserID != *filter.UserID {
				continue
			}
			if filter.LicenseKey != "" && h.LicenseKey != filter.LicenseKey {
				continue
			}
			entries = append(entries, h)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp.Time)
	})
	if filter.Limit > 0 && len(entries) > filter.Limit {
		entries = entries[:filter.Limit]
	}
	return entries, nil
}
