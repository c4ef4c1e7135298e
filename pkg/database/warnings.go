package database

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/PancyStudios/PancyLedger/pkg/logger"
	"github.com/PancyStudios/PancyLedger/pkg/models"
)

const defaultRemovalReason = "Manual removal"

// WarningLedger owns the warning lifecycle: issue, expire, remove
type WarningLedger struct {
	store *WarningsStore
	opts  Options
}

// NewWarningLedger creates a ledger over store
func NewWarningLedger(store *WarningsStore, opts Options) *WarningLedger {
	return &WarningLedger{store: store, opts: opts.withDefaults()}
}

// IssueWarning records a violation. Points escalate with the number of
// warnings of the same type already stored for the user, whatever their state.
func (l *WarningLedger) IssueWarning(ctx context.Context, userID, moderatorID int64, violationType string, clips []string, reason string) (*models.Warning, error) {
	var issued *models.Warning

	err := l.store.Update(ctx, func(doc *models.WarningsDocument) (bool, error) {
		now := l.opts.now()
		key := models.Key(userID)

		user, ok := doc.Users[key]
		if !ok {
			user = &models.UserRecord{UserID: userID, WarningIDs: make([]string, 0)}
			doc.Users[key] = user
		}

		prior := 0
		for _, id := range user.WarningIDs {
			if w, ok := doc.Warnings[id]; ok && w.ViolationType == violationType {
				prior++
			}
		}

		if _, known := l.opts.Catalog.Lookup(violationType); !known {
			logger.Warn(fmt.Sprintf("Tipo de infracción desconocido '%s', se registran 0 puntos", violationType), "Warnings")
		}

		if clips == nil {
			clips = make([]string, 0)
		}

		id, err := nextWarningID(doc)
		if err != nil {
			return false, err
		}

		issued = &models.Warning{
			ID:            id,
			UserID:        userID,
			ModeratorID:   moderatorID,
			ViolationType: violationType,
			Points:        l.opts.Catalog.ComputePoints(violationType, prior),
			Clips:         append([]string(nil), clips...),
			Reason:        reason,
			CreatedAt:     models.At(now),
			ExpiresAt:     models.At(now.Add(l.opts.Catalog.GradeOf(violationType).Expiry())),
		}

		doc.Warnings[issued.ID] = issued
		user.WarningIDs = append(user.WarningIDs, issued.ID)
		refreshTotal(doc, user, now)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(fmt.Sprintf("Advertencia #%s emitida a %d (%s, %d puntos)", issued.ID, userID, violationType, issued.Points), "Warnings")
	l.opts.publish(EventWarningIssued, issued)
	return issued, nil
}

// UserActivePoints sums the points of the user's active warnings.
// Unknown users have zero points.
func (l *WarningLedger) UserActivePoints(ctx context.Context, userID int64) (int, error) {
	total := 0
	err := l.store.View(ctx, func(doc *models.WarningsDocument) error {
		now := l.opts.now()
		for _, w := range userWarnings(doc, userID) {
			if w.ActiveAt(now) {
				total += w.Points
			}
		}
		return nil
	})
	return total, err
}

// UserActiveWarnings returns the user's active warnings, newest first
func (l *WarningLedger) UserActiveWarnings(ctx context.Context, userID int64) ([]*models.Warning, error) {
	active := make([]*models.Warning, 0)
	err := l.store.View(ctx, func(doc *models.WarningsDocument) error {
		now := l.opts.now()
		for _, w := range userWarnings(doc, userID) {
			if w.ActiveAt(now) {
				active = append(active, w)
			}
		}
		return nil
	})
	sortNewestFirst(active)
	return active, err
}

// FindAllWarningsForUser returns every warning of the user, removed and
// expired included, newest first. A limit <= 0 returns all of them.
func (l *WarningLedger) FindAllWarningsForUser(ctx context.Context, userID int64, limit int) ([]*models.Warning, error) {
	var all []*models.Warning
	err := l.store.View(ctx, func(doc *models.WarningsDocument) error {
		all = userWarnings(doc, userID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortNewestFirst(all)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// GetWarning looks a warning up by id, nil when unknown
func (l *WarningLedger) GetWarning(ctx context.Context, warningID string) (*models.Warning, error) {
	var found *models.Warning
	err := l.store.View(ctx, func(doc *models.WarningsDocument) error {
		found = doc.Warnings[warningID]
		return nil
	})
	return found, err
}

// RemoveWarning marks a warning removed and backdates its expiry. It
// returns false for unknown ids. Removing an already removed warning
// succeeds again and overwrites the removal metadata.
func (l *WarningLedger) RemoveWarning(ctx context.Context, warningID string, moderatorID int64, reason string) (bool, error) {
	var removed *models.Warning

	err := l.store.Update(ctx, func(doc *models.WarningsDocument) (bool, error) {
		w, ok := doc.Warnings[warningID]
		if !ok {
			return false, nil
		}
		now := l.opts.now()
		markRemoved(w, moderatorID, reason, now)
		if user, ok := doc.Users[models.Key(w.UserID)]; ok {
			refreshTotal(doc, user, now)
		}
		removed = w
		return true, nil
	})
	if err != nil || removed == nil {
		return false, err
	}

	logger.Info(fmt.Sprintf("Advertencia #%s de %d eliminada por %d", warningID, removed.UserID, moderatorID), "Warnings")
	l.opts.publish(EventWarningRemoved, removed)
	return true, nil
}

// RemoveAllActiveWarningsForUser removes every active warning of the user
// and returns how many were removed.
func (l *WarningLedger) RemoveAllActiveWarningsForUser(ctx context.Context, userID, moderatorID int64, reason string) (int, error) {
	count := 0

	err := l.store.Update(ctx, func(doc *models.WarningsDocument) (bool, error) {
		user, ok := doc.Users[models.Key(userID)]
		if !ok {
			return false, nil
		}
		now := l.opts.now()
		for _, w := range userWarnings(doc, userID) {
			if w.ActiveAt(now) {
				markRemoved(w, moderatorID, reason, now)
				count++
			}
		}
		if count == 0 {
			return false, nil
		}
		refreshTotal(doc, user, now)
		return true, nil
	})
	if err != nil {
		return 0, err
	}

	if count > 0 {
		logger.Info(fmt.Sprintf("%d advertencias activas de %d eliminadas por %d", count, userID, moderatorID), "Warnings")
		l.opts.publish(EventWarningsCleared, map[string]interface{}{
			"user_id":      userID,
			"moderator_id": moderatorID,
			"count":        count,
			"reason":       removalReason(reason),
		})
	}
	return count, nil
}

// nextWarningID returns one past the highest purely numeric id. Legacy ids
// containing anything but digits are skipped.
func nextWarningID(doc *models.WarningsDocument) (string, error) {
	var highest int64
	for id := range doc.Warnings {
		if !isDigits(id) {
			continue
		}
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	if highest == math.MaxInt64 {
		return "", ErrWarningIDsExhausted
	}
	return strconv.FormatInt(highest+1, 10), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// userWarnings resolves the user's warning ids in issue order
func userWarnings(doc *models.WarningsDocument, userID int64) []*models.Warning {
	user, ok := doc.Users[models.Key(userID)]
	if !ok {
		return make([]*models.Warning, 0)
	}
	out := make([]*models.Warning, 0, len(user.WarningIDs))
	for _, id := range user.WarningIDs {
		if w, ok := doc.Warnings[id]; ok {
			out = append(out, w)
		}
	}
	return out
}

func markRemoved(w *models.Warning, moderatorID int64, reason string, now time.Time) {
	by := moderatorID
	w.Removed = true
	w.RemovedBy = &by
	w.RemovedAt = models.Ptr(now)
	w.RemovalReason = removalReason(reason)
	w.ExpiresAt = models.At(now.Add(-24 * time.Hour))
}

func removalReason(reason string) string {
	if reason == "" {
		return defaultRemovalReason
	}
	return reason
}

// refreshTotal recomputes the cached total_points of a user
func refreshTotal(doc *models.WarningsDocument, user *models.UserRecord, now time.Time) {
	total := 0
	for _, id := range user.WarningIDs {
		if w, ok := doc.Warnings[id]; ok && w.ActiveAt(now) {
			total += w.Points
		}
	}
	user.TotalPoints = total
}

func sortNewestFirst(ws []*models.Warning) {
	sort.SliceStable(ws, func(i, j int) bool {
		return ws[i].CreatedAt.After(ws[j].CreatedAt.Time)
	})
}
