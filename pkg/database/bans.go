package database

import (
	"context"
	"fmt"

	"github.com/PancyStudios/PancyLedger/pkg/logger"
	"github.com/PancyStudios/PancyLedger/pkg/models"
)

// BanRequestLedger tracks ban requests keyed by the id of the message that
// announced them. It shares the warnings document.
type BanRequestLedger struct {
	store *WarningsStore
	opts  Options
}

// NewBanRequestLedger creates a ledger over store
func NewBanRequestLedger(store *WarningsStore, opts Options) *BanRequestLedger {
	return &BanRequestLedger{store: store, opts: opts.withDefaults()}
}

// CreateBanRequest stores a pending request, replacing any with the same message id
func (l *BanRequestLedger) CreateBanRequest(ctx context.Context, userID int64, totalPoints int, action string, messageID int64) (*models.BanRequest, error) {
	request := &models.BanRequest{
		UserID:      userID,
		TotalPoints: totalPoints,
		Action:      action,
		MessageID:   messageID,
		Status:      models.BanStatusPending,
	}

	err := l.store.Update(ctx, func(doc *models.WarningsDocument) (bool, error) {
		request.CreatedAt = models.At(l.opts.now())
		doc.Bans[models.Key(messageID)] = request
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(fmt.Sprintf("Solicitud de ban para %d (%s) registrada", userID, action), "Bans")
	l.opts.publish(EventBanRequested, request)
	return request, nil
}

// CompleteBanRequest marks a request completed. It returns nil for unknown
// message ids. Completing twice re-stamps the completion fields.
func (l *BanRequestLedger) CompleteBanRequest(ctx context.Context, messageID, moderatorID int64) (*models.BanRequest, error) {
	var completed *models.BanRequest

	err := l.store.Update(ctx, func(doc *models.WarningsDocument) (bool, error) {
		request, ok := doc.Bans[models.Key(messageID)]
		if !ok {
			return false, nil
		}
		by := moderatorID
		request.Status = models.BanStatusCompleted
		request.CompletedBy = &by
		request.CompletedAt = models.Ptr(l.opts.now())
		completed = request
		return true, nil
	})
	if err != nil || completed == nil {
		return nil, err
	}

	logger.Info(fmt.Sprintf("Solicitud de ban %d completada por %d", messageID, moderatorID), "Bans")
	l.opts.publish(EventBanCompleted, completed)
	return completed, nil
}

// GetBanRequest returns the request for messageID, nil when unknown
func (l *BanRequestLedger) GetBanRequest(ctx context.Context, messageID int64) (*models.BanRequest, error) {
	var request *models.BanRequest
	err := l.store.View(ctx, func(doc *models.WarningsDocument) error {
		request = doc.Bans[models.Key(messageID)]
		return nil
	})
	return request, err
}
