package database

import (
	"fmt"
	"time"

	"github.com/PancyStudios/PancyLedger/pkg/logger"
	"github.com/PancyStudios/PancyLedger/pkg/violations"
)

// Event types published after a successful write
const (
	EventWarningIssued   = "warning.issued"
	EventWarningRemoved  = "warning.removed"
	EventWarningsCleared = "warnings.cleared"
	EventLicenseAdded    = "license.added"
	EventLicenseRemoved  = "license.removed"
	EventBanRequested    = "ban.requested"
	EventBanCompleted    = "ban.completed"
)

// Clock returns the current time
type Clock func() time.Time

// EventPublisher receives ledger mutation events
type EventPublisher interface {
	PublishEvent(eventType string, data interface{}) error
}

// Options configures a ledger. Zero values fall back to the wall clock,
// the default catalog and no event publishing.
type Options struct {
	Clock     Clock
	Catalog   *violations.Catalog
	Publisher EventPublisher
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Catalog == nil {
		o.Catalog = violations.Default()
	}
	return o
}

func (o Options) now() time.Time {
	return o.Clock().UTC()
}

func (o Options) publish(eventType string, data interface{}) {
	if o.Publisher == nil {
		return
	}
	if err := o.Publisher.PublishEvent(eventType, data); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo publicar el evento '%s': %v", eventType, err), "Ledger")
	}
}
