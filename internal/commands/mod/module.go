// Package mod implements the /mod command group on top of the warning and
// ban request ledgers.
package mod

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/PancyStudios/PancyLedger/pkg/database"
	"github.com/PancyStudios/PancyLedger/pkg/models"
	"github.com/PancyStudios/PancyLedger/pkg/violations"
)

// Module carries the ledgers and channels used by moderation commands
type Module struct {
	Warnings *database.WarningLedger
	Bans     *database.BanRequestLedger
	Licenses *database.LicenseLedger
	Catalog  *violations.Catalog

	WarningLogChannelID   string
	BanRequestChannelID   string
	BanCompletedChannelID string

	pendingOnce sync.Once
	pending     *pendingWarns
}

// warnOutcome is the combined result of issuing one or more warnings
type warnOutcome struct {
	UserID      int64
	Warnings    []*models.Warning
	PointsAdded int
	TotalPoints int
	Action      string
	RequiresBan bool
	License     *models.LicenseRecord
}

// IDs returns the ids of the issued warnings in issue order
func (o *warnOutcome) IDs() []string {
	ids := make([]string, 0, len(o.Warnings))
	for _, w := range o.Warnings {
		ids = append(ids, w.ID)
	}
	return ids
}

var (
	// ErrUnknownViolation is returned for violation names outside the catalog
	ErrUnknownViolation = errors.New("unknown violation type")
	// ErrNoViolations is returned when no violation was selected
	ErrNoViolations = errors.New("no violation selected")
)

// issue records one warning per selected violation, in order, with the same
// clips. Every name is checked against the catalog before anything is stored.
// An empty reason defaults to each violation's description.
func (m *Module) issue(ctx context.Context, target, moderator int64, selected []string, clips []string, reason string) (*warnOutcome, error) {
	defs := make([]violations.Definition, 0, len(selected))
	seen := make(map[string]bool, len(selected))
	for _, name := range selected {
		if seen[name] {
			continue
		}
		seen[name] = true

		def, ok := m.Catalog.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownViolation, name)
		}
		defs = append(defs, def)
	}
	if len(defs) == 0 {
		return nil, ErrNoViolations
	}

	out := &warnOutcome{UserID: target, Warnings: make([]*models.Warning, 0, len(defs))}
	for _, def := range defs {
		text := reason
		if text == "" {
			text = def.Description
		}

		w, err := m.Warnings.IssueWarning(ctx, target, moderator, def.Name, clips, text)
		if err != nil {
			return nil, err
		}
		out.Warnings = append(out.Warnings, w)
		out.PointsAdded += w.Points
	}

	total, err := m.Warnings.UserActivePoints(ctx, target)
	if err != nil {
		return nil, err
	}
	license, err := m.Licenses.LicenseForUser(ctx, target)
	if err != nil {
		return nil, err
	}

	out.TotalPoints = total
	out.Action = m.Catalog.PunishmentAction(total)
	out.RequiresBan = m.Catalog.RequiresBan(total)
	out.License = license
	return out, nil
}

// removeOutcome is the result of removing one or all warnings
type removeOutcome struct {
	WarningID string
	Found     bool
	Count     int
	NewPoints int
	Action    string
}

// removeOne removes warningID when it belongs to target
func (m *Module) removeOne(ctx context.Context, target, moderator int64, warningID, reason string) (*removeOutcome, error) {
	out := &removeOutcome{WarningID: warningID}

	w, err := m.Warnings.GetWarning(ctx, warningID)
	if err != nil {
		return nil, err
	}
	if w != nil && w.UserID == target {
		out.Found, err = m.Warnings.RemoveWarning(ctx, warningID, moderator, reason)
		if err != nil {
			return nil, err
		}
		if out.Found {
			out.Count = 1
		}
	}
	return out, m.refresh(ctx, target, out)
}

// removeAll removes every active warning of target
func (m *Module) removeAll(ctx context.Context, target, moderator int64, reason string) (*removeOutcome, error) {
	out := &removeOutcome{Found: true}

	n, err := m.Warnings.RemoveAllActiveWarningsForUser(ctx, target, moderator, reason)
	if err != nil {
		return nil, err
	}
	out.Count = n
	return out, m.refresh(ctx, target, out)
}

func (m *Module) refresh(ctx context.Context, target int64, out *removeOutcome) error {
	points, err := m.Warnings.UserActivePoints(ctx, target)
	if err != nil {
		return err
	}
	out.NewPoints = points
	out.Action = m.Catalog.PunishmentAction(points)
	return nil
}

// licenseText renders a license for embeds
func licenseText(record *models.LicenseRecord) string {
	if record == nil {
		return "Not assigned"
	}
	return "`" + record.LicenseKey + "`"
}
