// Package models defines the records persisted by the ledgers.
// Field names match the JSON documents kept on disk.
package models

import (
	"strconv"
	"time"
)

// Warning is a recorded rule violation against a user
type Warning struct {
	ID            string     `json:"id"`
	UserID        int64      `json:"user_id"`
	ModeratorID   int64      `json:"moderator_id"`
	ViolationType string     `json:"violation_type"`
	Points        int        `json:"points"`
	Clips         []string   `json:"clips"`
	Reason        string     `json:"reason"`
	CreatedAt     Timestamp  `json:"created_at"`
	ExpiresAt     Timestamp  `json:"expires_at"`
	Removed       bool       `json:"removed"`
	RemovedBy     *int64     `json:"removed_by,omitempty"`
	RemovedAt     *Timestamp `json:"removed_at,omitempty"`
	RemovalReason string     `json:"removal_reason,omitempty"`
}

// ActiveAt reports whether the warning still counts toward the user's points.
func (w *Warning) ActiveAt(now time.Time) bool {
	return !w.Removed && now.Before(w.ExpiresAt.Time)
}

// UserRecord indexes a user's warnings in issue order.
// TotalPoints is a cached sum and is never read back as authoritative.
type UserRecord struct {
	UserID      int64    `json:"user_id"`
	TotalPoints int      `json:"total_points"`
	WarningIDs  []string `json:"warning_ids"`
}

// BanStatus is the state of a ban request
type BanStatus string

const (
	BanStatusPending   BanStatus = "pending"
	BanStatusCompleted BanStatus = "completed"
)

// BanRequest tracks manual enforcement of a punishment recommendation
type BanRequest struct {
	UserID      int64      `json:"user_id"`
	TotalPoints int        `json:"total_points"`
	Action      string     `json:"action"`
	MessageID   int64      `json:"message_id"`
	CreatedAt   Timestamp  `json:"created_at"`
	Status      BanStatus  `json:"status"`
	CompletedBy *int64     `json:"completed_by,omitempty"`
	CompletedAt *Timestamp `json:"completed_at,omitempty"`
}

// WarningsDocument is the persisted shape of the warnings store.
// Bans share the document with warnings.
type WarningsDocument struct {
	Users    map[string]*UserRecord `json:"users"`
	Warnings map[string]*Warning    `json:"warnings"`
	Bans     map[string]*BanRequest `json:"bans"`
}

// Normalize fills in missing top-level maps
func (d *WarningsDocument) Normalize() {
	if d.Users == nil {
		d.Users = make(map[string]*UserRecord)
	}
	if d.Warnings == nil {
		d.Warnings = make(map[string]*Warning)
	}
	if d.Bans == nil {
		d.Bans = make(map[string]*BanRequest)
	}
}

// NewWarningsDocument returns an empty warnings document
func NewWarningsDocument() *WarningsDocument {
	d := &WarningsDocument{}
	d.Normalize()
	return d
}

// Key formats a platform id as a document map key
func Key(id int64) string {
	return strconv.FormatInt(id, 10)
}
