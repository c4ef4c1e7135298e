package models

// LicenseRecord binds one license key to one user
type LicenseRecord struct {
	LicenseKey string    `json:"license_key"`
	UserID     int64     `json:"user_id"`
	AddedBy    int64     `json:"added_by"`
	AddedAt    Timestamp `json:"added_at"`
	Note       string    `json:"note,omitempty"`
}

// LicenseAction names a license history event
type LicenseAction string

const (
	LicenseActionAdd    LicenseAction = "add"
	LicenseActionRemove LicenseAction = "remove"
)

// LicenseHistoryEntry is one append-only audit log line.
// Adds carry a note, removals a reason.
type LicenseHistoryEntry struct {
	Action      LicenseAction `json:"action"`
	UserID      int64         `json:"user_id"`
	LicenseKey  string        `json:"license_key"`
	ModeratorID int64         `json:"moderator_id"`
	Timestamp   Timestamp     `json:"timestamp"`
	Note        string        `json:"note,omitempty"`
	Reason      string        `json:"reason,omitempty"`
}

// LicensesDocument is the persisted shape of the license store
type LicensesDocument struct {
	UserLicenses   map[string]*LicenseRecord `json:"user_licenses"`
	LicenseUsers   map[string]*LicenseRecord `json:"license_users"`
	LicenseHistory []*LicenseHistoryEntry    `json:"license_history"`
}

// Normalize fills in missing top-level fields
func (d *LicensesDocument) Normalize() {
	if d.UserLicenses == nil {
		d.UserLicenses = make(map[string]*LicenseRecord)
	}
	if d.LicenseUsers == nil {
		d.LicenseUsers = make(map[string]*LicenseRecord)
	}
	if d.LicenseHistory == nil {
		d.LicenseHistory = make([]*LicenseHistoryEntry, 0)
	}
}

// NewLicensesDocument returns an empty license document
func NewLicensesDocument() *LicensesDocument {
	d := &LicensesDocument{}
	d.Normalize()
	return d
}
