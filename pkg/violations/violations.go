// Package violations holds the static violation catalog and the points to
// punishment threshold table used by the warning ledger.
package violations

import (
	"math"
	"time"
)

// Grade is the severity tier of a violation. It controls how long a warning
// stays active.
type Grade int

const (
	GradeMinor    Grade = 1
	GradeModerate Grade = 2
	GradeSevere   Grade = 3
)

// Expiry returns how long a warning of this grade counts toward the total.
// Unknown grades are treated as minor.
func (g Grade) Expiry() time.Duration {
	const week = 7 * 24 * time.Hour
	switch g {
	case GradeModerate:
		return 4 * week
	case GradeSevere:
		return 8 * week
	default:
		return 2 * week
	}
}

// Definition describes a single violation type
type Definition struct {
	Name          string `json:"name"`
	BasePoints    int    `json:"base_points"`
	RepeatPenalty int    `json:"repeat_penalty"`
	Description   string `json:"description"`
	Grade         Grade  `json:"grade"`
}

// Threshold maps an inclusive points range to a punishment label.
// Max is math.MaxInt for the open-ended last tier.
type Threshold struct {
	Min    int
	Max    int
	Action string
}

const (
	ActionWrittenWarning = "Written Warning"
	ActionPermanentBan   = "Permanent Ban"
)

// Catalog is an immutable lookup table of violations and thresholds.
type Catalog struct {
	order      []string
	byName     map[string]Definition
	thresholds []Threshold
}

// NewCatalog builds a catalog. Definitions keep their order for listing;
// thresholds must be sorted ascending and disjoint.
func NewCatalog(defs []Definition, thresholds []Threshold) *Catalog {
	c := &Catalog{
		order:      make([]string, 0, len(defs)),
		byName:     make(map[string]Definition, len(defs)),
		thresholds: append([]Threshold(nil), thresholds...),
	}
	for _, d := range defs {
		if _, dup := c.byName[d.Name]; !dup {
			c.order = append(c.order, d.Name)
		}
		c.byName[d.Name] = d
	}
	return c
}

// Lookup returns the definition for a violation type.
func (c *Catalog) Lookup(violationType string) (Definition, bool) {
	d, ok := c.byName[violationType]
	return d, ok
}

// Names returns the violation names in definition order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Definitions returns every definition in definition order.
func (c *Catalog) Definitions() []Definition {
	out := make([]Definition, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name])
	}
	return out
}

// ComputePoints returns base + repeat*priorCount, or 0 for unknown types.
func (c *Catalog) ComputePoints(violationType string, priorCount int) int {
	d, ok := c.byName[violationType]
	if !ok {
		return 0
	}
	if priorCount < 0 {
		priorCount = 0
	}
	return d.BasePoints + d.RepeatPenalty*priorCount
}

// GradeOf returns the grade of a violation, minor when unknown.
func (c *Catalog) GradeOf(violationType string) Grade {
	if d, ok := c.byName[violationType]; ok {
		return d.Grade
	}
	return GradeMinor
}

// PunishmentAction returns the label of the first tier containing points.
func (c *Catalog) PunishmentAction(points int) string {
	for _, t := range c.thresholds {
		if points >= t.Min && points <= t.Max {
			return t.Action
		}
	}
	if len(c.thresholds) > 0 {
		return c.thresholds[0].Action
	}
	return ActionWrittenWarning
}

// RequiresBan reports whether points land in any tier above the lowest one.
func (c *Catalog) RequiresBan(points int) bool {
	if len(c.thresholds) == 0 {
		return false
	}
	return c.PunishmentAction(points) != c.thresholds[0].Action
}

// Thresholds returns a copy of the threshold table.
func (c *Catalog) Thresholds() []Threshold {
	return append([]Threshold(nil), c.thresholds...)
}

// DefaultThresholds is the server's punishment ladder.
var DefaultThresholds = []Threshold{
	{0, 14, ActionWrittenWarning},
	{15, 24, "3-Hour Ban"},
	{25, 34, "12-Hour Ban"},
	{35, 44, "1-Day Ban"},
	{45, 59, "3-Day Ban"},
	{60, 74, "1-Week Ban"},
	{75, 89, "2-Week Ban"},
	{90, 99, "1-Month Ban"},
	{100, math.MaxInt, ActionPermanentBan},
}

// DefaultDefinitions is the server rule set.
var DefaultDefinitions = []Definition{
	{"RDM / VDM", 10, 5, "Killing or running over others without proper RP.", GradeMinor},
	{"Mass RDM / Mass VDM", 25, 10, "Killing 3+ people without RP.", GradeModerate},
	{"NLR", 10, 5, "Returning to the scene after death.", GradeMinor},
	{"FailRP (NVL, GP>RP, LQRP, etc.)", 10, 5, "Breaking character or ignoring realistic RP.", GradeMinor},
	{"Cop Baiting", 10, 5, "Provoking police for no RP reason.", GradeMinor},
	{"NITRP", 30, 10, "Trolling or refusing to engage in RP.", GradeSevere},
	{"Metagaming", 15, 5, "Using OOC info for IC advantage.", GradeMinor},
	{"Power Gaming", 20, 10, "Forcing actions or outcomes unrealistically.", GradeSevere},
	{"Lack of Initiation", 10, 5, "Engaging in violence without warning.", GradeMinor},
	{"Greenzone Violations", 10, 5, "Committing crimes in safezones.", GradeMinor},
	{"Mic / Chat Spam", 5, 2, "Spamming audio or text channels.", GradeMinor},
	{"LTAP (Avoiding Punishment)", 15, 5, "Leaving the game to avoid punishment.", GradeModerate},
	{"LTARP (Avoiding RP)", 20, 10, "Leaving to avoid ongoing RP.", GradeSevere},
	{"Lying to Staff", 20, 10, "Knowingly misleading staff.", GradeSevere},
	{"Racism / Hate Speech", 50, 25, "Using slurs or hate speech.", GradeSevere},
	{"Erotic Roleplay (ERP)", 50, 25, "Sexual RP that violates server rules.", GradeSevere},
	{"DDoS / Dox / Exploiting / Hacking", 100, 0, "DDoS attacks, doxxing, exploiting, or hacking.", GradeSevere},
}

var defaultCatalog = NewCatalog(DefaultDefinitions, DefaultThresholds)

// Default returns the shared default catalog.
func Default() *Catalog {
	return defaultCatalog
}
