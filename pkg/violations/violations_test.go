package violations

import (
	"math"
	"testing"
	"time"
)

func TestComputePoints(t *testing.T) {
	c := Default()

	for _, d := range c.Definitions() {
		for n := 0; n < 6; n++ {
			want := d.BasePoints + d.RepeatPenalty*n
			if got := c.ComputePoints(d.Name, n); got != want {
				t.Errorf("ComputePoints(%q, %d) = %v, want %v", d.Name, n, got, want)
			}
		}
	}

	if got := c.ComputePoints("Not A Rule", 3); got != 0 {
		t.Errorf("ComputePoints(unknown) = %v, want 0", got)
	}
}

func TestPunishmentActionBoundaries(t *testing.T) {
	tests := []struct {
		points int
		want   string
	}{
		{0, "Written Warning"},
		{14, "Written Warning"},
		{15, "3-Hour Ban"},
		{24, "3-Hour Ban"},
		{25, "12-Hour Ban"},
		{34, "12-Hour Ban"},
		{35, "1-Day Ban"},
		{45, "3-Day Ban"},
		{59, "3-Day Ban"},
		{60, "1-Week Ban"},
		{75, "2-Week Ban"},
		{90, "1-Month Ban"},
		{99, "1-Month Ban"},
		{100, "Permanent Ban"},
		{100000, "Permanent Ban"},
		{math.MaxInt, "Permanent Ban"},
	}

	c := Default()
	for _, tt := range tests {
		if got := c.PunishmentAction(tt.points); got != tt.want {
			t.Errorf("PunishmentAction(%d) = %v, want %v", tt.points, got, tt.want)
		}
	}
}

func TestPunishmentActionMonotonic(t *testing.T) {
	c := Default()
	rank := make(map[string]int)
	for i, th := range c.Thresholds() {
		rank[th.Action] = i
	}

	prev := -1
	for p := 0; p <= 250; p++ {
		r, ok := rank[c.PunishmentAction(p)]
		if !ok {
			t.Fatalf("PunishmentAction(%d) returned an unknown label", p)
		}
		if r < prev {
			t.Fatalf("PunishmentAction not monotonic at %d", p)
		}
		prev = r
	}
}

func TestPunishmentActionFallback(t *testing.T) {
	c := NewCatalog(nil, []Threshold{{10, 20, "Low"}, {21, 30, "High"}})
	if got := c.PunishmentAction(5); got != "Low" {
		t.Errorf("PunishmentAction(5) = %v, want Low", got)
	}
	if got := c.PunishmentAction(-1); got != "Low" {
		t.Errorf("PunishmentAction(-1) = %v, want Low", got)
	}
}

func TestRequiresBan(t *testing.T) {
	c := Default()
	if c.RequiresBan(14) {
		t.Error("RequiresBan(14) should be false")
	}
	if !c.RequiresBan(15) {
		t.Error("RequiresBan(15) should be true")
	}
}

func TestGradeExpiry(t *testing.T) {
	week := 7 * 24 * time.Hour
	tests := []struct {
		grade Grade
		want  time.Duration
	}{
		{GradeMinor, 2 * week},
		{GradeModerate, 4 * week},
		{GradeSevere, 8 * week},
		{Grade(0), 2 * week},
	}

	for _, tt := range tests {
		if got := tt.grade.Expiry(); got != tt.want {
			t.Errorf("Grade(%d).Expiry() = %v, want %v", tt.grade, got, tt.want)
		}
	}
}

func TestLookupAndNames(t *testing.T) {
	c := Default()

	names := c.Names()
	if len(names) != len(DefaultDefinitions) {
		t.Fatalf("Names() length = %v, want %v", len(names), len(DefaultDefinitions))
	}
	if names[0] != "RDM / VDM" {
		t.Errorf("Names()[0] = %v, want RDM / VDM", names[0])
	}

	d, ok := c.Lookup("Mass RDM / Mass VDM")
	if !ok {
		t.Fatal("Lookup(Mass RDM / Mass VDM) not found")
	}
	if d.Grade != GradeModerate || d.BasePoints != 25 {
		t.Errorf("Lookup() = %+v", d)
	}

	if _, ok := c.Lookup("nope"); ok {
		t.Error("Lookup(nope) should fail")
	}
	if g := c.GradeOf("nope"); g != GradeMinor {
		t.Errorf("GradeOf(nope) = %v, want %v", g, GradeMinor)
	}
}
