package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alexanderramin/clustertrack/internal/domain"
)

func closed(host string, begin time.Time, d time.Duration) domain.Session {
	end := begin.Add(d)
	return domain.Session{Host: host, BeginAt: begin, EndAt: &end, Duration: d}
}

func TestHostTotals_OverlapCountedOnce(t *testing.T) {
	nine := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	sessions := []domain.Session{
		closed("z2r8p4", nine, 90*time.Minute),
		closed("z2r8p4", nine.Add(time.Hour), time.Hour),
		closed("z1r1p1", nine, 30*time.Minute),
	}

	totals := HostTotals(sessions, nine.Add(12*time.Hour), nil)

	assert.Equal(t, 120*time.Minute, totals["z2r8p4"])
	assert.Equal(t, 30*time.Minute, totals["z1r1p1"])
}

func TestHostTotals_OpenSessionRunsToNow(t *testing.T) {
	begin := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	sessions := []domain.Session{{Host: "z3r1p1", BeginAt: begin, Ongoing: true}}

	totals := HostTotals(sessions, begin.Add(45*time.Minute), nil)

	assert.Equal(t, 45*time.Minute, totals["z3r1p1"])
}

func TestHostTotals_FloorScope(t *testing.T) {
	begin := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	sessions := []domain.Session{
		closed("z1r1p1", begin, time.Hour),
		closed("z2r1p1", begin, time.Hour),
		closed("z3r1p1", begin, time.Hour),
		closed("z4r1p1", begin, time.Hour),
	}

	lower := HostTotals(sessions, begin, FloorFromMarker(true).Scope())
	upper := HostTotals(sessions, begin, FloorFromMarker(false).Scope())

	assert.Len(t, lower, 2)
	assert.Contains(t, lower, "z1r1p1")
	assert.Contains(t, lower, "z2r1p1")
	assert.Len(t, upper, 2)
	assert.Contains(t, upper, "z3r1p1")
	assert.Contains(t, upper, "z4r1p1")
}

func TestFloorScope_ExactZoneMatch(t *testing.T) {
	scope := FloorLower.Scope()
	assert.True(t, scope("z1r3p2"))
	assert.False(t, scope("z10r3p2"))
	assert.False(t, scope("lab-pc"))
}

func TestTotalForHost(t *testing.T) {
	begin := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	sessions := []domain.Session{
		closed("z2r8p4", begin, 90*time.Minute),
		closed("z2r8p4", begin.Add(time.Hour), time.Hour),
		closed("z2r8p5", begin, 5*time.Hour),
	}

	assert.Equal(t, 120*time.Minute, TotalForHost(sessions, "Z2R8P4", begin, nil))
	assert.Zero(t, TotalForHost(sessions, "z2r8p4", begin, FloorUpper.Scope()))
	assert.Zero(t, TotalForHost(sessions, "z9r9p9", begin, nil))
}
