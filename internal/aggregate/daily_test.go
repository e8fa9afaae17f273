package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/clustertrack/internal/domain"
)

func TestDailyTotals_GroupsNewestFirst(t *testing.T) {
	loc := time.UTC
	mon := time.Date(2024, 3, 4, 9, 0, 0, 0, loc)
	tue := mon.AddDate(0, 0, 1)
	sessions := []domain.Session{
		closed("z1r1p1", tue, 2*time.Hour),
		closed("z1r1p2", mon, time.Hour),
		closed("z1r1p3", mon.Add(30*time.Minute), time.Hour),
	}

	days := DailyTotals(sessions, tue.Add(5*time.Hour), loc)

	require.Len(t, days, 2)
	assert.Equal(t, "Tue, Mar 5", days[0].Label)
	assert.Equal(t, 2*time.Hour, days[0].Total)
	assert.Equal(t, "Mon, Mar 4", days[1].Label)
	// Day totals are summed, not merged.
	assert.Equal(t, 2*time.Hour, days[1].Total)
	assert.Len(t, days[1].Sessions, 2)
}

func TestDailyTotals_Eligible(t *testing.T) {
	begin := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	days := DailyTotals([]domain.Session{closed("z1r1p1", begin, 4*time.Hour)}, begin, time.UTC)
	require.Len(t, days, 1)
	assert.True(t, days[0].Eligible())
}

func TestDailyTotals_UsesLocalCalendar(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	// 23:30 UTC on the 4th is 00:30 on the 5th locally.
	begin := time.Date(2024, 3, 4, 23, 30, 0, 0, time.UTC)
	days := DailyTotals([]domain.Session{closed("z1r1p1", begin, time.Hour)}, begin, loc)
	require.Len(t, days, 1)
	assert.Equal(t, "Tue, Mar 5", days[0].Label)
}

func TestTodayTotal(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	sessions := []domain.Session{
		{Host: "z1r1p1", BeginAt: now.Add(-time.Hour), Ongoing: true},
		closed("z1r1p2", now.Add(-4*time.Hour), 2*time.Hour),
		closed("z1r1p3", now.AddDate(0, 0, -1), 5*time.Hour),
	}

	assert.Equal(t, 3*time.Hour, TodayTotal(sessions, now, time.UTC))
}
