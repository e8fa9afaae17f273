package aggregate

import (
	"sort"
	"time"

	"github.com/alexanderramin/clustertrack/internal/domain"
)

// DayLabelLayout renders a calendar day heading, e.g. "Mon, Mar 2".
const DayLabelLayout = "Mon, Jan 2"

// Day groups the sessions that began on one local calendar day.
type Day struct {
	Label    string
	Date     time.Time // local midnight
	Sessions []domain.Session
	Total    time.Duration
}

func (d Day) Eligible() bool { return domain.Eligible(d.Total) }

// DailyTotals buckets sessions by the local day they began on, newest day
// first. Session order inside a day follows the input order. Day totals sum
// raw durations; open sessions count up to now.
func DailyTotals(sessions []domain.Session, now time.Time, loc *time.Location) []Day {
	if loc == nil {
		loc = time.Local
	}
	index := make(map[time.Time]int)
	var days []Day
	for _, s := range sessions {
		day := startOfDay(s.BeginAt, loc)
		i, ok := index[day]
		if !ok {
			i = len(days)
			index[day] = i
			days = append(days, Day{Label: day.Format(DayLabelLayout), Date: day})
		}
		days[i].Sessions = append(days[i].Sessions, s)
		days[i].Total += s.DurationAt(now)
	}
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date.After(days[j].Date)
	})
	return days
}

// TodayTotal sums the sessions that began since local midnight.
func TodayTotal(sessions []domain.Session, now time.Time, loc *time.Location) time.Duration {
	if loc == nil {
		loc = time.Local
	}
	today := startOfDay(now, loc)
	var total time.Duration
	for _, s := range sessions {
		if !s.BeginAt.Before(today) {
			total += s.DurationAt(now)
		}
	}
	return total
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}
