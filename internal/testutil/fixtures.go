package testutil

import (
	"fmt"
	"time"

	"github.com/alexanderramin/clustertrack/internal/domain"
)

// Session options
type SessionOption func(*domain.Session)

// Open leaves the session ongoing.
func Open() SessionOption {
	return func(s *domain.Session) {
		s.EndAt = nil
		s.Ongoing = true
		s.Duration = 0
	}
}

func WithCampus(id int) SessionOption {
	return func(s *domain.Session) { s.CampusID = id }
}

// NewTestSession returns a closed session of length d starting at begin.
func NewTestSession(host string, begin time.Time, d time.Duration, opts ...SessionOption) domain.Session {
	end := begin.Add(d)
	s := domain.Session{
		Host:     host,
		BeginAt:  begin,
		EndAt:    &end,
		Duration: d,
		CampusID: 1,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// NewTestLocation returns the wire record of a session; end == nil leaves
// it open.
func NewTestLocation(id int64, host string, begin time.Time, end *time.Time) domain.RawLocation {
	loc := domain.RawLocation{
		ID:       id,
		Host:     host,
		BeginAt:  begin.UTC().Format(time.RFC3339),
		CampusID: 1,
	}
	if end != nil {
		s := end.UTC().Format(time.RFC3339)
		loc.EndAt = &s
	}
	return loc
}

// NewTestLocations returns n closed one-hour records on distinct hosts,
// one per hour going back from start.
func NewTestLocations(n int, start time.Time) []domain.RawLocation {
	out := make([]domain.RawLocation, n)
	for i := range out {
		begin := start.Add(-time.Duration(i+1) * time.Hour)
		end := begin.Add(time.Hour)
		out[i] = NewTestLocation(int64(i+1), fmt.Sprintf("z%dr%dp%d", 1+i%4, 1+i/10%10, i%10), begin, &end)
	}
	return out
}
