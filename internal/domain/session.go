package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RawLocation is one location record as served by the intra API.
type RawLocation struct {
	ID       int64   `json:"id,omitempty"`
	Host     string  `json:"host"`
	BeginAt  string  `json:"begin_at"`
	EndAt    *string `json:"end_at"`
	CampusID int     `json:"campus_id,omitempty"`
}

// Session is one contiguous occupancy interval at one host.
// Duration is final only once EndAt is set; use DurationAt for open sessions.
type Session struct {
	Host     string
	BeginAt  time.Time
	EndAt    *time.Time
	Duration time.Duration
	Ongoing  bool
	CampusID int
}

// SessionFromLocation converts a wire record. Open records get a live
// duration relative to now.
func SessionFromLocation(loc RawLocation, now time.Time) (Session, error) {
	host := NormalizeHost(loc.Host)
	if host == "" {
		return Session{}, fmt.Errorf("location %d: empty host", loc.ID)
	}
	begin, err := ParseTimestamp(loc.BeginAt)
	if err != nil {
		return Session{}, fmt.Errorf("location %d: begin_at: %w", loc.ID, err)
	}
	s := Session{Host: host, BeginAt: begin, CampusID: loc.CampusID}
	if loc.EndAt == nil || strings.TrimSpace(*loc.EndAt) == "" {
		s.Ongoing = true
		s.Duration = nonNegative(now.Sub(begin))
		return s, nil
	}
	end, err := ParseTimestamp(*loc.EndAt)
	if err != nil {
		return Session{}, fmt.Errorf("location %d: end_at: %w", loc.ID, err)
	}
	s.EndAt = &end
	s.Duration = nonNegative(end.Sub(begin))
	return s, nil
}

// ParseTimestamp parses the API's ISO-8601 timestamps.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05.000Z0700", s)
}

// DurationAt returns the session length, measuring open sessions up to now.
func (s Session) DurationAt(now time.Time) time.Duration {
	if s.Ongoing || s.EndAt == nil {
		return nonNegative(now.Sub(s.BeginAt))
	}
	return s.Duration
}

// EffectiveEnd returns EndAt, or now for an open session.
func (s Session) EffectiveEnd(now time.Time) time.Time {
	if s.Ongoing || s.EndAt == nil {
		return now
	}
	return *s.EndAt
}

// Close ends an open session at the given time.
func (s *Session) Close(at time.Time) {
	end := at
	s.EndAt = &end
	s.Ongoing = false
	s.Duration = nonNegative(end.Sub(s.BeginAt))
}

// SameStart reports whether both sessions describe the same login.
func (s Session) SameStart(host string, begin time.Time) bool {
	return s.Host == host && s.BeginAt.Equal(begin)
}

// Clone returns a copy that shares no pointers with s.
func (s Session) Clone() Session {
	if s.EndAt != nil {
		end := *s.EndAt
		s.EndAt = &end
	}
	return s
}

type sessionJSON struct {
	Host       string     `json:"host"`
	BeginAt    time.Time  `json:"beginAt"`
	EndAt      *time.Time `json:"endAt"`
	DurationMs int64      `json:"duration"`
	Ongoing    bool       `json:"ongoing"`
	CampusID   int        `json:"campusId,omitempty"`
}

// MarshalJSON writes the cache/export shape with the duration in milliseconds.
func (s Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(sessionJSON{
		Host:       s.Host,
		BeginAt:    s.BeginAt,
		EndAt:      s.EndAt,
		DurationMs: s.Duration.Milliseconds(),
		Ongoing:    s.Ongoing,
		CampusID:   s.CampusID,
	})
}

func (s *Session) UnmarshalJSON(data []byte) error {
	var raw sessionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Session{
		Host:     raw.Host,
		BeginAt:  raw.BeginAt,
		EndAt:    raw.EndAt,
		Duration: time.Duration(raw.DurationMs) * time.Millisecond,
		Ongoing:  raw.Ongoing,
		CampusID: raw.CampusID,
	}
	return nil
}

// CacheEntry is the last-known-good copy of a user's sessions.
type CacheEntry struct {
	Login     string    `json:"login"`
	Sessions  []Session `json:"sessions"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// ActivityEvent is one real-time login/logout notification.
type ActivityEvent struct {
	User string
	Host string
	Type EventType
	At   time.Time
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
