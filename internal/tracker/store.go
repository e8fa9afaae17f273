package tracker

import (
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alexanderramin/clustertrack/internal/domain"
)

// Store is the canonical session list for the active user, newest first.
// At most one session per host is ongoing.
type Store struct {
	mu       sync.RWMutex
	login    string
	loaded   bool
	sessions []domain.Session
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for dropped records and events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetUser switches the active login. Switching clears the store.
func (s *Store) SetUser(login string) {
	login = strings.TrimSpace(login)
	s.mu.Lock()
	defer s.mu.Unlock()
	if login == s.login {
		return
	}
	s.login = login
	s.loaded = false
	s.sessions = nil
}

func (s *Store) Login() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.login
}

// Loaded reports whether a full fetch (or cache restore) has populated the
// store for the active user.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Snapshot returns a deep copy of the sessions, newest first.
func (s *Store) Snapshot() []domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.Clone()
	}
	return out
}

// ReplaceAll swaps the store contents for the given wire records and
// returns the number of sessions kept. Records with bad timestamps are
// skipped. Duplicate (host, begin) pairs collapse to the first seen.
func (s *Store) ReplaceAll(records []domain.RawLocation) int {
	now := s.now()
	sessions := make([]domain.Session, 0, len(records))
	seen := make(map[sessionKey]struct{}, len(records))
	for _, rec := range records {
		sess, err := domain.SessionFromLocation(rec, now)
		if err != nil {
			s.logger.Warn("skip location record", "error", err)
			continue
		}
		k := keyOf(sess.Host, sess.BeginAt)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		sessions = append(sessions, sess)
	}
	sortNewestFirst(sessions)
	normalizeOngoing(sessions)

	s.mu.Lock()
	s.sessions = sessions
	s.loaded = true
	s.mu.Unlock()
	return len(sessions)
}

// Restore loads previously saved sessions, e.g. from the cache.
func (s *Store) Restore(sessions []domain.Session) {
	restored := make([]domain.Session, len(sessions))
	for i, sess := range sessions {
		restored[i] = sess.Clone()
		restored[i].Host = domain.NormalizeHost(sess.Host)
	}
	sortNewestFirst(restored)
	normalizeOngoing(restored)

	s.mu.Lock()
	s.sessions = restored
	s.loaded = true
	s.mu.Unlock()
}

// ApplyRealtimeEvent decodes an activity payload and applies every event for
// the active user. Returns the number of events that changed the store.
// Malformed payloads are logged and dropped.
func (s *Store) ApplyRealtimeEvent(payload []byte) int {
	events, err := DecodeActivity(payload)
	if err != nil {
		s.logger.Warn("drop activity payload", "error", err)
		return 0
	}
	return s.ApplyEvents(events)
}

// ApplyEvents applies decoded events. Events are ignored until a user is
// set and the store has been loaded.
func (s *Store) ApplyEvents(events []domain.ActivityEvent) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.login == "" || !s.loaded {
		return 0
	}
	changed := 0
	for _, ev := range events {
		if ev.User != s.login {
			continue
		}
		switch ev.Type {
		case domain.EventLogin:
			if s.applyLogin(ev) {
				changed++
			}
		case domain.EventLogout:
			if s.applyLogout(ev) {
				changed++
			} else {
				s.logger.Debug("orphan logout dropped", "host", ev.Host, "at", ev.At)
			}
		default:
			s.logger.Debug("unknown activity type", "type", ev.Type)
		}
	}
	return changed
}

func (s *Store) applyLogin(ev domain.ActivityEvent) bool {
	for _, sess := range s.sessions {
		if sess.SameStart(ev.Host, ev.At) {
			return false
		}
	}
	// Keep one ongoing session per host. A missed logout is closed at the
	// new login time; a login older than the open session arrives closed.
	var later *domain.Session
	for i := range s.sessions {
		cur := &s.sessions[i]
		if cur.Host != ev.Host || !cur.Ongoing {
			continue
		}
		if cur.BeginAt.After(ev.At) {
			later = cur
			continue
		}
		cur.Close(ev.At)
	}
	sess := domain.Session{
		Host:     ev.Host,
		BeginAt:  ev.At,
		Ongoing:  true,
		Duration: durationSince(ev.At, s.now()),
	}
	if later != nil {
		sess.Close(later.BeginAt)
	}
	pos := sort.Search(len(s.sessions), func(i int) bool {
		return !s.sessions[i].BeginAt.After(ev.At)
	})
	s.sessions = slices.Insert(s.sessions, pos, sess)
	return true
}

func (s *Store) applyLogout(ev domain.ActivityEvent) bool {
	for i := range s.sessions {
		if s.sessions[i].Host == ev.Host && s.sessions[i].Ongoing {
			s.sessions[i].Close(ev.At)
			return true
		}
	}
	return false
}

type sessionKey struct {
	host  string
	begin int64
}

func keyOf(host string, begin time.Time) sessionKey {
	return sessionKey{host: host, begin: begin.UnixNano()}
}

func sortNewestFirst(sessions []domain.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].BeginAt.After(sessions[j].BeginAt)
	})
}

// normalizeOngoing closes stale open sessions so only the newest open
// session per host stays ongoing. Expects newest-first order.
func normalizeOngoing(sessions []domain.Session) {
	open := make(map[string]time.Time)
	for i := range sessions {
		sess := &sessions[i]
		if !sess.Ongoing {
			continue
		}
		if newer, ok := open[sess.Host]; ok {
			sess.Close(newer)
			continue
		}
		open[sess.Host] = sess.BeginAt
	}
}

func durationSince(begin, now time.Time) time.Duration {
	if d := now.Sub(begin); d > 0 {
		return d
	}
	return 0
}
