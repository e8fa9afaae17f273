package tracker

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/clustertrack/internal/domain"
)

var fixedNow = time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return fixedNow }),
	)
}

func strPtr(s string) *string { return &s }

func loc(host, begin string, end *string) domain.RawLocation {
	return domain.RawLocation{Host: host, BeginAt: begin, EndAt: end}
}

func loadedStore(t *testing.T, login string, records ...domain.RawLocation) *Store {
	t.Helper()
	s := newTestStore(t)
	s.SetUser(login)
	s.ReplaceAll(records)
	return s
}

func TestReplaceAll_SortsNewestFirstAndSkipsBadRecords(t *testing.T) {
	s := loadedStore(t, "alice",
		loc("z1r1p1", "2024-03-01T09:00:00Z", strPtr("2024-03-01T10:00:00Z")),
		loc("z1r1p2", "not-a-time", nil),
		loc("z1r1p3", "2024-03-03T09:00:00Z", strPtr("2024-03-03T09:30:00Z")),
	)

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "z1r1p3", snap[0].Host)
	assert.Equal(t, "z1r1p1", snap[1].Host)
	assert.Equal(t, time.Hour, snap[1].Duration)
	assert.True(t, s.Loaded())
}

func TestReplaceAll_Idempotent(t *testing.T) {
	records := []domain.RawLocation{
		loc("z1r1p1", "2024-03-01T09:00:00Z", strPtr("2024-03-01T10:00:00Z")),
		loc("z1r1p1", "2024-03-01T09:00:00Z", strPtr("2024-03-01T10:00:00Z")),
		loc("z2r1p1", "2024-03-04T17:00:00Z", nil),
	}
	s := loadedStore(t, "alice", records...)
	first := s.Snapshot()
	s.ReplaceAll(records)

	assert.Equal(t, first, s.Snapshot())
	assert.Len(t, first, 2)
}

func TestReplaceAll_OneOngoingPerHost(t *testing.T) {
	s := loadedStore(t, "alice",
		loc("z1r1p1", "2024-03-04T09:00:00Z", nil),
		loc("z1r1p1", "2024-03-04T12:00:00Z", nil),
	)

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.True(t, snap[0].Ongoing)
	assert.False(t, snap[1].Ongoing)
	assert.Equal(t, 3*time.Hour, snap[1].Duration)
}

func TestSetUser_ClearsStore(t *testing.T) {
	s := loadedStore(t, "alice", loc("z1r1p1", "2024-03-01T09:00:00Z", nil))
	s.SetUser("bob")
	assert.Zero(t, s.Len())
	assert.False(t, s.Loaded())
	assert.Equal(t, "bob", s.Login())
}

func TestSetUser_SameLoginKeepsStore(t *testing.T) {
	s := loadedStore(t, "alice", loc("z1r1p1", "2024-03-01T09:00:00Z", nil))
	s.SetUser("alice")
	assert.Equal(t, 1, s.Len())
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	s := loadedStore(t, "alice", loc("z1r1p1", "2024-03-01T09:00:00Z", strPtr("2024-03-01T10:00:00Z")))
	snap := s.Snapshot()
	*snap[0].EndAt = snap[0].EndAt.Add(time.Hour)
	assert.Equal(t, 10, s.Snapshot()[0].EndAt.Hour())
}

func TestApplyRealtimeEvent_LoginDedup(t *testing.T) {
	s := loadedStore(t, "alice")
	payload := []byte(`{"user":"alice","host":"z1r2p3","type":"login","at":"2024-03-04T17:00:00Z"}`)

	assert.Equal(t, 1, s.ApplyRealtimeEvent(payload))
	assert.Equal(t, 0, s.ApplyRealtimeEvent(payload))

	snap := s.Snapshot()
	require.Len(t, snap, 1)
	assert.True(t, snap[0].Ongoing)
	assert.Equal(t, time.Hour, snap[0].DurationAt(fixedNow))
}

func TestApplyRealtimeEvent_LoginClosesPriorOpenSession(t *testing.T) {
	s := loadedStore(t, "alice", loc("z1r2p3", "2024-03-04T09:00:00Z", nil))
	s.ApplyRealtimeEvent([]byte(`{"user":{"login":"alice"},"host":"z1r2p3","type":"login","at":"2024-03-04T11:00:00Z"}`))

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.True(t, snap[0].Ongoing)
	assert.False(t, snap[1].Ongoing)
	assert.Equal(t, 2*time.Hour, snap[1].Duration)
}

func TestApplyRealtimeEvent_LateLoginArrivesClosed(t *testing.T) {
	s := loadedStore(t, "alice")
	s.ApplyRealtimeEvent([]byte(`{"user":"alice","host":"z1r1p1","type":"login","at":"2024-03-04T17:00:00Z"}`))
	n := s.ApplyRealtimeEvent([]byte(`{"user":"alice","host":"z1r1p1","type":"login","at":"2024-03-04T16:00:00Z"}`))

	assert.Equal(t, 1, n)
	snap := s.Snapshot()
	require.Len(t, snap, 2)
	ongoing := 0
	for _, sess := range snap {
		if sess.Ongoing {
			ongoing++
		}
	}
	assert.Equal(t, 1, ongoing)
	assert.True(t, snap[0].Ongoing)
	assert.True(t, snap[0].BeginAt.Equal(time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC)))
	assert.False(t, snap[1].Ongoing)
	assert.Equal(t, time.Hour, snap[1].Duration)
}

func TestApplyRealtimeEvent_Logout(t *testing.T) {
	s := loadedStore(t, "alice", loc("z1r2p3", "2024-03-04T09:00:00Z", nil))
	n := s.ApplyRealtimeEvent([]byte(`[{"user":"alice","host":"z1r2p3","type":"logout","at":"2024-03-04T10:30:00Z"}]`))

	assert.Equal(t, 1, n)
	snap := s.Snapshot()
	require.Len(t, snap, 1)
	assert.False(t, snap[0].Ongoing)
	assert.Equal(t, 90*time.Minute, snap[0].Duration)
}

func TestApplyRealtimeEvent_OrphanLogoutIsNoop(t *testing.T) {
	s := loadedStore(t, "alice", loc("z1r2p3", "2024-03-04T09:00:00Z", strPtr("2024-03-04T10:00:00Z")))
	before := s.Snapshot()

	n := s.ApplyRealtimeEvent([]byte(`{"user":"alice","host":"z9r9p9","type":"logout","at":"2024-03-04T10:30:00Z"}`))

	assert.Zero(t, n)
	assert.Equal(t, before, s.Snapshot())
}

func TestApplyRealtimeEvent_IgnoredCases(t *testing.T) {
	login := []byte(`{"user":"alice","host":"z1r2p3","type":"login","at":"2024-03-04T17:00:00Z"}`)

	t.Run("no user", func(t *testing.T) {
		s := newTestStore(t)
		assert.Zero(t, s.ApplyRealtimeEvent(login))
	})
	t.Run("not loaded", func(t *testing.T) {
		s := newTestStore(t)
		s.SetUser("alice")
		assert.Zero(t, s.ApplyRealtimeEvent(login))
	})
	t.Run("other user", func(t *testing.T) {
		s := loadedStore(t, "bob")
		assert.Zero(t, s.ApplyRealtimeEvent(login))
		assert.Zero(t, s.Len())
	})
	t.Run("malformed", func(t *testing.T) {
		s := loadedStore(t, "alice")
		assert.Zero(t, s.ApplyRealtimeEvent([]byte(`{not json`)))
		assert.Zero(t, s.ApplyRealtimeEvent(nil))
	})
}

func TestRestore(t *testing.T) {
	s := newTestStore(t)
	s.SetUser("alice")
	end := fixedNow.Add(-time.Hour)
	s.Restore([]domain.Session{
		{Host: "Z1R1P1", BeginAt: fixedNow.Add(-3 * time.Hour), EndAt: &end, Duration: 2 * time.Hour},
		{Host: "z1r1p2", BeginAt: fixedNow.Add(-30 * time.Minute), Ongoing: true},
	})

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "z1r1p2", snap[0].Host)
	assert.Equal(t, "z1r1p1", snap[1].Host)
	assert.True(t, s.Loaded())
}
