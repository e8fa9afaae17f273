package netobs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadEvents(t *testing.T) {
	body := ": keepalive\n" +
		"event: activity\n" +
		"id: 7\n" +
		"data: {\"user\":\"alice\",\n" +
		"data: \"host\":\"z1r1p1\"}\n" +
		"\n" +
		"data: plain\n" +
		"\n" +
		"event: ping\n" +
		"\n" +
		"event: activity\n" +
		"data: tail"

	var got []Event
	err := ReadEvents(strings.NewReader(body), func(ev Event) error {
		got = append(got, ev)
		return nil
	})

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, Event{ID: "7", Type: "activity", Data: "{\"user\":\"alice\",\n\"host\":\"z1r1p1\"}"}, got[0])
	assert.Equal(t, "message", got[1].Type)
	assert.Equal(t, "tail", got[2].Data)
}

func TestReadEvents_StopsOnCallbackError(t *testing.T) {
	stop := fmt.Errorf("stop")
	err := ReadEvents(strings.NewReader("data: a\n\ndata: b\n\n"), func(Event) error { return stop })
	assert.ErrorIs(t, err, stop)
}

type recorder struct {
	mu       sync.Mutex
	activity [][]byte
	traffic  []TrafficRecord
}

func (r *recorder) OnActivityEvent(p []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activity = append(r.activity, p)
}

func (r *recorder) OnTrafficObserved(rec TrafficRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.traffic = append(r.traffic, rec)
}

func (r *recorder) activityCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.activity)
}

func TestStream_ForwardsActivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "session=abc", r.Header.Get("Cookie"))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "event: activity\ndata: {\"user\":\"alice\"}\n\nevent: other\ndata: x\n\n")
	}))
	defer srv.Close()

	rec := &recorder{}
	s := &Stream{URL: srv.URL, Cookie: "session=abc", Client: srv.Client(), Observer: rec, RetryDelay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return rec.activityCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.JSONEq(t, `{"user":"alice"}`, string(rec.activity[0]))
}

func TestInteresting(t *testing.T) {
	assert.True(t, Interesting("POST", "https://profile.intra.42.fr/stars/claim"))
	assert.True(t, Interesting("patch", "https://x/api/v1"))
	assert.False(t, Interesting("GET", "https://x/api/v1"))
	assert.False(t, Interesting("POST", "https://x/static/app.js"))
	assert.False(t, Interesting("POST", "https://api.intra.42.fr/oauth/token"))
}

func TestTransport_RecordsAndPassesBodyThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"claimed":true}`)
	}))
	defer srv.Close()

	rec := &recorder{}
	client := &http.Client{Transport: NewTransport(srv.Client().Transport, rec)}

	resp, err := client.Post(srv.URL+"/stars/claim", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, `{"claimed":true}`, string(body))
	require.Len(t, rec.traffic, 1)
	assert.Equal(t, "POST", rec.traffic[0].Method)
	assert.Equal(t, http.StatusCreated, rec.traffic[0].Status)
	assert.Equal(t, `{"claimed":true}`, rec.traffic[0].Body)

	resp, err = client.Get(srv.URL + "/stars/claim")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Len(t, rec.traffic, 1)
}

func TestFuncsAndMulti(t *testing.T) {
	var n int
	obs := Multi{Funcs{Activity: func([]byte) { n++ }}, Funcs{}, &recorder{}}
	obs.OnActivityEvent([]byte("x"))
	obs.OnTrafficObserved(TrafficRecord{})
	assert.Equal(t, 1, n)
}
