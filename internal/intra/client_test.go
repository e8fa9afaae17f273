package intra

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/alexanderramin/clustertrack/internal/diag"
	"github.com/alexanderramin/clustertrack/internal/domain"
	"github.com/alexanderramin/clustertrack/internal/netobs"
)

type fakeAPI struct {
	t          *testing.T
	pageSizes  []int
	failPages  map[int]int // page -> status served on every attempt
	tokenCalls atomic.Int32
	pageCalls  atomic.Int32
	lastQuery  atomic.Value
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		assert.NoError(f.t, r.ParseForm())
		if r.PostForm.Get("client_id") != "id" || r.PostForm.Get("client_secret") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":7200}`))
	})
	locations := func(w http.ResponseWriter, r *http.Request) {
		f.pageCalls.Add(1)
		f.lastQuery.Store(r.URL.RawQuery)
		assert.Equal(f.t, "Bearer tok", r.Header.Get("Authorization"))
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if status, ok := f.failPages[page]; ok {
			w.WriteHeader(status)
			return
		}
		size := 0
		if page-1 < len(f.pageSizes) {
			size = f.pageSizes[page-1]
		}
		records := make([]domain.RawLocation, size)
		for i := range records {
			begin := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(page*1000+i) * time.Minute)
			records[i] = domain.RawLocation{
				ID:      int64(page*1000 + i),
				Host:    fmt.Sprintf("Z1R%dP%d", page, i),
				BeginAt: begin.Format(time.RFC3339),
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(records)
	}
	mux.HandleFunc("/v2/users/alice/locations", locations)
	mux.HandleFunc("/v2/campus/1/locations", locations)
	return mux
}

func newTestClient(t *testing.T, api *fakeAPI) (*Client, *httptest.Server) {
	t.Helper()
	api.t = t
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.TokenURL = srv.URL + "/oauth/token"
	cfg.ClientID = "id"
	cfg.ClientSecret = "secret"
	cfg.RequestTimeout = 2 * time.Second

	c := NewClient(cfg, WithHTTPClient(srv.Client()))
	c.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return c, srv
}

func TestFetchAllSessions_Pagination(t *testing.T) {
	api := &fakeAPI{pageSizes: []int{100, 100, 47}}
	c, _ := newTestClient(t, api)

	records, err := c.FetchAllSessions(context.Background(), "alice")

	require.NoError(t, err)
	assert.Len(t, records, 247)
	assert.EqualValues(t, 3, api.pageCalls.Load())
	assert.Contains(t, api.lastQuery.Load(), "per_page=100")
}

func TestFetchAllSessions_StopsAtMaxPages(t *testing.T) {
	sizes := make([]int, 12)
	for i := range sizes {
		sizes[i] = 100
	}
	api := &fakeAPI{pageSizes: sizes}
	c, _ := newTestClient(t, api)

	records, err := c.FetchAllSessions(context.Background(), "alice")

	require.NoError(t, err)
	assert.Len(t, records, 1000)
	assert.EqualValues(t, 10, api.pageCalls.Load())
}

func TestFetchAllSessions_LaterPageFailureKeepsPartial(t *testing.T) {
	api := &fakeAPI{pageSizes: []int{100, 100, 47}, failPages: map[int]int{2: http.StatusBadGateway}}
	c, _ := newTestClient(t, api)

	records, err := c.FetchAllSessions(context.Background(), "alice")

	require.NoError(t, err)
	assert.Len(t, records, 100)
	// Page 1 once, page 2 on every attempt.
	assert.EqualValues(t, 1+1+c.cfg.MaxRetries, api.pageCalls.Load())
}

func TestFetchAllSessions_FirstPageFailure(t *testing.T) {
	api := &fakeAPI{pageSizes: []int{100}, failPages: map[int]int{1: http.StatusServiceUnavailable}}
	c, _ := newTestClient(t, api)

	_, err := c.FetchAllSessions(context.Background(), "alice")

	assert.ErrorIs(t, err, ErrTransient)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
}

func TestFetchAllSessions_PermanentErrorNotRetried(t *testing.T) {
	api := &fakeAPI{failPages: map[int]int{1: http.StatusNotFound}}
	c, _ := newTestClient(t, api)

	_, err := c.FetchAllSessions(context.Background(), "alice")

	assert.ErrorIs(t, err, ErrPermanent)
	assert.EqualValues(t, 1, api.pageCalls.Load())
}

func TestFetchAllSessions_BadCredentials(t *testing.T) {
	api := &fakeAPI{pageSizes: []int{1}}
	c, _ := newTestClient(t, api)
	c.tokens = NewTokenSource(Config{
		TokenURL:     c.cfg.TokenURL,
		ClientID:     "id",
		ClientSecret: "wrong",
	}, c.http)

	_, err := c.FetchAllSessions(context.Background(), "alice")

	assert.ErrorIs(t, err, ErrAuth)
	assert.Zero(t, api.pageCalls.Load())
}

func TestFetchAllSessions_TokenReused(t *testing.T) {
	api := &fakeAPI{pageSizes: []int{100, 100, 47}}
	c, _ := newTestClient(t, api)

	_, err := c.FetchAllSessions(context.Background(), "alice")
	require.NoError(t, err)
	_, err = c.FetchAllSessions(context.Background(), "alice")
	require.NoError(t, err)

	assert.EqualValues(t, 1, api.tokenCalls.Load())
}

func TestFetchAllSessions_EmptyLogin(t *testing.T) {
	c := NewClient(DefaultConfig(), WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok"})))
	_, err := c.FetchAllSessions(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrPermanent)
}

func TestFetchAllSessions_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"}`))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	c := NewClient(cfg,
		WithHTTPClient(srv.Client()),
		WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok"})),
	)

	_, err := c.FetchAllSessions(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestFetchActiveHosts_LowerCases(t *testing.T) {
	api := &fakeAPI{pageSizes: []int{3}}
	c, _ := newTestClient(t, api)

	hosts, err := c.FetchActiveHosts(context.Background())

	require.NoError(t, err)
	assert.Len(t, hosts, 3)
	assert.Contains(t, hosts, "z1r1p0")
	assert.Contains(t, api.lastQuery.Load(), "filter%5Bactive%5D=true")
}

func TestConfig_BackoffCapped(t *testing.T) {
	cfg := Config{Backoff: 100 * time.Millisecond, MaxBackoff: 300 * time.Millisecond}
	assert.Equal(t, 100*time.Millisecond, cfg.backoffFor(1))
	assert.Equal(t, 200*time.Millisecond, cfg.backoffFor(2))
	assert.Equal(t, 300*time.Millisecond, cfg.backoffFor(3))
	assert.Equal(t, 300*time.Millisecond, cfg.backoffFor(8))
}

type recordingObserver struct{ events []PageEvent }

func (r *recordingObserver) OnPageFetched(e PageEvent) { r.events = append(r.events, e) }

func TestClient_ObserverSeesEveryAttempt(t *testing.T) {
	api := &fakeAPI{pageSizes: []int{100, 5}, failPages: map[int]int{2: http.StatusTooManyRequests}}
	c, _ := newTestClient(t, api)
	obs := &recordingObserver{}
	c.observer = obs

	_, err := c.FetchAllSessions(context.Background(), "alice")
	require.NoError(t, err)

	require.Len(t, obs.events, 1+1+c.cfg.MaxRetries)
	assert.True(t, obs.events[0].Success)
	assert.Equal(t, "transient", obs.events[1].ErrorCode)
}

type methodRecorder struct {
	base    http.RoundTripper
	mu      sync.Mutex
	methods []string
}

func (m *methodRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.methods = append(m.methods, req.Method+" "+req.URL.Path)
	m.mu.Unlock()
	return m.base.RoundTrip(req)
}

func TestClient_TokenExchangeBypassesTrafficLog(t *testing.T) {
	api := &fakeAPI{t: t, pageSizes: []int{2}}
	srv := httptest.NewServer(http.StripPrefix("/api", api.handler()))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL + "/api"
	cfg.TokenURL = srv.URL + "/api/oauth/token"
	cfg.ClientID = "id"
	cfg.ClientSecret = "secret"
	cfg.RequestTimeout = 2 * time.Second

	book := diag.NewLogbook()
	logger := slog.New(diag.NewHandler(book, slog.LevelDebug, nil))
	rec := &methodRecorder{base: srv.Client().Transport}
	c := NewClient(cfg,
		WithHTTPClient(&http.Client{Transport: netobs.NewTransport(rec, netobs.NewLogObserver(logger))}),
		WithLogger(logger),
	)

	records, err := c.FetchAllSessions(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.EqualValues(t, 1, api.tokenCalls.Load())

	assert.Equal(t, []string{"GET /api/v2/users/alice/locations"}, rec.methods)
	for _, e := range book.Entries() {
		assert.NotContains(t, e.Message+e.Data, "access_token")
	}
}

func TestFetchAllSessions_StalledTokenEndpointTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.TokenURL = srv.URL + "/oauth/token"
	cfg.ClientID = "id"
	cfg.ClientSecret = "secret"
	cfg.RequestTimeout = 100 * time.Millisecond
	cfg.MaxRetries = 1
	c := NewClient(cfg)
	c.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }

	done := make(chan error, 1)
	go func() {
		_, err := c.FetchAllSessions(context.Background(), "alice")
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrTransient)
	case <-time.After(3 * time.Second):
		t.Fatal("FetchAllSessions did not return after the request timeout")
	}
}
