package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/clustertrack/internal/api"
	"github.com/alexanderramin/clustertrack/internal/app"
	"github.com/alexanderramin/clustertrack/internal/domain"
	"github.com/alexanderramin/clustertrack/internal/repository"
	"github.com/alexanderramin/clustertrack/internal/testutil"
)

var now = time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC)

type stubSource struct {
	records []domain.RawLocation
}

func (s stubSource) FetchAllSessions(context.Context, string) ([]domain.RawLocation, error) {
	return s.records, nil
}

func (s stubSource) FetchActiveHosts(context.Context) (map[string]struct{}, error) {
	return nil, nil
}

func newServer(t *testing.T, records ...domain.RawLocation) (*httptest.Server, *app.Controller) {
	t.Helper()
	database := testutil.NewTestDB(t)
	ctrl := app.New(app.Deps{
		Source:    stubSource{records: records},
		Cache:     repository.NewSQLiteCacheRepo(database),
		Favorites: repository.NewFavoriteStore(database, testutil.NewTestUoW(database)),
		Settings:  repository.NewSQLiteSettingsRepo(database),
		Clock:     func() time.Time { return now },
		Location:  time.UTC,
	})
	srv := httptest.NewServer(api.NewRouter(ctrl, nil))
	t.Cleanup(srv.Close)
	return srv, ctrl
}

func loc(id int64, host string, begin time.Time, d time.Duration) domain.RawLocation {
	end := begin.Add(d)
	return testutil.NewTestLocation(id, host, begin, &end)
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv, _ := newServer(t)
	var body map[string]string
	resp := getJSON(t, srv.URL+"/healthz", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestTodayAndStars(t *testing.T) {
	srv, ctrl := newServer(t,
		loc(1, "z1r1p1", now.Add(-5*time.Hour), 4*time.Hour),
		loc(2, "z1r1p2", now.Add(-30*time.Minute), 30*time.Minute),
	)
	require.NoError(t, ctrl.SwitchUser(context.Background(), "alice"))

	var today map[string]any
	getJSON(t, srv.URL+"/api/today", &today)
	assert.Equal(t, "alice", today["user"])
	assert.Equal(t, "4h30m", today["total"])
	assert.Equal(t, true, today["eligible"])

	var stars struct {
		NeedsStar  []map[string]any `json:"needsStar"`
		Collecting []map[string]any `json:"collecting"`
	}
	getJSON(t, srv.URL+"/api/stars", &stars)
	require.Len(t, stars.NeedsStar, 1)
	assert.Equal(t, "z1r1p1", stars.NeedsStar[0]["host"])
	require.Len(t, stars.Collecting, 1)
	assert.Equal(t, "3h12m", stars.Collecting[0]["remaining"])
}

func TestHostReport(t *testing.T) {
	srv, ctrl := newServer(t, loc(1, "z2r3p4", now.Add(-3*time.Hour), 2*time.Hour))
	require.NoError(t, ctrl.SwitchUser(context.Background(), "alice"))

	var rep map[string]any
	resp := getJSON(t, srv.URL+"/api/hosts/Z2R3P4", &rep)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2h0m", rep["total"])
	assert.Equal(t, "1h42m", rep["remaining"])

	resp = getJSON(t, srv.URL+"/api/hosts/lobby", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestActivityIntake(t *testing.T) {
	srv, ctrl := newServer(t)
	require.NoError(t, ctrl.SwitchUser(context.Background(), "alice"))

	payload := `[{"user":{"login":"alice"},"host":"z1r1p1","type":"login","at":"2024-03-04T17:00:00Z"},
		{"user":"bob","host":"z1r1p2","type":"login","at":"2024-03-04T17:00:00Z"}]`
	resp, err := http.Post(srv.URL+"/api/activity", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body["applied"])
	assert.Len(t, ctrl.Sessions(), 1)
}

func TestFavoritesRoutes(t *testing.T) {
	srv, ctrl := newServer(t)

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/favorites/z1r1p1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.True(t, ctrl.Favorites().IsFavorite("z1r1p1"))

	req, err = http.NewRequest(http.MethodDelete, srv.URL+"/api/favorites/z1r1p1", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.False(t, ctrl.Favorites().IsFavorite("z1r1p1"))
}

func TestReloadWithoutUser(t *testing.T) {
	srv, _ := newServer(t)
	resp, err := http.Post(srv.URL+"/api/reload", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestExportAttachment(t *testing.T) {
	srv, _ := newServer(t)
	var exp app.Export
	resp := getJSON(t, srv.URL+"/api/export", &exp)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "tracker_2024-03-04T18-00-00-000Z.json")
	assert.Equal(t, "3h42m", exp.TargetTimeFormatted)
}
