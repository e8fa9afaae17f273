package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/clustertrack/internal/app"
	"github.com/alexanderramin/clustertrack/internal/config"
	"github.com/alexanderramin/clustertrack/internal/domain"
	"github.com/alexanderramin/clustertrack/internal/repository"
	"github.com/alexanderramin/clustertrack/internal/testutil"
)

var now = time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC)

type fakeSource struct {
	mu      sync.Mutex
	records map[string][]domain.RawLocation
	active  map[string]struct{}
	calls   map[string]int
}

func (f *fakeSource) FetchAllSessions(_ context.Context, login string) ([]domain.RawLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[login]++
	return f.records[login], nil
}

func (f *fakeSource) FetchActiveHosts(context.Context) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active, nil
}

func (f *fakeSource) callsFor(login string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[login]
}

type testEnv struct {
	app  *App
	ctrl *app.Controller
	src  *fakeSource
}

// newTestEnv wires an App over an in-memory database and a fake remote.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	settings := repository.NewSQLiteSettingsRepo(database)
	src := &fakeSource{
		records: map[string][]domain.RawLocation{},
		active:  map[string]struct{}{},
		calls:   map[string]int{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl := app.New(app.Deps{
		Source:    src,
		Cache:     repository.NewSQLiteCacheRepo(database),
		Favorites: repository.NewFavoriteStore(database, testutil.NewTestUoW(database)),
		Settings:  settings,
		Logger:    logger,
		Clock:     func() time.Time { return now },
		Location:  time.UTC,
		Version:   "test",
	})

	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.ExportDir = t.TempDir()

	return &testEnv{
		app: &App{
			Ctrl:      ctrl,
			Config:    cfg,
			Logger:    logger,
			Hosts:     src,
			HostCache: settings,
		},
		ctrl: ctrl,
		src:  src,
	}
}

// run executes the command tree and returns everything written to stdout
// and stderr.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(e.app)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func closedAt(id int64, host string, begin time.Time, d time.Duration) domain.RawLocation {
	end := begin.Add(d)
	return testutil.NewTestLocation(id, host, begin, &end)
}
