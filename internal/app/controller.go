package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alexanderramin/clustertrack/internal/aggregate"
	"github.com/alexanderramin/clustertrack/internal/diag"
	"github.com/alexanderramin/clustertrack/internal/domain"
	"github.com/alexanderramin/clustertrack/internal/overlay"
	"github.com/alexanderramin/clustertrack/internal/tracker"
)

var (
	ErrNoUser      = errors.New("no user set")
	ErrEmptyLogin  = errors.New("login must not be empty")
	ErrStaleReload = errors.New("reload superseded by a user switch")
)

type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusLoading
	StatusLoaded
	StatusError
)

// Status is what the panel header shows next to the user.
type Status struct {
	Kind    StatusKind
	Records int
	Cached  bool
	Message string
}

func (s Status) String() string {
	switch s.Kind {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error: " + s.Message
	case StatusLoaded:
		if s.Cached {
			return fmt.Sprintf("%d records loaded (cached)", s.Records)
		}
		return fmt.Sprintf("%d records loaded", s.Records)
	}
	return "idle"
}

// Deps are the controller's collaborators. Source and the three repos are
// required; the rest default.
type Deps struct {
	Source    SessionSource
	Cache     CacheRepo
	Favorites FavoriteRepo
	Settings  SettingsRepo
	Logbook   *diag.Logbook
	Logger    *slog.Logger
	Observer  UseCaseObserver
	Clock     func() time.Time
	Location  *time.Location
	Version   string
}

// ColorPainter paints or clears occupancy colors on the page.
type ColorPainter interface {
	Paint(ctx context.Context) (overlay.PaintResult, error)
	Clear(ctx context.Context) error
}

// Controller owns the tracker state: the active user, the session store,
// favorites and panel settings. Every surface (panel, commands, HTTP) goes
// through it.
type Controller struct {
	deps     Deps
	store    *tracker.Store
	favs     *ledger
	logbook  *diag.Logbook
	logger   *slog.Logger
	observer UseCaseObserver
	now      func() time.Time
	loc      *time.Location

	mu         sync.Mutex
	tab        domain.Tab
	collapsed  bool
	showColors bool
	status     Status
	floor      *aggregate.Floor
	selected   string
}

func New(deps Deps) *Controller {
	c := &Controller{
		deps:       deps,
		favs:       newLedger(),
		logbook:    deps.Logbook,
		logger:     deps.Logger,
		observer:   deps.Observer,
		now:        deps.Clock,
		loc:        deps.Location,
		tab:        domain.TabHistory,
		showColors: true,
	}
	if c.logbook == nil {
		c.logbook = diag.NewLogbook()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.observer == nil {
		c.observer = NoopUseCaseObserver{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.loc == nil {
		c.loc = time.Local
	}
	if c.deps.Version == "" {
		c.deps.Version = "dev"
	}
	c.store = tracker.NewStore(tracker.WithLogger(c.logger), tracker.WithClock(c.now))
	return c
}

// Start loads persisted state: favorites, the color toggle, the last user
// and, when its login matches, the cached sessions. Storage failures are
// logged and leave defaults in place.
func (c *Controller) Start(ctx context.Context) error {
	started := c.now()

	favs, err := c.deps.Favorites.List(ctx)
	if err != nil {
		c.logger.Warn("load favorites", "error", err)
	}
	c.favs.replace(favs)

	show, err := c.deps.Settings.ShowColors(ctx, true)
	if err != nil {
		c.logger.Warn("load color setting", "error", err)
	}
	c.mu.Lock()
	c.showColors = show
	c.mu.Unlock()

	login, err := c.deps.Settings.LastUser(ctx)
	if err != nil {
		c.logger.Warn("load last user", "error", err)
	}
	restored := false
	if login != "" {
		c.mu.Lock()
		c.store.SetUser(login)
		c.mu.Unlock()
		restored = c.restoreCache(ctx, login)
	}

	c.observe(ctx, "start", started, nil, map[string]any{
		"user":      login,
		"favorites": len(favs),
		"cached":    restored,
	})
	return nil
}

// User returns the active login, "" when none is set.
func (c *Controller) User() string {
	return c.store.Login()
}

// SetUser switches the active login. Sessions of the previous user are
// dropped; favorites are kept. The caller follows up with Reload.
func (c *Controller) SetUser(ctx context.Context, login string) error {
	login = strings.TrimSpace(login)
	if login == "" {
		return ErrEmptyLogin
	}
	c.mu.Lock()
	if c.store.Login() != login {
		c.store.SetUser(login)
		c.status = Status{}
		c.selected = ""
	}
	c.mu.Unlock()

	if err := c.deps.Settings.SetLastUser(ctx, login); err != nil {
		c.logger.Warn("persist last user", "user", login, "error", err)
	}
	c.logger.Info("user set", "user", login)
	return nil
}

// SwitchUser is SetUser followed by a full reload.
func (c *Controller) SwitchUser(ctx context.Context, login string) error {
	if err := c.SetUser(ctx, login); err != nil {
		return err
	}
	return c.Reload(ctx)
}

// ReloadTicket ties a fetch to the login it was issued for.
type ReloadTicket struct {
	Login   string
	Started time.Time
}

// BeginReload marks the store as loading for the active user.
func (c *Controller) BeginReload() (ReloadTicket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	login := c.store.Login()
	if login == "" {
		return ReloadTicket{}, ErrNoUser
	}
	c.status = Status{Kind: StatusLoading}
	return ReloadTicket{Login: login, Started: c.now()}, nil
}

// Fetch runs the remote fetch for a ticket. It touches no state.
func (c *Controller) Fetch(ctx context.Context, t ReloadTicket) ([]domain.RawLocation, error) {
	return c.deps.Source.FetchAllSessions(ctx, t.Login)
}

// CompleteReload applies a fetch result. A result for a login that is no
// longer active is discarded with ErrStaleReload. On failure the store is
// left alone, or restored from the cache when it holds nothing yet.
func (c *Controller) CompleteReload(ctx context.Context, t ReloadTicket, records []domain.RawLocation, fetchErr error) error {
	c.mu.Lock()
	if c.store.Login() != t.Login {
		c.mu.Unlock()
		c.logger.Info("discard stale reload", "issued_for", t.Login)
		return ErrStaleReload
	}

	if fetchErr != nil {
		c.status = Status{Kind: StatusError, Message: fetchErr.Error()}
		loaded := c.store.Loaded()
		c.mu.Unlock()
		if !loaded {
			c.restoreCache(ctx, t.Login)
			c.mu.Lock()
			c.status = Status{Kind: StatusError, Message: fetchErr.Error()}
			c.mu.Unlock()
		}
		c.logger.Error("reload failed", "user", t.Login, "error", fetchErr)
		c.observe(ctx, "reload", t.Started, fetchErr, map[string]any{"user": t.Login})
		return fetchErr
	}

	n := c.store.ReplaceAll(records)
	c.status = Status{Kind: StatusLoaded, Records: n}
	sessions := c.store.Snapshot()
	c.mu.Unlock()

	entry := domain.CacheEntry{Login: t.Login, Sessions: sessions, FetchedAt: c.now()}
	if err := c.deps.Cache.Save(ctx, entry); err != nil {
		c.logger.Warn("save session cache", "error", err)
	}
	c.logger.Info("sessions loaded", "user", t.Login, "records", len(records), "sessions", n)
	c.observe(ctx, "reload", t.Started, nil, map[string]any{"user": t.Login, "sessions": n})
	return nil
}

// Reload fetches the full history of the active user.
func (c *Controller) Reload(ctx context.Context) error {
	t, err := c.BeginReload()
	if err != nil {
		return err
	}
	records, fetchErr := c.Fetch(ctx, t)
	return c.CompleteReload(ctx, t, records, fetchErr)
}

func (c *Controller) restoreCache(ctx context.Context, login string) bool {
	entry, err := c.deps.Cache.Load(ctx)
	if err != nil {
		c.logger.Debug("no session cache", "error", err)
		return false
	}
	if entry == nil || entry.Login != login {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store.Login() != login {
		return false
	}
	c.store.Restore(entry.Sessions)
	c.status = Status{Kind: StatusLoaded, Records: len(entry.Sessions), Cached: true}
	c.logger.Info("sessions restored from cache", "user", login, "sessions", len(entry.Sessions))
	return true
}

// ApplyActivity feeds a real-time activity payload to the store.
func (c *Controller) ApplyActivity(payload []byte) int {
	n := c.store.ApplyRealtimeEvent(payload)
	if n > 0 {
		c.logger.Debug("activity applied", "changes", n)
	}
	return n
}

// ToggleFavorite is the manual star action. Manual entries are never
// retracted by inference.
func (c *Controller) ToggleFavorite(ctx context.Context, host string, add bool) error {
	host = domain.NormalizeHost(host)
	if host == "" {
		return fmt.Errorf("toggle favorite: %w", domain.ErrInvalidHost)
	}
	var err error
	if add {
		c.favs.setManual(host)
		err = c.deps.Favorites.Upsert(ctx, host, domain.FavoriteManual)
	} else {
		c.favs.remove(host)
		err = c.deps.Favorites.Delete(ctx, host)
	}
	if err != nil {
		return fmt.Errorf("saving favorite %s: %w", host, err)
	}
	c.logger.Info("favorite toggled", "host", host, "starred", add)
	return nil
}

// FavoriteSource reports how host was starred.
func (c *Controller) FavoriteSource(host string) (domain.FavoriteSource, bool) {
	return c.favs.source(domain.NormalizeHost(host))
}

func (c *Controller) Favorites() domain.Favorites {
	return c.favs.snapshot()
}

func (c *Controller) SwitchTab(tab domain.Tab) {
	c.mu.Lock()
	c.tab = tab
	c.mu.Unlock()
}

func (c *Controller) NextTab() domain.Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tab = c.tab.Next()
	return c.tab
}

func (c *Controller) ToggleCollapsed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collapsed = !c.collapsed
	return c.collapsed
}

func (c *Controller) Select(host string) {
	c.mu.Lock()
	c.selected = domain.NormalizeHost(host)
	c.mu.Unlock()
}

// SetFloor scopes star totals to a floor. Scans set it from the page.
func (c *Controller) SetFloor(f aggregate.Floor) {
	c.mu.Lock()
	c.floor = &f
	c.mu.Unlock()
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) Logbook() *diag.Logbook {
	return c.logbook
}

// Sessions returns a copy of the store, newest first.
func (c *Controller) Sessions() []domain.Session {
	return c.store.Snapshot()
}

// View is a consistent snapshot of everything the panel renders.
type View struct {
	User       string
	Status     Status
	Tab        domain.Tab
	Collapsed  bool
	ShowColors bool
	Records    int
	Today      time.Duration
	Days       []aggregate.Day
	Board      aggregate.StarBoard
	Floor      *aggregate.Floor
	Selected   string
	Ongoing    bool
	Now        time.Time
}

func (c *Controller) Snapshot() View {
	c.mu.Lock()
	v := View{
		User:       c.store.Login(),
		Status:     c.status,
		Tab:        c.tab,
		Collapsed:  c.collapsed,
		ShowColors: c.showColors,
		Selected:   c.selected,
		Now:        c.now(),
	}
	if c.floor != nil {
		f := *c.floor
		v.Floor = &f
	}
	sessions := c.store.Snapshot()
	c.mu.Unlock()

	var scope aggregate.Scope
	if v.Floor != nil {
		scope = v.Floor.Scope()
	}
	v.Records = len(sessions)
	v.Today = aggregate.TodayTotal(sessions, v.Now, c.loc)
	v.Days = aggregate.DailyTotals(sessions, v.Now, c.loc)
	v.Board = aggregate.BuildStarBoard(aggregate.HostTotals(sessions, v.Now, scope), c.favs.IsFavorite)
	for _, s := range sessions {
		if s.Ongoing {
			v.Ongoing = true
			break
		}
	}
	return v
}

// HostReport is the per-host verification breakdown.
type HostReport struct {
	Host     string
	User     string
	Total    time.Duration
	Target   time.Duration
	Favorite domain.FavoriteSource
	Sessions []domain.Session
	Now      time.Time
}

func (r HostReport) Eligible() bool { return domain.Eligible(r.Total) }

func (r HostReport) Remaining() time.Duration {
	if r.Total >= r.Target {
		return 0
	}
	return r.Target - r.Total
}

func (c *Controller) HostReport(host string) HostReport {
	host = domain.NormalizeHost(host)
	now := c.now()
	sessions := c.store.Snapshot()
	r := HostReport{
		Host:   host,
		User:   c.store.Login(),
		Total:  aggregate.TotalForHost(sessions, host, now, nil),
		Target: domain.TargetThreshold,
		Now:    now,
	}
	r.Favorite, _ = c.favs.source(host)
	for _, s := range sessions {
		if s.Host == host {
			r.Sessions = append(r.Sessions, s)
		}
	}
	return r
}

// ScanInput captures the current sessions and the favorites ledger for a
// reconciliation pass.
func (c *Controller) ScanInput() overlay.ScanInput {
	return overlay.ScanInput{
		Sessions:  c.store.Snapshot(),
		Favorites: c.favs,
		Now:       c.now(),
	}
}

// ScanAndOverlay runs one reconciliation pass and persists any favorites it
// inferred or retracted.
func (c *Controller) ScanAndOverlay(ctx context.Context, rec *overlay.Reconciler) (overlay.Result, error) {
	started := c.now()
	res, err := rec.Scan(ctx, c.ScanInput())
	return res, c.afterScan(ctx, started, res, err)
}

// ScanWithRetry is ScanAndOverlay for pages that render their cards late.
func (c *Controller) ScanWithRetry(ctx context.Context, rec *overlay.Reconciler, interval time.Duration, attempts int) (overlay.Result, error) {
	started := c.now()
	res, err := rec.ScanWithRetry(ctx, c.ScanInput, interval, attempts)
	return res, c.afterScan(ctx, started, res, err)
}

func (c *Controller) afterScan(ctx context.Context, started time.Time, res overlay.Result, err error) error {
	if err != nil {
		if !errors.Is(err, overlay.ErrScanInProgress) {
			c.observe(ctx, "scan", started, err, nil)
		}
		return err
	}
	c.SetFloor(res.Floor)
	if len(res.Inferred) > 0 || len(res.Retracted) > 0 {
		if perr := c.deps.Favorites.ReplaceAll(ctx, c.favs.snapshot()); perr != nil {
			c.logger.Warn("persist inferred favorites", "error", perr)
		}
	}
	c.observe(ctx, "scan", started, nil, map[string]any{
		"floor":     res.Floor.Name,
		"cards":     res.Cards,
		"badges":    res.Badges,
		"inferred":  len(res.Inferred),
		"retracted": len(res.Retracted),
		"batches":   res.Batches,
	})
	return nil
}

// Locate highlights the card for host and makes it the selection.
func (c *Controller) Locate(ctx context.Context, src overlay.CardSource, host string) (bool, error) {
	found, err := overlay.Locate(ctx, src, host)
	if err != nil {
		return false, err
	}
	if found {
		c.Select(host)
	}
	return found, nil
}

func (c *Controller) ShowColors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.showColors
}

// ToggleColors flips and persists the availability-color setting, then
// paints or clears accordingly. It returns the new setting.
func (c *Controller) ToggleColors(ctx context.Context, p ColorPainter) (bool, overlay.PaintResult, error) {
	c.mu.Lock()
	c.showColors = !c.showColors
	on := c.showColors
	c.mu.Unlock()

	if err := c.deps.Settings.SetShowColors(ctx, on); err != nil {
		c.logger.Warn("persist color setting", "error", err)
	}
	if !on {
		return false, overlay.PaintResult{}, p.Clear(ctx)
	}
	res, err := c.RefreshColors(ctx, p)
	return true, res, err
}

// RefreshColors repaints when colors are on and does nothing otherwise.
func (c *Controller) RefreshColors(ctx context.Context, p ColorPainter) (overlay.PaintResult, error) {
	if !c.ShowColors() {
		return overlay.PaintResult{}, nil
	}
	started := c.now()
	res, err := p.Paint(ctx)
	c.observe(ctx, "paint", started, err, map[string]any{
		"source":   string(res.Source),
		"painted":  res.Painted,
		"occupied": res.Occupied,
	})
	return res, err
}
