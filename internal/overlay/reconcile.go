package overlay

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/clustertrack/internal/aggregate"
	"github.com/alexanderramin/clustertrack/internal/domain"
)

const (
	DefaultBudget        = 15 * time.Millisecond
	DefaultRetryInterval = 5 * time.Second
	DefaultRetryAttempts = 7
)

// ScanInput is the state a scan reconciles the page against.
type ScanInput struct {
	Sessions  []domain.Session
	Favorites Favorites
	Now       time.Time
}

// Result summarizes one scan.
type Result struct {
	Floor     aggregate.Floor
	Cards     int // cards showing a machine id
	Eligible  int
	Badges    int
	Inferred  []string
	Retracted []string
	Batches   int
	Skipped   bool
}

// Reconciler applies badges and favorite inference to the page. Work is cut
// into batches bounded by a time budget with a yield between batches.
type Reconciler struct {
	src     CardSource
	budget  time.Duration
	yield   func()
	clock   func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
	running atomic.Bool
}

type ReconcilerOption func(*Reconciler)

func WithBudget(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		if d > 0 {
			r.budget = d
		}
	}
}

// WithYield sets what runs between batches.
func WithYield(fn func()) ReconcilerOption {
	return func(r *Reconciler) {
		if fn != nil {
			r.yield = fn
		}
	}
}

func WithClock(fn func() time.Time) ReconcilerOption {
	return func(r *Reconciler) {
		if fn != nil {
			r.clock = fn
		}
	}
}

func WithSleep(fn func(ctx context.Context, d time.Duration) error) ReconcilerOption {
	return func(r *Reconciler) {
		if fn != nil {
			r.sleep = fn
		}
	}
}

func NewReconciler(src CardSource, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		src:    src,
		budget: DefaultBudget,
		yield:  runtime.Gosched,
		clock:  time.Now,
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Scan reconciles every card once. A second Scan while one is running
// returns ErrScanInProgress with Result.Skipped set.
func (r *Reconciler) Scan(ctx context.Context, in ScanInput) (Result, error) {
	if !r.running.CompareAndSwap(false, true) {
		return Result{Skipped: true}, ErrScanInProgress
	}
	defer r.running.Store(false)

	hasMarker, err := r.src.HasElement(ctx, aggregate.FloorMarkerID)
	if err != nil {
		return Result{}, fmt.Errorf("%w: floor probe: %v", ErrDomUnavailable, err)
	}
	floor := aggregate.FloorFromMarker(hasMarker)

	cards, err := r.src.Cards(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: enumerating cards: %v", ErrDomUnavailable, err)
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	totals := aggregate.HostTotals(in.Sessions, now, floor.Scope())
	res := Result{Floor: floor}

	batchStart := r.clock()
	for _, card := range cards {
		host, ok := CardHost(card)
		if !ok {
			continue
		}
		res.Cards++
		r.reconcileCard(card, host, totals[host], in.Favorites, &res)

		if r.clock().Sub(batchStart) >= r.budget {
			res.Batches++
			r.yield()
			if err := ctx.Err(); err != nil {
				return res, err
			}
			batchStart = r.clock()
		}
	}
	if res.Cards > 0 {
		res.Batches++
	}
	return res, nil
}

func (r *Reconciler) reconcileCard(card Card, host string, total time.Duration, favs Favorites, res *Result) {
	// Off-screen cards may carry stale markers; only visible ones teach us
	// anything about favorites.
	if favs != nil && card.Visible() {
		switch card.Marker() {
		case MarkerStarred:
			if favs.Infer(host) {
				res.Inferred = append(res.Inferred, host)
			}
		case MarkerUnstarred:
			if favs.Retract(host) {
				res.Retracted = append(res.Retracted, host)
			}
		}
	}

	if domain.Eligible(total) {
		res.Eligible++
	}
	if total > 0 && !card.HasBadge() {
		if err := card.AttachBadge(NewBadge(host, total)); err == nil {
			res.Badges++
		}
	}
}

// ScanWithRetry repeats Scan until it sees at least one card, waiting
// between attempts. input is called per attempt so each one sees fresh
// state. After the last attempt it gives up without an error.
func (r *Reconciler) ScanWithRetry(ctx context.Context, input func() ScanInput, interval time.Duration, attempts int) (Result, error) {
	if interval <= 0 {
		interval = DefaultRetryInterval
	}
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}
	var last Result
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if err := r.sleep(ctx, interval); err != nil {
				return last, err
			}
		}
		res, err := r.Scan(ctx, input())
		switch {
		case errors.Is(err, ErrScanInProgress):
			return res, nil
		case err != nil && !errors.Is(err, ErrDomUnavailable):
			return res, err
		case err == nil && res.Cards > 0:
			return res, nil
		}
		last = res
	}
	return last, nil
}

// Locate highlights the card showing host and clears the highlight on every
// other card. Returns false when no card matches.
func Locate(ctx context.Context, src CardSource, host string) (bool, error) {
	cards, err := src.Cards(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrDomUnavailable, err)
	}
	host = domain.NormalizeHost(host)
	found := false
	for _, c := range cards {
		h, ok := CardHost(c)
		match := ok && h == host
		if match {
			found = true
		}
		if err := c.SetHighlight(match); err != nil {
			return found, err
		}
	}
	return found, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
