package overlay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// HostFetcher reports the hosts currently in use.
type HostFetcher interface {
	FetchActiveHosts(ctx context.Context) (map[string]struct{}, error)
}

// HostCache persists the last good active-host set.
type HostCache interface {
	SaveActiveHosts(ctx context.Context, hosts []string) error
	LoadActiveHosts(ctx context.Context) ([]string, error)
}

// PaintSource names where the painted host set came from.
type PaintSource string

const (
	SourceAPI    PaintSource = "api"
	SourceMemory PaintSource = "memory"
	SourceCache  PaintSource = "cache"
)

type PaintResult struct {
	Source   PaintSource
	Painted  int
	Occupied int
	Err      error // fetch failure that was covered by a fallback
}

// Painter colors cards by occupancy.
type Painter struct {
	src    CardSource
	fetch  HostFetcher
	cache  HostCache
	logger *slog.Logger

	mu   sync.Mutex
	last map[string]struct{}
}

func NewPainter(src CardSource, fetch HostFetcher, cache HostCache, logger *slog.Logger) *Painter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Painter{src: src, fetch: fetch, cache: cache, logger: logger}
}

// Paint fetches the active hosts and colors every card. When the fetch
// fails or comes back empty the last good set is used instead, from memory
// and then from the cache. With no fallback the page is left untouched and
// the fetch error is returned.
func (p *Painter) Paint(ctx context.Context) (PaintResult, error) {
	hosts, err := p.fetch.FetchActiveHosts(ctx)
	if err == nil && len(hosts) == 0 {
		err = ErrNoActiveHosts
	}
	if err == nil {
		p.remember(ctx, hosts)
		return p.apply(ctx, hosts, SourceAPI, nil)
	}

	p.logger.Warn("campus status unavailable, using fallback", "error", err)
	if mem := p.memory(); mem != nil {
		return p.apply(ctx, mem, SourceMemory, err)
	}
	if p.cache != nil {
		cached, cerr := p.cache.LoadActiveHosts(ctx)
		if cerr == nil && len(cached) > 0 {
			set := make(map[string]struct{}, len(cached))
			for _, h := range cached {
				set[h] = struct{}{}
			}
			p.mu.Lock()
			p.last = set
			p.mu.Unlock()
			return p.apply(ctx, set, SourceCache, err)
		}
	}
	return PaintResult{Err: err}, fmt.Errorf("painting availability: %w", err)
}

// Reapply repaints from the in-memory set without fetching. Used after the
// layout changes. Returns false when nothing has been fetched yet.
func (p *Painter) Reapply(ctx context.Context) (bool, error) {
	mem := p.memory()
	if mem == nil {
		return false, nil
	}
	_, err := p.apply(ctx, mem, SourceMemory, nil)
	return err == nil, err
}

// Clear removes every availability color and forgets the in-memory set.
func (p *Painter) Clear(ctx context.Context) error {
	p.mu.Lock()
	p.last = nil
	p.mu.Unlock()

	cards, err := p.src.Cards(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDomUnavailable, err)
	}
	var errs []error
	for _, c := range cards {
		if _, ok := CardHost(c); !ok {
			continue
		}
		if err := c.SetOccupancy(OccupancyNone); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Painter) apply(ctx context.Context, hosts map[string]struct{}, source PaintSource, fetchErr error) (PaintResult, error) {
	cards, err := p.src.Cards(ctx)
	if err != nil {
		return PaintResult{Source: source, Err: fetchErr}, fmt.Errorf("%w: %v", ErrDomUnavailable, err)
	}
	res := PaintResult{Source: source, Err: fetchErr}
	for _, c := range cards {
		host, ok := CardHost(c)
		if !ok {
			continue
		}
		occ := OccupancyFree
		if _, taken := hosts[host]; taken {
			occ = OccupancyTaken
			res.Occupied++
		}
		if err := c.SetOccupancy(occ); err != nil {
			continue
		}
		res.Painted++
	}
	return res, nil
}

func (p *Painter) remember(ctx context.Context, hosts map[string]struct{}) {
	p.mu.Lock()
	p.last = hosts
	p.mu.Unlock()
	if p.cache == nil {
		return
	}
	list := make([]string, 0, len(hosts))
	for h := range hosts {
		list = append(list, h)
	}
	sort.Strings(list)
	if err := p.cache.SaveActiveHosts(ctx, list); err != nil {
		p.logger.Warn("saving active hosts", "error", err)
	}
}

func (p *Painter) memory() map[string]struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
