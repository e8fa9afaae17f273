package app

import (
	"sync"

	"github.com/alexanderramin/clustertrack/internal/domain"
)

// ledger guards the favorites map. Scans call into it from their own
// goroutine while the panel toggles stars, so it has a lock of its own
// instead of sharing the controller's.
type ledger struct {
	mu   sync.Mutex
	favs domain.Favorites
}

func newLedger() *ledger {
	return &ledger{favs: domain.Favorites{}}
}

func (l *ledger) IsFavorite(host string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.favs.IsFavorite(host)
}

func (l *ledger) Infer(host string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.favs.Infer(host)
}

func (l *ledger) Retract(host string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.favs.Retract(host)
}

func (l *ledger) setManual(host string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.favs.SetManual(host)
}

func (l *ledger) remove(host string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.favs.Remove(host)
}

func (l *ledger) source(host string) (domain.FavoriteSource, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.favs.Source(host)
}

func (l *ledger) replace(favs domain.Favorites) {
	if favs == nil {
		favs = domain.Favorites{}
	}
	l.mu.Lock()
	l.favs = favs.Clone()
	l.mu.Unlock()
}

func (l *ledger) snapshot() domain.Favorites {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.favs.Clone()
}
