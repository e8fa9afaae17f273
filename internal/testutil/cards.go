package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/alexanderramin/clustertrack/internal/overlay"
)

// FakeCard is an in-memory overlay.Card that records every mutation.
type FakeCard struct {
	mu sync.Mutex

	IDValue   string
	TextValue string
	MarkerVal overlay.Marker
	Hidden    bool

	Badge     *overlay.Badge
	Highlight bool
	Occupancy overlay.Occupancy
	FailWrite error
}

// NewFakeCard returns a visible, unstarred card for host.
func NewFakeCard(host string, opts ...func(*FakeCard)) *FakeCard {
	c := &FakeCard{IDValue: host, TextValue: host, MarkerVal: overlay.MarkerUnstarred}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func Starred() func(*FakeCard)  { return func(c *FakeCard) { c.MarkerVal = overlay.MarkerStarred } }
func Hidden() func(*FakeCard)   { return func(c *FakeCard) { c.Hidden = true } }
func NoMarker() func(*FakeCard) { return func(c *FakeCard) { c.MarkerVal = overlay.MarkerUnknown } }

func (c *FakeCard) ID() string             { return c.IDValue }
func (c *FakeCard) Text() string           { return c.TextValue }
func (c *FakeCard) Marker() overlay.Marker { return c.MarkerVal }
func (c *FakeCard) Visible() bool          { return !c.Hidden }

func (c *FakeCard) HasBadge() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Badge != nil
}

func (c *FakeCard) AttachBadge(b overlay.Badge) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailWrite != nil {
		return c.FailWrite
	}
	c.Badge = &b
	return nil
}

func (c *FakeCard) SetHighlight(on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailWrite != nil {
		return c.FailWrite
	}
	c.Highlight = on
	return nil
}

func (c *FakeCard) SetOccupancy(o overlay.Occupancy) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailWrite != nil {
		return c.FailWrite
	}
	c.Occupancy = o
	return nil
}

// FakeSource serves a fixed card list. Elements lists the ids HasElement
// reports as present.
type FakeSource struct {
	mu       sync.Mutex
	cards    []*FakeCard
	Elements map[string]bool
	Err      error
	Calls    int
	// Block, when set, is waited on inside Cards.
	Block chan struct{}
}

func NewFakeSource(cards ...*FakeCard) *FakeSource {
	return &FakeSource{cards: cards, Elements: map[string]bool{}}
}

// SetCards replaces the served cards.
func (s *FakeSource) SetCards(cards ...*FakeCard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards = cards
}

func (s *FakeSource) Cards(ctx context.Context) ([]overlay.Card, error) {
	s.mu.Lock()
	s.Calls++
	block := s.Block
	err := s.Err
	cards := make([]overlay.Card, len(s.cards))
	for i, c := range s.cards {
		cards[i] = c
	}
	s.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// CallCount returns how many times Cards was called.
func (s *FakeSource) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls
}

func (s *FakeSource) HasElement(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	return s.Elements[id], nil
}

// ErrFakeDOM is a convenience error for unavailable pages.
var ErrFakeDOM = errors.New("fake dom detached")
