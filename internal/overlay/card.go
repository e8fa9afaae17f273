package overlay

import (
	"context"
	"errors"

	"github.com/alexanderramin/clustertrack/internal/domain"
)

var (
	// ErrDomUnavailable indicates the page could not be queried. One scan
	// attempt is aborted; the retry loop tries again.
	ErrDomUnavailable = errors.New("page unavailable")

	// ErrScanInProgress is returned when a scan is requested while another
	// one is still running. The request is dropped.
	ErrScanInProgress = errors.New("scan already in progress")

	// ErrNoActiveHosts indicates the campus status came back empty, which
	// the API only does when it is degraded.
	ErrNoActiveHosts = errors.New("no active hosts reported")
)

// Marker is the star state rendered on a card.
type Marker int

const (
	MarkerUnknown Marker = iota
	MarkerUnstarred
	MarkerStarred
)

func (m Marker) String() string {
	switch m {
	case MarkerStarred:
		return "starred"
	case MarkerUnstarred:
		return "unstarred"
	default:
		return "unknown"
	}
}

// Occupancy is the availability color painted on a card.
type Occupancy int

const (
	OccupancyNone Occupancy = iota
	OccupancyFree
	OccupancyTaken
)

// Card is one machine card on the cluster map. Accessors return the state
// captured when the card was enumerated; mutators write to the page.
type Card interface {
	ID() string
	Text() string
	Marker() Marker
	Visible() bool
	HasBadge() bool

	AttachBadge(b Badge) error
	SetHighlight(on bool) error
	SetOccupancy(o Occupancy) error
}

// CardSource enumerates the cards currently on the page.
type CardSource interface {
	Cards(ctx context.Context) ([]Card, error)
	HasElement(ctx context.Context, id string) (bool, error)
}

// Favorites is the favorite ledger the reconciler writes inferences to.
type Favorites interface {
	IsFavorite(host string) bool
	Infer(host string) bool
	Retract(host string) bool
}

// CardHost returns the machine id a card shows, preferring its element id.
func CardHost(c Card) (string, bool) {
	if id := domain.NormalizeHost(c.ID()); domain.HostPattern.MatchString(id) {
		h, _ := domain.ExtractHost(id)
		return h, true
	}
	return domain.ExtractHost(c.Text())
}
