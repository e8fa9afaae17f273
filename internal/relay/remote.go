package relay

import (
	"context"
	"sort"
	"time"

	"github.com/alexanderramin/clustertrack/internal/domain"
	"github.com/alexanderramin/clustertrack/internal/intra"
)

const (
	LocationsTimeout    = 90 * time.Second
	CampusStatusTimeout = 30 * time.Second
)

// Fetcher is the API surface served behind the bridge.
type Fetcher interface {
	FetchAllSessions(ctx context.Context, login string) ([]domain.RawLocation, error)
	FetchActiveHosts(ctx context.Context) (map[string]struct{}, error)
}

// NewHandler serves bridge requests with f.
func NewHandler(f Fetcher) Handler {
	return func(ctx context.Context, req Request) Response {
		switch req.Action {
		case ActionFetchLocations:
			locs, err := f.FetchAllSessions(ctx, req.Login)
			if err != nil {
				return failure(err)
			}
			return Response{Success: true, Locations: locs}
		case ActionFetchCampusStatus:
			hosts, err := f.FetchActiveHosts(ctx)
			if err != nil {
				return failure(err)
			}
			list := make([]string, 0, len(hosts))
			for h := range hosts {
				list = append(list, h)
			}
			sort.Strings(list)
			return Response{Success: true, Hosts: list}
		default:
			return Response{Error: "unknown action " + string(req.Action)}
		}
	}
}

func failure(err error) Response {
	return Response{Error: err.Error(), Code: intra.ErrorCode(err)}
}

// RemoteSource fetches through a Bridge with per-action deadlines.
type RemoteSource struct {
	bridge              *Bridge
	locationsTimeout    time.Duration
	campusStatusTimeout time.Duration
}

func NewRemoteSource(b *Bridge) *RemoteSource {
	return &RemoteSource{
		bridge:              b,
		locationsTimeout:    LocationsTimeout,
		campusStatusTimeout: CampusStatusTimeout,
	}
}

func (r *RemoteSource) FetchAllSessions(ctx context.Context, login string) ([]domain.RawLocation, error) {
	ctx, cancel := context.WithTimeout(ctx, r.locationsTimeout)
	defer cancel()
	resp, err := r.bridge.Send(ctx, Request{Action: ActionFetchLocations, Login: login})
	if err != nil {
		return nil, err
	}
	return resp.Locations, nil
}

func (r *RemoteSource) FetchActiveHosts(ctx context.Context) (map[string]struct{}, error) {
	ctx, cancel := context.WithTimeout(ctx, r.campusStatusTimeout)
	defer cancel()
	resp, err := r.bridge.Send(ctx, Request{Action: ActionFetchCampusStatus})
	if err != nil {
		return nil, err
	}
	hosts := make(map[string]struct{}, len(resp.Hosts))
	for _, h := range resp.Hosts {
		hosts[h] = struct{}{}
	}
	return hosts, nil
}
