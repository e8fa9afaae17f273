package aggregate

import (
	"time"

	"github.com/alexanderramin/clustertrack/internal/domain"
)

// Scope decides which hosts a per-host aggregation considers. A nil Scope
// keeps every host.
type Scope func(host string) bool

// FloorMarkerID is the element id whose presence identifies the lower floor
// (zones z1/z2) on the cluster map.
const FloorMarkerID = "z2r2p6"

// Floor is the zone pair rendered on one page of the cluster map.
type Floor struct {
	Name  string
	Zones [2]string
}

var (
	FloorLower = Floor{Name: "z1-z2", Zones: [2]string{"z1", "z2"}}
	FloorUpper = Floor{Name: "z3-z4", Zones: [2]string{"z3", "z4"}}
)

// FloorFromMarker picks the floor from the page marker probe.
func FloorFromMarker(hasMarker bool) Floor {
	if hasMarker {
		return FloorLower
	}
	return FloorUpper
}

// Scope restricts aggregation to the floor's two zones.
func (f Floor) Scope() Scope {
	return func(host string) bool {
		z := domain.Zone(host)
		return z != "" && (z == f.Zones[0] || z == f.Zones[1])
	}
}

// IntervalsByHost groups sessions into per-host intervals, resolving open
// sessions to now.
func IntervalsByHost(sessions []domain.Session, now time.Time, scope Scope) map[string][]Interval {
	byHost := make(map[string][]Interval)
	for _, s := range sessions {
		host := domain.NormalizeHost(s.Host)
		if host == "" {
			continue
		}
		if scope != nil && !scope(host) {
			continue
		}
		byHost[host] = append(byHost[host], Interval{Start: s.BeginAt, End: s.EffectiveEnd(now)})
	}
	return byHost
}

// HostTotals returns merged occupancy per host. Overlapping sessions on the
// same host are counted once.
func HostTotals(sessions []domain.Session, now time.Time, scope Scope) map[string]time.Duration {
	totals := make(map[string]time.Duration)
	for host, ivs := range IntervalsByHost(sessions, now, scope) {
		_, total := MergeIntervals(ivs)
		totals[host] = total
	}
	return totals
}

// TotalForHost returns the merged occupancy of a single host, or zero when
// the host is outside scope.
func TotalForHost(sessions []domain.Session, host string, now time.Time, scope Scope) time.Duration {
	host = domain.NormalizeHost(host)
	if scope != nil && !scope(host) {
		return 0
	}
	var ivs []Interval
	for _, s := range sessions {
		if domain.NormalizeHost(s.Host) == host {
			ivs = append(ivs, Interval{Start: s.BeginAt, End: s.EffectiveEnd(now)})
		}
	}
	_, total := MergeIntervals(ivs)
	return total
}
