package aggregate

import (
	"sort"
	"time"

	"github.com/alexanderramin/clustertrack/internal/domain"
)

// HostTotal is one row of the star board.
type HostTotal struct {
	Host     string
	Total    time.Duration
	Favorite bool
}

// Remaining returns the time still needed to reach the target.
func (h HostTotal) Remaining() time.Duration {
	if r := domain.TargetThreshold - h.Total; r > 0 {
		return r
	}
	return 0
}

// StarBoard partitions host totals into the three Stars sections.
type StarBoard struct {
	NeedsStar  []HostTotal // eligible, not yet starred
	Collecting []HostTotal // 0 < total < target
	Starred    []HostTotal // eligible and starred
}

func (b StarBoard) Empty() bool {
	return len(b.NeedsStar) == 0 && len(b.Collecting) == 0 && len(b.Starred) == 0
}

// Rows returns the board in display order: needs star, collecting, starred.
func (b StarBoard) Rows() []HostTotal {
	rows := make([]HostTotal, 0, len(b.NeedsStar)+len(b.Collecting)+len(b.Starred))
	rows = append(rows, b.NeedsStar...)
	rows = append(rows, b.Collecting...)
	return append(rows, b.Starred...)
}

// BuildStarBoard sorts every section by total descending, then host name.
func BuildStarBoard(totals map[string]time.Duration, isFavorite func(host string) bool) StarBoard {
	var b StarBoard
	for host, total := range totals {
		if total <= 0 {
			continue
		}
		row := HostTotal{Host: host, Total: total}
		if !domain.Eligible(total) {
			b.Collecting = append(b.Collecting, row)
			continue
		}
		row.Favorite = isFavorite != nil && isFavorite(host)
		if row.Favorite {
			b.Starred = append(b.Starred, row)
		} else {
			b.NeedsStar = append(b.NeedsStar, row)
		}
	}
	sortRows(b.NeedsStar)
	sortRows(b.Collecting)
	sortRows(b.Starred)
	return b
}

func sortRows(rows []HostTotal) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].Host < rows[j].Host
	})
}
