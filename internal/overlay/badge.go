package overlay

import (
	"fmt"
	"time"

	"github.com/alexanderramin/clustertrack/internal/domain"
)

// Badge is the time label attached to a card.
type Badge struct {
	Host  string
	Total time.Duration
	Tier  domain.Tier
	Label string
}

func NewBadge(host string, total time.Duration) Badge {
	return Badge{Host: host, Total: total, Tier: domain.TierFor(total), Label: FormatBadge(total)}
}

// FormatBadge renders "3h05" from one hour up and "45m" below.
func FormatBadge(d time.Duration) string {
	mins := int(d / time.Minute)
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh%02d", mins/60, mins%60)
}
