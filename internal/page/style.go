package page

import (
	"github.com/alexanderramin/clustertrack/internal/domain"
	"github.com/alexanderramin/clustertrack/internal/overlay"
)

// Class names and colors written into the cluster map.
const (
	classHost        = "host"
	classContent     = "content"
	classStarFlip    = "rotate-y-180"
	classBadge       = "tracker-host-badge"
	classComplete    = "retro-fav-host"
	classHighlight   = "tracker-locate"
	attrCardIndex    = "data-tracker-idx"
	occupiedColor    = "rgba(255, 60, 60, 0.08)"
	freeColor        = "rgba(60, 255, 60, 0.05)"
	badgeBaseStyle   = "position:absolute;top:0;left:50%;transform:translateX(-50%);color:#000;font-size:11px;font-weight:900;padding:2px 6px;border:2px solid #000;border-radius:6px;z-index:1000;pointer-events:none;"
	highlightOutline = "3px solid #fabd2f"
)

func tierColor(t domain.Tier) string {
	switch t {
	case domain.TierComplete:
		return "#ff5252"
	case domain.TierProgress:
		return "#ffca28"
	default:
		return "#4caf50"
	}
}

func occupancyColor(o overlay.Occupancy) string {
	switch o {
	case overlay.OccupancyTaken:
		return occupiedColor
	case overlay.OccupancyFree:
		return freeColor
	default:
		return ""
	}
}
