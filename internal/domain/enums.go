package domain

import (
	"fmt"
	"strings"
	"time"
)

// TargetThreshold is the occupancy needed on one host (or in one day) for a star.
const TargetThreshold = (3*60 + 42) * time.Minute

// FormatDuration renders whole minutes as "3h42m", or "45m" under an hour.
// Negative durations render as "0m".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// ProgressThreshold separates the "fresh" badge tier from "in progress".
const ProgressThreshold = 2 * time.Hour

// Eligible reports whether total reaches the target threshold.
func Eligible(total time.Duration) bool {
	return total >= TargetThreshold
}

type Tier string

const (
	TierFresh    Tier = "fresh"
	TierProgress Tier = "progress"
	TierComplete Tier = "complete"
)

// TierFor classifies a host total for badge coloring.
func TierFor(total time.Duration) Tier {
	switch {
	case Eligible(total):
		return TierComplete
	case total >= ProgressThreshold:
		return TierProgress
	default:
		return TierFresh
	}
}

type EventType string

const (
	EventLogin  EventType = "login"
	EventLogout EventType = "logout"
)

type Tab string

const (
	TabHistory Tab = "history"
	TabStars   Tab = "stars"
)

// Tabs lists the panel tabs in display order.
var Tabs = []Tab{TabHistory, TabStars}

// ParseTab accepts a tab name case-insensitively.
func ParseTab(s string) (Tab, error) {
	switch Tab(strings.ToLower(strings.TrimSpace(s))) {
	case TabHistory:
		return TabHistory, nil
	case TabStars:
		return TabStars, nil
	}
	return "", fmt.Errorf("unknown tab %q (want history or stars)", s)
}

// Next returns the tab after t, wrapping around.
func (t Tab) Next() Tab {
	for i, tab := range Tabs {
		if tab == t {
			return Tabs[(i+1)%len(Tabs)]
		}
	}
	return TabHistory
}

type FavoriteSource string

const (
	FavoriteManual   FavoriteSource = "manual"
	FavoriteInferred FavoriteSource = "inferred"
)
