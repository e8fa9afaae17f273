package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/clustertrack/internal/domain"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

func clampPct(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 1 {
		return 1
	}
	return pct
}

func blocks(pct float64, width int) (string, string) {
	if width < 2 {
		width = 2
	}
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	return strings.Repeat(filledBlock, filled), strings.Repeat(emptyBlock, width-filled)
}

// RenderProgress renders a progress bar like [████░░░░] 45%.
// The bar is colored based on percentage: green >66%, yellow 33-66%, red <33%.
func RenderProgress(pct float64, width int) string {
	pct = clampPct(pct)
	full, empty := blocks(pct, width)

	var style = StyleGreen
	if pct < 0.33 {
		style = StyleRed
	} else if pct < 0.66 {
		style = StyleYellow
	}

	pctStr := fmt.Sprintf("%3.0f%%", pct*100)
	return fmt.Sprintf("[%s] %s", style.Render(full+empty), pctStr)
}

// RenderCompactBar renders the bar alone, without brackets or percentage.
// dim renders it in the muted color.
func RenderCompactBar(pct float64, width int, dim bool) string {
	pct = clampPct(pct)
	full, empty := blocks(pct, width)
	if dim {
		return StyleDim.Render(full + empty)
	}
	return StyleGreen.Render(full) + StyleDim.Render(empty)
}

// TargetProgress renders today's total against the target threshold,
// e.g. "[████░░░░]  54%  2h0m / 3h42m".
func TargetProgress(total time.Duration, width int) string {
	pct := float64(total) / float64(domain.TargetThreshold)
	return fmt.Sprintf("%s  %s / %s",
		RenderProgress(pct, width),
		DayTotal(total),
		Dim(domain.FormatDuration(domain.TargetThreshold)))
}
