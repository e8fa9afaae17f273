package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/clustertrack/internal/domain"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		titleRendered := StyleHeader.Render(strings.ToUpper(title))
		inner := titleRendered + "\n\n" + content
		return boxStyle.Render(inner)
	}

	return boxStyle.Render(content)
}

// Clock renders a wall-clock time in loc as "15:04".
func Clock(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("15:04")
}

// SessionSpan renders "13:00 → 15:30" for a closed session and
// "13:00 → now" for an open one.
func SessionSpan(s domain.Session, loc *time.Location) string {
	start := Clock(s.BeginAt, loc)
	if s.Ongoing || s.EndAt == nil {
		return start + " → " + StyleGreen.Render("now")
	}
	return start + " → " + Clock(*s.EndAt, loc)
}

// DayTotal renders a day total, green once it reaches the target.
func DayTotal(total time.Duration) string {
	text := domain.FormatDuration(total)
	if domain.Eligible(total) {
		return StyleGreen.Render(text + " ✓")
	}
	return StyleFg.Render(text)
}

// Needs renders the time still missing before a host qualifies.
func Needs(remaining time.Duration) string {
	if remaining <= 0 {
		return StyleGreen.Render("ready")
	}
	return Dim("needs " + domain.FormatDuration(remaining))
}

// StatusText colors the tracker status line by its prefix.
func StatusText(status string) string {
	switch {
	case strings.HasPrefix(status, "error"):
		return StyleRed.Render(status)
	case status == "loading":
		return StyleYellow.Render(status)
	case strings.HasSuffix(status, "loaded"), strings.HasSuffix(status, "(cached)"):
		return StyleGreen.Render(status)
	default:
		return Dim(status)
	}
}

// Plural returns "1 session" or "3 sessions".
func Plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
