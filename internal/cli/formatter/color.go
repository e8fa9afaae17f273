package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/clustertrack/internal/domain"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// TierStyle returns the badge color for a host total tier. The terminal
// palette follows the page badges: green while fresh, yellow past two
// hours, red once the host qualifies.
func TierStyle(tier domain.Tier) lipgloss.Style {
	switch tier {
	case domain.TierComplete:
		return StyleRed
	case domain.TierProgress:
		return StyleYellow
	default:
		return StyleGreen
	}
}

// TotalBadge renders a host total colored by its tier, e.g. "3h5m".
func TotalBadge(total time.Duration) string {
	return TierStyle(domain.TierFor(total)).Render(domain.FormatDuration(total))
}

// StarMark returns the star glyph for a favorite source.
func StarMark(src domain.FavoriteSource, ok bool) string {
	switch {
	case !ok:
		return StyleDim.Render("☆")
	case src == domain.FavoriteManual:
		return StyleYellow.Render("★")
	default:
		return StyleYellow.Render("✦")
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
