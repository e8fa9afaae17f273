package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TableOption adjusts RenderTable.
type TableOption func(*tableConfig)

type tableConfig struct {
	right map[int]bool
	gap   int
}

// AlignRight right-aligns the given column, e.g. durations.
func AlignRight(col int) TableOption {
	return func(c *tableConfig) { c.right[col] = true }
}

// Gap sets the spacing between columns.
func Gap(n int) TableOption {
	return func(c *tableConfig) {
		if n > 0 {
			c.gap = n
		}
	}
}

// RenderTable renders an aligned table with a header separator line.
// Widths are measured on visible text so styled cells line up.
func RenderTable(headers []string, rows [][]string, opts ...TableOption) string {
	if len(headers) == 0 {
		return ""
	}
	cfg := tableConfig{right: map[int]bool{}, gap: 2}
	for _, opt := range opts {
		opt(&cfg)
	}

	cols := len(headers)
	widths := make([]int, cols)
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < cols && i < len(row); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string, style func(string) string) {
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := widths[i] - lipgloss.Width(cell)
			if pad < 0 {
				pad = 0
			}
			if style != nil {
				cell = style(cell)
			}
			if cfg.right[i] {
				b.WriteString(strings.Repeat(" ", pad) + cell)
			} else {
				b.WriteString(cell)
				if i < cols-1 {
					b.WriteString(strings.Repeat(" ", pad))
				}
			}
			if i < cols-1 {
				b.WriteString(strings.Repeat(" ", cfg.gap))
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers, func(s string) string { return StyleHeader.Render(s) })
	for i, w := range widths {
		b.WriteString(StyleDim.Render(strings.Repeat("─", w)))
		if i < cols-1 {
			b.WriteString(strings.Repeat(" ", cfg.gap))
		}
	}
	b.WriteString("\n")
	for _, row := range rows {
		writeRow(row, nil)
	}
	return b.String()
}
