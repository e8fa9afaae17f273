package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/clustertrack/internal/aggregate"
	"github.com/alexanderramin/clustertrack/internal/app"
	"github.com/alexanderramin/clustertrack/internal/domain"
)

// FormatHistory renders the History tab: one heading per day, newest
// first, with the day's sessions beneath. limit caps the number of days;
// zero shows all of them.
func FormatHistory(days []aggregate.Day, now time.Time, loc *time.Location, limit int) string {
	if len(days) == 0 {
		return Dim("No sessions yet.")
	}
	if limit > 0 && len(days) > limit {
		days = days[:limit]
	}

	var b strings.Builder
	for i, d := range days {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s  %s  %s\n",
			Bold(d.Label),
			DayTotal(d.Total),
			Dim(Plural(len(d.Sessions), "session")))
		for _, s := range d.Sessions {
			fmt.Fprintf(&b, "  %-8s %s  %s\n",
				s.Host,
				SessionSpan(s, loc),
				Dim(domain.FormatDuration(s.DurationAt(now))))
		}
	}
	return b.String()
}

// FormatStars renders the Stars tab sections. cursor marks the selected row
// in Rows() order; pass -1 for none.
func FormatStars(board aggregate.StarBoard, cursor int, floor string) string {
	if board.Empty() {
		return Dim("No hosts with recorded time.")
	}

	var b strings.Builder
	if floor != "" {
		b.WriteString(Dim("floor "+floor) + "\n\n")
	}
	idx := 0
	section := func(title string, rows []aggregate.HostTotal, detail func(aggregate.HostTotal) string) {
		if len(rows) == 0 {
			return
		}
		b.WriteString(Header(fmt.Sprintf("%s (%d)", title, len(rows))) + "\n")
		for _, r := range rows {
			marker := "  "
			if idx == cursor {
				marker = StylePurple.Render("› ")
			}
			fmt.Fprintf(&b, "%s%-8s %s  %s\n", marker, r.Host, TotalBadge(r.Total), detail(r))
			idx++
		}
		b.WriteString("\n")
	}

	section("Needs star", board.NeedsStar, func(aggregate.HostTotal) string {
		return StyleRed.Render("to star")
	})
	section("Collecting time", board.Collecting, func(r aggregate.HostTotal) string {
		return Needs(r.Remaining())
	})
	section("Starred", board.Starred, func(aggregate.HostTotal) string {
		return StyleYellow.Render("★") + " " + Dim("unstar")
	})
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// FormatHostReport renders the per-host verification breakdown.
func FormatHostReport(r app.HostReport, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", Bold(r.Host), Dim("for "+r.User))

	rows := [][]string{
		{"total", TotalBadge(r.Total)},
		{"target", domain.FormatDuration(r.Target)},
	}
	if r.Eligible() {
		rows = append(rows, []string{"status", StyleGreen.Render("eligible")})
	} else {
		rows = append(rows, []string{"status", Needs(r.Remaining())})
	}
	switch r.Favorite {
	case domain.FavoriteManual:
		rows = append(rows, []string{"star", "manual"})
	case domain.FavoriteInferred:
		rows = append(rows, []string{"star", "seen on page"})
	default:
		rows = append(rows, []string{"star", Dim("none")})
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "  %-7s %s\n", row[0], row[1])
	}

	if len(r.Sessions) == 0 {
		b.WriteString("\n" + Dim("No sessions on this host.") + "\n")
		return b.String()
	}
	b.WriteString("\n")
	table := make([][]string, 0, len(r.Sessions))
	for _, s := range r.Sessions {
		table = append(table, []string{
			s.BeginAt.In(locOrLocal(loc)).Format(aggregate.DayLabelLayout),
			SessionSpan(s, loc),
			domain.FormatDuration(s.DurationAt(r.Now)),
		})
	}
	b.WriteString(RenderTable([]string{"DAY", "SPAN", "TIME"}, table, AlignRight(2)))
	return b.String()
}

// FormatToday renders the strip under the panel header.
func FormatToday(v app.View, width int) string {
	label := "Today"
	if v.Ongoing {
		label += " " + StyleGreen.Render("●")
	}
	return fmt.Sprintf("%s  %s", Bold(label), TargetProgress(v.Today, width))
}

func locOrLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
