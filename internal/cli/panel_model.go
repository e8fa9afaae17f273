package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexanderramin/clustertrack/internal/aggregate"
	"github.com/alexanderramin/clustertrack/internal/app"
	"github.com/alexanderramin/clustertrack/internal/cli/formatter"
	"github.com/alexanderramin/clustertrack/internal/domain"
	"github.com/alexanderramin/clustertrack/internal/overlay"
)

// Lines taken by everything but the body: header and rule, today strip,
// tab bar and rule, footer rule, notice and hints.
const panelChrome = 8

const ongoingRefreshInterval = time.Minute

// ── messages ─────────────────────────────────────────────────────────────────

type startReloadMsg struct{}

type reloadDoneMsg struct {
	login string
	err   error
}

type minuteTickMsg struct{}

type colorTickMsg struct{}

type activityMsg struct{}

type scanDoneMsg struct {
	res overlay.Result
	err error
}

type paintDoneMsg struct {
	toggled bool
	on      bool
	res     overlay.PaintResult
	err     error
}

type favoriteDoneMsg struct {
	host string
	add  bool
	err  error
}

type exportDoneMsg struct {
	path string
	err  error
}

// ── model ────────────────────────────────────────────────────────────────────

// panelModel is the tracker panel: a header with the user and status, the
// today strip, History and Stars tabs in a scrollable body, and a footer.
// All state lives in the controller; the model only keeps what is purely
// visual.
type panelModel struct {
	ctx     context.Context
	app     *App
	page    *pageHandle
	painter *overlay.Painter
	keys    panelKeyMap

	width  int
	height int
	body   viewport.Model
	login  textinput.Model
	spin   spinner.Model

	editing  bool
	busy     bool
	cursor   int
	notice   string
	quitting bool
}

func newPanelModel(ctx context.Context, a *App, page *pageHandle) panelModel {
	ti := textinput.New()
	ti.Placeholder = "login"
	ti.Prompt = "login › "
	ti.CharLimit = 32

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = formatter.StylePurple

	m := panelModel{
		ctx:   ctx,
		app:   a,
		page:  page,
		keys:  newPanelKeyMap(),
		body:  viewport.New(0, 0),
		login: ti,
		spin:  sp,
	}
	if page != nil {
		m.painter = a.painter(page)
	}
	return m
}

func (m panelModel) Init() tea.Cmd {
	cmds := []tea.Cmd{minuteTick(), waitForChange(m.app.Changes)}
	if m.app.Ctrl.User() != "" && m.app.Ctrl.Status().Kind != app.StatusLoaded {
		cmds = append(cmds, func() tea.Msg { return startReloadMsg{} })
	}
	if m.page != nil {
		cmds = append(cmds, m.scanCmd(), colorTick())
		if m.app.Ctrl.ShowColors() {
			cmds = append(cmds, m.paintCmd(false))
		}
	}
	return tea.Batch(cmds...)
}

func (m panelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.body.Width = msg.Width
		m.body.Height = max(msg.Height-panelChrome, 1)

	case tea.KeyMsg:
		var handled bool
		m, cmd, handled = m.handleKey(msg)
		if !handled && !m.editing {
			m.body, cmd = m.body.Update(msg)
		}

	case startReloadMsg:
		cmd = m.startReload()

	case reloadDoneMsg:
		m.busy = false
		switch {
		case errors.Is(msg.err, app.ErrStaleReload):
		case msg.err != nil:
			m.notice = formatter.StyleRed.Render("reload failed for "+msg.login+": ") + msg.err.Error()
		default:
			m.notice = ""
			if m.page != nil {
				cmd = m.scanCmd()
			}
		}

	case minuteTickMsg:
		// Re-rendering is enough: open sessions are resolved against now.
		cmd = minuteTick()

	case colorTickMsg:
		cmds := []tea.Cmd{colorTick()}
		if m.page != nil && m.app.Ctrl.ShowColors() {
			cmds = append(cmds, m.paintCmd(false))
		}
		cmd = tea.Batch(cmds...)

	case activityMsg:
		cmd = waitForChange(m.app.Changes)

	case scanDoneMsg:
		switch {
		case errors.Is(msg.err, overlay.ErrScanInProgress):
		case msg.err != nil:
			m.notice = formatter.StyleRed.Render("overlay: ") + msg.err.Error()
		default:
			m.notice = scanNotice(msg.res)
		}

	case paintDoneMsg:
		switch {
		case msg.err != nil:
			m.notice = formatter.StyleYellow.Render("colors: ") + msg.err.Error()
		case msg.toggled && !msg.on:
			m.notice = "availability colors " + onOff(false)
		case msg.toggled:
			m.notice = fmt.Sprintf("availability colors %s  %d occupied", onOff(true), msg.res.Occupied)
		}

	case favoriteDoneMsg:
		if msg.err != nil {
			m.notice = formatter.StyleRed.Render("star: ") + msg.err.Error()
		} else {
			src, ok := m.app.Ctrl.FavoriteSource(msg.host)
			m.notice = formatter.StarMark(src, ok) + " " + msg.host
		}

	case exportDoneMsg:
		if msg.err != nil {
			m.notice = formatter.StyleRed.Render("export: ") + msg.err.Error()
		} else {
			m.notice = formatter.StyleGreen.Render("exported ") + msg.path
		}

	case spinner.TickMsg:
		if m.busy {
			m.spin, cmd = m.spin.Update(msg)
		}

	default:
		if m.editing {
			m.login, cmd = m.login.Update(msg)
		}
	}

	m.syncBody()
	return m, cmd
}

func (m panelModel) handleKey(msg tea.KeyMsg) (panelModel, tea.Cmd, bool) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit, true
	}

	if m.editing {
		switch msg.Type {
		case tea.KeyEsc:
			m.editing = false
			m.login.Blur()
			return m, nil, true
		case tea.KeyEnter:
			m.editing = false
			m.login.Blur()
			if err := m.app.Ctrl.SetUser(m.ctx, m.login.Value()); err != nil {
				m.notice = formatter.StyleRed.Render(err.Error())
				return m, nil, true
			}
			m.cursor = 0
			return m, m.startReload(), true
		}
		var cmd tea.Cmd
		m.login, cmd = m.login.Update(msg)
		return m, cmd, true
	}

	ctrl := m.app.Ctrl
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit, true

	case key.Matches(msg, m.keys.History):
		ctrl.SwitchTab(domain.TabHistory)
		m.body.GotoTop()
	case key.Matches(msg, m.keys.Stars):
		ctrl.SwitchTab(domain.TabStars)
		m.body.GotoTop()
	case key.Matches(msg, m.keys.NextTab):
		ctrl.NextTab()
		m.body.GotoTop()

	case key.Matches(msg, m.keys.Collapse):
		ctrl.ToggleCollapsed()

	case key.Matches(msg, m.keys.Login):
		m.editing = true
		m.login.SetValue(ctrl.User())
		m.login.CursorEnd()
		return m, m.login.Focus(), true

	case key.Matches(msg, m.keys.Refresh):
		if ctrl.User() == "" {
			m.notice = formatter.Dim("press u to set a login")
			return m, nil, true
		}
		return m, m.startReload(), true

	case key.Matches(msg, m.keys.Up) && ctrl.Snapshot().Tab == domain.TabStars:
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down) && ctrl.Snapshot().Tab == domain.TabStars:
		m.cursor++

	case key.Matches(msg, m.keys.Open):
		row, ok := m.selectedRow()
		if !ok {
			return m, nil, false
		}
		ctrl.Select(row.Host)
		m.notice = hostNotice(ctrl.HostReport(row.Host))
		if m.page != nil {
			return m, m.locateCmd(row.Host), true
		}

	case key.Matches(msg, m.keys.Star):
		row, ok := m.selectedRow()
		if !ok {
			return m, nil, true
		}
		_, starred := ctrl.FavoriteSource(row.Host)
		return m, m.favoriteCmd(row.Host, !starred), true

	case key.Matches(msg, m.keys.Overlay):
		if m.page == nil {
			m.notice = formatter.Dim("no page attached (start with --page or --live)")
			return m, nil, true
		}
		return m, m.scanCmd(), true

	case key.Matches(msg, m.keys.Colors):
		if m.page == nil {
			m.notice = formatter.Dim("no page attached (start with --page or --live)")
			return m, nil, true
		}
		return m, m.paintCmd(true), true

	case key.Matches(msg, m.keys.Export):
		return m, m.exportCmd(), true

	default:
		return m, nil, false
	}
	return m, nil, true
}

// startReload marks the store as loading and fetches in the background.
func (m *panelModel) startReload() tea.Cmd {
	ctrl := m.app.Ctrl
	ticket, err := ctrl.BeginReload()
	if err != nil {
		m.notice = formatter.Dim("press u to set a login")
		return nil
	}
	m.busy = true
	ctx := m.ctx
	fetch := func() tea.Msg {
		records, fetchErr := ctrl.Fetch(ctx, ticket)
		return reloadDoneMsg{login: ticket.Login, err: ctrl.CompleteReload(ctx, ticket, records, fetchErr)}
	}
	return tea.Batch(m.spin.Tick, fetch)
}

func (m panelModel) scanCmd() tea.Cmd {
	a, h, ctx := m.app, m.page, m.ctx
	return func() tea.Msg {
		res, err := a.scan(ctx, h)
		return scanDoneMsg{res: res, err: err}
	}
}

func (m panelModel) paintCmd(toggle bool) tea.Cmd {
	ctrl, p, ctx := m.app.Ctrl, m.painter, m.ctx
	return func() tea.Msg {
		if toggle {
			on, res, err := ctrl.ToggleColors(ctx, p)
			return paintDoneMsg{toggled: true, on: on, res: res, err: err}
		}
		res, err := ctrl.RefreshColors(ctx, p)
		return paintDoneMsg{on: true, res: res, err: err}
	}
}

func (m panelModel) locateCmd(host string) tea.Cmd {
	ctrl, src, ctx := m.app.Ctrl, m.page.source(), m.ctx
	return func() tea.Msg {
		if _, err := ctrl.Locate(ctx, src, host); err != nil {
			return scanDoneMsg{err: err}
		}
		return nil
	}
}

func (m panelModel) favoriteCmd(host string, add bool) tea.Cmd {
	ctrl, ctx := m.app.Ctrl, m.ctx
	return func() tea.Msg {
		return favoriteDoneMsg{host: host, add: add, err: ctrl.ToggleFavorite(ctx, host, add)}
	}
}

func (m panelModel) exportCmd() tea.Cmd {
	ctrl := m.app.Ctrl
	dir := m.app.Config.ExportDir
	if dir == "" {
		dir = "."
	}
	return func() tea.Msg {
		path, err := ctrl.WriteExport(dir)
		return exportDoneMsg{path: path, err: err}
	}
}

func minuteTick() tea.Cmd {
	return tea.Tick(ongoingRefreshInterval, func(time.Time) tea.Msg { return minuteTickMsg{} })
}

func colorTick() tea.Cmd {
	return tea.Tick(colorRefreshInterval, func(time.Time) tea.Msg { return colorTickMsg{} })
}

// waitForChange blocks until the activity stream changed the store.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return activityMsg{}
	}
}

// selectedRow returns the Stars row under the cursor.
func (m *panelModel) selectedRow() (aggregate.HostTotal, bool) {
	v := m.app.Ctrl.Snapshot()
	if v.Tab != domain.TabStars {
		return aggregate.HostTotal{}, false
	}
	rows := v.Board.Rows()
	if len(rows) == 0 {
		return aggregate.HostTotal{}, false
	}
	m.cursor = min(max(m.cursor, 0), len(rows)-1)
	return rows[m.cursor], true
}

func (m *panelModel) syncBody() {
	v := m.app.Ctrl.Snapshot()
	if n := len(v.Board.Rows()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	m.body.SetContent(m.renderBody(v))
}

// ── rendering ────────────────────────────────────────────────────────────────

func (m panelModel) View() string {
	if m.quitting {
		return ""
	}
	v := m.app.Ctrl.Snapshot()
	width := max(m.width, 40)

	var sections []string
	sections = append(sections, m.renderHeader(v, width))
	sections = append(sections, formatter.FormatToday(v, progressWidth))

	if !v.Collapsed {
		sections = append(sections, renderTabs(v.Tab))
		sections = append(sections, formatter.Dim(strings.Repeat("─", width)))
		if m.height > 0 {
			sections = append(sections, m.body.View())
		} else {
			sections = append(sections, m.renderBody(v))
		}
	}

	sections = append(sections, formatter.Dim(strings.Repeat("─", width)))
	sections = append(sections, m.renderFooter(v))
	return strings.Join(sections, "\n")
}

func (m panelModel) renderHeader(v app.View, width int) string {
	title := formatter.StylePurple.Render("clustertrack")
	user := formatter.Dim("no user")
	if v.User != "" {
		user = formatter.Bold(v.User)
	}
	status := formatter.StatusText(v.Status.String())
	if m.busy {
		status = m.spin.View() + " " + status
	}
	header := fmt.Sprintf("%s %s %s  %s", title, formatter.Dim("›"), user, status)
	return header + "\n" + formatter.Dim(strings.Repeat("─", width))
}

func renderTabs(active domain.Tab) string {
	parts := make([]string, 0, len(domain.Tabs))
	for i, t := range domain.Tabs {
		label := fmt.Sprintf(" %d %s ", i+1, strings.ToUpper(string(t[:1]))+string(t[1:]))
		if t == active {
			parts = append(parts, formatter.StyleHeader.Render("["+strings.TrimSpace(label)+"]"))
		} else {
			parts = append(parts, formatter.Dim(label))
		}
	}
	return strings.Join(parts, " ")
}

func (m panelModel) renderBody(v app.View) string {
	if v.User == "" {
		return formatter.Dim("No user set. Press u to enter your 42 login.")
	}
	if v.Tab == domain.TabStars {
		floor := ""
		if v.Floor != nil {
			floor = v.Floor.Name
		}
		return formatter.FormatStars(v.Board, m.cursor, floor)
	}
	return formatter.FormatHistory(v.Days, v.Now, m.app.Config.Location(), 0)
}

func (m panelModel) renderFooter(v app.View) string {
	var lines []string
	switch {
	case m.editing:
		lines = append(lines, m.login.View())
	case m.notice != "":
		lines = append(lines, m.notice)
	}

	hints := make([]string, 0, 10)
	for _, b := range m.keys.shortHelp(v.Tab == domain.TabStars) {
		hints = append(hints, formatter.Dim(b.Help().Key+": "+b.Help().Desc))
	}
	if m.editing {
		hints = []string{formatter.Dim("enter: confirm"), formatter.Dim("esc: cancel")}
	}
	lines = append(lines, strings.Join(hints, "  "))
	return strings.Join(lines, "\n")
}

func scanNotice(res overlay.Result) string {
	s := fmt.Sprintf("floor %s  %s  %d badged", res.Floor.Name, formatter.Plural(res.Cards, "card"), res.Badges)
	if n := len(res.Inferred); n > 0 {
		s += "  " + formatter.StyleYellow.Render(fmt.Sprintf("★ %d learned", n))
	}
	if n := len(res.Retracted); n > 0 {
		s += "  " + formatter.Dim(fmt.Sprintf("☆ %d dropped", n))
	}
	return s
}

func hostNotice(r app.HostReport) string {
	s := fmt.Sprintf("%s  %s / %s  %s", formatter.Bold(r.Host), formatter.TotalBadge(r.Total),
		domain.FormatDuration(r.Target), formatter.Plural(len(r.Sessions), "session"))
	if r.Eligible() {
		return s + "  " + formatter.StyleGreen.Render("eligible")
	}
	return s + "  " + formatter.Needs(r.Remaining())
}
