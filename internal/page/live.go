package page

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alexanderramin/clustertrack/internal/domain"
	"github.com/alexanderramin/clustertrack/internal/overlay"
)

const defaultEvalTimeout = 5 * time.Second

// LiveOptions configures a browser-backed page.
type LiveOptions struct {
	// ControlURL attaches to a running browser's DevTools endpoint. When
	// empty a local browser is launched.
	ControlURL string
	PageURL    string
	Headless   bool
	Timeout    time.Duration
}

// Live drives the cluster map in a real browser over CDP.
type Live struct {
	browser  *rod.Browser
	page     *rod.Page
	launched *launcher.Launcher
	timeout  time.Duration
}

// OpenLive connects to (or launches) a browser and opens the cluster map.
// When a tab already shows PageURL it is reused so the user's session and
// cookies stay in play.
func OpenLive(ctx context.Context, opts LiveOptions) (*Live, error) {
	l := &Live{timeout: opts.Timeout}
	if l.timeout <= 0 {
		l.timeout = defaultEvalTimeout
	}

	controlURL := opts.ControlURL
	if controlURL == "" {
		l.launched = launcher.New().Headless(opts.Headless)
		u, err := l.launched.Launch()
		if err != nil {
			return nil, fmt.Errorf("%w: launching browser: %v", overlay.ErrDomUnavailable, err)
		}
		controlURL = u
	}

	l.browser = rod.New().ControlURL(controlURL).Context(ctx)
	if err := l.browser.Connect(); err != nil {
		l.cleanup()
		return nil, fmt.Errorf("%w: connecting to browser: %v", overlay.ErrDomUnavailable, err)
	}

	page, err := l.findOrOpen(opts.PageURL)
	if err != nil {
		l.cleanup()
		return nil, err
	}
	l.page = page
	return l, nil
}

func (l *Live) findOrOpen(url string) (*rod.Page, error) {
	if url != "" {
		pages, err := l.browser.Pages()
		if err == nil {
			for _, p := range pages {
				info, err := p.Info()
				if err == nil && info.URL == url {
					return p, nil
				}
			}
		}
	}
	p, err := l.browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("%w: opening page: %v", overlay.ErrDomUnavailable, err)
	}
	if err := p.Timeout(30 * time.Second).WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: waiting for page: %v", overlay.ErrDomUnavailable, err)
	}
	return p, nil
}

// Close disconnects and stops a launched browser.
func (l *Live) Close() error {
	return l.cleanup()
}

func (l *Live) cleanup() error {
	var err error
	if l.browser != nil && l.launched != nil {
		err = l.browser.Close()
	}
	if l.launched != nil {
		l.launched.Kill()
	}
	return err
}

type liveSnapshot struct {
	Idx      int    `json:"idx"`
	ID       string `json:"id"`
	Text     string `json:"text"`
	Marker   string `json:"marker"`
	Visible  bool   `json:"visible"`
	HasBadge bool   `json:"hasBadge"`
}

// snapshotJS tags every card with an index and returns one JSON document so
// enumeration costs a single round trip.
const snapshotJS = `(attr) => {
	const out = [];
	document.querySelectorAll('.host').forEach((el, idx) => {
		el.setAttribute(attr, String(idx));
		const content = el.querySelector('.content');
		let marker = 'unknown';
		if (content) marker = content.classList.contains('rotate-y-180') ? 'starred' : 'unstarred';
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		out.push({
			idx,
			id: el.id || '',
			text: (el.textContent || '').replace(/\s+/g, ' ').trim(),
			marker,
			visible: style.display !== 'none' && style.visibility !== 'hidden' && rect.width > 0 && rect.height > 0,
			hasBadge: !!el.querySelector('.tracker-host-badge'),
		});
	});
	return JSON.stringify(out);
}`

func (l *Live) Cards(ctx context.Context) ([]overlay.Card, error) {
	res, err := l.page.Context(ctx).Timeout(l.timeout).Eval(snapshotJS, attrCardIndex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", overlay.ErrDomUnavailable, err)
	}
	var snaps []liveSnapshot
	if err := json.Unmarshal([]byte(res.Value.Str()), &snaps); err != nil {
		return nil, fmt.Errorf("%w: decoding cards: %v", overlay.ErrDomUnavailable, err)
	}
	cards := make([]overlay.Card, len(snaps))
	for i, s := range snaps {
		cards[i] = &liveCard{live: l, snap: s}
	}
	return cards, nil
}

func (l *Live) HasElement(ctx context.Context, id string) (bool, error) {
	res, err := l.page.Context(ctx).Timeout(l.timeout).Eval(`(id) => document.getElementById(id) !== null`, id)
	if err != nil {
		return false, fmt.Errorf("%w: %v", overlay.ErrDomUnavailable, err)
	}
	return res.Value.Bool(), nil
}

// DetectLogin reads the signed-in login from the page header.
func (l *Live) DetectLogin(ctx context.Context) (string, bool, error) {
	res, err := l.page.Context(ctx).Timeout(l.timeout).Eval(`() => {
		const el = document.querySelector('.login[data-login]');
		if (el) return el.getAttribute('data-login') || '';
		const h2 = document.querySelector('.user-infos h2');
		return h2 ? (h2.textContent || '').trim() : '';
	}`)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", overlay.ErrDomUnavailable, err)
	}
	login := res.Value.Str()
	return login, login != "", nil
}

// Fingerprint summarizes the card layout; it changes when the map redraws.
func (l *Live) Fingerprint(ctx context.Context) (string, error) {
	res, err := l.page.Context(ctx).Timeout(l.timeout).Eval(`() => {
		const hosts = document.querySelectorAll('.host');
		const badges = document.querySelectorAll('.tracker-host-badge');
		const first = hosts.length ? hosts[0].id : '';
		return hosts.length + ':' + badges.length + ':' + first + ':' + location.pathname;
	}`)
	if err != nil {
		return "", fmt.Errorf("%w: %v", overlay.ErrDomUnavailable, err)
	}
	return res.Value.Str(), nil
}

// WatchLayout polls the layout fingerprint and calls onChange whenever it
// moves. Blocks until ctx is done.
func (l *Live) WatchLayout(ctx context.Context, interval time.Duration, onChange func()) error {
	if interval <= 0 {
		interval = time.Second
	}
	last, _ := l.Fingerprint(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fp, err := l.Fingerprint(ctx)
			if err != nil {
				continue
			}
			if fp != last {
				last = fp
				onChange()
			}
		}
	}
}

type liveCard struct {
	live *Live
	snap liveSnapshot
}

func (c *liveCard) ID() string   { return c.snap.ID }
func (c *liveCard) Text() string { return c.snap.Text }

func (c *liveCard) Marker() overlay.Marker {
	switch c.snap.Marker {
	case "starred":
		return overlay.MarkerStarred
	case "unstarred":
		return overlay.MarkerUnstarred
	default:
		return overlay.MarkerUnknown
	}
}

func (c *liveCard) Visible() bool  { return c.snap.Visible }
func (c *liveCard) HasBadge() bool { return c.snap.HasBadge }

func (c *liveCard) eval(js string, args ...any) error {
	all := append([]any{attrCardIndex, c.snap.Idx}, args...)
	_, err := c.live.page.Timeout(c.live.timeout).Eval(js, all...)
	if err != nil {
		return fmt.Errorf("%w: %v", overlay.ErrDomUnavailable, err)
	}
	return nil
}

func (c *liveCard) AttachBadge(b overlay.Badge) error {
	err := c.eval(`(attr, idx, cls, style, label, complete, completeCls) => {
		const el = document.querySelector('[' + attr + '="' + idx + '"]');
		if (!el || el.querySelector('.' + cls)) return;
		if (window.getComputedStyle(el).position === 'static') el.style.position = 'relative';
		const badge = document.createElement('div');
		badge.className = cls;
		badge.style.cssText = style;
		badge.textContent = label;
		el.appendChild(badge);
		if (complete) el.classList.add(completeCls);
	}`, classBadge, badgeBaseStyle+"background:"+tierColor(b.Tier)+";", b.Label, b.Tier == domain.TierComplete, classComplete)
	if err == nil {
		c.snap.HasBadge = true
	}
	return err
}

func (c *liveCard) SetHighlight(on bool) error {
	return c.eval(`(attr, idx, cls, on, outline) => {
		const el = document.querySelector('[' + attr + '="' + idx + '"]');
		if (!el) return;
		el.classList.toggle(cls, on);
		el.style.outline = on ? outline : '';
		if (on) el.scrollIntoView({block: 'center', behavior: 'smooth'});
	}`, classHighlight, on, highlightOutline)
}

func (c *liveCard) SetOccupancy(o overlay.Occupancy) error {
	return c.eval(`(attr, idx, color) => {
		const el = document.querySelector('[' + attr + '="' + idx + '"]');
		if (el) el.style.backgroundColor = color;
	}`, occupancyColor(o))
}
