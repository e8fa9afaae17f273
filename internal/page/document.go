package page

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alexanderramin/clustertrack/internal/domain"
	"github.com/alexanderramin/clustertrack/internal/overlay"
)

// Document is a parsed snapshot of the cluster map. Card mutations are
// applied to the tree in place and can be written back with Render.
type Document struct {
	mu   sync.Mutex
	root *html.Node
}

// ParseDocument parses an HTML page.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	return &Document{root: root}, nil
}

// LoadDocument parses the HTML file at path.
func LoadDocument(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	defer f.Close()
	return ParseDocument(f)
}

// Cards returns every element carrying the host class.
func (d *Document) Cards(ctx context.Context) ([]overlay.Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	var cards []overlay.Card
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && hasClass(n, classHost) {
			cards = append(cards, d.snapshot(n))
			return false
		}
		return true
	})
	return cards, nil
}

// HasElement reports whether an element with the given id exists.
func (d *Document) HasElement(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return findFirst(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && attr(n, "id") == id
	}) != nil, nil
}

// DetectLogin finds the signed-in login in the page header, first from a
// data-login attribute, then from the profile heading.
func (d *Document) DetectLogin() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n := findFirst(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && hasClass(n, "login") && attr(n, "data-login") != ""
	}); n != nil {
		return strings.TrimSpace(attr(n, "data-login")), true
	}
	infos := findFirst(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && hasClass(n, "user-infos")
	})
	if infos == nil {
		return "", false
	}
	h2 := findFirst(infos, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.H2
	})
	if h2 == nil {
		return "", false
	}
	login := strings.TrimSpace(textContent(h2))
	return login, login != ""
}

// Render writes the (possibly mutated) page.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

func (d *Document) snapshot(n *html.Node) *htmlCard {
	c := &htmlCard{doc: d, node: n, id: attr(n, "id"), text: normalizeSpace(textContent(n))}
	c.visible = visible(n)
	if content := findFirst(n, func(m *html.Node) bool {
		return m != n && m.Type == html.ElementNode && hasClass(m, classContent)
	}); content != nil {
		c.marker = overlay.MarkerUnstarred
		if hasClass(content, classStarFlip) {
			c.marker = overlay.MarkerStarred
		}
	}
	c.hasBadge = findFirst(n, func(m *html.Node) bool {
		return m.Type == html.ElementNode && hasClass(m, classBadge)
	}) != nil
	return c
}

type htmlCard struct {
	doc      *Document
	node     *html.Node
	id       string
	text     string
	marker   overlay.Marker
	visible  bool
	hasBadge bool
}

func (c *htmlCard) ID() string             { return c.id }
func (c *htmlCard) Text() string           { return c.text }
func (c *htmlCard) Marker() overlay.Marker { return c.marker }
func (c *htmlCard) Visible() bool          { return c.visible }
func (c *htmlCard) HasBadge() bool         { return c.hasBadge }

func (c *htmlCard) AttachBadge(b overlay.Badge) error {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()

	badge := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr: []html.Attribute{
			{Key: "class", Val: classBadge + " tier-" + string(b.Tier)},
			{Key: "data-host", Val: b.Host},
			{Key: "style", Val: badgeBaseStyle + "background:" + tierColor(b.Tier) + ";"},
		},
	}
	badge.AppendChild(&html.Node{Type: html.TextNode, Data: b.Label})
	c.node.AppendChild(badge)
	if b.Tier == domain.TierComplete {
		addClass(c.node, classComplete)
	}
	c.hasBadge = true
	return nil
}

func (c *htmlCard) SetHighlight(on bool) error {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	if on {
		addClass(c.node, classHighlight)
		setStyleProp(c.node, "outline", highlightOutline)
	} else {
		removeClass(c.node, classHighlight)
		setStyleProp(c.node, "outline", "")
	}
	return nil
}

func (c *htmlCard) SetOccupancy(o overlay.Occupancy) error {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	setStyleProp(c.node, "background-color", occupancyColor(o))
	return nil
}
