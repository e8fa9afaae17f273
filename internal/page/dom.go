package page

import (
	"strings"

	"golang.org/x/net/html"
)

// walk visits n and its descendants depth first. Returning false from fn
// skips the node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(n, func(m *html.Node) bool {
		if found != nil {
			return false
		}
		if match(m) {
			found = m
			return false
		}
		return true
	})
	return found
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func addClass(n *html.Node, class string) {
	if hasClass(n, class) {
		return
	}
	setAttr(n, "class", strings.TrimSpace(attr(n, "class")+" "+class))
}

func removeClass(n *html.Node, class string) {
	fields := strings.Fields(attr(n, "class"))
	out := fields[:0]
	for _, c := range fields {
		if c != class {
			out = append(out, c)
		}
	}
	setAttr(n, "class", strings.Join(out, " "))
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(m *html.Node) bool {
		if m.Type == html.TextNode {
			b.WriteString(m.Data)
			b.WriteByte(' ')
		}
		return true
	})
	return b.String()
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// visible reports whether neither n nor an ancestor is hidden.
func visible(n *html.Node) bool {
	for m := n; m != nil; m = m.Parent {
		if m.Type != html.ElementNode {
			continue
		}
		if hasAttr(m, "hidden") || hasClass(m, "hidden") {
			return false
		}
		if v, ok := styleProps(attr(m, "style"))["display"]; ok && v == "none" {
			return false
		}
	}
	return true
}

// styleProps parses an inline style attribute.
func styleProps(style string) map[string]string {
	props := make(map[string]string)
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		props[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return props
}

// setStyleProp sets or, with an empty value, removes one inline style
// property while keeping the others in their original order.
func setStyleProp(n *html.Node, prop, val string) {
	var decls []string
	found := false
	for _, decl := range strings.Split(attr(n, "style"), ";") {
		k, _, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(k), prop) {
			found = true
			if val != "" {
				decls = append(decls, prop+": "+val)
			}
			continue
		}
		decls = append(decls, strings.TrimSpace(decl))
	}
	if !found && val != "" {
		decls = append(decls, prop+": "+val)
	}
	if len(decls) == 0 {
		removeAttr(n, "style")
		return
	}
	setAttr(n, "style", strings.Join(decls, "; "))
}
