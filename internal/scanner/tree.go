package scanner

import (
	"strings"

	"github.com/desertthunder/tracklift/internal/shared"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Node is one element of a view tree.
//
// Reads cover structure and text; the writes are limited to what attachment needs.
// Two Node values are equal when they refer to the same element.
type Node interface {
	Tag() string
	Attr(name string) (string, bool)
	HasClass(class string) bool
	// Text returns the concatenated text of the node and its descendants.
	Text() string
	// Parent returns the enclosing element, or nil at the top of the tree.
	Parent() Node
	// Children returns the element children in document order.
	Children() []Node

	SetAttr(name, value string)
	AddClass(class string)
	// AppendElement adds a new last child element and returns it.
	AppendElement(tag string, attrs map[string]string, text string) Node
}

// element adapts an [html.Node] to [Node].
type element struct {
	n *html.Node
}

func wrap(n *html.Node) Node {
	if n == nil {
		return nil
	}
	return element{n: n}
}

func (e element) Tag() string {
	if e.n.Type != html.ElementNode {
		return ""
	}
	return e.n.Data
}

func (e element) Attr(name string) (string, bool) {
	for _, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (e element) HasClass(class string) bool {
	v, ok := e.Attr("class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func (e element) Text() string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.n)
	return b.String()
}

func (e element) Parent() Node {
	p := e.n.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return wrap(p)
}

func (e element) Children() []Node {
	var out []Node
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, wrap(c))
		}
	}
	return out
}

func (e element) SetAttr(name, value string) {
	for i, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == name {
			e.n.Attr[i].Val = value
			return
		}
	}
	e.n.Attr = append(e.n.Attr, html.Attribute{Key: name, Val: value})
}

func (e element) AddClass(class string) {
	if e.HasClass(class) {
		return
	}
	v, _ := e.Attr("class")
	e.SetAttr("class", strings.TrimSpace(v+" "+class))
}

func (e element) AppendElement(tag string, attrs map[string]string, text string) Node {
	child := &html.Node{Type: html.ElementNode, DataAtom: atom.Lookup([]byte(tag)), Data: tag}
	for k, v := range attrs {
		child.Attr = append(child.Attr, html.Attribute{Key: k, Val: v})
	}
	if text != "" {
		child.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	e.n.AppendChild(child)
	return wrap(child)
}

// selector matches a single simple CSS selector: a tag name, a .class or an [attribute].
type selector struct {
	tag   string
	class string
	attr  string
}

func parseSelector(s string) selector {
	switch {
	case strings.HasPrefix(s, "."):
		return selector{class: s[1:]}
	case strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"):
		return selector{attr: s[1 : len(s)-1]}
	default:
		return selector{tag: strings.ToLower(s)}
	}
}

func parseSelectors(list ...string) []selector {
	out := make([]selector, 0, len(list))
	for _, s := range list {
		out = append(out, parseSelector(s))
	}
	return out
}

func (s selector) match(n Node) bool {
	switch {
	case s.tag != "":
		return n.Tag() == s.tag
	case s.class != "":
		return n.HasClass(s.class)
	case s.attr != "":
		_, ok := n.Attr(s.attr)
		return ok
	}
	return false
}

func matchAny(n Node, sels []selector) bool {
	for _, s := range sels {
		if s.match(n) {
			return true
		}
	}
	return false
}

// queryAll returns every descendant of root matching any of sels, in document order.
// root itself is never included.
func queryAll(root Node, sels ...selector) []Node {
	var out []Node
	var walk func(Node)
	walk = func(n Node) {
		for _, c := range n.Children() {
			if matchAny(c, sels) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// queryFirst returns the first descendant of root matching any of sels.
func queryFirst(root Node, sels ...selector) Node {
	var found Node
	var walk func(Node) bool
	walk = func(n Node) bool {
		for _, c := range n.Children() {
			if matchAny(c, sels) {
				found = c
				return true
			}
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(root)
	return found
}

func text(n Node) string {
	if n == nil {
		return ""
	}
	return shared.NormalizeText(n.Text())
}
