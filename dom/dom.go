// Package dom models the annotated page as a walkable element tree.
//
// It is the document capability the rest of the overlay builds on: query
// elements under a variant container, read attributes and text, read bounding
// boxes. The tree is parsed from HTML, so any host that can hand us markup
// (a live Chrome tab, a test fixture, a saved snapshot) can back it.
package dom

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// VariantAttr tags a container as one of the rendered alternatives.
// The host page contract: anything annotatable sits inside an element
// carrying this attribute with a recognized variant value.
const VariantAttr = "data-variant"

// OverlayAttr marks DOM subtrees owned by the overlay chrome itself.
// Events originating inside such subtrees are never annotation targets.
const OverlayAttr = "data-designlab-ui"

// Rect is an element bounding box in page pixel coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether the point (x, y) falls inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// Document is a parsed page with optional per-element geometry.
type Document struct {
	root     *html.Node
	rects    map[*html.Node]Rect
	variants map[string]bool
}

// Element is a single element node within a Document.
type Element struct {
	node *html.Node
	doc  *Document
}

// Parse reads an HTML document. The variants list defines which
// data-variant values are recognized as annotatable containers.
func Parse(r io.Reader, variants []string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	vs := make(map[string]bool, len(variants))
	for _, v := range variants {
		vs[v] = true
	}
	return &Document{
		root:     root,
		rects:    make(map[*html.Node]Rect),
		variants: vs,
	}, nil
}

// ParseString is Parse over a string.
func ParseString(s string, variants []string) (*Document, error) {
	return Parse(strings.NewReader(s), variants)
}

// Root returns the document root element (html).
func (d *Document) Root() *Element {
	for n := d.root.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode {
			return &Element{node: n, doc: d}
		}
	}
	return nil
}

// Body returns the body element, or the root if the document has none.
func (d *Document) Body() *Element {
	els := d.matchAll(d.root, simpleSelector{tag: "body"})
	if len(els) > 0 {
		return els[0]
	}
	return d.Root()
}

// SetRect records the bounding box for an element. Hosts with real layout
// (a live browser tab) populate this; fixture documents set what tests need.
func (d *Document) SetRect(el *Element, r Rect) {
	if el != nil {
		d.rects[el.node] = r
	}
}

// VariantRoot walks from el upward and returns the nearest recognized
// variant container and its variant ID. Returns (nil, "") when el is not
// inside any recognized container: such clicks are ignored entirely.
func (d *Document) VariantRoot(el *Element) (*Element, string) {
	for n := el.node; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		v := attrValue(n, VariantAttr)
		if v != "" && d.variants[v] {
			return &Element{node: n, doc: d}, v
		}
	}
	return nil, ""
}

// ElementByPath descends from root following child element indexes
// (0-based, elements only). Returns nil if the path walks off the tree.
// This is how the in-page widget addresses the element it intercepted.
func (d *Document) ElementByPath(root *Element, path []int) *Element {
	if root == nil {
		return nil
	}
	cur := root.node
	for _, idx := range path {
		i := 0
		var next *html.Node
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if i == idx {
				next = c
				break
			}
			i++
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return &Element{node: cur, doc: d}
}

// PathTo returns the child-index path from root down to el, or nil when el
// is not a descendant of root. Inverse of ElementByPath.
func (d *Document) PathTo(root, el *Element) []int {
	if root == nil || el == nil {
		return nil
	}
	var path []int
	for n := el.node; n != root.node; n = n.Parent {
		if n.Parent == nil {
			return nil
		}
		i := 0
		for c := n.Parent.FirstChild; c != nil && c != n; c = c.NextSibling {
			if c.Type == html.ElementNode {
				i++
			}
		}
		path = append([]int{i}, path...)
	}
	return path
}

// Tag returns the lowercase tag name.
func (e *Element) Tag() string {
	return e.node.Data
}

// Attr returns the value of an attribute, or "" when absent.
func (e *Element) Attr(key string) string {
	return attrValue(e.node, key)
}

// HasAttr reports whether the attribute is present, even if empty.
func (e *Element) HasAttr(key string) bool {
	for _, a := range e.node.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// Attrs returns all attributes as a map.
func (e *Element) Attrs() map[string]string {
	m := make(map[string]string, len(e.node.Attr))
	for _, a := range e.node.Attr {
		m[a.Key] = a.Val
	}
	return m
}

// Classes returns the class attribute split on whitespace.
func (e *Element) Classes() []string {
	return strings.Fields(e.Attr("class"))
}

// Text returns the element's text content with whitespace collapsed.
func (e *Element) Text() string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.node)
	return strings.Join(strings.Fields(b.String()), " ")
}

// Parent returns the parent element, or nil at the document boundary.
func (e *Element) Parent() *Element {
	for n := e.node.Parent; n != nil; n = n.Parent {
		if n.Type == html.ElementNode {
			return &Element{node: n, doc: e.doc}
		}
	}
	return nil
}

// Children returns the direct child elements.
func (e *Element) Children() []*Element {
	var out []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, &Element{node: c, doc: e.doc})
		}
	}
	return out
}

// Rect returns the recorded bounding box and whether one is known.
func (e *Element) Rect() (Rect, bool) {
	r, ok := e.doc.rects[e.node]
	return r, ok
}

// Is reports whether two Elements refer to the same node.
func (e *Element) Is(other *Element) bool {
	return other != nil && e.node == other.node
}

// InOverlayChrome reports whether the element sits inside a subtree owned
// by the overlay's own UI. Such elements are excluded from interception.
func (e *Element) InOverlayChrome() bool {
	for n := e.node; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && attrValue(n, OverlayAttr) != "" {
			return true
		}
	}
	return false
}

// SameTagIndex returns the 1-based position of e among its same-tag
// siblings, and how many such siblings exist in total.
func (e *Element) SameTagIndex() (index, total int) {
	parent := e.node.Parent
	if parent == nil {
		return 1, 1
	}
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != e.node.Data {
			continue
		}
		total++
		if c == e.node {
			index = total
		}
	}
	return index, total
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
