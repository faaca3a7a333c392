package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// QuerySelectorAll returns all elements under scope matching the selector.
// Supported grammar is exactly what the resolver emits:
//
//   - tag, .class (repeatable), #id
//   - [attr], [attr="val"] (repeatable)
//   - :nth-child(n), counted among same-tag siblings as generated
//   - descendant combinator (space) and child combinator (>)
//
// scope == nil queries the whole document. The scope element itself is
// never part of the result set.
func (d *Document) QuerySelectorAll(scope *Element, selector string) []*Element {
	parts := parseSelector(selector)
	if len(parts) == 0 {
		return nil
	}

	start := d.root
	if scope != nil {
		start = scope.node
	}

	matches := d.descendantsMatching(start, parts[0].sel)
	for i := 1; i < len(parts); i++ {
		var next []*Element
		seen := make(map[*html.Node]bool)
		for _, m := range matches {
			var cand []*Element
			if parts[i].child {
				cand = d.childrenMatching(m.node, parts[i].sel)
			} else {
				cand = d.descendantsMatching(m.node, parts[i].sel)
			}
			for _, c := range cand {
				if !seen[c.node] {
					seen[c.node] = true
					next = append(next, c)
				}
			}
		}
		matches = next
	}
	return matches
}

type selectorPart struct {
	sel   simpleSelector
	child bool // true when joined to the previous part with ">"
}

type attrMatch struct {
	key    string
	val    string
	hasVal bool
}

type simpleSelector struct {
	tag      string
	id       string
	classes  []string
	attrs    []attrMatch
	nthChild int // 0 = unconstrained
}

// parseSelector splits a selector into combinator-joined compound parts.
func parseSelector(selector string) []selectorPart {
	var parts []selectorPart
	child := false
	for _, tok := range strings.Fields(selector) {
		if tok == ">" {
			child = true
			continue
		}
		parts = append(parts, selectorPart{sel: parseCompound(tok), child: child})
		child = false
	}
	return parts
}

// parseCompound parses a single compound like `button.btn[role="tab"]:nth-child(2)`.
func parseCompound(tok string) simpleSelector {
	var s simpleSelector

	// Attribute selectors, possibly several.
	for {
		open := strings.IndexByte(tok, '[')
		if open < 0 {
			break
		}
		close := strings.IndexByte(tok[open:], ']')
		if close < 0 {
			break
		}
		attr := tok[open+1 : open+close]
		tok = tok[:open] + tok[open+close+1:]
		var m attrMatch
		if eq := strings.IndexByte(attr, '='); eq >= 0 {
			m.key = attr[:eq]
			m.val = strings.Trim(attr[eq+1:], `"'`)
			m.hasVal = true
		} else {
			m.key = attr
		}
		s.attrs = append(s.attrs, m)
	}

	// :nth-child(n)
	if idx := strings.Index(tok, ":nth-child("); idx >= 0 {
		rest := tok[idx+len(":nth-child("):]
		if end := strings.IndexByte(rest, ')'); end >= 0 {
			if n, err := strconv.Atoi(rest[:end]); err == nil {
				s.nthChild = n
			}
		}
		tok = tok[:idx]
	}

	// #id
	if idx := strings.IndexByte(tok, '#'); idx >= 0 {
		s.id = tok[idx+1:]
		tok = tok[:idx]
	}

	// .class, repeatable
	if idx := strings.IndexByte(tok, '.'); idx >= 0 {
		s.classes = strings.Split(tok[idx+1:], ".")
		tok = tok[:idx]
	}

	s.tag = tok
	return s
}

func (d *Document) descendantsMatching(start *html.Node, s simpleSelector) []*Element {
	var out []*Element
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				if matchesSimple(c, s) {
					out = append(out, &Element{node: c, doc: d})
				}
				walk(c)
			}
		}
	}
	walk(start)
	return out
}

func (d *Document) childrenMatching(parent *html.Node, s simpleSelector) []*Element {
	var out []*Element
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && matchesSimple(c, s) {
			out = append(out, &Element{node: c, doc: d})
		}
	}
	return out
}

func (d *Document) matchAll(start *html.Node, s simpleSelector) []*Element {
	return d.descendantsMatching(start, s)
}

func matchesSimple(n *html.Node, s simpleSelector) bool {
	if s.tag != "" && n.Data != s.tag {
		return false
	}
	if s.id != "" && attrValue(n, "id") != s.id {
		return false
	}
	if len(s.classes) > 0 {
		have := strings.Fields(attrValue(n, "class"))
		for _, want := range s.classes {
			found := false
			for _, c := range have {
				if c == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	for _, m := range s.attrs {
		if m.hasVal {
			if attrValue(n, m.key) != m.val {
				return false
			}
		} else if !hasAttrNode(n, m.key) {
			return false
		}
	}
	if s.nthChild > 0 {
		e := Element{node: n}
		idx, _ := e.SameTagIndex()
		if idx != s.nthChild {
			return false
		}
	}
	return true
}

func hasAttrNode(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}
