package dom

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"golang.org/x/net/html"
)

// FromRod snapshots a live page into a Document: outer HTML plus one
// bounding box per element, collected in a single round trip each.
//
// Boxes are matched to parsed elements by document order. The HTML parser
// can synthesize elements the live DOM also has (html, head, body), so the
// orders line up for well-formed pages; geometry is best-effort either way
// and only ever used as a secondary visual locator.
func FromRod(ctx context.Context, page *rod.Page, variants []string) (*Document, error) {
	res, err := page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return nil, fmt.Errorf("dom: snapshot html: %w", err)
	}

	doc, err := ParseString(res.Value.Str(), variants)
	if err != nil {
		return nil, fmt.Errorf("dom: parse snapshot: %w", err)
	}

	rects, err := page.Context(ctx).Eval(`() =>
		Array.from(document.querySelectorAll('*')).map(el => {
			const r = el.getBoundingClientRect();
			return [r.x + window.scrollX, r.y + window.scrollY, r.width, r.height];
		})`)
	if err != nil {
		return nil, fmt.Errorf("dom: snapshot rects: %w", err)
	}

	boxes := rects.Value.Arr()
	i := 0
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if i < len(boxes) {
				b := boxes[i].Arr()
				if len(b) == 4 {
					doc.rects[n] = Rect{
						X:      b[0].Num(),
						Y:      b[1].Num(),
						Width:  b[2].Num(),
						Height: b[3].Num(),
					}
				}
			}
			i++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	// documentElement.outerHTML starts at <html>; skip the synthetic document node.
	walk(doc.root)

	return doc, nil
}
