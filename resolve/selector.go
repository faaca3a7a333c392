package resolve

import (
	"fmt"
	"strings"

	"github.com/designlab/overlay/dom"
)

// testIDAttrs are the developer test hooks checked first: they exist
// precisely to survive DOM churn.
var testIDAttrs = []string{"data-testid", "data-test-id"}

// ignoredRoles carry no targeting value.
var ignoredRoles = map[string]bool{
	"generic":      true,
	"presentation": true,
	"none":         true,
}

// formTags get a name/type attribute selector when nothing better exists.
var formTags = map[string]bool{
	"input":  true,
	"button": true,
	"select": true,
}

// Selector produces a locator for el within its variant container. The
// strategies run in strict fallback order and the structural path at the
// end always succeeds, so the result is never empty. Re-resolving the
// same unchanged DOM yields an identical string.
func Selector(el, root *dom.Element, doc *dom.Document) string {
	// 1. Explicit test IDs.
	for _, attr := range testIDAttrs {
		if v := el.Attr(attr); v != "" {
			return fmt.Sprintf("[%s=%q]", attr, v)
		}
	}

	// 2. Authored id. A leading ":" marks framework-generated ids
	// (React useId), which change between renders.
	if id := el.Attr("id"); id != "" && !strings.HasPrefix(id, ":") && !IsGeneratedClassName(id) {
		return "#" + id
	}

	// 3. Accessible label.
	if v := el.Attr("aria-label"); v != "" {
		return fmt.Sprintf("%s[aria-label=%q]", el.Tag(), v)
	}

	// 4. Landmark role, refined by name when present.
	if role := el.Attr("role"); role != "" && !ignoredRoles[role] {
		sel := fmt.Sprintf("%s[role=%q]", el.Tag(), role)
		if name := el.Attr("name"); name != "" {
			sel += fmt.Sprintf("[name=%q]", name)
		}
		return sel
	}

	// 5. Authored classes, first two tokens. If ambiguous within the
	// variant container, qualify once with the parent's first authored
	// class; deeper ambiguity falls through to the consumer as-is.
	if classes := filteredClasses(el.Attr("class")); len(classes) > 0 {
		if len(classes) > 2 {
			classes = classes[:2]
		}
		sel := "." + strings.Join(classes, ".")
		if len(doc.QuerySelectorAll(root, sel)) > 1 {
			if parent := el.Parent(); parent != nil {
				if pc := filteredClasses(parent.Attr("class")); len(pc) > 0 {
					sel = "." + pc[0] + " > " + sel
				}
			}
		}
		return sel
	}

	// 6. Form controls without any of the above.
	if formTags[el.Tag()] {
		if name := el.Attr("name"); name != "" {
			return fmt.Sprintf("%s[name=%q]", el.Tag(), name)
		}
		if typ := el.Attr("type"); typ != "" {
			return fmt.Sprintf("%s[type=%q]", el.Tag(), typ)
		}
	}

	// 7. Structural path. Always resolvable.
	return structuralPath(el, root)
}

// structuralPath walks from el up to (excluding) the variant root,
// recording `tag` when the element is the only same-tag sibling and
// `tag:nth-child(i)` otherwise, i counted 1-based among same-tag
// siblings. Only the nearest 4 levels are kept.
func structuralPath(el, root *dom.Element) string {
	var segments []string
	for cur := el; cur != nil && !cur.Is(root); cur = cur.Parent() {
		idx, total := cur.SameTagIndex()
		seg := cur.Tag()
		if total > 1 {
			seg = fmt.Sprintf("%s:nth-child(%d)", cur.Tag(), idx)
		}
		segments = append([]string{seg}, segments...)
	}
	if len(segments) > 4 {
		segments = segments[len(segments)-4:]
	}
	return strings.Join(segments, " > ")
}
