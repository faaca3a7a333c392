package resolve

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/designlab/overlay/dom"
)

// tagLabels maps tags without better signals to a human word.
var tagLabels = map[string]string{
	"a":       "Link",
	"button":  "Button",
	"img":     "Image",
	"nav":     "Navigation",
	"ul":      "List",
	"ol":      "List",
	"li":      "List Item",
	"p":       "Paragraph",
	"span":    "Text",
	"div":     "Section",
	"section": "Section",
	"article": "Article",
	"header":  "Header",
	"footer":  "Footer",
	"form":    "Form",
	"table":   "Table",
	"svg":     "Icon",
}

// ReadablePath builds the breadcrumb shown to humans: "Variant B › … › …".
// It labels the last three ancestors between el and the variant root,
// inclusive of el itself. Independent of Selector: when selectors drift
// after a redesign, the breadcrumb still tells a reviewer what was meant.
func ReadablePath(el, root *dom.Element, variantID string) string {
	var chain []*dom.Element
	for cur := el; cur != nil && !cur.Is(root); cur = cur.Parent() {
		chain = append([]*dom.Element{cur}, chain...)
	}
	if len(chain) > 3 {
		chain = chain[len(chain)-3:]
	}

	parts := []string{"Variant " + variantID}
	for _, e := range chain {
		parts = append(parts, elementLabel(e))
	}
	return strings.Join(parts, " › ")
}

func elementLabel(el *dom.Element) string {
	if v := el.Attr("aria-label"); v != "" {
		return v
	}

	tag := el.Tag()
	switch tag {
	case "a", "button":
		if text := truncate(el.Text(), 30); text != "" {
			return fmt.Sprintf("%s: %q", tagLabels[tag], text)
		}
	case "input", "select", "textarea":
		name := el.Attr("name")
		if name == "" {
			name = el.Attr("placeholder")
		}
		if name != "" {
			return fmt.Sprintf("%s: %s", controlLabel(tag), name)
		}
	case "h1", "h2", "h3", "h4", "h5", "h6":
		if text := truncate(el.Text(), 30); text != "" {
			return fmt.Sprintf("Heading: %q", text)
		}
		return "Heading"
	}

	if classes := filteredClasses(el.Attr("class")); len(classes) > 0 {
		return titleCase(classes[0])
	}
	if label, ok := tagLabels[tag]; ok {
		return label
	}
	return capitalize(tag)
}

func controlLabel(tag string) string {
	switch tag {
	case "select":
		return "Dropdown"
	case "textarea":
		return "Text Area"
	default:
		return "Input"
	}
}

// titleCase converts kebab-case or camelCase class names to Title Case:
// "cta-button" → "Cta Button", "heroBlock" → "Hero Block".
func titleCase(s string) string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, capitalize(cur.String()))
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '-' || r == '_':
			flush()
		case unicode.IsUpper(r):
			flush()
			cur.WriteRune(unicode.ToLower(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return strings.Join(words, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max])
}
