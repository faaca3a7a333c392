package resolve

import (
	"math"
	"strings"

	"github.com/designlab/overlay/dom"
)

// ElementIdentifier captures everything a downstream consumer needs to
// find the element again: selector, breadcrumb, and enough raw facts
// (tag, text, authored classes, relevant attributes) to disambiguate by
// hand when the selector has drifted. Immutable once attached to a comment.
type ElementIdentifier struct {
	Selector     string            `json:"selector"`
	ReadablePath string            `json:"readablePath"`
	TagName      string            `json:"tagName"`
	TextContent  string            `json:"textContent,omitempty"`
	ClassName    string            `json:"className,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
}

// Coordinates locates a click as percentages of the variant container's
// box at click time. A purely visual, DOM-independent fallback locator.
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Describe resolves el into its full identifier within the variant root.
func Describe(el, root *dom.Element, doc *dom.Document, variantID string) ElementIdentifier {
	return ElementIdentifier{
		Selector:     Selector(el, root, doc),
		ReadablePath: ReadablePath(el, root, variantID),
		TagName:      el.Tag(),
		TextContent:  truncate(el.Text(), 50),
		ClassName:    FilterClasses(el.Attr("class")),
		Attributes:   RelevantAttributes(el),
	}
}

// RelevantAttributes keeps the subset worth reporting: id, role, type,
// name, and data-*/aria-* keys. Used for downstream disambiguation, not
// for selector generation.
func RelevantAttributes(el *dom.Element) map[string]string {
	out := make(map[string]string)
	for k, v := range el.Attrs() {
		switch {
		case k == "id" || k == "role" || k == "type" || k == "name":
			out[k] = v
		case strings.HasPrefix(k, "data-") || strings.HasPrefix(k, "aria-"):
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// MapCoordinates converts a click point into percentages of the variant
// container's current bounding box, rounded to one decimal and clamped
// to [0, 100].
func MapCoordinates(root *dom.Element, clickX, clickY float64) Coordinates {
	r, ok := root.Rect()
	if !ok || r.Width <= 0 || r.Height <= 0 {
		return Coordinates{}
	}
	return Coordinates{
		X: clampPct((clickX - r.X) / r.Width * 100),
		Y: clampPct((clickY - r.Y) / r.Height * 100),
	}
}

func clampPct(v float64) float64 {
	v = math.Round(v*10) / 10
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
