// Package report renders a review session into its exportable forms: a
// deterministic Markdown document for humans and a versioned JSON payload
// for machines. Both are derived views; the store stays the only owner of
// the data and the payload is regenerated on every export.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/designlab/overlay/store"
)

// Version is the payload schema version.
const Version = "1.0"

// footer terminates every Markdown report; the reverse parser keys off it.
const footer = "*Feedback from Design Lab interactive overlay*"

// Payload is the canonical exportable snapshot of a session.
type Payload struct {
	Version   string          `json:"version"`
	Target    string          `json:"target"`
	Timestamp time.Time       `json:"timestamp"`
	Comments  []store.Comment `json:"comments"`
	Overall   string          `json:"overall"`
}

// JSON builds the payload for the given session state, stamped with the
// export time.
func JSON(comments []store.Comment, target, overall string) Payload {
	if comments == nil {
		comments = []store.Comment{}
	}
	return Payload{
		Version:   Version,
		Target:    target,
		Timestamp: time.Now().UTC(),
		Comments:  comments,
		Overall:   strings.TrimSpace(overall),
	}
}

// Markdown renders the report. Structure is fixed: header with target and
// count, one section per variant in lexicographic order, comments in
// insertion order within a variant, numbered 1..N over the whole listing.
// The Overall Direction block is omitted when overall trims to empty.
func Markdown(comments []store.Comment, target, overall string) string {
	var b strings.Builder

	b.WriteString("## Design Lab Feedback\n\n")
	fmt.Fprintf(&b, "**Target:** %s\n", target)
	fmt.Fprintf(&b, "**Comments:** %d\n\n", len(comments))

	n := 0
	for _, group := range groupByVariant(comments) {
		fmt.Fprintf(&b, "### Variant %s\n", group.Variant)
		for _, c := range group.Comments {
			n++
			fmt.Fprintf(&b, "%d. **%s** (%s)\n", n, lastPathSegment(c.Element.ReadablePath), elementRef(c))
			fmt.Fprintf(&b, "   %q\n\n", c.Text)
		}
	}

	if trimmedOverall := strings.TrimSpace(overall); trimmedOverall != "" {
		b.WriteString("### Overall Direction\n")
		b.WriteString(trimmedOverall)
		b.WriteString("\n\n")
	}

	b.WriteString("---\n")
	b.WriteString(footer)
	b.WriteString("\n")
	return b.String()
}

// FromMarkdown reconstructs what a Markdown report can give back: the
// target line and the overall block. Individual comments are not
// reconstructed; Markdown flattens their element identifiers into prose,
// so the round trip is partial.
func FromMarkdown(text string) Payload {
	p := Payload{Version: Version, Comments: []store.Comment{}}

	var overallLines []string
	inOverall := false
	for _, line := range strings.Split(text, "\n") {
		trimmedLine := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmedLine, "**Target:**"):
			p.Target = strings.TrimSpace(strings.TrimPrefix(trimmedLine, "**Target:**"))
		case trimmedLine == "### Overall Direction":
			inOverall = true
		case inOverall && (trimmedLine == "---" || strings.HasPrefix(trimmedLine, "### ")):
			inOverall = false
		case inOverall:
			overallLines = append(overallLines, line)
		}
	}
	p.Overall = strings.TrimSpace(strings.Join(overallLines, "\n"))
	return p
}

func lastPathSegment(readablePath string) string {
	segs := strings.Split(readablePath, " › ")
	return segs[len(segs)-1]
}

func elementRef(c store.Comment) string {
	ref := "`" + c.Element.Selector + "`"
	if c.Element.TextContent != "" {
		ref += fmt.Sprintf(", %s with %q", c.Element.TagName, c.Element.TextContent)
	}
	return ref
}

// groupByVariant mirrors the store's display ordering without needing a
// live store: the formatter also serves payloads loaded from elsewhere.
func groupByVariant(comments []store.Comment) []store.VariantGroup {
	byID := make(map[string][]store.Comment)
	var order []string
	for _, c := range comments {
		if _, ok := byID[c.Variant]; !ok {
			order = append(order, c.Variant)
		}
		byID[c.Variant] = append(byID[c.Variant], c)
	}
	sort.Strings(order)
	groups := make([]store.VariantGroup, 0, len(order))
	for _, v := range order {
		groups = append(groups, store.VariantGroup{Variant: v, Comments: byID[v]})
	}
	return groups
}
