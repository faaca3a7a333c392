package report

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"
)

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
	),
)

// strict strips all markup; comment text and overall notes are plain text
// wherever we render them back into HTML.
var strict = bluemonday.StrictPolicy()

// FromHTML recovers a payload from a report that round-tripped through a
// rich-text surface (mail client, wiki, chat) and came back as HTML. The
// markup is converted to Markdown first, then parsed with the same
// partial-round-trip contract as FromMarkdown.
func FromHTML(htmlText string) (Payload, error) {
	md, err := mdConverter.ConvertString(htmlText)
	if err != nil {
		return Payload{}, fmt.Errorf("report: convert html: %w", err)
	}
	return FromMarkdown(md), nil
}

// Sanitize strips any markup from reviewer-entered text. Applied when
// report content is rendered into an HTML context; the Markdown and JSON
// forms carry the text verbatim.
func Sanitize(text string) string {
	return strings.TrimSpace(strict.Sanitize(text))
}
