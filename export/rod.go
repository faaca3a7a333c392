package export

import (
	"context"
	"log/slog"

	"github.com/go-rod/rod"
)

// writeScript tries the async clipboard API first and degrades to a
// hidden-textarea execCommand copy when the API is missing or the
// permission is denied. Always resolves to a boolean, never throws.
const writeScript = `async (text) => {
	try {
		await navigator.clipboard.writeText(text);
		return true;
	} catch (e) {
		const ta = document.createElement('textarea');
		ta.value = text;
		ta.setAttribute('data-designlab-ui', 'clipboard');
		ta.style.position = 'fixed';
		ta.style.opacity = '0';
		document.body.appendChild(ta);
		ta.select();
		let ok = false;
		try { ok = document.execCommand('copy'); } catch (err) { ok = false; }
		ta.remove();
		return ok;
	}
}`

// RodClipboard writes through the attached browser page, which is where
// the reviewer's clipboard actually lives.
type RodClipboard struct {
	page   *rod.Page
	logger *slog.Logger
}

// NewRodClipboard creates a clipboard backed by a live page.
func NewRodClipboard(page *rod.Page, logger *slog.Logger) *RodClipboard {
	if logger == nil {
		logger = slog.Default()
	}
	return &RodClipboard{page: page, logger: logger}
}

func (c *RodClipboard) Write(ctx context.Context, text string) bool {
	if c.page == nil {
		return false
	}
	res, err := c.page.Context(ctx).Eval(writeScript, text)
	if err != nil {
		c.logger.Warn("export: clipboard eval failed", "error", err)
		return false
	}
	return res.Value.Bool()
}
