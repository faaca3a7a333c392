// Package export delivers a formatted report out of the overlay: to the
// system clipboard through the attached browser, or to a file.
//
// Clipboard access is an environment capability with permission variance,
// so it is modeled as an interface with a native implementation and a
// manual fallback chosen at runtime. No implementation ever surfaces an
// error to the caller; success is a boolean and the worst case leaves the
// reviewer with a visible preview to copy by hand.
package export

import (
	"context"
	"sync"
)

// Clipboard writes text to wherever the reviewer can retrieve it.
type Clipboard interface {
	// Write attempts delivery and reports success. A false return means
	// the caller should fall back to showing the text.
	Write(ctx context.Context, text string) bool
}

// Manual is the clipboard of last resort: it never succeeds, but retains
// the text so the hosting surface can display it for hand copying.
type Manual struct {
	mu   sync.Mutex
	last string
}

// NewManual creates a Manual clipboard.
func NewManual() *Manual {
	return &Manual{}
}

// Write retains the text and reports failure, pushing the caller onto
// the visible-preview path.
func (m *Manual) Write(_ context.Context, text string) bool {
	m.mu.Lock()
	m.last = text
	m.mu.Unlock()
	return false
}

// Text returns the most recently retained report.
func (m *Manual) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Chain tries each clipboard in order and reports whether any succeeded.
func Chain(clipboards ...Clipboard) Clipboard {
	return chain(clipboards)
}

type chain []Clipboard

func (c chain) Write(ctx context.Context, text string) bool {
	for _, cb := range c {
		if cb.Write(ctx, text) {
			return true
		}
	}
	return false
}
