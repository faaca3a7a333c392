// Package overlay drives a design review session: the interaction
// state machine behind the in-page annotation widget, plus the HTTP
// and MCP surfaces the widget and automated reviewers talk to.
//
// The widget itself is a thin event relay. Every decision — which
// clicks count, how an element is identified, when a comment may be
// saved, what the export contains — is made here, against a Document
// snapshot, so the whole lifecycle is testable without a browser.
package overlay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/designlab/overlay/dom"
	"github.com/designlab/overlay/export"
	"github.com/designlab/overlay/report"
	"github.com/designlab/overlay/resolve"
	"github.com/designlab/overlay/store"
)

// State is the session's interaction mode.
type State string

const (
	// StateInactive: overlay off, the page behaves normally.
	StateInactive State = "inactive"
	// StateArmed: overlay on, clicks on variant elements are captured.
	// The review sidebar is visible in this state and in StateComposing.
	StateArmed State = "armed"
	// StateComposing: an element is captured and the comment panel is open.
	StateComposing State = "composing"
)

// Events receives annotation lifecycle notifications. All methods are
// called synchronously under the session lock; implementations must not
// call back into the session.
type Events interface {
	CommentAdded(c store.Comment)
	CommentDeleted(id string)
	FeedbackExported(p report.Payload)
}

// Config holds the settings needed to create a Session.
type Config struct {
	Target    string        // report header label
	Document  *dom.Document // page snapshot events are resolved against
	Store     *store.Store
	Clipboard export.Clipboard // nil = manual preview only
	Viewport  dom.Rect         // panel clamping bounds; zero = 1280x800

	OnExport func(report.Payload) // invoked after a successful Submit
	Events   Events               // nil = no lifecycle events
	Logger   *slog.Logger
}

func (c *Config) defaults() {
	if c.Target == "" {
		c.Target = "Design review"
	}
	if c.Clipboard == nil {
		c.Clipboard = export.NewManual()
	}
	if c.Viewport.Width == 0 || c.Viewport.Height == 0 {
		c.Viewport = dom.Rect{Width: 1280, Height: 800}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

/// Capture is the pending annotation produced by a click: everything the
// compose panel needs before the reviewer has typed anything.
type Capture struct {
	Variant     string                    `json:"variant"`
	Element     resolve.ElementIdentifier `json:"element"`
	Coordinates resolve.Coordinates       `json:"coordinates"`
	Panel       PanelPosition             `json:"panel"`
}

// ValidationError carries the human-readable messages that block a
// Submit until resolved.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// Session is a per-reviewer interaction state machine. A mutex guards
// it because events arrive over HTTP; the transitions themselves are
// atomic — no save, cancel or delete interleaves with another change.
type Session struct {
	mu sync.Mutex

	target    string
	doc       *dom.Document
	store     *store.Store
	clipboard export.Clipboard
	viewport  dom.Rect
	onExport  func(report.Payload)
	events    Events
	logger    *slog.Logger

	state     State
	pending   *Capture
	highlight *dom.Rect
}

// New creates an inactive Session.
func New(cfg Config) (*Session, error) {
	cfg.defaults()
	if cfg.Document == nil {
		return nil, fmt.Errorf("overlay: Document is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("overlay: Store is required")
	}
	return &Session{
		target:    cfg.Target,
		doc:       cfg.Document,
		store:     cfg.Store,
		clipboard: cfg.Clipboard,
		viewport:  cfg.Viewport,
		onExport:  cfg.OnExport,
		events:    cfg.Events,
		logger:    cfg.Logger,
		state:     StateInactive,
	}, nil
}

// State returns the current interaction mode.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Target returns the report header label.
func (s *Session) Target() string { return s.target }

// Store exposes the backing annotation store.
func (s *Session) Store() *store.Store { return s.store }

// SetDocument swaps the page snapshot, e.g. after the host page
// re-rendered. Any pending capture refers to the old snapshot and is
// discarded.
func (s *Session) SetDocument(doc *dom.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.pending = nil
	s.highlight = nil
	if s.state == StateComposing {
		s.state = StateArmed
	}
}

// Toggle flips between inactive and armed. Toggling off discards any
// pending capture and the hover highlight.
func (s *Session) Toggle() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = nil
	s.highlight = nil
	if s.state == StateInactive {
		s.state = StateArmed
	} else {
		s.state = StateInactive
	}
	return s.state
}

// Hover updates the highlight rectangle for the element at the given
// body-relative child-index path. The highlight only tracks while armed
// with no pending composition, and only over elements inside a variant
// container that are not overlay chrome.
func (s *Session) Hover(x, y float64, path []int) (dom.Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.highlight = nil
	if s.state != StateArmed {
		return dom.Rect{}, false
	}
	el := s.doc.ElementByPath(s.doc.Body(), path)
	if el == nil || el.InOverlayChrome() {
		return dom.Rect{}, false
	}
	if root, _ := s.doc.VariantRoot(el); root == nil {
		return dom.Rect{}, false
	}
	rect, ok := el.Rect()
	if !ok {
		return dom.Rect{}, false
	}
	s.highlight = &rect
	return rect, true
}

// Highlight returns the current hover rectangle, if any.
func (s *Session) Highlight() (dom.Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.highlight == nil {
		return dom.Rect{}, false
	}
	return *s.highlight, true
}

// Click captures the element at the given body-relative path. Clicks
// outside variant containers, on overlay chrome, or in any state other
// than armed are ignored: the bool result tells the widget whether to
// suppress the page's default action and open the compose panel.
func (s *Session) Click(x, y float64, path []int) (Capture, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateArmed {
		return Capture{}, false
	}
	el := s.doc.ElementByPath(s.doc.Body(), path)
	if el == nil || el.InOverlayChrome() {
		return Capture{}, false
	}
	root, variantID := s.doc.VariantRoot(el)
	if root == nil {
		return Capture{}, false
	}

	captured := Capture{
		Variant:     variantID,
		Element:     resolve.Describe(el, root, s.doc, variantID),
		Coordinates: resolve.MapCoordinates(root, x, y),
		Panel:       PlacePanel(x, y, s.viewport.Width, s.viewport.Height),
	}
	s.pending = &captured
	s.highlight = nil
	s.state = StateComposing
	return captured, true
}

// Pending returns the capture awaiting a comment, if composing.
func (s *Session) Pending() (Capture, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return Capture{}, false
	}
	return *s.pending, true
}

// Save attaches the comment text to the pending capture and appends the
// resulting Comment to the store. Text must be non-empty after
// trimming. On success the session returns to armed.
func (s *Session) Save(text string) (store.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateComposing || s.pending == nil {
		return store.Comment{}, fmt.Errorf("overlay: no pending annotation")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return store.Comment{}, fmt.Errorf("overlay: comment text is required")
	}

	c, err := s.store.Add(s.pending.Variant, s.pending.Element, s.pending.Coordinates, text)
	if err != nil {
		return store.Comment{}, err
	}
	s.pending = nil
	s.state = StateArmed
	s.logger.Info("comment added", "id", c.ID, "variant", c.Variant, "selector", c.Element.Selector)
	if s.events != nil {
		s.events.CommentAdded(c)
	}
	return c, nil
}

// Cancel discards the pending capture and returns to armed. Safe to
// call in any state.
func (s *Session) Cancel() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = nil
	if s.state == StateComposing {
		s.state = StateArmed
	}
	return s.state
}

// DeleteComment removes the comment with the given id. No state
// transition occurs.
func (s *Session) DeleteComment(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.Remove(id) {
		return false
	}
	s.logger.Info("comment deleted", "id", id)
	if s.events != nil {
		s.events.CommentDeleted(id)
	}
	return true
}

// SetOverall stores the overall-direction text from the sidebar.
func (s *Session) SetOverall(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.SetOverall(text)
}

// Markdown renders the current review as a Markdown report without
// exporting it.
func (s *Session) Markdown() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return report.Markdown(s.store.List(), s.target, s.store.Overall())
}

// Payload builds the current JSON payload without exporting it.
func (s *Session) Payload() report.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return report.JSON(s.store.List(), s.target, s.store.Overall())
}

// Submit validates the review, exports it, clears the store and
// returns to inactive. A validation failure is returned as a
// *ValidationError and blocks the export. A clipboard failure does not:
// the Markdown stays available through the manual preview, the export
// is still considered delivered, and the payload is returned either
// way.
func (s *Session) Submit(ctx context.Context) (report.Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ok, msgs := s.store.Validate(); !ok {
		return report.Payload{}, &ValidationError{Messages: msgs}
	}

	payload := report.JSON(s.store.List(), s.target, s.store.Overall())
	md := report.Markdown(s.store.List(), s.target, s.store.Overall())

	if !s.clipboard.Write(ctx, md) {
		s.logger.Warn("clipboard write failed, report available via manual preview")
	}
	s.logger.Info("feedback exported", "target", s.target, "comments", len(payload.Comments))
	if s.events != nil {
		s.events.FeedbackExported(payload)
	}
	if s.onExport != nil {
		s.onExport(payload)
	}

	s.store.Clear()
	s.pending = nil
	s.highlight = nil
	s.state = StateInactive
	return payload, nil
}

// Reset clears the store and drops back to inactive without exporting.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Clear()
	s.pending = nil
	s.highlight = nil
	s.state = StateInactive
}
