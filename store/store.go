// Package store holds the annotation state for one review session: an
// ordered list of comments plus the overall-direction note. Every
// mutation mirrors to session-scoped storage so a page reload within the
// session keeps the reviewer's work.
//
// The store is confined to its session's event loop; the overlay session
// serializes all access, so no locking happens here.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/designlab/overlay/idgen"
	"github.com/designlab/overlay/resolve"
)

// StorageKey is the single versioned key all session state lives under.
const StorageKey = "designlab.feedback.v1"

// DefaultVariants is the variant set used when the embedder does not
// configure one: the first five of the A–F enumeration.
var DefaultVariants = []string{"A", "B", "C", "D", "E"}

// Comment is one saved annotation. Immutable after creation; the only
// lifecycle operation is removal.
type Comment struct {
	ID          string                    `json:"id"`
	Variant     string                    `json:"variant"`
	Element     resolve.ElementIdentifier `json:"element"`
	Coordinates resolve.Coordinates       `json:"coordinates"`
	Text        string                    `json:"text"`
	Timestamp   time.Time                 `json:"timestamp"`
}

// VariantGroup is the display grouping: one variant's comments in
// insertion order.
type VariantGroup struct {
	Variant  string    `json:"variant"`
	Comments []Comment `json:"comments"`
}

// Config configures a Store.
type Config struct {
	// Variants is the recognized variant ID set. Default: DefaultVariants.
	Variants []string

	// Storage mirrors the session state. Default: in-memory.
	Storage Storage

	// Key overrides the storage key. Default: StorageKey.
	Key string

	// NewID generates comment IDs. Default: "cmt_"-prefixed UUIDv7.
	NewID idgen.Generator

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if len(c.Variants) == 0 {
		c.Variants = DefaultVariants
	}
	if c.Storage == nil {
		c.Storage = NewMemory()
	}
	if c.Key == "" {
		c.Key = StorageKey
	}
	if c.NewID == nil {
		c.NewID = idgen.Prefixed("cmt_", idgen.Default)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Store is the session's annotation state.
type Store struct {
	cfg      Config
	variants map[string]bool
	comments []Comment
	overall  string
}

// persisted is the session storage layout: one JSON blob under Config.Key.
type persisted struct {
	Comments         []Comment `json:"comments"`
	OverallDirection string    `json:"overallDirection"`
}

// New creates a Store, rehydrating from storage when prior state exists.
// Missing or malformed stored data is treated as an empty store, never an
// error: losing a stale mirror must not break a live review.
func New(cfg Config) *Store {
	cfg.defaults()
	s := &Store{
		cfg:      cfg,
		variants: make(map[string]bool, len(cfg.Variants)),
	}
	for _, v := range cfg.Variants {
		s.variants[v] = true
	}
	s.rehydrate()
	return s
}

// Variants returns the configured variant set in order.
func (s *Store) Variants() []string {
	out := make([]string, len(s.cfg.Variants))
	copy(out, s.cfg.Variants)
	return out
}

// Add appends a new comment and mirrors the state. The variant must be in
// the configured set and the coordinates in range; both are enforced here
// because the store owns the invariants, whatever surface fed it.
func (s *Store) Add(variant string, el resolve.ElementIdentifier, coords resolve.Coordinates, text string) (Comment, error) {
	if !s.variants[variant] {
		return Comment{}, fmt.Errorf("store: unknown variant %q", variant)
	}
	if coords.X < 0 || coords.X > 100 || coords.Y < 0 || coords.Y > 100 {
		return Comment{}, fmt.Errorf("store: coordinates out of range: %+v", coords)
	}
	c := Comment{
		ID:          s.cfg.NewID(),
		Variant:     variant,
		Element:     el,
		Coordinates: coords,
		Text:        text,
		Timestamp:   time.Now().UTC(),
	}
	s.comments = append(s.comments, c)
	s.persist()
	return c, nil
}

// Remove deletes the comment with the given ID, preserving the relative
// order of the rest. Returns false when no such comment exists.
func (s *Store) Remove(id string) bool {
	for i, c := range s.comments {
		if c.ID == id {
			s.comments = append(s.comments[:i], s.comments[i+1:]...)
			s.persist()
			return true
		}
	}
	return false
}

// List returns the comments in insertion order.
func (s *Store) List() []Comment {
	out := make([]Comment, len(s.comments))
	copy(out, s.comments)
	return out
}

// Len returns the number of comments.
func (s *Store) Len() int {
	return len(s.comments)
}

// ByVariant groups comments for display: variants sorted lexicographically,
// insertion order preserved within each group. Variants without comments
// are omitted.
func (s *Store) ByVariant() []VariantGroup {
	byID := make(map[string][]Comment)
	for _, c := range s.comments {
		byID[c.Variant] = append(byID[c.Variant], c)
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	groups := make([]VariantGroup, 0, len(ids))
	for _, id := range ids {
		groups = append(groups, VariantGroup{Variant: id, Comments: byID[id]})
	}
	return groups
}

// SetOverall records the overall-direction note and mirrors the state.
func (s *Store) SetOverall(text string) {
	s.overall = text
	s.persist()
}

// Overall returns the overall-direction note.
func (s *Store) Overall() string {
	return s.overall
}

// Validate checks the store is submittable. Both failures are reported
// together so the reviewer fixes everything in one pass.
func (s *Store) Validate() (bool, []string) {
	var errs []string
	if len(s.comments) == 0 {
		errs = append(errs, "add at least one comment before submitting")
	}
	if strings.TrimSpace(s.overall) == "" {
		errs = append(errs, "overall direction is required")
	}
	return len(errs) == 0, errs
}

// Clear empties the store and its mirror. Called after a successful
// export or an explicit reset.
func (s *Store) Clear() {
	s.comments = nil
	s.overall = ""
	if err := s.cfg.Storage.Delete(s.cfg.Key); err != nil {
		s.cfg.Logger.Warn("store: clear mirror failed", "error", err)
	}
}

func (s *Store) persist() {
	data, err := json.Marshal(persisted{
		Comments:         s.comments,
		OverallDirection: s.overall,
	})
	if err != nil {
		s.cfg.Logger.Warn("store: marshal state failed", "error", err)
		return
	}
	if err := s.cfg.Storage.Put(s.cfg.Key, data); err != nil {
		s.cfg.Logger.Warn("store: mirror write failed", "error", err)
	}
}

func (s *Store) rehydrate() {
	data, ok, err := s.cfg.Storage.Get(s.cfg.Key)
	if err != nil {
		s.cfg.Logger.Warn("store: mirror read failed, starting empty", "error", err)
		return
	}
	if !ok {
		return
	}
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		s.cfg.Logger.Warn("store: malformed mirror, starting empty", "error", err)
		return
	}
	// Drop comments whose variant is no longer recognized; the embedder
	// may have reconfigured the variant set between reloads.
	for _, c := range p.Comments {
		if s.variants[c.Variant] {
			s.comments = append(s.comments, c)
		}
	}
	s.overall = p.OverallDirection
}
