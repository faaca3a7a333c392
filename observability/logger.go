// Package observability records annotation lifecycle events to SQLite
// so a review session leaves an inspectable trail. Recording is
// best-effort: failures are logged via slog and never propagate, so a
// failing events store never blocks a review.
package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/designlab/overlay/idgen"
	"github.com/designlab/overlay/report"
	"github.com/designlab/overlay/store"
)

// Event types written by the logger.
const (
	EventCommentAdded     = "comment_added"
	EventCommentDeleted   = "comment_deleted"
	EventFeedbackExported = "feedback_exported"
)

// Event is one recorded lifecycle event.
type Event struct {
	EventID   string
	EventType string
	SessionID string
	SubjectID string
	Details   string // JSON
	CreatedAt time.Time
}

// EventLogger writes review lifecycle events. It satisfies the overlay
// session's Events interface.
type EventLogger struct {
	db        *sql.DB
	sessionID string
	newID     idgen.Generator
}

// EventLoggerOption configures an EventLogger.
type EventLoggerOption func(*EventLogger)

// WithIDGenerator sets a custom ID generator for event IDs.
func WithIDGenerator(gen idgen.Generator) EventLoggerOption {
	return func(l *EventLogger) { l.newID = gen }
}

// NewEventLogger creates a logger for one review session and applies
// the events schema.
func NewEventLogger(db *sql.DB, sessionID string, opts ...EventLoggerOption) (*EventLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("observability: db is required")
	}
	l := &EventLogger{
		db:        db,
		sessionID: sessionID,
		newID:     idgen.Prefixed("evt_", idgen.Default),
	}
	for _, o := range opts {
		o(l)
	}
	for _, stmt := range strings.Split(Schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("observability schema: %w", err)
		}
	}
	return l, nil
}

// CommentAdded records a saved annotation.
func (l *EventLogger) CommentAdded(c store.Comment) {
	l.record(EventCommentAdded, c.ID, map[string]any{
		"variant":  c.Variant,
		"selector": c.Element.Selector,
	})
}

// CommentDeleted records a removal.
func (l *EventLogger) CommentDeleted(id string) {
	l.record(EventCommentDeleted, id, nil)
}

// FeedbackExported records a successful export.
func (l *EventLogger) FeedbackExported(p report.Payload) {
	l.record(EventFeedbackExported, "", map[string]any{
		"target":   p.Target,
		"comments": len(p.Comments),
	})
}

func (l *EventLogger) record(eventType, subjectID string, details map[string]any) {
	detailsJSON := ""
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			detailsJSON = string(b)
		}
	}
	_, err := l.db.Exec(`
		INSERT INTO review_events (event_id, event_type, session_id, subject_id, details, created_at)
		VALUES (?,?,?,?,?,?)`,
		l.newID(), eventType, l.sessionID, subjectID, detailsJSON, time.Now().Unix())
	if err != nil {
		slog.Error("review event log failed", "error", err, "event_type", eventType)
	}
}

// Recent returns the most recent events for the logger's session,
// newest first.
func (l *EventLogger) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT event_id, event_type, session_id, subject_id, details, created_at
		FROM review_events WHERE session_id = ?
		ORDER BY created_at DESC, event_id DESC LIMIT ?`,
		l.sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query review events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var ts int64
		if err := rows.Scan(&e.EventID, &e.EventType, &e.SessionID, &e.SubjectID, &e.Details, &ts); err != nil {
			return nil, fmt.Errorf("scan review event: %w", err)
		}
		e.CreatedAt = time.Unix(ts, 0)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Cleanup deletes events older than retentionDays.
func Cleanup(ctx context.Context, db *sql.DB, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().Unix() - int64(retentionDays*86400)
	if _, err := db.ExecContext(ctx, "DELETE FROM review_events WHERE created_at < ?", cutoff); err != nil {
		return fmt.Errorf("cleanup review events: %w", err)
	}
	return nil
}
