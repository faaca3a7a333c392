package observability

// Schema is the review events table, applied on logger creation.
const Schema = `
CREATE TABLE IF NOT EXISTS review_events (
    event_id   TEXT PRIMARY KEY,
    event_type TEXT NOT NULL,
    session_id TEXT NOT NULL DEFAULT '',
    subject_id TEXT NOT NULL DEFAULT '',
    details    TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_review_events_session ON review_events(session_id, created_at DESC);
`
