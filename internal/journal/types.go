package journal

import "time"

// Outcome classifies how a refresh ended.
type Outcome string

const (
	// Delivered refreshes reached the renderer.
	Delivered Outcome = "delivered"
	// Stale refreshes were superseded by a later trigger.
	Stale Outcome = "stale"
	// Closed refreshes completed after their session was closed.
	Closed Outcome = "closed"
	// Failed refreshes could not parse or project the document.
	Failed Outcome = "failed"
)

// Entry is one journaled refresh.
type Entry struct {
	ID         int64
	SessionID  string
	URI        string
	Seq        uint64
	Mode       string
	Outcome    Outcome
	NodeCount  int
	Duration   time.Duration
	Error      string
	RecordedAt time.Time
}

// Summary counts a document's refreshes by outcome.
type Summary struct {
	URI     string
	Total   int
	Counts  map[Outcome]int
	LastSeq uint64
}
