package main

import (
	"go.lsp.dev/protocol"

	"github.com/jward/arbor/internal/journal"
	"github.com/jward/arbor/internal/projector"
)

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIProjection is the result of a one-shot projection.
type CLIProjection struct {
	URI        protocol.DocumentURI `json:"uri"`
	Language   string               `json:"language"`
	Mode       projector.Mode       `json:"mode"`
	Selections []protocol.Range     `json:"selections"`
	NodeCount  int                  `json:"node_count"`
	Tree       *projector.Node      `json:"tree"`
}

// CLIRefresh is a JSON-friendly journal entry.
type CLIRefresh struct {
	ID         int64  `json:"id"`
	Session    string `json:"session"`
	URI        string `json:"uri"`
	Seq        uint64 `json:"seq"`
	Mode       string `json:"mode"`
	Outcome    string `json:"outcome"`
	NodeCount  int    `json:"node_count"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
	RecordedAt string `json:"recorded_at"`
}

// CLIJournalSummary is a JSON-friendly per-document summary.
type CLIJournalSummary struct {
	URI     string         `json:"uri"`
	Total   int            `json:"total"`
	Counts  map[string]int `json:"counts"`
	LastSeq uint64         `json:"last_seq"`
}

func toCLIRefresh(e *journal.Entry) CLIRefresh {
	return CLIRefresh{
		ID:         e.ID,
		Session:    e.SessionID,
		URI:        e.URI,
		Seq:        e.Seq,
		Mode:       e.Mode,
		Outcome:    string(e.Outcome),
		NodeCount:  e.NodeCount,
		DurationMS: e.Duration.Milliseconds(),
		Error:      e.Error,
		RecordedAt: e.RecordedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

func toCLIJournalSummary(s *journal.Summary) CLIJournalSummary {
	counts := make(map[string]int, len(s.Counts))
	for o, n := range s.Counts {
		counts[string(o)] = n
	}
	return CLIJournalSummary{URI: s.URI, Total: s.Total, Counts: counts, LastSeq: s.LastSeq}
}
