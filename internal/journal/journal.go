package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// Record inserts e and sets its ID. A zero RecordedAt is stamped with the
// current time.
func (s *Store) Record(e *Entry) (int64, error) {
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	var errText sql.NullString
	if e.Error != "" {
		errText = sql.NullString{String: e.Error, Valid: true}
	}
	res, err := s.db.Exec(
		`INSERT INTO refreshes (session_id, uri, seq, mode, outcome, node_count, duration_ms, error, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.URI, int64(e.Seq), e.Mode, string(e.Outcome), e.NodeCount,
		e.Duration.Milliseconds(), errText, e.RecordedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("journal: insert refresh: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("journal: last insert id: %w", err)
	}
	e.ID = id
	return id, nil
}

// Recent returns up to limit entries, newest first. An empty uri matches every
// document; a non-positive limit means no limit.
func (s *Store) Recent(uri string, limit int) ([]*Entry, error) {
	query := `SELECT id, session_id, uri, seq, mode, outcome, node_count, duration_ms, error, recorded_at
		FROM refreshes`
	var args []any
	if uri != "" {
		query += " WHERE uri = ?"
		args = append(args, uri)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: recent refreshes: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		var seq, durationMS int64
		var outcome string
		var errText sql.NullString
		if err := rows.Scan(&e.ID, &e.SessionID, &e.URI, &seq, &e.Mode, &outcome,
			&e.NodeCount, &durationMS, &errText, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("journal: scan refresh: %w", err)
		}
		e.Seq = uint64(seq)
		e.Outcome = Outcome(outcome)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.Error = errText.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Summarize counts refreshes per document, ordered by URI.
func (s *Store) Summarize() ([]*Summary, error) {
	rows, err := s.db.Query(
		`SELECT uri, outcome, COUNT(*), MAX(seq) FROM refreshes GROUP BY uri, outcome ORDER BY uri, outcome`,
	)
	if err != nil {
		return nil, fmt.Errorf("journal: summarize: %w", err)
	}
	defer rows.Close()

	var out []*Summary
	byURI := make(map[string]*Summary)
	for rows.Next() {
		var uri, outcome string
		var count int
		var maxSeq int64
		if err := rows.Scan(&uri, &outcome, &count, &maxSeq); err != nil {
			return nil, fmt.Errorf("journal: scan summary: %w", err)
		}
		sum, ok := byURI[uri]
		if !ok {
			sum = &Summary{URI: uri, Counts: make(map[Outcome]int)}
			byURI[uri] = sum
			out = append(out, sum)
		}
		sum.Counts[Outcome(outcome)] = count
		sum.Total += count
		if uint64(maxSeq) > sum.LastSeq {
			sum.LastSeq = uint64(maxSeq)
		}
	}
	return out, rows.Err()
}
