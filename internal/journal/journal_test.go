package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func record(t *testing.T, s *Store, uri string, seq uint64, outcome Outcome) *Entry {
	t.Helper()
	e := &Entry{
		SessionID: "sess-" + uri,
		URI:       uri,
		Seq:       seq,
		Mode:      "structural",
		Outcome:   outcome,
		NodeCount: 12,
		Duration:  3 * time.Millisecond,
	}
	id, err := s.Record(e)
	require.NoError(t, err)
	require.Positive(t, id)
	return e
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
	require.NoError(t, s.Migrate())
}

func TestRecord_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := &Entry{
		SessionID:  "0b4f",
		URI:        "file:///a.js",
		Seq:        7,
		Mode:       "semantic",
		Outcome:    Failed,
		Duration:   1500 * time.Millisecond,
		Error:      "syntax: provider unavailable",
		RecordedAt: at,
	}
	_, err := s.Record(e)
	require.NoError(t, err)

	got, err := s.Recent("file:///a.js", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, e.ID, got[0].ID)
	assert.Equal(t, "0b4f", got[0].SessionID)
	assert.Equal(t, uint64(7), got[0].Seq)
	assert.Equal(t, "semantic", got[0].Mode)
	assert.Equal(t, Failed, got[0].Outcome)
	assert.Equal(t, 1500*time.Millisecond, got[0].Duration)
	assert.Equal(t, "syntax: provider unavailable", got[0].Error)
	assert.True(t, at.Equal(got[0].RecordedAt))
}

func TestRecord_StampsTime(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	e := record(t, s, "file:///a.js", 1, Delivered)
	assert.False(t, e.RecordedAt.IsZero())
}

func TestRecent_FilterAndLimit(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	record(t, s, "file:///a.js", 1, Stale)
	record(t, s, "file:///b.go", 1, Delivered)
	record(t, s, "file:///a.js", 2, Delivered)
	record(t, s, "file:///a.js", 3, Closed)

	all, err := s.Recent("", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	a, err := s.Recent("file:///a.js", 2)
	require.NoError(t, err)
	require.Len(t, a, 2)
	assert.Equal(t, uint64(3), a[0].Seq, "newest first")
	assert.Equal(t, uint64(2), a[1].Seq)
	assert.Empty(t, a[0].Error)

	none, err := s.Recent("file:///missing", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSummarize(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	record(t, s, "file:///a.js", 1, Stale)
	record(t, s, "file:///a.js", 2, Delivered)
	record(t, s, "file:///a.js", 3, Delivered)
	record(t, s, "file:///b.go", 1, Failed)

	sums, err := s.Summarize()
	require.NoError(t, err)
	require.Len(t, sums, 2)

	assert.Equal(t, "file:///a.js", sums[0].URI)
	assert.Equal(t, 3, sums[0].Total)
	assert.Equal(t, map[Outcome]int{Stale: 1, Delivered: 2}, sums[0].Counts)
	assert.Equal(t, uint64(3), sums[0].LastSeq)

	assert.Equal(t, "file:///b.go", sums[1].URI)
	assert.Equal(t, map[Outcome]int{Failed: 1}, sums[1].Counts)
}
