package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndRecentRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	_, err := s.Record(ctx, Run{
		Title:     "Revenue by Payment Method",
		Status:    "success",
		RowCount:  4,
		ElapsedMS: 12,
		StartedAt: base,
	})
	require.NoError(t, err)

	_, err = s.Record(ctx, Run{
		Title:     "Broken Query",
		Status:    "failure",
		Error:     "syntax error",
		StartedAt: base.Add(time.Minute),
	})
	require.NoError(t, err)

	runs, err := s.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first.
	assert.Equal(t, "Broken Query", runs[0].Title)
	assert.Equal(t, "failure", runs[0].Status)
	assert.Equal(t, "syntax error", runs[0].Error)
	assert.Equal(t, "Revenue by Payment Method", runs[1].Title)
	assert.Equal(t, 4, runs[1].RowCount)
	assert.True(t, runs[1].StartedAt.Equal(base))
}

func TestRecord_GeneratesID(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Record(context.Background(), Run{Title: "q", Status: "success"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	other, err := s.Record(context.Background(), Run{Title: "q", Status: "success"})
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}

func TestRecentRuns_Limit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.Record(ctx, Run{Title: "q", Status: "success"})
		require.NoError(t, err)
	}

	runs, err := s.RecentRuns(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestRecentRuns_Empty(t *testing.T) {
	s := newTestStore(t)

	runs, err := s.RecentRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Record(context.Background(), Run{Title: "persisted", Status: "success"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening runs migrations idempotently and keeps existing rows.
	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	runs, err := s.RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "persisted", runs[0].Title)
}
