package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSQLite_WALMode(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "wal.db"))
	require.NoError(t, err)
	defer s.Close()

	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestSQLiteStore_CorruptPayload(t *testing.T) {
	s := newTestSQLite(t).(*SQLiteStore)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, created_at, target_use, overall_score, risk_level, payload) VALUES (?, ?, ?, ?, ?, ?)`,
		"bad", baseTime, "residential", 5.0, "low", "{not json",
	)
	require.NoError(t, err)

	_, err = s.GetAnalysis(ctx, "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal analysis")
}

func TestSQLiteStore_ClosedDB(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.ListAnalyses(context.Background(), ListFilter{})
	assert.Error(t, err)
	assert.Error(t, s.Migrate(context.Background()))
}
