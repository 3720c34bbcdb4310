package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Salah021-coder/start-up-sub000/internal/config"
	"github.com/Salah021-coder/start-up-sub000/internal/model"
	"github.com/Salah021-coder/start-up-sub000/internal/pipeline"
)

var baseTime = time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

// newTestAnalysis runs a real analysis on an empty feature set and pins its
// identity so tests can order and look it up.
func newTestAnalysis(t *testing.T, id, targetUse string, offset time.Duration) *pipeline.Analysis {
	t.Helper()
	a, err := pipeline.New(config.ScoringConfig{
		AHPWeight: 0.4,
		MLWeight:  0.6,
		ModelPath: filepath.Join(t.TempDir(), "missing.json"),
	})
	require.NoError(t, err)

	an, err := a.Analyze(pipeline.Request{Features: &model.FeatureSet{}, TargetUse: targetUse})
	require.NoError(t, err)
	an.ID = id
	an.CreatedAt = baseTime.Add(offset)
	return an
}

func assertSameAnalysis(t *testing.T, want, got *pipeline.Analysis) {
	t.Helper()
	w, err := json.Marshal(want)
	require.NoError(t, err)
	g, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(w), string(g))
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("SaveAndGet", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		an := newTestAnalysis(t, "a-1", "residential", 0)
		require.NoError(t, s.SaveAnalysis(ctx, an))

		got, err := s.GetAnalysis(ctx, "a-1")
		require.NoError(t, err)
		assert.Equal(t, "a-1", got.ID)
		assert.True(t, an.CreatedAt.Equal(got.CreatedAt))
		assertSameAnalysis(t, an, got)
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.SaveAnalysis(ctx, newTestAnalysis(t, "a-1", "residential", 0)))
		require.NoError(t, s.SaveAnalysis(ctx, newTestAnalysis(t, "a-1", "industrial", 0)))

		got, err := s.GetAnalysis(ctx, "a-1")
		require.NoError(t, err)
		assert.Equal(t, "industrial", got.TargetUse)

		list, err := s.ListAnalyses(ctx, ListFilter{})
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("SaveRequiresID", func(t *testing.T) {
		s := newStore(t)
		an := newTestAnalysis(t, "", "residential", 0)
		assert.Error(t, s.SaveAnalysis(context.Background(), an))
	})

	t.Run("GetNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetAnalysis(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("SaveAnalysesAndList", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.SaveAnalyses(ctx, []*pipeline.Analysis{
			newTestAnalysis(t, "old", "residential", 0),
			newTestAnalysis(t, "mid", "agricultural", time.Hour),
			newTestAnalysis(t, "new", "residential", 2*time.Hour),
		}))

		list, err := s.ListAnalyses(ctx, ListFilter{})
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "new", list[0].ID)
		assert.Equal(t, "mid", list[1].ID)
		assert.Equal(t, "old", list[2].ID)
		assert.Equal(t, "high", list[0].RiskLevel)
		assert.NotEmpty(t, list[0].TopUse)

		list, err = s.ListAnalyses(ctx, ListFilter{TargetUse: "residential"})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "new", list[0].ID)

		list, err = s.ListAnalyses(ctx, ListFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "mid", list[0].ID)

		list, err = s.ListAnalyses(ctx, ListFilter{RiskLevel: "low"})
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("SaveAnalysesEmpty", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.SaveAnalyses(context.Background(), nil))
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.SaveAnalysis(ctx, newTestAnalysis(t, "a-1", "residential", 0)))
		require.NoError(t, s.DeleteAnalysis(ctx, "a-1"))

		_, err := s.GetAnalysis(ctx, "a-1")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.DeleteAnalysis(ctx, "a-1"), ErrNotFound)
	})

	t.Run("MigrateIdempotent", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Migrate(context.Background()))
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "open.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, config.StoreConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported driver "mysql"`)

	_, err = Open(ctx, config.StoreConfig{Driver: "postgres", DatabaseURL: "://not a url"})
	assert.Error(t, err)
}

func TestListFilter_Limit(t *testing.T) {
	assert.Equal(t, defaultListLimit, ListFilter{}.limit())
	assert.Equal(t, defaultListLimit, ListFilter{Limit: -3}.limit())
	assert.Equal(t, 7, ListFilter{Limit: 7}.limit())
}
