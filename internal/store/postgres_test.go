package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Salah021-coder/start-up-sub000/internal/geo"
	"github.com/Salah021-coder/start-up-sub000/internal/pipeline"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS analyses`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveAnalysis(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	an := newTestAnalysis(t, "a-1", "residential", 0)

	mock.ExpectExec(`INSERT INTO analyses \(id, created_at, target_use, overall_score, risk_level, top_use, boundary_ewkb, payload\) VALUES \(\$1, .*\$8\) ON CONFLICT \(id\) DO UPDATE`).
		WithArgs("a-1", baseTime, "residential", an.Result.OverallScore, "high", an.Result.Recommendations[0].UsageType, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveAnalysis(context.Background(), an))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveAnalysis_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO analyses`).WillReturnError(errors.New("connection reset"))

	err := s.SaveAnalysis(context.Background(), newTestAnalysis(t, "a-1", "residential", 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: save analysis a-1")
}

func TestPostgresStore_SaveAnalyses_BulkUpsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_analyses"`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_analyses"}, analysisColumns).WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "analyses" .* ON CONFLICT \("id"\) DO UPDATE SET`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()
	mock.ExpectRollback()

	err := s.SaveAnalyses(context.Background(), []*pipeline.Analysis{
		newTestAnalysis(t, "a-1", "residential", 0),
		newTestAnalysis(t, "a-2", "agricultural", 0),
	})
	require.NoError(t, err)
}

func TestPostgresStore_SaveAnalyses_RejectsMissingID(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	err := s.SaveAnalyses(context.Background(), []*pipeline.Analysis{newTestAnalysis(t, "", "residential", 0)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis id is required")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetAnalysis(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	an := newTestAnalysis(t, "a-1", "residential", 0)
	payload, err := json.Marshal(an)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT payload FROM analyses WHERE id = \$1`).
		WithArgs("a-1").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(payload))

	got, err := s.GetAnalysis(context.Background(), "a-1")
	require.NoError(t, err)
	assertSameAnalysis(t, an, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetAnalysis_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT payload FROM analyses WHERE id = \$1`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetAnalysis(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListAnalyses(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"id", "created_at", "target_use", "overall_score", "risk_level", "top_use"}).
		AddRow("a-2", baseTime, "residential", 7.25, "medium", "residential").
		AddRow("a-1", baseTime, "residential", 6.5, "high", "agricultural")

	mock.ExpectQuery(`FROM analyses WHERE target_use = \$1 AND risk_level = \$2 ORDER BY created_at DESC, id LIMIT \$3 OFFSET \$4`).
		WithArgs("residential", "medium", 10, 5).
		WillReturnRows(rows)

	list, err := s.ListAnalyses(context.Background(), ListFilter{TargetUse: "residential", RiskLevel: "medium", Limit: 10, Offset: 5})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a-2", list[0].ID)
	assert.InDelta(t, 7.25, list[0].OverallScore, 1e-9)
	assert.Equal(t, "agricultural", list[1].TopUse)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListAnalyses_DefaultLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM analyses ORDER BY created_at DESC, id LIMIT \$1 OFFSET \$2`).
		WithArgs(defaultListLimit, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "target_use", "overall_score", "risk_level", "top_use"}))

	list, err := s.ListAnalyses(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteAnalysis(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM analyses WHERE id = \$1`).WithArgs("a-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM analyses WHERE id = \$1`).WithArgs("a-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, s.DeleteAnalysis(context.Background(), "a-1"))
	assert.ErrorIs(t, s.DeleteAnalysis(context.Background(), "a-1"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBoundaryEWKB(t *testing.T) {
	b, err := geo.ParseGeoJSON([]byte(`{"type":"Polygon","coordinates":[[[3,36],[3.1,36],[3.1,36.1],[3,36.1],[3,36]]]}`))
	require.NoError(t, err)

	a, err := analysisWithBoundary(t, b)
	require.NoError(t, err)
	data := boundaryEWKB(a)
	want, err := b.EWKB()
	require.NoError(t, err)
	assert.Equal(t, want, data)

	assert.Nil(t, boundaryEWKB(newTestAnalysis(t, "x", "", 0)))
}

func analysisWithBoundary(t *testing.T, b *geo.Boundary) (*pipeline.Analysis, error) {
	t.Helper()
	an := newTestAnalysis(t, "x", "", 0)
	sec, err := b.Section()
	if err != nil {
		return nil, err
	}
	an.Features = an.Features.WithBoundary(sec)
	return an, nil
}
