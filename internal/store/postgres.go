package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Salah021-coder/start-up-sub000/internal/db"
	"github.com/Salah021-coder/start-up-sub000/internal/geo"
	"github.com/Salah021-coder/start-up-sub000/internal/pipeline"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id            TEXT PRIMARY KEY,
	created_at    TIMESTAMPTZ NOT NULL,
	target_use    TEXT NOT NULL,
	overall_score DOUBLE PRECISION NOT NULL,
	risk_level    TEXT NOT NULL,
	top_use       TEXT NOT NULL DEFAULT '',
	boundary_ewkb BYTEA,
	payload       JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_analyses_target_use ON analyses(target_use);
`

// analysisColumns is the column order used by both the single-row insert
// and the bulk COPY path.
var analysisColumns = []string{
	"id", "created_at", "target_use", "overall_score", "risk_level", "top_use", "boundary_ewkb", "payload",
}

var analysesUpsert = db.UpsertConfig{
	Table:        "analyses",
	Columns:      analysisColumns,
	ConflictKeys: []string{"id"},
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveAnalysis(ctx context.Context, an *pipeline.Analysis) error {
	row, err := analysisRow(an)
	if err != nil {
		return err
	}
	placeholders := make([]string, len(analysisColumns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(
		`INSERT INTO analyses (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET
	target_use = EXCLUDED.target_use,
	overall_score = EXCLUDED.overall_score,
	risk_level = EXCLUDED.risk_level,
	top_use = EXCLUDED.top_use,
	boundary_ewkb = EXCLUDED.boundary_ewkb,
	payload = EXCLUDED.payload`,
		strings.Join(analysisColumns, ", "), strings.Join(placeholders, ", "),
	)
	if _, err := s.pool.Exec(ctx, query, row...); err != nil {
		return eris.Wrapf(err, "postgres: save analysis %s", an.ID)
	}
	return nil
}

// SaveAnalyses bulk-loads analyses through a COPY staging table.
func (s *PostgresStore) SaveAnalyses(ctx context.Context, ans []*pipeline.Analysis) error {
	if len(ans) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(ans))
	for _, an := range ans {
		row, err := analysisRow(an)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	n, err := db.BulkUpsert(ctx, s.pool, analysesUpsert, rows)
	if err != nil {
		return eris.Wrap(err, "postgres: save analyses")
	}
	zap.L().Debug("postgres: saved analyses", zap.Int("requested", len(ans)), zap.Int64("affected", n))
	return nil
}

func analysisRow(an *pipeline.Analysis) ([]any, error) {
	if an == nil || an.ID == "" {
		return nil, eris.New("postgres: analysis id is required")
	}
	payload, err := json.Marshal(an)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal analysis")
	}
	sum := an.Summarize()
	return []any{
		sum.ID, sum.CreatedAt.UTC(), sum.TargetUse, sum.OverallScore, sum.RiskLevel, sum.TopUse,
		boundaryEWKB(an), payload,
	}, nil
}

// boundaryEWKB returns the parcel outline for the geometry column, or nil
// when the analysis carries none.
func boundaryEWKB(an *pipeline.Analysis) []byte {
	if an.Features == nil || an.Features.Boundary == nil || len(an.Features.Boundary.GeoJSON) == 0 {
		return nil
	}
	b, err := geo.BoundaryFromSection(an.Features.Boundary)
	if err != nil {
		zap.L().Warn("postgres: skipping unreadable boundary", zap.String("analysis_id", an.ID), zap.Error(err))
		return nil
	}
	data, err := b.EWKB()
	if err != nil {
		zap.L().Warn("postgres: skipping boundary encoding", zap.String("analysis_id", an.ID), zap.Error(err))
		return nil
	}
	return data
}

func (s *PostgresStore) GetAnalysis(ctx context.Context, id string) (*pipeline.Analysis, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM analyses WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get analysis %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get analysis %s", id)
	}
	return decodeAnalysis(payload)
}

func (s *PostgresStore) ListAnalyses(ctx context.Context, filter ListFilter) ([]pipeline.Summary, error) {
	query := `SELECT id, created_at, target_use, overall_score, risk_level, top_use FROM analyses`
	var where []string
	var args []any
	if filter.TargetUse != "" {
		args = append(args, filter.TargetUse)
		where = append(where, fmt.Sprintf("target_use = $%d", len(args)))
	}
	if filter.RiskLevel != "" {
		args = append(args, filter.RiskLevel)
		where = append(where, fmt.Sprintf("risk_level = $%d", len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, filter.limit(), filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list analyses")
	}
	defer rows.Close()

	var out []pipeline.Summary
	for rows.Next() {
		var sum pipeline.Summary
		if err := rows.Scan(&sum.ID, &sum.CreatedAt, &sum.TargetUse, &sum.OverallScore, &sum.RiskLevel, &sum.TopUse); err != nil {
			return nil, eris.Wrap(err, "postgres: scan analysis")
		}
		sum.CreatedAt = sum.CreatedAt.UTC()
		out = append(out, sum)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate analyses")
}

func (s *PostgresStore) DeleteAnalysis(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM analyses WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete analysis %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: analysis %s", id)
	}
	return nil
}
