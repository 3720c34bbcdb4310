package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/Salah021-coder/start-up-sub000/internal/pipeline"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id            TEXT PRIMARY KEY,
	created_at    DATETIME NOT NULL,
	target_use    TEXT NOT NULL,
	overall_score REAL NOT NULL,
	risk_level    TEXT NOT NULL,
	top_use       TEXT NOT NULL DEFAULT '',
	payload       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
CREATE INDEX IF NOT EXISTS idx_analyses_target_use ON analyses(target_use);
`

const sqliteUpsert = `INSERT INTO analyses (id, created_at, target_use, overall_score, risk_level, top_use, payload)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	target_use = excluded.target_use,
	overall_score = excluded.overall_score,
	risk_level = excluded.risk_level,
	top_use = excluded.top_use,
	payload = excluded.payload`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, an *pipeline.Analysis) error {
	return saveSQLite(ctx, s.db, an)
}

// SaveAnalyses writes all analyses in one transaction.
func (s *SQLiteStore) SaveAnalyses(ctx context.Context, ans []*pipeline.Analysis) error {
	if len(ans) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, an := range ans {
		if err := saveSQLite(ctx, tx, an); err != nil {
			return err
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit analyses")
}

func saveSQLite(ctx context.Context, ex execer, an *pipeline.Analysis) error {
	if an == nil || an.ID == "" {
		return eris.New("sqlite: analysis id is required")
	}
	payload, err := json.Marshal(an)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal analysis")
	}
	sum := an.Summarize()
	_, err = ex.ExecContext(ctx, sqliteUpsert,
		sum.ID, sum.CreatedAt.UTC(), sum.TargetUse, sum.OverallScore, sum.RiskLevel, sum.TopUse, string(payload),
	)
	return eris.Wrapf(err, "sqlite: save analysis %s", an.ID)
}

func (s *SQLiteStore) GetAnalysis(ctx context.Context, id string) (*pipeline.Analysis, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM analyses WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get analysis %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get analysis %s", id)
	}
	return decodeAnalysis([]byte(payload))
}

func (s *SQLiteStore) ListAnalyses(ctx context.Context, filter ListFilter) ([]pipeline.Summary, error) {
	query := `SELECT id, created_at, target_use, overall_score, risk_level, top_use FROM analyses`
	var where []string
	var args []any
	if filter.TargetUse != "" {
		where = append(where, "target_use = ?")
		args = append(args, filter.TargetUse)
	}
	if filter.RiskLevel != "" {
		where = append(where, "risk_level = ?")
		args = append(args, filter.RiskLevel)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, filter.limit(), filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list analyses")
	}
	defer rows.Close()

	var out []pipeline.Summary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate analyses")
}

func (s *SQLiteStore) DeleteAnalysis(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete analysis %s", id)
	}
	return checkRowsAffected(res, id)
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: analysis %s", id)
	}
	return nil
}

// scannable abstracts *sql.Row and *sql.Rows for scanning.
type scannable interface {
	Scan(dest ...any) error
}

func scanSummary(row scannable) (pipeline.Summary, error) {
	var (
		sum       pipeline.Summary
		createdAt time.Time
	)
	if err := row.Scan(&sum.ID, &createdAt, &sum.TargetUse, &sum.OverallScore, &sum.RiskLevel, &sum.TopUse); err != nil {
		return sum, eris.Wrap(err, "sqlite: scan analysis")
	}
	sum.CreatedAt = createdAt.UTC()
	return sum, nil
}

func decodeAnalysis(payload []byte) (*pipeline.Analysis, error) {
	var an pipeline.Analysis
	if err := json.Unmarshal(payload, &an); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal analysis")
	}
	return &an, nil
}
