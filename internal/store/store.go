// Package store persists completed analyses in SQLite or Postgres.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/Salah021-coder/start-up-sub000/internal/config"
	"github.com/Salah021-coder/start-up-sub000/internal/pipeline"
)

// ErrNotFound is returned when an analysis ID does not exist.
var ErrNotFound = eris.New("store: analysis not found")

// defaultListLimit caps ListAnalyses when the filter sets no limit.
const defaultListLimit = 100

// ListFilter specifies criteria for listing analyses.
type ListFilter struct {
	TargetUse string `json:"target_use,omitempty"`
	RiskLevel string `json:"risk_level,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

func (f ListFilter) limit() int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

// Store defines the persistence interface for analyses.
type Store interface {
	SaveAnalysis(ctx context.Context, an *pipeline.Analysis) error
	SaveAnalyses(ctx context.Context, ans []*pipeline.Analysis) error
	GetAnalysis(ctx context.Context, id string) (*pipeline.Analysis, error)
	// ListAnalyses returns summaries, newest first.
	ListAnalyses(ctx context.Context, filter ListFilter) ([]pipeline.Summary, error)
	DeleteAnalysis(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "landeval.db"
		}
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}
