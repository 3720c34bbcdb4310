package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/Salah021-coder/start-up-sub000/internal/pipeline"
	"github.com/Salah021-coder/start-up-sub000/internal/store"
)

// analysisEnv holds the analyzer and, when requested, an opened store.
type analysisEnv struct {
	Analyzer *pipeline.Analyzer
	Store    store.Store // may be nil
}

// Close releases resources held by the environment.
func (e *analysisEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv validates config for mode, builds the analyzer and opens the store
// when withStore is set. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string, withStore bool) (*analysisEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	if withStore && mode != "store" && mode != "serve" {
		if err := cfg.Validate("store"); err != nil {
			return nil, err
		}
	}

	analyzer, err := pipeline.New(cfg.Scoring)
	if err != nil {
		return nil, eris.Wrap(err, "init analyzer")
	}
	env := &analysisEnv{Analyzer: analyzer}

	if withStore {
		st, err := initStore(ctx)
		if err != nil {
			return nil, err
		}
		env.Store = st
	}
	return env, nil
}

// initStore opens and migrates the configured store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
