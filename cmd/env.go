package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tablefare/enrich-cli/internal/fetch"
	"github.com/tablefare/enrich-cli/internal/match"
	"github.com/tablefare/enrich-cli/internal/pipeline"
	"github.com/tablefare/enrich-cli/internal/resilience"
	"github.com/tablefare/enrich-cli/internal/snapshot"
	"github.com/tablefare/enrich-cli/internal/tripadvisor"
)

// pipelineEnv holds the initialized store and runner shared by the
// snapshot/match/serve commands.
type pipelineEnv struct {
	Store  snapshot.Store
	Runner *pipeline.Runner
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens the configured snapshot backend.
func initStore(ctx context.Context) (snapshot.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		st, err := snapshot.NewPostgres(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "cmd: open postgres store")
		}
		zap.L().Info("using postgres snapshot store")
		return st, nil
	case "sqlite", "":
		st, err := snapshot.NewSQLite(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "cmd: open sqlite store")
		}
		zap.L().Info("using sqlite snapshot store", zap.String("path", cfg.Store.DatabaseURL))
		return st, nil
	default:
		return nil, eris.Errorf("cmd: unknown store driver %q", cfg.Store.Driver)
	}
}

// initPipeline sets up the store, fetcher and matcher, and builds the
// runner. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "cmd: migrate store")
	}

	identities := fetch.NewIdentityPool(nil)
	if cfg.Fetch.IdentityFile != "" {
		identities, err = fetch.LoadIdentityPool(cfg.Fetch.IdentityFile)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
	}

	retry := resilience.DefaultPolicy()
	retry.MaxAttempts = cfg.Fetch.MaxAttempts

	fetcher := fetch.NewHTTPFetcher(fetch.Options{
		Timeout:           cfg.Fetch.Timeout(),
		Retry:             retry,
		Identities:        identities,
		RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
	})

	retriever := tripadvisor.NewRetriever(fetcher, cfg.Tripadvisor.BaseURL)
	validator := tripadvisor.NewValidator(fetcher)
	selector := match.NewSelector(retriever, validator)

	runner := pipeline.NewRunner(st, selector, pipeline.Options{
		Workers:   cfg.Batch.MaxConcurrentRecords,
		OutputDir: cfg.Output.Dir,
	})

	return &pipelineEnv{Store: st, Runner: runner}, nil
}
