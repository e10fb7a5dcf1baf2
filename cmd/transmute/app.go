package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dusk-indust/transmute/internal/config"
	"github.com/dusk-indust/transmute/internal/logging"
	"github.com/dusk-indust/transmute/internal/metrics"
	"github.com/dusk-indust/transmute/internal/oracle"
	"github.com/dusk-indust/transmute/internal/orchestrator"
	"github.com/dusk-indust/transmute/internal/planner"
	"github.com/dusk-indust/transmute/internal/retrieval"
	"github.com/dusk-indust/transmute/internal/service"
)

// app holds the components one command invocation uses.
type app struct {
	cfg      *config.Config
	log      logr.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	docs     *retrieval.Provider
	sup      *planner.Supervisor
	pipeline *orchestrator.Pipeline
	svc      *service.Service

	closers []func() error
}

// loadConfig reads the config and applies flag overrides.
func loadConfig(g *Globals) (*config.Config, error) {
	cfg, err := config.Load(g.ConfigDir)
	if err != nil {
		return nil, err
	}
	if g.Provider != "" {
		cfg.LLM.Provider = g.Provider
	}
	if g.Model != "" {
		cfg.LLM.Model = g.Model
	}
	if g.OutputDir != "" {
		cfg.OutputDir = g.OutputDir
	}
	if g.DocsDir != "" {
		cfg.Retrieval.DocsDir = g.DocsDir
	}
	if g.Verbose > cfg.Log.Verbosity {
		cfg.Log.Verbosity = g.Verbose
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp wires config, logging, metrics, retrieval, the oracle chain, the
// supervisor and the pipeline.
func newApp(ctx context.Context, g *Globals) (*app, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}

	log, closeLog, err := logging.New(logging.Options{
		File:      cfg.Log.File,
		Verbosity: cfg.Log.Verbosity,
		Name:      "transmute",
	})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, closers: []func() error{closeLog}}
	if cfg.Source != "" {
		log.V(1).Info("config loaded", "file", cfg.Source)
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)

	a.docs = retrieval.NewProvider(a.buildIndex)
	a.closers = append(a.closers, a.docs.Close)

	deps := oracle.Deps{CacheTTL: cfg.Cache.TTL, Metrics: a.metrics, Logger: log.WithName("oracle")}
	if cfg.Cache.Enabled() {
		cache, closeCache, err := newCache(ctx, cfg.Cache)
		if err != nil {
			a.close()
			return nil, err
		}
		deps.Cache = cache
		a.closers = append(a.closers, closeCache)
	}

	o, err := oracle.Build(ctx, cfg.OracleSettings(), deps)
	if err != nil {
		a.close()
		return nil, err
	}

	stages := orchestrator.DefaultStages()
	a.sup = planner.NewSupervisor(stages, a.docs, o, planner.Options{
		K:       cfg.Retrieval.K,
		Logger:  log.WithName("planner"),
		Metrics: a.metrics,
	})
	a.pipeline = orchestrator.NewPipeline(orchestrator.Config{
		Stages:      stages,
		K:           cfg.Retrieval.K,
		RequirePlan: cfg.RequirePlan,
		Logger:      log.WithName("pipeline"),
		Metrics:     a.metrics,
	}, a.docs, o, orchestrator.WithSupervisor(a.sup))

	a.svc = a.service(false)
	return a, nil
}

func (a *app) service(zip bool) *service.Service {
	return service.New(a.pipeline, a.pipeline.Stages(), a.sup, a.docs, service.Config{
		OutputDir: a.cfg.OutputDir,
		Zip:       zip,
		Logger:    a.log.WithName("service"),
	})
}

// buildIndex builds the documentation index on the configured backend.
func (a *app) buildIndex(ctx context.Context) (*retrieval.Index, error) {
	rc := a.cfg.Retrieval

	var (
		store retrieval.Store
		err   error
	)
	switch rc.Backend {
	case config.BackendVector:
		store = retrieval.NewVectorStore(a.embedder(), 4)
	case config.BackendPGVector:
		store, err = retrieval.NewPGVectorStore(ctx, rc.DatabaseURL, a.embedder(), rc.EmbedDim)
	default:
		store, err = retrieval.NewLexicalStore()
	}
	if err != nil {
		return nil, err
	}

	return retrieval.Build(ctx, rc.DocsDir, retrieval.Options{
		ChunkSize:    rc.ChunkSize,
		ChunkOverlap: rc.ChunkOverlap,
		Store:        store,
		Logger:       a.log.WithName("retrieval"),
		Metrics:      a.metrics,
	})
}

func (a *app) embedder() *retrieval.OllamaEmbedder {
	rc := a.cfg.Retrieval
	return retrieval.NewOllamaEmbedder(rc.EmbedURL, rc.EmbedModel, retrieval.WithEmbedDimension(rc.EmbedDim))
}

// newCache returns the Redis cache when a URL is configured, otherwise an
// in-process one.
func newCache(ctx context.Context, cc config.CacheConfig) (oracle.Cache, func() error, error) {
	if cc.RedisURL == "" {
		return oracle.NewMemoryCache(), func() error { return nil }, nil
	}
	rc, err := oracle.NewRedisCacheFromURL(ctx, cc.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("cache: %w", err)
	}
	return rc, rc.Close, nil
}

// close releases everything in reverse order of acquisition.
func (a *app) close() error {
	if a.pipeline != nil {
		a.pipeline.Close()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
