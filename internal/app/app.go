// Package app wires the advisor's dependencies from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/easeaico/finadvisor/internal/agent"
	"github.com/easeaico/finadvisor/internal/analysis"
	"github.com/easeaico/finadvisor/internal/cache"
	"github.com/easeaico/finadvisor/internal/config"
	"github.com/easeaico/finadvisor/internal/memory"
	"github.com/easeaico/finadvisor/internal/metrics"
	"github.com/easeaico/finadvisor/internal/models"
	"github.com/easeaico/finadvisor/internal/persona"
	"github.com/easeaico/finadvisor/internal/search"
	"github.com/easeaico/finadvisor/internal/storage"
	"github.com/easeaico/finadvisor/internal/utils"
)

// App holds the long-lived services.
type App struct {
	Advisor *agent.Advisor
	Store   *memory.Store
	Metrics *metrics.Metrics
	Model   string
}

// New opens the storage backend and builds the Advisor.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	rnd := utils.NewRand(cfg.RandomSeed)
	catalog := persona.NewCatalog()
	analyzer := analysis.NewAnalyzer(rnd)

	llm, err := models.NewModel(ctx, cfg.LLMProvider, cfg.LLMModel, cfg.APIKey())
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	backend, err := storage.Open(ctx, cfg.StorageOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.StorageBackend, err)
	}
	store := memory.NewStore(ctx, backend, analyzer, catalog, rnd)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	if len(cfg.SearxngURLs) == 0 {
		slog.Warn("SEARXNG_URLS not set, using the default instance", "url", search.DefaultSearxngURL)
	}
	searcher := search.New(search.Options{
		URLs:       cfg.SearxngURLs,
		Timeout:    cfg.SearchTimeout,
		MaxResults: cfg.SearchMaxResults,
		Observe:    m.ObserveSearch,
	})

	advisor := agent.New(agent.Deps{
		Memory:   store,
		Cache:    cache.New(cfg.CacheTTL),
		Analyzer: analyzer,
		Catalog:  catalog,
		Rand:     rnd,
		LLM:      models.NewGenerator(llm),
		Search:   searcher,
		Metrics:  m,
	}, agent.Options{
		Params:        cfg.Params(),
		LLMTimeout:    cfg.LLMTimeout,
		SearchResults: cfg.SearchMaxResults,
	})

	slog.Info("advisor ready",
		"provider", cfg.LLMProvider,
		"model", llm.Name(),
		"storage", cfg.StorageBackend,
	)
	return &App{Advisor: advisor, Store: store, Metrics: m, Model: llm.Name()}, nil
}

// Close releases the storage backend.
func (a *App) Close(ctx context.Context) error {
	return a.Store.Close(ctx)
}
