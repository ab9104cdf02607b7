package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ersonp/legis/internal/application/handlers"
	"github.com/ersonp/legis/internal/domain/ports"
	"github.com/ersonp/legis/internal/domain/services"
	"github.com/ersonp/legis/internal/infrastructure/config"
	embedder "github.com/ersonp/legis/internal/infrastructure/embedder/openai"
	"github.com/ersonp/legis/internal/infrastructure/fetcher"
	llm "github.com/ersonp/legis/internal/infrastructure/llm/openai"
	"github.com/ersonp/legis/internal/infrastructure/logging"
	"github.com/ersonp/legis/internal/infrastructure/metrics"
	"github.com/ersonp/legis/internal/infrastructure/relationaldb/sqlite"
	"github.com/ersonp/legis/internal/infrastructure/rendercache"
	"github.com/ersonp/legis/internal/infrastructure/vectordb/qdrant"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *metrics.Prometheus
	Variables *handlers.VariableHandler
	Points    *handlers.PointHandler
	Render    *handlers.RenderHandler
	Monitor   *handlers.MonitorHandler
	Import    *handlers.ImportHandler
	Seed      *handlers.SeedHandler
}

// internalDeps holds all dependencies including low-level components.
type internalDeps struct {
	Deps
	relationalDB *sqlite.Repository
}

// withDeps loads config and builds dependencies, then calls the provided function.
// It handles cleanup automatically.
func withDeps(ctx context.Context, mode logging.Mode, fn func(*Deps) error) error {
	return withInternalDeps(ctx, mode, func(d *internalDeps) error {
		return fn(&d.Deps)
	})
}

// withInternalDeps wires every component. Search and suggestion are only
// built when an OpenAI key is configured.
func withInternalDeps(ctx context.Context, mode logging.Mode, fn func(*internalDeps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(mode)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	relationalDB, err := sqlite.NewRepository(cfg.SQLite)
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer relationalDB.Close()

	if err := relationalDB.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	cache, closeCache, err := rendercache.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("creating render cache: %w", err)
	}
	defer func() { _ = closeCache() }()

	m := metrics.New()

	variableService := services.NewVariableService(relationalDB, logger)
	registryService := services.NewRegistryService(relationalDB, variableService, logger)
	statisticsService := services.NewStatisticsService(relationalDB)
	renderService := services.NewRenderService(relationalDB)
	importService := services.NewImportService(relationalDB, variableService, logger)

	var searchService *services.SearchService
	if cfg.Embedder.APIKey != "" {
		emb, err := embedder.NewEmbedder(cfg.Embedder)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}
		repo, err := qdrant.NewRepository(cfg.Qdrant)
		if err != nil {
			return fmt.Errorf("creating qdrant repository: %w", err)
		}
		defer repo.Close()
		searchService = services.NewSearchService(relationalDB, emb, repo, repo, logger)
	}

	var suggestionService *services.SuggestionService
	if cfg.LLM.APIKey != "" {
		llmClient, err := llm.NewClient(cfg.LLM)
		if err != nil {
			return fmt.Errorf("creating llm client: %w", err)
		}
		suggestionService = services.NewSuggestionService(relationalDB, fetcher.New(cfg.Fetcher), llmClient, logger)
	}

	deps := &internalDeps{
		Deps: Deps{
			Config:    cfg,
			Logger:    logger,
			Metrics:   m,
			Variables: handlers.NewVariableHandler(variableService, searchService, m, logger),
			Points:    handlers.NewPointHandler(registryService, statisticsService, suggestionService, m, logger),
			Render:    handlers.NewRenderHandler(renderService, cache, m, logger),
			Monitor:   handlers.NewMonitorHandler(registryService, statisticsService, variableService, m, logger),
			Import:    handlers.NewImportHandler(importService),
			Seed:      handlers.NewSeedHandler(variableService, registryService, logger),
		},
		relationalDB: relationalDB,
	}

	return fn(deps)
}

// withRelationalDB provides direct relational database access.
func withRelationalDB(ctx context.Context, fn func(ports.RelationalDB) error) error {
	return withInternalDeps(ctx, cliMode(), func(d *internalDeps) error {
		return fn(d.relationalDB)
	})
}

func cliMode() logging.Mode {
	return logging.CLIMode(globalVerbose)
}
