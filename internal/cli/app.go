package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jobscoutbot/jobscout/internal/config"
	"github.com/jobscoutbot/jobscout/internal/connector"
	"github.com/jobscoutbot/jobscout/internal/database"
	"github.com/jobscoutbot/jobscout/internal/ingest"
	"github.com/jobscoutbot/jobscout/internal/logger"
	"github.com/jobscoutbot/jobscout/internal/repository"
	"github.com/jobscoutbot/jobscout/internal/service"
)

// application bundles everything a command needs after bootstrap.
type application struct {
	cfg     *config.Config
	logger  *zap.Logger
	pool    *pgxpool.Pool
	sources []config.Source

	companiesRepo repository.CompaniesRepository
	postingsRepo  repository.PostingsRepository
	fetchLogRepo  repository.FetchLogRepository
	runsRepo      repository.RunsRepository

	companiesService *service.CompaniesService
	postingsService  *service.PostingsService

	orchestrator *ingest.Orchestrator
}

// newApplication loads config, connects the database, applies the schema
// and wires the full service graph.
func newApplication(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(jsonFlag, debugFlag)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := database.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	sources, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("load source registry: %w", err)
	}

	app := &application{
		cfg:     cfg,
		logger:  log,
		pool:    pool,
		sources: sources,
	}

	app.companiesRepo = repository.NewPGXCompaniesRepository(pool)
	app.postingsRepo = repository.NewPGXPostingsRepository(pool)
	app.fetchLogRepo = repository.NewPGXFetchLogRepository(pool)
	app.runsRepo = repository.NewPGXRunsRepository(pool)

	app.companiesService = service.NewCompaniesService(app.companiesRepo, log)
	app.postingsService = service.NewPostingsService(app.postingsRepo, log)

	connectors := connector.NewSet(cfg.HTTPTimeout, cfg.PageTimeout)
	app.orchestrator = ingest.New(
		connectors,
		app.companiesRepo,
		app.postingsRepo,
		app.fetchLogRepo,
		app.runsRepo,
		log,
		ingest.Options{Parallelism: cfg.Parallelism, SourceDelay: cfg.SourceDelay},
	)

	return app, nil
}

// Close releases the database pool and flushes buffered log entries.
func (a *application) Close() {
	a.pool.Close()
	_ = a.logger.Sync()
}
