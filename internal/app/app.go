package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"DailyBriefing/internal/briefing"
	"DailyBriefing/internal/classify"
	"DailyBriefing/internal/config"
	"DailyBriefing/internal/dispatch"
	"DailyBriefing/internal/infrastructure/email"
	"DailyBriefing/internal/infrastructure/llm"
	"DailyBriefing/internal/infrastructure/rss"
	"DailyBriefing/internal/infrastructure/scheduler"
	"DailyBriefing/internal/infrastructure/slackchan"
	"DailyBriefing/internal/infrastructure/storage"
	"DailyBriefing/internal/infrastructure/telegram"
	"DailyBriefing/internal/ingest"
	"DailyBriefing/internal/logging"
	"DailyBriefing/internal/ports"
	"DailyBriefing/internal/usecase"
)

// Application wires configuration to adapters, use cases, and lifecycle.
type Application struct {
	cfg        config.Config
	store      *storage.Postgres
	pipeline   *usecase.Pipeline
	scheduler  *usecase.Scheduler
	publishers []ports.Publisher
	logger     *slog.Logger
}

// New connects the database, applies the schema, and builds the full
// workflow graph.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	loc := cfg.Scheduler.Location()

	httpClient := &http.Client{Timeout: cfg.Fetch.Timeout.Std()}
	fetcher := rss.NewFetcher(httpClient, cfg.Fetch.BatchSize, cfg.Fetch.FeedDelay.Std(),
		baseLogger.With("component", "rss"))
	ingestor := ingest.NewIngestor(store, cfg.Fetch.Window.Std(), baseLogger)
	coordinator := classify.NewCoordinator(store, llm.NewZhipuClient(cfg.Zhipu),
		cfg.Classify.Concurrency, cfg.Classify.BatchPause.Std(),
		baseLogger.With("component", "classify"))
	assembler := briefing.NewAssembler(store, loc,
		cfg.Briefing.ArticleLimit, cfg.Briefing.HighlightLimit, cfg.Briefing.HighlightMinScore,
		baseLogger)

	publishers := []ports.Publisher{
		telegram.NewPublisher(cfg.Notifications.Telegram, baseLogger),
		slackchan.NewPublisher(cfg.Notifications.Slack, baseLogger),
		email.NewPublisher(cfg.Notifications.Email, baseLogger),
	}
	dispatcher := dispatch.NewDispatcher(store, publishers, baseLogger)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:      fetcher,
		Store:       store,
		Ingestor:    ingestor,
		Coordinator: coordinator,
		Assembler:   assembler,
		Dispatcher:  dispatcher,
		OPMLPath:    cfg.Feeds.OPMLPath,
		ClassifyCap: cfg.Classify.Limit,
		Location:    loc,
		Logger:      baseLogger,
	})

	driver, err := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, loc, baseLogger)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Application{
		cfg:        cfg,
		store:      store,
		pipeline:   pipeline,
		scheduler:  usecase.NewScheduler(driver, pipeline),
		publishers: publishers,
		logger:     baseLogger,
	}, nil
}

// Pipeline exposes the workflow use case.
func (a *Application) Pipeline() *usecase.Pipeline { return a.pipeline }

// Scheduler exposes the recurring-run controller.
func (a *Application) Scheduler() *usecase.Scheduler { return a.scheduler }

// Publishers returns the configured delivery channels.
func (a *Application) Publishers() []ports.Publisher { return a.publishers }

// Store exposes the persistence layer.
func (a *Application) Store() ports.ArticleStore { return a.store }

// Config returns the effective configuration.
func (a *Application) Config() config.Config { return a.cfg }

// Close releases held resources.
func (a *Application) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
