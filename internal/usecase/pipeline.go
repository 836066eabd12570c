package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"DailyBriefing/internal/briefing"
	"DailyBriefing/internal/classify"
	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/ingest"
	"DailyBriefing/internal/opml"
	"DailyBriefing/internal/ports"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source      ports.FeedSource
	Store       ports.ArticleStore
	Ingestor    *ingest.Ingestor
	Coordinator *classify.Coordinator
	Assembler   *briefing.Assembler
	Dispatcher  Dispatcher
	OPMLPath    string
	ClassifyCap int
	Location    *time.Location
	Logger      *slog.Logger
}

// Dispatcher fans a rendered briefing out to delivery channels.
type Dispatcher interface {
	Dispatch(ctx context.Context, briefing domain.RenderedBriefing) map[domain.Channel]bool
}

// Pipeline implements the daily briefing workflow as independent steps plus
// a combined run. Each step fails on its own; the combined run logs a failed
// step and continues with the next so a dead feed list never blocks delivery
// of already-classified articles.
type Pipeline struct {
	source      ports.FeedSource
	store       ports.ArticleStore
	ingestor    *ingest.Ingestor
	coordinator *classify.Coordinator
	assembler   *briefing.Assembler
	dispatcher  Dispatcher
	opmlPath    string
	classifyCap int
	loc         *time.Location
	logger      *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:      deps.Source,
		store:       deps.Store,
		ingestor:    deps.Ingestor,
		coordinator: deps.Coordinator,
		assembler:   deps.Assembler,
		dispatcher:  deps.Dispatcher,
		opmlPath:    deps.OPMLPath,
		classifyCap: deps.ClassifyCap,
		loc:         loc,
		logger:      logger.With("component", "pipeline"),
	}
}

// Fetch loads the feed list, pulls every feed, and ingests fresh entries.
// A missing or malformed feed list yields an empty run, not a failure: the
// rest of the workflow still operates on previously stored articles.
func (p *Pipeline) Fetch(ctx context.Context) (ingest.Report, error) {
	feeds, err := opml.ParseFile(p.opmlPath)
	if err != nil {
		p.logger.Warn("feed list unavailable, skipping fetch", "path", p.opmlPath, "error", err)
		return ingest.Report{}, nil
	}
	if len(feeds) == 0 {
		p.logger.Warn("feed list is empty", "path", p.opmlPath)
		return ingest.Report{}, nil
	}

	articles, err := p.source.FetchAll(ctx, feeds)
	if err != nil {
		return ingest.Report{}, fmt.Errorf("fetch feeds: %w", err)
	}

	report, err := p.ingestor.Ingest(ctx, articles, time.Time{})
	if err != nil {
		return report, fmt.Errorf("ingest articles: %w", err)
	}
	p.logger.Info("fetch pass complete", "feeds", len(feeds), "fetched", report.Fetched, "added", report.Added)
	return report, nil
}

// Process classifies pending articles up to the configured cap.
func (p *Pipeline) Process(ctx context.Context) ([]classify.Outcome, error) {
	outcomes, err := p.coordinator.ClassifyPending(ctx, p.classifyCap)
	if err != nil {
		return nil, fmt.Errorf("classify pending: %w", err)
	}
	return outcomes, nil
}

// Briefing assembles, stores, and dispatches the briefing for the given day.
// A day with zero selected articles produces nothing: no stored briefing and
// no outbound messages.
func (p *Pipeline) Briefing(ctx context.Context, day time.Time) (map[domain.Channel]bool, error) {
	rendered, err := p.assembler.BuildForDate(ctx, day)
	if err != nil {
		return nil, err
	}
	if rendered.ArticleCount == 0 {
		p.logger.Info("no articles for briefing, skipping", "date", rendered.Date)
		return nil, nil
	}

	err = p.store.UpsertBriefing(ctx, domain.Briefing{
		Date:         rendered.Date,
		Content:      rendered.Markdown,
		ArticleCount: rendered.ArticleCount,
	})
	if err != nil {
		return nil, fmt.Errorf("store briefing %s: %w", rendered.Date, err)
	}

	return p.dispatcher.Dispatch(ctx, rendered), nil
}

// Run executes the whole daily workflow for the given trigger time. Steps
// are isolated: a failure is logged and the workflow moves on.
func (p *Pipeline) Run(ctx context.Context, trigger time.Time) {
	p.logger.Info("daily workflow started", "date", briefing.DateKey(trigger, p.loc))

	if _, err := p.Fetch(ctx); err != nil {
		p.logger.Error("fetch step failed", "error", err)
	}
	if _, err := p.Process(ctx); err != nil {
		p.logger.Error("classification step failed", "error", err)
	}
	if _, err := p.Briefing(ctx, trigger); err != nil {
		p.logger.Error("briefing step failed", "error", err)
	}

	p.logger.Info("daily workflow finished")
}
