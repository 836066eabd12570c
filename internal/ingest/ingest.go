// Package ingest merges freshly fetched articles into the store with
// at-most-once insertion per URL and a recency-window cutoff.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/ports"
)

const defaultWindow = 24 * time.Hour

// Report counts one ingestion pass for observability.
type Report struct {
	Fetched int
	Added   int
}

// Ingestor applies the cutoff filter and insert-if-absent semantics.
// Re-ingesting a known URL never touches the stored row, so annotations
// made after first ingestion (processed flag, classification) survive.
type Ingestor struct {
	store  ports.ArticleStore
	window time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewIngestor builds the pipeline stage; window defaults to 24h.
func NewIngestor(store ports.ArticleStore, window time.Duration, logger *slog.Logger) *Ingestor {
	if window <= 0 {
		window = defaultWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		store:  store,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// Ingest stores every fresh article published at or after the cutoff that is
// not already present. A zero cutoff means now minus the configured window.
// Duplicates are expected steady-state and counted, never surfaced as errors.
func (i *Ingestor) Ingest(ctx context.Context, fresh []domain.Article, cutoff time.Time) (Report, error) {
	if cutoff.IsZero() {
		cutoff = i.now().Add(-i.window)
	}

	report := Report{Fetched: len(fresh)}
	for _, article := range fresh {
		if article.PublishedAt.Before(cutoff) {
			continue
		}

		inserted, err := i.store.InsertIfAbsent(ctx, article)
		if err != nil {
			return report, fmt.Errorf("insert article %s: %w", article.URL, err)
		}
		if inserted {
			report.Added++
		}
	}

	i.logger.Info("ingestion pass done",
		"fetched", report.Fetched,
		"added", report.Added,
		"cutoff", cutoff.UTC().Format(time.RFC3339))
	return report, nil
}
