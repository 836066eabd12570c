// Package classify selects unprocessed articles and runs them through the
// remote classifier with bounded concurrency.
package classify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/ports"
)

const (
	defaultConcurrency = 3
	defaultBatchPause  = time.Second
	progressEvery      = 10
)

// Outcome records one article's trip through the classifier. Result is nil
// when the call failed or the commit did not happen; such articles stay
// unprocessed and are naturally retried by the next invocation.
type Outcome struct {
	Article domain.Article
	Result  *domain.ClassifyResult
}

// Coordinator dispatches pending articles in sequential batches; entries
// within a batch run concurrently with no defined completion order.
type Coordinator struct {
	store       ports.ArticleStore
	chat        ports.ChatClient
	concurrency int
	batchPause  time.Duration
	logger      *slog.Logger
}

// NewCoordinator builds the stage; concurrency defaults to 3, pause to 1s.
func NewCoordinator(store ports.ArticleStore, chat ports.ChatClient, concurrency int, batchPause time.Duration, logger *slog.Logger) *Coordinator {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if batchPause < 0 {
		batchPause = defaultBatchPause
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		store:       store,
		chat:        chat,
		concurrency: concurrency,
		batchPause:  batchPause,
		logger:      logger,
	}
}

// ClassifyPending processes up to limit unprocessed articles, most recent
// first. Each article is committed independently: summary, category, score,
// and the processed flag land in a single store update, so a failure at any
// point leaves the article unprocessed and safe to retry.
func (c *Coordinator) ClassifyPending(ctx context.Context, limit int) ([]Outcome, error) {
	if c.chat == nil {
		return nil, fmt.Errorf("classifier is not configured")
	}

	pending, err := c.store.ListUnprocessed(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed: %w", err)
	}
	if len(pending) == 0 {
		c.logger.Info("no articles pending classification")
		return nil, nil
	}

	c.logger.Info("classifying articles", "pending", len(pending), "concurrency", c.concurrency)

	outcomes := make([]Outcome, len(pending))
	done := 0

	for start := 0; start < len(pending); start += c.concurrency {
		end := min(start+c.concurrency, len(pending))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				outcomes[i] = c.classifyOne(ctx, pending[i])
			}(i)
		}
		wg.Wait()

		done = end
		if done%progressEvery == 0 || done == len(pending) {
			c.logger.Info("classification progress", "done", done, "pending", len(pending))
		}

		if end < len(pending) && c.batchPause > 0 {
			select {
			case <-ctx.Done():
				return outcomes[:done], ctx.Err()
			case <-time.After(c.batchPause):
			}
		}
	}

	return outcomes, nil
}

// classifyOne runs a single article through the classifier and commits the
// result. Failures are isolated: logged, outcome left empty, siblings in
// the same batch unaffected.
func (c *Coordinator) classifyOne(ctx context.Context, article domain.Article) Outcome {
	outcome := Outcome{Article: article}

	reply, err := c.chat.Complete(ctx, systemPrompt(), userPrompt(article))
	if err != nil {
		c.logger.Warn("classify call failed", "url", article.URL, "error", err)
		return outcome
	}

	result := ParseReply(reply)
	if err := c.store.UpdateClassification(ctx, article.ID, result); err != nil {
		c.logger.Warn("classification commit failed", "url", article.URL, "error", err)
		return outcome
	}

	outcome.Result = &result
	return outcome
}
