package rss

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/ports"
)

const (
	defaultBatchSize = 10
	defaultFeedDelay = 100 * time.Millisecond
	defaultTimeout   = 10 * time.Second

	fallbackTitle  = "Untitled"
	fallbackAuthor = "Unknown"
)

// Fetcher pulls configured feeds in bounded batches and normalizes their
// entries into canonical articles. It has no persistence side effects.
type Fetcher struct {
	client    *http.Client
	batchSize int
	feedDelay time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

var _ ports.FeedSource = (*Fetcher)(nil)

// NewFetcher wires an HTTP client; batchSize defaults to 10, feedDelay to 100ms.
func NewFetcher(client *http.Client, batchSize int, feedDelay time.Duration, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if feedDelay < 0 {
		feedDelay = defaultFeedDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client:    client,
		batchSize: batchSize,
		feedDelay: feedDelay,
		logger:    logger,
		now:       time.Now,
	}
}

// FetchAll fetches every feed endpoint in sequential batches; feeds inside a
// batch run concurrently. A single feed failure is logged and skipped, never
// aborting the pass. Entries sharing a link collapse to the first occurrence.
func (f *Fetcher) FetchAll(ctx context.Context, feeds []domain.FeedDescriptor) ([]domain.Article, error) {
	if len(feeds) == 0 {
		return nil, nil
	}

	var (
		all  []domain.Article
		seen = map[string]struct{}{}
	)

	batches := (len(feeds) + f.batchSize - 1) / f.batchSize
	for start := 0; start < len(feeds); start += f.batchSize {
		end := min(start+f.batchSize, len(feeds))
		batch := feeds[start:end]
		f.logger.Info("fetching batch",
			"batch", start/f.batchSize+1,
			"batches", batches,
			"feeds", len(batch))

		// Indexed slots keep the aggregate in feed order even though the
		// batch runs concurrently, so first-seen dedupe stays deterministic.
		results := make([][]domain.Article, len(batch))
		var wg sync.WaitGroup
		for i, fd := range batch {
			wg.Add(1)
			go func(i int, fd domain.FeedDescriptor) {
				defer wg.Done()
				articles, err := f.fetchFeed(ctx, fd)
				if err != nil {
					f.logger.Warn("fetch feed failed", "feed", fd.XMLURL, "error", err)
					return
				}
				results[i] = articles
			}(i, fd)
		}
		wg.Wait()

		for _, articles := range results {
			for _, article := range articles {
				if _, ok := seen[article.URL]; ok {
					continue
				}
				seen[article.URL] = struct{}{}
				all = append(all, article)
			}
		}

		if end < len(feeds) && f.feedDelay > 0 {
			select {
			case <-ctx.Done():
				return all, ctx.Err()
			case <-time.After(f.feedDelay):
			}
		}
	}

	f.logger.Info("fetch pass done", "feeds", len(feeds), "articles", len(all))
	return all, nil
}

func (f *Fetcher) fetchFeed(ctx context.Context, fd domain.FeedDescriptor) ([]domain.Article, error) {
	parser := gofeed.NewParser()
	parser.Client = f.client

	feed, err := parser.ParseURLWithContext(fd.XMLURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	fetchedAt := f.now()
	articles := make([]domain.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		article, ok := normalizeItem(feed, fd, item, fetchedAt)
		if !ok {
			continue
		}
		articles = append(articles, article)
	}
	return articles, nil
}

// normalizeItem maps one feed entry onto the canonical article record.
// Entries without a link are dropped; every other absent field falls back.
func normalizeItem(feed *gofeed.Feed, fd domain.FeedDescriptor, item *gofeed.Item, fetchedAt time.Time) (domain.Article, bool) {
	link := strings.TrimSpace(item.Link)
	if link == "" {
		return domain.Article{}, false
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = fallbackTitle
	}

	author := fallbackAuthor
	if item.Author != nil && strings.TrimSpace(item.Author.Name) != "" {
		author = strings.TrimSpace(item.Author.Name)
	}

	source := strings.TrimSpace(feed.Title)
	if source == "" {
		source = fd.Title
	}

	published := fetchedAt
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	content := item.Content
	if content == "" {
		content = item.Description
	}

	return domain.Article{
		URL:         link,
		Title:       title,
		Author:      author,
		SourceName:  source,
		PublishedAt: published.UTC(),
		FetchedAt:   fetchedAt.UTC(),
		Content:     extractText(content),
	}, true
}

// extractText strips markup from feed bodies, which routinely arrive as HTML.
func extractText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.Contains(raw, "<") {
		return raw
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
