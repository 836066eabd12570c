package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/ports"
)

// Memory is an in-process ArticleStore with the same ordering and conflict
// semantics as the Postgres store. It backs tests and ad-hoc runs without a
// database.
type Memory struct {
	mu        sync.Mutex
	nextID    int64
	articles  []*domain.Article
	byURL     map[string]*domain.Article
	briefings map[string]*domain.Briefing
}

var _ ports.ArticleStore = (*Memory)(nil)

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		nextID:    1,
		byURL:     map[string]*domain.Article{},
		briefings: map[string]*domain.Briefing{},
	}
}

// InsertIfAbsent stores the article unless its URL is already present.
func (m *Memory) InsertIfAbsent(_ context.Context, article domain.Article) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byURL[article.URL]; ok {
		return false, nil
	}

	stored := article
	stored.ID = m.nextID
	m.nextID++
	m.articles = append(m.articles, &stored)
	m.byURL[stored.URL] = &stored
	return true, nil
}

// FindByURL returns a copy of the stored article, or nil when absent.
func (m *Memory) FindByURL(_ context.Context, url string) (*domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.byURL[url]
	if !ok {
		return nil, nil
	}
	copied := *stored
	return &copied, nil
}

// ListUnprocessed returns up to limit unclassified articles, most recent first.
func (m *Memory) ListUnprocessed(_ context.Context, limit int) ([]domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Article
	for _, stored := range m.articles {
		if !stored.Processed {
			out = append(out, *stored)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UpdateClassification commits summary, category, score, and the processed
// flag in one step.
func (m *Memory) UpdateClassification(_ context.Context, id int64, result domain.ClassifyResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, stored := range m.articles {
		if stored.ID == id {
			stored.Summary = result.Summary
			stored.Category = result.Category
			stored.ImportanceScore = result.Importance
			stored.Processed = true
			return nil
		}
	}
	return fmt.Errorf("update classification %d: article not found", id)
}

// ListByDateRange returns every article published within [start, end]
// inclusive, ordered by importance descending then published time descending.
func (m *Memory) ListByDateRange(_ context.Context, start, end time.Time, limit int) ([]domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Article
	for _, stored := range m.articles {
		if stored.PublishedAt.Before(start) || stored.PublishedAt.After(end) {
			continue
		}
		out = append(out, *stored)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ImportanceScore != out[j].ImportanceScore {
			return out[i].ImportanceScore > out[j].ImportanceScore
		}
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UpsertBriefing replaces content and count for the date; sent flags persist.
func (m *Memory) UpsertBriefing(_ context.Context, briefing domain.Briefing) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.briefings[briefing.Date]; ok {
		existing.Content = briefing.Content
		existing.ArticleCount = briefing.ArticleCount
		return nil
	}

	stored := briefing
	stored.Sent = map[domain.Channel]bool{}
	for channel, sent := range briefing.Sent {
		stored.Sent[channel] = sent
	}
	m.briefings[briefing.Date] = &stored
	return nil
}

// FindBriefingByDate returns a copy of the briefing for the date, or nil.
func (m *Memory) FindBriefingByDate(_ context.Context, date string) (*domain.Briefing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.briefings[date]
	if !ok {
		return nil, nil
	}
	copied := *stored
	copied.Sent = map[domain.Channel]bool{}
	for channel, sent := range stored.Sent {
		copied.Sent[channel] = sent
	}
	return &copied, nil
}

// FindLatestBriefing returns a copy of the most recent briefing, or nil.
// Dates are YYYY-MM-DD, so lexical order is chronological order.
func (m *Memory) FindLatestBriefing(_ context.Context) (*domain.Briefing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *domain.Briefing
	for _, stored := range m.briefings {
		if latest == nil || stored.Date > latest.Date {
			latest = stored
		}
	}
	if latest == nil {
		return nil, nil
	}

	copied := *latest
	copied.Sent = map[domain.Channel]bool{}
	for channel, sent := range latest.Sent {
		copied.Sent[channel] = sent
	}
	return &copied, nil
}

// SetChannelSent marks one delivery flag; flags are set-only.
func (m *Memory) SetChannelSent(_ context.Context, date string, channel domain.Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.briefings[date]
	if !ok {
		return nil
	}
	if stored.Sent == nil {
		stored.Sent = map[domain.Channel]bool{}
	}
	stored.Sent[channel] = true
	return nil
}

// Stats reports store totals.
func (m *Memory) Stats(_ context.Context) (domain.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := domain.Stats{
		TotalArticles:  len(m.articles),
		TotalBriefings: len(m.briefings),
	}
	for _, stored := range m.articles {
		if stored.Processed {
			stats.ProcessedArticles++
		}
	}
	return stats, nil
}
