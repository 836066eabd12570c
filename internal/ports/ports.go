package ports

import (
	"context"
	"time"

	"DailyBriefing/internal/domain"
)

// FeedSource pulls and normalizes fresh entries from the configured feeds.
type FeedSource interface {
	FetchAll(ctx context.Context, feeds []domain.FeedDescriptor) ([]domain.Article, error)
}

// ArticleStore is the single shared persistence surface. Every mutation is
// keyed by a unique identity (url for articles, date for briefings) and is
// independently atomic.
type ArticleStore interface {
	InsertIfAbsent(ctx context.Context, article domain.Article) (bool, error)
	FindByURL(ctx context.Context, url string) (*domain.Article, error)
	ListUnprocessed(ctx context.Context, limit int) ([]domain.Article, error)
	UpdateClassification(ctx context.Context, id int64, result domain.ClassifyResult) error
	ListByDateRange(ctx context.Context, start, end time.Time, limit int) ([]domain.Article, error)
	UpsertBriefing(ctx context.Context, briefing domain.Briefing) error
	FindBriefingByDate(ctx context.Context, date string) (*domain.Briefing, error)
	FindLatestBriefing(ctx context.Context) (*domain.Briefing, error)
	SetChannelSent(ctx context.Context, date string, channel domain.Channel) error
	Stats(ctx context.Context) (domain.Stats, error)
}

// ChatClient issues one completion round-trip against the remote model and
// returns the raw assistant reply.
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Publisher delivers a rendered briefing to one channel. A publisher missing
// its credentials reports Enabled false instead of failing sends.
type Publisher interface {
	Channel() domain.Channel
	Enabled() bool
	SendBriefing(ctx context.Context, briefing domain.RenderedBriefing) error
	TestConnection(ctx context.Context) error
}

// Scheduler controls when workflow steps execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
