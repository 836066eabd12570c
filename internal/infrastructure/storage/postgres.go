// Package storage provides ArticleStore implementations: a Postgres-backed
// store for production and an in-memory store for tests.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/samber/lo"

	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS articles (
    id               BIGSERIAL PRIMARY KEY,
    url              TEXT NOT NULL UNIQUE,
    title            TEXT NOT NULL,
    author           TEXT NOT NULL DEFAULT '',
    source_name      TEXT NOT NULL DEFAULT '',
    published_at     TIMESTAMPTZ NOT NULL,
    fetched_at       TIMESTAMPTZ NOT NULL,
    content          TEXT NOT NULL DEFAULT '',
    summary          TEXT,
    category         TEXT,
    importance_score DOUBLE PRECISION,
    processed        BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_articles_processed ON articles (processed);
CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles (published_at);

CREATE TABLE IF NOT EXISTS briefings (
    date          TEXT PRIMARY KEY,
    content       TEXT NOT NULL,
    article_count INTEGER NOT NULL,
    sent_telegram BOOLEAN NOT NULL DEFAULT FALSE,
    sent_slack    BOOLEAN NOT NULL DEFAULT FALSE,
    sent_email    BOOLEAN NOT NULL DEFAULT FALSE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// sentColumns whitelists the channel to column mapping so SetChannelSent
// never interpolates a caller-supplied identifier.
var sentColumns = map[domain.Channel]string{
	domain.ChannelTelegram: "sent_telegram",
	domain.ChannelSlack:    "sent_slack",
	domain.ChannelEmail:    "sent_email",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Postgres persists articles and briefings in PostgreSQL.
type Postgres struct {
	db *sqlx.DB
}

var _ ports.ArticleStore = (*Postgres)(nil)

// Open connects to Postgres and verifies the connection.
func Open(dsn string) (*Postgres, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Postgres{db: db}, nil
}

// EnsureSchema creates the tables and indexes if they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

type dbArticle struct {
	ID              int64           `db:"id"`
	URL             string          `db:"url"`
	Title           string          `db:"title"`
	Author          string          `db:"author"`
	SourceName      string          `db:"source_name"`
	PublishedAt     time.Time       `db:"published_at"`
	FetchedAt       time.Time       `db:"fetched_at"`
	Content         string          `db:"content"`
	Summary         sql.NullString  `db:"summary"`
	Category        sql.NullString  `db:"category"`
	ImportanceScore sql.NullFloat64 `db:"importance_score"`
	Processed       bool            `db:"processed"`
}

func (r dbArticle) toDomain() domain.Article {
	article := domain.Article{
		ID:          r.ID,
		URL:         r.URL,
		Title:       r.Title,
		Author:      r.Author,
		SourceName:  r.SourceName,
		PublishedAt: r.PublishedAt,
		FetchedAt:   r.FetchedAt,
		Content:     r.Content,
		Processed:   r.Processed,
	}
	if r.Summary.Valid {
		article.Summary = r.Summary.String
	}
	if r.Category.Valid {
		article.Category = domain.Category(r.Category.String)
	}
	if r.ImportanceScore.Valid {
		article.ImportanceScore = r.ImportanceScore.Float64
	}
	return article
}

// InsertIfAbsent stores the article unless its URL is already present.
// Returns true when a new row was created.
func (p *Postgres) InsertIfAbsent(ctx context.Context, article domain.Article) (bool, error) {
	query, args, err := psql.Insert("articles").
		Columns("url", "title", "author", "source_name", "published_at", "fetched_at", "content").
		Values(article.URL, article.Title, article.Author, article.SourceName,
			article.PublishedAt, article.FetchedAt, article.Content).
		Suffix("ON CONFLICT (url) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert article %s: %w", article.URL, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert article %s: %w", article.URL, err)
	}
	return affected > 0, nil
}

// FindByURL returns the stored article, or nil when absent.
func (p *Postgres) FindByURL(ctx context.Context, url string) (*domain.Article, error) {
	query, args, err := psql.Select("*").From("articles").Where(sq.Eq{"url": url}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var row dbArticle
	if err := p.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find article %s: %w", url, err)
	}
	article := row.toDomain()
	return &article, nil
}

// ListUnprocessed returns unclassified articles, most recent first.
func (p *Postgres) ListUnprocessed(ctx context.Context, limit int) ([]domain.Article, error) {
	builder := psql.Select("*").From("articles").
		Where(sq.Eq{"processed": false}).
		OrderBy("published_at DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var rows []dbArticle
	if err := p.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list unprocessed: %w", err)
	}
	return lo.Map(rows, func(r dbArticle, _ int) domain.Article { return r.toDomain() }), nil
}

// UpdateClassification commits summary, category, score, and the processed
// flag in one statement.
func (p *Postgres) UpdateClassification(ctx context.Context, id int64, result domain.ClassifyResult) error {
	query, args, err := psql.Update("articles").
		Set("summary", result.Summary).
		Set("category", string(result.Category)).
		Set("importance_score", result.Importance).
		Set("processed", true).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update classification %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update classification %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("update classification %d: article not found", id)
	}
	return nil
}

// ListByDateRange returns every article published within [start, end],
// highest importance first, ties broken by recency. Unclassified articles
// are included; the renderers carry their own fallbacks for them.
func (p *Postgres) ListByDateRange(ctx context.Context, start, end time.Time, limit int) ([]domain.Article, error) {
	builder := psql.Select("*").From("articles").
		Where(sq.GtOrEq{"published_at": start}).
		Where(sq.LtOrEq{"published_at": end}).
		OrderBy("importance_score DESC", "published_at DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var rows []dbArticle
	if err := p.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list by date range: %w", err)
	}
	return lo.Map(rows, func(r dbArticle, _ int) domain.Article { return r.toDomain() }), nil
}

// UpsertBriefing creates or replaces the briefing for its date. Sent flags
// are never touched by regeneration.
func (p *Postgres) UpsertBriefing(ctx context.Context, briefing domain.Briefing) error {
	query, args, err := psql.Insert("briefings").
		Columns("date", "content", "article_count").
		Values(briefing.Date, briefing.Content, briefing.ArticleCount).
		Suffix("ON CONFLICT (date) DO UPDATE SET content = EXCLUDED.content, article_count = EXCLUDED.article_count, updated_at = NOW()").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert briefing %s: %w", briefing.Date, err)
	}
	return nil
}

type dbBriefing struct {
	Date         string `db:"date"`
	Content      string `db:"content"`
	ArticleCount int    `db:"article_count"`
	SentTelegram bool   `db:"sent_telegram"`
	SentSlack    bool   `db:"sent_slack"`
	SentEmail    bool   `db:"sent_email"`
}

// FindBriefingByDate returns the stored briefing, or nil when absent.
func (p *Postgres) FindBriefingByDate(ctx context.Context, date string) (*domain.Briefing, error) {
	query, args, err := psql.Select("date", "content", "article_count", "sent_telegram", "sent_slack", "sent_email").
		From("briefings").Where(sq.Eq{"date": date}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var row dbBriefing
	if err := p.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find briefing %s: %w", date, err)
	}

	return &domain.Briefing{
		Date:         row.Date,
		Content:      row.Content,
		ArticleCount: row.ArticleCount,
		Sent: map[domain.Channel]bool{
			domain.ChannelTelegram: row.SentTelegram,
			domain.ChannelSlack:    row.SentSlack,
			domain.ChannelEmail:    row.SentEmail,
		},
	}, nil
}

// FindLatestBriefing returns the briefing with the most recent date, or nil
// when none have been generated yet.
func (p *Postgres) FindLatestBriefing(ctx context.Context) (*domain.Briefing, error) {
	query, args, err := psql.Select("date", "content", "article_count", "sent_telegram", "sent_slack", "sent_email").
		From("briefings").OrderBy("date DESC").Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var row dbBriefing
	if err := p.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find latest briefing: %w", err)
	}

	return &domain.Briefing{
		Date:         row.Date,
		Content:      row.Content,
		ArticleCount: row.ArticleCount,
		Sent: map[domain.Channel]bool{
			domain.ChannelTelegram: row.SentTelegram,
			domain.ChannelSlack:    row.SentSlack,
			domain.ChannelEmail:    row.SentEmail,
		},
	}, nil
}

// SetChannelSent marks one channel as delivered for the given date.
func (p *Postgres) SetChannelSent(ctx context.Context, date string, channel domain.Channel) error {
	column, ok := sentColumns[channel]
	if !ok {
		return fmt.Errorf("unknown channel %q", channel)
	}

	query, args, err := psql.Update("briefings").
		Set(column, true).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"date": date}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark %s sent for %s: %w", channel, date, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark %s sent for %s: %w", channel, date, err)
	}
	if affected == 0 {
		return fmt.Errorf("mark %s sent for %s: briefing not found", channel, date)
	}
	return nil
}

// Stats reports store-wide counters.
func (p *Postgres) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	row := p.db.QueryRowContext(ctx, `
SELECT
    (SELECT COUNT(*) FROM articles),
    (SELECT COUNT(*) FROM articles WHERE processed),
    (SELECT COUNT(*) FROM briefings)`)
	if err := row.Scan(&stats.TotalArticles, &stats.ProcessedArticles, &stats.TotalBriefings); err != nil {
		return domain.Stats{}, fmt.Errorf("load stats: %w", err)
	}
	return stats, nil
}
