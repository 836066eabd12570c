package domain

import "time"

// Article is one ingested feed entry. URL is the sole identity key:
// two entries sharing a URL collapse to a single stored record.
type Article struct {
	ID              int64
	URL             string
	Title           string
	Author          string
	SourceName      string
	PublishedAt     time.Time
	FetchedAt       time.Time
	Content         string
	Summary         string
	Category        Category
	ImportanceScore float64
	Processed       bool
}

// ClassifyResult carries the classifier verdict for a single article.
// All three fields are committed together with the processed flag in one
// store update; a partially classified article is never observable.
type ClassifyResult struct {
	Summary    string
	Category   Category
	Importance float64
}

// Channel identifies an outbound delivery target.
type Channel string

const (
	ChannelTelegram Channel = "telegram"
	ChannelSlack    Channel = "slack"
	ChannelEmail    Channel = "email"
)

// Briefing is one rendered digest for a calendar date (at most one per date).
// Re-generation replaces Content and ArticleCount; Sent flags are additive
// and survive regeneration.
type Briefing struct {
	Date         string // YYYY-MM-DD in the configured timezone
	Content      string // canonical Markdown rendering
	ArticleCount int
	Sent         map[Channel]bool
}

// BlockKind enumerates the structural elements of a block-based message.
type BlockKind string

const (
	BlockHeader  BlockKind = "header"
	BlockSection BlockKind = "section"
	BlockDivider BlockKind = "divider"
	BlockContext BlockKind = "context"
)

// MessageBlock is one channel-neutral element of the block rendering.
type MessageBlock struct {
	Kind BlockKind
	Text string
}

// RenderedBriefing bundles all channel representations built from one
// grouped and sorted article model.
type RenderedBriefing struct {
	Date         string
	ArticleCount int
	Markdown     string
	ChatText     string
	HTML         string
	Blocks       []MessageBlock
}

// FeedDescriptor points at a single RSS endpoint from the feed list.
type FeedDescriptor struct {
	Title   string
	XMLURL  string
	HTMLURL string
}

// Stats summarizes store contents for observability.
type Stats struct {
	TotalArticles     int
	ProcessedArticles int
	TotalBriefings    int
}
