package briefing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/ports"
)

const (
	chatSummaryLimit = 100
	slackPerCategory = 3
)

// Assembler selects one calendar day of classified articles and renders the
// briefing in every channel representation at once. Rendering is pure: the
// same selection always yields byte-identical output.
type Assembler struct {
	store             ports.ArticleStore
	loc               *time.Location
	articleLimit      int
	highlightLimit    int
	highlightMinScore float64
	logger            *slog.Logger
}

func NewAssembler(store ports.ArticleStore, loc *time.Location, articleLimit, highlightLimit int, highlightMinScore float64, logger *slog.Logger) *Assembler {
	if loc == nil {
		loc = time.UTC
	}
	if articleLimit <= 0 {
		articleLimit = 100
	}
	if highlightLimit <= 0 {
		highlightLimit = 5
	}
	if highlightMinScore <= 0 {
		highlightMinScore = 7
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		store:             store,
		loc:               loc,
		articleLimit:      articleLimit,
		highlightLimit:    highlightLimit,
		highlightMinScore: highlightMinScore,
		logger:            logger.With("component", "briefing"),
	}
}

// BuildForDate selects the day's articles and renders the briefing. The day
// is bounded by midnight-to-midnight in the assembler's timezone, inclusive
// on both ends.
func (a *Assembler) BuildForDate(ctx context.Context, day time.Time) (domain.RenderedBriefing, error) {
	start := StartOfDay(day, a.loc)
	end := EndOfDay(day, a.loc)
	dateKey := DateKey(day, a.loc)

	articles, err := a.store.ListByDateRange(ctx, start, end, a.articleLimit)
	if err != nil {
		return domain.RenderedBriefing{}, fmt.Errorf("select articles for %s: %w", dateKey, err)
	}
	a.logger.Info("selected articles for briefing", "date", dateKey, "count", len(articles))
	return a.Assemble(dateKey, articles), nil
}

// Assemble renders the given selection for the given date key. Articles are
// expected in selection order (importance descending); grouping preserves the
// first-appearance order of categories across the selection.
func (a *Assembler) Assemble(dateKey string, articles []domain.Article) domain.RenderedBriefing {
	groups := groupByCategory(articles)
	return domain.RenderedBriefing{
		Date:         dateKey,
		ArticleCount: len(articles),
		Markdown:     a.renderMarkdown(dateKey, articles, groups),
		ChatText:     a.renderChatText(dateKey, articles, groups),
		HTML:         a.renderHTML(dateKey, articles, groups),
		Blocks:       a.renderBlocks(dateKey, articles, groups),
	}
}

type categoryGroup struct {
	category domain.Category
	articles []domain.Article
}

// groupByCategory buckets the selection without disturbing its global order:
// categories appear in the order their first article does, and articles stay
// importance-descending within each bucket. Articles without a classification
// yet bucket under Other.
func groupByCategory(articles []domain.Article) []categoryGroup {
	index := make(map[domain.Category]int)
	var groups []categoryGroup
	for _, article := range articles {
		category := domain.ParseCategory(string(article.Category))
		i, ok := index[category]
		if !ok {
			i = len(groups)
			index[category] = i
			groups = append(groups, categoryGroup{category: category})
		}
		groups[i].articles = append(groups[i].articles, article)
	}
	for i := range groups {
		sort.SliceStable(groups[i].articles, func(x, y int) bool {
			return groups[i].articles[x].ImportanceScore > groups[i].articles[y].ImportanceScore
		})
	}
	return groups
}

// highlights picks the top-scoring articles in selection order. Only articles
// at or above the minimum score qualify.
func (a *Assembler) highlights(articles []domain.Article) []domain.Article {
	var out []domain.Article
	for _, article := range articles {
		if article.ImportanceScore < a.highlightMinScore {
			continue
		}
		out = append(out, article)
		if len(out) == a.highlightLimit {
			break
		}
	}
	return out
}

func headingDate(dateKey string) string {
	day, err := time.Parse("2006-01-02", dateKey)
	if err != nil {
		return dateKey
	}
	return day.Format("2006-01-02 Monday")
}

func (a *Assembler) renderMarkdown(dateKey string, articles []domain.Article, groups []categoryGroup) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Daily Tech Briefing - %s\n\n", headingDate(dateKey))
	fmt.Fprintf(&b, "Collected **%d** articles today.\n\n", len(articles))

	for _, group := range groups {
		fmt.Fprintf(&b, "## %s %s\n\n", group.category.Emoji(), group.category)
		for _, article := range group.articles {
			fmt.Fprintf(&b, "### %s\n\n", article.Title)
			fmt.Fprintf(&b, "**Author**: %s | **Source**: %s\n\n", article.Author, article.SourceName)
			if article.Summary != "" {
				fmt.Fprintf(&b, "%s\n\n", article.Summary)
			}
			fmt.Fprintf(&b, "[Read more](%s)\n\n", article.URL)
		}
	}

	b.WriteString("---\n\n_Generated by Daily Briefing System_\n")
	return b.String()
}

func (a *Assembler) renderChatText(dateKey string, articles []domain.Article, groups []categoryGroup) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 *Daily Tech Briefing* - %s\n\n", dateKey)
	fmt.Fprintf(&b, "Collected *%d* articles today\n\n", len(articles))

	if top := a.highlights(articles); len(top) > 0 {
		b.WriteString("🔥 *Top Highlights*\n\n")
		for _, article := range top {
			fmt.Fprintf(&b, "• *%s*\n", article.Title)
			fmt.Fprintf(&b, "  %s...\n", truncateRunes(article.Summary, chatSummaryLimit))
			fmt.Fprintf(&b, "  [Read more](%s)\n\n", article.URL)
		}
	}

	b.WriteString("📊 *By Category*\n")
	for _, group := range groups {
		fmt.Fprintf(&b, "%s *%s*: %d articles\n", group.category.Emoji(), group.category, len(group.articles))
	}

	b.WriteString("\n_Generated by Daily Briefing System_")
	return b.String()
}

func (a *Assembler) renderHTML(dateKey string, articles []domain.Article, groups []categoryGroup) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<style>\n")
	b.WriteString("body { font-family: -apple-system, Arial, sans-serif; max-width: 800px; margin: 0 auto; padding: 20px; color: #333; }\n")
	b.WriteString("h1 { color: #2c3e50; border-bottom: 3px solid #3498db; padding-bottom: 10px; }\n")
	b.WriteString("h2 { color: #34495e; margin-top: 30px; }\n")
	b.WriteString(".article { background: #f8f9fa; border-left: 4px solid #3498db; padding: 15px; margin: 15px 0; border-radius: 4px; }\n")
	b.WriteString(".article h3 { margin: 0 0 8px 0; }\n")
	b.WriteString(".meta { color: #7f8c8d; font-size: 14px; margin-bottom: 8px; }\n")
	b.WriteString(".footer { color: #95a5a6; font-size: 13px; margin-top: 30px; text-align: center; }\n")
	b.WriteString("a { color: #3498db; }\n")
	b.WriteString("</style>\n</head>\n<body>\n")

	fmt.Fprintf(&b, "<h1>📅 Daily Tech Briefing - %s</h1>\n", escapeHTML(headingDate(dateKey)))
	fmt.Fprintf(&b, "<p>Collected <strong>%d</strong> articles today.</p>\n", len(articles))

	for _, group := range groups {
		fmt.Fprintf(&b, "<h2>%s %s</h2>\n", group.category.Emoji(), escapeHTML(string(group.category)))
		for _, article := range group.articles {
			b.WriteString("<div class=\"article\">\n")
			fmt.Fprintf(&b, "<h3>%s</h3>\n", escapeHTML(article.Title))
			meta := "Source: " + article.SourceName
			if article.Author != "" {
				meta = "Author: " + article.Author + " | " + meta
			}
			fmt.Fprintf(&b, "<div class=\"meta\">%s</div>\n", escapeHTML(meta))
			summary := article.Summary
			if summary == "" {
				summary = "No summary yet"
			}
			fmt.Fprintf(&b, "<p>%s</p>\n", escapeHTML(summary))
			fmt.Fprintf(&b, "<a href=\"%s\">Read more</a>\n", escapeHTML(article.URL))
			b.WriteString("</div>\n")
		}
	}

	b.WriteString("<div class=\"footer\">Generated by Daily Briefing System</div>\n")
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

func (a *Assembler) renderBlocks(dateKey string, articles []domain.Article, groups []categoryGroup) []domain.MessageBlock {
	blocks := []domain.MessageBlock{
		{Kind: domain.BlockHeader, Text: fmt.Sprintf("📅 Daily Tech Briefing - %s", dateKey)},
		{Kind: domain.BlockSection, Text: fmt.Sprintf("*%d* articles collected today", len(articles))},
		{Kind: domain.BlockDivider},
	}
	for _, group := range groups {
		blocks = append(blocks, domain.MessageBlock{
			Kind: domain.BlockSection,
			Text: fmt.Sprintf("*%s* (%d articles)", group.category, len(group.articles)),
		})
		shown := group.articles
		if len(shown) > slackPerCategory {
			shown = shown[:slackPerCategory]
		}
		for _, article := range shown {
			blocks = append(blocks, domain.MessageBlock{
				Kind: domain.BlockSection,
				Text: fmt.Sprintf("• <%s|%s>", article.URL, article.Title),
			})
		}
	}
	blocks = append(blocks, domain.MessageBlock{
		Kind: domain.BlockContext,
		Text: "Generated by Daily Briefing System",
	})
	return blocks
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
