package briefing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/infrastructure/storage"
)

func testAssembler(t *testing.T) *Assembler {
	t.Helper()
	return NewAssembler(nil, time.UTC, 100, 5, 7, nil)
}

func article(id int64, title string, cat domain.Category, score float64) domain.Article {
	return domain.Article{
		ID:              id,
		URL:             "https://example.com/" + title,
		Title:           title,
		Author:          "Jane Doe",
		SourceName:      "Example Blog",
		Summary:         "Summary of " + title,
		Category:        cat,
		ImportanceScore: score,
		Processed:       true,
	}
}

func TestAssembleDeterministic(t *testing.T) {
	a := testAssembler(t)
	selection := []domain.Article{
		article(1, "first", domain.CategoryAIML, 9),
		article(2, "second", domain.CategorySecurity, 8),
		article(3, "third", domain.CategoryAIML, 4),
	}

	one := a.Assemble("2026-09-01", selection)
	two := a.Assemble("2026-09-01", selection)

	assert.Equal(t, one.Markdown, two.Markdown)
	assert.Equal(t, one.ChatText, two.ChatText)
	assert.Equal(t, one.HTML, two.HTML)
	assert.Equal(t, one.Blocks, two.Blocks)
	assert.Equal(t, 3, one.ArticleCount)
}

func TestAssembleGroupsInFirstAppearanceOrder(t *testing.T) {
	a := testAssembler(t)
	selection := []domain.Article{
		article(1, "sec-high", domain.CategorySecurity, 9),
		article(2, "ai-mid", domain.CategoryAIML, 8),
		article(3, "sec-low", domain.CategorySecurity, 2),
	}

	rb := a.Assemble("2026-09-01", selection)

	secIdx := strings.Index(rb.Markdown, "## 🔒 Security")
	aiIdx := strings.Index(rb.Markdown, "## 🤖 AI/ML")
	require.NotEqual(t, -1, secIdx)
	require.NotEqual(t, -1, aiIdx)
	assert.Less(t, secIdx, aiIdx, "Security appeared first in the selection")

	// Within the Security group the higher score renders first.
	assert.Less(t, strings.Index(rb.Markdown, "### sec-high"), strings.Index(rb.Markdown, "### sec-low"))
}

func TestAssembleHighlights(t *testing.T) {
	a := testAssembler(t)
	selection := []domain.Article{
		article(1, "ai-nine", domain.CategoryAIML, 9),
		article(2, "sec-seven", domain.CategorySecurity, 7),
		article(3, "ai-seven", domain.CategoryAIML, 7),
		article(4, "dev-three", domain.CategoryDevelopment, 3),
		article(5, "data-one", domain.CategoryData, 1),
	}

	rb := a.Assemble("2026-09-01", selection)

	assert.Contains(t, rb.ChatText, "🔥 *Top Highlights*")
	assert.Contains(t, rb.ChatText, "• *ai-nine*")
	assert.Contains(t, rb.ChatText, "• *sec-seven*")
	assert.Contains(t, rb.ChatText, "• *ai-seven*")
	assert.NotContains(t, rb.ChatText, "• *dev-three*")
	assert.NotContains(t, rb.ChatText, "• *data-one*")
}

func TestAssembleHighlightCap(t *testing.T) {
	a := testAssembler(t)
	var selection []domain.Article
	for i := int64(0); i < 8; i++ {
		selection = append(selection, article(i+1, "hot-"+strings.Repeat("x", int(i)+1), domain.CategoryAIML, 9))
	}

	rb := a.Assemble("2026-09-01", selection)

	assert.Equal(t, 5, strings.Count(rb.ChatText, "• *hot-"))
}

func TestHighlightSummaryTruncated(t *testing.T) {
	a := testAssembler(t)
	long := article(1, "long", domain.CategoryAIML, 9)
	long.Summary = strings.Repeat("a", 250)

	rb := a.Assemble("2026-09-01", []domain.Article{long})

	assert.Contains(t, rb.ChatText, strings.Repeat("a", 100)+"...")
	assert.NotContains(t, rb.ChatText, strings.Repeat("a", 101))
}

func TestAssembleEmptySelection(t *testing.T) {
	a := testAssembler(t)

	rb := a.Assemble("2026-09-01", nil)

	assert.Equal(t, 0, rb.ArticleCount)
	assert.Contains(t, rb.Markdown, "Collected **0** articles")
	assert.NotContains(t, rb.ChatText, "🔥")
}

func TestHTMLEscaping(t *testing.T) {
	a := testAssembler(t)
	hostile := article(1, `<script>alert("x") & 'more'</script>`, domain.CategoryOther, 5)

	rb := a.Assemble("2026-09-01", []domain.Article{hostile})

	assert.NotContains(t, rb.HTML, "<script>")
	assert.Contains(t, rb.HTML, "&lt;script&gt;alert(&quot;x&quot;) &amp; &#39;more&#39;&lt;/script&gt;")
}

func TestHTMLSummaryFallback(t *testing.T) {
	a := testAssembler(t)
	bare := article(1, "bare", domain.CategoryOther, 5)
	bare.Summary = ""
	bare.Author = ""

	rb := a.Assemble("2026-09-01", []domain.Article{bare})

	assert.Contains(t, rb.HTML, "No summary yet")
	assert.NotContains(t, rb.HTML, "Author:")
}

func TestBlocksCategoryCap(t *testing.T) {
	a := testAssembler(t)
	var selection []domain.Article
	for i := int64(0); i < 5; i++ {
		selection = append(selection, article(i+1, "ai-"+strings.Repeat("z", int(i)+1), domain.CategoryAIML, 8))
	}

	rb := a.Assemble("2026-09-01", selection)

	var bullets int
	for _, block := range rb.Blocks {
		if block.Kind == domain.BlockSection && strings.HasPrefix(block.Text, "• <") {
			bullets++
		}
	}
	assert.Equal(t, 3, bullets)
	assert.Equal(t, domain.BlockHeader, rb.Blocks[0].Kind)
	assert.Equal(t, domain.BlockContext, rb.Blocks[len(rb.Blocks)-1].Kind)
}

func TestBuildForDateIncludesUnclassifiedArticles(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	at := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	_, err := store.InsertIfAbsent(ctx, domain.Article{
		URL: "https://example.com/classified", Title: "classified", PublishedAt: at,
	})
	require.NoError(t, err)
	stored, err := store.FindByURL(ctx, "https://example.com/classified")
	require.NoError(t, err)
	require.NoError(t, store.UpdateClassification(ctx, stored.ID, domain.ClassifyResult{
		Summary: "done", Category: domain.CategoryAIML, Importance: 8,
	}))

	_, err = store.InsertIfAbsent(ctx, domain.Article{
		URL: "https://example.com/pending", Title: "pending", PublishedAt: at,
	})
	require.NoError(t, err)

	a := NewAssembler(store, time.UTC, 100, 5, 7, nil)
	rb, err := a.BuildForDate(ctx, at)
	require.NoError(t, err)

	// A failed or not-yet-run classification must not hide the article;
	// it renders with the zero-value fallbacks instead.
	assert.Equal(t, 2, rb.ArticleCount)
	assert.Contains(t, rb.Markdown, "### pending")
	assert.Contains(t, rb.HTML, "No summary yet")
	assert.Contains(t, rb.Markdown, "## 📚 Other")
}

func TestDayBounds(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)

	at := time.Date(2026, 9, 1, 15, 30, 0, 0, loc)

	start := StartOfDay(at, loc)
	end := EndOfDay(at, loc)

	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2026, 9, 1, 23, 59, 59, int(time.Second-time.Microsecond), loc), end)
	assert.Equal(t, "2026-09-01", DateKey(at, loc))

	// The bound survives microsecond-resolution storage: rounding to the
	// nearest microsecond must not tip it into the next day.
	nextMidnight := time.Date(2026, 9, 2, 0, 0, 0, 0, loc)
	assert.True(t, end.Round(time.Microsecond).Before(nextMidnight))

	// A UTC instant late on Aug 31 is already Sep 1 in Shanghai.
	utcEvening := time.Date(2026, 8, 31, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-09-01", DateKey(utcEvening, loc))
}
