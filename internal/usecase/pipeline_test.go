package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DailyBriefing/internal/briefing"
	"DailyBriefing/internal/classify"
	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/infrastructure/storage"
	"DailyBriefing/internal/ingest"
)

type fakeSource struct {
	articles []domain.Article
	calls    int
}

func (f *fakeSource) FetchAll(ctx context.Context, feeds []domain.FeedDescriptor) ([]domain.Article, error) {
	f.calls++
	return f.articles, nil
}

type fakeChat struct {
	reply string
}

func (f *fakeChat) Complete(ctx context.Context, system, user string) (string, error) {
	return f.reply, nil
}

type recordingDispatcher struct {
	dispatched []domain.RenderedBriefing
}

func (r *recordingDispatcher) Dispatch(ctx context.Context, rb domain.RenderedBriefing) map[domain.Channel]bool {
	r.dispatched = append(r.dispatched, rb)
	return map[domain.Channel]bool{domain.ChannelTelegram: true}
}

func writeOPML(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feeds.opml")
	body := `<?xml version="1.0"?><opml version="2.0"><body>
<outline type="rss" text="Example" xmlUrl="https://example.com/rss"/>
</body></opml>`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func newTestPipeline(t *testing.T, source *fakeSource, dispatcher Dispatcher, opmlPath string) (*Pipeline, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory()
	chat := &fakeChat{reply: `{"summary": "classified", "category": "AI/ML", "importance": 9}`}
	p := NewPipeline(PipelineDeps{
		Source:      source,
		Store:       store,
		Ingestor:    ingest.NewIngestor(store, 24*time.Hour, nil),
		Coordinator: classify.NewCoordinator(store, chat, 3, 0, nil),
		Assembler:   briefing.NewAssembler(store, time.UTC, 100, 5, 7, nil),
		Dispatcher:  dispatcher,
		OPMLPath:    opmlPath,
		ClassifyCap: 50,
		Location:    time.UTC,
	})
	return p, store
}

func TestPipelineFullRun(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	source := &fakeSource{articles: []domain.Article{
		{
			URL:         "https://example.com/a",
			Title:       "Article A",
			SourceName:  "Example",
			PublishedAt: now,
			FetchedAt:   now,
			Content:     "body a",
		},
	}}
	dispatcher := &recordingDispatcher{}
	p, store := newTestPipeline(t, source, dispatcher, writeOPML(t))

	report, err := p.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)
	assert.Equal(t, 1, report.Added)

	outcomes, err := p.Process(ctx)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.NotNil(t, outcomes[0].Result)
	assert.Equal(t, domain.CategoryAIML, outcomes[0].Result.Category)

	delivered, err := p.Briefing(ctx, now)
	require.NoError(t, err)
	assert.True(t, delivered[domain.ChannelTelegram])
	require.Len(t, dispatcher.dispatched, 1)
	assert.Equal(t, 1, dispatcher.dispatched[0].ArticleCount)

	stored, err := store.FindBriefingByDate(ctx, dispatcher.dispatched[0].Date)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 1, stored.ArticleCount)
}

func TestPipelineBriefingEmptyDaySkips(t *testing.T) {
	ctx := context.Background()
	dispatcher := &recordingDispatcher{}
	p, store := newTestPipeline(t, &fakeSource{}, dispatcher, writeOPML(t))

	delivered, err := p.Briefing(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Nil(t, delivered)
	assert.Empty(t, dispatcher.dispatched)

	date := briefing.DateKey(time.Now().UTC(), time.UTC)
	stored, err := store.FindBriefingByDate(ctx, date)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestPipelineFetchMissingFeedList(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{}
	p, _ := newTestPipeline(t, source, &recordingDispatcher{}, filepath.Join(t.TempDir(), "absent.opml"))

	report, err := p.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Fetched)
	assert.Equal(t, 0, source.calls, "no fetch without a feed list")
}
