package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/infrastructure/storage"
)

func article(url, title string, published time.Time) domain.Article {
	return domain.Article{
		URL:         url,
		Title:       title,
		Author:      "Unknown",
		SourceName:  "Example Blog",
		PublishedAt: published,
		FetchedAt:   published,
	}
}

func TestIngestIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	ing := NewIngestor(store, 24*time.Hour, nil)

	now := time.Now().UTC()
	batch := []domain.Article{
		article("https://a.example/1", "One", now),
		article("https://a.example/2", "Two", now),
	}

	first, err := ing.Ingest(ctx, batch, time.Time{})
	require.NoError(t, err)
	require.Equal(t, Report{Fetched: 2, Added: 2}, first)

	second, err := ing.Ingest(ctx, batch, time.Time{})
	require.NoError(t, err)
	require.Equal(t, Report{Fetched: 2, Added: 0}, second)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalArticles)
}

func TestIngestCutoffFilter(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	ing := NewIngestor(store, 24*time.Hour, nil)

	cutoff := time.Date(2025, time.November, 8, 0, 0, 0, 0, time.UTC)
	report, err := ing.Ingest(ctx, []domain.Article{
		article("https://a.example/old", "Old", cutoff.Add(-time.Second)),
		article("https://a.example/edge", "Edge", cutoff),
		article("https://a.example/new", "New", cutoff.Add(time.Hour)),
	}, cutoff)
	require.NoError(t, err)
	require.Equal(t, Report{Fetched: 3, Added: 2}, report)

	old, err := store.FindByURL(ctx, "https://a.example/old")
	require.NoError(t, err)
	require.Nil(t, old)

	edge, err := store.FindByURL(ctx, "https://a.example/edge")
	require.NoError(t, err)
	require.NotNil(t, edge)
}

func TestIngestKeepsFirstSeenTitle(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	ing := NewIngestor(store, 24*time.Hour, nil)

	now := time.Now().UTC()
	_, err := ing.Ingest(ctx, []domain.Article{
		article("https://a.example/same", "First Title", now),
		article("https://a.example/same", "Second Title", now),
	}, time.Time{})
	require.NoError(t, err)

	stored, err := store.FindByURL(ctx, "https://a.example/same")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, "First Title", stored.Title)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalArticles)
}

func TestIngestPreservesAnnotations(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	ing := NewIngestor(store, 24*time.Hour, nil)

	now := time.Now().UTC()
	_, err := ing.Ingest(ctx, []domain.Article{article("https://a.example/1", "One", now)}, time.Time{})
	require.NoError(t, err)

	stored, err := store.FindByURL(ctx, "https://a.example/1")
	require.NoError(t, err)
	require.NoError(t, store.UpdateClassification(ctx, stored.ID, domain.ClassifyResult{
		Summary:    "done",
		Category:   domain.CategoryAIML,
		Importance: 8,
	}))

	// re-ingesting must not reset the classification
	_, err = ing.Ingest(ctx, []domain.Article{article("https://a.example/1", "One Again", now)}, time.Time{})
	require.NoError(t, err)

	after, err := store.FindByURL(ctx, "https://a.example/1")
	require.NoError(t, err)
	require.True(t, after.Processed)
	require.Equal(t, "done", after.Summary)
	require.Equal(t, "One", after.Title)
}
