package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/infrastructure/storage"
	"DailyBriefing/internal/ports"
)

type fakePublisher struct {
	channel domain.Channel
	enabled bool
	sendErr error
	sent    int
}

var _ ports.Publisher = (*fakePublisher)(nil)

func (f *fakePublisher) Channel() domain.Channel { return f.channel }
func (f *fakePublisher) Enabled() bool           { return f.enabled }

func (f *fakePublisher) SendBriefing(ctx context.Context, briefing domain.RenderedBriefing) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent++
	return nil
}

func (f *fakePublisher) TestConnection(ctx context.Context) error { return f.sendErr }

func TestDispatchIndependentChannels(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	require.NoError(t, store.UpsertBriefing(ctx, domain.Briefing{Date: "2026-09-01", Content: "x", ArticleCount: 1}))

	telegram := &fakePublisher{channel: domain.ChannelTelegram, enabled: true, sendErr: errors.New("bad request")}
	slack := &fakePublisher{channel: domain.ChannelSlack, enabled: true}
	email := &fakePublisher{channel: domain.ChannelEmail, enabled: false}

	d := NewDispatcher(store, []ports.Publisher{telegram, slack, email}, nil)
	delivered := d.Dispatch(ctx, domain.RenderedBriefing{Date: "2026-09-01", ChatText: "hello"})

	assert.Equal(t, map[domain.Channel]bool{
		domain.ChannelTelegram: false,
		domain.ChannelSlack:    true,
		domain.ChannelEmail:    false,
	}, delivered)
	assert.Equal(t, 1, slack.sent)
	assert.Equal(t, 0, email.sent)

	stored, err := store.FindBriefingByDate(ctx, "2026-09-01")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Sent[domain.ChannelSlack])
	assert.False(t, stored.Sent[domain.ChannelTelegram])
	assert.False(t, stored.Sent[domain.ChannelEmail])
}

func TestDispatchNoPublishers(t *testing.T) {
	d := NewDispatcher(storage.NewMemory(), nil, nil)
	delivered := d.Dispatch(context.Background(), domain.RenderedBriefing{Date: "2026-09-01"})
	assert.Empty(t, delivered)
}
