package dispatch

import (
	"context"
	"log/slog"

	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/ports"
)

// Dispatcher fans a rendered briefing out to every registered channel.
// Channels are independent: one failing or disabled channel never blocks
// the others, and per-channel sent flags are recorded only on success.
type Dispatcher struct {
	store      ports.ArticleStore
	publishers []ports.Publisher
	logger     *slog.Logger
}

func NewDispatcher(store ports.ArticleStore, publishers []ports.Publisher, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:      store,
		publishers: publishers,
		logger:     logger.With("component", "dispatch"),
	}
}

// Dispatch sends the briefing through each publisher in registration order
// and reports per-channel success. A channel without credentials counts as
// not delivered, not as an error.
func (d *Dispatcher) Dispatch(ctx context.Context, briefing domain.RenderedBriefing) map[domain.Channel]bool {
	delivered := make(map[domain.Channel]bool, len(d.publishers))
	for _, pub := range d.publishers {
		channel := pub.Channel()
		if !pub.Enabled() {
			d.logger.Info("channel not configured, skipping", "channel", channel)
			delivered[channel] = false
			continue
		}
		if err := pub.SendBriefing(ctx, briefing); err != nil {
			d.logger.Error("briefing delivery failed", "channel", channel, "date", briefing.Date, "error", err)
			delivered[channel] = false
			continue
		}
		if err := d.store.SetChannelSent(ctx, briefing.Date, channel); err != nil {
			d.logger.Error("failed to record sent flag", "channel", channel, "date", briefing.Date, "error", err)
		}
		d.logger.Info("briefing delivered", "channel", channel, "date", briefing.Date)
		delivered[channel] = true
	}
	return delivered
}
