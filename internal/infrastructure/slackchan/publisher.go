package slackchan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"

	"DailyBriefing/internal/config"
	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/ports"
)

// Publisher delivers briefings to a Slack channel using Block Kit.
type Publisher struct {
	client  *slack.Client
	channel string
	logger  *slog.Logger
}

var _ ports.Publisher = (*Publisher)(nil)

// NewPublisher builds the Slack client; missing credentials disable the
// channel instead of erroring.
func NewPublisher(cfg config.SlackConfig, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{channel: cfg.Channel, logger: logger.With("component", "slack")}
	if cfg.BotToken == "" || cfg.Channel == "" {
		return p
	}
	p.client = slack.New(cfg.BotToken)
	return p
}

func (p *Publisher) Channel() domain.Channel { return domain.ChannelSlack }

func (p *Publisher) Enabled() bool { return p.client != nil }

// SendBriefing posts the block rendering; the chat text doubles as the
// notification fallback.
func (p *Publisher) SendBriefing(ctx context.Context, briefing domain.RenderedBriefing) error {
	if p.client == nil {
		return fmt.Errorf("slack publisher is not configured")
	}

	blocks := toSlackBlocks(briefing.Blocks)
	_, _, err := p.client.PostMessageContext(ctx, p.channel,
		slack.MsgOptionText(briefing.ChatText, false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		return fmt.Errorf("post slack message: %w", err)
	}
	return nil
}

// TestConnection validates the bot token.
func (p *Publisher) TestConnection(ctx context.Context) error {
	if p.client == nil {
		return fmt.Errorf("slack publisher is not configured")
	}
	if _, err := p.client.AuthTestContext(ctx); err != nil {
		return fmt.Errorf("slack auth test: %w", err)
	}
	return nil
}

// toSlackBlocks maps the channel-neutral blocks onto Block Kit elements.
func toSlackBlocks(blocks []domain.MessageBlock) []slack.Block {
	out := make([]slack.Block, 0, len(blocks))
	for _, block := range blocks {
		switch block.Kind {
		case domain.BlockHeader:
			out = append(out, slack.NewHeaderBlock(
				slack.NewTextBlockObject(slack.PlainTextType, block.Text, true, false)))
		case domain.BlockSection:
			out = append(out, slack.NewSectionBlock(
				slack.NewTextBlockObject(slack.MarkdownType, block.Text, false, false), nil, nil))
		case domain.BlockDivider:
			out = append(out, slack.NewDividerBlock())
		case domain.BlockContext:
			out = append(out, slack.NewContextBlock("",
				slack.NewTextBlockObject(slack.MarkdownType, block.Text, false, false)))
		}
	}
	return out
}
