package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"DailyBriefing/internal/config"
	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/ports"
)

// Publisher delivers briefings to a Telegram chat through the bot API.
type Publisher struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

var _ ports.Publisher = (*Publisher)(nil)

// NewPublisher initializes the bot client. Missing credentials or a failed
// handshake leave the publisher disabled rather than erroring.
func NewPublisher(cfg config.TelegramConfig, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{chatID: cfg.ChatID, logger: logger.With("component", "telegram")}

	if cfg.BotToken == "" || cfg.ChatID == 0 {
		return p
	}
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		p.logger.Warn("telegram bot init failed, channel disabled", "error", err)
		return p
	}
	p.bot = bot
	return p
}

func (p *Publisher) Channel() domain.Channel { return domain.ChannelTelegram }

func (p *Publisher) Enabled() bool { return p.bot != nil }

// SendBriefing posts the chat rendering as a Markdown message.
func (p *Publisher) SendBriefing(ctx context.Context, briefing domain.RenderedBriefing) error {
	if p.bot == nil {
		return fmt.Errorf("telegram publisher is not configured")
	}

	msg := tgbotapi.NewMessage(p.chatID, briefing.ChatText)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if _, err := p.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// TestConnection verifies the bot token against the Telegram API.
func (p *Publisher) TestConnection(ctx context.Context) error {
	if p.bot == nil {
		return fmt.Errorf("telegram publisher is not configured")
	}
	if _, err := p.bot.GetMe(); err != nil {
		return fmt.Errorf("telegram getMe: %w", err)
	}
	return nil
}
