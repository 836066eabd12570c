package email

import (
	"context"
	"fmt"
	"log/slog"

	gomail "gopkg.in/gomail.v2"

	"DailyBriefing/internal/config"
	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/ports"
)

// Publisher delivers briefings over SMTP as multipart text plus HTML.
type Publisher struct {
	cfg     config.EmailConfig
	enabled bool
	logger  *slog.Logger
}

var _ ports.Publisher = (*Publisher)(nil)

func NewPublisher(cfg config.EmailConfig, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	enabled := cfg.Host != "" && cfg.User != "" && cfg.Pass != "" && cfg.To != ""
	return &Publisher{cfg: cfg, enabled: enabled, logger: logger.With("component", "email")}
}

func (p *Publisher) Channel() domain.Channel { return domain.ChannelEmail }

func (p *Publisher) Enabled() bool { return p.enabled }

// SendBriefing mails the Markdown rendering with the HTML rendering as the
// rich alternative.
func (p *Publisher) SendBriefing(ctx context.Context, briefing domain.RenderedBriefing) error {
	if !p.enabled {
		return fmt.Errorf("email publisher is not configured")
	}

	from := p.cfg.From
	if from == "" {
		from = p.cfg.User
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", p.cfg.To)
	msg.SetHeader("Subject", fmt.Sprintf("📅 Daily Tech Briefing - %s", briefing.Date))
	msg.SetBody("text/plain", briefing.Markdown)
	msg.AddAlternative("text/html", briefing.HTML)

	dialer := gomail.NewDialer(p.cfg.Host, p.cfg.Port, p.cfg.User, p.cfg.Pass)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send briefing mail: %w", err)
	}
	return nil
}

// TestConnection dials the SMTP server and authenticates.
func (p *Publisher) TestConnection(ctx context.Context) error {
	if !p.enabled {
		return fmt.Errorf("email publisher is not configured")
	}
	dialer := gomail.NewDialer(p.cfg.Host, p.cfg.Port, p.cfg.User, p.cfg.Pass)
	closer, err := dialer.Dial()
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	return closer.Close()
}
