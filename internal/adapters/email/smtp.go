package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/kevin07696/mealplan-service/pkg/resilience"
)

// SMTPConfig addresses the relay
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	DialTimeout time.Duration
}

// SMTPTransport sends through an SMTP relay, upgrading with STARTTLS when
// the relay offers it. PLAIN auth is used only when a username is set.
type SMTPTransport struct {
	cfg SMTPConfig
}

// NewSMTPTransport creates a transport for cfg
func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.Port == 0 {
		cfg.Port = mail.DefaultPort
	}
	return &SMTPTransport{cfg: cfg}
}

// Deliver opens one session per message. Permanent (5xx) rejections are
// marked so the sender does not retry them.
func (t *SMTPTransport) Deliver(ctx context.Context, msg Message) error {
	m, err := t.compose(msg)
	if err != nil {
		return resilience.Permanent(err)
	}

	client, err := mail.NewClient(t.cfg.Host, t.clientOptions()...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		err = fmt.Errorf("smtp %s:%d: %w", t.cfg.Host, t.cfg.Port, err)
		var se *mail.SendError
		if errors.As(err, &se) && !se.IsTemp() {
			return resilience.Permanent(err)
		}
		return err
	}
	return nil
}

func (t *SMTPTransport) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(t.cfg.Port),
		mail.WithTimeout(t.cfg.DialTimeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if t.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(t.cfg.Username),
			mail.WithPassword(t.cfg.Password),
		)
	}
	return opts
}

func (t *SMTPTransport) compose(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(t.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", t.cfg.From, err)
	}
	if err := m.AddToFormat(msg.ToName, msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}
