// Package smtp delivers messages through an SMTP relay with go-mail.
package smtp

import (
	"context"
	"fmt"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/spetersoncode/phantommail"
	"github.com/spetersoncode/phantommail/delivery"
)

// TLS policies accepted by Config.TLSPolicy.
const (
	TLSMandatory     = "mandatory"
	TLSOpportunistic = "opportunistic"
	TLSNone          = "none"
)

// Config holds relay settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// TLSPolicy is one of TLSMandatory, TLSOpportunistic or TLSNone.
	// Empty means TLSMandatory.
	TLSPolicy string

	// Timeout bounds dialing and each SMTP command. Zero uses 30s.
	Timeout time.Duration
}

// Sender sends each message over a fresh SMTP connection.
type Sender struct {
	opts []gomail.Option
	host string
}

// New builds a Sender from cfg.
func New(cfg Config) (*Sender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("smtp: host is required")
	}
	policy, err := tlsPolicy(cfg.TLSPolicy)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	opts := []gomail.Option{
		gomail.WithTLSPolicy(policy),
		gomail.WithTimeout(timeout),
	}
	if cfg.Port != 0 {
		opts = append(opts, gomail.WithPort(cfg.Port))
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	} else {
		opts = append(opts, gomail.WithSMTPAuth(gomail.SMTPAuthNoAuth))
	}
	return &Sender{host: cfg.Host, opts: opts}, nil
}

func tlsPolicy(s string) (gomail.TLSPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", TLSMandatory:
		return gomail.TLSMandatory, nil
	case TLSOpportunistic:
		return gomail.TLSOpportunistic, nil
	case TLSNone:
		return gomail.NoTLS, nil
	default:
		return 0, fmt.Errorf("smtp: unknown tls policy %q", s)
	}
}

// Name returns "smtp".
func (s *Sender) Name() string { return "smtp" }

// Send dials the relay and submits msg.
func (s *Sender) Send(ctx context.Context, msg *phantommail.FinalMessage) error {
	m, err := delivery.BuildMessage(msg)
	if err != nil {
		return err
	}
	client, err := gomail.NewClient(s.host, s.opts...)
	if err != nil {
		return fmt.Errorf("smtp: new client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp: send to %s: %w", s.host, err)
	}
	return nil
}
