// Package brevo delivers messages through the Brevo transactional email API.
package brevo

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	brevo "github.com/getbrevo/brevo-go/lib"

	"github.com/spetersoncode/phantommail"
	"github.com/spetersoncode/phantommail/delivery"
	"github.com/spetersoncode/phantommail/internal/status"
)

// Config holds the Brevo account settings.
type Config struct {
	APIKey string

	// BaseURL overrides the API endpoint.
	BaseURL string
}

// TransactionalAPI is the subset of the Brevo client used here.
type TransactionalAPI interface {
	SendTransacEmail(ctx context.Context, email brevo.SendSmtpEmail) (brevo.CreateSmtpEmail, *http.Response, error)
}

// Sender posts messages to Brevo.
type Sender struct {
	api TransactionalAPI
}

// New builds a Sender backed by the Brevo SDK client.
func New(cfg Config) (*Sender, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("brevo: api key is required")
	}
	bc := brevo.NewConfiguration()
	bc.AddDefaultHeader("api-key", cfg.APIKey)
	if cfg.BaseURL != "" {
		bc.BasePath = cfg.BaseURL
	}
	return NewWithAPI(brevo.NewAPIClient(bc).TransactionalEmailsApi), nil
}

// NewWithAPI uses api instead of the SDK client.
func NewWithAPI(api TransactionalAPI) *Sender {
	return &Sender{api: api}
}

// Name returns "brevo".
func (s *Sender) Name() string { return "brevo" }

// Send posts msg with attachments inlined as base64.
func (s *Sender) Send(ctx context.Context, msg *phantommail.FinalMessage) error {
	if err := delivery.Validate(msg); err != nil {
		return err
	}

	_, resp, err := s.api.SendTransacEmail(ctx, buildEmail(msg))
	if err != nil {
		if resp != nil {
			return status.Wrap("brevo: send email", resp.StatusCode, resp, err)
		}
		return fmt.Errorf("brevo: send email: %w", err)
	}
	return nil
}

func buildEmail(msg *phantommail.FinalMessage) brevo.SendSmtpEmail {
	to := make([]brevo.SendSmtpEmailTo, 0, len(msg.Recipients))
	for _, r := range msg.Recipients {
		to = append(to, brevo.SendSmtpEmailTo{Email: r})
	}

	email := brevo.SendSmtpEmail{
		Sender:      &brevo.SendSmtpEmailSender{Email: msg.Sender},
		To:          to,
		Subject:     msg.Subject,
		HtmlContent: msg.BodyHTML,
		Headers: map[string]interface{}{
			"Message-ID": "<" + delivery.MessageID(msg.Sender) + ">",
		},
	}
	for _, a := range msg.Attachments {
		email.Attachment = append(email.Attachment, brevo.SendSmtpEmailAttachment{
			Name:    a.Filename,
			Content: base64.StdEncoding.EncodeToString(a.Data),
		})
	}
	return email
}
