// Package delivery hands finished messages to a mail transport.
//
// Every transport implements Sender. Transports that accept a raw RFC 5322
// message (SES, blob archive) share the MIME assembly in BuildMessage so
// the bytes on the wire are the same whichever transport carries them.
package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	gomail "github.com/wneessen/go-mail"

	"github.com/spetersoncode/phantommail"
)

// Sender delivers a final message.
type Sender interface {
	Send(ctx context.Context, msg *phantommail.FinalMessage) error

	// Name identifies the transport in logs and errors.
	Name() string
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg *phantommail.FinalMessage) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, msg *phantommail.FinalMessage) error {
	return f(ctx, msg)
}

// Name returns "func".
func (f SenderFunc) Name() string { return "func" }

var (
	ErrNoSender     = errors.New("delivery: no sender address")
	ErrNoRecipients = errors.New("delivery: no recipients")
)

// Validate checks the envelope of msg.
func Validate(msg *phantommail.FinalMessage) error {
	if strings.TrimSpace(msg.Sender) == "" {
		return ErrNoSender
	}
	if len(msg.Recipients) == 0 {
		return ErrNoRecipients
	}
	if _, err := mail.ParseAddress(msg.Sender); err != nil {
		return fmt.Errorf("delivery: invalid sender %q: %w", msg.Sender, err)
	}
	for _, r := range msg.Recipients {
		if _, err := mail.ParseAddress(r); err != nil {
			return fmt.Errorf("delivery: invalid recipient %q: %w", r, err)
		}
	}
	return nil
}

// MessageID returns a fresh Message-ID value (without angle brackets) in
// the sender's domain.
func MessageID(sender string) string {
	domain := "phantommail.local"
	if at := strings.LastIndexByte(sender, '@'); at >= 0 && at < len(sender)-1 {
		domain = strings.Trim(sender[at+1:], "> ")
	}
	return uuid.NewString() + "@" + domain
}

// BuildMessage assembles msg as a go-mail message with an HTML body and
// the attachments in order.
func BuildMessage(msg *phantommail.FinalMessage) (*gomail.Msg, error) {
	if err := Validate(msg); err != nil {
		return nil, err
	}

	m := gomail.NewMsg()
	if err := m.From(msg.Sender); err != nil {
		return nil, fmt.Errorf("delivery: set from: %w", err)
	}
	if err := m.To(msg.Recipients...); err != nil {
		return nil, fmt.Errorf("delivery: set to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetMessageIDWithValue(MessageID(msg.Sender))
	m.SetDate()
	m.SetBodyString(gomail.TypeTextHTML, msg.BodyHTML)

	for _, a := range msg.Attachments {
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		m.AttachReadSeeker(a.Filename, bytes.NewReader(a.Data), gomail.WithFileContentType(gomail.ContentType(contentType)))
	}
	return m, nil
}

// RawMessage renders msg as RFC 5322 bytes.
func RawMessage(msg *phantommail.FinalMessage) ([]byte, error) {
	m, err := BuildMessage(msg)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("delivery: write message: %w", err)
	}
	return buf.Bytes(), nil
}
