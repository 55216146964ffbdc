package delivery

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/phantommail"
	"github.com/spetersoncode/phantommail/internal/retry"
)

func testMessage() *phantommail.FinalMessage {
	return &phantommail.FinalMessage{
		Sender:     "noreply@vectrans.example",
		Recipients: []string{"ops@vectrans.example"},
		Subject:    "Transport order 4411",
		BodyHTML:   "<p>Please find the order attached.</p>",
		Attachments: []phantommail.Attachment{
			{Filename: "transport_order.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4 fake")},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*phantommail.FinalMessage)
		want   error
		substr string
	}{
		{name: "ok", mutate: func(*phantommail.FinalMessage) {}},
		{name: "no sender", mutate: func(m *phantommail.FinalMessage) { m.Sender = " " }, want: ErrNoSender},
		{name: "no recipients", mutate: func(m *phantommail.FinalMessage) { m.Recipients = nil }, want: ErrNoRecipients},
		{name: "bad sender", mutate: func(m *phantommail.FinalMessage) { m.Sender = "not-an-address" }, substr: "invalid sender"},
		{name: "bad recipient", mutate: func(m *phantommail.FinalMessage) { m.Recipients = []string{"a@b.example", "nope"} }, substr: "invalid recipient \"nope\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := testMessage()
			tt.mutate(msg)
			err := Validate(msg)
			switch {
			case tt.want != nil:
				assert.ErrorIs(t, err, tt.want)
			case tt.substr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.substr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestMessageID(t *testing.T) {
	id := MessageID("Dispatch <noreply@vectrans.example>")
	assert.True(t, strings.HasSuffix(id, "@vectrans.example"), id)
	assert.NotEqual(t, id, MessageID("noreply@vectrans.example"))

	assert.True(t, strings.HasSuffix(MessageID("nobody"), "@phantommail.local"))
}

func TestRawMessage(t *testing.T) {
	raw, err := RawMessage(testMessage())
	require.NoError(t, err)

	s := string(raw)
	assert.Contains(t, s, "Subject: Transport order 4411")
	assert.Contains(t, s, "From: <noreply@vectrans.example>")
	assert.Contains(t, s, "To: <ops@vectrans.example>")
	assert.Contains(t, s, "Message-ID: <")
	assert.Contains(t, s, "text/html")
	assert.Contains(t, s, "application/pdf")
	assert.Contains(t, s, `filename="transport_order.pdf"`)
}

func TestRawMessage_DefaultContentType(t *testing.T) {
	msg := testMessage()
	msg.Attachments[0].ContentType = ""

	raw, err := RawMessage(msg)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "application/octet-stream")
}

func TestBuildMessage_Invalid(t *testing.T) {
	msg := testMessage()
	msg.Recipients = nil
	_, err := BuildMessage(msg)
	assert.ErrorIs(t, err, ErrNoRecipients)
}

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

type scriptedSender struct {
	errs  []error
	calls int
}

func (s *scriptedSender) Name() string { return "scripted" }

func (s *scriptedSender) Send(context.Context, *phantommail.FinalMessage) error {
	s.calls++
	if s.calls <= len(s.errs) {
		return s.errs[s.calls-1]
	}
	return nil
}

func TestWithRetry(t *testing.T) {
	t.Run("transient then success", func(t *testing.T) {
		var logs bytes.Buffer
		next := &scriptedSender{errs: []error{errors.New("451 4.7.1 try again later")}}
		s := WithRetry(next, fastRetry(), slog.New(slog.NewTextHandler(&logs, nil)))

		require.NoError(t, s.Send(context.Background(), testMessage()))
		assert.Equal(t, 2, next.calls)
		assert.Equal(t, "scripted", s.Name())
		assert.Contains(t, logs.String(), "retrying delivery")
		assert.Contains(t, logs.String(), "transport=scripted")
	})

	t.Run("permanent not retried", func(t *testing.T) {
		next := &scriptedSender{errs: []error{errors.New("550 5.1.1 user unknown")}}
		s := WithRetry(next, fastRetry(), nil)

		err := s.Send(context.Background(), testMessage())
		require.Error(t, err)
		assert.Equal(t, 1, next.calls)
	})

	t.Run("exhausted", func(t *testing.T) {
		busy := errors.New("421 4.3.2 service not available")
		next := &scriptedSender{errs: []error{busy, busy, busy, busy}}
		s := WithRetry(next, fastRetry(), nil)

		assert.ErrorIs(t, s.Send(context.Background(), testMessage()), busy)
		assert.Equal(t, 3, next.calls)
	})
}

func TestSenderFunc(t *testing.T) {
	var got string
	s := SenderFunc(func(_ context.Context, msg *phantommail.FinalMessage) error {
		got = msg.Subject
		return nil
	})
	require.NoError(t, s.Send(context.Background(), testMessage()))
	assert.Equal(t, "Transport order 4411", got)
	assert.Equal(t, "func", s.Name())
}
