package phantommail

import (
	"errors"
	"testing"

	"github.com/spetersoncode/phantommail/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunState_CloneDoesNotAlias(t *testing.T) {
	s := NewRunState(Order, "a@example.com")
	s.Messages = []llm.Message{llm.UserMessage("hi")}
	s = s.Merge(GeneratedContent{
		Subject:     "S",
		BodyHTML:    "B",
		Attachments: []Attachment{{Filename: "x.pdf", Data: []byte("pdf")}},
	})

	c := s.Clone()
	c.Recipients[0] = "changed@example.com"
	c.Attachments[0].Data[0] = 'X'
	c.Messages[0].Content = "changed"

	assert.Equal(t, "a@example.com", s.Recipients[0])
	assert.Equal(t, []byte("pdf"), s.Attachments[0].Data)
	assert.Equal(t, "hi", s.Messages[0].Content)
}

func TestRunState_Merge(t *testing.T) {
	s := NewRunState(Question, "a@example.com")
	assert.False(t, s.Generated())

	g := GeneratedContent{Subject: "S", BodyHTML: "B", Attachments: []Attachment{{Filename: "f", Data: []byte{1}}}}
	next := s.Merge(g)

	assert.True(t, next.Generated())
	assert.Equal(t, "S", next.Subject)
	assert.Equal(t, "B", next.Body)
	assert.False(t, s.Generated(), "merge must not modify the prior state")

	g.Attachments[0].Data[0] = 9
	assert.Equal(t, byte(1), next.Attachments[0].Data[0])
}

func TestNewRunState_CopiesRecipients(t *testing.T) {
	rcpts := []string{"a@example.com"}
	s := NewRunState(Random, rcpts...)
	rcpts[0] = "b@example.com"
	assert.Equal(t, "a@example.com", s.Recipients[0])
}

func TestNewFinalMessage(t *testing.T) {
	s := NewRunState(Question, "a@example.com", "b@example.com").Merge(GeneratedContent{Subject: "S", BodyHTML: "B"})

	msg := NewFinalMessage(RunConfig{Sender: "me@example.com"}, s)
	assert.Equal(t, "me@example.com", msg.Sender)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, msg.Recipients)
	assert.Equal(t, "S", msg.Subject)
	assert.Equal(t, "B", msg.BodyHTML)
	assert.Empty(t, msg.Attachments)
}

func TestNewFinalMessage_PanicsWithoutContent(t *testing.T) {
	cfg := RunConfig{Sender: "me@example.com"}
	assert.Panics(t, func() { NewFinalMessage(cfg, RunState{Body: "B"}) })
	assert.Panics(t, func() { NewFinalMessage(cfg, RunState{Subject: "S"}) })
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("boom")
	tests := []error{
		&SelectionError{Category: Unspecified, Err: cause},
		&GenerationError{Category: Order, Err: cause},
		&RenderError{Category: Declaration, Err: cause},
		&DeliveryError{Transport: "smtp", Err: cause},
	}
	for _, err := range tests {
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "boom")
	}

	var gen *GenerationError
	require.ErrorAs(t, error(&GenerationError{Category: Complaint, Err: cause}), &gen)
	assert.Equal(t, "generate complaint email: boom", gen.Error())
	assert.Equal(t, "no branch for category update_order", (&SelectionError{Category: UpdateOrder}).Error())
}
