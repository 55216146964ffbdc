package phantommail

import (
	"slices"

	"github.com/spetersoncode/phantommail/llm"
)

// Attachment is a rendered binary file attached to the outgoing message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Clone returns a deep copy of a.
func (a Attachment) Clone() Attachment {
	a.Data = slices.Clone(a.Data)
	return a
}

// RunConfig is supplied once per run and never mutated by the workflow.
type RunConfig struct {
	Sender string
}

// RunState is the value threaded through one run. Subject and Body are both
// empty until a branch succeeds and both set afterwards.
type RunState struct {
	Recipients  []string
	Category    Category
	Subject     string
	Body        string
	Attachments []Attachment

	// Messages is carried through unchanged.
	Messages []llm.Message
}

// NewRunState returns the initial state for a run.
func NewRunState(category Category, recipients ...string) RunState {
	return RunState{Category: category, Recipients: slices.Clone(recipients)}
}

// Clone returns a copy of s that shares no slices with it.
func (s RunState) Clone() RunState {
	s.Recipients = slices.Clone(s.Recipients)
	s.Messages = slices.Clone(s.Messages)
	if s.Attachments != nil {
		atts := make([]Attachment, len(s.Attachments))
		for i, a := range s.Attachments {
			atts[i] = a.Clone()
		}
		s.Attachments = atts
	}
	return s
}

// Generated reports whether a branch has populated the state.
func (s RunState) Generated() bool {
	return s.Subject != "" && s.Body != ""
}

// Merge returns the state with the branch output applied. Attachments are
// copied so later mutation of g does not reach the state.
func (s RunState) Merge(g GeneratedContent) RunState {
	next := s.Clone()
	next.Subject = g.Subject
	next.Body = g.BodyHTML
	for _, a := range g.Attachments {
		next.Attachments = append(next.Attachments, a.Clone())
	}
	return next
}

// GeneratedContent is what a branch produces. AttachmentHTML is empty when
// the category or template has no attachment.
type GeneratedContent struct {
	Subject        string
	BodyHTML       string
	AttachmentHTML string
	Attachments    []Attachment

	// Usage is the token usage of the model call.
	Usage llm.Usage
}

// FinalMessage is the assembled message handed to a delivery transport.
type FinalMessage struct {
	Sender      string
	Recipients  []string
	Subject     string
	BodyHTML    string
	Attachments []Attachment
}

// NewFinalMessage assembles the outgoing message from the run state. It
// panics if the state has no subject or body: the workflow only sends after
// a branch has succeeded.
func NewFinalMessage(cfg RunConfig, s RunState) *FinalMessage {
	if s.Subject == "" || s.Body == "" {
		panic("phantommail: message assembled before subject and body were generated")
	}
	c := s.Clone()
	return &FinalMessage{
		Sender:      cfg.Sender,
		Recipients:  c.Recipients,
		Subject:     c.Subject,
		BodyHTML:    c.Body,
		Attachments: c.Attachments,
	}
}
