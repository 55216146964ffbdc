package llm

import (
	"errors"
	"strings"
)

// NoAttachment is the literal the model returns in attachment_html when the
// email carries no attachment.
const NoAttachment = "no attachment"

// Email is the structured reply every generation branch asks the model for.
type Email struct {
	Subject        string `json:"subject"`
	BodyHTML       string `json:"body_html"`
	AttachmentHTML string `json:"attachment_html"`
}

// HasAttachment reports whether the reply carries attachment markup.
func (e Email) HasAttachment() bool {
	a := strings.TrimSpace(e.AttachmentHTML)
	return a != "" && !strings.EqualFold(a, NoAttachment)
}

// Validate rejects replies with an empty subject or body.
func (e Email) Validate() error {
	var errs []error
	if strings.TrimSpace(e.Subject) == "" {
		errs = append(errs, errors.New("subject is empty"))
	}
	if strings.TrimSpace(e.BodyHTML) == "" {
		errs = append(errs, errors.New("body_html is empty"))
	}
	return errors.Join(errs...)
}

// EmailSchema is the structured output contract for Email.
func EmailSchema() ResponseSchema {
	return SchemaFrom[Email]().
		Desc("subject", "Subject line of the email").
		Desc("body_html", "Full HTML body of the email").
		Desc("attachment_html", `HTML of the attachment document, or "no attachment" when there is none`).
		ResponseSchema("email", "A generated email with an optional HTML attachment")
}
