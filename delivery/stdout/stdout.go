// Package stdout prints messages instead of sending them.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spetersoncode/phantommail"
)

const rule = "========================================\n"

// Sender writes a readable rendition of each message to a writer.
type Sender struct {
	w io.Writer
}

// New writes to os.Stdout.
func New() *Sender {
	return &Sender{w: os.Stdout}
}

// NewWithWriter writes to w.
func NewWithWriter(w io.Writer) *Sender {
	return &Sender{w: w}
}

// Name returns "stdout".
func (s *Sender) Name() string { return "stdout" }

// Send prints msg.
func (s *Sender) Send(_ context.Context, msg *phantommail.FinalMessage) error {
	var b strings.Builder
	b.WriteString(rule)
	fmt.Fprintf(&b, "From: %s\n", msg.Sender)
	fmt.Fprintf(&b, "To: %s\n", strings.Join(msg.Recipients, ", "))
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	b.WriteString("Body:\n")
	b.WriteString(msg.BodyHTML + "\n")

	if len(msg.Attachments) > 0 {
		names := make([]string, 0, len(msg.Attachments))
		for _, a := range msg.Attachments {
			names = append(names, fmt.Sprintf("%s (%s)", a.Filename, formatSize(len(a.Data))))
		}
		fmt.Fprintf(&b, "Attachments: %s\n", strings.Join(names, ", "))
	}
	b.WriteString(rule)

	if _, err := io.WriteString(s.w, b.String()); err != nil {
		return fmt.Errorf("stdout: write: %w", err)
	}
	return nil
}

func formatSize(n int) string {
	const (
		kb = 1024
		mb = kb * 1024
	)
	switch {
	case n >= mb:
		return fmt.Sprintf("%.1f MB", float64(n)/float64(mb))
	case n >= kb:
		return fmt.Sprintf("%.1f KB", float64(n)/float64(kb))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
