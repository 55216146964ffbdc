// Package render converts attachment HTML into PDF documents.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/spetersoncode/phantommail"
)

// ContentTypePDF is the MIME type of rendered documents.
const ContentTypePDF = "application/pdf"

// ErrEmptyHTML is returned when there is nothing to render.
var ErrEmptyHTML = errors.New("render: empty html")

// Renderer converts an HTML document into a binary attachment.
type Renderer interface {
	Render(ctx context.Context, html string) (phantommail.Attachment, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, html string) (phantommail.Attachment, error)

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, html string) (phantommail.Attachment, error) {
	return f(ctx, html)
}

// PageCount parses data as a PDF and returns its page count. A document that
// does not parse or has no pages is an error.
func PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, fmt.Errorf("render: invalid pdf: %w", err)
	}
	if n == 0 {
		return 0, errors.New("render: pdf has no pages")
	}
	return n, nil
}
