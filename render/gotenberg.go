package render

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/starwalkn/gotenberg-go-client/v8"
	"github.com/starwalkn/gotenberg-go-client/v8/document"

	"github.com/spetersoncode/phantommail"
	"github.com/spetersoncode/phantommail/internal/retry"
	"github.com/spetersoncode/phantommail/internal/status"
)

// Gotenberg renders HTML through a Gotenberg server's Chromium route.
type Gotenberg struct {
	client     *gotenberg.Client
	httpClient *http.Client
	retry      retry.Config
	logger     *slog.Logger
	filename   string

	// A4 portrait by default.
	paperWidth, paperHeight float64
	margin                  float64
}

// Option configures a Gotenberg renderer.
type Option func(*Gotenberg)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gotenberg) {
		g.httpClient = c
	}
}

// WithRetry sets the retry policy for transient conversion failures.
func WithRetry(cfg retry.Config) Option {
	return func(g *Gotenberg) {
		g.retry = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gotenberg) {
		g.logger = logger
	}
}

// WithFilename sets the filename of rendered attachments.
func WithFilename(name string) Option {
	return func(g *Gotenberg) {
		g.filename = name
	}
}

// WithPaperSize sets the paper size in inches.
func WithPaperSize(width, height float64) Option {
	return func(g *Gotenberg) {
		g.paperWidth, g.paperHeight = width, height
	}
}

// NewGotenberg returns a renderer for the Gotenberg server at baseURL,
// which must carry its scheme.
func NewGotenberg(baseURL string, opts ...Option) (*Gotenberg, error) {
	g := &Gotenberg{
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		retry:       retry.Config{MaxAttempts: 3, InitialDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second, Multiplier: 2, Jitter: 0.1},
		logger:      slog.Default(),
		filename:    "document.pdf",
		paperWidth:  gotenberg.A4.Width,
		paperHeight: gotenberg.A4.Height,
		margin:      0.4,
	}
	for _, opt := range opts {
		opt(g)
	}
	client, err := gotenberg.NewClient(strings.TrimRight(baseURL, "/"), g.httpClient)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	g.client = client
	g.logger = g.logger.With("component", "render")
	return g, nil
}

// Render converts html to a PDF and checks that the result parses.
func (g *Gotenberg) Render(ctx context.Context, html string) (phantommail.Attachment, error) {
	if strings.TrimSpace(html) == "" {
		return phantommail.Attachment{}, ErrEmptyHTML
	}

	start := time.Now()
	data, err := retry.Do(ctx, g.retry, func() ([]byte, error) {
		return g.convert(ctx, html)
	})
	if err != nil {
		return phantommail.Attachment{}, err
	}

	pages, err := PageCount(data)
	if err != nil {
		return phantommail.Attachment{}, err
	}
	g.logger.Debug("rendered pdf", "bytes", len(data), "pages", pages, "duration", time.Since(start))

	return phantommail.Attachment{
		Filename:    g.filename,
		ContentType: ContentTypePDF,
		Data:        data,
	}, nil
}

func (g *Gotenberg) convert(ctx context.Context, html string) ([]byte, error) {
	req, err := g.request(html)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Send(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("render: gotenberg request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("render: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := truncate(strings.TrimSpace(string(data)), maxErrorBody)
		return nil, status.Wrap(fmt.Sprintf("gotenberg conversion failed: %s", msg), resp.StatusCode, resp, nil)
	}
	return data, nil
}

func (g *Gotenberg) request(html string) (*gotenberg.HTMLRequest, error) {
	index, err := document.FromString("index.html", html)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	req := gotenberg.NewHTMLRequest(index)
	req.Trace(uuid.NewString())
	req.PaperSize(gotenberg.PaperDimensions{Width: g.paperWidth, Height: g.paperHeight, Unit: gotenberg.IN})
	req.Margins(gotenberg.PageMargins{Top: g.margin, Bottom: g.margin, Left: g.margin, Right: g.margin, Unit: gotenberg.IN})
	req.PrintBackground()
	return req, nil
}

// maxErrorBody bounds how much of a failed response ends up in the error.
const maxErrorBody = 200

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

var _ Renderer = (*Gotenberg)(nil)
