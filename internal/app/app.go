// Package app assembles a ready-to-run PhantomMail from configuration. Both
// binaries build their runtime here.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/spetersoncode/phantommail"
	"github.com/spetersoncode/phantommail/batch"
	"github.com/spetersoncode/phantommail/branch"
	"github.com/spetersoncode/phantommail/client"
	"github.com/spetersoncode/phantommail/delivery"
	"github.com/spetersoncode/phantommail/delivery/blob"
	"github.com/spetersoncode/phantommail/delivery/brevo"
	"github.com/spetersoncode/phantommail/delivery/ses"
	"github.com/spetersoncode/phantommail/delivery/smtp"
	"github.com/spetersoncode/phantommail/delivery/stdout"
	"github.com/spetersoncode/phantommail/engine"
	"github.com/spetersoncode/phantommail/faker"
	"github.com/spetersoncode/phantommail/internal/config"
	"github.com/spetersoncode/phantommail/internal/journal"
	"github.com/spetersoncode/phantommail/internal/retry"
	"github.com/spetersoncode/phantommail/llm"
	"github.com/spetersoncode/phantommail/model"
	"github.com/spetersoncode/phantommail/render"
	"github.com/spetersoncode/phantommail/templates"
)

// App is a wired PhantomMail runtime.
type App struct {
	Config  *config.Config
	Model   model.ChatModel
	Engine  *engine.Engine
	Batch   *batch.Driver
	Sender  delivery.Sender
	Journal *journal.Journal // nil when the journal is disabled

	logger  *slog.Logger
	closers []func() error
}

type options struct {
	logger   *slog.Logger
	output   io.Writer
	chat     llm.ChatProvider
	renderer render.Renderer
	sender   delivery.Sender
}

// Option overrides a collaborator New would otherwise build.
type Option func(*options)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithOutput sets where batch progress is printed.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// WithChatProvider replaces the configured model client.
func WithChatProvider(p llm.ChatProvider) Option {
	return func(o *options) { o.chat = p }
}

// WithRenderer replaces the Gotenberg renderer.
func WithRenderer(r render.Renderer) Option {
	return func(o *options) { o.renderer = r }
}

// WithSender replaces the configured transport. It is still wrapped with
// delivery retries.
func WithSender(s delivery.Sender) Option {
	return func(o *options) { o.sender = s }
}

// New builds the runtime described by cfg. Close releases it.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (_ *App, err error) {
	o := options{logger: slog.Default(), output: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, logger: o.logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	provider, ok := llm.ParseProvider(cfg.LLM.Provider)
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", cfg.LLM.Provider)
	}
	if a.Model, err = model.Lookup(provider, cfg.LLM.Model); err != nil {
		return nil, err
	}

	chat := o.chat
	if chat == nil {
		chat = a.newClient()
	}

	renderer := o.renderer
	if renderer == nil {
		renderer, err = render.NewGotenberg(cfg.Gotenberg.URL,
			render.WithHTTPClient(&http.Client{Timeout: cfg.Gotenberg.Timeout}),
			render.WithLogger(o.logger))
		if err != nil {
			return nil, err
		}
	}

	store, err := templates.New()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	seed := cfg.Run.Seed
	orderPolicy, err := branch.ParseTemplatePolicy(cfg.Templates.Order, store.Indices(phantommail.Order), newRand(seed, 1))
	if err != nil {
		return nil, fmt.Errorf("templates.order %w", err)
	}
	declarationPolicy, err := branch.ParseTemplatePolicy(cfg.Templates.Declaration, store.Indices(phantommail.Declaration), newRand(seed, 2))
	if err != nil {
		return nil, fmt.Errorf("templates.declaration %w", err)
	}

	generators, err := branch.All(branch.Deps{
		Model:               chat,
		Renderer:            renderer,
		Templates:           store,
		Producers:           faker.New(seed).Producers(),
		OrderTemplate:       orderPolicy,
		DeclarationTemplate: declarationPolicy,
		Logger:              o.logger,
	})
	if err != nil {
		return nil, err
	}

	sender := o.sender
	if sender == nil {
		if sender, err = NewSender(ctx, cfg.Delivery, o.logger); err != nil {
			return nil, err
		}
	}
	a.Sender = delivery.WithRetry(sender, DeliveryRetry(cfg.Delivery.MaxAttempts), o.logger)

	a.Engine, err = engine.New(engine.Config{
		Run:         phantommail.RunConfig{Sender: cfg.Sender},
		Generators:  generators,
		Sender:      a.Sender,
		Rand:        newRand(seed, 3),
		Timeout:     cfg.Run.Timeout,
		StepTimeout: cfg.Run.StepTimeout,
		Logger:      o.logger,
	})
	if err != nil {
		return nil, err
	}

	batchOpts := []batch.Option{
		batch.WithOutput(o.output),
		batch.WithDelay(cfg.Run.Delay),
		batch.WithRand(newRand(seed, 4)),
		batch.WithCost(a.Model.Cost),
		batch.WithLogger(o.logger),
	}
	if cfg.Journal.Path != "" {
		if a.Journal, err = journal.Open(cfg.Journal.Path); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, a.Journal.Close)
		batchOpts = append(batchOpts, batch.WithRecorder(a.Journal))
	}
	a.Batch = batch.New(a.Engine, batchOpts...)

	o.logger.Debug("app ready",
		"provider", a.Model.Provider(),
		"model", a.Model.String(),
		"transport", a.Sender.Name(),
		"journal", cfg.Journal.Path != "")
	return a, nil
}

func (a *App) newClient() *client.Client {
	cfg := a.Config
	rc := retry.DefaultConfig()
	if cfg.LLM.MaxAttempts > 0 {
		rc.MaxAttempts = cfg.LLM.MaxAttempts
	}

	events := make(chan client.Event, 64)
	go client.LogEvents(a.logger.With("component", "client"), events)
	a.closers = append(a.closers, func() error {
		close(events)
		return nil
	})

	opts := []client.ClientOption{client.WithDefaultTemperature(cfg.LLM.Temperature)}
	if cfg.LLM.MaxTokens > 0 {
		opts = append(opts, client.WithDefaultMaxTokens(cfg.LLM.MaxTokens))
	}
	return client.New(client.Config{
		APIKeys: client.APIKeys{
			Anthropic: cfg.LLM.AnthropicKey,
			OpenAI:    cfg.LLM.OpenAIKey,
			Google:    cfg.LLM.GoogleKey,
		},
		Vertex:      client.VertexConfig{Project: cfg.Vertex.Project, Location: cfg.Vertex.Location},
		Defaults:    client.Defaults{Chat: a.Model},
		RetryConfig: &rc,
		Events:      events,
	}, opts...)
}

// Run sends one batch and records it when the journal is enabled.
func (a *App) Run(ctx context.Context, sel batch.Selection) (*batch.Summary, error) {
	return a.Batch.Run(ctx, sel)
}

// Close releases the journal and stops event logging.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewSender builds the configured transport.
func NewSender(ctx context.Context, cfg config.DeliveryConfig, logger *slog.Logger) (delivery.Sender, error) {
	var (
		s   delivery.Sender
		err error
	)
	switch cfg.Transport {
	case config.TransportSMTP:
		s, err = newSMTP(cfg.SMTP)
	case config.TransportSES:
		s, err = newSES(ctx, cfg.SES)
	case config.TransportBrevo:
		s, err = newBrevo(cfg.Brevo)
	case config.TransportBlob:
		s, err = newBlob(ctx, cfg.Blob, logger)
	case config.TransportStdout:
		s = stdout.New()
	default:
		err = fmt.Errorf("unknown transport %q", cfg.Transport)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func newSMTP(cfg config.SMTPConfig) (delivery.Sender, error) {
	s, err := smtp.New(smtp.Config{
		Host:      cfg.Host,
		Port:      cfg.Port,
		Username:  cfg.Username,
		Password:  cfg.Password,
		TLSPolicy: cfg.TLSPolicy,
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func newSES(ctx context.Context, cfg config.SESConfig) (delivery.Sender, error) {
	s, err := ses.New(ctx, ses.Config{
		Region:           cfg.Region,
		AccessKeyID:      cfg.AccessKeyID,
		SecretAccessKey:  cfg.SecretAccessKey,
		ConfigurationSet: cfg.ConfigurationSet,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func newBrevo(cfg config.BrevoConfig) (delivery.Sender, error) {
	s, err := brevo.New(brevo.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func newBlob(ctx context.Context, cfg config.BlobConfig, logger *slog.Logger) (delivery.Sender, error) {
	s, err := blob.New(blob.Config{
		ConnectionString: cfg.ConnectionString,
		Container:        cfg.Container,
		Prefix:           cfg.Prefix,
	}, blob.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := s.EnsureContainer(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// DeliveryRetry is the backoff used for transient transport failures.
func DeliveryRetry(maxAttempts int) retry.Config {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return retry.Config{
		MaxAttempts:  maxAttempts,
		InitialDelay: 2 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
		Jitter:       0.1,
	}
}

// newRand returns a deterministic generator for seed and stream, or nil
// (the global source) when seed is zero. Each consumer gets its own stream.
func newRand(seed, stream uint64) *rand.Rand {
	if seed == 0 {
		return nil
	}
	return rand.New(&lockedSource{src: rand.NewPCG(seed, stream)})
}

// lockedSource serializes access to a source shared by concurrent runs.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}
