package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spetersoncode/phantommail/internal/provider/anthropic"
	"github.com/spetersoncode/phantommail/internal/provider/google"
	"github.com/spetersoncode/phantommail/internal/provider/openai"
	"github.com/spetersoncode/phantommail/internal/retry"
	"github.com/spetersoncode/phantommail/llm"
)

// APIKeys holds API keys for the key-authenticated providers.
// Only configure keys for providers you intend to use.
type APIKeys struct {
	Anthropic string
	OpenAI    string
	Google    string
}

// VertexConfig selects the Google Cloud project and region for Vertex AI.
// Credentials come from Application Default Credentials.
type VertexConfig struct {
	Project  string
	Location string
}

// Defaults holds the default chat model. The model's provider determines
// which backend is used.
type Defaults struct {
	Chat llm.Model
}

// Config holds configuration for creating a Client.
type Config struct {
	APIKeys APIKeys
	Vertex  VertexConfig

	Defaults Defaults

	// RetryConfig configures retry behavior for transient errors.
	// If nil, retry.DefaultConfig is used.
	RetryConfig *retry.Config

	// Events receives request and retry events. Sends never block; a full
	// channel drops the event.
	Events chan<- Event

	// BaseURLs overrides provider endpoints, keyed by provider.
	BaseURLs map[llm.Provider]string
}

// ErrMissingAPIKey is returned when a model is used but its provider has no
// credentials configured.
type ErrMissingAPIKey struct {
	Provider string
	Model    string
}

func (e *ErrMissingAPIKey) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("no API key configured for %s (required by model %q)", e.Provider, e.Model)
	}
	return fmt.Sprintf("no API key configured for %s", e.Provider)
}

// ErrNoModel is returned when no model is specified and no default is configured.
type ErrNoModel struct {
	Operation string
}

func (e *ErrNoModel) Error() string {
	return fmt.Sprintf("no model specified for %s: set client.Config Defaults.Chat or use llm.WithModel()", e.Operation)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithDefaultTemperature sets the default temperature for chat requests.
// Per-request options override this default.
func WithDefaultTemperature(t float64) ClientOption {
	return func(c *Client) {
		c.defaultChatOpts = append(c.defaultChatOpts, llm.WithTemperature(t))
	}
}

// WithDefaultMaxTokens sets the default max tokens for chat requests.
func WithDefaultMaxTokens(n int) ClientOption {
	return func(c *Client) {
		c.defaultChatOpts = append(c.defaultChatOpts, llm.WithMaxTokens(n))
	}
}

// Client routes chat requests to the provider of the requested model and
// retries transient failures. Provider clients are created on first use.
type Client struct {
	cfg             Config
	retryConfig     retry.Config
	defaultChatOpts []llm.Option

	mu        sync.Mutex
	providers map[llm.Provider]llm.ChatProvider
}

// New creates a Client with the given configuration.
func New(cfg Config, opts ...ClientOption) *Client {
	retryConfig := retry.DefaultConfig()
	if cfg.RetryConfig != nil {
		retryConfig = *cfg.RetryConfig
	}
	c := &Client{
		cfg:         cfg,
		retryConfig: retryConfig,
		providers:   make(map[llm.Provider]llm.ChatProvider),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultModel returns the configured default chat model, or nil.
func (c *Client) DefaultModel() llm.Model {
	return c.cfg.Defaults.Chat
}

// provider returns the chat provider for p, creating it if needed.
func (c *Client) provider(ctx context.Context, p llm.Provider, model string) (llm.ChatProvider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cp, ok := c.providers[p]; ok {
		return cp, nil
	}

	baseURL := c.cfg.BaseURLs[p]
	var cp llm.ChatProvider
	switch p {
	case llm.ProviderAnthropic:
		if c.cfg.APIKeys.Anthropic == "" {
			return nil, &ErrMissingAPIKey{Provider: p.String(), Model: model}
		}
		var opts []anthropic.ClientOption
		if baseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(baseURL))
		}
		cp = anthropic.New(c.cfg.APIKeys.Anthropic, opts...)
	case llm.ProviderOpenAI:
		if c.cfg.APIKeys.OpenAI == "" {
			return nil, &ErrMissingAPIKey{Provider: p.String(), Model: model}
		}
		var opts []openai.ClientOption
		if baseURL != "" {
			opts = append(opts, openai.WithBaseURL(baseURL))
		}
		cp = openai.New(c.cfg.APIKeys.OpenAI, opts...)
	case llm.ProviderGoogle, llm.ProviderVertex:
		var opts []google.ClientOption
		if baseURL != "" {
			opts = append(opts, google.WithBaseURL(baseURL))
		}
		var (
			gc  *google.Client
			err error
		)
		if p == llm.ProviderGoogle {
			if c.cfg.APIKeys.Google == "" {
				return nil, &ErrMissingAPIKey{Provider: p.String(), Model: model}
			}
			gc, err = google.New(ctx, c.cfg.APIKeys.Google, opts...)
		} else {
			if c.cfg.Vertex.Project == "" {
				return nil, &ErrMissingAPIKey{Provider: p.String(), Model: model}
			}
			gc, err = google.NewVertex(ctx, c.cfg.Vertex.Project, c.cfg.Vertex.Location, opts...)
		}
		if err != nil {
			return nil, fmt.Errorf("initialize %s client: %w", p, err)
		}
		cp = gc
	default:
		return nil, fmt.Errorf("unsupported provider: %s", p)
	}

	c.providers[p] = cp
	return cp, nil
}

// Chat sends a conversation and returns a complete response. The model
// comes from llm.WithModel or the configured default. Transient errors are
// retried according to the client's retry configuration.
func (c *Client) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (*llm.Response, error) {
	opts = append(append([]llm.Option(nil), c.defaultChatOpts...), opts...)
	options := llm.ApplyOptions(opts...)

	model := options.Model
	if model == nil {
		model = c.cfg.Defaults.Chat
	}
	if model == nil {
		return nil, &ErrNoModel{Operation: "chat"}
	}
	if options.Model == nil {
		opts = append([]llm.Option{llm.WithModel(model)}, opts...)
	}

	p := model.Provider()
	cp, err := c.provider(ctx, p, model.String())
	if err != nil {
		return nil, err
	}

	start := time.Now()
	base := Event{Operation: "chat", Provider: p, Model: model.String()}
	emit(c.cfg.Events, base.with(EventRequestStart))

	var retryEvents chan retry.Event
	var forwarded sync.WaitGroup
	if c.cfg.Events != nil {
		retryEvents = make(chan retry.Event, 10)
		forwarded.Add(1)
		go func() {
			defer forwarded.Done()
			c.forwardRetryEvents(retryEvents, base)
		}()
	}

	resp, err := retry.DoWithEvents(ctx, c.retryConfig, retryEvents, func() (*llm.Response, error) {
		return cp.Chat(ctx, messages, opts...)
	})
	if retryEvents != nil {
		close(retryEvents)
		forwarded.Wait()
	}

	done := base
	done.Duration = time.Since(start)
	if err != nil {
		done.Error = err
		emit(c.cfg.Events, done.with(EventRequestError))
		return nil, err
	}
	done.Usage = &resp.Usage
	emit(c.cfg.Events, done.with(EventRequestComplete))
	return resp, nil
}

func (c *Client) forwardRetryEvents(retryEvents <-chan retry.Event, base Event) {
	for re := range retryEvents {
		ev := base.with(EventRetry)
		ev.RetryEvent = &re
		emit(c.cfg.Events, ev)
	}
}

var _ llm.ChatProvider = (*Client)(nil)
