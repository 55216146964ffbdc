// Package anthropic implements llm.ChatProvider on the Anthropic SDK.
// Structured output is obtained by forcing a single tool call whose input
// schema is the requested response schema.
package anthropic

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spetersoncode/phantommail/llm"
)

const (
	// DefaultModel is used when a request names no model.
	DefaultModel = "claude-sonnet-4-5"

	defaultMaxTokens = 8192
)

// Client wraps the Anthropic SDK client.
type Client struct {
	client *anthropic.Client
	model  string
}

// ClientOption configures the Anthropic client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	model   string
	reqOpts []option.RequestOption
}

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *clientConfig) {
		c.model = model
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.reqOpts = append(c.reqOpts, option.WithBaseURL(url))
	}
}

// New creates a new Anthropic client with the given API key. SDK-level
// retries are disabled; the caller owns the retry policy.
func New(apiKey string, opts ...ClientOption) *Client {
	cfg := &clientConfig{model: DefaultModel}
	for _, opt := range opts {
		opt(cfg)
	}
	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, cfg.reqOpts...)
	client := anthropic.NewClient(reqOpts...)
	return &Client{client: &client, model: cfg.model}
}

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (*llm.Response, error) {
	if len(messages) == 0 {
		return nil, llm.ErrEmptyInput
	}
	options := llm.ApplyOptions(opts...)
	params := c.buildParams(messages, options)

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}

	structured := params.ToolChoice.OfTool != nil
	out := &llm.Response{
		FinishReason: string(resp.StopReason),
		Usage: llm.Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			if !structured {
				out.Content += block.Text
			}
		case "tool_use":
			if structured && block.Name == jsonResponseToolName {
				out.Content = string(block.Input)
			}
		}
	}
	return out, nil
}

func (c *Client) buildParams(messages []llm.Message, options *llm.Options) anthropic.MessageNewParams {
	model := c.model
	if options.Model != nil {
		model = options.Model.String()
	}
	maxTokens := int64(defaultMaxTokens)
	if options.MaxTokens > 0 {
		maxTokens = int64(options.MaxTokens)
	}

	msgs, system := convertMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	if options.Temperature != nil {
		params.Temperature = anthropic.Float(*options.Temperature)
	}
	if options.ResponseFormat == llm.ResponseFormatJSON || options.ResponseSchema != nil {
		tool, choice := buildJSONTool(options.ResponseSchema)
		params.Tools = []anthropic.ToolUnionParam{tool}
		params.ToolChoice = choice
	}
	return params
}

var _ llm.ChatProvider = (*Client)(nil)
