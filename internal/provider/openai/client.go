// Package openai implements llm.ChatProvider on the OpenAI SDK using the
// json_schema response format for structured output.
package openai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/spetersoncode/phantommail/llm"
)

// DefaultModel is used when a request names no model.
const DefaultModel = "gpt-5.2"

// Client wraps the OpenAI SDK client.
type Client struct {
	client *openai.Client
	model  string
}

// ClientOption configures the OpenAI client.
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

// New creates a new OpenAI client with the given API key. SDK-level retries
// are disabled; the caller owns the retry policy.
func New(apiKey string, opts ...ClientOption) *Client {
	cfg := &clientConfig{model: DefaultModel}
	for _, opt := range opts {
		opt(cfg)
	}
	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, cfg.reqOpts...)
	client := openai.NewClient(reqOpts...)
	return &Client{client: &client, model: cfg.model}
}

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (*llm.Response, error) {
	if len(messages) == 0 {
		return nil, llm.ErrEmptyInput
	}
	options := llm.ApplyOptions(opts...)

	resp, err := c.client.Chat.Completions.New(ctx, c.buildParams(messages, options))
	if err != nil {
		return nil, wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, llm.NewTransientError("openai returned no choices", 0, nil)
	}

	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, llm.NewUserInputError("model refused: "+choice.Message.Refusal, 0, nil)
	}
	return &llm.Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: llm.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

func (c *Client) buildParams(messages []llm.Message, options *llm.Options) openai.ChatCompletionNewParams {
	model := c.model
	if options.Model != nil {
		model = options.Model.String()
	}

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: convertMessages(messages),
	}
	if options.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(options.MaxTokens))
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(*options.Temperature)
	}
	if options.ResponseSchema != nil {
		params.ResponseFormat = buildSchemaFormat(options.ResponseSchema)
	} else if options.ResponseFormat == llm.ResponseFormatJSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}
	return params
}

var _ llm.ChatProvider = (*Client)(nil)
