// Package google implements llm.ChatProvider on the Google GenAI SDK, for
// both the Gemini API and Vertex AI backends.
package google

import (
	"context"
	"strings"

	"github.com/spetersoncode/phantommail/llm"
	"google.golang.org/genai"
)

// DefaultModel is used when a request names no model.
const DefaultModel = "gemini-2.5-pro"

// Client wraps a genai.Client.
type Client struct {
	client  *genai.Client
	model   string
	baseURL string
}

// ClientOption configures the Google client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// New creates a client for the Gemini API authenticated with an API key.
func New(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	return newClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, opts)
}

// NewVertex creates a client for Vertex AI. Authentication uses Application
// Default Credentials.
func NewVertex(ctx context.Context, project, location string, opts ...ClientOption) (*Client, error) {
	return newClient(ctx, &genai.ClientConfig{
		Backend:  genai.BackendVertexAI,
		Project:  project,
		Location: location,
	}, opts)
}

func newClient(ctx context.Context, cfg *genai.ClientConfig, opts []ClientOption) (*Client, error) {
	c := &Client{model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL != "" {
		cfg.HTTPOptions.BaseURL = c.baseURL
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.client = client
	return c, nil
}

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (*llm.Response, error) {
	if len(messages) == 0 {
		return nil, llm.ErrEmptyInput
	}
	options := llm.ApplyOptions(opts...)
	model := c.model
	if options.Model != nil {
		model = options.Model.String()
	}

	system, contents := convertMessages(messages)
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, buildConfig(system, options))
	if err != nil {
		return nil, wrapError(err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, llm.NewUserInputError("prompt blocked", 0, &BlockedError{Reason: string(resp.PromptFeedback.BlockReason)})
	}
	return convertResponse(resp), nil
}

func buildConfig(system string, options *llm.Options) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.Temperature != nil {
		temp := float32(*options.Temperature)
		config.Temperature = &temp
	}
	if options.ResponseSchema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = ConvertJSONSchemaToGenaiSchema(options.ResponseSchema.Schema)
	} else if options.ResponseFormat == llm.ResponseFormatJSON {
		config.ResponseMIMEType = "application/json"
	}
	return config
}

func convertResponse(resp *genai.GenerateContentResponse) *llm.Response {
	out := &llm.Response{}
	if len(resp.Candidates) > 0 {
		cand := resp.Candidates[0]
		out.FinishReason = string(cand.FinishReason)
		if cand.Content != nil {
			var sb strings.Builder
			for _, part := range cand.Content.Parts {
				if part.Text != "" && !part.Thought {
					sb.WriteString(part.Text)
				}
			}
			out.Content = sb.String()
		}
	}
	if resp.UsageMetadata != nil {
		out.Usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.Usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out
}

var _ llm.ChatProvider = (*Client)(nil)
