package llm

import "encoding/json"

// ResponseFormat selects how the model should shape its reply.
type ResponseFormat string

const (
	ResponseFormatText ResponseFormat = "text"
	ResponseFormatJSON ResponseFormat = "json"
)

// ResponseSchema describes a structured output contract.
type ResponseSchema struct {
	Name        string
	Description string
	Schema      json.RawMessage
}

// Options contains configuration for a chat request.
type Options struct {
	Model          Model
	MaxTokens      int
	Temperature    *float64
	ResponseFormat ResponseFormat
	ResponseSchema *ResponseSchema
}

// Option is a functional option for configuring chat requests.
type Option func(*Options)

// WithModel sets the model to use for the request.
func WithModel(model Model) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// WithTemperature sets the sampling temperature (0.0 to 2.0).
func WithTemperature(t float64) Option {
	return func(o *Options) {
		o.Temperature = &t
	}
}

// WithJSONMode asks the provider for a JSON reply without a schema.
func WithJSONMode() Option {
	return func(o *Options) {
		o.ResponseFormat = ResponseFormatJSON
	}
}

// WithResponseSchema constrains the reply to the given JSON schema.
func WithResponseSchema(schema ResponseSchema) Option {
	return func(o *Options) {
		o.ResponseFormat = ResponseFormatJSON
		o.ResponseSchema = &schema
	}
}

// ApplyOptions applies functional options to an Options struct.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
