package llm

import "context"

// Provider identifies an AI provider.
type Provider string

// String returns the provider identifier.
func (p Provider) String() string { return string(p) }

// Supported providers.
const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGoogle    Provider = "google"
	ProviderVertex    Provider = "vertex"
)

// ParseProvider returns the provider for a name and whether it is known.
func ParseProvider(s string) (Provider, bool) {
	switch p := Provider(s); p {
	case ProviderAnthropic, ProviderOpenAI, ProviderGoogle, ProviderVertex:
		return p, true
	}
	return "", false
}

// Model identifies a chat model and the provider that serves it.
type Model interface {
	String() string
	Provider() Provider
}

// ChatProvider is implemented by anything that can complete a conversation.
type ChatProvider interface {
	Chat(ctx context.Context, messages []Message, opts ...Option) (*Response, error)
}
