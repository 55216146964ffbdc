package model

import (
	"fmt"

	"github.com/spetersoncode/phantommail/llm"
)

// ChatModel is a chat model from a supported provider.
type ChatModel struct {
	id       string
	provider llm.Provider
	pricing  ChatPricing
}

// Custom returns a model not in the catalog. Its pricing is zero, so cost
// estimates for it report nothing.
func Custom(provider llm.Provider, id string) ChatModel {
	return ChatModel{id: id, provider: provider}
}

// String returns the API identifier for this model.
func (m ChatModel) String() string { return m.id }

// Provider returns which provider serves this model.
func (m ChatModel) Provider() llm.Provider { return m.provider }

// Pricing returns the pricing for this model.
func (m ChatModel) Pricing() ChatPricing { return m.pricing }

// Cost estimates the USD cost of the given usage.
func (m ChatModel) Cost(usage llm.Usage) float64 {
	return CalculateCost(usage, m.pricing)
}

// Anthropic Claude models.
var (
	ClaudeOpus45   = ChatModel{id: "claude-opus-4-5", provider: llm.ProviderAnthropic, pricing: ChatPricing{InputPerMillion: 5.00, OutputPerMillion: 25.00}}
	ClaudeSonnet45 = ChatModel{id: "claude-sonnet-4-5", provider: llm.ProviderAnthropic, pricing: ChatPricing{InputPerMillion: 3.00, OutputPerMillion: 15.00}}
	ClaudeHaiku45  = ChatModel{id: "claude-haiku-4-5", provider: llm.ProviderAnthropic, pricing: ChatPricing{InputPerMillion: 1.00, OutputPerMillion: 5.00}}

	DefaultClaudeModel = ClaudeSonnet45
)

// OpenAI GPT models.
var (
	GPT52    = ChatModel{id: "gpt-5.2", provider: llm.ProviderOpenAI, pricing: ChatPricing{InputPerMillion: 1.75, OutputPerMillion: 14.00, CachedInputPerMillion: 0.175}}
	GPT51    = ChatModel{id: "gpt-5.1", provider: llm.ProviderOpenAI, pricing: ChatPricing{InputPerMillion: 1.25, OutputPerMillion: 10.00, CachedInputPerMillion: 0.125}}
	GPT5Mini = ChatModel{id: "gpt-5-mini", provider: llm.ProviderOpenAI, pricing: ChatPricing{InputPerMillion: 0.25, OutputPerMillion: 1.00, CachedInputPerMillion: 0.025}}
	GPT5Nano = ChatModel{id: "gpt-5-nano", provider: llm.ProviderOpenAI, pricing: ChatPricing{InputPerMillion: 0.10, OutputPerMillion: 0.40, CachedInputPerMillion: 0.01}}

	DefaultGPTModel = GPT52
)

// Google Gemini models served by the Gemini API.
var (
	Gemini25Pro       = ChatModel{id: "gemini-2.5-pro", provider: llm.ProviderGoogle, pricing: gemini25ProPricing}
	Gemini25Flash     = ChatModel{id: "gemini-2.5-flash", provider: llm.ProviderGoogle, pricing: gemini25FlashPricing}
	Gemini25FlashLite = ChatModel{id: "gemini-2.5-flash-lite", provider: llm.ProviderGoogle, pricing: ChatPricing{InputPerMillion: 0.075, OutputPerMillion: 0.30, InputPerMillionLong: 0.075, OutputPerMillionLong: 0.30}}

	DefaultGeminiModel = Gemini25Flash
)

// The same Gemini models served through Vertex AI.
var (
	VertexGemini25Pro   = ChatModel{id: "gemini-2.5-pro", provider: llm.ProviderVertex, pricing: gemini25ProPricing}
	VertexGemini25Flash = ChatModel{id: "gemini-2.5-flash", provider: llm.ProviderVertex, pricing: gemini25FlashPricing}

	// DefaultVertexModel is the model emails are generated with unless
	// configured otherwise.
	DefaultVertexModel = VertexGemini25Pro
)

var (
	gemini25ProPricing   = ChatPricing{InputPerMillion: 1.25, OutputPerMillion: 10.00, InputPerMillionLong: 2.50, OutputPerMillionLong: 15.00}
	gemini25FlashPricing = ChatPricing{InputPerMillion: 0.15, OutputPerMillion: 0.60, InputPerMillionLong: 0.15, OutputPerMillionLong: 0.60}
)

var catalog = []ChatModel{
	ClaudeOpus45, ClaudeSonnet45, ClaudeHaiku45,
	GPT52, GPT51, GPT5Mini, GPT5Nano,
	Gemini25Pro, Gemini25Flash, Gemini25FlashLite,
	VertexGemini25Pro, VertexGemini25Flash,
}

// All returns every catalogued chat model.
func All() []ChatModel {
	out := make([]ChatModel, len(catalog))
	copy(out, catalog)
	return out
}

// Default returns the default model for a provider.
func Default(p llm.Provider) (ChatModel, error) {
	switch p {
	case llm.ProviderAnthropic:
		return DefaultClaudeModel, nil
	case llm.ProviderOpenAI:
		return DefaultGPTModel, nil
	case llm.ProviderGoogle:
		return DefaultGeminiModel, nil
	case llm.ProviderVertex:
		return DefaultVertexModel, nil
	}
	return ChatModel{}, fmt.Errorf("unknown provider %q", p)
}

// Lookup resolves a model by provider and ID. An empty ID yields the
// provider default; an unknown ID yields a Custom model without pricing.
func Lookup(p llm.Provider, id string) (ChatModel, error) {
	if _, ok := llm.ParseProvider(string(p)); !ok {
		return ChatModel{}, fmt.Errorf("unknown provider %q", p)
	}
	if id == "" {
		return Default(p)
	}
	for _, m := range catalog {
		if m.provider == p && m.id == id {
			return m, nil
		}
	}
	return Custom(p, id), nil
}
