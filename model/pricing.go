package model

import "github.com/spetersoncode/phantommail/llm"

// longContextThreshold is the prompt size above which Gemini bills at the
// long-context rate.
const longContextThreshold = 200_000

// ChatPricing contains pricing per million tokens (USD) for chat models.
// Fields are zero if not applicable to a specific provider's model.
type ChatPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
	// CachedInputPerMillion is for cached input tokens (OpenAI only).
	CachedInputPerMillion float64
	// InputPerMillionLong and OutputPerMillionLong apply to prompts over
	// 200K tokens (Google only).
	InputPerMillionLong  float64
	OutputPerMillionLong float64
}

// HasCachedPricing returns true if the model supports cached input pricing.
func (p ChatPricing) HasCachedPricing() bool {
	return p.CachedInputPerMillion > 0
}

// HasLongContextPricing returns true if the model has tiered pricing for long context.
func (p ChatPricing) HasLongContextPricing() bool {
	return p.InputPerMillionLong > 0 || p.OutputPerMillionLong > 0
}

// CalculateCost returns the USD cost of usage at the given pricing.
func CalculateCost(usage llm.Usage, pricing ChatPricing) float64 {
	in, out := pricing.InputPerMillion, pricing.OutputPerMillion
	if pricing.HasLongContextPricing() && usage.InputTokens > longContextThreshold {
		in, out = pricing.InputPerMillionLong, pricing.OutputPerMillionLong
	}
	return float64(usage.InputTokens)/1_000_000*in + float64(usage.OutputTokens)/1_000_000*out
}
