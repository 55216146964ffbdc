package google

import (
	"github.com/spetersoncode/phantommail/llm"
	"google.golang.org/genai"
)

// convertMessages returns the joined system prompt and the remaining turns.
// Gemini takes system text as a SystemInstruction, not as a turn.
func convertMessages(messages []llm.Message) (string, []*genai.Content) {
	system, rest := llm.SplitSystem(messages)
	contents := make([]*genai.Content, 0, len(rest))
	for _, msg := range rest {
		if msg.Content == "" {
			continue
		}
		role := genai.RoleUser
		if msg.Role == llm.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}
	return system, contents
}
