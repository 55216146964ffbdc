package anthropic

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spetersoncode/phantommail/llm"
)

const jsonResponseToolName = "json_response"

// convertMessages splits out system text. Empty messages are dropped because
// the API rejects empty text blocks.
func convertMessages(messages []llm.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var result []anthropic.MessageParam
	var system []anthropic.TextBlockParam

	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case llm.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case llm.RoleAssistant:
			result = append(result, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return result, system
}

// buildJSONTool returns a tool whose input is the structured reply, and a
// tool choice forcing the model to call it.
func buildJSONTool(rs *llm.ResponseSchema) (anthropic.ToolUnionParam, anthropic.ToolChoiceUnionParam) {
	var schema map[string]any
	if rs != nil && len(rs.Schema) > 0 {
		_ = json.Unmarshal(rs.Schema, &schema)
	}
	if schema == nil {
		schema = map[string]any{"type": "object", "additionalProperties": true}
	}

	description := "Output the response as structured JSON"
	if rs != nil && rs.Description != "" {
		description = rs.Description
	}

	var required []string
	if reqVal, ok := schema["required"].([]any); ok {
		for _, r := range reqVal {
			if s, ok := r.(string); ok {
				required = append(required, s)
			}
		}
	}

	tool := anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        jsonResponseToolName,
			Description: anthropic.String(description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schema["properties"],
				Required:   required,
			},
		},
	}
	choice := anthropic.ToolChoiceUnionParam{
		OfTool: &anthropic.ToolChoiceToolParam{Name: jsonResponseToolName},
	}
	return tool, choice
}
