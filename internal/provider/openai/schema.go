package openai

import (
	"encoding/json"

	"github.com/openai/openai-go"
	"github.com/spetersoncode/phantommail/llm"
)

func buildSchemaFormat(schema *llm.ResponseSchema) openai.ChatCompletionNewParamsResponseFormatUnion {
	var schemaMap map[string]any
	_ = json.Unmarshal(schema.Schema, &schemaMap)

	name := schema.Name
	if name == "" {
		name = "response_schema"
	}

	// Strict mode requires additionalProperties: false on every object.
	addAdditionalPropertiesFalse(schemaMap)

	jsonSchema := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:   name,
		Schema: schemaMap,
		Strict: openai.Bool(true),
	}
	if schema.Description != "" {
		jsonSchema.Description = openai.String(schema.Description)
	}
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: jsonSchema},
	}
}

func addAdditionalPropertiesFalse(schema map[string]any) {
	if schema == nil {
		return
	}
	if t, ok := schema["type"].(string); ok && t == "object" {
		schema["additionalProperties"] = false
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		for _, p := range props {
			if m, ok := p.(map[string]any); ok {
				addAdditionalPropertiesFalse(m)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		addAdditionalPropertiesFalse(items)
	}
}
