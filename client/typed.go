package client

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/spetersoncode/phantommail/llm"
)

// Validator is implemented by reply types that check their own content.
type Validator interface {
	Validate() error
}

// ChatTyped sends a chat request under a structured-output contract and
// unmarshals the reply into T. The schema is generated from T; a
// llm.WithResponseSchema among opts replaces it. Replies that fail to
// decode, or that fail T's Validate method, return an *UnmarshalError.
//
//	email, usage, err := client.ChatTyped[llm.Email](ctx, c, msgs)
func ChatTyped[T any](ctx context.Context, p llm.ChatProvider, msgs []llm.Message, opts ...llm.Option) (T, llm.Usage, error) {
	var zero T

	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := toSnakeCase(t.Name())
	if name == "" {
		name = "response"
	}

	allOpts := make([]llm.Option, 0, len(opts)+1)
	allOpts = append(allOpts, llm.WithResponseSchema(llm.SchemaFrom[T]().ResponseSchema(name, "")))
	allOpts = append(allOpts, opts...)

	resp, err := p.Chat(ctx, msgs, allOpts...)
	if err != nil {
		return zero, llm.Usage{}, err
	}

	var result T
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Content)), &result); err != nil {
		return zero, resp.Usage, &UnmarshalError{Content: resp.Content, TargetType: t.String(), Err: err}
	}
	if v, ok := any(result).(Validator); ok {
		if err := v.Validate(); err != nil {
			return zero, resp.Usage, &UnmarshalError{Content: resp.Content, TargetType: t.String(), Err: err}
		}
	}
	return result, resp.Usage, nil
}

// UnmarshalError is returned when the model reply cannot be coerced into
// the target type.
type UnmarshalError struct {
	Content    string
	TargetType string
	Err        error
}

func (e *UnmarshalError) Error() string {
	return fmt.Sprintf("failed to unmarshal response into %s: %v", e.TargetType, e.Err)
}

func (e *UnmarshalError) Unwrap() error {
	return e.Err
}

// stripCodeFence removes a surrounding ```json fence, which JSON-mode
// replies occasionally carry.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// toSnakeCase converts a CamelCase string to snake_case.
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				result.WriteRune('_')
			}
			result.WriteRune(unicode.ToLower(r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
