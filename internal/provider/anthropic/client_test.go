package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spetersoncode/phantommail/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New("test-key", WithBaseURL(srv.URL))
}

func TestClient_ChatStructured(t *testing.T) {
	var req map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &req))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-sonnet-4-5",
			"content": [
				{"type": "text", "text": "Here you go"},
				{"type": "tool_use", "id": "tu_1", "name": "json_response",
				 "input": {"subject": "Hi", "body_html": "<p>x</p>", "attachment_html": "no attachment"}}
			],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 20, "output_tokens": 9}
		}`)
	})

	resp, err := c.Chat(context.Background(), []llm.Message{
		llm.SystemMessage("persona"),
		llm.UserMessage("write"),
	}, llm.WithResponseSchema(llm.EmailSchema()), llm.WithTemperature(0.5))
	require.NoError(t, err)

	var email llm.Email
	require.NoError(t, json.Unmarshal([]byte(resp.Content), &email))
	assert.Equal(t, "Hi", email.Subject)
	assert.Equal(t, "tool_use", resp.FinishReason)
	assert.Equal(t, llm.Usage{InputTokens: 20, OutputTokens: 9}, resp.Usage)

	assert.Equal(t, "claude-sonnet-4-5", req["model"])
	assert.Equal(t, "json_response", req["tool_choice"].(map[string]any)["name"])
	assert.Len(t, req["system"], 1)
	assert.Len(t, req["messages"], 1)
}

func TestClient_ChatText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_2", "type": "message", "role": "assistant", "model": "claude-haiku-4-5",
			"content": [{"type": "text", "text": "plain"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 1, "output_tokens": 1}
		}`)
	})

	resp, err := c.Chat(context.Background(), []llm.Message{llm.UserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "plain", resp.Content)
}

func TestClient_ChatError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"type": "error", "error": {"type": "rate_limit_error", "message": "slow down"}}`)
	})

	_, err := c.Chat(context.Background(), []llm.Message{llm.UserMessage("hi")})
	require.Error(t, err)
	assert.True(t, llm.IsTransient(err))
	assert.Equal(t, 429, llm.StatusCodeOf(err))
	assert.Greater(t, llm.RetryAfterOf(err).Seconds(), 1.0)
}

func TestClient_ChatEmpty(t *testing.T) {
	_, err := New("k").Chat(context.Background(), nil)
	assert.ErrorIs(t, err, llm.ErrEmptyInput)
}

func TestConvertMessages(t *testing.T) {
	msgs, system := convertMessages([]llm.Message{
		{Role: llm.RoleSystem, Content: "persona"},
		{Role: llm.RoleSystem, Content: ""},
		{Role: llm.RoleUser, Content: "hello"},
		{Role: llm.RoleAssistant, Content: "hi"},
		{Role: llm.RoleUser, Content: ""},
	})

	require.Len(t, system, 1)
	assert.Equal(t, "persona", system[0].Text)
	assert.Len(t, msgs, 2)
}

func TestBuildJSONTool(t *testing.T) {
	rs := llm.EmailSchema()
	tool, choice := buildJSONTool(&rs)

	require.NotNil(t, tool.OfTool)
	assert.Equal(t, jsonResponseToolName, tool.OfTool.Name)
	assert.ElementsMatch(t, []string{"subject", "body_html", "attachment_html"}, tool.OfTool.InputSchema.Required)
	require.NotNil(t, choice.OfTool)
	assert.Equal(t, jsonResponseToolName, choice.OfTool.Name)

	generic, _ := buildJSONTool(nil)
	assert.Nil(t, generic.OfTool.InputSchema.Properties)
}
