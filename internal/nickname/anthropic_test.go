// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package nickname

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func anthropicReply(text string) map[string]interface{} {
	return map[string]interface{}{
		"id":            "msg_test",
		"type":          "message",
		"role":          "assistant",
		"model":         DefaultAnthropicModel,
		"stop_reason":   "end_turn",
		"stop_sequence": nil,
		"content": []map[string]interface{}{
			{"type": "text", "text": text},
		},
		"usage": map[string]interface{}{"input_tokens": 12, "output_tokens": 30},
	}
}

func TestAnthropicCompleter_RequestShape(t *testing.T) {
	var body map[string]interface{}
	var apiKey, path string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		apiKey = r.Header.Get("x-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(anthropicReply(validReply))
	}))
	defer srv.Close()

	c := NewAnthropicCompleter(AnthropicConfig{APIKey: "sk-test", BaseURL: srv.URL})
	text, err := c.Complete(context.Background(), "hello prompt")
	require.NoError(t, err)

	assert.Equal(t, validReply, text)
	assert.Equal(t, "/v1/messages", path)
	assert.Equal(t, "sk-test", apiKey)
	assert.Equal(t, DefaultAnthropicModel, body["model"])
	assert.EqualValues(t, DefaultMaxTokens, body["max_tokens"])

	messages, ok := body["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 1)
	msg := messages[0].(map[string]interface{})
	assert.Equal(t, "user", msg["role"])
}

func TestAnthropicCompleter_NonSuccessStatusFallsBack(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"overloaded"}}`))
	}))
	defer srv.Close()

	g := NewGenerator(NewAnthropicCompleter(AnthropicConfig{APIKey: "sk-test", BaseURL: srv.URL}))
	res, err := g.Generate(context.Background(), "memory", StyleSweet)
	require.NoError(t, err)

	assert.True(t, res.Fallback)
	assert.Equal(t, expectedFallback, res.Labels)
	assert.Equal(t, 1, calls, "retries must be disabled")
}

func TestAnthropicCompleter_NoKeyIsUnconfigured(t *testing.T) {
	c := NewAnthropicCompleter(AnthropicConfig{})
	_, err := c.Complete(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrMissingCredential)
}
