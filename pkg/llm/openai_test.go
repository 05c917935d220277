package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/lector/pkg/apperr"
)

func reply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(ChatCompletionResponse{
		ID:    "chatcmpl-123",
		Model: "gpt-5-nano",
		Choices: []Choice{{
			Message:      ChoiceMessage{Role: RoleAssistant, Content: content},
			FinishReason: "stop",
		}},
		Usage: Usage{PromptTokens: 10, CompletionTokens: 2, TotalTokens: 12},
	})
	require.NoError(t, err)
}

func TestClient_CompleteText(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var reqBody ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "tiny-model", reqBody.Model)
		require.Len(t, reqBody.Messages, 2)
		assert.Equal(t, RoleSystem, reqBody.Messages[0].Role)
		assert.Equal(t, "be brief", reqBody.Messages[0].Content)
		assert.Equal(t, RoleUser, reqBody.Messages[1].Role)
		assert.Nil(t, reqBody.ResponseFormat)

		reply(t, w, "  猫 \n")
	}))
	defer server.Close()

	client := NewClient(Options{
		APIKey:  "sk-test",
		BaseURL: server.URL + "/v1/",
		Models:  map[Tier]string{TierSpeed: "tiny-model"},
	}, nil)
	defer client.Close()

	got, err := client.CompleteText(context.Background(), TierSpeed, "be brief", "word: cat")
	require.NoError(t, err)
	assert.Equal(t, "猫", got)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "gpt-5-mini", client.Model(TierBalanced))
}

func TestClient_CompleteJSON(t *testing.T) {
	schema := Schema{Name: "node", Schema: json.RawMessage(`{"type":"object"}`)}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		require.NotNil(t, reqBody.ResponseFormat)
		assert.Equal(t, "json_schema", reqBody.ResponseFormat.Type)
		require.NotNil(t, reqBody.ResponseFormat.JSONSchema)
		assert.Equal(t, "node", reqBody.ResponseFormat.JSONSchema.Name)
		assert.True(t, reqBody.ResponseFormat.JSONSchema.Strict)
		assert.JSONEq(t, `{"type":"object"}`, string(reqBody.ResponseFormat.JSONSchema.Schema))

		reply(t, w, `{"text":"root","children":[]}`)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL}, nil)
	got, err := client.CompleteJSON(context.Background(), TierQuality, "sys", "user", schema)
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"root","children":[]}`, string(got))
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		json    bool
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
			},
		},
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
			},
		},
		{
			name: "empty content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"id":"x","choices":[{"message":{"role":"assistant","content":""}}]}`))
			},
		},
		{
			name: "invalid json output",
			json: true,
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"id":"x","choices":[{"message":{"role":"assistant","content":"not json"}}]}`))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				tt.handler(w, r)
			}))
			defer server.Close()

			client := NewClient(Options{BaseURL: server.URL}, nil)
			var err error
			if tt.json {
				_, err = client.CompleteJSON(context.Background(), TierSpeed, "s", "u", Schema{Name: "x", Schema: json.RawMessage(`{}`)})
			} else {
				_, err = client.CompleteText(context.Background(), TierSpeed, "s", "u")
			}
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.LLMInvocationFailed), "got %v", err)
			assert.Equal(t, int32(1), calls.Load(), "must not retry")
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, Timeout: 50 * time.Millisecond}, nil)
	_, err := client.CompleteText(context.Background(), TierSpeed, "s", "u")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.LLMInvocationFailed))
}

func TestClient_UnknownTier(t *testing.T) {
	client := NewClient(Options{BaseURL: "http://127.0.0.1:1"}, nil)
	_, err := client.CompleteText(context.Background(), Tier("turbo"), "s", "u")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.LLMInvocationFailed))
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier(" Balanced ")
	require.NoError(t, err)
	assert.Equal(t, TierBalanced, tier)

	_, err = ParseTier("turbo")
	assert.Error(t, err)
}
