package openai

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/infrastructure/config"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LLMConfig
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid config",
			cfg: config.LLMConfig{
				APIKey: "test-key",
			},
		},
		{
			name: "valid config with model and base url",
			cfg: config.LLMConfig{
				APIKey:  "test-key",
				Model:   "gpt-4o",
				BaseURL: "http://localhost:11434/v1",
			},
		},
		{
			name:    "missing API key",
			cfg:     config.LLMConfig{},
			wantErr: true,
			errMsg:  "API key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.cfg)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, client)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, client)
			}
		})
	}
}

// chatServer answers every chat completion with content and records the last request body.
func chatServer(t *testing.T, content string, lastBody *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		if lastBody != nil {
			*lastBody = string(body)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_SuggestValue(t *testing.T) {
	var body string
	srv := chatServer(t, "```json\n{\"value\": 4050, \"effective_from\": \"2025-01-01\", \"confidence\": 0.92, \"excerpt\": \"4.050 lei lunar\"}\n```", &body)

	client, err := NewClient(config.LLMConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	suggestion, err := client.SuggestValue(t.Context(), entities.Variable{
		Key: "salary_minim_brut", Name: "Salariul minim brut", Type: entities.ValueNumeric, Unit: "RON", Value: "3700",
	}, "Salariul minim brut pe tara se stabileste la 4.050 lei lunar.")
	require.NoError(t, err)

	assert.Equal(t, "4050", suggestion.Value)
	assert.Equal(t, "2025-01-01", suggestion.EffectiveFrom)
	assert.Equal(t, 0.92, suggestion.Confidence)
	assert.Equal(t, "4.050 lei lunar", suggestion.Excerpt)
	assert.Contains(t, body, "salary_minim_brut")
	assert.Contains(t, body, "4.050 lei lunar")
}

func TestClient_SuggestValue_BadJSON(t *testing.T) {
	srv := chatServer(t, "I could not find it.", nil)

	client, err := NewClient(config.LLMConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	_, err = client.SuggestValue(t.Context(), entities.Variable{Name: "x", Type: entities.ValueText}, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing suggestion JSON")
}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain JSON",
			input:    `{"value": "19"}`,
			expected: `{"value": "19"}`,
		},
		{
			name:     "JSON with json code block",
			input:    "```json\n{\"value\": \"19\"}\n```",
			expected: `{"value": "19"}`,
		},
		{
			name:     "JSON with plain code block",
			input:    "```\n{\"value\": \"19\"}\n```",
			expected: `{"value": "19"}`,
		},
		{
			name:     "JSON with whitespace",
			input:    "  \n{}\n  ",
			expected: "{}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cleanJSONResponse(tt.input))
		})
	}
}

func TestValueToString(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string value", " 19 ", "19"},
		{"integer as float64", float64(300000), "300000"},
		{"float value", float64(3.5), "3.5"},
		{"bool", true, "true"},
		{"nil value", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, valueToString(tt.input))
		})
	}
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-1))
	assert.Equal(t, 1.0, clamp01(7))
	assert.Equal(t, 0.5, clamp01(0.5))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "ăîș", truncateRunes("ăîșțâ", 3))
	assert.Equal(t, "abc", truncateRunes("abc", 10))
	assert.Len(t, []rune(truncateRunes(strings.Repeat("a", maxSourceRunes+5), maxSourceRunes)), maxSourceRunes)
}
