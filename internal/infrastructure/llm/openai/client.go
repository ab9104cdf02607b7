// Package openai provides an LLMClient implementation using OpenAI.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/ports"
	"github.com/ersonp/legis/internal/infrastructure/config"
)

// maxSourceRunes bounds the source text sent with a prompt.
const maxSourceRunes = 12000

const suggestionPrompt = `You read Romanian legislation and official notices and report the current value of one legal parameter.

Parameter: %s
Key: %s
Value type: %s
Unit: %s
Value on record: %s

Find the value the source text states for this parameter. Return ONLY a JSON object, no other text:
{"value": "...", "effective_from": "YYYY-MM-DD", "confidence": 0.0-1.0, "excerpt": "the sentence stating the value"}

Rules:
- numeric and percentage values use digits only with "." as decimal separator, no thousands separators, no unit or percent sign
- dates use YYYY-MM-DD
- effective_from is empty if the source does not say when the value applies
- if the source does not state the value, return {"value": "", "confidence": 0}`

// Client implements the LLMClient interface using OpenAI.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a new OpenAI LLM client.
func NewClient(cfg config.LLMConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := "gpt-4o-mini"
	if cfg.Model != "" {
		model = cfg.Model
	}

	return &Client{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

// SuggestValue asks the model for the value sourceText states for variable.
func (c *Client) SuggestValue(ctx context.Context, variable entities.Variable, sourceText string) (*ports.ValueSuggestion, error) {
	unit := variable.Unit
	if unit == "" {
		unit = "-"
	}
	current := variable.Value
	if current == "" {
		current = "unknown"
	}
	name := variable.Name
	key := variable.Key
	if key == "" {
		key = "-"
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(suggestionPrompt, name, key, variable.Type, unit, current),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: truncateRunes(sourceText, maxSourceRunes),
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("calling OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from OpenAI")
	}

	content := cleanJSONResponse(resp.Choices[0].Message.Content)

	var raw rawSuggestion
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("parsing suggestion JSON: %w (response: %s)", err, content)
	}

	return &ports.ValueSuggestion{
		Value:         valueToString(raw.Value),
		EffectiveFrom: strings.TrimSpace(raw.EffectiveFrom),
		Confidence:    clamp01(raw.Confidence),
		Excerpt:       strings.TrimSpace(raw.Excerpt),
	}, nil
}

// rawSuggestion is the JSON structure the model returns.
type rawSuggestion struct {
	Value         any     `json:"value"`
	EffectiveFrom string  `json:"effective_from"`
	Confidence    float64 `json:"confidence"`
	Excerpt       string  `json:"excerpt"`
}

// valueToString converts the value field to string (handles numbers from the model).
func valueToString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// cleanJSONResponse removes markdown code blocks if present.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}

	return strings.TrimSpace(content)
}
