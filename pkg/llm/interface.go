// Package llm invokes a chat-completion model once per call. Nothing here
// retries; a failed call fails with LLMInvocationFailed.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

//go:generate mockgen -source=interface.go -destination=../mocks/llm/mock_gateway.go -package=mock_llm

// Gateway is a single-shot prompt invocation.
type Gateway interface {
	CompleteText(ctx context.Context, tier Tier, systemPrompt, userPrompt string) (string, error)
	CompleteJSON(ctx context.Context, tier Tier, systemPrompt, userPrompt string, schema Schema) (json.RawMessage, error)
}

// Tier selects a model by its cost/quality trade-off.
type Tier string

const (
	TierSpeed    Tier = "speed"
	TierBalanced Tier = "balanced"
	TierQuality  Tier = "quality"
)

// DefaultModels maps each tier to a model name.
var DefaultModels = map[Tier]string{
	TierSpeed:    "gpt-5-nano",
	TierBalanced: "gpt-5-mini",
	TierQuality:  "gpt-5.1",
}

func ParseTier(s string) (Tier, error) {
	switch t := Tier(strings.ToLower(strings.TrimSpace(s))); t {
	case TierSpeed, TierBalanced, TierQuality:
		return t, nil
	}
	return "", fmt.Errorf("unknown model tier %q", s)
}

// Schema is a named JSON Schema the model output must satisfy.
type Schema struct {
	Name   string
	Schema json.RawMessage
}
