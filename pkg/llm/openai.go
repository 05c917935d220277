package llm

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/japaniel/lector/pkg/apperr"
	"github.com/japaniel/lector/pkg/logger"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultTimeout = 30 * time.Second
)

type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Models  map[Tier]string
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	httpClient *resty.Client
	models     map[Tier]string
	log        *logger.Logger
}

func NewClient(opts Options, log *logger.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	models := make(map[Tier]string, len(DefaultModels))
	for t, m := range DefaultModels {
		models[t] = m
	}
	for t, m := range opts.Models {
		if m != "" {
			models[t] = m
		}
	}
	if log == nil {
		log = logger.Nop()
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(opts.BaseURL, "/"))
	client.SetHeader("Authorization", "Bearer "+opts.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(opts.Timeout)
	client.SetRetryCount(0)

	return &Client{httpClient: client, models: models, log: log}
}

func (c *Client) Close() error {
	return c.httpClient.Close()
}

// Model returns the model name configured for tier.
func (c *Client) Model(tier Tier) string {
	return c.models[tier]
}

type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ResponseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *JSONSchema `json:"json_schema,omitempty"`
}

type JSONSchema struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
	Strict bool            `json:"strict"`
}

type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int           `json:"index"`
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type ChoiceMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Refusal string `json:"refusal,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompleteText returns the trimmed reply to a system and user prompt.
func (c *Client) CompleteText(ctx context.Context, tier Tier, systemPrompt, userPrompt string) (string, error) {
	content, err := c.complete(ctx, tier, systemPrompt, userPrompt, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// CompleteJSON asks for output conforming to schema and returns it undecoded.
func (c *Client) CompleteJSON(ctx context.Context, tier Tier, systemPrompt, userPrompt string, schema Schema) (json.RawMessage, error) {
	format := &ResponseFormat{
		Type: "json_schema",
		JSONSchema: &JSONSchema{
			Name:   schema.Name,
			Schema: schema.Schema,
			Strict: true,
		},
	}
	content, err := c.complete(ctx, tier, systemPrompt, userPrompt, format)
	if err != nil {
		return nil, err
	}
	if !json.Valid([]byte(content)) {
		return nil, apperr.Newf(apperr.LLMInvocationFailed, "response is not valid JSON: %q", content)
	}
	return json.RawMessage(content), nil
}

func (c *Client) complete(ctx context.Context, tier Tier, systemPrompt, userPrompt string, format *ResponseFormat) (string, error) {
	model, ok := c.models[tier]
	if !ok {
		return "", apperr.Newf(apperr.LLMInvocationFailed, "no model for tier %q", tier)
	}
	requestBody := ChatCompletionRequest{
		Model: model,
		Messages: []Message{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: userPrompt},
		},
		ResponseFormat: format,
	}

	start := time.Now()
	response, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(requestBody).
		SetResult(&ChatCompletionResponse{}).
		Post("/chat/completions")
	if err != nil {
		return "", apperr.Newf(apperr.LLMInvocationFailed, "httpClient.Post > %w", err)
	}
	if response.IsError() {
		return "", apperr.Newf(apperr.LLMInvocationFailed, "response error %d: %s", response.StatusCode(), response.String())
	}

	responseBody, _ := response.Result().(*ChatCompletionResponse)
	if responseBody == nil || len(responseBody.Choices) == 0 {
		return "", apperr.Newf(apperr.LLMInvocationFailed, "empty response body or choices: %s", response.String())
	}
	msg := responseBody.Choices[0].Message
	if msg.Refusal != "" {
		return "", apperr.Newf(apperr.LLMInvocationFailed, "model refused: %s", msg.Refusal)
	}
	if msg.Content == "" {
		return "", apperr.Newf(apperr.LLMInvocationFailed, "empty response content: %s", response.String())
	}

	c.log.Debug("openai completion",
		"model", model,
		"elapsed", time.Since(start),
		"prompt_tokens", responseBody.Usage.PromptTokens,
		"completion_tokens", responseBody.Usage.CompletionTokens,
	)
	return msg.Content, nil
}

var _ Gateway = (*Client)(nil)
