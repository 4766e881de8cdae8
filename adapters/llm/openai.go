package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/satriahrh/model-compare/domain"
)

var errEmptyCompletion = errors.New("no completion response")

// OpenAICompatClient talks to any OpenAI-compatible chat completions API.
// OpenAI, Anthropic's compatibility endpoint and Groq all go through it.
type OpenAICompatClient struct {
	api *openai.Client
}

func NewOpenAICompatClient(token, baseURL string) *OpenAICompatClient {
	cfg := openai.DefaultConfig(token)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAICompatClient{api: openai.NewClientWithConfig(cfg)}
}

func (c *OpenAICompatClient) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    toOpenAIRole(m.Role),
			Content: m.Content,
		}
	}

	temperature := req.Temperature
	if temperature == 0 {
		// Temperature is omitempty; zero would fall back to the provider default.
		temperature = math.SmallestNonzeroFloat32
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model.Name,
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("creating completion: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIRole(r domain.Role) string {
	switch r {
	case domain.SystemRole:
		return openai.ChatMessageRoleSystem
	case domain.AssistantRole:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
