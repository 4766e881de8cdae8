package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/satriahrh/model-compare/domain"
)

// GeminiClient serves google:* models. The genai client is built on the
// first call because construction needs a context and may fail.
type GeminiClient struct {
	apiKey  string
	baseURL string

	once   sync.Once
	client *genai.Client
	err    error
}

func NewGeminiClient(apiKey, baseURL string) *GeminiClient {
	return &GeminiClient{apiKey: apiKey, baseURL: baseURL}
}

func (g *GeminiClient) init(ctx context.Context) (*genai.Client, error) {
	g.once.Do(func() {
		g.client, g.err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
			HTTPOptions: genai.HTTPOptions{
				BaseURL:    g.baseURL,
				APIVersion: "v1beta",
			},
		})
		if g.err != nil {
			g.err = fmt.Errorf("creating genai client: %w", g.err)
		}
	})
	return g.client, g.err
}

func (g *GeminiClient) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	client, err := g.init(ctx)
	if err != nil {
		return "", err
	}

	contents, config := geminiRequest(req)
	resp, err := client.Models.GenerateContent(ctx, req.Model.Name, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errEmptyCompletion
	}
	return text, nil
}

// geminiRequest moves system messages into SystemInstruction; Gemini has no
// system role in contents.
func geminiRequest(req domain.CompletionRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	temperature := req.Temperature
	config := &genai.GenerateContentConfig{Temperature: &temperature}

	var contents []*genai.Content
	for _, msg := range req.Messages {
		part := &genai.Part{Text: msg.Content}
		switch msg.Role {
		case domain.SystemRole:
			if config.SystemInstruction == nil {
				config.SystemInstruction = &genai.Content{}
			}
			config.SystemInstruction.Parts = append(config.SystemInstruction.Parts, part)
		case domain.AssistantRole:
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{part}})
		default:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{part}})
		}
	}
	return contents, config
}
