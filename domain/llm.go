package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var ErrUnknownProvider = errors.New("unknown provider")

// Provider tags which backend serves a model.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
	ProviderGroq      Provider = "groq"
)

func (p Provider) Valid() bool {
	switch p {
	case ProviderOpenAI, ProviderAnthropic, ProviderGoogle, ProviderGroq:
		return true
	}
	return false
}

// Label is the provider name title-cased, e.g. "Openai".
func (p Provider) Label() string {
	return cases.Title(language.English).String(string(p))
}

// Model is a backend the prompt is dispatched to. ID is the key used in a
// turn's responses; Name is what the provider API expects.
type Model struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Provider Provider `json:"provider"`
}

func (m Model) Label() string {
	return m.Provider.Label()
}

// DefaultModels is the lineup used when MODELS is not set.
func DefaultModels() []Model {
	return []Model{
		{ID: "openai:gpt-4o", Name: "gpt-4o", Provider: ProviderOpenAI},
		{ID: "anthropic:claude-3-5-sonnet-20240620", Name: "claude-3-5-sonnet-20240620", Provider: ProviderAnthropic},
		{ID: "llama3-8b-8192", Name: "llama3-8b-8192", Provider: ProviderGroq},
	}
}

// ParseModel reads a "provider:model" entry. Groq models are keyed by their
// bare name, everything else keeps the prefixed form.
func ParseModel(s string) (Model, error) {
	provider, name, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || name == "" {
		return Model{}, fmt.Errorf("model %q: expected provider:model", s)
	}
	p := Provider(strings.ToLower(provider))
	if !p.Valid() {
		return Model{}, fmt.Errorf("model %q: %w", s, ErrUnknownProvider)
	}
	id := string(p) + ":" + name
	if p == ProviderGroq {
		id = name
	}
	return Model{ID: id, Name: name, Provider: p}, nil
}

func ParseModels(entries []string) ([]Model, error) {
	models := make([]Model, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e) == "" {
			continue
		}
		m, err := ParseModel(e)
		if err != nil {
			return nil, err
		}
		if seen[m.ID] {
			return nil, fmt.Errorf("model %q listed twice", m.ID)
		}
		seen[m.ID] = true
		models = append(models, m)
	}
	if len(models) == 0 {
		return nil, errors.New("no models configured")
	}
	return models, nil
}

// CompletionRequest is one chat completion call.
type CompletionRequest struct {
	Model       Model
	Messages    []ChatMessage
	Temperature float32
}

// Llm abstracts any chat/LLM provider.
type Llm interface {
	// Complete returns the text of the first choice.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
	SystemRole    Role = "system"
)

// Prompt builds the two-message prompt sent to every model.
func Prompt(systemMessage, content string) []ChatMessage {
	return []ChatMessage{
		{Role: SystemRole, Content: systemMessage},
		{Role: UserRole, Content: content},
	}
}
