package llm

import (
	"context"
	"sync"

	"github.com/satriahrh/model-compare/config"
	"github.com/satriahrh/model-compare/domain"
)

// Clients holds the two process-wide handles: the multiplexed client and
// the Groq client.
type Clients struct {
	Multi *MultiClient
	Groq  domain.Llm
}

var (
	sharedOnce    sync.Once
	sharedClients *Clients
)

// Shared builds the handles on first call and returns the same pair for the
// rest of the process. Later calls ignore cfg.
func Shared(cfg config.Config) *Clients {
	sharedOnce.Do(func() {
		sharedClients = NewClients(cfg)
	})
	return sharedClients
}

func NewClients(cfg config.Config) *Clients {
	multi := NewMultiClient(map[domain.Provider]Factory{
		domain.ProviderOpenAI: func() domain.Llm {
			return NewOpenAICompatClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
		},
		domain.ProviderAnthropic: func() domain.Llm {
			return NewOpenAICompatClient(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL)
		},
		domain.ProviderGoogle: func() domain.Llm {
			return NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiBaseURL)
		},
	})
	return &Clients{
		Multi: multi,
		Groq:  NewOpenAICompatClient(cfg.GroqAPIKey, cfg.GroqBaseURL),
	}
}

// Complete routes on the model's provider tag: groq models use the Groq
// handle, everything else goes through the multiplexed client.
func (c *Clients) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	if req.Model.Provider == domain.ProviderGroq {
		return c.Groq.Complete(ctx, req)
	}
	return c.Multi.Complete(ctx, req)
}

// Supports reports whether some handle can serve the provider.
func (c *Clients) Supports(p domain.Provider) bool {
	if p == domain.ProviderGroq {
		return c.Groq != nil
	}
	return c.Multi.Supports(p)
}
