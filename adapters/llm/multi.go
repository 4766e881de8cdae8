package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/satriahrh/model-compare/domain"
)

// Factory builds the adapter for one provider.
type Factory func() domain.Llm

// MultiClient is the multiplexed handle: one entry point for several
// providers, each adapter built on first use and then reused.
type MultiClient struct {
	mu        sync.Mutex
	factories map[domain.Provider]Factory
	adapters  map[domain.Provider]domain.Llm
}

func NewMultiClient(factories map[domain.Provider]Factory) *MultiClient {
	return &MultiClient{
		factories: factories,
		adapters:  make(map[domain.Provider]domain.Llm),
	}
}

func (c *MultiClient) adapter(p domain.Provider) (domain.Llm, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if a, ok := c.adapters[p]; ok {
		return a, nil
	}
	factory, ok := c.factories[p]
	if !ok {
		return nil, fmt.Errorf("provider %q: %w", p, domain.ErrUnknownProvider)
	}
	a := factory()
	c.adapters[p] = a
	return a, nil
}

func (c *MultiClient) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	a, err := c.adapter(req.Model.Provider)
	if err != nil {
		return "", err
	}
	return a.Complete(ctx, req)
}

// Supports reports whether a provider has a registered adapter.
func (c *MultiClient) Supports(p domain.Provider) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.factories[p]
	return ok
}
