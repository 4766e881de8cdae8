package store

import (
	"fmt"
	"sync"

	"github.com/satriahrh/model-compare/domain"
)

// MemoryStore keeps turns in insertion order for the lifetime of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	turns []domain.Turn
	index map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{index: make(map[string]int)}
}

func (s *MemoryStore) Append(turn domain.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index[turn.ID] = len(s.turns)
	s.turns = append(s.turns, turn.Clone())
}

func (s *MemoryStore) SetResponse(turnID string, resp domain.ModelResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[turnID]
	if !ok {
		return fmt.Errorf("turn %s: %w", turnID, domain.ErrTurnNotFound)
	}
	turn := &s.turns[i]
	for j := range turn.Responses {
		if turn.Responses[j].Model == resp.Model {
			turn.Responses[j] = resp
			return nil
		}
	}
	turn.Responses = append(turn.Responses, resp)
	return nil
}

// Turns returns a copy; callers may not mutate the store through it.
func (s *MemoryStore) Turns() []domain.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Turn, len(s.turns))
	for i, t := range s.turns {
		out[i] = t.Clone()
	}
	return out
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = nil
	s.index = make(map[string]int)
}
