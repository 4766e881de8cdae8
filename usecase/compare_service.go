package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satriahrh/model-compare/domain"
	"github.com/satriahrh/model-compare/utils/log"
)

// CompareService owns the session: settings, the conversation store and the
// clear confirmation. Every interaction holds mu for its whole duration, so
// a dispatch blocks other interactions until all model calls return.
type CompareService struct {
	mu         sync.Mutex
	llm        domain.Llm
	models     []domain.Model
	store      domain.ConversationStore
	broker     domain.MessageBroker
	settings   domain.Settings
	clearArmed bool

	newID func() string
	now   func() time.Time
}

// NewCompareService wires the service. broker may be nil.
func NewCompareService(llm domain.Llm, models []domain.Model, store domain.ConversationStore, broker domain.MessageBroker) *CompareService {
	return &CompareService{
		llm:      llm,
		models:   append([]domain.Model(nil), models...),
		store:    store,
		broker:   broker,
		settings: domain.DefaultSettings(),
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

func (s *CompareService) Models() []domain.Model {
	return append([]domain.Model(nil), s.models...)
}

func (s *CompareService) Settings() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *CompareService) UpdateSettings(ctx context.Context, settings domain.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = settings
	s.clearArmed = false
	log.WithCtx(ctx).Debug("settings updated",
		zap.Float64("temperature", settings.Temperature),
		zap.Int("system_message_len", len(settings.SystemMessage)))
	return nil
}

// State is a consistent snapshot for rendering.
func (s *CompareService) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.SessionState{
		Turns:        s.store.Turns(),
		Settings:     s.settings,
		Models:       s.Models(),
		ClearPending: s.clearArmed,
	}
}

func (s *CompareService) Turns() []domain.Turn {
	return s.store.Turns()
}

// Dispatch sends content to every model in order and records one response
// per model. Model failures become "Error: ..." entries; only an empty prompt
// is rejected. Once started, every call runs to completion even if the caller
// goes away.
func (s *CompareService) Dispatch(ctx context.Context, content string) (domain.Turn, error) {
	if strings.TrimSpace(content) == "" {
		return domain.Turn{}, domain.ErrEmptyPrompt
	}
	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearArmed = false
	settings := s.settings

	turn := domain.Turn{ID: s.newID(), Content: content}
	s.store.Append(turn)

	ctx = log.WithTurnID(ctx, turn.ID)
	log.WithCtx(ctx).Info("dispatching prompt", zap.Int("models", len(s.models)))
	s.publish(ctx, domain.ConversationEvent{Type: domain.EventTurnStarted, TurnID: turn.ID, Content: content})

	messages := domain.Prompt(settings.SystemMessage, content)
	for _, m := range s.models {
		resp := s.complete(ctx, m, messages, settings.Temperature)
		if err := s.store.SetResponse(turn.ID, resp); err != nil {
			log.WithCtx(ctx).Error("storing response", zap.String("model", m.ID), zap.Error(err))
			continue
		}
		turn.Responses = append(turn.Responses, resp)
		s.publish(ctx, domain.ConversationEvent{
			Type:    domain.EventTurnResponse,
			TurnID:  turn.ID,
			Model:   resp.Model,
			Label:   resp.Label,
			Content: resp.Content,
			Failed:  resp.Failed,
		})
	}

	completed := turn.Clone()
	s.publish(ctx, domain.ConversationEvent{Type: domain.EventTurnCompleted, TurnID: turn.ID, Turn: &completed})
	return turn, nil
}

func (s *CompareService) complete(ctx context.Context, m domain.Model, messages []domain.ChatMessage, temperature float64) domain.ModelResponse {
	start := s.now()
	text, err := s.llm.Complete(ctx, domain.CompletionRequest{
		Model:       m,
		Messages:    messages,
		Temperature: float32(temperature),
	})
	logger := log.WithCtx(ctx).With(zap.String("model", m.ID), zap.Duration("elapsed", s.now().Sub(start)))
	if err != nil {
		logger.Warn("model call failed", zap.Error(err))
		return domain.FailedResponse(m, err)
	}
	logger.Info("model answered", zap.Int("chars", len(text)))
	return domain.ModelResponse{Model: m.ID, Label: m.Label(), Content: text}
}

// RequestClear is the first of the two clear confirmations. It only arms when
// there is something to clear and reports whether it did.
func (s *CompareService) RequestClear(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearArmed = s.store.Len() > 0
	log.WithCtx(ctx).Debug("clear requested", zap.Bool("armed", s.clearArmed))
	return s.clearArmed
}

// ConfirmClear empties the store if RequestClear armed it.
func (s *CompareService) ConfirmClear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.clearArmed {
		return domain.ErrClearNotRequested
	}
	s.clearArmed = false
	n := s.store.Len()
	s.store.Clear()
	ctx = context.WithoutCancel(ctx)

	log.WithCtx(ctx).Info("history cleared", zap.Int("turns", n))
	s.publish(ctx, domain.ConversationEvent{Type: domain.EventHistoryCleared})
	return nil
}

// CancelClear drops a pending confirmation.
func (s *CompareService) CancelClear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearArmed = false
}

func (s *CompareService) ClearPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearArmed
}

func (s *CompareService) publish(ctx context.Context, event domain.ConversationEvent) {
	if s.broker == nil {
		return
	}
	event.Timestamp = s.now().UTC()
	payload, err := json.Marshal(event)
	if err != nil {
		log.WithCtx(ctx).Error("marshaling conversation event", zap.Error(err))
		return
	}
	if err := s.broker.Publish(ctx, domain.ConversationTopic, "", payload); err != nil {
		log.WithCtx(ctx).Warn("publishing conversation event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
