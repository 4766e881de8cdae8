package websocket

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satriahrh/model-compare/domain"
	"github.com/satriahrh/model-compare/utils/log"
)

// Dispatcher runs a prompt against every configured model.
type Dispatcher interface {
	Dispatch(ctx context.Context, content string) (domain.Turn, error)
}

type Server struct {
	upgrader      websocket.Upgrader
	dispatcher    Dispatcher
	messageBroker domain.MessageBroker
	hub           *Hub
	ctx           context.Context
}

// NewServer builds the server; ctx bounds the hub and every client.
func NewServer(ctx context.Context, dispatcher Dispatcher, messageBroker domain.MessageBroker) *Server {
	return &Server{
		upgrader:      websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		dispatcher:    dispatcher,
		messageBroker: messageBroker,
		hub:           NewHub(),
		ctx:           ctx,
	}
}

func (s *Server) GetHub() *Hub {
	return s.hub
}

// Run starts the hub and relays conversation events to every client until
// the server context is done.
func (s *Server) Run() error {
	ctx := s.ctx
	messages, err := s.messageBroker.Subscribe(ctx, domain.ConversationTopic, "")
	if err != nil {
		return err
	}

	go s.hub.Run(ctx)
	log.WithCtx(ctx).Info("websocket server relaying conversation events")

	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			s.hub.Broadcast(msg.Payload)
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Server) handlePrompt(c *Client, content string) {
	ctx := c.Context()
	_, err := s.dispatcher.Dispatch(ctx, content)
	if err == nil {
		return
	}
	level := log.WithCtx(ctx).Warn
	if !errors.Is(err, domain.ErrEmptyPrompt) {
		level = log.WithCtx(ctx).Error
	}
	level("websocket prompt rejected", zap.Error(err))
	if sendErr := c.SendEvent(domain.ConversationEvent{Type: domain.EventError, Content: err.Error()}); sendErr != nil {
		log.WithCtx(ctx).Debug("client gone before error could be sent", zap.Error(sendErr))
	}
}

func newClientID() string {
	return uuid.NewString()
}
