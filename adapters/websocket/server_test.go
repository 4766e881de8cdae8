package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/model-compare/adapters/message_broker"
	"github.com/satriahrh/model-compare/adapters/store"
	"github.com/satriahrh/model-compare/domain"
	"github.com/satriahrh/model-compare/usecase"
)

type echoLlm struct{}

func (echoLlm) Complete(_ context.Context, req domain.CompletionRequest) (string, error) {
	return req.Model.Name + " says " + req.Messages[1].Content, nil
}

func startServer(t *testing.T) (*Server, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	broker := message_broker.NewChannelMessageBroker()
	t.Cleanup(func() { broker.Close() })

	svc := usecase.NewCompareService(echoLlm{}, domain.DefaultModels(), store.NewMemoryStore(), broker)
	srv := NewServer(ctx, svc, broker)
	go srv.Run()
	require.Eventually(t, func() bool {
		return broker.SubscriberCount(domain.ConversationTopic, "") == 1
	}, time.Second, 10*time.Millisecond)

	e := echo.New()
	e.GET("/ws", srv.Handler)
	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)

	return srv, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) domain.ConversationEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev domain.ConversationEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestPromptOverWebsocket(t *testing.T) {
	srv, url := startServer(t)
	conn := dial(t, url)
	watcher := dial(t, url)
	require.Eventually(t, func() bool { return srv.GetHub().ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(domain.PromptMessage{Type: domain.PromptMessageType, Content: "Hello"}))

	for _, c := range []*websocket.Conn{conn, watcher} {
		started := readEvent(t, c)
		assert.Equal(t, domain.EventTurnStarted, started.Type)
		assert.Equal(t, "Hello", started.Content)

		for _, m := range domain.DefaultModels() {
			ev := readEvent(t, c)
			assert.Equal(t, domain.EventTurnResponse, ev.Type)
			assert.Equal(t, m.ID, ev.Model)
			assert.Equal(t, m.Name+" says Hello", ev.Content)
		}

		completed := readEvent(t, c)
		assert.Equal(t, domain.EventTurnCompleted, completed.Type)
		require.NotNil(t, completed.Turn)
		assert.Len(t, completed.Turn.Responses, 3)
		assert.Equal(t, started.TurnID, completed.TurnID)
	}
}

func TestEmptyPromptReturnsErrorToSender(t *testing.T) {
	_, url := startServer(t)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(domain.PromptMessage{Type: domain.PromptMessageType, Content: "  "}))

	ev := readEvent(t, conn)
	assert.Equal(t, domain.EventError, ev.Type)
	assert.Equal(t, domain.ErrEmptyPrompt.Error(), ev.Content)
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	srv, url := startServer(t)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return srv.GetHub().ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return srv.GetHub().ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
