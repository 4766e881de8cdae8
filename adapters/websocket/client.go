package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satriahrh/model-compare/domain"
	"github.com/satriahrh/model-compare/utils/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 * 1024
)

// PromptFunc handles a prompt received from a client.
type PromptFunc func(c *Client, content string)

type Client struct {
	id       string
	conn     *websocket.Conn
	send     chan []byte
	onPrompt PromptFunc
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.RWMutex
	closed   bool
}

func NewClient(parent context.Context, conn *websocket.Conn, id string, onPrompt PromptFunc) *Client {
	ctx, cancel := context.WithCancel(log.WithClientID(parent, id))
	return &Client{
		id:       id,
		conn:     conn,
		send:     make(chan []byte, 256),
		onPrompt: onPrompt,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (c *Client) Run() {
	c.conn.SetCloseHandler(func(code int, text string) error {
		log.WithCtx(c.ctx).Debug("websocket connection closed", zap.Int("code", code), zap.String("text", text))
		c.Close()
		return nil
	})
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.readPump()
	go c.writePump()
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) Context() context.Context {
	return c.ctx
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	c.conn.Close()
}

func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// readPump decodes prompt messages; anything else is ignored.
func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.WithCtx(c.ctx).Error("websocket read failed", zap.Error(err))
			}
			return
		}

		var msg domain.PromptMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.WithCtx(c.ctx).Debug("ignoring malformed message", zap.Error(err))
			continue
		}
		if msg.Type != domain.PromptMessageType || c.onPrompt == nil {
			continue
		}
		// Dispatch blocks for every model call; keep reading so pongs are seen.
		go c.onPrompt(c, msg.Content)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.WithCtx(c.ctx).Error("websocket write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.WithCtx(c.ctx).Error("failed to send ping", zap.Error(err))
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// SendMessage queues a message. A client that cannot keep up is closed.
func (c *Client) SendMessage(message []byte) error {
	if c.IsClosed() {
		return websocket.ErrCloseSent
	}

	select {
	case c.send <- message:
		return nil
	default:
		c.Close()
		return websocket.ErrCloseSent
	}
}

// SendEvent marshals and queues a single event for this client only.
func (c *Client) SendEvent(event domain.ConversationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return c.SendMessage(payload)
}
