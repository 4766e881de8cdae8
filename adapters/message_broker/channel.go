package message_broker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/model-compare/domain"
	"github.com/satriahrh/model-compare/utils/log"
)

var ErrBrokerClosed = errors.New("message broker is closed")

const subscriberBuffer = 100

// ChannelMessageBroker fans every published message out to all subscribers
// of the same topic and routing key. A subscriber whose buffer is full misses
// the message; publishers never block.
type ChannelMessageBroker struct {
	mu     sync.RWMutex
	subs   map[string]map[chan domain.Message]struct{}
	closed bool
}

func NewChannelMessageBroker() *ChannelMessageBroker {
	return &ChannelMessageBroker{
		subs: make(map[string]map[chan domain.Message]struct{}),
	}
}

func makeKey(topic, routingKey string) string {
	return topic + ":" + routingKey
}

func (b *ChannelMessageBroker) Publish(ctx context.Context, topic string, routingKey string, message []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBrokerClosed
	}

	msg := domain.Message{
		Topic:      topic,
		RoutingKey: routingKey,
		Payload:    message,
		Timestamp:  time.Now(),
	}

	dropped := 0
	for ch := range b.subs[makeKey(topic, routingKey)] {
		select {
		case ch <- msg:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		log.WithCtx(ctx).Warn("subscriber buffer full, message dropped",
			zap.String("topic", topic),
			zap.Int("dropped", dropped))
	}
	log.WithCtx(ctx).Debug("message published",
		zap.String("topic", topic),
		zap.String("routingKey", routingKey),
		zap.Int("payload_size", len(message)))
	return nil
}

// Subscribe returns a channel that is closed when ctx is done or the broker
// closes.
func (b *ChannelMessageBroker) Subscribe(ctx context.Context, topic string, routingKey string) (<-chan domain.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBrokerClosed
	}

	key := makeKey(topic, routingKey)
	ch := make(chan domain.Message, subscriberBuffer)
	if b.subs[key] == nil {
		b.subs[key] = make(map[chan domain.Message]struct{})
	}
	b.subs[key][ch] = struct{}{}

	go func() {
		<-ctx.Done()
		b.unsubscribe(key, ch)
	}()

	log.WithCtx(ctx).Info("subscribed to topic", zap.String("topic", topic), zap.String("routingKey", routingKey))
	return ch, nil
}

func (b *ChannelMessageBroker) unsubscribe(key string, ch chan domain.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[key][ch]; !ok {
		return
	}
	delete(b.subs[key], ch)
	if len(b.subs[key]) == 0 {
		delete(b.subs, key)
	}
	close(ch)
}

func (b *ChannelMessageBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for _, set := range b.subs {
		for ch := range set {
			close(ch)
		}
	}
	b.subs = make(map[string]map[chan domain.Message]struct{})

	log.With().Info("message broker closed")
	return nil
}

// SubscriberCount returns the number of live subscriptions on a topic.
func (b *ChannelMessageBroker) SubscriberCount(topic, routingKey string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[makeKey(topic, routingKey)])
}

func (b *ChannelMessageBroker) IsClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}
