package message_broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/model-compare/domain"
)

func receive(t *testing.T, ch <-chan domain.Message) domain.Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	return domain.Message{}
}

func TestPublishFansOut(t *testing.T) {
	b := NewChannelMessageBroker()
	defer b.Close()
	ctx := context.Background()

	a, err := b.Subscribe(ctx, domain.ConversationTopic, "")
	require.NoError(t, err)
	c, err := b.Subscribe(ctx, domain.ConversationTopic, "")
	require.NoError(t, err)
	other, err := b.Subscribe(ctx, "other", "")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, domain.ConversationTopic, "", []byte("hello")))

	assert.Equal(t, "hello", string(receive(t, a).Payload))
	msg := receive(t, c)
	assert.Equal(t, "hello", string(msg.Payload))
	assert.Equal(t, domain.ConversationTopic, msg.Topic)
	assert.Empty(t, other)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	b := NewChannelMessageBroker()
	defer b.Close()
	assert.NoError(t, b.Publish(context.Background(), "nobody", "", []byte("x")))
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewChannelMessageBroker()
	defer b.Close()
	ctx := context.Background()

	_, err := b.Subscribe(ctx, "t", "")
	require.NoError(t, err)

	for i := 0; i < subscriberBuffer+10; i++ {
		require.NoError(t, b.Publish(ctx, "t", "", []byte("x")))
	}
}

func TestSubscriptionEndsWithContext(t *testing.T) {
	b := NewChannelMessageBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := b.Subscribe(ctx, "t", "")
	require.NoError(t, err)
	assert.Equal(t, 1, b.SubscriberCount("t", ""))

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
	assert.Equal(t, 0, b.SubscriberCount("t", ""))
}

func TestClose(t *testing.T) {
	b := NewChannelMessageBroker()
	ctx := context.Background()

	ch, err := b.Subscribe(ctx, "t", "")
	require.NoError(t, err)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.True(t, b.IsClosed())

	_, ok := <-ch
	assert.False(t, ok)

	assert.ErrorIs(t, b.Publish(ctx, "t", "", nil), ErrBrokerClosed)
	_, err = b.Subscribe(ctx, "t", "")
	assert.ErrorIs(t, err, ErrBrokerClosed)
}
