package bus

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/kirahq/kirabridge/pkg/logger"
)

const queueSize = 128

// MessageBus decouples front-end channels from the pipeline: channels
// publish inbound payloads and subscribe for outbound replies addressed to
// them; the pipeline consumes inbound and publishes outbound.
type MessageBus struct {
	inbound chan InboundMessage

	mu          sync.RWMutex
	subscribers map[string]chan OutboundMessage
}

func NewMessageBus() *MessageBus {
	return &MessageBus{
		inbound:     make(chan InboundMessage, queueSize),
		subscribers: make(map[string]chan OutboundMessage),
	}
}

// PublishInbound queues a raw payload for the pipeline. A correlation id
// is assigned when the channel did not set one. Messages are dropped with
// an error log when the queue is full; a stuck pipeline must not block
// channel receive loops.
func (b *MessageBus) PublishInbound(msg InboundMessage) {
	if msg.CorrelationID == "" {
		msg.CorrelationID = uuid.NewString()
	}

	select {
	case b.inbound <- msg:
	default:
		logger.ErrorCF("bus", "Inbound queue full, dropping message", map[string]interface{}{
			"channel": msg.Channel,
			"chat_id": msg.ChatID,
		})
	}
}

// ConsumeInbound blocks for the next inbound message or ctx cancellation.
func (b *MessageBus) ConsumeInbound(ctx context.Context) (InboundMessage, bool) {
	select {
	case <-ctx.Done():
		return InboundMessage{}, false
	case msg := <-b.inbound:
		return msg, true
	}
}

// SubscribeOutbound returns the reply stream for one channel name.
// Repeated calls for the same name return the same stream.
func (b *MessageBus) SubscribeOutbound(channel string) <-chan OutboundMessage {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[channel]; ok {
		return ch
	}
	ch := make(chan OutboundMessage, queueSize)
	b.subscribers[channel] = ch
	return ch
}

// PublishOutbound routes a reply to its channel's subscriber. Replies for
// channels nobody subscribed to are dropped with a warning.
func (b *MessageBus) PublishOutbound(msg OutboundMessage) {
	b.mu.RLock()
	ch, ok := b.subscribers[msg.Channel]
	b.mu.RUnlock()

	if !ok {
		logger.WarnCF("bus", "No subscriber for outbound channel", map[string]interface{}{
			"channel": msg.Channel,
		})
		return
	}

	select {
	case ch <- msg:
	default:
		logger.ErrorCF("bus", "Outbound queue full, dropping message", map[string]interface{}{
			"channel": msg.Channel,
			"chat_id": msg.ChatID,
		})
	}
}
