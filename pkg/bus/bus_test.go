package bus

import (
	"context"
	"testing"
	"time"

	"github.com/kirahq/kirabridge/pkg/schema"
)

// TestInboundRoundTrip verifies a published message comes back through
// ConsumeInbound.
func TestInboundRoundTrip(t *testing.T) {
	b := NewMessageBus()
	b.PublishInbound(InboundMessage{
		Channel: "slack",
		ChatID:  "C123",
		Payload: schema.RawMessage{"text": "hello"},
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	msg, ok := b.ConsumeInbound(ctx)
	if !ok {
		t.Fatal("expected a message")
	}
	if msg.Channel != "slack" || msg.ChatID != "C123" {
		t.Errorf("unexpected message %+v", msg)
	}
	if msg.Payload.String("text") != "hello" {
		t.Errorf("payload lost: %+v", msg.Payload)
	}
}

// TestPublishInboundAssignsCorrelationID verifies a correlation id is
// assigned when the channel did not set one, and preserved when it did.
func TestPublishInboundAssignsCorrelationID(t *testing.T) {
	b := NewMessageBus()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	b.PublishInbound(InboundMessage{Channel: "slack", ChatID: "C1"})
	msg, ok := b.ConsumeInbound(ctx)
	if !ok {
		t.Fatal("expected a message")
	}
	if msg.CorrelationID == "" {
		t.Error("expected an assigned correlation id")
	}

	b.PublishInbound(InboundMessage{Channel: "slack", ChatID: "C1", CorrelationID: "corr-1"})
	msg, ok = b.ConsumeInbound(ctx)
	if !ok {
		t.Fatal("expected a message")
	}
	if msg.CorrelationID != "corr-1" {
		t.Errorf("existing correlation id replaced with %q", msg.CorrelationID)
	}
}

// TestConsumeInboundCancellation verifies consumption unblocks on context
// cancellation.
func TestConsumeInboundCancellation(t *testing.T) {
	b := NewMessageBus()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := b.ConsumeInbound(ctx); ok {
		t.Error("expected no message after cancellation")
	}
}

// TestOutboundRouting verifies replies reach only the subscribed channel.
func TestOutboundRouting(t *testing.T) {
	b := NewMessageBus()
	slack := b.SubscribeOutbound("slack")
	gateway := b.SubscribeOutbound("electron")

	b.PublishOutbound(OutboundMessage{Channel: "slack", ChatID: "C1", Content: "reply"})

	select {
	case msg := <-slack:
		if msg.Content != "reply" {
			t.Errorf("unexpected content %q", msg.Content)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for outbound message")
	}

	select {
	case msg := <-gateway:
		t.Errorf("message leaked to wrong channel: %+v", msg)
	default:
	}
}

// TestSubscribeOutboundMemoized verifies repeated subscriptions share one
// stream.
func TestSubscribeOutboundMemoized(t *testing.T) {
	b := NewMessageBus()
	first := b.SubscribeOutbound("slack")
	b.SubscribeOutbound("slack")

	b.PublishOutbound(OutboundMessage{Channel: "slack", Content: "once"})

	select {
	case <-first:
	case <-time.After(time.Second):
		t.Fatal("first subscription did not receive the message")
	}
}

// TestPublishOutboundNoSubscriber verifies publishing to an unsubscribed
// channel is a silent drop, not a panic or block.
func TestPublishOutboundNoSubscriber(t *testing.T) {
	b := NewMessageBus()
	b.PublishOutbound(OutboundMessage{Channel: "nobody", Content: "lost"})
}
