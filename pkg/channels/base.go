// Package channels hosts the front-end transports: the Slack socket-mode
// client, the websocket gateway the Electron app and web UI connect
// through, and a local readline CLI. Channels publish raw payloads onto
// the bus and deliver outbound replies; they never interpret message
// content.
package channels

import (
	"context"
	"sync/atomic"

	"github.com/kirahq/kirabridge/pkg/bus"
	"github.com/kirahq/kirabridge/pkg/logger"
	"github.com/kirahq/kirabridge/pkg/schema"
)

// Channel is one running front-end transport.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Send(ctx context.Context, msg bus.OutboundMessage) error
	IsRunning() bool
}

// BaseChannel carries the state every transport shares: its name, the bus,
// the sender allowlist and the running flag.
type BaseChannel struct {
	name      string
	bus       *bus.MessageBus
	allowFrom map[string]struct{}
	running   atomic.Bool
}

func NewBaseChannel(name string, b *bus.MessageBus, allowFrom []string) *BaseChannel {
	allowed := make(map[string]struct{}, len(allowFrom))
	for _, id := range allowFrom {
		if id != "" {
			allowed[id] = struct{}{}
		}
	}
	return &BaseChannel{name: name, bus: b, allowFrom: allowed}
}

func (c *BaseChannel) Name() string {
	return c.name
}

func (c *BaseChannel) IsRunning() bool {
	return c.running.Load()
}

func (c *BaseChannel) setRunning(v bool) {
	c.running.Store(v)
}

// senderAllowed applies the allowlist; an empty allowlist admits everyone.
func (c *BaseChannel) senderAllowed(senderID string) bool {
	if len(c.allowFrom) == 0 {
		return true
	}
	_, ok := c.allowFrom[senderID]
	return ok
}

// publishInbound hands a raw payload to the pipeline.
func (c *BaseChannel) publishInbound(chatID string, payload schema.RawMessage) {
	c.bus.PublishInbound(bus.InboundMessage{
		Channel: c.name,
		ChatID:  chatID,
		Payload: payload,
	})
}

// Manager starts and stops a set of channels and pumps each one's
// outbound subscription into its Send.
type Manager struct {
	bus      *bus.MessageBus
	channels []Channel
}

func NewManager(b *bus.MessageBus) *Manager {
	return &Manager{bus: b}
}

func (m *Manager) Register(ch Channel) {
	m.channels = append(m.channels, ch)
}

func (m *Manager) Channels() []Channel {
	return m.channels
}

// StartAll starts every registered channel and its outbound pump. A
// channel that fails to start is logged and skipped; the others keep
// running.
func (m *Manager) StartAll(ctx context.Context) {
	for _, ch := range m.channels {
		if err := ch.Start(ctx); err != nil {
			logger.ErrorCF("channels", "Failed to start channel", map[string]interface{}{
				"channel": ch.Name(),
				"error":   err.Error(),
			})
			continue
		}
		logger.InfoCF("channels", "Channel started", map[string]interface{}{
			"channel": ch.Name(),
		})

		go m.pumpOutbound(ctx, ch)
	}
}

func (m *Manager) pumpOutbound(ctx context.Context, ch Channel) {
	outbound := m.bus.SubscribeOutbound(ch.Name())
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-outbound:
			if err := ch.Send(ctx, msg); err != nil {
				logger.ErrorCF("channels", "Failed to send outbound message", map[string]interface{}{
					"channel": ch.Name(),
					"chat_id": msg.ChatID,
					"error":   err.Error(),
				})
			}
		}
	}
}

// StopAll stops every running channel.
func (m *Manager) StopAll(ctx context.Context) {
	for _, ch := range m.channels {
		if !ch.IsRunning() {
			continue
		}
		if err := ch.Stop(ctx); err != nil {
			logger.WarnCF("channels", "Error stopping channel", map[string]interface{}{
				"channel": ch.Name(),
				"error":   err.Error(),
			})
		}
	}
}
