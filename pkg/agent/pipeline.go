// Package agent runs the message pipeline: raw payload in, adapted
// canonical message, assembled context, persona overlay, provider call,
// reply out.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kirahq/kirabridge/pkg/adapters"
	"github.com/kirahq/kirabridge/pkg/assembler"
	"github.com/kirahq/kirabridge/pkg/bus"
	"github.com/kirahq/kirabridge/pkg/logger"
	"github.com/kirahq/kirabridge/pkg/persona"
	"github.com/kirahq/kirabridge/pkg/providers"
	"github.com/kirahq/kirabridge/pkg/schema"
)

const (
	// requestTimeout bounds one full message round trip, assembly and
	// provider call included.
	requestTimeout = 120 * time.Second

	fallbackReply = "Sorry, I could not process that message right now."
)

// Pipeline consumes inbound raw messages and publishes replies. All
// collaborators are injected; the composition root owns construction.
type Pipeline struct {
	bus            *bus.MessageBus
	router         *adapters.Router
	assembler      *assembler.Assembler
	injector       *persona.Injector
	invoker        providers.Invoker
	defaultPersona string
	basePrompt     string
}

func NewPipeline(b *bus.MessageBus, router *adapters.Router, asm *assembler.Assembler, injector *persona.Injector, invoker providers.Invoker, defaultPersona string) *Pipeline {
	return &Pipeline{
		bus:            b,
		router:         router,
		assembler:      asm,
		injector:       injector,
		invoker:        invoker,
		defaultPersona: defaultPersona,
		basePrompt:     defaultBasePrompt(),
	}
}

// SetBasePrompt overrides the built-in base instructions.
func (p *Pipeline) SetBasePrompt(prompt string) {
	if strings.TrimSpace(prompt) != "" {
		p.basePrompt = prompt
	}
}

// Run consumes inbound messages until ctx is cancelled. Each message is
// processed on its own goroutine so a slow provider call cannot back up
// the bus.
func (p *Pipeline) Run(ctx context.Context) {
	logger.InfoC("pipeline", "Pipeline started")
	for {
		msg, ok := p.bus.ConsumeInbound(ctx)
		if !ok {
			logger.InfoC("pipeline", "Pipeline stopped")
			return
		}
		go p.handle(ctx, msg)
	}
}

func (p *Pipeline) handle(ctx context.Context, inbound bus.InboundMessage) {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	reply, err := p.Process(reqCtx, inbound.Payload, nil)
	if err != nil {
		logger.ErrorCF("pipeline", "Failed to process message", map[string]interface{}{
			"channel":        inbound.Channel,
			"chat_id":        inbound.ChatID,
			"correlation_id": inbound.CorrelationID,
			"error":          err.Error(),
		})
		reply = fallbackReply
	}

	p.bus.PublishOutbound(bus.OutboundMessage{
		Channel:       inbound.Channel,
		ChatID:        inbound.ChatID,
		Content:       reply,
		CorrelationID: inbound.CorrelationID,
	})
}

// Process runs one raw payload through the full pipeline and returns the
// provider's reply. channelCtx may carry a pre-built channel context for
// pass-through adapters.
func (p *Pipeline) Process(ctx context.Context, raw schema.RawMessage, channelCtx *schema.ChannelContext) (string, error) {
	channel, msg, err := p.router.AdaptMessage(raw, channelCtx, "")
	if err != nil {
		return "", fmt.Errorf("adapt message: %w", err)
	}

	// The persona source resolves its own default; params only carry
	// per-request overrides, of which the bus path has none.
	assembled := p.assembler.Assemble(ctx, msg.Text, channel, msg, assembler.Params{})

	systemPrompt := p.injector.InjectOverlay(p.basePrompt, p.defaultPersona, nil)
	if assembled != "" {
		systemPrompt += "\n\n# Retrieved Context\n\n" + assembled
	}
	systemPrompt += fmt.Sprintf("\n\n## Current Session\nSource: %s\nChannel: %s\nUser: %s",
		msg.Source, msg.ChannelID, msg.UserID)

	reply, err := p.invoker.Invoke(ctx, systemPrompt, msg.Text)
	if err != nil {
		return "", fmt.Errorf("invoke provider: %w", err)
	}
	if strings.TrimSpace(reply) == "" {
		return fallbackReply, nil
	}

	logger.DebugCF("pipeline", "Processed message", map[string]interface{}{
		"source":        msg.Source,
		"channel_id":    msg.ChannelID,
		"context_chars": len(assembled),
	})
	return reply, nil
}

func defaultBasePrompt() string {
	return strings.TrimSpace(`
You are KIRA, a team assistant reachable from Slack, the desktop app and
the web UI.

Answer from the retrieved context sections when they are relevant, and say
so when they are not. Be concise.`)
}
