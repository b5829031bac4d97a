package adapters

import (
	"sync"

	"github.com/kirahq/kirabridge/pkg/logger"
	"github.com/kirahq/kirabridge/pkg/schema"
)

// Router owns the adapter registry and dispatches raw messages to the
// adapter matching their source. Construct one at the composition root and
// pass it down; there is no process-wide instance.
type Router struct {
	mu       sync.RWMutex
	adapters map[string]ChatAdapter
}

// NewRouter returns a router with the Slack and Electron adapters
// pre-registered.
func NewRouter() *Router {
	r := &Router{adapters: make(map[string]ChatAdapter)}
	r.RegisterAdapter(schema.SourceSlack, NewSlackAdapter())
	r.RegisterAdapter(schema.SourceElectron, NewElectronAdapter())
	return r
}

// RegisterAdapter adds or replaces the adapter for a source tag.
func (r *Router) RegisterAdapter(source string, adapter ChatAdapter) error {
	if adapter == nil {
		return ErrNilAdapter
	}

	r.mu.Lock()
	r.adapters[source] = adapter
	r.mu.Unlock()

	logger.DebugCF("adapter_router", "Registered adapter", map[string]interface{}{
		"source": source,
	})
	return nil
}

func (r *Router) adapter(source string) ChatAdapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.adapters[source]
}

// DetectSource determines which adapter a raw message belongs to.
// Precedence: an explicit "source" field naming a registered adapter, then
// structural sniffing, then Slack as the backward-compatibility fallback
// (logged, never silent).
func (r *Router) DetectSource(raw schema.RawMessage) string {
	if src := raw.String("source"); src != "" && r.adapter(src) != nil {
		return src
	}

	if raw.Has("userId") && raw.Has("userName") && raw.Has("channelId") {
		return schema.SourceElectron
	}
	if raw.Has("user") && raw.Has("channel") && raw.Has("ts") {
		return schema.SourceSlack
	}

	logger.WarnC("adapter_router", "Could not detect message source, defaulting to slack")
	return schema.SourceSlack
}

// AdaptMessage resolves the adapter for a message and runs it. source may
// be "" to use detection; ctx may be nil.
func (r *Router) AdaptMessage(raw schema.RawMessage, ctx *schema.ChannelContext, source string) (*schema.ChannelContext, *schema.Message, error) {
	if source == "" {
		source = r.DetectSource(raw)
	}

	adapter := r.adapter(source)
	if adapter == nil {
		return nil, nil, &UnknownSourceError{Source: source}
	}

	if !adapter.Validate(raw) {
		return nil, nil, &InvalidMessageError{Source: source}
	}

	channel, msg, err := adapter.Adapt(raw, ctx)
	if err != nil {
		logger.ErrorCF("adapter_router", "Error adapting message", map[string]interface{}{
			"source": source,
			"error":  err.Error(),
		})
		return nil, nil, err
	}

	logger.DebugCF("adapter_router", "Adapted message", map[string]interface{}{
		"source": source,
	})
	return channel, msg, nil
}

// Sources lists the registered source tags.
func (r *Router) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.adapters))
	for src := range r.adapters {
		out = append(out, src)
	}
	return out
}
