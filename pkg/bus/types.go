package bus

import "github.com/kirahq/kirabridge/pkg/schema"

// InboundMessage is one raw front-end payload on its way to the pipeline.
// Payload is the untouched transport shape; adaptation happens downstream
// so the bus stays schema-agnostic.
type InboundMessage struct {
	Channel       string            `json:"channel"`
	ChatID        string            `json:"chat_id"`
	Payload       schema.RawMessage `json:"payload"`
	CorrelationID string            `json:"correlation_id,omitempty"`
}

// OutboundMessage is a reply on its way back to a front-end channel.
type OutboundMessage struct {
	Channel       string   `json:"channel"`
	ChatID        string   `json:"chat_id"`
	Content       string   `json:"content"`
	Media         []string `json:"media,omitempty"` // local file paths to send
	CorrelationID string   `json:"correlation_id,omitempty"`
}

type MessageHandler func(InboundMessage) error
