// Package adapters converts interface-specific chat payloads into the
// canonical schema shared by the rest of the pipeline. Each front-end
// (Slack, the Electron desktop app, the web gateway) gets one ChatAdapter;
// the Router picks the right one per message.
package adapters

import (
	"errors"
	"fmt"

	"github.com/kirahq/kirabridge/pkg/schema"
)

// ChatAdapter converts one front-end's message format into the canonical
// channel context and message pair.
//
// Validate is a cheap, non-failing pre-check so the router can filter
// malformed input without error handling on the common path; Adapt is the
// failing operation and never returns a partially filled Message.
type ChatAdapter interface {
	Adapt(raw schema.RawMessage, ctx *schema.ChannelContext) (*schema.ChannelContext, *schema.Message, error)
	Validate(raw schema.RawMessage) bool
	InterfaceName() string
}

// ErrNilAdapter is returned when a nil adapter is registered.
var ErrNilAdapter = errors.New("adapter must not be nil")

// MissingFieldError reports the first required field absent from a raw
// message during adaptation.
type MissingFieldError struct {
	Source string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field in %s message: %s", e.Source, e.Field)
}

// InvalidMessageError reports a raw message that failed an adapter's
// validation.
type InvalidMessageError struct {
	Source string
}

func (e *InvalidMessageError) Error() string {
	return fmt.Sprintf("invalid message format for %s adapter", e.Source)
}

// UnknownSourceError reports a source tag with no registered adapter.
type UnknownSourceError struct {
	Source string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown message source: %s", e.Source)
}
