package adapters

import (
	"github.com/kirahq/kirabridge/pkg/logger"
	"github.com/kirahq/kirabridge/pkg/schema"
)

// SlackAdapter is a pass-through adapter for Slack payloads, which already
// carry the field names the canonical schema was modeled on. When the
// caller supplies a pre-built channel context (the Slack channel enriches
// one from the API), it is preserved unchanged; otherwise a minimal
// public-channel context is synthesized from the channel id alone.
type SlackAdapter struct{}

func NewSlackAdapter() *SlackAdapter {
	return &SlackAdapter{}
}

func (a *SlackAdapter) InterfaceName() string {
	return schema.SourceSlack
}

func (a *SlackAdapter) Validate(raw schema.RawMessage) bool {
	return raw.Has("channel") && raw.Has("user")
}

func (a *SlackAdapter) Adapt(raw schema.RawMessage, ctx *schema.ChannelContext) (*schema.ChannelContext, *schema.Message, error) {
	if !raw.Has("channel") {
		return nil, nil, &MissingFieldError{Source: schema.SourceSlack, Field: "channel"}
	}
	if !raw.Has("user") {
		return nil, nil, &MissingFieldError{Source: schema.SourceSlack, Field: "user"}
	}

	channelID := raw.String("channel")

	channel := ctx
	if channel == nil {
		channel = &schema.ChannelContext{
			ChannelID:      channelID,
			ChannelName:    channelID,
			ChannelType:    schema.ChannelPublic,
			Members:        []schema.Member{},
			RecentMessages: []schema.Message{},
			Source:         schema.SourceSlack,
		}
	}

	msg := &schema.Message{
		UserID:      raw.String("user"),
		UserName:    raw.String("user_name"), // may be empty; fetched upstream when needed
		Text:        raw.String("text"),
		ChannelID:   channelID,
		Timestamp:   raw.String("ts"),
		ThreadID:    raw.String("thread_ts"),
		Attachments: fileAttachments(raw),
		Source:      schema.SourceSlack,
	}

	logger.DebugCF("slack_adapter", "Passed through message", map[string]interface{}{
		"user_id":    msg.UserID,
		"channel_id": channelID,
	})

	return channel, msg, nil
}
