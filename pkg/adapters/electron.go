package adapters

import (
	"github.com/kirahq/kirabridge/pkg/logger"
	"github.com/kirahq/kirabridge/pkg/schema"
)

// electronRequiredFields in validation/error-reporting order.
var electronRequiredFields = []string{"text", "userId", "userName", "channelId"}

// ElectronAdapter maps Electron desktop app messages onto the canonical
// schema. The Electron transport carries no conversation history, so the
// synthesized channel context is a direct-message conversation with the
// sender as its only member.
type ElectronAdapter struct{}

func NewElectronAdapter() *ElectronAdapter {
	return &ElectronAdapter{}
}

func (a *ElectronAdapter) InterfaceName() string {
	return schema.SourceElectron
}

func (a *ElectronAdapter) Validate(raw schema.RawMessage) bool {
	for _, field := range electronRequiredFields {
		if !raw.Has(field) {
			return false
		}
	}
	return true
}

func (a *ElectronAdapter) Adapt(raw schema.RawMessage, _ *schema.ChannelContext) (*schema.ChannelContext, *schema.Message, error) {
	for _, field := range electronRequiredFields {
		if !raw.Has(field) {
			return nil, nil, &MissingFieldError{Source: schema.SourceElectron, Field: field}
		}
	}

	userID := raw.String("userId")
	userName := raw.String("userName")
	channelID := raw.String("channelId")

	msg := &schema.Message{
		UserID:      userID,
		UserName:    userName,
		Text:        raw.String("text"),
		ChannelID:   channelID,
		Timestamp:   raw.String("timestamp"),
		ThreadID:    raw.String("threadId"),
		Attachments: fileAttachments(raw),
		Source:      schema.SourceElectron,
	}

	channel := &schema.ChannelContext{
		ChannelID:   channelID,
		ChannelName: channelID, // no separate name on the Electron transport
		ChannelType: schema.ChannelDirectMessage,
		Members: []schema.Member{
			{UserID: userID, UserName: userName, DisplayName: userName},
		},
		RecentMessages: []schema.Message{},
		Source:         schema.SourceElectron,
	}

	logger.DebugCF("electron_adapter", "Adapted message", map[string]interface{}{
		"user_id":    userID,
		"channel_id": channelID,
	})

	return channel, msg, nil
}

// fileAttachments lifts a transport "files" list into canonical
// attachments. Entries may be plain path strings or {name, path, url} maps.
func fileAttachments(raw schema.RawMessage) []schema.Attachment {
	files, ok := raw["files"].([]interface{})
	if !ok {
		return nil
	}

	out := make([]schema.Attachment, 0, len(files))
	for _, f := range files {
		switch v := f.(type) {
		case string:
			out = append(out, schema.Attachment{Name: v, Path: v})
		case map[string]interface{}:
			att := schema.Attachment{}
			if s, ok := v["name"].(string); ok {
				att.Name = s
			}
			if s, ok := v["path"].(string); ok {
				att.Path = s
			}
			if s, ok := v["url"].(string); ok {
				att.URL = s
			}
			if att.Name != "" || att.Path != "" || att.URL != "" {
				out = append(out, att)
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
