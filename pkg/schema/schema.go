package schema

// Source tags identify which chat front-end a message came from. Adapters
// and context sources are registered under these tags.
const (
	SourceSlack    = "slack"
	SourceElectron = "electron"
)

// ChannelType classifies a conversation.
type ChannelType string

const (
	ChannelDirectMessage ChannelType = "dm"
	ChannelPublic        ChannelType = "public_channel"
	ChannelWebSession    ChannelType = "web_session"
)

// Message is the canonical representation of a single inbound chat message.
// After adaptation UserID, ChannelID and Text are always set (possibly to
// the empty string); ThreadID is "" when the transport has no thread.
type Message struct {
	UserID      string       `json:"user_id"`
	UserName    string       `json:"user_name"`
	Text        string       `json:"text"`
	ChannelID   string       `json:"channel_id"`
	Timestamp   string       `json:"message_timestamp"`
	ThreadID    string       `json:"thread_id,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Source      string       `json:"source"`
}

// Attachment references a file carried with a message. Path is a local
// workspace path when the transport delivered the payload inline.
type Attachment struct {
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Member describes one participant of a channel.
type Member struct {
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	DisplayName string `json:"display_name"`
}

// ChannelContext is the canonical representation of the conversation a
// message belongs to. ChannelID is always set.
type ChannelContext struct {
	ChannelID      string      `json:"channel_id"`
	ChannelName    string      `json:"channel_name"`
	ChannelType    ChannelType `json:"channel_type"`
	Members        []Member    `json:"members"`
	RecentMessages []Message   `json:"recent_messages"`
	Source         string      `json:"source,omitempty"`
}

// RawMessage is an inbound platform payload before adaptation. The shape is
// transport-specific; adapters sniff and extract fields through the typed
// accessors below.
type RawMessage map[string]interface{}

// Has reports whether the payload carries the given key.
func (r RawMessage) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// String returns the value under key rendered as a string, or "" when the
// key is absent or not a string.
func (r RawMessage) String(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

// StringSlice returns the value under key as a string slice, tolerating
// both []string and []interface{} encodings from JSON decoding.
func (r RawMessage) StringSlice(key string) []string {
	switch v := r[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
