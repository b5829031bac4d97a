package adapters

import (
	"testing"

	"github.com/kirahq/kirabridge/pkg/schema"
)

// TestSlackAdapt_PassThroughContext verifies a supplied channel context is
// returned unchanged, preserving whatever richer structure the channel
// built upstream.
func TestSlackAdapt_PassThroughContext(t *testing.T) {
	prebuilt := &schema.ChannelContext{
		ChannelID:   "C123",
		ChannelName: "#general",
		ChannelType: schema.ChannelPublic,
		Members: []schema.Member{
			{UserID: "U1", UserName: "ann"},
			{UserID: "U2", UserName: "bob"},
		},
	}
	raw := schema.RawMessage{"user": "U1", "channel": "C123", "text": "hi", "ts": "1.2"}

	channel, msg, err := NewSlackAdapter().Adapt(raw, prebuilt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if channel != prebuilt {
		t.Error("pre-built context should pass through unchanged")
	}
	if msg.UserID != "U1" || msg.ChannelID != "C123" || msg.Timestamp != "1.2" {
		t.Errorf("unexpected message mapping: %+v", msg)
	}
}

// TestSlackAdapt_SynthesizesMinimalContext verifies a minimal
// public-channel context is built when none is supplied.
func TestSlackAdapt_SynthesizesMinimalContext(t *testing.T) {
	raw := schema.RawMessage{"user": "U1", "channel": "C9", "text": "hi"}

	channel, _, err := NewSlackAdapter().Adapt(raw, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if channel.ChannelID != "C9" || channel.ChannelName != "C9" {
		t.Errorf("unexpected synthesized channel: %+v", channel)
	}
	if channel.ChannelType != schema.ChannelPublic {
		t.Errorf("synthesized channel should default to public, got %q", channel.ChannelType)
	}
	if len(channel.Members) != 0 || len(channel.RecentMessages) != 0 {
		t.Error("synthesized context should have no members or history")
	}
}

// TestSlackValidate requires channel and user.
func TestSlackValidate(t *testing.T) {
	adapter := NewSlackAdapter()

	if !adapter.Validate(schema.RawMessage{"user": "U1", "channel": "C1"}) {
		t.Error("message with user and channel should validate")
	}
	if adapter.Validate(schema.RawMessage{"user": "U1"}) {
		t.Error("message without channel should not validate")
	}
	if adapter.Validate(schema.RawMessage{"channel": "C1"}) {
		t.Error("message without user should not validate")
	}
}

// TestSlackAdapt_ThreadTS maps thread_ts through when present.
func TestSlackAdapt_ThreadTS(t *testing.T) {
	raw := schema.RawMessage{"user": "U1", "channel": "C1", "ts": "2.0", "thread_ts": "1.0"}

	_, msg, err := NewSlackAdapter().Adapt(raw, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.ThreadID != "1.0" {
		t.Errorf("thread id not mapped: %q", msg.ThreadID)
	}
}
