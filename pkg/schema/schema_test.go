package schema

import (
	"encoding/json"
	"testing"
)

// TestRawMessageAccessors verifies the typed accessors tolerate missing
// and mistyped keys.
func TestRawMessageAccessors(t *testing.T) {
	raw := RawMessage{
		"text":   "hello",
		"count":  3,
		"labels": []interface{}{"a", "b", 7},
		"names":  []string{"x", "y"},
	}

	if !raw.Has("text") || raw.Has("missing") {
		t.Error("Has misreports key presence")
	}
	if raw.String("text") != "hello" {
		t.Errorf("unexpected String value %q", raw.String("text"))
	}
	if raw.String("count") != "" {
		t.Errorf("non-string value should read as empty, got %q", raw.String("count"))
	}
	if raw.String("missing") != "" {
		t.Errorf("missing key should read as empty, got %q", raw.String("missing"))
	}

	labels := raw.StringSlice("labels")
	if len(labels) != 2 || labels[0] != "a" || labels[1] != "b" {
		t.Errorf("unexpected labels %v", labels)
	}
	names := raw.StringSlice("names")
	if len(names) != 2 || names[0] != "x" {
		t.Errorf("unexpected names %v", names)
	}
	if raw.StringSlice("missing") != nil {
		t.Error("missing key should yield nil slice")
	}
}

// TestMessageThreadIDOmitted verifies an absent thread id disappears from
// the wire form instead of serializing as "".
func TestMessageThreadIDOmitted(t *testing.T) {
	data, err := json.Marshal(Message{UserID: "u1", Text: "hi", ChannelID: "c1", Source: SourceSlack})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["thread_id"]; ok {
		t.Error("empty thread_id should be omitted")
	}

	data, err = json.Marshal(Message{UserID: "u1", ChannelID: "c1", ThreadID: "t1"})
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m["thread_id"] != "t1" {
		t.Errorf("thread_id lost: %v", m["thread_id"])
	}
}
