package persona

import (
	"strings"
	"testing"
)

// TestInjectOverlayFormat verifies the appended persona block layout.
func TestInjectOverlayFormat(t *testing.T) {
	inj := NewInjector(NewManager(t.TempDir()))
	p := &Persona{
		Name:               "alpha",
		DisplayName:        "Alpha",
		CommunicationStyle: "direct",
		Tone:               "neutral",
		PromptOverlay:      "Be direct.\n",
	}

	got := inj.InjectOverlay("Base instructions.", "", p)
	want := "Base instructions.\n\n## Persona Configuration\n<persona>\nBe direct.\n</persona>"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if !strings.HasPrefix(got, "Base instructions.") {
		t.Error("base prompt must come first, untruncated")
	}
}

// TestInjectOverlayObjectWinsOverName verifies that an explicit persona
// object takes precedence over a name lookup.
func TestInjectOverlayObjectWinsOverName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "registered.yaml", `name: registered
display_name: Registered
communication_style: direct
tone: neutral
prompt_overlay: Registered overlay.
`)
	inj := NewInjector(NewManager(dir))

	explicit := &Persona{
		Name:               "explicit",
		DisplayName:        "Explicit",
		CommunicationStyle: "direct",
		Tone:               "neutral",
		PromptOverlay:      "Explicit overlay.",
	}
	got := inj.InjectOverlay("Base.", "registered", explicit)
	if !strings.Contains(got, "Explicit overlay.") {
		t.Errorf("explicit object should win, got %q", got)
	}
	if strings.Contains(got, "Registered overlay.") {
		t.Errorf("name lookup should not run when object is given, got %q", got)
	}
}

// TestInjectOverlayByName verifies injection through a manager lookup.
func TestInjectOverlayByName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "registered.yaml", `name: registered
display_name: Registered
communication_style: direct
tone: neutral
prompt_overlay: Registered overlay.
`)
	inj := NewInjector(NewManager(dir))

	got := inj.InjectOverlay("Base.", "registered", nil)
	if !strings.Contains(got, "Registered overlay.") {
		t.Errorf("expected looked-up overlay, got %q", got)
	}
}

// TestInjectOverlayUnknownName verifies an unresolvable name returns the
// base prompt unchanged.
func TestInjectOverlayUnknownName(t *testing.T) {
	inj := NewInjector(NewManager(t.TempDir()))

	got := inj.InjectOverlay("Base instructions.", "ghost", nil)
	if got != "Base instructions." {
		t.Errorf("expected identity on unknown persona, got %q", got)
	}
}

// TestInjectOverlayNoPersona verifies the identity case with neither
// object nor name.
func TestInjectOverlayNoPersona(t *testing.T) {
	inj := NewInjector(NewManager(t.TempDir()))

	got := inj.InjectOverlay("Base instructions.", "", nil)
	if got != "Base instructions." {
		t.Errorf("expected identity with no persona, got %q", got)
	}
}
