package assembler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirahq/kirabridge/pkg/schema"
)

// stubSource is a configurable ContextSource for assembler tests.
type stubSource struct {
	name      string
	text      string
	err       error
	delay     time.Duration
	available bool
	panics    bool
}

func (s *stubSource) SourceName() string { return s.name }

func (s *stubSource) Available() bool { return s.available }

func (s *stubSource) GetContext(ctx context.Context, query string, channel *schema.ChannelContext, msg *schema.Message, params Params) (string, error) {
	if s.panics {
		panic("stub source panic")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.text, s.err
}

func ok(name, text string) *stubSource {
	return &stubSource{name: name, text: text, available: true}
}

// TestAssembleNoSources verifies that an assembler with zero sources
// returns an empty string rather than an error.
func TestAssembleNoSources(t *testing.T) {
	a := New()
	got := a.Assemble(context.Background(), "query", nil, nil, Params{})
	if got != "" {
		t.Errorf("expected empty context, got %q", got)
	}
}

// TestAssembleLabelsFragments verifies that each non-empty fragment is
// preceded by a heading naming its source.
func TestAssembleLabelsFragments(t *testing.T) {
	a := New()
	a.AddSource(ok("memory", "remembered facts"))

	got := a.Assemble(context.Background(), "query", nil, nil, Params{})
	want := "## Context from Memory\n\nremembered facts"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

// TestAssembleFailureIsolation verifies that a failing source costs only
// its own fragment: the succeeding source's labeled fragment is returned
// unchanged.
func TestAssembleFailureIsolation(t *testing.T) {
	a := New()
	a.AddSource(&stubSource{name: "broken", err: errors.New("backend down"), available: true})
	a.AddSource(ok("memory", "remembered facts"))

	got := a.Assemble(context.Background(), "query", nil, nil, Params{})
	want := "## Context from Memory\n\nremembered facts"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

// TestAssembleSourceErrorIsolation verifies that typed source errors are
// absorbed the same way as unexpected ones.
func TestAssembleSourceErrorIsolation(t *testing.T) {
	a := New()
	a.AddSource(&stubSource{
		name:      "taskflow",
		err:       &SourceError{Source: "taskflow", Kind: SourceUnavailable, Err: errors.New("no api key")},
		available: true,
	})
	a.AddSource(ok("memory", "remembered facts"))

	got := a.Assemble(context.Background(), "query", nil, nil, Params{})
	if !strings.Contains(got, "remembered facts") {
		t.Errorf("expected surviving fragment, got %q", got)
	}
	if strings.Contains(got, "taskflow") {
		t.Errorf("failed source leaked into output: %q", got)
	}
}

// TestAssembleSkipsEmptyFragments verifies that empty and whitespace-only
// fragments never produce a labeled section.
func TestAssembleSkipsEmptyFragments(t *testing.T) {
	a := New()
	a.AddSource(ok("empty", ""))
	a.AddSource(ok("blank", "  \n\t "))
	a.AddSource(ok("memory", "remembered facts"))

	got := a.Assemble(context.Background(), "query", nil, nil, Params{})
	want := "## Context from Memory\n\nremembered facts"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

// TestAssembleSkipsUnavailableSources verifies that sources reporting
// themselves unavailable are never queried.
func TestAssembleSkipsUnavailableSources(t *testing.T) {
	a := New()
	a.AddSource(&stubSource{name: "persona", text: "should not appear", available: false})
	a.AddSource(ok("memory", "remembered facts"))

	got := a.Assemble(context.Background(), "query", nil, nil, Params{})
	if strings.Contains(got, "should not appear") {
		t.Errorf("unavailable source was queried: %q", got)
	}
	if !strings.Contains(got, "remembered facts") {
		t.Errorf("expected available source fragment, got %q", got)
	}
}

// TestAssembleRegistrationOrder verifies that fragments appear in
// registration order even when sources complete in reverse.
func TestAssembleRegistrationOrder(t *testing.T) {
	a := New()
	a.AddSource(&stubSource{name: "first", text: "alpha", delay: 30 * time.Millisecond, available: true})
	a.AddSource(&stubSource{name: "second", text: "beta", delay: 10 * time.Millisecond, available: true})
	a.AddSource(ok("third", "gamma"))

	got := a.Assemble(context.Background(), "query", nil, nil, Params{})

	iAlpha := strings.Index(got, "alpha")
	iBeta := strings.Index(got, "beta")
	iGamma := strings.Index(got, "gamma")
	if iAlpha < 0 || iBeta < 0 || iGamma < 0 {
		t.Fatalf("missing fragments in %q", got)
	}
	if !(iAlpha < iBeta && iBeta < iGamma) {
		t.Errorf("fragments out of registration order: %q", got)
	}
}

// TestAssemblePanicIsolation verifies that a panicking source is treated
// like a failing one and does not take down the assembly.
func TestAssemblePanicIsolation(t *testing.T) {
	a := New()
	a.AddSource(&stubSource{name: "bad", panics: true, available: true})
	a.AddSource(ok("memory", "remembered facts"))

	got := a.Assemble(context.Background(), "query", nil, nil, Params{})
	want := "## Context from Memory\n\nremembered facts"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

// TestAssembleTimeout verifies that a source slower than the configured
// timeout loses its fragment while fast sources still contribute.
func TestAssembleTimeout(t *testing.T) {
	a := New()
	a.SetSourceTimeout(20 * time.Millisecond)
	a.AddSource(&stubSource{name: "slow", text: "late", delay: 500 * time.Millisecond, available: true})
	a.AddSource(ok("memory", "remembered facts"))

	start := time.Now()
	got := a.Assemble(context.Background(), "query", nil, nil, Params{})
	elapsed := time.Since(start)

	if strings.Contains(got, "late") {
		t.Errorf("timed-out source leaked into output: %q", got)
	}
	if !strings.Contains(got, "remembered facts") {
		t.Errorf("expected fast source fragment, got %q", got)
	}
	if elapsed > 300*time.Millisecond {
		t.Errorf("assembly waited for the slow source: %v", elapsed)
	}
}

// TestRemoveSource verifies that removed sources no longer contribute.
func TestRemoveSource(t *testing.T) {
	a := New()
	a.AddSource(ok("memory", "remembered facts"))
	a.AddSource(ok("persona", "overlay"))

	if a.SourceCount() != 2 {
		t.Fatalf("expected 2 sources, got %d", a.SourceCount())
	}

	a.RemoveSource("memory")

	if a.SourceCount() != 1 {
		t.Errorf("expected 1 source after removal, got %d", a.SourceCount())
	}
	got := a.Assemble(context.Background(), "query", nil, nil, Params{})
	if strings.Contains(got, "remembered facts") {
		t.Errorf("removed source still contributes: %q", got)
	}
}

// TestSourceNames verifies names are reported in assembly order.
func TestSourceNames(t *testing.T) {
	a := New()
	a.AddSource(ok("filesystem", ""))
	a.AddSource(ok("taskflow", ""))
	a.AddSource(ok("persona", ""))

	names := a.SourceNames()
	want := []string{"filesystem", "taskflow", "persona"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("name %d: expected %q, got %q", i, want[i], names[i])
		}
	}
}

// TestIsSourceError verifies typed error detection through wrapping.
func TestIsSourceError(t *testing.T) {
	src := &SourceError{Source: "taskflow", Kind: SourceTimeout, Err: errors.New("deadline")}
	if !IsSourceError(src) {
		t.Error("expected SourceError to be detected")
	}
	if IsSourceError(errors.New("plain")) {
		t.Error("plain error misdetected as SourceError")
	}
	if IsSourceError(nil) {
		t.Error("nil misdetected as SourceError")
	}
}
