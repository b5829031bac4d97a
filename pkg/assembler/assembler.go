package assembler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kirahq/kirabridge/pkg/logger"
	"github.com/kirahq/kirabridge/pkg/schema"
)

// DefaultSourceTimeout bounds each source query independently so one slow
// backend cannot hold up the rest of the assembly.
const DefaultSourceTimeout = 10 * time.Second

// Assembler fans a query out to its registered context sources and joins
// the non-empty fragments into one labeled string. Sources run
// concurrently; a failing, slow or panicking source costs only its own
// contribution. The output concatenation order is the registration order,
// not the completion order.
type Assembler struct {
	mu            sync.RWMutex
	sources       []ContextSource
	sourceTimeout time.Duration
}

func New() *Assembler {
	return &Assembler{sourceTimeout: DefaultSourceTimeout}
}

// SetSourceTimeout overrides the per-source timeout. Zero or negative
// restores the default.
func (a *Assembler) SetSourceTimeout(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if d <= 0 {
		d = DefaultSourceTimeout
	}
	a.sourceTimeout = d
}

// AddSource appends a source to the assembly order.
func (a *Assembler) AddSource(src ContextSource) {
	if src == nil {
		return
	}
	a.mu.Lock()
	a.sources = append(a.sources, src)
	a.mu.Unlock()

	logger.DebugCF("context_assembler", "Added source", map[string]interface{}{
		"source": src.SourceName(),
	})
}

// RemoveSource drops all sources with the given name.
func (a *Assembler) RemoveSource(name string) {
	a.mu.Lock()
	kept := a.sources[:0]
	for _, s := range a.sources {
		if s.SourceName() != name {
			kept = append(kept, s)
		}
	}
	a.sources = kept
	a.mu.Unlock()

	logger.DebugCF("context_assembler", "Removed source", map[string]interface{}{
		"source": name,
	})
}

// SourceCount returns the number of registered sources.
func (a *Assembler) SourceCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.sources)
}

// SourceNames returns the registered source names in assembly order.
func (a *Assembler) SourceNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, len(a.sources))
	for i, s := range a.sources {
		names[i] = s.SourceName()
	}
	return names
}

type fragment struct {
	index int
	name  string
	text  string
	err   error
}

// Assemble queries every available source concurrently and returns the
// labeled, registration-ordered concatenation of their non-empty
// fragments. An empty return means "no context available" and is a valid
// result, not a failure.
func (a *Assembler) Assemble(ctx context.Context, query string, channel *schema.ChannelContext, msg *schema.Message, params Params) string {
	a.mu.RLock()
	sources := make([]ContextSource, len(a.sources))
	copy(sources, a.sources)
	timeout := a.sourceTimeout
	a.mu.RUnlock()

	if len(sources) == 0 {
		logger.WarnC("context_assembler", "No sources configured")
		return ""
	}

	results := make(chan fragment, len(sources))
	queried := 0

	for i, src := range sources {
		if !src.Available() {
			logger.DebugCF("context_assembler", "Source not available, skipping", map[string]interface{}{
				"source": src.SourceName(),
			})
			continue
		}
		queried++

		go func(index int, src ContextSource) {
			name := src.SourceName()
			frag := fragment{index: index, name: name}

			defer func() {
				if r := recover(); r != nil {
					frag.err = fmt.Errorf("source panicked: %v", r)
					frag.text = ""
				}
				results <- frag
			}()

			srcCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			text, err := src.GetContext(srcCtx, query, channel, msg, params)
			if err != nil && !IsSourceError(err) && srcCtx.Err() == context.DeadlineExceeded {
				err = &SourceError{Source: name, Kind: SourceTimeout, Err: err}
			}
			frag.text = text
			frag.err = err
		}(i, src)
	}

	// Gather without ordering assumptions, then emit in registration order.
	byIndex := make(map[int]fragment, queried)
	for n := 0; n < queried; n++ {
		frag := <-results
		byIndex[frag.index] = frag
	}

	var parts []string
	var succeeded, failed []string

	for i, src := range sources {
		frag, ok := byIndex[i]
		if !ok {
			continue
		}

		if frag.err != nil {
			if IsSourceError(frag.err) {
				logger.WarnCF("context_assembler", "Source error", map[string]interface{}{
					"source": frag.name,
					"error":  frag.err.Error(),
				})
			} else {
				logger.ErrorCF("context_assembler", "Unexpected error from source", map[string]interface{}{
					"source": frag.name,
					"error":  frag.err.Error(),
				})
			}
			failed = append(failed, frag.name)
			continue
		}

		if strings.TrimSpace(frag.text) == "" {
			logger.DebugCF("context_assembler", "Source returned empty context", map[string]interface{}{
				"source": frag.name,
			})
			continue
		}

		parts = append(parts, sectionHeading(src.SourceName()), frag.text)
		succeeded = append(succeeded, frag.name)
	}

	if len(succeeded) > 0 {
		logger.InfoCF("context_assembler", "Assembled context", map[string]interface{}{
			"sources": strings.Join(succeeded, ", "),
		})
	}
	if len(failed) > 0 {
		logger.WarnCF("context_assembler", "Sources failed during assembly", map[string]interface{}{
			"sources": strings.Join(failed, ", "),
		})
	}

	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n")
}

func sectionHeading(name string) string {
	if name == "" {
		return "## Context"
	}
	return "## Context from " + strings.ToUpper(name[:1]) + name[1:]
}
