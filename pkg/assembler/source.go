// Package assembler aggregates context fragments from independently
// failing sources into a single string for prompt injection.
package assembler

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirahq/kirabridge/pkg/schema"
)

// Params carries optional per-call parameters to context sources, such as
// a persona name override.
type Params map[string]string

// ContextSource produces one named fragment of context for a query.
// Implementations degrade internal failures to an empty string; errors of
// the SourceError family (and anything unexpected that does escape) are
// caught at the assembler boundary and cost only that source's
// contribution.
type ContextSource interface {
	// GetContext returns this source's fragment for the query. An empty
	// string means "nothing relevant", which is not an error.
	GetContext(ctx context.Context, query string, channel *schema.ChannelContext, msg *schema.Message, params Params) (string, error)

	// SourceName identifies the source in logs and section headings.
	SourceName() string

	// Available reports whether the source can currently serve queries.
	// Unavailable sources are skipped without being counted as failures.
	Available() bool
}

// SourceErrorKind classifies expected source failures.
type SourceErrorKind int

const (
	SourceUnavailable SourceErrorKind = iota
	SourceTimeout
)

func (k SourceErrorKind) String() string {
	switch k {
	case SourceUnavailable:
		return "unavailable"
	case SourceTimeout:
		return "timeout"
	}
	return "unknown"
}

// SourceError is the expected failure family for context sources. The
// assembler logs these at warn severity; anything else escaping a source
// is logged at error severity. Control flow is identical either way.
type SourceError struct {
	Source string
	Kind   SourceErrorKind
	Err    error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("context source %s %s: %v", e.Source, e.Kind, e.Err)
	}
	return fmt.Sprintf("context source %s %s", e.Source, e.Kind)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// IsSourceError reports whether err is (or wraps) a SourceError.
func IsSourceError(err error) bool {
	var se *SourceError
	return errors.As(err, &se)
}
