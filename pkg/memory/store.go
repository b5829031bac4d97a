// Package memory retrieves text from the workspace memory directory. It
// implements the retrieval collaborator consumed by the filesystem context
// source.
package memory

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kirahq/kirabridge/pkg/logger"
	"github.com/kirahq/kirabridge/pkg/schema"
)

// NoResultsSentinel is the fixed value retrievers return when nothing
// matched. Callers normalize it away; it exists so "no results" and "empty
// file" stay distinguishable at this boundary.
const NoResultsSentinel = "NO_RELEVANT_MEMORIES"

// maxRetrievedBytes caps a single retrieval so a large memory directory
// cannot flood the prompt.
const maxRetrievedBytes = 16 * 1024

// RetrieveFunc is the retrieval contract: text on success, the sentinel
// when nothing matched.
type RetrieveFunc func(ctx context.Context, query string, channel *schema.ChannelContext, msg *schema.Message) (string, error)

// Store retrieves memories from markdown files under a workspace memory
// directory. Matching is plain keyword containment; anything smarter lives
// behind the same RetrieveFunc signature.
type Store struct {
	dir string
}

func NewStore(workspace string) *Store {
	return &Store{dir: filepath.Join(workspace, "memory")}
}

// Retrieve returns the concatenated contents of memory files matching the
// query, or NoResultsSentinel when nothing matches.
func (s *Store) Retrieve(ctx context.Context, query string, _ *schema.ChannelContext, _ *schema.Message) (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return NoResultsSentinel, nil
		}
		return "", err
	}

	keywords := queryKeywords(query)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".md") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			logger.WarnCF("memory", "Cannot read memory file", map[string]interface{}{
				"file":  name,
				"error": err.Error(),
			})
			continue
		}

		content := strings.TrimSpace(string(data))
		if content == "" || !matchesAny(content, keywords) {
			continue
		}

		if sb.Len()+len(content) > maxRetrievedBytes {
			break
		}
		sb.WriteString("### ")
		sb.WriteString(name)
		sb.WriteString("\n\n")
		sb.WriteString(content)
		sb.WriteString("\n\n")
	}

	if sb.Len() == 0 {
		return NoResultsSentinel, nil
	}
	return strings.TrimSpace(sb.String()), nil
}

// queryKeywords extracts the significant words of a query. Short filler
// words match everything, so they are dropped.
func queryKeywords(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(w, ".,!?:;\"'()")
		if len(w) > 3 {
			out = append(out, w)
		}
	}
	return out
}

func matchesAny(content string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	lower := strings.ToLower(content)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
