// Package sources holds the concrete context sources fed to the
// assembler: workspace memory, the (mocked) external task tracker, and
// persona overlays.
package sources

import (
	"context"

	"github.com/kirahq/kirabridge/pkg/assembler"
	"github.com/kirahq/kirabridge/pkg/logger"
	"github.com/kirahq/kirabridge/pkg/memory"
	"github.com/kirahq/kirabridge/pkg/schema"
)

// FilesystemSource retrieves context from workspace memories through a
// retrieval collaborator. The collaborator's "no results" sentinel is
// normalized to the empty string so downstream assembly treats "nothing
// found" uniformly across sources.
type FilesystemSource struct {
	retrieve memory.RetrieveFunc
}

func NewFilesystemSource(retrieve memory.RetrieveFunc) *FilesystemSource {
	return &FilesystemSource{retrieve: retrieve}
}

func (s *FilesystemSource) SourceName() string {
	return "filesystem"
}

// Available is always true; a missing memories directory degrades inside
// GetContext instead.
func (s *FilesystemSource) Available() bool {
	return true
}

func (s *FilesystemSource) GetContext(ctx context.Context, query string, channel *schema.ChannelContext, msg *schema.Message, _ assembler.Params) (string, error) {
	text, err := s.retrieve(ctx, query, channel, msg)
	if err != nil {
		logger.ErrorCF("filesystem_source", "Error retrieving filesystem context", map[string]interface{}{
			"error": err.Error(),
		})
		return "", nil
	}

	if text == memory.NoResultsSentinel {
		logger.DebugC("filesystem_source", "No memories found for query")
		return "", nil
	}

	logger.DebugCF("filesystem_source", "Retrieved filesystem context", map[string]interface{}{
		"chars": len(text),
	})
	return text, nil
}
