package sources

import (
	"context"
	"strings"

	"github.com/kirahq/kirabridge/pkg/assembler"
	"github.com/kirahq/kirabridge/pkg/logger"
	"github.com/kirahq/kirabridge/pkg/schema"
)

// TaskflowSource surfaces tasks, projects and users from the external
// Taskflow tracker.
//
// This is an explicit stub: until the Taskflow API endpoints exist it
// answers from canned data selected by keyword matching, behind the same
// ContextSource interface the live client will implement. Swapping in the
// real integration must not touch the assembler.
type TaskflowSource struct {
	apiKey  string
	baseURL string
	mocked  bool
}

func NewTaskflowSource(apiKey, baseURL string) *TaskflowSource {
	if baseURL == "" {
		baseURL = "https://api.taskflow.example.com"
	}
	return &TaskflowSource{apiKey: apiKey, baseURL: baseURL, mocked: true}
}

func (s *TaskflowSource) SourceName() string {
	return "taskflow"
}

// Available is always true while mocked. The live client will probe the
// API here.
func (s *TaskflowSource) Available() bool {
	return true
}

func (s *TaskflowSource) GetContext(_ context.Context, query string, _ *schema.ChannelContext, _ *schema.Message, _ assembler.Params) (string, error) {
	if s.mocked {
		return s.mockedContext(query), nil
	}
	// Unreachable until the live client lands; kept so the mocked flag has
	// an honest meaning.
	return "", nil
}

var mockCategories = []struct {
	keywords []string
	lines    []string
}{
	{
		keywords: []string{"task", "work", "todo", "progress"},
		lines: []string{
			"## Taskflow Tasks (mocked)",
			"- Task: Implement enhanced context injection (in-progress)",
			"- Task: Design persona system (pending)",
			"- Task: Create adapter layer (pending)",
		},
	},
	{
		keywords: []string{"project", "work item", "feature"},
		lines: []string{
			"## Taskflow Projects (mocked)",
			"- Project: KIRA Integration (active)",
			"- Project: Enhanced Context Injection (in-progress)",
		},
	},
	{
		keywords: []string{"user", "team", "person", "who"},
		lines: []string{
			"## Taskflow Users (mocked)",
			"- User: Developer (active)",
			"- User: Business Analyst (active)",
		},
	},
}

func (s *TaskflowSource) mockedContext(query string) string {
	queryLower := strings.ToLower(query)

	var parts []string
	for _, cat := range mockCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(queryLower, kw) {
				parts = append(parts, cat.lines...)
				break
			}
		}
	}

	if len(parts) == 0 {
		logger.DebugC("taskflow_source", "No relevant taskflow context for query")
		return ""
	}

	out := strings.Join(parts, "\n")
	logger.DebugCF("taskflow_source", "Retrieved mocked taskflow context", map[string]interface{}{
		"chars": len(out),
	})
	return out
}
