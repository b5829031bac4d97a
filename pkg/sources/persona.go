package sources

import (
	"context"
	"strings"

	"github.com/kirahq/kirabridge/pkg/assembler"
	"github.com/kirahq/kirabridge/pkg/logger"
	"github.com/kirahq/kirabridge/pkg/persona"
	"github.com/kirahq/kirabridge/pkg/schema"
)

// ParamPersona is the per-call params key that overrides the configured
// default persona name for one assembly.
const ParamPersona = "persona"

// PersonaSource contributes the active persona's prompt overlay as a
// context fragment. An unresolvable or unset persona degrades to an empty
// contribution, never an error.
type PersonaSource struct {
	defaultName string
	manager     *persona.Manager
}

func NewPersonaSource(defaultName string, manager *persona.Manager) *PersonaSource {
	return &PersonaSource{defaultName: defaultName, manager: manager}
}

func (s *PersonaSource) SourceName() string {
	return "persona"
}

// Available reports true only while the persona registry is non-empty.
func (s *PersonaSource) Available() bool {
	return s.manager.Count() > 0
}

func (s *PersonaSource) GetContext(_ context.Context, _ string, _ *schema.ChannelContext, _ *schema.Message, params assembler.Params) (string, error) {
	name := s.defaultName
	if override := params[ParamPersona]; override != "" {
		name = override
	}

	if name == "" {
		logger.DebugC("persona_source", "No persona specified, returning empty context")
		return "", nil
	}

	p := s.manager.GetPersona(name)
	if p == nil {
		logger.WarnCF("persona_source", "Persona not found", map[string]interface{}{
			"persona": name,
		})
		return "", nil
	}

	logger.DebugCF("persona_source", "Retrieved persona overlay", map[string]interface{}{
		"persona": p.Name,
	})
	return strings.TrimSpace(p.PromptOverlay), nil
}
