package persona

import (
	"fmt"
	"strings"

	"github.com/kirahq/kirabridge/pkg/logger"
)

// Injector appends persona overlays to base prompts. Injection never fails
// loudly: with nothing to inject the base prompt comes back unchanged.
type Injector struct {
	manager *Manager
}

func NewInjector(manager *Manager) *Injector {
	return &Injector{manager: manager}
}

// InjectOverlay appends the resolved persona's overlay to basePrompt.
// Resolution precedence: an explicit persona object, then name lookup via
// the manager, then neither (identity). An unresolvable name logs a
// warning and returns basePrompt unchanged. The base prompt is never
// mutated or truncated.
func (i *Injector) InjectOverlay(basePrompt, personaName string, p *Persona) string {
	target := p
	if target == nil && personaName != "" {
		target = i.manager.GetPersona(personaName)
		if target == nil {
			logger.WarnCF("persona_injector", "Persona not found, using original prompt", map[string]interface{}{
				"persona": personaName,
			})
			return basePrompt
		}
	}
	if target == nil {
		return basePrompt
	}

	overlay := strings.TrimSpace(target.PromptOverlay)

	logger.DebugCF("persona_injector", "Injected persona", map[string]interface{}{
		"persona": target.Name,
	})

	return fmt.Sprintf("%s\n\n## Persona Configuration\n<persona>\n%s\n</persona>", basePrompt, overlay)
}
