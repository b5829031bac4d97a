// Package persona loads persona definitions from configuration files and
// applies their prompt overlays to base instructions.
package persona

import "fmt"

// Persona is one loaded persona definition. Instances are immutable after
// load; the manager hands out copies so callers can never mutate the
// registry's view.
type Persona struct {
	Name               string   `json:"name" yaml:"name"`
	DisplayName        string   `json:"display_name" yaml:"display_name"`
	CommunicationStyle string   `json:"communication_style" yaml:"communication_style"`
	Tone               string   `json:"tone" yaml:"tone"`
	PromptOverlay      string   `json:"prompt_overlay" yaml:"prompt_overlay"`
	Traits             []string `json:"traits,omitempty" yaml:"traits,omitempty"`
	Description        string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags               []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// requiredFields in validation order.
var requiredFields = []string{"name", "display_name", "communication_style", "tone", "prompt_overlay"}

// ValidationError reports a persona definition file missing a required
// key. The manager skips the offending file and keeps loading others.
type ValidationError struct {
	File  string
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("persona file %s: missing required field: %s", e.File, e.Field)
}

func (p *Persona) validate(file string) error {
	values := map[string]string{
		"name":                p.Name,
		"display_name":        p.DisplayName,
		"communication_style": p.CommunicationStyle,
		"tone":                p.Tone,
		"prompt_overlay":      p.PromptOverlay,
	}
	for _, field := range requiredFields {
		if values[field] == "" {
			return &ValidationError{File: file, Field: field}
		}
	}
	return nil
}

func (p *Persona) clone() *Persona {
	cp := *p
	if p.Traits != nil {
		cp.Traits = append([]string(nil), p.Traits...)
	}
	if p.Tags != nil {
		cp.Tags = append([]string(nil), p.Tags...)
	}
	return &cp
}
