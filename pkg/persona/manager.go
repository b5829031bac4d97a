package persona

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kirahq/kirabridge/pkg/logger"
)

// Manager owns the in-memory persona registry. Definitions live one per
// file in a directory, as .yaml, .yml or .json; the name field inside the
// file is authoritative, the filename is not. Files are loaded in
// lexicographic filename order, so on a duplicate name the later file
// deterministically wins.
//
// Reload replaces the whole registry under a write lock; concurrent
// readers observe either the old or the new set in full.
type Manager struct {
	dir string

	mu       sync.RWMutex
	personas map[string]*Persona
}

// NewManager loads all persona definitions from dir. A missing directory
// is not an error; the manager just starts empty.
func NewManager(dir string) *Manager {
	m := &Manager{dir: dir, personas: make(map[string]*Persona)}
	m.Reload()
	return m
}

// GetPersona returns a copy of the named persona, or nil if unknown.
func (m *Manager) GetPersona(name string) *Persona {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.personas[name]
	if !ok {
		return nil
	}
	return p.clone()
}

// ListPersonas returns the sorted names of all loaded personas.
func (m *Manager) ListPersonas() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.personas))
	for name := range m.personas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of loaded personas.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.personas)
}

// Reload rescans the directory from scratch and atomically swaps in the
// new registry. Not incremental: personas whose files disappeared are
// dropped.
func (m *Manager) Reload() {
	loaded := m.scan()

	m.mu.Lock()
	m.personas = loaded
	m.mu.Unlock()

	logger.InfoCF("persona_manager", "Loaded personas", map[string]interface{}{
		"count": len(loaded),
		"dir":   m.dir,
	})
}

func (m *Manager) scan() map[string]*Persona {
	loaded := make(map[string]*Persona)

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.WarnCF("persona_manager", "Cannot read personas directory", map[string]interface{}{
				"dir":   m.dir,
				"error": err.Error(),
			})
		} else {
			logger.WarnCF("persona_manager", "Personas directory not found", map[string]interface{}{
				"dir": m.dir,
			})
		}
		return loaded
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			names = append(names, e.Name())
		}
	}
	// Lexicographic order makes duplicate-name resolution deterministic.
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(m.dir, name)
		p, err := loadPersonaFile(path)
		if err != nil {
			logger.ErrorCF("persona_manager", "Error loading persona file", map[string]interface{}{
				"file":  name,
				"error": err.Error(),
			})
			continue
		}
		loaded[p.Name] = p
		logger.DebugCF("persona_manager", "Loaded persona", map[string]interface{}{
			"name": p.Name,
			"file": name,
		})
	}

	return loaded
}

func loadPersonaFile(path string) (*Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p Persona
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported persona file format: %s", filepath.Ext(path))
	}

	if err := p.validate(filepath.Base(path)); err != nil {
		return nil, err
	}
	return &p, nil
}
