// Package roster loads reusable combatant templates from YAML and spawns
// combatants from them.
package roster

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/duel/internal/game/combat"
)

// Template defines a reusable combatant archetype loaded from YAML.
type Template struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	MaxHealth   int    `yaml:"max_health"`
	AttackPower int    `yaml:"attack_power"`
	Defense     int    `yaml:"defense"`
}

// Validate checks that the template satisfies basic invariants.
//
// Postcondition: Returns nil iff ID and Name are non-empty, MaxHealth >= 1,
// and AttackPower and Defense are >= 0.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("roster template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("roster template %q: name must not be empty", t.ID)
	}
	if t.MaxHealth < 1 {
		return fmt.Errorf("roster template %q: max_health must be >= 1", t.ID)
	}
	if t.AttackPower < 0 {
		return fmt.Errorf("roster template %q: attack_power must be >= 0", t.ID)
	}
	if t.Defense < 0 {
		return fmt.Errorf("roster template %q: defense must be >= 0", t.ID)
	}
	return nil
}

// Spawn creates a full-health combatant from the template with a fresh
// instance ID of the form "<template id>-<uuid>".
func (t *Template) Spawn() *combat.Combatant {
	return t.SpawnWithID(t.ID + "-" + uuid.NewString())
}

// SpawnWithID creates a full-health combatant from the template with the given ID.
//
// Precondition: id must be non-empty.
func (t *Template) SpawnWithID(id string) *combat.Combatant {
	return &combat.Combatant{
		ID:          id,
		Name:        t.Name,
		Health:      t.MaxHealth,
		MaxHealth:   t.MaxHealth,
		AttackPower: t.AttackPower,
		Defense:     t.Defense,
	}
}

// LoadTemplateFromBytes parses a single template from raw YAML bytes.
//
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates
// sorted by ID.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or
// validate failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading roster dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })
	return templates, nil
}

// Roster indexes templates by ID.
type Roster struct {
	byID map[string]*Template
}

// New indexes templates.
//
// Postcondition: Returns an error if two templates share an ID.
func New(templates []*Template) (*Roster, error) {
	r := &Roster{byID: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		if _, dup := r.byID[t.ID]; dup {
			return nil, fmt.Errorf("roster: duplicate template id %q", t.ID)
		}
		r.byID[t.ID] = t
	}
	return r, nil
}

// Get returns the template with id.
func (r *Roster) Get(id string) (*Template, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// IDs returns every template ID in sorted order.
func (r *Roster) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
