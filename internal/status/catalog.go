// Package status owns the workflow subsystem: the template catalog and
// the repository operations over a project's custom status list.
package status

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/albertomtferreira/devflow/internal/apperrors"
	"github.com/albertomtferreira/devflow/internal/models"
)

// builtinTemplates is the immutable seed catalog. "simple" is the
// implicit template for projects created without one.
var builtinTemplates = []models.StatusTemplate{
	{
		ID:          "simple",
		Name:        "Simple",
		Description: "A minimal three-step workflow for most projects",
		Statuses: []models.TemplateStatus{
			{Label: "To Do", Color: "gray", IsDefault: true},
			{Label: "In Progress", Color: "yellow"},
			{Label: "Done", Color: "green"},
		},
	},
	{
		ID:          "kanban",
		Name:        "Kanban",
		Description: "A board-style workflow with a review stage",
		Statuses: []models.TemplateStatus{
			{Label: "Backlog", Color: "gray", IsDefault: true},
			{Label: "To Do", Color: "blue"},
			{Label: "In Progress", Color: "yellow"},
			{Label: "Review", Color: "purple"},
			{Label: "Done", Color: "green"},
		},
	},
	{
		ID:          "launch",
		Name:        "Launch",
		Description: "Deployment-oriented statuses for live projects",
		Statuses: []models.TemplateStatus{
			{Label: "Planning", Color: "indigo", IsDefault: true},
			{Label: "In Progress", Color: "yellow"},
			{Label: "Online", Color: "green"},
			{Label: "Offline", Color: "gray"},
			{Label: "Crashed", Color: "red"},
		},
	},
}

// Catalog is the status template registry: the built-in templates plus
// any loaded template packs. Lookup and Templates are read-only;
// LoadPack is the only mutation and is typically called once at boot.
type Catalog struct {
	mu        sync.RWMutex
	templates map[string]models.StatusTemplate
}

// NewCatalog creates a catalog seeded with the built-in templates.
func NewCatalog() *Catalog {
	c := &Catalog{templates: make(map[string]models.StatusTemplate, len(builtinTemplates))}
	for _, t := range builtinTemplates {
		c.templates[t.ID] = t
	}
	return c
}

// Lookup returns the template with the given id, or nil.
func (c *Catalog) Lookup(templateID string) *models.StatusTemplate {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.templates[templateID]
	if !ok {
		return nil
	}
	out := t
	out.Statuses = append([]models.TemplateStatus(nil), t.Statuses...)
	return &out
}

// Templates returns all templates sorted by id.
func (c *Catalog) Templates() []models.StatusTemplate {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.StatusTemplate, 0, len(c.templates))
	for _, t := range c.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Instantiate copies the template's status definitions into a fresh
// status list: each entry gets a new unique id, its positional order
// and the current timestamp. Returns apperrors.ErrNotFound for an
// unknown template id.
func (c *Catalog) Instantiate(templateID string) ([]models.ProjectStatus, error) {
	t := c.Lookup(templateID)
	if t == nil {
		return nil, fmt.Errorf("status template %q: %w", templateID, apperrors.ErrNotFound)
	}

	now := time.Now().UTC()
	statuses := make([]models.ProjectStatus, len(t.Statuses))
	for i, def := range t.Statuses {
		statuses[i] = models.ProjectStatus{
			ID:          uuid.NewString(),
			Label:       def.Label,
			Color:       def.Color,
			Description: def.Description,
			Order:       i,
			IsDefault:   def.IsDefault,
			CreatedAt:   now,
		}
	}
	return statuses, nil
}

// templatePack is the on-disk shape of a YAML template pack.
type templatePack struct {
	Templates []models.StatusTemplate `yaml:"templates"`
}

// LoadPack merges templates from a YAML pack file into the catalog.
// Built-in template ids cannot be overridden; every pack template must
// carry at least one status, exactly one default and only palette
// colors.
func (c *Catalog) LoadPack(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read template pack: %w", err)
	}
	var pack templatePack
	if err := yaml.Unmarshal(raw, &pack); err != nil {
		return fmt.Errorf("parse template pack %s: %w", path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range pack.Templates {
		if err := validateTemplate(t); err != nil {
			return fmt.Errorf("template pack %s: %w", path, err)
		}
		if isBuiltin(t.ID) {
			return fmt.Errorf("template pack %s: %q overrides a built-in template", path, t.ID)
		}
		c.templates[t.ID] = t
	}
	return nil
}

func isBuiltin(id string) bool {
	for _, t := range builtinTemplates {
		if t.ID == id {
			return true
		}
	}
	return false
}

func validateTemplate(t models.StatusTemplate) error {
	if t.ID == "" {
		return fmt.Errorf("template with empty id")
	}
	if len(t.Statuses) == 0 {
		return fmt.Errorf("template %q has no statuses", t.ID)
	}
	defaults := 0
	for _, s := range t.Statuses {
		if s.Label == "" {
			return fmt.Errorf("template %q has a status with no label", t.ID)
		}
		if !models.IsValidColor(s.Color) {
			return fmt.Errorf("template %q: unknown color %q", t.ID, s.Color)
		}
		if s.IsDefault {
			defaults++
		}
	}
	if defaults != 1 {
		return fmt.Errorf("template %q must have exactly one default status, has %d", t.ID, defaults)
	}
	return nil
}
