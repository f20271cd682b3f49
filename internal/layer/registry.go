package layer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Class is a layer kind: the factory plus its UI schema. Built-in kinds are
// registered by NewRegistry; plugin kinds are discovered at runtime.
// Grounded on app/plugin/registry.go's PluginInfo + validate/resolve split.
type Class interface {
	TypeID() string
	Category() Category
	Schema() Schema
	// New constructs a Layer instance bound from config through the
	// class's schema defaults (configReader), never reflection (Design Note).
	New(id string, config map[string]any) (Layer, error)
}

// manifest mirrors the plugin manifest shape from app/plugin/manifest.go,
// generalized from file-extension plugins to layer-type plugins: a plugin
// directory entry declares the category it extends and the type id it
// registers under.
type manifest struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"` // "processing" or "rendering"
}

func (m manifest) validate() error {
	if m.ID == "" {
		return fmt.Errorf("plugin manifest missing id")
	}
	if m.Name == "" {
		return fmt.Errorf("plugin manifest missing name")
	}
	switch m.Category {
	case "processing", "rendering":
	default:
		return fmt.Errorf("plugin manifest %q: category must be \"processing\" or \"rendering\", got %q", m.ID, m.Category)
	}
	return nil
}

// Registry holds layer classes keyed by type id (app/plugin/registry.go's
// extension-keyed map, generalized to type-id-keyed).
type Registry struct {
	mu      sync.RWMutex
	classes map[string]Class
}

// NewRegistry returns a Registry pre-populated with the built-in layer
// kinds.
func NewRegistry() *Registry {
	r := &Registry{classes: make(map[string]Class)}
	for _, c := range builtinClasses() {
		r.classes[c.TypeID()] = c
	}
	return r
}

// Register adds or replaces a class under its own TypeID.
func (r *Registry) Register(c Class) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[c.TypeID()] = c
}

// CreateInstance constructs a Layer from a type id and config map.
func (r *Registry) CreateInstance(id, typeID string, config map[string]any) (Layer, error) {
	r.mu.RLock()
	c, ok := r.classes[typeID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown layer type %q", typeID)
	}
	return c.New(id, config)
}

// SchemaFor returns the UI schema for a registered type id.
func (r *Registry) SchemaFor(typeID string) (Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[typeID]
	if !ok {
		return nil, false
	}
	return c.Schema(), true
}

// TypeIDs lists every currently registered type id, for get_layer_registry.
func (r *Registry) TypeIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.classes))
	for id := range r.classes {
		out = append(out, id)
	}
	return out
}

// LoadPlugins scans dir for non-underscore-prefixed manifest files
// ("*.plugin.yml") and registers each as a pass-through class whose New
// returns an error (the registry contract only, not a plugin execution
// surface — spec.md §1 excludes "plugin-authoring surface beyond the
// registry contract"). Grounded on app/fileloader/directory.go's
// doublestar.Glob directory-scan idiom and app/plugin/registry.go's
// skip-if-hidden rule.
func (r *Registry) LoadPlugins(dir string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), "**/*.plugin.yml")
	if err != nil {
		return nil, fmt.Errorf("scan plugin dir %s: %w", dir, err)
	}

	var loaded []string
	for _, rel := range matches {
		if strings.HasPrefix(filepath.Base(rel), "_") {
			continue
		}
		full := filepath.Join(dir, rel)
		data, err := os.ReadFile(full)
		if err != nil {
			return loaded, fmt.Errorf("read plugin manifest %s: %w", full, err)
		}
		var m manifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			return loaded, fmt.Errorf("parse plugin manifest %s: %w", full, err)
		}
		if err := m.validate(); err != nil {
			return loaded, fmt.Errorf("invalid plugin manifest %s: %w", full, err)
		}

		category := Processing
		if m.Category == "rendering" {
			category = Rendering
		}
		r.Register(&pluginClass{typeID: m.ID, category: category, manifestPath: full})
		loaded = append(loaded, m.ID)
	}
	return loaded, nil
}

// pluginClass is the registry-contract stand-in for a discovered plugin:
// its presence is reported via get_layer_registry, but instantiation is left
// to the plugin-authoring surface explicitly excluded from this module's
// scope (spec.md §1).
type pluginClass struct {
	typeID       string
	category     Category
	manifestPath string
}

func (p *pluginClass) TypeID() string    { return p.typeID }
func (p *pluginClass) Category() Category { return p.category }
func (p *pluginClass) Schema() Schema    { return nil }
func (p *pluginClass) New(id string, config map[string]any) (Layer, error) {
	return nil, fmt.Errorf("layer type %q is a discovered plugin (%s); instantiation is outside the registry contract", p.typeID, p.manifestPath)
}

func builtinClasses() []Class {
	return []Class{
		&SubstringFilterClass{},
		&LevelFilterClass{},
		&RangeClass{},
		&TimeRangeClass{},
		&SubstringTransformClass{},
		&HighlightClass{},
		&RowTintClass{},
		&BookmarkClass{},
		&JSONFieldClass{},
	}
}
