package dashboard

import (
	"fmt"
	"sort"
	"sync"
)

// WidgetHook lets packages register widgets during init().
type WidgetHook func(reg *Registry) error

var (
	globalHookMu sync.Mutex
	globalHooks  []WidgetHook
)

// RegisterWidgetHook registers a hook executed against new registries.
func RegisterWidgetHook(h WidgetHook) {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	globalHooks = append(globalHooks, h)
}

var defaultWidgetSize = Size{W: 4, H: 2}

// WidgetDefinition describes a widget type: how it renders, its default span and props.
type WidgetDefinition struct {
	Code                 string            `json:"code" yaml:"code"`
	Name                 string            `json:"name" yaml:"name"`
	NameLocalized        map[string]string `json:"name_localized,omitempty" yaml:"name_localized,omitempty"`
	Description          string            `json:"description,omitempty" yaml:"description,omitempty"`
	DescriptionLocalized map[string]string `json:"description_localized,omitempty" yaml:"description_localized,omitempty"`
	Category             string            `json:"category,omitempty" yaml:"category,omitempty"`
	Component            string            `json:"component,omitempty" yaml:"component,omitempty"`
	DefaultSize          Size              `json:"default_size" yaml:"default_size"`
	DefaultProps         Props             `json:"default_props,omitempty" yaml:"default_props,omitempty"`
	Schema               map[string]any    `json:"schema,omitempty" yaml:"schema,omitempty"`
}

func (def WidgetDefinition) clone() WidgetDefinition {
	def.NameLocalized = cloneStringMap(def.NameLocalized)
	def.DescriptionLocalized = cloneStringMap(def.DescriptionLocalized)
	def.DefaultProps = def.DefaultProps.Clone()
	if def.Schema != nil {
		def.Schema = cloneValue(def.Schema).(map[string]any)
	}
	return def
}

func cloneStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Registry is the widget catalogue. It is read-mostly: definitions are registered at
// startup (defaults, hooks, manifests) and looked up by widget type afterwards.
type Registry struct {
	mu           sync.RWMutex
	definitions  map[string]WidgetDefinition
	categories   map[string]map[string]string
	manifestMeta map[string]ManifestComponent
	validator    PropsValidator
}

// NewRegistry builds a registry with the built-in catalogue and applies global hooks.
func NewRegistry() *Registry {
	reg := NewEmptyRegistry()
	reg.registerDefaults()
	_ = reg.ApplyHooks()
	return reg
}

// NewEmptyRegistry builds a registry without built-in widgets or hooks.
func NewEmptyRegistry() *Registry {
	return &Registry{
		definitions:  map[string]WidgetDefinition{},
		categories:   map[string]map[string]string{},
		manifestMeta: map[string]ManifestComponent{},
		validator:    NewJSONSchemaValidator(),
	}
}

func (r *Registry) registerDefaults() {
	for _, def := range DefaultWidgetDefinitions() {
		_ = r.RegisterDefinition(def)
	}
	for category, labels := range DefaultCategoryLabels() {
		r.RegisterCategory(category, labels)
	}
}

// RegisterCategory sets the display labels of a category, keyed by locale with an
// optional "default" entry. Later calls merge over earlier ones.
func (r *Registry) RegisterCategory(category string, labels map[string]string) {
	labels = normalizeLocaleMap(labels)
	if category == "" || len(labels) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	merged := cloneStringMap(r.categories[category])
	if merged == nil {
		merged = make(map[string]string, len(labels))
	}
	for locale, label := range labels {
		merged[locale] = label
	}
	r.categories[category] = merged
}

// CategoryLabel returns the display label of a category for the viewer's locales.
// Categories without labels display their code.
func (r *Registry) CategoryLabel(category string, locales Locales) string {
	r.mu.RLock()
	labels := r.categories[category]
	r.mu.RUnlock()
	return locales.Pick(labels, category)
}

func (r *Registry) categoryLabels() map[string]map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]map[string]string, len(r.categories))
	for category, labels := range r.categories {
		out[category] = cloneStringMap(labels)
	}
	return out
}

// ApplyHooks executes registered widget hooks.
func (r *Registry) ApplyHooks() error {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	for _, hook := range globalHooks {
		if err := hook(r); err != nil {
			return err
		}
	}
	return nil
}

// RegisterDefinition stores widget metadata. Default props must satisfy the schema.
func (r *Registry) RegisterDefinition(def WidgetDefinition) error {
	if def.Code == "" {
		return fmt.Errorf("widget definition code is required")
	}
	if def.DefaultSize.W < 0 || def.DefaultSize.H < 0 {
		return fmt.Errorf("widget definition %s has negative default size", def.Code)
	}
	if def.DefaultSize.W == 0 {
		def.DefaultSize.W = defaultWidgetSize.W
	}
	if def.DefaultSize.H == 0 {
		def.DefaultSize.H = defaultWidgetSize.H
	}
	if def.Component == "" {
		def.Component = def.Code
	}
	def.normalizeLocalizedFields()
	if def.DefaultProps != nil {
		props, err := normalizeProps(def.DefaultProps)
		if err != nil {
			return fmt.Errorf("widget definition %s: %w", def.Code, err)
		}
		def.DefaultProps = props
	}
	if err := r.validator.Validate(def, def.DefaultProps); err != nil {
		return fmt.Errorf("widget definition %s default props: %w", def.Code, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.definitions[def.Code] = def.clone()
	return nil
}

// Lookup fetches a widget definition by type. Unknown types return false.
func (r *Registry) Lookup(widgetType string) (WidgetDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[widgetType]
	if !ok {
		return WidgetDefinition{}, false
	}
	return def.clone(), true
}

// ComponentMetadata returns any manifest metadata registered for a widget.
func (r *Registry) ComponentMetadata(code string) (ManifestComponent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.manifestMeta[code]
	return meta, ok
}

// Definitions returns all registered definitions ordered by category then code.
func (r *Registry) Definitions() []WidgetDefinition {
	r.mu.RLock()
	defs := make([]WidgetDefinition, 0, len(r.definitions))
	for _, def := range r.definitions {
		defs = append(defs, def.clone())
	}
	r.mu.RUnlock()
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].Category != defs[j].Category {
			return defs[i].Category < defs[j].Category
		}
		return defs[i].Code < defs[j].Code
	})
	return defs
}

// Categories lists the distinct categories in sorted order.
func (r *Registry) Categories() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, def := range r.Definitions() {
		if _, ok := seen[def.Category]; ok {
			continue
		}
		seen[def.Category] = struct{}{}
		out = append(out, def.Category)
	}
	return out
}

func (r *Registry) recordComponentMetadata(code string, meta ManifestComponent) {
	if meta.isZero() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifestMeta[code] = meta
}
