package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultsDocument is the seed file format for per-deployment default layouts.
type DefaultsDocument struct {
	Layouts []DashboardLayout `json:"layouts" yaml:"layouts" toml:"layouts"`
}

// FileDefaults serves default layouts read from seed files. Types without a seed
// fall through to Fallback.
type FileDefaults struct {
	layouts  map[string]DashboardLayout
	Fallback LayoutDefaults
}

// NewFileDefaults indexes layouts by dashboard type. Later layouts replace earlier ones.
func NewFileDefaults(fallback LayoutDefaults, layouts ...DashboardLayout) (*FileDefaults, error) {
	fd := &FileDefaults{layouts: make(map[string]DashboardLayout, len(layouts)), Fallback: fallback}
	for _, layout := range layouts {
		if err := ValidateLayout(layout); err != nil {
			return nil, err
		}
		widgets := make([]WidgetInstance, len(layout.Widgets))
		for i, w := range layout.Widgets {
			props, err := normalizeProps(w.Props)
			if err != nil {
				return nil, fmt.Errorf("dashboard: default layout %s widget %s: %w", layout.DashboardType, w.ID, err)
			}
			if props == nil {
				props = Props{}
			}
			w.Props = props
			widgets[i] = w
		}
		layout.Widgets = widgets
		fd.layouts[layout.DashboardType] = layout
	}
	return fd, nil
}

// LoadDefaultsFiles reads seed files (.yaml, .yml, .json or .toml) in order.
func LoadDefaultsFiles(fallback LayoutDefaults, paths ...string) (*FileDefaults, error) {
	var all []DashboardLayout
	for _, path := range paths {
		f, err := os.Open(path) //nolint:gosec
		if err != nil {
			return nil, fmt.Errorf("dashboard: open defaults %s: %w", path, err)
		}
		layouts, err := DecodeDefaults(f, strings.TrimPrefix(filepath.Ext(path), "."))
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("dashboard: decode defaults %s: %w", path, err)
		}
		all = append(all, layouts...)
	}
	return NewFileDefaults(fallback, all...)
}

// DecodeDefaults parses a seed document in the given format.
func DecodeDefaults(r io.Reader, format string) ([]DashboardLayout, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var doc DefaultsDocument
	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && err != io.EOF {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case "json":
		if err := decodeStrictJSON(data, &doc); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	case "toml":
		// Props are free-form, so strict key checking happens on the JSON
		// re-encoding where only the document fields are typed.
		var raw map[string]any
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
		encoded, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
		if err := decodeStrictJSON(encoded, &doc); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported defaults format %q", format)
	}
	return doc.Layouts, nil
}

func decodeStrictJSON(data []byte, doc *DefaultsDocument) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(doc)
}

// EncodeDefaults writes layouts as a seed document in the given format.
func EncodeDefaults(w io.Writer, format string, layouts []DashboardLayout) error {
	doc := DefaultsDocument{Layouts: layouts}
	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "toml":
		return toml.NewEncoder(w).Encode(doc)
	default:
		return fmt.Errorf("unsupported defaults format %q", format)
	}
}

// DefaultLayout implements LayoutDefaults.
func (fd *FileDefaults) DefaultLayout(dashboardType string) DashboardLayout {
	if layout, ok := fd.layouts[dashboardType]; ok {
		return layout.Clone()
	}
	if fd.Fallback != nil {
		return fd.Fallback.DefaultLayout(dashboardType)
	}
	return DashboardLayout{DashboardType: dashboardType, Widgets: []WidgetInstance{}}
}

// DashboardTypes lists the types that have a seed layout.
func (fd *FileDefaults) DashboardTypes() []string {
	out := make([]string, 0, len(fd.layouts))
	for t := range fd.layouts {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
