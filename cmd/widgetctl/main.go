package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-dashboard-editor/components/dashboard"
)

type cli struct {
	Scaffold scaffoldCmd `cmd:"" help:"Add a widget type to a manifest and optionally generate its typed props struct."`
	Check    checkCmd    `cmd:"" help:"Validate manifests against the built-in catalogue."`
}

type scaffoldCmd struct {
	Code         string            `required:"" help:"Widget type in kebab-case, optionally namespaced (e.g. acme.interview-schedule)."`
	Name         string            `required:"" help:"Display name for the widget."`
	Description  string            `help:"One-line description used in the catalogue."`
	Category     string            `default:"custom" help:"Widget category (metrics, charts, lists, ...)."`
	ManifestPath string            `required:"" type:"path" help:"Path to the widget manifest YAML file to update."`
	SchemaPath   string            `type:"path" help:"Optional path to a JSON schema file for the widget props."`
	Width        int               `default:"4" help:"Default width in grid columns."`
	Height       int               `default:"2" help:"Default height in grid rows."`
	Prop         map[string]string `help:"Default prop values (use multiple --prop key=value flags)."`
	Locale       map[string]string `help:"Localized names (use multiple --locale es=Nombre flags)."`
	Component    string            `help:"Front-end component key (defaults to <Code>Widget)."`
	Module       string            `help:"Front-end module that exports the component."`
	DataSource   string            `help:"Endpoint the front-end fetches widget data from."`
	Permission   []string          `help:"Permissions required to view the widget."`
	Tag          []string          `help:"Optional tags to include in the manifest (use multiple --tag flags)."`
	Maintainer   []string          `help:"Maintainers to record in the manifest."`
	PropsOut     string            `type:"path" help:"Write a Go props struct for the schema to this file."`
	PropsPackage string            `default:"widgets" help:"Package name for the generated props struct."`
	Overwrite    bool              `help:"Replace an existing manifest entry / props file if present."`
}

type checkCmd struct {
	Paths []string `arg:"" type:"existingfile" help:"Manifest files to validate."`
}

func main() {
	ctx := kong.Parse(&cli{},
		kong.Description("Widget scaffolding utility for dashboard editor manifests."),
		kong.UsageOnError(),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
		kong.BindTo(os.Stdout, (*io.Writer)(nil)),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

func (cmd *scaffoldCmd) Run(_ context.Context, out io.Writer) error {
	if err := cmd.validate(); err != nil {
		return err
	}
	manifestPath, err := filepath.Abs(cmd.ManifestPath)
	if err != nil {
		return fmt.Errorf("widgetctl: resolve manifest path: %w", err)
	}
	doc, err := loadOrInitManifest(manifestPath)
	if err != nil {
		return err
	}
	if !cmd.Overwrite {
		for _, widget := range doc.Widgets {
			if widget.Definition.Code == cmd.Code {
				return fmt.Errorf("widgetctl: manifest already defines widget %s (use --overwrite to replace)", cmd.Code)
			}
		}
	}

	schema, err := cmd.loadSchema()
	if err != nil {
		return err
	}
	props, err := cmd.defaultProps(schema)
	if err != nil {
		return err
	}

	baseName := deriveBaseName(cmd.Code)
	component := cmd.Component
	if component == "" {
		component = baseName + "Widget"
	}
	entry := dashboard.ManifestWidget{
		Definition: dashboard.WidgetDefinition{
			Code:          cmd.Code,
			Name:          cmd.Name,
			NameLocalized: cmd.Locale,
			Description:   cmd.Description,
			Category:      cmd.Category,
			Component:     component,
			DefaultSize:   dashboard.Size{W: cmd.Width, H: cmd.Height},
			DefaultProps:  props,
			Schema:        schema,
		},
		Component: dashboard.ManifestComponent{
			Module:      cmd.Module,
			Export:      component,
			DataSource:  cmd.DataSource,
			Permissions: cmd.Permission,
		},
		Maintainers: cmd.Maintainer,
		Tags:        cmd.Tag,
	}
	// Registering against an empty registry runs the same checks the service applies at startup.
	if err := dashboard.NewEmptyRegistry().RegisterDefinition(entry.Definition); err != nil {
		return fmt.Errorf("widgetctl: %w", err)
	}

	if cmd.Overwrite {
		replaced := false
		for idx := range doc.Widgets {
			if doc.Widgets[idx].Definition.Code == cmd.Code {
				doc.Widgets[idx] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			doc.Widgets = append(doc.Widgets, entry)
		}
	} else {
		doc.Widgets = append(doc.Widgets, entry)
	}

	sort.Slice(doc.Widgets, func(i, j int) bool {
		return doc.Widgets[i].Definition.Code < doc.Widgets[j].Definition.Code
	})

	if err := writeManifest(manifestPath, doc); err != nil {
		return err
	}

	if cmd.PropsOut == "" {
		fmt.Fprintf(out, "✓ Added %s to %s\n", cmd.Code, manifestPath)
		return nil
	}
	if err := writePropsStruct(cmd.PropsOut, cmd.PropsPackage, baseName+"Props", schema, cmd.Overwrite); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Added %s to %s and generated %s\n", cmd.Code, manifestPath, cmd.PropsOut)
	return nil
}

func (cmd *scaffoldCmd) validate() error {
	for _, segment := range strings.Split(cmd.Code, ".") {
		if segment == "" || strcase.ToKebab(segment) != segment {
			return fmt.Errorf("widgetctl: widget code %s must be kebab-case segments separated by dots", cmd.Code)
		}
	}
	if cmd.Width < 1 || cmd.Height < 1 {
		return fmt.Errorf("widgetctl: default size %dx%d must be at least 1x1", cmd.Width, cmd.Height)
	}
	return nil
}

func (cmd *scaffoldCmd) loadSchema() (map[string]any, error) {
	if cmd.SchemaPath == "" {
		properties := map[string]any{}
		for key := range cmd.Prop {
			properties[key] = map[string]any{"type": "string"}
		}
		return map[string]any{
			"type":       "object",
			"properties": properties,
		}, nil
	}
	data, err := os.ReadFile(cmd.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("widgetctl: read schema file: %w", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("widgetctl: parse schema JSON: %w", err)
	}
	return schema, nil
}

// defaultProps converts --prop values to the JSON type the schema declares for each key.
func (cmd *scaffoldCmd) defaultProps(schema map[string]any) (dashboard.Props, error) {
	if len(cmd.Prop) == 0 {
		return nil, nil
	}
	properties, _ := schema["properties"].(map[string]any)
	props := make(dashboard.Props, len(cmd.Prop))
	for key, raw := range cmd.Prop {
		prop, _ := properties[key].(map[string]any)
		typ, _ := prop["type"].(string)
		switch typ {
		case "", "string":
			props[key] = raw
		default:
			var v any
			if err := json.Unmarshal([]byte(raw), &v); err != nil {
				return nil, fmt.Errorf("widgetctl: prop %s=%q is not a valid %s: %w", key, raw, typ, err)
			}
			props[key] = v
		}
	}
	return props, nil
}

func (cmd *checkCmd) Run(_ context.Context, out io.Writer) error {
	registry := dashboard.NewRegistry()
	var errs error
	for _, path := range cmd.Paths {
		doc, err := registry.LoadManifestFile(path)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		fmt.Fprintf(out, "✓ %s: %d widgets\n", path, len(doc.Widgets))
	}
	return errs
}

func loadOrInitManifest(path string) (*dashboard.WidgetManifestDocument, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			doc := &dashboard.WidgetManifestDocument{
				Version: dashboard.ManifestVersion,
				Widgets: []dashboard.ManifestWidget{},
				Source:  path,
			}
			return doc, nil
		}
		return nil, fmt.Errorf("widgetctl: stat manifest: %w", err)
	}
	doc, err := dashboard.ReadManifest(path)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func writeManifest(path string, doc *dashboard.WidgetManifestDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("widgetctl: mkdir %s: %w", filepath.Dir(path), err)
	}
	tmpDoc := *doc
	tmpDoc.Source = ""

	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("widgetctl: create manifest %s: %w", path, err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	defer encoder.Close()
	if err := encoder.Encode(tmpDoc); err != nil {
		return fmt.Errorf("widgetctl: write manifest: %w", err)
	}
	return nil
}

func writePropsStruct(path, pkg, typeName string, schema map[string]any, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("widgetctl: props file %s already exists (use --overwrite or --props-out)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("widgetctl: mkdir props dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(renderPropsStruct(pkg, typeName, schema)), 0o644); err != nil {
		return fmt.Errorf("widgetctl: write props file: %w", err)
	}
	return nil
}

func renderPropsStruct(pkg, typeName string, schema map[string]any) string {
	properties, _ := schema["properties"].(map[string]any)
	keys := make([]string, 0, len(properties))
	for key := range properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	type field struct{ name, typ, tag string }
	fields := make([]field, 0, len(keys))
	nameWidth, typeWidth := 0, 0
	for _, key := range keys {
		prop, _ := properties[key].(map[string]any)
		f := field{
			name: strcase.ToGoPascal(key),
			typ:  goType(prop),
			tag:  fmt.Sprintf("`json:\"%s,omitempty\"`", key),
		}
		nameWidth = max(nameWidth, len(f.name))
		typeWidth = max(typeWidth, len(f.typ))
		fields = append(fields, f)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "package %s\n\n", pkg)
	fmt.Fprintf(&b, "// %s holds the props of the widget. Decode with dashboard.DecodeProps.\n", typeName)
	fmt.Fprintf(&b, "type %s struct {\n", typeName)
	for _, f := range fields {
		fmt.Fprintf(&b, "\t%-*s %-*s %s\n", nameWidth, f.name, typeWidth, f.typ, f.tag)
	}
	b.WriteString("}\n")
	return b.String()
}

func goType(prop map[string]any) string {
	typ, _ := prop["type"].(string)
	switch typ {
	case "string":
		return "string"
	case "integer":
		return "int"
	case "number":
		return "float64"
	case "boolean":
		return "bool"
	case "array":
		items, _ := prop["items"].(map[string]any)
		return "[]" + goType(items)
	case "object":
		return "map[string]any"
	default:
		return "any"
	}
}

func deriveBaseName(code string) string {
	parts := strings.Split(code, ".")
	slug := strings.TrimSpace(parts[len(parts)-1])
	if slug == "" {
		slug = code
	}
	return strcase.ToGoPascal(slug)
}
