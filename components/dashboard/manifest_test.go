package dashboard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeManifest(t *testing.T) {
	const payload = `
version: 1
name: community-pack
widgets:
  - definition:
      code: community.offer-letters
      name: Offer Letters
      description: Offer letters waiting for signature.
      category: recruiting
      default_size:
        w: 5
        h: 3
      default_props:
        title: Pending offers
      schema:
        type: object
        properties:
          title:
            type: string
    component:
      module: "@community/offers"
      export: OfferLetters
      data_source: /api/offers/pending
      permissions: ["offers:read"]
`
	doc, err := DecodeManifest(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, doc.Widgets, 1)

	widget := doc.Widgets[0]
	assert.Equal(t, "community.offer-letters", widget.Definition.Code)
	assert.Equal(t, "Offer Letters", widget.Definition.Name)
	assert.Equal(t, Size{W: 5, H: 3}, widget.Definition.DefaultSize)
	assert.Equal(t, "Pending offers", widget.Definition.DefaultProps["title"])
	assert.Equal(t, "@community/offers", widget.Component.Module)
	assert.Equal(t, []string{"offers:read"}, widget.Component.Permissions)
}

func TestDecodeManifestRejectsUnknownFields(t *testing.T) {
	const payload = `
widgets:
  - definition:
      code: x
      name: X
      colour: red
`
	_, err := DecodeManifest(strings.NewReader(payload))
	require.Error(t, err)
}

func TestRegistryLoadManifestDocument(t *testing.T) {
	doc := &WidgetManifestDocument{
		Version: manifestVersionV1,
		Widgets: []ManifestWidget{
			{
				Definition: WidgetDefinition{
					Code: "acme.training-hours",
					Name: "Training Hours",
				},
				Component: ManifestComponent{
					Module: "@acme/training",
					Export: "TrainingHours",
				},
			},
		},
	}
	reg := NewRegistry()

	err := reg.LoadManifestDocument(doc)
	require.NoError(t, err)

	def, ok := reg.Lookup("acme.training-hours")
	require.True(t, ok)
	assert.Equal(t, "Training Hours", def.Name)
	assert.Equal(t, defaultWidgetSize, def.DefaultSize)
	assert.Equal(t, "acme.training-hours", def.Component)

	meta, ok := reg.ComponentMetadata("acme.training-hours")
	require.True(t, ok)
	assert.Equal(t, "@acme/training", meta.Module)
	assert.Equal(t, "TrainingHours", meta.Export)
}

func TestRegistryLoadManifestRejectsInvalidDefaults(t *testing.T) {
	doc := &WidgetManifestDocument{
		Version: manifestVersionV1,
		Widgets: []ManifestWidget{{
			Definition: WidgetDefinition{
				Code:         "acme.bad",
				Name:         "Bad",
				DefaultProps: Props{"limit": "ten"},
				Schema: map[string]any{
					"type":       "object",
					"properties": map[string]any{"limit": map[string]any{"type": "integer"}},
				},
			},
		}},
	}
	err := NewRegistry().LoadManifestDocument(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acme.bad")
}

func TestManifestDuplicateCodes(t *testing.T) {
	const payload = `
widgets:
  - definition:
      code: dup.widget
      name: First
  - definition:
      code: dup.widget
      name: Second
`
	_, err := DecodeManifest(strings.NewReader(payload))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicates widget code")
}

func TestDocsManifestsAreValid(t *testing.T) {
	dir := filepath.Join("..", "..", "docs", "manifests")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	codes := map[string]string{}
	for _, def := range DefaultWidgetDefinitions() {
		codes[def.Code] = "built-in catalogue"
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		reg := NewRegistry()
		doc, err := reg.LoadManifestFile(path)
		require.NoErrorf(t, err, "manifest %s should load", path)
		for _, widget := range doc.Widgets {
			if prev, exists := codes[widget.Definition.Code]; exists {
				t.Fatalf("widget code %s defined in both %s and %s", widget.Definition.Code, prev, path)
			}
			codes[widget.Definition.Code] = path
		}
	}
}

func TestRegistryLoadManifestRejectsRedefinition(t *testing.T) {
	doc := &WidgetManifestDocument{
		Version: manifestVersionV1,
		Source:  "clash.yaml",
		Widgets: []ManifestWidget{
			{Definition: WidgetDefinition{Code: "acme.fresh", Name: "Fresh"}},
			{Definition: WidgetDefinition{Code: "open-jobs", Name: "Clash"}},
		},
	}
	reg := NewRegistry()
	err := reg.LoadManifestDocument(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redefines widget open-jobs")

	_, ok := reg.Lookup("acme.fresh")
	assert.False(t, ok, "a rejected manifest registers nothing")
	def, _ := reg.Lookup("open-jobs")
	assert.NotEqual(t, "Clash", def.Name)
}

func TestManifestCategoriesLabelCatalog(t *testing.T) {
	const payload = `
version: 1
categories:
  learning:
    default: Learning
    ES_mx: Capacitación
widgets:
  - definition:
      code: acme.training-hours
      name: Training Hours
      category: learning
`
	doc, err := DecodeManifest(strings.NewReader(payload))
	require.NoError(t, err)
	reg := NewRegistry()
	require.NoError(t, reg.LoadManifestDocument(doc))

	assert.Equal(t, "Capacitación", reg.CategoryLabel("learning", Locales{"es-mx"}))
	assert.Equal(t, "Learning", reg.CategoryLabel("learning", Locales{"es-ar"}))
	assert.Equal(t, "Reclutamiento", reg.CategoryLabel("recruiting", ParseLocales("es-AR, en")))
	assert.Equal(t, "unlabelled", reg.CategoryLabel("unlabelled", Locales{"es"}))
}
