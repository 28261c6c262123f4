package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLocales(t *testing.T) {
	cases := []struct {
		header string
		want   Locales
	}{
		{"", Locales{}},
		{"es-MX", Locales{"es-mx"}},
		{"es_MX, en", Locales{"es-mx", "en"}},
		{"en;q=0.5, es-ES;q=0.9", Locales{"es-es", "en"}},
		{"es-ES;q=0.9, en", Locales{"en", "es-es"}},
		{"fr;q=0, *;q=0.1, de", Locales{"de"}},
		{" , en, EN;q=0.3", Locales{"en"}},
		{"pt-BR;Q=0.7;level=1, it;q=abc", Locales{"it", "pt-br"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseLocales(tc.header), tc.header)
	}
}

func TestLocalesPickFallsBackThroughBaseLanguage(t *testing.T) {
	values := normalizeLocaleMap(map[string]string{
		"en":      "Jobs",
		"es":      "Vacantes",
		"ES-MX":   "Puestos",
		"default": "Openings",
	})
	assert.Equal(t, "Puestos", Locales{"es-mx"}.Pick(values, "x"))
	assert.Equal(t, "Vacantes", Locales{"es-ar", "en"}.Pick(values, "x"), "base language wins over the next preference")
	assert.Equal(t, "Jobs", Locales{"fr", "en-gb"}.Pick(values, "x"))
	assert.Equal(t, "Openings", Locales{"de"}.Pick(values, "x"))
	assert.Equal(t, "x", Locales{"es"}.Pick(nil, "x"))
	assert.Equal(t, "Openings", Locales(nil).Pick(values, "x"))
}

func TestWidgetDefinitionNameForLocale(t *testing.T) {
	reg := NewRegistry()
	def, ok := reg.Lookup("quick-actions")
	if !ok {
		t.Fatalf("expected quick-actions to be registered")
	}
	if got := def.NameForLocale("ES-MX"); got != "Acciones rápidas" {
		t.Fatalf("expected spanish display name, got %q", got)
	}
	if got := def.NameForLocale("de"); got != "Quick Actions" {
		t.Fatalf("expected default display name, got %q", got)
	}
}

func TestLocalizeCatalogResolvesEveryEntry(t *testing.T) {
	defs := []WidgetDefinition{
		{Code: "a", Name: "Alpha", NameLocalized: map[string]string{"es": "Alfa"}, Category: "stats"},
		{Code: "b", Name: "Beta", Description: "Second", Category: "stats"},
		{Code: "c", Name: "Gamma", Category: "misc"},
	}
	categories := map[string]map[string]string{"stats": {"default": "Key metrics", "es": "Indicadores"}}
	meta := func(code string) (ManifestComponent, bool) {
		if code == "b" {
			return ManifestComponent{Permissions: []string{"jobs:read"}}, true
		}
		return ManifestComponent{}, false
	}

	entries := localizeCatalog(Locales{"es-mx"}, defs, categories, meta)
	assert.Equal(t, []CatalogEntry{
		{Code: "a", Name: "Alfa", Category: "stats", CategoryLabel: "Indicadores"},
		{Code: "b", Name: "Beta", Description: "Second", Category: "stats", CategoryLabel: "Indicadores", Permissions: []string{"jobs:read"}},
		{Code: "c", Name: "Gamma", Category: "misc", CategoryLabel: "misc"},
	}, entries)
}
