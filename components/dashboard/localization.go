package dashboard

import (
	"sort"
	"strconv"
	"strings"
)

// Locales is a viewer's locale preference, most preferred first. Tags are
// lower-case with "-" separators (es-mx).
type Locales []string

// ParseLocales reads an Accept-Language header or a plain comma separated list
// ("es_MX, en"). Tags are ordered by q-value, equal weights keep header order,
// and wildcards or q=0 entries are dropped.
func ParseLocales(header string) Locales {
	type weighted struct {
		tag string
		q   float64
	}
	var tags []weighted
	for _, part := range strings.Split(header, ",") {
		tag, params, _ := strings.Cut(part, ";")
		tag = normalizeLocale(tag)
		if tag == "" || tag == "*" {
			continue
		}
		q := 1.0
		for _, param := range strings.Split(params, ";") {
			key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
			if !ok || !strings.EqualFold(strings.TrimSpace(key), "q") {
				continue
			}
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
				q = parsed
			}
		}
		if q <= 0 {
			continue
		}
		tags = append(tags, weighted{tag: tag, q: q})
	}
	sort.SliceStable(tags, func(i, j int) bool { return tags[i].q > tags[j].q })

	out := make(Locales, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if _, dup := seen[t.tag]; dup {
			continue
		}
		seen[t.tag] = struct{}{}
		out = append(out, t.tag)
	}
	return out
}

// Primary returns the most preferred locale, or "" when there is none.
func (l Locales) Primary() string {
	if len(l) == 0 {
		return ""
	}
	return l[0]
}

// Pick returns the best translation in values, then values["default"], then fallback.
// A region tag falls back to its base language before the next preference.
func (l Locales) Pick(values map[string]string, fallback string) string {
	return pickLocalized(l.candidates(), values, fallback)
}

// candidates expands the preference list with base languages: [es-mx en] becomes [es-mx es en].
func (l Locales) candidates() []string {
	out := make([]string, 0, len(l)*2)
	seen := make(map[string]struct{}, len(l)*2)
	add := func(tag string) {
		if _, dup := seen[tag]; tag == "" || dup {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	for _, tag := range l {
		tag = normalizeLocale(tag)
		add(tag)
		if base, _, ok := strings.Cut(tag, "-"); ok {
			add(base)
		}
	}
	return out
}

func pickLocalized(candidates []string, values map[string]string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	for _, c := range candidates {
		if v := values[c]; v != "" {
			return v
		}
	}
	if v := values["default"]; v != "" {
		return v
	}
	return fallback
}

// NameForLocale returns the display name for a single locale or Accept-Language value.
func (def WidgetDefinition) NameForLocale(locale string) string {
	return ParseLocales(locale).Pick(def.NameLocalized, def.Name)
}

// DescriptionForLocale returns the localized description if available.
func (def WidgetDefinition) DescriptionForLocale(locale string) string {
	return ParseLocales(locale).Pick(def.DescriptionLocalized, def.Description)
}

func (def *WidgetDefinition) normalizeLocalizedFields() {
	def.NameLocalized = normalizeLocaleMap(def.NameLocalized)
	def.DescriptionLocalized = normalizeLocaleMap(def.DescriptionLocalized)
}

// localizeCatalog resolves the add-widget menu for one viewer. Candidates are
// expanded once and category labels are resolved once per category.
func localizeCatalog(locales Locales, defs []WidgetDefinition, categories map[string]map[string]string, meta func(string) (ManifestComponent, bool)) []CatalogEntry {
	candidates := locales.candidates()
	labels := make(map[string]string, len(categories))
	out := make([]CatalogEntry, 0, len(defs))
	for _, def := range defs {
		label, ok := labels[def.Category]
		if !ok {
			label = pickLocalized(candidates, categories[def.Category], def.Category)
			labels[def.Category] = label
		}
		entry := CatalogEntry{
			Code:          def.Code,
			Name:          pickLocalized(candidates, def.NameLocalized, def.Name),
			Description:   pickLocalized(candidates, def.DescriptionLocalized, def.Description),
			Category:      def.Category,
			CategoryLabel: label,
			Component:     def.Component,
			DefaultSize:   def.DefaultSize,
		}
		if m, ok := meta(def.Code); ok {
			entry.Permissions = append([]string(nil), m.Permissions...)
		}
		out = append(out, entry)
	}
	return out
}

func normalizeLocaleMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	normalized := make(map[string]string, len(values))
	for key, value := range values {
		key = normalizeLocale(key)
		if key == "" || value == "" {
			continue
		}
		normalized[key] = value
	}
	return normalized
}

func normalizeLocale(locale string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(locale)), "_", "-")
}
