package dashboard

import "context"

// LayoutStorage persists one DashboardLayout per dashboard type.
// LoadLayout returns ErrNotFound when nothing has been saved for the type.
type LayoutStorage interface {
	LoadLayout(ctx context.Context, dashboardType string) (DashboardLayout, error)
	SaveLayout(ctx context.Context, layout DashboardLayout) error
	DeleteLayout(ctx context.Context, dashboardType string) error
	ListLayouts(ctx context.Context) ([]string, error)
}

// WidgetCatalog is the read-only view of the widget registry consumed by stores.
type WidgetCatalog interface {
	Lookup(widgetType string) (WidgetDefinition, bool)
	Definitions() []WidgetDefinition
}

// LayoutHook notifies transports (WebSocket/SSE/Redis) about layout changes.
type LayoutHook interface {
	LayoutChanged(ctx context.Context, event LayoutEvent) error
}

// GridArea is the placement of a widget in grid cells.
type GridArea struct {
	X int `json:"x" yaml:"x" toml:"x"`
	Y int `json:"y" yaml:"y" toml:"y"`
	W int `json:"w" yaml:"w" toml:"w"`
	H int `json:"h" yaml:"h" toml:"h"`
}

// Right returns the first column past the area.
func (a GridArea) Right() int { return a.X + a.W }

// Bottom returns the first row past the area.
func (a GridArea) Bottom() int { return a.Y + a.H }

// Overlaps reports whether two areas share at least one cell.
func (a GridArea) Overlaps(b GridArea) bool {
	return a.X < b.Right() && b.X < a.Right() && a.Y < b.Bottom() && b.Y < a.Bottom()
}

// Valid reports whether the area has non-negative coordinates and a positive span.
func (a GridArea) Valid() bool {
	return a.X >= 0 && a.Y >= 0 && a.W > 0 && a.H > 0
}

// Size is a widget span in grid cells.
type Size struct {
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// Props is the JSON-serializable configuration bag of a widget instance.
type Props map[string]any

// WidgetInstance is one placed widget on a dashboard.
type WidgetInstance struct {
	ID         string   `json:"id" yaml:"id" toml:"id"`
	WidgetType string   `json:"widgetType" yaml:"widgetType" toml:"widgetType"`
	GridArea   GridArea `json:"gridArea" yaml:"gridArea" toml:"gridArea"`
	Props      Props    `json:"props" yaml:"props" toml:"props"`
	IsVisible  bool     `json:"isVisible" yaml:"isVisible" toml:"isVisible"`
}

// DashboardLayout is the full set of widget placements for one dashboard type.
type DashboardLayout struct {
	DashboardType string           `json:"dashboardType" yaml:"dashboardType" toml:"dashboardType"`
	Widgets       []WidgetInstance `json:"widgets" yaml:"widgets" toml:"widgets"`
}

// Widget returns the widget with the given id.
func (l DashboardLayout) Widget(id string) (WidgetInstance, bool) {
	for _, w := range l.Widgets {
		if w.ID == id {
			return w, true
		}
	}
	return WidgetInstance{}, false
}

// Clone returns a deep copy of the layout.
func (l DashboardLayout) Clone() DashboardLayout {
	out := DashboardLayout{
		DashboardType: l.DashboardType,
		Widgets:       make([]WidgetInstance, len(l.Widgets)),
	}
	for i, w := range l.Widgets {
		out.Widgets[i] = w.Clone()
	}
	return out
}

// Clone returns a deep copy of the widget instance.
func (w WidgetInstance) Clone() WidgetInstance {
	w.Props = w.Props.Clone()
	return w
}

// Clone deep-copies nested maps and slices.
func (p Props) Clone() Props {
	if p == nil {
		return nil
	}
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case Props:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, item := range val {
			out[k] = item
		}
		return out
	default:
		return val
	}
}

// LayoutEvent describes layout changes transports might care about.
type LayoutEvent struct {
	DashboardType string           `json:"dashboardType"`
	SessionID     string           `json:"sessionId,omitempty"`
	Reason        string           `json:"reason"`
	Widgets       []WidgetInstance `json:"widgets,omitempty"`
}

// Event reasons.
const (
	ReasonLoad  = "load"
	ReasonSave  = "save"
	ReasonReset = "reset"
)
