package dashboard

import (
	"encoding/json"
	"fmt"
)

// MetricsCardProps configures single-number stat cards (open jobs, headcount, time to hire).
type MetricsCardProps struct {
	Title  string `json:"title"`
	Metric string `json:"metric"`
	Period string `json:"period,omitempty"`
	Trend  bool   `json:"trend"`
}

// ChartProps configures chart widgets.
type ChartProps struct {
	Title     string `json:"title"`
	ChartType string `json:"chartType"`
	Range     string `json:"range"`
	GroupBy   string `json:"groupBy,omitempty"`
}

// ListProps configures list/table widgets.
type ListProps struct {
	Title  string `json:"title"`
	Limit  int    `json:"limit"`
	Status string `json:"status,omitempty"`
	SortBy string `json:"sortBy,omitempty"`
}

// CalendarProps configures calendar widgets.
type CalendarProps struct {
	Title      string `json:"title"`
	View       string `json:"view"`
	ShowPublic bool   `json:"showPublicHolidays"`
}

// QuickAction is a shortcut rendered by the quick actions widget.
type QuickAction struct {
	Label string `json:"label"`
	Route string `json:"route"`
	Icon  string `json:"icon,omitempty"`
}

// QuickActionsProps configures the quick actions widget.
type QuickActionsProps struct {
	Title   string        `json:"title"`
	Actions []QuickAction `json:"actions"`
}

// PropsFrom converts a typed props struct into a Props bag.
func PropsFrom(v any) (Props, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("dashboard: encode props: %w", err)
	}
	var props Props
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("dashboard: encode props: %w", err)
	}
	return props, nil
}

// DecodeProps decodes the props of a widget instance into its typed struct.
func DecodeProps[T any](w WidgetInstance) (T, error) {
	var out T
	data, err := json.Marshal(w.Props)
	if err != nil {
		return out, fmt.Errorf("dashboard: decode props for %s: %w", w.ID, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("dashboard: decode props for %s: %w", w.ID, err)
	}
	return out, nil
}

func mustProps(v any) Props {
	props, err := PropsFrom(v)
	if err != nil {
		panic(err)
	}
	return props
}
