package dashboard

// Dashboard types shipped with the built-in default layouts.
const (
	DashboardOverview  = "overview"
	DashboardJobs      = "jobs"
	DashboardEmployees = "employees"
	DashboardRPO       = "rpo"
	DashboardAnalytics = "analytics"
)

var rangeEnum = []string{"7d", "30d", "90d", "180d", "365d"}

func metricsCardSchema(metrics ...string) map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"metric"},
		"properties": map[string]any{
			"title":  map[string]any{"type": "string"},
			"metric": map[string]any{"type": "string", "enum": metrics},
			"period": map[string]any{"type": "string", "enum": rangeEnum},
			"trend":  map[string]any{"type": "boolean"},
		},
		"additionalProperties": false,
	}
}

func chartSchema(chartTypes ...string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":     map[string]any{"type": "string"},
			"chartType": map[string]any{"type": "string", "enum": chartTypes},
			"range":     map[string]any{"type": "string", "enum": rangeEnum},
			"groupBy":   map[string]any{"type": "string"},
		},
		"additionalProperties": false,
	}
}

func listSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":  map[string]any{"type": "string"},
			"limit":  map[string]any{"type": "integer", "minimum": 1, "maximum": 50},
			"status": map[string]any{"type": "string"},
			"sortBy": map[string]any{"type": "string"},
		},
		"additionalProperties": false,
	}
}

var defaultWidgetDefinitions = []WidgetDefinition{
	{
		Code:          "metrics-card",
		Name:          "Metrics Card",
		NameLocalized: map[string]string{"es": "Tarjeta de métricas"},
		Description:   "Single KPI with optional trend",
		Category:      "stats",
		Component:     "MetricsCard",
		DefaultSize:   Size{W: 3, H: 2},
		DefaultProps:  mustProps(MetricsCardProps{Title: "Open positions", Metric: "open_jobs", Period: "30d", Trend: true}),
		Schema:        metricsCardSchema("open_jobs", "active_candidates", "headcount", "time_to_hire", "offer_acceptance", "turnover"),
	},
	{
		Code:          "pipeline-funnel",
		Name:          "Candidate Pipeline",
		NameLocalized: map[string]string{"es": "Embudo de candidatos"},
		Description:   "Candidates per hiring stage",
		Category:      "recruiting",
		Component:     "PipelineFunnel",
		DefaultSize:   Size{W: 6, H: 4},
		DefaultProps:  mustProps(ChartProps{Title: "Pipeline", ChartType: "funnel", Range: "30d"}),
		Schema:        chartSchema("funnel", "bar"),
	},
	{
		Code:         "headcount-chart",
		Name:         "Headcount",
		Description:  "Headcount over time by department",
		Category:     "people",
		Component:    "HeadcountChart",
		DefaultSize:  Size{W: 6, H: 4},
		DefaultProps: mustProps(ChartProps{Title: "Headcount", ChartType: "line", Range: "365d", GroupBy: "department"}),
		Schema:       chartSchema("line", "bar", "area"),
	},
	{
		Code:          "open-jobs",
		Name:          "Open Jobs",
		NameLocalized: map[string]string{"es": "Vacantes abiertas"},
		Description:   "Published job postings",
		Category:      "recruiting",
		Component:     "OpenJobsList",
		DefaultSize:   Size{W: 6, H: 4},
		DefaultProps:  mustProps(ListProps{Title: "Open jobs", Limit: 10, Status: "published", SortBy: "posted_at"}),
		Schema:        listSchema(),
	},
	{
		Code:         "recent-applications",
		Name:         "Recent Applications",
		Description:  "Latest candidate applications",
		Category:     "recruiting",
		Component:    "RecentApplications",
		DefaultSize:  Size{W: 6, H: 4},
		DefaultProps: mustProps(ListProps{Title: "Recent applications", Limit: 8, SortBy: "applied_at"}),
		Schema:       listSchema(),
	},
	{
		Code:         "leave-calendar",
		Name:         "Leave Calendar",
		Description:  "Approved and pending leave",
		Category:     "people",
		Component:    "LeaveCalendar",
		DefaultSize:  Size{W: 6, H: 5},
		DefaultProps: mustProps(CalendarProps{Title: "Leave", View: "month", ShowPublic: true}),
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":              map[string]any{"type": "string"},
				"view":               map[string]any{"type": "string", "enum": []string{"week", "month"}},
				"showPublicHolidays": map[string]any{"type": "boolean"},
			},
			"additionalProperties": false,
		},
	},
	{
		Code:         "payroll-summary",
		Name:         "Payroll Summary",
		Description:  "Current payroll run totals",
		Category:     "payroll",
		Component:    "PayrollSummary",
		DefaultSize:  Size{W: 4, H: 3},
		DefaultProps: mustProps(ChartProps{Title: "Payroll", ChartType: "bar", Range: "90d"}),
		Schema:       chartSchema("bar", "line"),
	},
	{
		Code:         "review-cycle",
		Name:         "Review Cycle",
		Description:  "Performance review completion",
		Category:     "people",
		Component:    "ReviewCycle",
		DefaultSize:  Size{W: 4, H: 3},
		DefaultProps: mustProps(ListProps{Title: "Reviews due", Limit: 5, Status: "pending"}),
		Schema:       listSchema(),
	},
	{
		Code:          "rpo-contracts",
		Name:          "RPO Contracts",
		NameLocalized: map[string]string{"es": "Contratos RPO"},
		Description:   "Recruiter process outsourcing contracts and utilisation",
		Category:      "rpo",
		Component:     "RpoContracts",
		DefaultSize:   Size{W: 8, H: 4},
		DefaultProps:  mustProps(ListProps{Title: "Active contracts", Limit: 10, Status: "active", SortBy: "end_date"}),
		Schema:        listSchema(),
	},
	{
		Code:         "churn-risk",
		Name:         "Churn Risk",
		Description:  "Employees flagged by the churn score",
		Category:     "analytics",
		Component:    "ChurnRisk",
		DefaultSize:  Size{W: 6, H: 4},
		DefaultProps: mustProps(ChartProps{Title: "Churn risk", ChartType: "bar", Range: "90d", GroupBy: "department"}),
		Schema:       chartSchema("bar", "heatmap"),
	},
	{
		Code:         "cohort-retention",
		Name:         "Cohort Retention",
		Description:  "Retention grid by hire cohort",
		Category:     "analytics",
		Component:    "CohortRetention",
		DefaultSize:  Size{W: 6, H: 4},
		DefaultProps: mustProps(ChartProps{Title: "Retention", ChartType: "heatmap", Range: "365d"}),
		Schema:       chartSchema("heatmap", "line"),
	},
	{
		Code:          "quick-actions",
		Name:          "Quick Actions",
		NameLocalized: map[string]string{"es": "Acciones rápidas"},
		Description:   "Common shortcuts",
		Category:      "actions",
		Component:     "QuickActions",
		DefaultSize:   Size{W: 3, H: 2},
		DefaultProps: mustProps(QuickActionsProps{
			Title: "Quick actions",
			Actions: []QuickAction{
				{Label: "Post a job", Route: "/jobs/new", Icon: "briefcase"},
				{Label: "Add employee", Route: "/employees/new", Icon: "user-plus"},
			},
		}),
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title": map[string]any{"type": "string"},
				"actions": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type":     "object",
						"required": []string{"label", "route"},
						"properties": map[string]any{
							"label": map[string]any{"type": "string", "minLength": 1},
							"route": map[string]any{"type": "string", "minLength": 1},
							"icon":  map[string]any{"type": "string"},
						},
					},
				},
			},
			"additionalProperties": false,
		},
	},
}

type defaultPlacement struct {
	id         string
	widgetType string
	area       GridArea
	props      Props
}

var defaultLayoutPlacements = map[string][]defaultPlacement{
	DashboardOverview: {
		{id: "overview-open-jobs-card", widgetType: "metrics-card", area: GridArea{X: 0, Y: 0, W: 3, H: 2},
			props: mustProps(MetricsCardProps{Title: "Open positions", Metric: "open_jobs", Period: "30d", Trend: true})},
		{id: "overview-candidates-card", widgetType: "metrics-card", area: GridArea{X: 3, Y: 0, W: 3, H: 2},
			props: mustProps(MetricsCardProps{Title: "Active candidates", Metric: "active_candidates", Period: "30d", Trend: true})},
		{id: "overview-headcount-card", widgetType: "metrics-card", area: GridArea{X: 6, Y: 0, W: 3, H: 2},
			props: mustProps(MetricsCardProps{Title: "Headcount", Metric: "headcount", Trend: false})},
		{id: "overview-quick-actions", widgetType: "quick-actions", area: GridArea{X: 9, Y: 0, W: 3, H: 2}},
		{id: "overview-pipeline", widgetType: "pipeline-funnel", area: GridArea{X: 0, Y: 2, W: 6, H: 4}},
		{id: "overview-applications", widgetType: "recent-applications", area: GridArea{X: 6, Y: 2, W: 6, H: 4}},
	},
	DashboardJobs: {
		{id: "jobs-open-card", widgetType: "metrics-card", area: GridArea{X: 0, Y: 0, W: 4, H: 2},
			props: mustProps(MetricsCardProps{Title: "Open positions", Metric: "open_jobs", Period: "30d", Trend: true})},
		{id: "jobs-time-to-hire", widgetType: "metrics-card", area: GridArea{X: 4, Y: 0, W: 4, H: 2},
			props: mustProps(MetricsCardProps{Title: "Time to hire", Metric: "time_to_hire", Period: "90d", Trend: true})},
		{id: "jobs-acceptance", widgetType: "metrics-card", area: GridArea{X: 8, Y: 0, W: 4, H: 2},
			props: mustProps(MetricsCardProps{Title: "Offer acceptance", Metric: "offer_acceptance", Period: "90d", Trend: true})},
		{id: "jobs-open-list", widgetType: "open-jobs", area: GridArea{X: 0, Y: 2, W: 12, H: 4}},
		{id: "jobs-pipeline", widgetType: "pipeline-funnel", area: GridArea{X: 0, Y: 6, W: 12, H: 4}},
	},
	DashboardEmployees: {
		{id: "employees-headcount", widgetType: "headcount-chart", area: GridArea{X: 0, Y: 0, W: 8, H: 4}},
		{id: "employees-turnover", widgetType: "metrics-card", area: GridArea{X: 8, Y: 0, W: 4, H: 2},
			props: mustProps(MetricsCardProps{Title: "Turnover", Metric: "turnover", Period: "365d", Trend: true})},
		{id: "employees-payroll", widgetType: "payroll-summary", area: GridArea{X: 8, Y: 2, W: 4, H: 3}},
		{id: "employees-leave", widgetType: "leave-calendar", area: GridArea{X: 0, Y: 4, W: 6, H: 5}},
		{id: "employees-reviews", widgetType: "review-cycle", area: GridArea{X: 6, Y: 5, W: 6, H: 3}},
	},
	DashboardRPO: {
		{id: "rpo-contracts", widgetType: "rpo-contracts", area: GridArea{X: 0, Y: 0, W: 8, H: 4}},
		{id: "rpo-open-card", widgetType: "metrics-card", area: GridArea{X: 8, Y: 0, W: 4, H: 2},
			props: mustProps(MetricsCardProps{Title: "Client requisitions", Metric: "open_jobs", Period: "30d", Trend: true})},
		{id: "rpo-pipeline", widgetType: "pipeline-funnel", area: GridArea{X: 0, Y: 4, W: 12, H: 4}},
	},
	DashboardAnalytics: {
		{id: "analytics-churn", widgetType: "churn-risk", area: GridArea{X: 0, Y: 0, W: 6, H: 4}},
		{id: "analytics-cohorts", widgetType: "cohort-retention", area: GridArea{X: 6, Y: 0, W: 6, H: 4}},
		{id: "analytics-headcount", widgetType: "headcount-chart", area: GridArea{X: 0, Y: 4, W: 12, H: 4}},
	},
}

var defaultCategoryLabels = map[string]map[string]string{
	"stats":      {"default": "Key metrics", "es": "Indicadores"},
	"recruiting": {"default": "Recruiting", "es": "Reclutamiento"},
	"people":     {"default": "People", "es": "Personas"},
	"payroll":    {"default": "Payroll", "es": "Nómina"},
	"rpo":        {"default": "RPO", "es": "RPO"},
	"analytics":  {"default": "Analytics", "es": "Analítica"},
	"actions":    {"default": "Shortcuts", "es": "Accesos directos"},
}

// DefaultCategoryLabels returns the labels of the built-in widget categories.
func DefaultCategoryLabels() map[string]map[string]string {
	out := make(map[string]map[string]string, len(defaultCategoryLabels))
	for category, labels := range defaultCategoryLabels {
		out[category] = cloneStringMap(labels)
	}
	return out
}

// DefaultWidgetDefinitions returns the built-in widget catalogue.
func DefaultWidgetDefinitions() []WidgetDefinition {
	out := make([]WidgetDefinition, len(defaultWidgetDefinitions))
	for i, def := range defaultWidgetDefinitions {
		out[i] = def.clone()
	}
	return out
}

// DefaultDashboardTypes lists the dashboard types with a built-in layout.
func DefaultDashboardTypes() []string {
	return []string{DashboardOverview, DashboardJobs, DashboardEmployees, DashboardRPO, DashboardAnalytics}
}

// DefaultLayout builds the built-in layout for a dashboard type, filling props from the
// catalogue where a placement does not override them. Unknown types get an empty layout.
func DefaultLayout(catalog WidgetCatalog, dashboardType string) DashboardLayout {
	layout := DashboardLayout{DashboardType: dashboardType, Widgets: []WidgetInstance{}}
	for _, p := range defaultLayoutPlacements[dashboardType] {
		props := p.props.Clone()
		if props == nil && catalog != nil {
			if def, ok := catalog.Lookup(p.widgetType); ok {
				props = def.DefaultProps
			}
		}
		if props == nil {
			props = Props{}
		}
		layout.Widgets = append(layout.Widgets, WidgetInstance{
			ID:         p.id,
			WidgetType: p.widgetType,
			GridArea:   p.area,
			Props:      props,
			IsVisible:  true,
		})
	}
	return layout
}
