package commands

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboard "github.com/goliatone/go-dashboard-editor/components/dashboard"
)

type recordingTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *recordingTelemetry) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

func newService(t *testing.T) (*dashboard.Service, *dashboard.MemoryStorage) {
	t.Helper()
	storage := dashboard.NewMemoryStorage()
	svc := dashboard.NewService(dashboard.Options{Storage: storage})
	t.Cleanup(svc.Close)
	return svc, storage
}

func openEditing(t *testing.T, svc *dashboard.Service, dashboardType string) string {
	t.Helper()
	ctx := context.Background()
	var id string
	require.NoError(t, NewOpenSessionCommand(svc, nil).Execute(ctx, OpenSessionInput{DashboardType: dashboardType, SessionID: &id}))
	require.NotEmpty(t, id)
	require.NoError(t, NewSetEditModeCommand(svc, nil).Execute(ctx, SetEditModeInput{SessionID: id, Enabled: true}))
	return id
}

func TestCommandsRequireService(t *testing.T) {
	ctx := context.Background()
	require.ErrorIs(t, NewAddWidgetCommand(nil, nil).Execute(ctx, AddWidgetInput{SessionID: "s"}), errMissingService)
	require.ErrorIs(t, NewOpenSessionCommand(nil, nil).Execute(ctx, OpenSessionInput{}), errMissingService)
	require.ErrorIs(t, NewSeedLayoutsCommand(nil, nil).Execute(ctx, SeedLayoutsInput{}), errMissingService)
	require.ErrorIs(t, NewCancelDragCommand(nil).Execute(ctx, CancelDragInput{SessionID: "s"}), errMissingService)
}

func TestCommandsRequireSessionID(t *testing.T) {
	svc, _ := newService(t)
	err := NewUndoCommand(svc, nil).Execute(context.Background(), HistoryInput{})
	require.ErrorIs(t, err, errMissingSessionID)
}

func TestMutationsRejectedOutsideEditMode(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	var id string
	require.NoError(t, NewOpenSessionCommand(svc, nil).Execute(ctx, OpenSessionInput{DashboardType: dashboard.DashboardJobs, SessionID: &id}))

	err := NewAddWidgetCommand(svc, nil).Execute(ctx, AddWidgetInput{SessionID: id, WidgetType: "open-jobs"})
	require.ErrorIs(t, err, dashboard.ErrReadOnly)
	err = NewSaveLayoutCommand(svc, nil).Execute(ctx, SaveLayoutInput{SessionID: id})
	require.ErrorIs(t, err, dashboard.ErrReadOnly)
}

func TestAddUndoRedoSaveFlow(t *testing.T) {
	ctx := context.Background()
	svc, storage := newService(t)
	telemetry := &recordingTelemetry{}
	id := openEditing(t, svc, dashboard.DashboardJobs)

	var created dashboard.WidgetInstance
	require.NoError(t, NewAddWidgetCommand(svc, telemetry).Execute(ctx, AddWidgetInput{
		SessionID:  id,
		WidgetType: "recent-applications",
		Created:    &created,
	}))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "recent-applications", created.WidgetType)

	sess, err := svc.Session(id)
	require.NoError(t, err)
	require.True(t, sess.Store.CanUndo())

	require.NoError(t, NewUndoCommand(svc, telemetry).Execute(ctx, HistoryInput{SessionID: id}))
	_, ok := sess.Store.Widget(created.ID)
	assert.False(t, ok)
	require.NoError(t, NewRedoCommand(svc, telemetry).Execute(ctx, HistoryInput{SessionID: id}))
	_, ok = sess.Store.Widget(created.ID)
	assert.True(t, ok)

	require.NoError(t, NewSaveLayoutCommand(svc, telemetry).Execute(ctx, SaveLayoutInput{SessionID: id}))
	stored, err := storage.LoadLayout(ctx, dashboard.DashboardJobs)
	require.NoError(t, err)
	assert.Len(t, stored.Widgets, len(sess.Store.Snapshot().Widgets))
	assert.True(t, sess.Store.CanUndo(), "save keeps history")

	for _, event := range []string{
		"dashboard.command.add_widget",
		"dashboard.command.undo",
		"dashboard.command.redo",
		"dashboard.command.save",
	} {
		assert.True(t, telemetry.has(event), event)
	}
}

func TestAddUnknownWidgetSurfacesTypedError(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	id := openEditing(t, svc, dashboard.DashboardJobs)

	err := NewAddWidgetCommand(svc, nil).Execute(ctx, AddWidgetInput{SessionID: id, WidgetType: "no-such-widget"})
	var unknown *dashboard.UnknownWidgetTypeError
	require.True(t, errors.As(err, &unknown))

	sess, err := svc.Session(id)
	require.NoError(t, err)
	assert.Len(t, sess.Notices.Drain(), 1)
	assert.False(t, sess.Store.CanUndo())
}

func TestUpdateAndRemoveAbsentWidgetAreNoOps(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	id := openEditing(t, svc, dashboard.DashboardJobs)

	visible := false
	require.NoError(t, NewUpdateWidgetCommand(svc, nil).Execute(ctx, UpdateWidgetInput{
		SessionID: id, WidgetID: "ghost", Changes: dashboard.WidgetChanges{IsVisible: &visible},
	}))
	require.NoError(t, NewRemoveWidgetCommand(svc, nil).Execute(ctx, RemoveWidgetInput{SessionID: id, WidgetID: "ghost"}))

	sess, err := svc.Session(id)
	require.NoError(t, err)
	assert.False(t, sess.Store.CanUndo())
}

func TestUpdateWidgetHidesAndRemoveDeletes(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	id := openEditing(t, svc, dashboard.DashboardJobs)

	visible := false
	require.NoError(t, NewUpdateWidgetCommand(svc, nil).Execute(ctx, UpdateWidgetInput{
		SessionID: id, WidgetID: "jobs-pipeline", Changes: dashboard.WidgetChanges{IsVisible: &visible},
	}))
	sess, err := svc.Session(id)
	require.NoError(t, err)
	w, ok := sess.Store.Widget("jobs-pipeline")
	require.True(t, ok)
	assert.False(t, w.IsVisible)

	require.NoError(t, NewRemoveWidgetCommand(svc, nil).Execute(ctx, RemoveWidgetInput{SessionID: id, WidgetID: "jobs-pipeline"}))
	_, ok = sess.Store.Widget("jobs-pipeline")
	assert.False(t, ok)
	past, _ := sess.Store.HistoryDepth()
	assert.Equal(t, 2, past)
}

func TestUpdateLayoutAndReset(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	id := openEditing(t, svc, dashboard.DashboardRPO)
	sess, err := svc.Session(id)
	require.NoError(t, err)
	original := sess.Store.Snapshot()

	require.NoError(t, NewUpdateLayoutCommand(svc, nil).Execute(ctx, UpdateLayoutInput{
		SessionID: id,
		Widgets:   original.Widgets[:1],
	}))
	assert.Len(t, sess.Store.Snapshot().Widgets, 1)

	require.NoError(t, NewResetCommand(svc, nil).Execute(ctx, HistoryInput{SessionID: id}))
	assert.Equal(t, original.Widgets, sess.Store.Snapshot().Widgets)
	assert.True(t, sess.Store.CanUndo())
}

func TestDragCommandsCommitOneMutation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	telemetry := &recordingTelemetry{}
	id := openEditing(t, svc, dashboard.DashboardOverview)

	var fb dashboard.DragFeedback
	require.NoError(t, NewPointerDownCommand(svc).Execute(ctx, PointerDownInput{
		SessionID: id, WidgetID: "overview-pipeline", Feedback: &fb,
	}))
	assert.Equal(t, dashboard.DragPending, fb.State)

	for _, y := range []float64{100, 200, 384} {
		require.NoError(t, NewPointerMoveCommand(svc).Execute(ctx, PointerMoveInput{
			SessionID: id, Point: dashboard.Point{Y: y}, Feedback: &fb,
		}))
	}
	assert.Equal(t, dashboard.DragDroppingOver, fb.State)
	assert.True(t, fb.Valid)

	sess, err := svc.Session(id)
	require.NoError(t, err)
	assert.False(t, sess.Store.CanUndo(), "moves never mutate")

	var result dashboard.DropResult
	require.NoError(t, NewPointerUpCommand(svc, telemetry).Execute(ctx, PointerUpInput{
		SessionID: id, Point: dashboard.Point{Y: 384}, Result: &result,
	}))
	assert.True(t, result.Committed)
	assert.Equal(t, dashboard.GridArea{X: 0, Y: 6, W: 6, H: 4}, result.To)
	past, _ := sess.Store.HistoryDepth()
	assert.Equal(t, 1, past)
	assert.True(t, telemetry.has("dashboard.command.drop"))
}

func TestDragCommandsRejectOverlap(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	id := openEditing(t, svc, dashboard.DashboardOverview)

	require.NoError(t, NewPointerDownCommand(svc).Execute(ctx, PointerDownInput{SessionID: id, WidgetID: "overview-pipeline"}))
	var result dashboard.DropResult
	err := NewPointerUpCommand(svc, nil).Execute(ctx, PointerUpInput{
		SessionID: id, Point: dashboard.Point{X: 6 * 96}, Result: &result,
	})
	var invalid *dashboard.InvalidDropTargetError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "overview-applications", invalid.Conflict)
	assert.False(t, result.Committed)
}

func TestCancelDragAllowedOutsideEditMode(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	id := openEditing(t, svc, dashboard.DashboardOverview)

	require.NoError(t, NewPointerDownCommand(svc).Execute(ctx, PointerDownInput{SessionID: id, WidgetID: "overview-pipeline"}))
	sess, err := svc.Session(id)
	require.NoError(t, err)
	require.NoError(t, NewCancelDragCommand(svc).Execute(ctx, CancelDragInput{SessionID: id}))
	assert.Equal(t, dashboard.DragIdle, sess.Drag.State())
}

func TestLoadLayoutSwitchesDashboard(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	var id string
	require.NoError(t, NewOpenSessionCommand(svc, nil).Execute(ctx, OpenSessionInput{DashboardType: dashboard.DashboardJobs, SessionID: &id}))

	require.NoError(t, NewLoadLayoutCommand(svc, nil).Execute(ctx, LoadLayoutInput{SessionID: id, DashboardType: dashboard.DashboardEmployees}))
	sess, err := svc.Session(id)
	require.NoError(t, err)
	assert.Equal(t, dashboard.DashboardEmployees, sess.Store.DashboardType())

	err = NewLoadLayoutCommand(svc, nil).Execute(ctx, LoadLayoutInput{SessionID: "missing", DashboardType: dashboard.DashboardJobs})
	require.ErrorIs(t, err, dashboard.ErrSessionNotFound)
}

func TestSeedImportDeleteCommands(t *testing.T) {
	ctx := context.Background()
	svc, storage := newService(t)

	var seeded []string
	require.NoError(t, NewSeedLayoutsCommand(svc, nil).Execute(ctx, SeedLayoutsInput{
		DashboardTypes: []string{dashboard.DashboardJobs},
		Seeded:         &seeded,
	}))
	assert.Equal(t, []string{dashboard.DashboardJobs}, seeded)

	layout, err := storage.LoadLayout(ctx, dashboard.DashboardJobs)
	require.NoError(t, err)
	layout.Widgets = layout.Widgets[:2]
	require.NoError(t, NewImportLayoutCommand(svc, nil).Execute(ctx, ImportLayoutInput{Layout: layout}))
	stored, err := storage.LoadLayout(ctx, dashboard.DashboardJobs)
	require.NoError(t, err)
	assert.Len(t, stored.Widgets, 2)

	require.NoError(t, NewDeleteLayoutCommand(svc, nil).Execute(ctx, DeleteLayoutInput{DashboardType: dashboard.DashboardJobs}))
	_, err = storage.LoadLayout(ctx, dashboard.DashboardJobs)
	require.ErrorIs(t, err, dashboard.ErrNotFound)

	require.Error(t, NewDeleteLayoutCommand(svc, nil).Execute(ctx, DeleteLayoutInput{}))
}

func TestSetEditModeForbidden(t *testing.T) {
	ctx := context.Background()
	svc := dashboard.NewService(dashboard.Options{
		Storage:    dashboard.NewMemoryStorage(),
		Authorizer: dashboard.RoleAuthorizer{"hr-admin"},
	})
	defer svc.Close()
	var id string
	require.NoError(t, NewOpenSessionCommand(svc, nil).Execute(ctx, OpenSessionInput{DashboardType: dashboard.DashboardJobs, SessionID: &id}))

	err := NewSetEditModeCommand(svc, nil).Execute(ctx, SetEditModeInput{
		SessionID: id,
		Viewer:    dashboard.ViewerContext{UserID: "u1", Roles: []string{"recruiter"}},
		Enabled:   true,
	})
	require.ErrorIs(t, err, dashboard.ErrForbidden)

	require.NoError(t, NewCloseSessionCommand(svc, nil).Execute(ctx, CloseSessionInput{SessionID: id}))
	require.ErrorIs(t, NewCloseSessionCommand(svc, nil).Execute(ctx, CloseSessionInput{SessionID: id}), dashboard.ErrSessionNotFound)
}

func overviewOnly() dashboard.Authorizer {
	return dashboard.AuthorizerFunc(func(_ context.Context, _ dashboard.ViewerContext, dashboardType string) bool {
		return dashboardType == dashboard.DashboardOverview
	})
}

func TestLoadLayoutDropsEditModeForOtherDashboard(t *testing.T) {
	ctx := context.Background()
	storage := dashboard.NewMemoryStorage()
	svc := dashboard.NewService(dashboard.Options{Storage: storage, Authorizer: overviewOnly()})
	defer svc.Close()
	id := openEditing(t, svc, dashboard.DashboardOverview)

	require.NoError(t, NewLoadLayoutCommand(svc, nil).Execute(ctx, LoadLayoutInput{SessionID: id, DashboardType: dashboard.DashboardJobs}))
	sess, err := svc.Session(id)
	require.NoError(t, err)
	assert.False(t, sess.EditMode())

	err = NewAddWidgetCommand(svc, nil).Execute(ctx, AddWidgetInput{SessionID: id, WidgetType: "open-jobs"})
	require.ErrorIs(t, err, dashboard.ErrReadOnly)
	err = NewSaveLayoutCommand(svc, nil).Execute(ctx, SaveLayoutInput{SessionID: id})
	require.ErrorIs(t, err, dashboard.ErrReadOnly)
	err = NewSetEditModeCommand(svc, nil).Execute(ctx, SetEditModeInput{SessionID: id, Enabled: true})
	require.ErrorIs(t, err, dashboard.ErrForbidden)

	types, err := storage.ListLayouts(ctx)
	require.NoError(t, err)
	assert.Empty(t, types)
}

func TestStorageCommandsAuthorizeViewer(t *testing.T) {
	ctx := context.Background()
	storage := dashboard.NewMemoryStorage()
	svc := dashboard.NewService(dashboard.Options{Storage: storage, Authorizer: overviewOnly()})
	defer svc.Close()
	viewer := &dashboard.ViewerContext{UserID: "u1"}

	err := NewSeedLayoutsCommand(svc, nil).Execute(ctx, SeedLayoutsInput{Viewer: viewer})
	require.ErrorIs(t, err, dashboard.ErrForbidden, "an empty seed list covers every built-in type")
	err = NewImportLayoutCommand(svc, nil).Execute(ctx, ImportLayoutInput{
		Layout: dashboard.DashboardLayout{DashboardType: dashboard.DashboardJobs, Widgets: []dashboard.WidgetInstance{}},
		Viewer: viewer,
	})
	require.ErrorIs(t, err, dashboard.ErrForbidden)
	err = NewDeleteLayoutCommand(svc, nil).Execute(ctx, DeleteLayoutInput{DashboardType: dashboard.DashboardJobs, Viewer: viewer})
	require.ErrorIs(t, err, dashboard.ErrForbidden)

	types, err := storage.ListLayouts(ctx)
	require.NoError(t, err)
	assert.Empty(t, types)

	var seeded []string
	require.NoError(t, NewSeedLayoutsCommand(svc, nil).Execute(ctx, SeedLayoutsInput{
		DashboardTypes: []string{dashboard.DashboardOverview},
		Viewer:         viewer,
		Seeded:         &seeded,
	}))
	assert.Equal(t, []string{dashboard.DashboardOverview}, seeded)
	require.NoError(t, NewDeleteLayoutCommand(svc, nil).Execute(ctx, DeleteLayoutInput{DashboardType: dashboard.DashboardOverview, Viewer: viewer}))
}
