package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-dashboard-editor/components/dashboard"
)

type fakeClient struct {
	mu   sync.Mutex
	kv   map[string][]byte
	sets map[string]map[string]struct{}
	err  error
}

func newFakeClient() *fakeClient {
	return &fakeClient{kv: map[string][]byte{}, sets: map[string]map[string]struct{}{}}
}

func (f *fakeClient) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.kv[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeClient) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	switch v := value.(type) {
	case []byte:
		f.kv[key] = append([]byte(nil), v...)
	case string:
		f.kv[key] = []byte(v)
	default:
		f.kv[key] = []byte(fmt.Sprint(v))
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeClient) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.kv[k]; ok {
			delete(f.kv, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeClient) SAdd(_ context.Context, key string, members ...any) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.sets[key]
	if !ok {
		set = map[string]struct{}{}
		f.sets[key] = set
	}
	for _, m := range members {
		set[fmt.Sprint(m)] = struct{}{}
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (f *fakeClient) SRem(_ context.Context, key string, members ...any) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range members {
		delete(f.sets[key], fmt.Sprint(m))
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (f *fakeClient) SMembers(_ context.Context, key string) *redis.StringSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []string{}
	for m := range f.sets[key] {
		out = append(out, m)
	}
	return redis.NewStringSliceResult(out, nil)
}

func TestStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	s := NewStorage(client, "hrm:")

	_, err := s.LoadLayout(ctx, "jobs")
	require.ErrorIs(t, err, dashboard.ErrNotFound)

	layout := dashboard.DashboardLayout{
		DashboardType: "jobs",
		Widgets: []dashboard.WidgetInstance{
			{ID: "a", WidgetType: "open-jobs", GridArea: dashboard.GridArea{W: 6, H: 4}, Props: dashboard.Props{"title": "Open"}, IsVisible: true},
		},
	}
	require.NoError(t, s.SaveLayout(ctx, layout))
	assert.Contains(t, client.kv, "hrm:dashboard-layout:jobs")

	got, err := s.LoadLayout(ctx, "jobs")
	require.NoError(t, err)
	assert.Equal(t, layout, got)
}

func TestStorageIndexTracksTypes(t *testing.T) {
	ctx := context.Background()
	s := NewStorage(newFakeClient(), "")
	for _, typ := range []string{"rpo", "jobs", "overview"} {
		require.NoError(t, s.SaveLayout(ctx, dashboard.DashboardLayout{DashboardType: typ}))
	}
	types, err := s.ListLayouts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"jobs", "overview", "rpo"}, types)

	require.NoError(t, s.DeleteLayout(ctx, "overview"))
	types, err = s.ListLayouts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"jobs", "rpo"}, types)
}

func TestStorageWrapsClientErrors(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	client.err = errors.New("i/o timeout")
	s := NewStorage(client, "")

	_, err := s.LoadLayout(ctx, "jobs")
	require.ErrorIs(t, err, client.err)
	assert.NotErrorIs(t, err, dashboard.ErrNotFound)
	require.ErrorIs(t, s.SaveLayout(ctx, dashboard.DashboardLayout{DashboardType: "jobs"}), client.err)
}

func TestStorageCorruptPayload(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	client.kv[dashboard.LayoutKey("jobs")] = []byte("not json")
	_, err := NewStorage(client, "").LoadLayout(ctx, "jobs")
	require.Error(t, err)
	assert.NotErrorIs(t, err, dashboard.ErrNotFound)
}
