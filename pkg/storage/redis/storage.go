// Package redis stores dashboard layouts in Redis and relays layout events
// between server instances over pub/sub.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-dashboard-editor/components/dashboard"
)

// Client is the subset of *redis.Client the storage uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	SAdd(ctx context.Context, key string, members ...any) *redis.IntCmd
	SRem(ctx context.Context, key string, members ...any) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
}

// Storage implements dashboard.LayoutStorage on Redis strings. A set indexes the
// stored dashboard types so ListLayouts avoids KEYS.
type Storage struct {
	client    Client
	namespace string
}

var _ dashboard.LayoutStorage = (*Storage)(nil)

// NewStorage wraps client. Keys are prefixed with namespace when set.
func NewStorage(client Client, namespace string) *Storage {
	return &Storage{client: client, namespace: namespace}
}

func (s *Storage) key(dashboardType string) string {
	return s.namespace + dashboard.LayoutKey(dashboardType)
}

func (s *Storage) indexKey() string {
	return s.namespace + "dashboard-layouts"
}

// LoadLayout implements dashboard.LayoutStorage.
func (s *Storage) LoadLayout(ctx context.Context, dashboardType string) (dashboard.DashboardLayout, error) {
	data, err := s.client.Get(ctx, s.key(dashboardType)).Bytes()
	if errors.Is(err, redis.Nil) {
		return dashboard.DashboardLayout{}, dashboard.ErrNotFound
	}
	if err != nil {
		return dashboard.DashboardLayout{}, fmt.Errorf("redis.LoadLayout: %w", err)
	}
	return dashboard.DecodeLayout(data)
}

// SaveLayout implements dashboard.LayoutStorage.
func (s *Storage) SaveLayout(ctx context.Context, layout dashboard.DashboardLayout) error {
	data, err := dashboard.EncodeLayout(layout)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(layout.DashboardType), data, 0).Err(); err != nil {
		return fmt.Errorf("redis.SaveLayout: %w", err)
	}
	if err := s.client.SAdd(ctx, s.indexKey(), layout.DashboardType).Err(); err != nil {
		return fmt.Errorf("redis.SaveLayout: index: %w", err)
	}
	return nil
}

// DeleteLayout implements dashboard.LayoutStorage.
func (s *Storage) DeleteLayout(ctx context.Context, dashboardType string) error {
	if err := s.client.Del(ctx, s.key(dashboardType)).Err(); err != nil {
		return fmt.Errorf("redis.DeleteLayout: %w", err)
	}
	if err := s.client.SRem(ctx, s.indexKey(), dashboardType).Err(); err != nil {
		return fmt.Errorf("redis.DeleteLayout: index: %w", err)
	}
	return nil
}

// ListLayouts implements dashboard.LayoutStorage.
func (s *Storage) ListLayouts(ctx context.Context) ([]string, error) {
	types, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis.ListLayouts: %w", err)
	}
	sort.Strings(types)
	return types, nil
}
