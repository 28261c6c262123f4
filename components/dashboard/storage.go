package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// LayoutKeyPrefix prefixes the storage key of every persisted layout.
const LayoutKeyPrefix = "dashboard-layout:"

// LayoutKey returns the storage key for a dashboard type.
func LayoutKey(dashboardType string) string {
	return LayoutKeyPrefix + dashboardType
}

// DashboardTypeFromKey strips the key prefix. It returns false for foreign keys.
func DashboardTypeFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, LayoutKeyPrefix) {
		return "", false
	}
	t := strings.TrimPrefix(key, LayoutKeyPrefix)
	return t, t != ""
}

// ValidateLayout checks the structural invariants of a layout.
func ValidateLayout(layout DashboardLayout) error {
	if layout.DashboardType == "" {
		return errMissingDashboardType
	}
	return validateWidgets(layout.Widgets)
}

func validateWidgets(widgets []WidgetInstance) error {
	seen := make(map[string]struct{}, len(widgets))
	for _, w := range widgets {
		if w.ID == "" {
			return fmt.Errorf("dashboard: widget of type %s has no id", w.WidgetType)
		}
		if _, dup := seen[w.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateWidgetID, w.ID)
		}
		seen[w.ID] = struct{}{}
		if !w.GridArea.Valid() {
			return fmt.Errorf("%w: widget %s", ErrInvalidGridArea, w.ID)
		}
	}
	return nil
}

// EncodeLayout serializes a layout into its persisted JSON form.
func EncodeLayout(layout DashboardLayout) ([]byte, error) {
	if err := ValidateLayout(layout); err != nil {
		return nil, err
	}
	if layout.Widgets == nil {
		layout.Widgets = []WidgetInstance{}
	}
	data, err := json.Marshal(layout)
	if err != nil {
		return nil, fmt.Errorf("dashboard: encode layout %s: %w", layout.DashboardType, err)
	}
	return data, nil
}

// DecodeLayout parses a persisted layout and checks its invariants.
func DecodeLayout(data []byte) (DashboardLayout, error) {
	var layout DashboardLayout
	if err := json.Unmarshal(data, &layout); err != nil {
		return DashboardLayout{}, fmt.Errorf("dashboard: decode layout: %w", err)
	}
	if err := ValidateLayout(layout); err != nil {
		return DashboardLayout{}, err
	}
	if layout.Widgets == nil {
		layout.Widgets = []WidgetInstance{}
	}
	return layout, nil
}

// MemoryStorage keeps encoded layouts in memory. Values are stored as JSON so a
// load always observes exactly what a save serialized.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStorage creates an empty storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

// LoadLayout implements LayoutStorage.
func (s *MemoryStorage) LoadLayout(_ context.Context, dashboardType string) (DashboardLayout, error) {
	s.mu.RLock()
	raw, ok := s.data[LayoutKey(dashboardType)]
	s.mu.RUnlock()
	if !ok {
		return DashboardLayout{}, ErrNotFound
	}
	return DecodeLayout(raw)
}

// SaveLayout implements LayoutStorage.
func (s *MemoryStorage) SaveLayout(_ context.Context, layout DashboardLayout) error {
	raw, err := EncodeLayout(layout)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[LayoutKey(layout.DashboardType)] = raw
	return nil
}

// DeleteLayout implements LayoutStorage.
func (s *MemoryStorage) DeleteLayout(_ context.Context, dashboardType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, LayoutKey(dashboardType))
	return nil
}

// ListLayouts implements LayoutStorage.
func (s *MemoryStorage) ListLayouts(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.data))
	for key := range s.data {
		if t, ok := DashboardTypeFromKey(key); ok {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out, nil
}

// SetRaw stores raw bytes under a dashboard type, bypassing validation.
func (s *MemoryStorage) SetRaw(dashboardType string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[LayoutKey(dashboardType)] = append([]byte(nil), raw...)
}

// FileStorage keeps one JSON file per dashboard type inside a directory.
type FileStorage struct {
	dir string
	mu  sync.Mutex
}

// NewFileStorage creates the directory if needed.
func NewFileStorage(dir string) (*FileStorage, error) {
	if dir == "" {
		return nil, errors.New("dashboard: file storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("dashboard: create storage dir %s: %w", dir, err)
	}
	return &FileStorage{dir: dir}, nil
}

var fileKeyReplacer = strings.NewReplacer(":", "__", "/", "_", "\\", "_")

func (s *FileStorage) path(dashboardType string) string {
	return filepath.Join(s.dir, fileKeyReplacer.Replace(LayoutKey(dashboardType))+".json")
}

// LoadLayout implements LayoutStorage.
func (s *FileStorage) LoadLayout(_ context.Context, dashboardType string) (DashboardLayout, error) {
	raw, err := os.ReadFile(s.path(dashboardType))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DashboardLayout{}, ErrNotFound
		}
		return DashboardLayout{}, fmt.Errorf("dashboard: read layout file: %w", err)
	}
	return DecodeLayout(raw)
}

// SaveLayout implements LayoutStorage. Writes go through a temp file and rename.
func (s *FileStorage) SaveLayout(_ context.Context, layout DashboardLayout) error {
	raw, err := EncodeLayout(layout)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	target := s.path(layout.DashboardType)
	tmp, err := os.CreateTemp(s.dir, ".layout-*.tmp")
	if err != nil {
		return fmt.Errorf("dashboard: create temp layout file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("dashboard: write layout file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("dashboard: close layout file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("dashboard: replace layout file: %w", err)
	}
	return nil
}

// DeleteLayout implements LayoutStorage.
func (s *FileStorage) DeleteLayout(_ context.Context, dashboardType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(dashboardType)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("dashboard: delete layout file: %w", err)
	}
	return nil
}

// ListLayouts implements LayoutStorage.
func (s *FileStorage) ListLayouts(context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("dashboard: list layouts: %w", err)
	}
	prefix := fileKeyReplacer.Replace(LayoutKeyPrefix)
	var out []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || filepath.Ext(name) != ".json" {
			continue
		}
		t := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json")
		if t != "" {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out, nil
}
