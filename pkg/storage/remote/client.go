// Package remote persists layouts through another dashboard editor instance's
// layout admin endpoints.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	dashboard "github.com/goliatone/go-dashboard-editor/components/dashboard"
)

// Config configures the HTTP layout storage.
type Config struct {
	// BaseURL points at the layouts collection, e.g. https://host/api/dashboard/layouts.
	BaseURL    string
	APIKey     string
	UserID     string
	Roles      []string
	HTTPClient *http.Client
}

// Storage implements dashboard.LayoutStorage over HTTP.
type Storage struct {
	baseURL string
	apiKey  string
	userID  string
	roles   string
	client  *http.Client
}

var _ dashboard.LayoutStorage = (*Storage)(nil)

// New builds a remote storage client.
func New(cfg Config) (*Storage, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Storage{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		userID:  cfg.UserID,
		roles:   strings.Join(cfg.Roles, ","),
		client:  httpClient,
	}, nil
}

type storedResponse struct {
	Layout dashboard.DashboardLayout `json:"layout"`
	Stored bool                      `json:"stored"`
}

type listResponse struct {
	DashboardTypes []string `json:"dashboardTypes"`
}

// LoadLayout implements dashboard.LayoutStorage. A default served by the remote
// counts as not found.
func (s *Storage) LoadLayout(ctx context.Context, dashboardType string) (dashboard.DashboardLayout, error) {
	var resp storedResponse
	if err := s.do(ctx, http.MethodGet, s.layoutPath(dashboardType), nil, &resp); err != nil {
		return dashboard.DashboardLayout{}, err
	}
	if !resp.Stored {
		return dashboard.DashboardLayout{}, dashboard.ErrNotFound
	}
	if err := dashboard.ValidateLayout(resp.Layout); err != nil {
		return dashboard.DashboardLayout{}, err
	}
	if resp.Layout.Widgets == nil {
		resp.Layout.Widgets = []dashboard.WidgetInstance{}
	}
	return resp.Layout, nil
}

// SaveLayout implements dashboard.LayoutStorage.
func (s *Storage) SaveLayout(ctx context.Context, layout dashboard.DashboardLayout) error {
	if err := dashboard.ValidateLayout(layout); err != nil {
		return err
	}
	return s.do(ctx, http.MethodPut, s.layoutPath(layout.DashboardType), layout, nil)
}

// DeleteLayout implements dashboard.LayoutStorage.
func (s *Storage) DeleteLayout(ctx context.Context, dashboardType string) error {
	return s.do(ctx, http.MethodDelete, s.layoutPath(dashboardType), nil, nil)
}

// ListLayouts implements dashboard.LayoutStorage.
func (s *Storage) ListLayouts(ctx context.Context) ([]string, error) {
	var resp listResponse
	if err := s.do(ctx, http.MethodGet, "", nil, &resp); err != nil {
		return nil, err
	}
	if resp.DashboardTypes == nil {
		return []string{}, nil
	}
	return resp.DashboardTypes, nil
}

func (s *Storage) layoutPath(dashboardType string) string {
	return "/" + url.PathEscape(dashboardType)
}

func (s *Storage) do(ctx context.Context, method, path string, payload any, target any) error {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("remote: encode payload: %w", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	if s.userID != "" {
		req.Header.Set("X-User-ID", s.userID)
	}
	if s.roles != "" {
		req.Header.Set("X-User-Roles", s.roles)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("remote: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(buf.String())}
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("remote: decode response: %w", err)
	}
	return nil
}

// StatusError reports a non-2xx answer from the remote.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote: %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}
