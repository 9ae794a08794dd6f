package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore stores objects as files under a base directory.
type LocalStore struct {
	basePath string
	baseURL  string
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore creates the base directory if needed.
func NewLocalStore(cfg LocalConfig) (*LocalStore, error) {
	if cfg.BasePath == "" {
		return nil, fmt.Errorf("local storage: base path is required")
	}
	if err := os.MkdirAll(cfg.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &LocalStore{
		basePath: cfg.BasePath,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

// Put writes body to basePath/key, replacing any existing file.
func (s *LocalStore) Put(_ context.Context, key string, body []byte, _ string) (string, error) {
	if key == "" || key != filepath.Base(key) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	if err := os.WriteFile(filepath.Join(s.basePath, key), body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// PublicURL returns baseURL/key.
func (s *LocalStore) PublicURL(key string) string {
	return s.baseURL + "/" + key
}
