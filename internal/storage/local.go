package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// localStorage implements Service on the local filesystem. All keys resolve
// under a single root directory; traversal outside it is rejected.
type localStorage struct {
	root string
}

// NewLocal creates a filesystem-backed storage rooted at dir, creating the
// directory if needed.
func NewLocal(dir string) (Service, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage root directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &localStorage{root: abs}, nil
}

// resolve maps a relative key onto an absolute path inside the root.
func (l *localStorage) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(l.root, clean), nil
}

func (l *localStorage) Save(ctx context.Context, key string, data []byte) (string, error) {
	abs, err := l.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("create parent directories: %w", err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return key, nil
}

func (l *localStorage) Read(ctx context.Context, key string) ([]byte, error) {
	abs, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

func (l *localStorage) Exists(ctx context.Context, key string) (bool, error) {
	abs, err := l.resolve(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat file: %w", err)
	}
	return true, nil
}
