package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/arbor/pkg/ports"
)

// Cache implements ports.TreeCache on the local filesystem.
// Each entry is one JSON file in BasePath.
type Cache struct {
	BasePath string
}

// New creates a file cache. If basePath is empty, it defaults to ".arbor/cache".
func New(basePath string) *Cache {
	if basePath == "" {
		basePath = filepath.Join(".arbor", "cache")
	}
	return &Cache{BasePath: basePath}
}

var keyReplacer = strings.NewReplacer(":", "_", "/", "_", "\\", "_")

func (c *Cache) path(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("cache key cannot be empty")
	}
	return filepath.Join(c.BasePath, keyReplacer.Replace(key)+".json"), nil
}

// Get reads the entry for key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := c.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ports.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	return data, nil
}

// Put writes the entry atomically: a synced temp file in the same
// directory is renamed over the destination.
func (c *Cache) Put(ctx context.Context, key string, data []byte) error {
	dest, err := c.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(c.BasePath, "tmp-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename does not replace an existing file on Windows.
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to replace cache file: %w", err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Delete removes the entry for key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	path, err := c.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}
	return nil
}
