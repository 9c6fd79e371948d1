package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// cleanPath normalizes a store path and rejects empty or directory-only
// values.
func cleanPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("storage: path is required")
	}
	cleaned := filepath.Clean(path)
	if cleaned == "." || strings.HasSuffix(path, string(filepath.Separator)) {
		return "", fmt.Errorf("storage: %q is not a file path", path)
	}
	return cleaned, nil
}

// ensureDir creates the parent directory of path.
func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("storage: ensure directory: %w", err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file next to path and renames it into
// place, so readers see either the old or the new content.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("storage: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("storage: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("storage: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("storage: replace file: %w", err)
	}
	return nil
}
