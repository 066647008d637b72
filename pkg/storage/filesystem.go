package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage keeps rendered report files on disk under one base directory.
// Relative paths are confined to that directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./reports"
	}
	absolute, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve reports directory: %w", err)
	}
	if err := os.MkdirAll(absolute, 0o755); err != nil {
		return nil, fmt.Errorf("create reports directory: %w", err)
	}
	return &LocalStorage{baseDir: absolute}, nil
}

// Save writes the bytes to the relative path, creating parent directories as
// needed, and returns the stored relative path.
func (s *LocalStorage) Save(relPath string, data []byte) (string, error) {
	target, err := s.resolve(relPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare report directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write report file: %w", err)
	}
	return relPath, nil
}

// Open returns a read-only handle for a stored report.
func (s *LocalStorage) Open(relPath string) (*os.File, error) {
	target, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("open report file: %w", err)
	}
	return file, nil
}

// CleanupOlderThan deletes stored reports whose files are older than the TTL
// and returns their relative paths. Signed tokens for those files have
// already expired.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	var deleted []string
	err := filepath.WalkDir(s.baseDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		if rel, err := filepath.Rel(s.baseDir, path); err == nil {
			deleted = append(deleted, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup reports: %w", err)
	}
	return deleted, nil
}

// resolve joins the relative path under the base directory, rejecting
// anything that would escape it.
func (s *LocalStorage) resolve(relPath string) (string, error) {
	joined := filepath.Join(s.baseDir, filepath.Clean("/"+relPath))
	if joined != s.baseDir && !strings.HasPrefix(joined, s.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes storage root", relPath)
	}
	return joined, nil
}
