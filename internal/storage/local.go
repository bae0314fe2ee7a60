package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

// publishedDir is the subdirectory of the temp dir LocalStorage publishes into.
const publishedDir = "published"

// LocalStorage implements the Storage interface using local disk.
// Published artifacts are copied under <tempDir>/published and addressed
// with file:// URLs, which is only useful when no S3 bucket is configured.
type LocalStorage struct {
	tempDir string
}

// NewLocalStorage creates a new LocalStorage instance.
// If tempDir is empty, a "mediacompose" directory under os.TempDir() is used.
// The directory is created if it doesn't exist.
func NewLocalStorage(tempDir string) (*LocalStorage, error) {
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "mediacompose")
	}

	if err := os.MkdirAll(tempDir, 0750); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}

	return &LocalStorage{tempDir: tempDir}, nil
}

// TempDir returns the temporary directory path.
func (s *LocalStorage) TempDir() string {
	return s.tempDir
}

// NewWorkDir creates a unique directory below the temp dir.
func (s *LocalStorage) NewWorkDir(ctx context.Context, prefix string) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	dir, err := os.MkdirTemp(s.tempDir, sanitize(prefix)+"_*")
	if err != nil {
		return "", fmt.Errorf("create work directory: %w", err)
	}
	return dir, nil
}

// CleanupDir removes dir recursively. Paths outside the temp dir are refused.
func (s *LocalStorage) CleanupDir(_ context.Context, dir string) error {
	if dir == "" {
		return nil
	}
	rel, err := filepath.Rel(s.tempDir, dir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("refusing to remove %s: not inside %s", dir, s.tempDir)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove work directory %s: %w", dir, err)
	}
	return nil
}

// Publish copies localPath under <tempDir>/published/<key> and returns its file:// URL.
func (s *LocalStorage) Publish(ctx context.Context, key, localPath string) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	dest := filepath.Join(s.tempDir, publishedDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return "", fmt.Errorf("create publish directory: %w", err)
	}

	src, err := os.Open(localPath) // #nosec G304 - path is produced by the render pipeline
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer func() { _ = src.Close() }()

	pending, err := renameio.NewPendingFile(dest)
	if err != nil {
		return "", fmt.Errorf("create pending artifact: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	if _, err := io.Copy(pending, src); err != nil {
		return "", fmt.Errorf("copy artifact: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("commit artifact: %w", err)
	}

	abs, err := filepath.Abs(dest)
	if err != nil {
		return "", fmt.Errorf("resolve artifact path: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// sanitize keeps a prefix usable as a directory name.
func sanitize(prefix string) string {
	if prefix == "" {
		return "work"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, prefix)
}

// Verify interface implementation at compile time.
var _ Storage = (*LocalStorage)(nil)
