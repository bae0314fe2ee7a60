package storage

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLocalStorage(t *testing.T) {
	t.Run("creates directory if not exists", func(t *testing.T) {
		tempDir := filepath.Join(t.TempDir(), "nested", "scratch")

		storage, err := NewLocalStorage(tempDir)
		if err != nil {
			t.Fatalf("NewLocalStorage() error = %v", err)
		}

		if storage.TempDir() != tempDir {
			t.Errorf("TempDir() = %v, want %v", storage.TempDir(), tempDir)
		}

		info, err := os.Stat(tempDir)
		if err != nil {
			t.Fatalf("directory not created: %v", err)
		}
		if !info.IsDir() {
			t.Error("expected directory, got file")
		}
	})

	t.Run("uses default directory when empty", func(t *testing.T) {
		storage, err := NewLocalStorage("")
		if err != nil {
			t.Fatalf("NewLocalStorage() error = %v", err)
		}

		expected := filepath.Join(os.TempDir(), "mediacompose")
		if storage.TempDir() != expected {
			t.Errorf("TempDir() = %v, want %v", storage.TempDir(), expected)
		}
	})
}

func TestLocalStorage_NewWorkDir(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	first, err := storage.NewWorkDir(ctx, "merge")
	if err != nil {
		t.Fatalf("NewWorkDir() error = %v", err)
	}
	second, err := storage.NewWorkDir(ctx, "merge")
	if err != nil {
		t.Fatalf("NewWorkDir() error = %v", err)
	}

	if first == second {
		t.Error("work directories must be unique")
	}
	if filepath.Dir(first) != storage.TempDir() {
		t.Errorf("work dir %s not under %s", first, storage.TempDir())
	}
	if !strings.HasPrefix(filepath.Base(first), "merge_") {
		t.Errorf("expected prefix merge_, got %s", filepath.Base(first))
	}
}

func TestLocalStorage_NewWorkDir_SanitizesPrefix(t *testing.T) {
	storage := setupTestStorage(t)

	dir, err := storage.NewWorkDir(context.Background(), "../job/../x")
	if err != nil {
		t.Fatalf("NewWorkDir() error = %v", err)
	}
	if filepath.Dir(dir) != storage.TempDir() {
		t.Errorf("work dir escaped temp dir: %s", dir)
	}
}

func TestLocalStorage_NewWorkDir_ContextCancelled(t *testing.T) {
	storage := setupTestStorage(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := storage.NewWorkDir(ctx, "merge"); err == nil {
		t.Error("expected error with cancelled context")
	}
}

func TestLocalStorage_CleanupDir(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	t.Run("removes directory and contents", func(t *testing.T) {
		dir, err := storage.NewWorkDir(ctx, "job")
		if err != nil {
			t.Fatalf("NewWorkDir() error = %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}

		if err := storage.CleanupDir(ctx, dir); err != nil {
			t.Fatalf("CleanupDir() error = %v", err)
		}
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Error("directory should have been removed")
		}
	})

	t.Run("missing directory is not an error", func(t *testing.T) {
		if err := storage.CleanupDir(ctx, filepath.Join(storage.TempDir(), "gone")); err != nil {
			t.Errorf("CleanupDir() error = %v", err)
		}
	})

	t.Run("refuses paths outside temp dir", func(t *testing.T) {
		outside := t.TempDir()
		if err := storage.CleanupDir(ctx, outside); err == nil {
			t.Error("expected error for path outside temp dir")
		}
		if err := storage.CleanupDir(ctx, storage.TempDir()); err == nil {
			t.Error("expected error for the temp dir itself")
		}
		if _, err := os.Stat(outside); err != nil {
			t.Errorf("outside directory should still exist: %v", err)
		}
	})
}

func TestLocalStorage_Publish(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "final.mp4")
	if err := os.WriteFile(src, []byte("rendered"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := storage.Publish(ctx, "longform/longform-abc.mp4", src)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("invalid URL %q: %v", got, err)
	}
	if u.Scheme != "file" {
		t.Errorf("scheme = %s, want file", u.Scheme)
	}

	data, err := os.ReadFile(filepath.FromSlash(u.Path))
	if err != nil {
		t.Fatalf("published file missing: %v", err)
	}
	if string(data) != "rendered" {
		t.Errorf("got %q, want %q", data, "rendered")
	}
}

func TestLocalStorage_Publish_MissingSource(t *testing.T) {
	storage := setupTestStorage(t)

	if _, err := storage.Publish(context.Background(), "a.mp4", "/nonexistent/a.mp4"); err == nil {
		t.Error("expected error for missing source")
	}
}

func setupTestStorage(t *testing.T) *LocalStorage {
	t.Helper()

	storage, err := NewLocalStorage(filepath.Join(t.TempDir(), "scratch"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	return storage
}
