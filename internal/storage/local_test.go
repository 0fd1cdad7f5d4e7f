package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mixdown/internal/logging"
	"mixdown/internal/storage"
)

func TestLocalUploadAndFetchRoundTrip(t *testing.T) {
	backend, err := storage.NewLocal(t.TempDir(), "", logging.NewNop())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	url, err := backend.Upload(context.Background(), "morning-meditation.wav", storage.CategoryAudio, []byte("wav bytes"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if url != "/audio/morning-meditation.wav" {
		t.Fatalf("unexpected url: %q", url)
	}

	data, err := backend.Fetch(context.Background(), "morning-meditation.wav", storage.CategoryAudio)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(data) != "wav bytes" {
		t.Fatalf("unexpected contents: %q", data)
	}
}

func TestLocalUploadUsesPublicBaseURL(t *testing.T) {
	backend, err := storage.NewLocal(t.TempDir(), "https://media.example.com/", logging.NewNop())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	url, err := backend.Upload(context.Background(), "list.json", storage.CategoryConfigs, []byte("[]"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if url != "https://media.example.com/configs/list.json" {
		t.Fatalf("unexpected url: %q", url)
	}
}

func TestLocalFetchMissingReturnsNotFound(t *testing.T) {
	backend, err := storage.NewLocal(t.TempDir(), "", logging.NewNop())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	_, err = backend.Fetch(context.Background(), "nope.json", storage.CategoryConfigs)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalUploadOverwritesAtomically(t *testing.T) {
	root := t.TempDir()
	backend, err := storage.NewLocal(root, "", logging.NewNop())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	ctx := context.Background()
	if _, err := backend.Upload(ctx, "doc.json", storage.CategoryConfigs, []byte("one")); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if _, err := backend.Upload(ctx, "doc.json", storage.CategoryConfigs, []byte("two")); err != nil {
		t.Fatalf("second upload: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "configs", "doc.json"))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "two" {
		t.Fatalf("expected overwrite, got %q", data)
	}
}

func TestLocalRejectsPathTraversal(t *testing.T) {
	backend, err := storage.NewLocal(t.TempDir(), "", logging.NewNop())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	if _, err := backend.Upload(context.Background(), "../escape.wav", storage.CategoryAudio, []byte("x")); err == nil {
		t.Fatal("expected error for name containing path separator")
	}
	if _, err := backend.Fetch(context.Background(), "..", storage.CategoryConfigs); err == nil {
		t.Fatal("expected error for dot-dot name")
	}
}
