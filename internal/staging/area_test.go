package staging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mixdown/internal/logging"
	"mixdown/internal/staging"
)

func TestAreaTracksAndCleansFiles(t *testing.T) {
	dir := t.TempDir()
	area, err := staging.NewArea(dir, "req-1", logging.NewNop())
	if err != nil {
		t.Fatalf("NewArea failed: %v", err)
	}

	first := area.NewFile("input", ".mp3")
	second := area.NewFile("normalized", ".wav")
	for _, path := range []string{first, second} {
		if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
			t.Fatalf("write staged file: %v", err)
		}
	}
	if area.TrackedCount() != 2 {
		t.Fatalf("expected 2 tracked files, got %d", area.TrackedCount())
	}

	area.Cleanup()

	if _, err := os.Stat(area.Root()); !os.IsNotExist(err) {
		t.Fatalf("expected namespace removed, stat err = %v", err)
	}
}

func TestAreaCleanupIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	area, err := staging.NewArea(dir, "req-2", logging.NewNop())
	if err != nil {
		t.Fatalf("NewArea failed: %v", err)
	}
	area.Cleanup()
	area.Cleanup()
}

func TestConcurrentAreasDoNotCollide(t *testing.T) {
	dir := t.TempDir()
	a, err := staging.NewArea(dir, "same-id", logging.NewNop())
	if err != nil {
		t.Fatalf("NewArea failed: %v", err)
	}
	b, err := staging.NewArea(dir, "same-id", logging.NewNop())
	if err != nil {
		t.Fatalf("NewArea failed: %v", err)
	}
	if a.Root() == b.Root() {
		t.Fatalf("expected distinct namespaces for identical request ids, both %q", a.Root())
	}
}

func TestCleanStaleRemovesOldNamespaces(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, "merge-old-abc12345")
	if err := os.MkdirAll(stale, 0o755); err != nil {
		t.Fatalf("mkdir stale: %v", err)
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	fresh := filepath.Join(dir, "merge-new-def67890")
	if err := os.MkdirAll(fresh, 0o755); err != nil {
		t.Fatalf("mkdir fresh: %v", err)
	}

	unrelated := filepath.Join(dir, "keep-me")
	if err := os.MkdirAll(unrelated, 0o755); err != nil {
		t.Fatalf("mkdir unrelated: %v", err)
	}
	if err := os.Chtimes(unrelated, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	result := staging.CleanStale(context.Background(), dir, 24*time.Hour, logging.NewNop())

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected cleanup errors: %v", result.Errors)
	}
	if len(result.Removed) != 1 || !strings.Contains(result.Removed[0], "merge-old") {
		t.Fatalf("unexpected removed set: %v", result.Removed)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("expected fresh namespace kept: %v", err)
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Fatalf("expected unrelated directory kept: %v", err)
	}
}
