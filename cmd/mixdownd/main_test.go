package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mixdown/internal/jobs"
	"mixdown/internal/logging"
	"mixdown/internal/testsupport"
)

func TestSweepOnceCleansStagingAndPrunesJobs(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	stale := filepath.Join(cfg.StagingDir, "merge-abandoned-request")
	if err := os.MkdirAll(stale, 0o755); err != nil {
		t.Fatalf("mkdir stale namespace: %v", err)
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("backdate namespace: %v", err)
	}

	job, err := store.NewJob(ctx, "req-old", "Old Mix", 1)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	job.Status = jobs.StatusCompleted
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("complete job: %v", err)
	}

	sweepOnce(ctx, cfg, store, time.Now().Add(time.Minute), logging.NewNop())

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale namespace should be removed, stat err=%v", err)
	}
	remaining, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected pruned job history, got %+v", remaining)
	}
}
