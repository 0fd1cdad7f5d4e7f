package jobs_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"mixdown/internal/jobs"
)

func openStore(t *testing.T) *jobs.Store {
	t.Helper()
	store, err := jobs.OpenPath(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewJobStartsPending(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	item, err := store.NewJob(ctx, "req-1", "Morning Mix", 3)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if item.Status != jobs.StatusPending {
		t.Fatalf("expected pending, got %s", item.Status)
	}
	if item.RequestID != "req-1" || item.Title != "Morning Mix" || item.InputCount != 3 {
		t.Fatalf("fields not persisted: %+v", item)
	}
	if item.CreatedAt.IsZero() || item.UpdatedAt.IsZero() {
		t.Fatal("timestamps not set")
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	store := openStore(t)
	item, err := store.GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if item != nil {
		t.Fatalf("expected nil for missing job, got %+v", item)
	}
}

func TestUpdateAdvancesStatus(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	item, err := store.NewJob(ctx, "req-1", "Mix", 2)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	item.Status = jobs.StatusPublishing
	item.ArtifactURL = "/audio/mix.wav"
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("update: %v", err)
	}

	loaded, err := store.GetByRequestID(ctx, "req-1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Status != jobs.StatusPublishing || loaded.ArtifactURL != "/audio/mix.wav" {
		t.Fatalf("update not persisted: %+v", loaded)
	}
	if !loaded.UpdatedAt.After(loaded.CreatedAt) && !loaded.UpdatedAt.Equal(loaded.CreatedAt) {
		t.Fatalf("updated_at regressed: %v < %v", loaded.UpdatedAt, loaded.CreatedAt)
	}
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	item, err := store.NewJob(ctx, "req-1", "Mix", 1)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	item.Status = jobs.Status("exploded")
	if err := store.Update(ctx, item); err == nil {
		t.Fatal("expected invalid status to be rejected")
	}
}

func TestListFiltersByStatus(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, req := range []string{"req-1", "req-2", "req-3"} {
		if _, err := store.NewJob(ctx, req, "Mix", 1); err != nil {
			t.Fatalf("new job %s: %v", req, err)
		}
	}
	second, err := store.GetByRequestID(ctx, "req-2")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	second.Status = jobs.StatusCompleted
	if err := store.Update(ctx, second); err != nil {
		t.Fatalf("update: %v", err)
	}

	completed, err := store.List(ctx, jobs.StatusCompleted)
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	if len(completed) != 1 || completed[0].RequestID != "req-2" {
		t.Fatalf("unexpected completed list: %+v", completed)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(all))
	}
	if all[0].RequestID != "req-3" {
		t.Fatalf("expected newest first, got %s", all[0].RequestID)
	}
}

func TestFailInFlightSparesTerminalJobs(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	running, err := store.NewJob(ctx, "req-run", "Mix", 1)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	running.Status = jobs.StatusNormalizing
	if err := store.Update(ctx, running); err != nil {
		t.Fatalf("update: %v", err)
	}

	done, err := store.NewJob(ctx, "req-done", "Mix", 1)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	done.Status = jobs.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("update: %v", err)
	}

	affected, err := store.FailInFlight(ctx, "")
	if err != nil {
		t.Fatalf("fail in-flight: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 job failed, got %d", affected)
	}

	reloaded, err := store.GetByRequestID(ctx, "req-run")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != jobs.StatusFailed || reloaded.ErrorMessage != jobs.ShutdownStopReason {
		t.Fatalf("in-flight job not failed: %+v", reloaded)
	}

	keptDone, err := store.GetByRequestID(ctx, "req-done")
	if err != nil {
		t.Fatalf("reload done: %v", err)
	}
	if keptDone.Status != jobs.StatusCompleted {
		t.Fatalf("terminal job should be untouched: %+v", keptDone)
	}
}

func TestHealthBuckets(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, err := store.NewJob(ctx, "req-1", "Mix", 1); err != nil {
		t.Fatalf("new job: %v", err)
	}
	item, err := store.NewJob(ctx, "req-2", "Mix", 1)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	item.Status = jobs.StatusSyncing
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("update: %v", err)
	}

	summary, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if summary.Total != 2 || summary.Pending != 1 || summary.Processing != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestPruneDeletesOldTerminalJobs(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	item, err := store.NewJob(ctx, "req-old", "Mix", 1)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	item.Status = jobs.StatusFailed
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("update: %v", err)
	}

	removed, err := store.Prune(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned job, got %d", removed)
	}

	kept, err := store.GetByRequestID(ctx, "req-old")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if kept != nil {
		t.Fatalf("pruned job still present: %+v", kept)
	}
}
