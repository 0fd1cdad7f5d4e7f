package merge_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mixdown/internal/catalog"
	"mixdown/internal/jobs"
	"mixdown/internal/logging"
	"mixdown/internal/merge"
	"mixdown/internal/services"
	"mixdown/internal/sources"
	"mixdown/internal/testsupport"
)

func noSleep(context.Context, time.Duration) error { return nil }

type fixture struct {
	pipeline *merge.Pipeline
	jobs     *jobs.Store
	catalog  *catalog.Synchronizer
	staging  string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	backend := testsupport.MustOpenBackend(t, cfg)
	store := testsupport.MustOpenStore(t, cfg)
	policy := catalog.RetryPolicy{Attempts: 1, Backoff: []time.Duration{0}, Sleep: noSleep}
	syncer := catalog.NewSynchronizer(backend, cfg.CatalogDocument, cfg.PublicBaseURL, policy, logging.NewNop())
	pipeline := merge.NewPipeline(cfg, backend, syncer, store, nil, logging.NewNop())
	return fixture{pipeline: pipeline, jobs: store, catalog: syncer, staging: cfg.StagingDir}
}

func stagedWAV(t *testing.T, dir, name string) sources.Reference {
	t.Helper()
	path := filepath.Join(dir, name)
	testsupport.WriteWAV(t, path, 1024)
	return sources.StagedPath(path)
}

func TestPipelineMergesStagedFiles(t *testing.T) {
	fx := newFixture(t)
	inputs := t.TempDir()

	result, err := fx.pipeline.Run(context.Background(), merge.Request{
		Title: "Morning Meditation",
		References: []sources.Reference{
			stagedWAV(t, inputs, "one.wav"),
			stagedWAV(t, inputs, "two.wav"),
		},
		Config: []byte(`{"volume": 0.8}`),
	})
	if err != nil {
		t.Fatalf("pipeline run: %v", err)
	}

	if result.ArtifactURL != "/audio/morning-meditation.wav" {
		t.Fatalf("unexpected artifact url %q", result.ArtifactURL)
	}
	if result.ConfigURL != "/configs/morning-meditation.json" {
		t.Fatalf("unexpected config url %q", result.ConfigURL)
	}
	if result.RecordID == "" {
		t.Fatal("expected a catalog record id")
	}

	job, err := fx.jobs.GetByID(context.Background(), result.JobID)
	if err != nil || job == nil {
		t.Fatalf("load job: %v %v", job, err)
	}
	if job.Status != jobs.StatusCompleted {
		t.Fatalf("expected completed job, got %s (%s)", job.Status, job.ErrorMessage)
	}
	if job.ArtifactURL != result.ArtifactURL || job.RecordID != result.RecordID {
		t.Fatalf("job missing outcome fields: %+v", job)
	}

	col, err := fx.catalog.Collection(context.Background())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if len(col) != 1 || col[0].ID != result.RecordID {
		t.Fatalf("catalog record not synced: %+v", col)
	}
	if col[0].URL == nil || *col[0].URL != result.ArtifactURL {
		t.Fatalf("catalog url mismatch: %+v", col[0])
	}
	if col[0].Placeholder != "Morning Meditation" {
		t.Fatalf("expected placeholder label derived from artifact name, got %q", col[0].Placeholder)
	}

	entries, err := os.ReadDir(fx.staging)
	if err != nil {
		t.Fatalf("read staging dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("staging not cleaned up: %v", entries)
	}
}

func TestPipelineRejectsEmptyRequest(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.pipeline.Run(context.Background(), merge.Request{Title: "Empty"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	all, err := fx.jobs.List(context.Background())
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("invalid request should not create a job: %+v", all)
	}
}

func TestPipelineFailsOnUnviableReference(t *testing.T) {
	fx := newFixture(t)
	inputs := t.TempDir()
	tiny := filepath.Join(inputs, "tiny.wav")
	testsupport.WriteFile(t, tiny, 10)

	_, err := fx.pipeline.Run(context.Background(), merge.Request{
		Title:      "Broken",
		References: []sources.Reference{sources.StagedPath(tiny)},
	})
	if !errors.Is(err, sources.ErrInvalidReference) {
		t.Fatalf("expected invalid reference error, got %v", err)
	}

	all, err := fx.jobs.List(context.Background())
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(all) != 1 || all[0].Status != jobs.StatusFailed {
		t.Fatalf("expected one failed job: %+v", all)
	}
	if all[0].ErrorMessage == "" {
		t.Fatal("failed job should carry the error message")
	}

	entries, err := os.ReadDir(fx.staging)
	if err != nil {
		t.Fatalf("read staging dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("staging not cleaned after failure: %v", entries)
	}
}

func TestPipelineSequentialMergesAccumulateCatalog(t *testing.T) {
	fx := newFixture(t)
	inputs := t.TempDir()

	for _, title := range []string{"Mix A", "Mix B"} {
		if _, err := fx.pipeline.Run(context.Background(), merge.Request{
			Title:      title,
			References: []sources.Reference{stagedWAV(t, inputs, title+".wav")},
		}); err != nil {
			t.Fatalf("run %s: %v", title, err)
		}
	}
	col, err := fx.catalog.Collection(context.Background())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if len(col) != 2 {
		t.Fatalf("expected 2 records, got %+v", col)
	}
}

func TestPipelineWarnsOnDurationDivergence(t *testing.T) {
	// The probe stub reports 10s for every file, so two inputs sum to 20s
	// while the merged output still probes at 10s.
	cfg := testsupport.NewConfig(t, testsupport.WithProbedDuration(10))
	backend := testsupport.MustOpenBackend(t, cfg)
	store := testsupport.MustOpenStore(t, cfg)
	policy := catalog.RetryPolicy{Attempts: 1, Backoff: []time.Duration{0}, Sleep: noSleep}
	syncer := catalog.NewSynchronizer(backend, cfg.CatalogDocument, cfg.PublicBaseURL, policy, logging.NewNop())

	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))
	pipeline := merge.NewPipeline(cfg, backend, syncer, store, nil, logger)

	inputs := t.TempDir()
	result, err := pipeline.Run(context.Background(), merge.Request{
		Title: "Two Part Mix",
		References: []sources.Reference{
			stagedWAV(t, inputs, "a.wav"),
			stagedWAV(t, inputs, "b.wav"),
		},
	})
	if err != nil {
		t.Fatalf("pipeline run: %v", err)
	}
	if result.ArtifactURL == "" {
		t.Fatal("divergence is diagnostic only, the merge must still publish")
	}
	if !strings.Contains(logBuf.String(), "merged duration diverges from inputs") {
		t.Fatalf("expected a divergence warning, logs:\n%s", logBuf.String())
	}
}
