package testsupport

import (
	"testing"

	"mixdown/internal/config"
	"mixdown/internal/jobs"
	"mixdown/internal/storage"
)

// MustOpenStore opens a jobs.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenBackend builds a local storage backend rooted at the test config's
// storage directory.
func MustOpenBackend(t testing.TB, cfg *config.Config) *storage.Local {
	t.Helper()

	backend, err := storage.NewLocal(cfg.StorageDir, cfg.PublicBaseURL, nil)
	if err != nil {
		t.Fatalf("storage.NewLocal: %v", err)
	}
	return backend
}
