package staging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"mixdown/internal/logging"
)

// Area tracks every ephemeral file created for one merge request and
// guarantees best-effort cleanup on every exit path. The namespace directory
// carries a random component so concurrent merges never collide.
type Area struct {
	root      string
	requestID string
	logger    *slog.Logger

	mu      sync.Mutex
	tracked []string
	done    bool
}

// NewArea creates the staging namespace for one request under stagingDir.
func NewArea(stagingDir, requestID string, logger *slog.Logger) (*Area, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil, fmt.Errorf("staging directory not configured")
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	root := filepath.Join(stagingDir, "merge-"+requestID+"-"+uuid.NewString()[:8])
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create staging namespace: %w", err)
	}
	return &Area{
		root:      root,
		requestID: requestID,
		logger:    logging.NewComponentLogger(logger, "staging"),
	}, nil
}

// Root returns the namespace directory owned by this request.
func (a *Area) Root() string {
	return a.root
}

// RequestID returns the owning request identifier.
func (a *Area) RequestID() string {
	return a.requestID
}

// NewFile reserves a tracked path inside the namespace. The label keeps
// staging listings readable; ext must include the leading dot.
func (a *Area) NewFile(label, ext string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		label = "file"
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	name := fmt.Sprintf("%s-%03d%s", label, len(a.tracked), ext)
	path := filepath.Join(a.root, name)
	a.tracked = append(a.tracked, path)
	return path
}

// TrackedCount reports how many files this request has registered.
func (a *Area) TrackedCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.tracked)
}

// Cleanup deletes every tracked file and the namespace directory. Deletion
// failures are logged, never escalated; a persistent failure leaks disk space
// and surfaces through the staging_cleanup_failed event. Safe to call more
// than once.
func (a *Area) Cleanup() {
	a.mu.Lock()
	if a.done {
		a.mu.Unlock()
		return
	}
	a.done = true
	tracked := a.tracked
	a.tracked = nil
	a.mu.Unlock()

	for _, path := range tracked {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logging.WarnWithContext(a.logger, "failed to remove staging file", "staging_cleanup_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
		}
	}
	if err := os.RemoveAll(a.root); err != nil {
		logging.WarnWithContext(a.logger, "failed to remove staging namespace", "staging_cleanup_failed",
			logging.String("path", a.root),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
			logging.String(logging.FieldImpact, "disk space not reclaimed"),
		)
		return
	}
	a.logger.Debug("staging namespace removed",
		logging.String("path", a.root),
		logging.String("request_id", a.requestID),
	)
}
