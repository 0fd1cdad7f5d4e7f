package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"mixdown/internal/fileutil"
	"mixdown/internal/logging"
)

// Local stores artifacts on the filesystem under a root directory, one
// subdirectory per category. Writes take an advisory lock so same-host
// processes never interleave partial documents; cross-host coordination is
// out of scope for this backend.
type Local struct {
	root          string
	publicBaseURL string
	lock          *flock.Flock
	logger        *slog.Logger
}

// NewLocal builds a filesystem backend rooted at root. publicBaseURL, when
// set, prefixes returned URLs; otherwise URLs are root-relative.
func NewLocal(root, publicBaseURL string, logger *slog.Logger) (*Local, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("storage root not configured")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Local{
		root:          root,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
		lock:          flock.New(filepath.Join(root, ".mixdown.lock")),
		logger:        logging.NewComponentLogger(logger, "storage"),
	}, nil
}

// Upload persists data under category/name and returns its URL.
func (l *Local) Upload(ctx context.Context, name, category string, data []byte) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	category, err = cleanName(category)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(l.root, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create category directory: %w", err)
	}

	if err := l.lock.Lock(); err != nil {
		return "", fmt.Errorf("acquire storage lock: %w", err)
	}
	defer func() {
		if unlockErr := l.lock.Unlock(); unlockErr != nil {
			l.logger.Warn("release storage lock failed", logging.Error(unlockErr))
		}
	}()

	path := filepath.Join(dir, name)
	if err := fileutil.WriteAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s/%s: %w", category, name, err)
	}

	l.logger.Debug("stored artifact",
		logging.String("category", category),
		logging.String("name", name),
		logging.Int("bytes", len(data)),
	)
	return l.urlFor(category, name), nil
}

// Fetch retrieves category/name, or ErrNotFound when absent.
func (l *Local) Fetch(ctx context.Context, name, category string) ([]byte, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	category, err = cleanName(category)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(l.root, category, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, category, name)
		}
		return nil, fmt.Errorf("read %s/%s: %w", category, name, err)
	}
	return data, nil
}

func (l *Local) urlFor(category, name string) string {
	if l.publicBaseURL != "" {
		return l.publicBaseURL + "/" + category + "/" + name
	}
	return "/" + category + "/" + name
}

func cleanName(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("empty storage name")
	}
	if strings.ContainsAny(value, "/\\") || value == "." || value == ".." {
		return "", fmt.Errorf("storage name %q must not contain path separators", value)
	}
	return value, nil
}
