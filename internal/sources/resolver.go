package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"mixdown/internal/logging"
	"mixdown/internal/staging"
)

var (
	// ErrInvalidReference marks corrupt or unparseable input references.
	ErrInvalidReference = errors.New("invalid audio reference")
	// ErrFetch marks a failed remote retrieval.
	ErrFetch = errors.New("remote fetch failed")
)

// minViableSize is the smallest valid audio container header (a WAV header is
// 44 bytes). Anything smaller is rejected before a decode is attempted.
const minViableSize = 44

// mimeExtensions maps declared MIME types to staging file extensions.
// Unrecognized types fall back to a generic audio extension; the transcoder
// sniffs content, so the extension only has to be plausible.
var mimeExtensions = map[string]string{
	"audio/mpeg":  ".mp3",
	"audio/mp3":   ".mp3",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/wave":  ".wav",
	"audio/ogg":   ".ogg",
	"audio/aac":   ".aac",
	"audio/flac":  ".flac",
	"audio/mp4":   ".m4a",
	"audio/x-m4a": ".m4a",
	"audio/webm":  ".weba",
}

const genericExtension = ".audio"

// Resolver turns one Reference into a staged, readable file.
type Resolver struct {
	client  *http.Client
	logger  *slog.Logger
	timeout time.Duration
}

// NewResolver builds a resolver whose remote fetches are bounded by timeout.
func NewResolver(timeout time.Duration, logger *slog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Resolver{
		client:  &http.Client{Timeout: timeout},
		logger:  logging.NewComponentLogger(logger, "resolver"),
		timeout: timeout,
	}
}

// Resolve materializes ref as a file in the request's staging area and
// returns its path. Inline and remote references write exactly one new
// staging file; staged-path references pass through untouched.
func (r *Resolver) Resolve(ctx context.Context, area *staging.Area, ref Reference) (string, error) {
	var path string
	var err error
	switch ref.Kind() {
	case KindInline:
		path, err = r.resolveInline(area, ref)
	case KindRemote:
		path, err = r.resolveRemote(ctx, area, ref)
	case KindStagedPath:
		path, err = r.resolveStagedPath(ref)
	default:
		return "", fmt.Errorf("%w: unknown reference kind", ErrInvalidReference)
	}
	if err != nil {
		return "", err
	}
	if err := checkViable(path); err != nil {
		return "", err
	}
	return path, nil
}

func (r *Resolver) resolveInline(area *staging.Area, ref Reference) (string, error) {
	if len(ref.payload) == 0 {
		return "", fmt.Errorf("%w: empty inline payload", ErrInvalidReference)
	}
	path := area.NewFile("input", extensionFor(ref.mime))
	if err := os.WriteFile(path, ref.payload, 0o644); err != nil {
		return "", fmt.Errorf("stage inline payload: %w", err)
	}
	r.logger.Debug("staged inline payload",
		logging.String("mime", ref.mime),
		logging.Int("bytes", len(ref.payload)),
	)
	return path, nil
}

func (r *Resolver) resolveRemote(ctx context.Context, area *staging.Area, ref Reference) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %s", ErrFetch, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %s returned status %d", ErrFetch, ref.url, resp.StatusCode)
	}

	path := area.NewFile("input", extensionFor(resp.Header.Get("Content-Type")))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("stage remote payload: %w", err)
	}
	written, copyErr := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if copyErr != nil {
		return "", fmt.Errorf("%w: read body: %s", ErrFetch, copyErr)
	}
	if closeErr != nil {
		return "", fmt.Errorf("stage remote payload: %w", closeErr)
	}
	r.logger.Debug("staged remote reference",
		logging.String("url", ref.url),
		logging.Int64("bytes", written),
	)
	return path, nil
}

// resolveStagedPath passes a bare local path through untouched. The file is
// not tracked for cleanup because the pipeline does not own it.
func (r *Resolver) resolveStagedPath(ref Reference) (string, error) {
	info, err := os.Stat(ref.path)
	if err != nil {
		return "", fmt.Errorf("%w: local path %q: %s", ErrInvalidReference, ref.path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: local path %q is not a regular file", ErrInvalidReference, ref.path)
	}
	return ref.path, nil
}

func checkViable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: stat resolved file: %s", ErrInvalidReference, err)
	}
	if info.Size() < minViableSize {
		return fmt.Errorf("%w: resolved file is %d bytes, below the %d byte container minimum", ErrInvalidReference, info.Size(), minViableSize)
	}
	return nil
}

func extensionFor(mime string) string {
	mime = strings.TrimSpace(strings.ToLower(mime))
	if idx := strings.IndexByte(mime, ';'); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	if ext, ok := mimeExtensions[mime]; ok {
		return ext
	}
	return genericExtension
}
