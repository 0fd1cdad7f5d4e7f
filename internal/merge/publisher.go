package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"mixdown/internal/logging"
	"mixdown/internal/storage"
	"mixdown/internal/textutil"
)

// ErrPublish marks a failure to place the merged artifact in storage.
var ErrPublish = errors.New("publish failed")

// Published reports where the artifact and its optional companion descriptor
// landed.
type Published struct {
	Name        string
	ArtifactURL string
	ConfigURL   string
	Size        int64
}

// Publisher uploads merge outputs to the storage backend. The artifact
// upload is fatal; the companion descriptor upload is best effort.
type Publisher struct {
	store  storage.Backend
	logger *slog.Logger
	now    func() time.Time
}

// NewPublisher builds a publisher over the given backend.
func NewPublisher(store storage.Backend, logger *slog.Logger) *Publisher {
	return &Publisher{
		store:  store,
		logger: logging.NewComponentLogger(logger, "publisher"),
		now:    time.Now,
	}
}

// Publish uploads the merged WAV at artifactPath under a name derived from
// title, then uploads configData next to it when present. A title that
// reduces to an empty slug falls back to a timestamped name.
func (p *Publisher) Publish(ctx context.Context, title, artifactPath string, configData []byte) (Published, error) {
	data, err := os.ReadFile(artifactPath)
	if err != nil {
		return Published{}, fmt.Errorf("%w: read artifact: %s", ErrPublish, err)
	}

	base := textutil.Slug(title)
	if base == "" {
		base = "merge-" + p.now().UTC().Format("20060102-150405")
	}

	artifactURL, err := p.store.Upload(ctx, base+".wav", storage.CategoryAudio, data)
	if err != nil {
		return Published{}, fmt.Errorf("%w: upload artifact: %s", ErrPublish, err)
	}

	out := Published{
		Name:        base,
		ArtifactURL: artifactURL,
		Size:        int64(len(data)),
	}

	if len(configData) > 0 {
		configURL, err := p.store.Upload(ctx, base+".json", storage.CategoryConfigs, configData)
		if err != nil {
			// Companion descriptor loss is recoverable; the artifact is not.
			logging.WarnWithContext(p.logger, "companion descriptor upload failed", "config_upload_failed",
				logging.String("name", base+".json"),
				logging.Error(err),
				logging.String(logging.FieldImpact, "catalog record will carry no config url"),
			)
		} else {
			out.ConfigURL = configURL
		}
	}

	p.logger.Info("artifact published",
		logging.String("name", out.Name),
		logging.String("url", out.ArtifactURL),
		logging.Int64("bytes", out.Size),
	)
	return out, nil
}

// DisplayName picks the catalog-facing name for a merge: the trimmed title
// when present, otherwise the published base name.
func DisplayName(title, published string) string {
	if title = strings.TrimSpace(title); title != "" {
		return title
	}
	return textutil.TitleLabel(published)
}
