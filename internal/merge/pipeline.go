package merge

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"mixdown/internal/catalog"
	"mixdown/internal/config"
	"mixdown/internal/jobs"
	"mixdown/internal/logging"
	"mixdown/internal/media/ffmpeg"
	"mixdown/internal/media/ffprobe"
	"mixdown/internal/notifications"
	"mixdown/internal/services"
	"mixdown/internal/sources"
	"mixdown/internal/staging"
	"mixdown/internal/storage"
	"mixdown/internal/textutil"
)

// durationTolerance bounds how far the merged output may drift from the sum
// of its normalized inputs before a diagnostic is logged.
const durationTolerance = 1.0

// Pipeline runs merge requests end to end: resolve, normalize, concatenate,
// publish, sync. Every request gets its own staging area that is cleaned up
// on every exit path.
type Pipeline struct {
	cfg       *config.Config
	resolver  *sources.Resolver
	publisher *Publisher
	catalog   *catalog.Synchronizer
	jobs      *jobs.Store
	notifier  notifications.Service
	logger    *slog.Logger
}

// NewPipeline wires a pipeline from its collaborators.
func NewPipeline(
	cfg *config.Config,
	store storage.Backend,
	syncer *catalog.Synchronizer,
	jobStore *jobs.Store,
	notifier notifications.Service,
	logger *slog.Logger,
) *Pipeline {
	componentLogger := logging.NewComponentLogger(logger, "merge")
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Pipeline{
		cfg:       cfg,
		resolver:  sources.NewResolver(cfg.FetchTimeout(), componentLogger),
		publisher: NewPublisher(store, logger),
		catalog:   syncer,
		jobs:      jobStore,
		notifier:  notifier,
		logger:    componentLogger,
	}
}

// Run executes one merge request. The returned error is tagged with the
// pipeline sentinel of the stage that failed.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	requestID := uuid.NewString()
	job, err := p.jobs.NewJob(ctx, requestID, req.Title, len(req.References))
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "merge", "enqueue", "record job", err)
	}

	ctx = services.WithRequestID(ctx, requestID)
	ctx = services.WithJobID(ctx, job.ID)
	log := logging.WithContext(ctx, p.logger)

	log.Info("merge started",
		logging.String("title", req.Title),
		logging.Int("inputs", len(req.References)),
	)

	area, err := staging.NewArea(p.cfg.StagingDir, requestID, log)
	if err != nil {
		return Result{}, p.fail(ctx, job, services.Wrap(services.ErrConfiguration, "merge", "staging", "create staging area", err))
	}
	defer area.Cleanup()

	// Resolving
	p.advance(ctx, job, jobs.StatusResolving)
	inputs := make([]string, 0, len(req.References))
	for i, ref := range req.References {
		path, err := p.resolver.Resolve(ctx, area, ref)
		if err != nil {
			return Result{}, p.fail(ctx, job, err)
		}
		log.Debug("reference resolved",
			logging.Int("index", i),
			logging.String("source", ref.Describe()),
			logging.String("path", path),
		)
		inputs = append(inputs, path)
	}

	// Normalizing
	p.advance(ctx, job, jobs.StatusNormalizing)
	var inputDuration float64
	normalized := make([]string, 0, len(inputs))
	for _, input := range inputs {
		output := area.NewFile("normalized", ".wav")
		if err := ffmpeg.Normalize(ctx, p.cfg.FFmpegBinary, input, output); err != nil {
			return Result{}, p.fail(ctx, job, err)
		}
		normalized = append(normalized, output)
		inputDuration += p.probeDuration(ctx, output)
	}

	// Concatenating
	p.advance(ctx, job, jobs.StatusConcatenating)
	listPath := area.NewFile("concat", ".txt")
	merged := area.NewFile("merged", ".wav")
	if err := ffmpeg.Concat(ctx, p.cfg.FFmpegBinary, normalized, listPath, merged); err != nil {
		return Result{}, p.fail(ctx, job, err)
	}
	p.checkDuration(ctx, merged, inputDuration)

	// Publishing
	p.advance(ctx, job, jobs.StatusPublishing)
	published, err := p.publisher.Publish(ctx, req.Title, merged, req.Config)
	if err != nil {
		return Result{}, p.fail(ctx, job, err)
	}

	// Syncing
	p.advance(ctx, job, jobs.StatusSyncing)
	record := catalog.NewRecord(DisplayName(req.Title, published.Name))
	record.URL = &published.ArtifactURL
	if published.ConfigURL != "" {
		configURL := published.ConfigURL
		record.ConfigURL = &configURL
	}
	record.Category = storage.CategoryAudio
	record.Placeholder = textutil.TitleLabel(published.Name)
	record.Size = published.Size
	record.Source = "merge"
	if err := p.catalog.Append(ctx, record); err != nil {
		return Result{}, p.fail(ctx, job, err)
	}

	job.Status = jobs.StatusCompleted
	job.ArtifactURL = published.ArtifactURL
	job.ConfigURL = published.ConfigURL
	job.RecordID = record.ID
	if err := p.jobs.Update(ctx, job); err != nil {
		log.Warn("job completion not recorded", logging.Error(err))
	}

	if err := p.notifier.NotifyMergeCompleted(ctx, record.Name, published.ArtifactURL); err != nil {
		log.Warn("completion notification failed", logging.Error(err))
	}
	log.Info("merge completed",
		logging.String("url", published.ArtifactURL),
		logging.String("record_id", record.ID),
		logging.String(logging.FieldEventType, "merge_completed"),
	)

	return Result{
		RequestID:   requestID,
		JobID:       job.ID,
		Title:       record.Name,
		ArtifactURL: published.ArtifactURL,
		ConfigURL:   published.ConfigURL,
		RecordID:    record.ID,
	}, nil
}

// advance moves the job into the next stage; persistence failures are logged
// and the pipeline keeps going.
func (p *Pipeline) advance(ctx context.Context, job *jobs.Item, status jobs.Status) {
	job.Status = status
	if err := p.jobs.Update(ctx, job); err != nil {
		logging.WithContext(ctx, p.logger).Warn("job status not recorded",
			logging.String("status", string(status)),
			logging.Error(err),
		)
	}
	logging.WithContext(ctx, p.logger).Debug("stage entered", logging.String(logging.FieldStage, string(status)))
}

// fail records the terminal failure on the job, notifies, and passes the
// original error through unchanged.
func (p *Pipeline) fail(ctx context.Context, job *jobs.Item, err error) error {
	job.Status = jobs.StatusFailed
	job.ErrorMessage = err.Error()
	if updateErr := p.jobs.Update(ctx, job); updateErr != nil {
		logging.WithContext(ctx, p.logger).Warn("job failure not recorded", logging.Error(updateErr))
	}
	if notifyErr := p.notifier.NotifyMergeFailed(ctx, job.Title, err); notifyErr != nil {
		logging.WithContext(ctx, p.logger).Warn("failure notification failed", logging.Error(notifyErr))
	}
	logging.ErrorWithContext(logging.WithContext(ctx, p.logger), "merge failed", "merge_failed",
		logging.Error(err),
	)
	return err
}

// probeDuration returns the duration of path in seconds, or 0 when ffprobe
// is unavailable or the probe fails. Durations feed a diagnostic only.
func (p *Pipeline) probeDuration(ctx context.Context, path string) float64 {
	probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	result, err := ffprobe.Inspect(probeCtx, p.cfg.FFprobeBinary, path)
	if err != nil {
		return 0
	}
	return result.DurationSeconds()
}

// checkDuration compares the merged duration against the summed input
// durations and logs when they diverge beyond tolerance.
func (p *Pipeline) checkDuration(ctx context.Context, mergedPath string, expected float64) {
	if expected <= 0 {
		return
	}
	actual := p.probeDuration(ctx, mergedPath)
	if actual <= 0 {
		return
	}
	if math.Abs(actual-expected) > durationTolerance {
		logging.WithContext(ctx, p.logger).Warn("merged duration diverges from inputs",
			logging.Float64("expected_seconds", expected),
			logging.Float64("actual_seconds", actual),
			logging.String(logging.FieldErrorHint, "inspect the source files for container damage"),
		)
	}
}
