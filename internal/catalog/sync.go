package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mixdown/internal/logging"
	"mixdown/internal/storage"
)

// ErrSync marks a catalog persistence failure.
var ErrSync = errors.New("catalog sync failed")

// RetryPolicy controls persistence verification: how many re-reads are
// attempted and how long to back off before each. Sleep is injectable so
// tests run against a deterministic clock.
type RetryPolicy struct {
	Attempts int
	Backoff  []time.Duration
	Sleep    func(context.Context, time.Duration) error
}

// DefaultRetryPolicy mirrors the documented 200ms/500ms/1s schedule.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 3,
		Backoff:  []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, time.Second},
	}
}

func (p RetryPolicy) backoffFor(attempt int) time.Duration {
	if len(p.Backoff) == 0 {
		return 200 * time.Millisecond
	}
	if attempt >= len(p.Backoff) {
		return p.Backoff[len(p.Backoff)-1]
	}
	return p.Backoff[attempt]
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Synchronizer maintains the single shared catalog document. Every mutation
// follows the same protocol: fetch the latest snapshot, apply one pure
// transform, skip the write when the content hash is unchanged, otherwise
// overwrite the whole document and verify the write with bounded retries.
//
// The document has no transactional backing store; concurrent writers are
// last-writer-wins. The synchronizer assumes a single active writer.
type Synchronizer struct {
	store    storage.Backend
	document string
	origin   string
	policy   RetryPolicy
	logger   *slog.Logger
}

// NewSynchronizer builds a synchronizer over the given backend. origin, when
// non-empty, is stripped from absolute URLs before records are inserted.
func NewSynchronizer(store storage.Backend, document, origin string, policy RetryPolicy, logger *slog.Logger) *Synchronizer {
	if policy.Attempts <= 0 {
		policy = DefaultRetryPolicy()
	}
	return &Synchronizer{
		store:    store,
		document: document,
		origin:   origin,
		policy:   policy,
		logger:   logging.NewComponentLogger(logger, "catalog"),
	}
}

// Collection returns the latest catalog snapshot. A missing document reads
// as an empty collection.
func (s *Synchronizer) Collection(ctx context.Context) (Collection, error) {
	data, err := s.store.Fetch(ctx, s.document, storage.CategoryConfigs)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Collection{}, nil
		}
		return nil, fmt.Errorf("%w: fetch document: %s", ErrSync, err)
	}
	col, err := ParseCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSync, err)
	}
	return col, nil
}

// Append inserts rec into the catalog, degrading to an update when the id
// already exists. Absolute URLs carrying the known origin are normalized to
// relative form first.
func (s *Synchronizer) Append(ctx context.Context, rec Record) error {
	rec.URL = s.relativize(rec.URL)
	rec.ConfigURL = s.relativize(rec.ConfigURL)
	return s.apply(ctx, "append", func(col Collection) Collection {
		return col.Append(rec)
	})
}

// Update merges patch into the record with the given id. A record left with
// both url-like fields null is deleted rather than persisted empty.
func (s *Synchronizer) Update(ctx context.Context, id string, patch RecordPatch) error {
	return s.apply(ctx, "update", func(col Collection) Collection {
		out, found := col.Update(id, patch)
		if !found {
			s.logger.Warn("update target not in catalog", logging.String("record_id", id))
		}
		return out
	})
}

// Remove filters the record out. Removing an absent id logs and succeeds;
// remove is idempotent.
func (s *Synchronizer) Remove(ctx context.Context, id string) error {
	return s.apply(ctx, "remove", func(col Collection) Collection {
		out, found := col.Remove(id)
		if !found {
			s.logger.Info("remove target not in catalog", logging.String("record_id", id))
		}
		return out
	})
}

func (s *Synchronizer) apply(ctx context.Context, op string, mutate func(Collection) Collection) error {
	before, err := s.Collection(ctx)
	if err != nil {
		return err
	}
	beforeHash, err := before.Hash()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSync, err)
	}

	after := mutate(before)
	afterHash, err := after.Hash()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSync, err)
	}

	if beforeHash == afterHash {
		s.logger.Debug("catalog unchanged, skipping write",
			logging.String("operation", op),
			logging.Int("records", len(after)),
		)
		return nil
	}

	data, err := after.Serialize()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSync, err)
	}
	if _, err := s.store.Upload(ctx, s.document, storage.CategoryConfigs, data); err != nil {
		return fmt.Errorf("%w: write document: %s", ErrSync, err)
	}

	s.logger.Info("catalog updated",
		logging.String("operation", op),
		logging.Int("records", len(after)),
		logging.String(logging.FieldEventType, "catalog_write"),
	)

	s.verify(ctx, afterHash)
	return nil
}

// verify re-reads the just-written document and compares content hashes.
// Verification is a diagnostic signal only: exhausting the retries logs an
// alert but the operation still reports success.
func (s *Synchronizer) verify(ctx context.Context, want [32]byte) {
	for attempt := 0; attempt < s.policy.Attempts; attempt++ {
		if err := s.policy.sleep(ctx, s.policy.backoffFor(attempt)); err != nil {
			return
		}
		col, err := s.Collection(ctx)
		if err != nil {
			s.logger.Debug("catalog verification read failed",
				logging.Int("attempt", attempt+1),
				logging.Error(err),
			)
			continue
		}
		got, err := col.Hash()
		if err != nil {
			continue
		}
		if got == want {
			s.logger.Debug("catalog write verified", logging.Int("attempt", attempt+1))
			return
		}
	}
	logging.WarnWithContext(s.logger, "catalog write could not be verified", "catalog_verify_failed",
		logging.Alert("unverified_write"),
		logging.Int("attempts", s.policy.Attempts),
		logging.String(logging.FieldErrorHint, "inspect the catalog document for drift"),
		logging.String(logging.FieldImpact, "catalog may briefly serve a stale listing"),
	)
}

func (s *Synchronizer) relativize(url *string) *string {
	if url == nil {
		return nil
	}
	rel := RelativizeURL(s.origin, *url)
	return &rel
}
