package merge

import (
	"mixdown/internal/services"
	"mixdown/internal/sources"
)

// Request describes one merge: an ordered list of source references plus the
// metadata used to name the published artifact. Config optionally carries a
// companion descriptor published next to the audio.
type Request struct {
	Title      string
	References []sources.Reference
	Config     []byte
}

// Validate rejects requests the pipeline cannot start.
func (r Request) Validate() error {
	if len(r.References) == 0 {
		return services.Wrap(services.ErrValidation, "merge", "validate", "at least one audio reference is required", nil)
	}
	return nil
}

// Result reports a completed merge.
type Result struct {
	RequestID   string
	JobID       int64
	Title       string
	ArtifactURL string
	ConfigURL   string
	RecordID    string
}
