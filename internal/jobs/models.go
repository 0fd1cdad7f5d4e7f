package jobs

import "time"

// Status is the lifecycle state of a merge job. Jobs advance through the
// pipeline stages in order and land in completed or failed.
type Status string

const (
	StatusPending       Status = "pending"
	StatusResolving     Status = "resolving"
	StatusNormalizing   Status = "normalizing"
	StatusConcatenating Status = "concatenating"
	StatusPublishing    Status = "publishing"
	StatusSyncing       Status = "syncing"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusResolving,
	StatusNormalizing,
	StatusConcatenating,
	StatusPublishing,
	StatusSyncing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ValidStatus reports whether value names a known lifecycle state.
func ValidStatus(value Status) bool {
	_, ok := statusSet[value]
	return ok
}

// Terminal reports whether the status ends the lifecycle.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Item is one merge job persisted in SQLite.
type Item struct {
	ID           int64
	RequestID    string
	Title        string
	InputCount   int
	Status       Status
	ErrorMessage string
	ArtifactURL  string
	ConfigURL    string
	RecordID     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HealthSummary aggregates job counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
}
