package api

import (
	"encoding/json"
	"time"
)

// mergeRequest is the trigger endpoint payload. Each audioUrls entry is a
// data URI, an http(s) URL, or a bare local path.
type mergeRequest struct {
	AudioUrls []string        `json:"audioUrls"`
	Metadata  mergeMetadata   `json:"metadata"`
	Config    json.RawMessage `json:"config,omitempty"`
}

type mergeMetadata struct {
	Title string `json:"title"`
}

// mergeResponse reports a completed merge.
type mergeResponse struct {
	UploadedAudioURL  string `json:"uploadedAudioUrl"`
	UploadedConfigURL string `json:"uploadedConfigUrl,omitempty"`
	MergedAudioURL    string `json:"mergedAudioUrl"`
	AudioID           string `json:"audioId"`
}

// errorResponse is the uniform failure payload.
type errorResponse struct {
	Message string `json:"message"`
}

// testNotifyResponse reports the outcome of a notification test.
type testNotifyResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message,omitempty"`
}

// jobView is the API projection of one job row.
type jobView struct {
	ID           int64     `json:"id"`
	RequestID    string    `json:"requestId"`
	Title        string    `json:"title"`
	InputCount   int       `json:"inputCount"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	ArtifactURL  string    `json:"artifactUrl,omitempty"`
	ConfigURL    string    `json:"configUrl,omitempty"`
	RecordID     string    `json:"recordId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// statusView summarizes daemon health for GET /api/status.
type statusView struct {
	Jobs  jobCounts  `json:"jobs"`
	Tools []toolView `json:"tools"`
}

type jobCounts struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

type toolView struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
	Required  bool   `json:"required"`
}
