package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"mixdown/internal/catalog"
	"mixdown/internal/deps"
	"mixdown/internal/jobs"
	"mixdown/internal/merge"
	"mixdown/internal/services"
	"mixdown/internal/sources"
)

// mergeFailurePrefix is the stable prefix clients match on; keep it in sync
// with the CLI output.
const mergeFailurePrefix = "Error merging audio"

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var payload mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, r, mergeFailurePrefix,
			services.Wrap(services.ErrValidation, "api", "merge", "decode request body", err))
		return
	}

	references := make([]sources.Reference, 0, len(payload.AudioUrls))
	for i, entry := range payload.AudioUrls {
		ref, err := sources.Parse(entry)
		if err != nil {
			s.respondError(w, r, mergeFailurePrefix,
				services.Wrap(services.ErrValidation, "api", "merge", fmt.Sprintf("audioUrls[%d]", i), err))
			return
		}
		references = append(references, ref)
	}

	result, err := s.pipeline.Run(r.Context(), merge.Request{
		Title:      payload.Metadata.Title,
		References: references,
		Config:     payload.Config,
	})
	if err != nil {
		s.respondError(w, r, mergeFailurePrefix, err)
		return
	}

	respondJSON(w, http.StatusOK, mergeResponse{
		UploadedAudioURL:  result.ArtifactURL,
		UploadedConfigURL: result.ConfigURL,
		MergedAudioURL:    s.publicURL(result.ArtifactURL),
		AudioID:           result.RecordID,
	})
}

func (s *Server) handleTestNotify(w http.ResponseWriter, r *http.Request) {
	if !s.notifier.Enabled() {
		respondJSON(w, http.StatusOK, testNotifyResponse{Message: "notifications not configured"})
		return
	}
	if err := s.notifier.TestNotification(r.Context()); err != nil {
		s.respondError(w, r, "test notification failed", err)
		return
	}
	respondJSON(w, http.StatusOK, testNotifyResponse{Sent: true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := s.jobs.Health(r.Context())
	if err != nil {
		s.respondError(w, r, "status unavailable", err)
		return
	}
	statuses := deps.CheckBinaries(deps.Requirements(s.cfg))
	tools := make([]toolView, 0, len(statuses))
	for _, status := range statuses {
		tools = append(tools, toolView{
			Name:      status.Name,
			Available: status.Available,
			Path:      status.Command,
			Required:  !status.Optional,
		})
	}
	respondJSON(w, http.StatusOK, statusView{
		Jobs: jobCounts{
			Total:      summary.Total,
			Pending:    summary.Pending,
			Processing: summary.Processing,
			Completed:  summary.Completed,
			Failed:     summary.Failed,
		},
		Tools: tools,
	})
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	var filter []jobs.Status
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status := jobs.Status(raw)
		if !jobs.ValidStatus(status) {
			s.respondError(w, r, "invalid filter",
				services.Wrap(services.ErrValidation, "api", "jobs", "unknown status "+raw, nil))
			return
		}
		filter = append(filter, status)
	}
	items, err := s.jobs.List(r.Context(), filter...)
	if err != nil {
		s.respondError(w, r, "jobs unavailable", err)
		return
	}
	views := make([]jobView, 0, len(items))
	for _, item := range items {
		views = append(views, viewOfJob(item))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondError(w, r, "invalid job id",
			services.Wrap(services.ErrValidation, "api", "jobs", "parse id", err))
		return
	}
	item, err := s.jobs.GetByID(r.Context(), id)
	if err != nil {
		s.respondError(w, r, "job unavailable", err)
		return
	}
	if item == nil {
		s.respondError(w, r, "job not found",
			services.Wrap(services.ErrNotFound, "api", "jobs", fmt.Sprintf("id %d", id), nil))
		return
	}
	respondJSON(w, http.StatusOK, viewOfJob(item))
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	col, err := s.catalog.Collection(r.Context())
	if err != nil {
		s.respondError(w, r, "catalog unavailable", err)
		return
	}
	respondJSON(w, http.StatusOK, col)
}

func (s *Server) handleCatalogPatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch catalog.RecordPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.respondError(w, r, "invalid patch",
			services.Wrap(services.ErrValidation, "api", "catalog", "decode patch body", err))
		return
	}
	if err := s.catalog.Update(r.Context(), id, patch); err != nil {
		s.respondError(w, r, "catalog update failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCatalogRemove(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, "catalog remove failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func viewOfJob(item *jobs.Item) jobView {
	return jobView{
		ID:           item.ID,
		RequestID:    item.RequestID,
		Title:        item.Title,
		InputCount:   item.InputCount,
		Status:       string(item.Status),
		ErrorMessage: item.ErrorMessage,
		ArtifactURL:  item.ArtifactURL,
		ConfigURL:    item.ConfigURL,
		RecordID:     item.RecordID,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

// publicURL prefixes relative storage URLs with the configured public base
// so clients receive an absolute merged reference when one is known.
func (s *Server) publicURL(url string) string {
	base := strings.TrimRight(strings.TrimSpace(s.cfg.PublicBaseURL), "/")
	if base == "" || !strings.HasPrefix(url, "/") {
		return url
	}
	return base + url
}
