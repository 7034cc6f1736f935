package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dvloznov/finsight/internal/api/middleware"
	"github.com/dvloznov/finsight/internal/jobs"
)

// EnqueueNotionSync handles POST /api/notion/sync
func (h *Handler) EnqueueNotionSync(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Notion export is not configured")
		return
	}

	var req struct {
		DryRun bool `json:"dry_run"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID := middleware.UserID(r.Context())
	job := &jobs.SyncNotionJob{
		UserID: userID,
		DryRun: req.DryRun,
	}
	if err := h.publisher.PublishSyncNotion(r.Context(), job); err != nil {
		h.writeServiceError(w, r, "EnqueueNotionSync", err)
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("user_id", userID).Msg("Notion sync job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(jobs.JobStatusPending),
	})
}

// GetJob handles GET /api/jobs/{id}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	if h.jobStore == nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	job, err := h.jobStore.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, "GetJob", err)
		return
	}
	if job.UserID != middleware.UserID(r.Context()) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs?status=&limit=&offset=
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	if h.jobStore == nil {
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"jobs": []*jobs.SyncNotionJob{}, "count": 0})
		return
	}

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		h.writeServiceError(w, r, "ListJobs", err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		h.writeServiceError(w, r, "ListJobs", err)
		return
	}

	list, err := h.jobStore.ListJobs(r.Context(), jobs.JobFilter{
		UserID: middleware.UserID(r.Context()),
		Status: jobs.JobStatus(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.writeServiceError(w, r, "ListJobs", err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}
