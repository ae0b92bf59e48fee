package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fortuna/brutalball/internal/extract"
	"github.com/fortuna/brutalball/internal/jobs"
	"github.com/fortuna/brutalball/internal/scrape"
	"github.com/fortuna/brutalball/internal/teams"
)

// JobQueue is the part of the job service the API drives.
type JobQueue interface {
	Enqueue(ctx context.Context, req scrape.Request) (*jobs.Job, error)
	Get(ctx context.Context, jobID string) (*jobs.Job, error)
	GetStatus(ctx context.Context) (*jobs.StatusSummary, error)
}

// ScrapeHandler proxies API calls to the job service.
type ScrapeHandler struct {
	queue JobQueue
}

// NewScrapeHandler wires the REST layer to the job service.
func NewScrapeHandler(queue JobQueue) *ScrapeHandler {
	return &ScrapeHandler{queue: queue}
}

type apiScrapeRequest struct {
	Page     string   `json:"page"`
	TeamIDs  []uint32 `json:"team_ids"`
	Teams    string   `json:"teams"`
	KeepHash bool     `json:"keep_hash"`
	Season   string   `json:"season"`
}

// HandleScrapeRequest handles POST /api/v1/scrapes
func (h *ScrapeHandler) HandleScrapeRequest(w http.ResponseWriter, r *http.Request) {
	var req apiScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p, err := extract.ParsePage(req.Page)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page", err)
		return
	}
	scrapeReq := scrape.Request{
		Page:     p,
		TeamIDs:  req.TeamIDs,
		KeepHash: req.KeepHash,
		Season:   req.Season,
	}
	if req.Teams != "" {
		ids, err := teams.ParseIDs(req.Teams)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid teams list", err)
			return
		}
		scrapeReq.TeamIDs = append(scrapeReq.TeamIDs, ids...)
	}

	job, err := h.queue.Enqueue(r.Context(), scrapeReq)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to enqueue scrape job", err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job": job,
	})
}

// HandleGetScrape handles GET /api/v1/scrapes/{jobID}
func (h *ScrapeHandler) HandleGetScrape(w http.ResponseWriter, r *http.Request) {
	job, err := h.queue.Get(r.Context(), mux.Vars(r)["jobID"])
	if errors.Is(err, jobs.ErrJobNotFound) {
		respondError(w, http.StatusNotFound, "Job not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch job", err)
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// HandleScrapeStatus handles GET /api/v1/scrapes
func (h *ScrapeHandler) HandleScrapeStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := h.queue.GetStatus(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch status", err)
		return
	}

	respondJSON(w, http.StatusOK, buildStatusPayload(summary))
}

func buildStatusPayload(summary *jobs.StatusSummary) map[string]interface{} {
	response := map[string]interface{}{
		"status":  "idle",
		"message": "No active jobs",
		"history": []*jobs.Job{},
	}

	if summary.ActiveJob != nil {
		response["status"] = summary.ActiveJob.Status
		if summary.ActiveJob.StatusMessage != "" {
			response["message"] = summary.ActiveJob.StatusMessage
		}
		response["active_job"] = summary.ActiveJob
	}
	if len(summary.History) > 0 {
		response["history"] = summary.History
	}
	return response
}
