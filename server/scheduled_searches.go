package server

import (
	"encoding/json"
	"net/http"

	"github.com/odsconseil/bms/auth"
	"github.com/odsconseil/bms/errors"
	"github.com/odsconseil/bms/scheduler"
)

// CreateScheduledSearchRequest is the POST /api/scheduled-searches body.
type CreateScheduledSearchRequest struct {
	Keywords       string                    `json:"keywords"`
	Frequency      scheduler.Frequency       `json:"frequency"`
	CustomSchedule *scheduler.CustomSchedule `json:"customSchedule,omitempty"`
}

// UpdateScheduledSearchRequest is the PATCH body. CustomSchedule uses a
// raw message so an explicit null (clear the rule) is distinguishable
// from an absent field (leave unchanged).
type UpdateScheduledSearchRequest struct {
	Keywords       *string              `json:"keywords,omitempty"`
	Frequency      *scheduler.Frequency `json:"frequency,omitempty"`
	CustomSchedule json.RawMessage      `json:"customSchedule,omitempty"`
	IsActive       *bool                `json:"isActive,omitempty"`
}

// ListScheduledSearchesResponse wraps the list endpoint. Degraded marks
// a clearly-flagged empty response served while the store is down.
type ListScheduledSearchesResponse struct {
	Searches []*scheduler.ScheduledSearch `json:"searches"`
	Count    int                          `json:"count"`
	Degraded bool                         `json:"degraded,omitempty"`
	Reason   string                       `json:"reason,omitempty"`
}

// ownerID resolves the caller identity set by the auth middleware.
func ownerID(r *http.Request) string {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		return ""
	}
	return claims.UserID
}

// HandleScheduledSearches handles requests to /api/scheduled-searches
// GET: List the caller's scheduled searches
// POST: Create a new scheduled search
func (s *BMSServer) HandleScheduledSearches(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListSearches(w, r)
	case http.MethodPost:
		s.handleCreateSearch(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// HandleScheduledSearch handles requests to /api/scheduled-searches/{id}
// and its sub-resources:
//
//	GET/PATCH/DELETE /api/scheduled-searches/{id}
//	POST /api/scheduled-searches/{id}/execute
//	GET  /api/scheduled-searches/{id}/runs
//	GET  /api/scheduled-searches/options
//	GET  /api/scheduled-searches/stats
func (s *BMSServer) HandleScheduledSearch(w http.ResponseWriter, r *http.Request) {
	pathParts := extractPathParts(r.URL.Path, "/api/scheduled-searches/")
	if len(pathParts) == 0 || pathParts[0] == "" {
		writeError(w, http.StatusBadRequest, "Missing search ID")
		return
	}

	switch pathParts[0] {
	case "options":
		s.HandleScheduleOptions(w, r)
		return
	case "stats":
		s.HandleStatistics(w, r)
		return
	}

	searchID := pathParts[0]

	if len(pathParts) > 1 {
		switch pathParts[1] {
		case "execute":
			s.handleExecuteNow(w, r, searchID)
		case "runs":
			s.handleSearchRuns(w, r, searchID)
		default:
			writeError(w, http.StatusNotFound, "Unknown sub-resource")
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetSearch(w, r, searchID)
	case http.MethodPatch:
		s.handleUpdateSearch(w, r, searchID)
	case http.MethodDelete:
		s.handleDeleteSearch(w, r, searchID)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *BMSServer) handleListSearches(w http.ResponseWriter, r *http.Request) {
	searches, err := s.store.List(ownerID(r))
	if err != nil {
		if errors.IsStoreUnavailable(err) {
			// Display path may degrade to a flagged empty list, never to
			// fabricated records.
			s.logger.Errorw("Listing scheduled searches degraded", "error", err)
			writeJSON(w, http.StatusOK, ListScheduledSearchesResponse{
				Searches: []*scheduler.ScheduledSearch{},
				Degraded: true,
				Reason:   "store unavailable",
			})
			return
		}
		handleError(w, s.logger, err, "failed to list scheduled searches")
		return
	}

	writeJSON(w, http.StatusOK, ListScheduledSearchesResponse{
		Searches: searches,
		Count:    len(searches),
	})
}

func (s *BMSServer) handleCreateSearch(w http.ResponseWriter, r *http.Request) {
	var req CreateScheduledSearchRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}

	search, err := s.store.Create(scheduler.CreateParams{
		OwnerID:        ownerID(r),
		Keywords:       req.Keywords,
		Frequency:      req.Frequency,
		CustomSchedule: req.CustomSchedule,
	})
	if err != nil {
		handleError(w, s.logger, err, "failed to create scheduled search")
		return
	}

	s.logger.Infow("Created scheduled search",
		"search_id", shortID(search.ID),
		"keywords", search.Keywords,
		"frequency", search.Frequency)

	writeJSON(w, http.StatusCreated, search)
}

func (s *BMSServer) handleGetSearch(w http.ResponseWriter, r *http.Request, searchID string) {
	search, err := s.store.Get(searchID, ownerID(r))
	if err != nil {
		handleError(w, s.logger, err, "failed to get scheduled search")
		return
	}
	writeJSON(w, http.StatusOK, search)
}

func (s *BMSServer) handleUpdateSearch(w http.ResponseWriter, r *http.Request, searchID string) {
	var req UpdateScheduledSearchRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}

	params := scheduler.UpdateParams{
		Keywords:  req.Keywords,
		Frequency: req.Frequency,
		IsActive:  req.IsActive,
	}

	if len(req.CustomSchedule) > 0 {
		if string(req.CustomSchedule) == "null" {
			params.ClearCustomSchedule = true
		} else {
			cs, err := scheduler.ParseCustomSchedule(string(req.CustomSchedule))
			if err != nil {
				handleError(w, s.logger, err, "invalid custom schedule")
				return
			}
			params.CustomSchedule = cs
		}
	}

	search, err := s.store.Update(searchID, ownerID(r), params)
	if err != nil {
		handleError(w, s.logger, err, "failed to update scheduled search")
		return
	}

	s.logger.Infow("Updated scheduled search", "search_id", shortID(searchID))
	writeJSON(w, http.StatusOK, search)
}

func (s *BMSServer) handleDeleteSearch(w http.ResponseWriter, r *http.Request, searchID string) {
	if err := s.store.Delete(searchID, ownerID(r)); err != nil {
		handleError(w, s.logger, err, "failed to delete scheduled search")
		return
	}

	s.logger.Infow("Deleted scheduled search", "search_id", shortID(searchID))
	w.WriteHeader(http.StatusNoContent)
}

// handleExecuteNow runs one scheduled search synchronously, outside the
// tick cycle, through the same executor the ticker uses.
func (s *BMSServer) handleExecuteNow(w http.ResponseWriter, r *http.Request, searchID string) {
	if !requireMethods(w, r, http.MethodPost) {
		return
	}

	search, err := s.store.Get(searchID, ownerID(r))
	if err != nil {
		handleError(w, s.logger, err, "failed to get scheduled search")
		return
	}

	execution, err := s.executor.Execute(r.Context(), search)
	if err != nil {
		handleError(w, s.logger, err, "failed to execute scheduled search")
		return
	}

	s.logger.Infow("Manual execution completed",
		"search_id", shortID(searchID),
		"results", execution.ResultsCount)

	writeJSON(w, http.StatusOK, execution)
}

func (s *BMSServer) handleSearchRuns(w http.ResponseWriter, r *http.Request, searchID string) {
	if !requireMethods(w, r, http.MethodGet) {
		return
	}

	// Ownership check before exposing history
	if _, err := s.store.Get(searchID, ownerID(r)); err != nil {
		handleError(w, s.logger, err, "failed to get scheduled search")
		return
	}

	runs, err := s.runStore.ListRunsBySearch(searchID, 50, 0)
	if err != nil {
		handleError(w, s.logger, err, "failed to list search runs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// HandleStatistics returns counts by activation and frequency for the
// caller's scheduled searches.
func (s *BMSServer) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	if !requireMethods(w, r, http.MethodGet) {
		return
	}

	stats, err := s.store.Statistics(ownerID(r))
	if err != nil {
		handleError(w, s.logger, err, "failed to compute statistics")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// HandleScheduleOptions returns the frequency and customization
// vocabulary the UI builds its scheduling form from.
func (s *BMSServer) HandleScheduleOptions(w http.ResponseWriter, r *http.Request) {
	if !requireMethods(w, r, http.MethodGet) {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"frequencies": scheduler.Frequencies(),
		"customization": map[string]string{
			"weekDays":      "days of week, 0 (Sunday) through 6 (Saturday)",
			"hours":         "hours of day, 0 through 23",
			"intervalHours": "fixed interval in hours, positive",
			"monthDays":     "days of month, 1 through 31",
		},
	})
}
