package server

import (
	"net/http"
	"strconv"
)

// HandleRuns handles GET /api/runs: the most recent runs across all
// scheduled and ad-hoc searches.
func (s *BMSServer) HandleRuns(w http.ResponseWriter, r *http.Request) {
	if !requireMethods(w, r, http.MethodGet) {
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	runs, err := s.runStore.ListRecentRuns(limit)
	if err != nil {
		handleError(w, s.logger, err, "failed to list runs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// HandleRun handles requests to /api/runs/{id} and /api/runs/{id}/results.
func (s *BMSServer) HandleRun(w http.ResponseWriter, r *http.Request) {
	if !requireMethods(w, r, http.MethodGet) {
		return
	}

	pathParts := extractPathParts(r.URL.Path, "/api/runs/")
	if len(pathParts) == 0 || pathParts[0] == "" {
		writeError(w, http.StatusBadRequest, "Missing run ID")
		return
	}
	runID := pathParts[0]

	run, err := s.runStore.GetRun(runID)
	if err != nil {
		handleError(w, s.logger, err, "failed to get run")
		return
	}

	if len(pathParts) > 1 && pathParts[1] == "results" {
		results, err := s.runStore.ListResults(runID)
		if err != nil {
			handleError(w, s.logger, err, "failed to list run results")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"run":     run,
			"results": results,
			"count":   len(results),
		})
		return
	}

	writeJSON(w, http.StatusOK, run)
}
