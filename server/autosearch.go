package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/odsconseil/bms/provider"
	"github.com/odsconseil/bms/scheduler"
	"github.com/odsconseil/bms/version"
)

// AutoSearchRequest is the POST /api/auto-search body.
type AutoSearchRequest struct {
	Keywords string `json:"keywords"`
}

// AutoSearchResponse carries an ad-hoc search outcome. RunID is empty
// when nothing was found, since empty runs are not persisted.
type AutoSearchResponse struct {
	RunID        string            `json:"runId,omitempty"`
	Keywords     string            `json:"keywords"`
	ResultsCount int               `json:"resultsCount"`
	Results      []provider.Result `json:"results"`
	ExecutedAt   time.Time         `json:"executedAt"`
}

// HandleAutoSearch handles POST /api/auto-search: run the keywords
// through the provider chain immediately and record an ad-hoc run.
func (s *BMSServer) HandleAutoSearch(w http.ResponseWriter, r *http.Request) {
	if !requireMethods(w, r, http.MethodPost) {
		return
	}

	var req AutoSearchRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}

	keywords := strings.TrimSpace(req.Keywords)
	if keywords == "" {
		writeError(w, http.StatusBadRequest, "keywords are required")
		return
	}

	executedAt := time.Now().UTC()

	results, err := s.chain.Search(r.Context(), keywords)
	if err != nil {
		handleError(w, s.logger, err, "auto-search failed")
		return
	}

	response := AutoSearchResponse{
		Keywords:     keywords,
		ResultsCount: len(results),
		Results:      results,
		ExecutedAt:   executedAt,
	}
	if response.Results == nil {
		response.Results = []provider.Result{}
	}

	if len(results) > 0 {
		run, err := s.runStore.RecordAdHocRun(keywords, toStoredResults(results), executedAt)
		if err != nil {
			handleError(w, s.logger, err, "failed to record ad-hoc run")
			return
		}
		response.RunID = run.ID
	}

	s.logger.Infow("Ad-hoc search completed",
		"keywords", keywords,
		"results", len(results))

	writeJSON(w, http.StatusOK, response)
}

// HandleProviders handles GET /api/auto-search/providers: the static
// catalog of tender sources the system knows about, with the live
// chain members marked.
func (s *BMSServer) HandleProviders(w http.ResponseWriter, r *http.Request) {
	if !requireMethods(w, r, http.MethodGet) {
		return
	}

	configured := make([]map[string]interface{}, 0)
	for _, p := range s.chain.Providers() {
		configured = append(configured, map[string]interface{}{
			"name":       p.Name(),
			"configured": p.Configured(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"providers": configured,
		"catalog":   provider.Catalog(),
	})
}

// HandleProviderStatus handles GET /api/auto-search/status: probe each
// chain member for reachability.
func (s *BMSServer) HandleProviderStatus(w http.ResponseWriter, r *http.Request) {
	if !requireMethods(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	statuses := make([]map[string]interface{}, 0)
	for _, p := range s.chain.Providers() {
		entry := map[string]interface{}{
			"name":       p.Name(),
			"configured": p.Configured(),
		}
		if !p.Configured() {
			entry["status"] = "unconfigured"
		} else if err := p.Status(ctx); err != nil {
			entry["status"] = "unreachable"
			entry["error"] = err.Error()
		} else {
			entry["status"] = "ok"
		}
		statuses = append(statuses, entry)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"providers": statuses})
}

// HandleHealth handles GET /health.
func (s *BMSServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.Ping(); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]interface{}{
		"status":  status,
		"version": version.Get().Short(),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func toStoredResults(found []provider.Result) []scheduler.SearchResult {
	results := make([]scheduler.SearchResult, len(found))
	for i, r := range found {
		results[i] = scheduler.SearchResult{
			Title:        r.Title,
			Description:  r.Description,
			URL:          r.URL,
			Source:       r.Source,
			DiscoveredAt: r.DiscoveredAt,
		}
	}
	return results
}
