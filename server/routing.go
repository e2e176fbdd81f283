package server

import "net/http"

// routes builds the API mux. Every /api route goes through CORS and the
// auth middleware; /health stays open for load balancer probes.
func (s *BMSServer) routes() *http.ServeMux {
	mux := http.NewServeMux()

	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return s.corsMiddleware(s.authMiddleware.RequireAuth(h))
	}

	mux.HandleFunc("/health", s.corsMiddleware(s.HandleHealth))

	mux.HandleFunc("/api/scheduled-searches", protected(s.HandleScheduledSearches)) // GET list, POST create
	mux.HandleFunc("/api/scheduled-searches/", protected(s.HandleScheduledSearch))  // {id} GET/PATCH/DELETE, {id}/execute, {id}/runs, options, stats

	mux.HandleFunc("/api/runs", protected(s.HandleRuns)) // GET recent runs
	mux.HandleFunc("/api/runs/", protected(s.HandleRun)) // {id} GET, {id}/results GET

	mux.HandleFunc("/api/scheduler/status", protected(s.HandleSchedulerStatus)) // GET ticker stats

	mux.HandleFunc("/api/auto-search", protected(s.HandleAutoSearch))            // POST ad-hoc search
	mux.HandleFunc("/api/auto-search/providers", protected(s.HandleProviders))   // GET catalog
	mux.HandleFunc("/api/auto-search/status", protected(s.HandleProviderStatus)) // GET reachability

	return mux
}

// corsMiddleware adds CORS headers using the configured allowed origins.
func (s *BMSServer) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func (s *BMSServer) originAllowed(origin string) bool {
	for _, allowed := range s.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
