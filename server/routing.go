package server

import (
	"net/http"
)

// setupRoutes configures all HTTP handlers. The server carries its own
// mux so multiple instances can coexist in one process.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/ws", s.corsMiddleware(s.HandleWebSocket))            // Run-state push (WebSocket)
	s.mux.HandleFunc("/health", s.corsMiddleware(s.HandleHealth))           // Liveness probe (GET)
	s.mux.HandleFunc("/api/sequences", s.corsMiddleware(s.HandleSequences)) // List loaded sequences (GET)
	s.mux.HandleFunc("/api/status", s.corsMiddleware(s.HandleStatus))       // Scheduler snapshot (GET)
	s.mux.HandleFunc("/api/run", s.corsMiddleware(s.HandleRun))             // One-shot run (POST)
	s.mux.HandleFunc("/api/start", s.corsMiddleware(s.HandleStart))         // Start periodic task (POST)
	s.mux.HandleFunc("/api/stop", s.corsMiddleware(s.HandleStop))           // Stop periodic task (POST)
	s.mux.HandleFunc("/api/stop-all", s.corsMiddleware(s.HandleStopAll))    // Stop all periodic tasks (POST)
	s.mux.HandleFunc("/api/history/", s.corsMiddleware(s.HandleHistoryRun)) // Individual run (GET /api/history/{id})
	s.mux.HandleFunc("/api/history", s.corsMiddleware(s.HandleHistory))     // List runs (GET)
}

// corsMiddleware adds CORS headers to HTTP responses using configured allowed origins
// Uses the same origin validation as WebSocket connections (server.allowed_origins config)
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// If origin is present and allowed by config, set CORS headers
		if origin != "" && s.checkOrigin(r) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}
