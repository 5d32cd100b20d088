package server

// This file contains HTTP handler methods for the cadence server.
// It provides HTTP endpoints for:
// - WebSocket connections (HandleWebSocket)
// - Sequence listing (HandleSequences)
// - Scheduler status (HandleStatus, HandleHealth)
// - Run control (HandleRun, HandleStart, HandleStop, HandleStopAll)
// - Run history (HandleHistory, HandleHistoryRun)

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teranos/cadence/db"
	"github.com/teranos/cadence/errors"
	"github.com/teranos/cadence/history"
	"github.com/teranos/cadence/logger"
	"github.com/teranos/cadence/runner"
	"github.com/teranos/cadence/version"
)

// =======================
// API Response Types
// =======================

// SequenceInfo describes one loaded sequence
type SequenceInfo struct {
	Name     string  `json:"name"`
	Every    float64 `json:"every,omitempty"`
	Periodic bool    `json:"periodic"`
	Actions  int     `json:"actions"`
	Running  bool    `json:"running"`
}

// ListSequencesResponse represents the response for listing sequences
type ListSequencesResponse struct {
	Sequences []SequenceInfo `json:"sequences"`
	Count     int            `json:"count"`
}

// StatusResponse is the scheduler snapshot returned by /api/status
type StatusResponse struct {
	Running   []runner.TaskStatus `json:"running"`
	Sequences int                 `json:"sequences"`
	Version   string              `json:"version"`
	Timestamp int64               `json:"timestamp"`
}

// SequenceRequest names a sequence for run/start/stop operations
type SequenceRequest struct {
	Sequence string `json:"sequence"`
}

// SequenceStateResponse acknowledges a run/start operation
type SequenceStateResponse struct {
	Sequence string `json:"sequence"`
	Status   string `json:"status"`
}

// StopResponse reports whether a periodic task was live when stopped
type StopResponse struct {
	Sequence string `json:"sequence"`
	Stopped  bool   `json:"stopped"`
}

// StopAllResponse reports how many periodic tasks were stopped
type StopAllResponse struct {
	Stopped int `json:"stopped"`
}

// ListRunsResponse represents the response for listing run history
type ListRunsResponse struct {
	Runs    []history.Run `json:"runs"`
	Count   int           `json:"count"`
	Total   int           `json:"total"`
	HasMore bool          `json:"has_more"`
}

// =======================
// WebSocket
// =======================

// HandleWebSocket upgrades the connection and registers the client with
// the hub
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("WebSocket upgrade failed",
			logger.FieldError, err,
		)
		return
	}

	client := &Client{
		server: s,
		conn:   conn,
		send:   make(chan interface{}, MaxClientMessageQueueSize),
		id:     uuid.NewString(),
	}

	// Send version info BEFORE starting writePump (avoid concurrent writes)
	versionMsg := VersionMessage{
		Type:    "version",
		Version: version.Get().Version,
	}
	if err := conn.WriteJSON(versionMsg); err != nil {
		s.logger.Debugw("Failed to send version info",
			logger.FieldClientID, client.id,
			logger.FieldError, err,
		)
	}

	s.logger.Debugw("WebSocket connection established",
		logger.FieldClientID, client.id,
		"remote_addr", r.RemoteAddr,
	)

	s.register <- client

	// Start goroutines for reading and writing
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		client.readPump()
	}()
	go func() {
		defer s.wg.Done()
		client.writePump()
	}()
}

// =======================
// Sequences and Status
// =======================

// HandleSequences lists the loaded sequences
// GET /api/sequences
func (s *Server) HandleSequences(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	names := s.store.Names()
	infos := make([]SequenceInfo, 0, len(names))
	for _, name := range names {
		seq, err := s.store.Get(name)
		if err != nil {
			// Document reloaded between Names and Get
			continue
		}
		infos = append(infos, SequenceInfo{
			Name:     name,
			Every:    seq.Every,
			Periodic: seq.Periodic(),
			Actions:  len(seq.Actions),
			Running:  s.sched.IsRunning(name),
		})
	}

	writeJSON(w, http.StatusOK, ListSequencesResponse{
		Sequences: infos,
		Count:     len(infos),
	})
}

// HandleStatus returns the scheduler snapshot
// GET /api/status
func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Running:   s.sched.Running(),
		Sequences: s.store.Len(),
		Version:   version.Get().Version,
		Timestamp: time.Now().Unix(),
	})
}

// HandleHealth serves health check endpoint with version info
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	versionInfo := version.Get()
	s.mu.RLock()
	clientCount := len(s.clients)
	s.mu.RUnlock()

	health := map[string]interface{}{
		"status":     "ok",
		"version":    versionInfo.Version,
		"commit":     versionInfo.CommitHash,
		"build_time": versionInfo.BuildTime,
		"clients":    clientCount,
	}

	writeJSON(w, http.StatusOK, health)
}

// =======================
// Run Control
// =======================

// HandleRun executes a sequence once in the background
// POST /api/run {"sequence": "name"}
func (s *Server) HandleRun(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req SequenceRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}
	if req.Sequence == "" {
		writeError(w, http.StatusBadRequest, "Missing sequence name")
		return
	}

	// Resolve before accepting so unknown names fail fast
	if _, err := s.store.Get(req.Sequence); err != nil {
		handleError(w, s.logger, err, "Failed to resolve sequence")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.sched.RunOnce(s.ctx, req.Sequence); err != nil {
			s.logger.Errorw("One-shot run failed",
				logger.FieldSequence, req.Sequence,
				logger.FieldError, err,
			)
		}
	}()

	writeJSON(w, http.StatusAccepted, SequenceStateResponse{
		Sequence: req.Sequence,
		Status:   "accepted",
	})
}

// HandleStart begins periodic execution of a sequence
// POST /api/start {"sequence": "name"}
func (s *Server) HandleStart(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req SequenceRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}
	if req.Sequence == "" {
		writeError(w, http.StatusBadRequest, "Missing sequence name")
		return
	}

	err := s.sched.StartRepeating(req.Sequence)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, SequenceStateResponse{
			Sequence: req.Sequence,
			Status:   "started",
		})
	case errors.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.IsAlreadyRunning(err):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, errors.ErrInvalidSequenceShape),
		errors.Is(err, errors.ErrInvalidInterval):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeWrappedError(w, s.logger, err, "Failed to start sequence", http.StatusInternalServerError)
	}
}

// HandleStop cancels a periodic task
// POST /api/stop {"sequence": "name"}
func (s *Server) HandleStop(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req SequenceRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}
	if req.Sequence == "" {
		writeError(w, http.StatusBadRequest, "Missing sequence name")
		return
	}

	writeJSON(w, http.StatusOK, StopResponse{
		Sequence: req.Sequence,
		Stopped:  s.sched.Stop(req.Sequence),
	})
}

// HandleStopAll cancels every periodic task
// POST /api/stop-all
func (s *Server) HandleStopAll(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	writeJSON(w, http.StatusOK, StopAllResponse{
		Stopped: s.sched.StopAll(),
	})
}

// =======================
// Run History
// =======================

// HandleHistory lists recorded runs
// GET /api/history?sequence=name&limit=50&offset=0
func (s *Server) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if s.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "History persistence is disabled")
		return
	}

	limit := parseIntQueryParam(r, "limit", 50, 1, 100)
	offset := parseIntQueryParam(r, "offset", 0, 0, 1000000)
	seqFilter := r.URL.Query().Get("sequence")

	runs, total, err := s.runs.ListRuns(seqFilter, limit, offset)
	if err != nil {
		if db.IsDatabaseClosed(err) {
			s.logger.Debugw("History query on closed database", logger.FieldError, err)
			writeError(w, http.StatusServiceUnavailable, "History store is closed")
			return
		}
		s.logger.Errorw("Failed to list runs", logger.FieldError, err)
		writeError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	// Flatten pointer slice for the response
	runResponses := make([]history.Run, 0, len(runs))
	for _, run := range runs {
		runResponses = append(runResponses, *run)
	}

	writeJSON(w, http.StatusOK, ListRunsResponse{
		Runs:    runResponses,
		Count:   len(runs),
		Total:   total,
		HasMore: offset+len(runs) < total,
	})
}

// HandleHistoryRun returns one recorded run
// GET /api/history/{run_id}
func (s *Server) HandleHistoryRun(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if s.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "History persistence is disabled")
		return
	}

	runID := strings.TrimPrefix(r.URL.Path, "/api/history/")
	if runID == "" || strings.Contains(runID, "/") {
		writeError(w, http.StatusBadRequest, "Invalid path format")
		return
	}

	run, err := s.runs.GetRun(runID)
	if err != nil {
		if errors.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Run not found")
			return
		}
		if db.IsDatabaseClosed(err) {
			s.logger.Debugw("History query on closed database", logger.FieldError, err)
			writeError(w, http.StatusServiceUnavailable, "History store is closed")
			return
		}
		s.logger.Errorw("Failed to get run",
			logger.FieldError, err,
			logger.FieldRunID, runID,
		)
		writeError(w, http.StatusInternalServerError, "Failed to get run")
		return
	}

	writeJSON(w, http.StatusOK, run)
}
