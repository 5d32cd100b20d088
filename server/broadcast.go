package server

// This file publishes run-state transitions to WebSocket clients. The
// scheduler calls the Broadcast* methods through runner.RunBroadcaster;
// they queue an envelope for the hub goroutine, which performs the
// actual channel sends.

import (
	"time"

	"github.com/teranos/cadence/logger"
	"github.com/teranos/cadence/runner"
)

var _ runner.RunBroadcaster = (*Server)(nil)

// enqueue hands an envelope to the hub goroutine. Messages are dropped,
// never blocked on, when the hub queue is full or the server is
// shutting down.
func (s *Server) enqueue(ob *outbound) {
	select {
	case s.broadcast <- ob:
	case <-s.ctx.Done():
		// Server shutting down
	default:
		s.broadcastDrops.Add(1)
		s.logger.Warnw("Broadcast queue full, dropping message",
			"total_drops", s.broadcastDrops.Load(),
		)
	}
}

// sendTo queues a message for a single client
func (s *Server) sendTo(client *Client, msg interface{}) {
	s.enqueue(&outbound{msg: msg, client: client})
}

// deliver sends a message to one client's channel. Clients no longer in
// the registry are skipped; their channel may already be closed. Only
// the hub goroutine calls this.
func (s *Server) deliver(client *Client, msg interface{}) bool {
	s.mu.RLock()
	registered := s.clients[client]
	s.mu.RUnlock()
	if !registered {
		return false
	}

	select {
	case client.send <- msg:
		return true
	default:
		s.broadcastDrops.Add(1)
		s.removeSlowClient(client)
		return false
	}
}

// broadcastMessage sends a message to all connected clients.
// Returns the number of clients that accepted the message.
func (s *Server) broadcastMessage(msg interface{}) int {
	s.mu.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	s.mu.RUnlock()

	sent := 0
	for _, client := range clients {
		if s.deliver(client, msg) {
			sent++
		}
	}
	return sent
}

// BroadcastRunStarted notifies clients that a run has begun
func (s *Server) BroadcastRunStarted(runID, seqName, trigger string) {
	s.enqueue(&outbound{msg: RunStartedMessage{
		Type:      "run_started",
		RunID:     runID,
		Sequence:  seqName,
		Trigger:   trigger,
		Timestamp: time.Now().Unix(),
	}})

	s.logger.Debugw("Broadcasting run started",
		logger.FieldRunID, runID,
		logger.FieldSequence, seqName,
	)
}

// BroadcastRunFinished notifies clients that a run reached a terminal state
func (s *Server) BroadcastRunFinished(runID, seqName, trigger, status, errMsg string, durationMs int) {
	s.enqueue(&outbound{msg: RunFinishedMessage{
		Type:         "run_finished",
		RunID:        runID,
		Sequence:     seqName,
		Trigger:      trigger,
		Status:       status,
		ErrorMessage: errMsg,
		DurationMs:   int64(durationMs),
		Timestamp:    time.Now().Unix(),
	}})

	s.logger.Debugw("Broadcasting run finished",
		logger.FieldRunID, runID,
		logger.FieldSequence, seqName,
		logger.FieldStatus, status,
		logger.FieldDurationMS, durationMs,
	)
}

// BroadcastDocumentReloaded notifies clients that the sequence document
// was reloaded from disk
func (s *Server) BroadcastDocumentReloaded(path string, sequences []string) {
	s.enqueue(&outbound{msg: DocumentReloadedMessage{
		Type:      "document_reloaded",
		Path:      path,
		Sequences: sequences,
		Timestamp: time.Now().Unix(),
	}})

	s.logger.Debugw("Broadcasting document reloaded",
		logger.FieldPath, path,
		logger.FieldCount, len(sequences),
	)
}

// statusMessage builds the current scheduler snapshot
func (s *Server) statusMessage() StatusMessage {
	return StatusMessage{
		Type:      "status",
		Running:   s.sched.Running(),
		Sequences: s.store.Len(),
		Timestamp: time.Now().Unix(),
	}
}
