package server

import (
	"github.com/teranos/cadence/logger"
)

// Run starts the server hub event loop. The hub goroutine owns every
// client channel send and close; other goroutines only enqueue onto
// s.broadcast, so a client channel can never be written after close.
func (s *Server) Run() {
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debugw("Server hub stopping due to context cancellation")
			return
		case client := <-s.register:
			s.handleClientRegister(client)
		case client := <-s.unregister:
			s.handleClientUnregister(client)
		case ob := <-s.broadcast:
			s.handleOutbound(ob)
		}
	}
}

// handleClientRegister handles a new client connection
func (s *Server) handleClientRegister(client *Client) {
	s.mu.Lock()

	// Check client limit
	if len(s.clients) >= MaxClients {
		s.mu.Unlock()
		s.logger.Warnw("Max clients reached, rejecting connection",
			logger.FieldClientID, client.id,
			"max_clients", MaxClients,
		)
		client.close()
		return
	}

	s.clients[client] = true
	totalClients := len(s.clients)
	s.mu.Unlock()

	s.logger.Infow("Client connected",
		logger.FieldClientID, client.id,
		"total_clients", totalClients,
	)

	// New clients start from the current scheduler snapshot
	s.deliver(client, s.statusMessage())
}

// handleClientUnregister handles a client disconnection
func (s *Server) handleClientUnregister(client *Client) {
	s.mu.Lock()
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		totalClients := len(s.clients)
		s.mu.Unlock()

		client.close()

		s.logger.Infow("Client disconnected",
			logger.FieldClientID, client.id,
			"total_clients", totalClients,
		)
	} else {
		s.mu.Unlock()
	}
}

// removeSlowClient removes a client that can't keep up with broadcasts.
// Only called from the hub goroutine, so closing channels directly is safe.
func (s *Server) removeSlowClient(client *Client) {
	s.mu.Lock()
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		s.mu.Unlock()
	} else {
		s.mu.Unlock()
		return // Already removed
	}

	client.close()

	s.logger.Warnw("Client send channel full, removing client",
		logger.FieldClientID, client.id,
		"total_drops", s.broadcastDrops.Load(),
	)
}

// handleOutbound delivers a queued message. An envelope with no client
// fans out to every connected client.
func (s *Server) handleOutbound(ob *outbound) {
	if ob.client != nil {
		s.deliver(ob.client, ob.msg)
		return
	}
	s.broadcastMessage(ob.msg)
}
