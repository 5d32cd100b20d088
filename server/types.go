package server

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/cadence/am"
	"github.com/teranos/cadence/errors"
	"github.com/teranos/cadence/history"
	"github.com/teranos/cadence/logger"
	"github.com/teranos/cadence/runner"
	"github.com/teranos/cadence/sequence"
)

const (
	// MaxClients is the maximum number of concurrent WebSocket clients
	MaxClients = 100

	// MaxClientMessageQueueSize is the per-client outbound queue depth.
	// Clients that fall this far behind are disconnected.
	MaxClientMessageQueueSize = 256

	// ShutdownTimeout bounds how long Stop waits for pumps to drain
	ShutdownTimeout = 10 * time.Second
)

// Server exposes the REST control surface and pushes run-state
// transitions to WebSocket clients. The engine never imports this
// package; the scheduler sees it only through runner.RunBroadcaster.
type Server struct {
	// WebSocket hub
	clients    map[*Client]bool
	broadcast  chan *outbound
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	// Engine access
	store *sequence.Store
	sched *runner.Scheduler
	runs  *history.Store

	// HTTP
	mux            *http.ServeMux
	httpServer     *http.Server
	port           int
	allowedOrigins []string

	logger *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	broadcastDrops atomic.Int64
}

// outbound is a queued hub delivery. A nil client fans the message out
// to every connected client; otherwise it targets one.
type outbound struct {
	msg    interface{}
	client *Client
}

// RunStartedMessage announces a run entering the running state
type RunStartedMessage struct {
	Type      string `json:"type"`
	RunID     string `json:"run_id"`
	Sequence  string `json:"sequence"`
	Trigger   string `json:"trigger"`
	Timestamp int64  `json:"timestamp"`
}

// RunFinishedMessage announces a terminal run state
type RunFinishedMessage struct {
	Type         string `json:"type"`
	RunID        string `json:"run_id"`
	Sequence     string `json:"sequence"`
	Trigger      string `json:"trigger"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	DurationMs   int64  `json:"duration_ms"`
	Timestamp    int64  `json:"timestamp"`
}

// DocumentReloadedMessage announces a document hot-reload
type DocumentReloadedMessage struct {
	Type      string   `json:"type"`
	Path      string   `json:"path"`
	Sequences []string `json:"sequences"`
	Timestamp int64    `json:"timestamp"`
}

// StatusMessage is the point-in-time scheduler snapshot sent to newly
// registered clients and on request
type StatusMessage struct {
	Type      string              `json:"type"`
	Running   []runner.TaskStatus `json:"running"`
	Sequences int                 `json:"sequences"`
	Timestamp int64               `json:"timestamp"`
}

// VersionMessage is sent once per connection before the pumps start
type VersionMessage struct {
	Type    string `json:"type"`
	Version string `json:"version"`
}

// ClientMessage is an inbound WebSocket request from a client
type ClientMessage struct {
	Type string `json:"type"`
}

// NewServer creates a server wired to the engine. runs may be nil when
// history persistence is disabled; history endpoints then report 503.
func NewServer(store *sequence.Store, sched *runner.Scheduler, runs *history.Store, cfg *am.ServerConfig) (*Server, error) {
	if store == nil {
		return nil, errors.New("sequence store cannot be nil")
	}
	if sched == nil {
		return nil, errors.New("scheduler cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())

	port := am.DefaultServerPort
	var origins []string
	if cfg != nil {
		if cfg.Port != 0 {
			port = cfg.Port
		}
		origins = cfg.AllowedOrigins
	}

	s := &Server{
		clients:        make(map[*Client]bool),
		broadcast:      make(chan *outbound, MaxClientMessageQueueSize),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		store:          store,
		sched:          sched,
		runs:           runs,
		mux:            http.NewServeMux(),
		port:           port,
		allowedOrigins: origins,
		logger:         logger.Base().Named("server"),
		ctx:            ctx,
		cancel:         cancel,
	}

	s.setupRoutes()
	return s, nil
}
