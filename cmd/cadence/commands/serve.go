package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/teranos/cadence/errors"
	"github.com/teranos/cadence/logger"
	"github.com/teranos/cadence/sequence"
	"github.com/teranos/cadence/server"
	"github.com/teranos/cadence/sym"
)

// ServeCmd starts the cadence control server
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   sym.Open + " Start the cadence control server",
	Long: sym.Open + ` Start the control server.

Exposes the loaded document and the scheduler over a small REST API and
pushes run-state transitions to WebSocket clients. Sequences can be run,
started, and stopped remotely; nothing runs until a client asks.

Endpoints:
  GET  /api/sequences        Loaded sequence names and shapes
  GET  /api/status           Live periodic tasks
  GET  /api/history          Recent runs (when history is enabled)
  POST /api/run              Run a sequence once
  POST /api/start            Start a periodic sequence
  POST /api/stop             Stop a periodic sequence
  POST /api/stop-all         Stop everything
  GET  /ws                   Run-state event stream

Example:
  cadence serve                  # Configured port (default 8484)
  cadence serve --port 9000      # Explicit port
  cadence serve --watch          # Reload the document when it changes`,
	RunE: runServe,
}

var (
	servePort    int
	serveDocPath string
	serveWatch   bool
)

func init() {
	ServeCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config)")
	ServeCmd.Flags().StringVar(&serveDocPath, "document", "", "Sequence document path or URL (overrides config)")
	ServeCmd.Flags().BoolVar(&serveWatch, "watch", false, "Reload the document when it changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Default to Info verbosity for server output
	verbosity, _ := cmd.Flags().GetCount("verbose")
	if verbosity == 0 {
		verbosity = 1
	}

	eng, err := buildEngine(serveDocPath)
	if err != nil {
		return err
	}
	defer eng.Close()

	serverCfg := eng.cfg.Server
	if servePort != 0 {
		serverCfg.Port = servePort
	}

	srv, err := server.NewServer(eng.store, eng.sched, eng.runs, &serverCfg)
	if err != nil {
		return errors.Wrap(err, "failed to create server")
	}
	eng.sched.SetBroadcaster(srv)

	watch := serveWatch || eng.cfg.Document.Watch
	if watch {
		watcher, err := sequence.NewDocumentWatcher(eng.docPath, eng.store)
		if err != nil {
			return errors.Wrap(err, "failed to watch sequence document")
		}
		watcher.OnReload(func(names []string) {
			srv.BroadcastDocumentReloaded(eng.docPath, names)
		})
		watcher.Start()
		defer watcher.Stop()
	}

	printStartupBanner(verbosity, eng, serverCfg.Port, watch)

	// Start server in background
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	// Wait for shutdown signal (Ctrl+C)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		// Server failed to start or stopped unexpectedly
		return errors.Wrap(err, "server failed to start")
	case <-sigChan:
		// First Ctrl+C - graceful shutdown
		pterm.Info.Println("\nShutting down gracefully (press Ctrl+C again to force)...")

		// Stop the scheduler first so no new run events reach clients,
		// then drain the server.
		shutdownDone := make(chan error, 1)
		go func() {
			eng.sched.StopAll()
			if !eng.sched.Shutdown(shutdownTimeout) {
				logger.Warnw("Timed out waiting for in-flight runs")
			}
			shutdownDone <- srv.Stop()
		}()

		// Wait for either shutdown completion or second Ctrl+C
		select {
		case err := <-shutdownDone:
			if err != nil {
				return fmt.Errorf("shutdown error: %w", err)
			}
			pterm.Success.Println("Server stopped cleanly")
			return nil
		case <-sigChan:
			// Second Ctrl+C - force immediate exit
			pterm.Warning.Println("\nForce shutdown - exiting immediately")
			os.Exit(1)
			return nil // unreachable
		}
	}
}
