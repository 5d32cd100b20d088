package server

import (
	"testing"
	"time"

	"github.com/teranos/cadence/runner"
)

// waitForMessage reads one message from a client channel with a timeout.
func waitForMessage(t *testing.T, client *Client) interface{} {
	t.Helper()

	select {
	case msg := <-client.send:
		return msg
	case <-time.After(200 * time.Millisecond):
		t.Fatal("Timed out waiting for message")
		return nil
	}
}

// registerTestClient registers a literal client and drains the status
// snapshot delivered on registration.
func registerTestClient(t *testing.T, srv *Server, id string) *Client {
	t.Helper()

	client := &Client{
		server: srv,
		send:   make(chan interface{}, 256),
		id:     id,
	}
	srv.register <- client

	msg := waitForMessage(t, client)
	if _, ok := msg.(StatusMessage); !ok {
		t.Fatalf("Expected registration snapshot, got %T", msg)
	}
	return client
}

func TestBroadcastRunStartedFanout(t *testing.T) {
	srv := newTestServer(t)
	go srv.Run()

	client1 := registerTestClient(t, srv, "fanout_1")
	client2 := registerTestClient(t, srv, "fanout_2")

	srv.BroadcastRunStarted("RN_TEST_1", "blink", runner.TriggerOnce)

	for _, client := range []*Client{client1, client2} {
		msg := waitForMessage(t, client)
		started, ok := msg.(RunStartedMessage)
		if !ok {
			t.Fatalf("Expected RunStartedMessage, got %T", msg)
		}
		if started.Type != "run_started" {
			t.Errorf("Type = %q, want run_started", started.Type)
		}
		if started.RunID != "RN_TEST_1" {
			t.Errorf("RunID = %q, want RN_TEST_1", started.RunID)
		}
		if started.Sequence != "blink" {
			t.Errorf("Sequence = %q, want blink", started.Sequence)
		}
		if started.Trigger != runner.TriggerOnce {
			t.Errorf("Trigger = %q, want %q", started.Trigger, runner.TriggerOnce)
		}
		if started.Timestamp == 0 {
			t.Error("Timestamp not set")
		}
	}
}

func TestBroadcastRunFinishedCarriesFailure(t *testing.T) {
	srv := newTestServer(t)
	go srv.Run()

	client := registerTestClient(t, srv, "finish_client")

	srv.BroadcastRunFinished("RN_TEST_2", "patrol", runner.TriggerPeriodic,
		runner.StatusFailed, "unknown key: zz", 340)

	msg := waitForMessage(t, client)
	finished, ok := msg.(RunFinishedMessage)
	if !ok {
		t.Fatalf("Expected RunFinishedMessage, got %T", msg)
	}
	if finished.Status != runner.StatusFailed {
		t.Errorf("Status = %q, want %q", finished.Status, runner.StatusFailed)
	}
	if finished.ErrorMessage != "unknown key: zz" {
		t.Errorf("ErrorMessage = %q, want the failure text", finished.ErrorMessage)
	}
	if finished.DurationMs != 340 {
		t.Errorf("DurationMs = %d, want 340", finished.DurationMs)
	}
	if finished.Trigger != runner.TriggerPeriodic {
		t.Errorf("Trigger = %q, want %q", finished.Trigger, runner.TriggerPeriodic)
	}
}

func TestBroadcastDocumentReloaded(t *testing.T) {
	srv := newTestServer(t)
	go srv.Run()

	client := registerTestClient(t, srv, "reload_client")

	srv.BroadcastDocumentReloaded("/home/user/.cadence/sequences.yaml", []string{"blink", "patrol"})

	msg := waitForMessage(t, client)
	reloaded, ok := msg.(DocumentReloadedMessage)
	if !ok {
		t.Fatalf("Expected DocumentReloadedMessage, got %T", msg)
	}
	if reloaded.Path != "/home/user/.cadence/sequences.yaml" {
		t.Errorf("Path = %q", reloaded.Path)
	}
	if len(reloaded.Sequences) != 2 {
		t.Errorf("Sequences = %v, want two names", reloaded.Sequences)
	}
}

// Broadcasting with no clients connected is a no-op, not a drop.
func TestBroadcastWithNoClients(t *testing.T) {
	srv := newTestServer(t)
	go srv.Run()

	srv.BroadcastRunStarted("RN_TEST_3", "blink", runner.TriggerOnce)
	time.Sleep(20 * time.Millisecond)

	if drops := srv.broadcastDrops.Load(); drops != 0 {
		t.Errorf("Expected 0 drops with no clients, got %d", drops)
	}
}

// With no hub consuming, the queue fills and further messages are
// counted as drops instead of blocking the scheduler.
func TestEnqueueDropsWhenQueueFull(t *testing.T) {
	srv := newTestServer(t)
	// Hub intentionally not started

	for i := 0; i < MaxClientMessageQueueSize; i++ {
		srv.enqueue(&outbound{msg: StatusMessage{Type: "status"}})
	}
	if drops := srv.broadcastDrops.Load(); drops != 0 {
		t.Fatalf("Queue should hold %d messages without drops, got %d drops",
			MaxClientMessageQueueSize, drops)
	}

	srv.enqueue(&outbound{msg: StatusMessage{Type: "status"}})
	if drops := srv.broadcastDrops.Load(); drops != 1 {
		t.Errorf("Expected 1 drop after overflow, got %d", drops)
	}
}

// Enqueue after shutdown must not panic or count drops.
func TestEnqueueAfterShutdown(t *testing.T) {
	srv := newTestServer(t)
	srv.cancel()

	srv.BroadcastRunStarted("RN_TEST_4", "blink", runner.TriggerOnce)

	if drops := srv.broadcastDrops.Load(); drops != 0 {
		t.Errorf("Expected 0 drops after shutdown, got %d", drops)
	}
}
