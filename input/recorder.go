package input

import (
	"context"
	"sync"
)

// Event kinds recorded by the Recorder.
const (
	EventKeyDown    = "key_down"
	EventKeyUp      = "key_up"
	EventButtonDown = "button_down"
	EventButtonUp   = "button_up"
	EventMove       = "move"
)

// Event is one recorded input emission.
type Event struct {
	Kind string
	Name string // key or button name
	X, Y int    // move events only
}

// Recorder is a Driver that records events instead of emitting them,
// simulating cursor position so move interpolation behaves like the
// real backend. It backs the dryrun driver setting and the package
// tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	x, y   int
}

// NewRecorder creates a recording driver with the cursor at origin.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) KeyDown(_ context.Context, key Key) error {
	r.record(Event{Kind: EventKeyDown, Name: key.Name})
	return nil
}

func (r *Recorder) KeyUp(_ context.Context, key Key) error {
	r.record(Event{Kind: EventKeyUp, Name: key.Name})
	return nil
}

func (r *Recorder) ButtonDown(_ context.Context, button string) error {
	r.record(Event{Kind: EventButtonDown, Name: button})
	return nil
}

func (r *Recorder) ButtonUp(_ context.Context, button string) error {
	r.record(Event{Kind: EventButtonUp, Name: button})
	return nil
}

func (r *Recorder) MoveTo(_ context.Context, x, y int) error {
	r.mu.Lock()
	r.x, r.y = x, y
	r.mu.Unlock()
	r.record(Event{Kind: EventMove, Name: "", X: x, Y: y})
	return nil
}

func (r *Recorder) Position() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.x, r.y
}

// SetPosition seeds the simulated cursor.
func (r *Recorder) SetPosition(x, y int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.x, r.y = x, y
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Reset clears recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
