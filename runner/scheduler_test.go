package runner

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cadence/errors"
	"github.com/teranos/cadence/focus"
	"github.com/teranos/cadence/input"
	"github.com/teranos/cadence/sequence"
)

// stepSleeper replaces real sleeps with a lock-step channel: the sequence
// goroutine blocks on each sleep until the test receives it, so tests walk
// through passes and interval waits deterministically.
type stepSleeper struct {
	calls chan time.Duration
}

func newStepSleeper() *stepSleeper {
	return &stepSleeper{calls: make(chan time.Duration)}
}

func (ss *stepSleeper) sleep(ctx context.Context, d time.Duration) error {
	select {
	case ss.calls <- d:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (ss *stepSleeper) next(t *testing.T) time.Duration {
	t.Helper()
	select {
	case d := <-ss.calls:
		return d
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a sleep")
		return 0
	}
}

type recordedRun struct {
	id         string
	sequence   string
	trigger    string
	status     string
	message    string
	durationMs int
}

type fakeRecorder struct {
	mu       sync.Mutex
	starts   []recordedRun
	finishes []recordedRun
}

func (r *fakeRecorder) RecordStart(runID, sequence, trigger string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, recordedRun{id: runID, sequence: sequence, trigger: trigger})
	return nil
}

func (r *fakeRecorder) RecordFinish(runID, status, message string, durationMs int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finishes = append(r.finishes, recordedRun{id: runID, status: status, message: message, durationMs: durationMs})
	return nil
}

func (r *fakeRecorder) snapshot() (starts, finishes []recordedRun) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedRun(nil), r.starts...), append([]recordedRun(nil), r.finishes...)
}

type broadcastEvent struct {
	kind       string
	runID      string
	sequence   string
	trigger    string
	status     string
	errorMsg   string
	durationMs int
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

func (b *fakeBroadcaster) BroadcastRunStarted(runID, sequence, trigger string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{kind: "started", runID: runID, sequence: sequence, trigger: trigger})
}

func (b *fakeBroadcaster) BroadcastRunFinished(runID, sequence, trigger, status, errorMsg string, durationMs int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{
		kind: "finished", runID: runID, sequence: sequence, trigger: trigger,
		status: status, errorMsg: errorMsg, durationMs: durationMs,
	})
}

func (b *fakeBroadcaster) snapshot() []broadcastEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]broadcastEvent(nil), b.events...)
}

// fakeGate is a toggleable focus gate polling at one-second intervals.
type fakeGate struct {
	mu     sync.Mutex
	active bool
}

func (g *fakeGate) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

func (g *fakeGate) set(active bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active = active
}

func (g *fakeGate) CheckInterval() time.Duration { return time.Second }

type fixture struct {
	sched  *Scheduler
	driver *input.Recorder
	sleeps *stepSleeper
	rec    *fakeRecorder
}

func newFixture(t *testing.T, doc string, gate focus.Gate, opts ...Option) *fixture {
	t.Helper()

	store := sequence.NewStore()
	_, err := store.Load([]byte(doc))
	require.NoError(t, err)

	driver := input.NewRecorder()
	sleeps := newStepSleeper()
	jit := input.NewJitter(42)
	exec := input.NewExecutor(driver, jit, input.WithSleep(sleeps.sleep))

	rec := &fakeRecorder{}
	opts = append([]Option{WithSleep(sleeps.sleep), WithRecorder(rec)}, opts...)
	sched := NewScheduler(store, exec, jit, gate, opts...)
	t.Cleanup(func() { sched.Shutdown(2 * time.Second) })

	return &fixture{sched: sched, driver: driver, sleeps: sleeps, rec: rec}
}

func assertBetween(t *testing.T, d, lo, hi time.Duration) {
	t.Helper()
	assert.GreaterOrEqual(t, d, lo)
	assert.LessOrEqual(t, d, hi)
}

const pressDoc = `
p:
  every: 10
  actions:
    - type: key
      action: press
      key: "2"
`

func TestRunOnce_CompletesWaitInRealTime(t *testing.T) {
	store := sequence.NewStore()
	_, err := store.Load([]byte(`
seq1:
  - type: wait
    seconds: 1
`))
	require.NoError(t, err)

	driver := input.NewRecorder()
	jit := input.NewJitter(0)
	sched := NewScheduler(store, input.NewExecutor(driver, jit), jit, nil)

	begin := time.Now()
	require.NoError(t, sched.RunOnce(context.Background(), "seq1"))
	elapsed := time.Since(begin)

	assert.GreaterOrEqual(t, elapsed, 850*time.Millisecond)
	assert.Less(t, elapsed, 1600*time.Millisecond)
	assert.Empty(t, driver.Events())
}

func TestRunOnce_NotFound(t *testing.T) {
	f := newFixture(t, pressDoc, nil)

	err := f.sched.RunOnce(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Empty(t, f.driver.Events())
}

func TestRunOnce_RecordsAndBroadcasts(t *testing.T) {
	store := sequence.NewStore()
	_, err := store.Load([]byte(`
blink:
  - type: wait
    seconds: 0.001
`))
	require.NoError(t, err)

	rec := &fakeRecorder{}
	bc := &fakeBroadcaster{}
	jit := input.NewJitter(0)
	sched := NewScheduler(store, input.NewExecutor(input.NewRecorder(), jit), jit, nil,
		WithRecorder(rec), WithBroadcaster(bc))

	require.NoError(t, sched.RunOnce(context.Background(), "blink"))

	starts, finishes := rec.snapshot()
	require.Len(t, starts, 1)
	require.Len(t, finishes, 1)
	assert.True(t, strings.HasPrefix(starts[0].id, "RN"))
	assert.Equal(t, "blink", starts[0].sequence)
	assert.Equal(t, TriggerOnce, starts[0].trigger)
	assert.Equal(t, starts[0].id, finishes[0].id)
	assert.Equal(t, StatusCompleted, finishes[0].status)
	assert.Empty(t, finishes[0].message)
	assert.GreaterOrEqual(t, finishes[0].durationMs, 0)

	events := bc.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, "started", events[0].kind)
	assert.Equal(t, "finished", events[1].kind)
	assert.Equal(t, starts[0].id, events[1].runID)
	assert.Equal(t, StatusCompleted, events[1].status)
	assert.GreaterOrEqual(t, events[1].durationMs, 0)
}

func TestRunOnce_UnknownActionFailsExecuting(t *testing.T) {
	f := newFixture(t, `
seq:
  - type: bogus
  - type: key
    action: press
    key: "2"
`, nil)

	err := f.sched.RunOnce(context.Background(), "seq")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedAction))
	assert.Empty(t, f.driver.Events())

	_, finishes := f.rec.snapshot()
	require.Len(t, finishes, 1)
	assert.Equal(t, StatusFailed, finishes[0].status)
	assert.Contains(t, finishes[0].message, "unsupported action type")
}

func TestRunOnce_DiagnosticLogsAndProceeds(t *testing.T) {
	store := sequence.NewStore()
	_, err := store.Load([]byte(`
seq:
  - type: bogus
  - type: key
    action: press
    key: "2"
`))
	require.NoError(t, err)

	driver := input.NewRecorder()
	jit := input.NewJitter(0)
	exec := input.NewExecutor(driver, jit, input.WithDiagnostic())
	rec := &fakeRecorder{}
	sched := NewScheduler(store, exec, jit, nil, WithRecorder(rec))

	require.NoError(t, sched.RunOnce(context.Background(), "seq"))
	assert.Empty(t, driver.Events())

	_, finishes := rec.snapshot()
	require.Len(t, finishes, 1)
	assert.Equal(t, StatusCompleted, finishes[0].status)
}

func TestRunOnce_GateSuspendsUntilFocusReturns(t *testing.T) {
	gate := &fakeGate{}
	f := newFixture(t, pressDoc, gate)

	errCh := make(chan error, 1)
	go func() { errCh <- f.sched.RunOnce(context.Background(), "p") }()

	// First poll proves the run is suspended without having executed.
	assert.Equal(t, time.Second, f.sleeps.next(t))
	assert.Empty(t, f.driver.Events())

	gate.set(true)
	f.sleeps.next(t) // second poll, after which the gate reads active

	assertBetween(t, f.sleeps.next(t), 50*time.Millisecond, 90*time.Millisecond) // reaction delay
	f.sleeps.next(t)                                                             // key hold

	require.NoError(t, <-errCh)
	assert.Equal(t, []input.Event{
		{Kind: input.EventKeyDown, Name: "2"},
		{Kind: input.EventKeyUp, Name: "2"},
	}, f.driver.Events())
}

func TestStartRepeating_TwoCyclesWithJitteredInterval(t *testing.T) {
	f := newFixture(t, pressDoc, nil)

	require.NoError(t, f.sched.StartRepeating("p"))
	assert.True(t, f.sched.IsRunning("p"))

	// Cycle one: reaction delay, key hold, then the interval sleep.
	assertBetween(t, f.sleeps.next(t), 50*time.Millisecond, 90*time.Millisecond)
	assertBetween(t, f.sleeps.next(t), 10*time.Millisecond, 30*time.Millisecond)
	assertBetween(t, f.sleeps.next(t), 9*time.Second, 11*time.Second)

	// Cycle two.
	assertBetween(t, f.sleeps.next(t), 50*time.Millisecond, 90*time.Millisecond)
	assertBetween(t, f.sleeps.next(t), 10*time.Millisecond, 30*time.Millisecond)
	assertBetween(t, f.sleeps.next(t), 9*time.Second, 11*time.Second)

	assert.True(t, f.sched.Stop("p"))
	assert.True(t, f.sched.Shutdown(2*time.Second))

	assert.Equal(t, []input.Event{
		{Kind: input.EventKeyDown, Name: "2"},
		{Kind: input.EventKeyUp, Name: "2"},
		{Kind: input.EventKeyDown, Name: "2"},
		{Kind: input.EventKeyUp, Name: "2"},
	}, f.driver.Events())

	// The third pass had started when the interval sleep returned, so it is
	// recorded as cancelled; the two completed cycles stand.
	starts, finishes := f.rec.snapshot()
	require.Len(t, starts, 3)
	require.Len(t, finishes, 3)
	completed := 0
	cancelled := 0
	for _, fin := range finishes {
		switch fin.status {
		case StatusCompleted:
			completed++
		case StatusCancelled:
			cancelled++
		}
	}
	assert.Equal(t, 2, completed)
	assert.Equal(t, 1, cancelled)
}

func TestStartRepeating_UnknownName(t *testing.T) {
	f := newFixture(t, pressDoc, nil)

	err := f.sched.StartRepeating("ghost")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestStartRepeating_BareList(t *testing.T) {
	f := newFixture(t, `
oneshot:
  - type: key
    action: press
    key: "2"
`, nil)

	err := f.sched.StartRepeating("oneshot")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidSequenceShape))
	assert.False(t, f.sched.IsRunning("oneshot"))
	assert.Empty(t, f.driver.Events())
}

func TestStartRepeating_MissingOrNegativeInterval(t *testing.T) {
	f := newFixture(t, `
noint:
  actions:
    - type: wait
      seconds: 1
neg:
  every: -3
  actions:
    - type: wait
      seconds: 1
`, nil)

	err := f.sched.StartRepeating("noint")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInterval))

	err = f.sched.StartRepeating("neg")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInterval))
}

func TestStartRepeating_DuplicateFails(t *testing.T) {
	f := newFixture(t, pressDoc, nil)

	require.NoError(t, f.sched.StartRepeating("p"))
	err := f.sched.StartRepeating("p")
	require.Error(t, err)
	assert.True(t, errors.IsAlreadyRunning(err))
	assert.Len(t, f.sched.Running(), 1)
}

func TestStop_MidIntervalSleep(t *testing.T) {
	f := newFixture(t, pressDoc, nil)

	require.NoError(t, f.sched.StartRepeating("p"))
	f.sleeps.next(t) // reaction delay
	f.sleeps.next(t) // key hold

	// The pass finishes and the task parks on its interval sleep, which the
	// test never services.
	require.Eventually(t, func() bool {
		return len(f.driver.Events()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, f.sched.Stop("p"))
	assert.True(t, f.sched.Shutdown(2*time.Second))

	assert.False(t, f.sched.IsRunning("p"))
	assert.Equal(t, []input.Event{
		{Kind: input.EventKeyDown, Name: "2"},
		{Kind: input.EventKeyUp, Name: "2"},
	}, f.driver.Events())
}

func TestStop_AbsentNameIsNoOp(t *testing.T) {
	f := newFixture(t, pressDoc, nil)
	assert.False(t, f.sched.Stop("ghost"))
}

func TestStopAll_LeavesNoTasks(t *testing.T) {
	f := newFixture(t, `
p1:
  every: 5
  actions:
    - type: key
      action: press
      key: "2"
p2:
  every: 7
  actions:
    - type: key
      action: press
      key: "3"
`, nil)

	require.NoError(t, f.sched.StartRepeating("p1"))
	require.NoError(t, f.sched.StartRepeating("p2"))
	assert.Len(t, f.sched.Running(), 2)

	assert.Equal(t, 2, f.sched.StopAll())
	assert.Empty(t, f.sched.Running())
	assert.False(t, f.sched.IsRunning("p1"))
	assert.False(t, f.sched.IsRunning("p2"))
	assert.True(t, f.sched.Shutdown(2*time.Second))
}

func TestPeriodicFailureKillsOnlyThatTask(t *testing.T) {
	f := newFixture(t, `
bad:
  every: 5
  actions:
    - type: bogus
good:
  every: 5
  actions:
    - type: key
      action: press
      key: "2"
`, nil)

	require.NoError(t, f.sched.StartRepeating("bad"))
	require.NoError(t, f.sched.StartRepeating("good"))

	require.Eventually(t, func() bool {
		return !f.sched.IsRunning("bad")
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, f.sched.IsRunning("good"))

	starts, finishes := f.rec.snapshot()
	var badRunID string
	for _, s := range starts {
		if s.sequence == "bad" {
			badRunID = s.id
		}
	}
	require.NotEmpty(t, badRunID)
	var badFinish *recordedRun
	for i := range finishes {
		if finishes[i].id == badRunID {
			badFinish = &finishes[i]
		}
	}
	require.NotNil(t, badFinish)
	assert.Equal(t, StatusFailed, badFinish.status)
	assert.Contains(t, badFinish.message, "unsupported action type")

	f.sched.StopAll()
}

func TestStop_ReleasesHeldKeyMidPress(t *testing.T) {
	f := newFixture(t, pressDoc, nil)

	require.NoError(t, f.sched.StartRepeating("p"))
	f.sleeps.next(t) // reaction delay; the key goes down next

	require.Eventually(t, func() bool {
		return len(f.driver.Events()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, f.sched.Stop("p"))
	assert.True(t, f.sched.Shutdown(2*time.Second))

	// The interrupted press is released on teardown rather than left down.
	assert.Equal(t, []input.Event{
		{Kind: input.EventKeyDown, Name: "2"},
		{Kind: input.EventKeyUp, Name: "2"},
	}, f.driver.Events())

	_, finishes := f.rec.snapshot()
	require.Len(t, finishes, 1)
	assert.Equal(t, StatusCancelled, finishes[0].status)
}

func TestStartAll_ReportsPerNameFailures(t *testing.T) {
	f := newFixture(t, `
p1:
  every: 5
  actions:
    - type: key
      action: press
      key: "2"
p2:
  every: 3
  actions:
    - type: wait
      seconds: 1
bare:
  - type: wait
    seconds: 1
noint:
  actions:
    - type: wait
      seconds: 1
neg:
  every: -1
  actions:
    - type: wait
      seconds: 1
`, nil)

	started, failed := f.sched.StartAll()
	assert.Equal(t, []string{"p1", "p2"}, started)

	// Bare lists and interval-less objects are not candidates; a declared
	// negative interval is attempted and reported.
	require.Len(t, failed, 1)
	assert.True(t, errors.Is(failed["neg"], errors.ErrInvalidInterval))

	for _, ts := range f.sched.Running() {
		assert.Equal(t, TriggerAutostart, ts.Trigger)
	}

	started, failed = f.sched.StartAll()
	assert.Empty(t, started)
	require.Len(t, failed, 3)
	assert.True(t, errors.IsAlreadyRunning(failed["p1"]))
	assert.True(t, errors.IsAlreadyRunning(failed["p2"]))
	assert.True(t, errors.Is(failed["neg"], errors.ErrInvalidInterval))

	assert.Equal(t, 2, f.sched.StopAll())
}

func TestRunning_SnapshotCountsCycles(t *testing.T) {
	f := newFixture(t, pressDoc, nil)

	require.NoError(t, f.sched.StartRepeating("p"))

	running := f.sched.Running()
	require.Len(t, running, 1)
	assert.Equal(t, "p", running[0].Name)
	assert.Equal(t, 10.0, running[0].Every)
	assert.Equal(t, TriggerPeriodic, running[0].Trigger)
	assert.WithinDuration(t, time.Now(), running[0].StartedAt, 5*time.Second)
	assert.Equal(t, int64(0), running[0].Cycles)

	f.sleeps.next(t) // reaction delay
	f.sleeps.next(t) // key hold
	f.sleeps.next(t) // interval; the cycle counter bumped before this sleep

	running = f.sched.Running()
	require.Len(t, running, 1)
	assert.Equal(t, int64(1), running[0].Cycles)

	f.sched.StopAll()
}

func TestShutdown_TimesOutWhenTaskStuck(t *testing.T) {
	store := sequence.NewStore()
	_, err := store.Load([]byte(`
p:
  every: 5
  actions:
    - type: wait
      seconds: 60
`))
	require.NoError(t, err)

	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	stuck := func(ctx context.Context, d time.Duration) error {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		return ctx.Err()
	}

	jit := input.NewJitter(0)
	exec := input.NewExecutor(input.NewRecorder(), jit, input.WithSleep(stuck))
	sched := NewScheduler(store, exec, jit, nil)

	require.NoError(t, sched.StartRepeating("p"))
	<-entered

	begin := time.Now()
	assert.False(t, sched.Shutdown(150*time.Millisecond))
	assert.Less(t, time.Since(begin), time.Second)

	close(release)
	assert.True(t, sched.Shutdown(2*time.Second))
}
