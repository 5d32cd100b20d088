package runner

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/cadence/errors"
	"github.com/teranos/cadence/focus"
	"github.com/teranos/cadence/input"
	"github.com/teranos/cadence/logger"
	"github.com/teranos/cadence/sequence"
)

// task is one live periodic loop. The scheduler's mutex guards the tasks
// map and the cycle counter; everything else belongs to the loop goroutine.
type task struct {
	name      string
	every     float64
	trigger   string
	startedAt time.Time
	cancel    context.CancelFunc
	cycles    int64
}

// Scheduler executes named sequences from a store, one-shot or periodically.
// All methods are safe for concurrent use.
type Scheduler struct {
	store  *sequence.Store
	exec   *input.Executor
	jitter *input.Jitter
	gate   focus.Gate

	recorder    RunRecorder
	broadcaster RunBroadcaster

	sleep func(ctx context.Context, d time.Duration) error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	log     *zap.SugaredLogger
	gateLog *zap.SugaredLogger

	mu    sync.Mutex
	tasks map[string]*task
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRecorder persists run lifecycle records through r.
func WithRecorder(r RunRecorder) Option {
	return func(s *Scheduler) { s.recorder = r }
}

// WithBroadcaster publishes run lifecycle events through b.
func WithBroadcaster(b RunBroadcaster) Option {
	return func(s *Scheduler) { s.broadcaster = b }
}

// SetBroadcaster binds the run-event broadcaster after construction. The
// control server is built around an existing scheduler, so the host binds
// it here once both exist.
func (s *Scheduler) SetBroadcaster(b RunBroadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster = b
}

// WithSleep replaces the scheduler's cancellable sleep. Tests use this to
// step through interval and gate-poll waits without real time passing.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Scheduler) { s.sleep = sleep }
}

// NewScheduler creates a scheduler over the given store, executor and gate.
// A nil gate never suspends execution.
func NewScheduler(store *sequence.Store, exec *input.Executor, jitter *input.Jitter, gate focus.Gate, opts ...Option) *Scheduler {
	return NewSchedulerWithContext(context.Background(), store, exec, jitter, gate, opts...)
}

// NewSchedulerWithContext creates a scheduler whose periodic tasks descend
// from the given parent context.
func NewSchedulerWithContext(ctx context.Context, store *sequence.Store, exec *input.Executor, jitter *input.Jitter, gate focus.Gate, opts ...Option) *Scheduler {
	baseCtx, cancel := context.WithCancel(ctx)

	if gate == nil {
		gate = focus.Static{Answer: true}
	}
	if jitter == nil {
		jitter = input.NewJitter(0)
	}

	s := &Scheduler{
		store:   store,
		exec:    exec,
		jitter:  jitter,
		gate:    gate,
		sleep:   sleepCtx,
		ctx:     baseCtx,
		cancel:  cancel,
		log:     logger.AddRepeatSymbol(logger.Base()),
		gateLog: logger.AddGateSymbol(logger.Base()),
		tasks:   make(map[string]*task),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// sleepCtx sleeps for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RunOnce resolves the named sequence and executes its action list
// start-to-end exactly once, blocking until it completes, fails, or ctx is
// cancelled. Window gating suspends execution before each action until the
// target regains focus.
func (s *Scheduler) RunOnce(ctx context.Context, name string) error {
	seq, err := s.store.Get(name)
	if err != nil {
		return err
	}

	s.log.Infow("Running sequence",
		logger.FieldSequence, name,
		logger.FieldCount, len(seq.Actions))

	return s.runPass(ctx, name, TriggerOnce, seq.Actions)
}

// StartRepeating spawns a background task that executes the named sequence's
// action list, sleeps a jittered interval, and repeats until stopped. Only
// object-form sequences with a positive interval qualify.
func (s *Scheduler) StartRepeating(name string) error {
	return s.startRepeating(name, TriggerPeriodic)
}

func (s *Scheduler) startRepeating(name, trigger string) error {
	seq, err := s.store.Get(name)
	if err != nil {
		return err
	}
	if seq.Bare() {
		return errors.Wrapf(errors.ErrInvalidSequenceShape, "sequence %q is a bare action list", name)
	}
	if seq.Every <= 0 {
		return errors.Wrapf(errors.ErrInvalidInterval, "sequence %q has every=%v", name, seq.Every)
	}

	s.mu.Lock()
	if _, live := s.tasks[name]; live {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrAlreadyRunning, "sequence %q", name)
	}
	taskCtx, cancel := context.WithCancel(s.ctx)
	t := &task{
		name:      name,
		every:     seq.Every,
		trigger:   trigger,
		startedAt: time.Now(),
		cancel:    cancel,
	}
	s.tasks[name] = t
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runPeriodic(taskCtx, t, seq.Actions)

	s.log.Infow("Periodic sequence started",
		logger.FieldSequence, name,
		logger.FieldIntervalS, seq.Every)
	return nil
}

// runPeriodic is the loop body of one periodic task. The action list is
// captured at start; reloading the store does not change a live task.
func (s *Scheduler) runPeriodic(ctx context.Context, t *task, actions []sequence.Action) {
	defer s.wg.Done()
	defer s.finishTask(t)

	for {
		if err := s.runPass(ctx, t.name, t.trigger, actions); err != nil {
			if errors.IsAny(err, context.Canceled, context.DeadlineExceeded) {
				s.log.Infow("Periodic sequence cancelled",
					logger.FieldSequence, t.name)
			} else {
				s.log.Errorw("Periodic sequence failed",
					logger.FieldSequence, t.name,
					logger.FieldError, err)
			}
			return
		}

		s.mu.Lock()
		t.cycles++
		s.mu.Unlock()

		pause := s.jitter.Seconds(0.9*t.every, 1.1*t.every)
		if err := s.sleep(ctx, pause); err != nil {
			s.log.Infow("Periodic sequence cancelled",
				logger.FieldSequence, t.name)
			return
		}
	}
}

// finishTask removes t from the task set. A task restarted after Stop must
// not be removed by its predecessor's teardown, so the entry is only deleted
// while it still points at t.
func (s *Scheduler) finishTask(t *task) {
	s.mu.Lock()
	if cur, ok := s.tasks[t.name]; ok && cur == t {
		delete(s.tasks, t.name)
	}
	s.mu.Unlock()
}

// runPass executes the action list once, recording and broadcasting the run.
// Held keys and buttons are released before the run is reported finished.
func (s *Scheduler) runPass(ctx context.Context, name, trigger string, actions []sequence.Action) error {
	runID := newRunID()
	startedAt := time.Now()

	s.mu.Lock()
	recorder, broadcaster := s.recorder, s.broadcaster
	s.mu.Unlock()

	if recorder != nil {
		if err := recorder.RecordStart(runID, name, trigger); err != nil {
			s.log.Warnw("Failed to record run start",
				logger.FieldRunID, runID,
				logger.FieldSequence, name,
				logger.FieldError, err)
		}
	}
	if broadcaster != nil {
		broadcaster.BroadcastRunStarted(runID, name, trigger)
	}

	held := input.NewHeldSet()
	runErr := s.executeActions(ctx, name, actions, held)
	s.exec.Release(held)

	status := StatusCompleted
	message := ""
	switch {
	case runErr == nil:
	case errors.IsAny(runErr, context.Canceled, context.DeadlineExceeded):
		status = StatusCancelled
	default:
		status = StatusFailed
		message = runErr.Error()
	}
	durationMs := int(time.Since(startedAt).Milliseconds())

	if recorder != nil {
		if err := recorder.RecordFinish(runID, status, message, durationMs); err != nil {
			s.log.Warnw("Failed to record run finish",
				logger.FieldRunID, runID,
				logger.FieldSequence, name,
				logger.FieldError, err)
		}
	}
	if broadcaster != nil {
		broadcaster.BroadcastRunFinished(runID, name, trigger, status, message, durationMs)
	}

	s.log.Debugw("Run finished",
		logger.FieldRunID, runID,
		logger.FieldSequence, name,
		logger.FieldStatus, status,
		logger.FieldDurationMS, durationMs)

	return runErr
}

// executeActions dispatches the list in document order, suspending before
// each action while the gate reports inactive.
func (s *Scheduler) executeActions(ctx context.Context, name string, actions []sequence.Action, held *input.HeldSet) error {
	for i := range actions {
		if err := s.awaitGate(ctx, name); err != nil {
			return err
		}
		if err := s.exec.Execute(ctx, actions[i], held); err != nil {
			return errors.Wrapf(err, "sequence %q action %d", name, i+1)
		}
	}
	return nil
}

// awaitGate blocks until the gate reports active, polling at the gate's
// check interval. Execution is delayed, never skipped.
func (s *Scheduler) awaitGate(ctx context.Context, name string) error {
	if s.gate.Active() {
		return nil
	}
	s.gateLog.Infow("Sequence suspended until target window regains focus",
		logger.FieldSequence, name)
	for {
		if err := s.sleep(ctx, s.gate.CheckInterval()); err != nil {
			return err
		}
		if s.gate.Active() {
			s.gateLog.Infow("Sequence resumed",
				logger.FieldSequence, name)
			return nil
		}
	}
}

// Stop cancels and removes the named periodic task. It reports whether a
// task was live; stopping an absent name is a no-op. The task's goroutine
// observes cancellation at its next suspension point, so the name is free
// for an immediate restart.
func (s *Scheduler) Stop(name string) bool {
	s.mu.Lock()
	t, ok := s.tasks[name]
	if ok {
		delete(s.tasks, name)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	t.cancel()
	s.log.Infow("Periodic sequence stopped",
		logger.FieldSequence, name)
	return true
}

// StopAll cancels and removes every periodic task, returning how many were
// live.
func (s *Scheduler) StopAll() int {
	s.mu.Lock()
	stopped := make([]*task, 0, len(s.tasks))
	for _, t := range s.tasks {
		stopped = append(stopped, t)
	}
	s.tasks = make(map[string]*task)
	s.mu.Unlock()

	for _, t := range stopped {
		t.cancel()
	}
	if len(stopped) > 0 {
		s.log.Infow("All periodic sequences stopped",
			logger.FieldCount, len(stopped))
	}
	return len(stopped)
}

// StartAll starts every object-form sequence in the store that declares a
// nonzero interval. Individual failures are collected per name without
// aborting the rest.
func (s *Scheduler) StartAll() (started []string, failed map[string]error) {
	failed = make(map[string]error)
	for _, name := range s.store.Names() {
		seq, err := s.store.Get(name)
		if err != nil {
			failed[name] = err
			continue
		}
		if seq.Bare() || seq.Every == 0 {
			continue
		}
		if err := s.startRepeating(name, TriggerAutostart); err != nil {
			s.log.Warnw("Failed to start sequence",
				logger.FieldSequence, name,
				logger.FieldError, err)
			failed[name] = err
			continue
		}
		started = append(started, name)
	}
	return started, failed
}

// IsRunning reports whether a periodic task for the name is live.
func (s *Scheduler) IsRunning(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[name]
	return ok
}

// Running returns a snapshot of all live periodic tasks, ordered by name.
func (s *Scheduler) Running() []TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TaskStatus, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, TaskStatus{
			Name:      t.name,
			Every:     t.every,
			Trigger:   t.trigger,
			StartedAt: t.startedAt,
			Cycles:    t.cycles,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Shutdown cancels every periodic task and waits up to timeout for their
// goroutines to exit. It reports whether shutdown completed cleanly; a
// timeout is logged and survivable, tasks keep winding down in the
// background.
func (s *Scheduler) Shutdown(timeout time.Duration) bool {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Infow("Scheduler stopped")
		return true
	case <-time.After(timeout):
		s.log.Warnw("Scheduler shutdown timed out, tasks may still be winding down",
			"timeout", timeout)
		return false
	}
}
