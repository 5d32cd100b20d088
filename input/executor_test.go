package input_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cadence/errors"
	"github.com/teranos/cadence/input"
	"github.com/teranos/cadence/sequence"
)

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

// fakeClock records requested sleeps without actually sleeping.
type fakeClock struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (f *fakeClock) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sleeps = append(f.sleeps, d)
	return nil
}

func (f *fakeClock) durations() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.sleeps...)
}

func newTestExecutor(t *testing.T, seed int64) (*input.Executor, *input.Recorder, *fakeClock) {
	t.Helper()
	rec := input.NewRecorder()
	clock := &fakeClock{}
	exec := input.NewExecutor(rec, input.NewJitter(seed), input.WithSleep(clock.sleep))
	return exec, rec, clock
}

func countKind(events []input.Event, kind string) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func assertBetween(t *testing.T, d, lo, hi time.Duration) {
	t.Helper()
	assert.GreaterOrEqual(t, d, lo)
	assert.LessOrEqual(t, d, hi)
}

func TestExecute_ChanceZeroNeverRuns(t *testing.T) {
	exec, rec, clock := newTestExecutor(t, 1)
	a := sequence.Action{Type: "key", Key: "a", Chance: intp(0), Delay: 5}

	for i := 0; i < 1000; i++ {
		require.NoError(t, exec.Execute(context.Background(), a, nil))
	}

	assert.Empty(t, rec.Events())
	assert.Empty(t, clock.durations(), "skipped actions must not sleep their trailing delay")
}

func TestExecute_ChanceAlwaysRuns(t *testing.T) {
	for name, chance := range map[string]*int{
		"chance=100": intp(100),
		"absent":     nil,
	} {
		t.Run(name, func(t *testing.T) {
			exec, rec, _ := newTestExecutor(t, 1)
			a := sequence.Action{Type: "key", Key: "a", Chance: chance}

			const trials = 200
			for i := 0; i < trials; i++ {
				require.NoError(t, exec.Execute(context.Background(), a, nil))
			}
			assert.Equal(t, trials, countKind(rec.Events(), input.EventKeyDown))
		})
	}
}

func TestExecute_ChanceFrequency(t *testing.T) {
	exec, rec, _ := newTestExecutor(t, 42)
	a := sequence.Action{Type: "key", Key: "a", Chance: intp(30)}

	const trials = 10000
	for i := 0; i < trials; i++ {
		require.NoError(t, exec.Execute(context.Background(), a, nil))
	}

	freq := float64(countKind(rec.Events(), input.EventKeyDown)) / trials
	assert.InDelta(t, 0.30, freq, 0.03)
}

func TestExecute_KeyPress(t *testing.T) {
	exec, rec, clock := newTestExecutor(t, 1)

	err := exec.Execute(context.Background(), sequence.Action{Type: "key", Verb: "press", Key: "2"}, nil)
	require.NoError(t, err)

	events := rec.Events()
	require.Len(t, events, 2)
	assert.Equal(t, input.EventKeyDown, events[0].Kind)
	assert.Equal(t, "2", events[0].Name)
	assert.Equal(t, input.EventKeyUp, events[1].Kind)
	assert.Equal(t, "2", events[1].Name)

	ds := clock.durations()
	require.Len(t, ds, 2)
	assertBetween(t, ds[0], 50*time.Millisecond, 90*time.Millisecond) // reaction pre-delay
	assertBetween(t, ds[1], 10*time.Millisecond, 30*time.Millisecond) // randomized hold
}

func TestExecute_KeyPress_ExactDuration(t *testing.T) {
	exec, _, clock := newTestExecutor(t, 1)

	a := sequence.Action{Type: "key", Verb: "press", Key: "a", Duration: floatp(2.5)}
	require.NoError(t, exec.Execute(context.Background(), a, nil))

	ds := clock.durations()
	require.Len(t, ds, 2)
	assert.Equal(t, 2500*time.Millisecond, ds[1], "explicit duration is exact, no jitter")
}

func TestExecute_KeyDownUp_TracksHeld(t *testing.T) {
	exec, rec, _ := newTestExecutor(t, 1)
	held := input.NewHeldSet()

	require.NoError(t, exec.Execute(context.Background(), sequence.Action{Type: "key", Verb: "down", Key: "shift"}, held))
	assert.False(t, held.Empty())
	require.Len(t, rec.Events(), 1)
	assert.Equal(t, input.EventKeyDown, rec.Events()[0].Kind)

	require.NoError(t, exec.Execute(context.Background(), sequence.Action{Type: "key", Verb: "up", Key: "shift"}, held))
	assert.True(t, held.Empty())
	require.Len(t, rec.Events(), 2)
	assert.Equal(t, input.EventKeyUp, rec.Events()[1].Kind)
}

func TestExecute_KeyHold(t *testing.T) {
	t.Run("explicit duration", func(t *testing.T) {
		exec, rec, clock := newTestExecutor(t, 1)
		a := sequence.Action{Type: "key", Verb: "hold", Key: "space", Duration: floatp(0.2)}
		require.NoError(t, exec.Execute(context.Background(), a, nil))

		assert.Equal(t, 1, countKind(rec.Events(), input.EventKeyDown))
		assert.Equal(t, 1, countKind(rec.Events(), input.EventKeyUp))
		ds := clock.durations()
		require.Len(t, ds, 2)
		assert.Equal(t, 200*time.Millisecond, ds[1])
	})

	t.Run("absent duration releases immediately", func(t *testing.T) {
		exec, rec, clock := newTestExecutor(t, 1)
		a := sequence.Action{Type: "key", Verb: "hold", Key: "space"}
		require.NoError(t, exec.Execute(context.Background(), a, nil))

		assert.Equal(t, 1, countKind(rec.Events(), input.EventKeyUp))
		ds := clock.durations()
		require.Len(t, ds, 2)
		assert.Equal(t, time.Duration(0), ds[1])
	})
}

func TestExecute_UnknownActionType(t *testing.T) {
	exec, rec, _ := newTestExecutor(t, 1)

	err := exec.Execute(context.Background(), sequence.Action{Type: "bogus"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedAction))
	assert.True(t, errors.IsActionError(err))
	assert.Empty(t, rec.Events())
}

func TestExecute_UnknownSubAction(t *testing.T) {
	exec, _, _ := newTestExecutor(t, 1)

	err := exec.Execute(context.Background(), sequence.Action{Type: "key", Verb: "flip", Key: "a"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownSubAction))

	err = exec.Execute(context.Background(), sequence.Action{Type: "mouse", Verb: "yank"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownSubAction))
	assert.True(t, errors.IsActionError(err))
}

// Diagnostic mode narrates instead of failing so a whole document can
// be checked in one pass. No driver is needed at all.
func TestExecute_DiagnosticDowngradesUnknowns(t *testing.T) {
	exec := input.NewExecutor(nil, input.NewJitter(1), input.WithDiagnostic())
	ctx := context.Background()

	require.NoError(t, exec.Execute(ctx, sequence.Action{Type: "bogus"}, nil))
	require.NoError(t, exec.Execute(ctx, sequence.Action{Type: "key", Verb: "flip", Key: "a"}, nil))
	require.NoError(t, exec.Execute(ctx, sequence.Action{Type: "key", Key: "a", Delay: 1}, nil))
	require.NoError(t, exec.Execute(ctx, sequence.Action{Type: "mouse", X: intp(10), Y: intp(20)}, nil))
}

func TestExecute_Wait(t *testing.T) {
	exec, rec, clock := newTestExecutor(t, 1)

	require.NoError(t, exec.Execute(context.Background(), sequence.Action{Type: "wait", Seconds: 1}, nil))

	assert.Empty(t, rec.Events(), "wait performs no input events")
	ds := clock.durations()
	require.Len(t, ds, 1)
	assertBetween(t, ds[0], 900*time.Millisecond, 1100*time.Millisecond)
}

func TestExecute_SuperWait_Exact(t *testing.T) {
	exec, _, clock := newTestExecutor(t, 1)

	require.NoError(t, exec.Execute(context.Background(), sequence.Action{Type: "superwait", Seconds: 3}, nil))

	ds := clock.durations()
	require.Len(t, ds, 1)
	assert.Equal(t, 3*time.Second, ds[0])
}

func TestExecute_TrailingDelay(t *testing.T) {
	exec, _, clock := newTestExecutor(t, 1)

	a := sequence.Action{Type: "key", Key: "a", Delay: 1}
	require.NoError(t, exec.Execute(context.Background(), a, nil))

	ds := clock.durations()
	require.Len(t, ds, 3) // pre-delay, hold, trailing delay
	assertBetween(t, ds[2], 1000*time.Millisecond, 1100*time.Millisecond)
}

func TestExecute_MouseClick_GlidesToTarget(t *testing.T) {
	exec, rec, clock := newTestExecutor(t, 7)

	a := sequence.Action{Type: "mouse", X: intp(500), Y: intp(400)}
	require.NoError(t, exec.Execute(context.Background(), a, nil))

	events := rec.Events()
	moves := countKind(events, input.EventMove)
	require.GreaterOrEqual(t, moves, 10, "curve interpolates at least 10 steps")

	var last input.Event
	for _, e := range events {
		if e.Kind == input.EventMove {
			last = e
		}
	}
	assert.InDelta(t, 500, last.X, 2, "lands within the ±2px offset")
	assert.InDelta(t, 400, last.Y, 2)

	assert.Equal(t, 1, countKind(events, input.EventButtonDown))
	assert.Equal(t, 1, countKind(events, input.EventButtonUp))

	// Sleeps: one per glide step but the last, then settle, then hold.
	ds := clock.durations()
	require.Len(t, ds, moves+1)
	for _, d := range ds[:moves-1] {
		assertBetween(t, d, time.Millisecond, 3*time.Millisecond)
	}
	assertBetween(t, ds[len(ds)-2], 20*time.Millisecond, 50*time.Millisecond) // settle
	assertBetween(t, ds[len(ds)-1], 10*time.Millisecond, 30*time.Millisecond) // button hold
}

// A click whose offset target matches the cursor skips the movement
// phase entirely but still clicks.
func TestExecute_MouseClick_NoMoveWhenAlreadyAtTarget(t *testing.T) {
	exec, rec, _ := newTestExecutor(t, 3)
	a := sequence.Action{Type: "mouse", X: intp(100), Y: intp(100)}

	zeroMoveTrials := 0
	for i := 0; i < 1000; i++ {
		rec.Reset()
		rec.SetPosition(100, 100)
		require.NoError(t, exec.Execute(context.Background(), a, nil))

		events := rec.Events()
		if countKind(events, input.EventMove) == 0 {
			zeroMoveTrials++
			assert.Equal(t, 1, countKind(events, input.EventButtonDown), "click still fires without movement")
			assert.Equal(t, 1, countKind(events, input.EventButtonUp))
		}
	}
	assert.Greater(t, zeroMoveTrials, 0, "the ±2px offset lands on the cursor sometimes")
}

func TestExecute_MouseClick_MultiClick(t *testing.T) {
	t.Run("explicit interval", func(t *testing.T) {
		exec, rec, clock := newTestExecutor(t, 1)
		a := sequence.Action{Type: "mouse", Clicks: intp(3), Interval: 0.1}
		require.NoError(t, exec.Execute(context.Background(), a, nil))

		assert.Equal(t, 3, countKind(rec.Events(), input.EventButtonDown))
		assert.Equal(t, 3, countKind(rec.Events(), input.EventButtonUp))

		ds := clock.durations()
		require.Len(t, ds, 5) // hold, gap, hold, gap, hold
		assertBetween(t, ds[1], 90*time.Millisecond, 110*time.Millisecond)
		assertBetween(t, ds[3], 90*time.Millisecond, 110*time.Millisecond)
	})

	t.Run("default interval", func(t *testing.T) {
		exec, _, clock := newTestExecutor(t, 1)
		a := sequence.Action{Type: "mouse", Clicks: intp(2)}
		require.NoError(t, exec.Execute(context.Background(), a, nil))

		ds := clock.durations()
		require.Len(t, ds, 3)
		assertBetween(t, ds[1], 50*time.Millisecond, 90*time.Millisecond)
	})
}

func TestExecute_MouseHold_ExactDuration(t *testing.T) {
	exec, rec, clock := newTestExecutor(t, 1)

	a := sequence.Action{Type: "mouse", Verb: "hold", Button: "right", Duration: floatp(0.35)}
	require.NoError(t, exec.Execute(context.Background(), a, nil))

	events := rec.Events()
	require.Len(t, events, 2)
	assert.Equal(t, input.EventButtonDown, events[0].Kind)
	assert.Equal(t, "right", events[0].Name)
	assert.Equal(t, input.EventButtonUp, events[1].Kind)

	ds := clock.durations()
	require.Len(t, ds, 1)
	assert.Equal(t, 350*time.Millisecond, ds[0])
}

func TestExecute_MouseDown_ReleaseRestores(t *testing.T) {
	exec, rec, _ := newTestExecutor(t, 1)
	held := input.NewHeldSet()

	require.NoError(t, exec.Execute(context.Background(), sequence.Action{Type: "mouse", Verb: "down", Button: "right"}, held))
	assert.False(t, held.Empty())

	exec.Release(held)
	assert.True(t, held.Empty())

	events := rec.Events()
	require.Len(t, events, 2)
	assert.Equal(t, input.EventButtonUp, events[1].Kind)
	assert.Equal(t, "right", events[1].Name)
}

func TestExecute_Repeat(t *testing.T) {
	exec, rec, clock := newTestExecutor(t, 1)

	a := sequence.Action{
		Type:    "repeat",
		Every:   0.5,
		Count:   intp(3),
		Actions: []sequence.Action{{Type: "key", Key: "a"}},
	}
	require.NoError(t, exec.Execute(context.Background(), a, nil))

	assert.Equal(t, 3, countKind(rec.Events(), input.EventKeyDown))

	// Per press: pre-delay + hold. Between iterations: the jittered
	// interval, not after the last.
	ds := clock.durations()
	require.Len(t, ds, 8)
	assertBetween(t, ds[2], 450*time.Millisecond, 550*time.Millisecond)
	assertBetween(t, ds[5], 450*time.Millisecond, 550*time.Millisecond)
}

func TestExecute_Repeat_EveryNonPositiveRunsOnce(t *testing.T) {
	for name, count := range map[string]*int{
		"with count":    intp(5),
		"without count": nil,
		"count zero":    intp(0),
	} {
		t.Run(name, func(t *testing.T) {
			exec, rec, _ := newTestExecutor(t, 1)
			a := sequence.Action{
				Type:    "repeat",
				Count:   count,
				Actions: []sequence.Action{{Type: "key", Key: "a"}},
			}
			require.NoError(t, exec.Execute(context.Background(), a, nil))
			assert.Equal(t, 1, countKind(rec.Events(), input.EventKeyDown))
		})
	}
}

func TestExecute_Repeat_CountZero(t *testing.T) {
	exec, rec, clock := newTestExecutor(t, 1)

	a := sequence.Action{
		Type:    "repeat",
		Every:   1,
		Count:   intp(0),
		Actions: []sequence.Action{{Type: "key", Key: "a"}},
	}
	require.NoError(t, exec.Execute(context.Background(), a, nil))
	assert.Empty(t, rec.Events())
	assert.Empty(t, clock.durations())
}

func TestExecute_CancelledContext(t *testing.T) {
	exec, rec, _ := newTestExecutor(t, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := exec.Execute(ctx, sequence.Action{Type: "wait", Seconds: 1}, nil)
	require.Error(t, err)
	assert.Empty(t, rec.Events())
}

// Cancellation during a press leaves the key logically down; Release
// restores it.
func TestExecute_CancelMidPress_ReleaseRestores(t *testing.T) {
	rec := input.NewRecorder()
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	sleep := func(ctx context.Context, d time.Duration) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		calls++
		if calls == 2 { // the hold between down and up
			cancel()
			return ctx.Err()
		}
		return nil
	}
	exec := input.NewExecutor(rec, input.NewJitter(1), input.WithSleep(sleep))
	held := input.NewHeldSet()

	err := exec.Execute(ctx, sequence.Action{Type: "key", Key: "a"}, held)
	require.Error(t, err)

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, input.EventKeyDown, events[0].Kind)
	assert.False(t, held.Empty())

	exec.Release(held)
	events = rec.Events()
	require.Len(t, events, 2)
	assert.Equal(t, input.EventKeyUp, events[1].Kind)
	assert.True(t, held.Empty())
}
