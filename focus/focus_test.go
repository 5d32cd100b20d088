package focus_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cadence/focus"
)

func TestMatchTitle(t *testing.T) {
	targets := []string{"World of Warcraft"}

	assert.True(t, focus.MatchTitle("World of Warcraft", targets))
	assert.True(t, focus.MatchTitle("world of warcraft", targets))
	assert.True(t, focus.MatchTitle("World of Warcraft - Retail", targets))
	assert.False(t, focus.MatchTitle("Terminal", targets))
	assert.False(t, focus.MatchTitle("", targets))

	assert.True(t, focus.MatchTitle("Anything", []string{"WoW", "any"}))
	assert.False(t, focus.MatchTitle("Anything", nil))
}

func TestStaticGate(t *testing.T) {
	on := focus.Static{Answer: true}
	assert.True(t, on.Active())
	assert.Equal(t, time.Second, on.CheckInterval())

	off := focus.Static{Answer: false, Interval: 250 * time.Millisecond}
	assert.False(t, off.Active())
	assert.Equal(t, 250*time.Millisecond, off.CheckInterval())
}

func TestProcessGate(t *testing.T) {
	exe, err := os.Executable()
	require.NoError(t, err)

	self := focus.NewProcessGate(filepath.Base(exe), 0)
	assert.True(t, self.Active(), "the test process itself is running")
	assert.Equal(t, time.Second, self.CheckInterval())

	ghost := focus.NewProcessGate("cadence-no-such-process", time.Second)
	assert.False(t, ghost.Active())
}

func TestX11Gate(t *testing.T) {
	if os.Getenv("DISPLAY") == "" {
		t.Skip("no X display available")
	}

	gate, err := focus.NewX11Gate([]string{"definitely-not-a-real-window-title"}, time.Second)
	require.NoError(t, err)
	defer gate.Close()

	assert.False(t, gate.Active())
	assert.Equal(t, time.Second, gate.CheckInterval())
}
