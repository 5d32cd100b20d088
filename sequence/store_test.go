package sequence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cadence/errors"
)

func intp(v int) *int { return &v }

func TestLoad_WrappedDocument(t *testing.T) {
	doc := []byte(`{"sequences": {"seq1": [{"type": "wait", "seconds": 1}]}}`)

	s := NewStore()
	names, err := s.Load(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"seq1"}, names)

	seq, err := s.Get("seq1")
	require.NoError(t, err)
	assert.True(t, seq.Bare())
	require.Len(t, seq.Actions, 1)
	assert.Equal(t, KindWait, seq.Actions[0].Kind())
	assert.Equal(t, 1.0, seq.Actions[0].Seconds)
}

func TestLoad_TopLevelMapping(t *testing.T) {
	doc := []byte(`{"combo": {"every": 12, "actions": [{"type": "key", "action": "press", "key": "2"}]}}`)

	s := NewStore()
	names, err := s.Load(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"combo"}, names)

	seq, err := s.Get("combo")
	require.NoError(t, err)
	assert.False(t, seq.Bare())
	assert.True(t, seq.Periodic())
	assert.Equal(t, 12.0, seq.Every)
}

func TestLoad_UnsupportedTopLevel(t *testing.T) {
	for _, doc := range []string{`[1, 2, 3]`, `"just a string"`, `42`} {
		_, err := NewStore().Load([]byte(doc))
		require.Error(t, err, "document %s should be rejected", doc)
		assert.True(t, errors.Is(err, errors.ErrUnsupportedFormat))
	}
}

func TestLoad_MergeOverwritesByName(t *testing.T) {
	s := NewStore()

	_, err := s.Load([]byte(`{"a": [{"type": "wait", "seconds": 1}], "b": [{"type": "wait", "seconds": 2}]}`))
	require.NoError(t, err)

	names, err := s.Load([]byte(`{"b": [{"type": "wait", "seconds": 9}], "c": [{"type": "wait", "seconds": 3}]}`))
	require.NoError(t, err)

	// Merged name list keeps first-appearance order.
	assert.Equal(t, []string{"a", "b", "c"}, names)
	assert.Equal(t, names, s.Names())

	b, err := s.Get("b")
	require.NoError(t, err)
	require.Len(t, b.Actions, 1)
	assert.Equal(t, 9.0, b.Actions[0].Seconds, "later load should overwrite earlier entry")
}

func TestGet_NotFound(t *testing.T) {
	_, err := NewStore().Get("ghost")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestStore_RoundTrip(t *testing.T) {
	doc := []byte(`{
  "sequences": {
    "combo": {"every": 10, "actions": [
      {"type": "key", "action": "press", "key": "2", "chance": 50, "delay": 0.5},
      {"type": "mouse", "action": "click", "button": "left", "x": 100, "y": 200, "clicks": 2, "interval": 0.1},
      {"type": "repeat", "every": 2, "count": 3, "actions": [{"type": "wait", "seconds": 0.2}]}
    ]},
    "oneshot": [{"type": "superwait", "seconds": 3}]
  }
}`)

	s := NewStore()
	names, err := s.Load(doc)
	require.NoError(t, err)
	require.Equal(t, []string{"combo", "oneshot"}, names)

	combo, err := s.Get("combo")
	require.NoError(t, err)
	assert.Equal(t, Sequence{
		Name:  "combo",
		Every: 10,
		Actions: []Action{
			{Type: "key", Verb: "press", Key: "2", Chance: intp(50), Delay: 0.5},
			{Type: "mouse", Verb: "click", Button: "left", X: intp(100), Y: intp(200), Clicks: intp(2), Interval: 0.1},
			{Type: "repeat", Every: 2, Count: intp(3), Actions: []Action{{Type: "wait", Seconds: 0.2}}},
		},
	}, combo)

	oneshot, err := s.Get("oneshot")
	require.NoError(t, err)
	assert.True(t, oneshot.Bare())
	assert.Equal(t, []Action{{Type: "superwait", Seconds: 3}}, oneshot.Actions)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sequences.yaml")
	body := `combo:
  every: 5
  actions:
    - type: wait
      seconds: 1
quick:
  - type: key
    key: a
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	s := NewStore()
	names, err := s.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"combo", "quick"}, names)
	assert.Equal(t, []string{"combo"}, s.PeriodicNames())
	assert.Equal(t, 2, s.Len())
}

func TestLoadFile_Missing(t *testing.T) {
	s := NewStore()
	_, err := s.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
