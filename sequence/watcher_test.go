package sequence

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cadence/errors"
)

func writeDoc(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestDocumentWatcher_ReloadMergesAndNotifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sequences.yaml")
	writeDoc(t, path, "a:\n  - type: wait\n    seconds: 1\n")

	store := NewStore()
	_, err := store.LoadFile(path)
	require.NoError(t, err)

	dw, err := NewDocumentWatcher(path, store)
	require.NoError(t, err)
	defer dw.Stop()

	var mu sync.Mutex
	var got []string
	dw.OnReload(func(names []string) {
		mu.Lock()
		defer mu.Unlock()
		got = append([]string(nil), names...)
	})

	writeDoc(t, path, "a:\n  - type: wait\n    seconds: 1\nb:\n  - type: wait\n    seconds: 2\n")
	require.NoError(t, dw.reload())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 2, store.Len())
}

func TestDocumentWatcher_ReloadBadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sequences.yaml")
	writeDoc(t, path, "a:\n  - type: wait\n    seconds: 1\n")

	store := NewStore()
	dw, err := NewDocumentWatcher(path, store)
	require.NoError(t, err)
	defer dw.Stop()

	writeDoc(t, path, "[1, 2, 3]\n")
	err = dw.reload()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedFormat))
}

func TestDocumentWatcher_DetectsWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sequences.yaml")
	writeDoc(t, path, "a:\n  - type: wait\n    seconds: 1\n")

	store := NewStore()
	_, err := store.LoadFile(path)
	require.NoError(t, err)

	dw, err := NewDocumentWatcher(path, store)
	require.NoError(t, err)
	defer dw.Stop()
	dw.Start()

	writeDoc(t, path, "a:\n  - type: wait\n    seconds: 1\nb:\n  - type: wait\n    seconds: 2\n")

	// Debounce is 500ms, so give the reload some headroom.
	require.Eventually(t, func() bool {
		return store.Len() == 2
	}, 3*time.Second, 50*time.Millisecond)
}
