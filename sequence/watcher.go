package sequence

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/teranos/cadence/errors"
	"github.com/teranos/cadence/logger"
)

// ReloadFunc is called after the watched document merges into the
// store, with the store's full name list.
type ReloadFunc func(names []string)

// DocumentWatcher watches a sequence document for changes and reloads
// it into the store, debouncing rapid writes from editors that save in
// multiple events.
type DocumentWatcher struct {
	path           string
	store          *Store
	watcher        *fsnotify.Watcher
	mu             sync.Mutex
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	onReload       []ReloadFunc
}

// NewDocumentWatcher creates a watcher for the sequence document at
// path, merging changes into store.
func NewDocumentWatcher(path string, store *Store) (*DocumentWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, errors.Wrapf(err, "failed to watch sequence document %s", path)
	}

	return &DocumentWatcher{
		path:           path,
		store:          store,
		watcher:        watcher,
		debouncePeriod: 500 * time.Millisecond,
	}, nil
}

// OnReload registers a callback invoked after each successful reload.
func (dw *DocumentWatcher) OnReload(fn ReloadFunc) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	dw.onReload = append(dw.onReload, fn)
}

// Start begins watching in a background goroutine.
func (dw *DocumentWatcher) Start() {
	go dw.watchLoop()
}

func (dw *DocumentWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				logger.Debugw("Sequence document changed",
					logger.FieldFile, event.Name,
					"op", event.Op.String())
				dw.scheduleReload()
			}

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnw("Sequence document watcher error",
				logger.FieldError, err)
		}
	}
}

// scheduleReload debounces rapid file changes before reloading.
func (dw *DocumentWatcher) scheduleReload() {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.debounceTimer != nil {
		dw.debounceTimer.Stop()
	}
	dw.debounceTimer = time.AfterFunc(dw.debouncePeriod, func() {
		if err := dw.reload(); err != nil {
			logger.Errorw("Sequence document reload failed",
				logger.FieldFile, dw.path,
				logger.FieldError, err)
		}
	})
}

func (dw *DocumentWatcher) reload() error {
	names, err := dw.store.LoadFile(dw.path)
	if err != nil {
		return err
	}
	logger.Infow("Sequence document reloaded",
		logger.FieldFile, dw.path,
		logger.FieldCount, len(names))

	dw.mu.Lock()
	callbacks := make([]ReloadFunc, len(dw.onReload))
	copy(callbacks, dw.onReload)
	dw.mu.Unlock()

	for _, fn := range callbacks {
		fn(names)
	}
	return nil
}

// Stop stops watching the document.
func (dw *DocumentWatcher) Stop() error {
	return dw.watcher.Close()
}
