// Package watcher monitors the search database file and triggers
// recreation when it disappears from disk.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const (
	defaultDebounce = 100 * time.Millisecond
	rewatchDelay    = 500 * time.Millisecond
)

// DBWatcher watches the database file's parent directory and invokes a
// recovery callback when the file or the directory itself is removed.
// The parent is watched because fsnotify cannot watch a path that no
// longer exists.
type DBWatcher struct {
	dbPath    string
	parentDir string
	onMissing func()

	fsw      *fsnotify.Watcher
	debounce time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool

	// pending deletion state, owned by the event loop
	deleteTimer *time.Timer
}

// New creates a watcher for dbPath. onMissing runs after a short debounce
// once the file is observed deleted and not immediately recreated.
func New(dbPath string, onMissing func()) (*DBWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &DBWatcher{
		dbPath:    filepath.Clean(dbPath),
		parentDir: filepath.Dir(dbPath),
		onMissing: onMissing,
		fsw:       fsw,
		debounce:  defaultDebounce,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start begins watching. Calling Start on a running watcher is a no-op.
func (w *DBWatcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watchParent(); err != nil {
		// The loop re-establishes the watch when the directory reappears.
		log.Warn().Err(err).Str("dir", w.parentDir).Msg("cannot watch database directory yet")
	}

	go w.loop()
	return nil
}

// Stop stops the watcher and releases the fsnotify handle.
func (w *DBWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	w.cancel()
	return w.fsw.Close()
}

func (w *DBWatcher) watchParent() error {
	if _, err := os.Stat(w.parentDir); err != nil {
		return err
	}
	return w.fsw.Add(w.parentDir)
}

func (w *DBWatcher) loop() {
	for {
		select {
		case <-w.ctx.Done():
			w.stopDeleteTimer()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("database watcher error")
		}
	}
}

// handleEvent classifies one fsnotify event against the database path.
func (w *DBWatcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	switch {
	case event.Op&fsnotify.Remove != 0 && (path == w.dbPath || path == w.parentDir):
		log.Info().Str("path", path).Msg("database path removed")
		w.scheduleRecovery()

	case event.Op&fsnotify.Create != 0 && path == w.dbPath:
		// Recreated before the debounce fired, nothing to recover.
		w.stopDeleteTimer()

	case event.Op&fsnotify.Create != 0 && path == w.parentDir:
		log.Info().Str("dir", w.parentDir).Msg("database directory recreated")
		if err := w.watchParent(); err != nil {
			log.Warn().Err(err).Str("dir", w.parentDir).Msg("failed to rewatch database directory")
		}
	}
}

// scheduleRecovery arms the debounced recovery callback, replacing any
// already-armed timer.
func (w *DBWatcher) scheduleRecovery() {
	w.stopDeleteTimer()
	w.deleteTimer = time.AfterFunc(w.debounce, w.recover)
}

func (w *DBWatcher) stopDeleteTimer() {
	if w.deleteTimer != nil {
		w.deleteTimer.Stop()
		w.deleteTimer = nil
	}
}

// recover invokes the recovery callback and re-establishes the directory
// watch once the callback has had a chance to recreate the path.
func (w *DBWatcher) recover() {
	log.Info().Str("path", w.dbPath).Msg("recreating missing database")
	if w.onMissing != nil {
		w.onMissing()
	}

	go func() {
		time.Sleep(rewatchDelay)
		if err := w.watchParent(); err != nil {
			log.Warn().Err(err).Str("dir", w.parentDir).Msg("failed to rewatch after recovery")
		}
	}()
}
