// Package watch reports changes to widget sources and schedule records so
// a running daemon can reload without a restart.
package watch

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mzeryck/widgetsched/pkg/logger"
)

const (
	DefaultDelay = 250 * time.Millisecond

	restartBackoffBase = 250 * time.Millisecond
	restartBackoffMax  = 5 * time.Second
)

// Watcher collects file events in a set of directories and calls OnChange
// once the burst has settled for Delay.
type Watcher struct {
	Dirs []string
	// Match selects the file names (base names) of interest. Nil matches
	// everything.
	Match func(name string) bool
	// OnChange receives the sorted base names changed during the burst.
	OnChange func(names []string)
	Delay    time.Duration
	Log      logger.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]struct{}
}

// Extensions returns a Match func accepting the given extensions.
func Extensions(exts ...string) func(string) bool {
	return func(name string) bool {
		ext := strings.ToLower(filepath.Ext(name))
		for _, e := range exts {
			if ext == e {
				return true
			}
		}
		return false
	}
}

func (w *Watcher) log() logger.Logger {
	if w.Log == nil {
		return logger.NewNopLogger()
	}
	return w.Log
}

func (w *Watcher) delay() time.Duration {
	if w.Delay <= 0 {
		return DefaultDelay
	}
	return w.Delay
}

func (w *Watcher) touch(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		w.pending = make(map[string]struct{})
	}
	w.pending[name] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay(), w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	names := make([]string, 0, len(w.pending))
	for n := range w.pending {
		names = append(names, n)
	}
	w.pending = nil
	w.mu.Unlock()
	if len(names) == 0 || w.OnChange == nil {
		return
	}
	sort.Strings(names)
	w.OnChange(names)
}

func (w *Watcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// Run watches until ctx is cancelled. A watcher that breaks is recreated
// with a growing backoff.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()
	backoff := restartBackoffBase
	for ctx.Err() == nil {
		if err := w.watchOnce(ctx); err != nil {
			w.log().Warning("watch: %v; restarting in %s", err, backoff)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, restartBackoffMax)
	}
	return nil
}

func (w *Watcher) watchOnce(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	for _, d := range w.Dirs {
		if err := fw.Add(d); err != nil {
			return err
		}
	}
	const ops = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return fsnotify.ErrClosed
			}
			name := filepath.Base(ev.Name)
			if ev.Op&ops == 0 || (w.Match != nil && !w.Match(name)) {
				continue
			}
			w.touch(name)
		case err, ok := <-fw.Errors:
			if !ok {
				return fsnotify.ErrClosed
			}
			if err == fsnotify.ErrEventOverflow {
				w.log().Warning("watch: event overflow, forcing reload")
				w.touch("")
				continue
			}
			w.log().Warning("watch: %v", err)
		}
	}
}
