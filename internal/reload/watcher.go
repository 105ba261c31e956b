// Package reload turns filesystem notifications for one script file into a
// single dirty flag the host polls once per update.
package reload

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/cryguy/livefx/internal/core"
	"github.com/fsnotify/fsnotify"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("livefx.reload")

// Watcher has two states, Clean and Dirty. Notification delivery moves it
// to Dirty from its own goroutine; TakeDirty moves it back to Clean from
// the host's update call.
type Watcher struct {
	path  string
	dir   string
	fsw   *fsnotify.Watcher
	dirty atomic.Bool
	done  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// New starts watching path. The file must exist. The parent directory is
// watched too, filtered by name, so editors that save by renaming a
// temporary file over the original keep triggering reloads.
func New(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &core.WatcherSetupError{Path: path, Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &core.WatcherSetupError{Path: abs, Err: err}
	}
	if info.IsDir() {
		return nil, &core.WatcherSetupError{Path: abs, Err: fmt.Errorf("is a directory")}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &core.WatcherSetupError{Path: abs, Err: err}
	}
	w := &Watcher{
		path: abs,
		dir:  filepath.Dir(abs),
		fsw:  fsw,
		done: make(chan struct{}),
	}
	for _, p := range []string{abs, w.dir} {
		if err := fsw.Add(p); err != nil {
			fsw.Close()
			return nil, &core.WatcherSetupError{Path: p, Err: err}
		}
	}

	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				log.Warning("event channel closed; hot reload stopped", "path", w.path)
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			log.Debugf("%s: %s", ev.Op, ev.Name)
			w.dirty.Store(true)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				log.Warning("error channel closed; hot reload stopped", "path", w.path)
				return
			}
			log.Errorf("watching %s: %v", w.path, err)
		}
	}
}

// Dirty reports whether a change was observed since the last TakeDirty.
func (w *Watcher) Dirty() bool {
	return w.dirty.Load()
}

// MarkDirty forces a reload on the next update.
func (w *Watcher) MarkDirty() {
	w.dirty.Store(true)
}

// TakeDirty performs the Dirty to Clean transition. It returns true exactly
// once per observed batch of changes.
func (w *Watcher) TakeDirty() bool {
	return w.dirty.CompareAndSwap(true, false)
}

// Rearm re-registers the exact-path watch. Backends drop a file watch when
// the file is replaced, so the host calls this after every successful load.
func (w *Watcher) Rearm() error {
	_ = w.fsw.Remove(w.path)
	if err := w.fsw.Add(w.path); err != nil {
		return fmt.Errorf("re-arming watch on %s: %w", w.path, err)
	}
	return nil
}

// Close stops notification delivery. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}
