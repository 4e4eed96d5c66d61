// Package watch triggers an archive rebuild whenever one of its constituent
// input files changes, for the writer's "watch" mode.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a fixed set of input files and calls Rebuild (debounced)
// whenever one of them changes.
type Watcher struct {
	fw      *fsnotify.Watcher
	files   map[string]bool
	Rebuild func()
}

// New creates a Watcher over files, each added by watching its containing
// directory (fsnotify reports renames/atomic-save writes as events on the
// directory, not reliably on the file handle itself).
func New(files []string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}

	w := &Watcher{fw: fw, files: make(map[string]bool, len(files))}
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("resolve %s: %w", f, err)
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run blocks, invoking Rebuild (debounced by 500ms across rapid saves)
// whenever a watched file changes, until done is closed.
func (w *Watcher) Run(done <-chan struct{}) error {
	var timer *time.Timer

	for {
		select {
		case <-done:
			return w.fw.Close()

		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !w.files[abs] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(500*time.Millisecond, func() {
				fmt.Fprintf(os.Stderr, "[watch] rebuilding — %s changed\n", abs)
				if w.Rebuild != nil {
					w.Rebuild()
				}
			})

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "[watch] error: %v\n", err)
		}
	}
}
