package tui

import (
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// dirChangedMsg reports a create/write/remove/rename under a watched dir.
type dirChangedMsg struct {
	path string
}

type watchErrMsg struct {
	err error
}

// dirWatcher forwards fsnotify events for the dump and artifact dirs.
type dirWatcher struct {
	w *fsnotify.Watcher
}

// newDirWatcher watches every existing dir in dirs. Missing dirs are skipped.
func newDirWatcher(dirs ...string) (*dirWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, d := range dirs {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if fi, err := os.Stat(d); err != nil || !fi.IsDir() {
			continue
		}
		if err := w.Add(d); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	return &dirWatcher{w: w}, nil
}

// next blocks until a relevant event arrives. Chmod-only events are ignored.
func (d *dirWatcher) next() tea.Cmd {
	if d == nil {
		return nil
	}
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-d.w.Events:
				if !ok {
					return nil
				}
				if ev.Op == fsnotify.Chmod {
					continue
				}
				return dirChangedMsg{path: ev.Name}
			case err, ok := <-d.w.Errors:
				if !ok {
					return nil
				}
				return watchErrMsg{err: err}
			}
		}
	}
}

func (d *dirWatcher) Close() error {
	if d == nil {
		return nil
	}
	return d.w.Close()
}
