package config

import (
	"os"
	"time"
)

// ReloadInterval is the shortest time between two checks of the file.
const ReloadInterval = time.Second

// Watcher reloads a config file when its modification time changes.
type Watcher struct {
	path    string
	mtime   time.Time
	checked time.Time
}

// NewWatcher returns a watcher for path. The file as it is now counts as
// already loaded.
func NewWatcher(path string) *Watcher {
	w := &Watcher{path: path}

	if info, err := os.Stat(path); err == nil {
		w.mtime = info.ModTime()
	}

	return w
}

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

// Poll returns the reloaded config if the file changed since the last load.
// It returns nil, nil when there is nothing new or the last check was less
// than ReloadInterval ago. A file that cannot be stat'd is left alone; one
// that changed but fails to load is an error.
func (w *Watcher) Poll(now time.Time) (*Config, error) {
	if !w.checked.IsZero() && now.Sub(w.checked) < ReloadInterval {
		return nil, nil
	}

	w.checked = now

	info, err := os.Stat(w.path)
	if err != nil || info.ModTime().Equal(w.mtime) {
		return nil, nil
	}

	w.mtime = info.ModTime()

	return Load(w.path)
}
