package profiles

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watch reloads the store whenever the profiles file changes. Editors and
// atomic saves replace the file, so watch the directory and filter by name.
// Returns a stop function.
func (s *Store) Watch() (func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	err = watcher.Add(filepath.Dir(s.path))
	if err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(s.path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}

				err := s.Reload()
				if err != nil {
					// keep the last good set
					logrus.WithError(err).Error("profiles reload failed")
				} else {
					logrus.Debug("profiles reloaded")
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logrus.WithError(err).Error("profiles watcher error")
			}
		}
	}()

	return watcher.Close, nil
}
