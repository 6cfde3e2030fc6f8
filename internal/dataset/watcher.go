package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher calls onChange after the dataset file has been written, created or
// renamed into place. Bursts of events within the debounce window collapse into
// one call.
type Watcher struct {
	path     string
	logger   *logrus.Logger
	debounce time.Duration
	onChange func()
	ready    chan struct{}
}

func NewWatcher(path string, logger *logrus.Logger, onChange func()) *Watcher {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Watcher{
		path:     filepath.Clean(path),
		logger:   logger,
		debounce: 500 * time.Millisecond,
		onChange: onChange,
		ready:    make(chan struct{}),
	}
}

// Ready is closed once the underlying watch has been registered.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run blocks until ctx is cancelled. The parent directory is watched rather than
// the file itself so editors that replace the file are still picked up.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}
	close(w.ready)
	w.logger.WithField("path", w.path).Info("Watching dataset file for changes")

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.WithFields(logrus.Fields{
				"path":  event.Name,
				"event": event.Op.String(),
			}).Debug("Dataset file changed")
			fire = time.After(w.debounce)

		case <-fire:
			fire = nil
			w.onChange()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("Dataset watcher error")
		}
	}
}
