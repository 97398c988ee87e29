package watcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/inswing/procspec/pkg/spec"
	"github.com/inswing/procspec/pkg/types"
	"github.com/inswing/procspec/pkg/util"
)

// ReloadFunc receives the freshly loaded declaration, or the error that
// prevented loading it.
type ReloadFunc func(decl *spec.Declaration, err error)

// Watcher reloads a whole declaration file each time it changes on disk.
// Loaded records are immutable, so a change is always delivered as a new
// Declaration.
type Watcher struct {
	path     string
	onReload ReloadFunc
	debounce time.Duration

	log *logrus.Entry
}

func New(path string, onReload ReloadFunc) (*Watcher, error) {
	if onReload == nil {
		return nil, errors.New("reload callback is required")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve declaration path %v", path)
	}
	return &Watcher{
		path:     absPath,
		onReload: onReload,
		debounce: types.WatchDebounceInterval,
		log: logrus.WithFields(logrus.Fields{
			util.LogComponentField: "watcher",
			"file":                 absPath,
		}),
	}, nil
}

func (w *Watcher) Path() string {
	return w.path
}

// Run delivers the current declaration, then one reload per settled burst
// of changes, until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer func() {
		if err := fsw.Close(); err != nil {
			w.log.WithError(err).Warn("Failed to close file watcher")
		}
	}()

	// Watch the directory: editors and WriteFile replace the file by rename,
	// which drops a watch placed on the file itself.
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return errors.Wrapf(err, "failed to watch directory of %v", w.path)
	}

	w.reload()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopped watching declaration")
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path || event.Op == fsnotify.Chmod {
				continue
			}
			w.log.Debugf("Declaration changed: %v", event.Op)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("File watcher error")
		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	decl, err := spec.LoadFile(w.path)
	if err != nil {
		w.log.WithError(err).Warn("Failed to reload declaration")
	} else {
		w.log.Infof("Reloaded declaration with %d process(es)", decl.Len())
	}
	w.onReload(decl, err)
}
