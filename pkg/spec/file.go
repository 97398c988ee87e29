package spec

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/inswing/procspec/pkg/types"
)

type renderedDeclaration struct {
	Apps []renderedProcess `yaml:"apps"`
}

type renderedProcess struct {
	Name             string            `yaml:"name"`
	Script           string            `yaml:"script"`
	Interpreter      string            `yaml:"interpreter,omitempty"`
	Cwd              string            `yaml:"cwd,omitempty"`
	Instances        int               `yaml:"instances"`
	Autorestart      bool              `yaml:"autorestart"`
	Watch            bool              `yaml:"watch"`
	MaxMemoryRestart string            `yaml:"max_memory_restart,omitempty"`
	Env              map[string]string `yaml:"env"`
}

func LockFilePath(path string) string {
	return path + types.LockFileSuffix
}

// LoadFile reads and loads the declaration at path. When a lock file left
// by WriteFile exists, a shared lock is held while reading so a concurrent
// rewrite is never observed half way. Reading never creates the lock file.
func LoadFile(path string) (*Declaration, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "failed to read declaration %v", path)
	}

	lockPath := LockFilePath(path)
	if _, err := os.Stat(lockPath); err == nil {
		fileLock := flock.New(lockPath)
		if err := fileLock.RLock(); err != nil {
			logrus.WithError(err).Warnf("Failed to take shared lock %v, reading declaration %v unlocked", lockPath, path)
		} else {
			defer func() {
				if err := fileLock.Unlock(); err != nil {
					logrus.WithError(err).Warnf("Failed to release shared lock %v", lockPath)
				}
			}()
		}
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read declaration %v", path)
	}
	return Load(source)
}

// Render emits the declaration as YAML with defaults spelled out. Loading
// the output yields an equal declaration.
func (d *Declaration) Render() ([]byte, error) {
	out := renderedDeclaration{Apps: make([]renderedProcess, 0, len(d.apps))}
	for _, app := range d.apps {
		rendered := renderedProcess{
			Name:        app.Name,
			Script:      app.Script,
			Interpreter: app.Interpreter,
			Cwd:         app.Cwd,
			Instances:   app.Instances,
			Autorestart: app.Autorestart,
			Watch:       app.Watch,
			Env:         app.Env,
		}
		if app.MaxMemoryRestart > 0 {
			rendered.MaxMemoryRestart = FormatMemory(app.MaxMemoryRestart)
		}
		out.Apps = append(out.Apps, rendered)
	}

	buf := &bytes.Buffer{}
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return nil, errors.Wrap(err, "failed to render declaration")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to render declaration")
	}
	return buf.Bytes(), nil
}

// WriteFile replaces the declaration at path with the rendered form of
// decl. The file is swapped in with a rename under an exclusive lock.
func WriteFile(path string, decl *Declaration) (err error) {
	data, err := decl.Render()
	if err != nil {
		return err
	}

	fileLock := flock.New(LockFilePath(path))
	if err := fileLock.Lock(); err != nil {
		return errors.Wrapf(err, "failed to lock declaration %v", path)
	}
	defer func() {
		if unlockErr := fileLock.Unlock(); unlockErr != nil {
			logrus.WithError(unlockErr).Warnf("Failed to release lock %v", fileLock.Path())
		}
	}()

	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "failed to create temporary file for %v", path)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to write %v", tmp.Name())
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to sync %v", tmp.Name())
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %v", tmp.Name())
	}
	if err = os.Chmod(tmp.Name(), mode); err != nil {
		return errors.Wrapf(err, "failed to set mode of %v", tmp.Name())
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "failed to replace %v", path)
	}
	return nil
}
