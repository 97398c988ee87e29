package spec

import (
	"github.com/docker/go-units"

	"github.com/inswing/procspec/pkg/types"
	"github.com/inswing/procspec/pkg/util"
)

// ProcessSpec holds the launch and restart parameters of one managed
// process. Values handed out by a Declaration are copies.
type ProcessSpec struct {
	Name        string `json:"name"`
	Script      string `json:"script"`
	Interpreter string `json:"interpreter,omitempty"`
	Cwd         string `json:"cwd,omitempty"`
	Instances   int    `json:"instances"`
	Autorestart bool   `json:"autorestart"`
	Watch       bool   `json:"watch"`
	// MaxMemoryRestart is the resident memory ceiling in bytes, 0 for none.
	MaxMemoryRestart int64             `json:"max_memory_restart"`
	Env              map[string]string `json:"env"`
}

// Command returns the argv the supervisor executes in Cwd.
func (p ProcessSpec) Command() []string {
	if p.Interpreter == "" || p.Interpreter == types.InterpreterNone {
		return []string{p.Script}
	}
	return []string{p.Interpreter, p.Script}
}

// Environ returns base with the declared environment merged over it.
func (p ProcessSpec) Environ(base []string) []string {
	return util.MergeEnviron(base, p.Env)
}

func (p ProcessSpec) MemoryLimitString() string {
	if p.MaxMemoryRestart == 0 {
		return "unlimited"
	}
	return units.BytesSize(float64(p.MaxMemoryRestart))
}

func (p ProcessSpec) clone() ProcessSpec {
	env := make(map[string]string, len(p.Env))
	for k, v := range p.Env {
		env[k] = v
	}
	p.Env = env
	return p
}

// Declaration is the ordered, immutable list of process specifications
// produced by one load.
type Declaration struct {
	apps []ProcessSpec
}

func (d *Declaration) Len() int {
	return len(d.apps)
}

func (d *Declaration) Apps() []ProcessSpec {
	apps := make([]ProcessSpec, 0, len(d.apps))
	for _, app := range d.apps {
		apps = append(apps, app.clone())
	}
	return apps
}

func (d *Declaration) Names() []string {
	names := make([]string, 0, len(d.apps))
	for _, app := range d.apps {
		names = append(names, app.Name)
	}
	return names
}

func (d *Declaration) Get(name string) (ProcessSpec, bool) {
	for _, app := range d.apps {
		if app.Name == name {
			return app.clone(), true
		}
	}
	return ProcessSpec{}, false
}
