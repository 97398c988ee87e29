package spec

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/inswing/procspec/pkg/types"
	"github.com/inswing/procspec/pkg/util"
)

// rawProcess is a process mapping after structural checks. Pointers tell
// absent fields apart from zero values.
type rawProcess struct {
	location string

	name             *string
	script           *string
	interpreter      *string
	cwd              *string
	instances        *int
	autorestart      *bool
	watch            *bool
	maxMemoryRestart *string
	env              map[string]string
}

// Load parses a YAML or JSON declaration of the form {apps: [...]} and
// returns the validated process specifications. Unknown fields are rejected.
// Structural problems fail with *SchemaError, out-of-domain values with
// *ValidationError.
func Load(source []byte) (*Declaration, error) {
	root, err := decodeDocument(source)
	if err != nil {
		return nil, err
	}

	raws, err := decodeApps(root)
	if err != nil {
		return nil, err
	}

	return validate(raws)
}

func decodeDocument(source []byte) (*yaml.Node, error) {
	dec := yaml.NewDecoder(bytes.NewReader(source))

	doc := &yaml.Node{}
	if err := dec.Decode(doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, schemaErrorf("", "", "empty declaration")
		}
		return nil, schemaErrorf("", "", "cannot parse declaration: %v", err)
	}

	extra := &yaml.Node{}
	if err := dec.Decode(extra); err == nil {
		return nil, schemaErrorf("", "", "multiple documents are not supported")
	} else if !errors.Is(err, io.EOF) {
		return nil, schemaErrorf("", "", "cannot parse declaration: %v", err)
	}

	root := resolve(doc)
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, schemaErrorf("", "", "empty declaration")
		}
		root = resolve(root.Content[0])
	}
	return root, nil
}

func decodeApps(root *yaml.Node) ([]*rawProcess, error) {
	if root.Kind != yaml.MappingNode {
		return nil, schemaErrorf("", "", "declaration must be a mapping with an %q list", types.FieldApps)
	}

	var apps *yaml.Node
	err := forEachField(root, "", func(key string, value *yaml.Node) error {
		if key != types.FieldApps {
			return schemaErrorf("", key, "unknown field")
		}
		apps = value
		return nil
	})
	if err != nil {
		return nil, err
	}
	if apps == nil {
		return nil, schemaErrorf("", types.FieldApps, "required field is missing")
	}
	if apps.Kind != yaml.SequenceNode || len(apps.Content) == 0 {
		return nil, schemaErrorf("", types.FieldApps, "must be a non-empty list of processes")
	}

	raws := make([]*rawProcess, 0, len(apps.Content))
	for i, node := range apps.Content {
		raw, err := decodeProcess(fmt.Sprintf("%v[%d]", types.FieldApps, i), resolve(node))
		if err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}
	return raws, nil
}

func decodeProcess(location string, node *yaml.Node) (*rawProcess, error) {
	if node.Kind != yaml.MappingNode {
		return nil, schemaErrorf(location, "", "process must be a mapping")
	}

	raw := &rawProcess{location: location}
	err := forEachField(node, location, func(key string, value *yaml.Node) (err error) {
		switch key {
		case types.FieldName:
			raw.name, err = decodeString(location, key, value)
		case types.FieldScript:
			raw.script, err = decodeString(location, key, value)
		case types.FieldInterpreter:
			raw.interpreter, err = decodeString(location, key, value)
		case types.FieldCwd:
			raw.cwd, err = decodeString(location, key, value)
		case types.FieldInstances:
			raw.instances = new(int)
			err = decodeScalar(location, key, value, "!!int", "an integer", raw.instances)
		case types.FieldAutorestart:
			raw.autorestart = new(bool)
			err = decodeScalar(location, key, value, "!!bool", "a boolean", raw.autorestart)
		case types.FieldWatch:
			raw.watch = new(bool)
			err = decodeScalar(location, key, value, "!!bool", "a boolean", raw.watch)
		case types.FieldMaxMemoryRestart:
			raw.maxMemoryRestart, err = decodeMemory(location, key, value)
		case types.FieldEnv:
			raw.env, err = decodeEnv(location, key, value)
		default:
			err = schemaErrorf(location, key, "unknown field")
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if raw.script == nil {
		return nil, schemaErrorf(location, types.FieldScript, "required field is missing")
	}
	return raw, nil
}

// forEachField walks the key/value pairs of a mapping, rejecting non-scalar
// and repeated keys.
func forEachField(node *yaml.Node, location string, fn func(key string, value *yaml.Node) error) error {
	seen := sets.New[string]()
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := resolve(node.Content[i])
		if keyNode.Kind != yaml.ScalarNode {
			return schemaErrorf(location, "", "mapping keys must be scalars (line %d)", keyNode.Line)
		}
		key := keyNode.Value
		if seen.Has(key) {
			return schemaErrorf(location, key, "field is repeated (line %d)", keyNode.Line)
		}
		seen.Insert(key)
		if err := fn(key, resolve(node.Content[i+1])); err != nil {
			return err
		}
	}
	return nil
}

func decodeString(location, field string, node *yaml.Node) (*string, error) {
	if node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		return nil, schemaErrorf(location, field, "must be a string (line %d)", node.Line)
	}
	value := node.Value
	return &value, nil
}

// decodeScalar requires the resolved tag to be exactly tag, so that floats
// never truncate into integers and quoted yes/no/on/off never become booleans.
func decodeScalar(location, field string, node *yaml.Node, tag, kind string, out interface{}) error {
	if node.Kind != yaml.ScalarNode || node.Tag != tag {
		return schemaErrorf(location, field, "must be %v, got %q (line %d)", kind, node.Value, node.Line)
	}
	if err := node.Decode(out); err != nil {
		return schemaErrorf(location, field, "must be %v, got %q (line %d)", kind, node.Value, node.Line)
	}
	return nil
}

// decodeMemory accepts a quantity string or a bare integer byte count.
// Whether the value parses is a validation concern.
func decodeMemory(location, field string, node *yaml.Node) (*string, error) {
	if node.Kind != yaml.ScalarNode {
		return nil, schemaErrorf(location, field, "must be a size quantity (line %d)", node.Line)
	}
	switch node.Tag {
	case "!!str", "!!int":
	default:
		return nil, schemaErrorf(location, field, "must be a size quantity, got %q (line %d)", node.Value, node.Line)
	}
	value := node.Value
	return &value, nil
}

func decodeEnv(location, field string, node *yaml.Node) (map[string]string, error) {
	if node.Kind != yaml.MappingNode {
		return nil, schemaErrorf(location, field, "must be a mapping of names to values (line %d)", node.Line)
	}
	env := map[string]string{}
	err := forEachField(node, location, func(key string, value *yaml.Node) error {
		if value.Kind != yaml.ScalarNode || value.Tag == "!!null" {
			return schemaErrorf(location, field+"."+key, "must be a scalar value (line %d)", value.Line)
		}
		env[key] = value.Value
		return nil
	})
	if err != nil {
		return nil, err
	}
	return env, nil
}

func resolve(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func validate(raws []*rawProcess) (*Declaration, error) {
	var errs error
	names := sets.New[string]()
	apps := make([]ProcessSpec, 0, len(raws))

	for _, raw := range raws {
		app, err := buildProcess(raw)
		errs = multierr.Append(errs, err)

		if app.Name != "" {
			if names.Has(app.Name) {
				errs = multierr.Append(errs, fieldErrorf(raw.location, types.FieldName, "duplicate process name %q", app.Name))
			}
			names.Insert(app.Name)
		}
		apps = append(apps, app)
	}

	if errs != nil {
		return nil, &ValidationError{err: errs}
	}
	return &Declaration{apps: apps}, nil
}

func buildProcess(raw *rawProcess) (ProcessSpec, error) {
	var errs error
	location := raw.location

	app := ProcessSpec{
		Script:      *raw.script,
		Instances:   types.DefaultInstances,
		Autorestart: types.DefaultAutorestart,
		Watch:       types.DefaultWatch,
		Env:         map[string]string{},
	}

	if strings.TrimSpace(app.Script) == "" {
		errs = multierr.Append(errs, fieldErrorf(location, types.FieldScript, "must not be empty"))
	}

	switch {
	case raw.name != nil:
		app.Name = *raw.name
	case strings.TrimSpace(app.Script) != "":
		base := filepath.Base(app.Script)
		app.Name = strings.TrimSuffix(base, filepath.Ext(base))
		if app.Name == "" {
			app.Name = base
		}
	}
	if app.Name != "" || raw.name != nil {
		if !util.ValidProcessName(app.Name) {
			errs = multierr.Append(errs, fieldErrorf(location, types.FieldName,
				"invalid process name %q, must match [a-zA-Z0-9][a-zA-Z0-9_.-]* and be at most %d characters",
				app.Name, types.MaximumProcessNameSize))
		}
	}
	// Later problems are reported against the process name once it is known.
	if app.Name != "" {
		location = fmt.Sprintf("%v (%v)", raw.location, app.Name)
	}

	if raw.interpreter != nil {
		app.Interpreter = *raw.interpreter
	}

	if raw.cwd != nil {
		app.Cwd = *raw.cwd
		if !filepath.IsAbs(app.Cwd) {
			errs = multierr.Append(errs, fieldErrorf(location, types.FieldCwd, "must be an absolute path, got %q", app.Cwd))
		}
	}

	if raw.instances != nil {
		app.Instances = *raw.instances
		if app.Instances < 1 {
			errs = multierr.Append(errs, fieldErrorf(location, types.FieldInstances, "must be at least 1, got %d", app.Instances))
		}
	}

	if raw.autorestart != nil {
		app.Autorestart = *raw.autorestart
	}
	if raw.watch != nil {
		app.Watch = *raw.watch
	}

	if raw.maxMemoryRestart != nil {
		size, err := ParseMemory(*raw.maxMemoryRestart)
		if err != nil {
			errs = multierr.Append(errs, fieldErrorf(location, types.FieldMaxMemoryRestart, "%v", err))
		}
		app.MaxMemoryRestart = size
	}

	for _, k := range sets.List(sets.KeySet(raw.env)) {
		v := raw.env[k]
		if errList := util.ValidateEnvName(k); len(errList) > 0 {
			errs = multierr.Append(errs, fieldErrorf(location, types.FieldEnv, "invalid variable name %q: %v", k, errList[0]))
			continue
		}
		app.Env[k] = v
	}

	return app, errs
}
