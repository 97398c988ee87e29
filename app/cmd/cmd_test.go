package cmd

import (
	"bytes"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli"

	"github.com/inswing/procspec/pkg/spec"
)

const testDeclaration = `
apps:
  - name: inswing-ai
    script: app.py
    interpreter: python3
    cwd: /home/ec2-user/inswing-ai
    instances: 1
    autorestart: true
    watch: false
    max_memory_restart: 500M
    env:
      FLASK_ENV: production
  - name: worker
    script: /srv/bin/worker run.sh
    instances: 2
`

func writeDeclaration(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ecosystem.config.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write declaration: %v", err)
	}
	return path
}

// newTestContext builds a command context whose parent carries the global
// --file flag, the way cli.App.Run wires them.
func newTestContext(t *testing.T, path string, define func(*flag.FlagSet), args ...string) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	app := cli.NewApp()
	out := &bytes.Buffer{}
	app.Writer = out

	globalSet := flag.NewFlagSet("global", flag.ContinueOnError)
	globalSet.String("file", path, "")
	globalCtx := cli.NewContext(app, globalSet, nil)

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	if define != nil {
		define(set)
	}
	if err := set.Parse(args); err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}
	return cli.NewContext(app, set, globalCtx), out
}

func TestValidate(t *testing.T) {
	ctx, out := newTestContext(t, writeDeclaration(t, testDeclaration), nil)
	if err := validateDeclaration(ctx); err != nil {
		t.Fatalf("Expected declaration to validate, got %v", err)
	}
	expected := "OK: 2 process(es): inswing-ai, worker\n"
	if out.String() != expected {
		t.Fatalf("Expected output %q, but got %q", expected, out.String())
	}
}

func TestValidateRejectsInvalidDeclaration(t *testing.T) {
	path := writeDeclaration(t, "apps:\n  - script: app.py\n    instances: 0\n")
	ctx, _ := newTestContext(t, path, nil)
	err := validateDeclaration(ctx)
	if err == nil {
		t.Fatal("Expected an error for instances 0, but got nil")
	}
	if !spec.IsValidationError(err) {
		t.Fatalf("Expected a validation error, but got %v", err)
	}

	path = writeDeclaration(t, "apps:\n  - name: app\n")
	ctx, _ = newTestContext(t, path, nil)
	if err := validateDeclaration(ctx); !spec.IsSchemaError(err) {
		t.Fatalf("Expected a schema error for missing script, but got %v", err)
	}
}

func TestValidateWithoutFile(t *testing.T) {
	ctx, _ := newTestContext(t, "", nil)
	err := validateDeclaration(ctx)
	if err == nil || err.Error() != "declaration file is required" {
		t.Fatalf("Expected missing file error, but got %v", err)
	}
}

func TestLsProcess(t *testing.T) {
	ctx, out := newTestContext(t, writeDeclaration(t, testDeclaration), nil)
	if err := lsProcess(ctx); err != nil {
		t.Fatalf("Failed to list processes: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected a header and 2 rows, but got %q", out.String())
	}
	if !strings.HasPrefix(lines[0], "NAME") {
		t.Fatalf("Expected header row, but got %q", lines[0])
	}
	for _, field := range []string{"inswing-ai", "1", "true", "false", "500MiB", "python3 app.py"} {
		if !strings.Contains(lines[1], field) {
			t.Fatalf("Expected %q in row %q", field, lines[1])
		}
	}
	if !strings.Contains(lines[2], "unlimited") {
		t.Fatalf("Expected unlimited memory for worker, but got %q", lines[2])
	}
}

func TestShowProcess(t *testing.T) {
	ctx, out := newTestContext(t, writeDeclaration(t, testDeclaration), nil, "inswing-ai")
	if err := showProcess(ctx); err != nil {
		t.Fatalf("Failed to show process: %v", err)
	}

	var app spec.ProcessSpec
	if err := json.Unmarshal(out.Bytes(), &app); err != nil {
		t.Fatalf("Failed to decode show output %q: %v", out.String(), err)
	}
	if app.MaxMemoryRestart != 500*1024*1024 || app.Instances != 1 || len(app.Env) != 1 {
		t.Fatalf("Unexpected process record %+v", app)
	}
}

func TestShowProcessWithNoArgs(t *testing.T) {
	ctx, _ := newTestContext(t, writeDeclaration(t, testDeclaration), nil)
	err := showProcess(ctx)
	if err == nil || err.Error() != "process name is required" {
		t.Fatalf("Expected missing name error, but got %v", err)
	}
}

func TestShowUnknownProcess(t *testing.T) {
	ctx, _ := newTestContext(t, writeDeclaration(t, testDeclaration), nil, "api")
	err := showProcess(ctx)
	if err == nil || !strings.Contains(err.Error(), "process api is not declared") {
		t.Fatalf("Expected unknown process error, but got %v", err)
	}
}

func TestProcessEnv(t *testing.T) {
	path := writeDeclaration(t, testDeclaration)
	define := func(set *flag.FlagSet) {
		set.Var(&cli.StringSlice{}, "set", "")
		set.Bool("ambient", false, "")
	}

	ctx, out := newTestContext(t, path, define, "inswing-ai")
	if err := processEnv(ctx); err != nil {
		t.Fatalf("Failed to print env: %v", err)
	}
	if out.String() != "FLASK_ENV=production\n" {
		t.Fatalf("Unexpected env output %q", out.String())
	}

	ctx, out = newTestContext(t, path, define, "--set", "FLASK_ENV=staging", "--set", "PORT=8000", "inswing-ai")
	if err := processEnv(ctx); err != nil {
		t.Fatalf("Failed to print env: %v", err)
	}
	if out.String() != "FLASK_ENV=staging\nPORT=8000\n" {
		t.Fatalf("Unexpected env output with overrides %q", out.String())
	}

	ctx, _ = newTestContext(t, path, define, "--set", "BROKEN", "inswing-ai")
	if err := processEnv(ctx); err == nil {
		t.Fatal("Expected an error for a malformed override, but got nil")
	}

	t.Setenv("PROCSPEC_TEST_AMBIENT", "1")
	ctx, out = newTestContext(t, path, define, "--ambient", "inswing-ai")
	if err := processEnv(ctx); err != nil {
		t.Fatalf("Failed to print env: %v", err)
	}
	if !strings.Contains(out.String(), "PROCSPEC_TEST_AMBIENT=1\n") || !strings.Contains(out.String(), "FLASK_ENV=production\n") {
		t.Fatalf("Expected ambient and declared variables in %q", out.String())
	}
}

func TestProcessCommand(t *testing.T) {
	path := writeDeclaration(t, testDeclaration)

	ctx, out := newTestContext(t, path, nil, "inswing-ai")
	if err := processCommand(ctx); err != nil {
		t.Fatalf("Failed to print command: %v", err)
	}
	if out.String() != "python3 app.py\n" {
		t.Fatalf("Unexpected command %q", out.String())
	}

	ctx, out = newTestContext(t, path, nil, "worker")
	if err := processCommand(ctx); err != nil {
		t.Fatalf("Failed to print command: %v", err)
	}
	if out.String() != "\"/srv/bin/worker run.sh\"\n" {
		t.Fatalf("Unexpected quoted command %q", out.String())
	}
}

func TestFormatDeclaration(t *testing.T) {
	path := writeDeclaration(t, testDeclaration)
	define := func(set *flag.FlagSet) {
		set.Bool("write", false, "")
	}

	ctx, out := newTestContext(t, path, define)
	if err := formatDeclaration(ctx); err != nil {
		t.Fatalf("Failed to format declaration: %v", err)
	}
	if !strings.Contains(out.String(), "max_memory_restart: 500M\n") || !strings.Contains(out.String(), "autorestart: true\n") {
		t.Fatalf("Unexpected rendered declaration %q", out.String())
	}

	before, err := spec.LoadFile(path)
	if err != nil {
		t.Fatalf("Failed to load declaration: %v", err)
	}
	ctx, out = newTestContext(t, path, define, "--write")
	if err := formatDeclaration(ctx); err != nil {
		t.Fatalf("Failed to rewrite declaration: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("Expected no output with --write, but got %q", out.String())
	}
	after, err := spec.LoadFile(path)
	if err != nil {
		t.Fatalf("Failed to load rewritten declaration: %v", err)
	}
	if strings.Join(before.Names(), ",") != strings.Join(after.Names(), ",") {
		t.Fatalf("Rewritten declaration changed processes: %v vs %v", before.Names(), after.Names())
	}
	worker, _ := after.Get("worker")
	if !worker.Autorestart || worker.Instances != 2 {
		t.Fatalf("Rewritten declaration lost worker settings: %+v", worker)
	}
}

func TestVersion(t *testing.T) {
	ctx, out := newTestContext(t, "", nil)
	if err := version(ctx); err != nil {
		t.Fatalf("Failed to print version: %v", err)
	}
	if !strings.Contains(out.String(), `"declarationFormatVersion": 1`) {
		t.Fatalf("Unexpected version output %q", out.String())
	}
}
