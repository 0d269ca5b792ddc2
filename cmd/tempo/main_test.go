package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestVersionCommand(t *testing.T) {
	code, out, _ := runCLI(t, "version")
	if code != 0 {
		t.Fatalf("expected success, got %d", code)
	}
	if !strings.Contains(out, cliToolVersion) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestNoArgsPrintsUsage(t *testing.T) {
	code, _, errOut := runCLI(t)
	if code != 1 {
		t.Fatalf("expected failure, got %d", code)
	}
	if !strings.Contains(errOut, "usage:") {
		t.Fatalf("expected usage text, got %q", errOut)
	}
}

func TestUnknownCommand(t *testing.T) {
	code, _, errOut := runCLI(t, "frobnicate")
	if code != 1 {
		t.Fatalf("expected failure, got %d", code)
	}
	if !strings.Contains(errOut, "unknown command") {
		t.Fatalf("unexpected stderr %q", errOut)
	}
}

func TestTypesListsBuiltins(t *testing.T) {
	code, out, errOut := runCLI(t, "types")
	if code != 0 {
		t.Fatalf("expected success, got %d: %s", code, errOut)
	}
	for _, want := range []string{"Object", "UGen", "int", "dur"} {
		if !strings.Contains(out, want) {
			t.Fatalf("type listing missing %q:\n%s", want, out)
		}
	}
}

func TestDescribeBuiltinType(t *testing.T) {
	code, out, errOut := runCLI(t, "describe", "UGen")
	if code != 0 {
		t.Fatalf("expected success, got %d: %s", code, errOut)
	}
	if !strings.Contains(out, "class: UGen -> Object") || !strings.Contains(out, "gain") {
		t.Fatalf("unexpected describe output:\n%s", out)
	}
}

func TestDescribeUnknownType(t *testing.T) {
	code, _, errOut := runCLI(t, "describe", "Nope")
	if code != 1 {
		t.Fatalf("expected failure, got %d", code)
	}
	if !strings.Contains(errOut, "unknown type") {
		t.Fatalf("unexpected stderr %q", errOut)
	}
}

func TestDescribeWithManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.yml")
	manifest := "name: test\nremap:\n  OldTime: time\n"
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	code, out, errOut := runCLI(t, "describe", "time", "--manifest="+path)
	if code != 0 {
		t.Fatalf("expected success, got %d: %s", code, errOut)
	}
	if !strings.Contains(out, "class: time") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestManifestFlagRequiresPath(t *testing.T) {
	code, _, errOut := runCLI(t, "types", "--manifest")
	if code != 1 {
		t.Fatalf("expected failure, got %d", code)
	}
	if !strings.Contains(errOut, "--manifest requires a path") {
		t.Fatalf("unexpected stderr %q", errOut)
	}
}
