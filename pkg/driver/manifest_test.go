package driver

import (
	"strings"
	"testing"

	"github.com/go-test/deep"

	"tempo/compiler-go/pkg/dl"
	"tempo/compiler-go/pkg/typecheck"
)

func TestParseManifest(t *testing.T) {
	input := `
name: studio-session
deprecations: stop
extensions:
  - osc-pack
  - fx-pack
remap:
  Sine: SinOsc
reserve: patchbay
`
	m, err := ParseManifest(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := &Manifest{
		Name:         "studio-session",
		Deprecations: DeprecationStop,
		Extensions:   []string{"osc-pack", "fx-pack"},
		Remap:        map[string]string{"Sine": "SinOsc"},
		Reserve:      []string{"patchbay"},
	}
	if diff := deep.Equal(m, want); diff != nil {
		t.Fatalf("unexpected manifest: %v", diff)
	}
}

func TestParseManifestRejectsUnknownFields(t *testing.T) {
	input := "name: x\nplugins: [a]\n"
	if _, err := ParseManifest(strings.NewReader(input)); err == nil {
		t.Fatalf("unknown keys should be rejected")
	}
}

func TestParseManifestRejectsEmptyInput(t *testing.T) {
	if _, err := ParseManifest(strings.NewReader("")); err == nil {
		t.Fatalf("empty manifest should be rejected")
	}
}

func TestManifestValidationAggregatesIssues(t *testing.T) {
	input := `
deprecations: loudly
extensions:
  - osc-pack
  - osc-pack
remap:
  Sine: ""
`
	_, err := ParseManifest(strings.NewReader(input))
	if err == nil {
		t.Fatalf("expected validation failure")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected a ValidationError, got %T: %v", err, err)
	}
	if len(verr.Issues) != 4 {
		t.Fatalf("expected 4 issues, got %d: %v", len(verr.Issues), verr.Issues)
	}
	msg := verr.Error()
	for _, want := range []string{"name must be provided", "stop, warn, or ignore", "listed twice", "replacement"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("missing issue %q in %q", want, msg)
		}
	}
}

func TestDeprecationPolicyLevels(t *testing.T) {
	cases := map[DeprecationPolicy]int{
		DeprecationStop:   typecheck.DeprecateStop,
		DeprecationWarn:   typecheck.DeprecateWarn,
		DeprecationIgnore: typecheck.DeprecateIgnore,
		"":                typecheck.DeprecateWarn,
	}
	for policy, want := range cases {
		if got := policy.Level(); got != want {
			t.Fatalf("policy %q: got %d, want %d", policy, got, want)
		}
	}
}

func TestManifestApplyConfiguresEnvironment(t *testing.T) {
	ext := &dl.DLL{
		Name: "driver-test-pack",
		Query: func(q *dl.Query) error {
			q.AddClass(&dl.Class{
				Name:    "TestOsc",
				Tick:    func(obj any, in, out []float32) bool { return true },
				NumOuts: 1,
			})
			return nil
		},
	}
	if err := dl.Register(ext); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	env, err := typecheck.Init(&typecheck.Carrier{})
	if err != nil {
		t.Fatalf("env init failed: %v", err)
	}
	m := &Manifest{
		Name:         "session",
		Deprecations: DeprecationStop,
		Extensions:   []string{"driver-test-pack"},
		Remap:        map[string]string{"Osc": "TestOsc"},
	}
	if err := m.Apply(env); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	if env.DeprecateLevel != typecheck.DeprecateStop {
		t.Fatalf("deprecation level not applied: %d", env.DeprecateLevel)
	}
	if repl, ok := env.GetDeprecate("Osc"); !ok || repl != "TestOsc" {
		t.Fatalf("remap not applied: %q %v", repl, ok)
	}
	if _, ok := env.FindType("TestOsc"); !ok {
		t.Fatalf("extension class should be registered")
	}
}

func TestManifestApplyRejectsUnknownExtension(t *testing.T) {
	env, err := typecheck.Init(&typecheck.Carrier{})
	if err != nil {
		t.Fatalf("env init failed: %v", err)
	}
	m := &Manifest{Name: "session", Extensions: []string{"no-such-pack"}}
	if err := m.Apply(env); err == nil {
		t.Fatalf("unknown extension should fail")
	}
}
