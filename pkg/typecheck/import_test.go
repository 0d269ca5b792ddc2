package typecheck

import (
	"strings"
	"testing"

	"tempo/compiler-go/pkg/dl"
)

func sinOscClass() *dl.Class {
	return &dl.Class{
		Name:    "SinOsc",
		Doc:     "sine wave oscillator",
		Ctor:    func() any { return &struct{ freq float64 }{freq: 440} },
		Tick:    func(obj any, in, out []float32) bool { return true },
		NumIns:  0,
		NumOuts: 1,
		Ctrls: []dl.Ctrl{
			{TypeName: "float", Name: "freq", Write: true, Read: true},
		},
		MFuns: []*dl.Func{
			{
				Name:    "phase",
				RetType: "float",
				MFn:     func(obj any, args []any) any { return 0.0 },
				Doc:     "current phase in turns",
			},
		},
		SVars: []*dl.Value{
			{TypeName: "int", Name: "tableSize", IsConst: true},
		},
		Examples: []string{"SinOsc s => dac;"},
	}
}

func TestAddClassFromDLRegistersUGen(t *testing.T) {
	env := newTestEnv(t)
	if err := env.AddClassFromDL(sinOscClass()); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	env.Global().Commit()

	osc, ok := env.Global().LookupType("SinOsc", 1, false)
	if !ok {
		t.Fatalf("SinOsc should be registered")
	}
	if !osc.IsComplete || osc.Origin != OriginExtension {
		t.Fatalf("imported class misconfigured: complete=%v origin=%v", osc.IsComplete, osc.Origin)
	}
	if !Isa(osc, env.TUGen) {
		t.Fatalf("SinOsc should be a unit generator")
	}
	if osc.UGen == nil || osc.UGen.NumOuts != 1 {
		t.Fatalf("ugen payload missing: %+v", osc.UGen)
	}
	if !osc.HasCtor {
		t.Fatalf("constructor hook should be recorded")
	}

	// A read+write control imports as a setter and getter overload pair.
	freq, ok := FindValue(osc, "freq")
	if !ok || freq.FuncRef == nil {
		t.Fatalf("freq accessor missing")
	}
	if freq.FuncNumOverloads != 2 {
		t.Fatalf("expected setter and getter, got %d overloads", freq.FuncNumOverloads)
	}

	phase, ok := FindValue(osc, "phase")
	if !ok || phase.FuncRef == nil || phase.FuncRef.Code == nil {
		t.Fatalf("phase should carry its native hook, got %v", phase)
	}
	if phase.Doc != "current phase in turns" {
		t.Fatalf("doc lost: %q", phase.Doc)
	}

	size, ok := FindValue(osc, "tableSize")
	if !ok || !size.IsStatic || !size.IsConst {
		t.Fatalf("static const missing: %v", size)
	}
}

func TestImportedClassUsableFromUserCode(t *testing.T) {
	env := newTestEnv(t)
	if err := env.AddClassFromDL(sinOscClass()); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	env.Global().Commit()

	tree := prog(stmts(10,
		expStmt(decl("SinOsc", "s", 10), 10),
		expStmt(chuck(name("s", 20), name("dac", 21), 20), 20),
		expStmt(call(member(name("s", 30), "freq", 30), 30, floatLit(440, 31)), 30),
	))
	checkOK(t, env, tree, "patch.tp")
}

func TestImportMVarAssignsSequentialOffsets(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.ImportClassBegin("Envelope", "", nil, nil, ""); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	first, err := env.ImportMVar("float", "attack", false, "")
	if err != nil {
		t.Fatalf("mvar failed: %v", err)
	}
	second, err := env.ImportMVar("float", "release", false, "")
	if err != nil {
		t.Fatalf("mvar failed: %v", err)
	}
	if first != 0 || second != SzFloat {
		t.Fatalf("unexpected offsets %d, %d", first, second)
	}
	if err := env.ImportClassEnd(); err != nil {
		t.Fatalf("end failed: %v", err)
	}

	env.Global().Commit()
	envType, _ := env.Global().LookupType("Envelope", 1, false)
	if envType == nil || envType.ObjSize != 2*SzFloat {
		t.Fatalf("instance size should cover both members, got %v", envType)
	}
}

func TestImportProtocolGuards(t *testing.T) {
	env := newTestEnv(t)
	if err := env.ImportClassEnd(); err == nil {
		t.Fatalf("end without begin should fail")
	}
	if _, err := env.ImportMVar("float", "x", false, ""); err == nil {
		t.Fatalf("mvar without an open class should fail")
	}
	if _, err := env.ImportUGenBegin("Weird", "string", "", nil, nil, nil, 0, 1); err == nil {
		t.Fatalf("a ugen must extend UGen")
	}
	if _, err := env.ImportClassBegin("Object", "", nil, nil, ""); err == nil {
		t.Fatalf("redefining a builtin should fail")
	}
	if _, err := env.ImportClassBegin("Widget", "", nil, nil, ""); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if _, err := env.ImportMVar("void", "hole", false, ""); err == nil {
		t.Fatalf("a void member variable should fail")
	}
	if err := env.ImportSVar("void", "hole", false, nil, ""); err == nil {
		t.Fatalf("a void static variable should fail")
	}
	if err := env.ImportClassEnd(); err != nil {
		t.Fatalf("end failed: %v", err)
	}
}

func TestAddDLAppliesDeprecations(t *testing.T) {
	env := newTestEnv(t)
	ext := &dl.DLL{
		Name:    "osc-pack",
		Version: "1.0.0",
		Query: func(q *dl.Query) error {
			q.AddClass(sinOscClass())
			q.Deprecate("Sine", "SinOsc")
			return nil
		},
	}
	if err := env.AddDL(ext); err != nil {
		t.Fatalf("AddDL failed: %v", err)
	}
	if _, ok := env.Global().LookupType("SinOsc", 1, false); !ok {
		t.Fatalf("AddDL should commit imported classes")
	}
	if repl, ok := env.GetDeprecate("Sine"); !ok || repl != "SinOsc" {
		t.Fatalf("deprecation not applied: %q %v", repl, ok)
	}

	env.DeprecateLevel = DeprecateWarn
	tree := prog(stmts(10, expStmt(decl("Sine", "s", 10), 10)))
	diags, err := env.CheckProg(tree, "legacy.tp")
	if err != nil || hasErrors(diags) {
		t.Fatalf("deprecated type should remap: %v %v", err, diags)
	}
	s, _ := env.Global().LookupValue("s", 1, false)
	if s == nil || s.Type.BaseName != "SinOsc" {
		t.Fatalf("s should have the replacement type, got %v", s)
	}
}

func TestAproposDescribesTypeSurface(t *testing.T) {
	env := newTestEnv(t)
	if err := env.AddClassFromDL(sinOscClass()); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	env.Global().Commit()
	osc, _ := env.Global().LookupType("SinOsc", 1, false)

	text := osc.Apropos()
	for _, want := range []string{
		"class: SinOsc -> UGen -> Object",
		"sine wave oscillator",
		"freq",
		"phase",
		"gain",
		"SinOsc s => dac;",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("apropos missing %q:\n%s", want, text)
		}
	}
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	ext := &dl.DLL{Name: "registry-test-pack", Query: func(q *dl.Query) error { return nil }}
	if err := dl.Register(ext); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := dl.Register(ext); err == nil {
		t.Fatalf("duplicate registration should fail")
	}
	got, ok := dl.Lookup("registry-test-pack")
	if !ok || got != ext {
		t.Fatalf("lookup returned %v %v", got, ok)
	}
	found := false
	for _, n := range dl.Names() {
		if n == "registry-test-pack" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Names should list the registered extension")
	}

	env := newTestEnv(t)
	if err := env.AddDLByName("registry-test-pack"); err != nil {
		t.Fatalf("import by name failed: %v", err)
	}
	if err := env.AddDLByName("no-such-pack"); err == nil {
		t.Fatalf("import of an unregistered name should fail")
	}
}
