package typecheck

import (
	"testing"

	"tempo/compiler-go/pkg/ast"
)

// AST shorthands shared by the checking tests.

func prog(sections ...ast.Section) *ast.Program {
	return ast.NewProgram(sections, 1)
}

func stmts(pos int, ss ...ast.Statement) *ast.StmtList {
	return ast.NewStmtList(ss, pos)
}

func expStmt(e ast.Expression, pos int) ast.Statement {
	return ast.NewExpStatement(e, pos)
}

func decl(typeName, name string, pos int) *ast.DeclExpression {
	return ast.NewDeclExpression(typeName, name, 0, pos)
}

func name(n string, pos int) *ast.NameExpression {
	return ast.NewNameExpression(n, pos)
}

func chuck(left, right ast.Expression, pos int) *ast.BinaryExpression {
	return ast.NewBinaryExpression(ast.OperatorChuck, left, right, pos)
}

func call(callee ast.Expression, pos int, args ...ast.Expression) *ast.CallExpression {
	return ast.NewCallExpression(callee, args, pos)
}

func block(pos int, ss ...ast.Statement) *ast.BlockStatement {
	return ast.NewBlockStatement(ss, pos)
}

func intLit(v int64, pos int) *ast.IntLiteral {
	return ast.NewIntLiteral(v, pos)
}

func TestCheckContextRequiresLoadedContext(t *testing.T) {
	env := newTestEnv(t)
	ctx := MakeContext(prog(), "unit.tp")
	if _, err := env.CheckContext(ctx, DoAll); err == nil {
		t.Fatalf("checking an unloaded context should fail")
	}
}

func TestCheckContextRejectsSkippingClassScan(t *testing.T) {
	env := newTestEnv(t)
	ctx := MakeContext(prog(), "unit.tp")
	if err := env.LoadContext(ctx); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if _, err := env.CheckContext(ctx, DoNoClasses); err == nil {
		t.Fatalf("skipping the class scan on a fresh context should fail")
	}
	if err := env.UnloadContext(); err != nil {
		t.Fatalf("unload failed: %v", err)
	}
}

func TestCheckContextRefusesRecheck(t *testing.T) {
	env := newTestEnv(t)
	tree := prog(stmts(10, expStmt(decl("int", "x", 10), 10)))
	ctx := MakeContext(tree, "unit.tp")
	if err := env.LoadContext(ctx); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	diags, err := env.CheckContext(ctx, DoAll)
	if err != nil || hasErrors(diags) {
		t.Fatalf("check failed: %v %v", err, diags)
	}
	if ctx.Progress != ProgressFullyChecked {
		t.Fatalf("expected fully-checked, got %s", ctx.Progress)
	}
	if _, err := env.CheckContext(ctx, DoAll); err == nil {
		t.Fatalf("rechecking a fully checked context should fail")
	}
	if err := env.UnloadContext(); err != nil {
		t.Fatalf("unload failed: %v", err)
	}
}

func TestLoadContextRefusesNesting(t *testing.T) {
	env := newTestEnv(t)
	first := MakeContext(prog(), "first.tp")
	if err := env.LoadContext(first); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	second := MakeContext(prog(), "second.tp")
	if err := env.LoadContext(second); err == nil {
		t.Fatalf("loading over a loaded context should fail")
	}
	if err := env.UnloadContext(); err != nil {
		t.Fatalf("unload failed: %v", err)
	}
	if err := env.UnloadContext(); err == nil {
		t.Fatalf("unloading with no context loaded should fail")
	}
}

func TestClassesOnlyStopsAfterScan(t *testing.T) {
	env := newTestEnv(t)
	tree := prog(ast.NewClassDef("Voice", "", nil, 10))
	ctx := MakeContext(tree, "unit.tp")
	if err := env.LoadContext(ctx); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	diags, err := env.CheckContext(ctx, DoClassesOnly)
	if err != nil || hasErrors(diags) {
		t.Fatalf("scan failed: %v %v", err, diags)
	}
	if ctx.Progress != ProgressClassesScanned {
		t.Fatalf("expected classes-scanned, got %s", ctx.Progress)
	}
	voice, ok := env.User().LookupType("Voice", 0, false)
	if !ok {
		t.Fatalf("scanned class should be resolvable")
	}
	if voice.IsComplete {
		t.Fatalf("a scanned-only class must stay incomplete")
	}

	// Finishing the unit from the scanned state completes the class.
	diags, err = env.CheckContext(ctx, DoAll)
	if err != nil || hasErrors(diags) {
		t.Fatalf("second phase failed: %v %v", err, diags)
	}
	if !voice.IsComplete {
		t.Fatalf("checked class should be complete")
	}
	if err := env.UnloadContext(); err != nil {
		t.Fatalf("unload failed: %v", err)
	}
}

func TestSplitPhasesCheckClassBodies(t *testing.T) {
	env := newTestEnv(t)
	tree := prog(
		classDef("Voice", "", 10,
			expStmt(decl("int", "level", 12), 12),
		),
		stmts(30, expStmt(decl("Voice", "v", 30), 30)),
	)
	ctx := MakeContext(tree, "unit.tp")
	if err := env.LoadContext(ctx); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if diags, err := env.CheckContext(ctx, DoClassesOnly); err != nil || hasErrors(diags) {
		t.Fatalf("scan failed: %v %v", err, diags)
	}
	if diags, err := env.CheckContext(ctx, DoNoClasses); err != nil || hasErrors(diags) {
		t.Fatalf("second phase failed: %v %v", err, diags)
	}
	if ctx.Progress != ProgressFullyChecked {
		t.Fatalf("expected fully-checked, got %s", ctx.Progress)
	}
	voice, ok := env.User().LookupType("Voice", 0, false)
	if !ok || !voice.IsComplete {
		t.Fatalf("the resumed phase must complete the class")
	}
	if _, found := voice.Info.LookupValue("level", 0, true); !found {
		t.Fatalf("the resumed phase must scan class members")
	}
	if err := env.UnloadContext(); err != nil {
		t.Fatalf("unload failed: %v", err)
	}
}

func TestSplitPhasesRejectBrokenClassBody(t *testing.T) {
	env := newTestEnv(t)
	tree := prog(classDef("Broken", "", 10,
		expStmt(name("no_such_name", 12), 12),
	))
	ctx := MakeContext(tree, "unit.tp")
	if err := env.LoadContext(ctx); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if diags, err := env.CheckContext(ctx, DoClassesOnly); err != nil || hasErrors(diags) {
		t.Fatalf("scan failed: %v %v", err, diags)
	}
	diags, err := env.CheckContext(ctx, DoNoClasses)
	if err != nil {
		t.Fatalf("unexpected protocol error: %v", err)
	}
	if !hasErrors(diags) {
		t.Fatalf("the resumed phase must check class bodies")
	}
	if ctx.Progress == ProgressFullyChecked {
		t.Fatalf("a unit with an unchecked-name class body must not commit")
	}
	if _, ok := env.Global().LookupType("Broken", 1, false); ok {
		t.Fatalf("the failed unit's class should not survive rollback")
	}
	if err := env.UnloadContext(); err != nil {
		t.Fatalf("unload failed: %v", err)
	}
}

func TestFailedUnitRollsBackItsBindings(t *testing.T) {
	env := newTestEnv(t)
	tree := prog(stmts(10,
		expStmt(decl("int", "orphan", 10), 10),
		expStmt(name("undefined", 20), 20),
	))
	diags, err := env.CheckProg(tree, "broken.tp")
	if err != nil {
		t.Fatalf("unexpected protocol error: %v", err)
	}
	if !hasErrors(diags) {
		t.Fatalf("expected a diagnostic for the undefined name")
	}
	if _, ok := env.Global().LookupValue("orphan", 1, false); ok {
		t.Fatalf("a failed unit's declarations should not survive")
	}
}

func TestCommittedUnitIsVisibleToLaterUnits(t *testing.T) {
	env := newTestEnv(t)
	first := prog(stmts(10, expStmt(chuck(intLit(5, 10), decl("int", "shared", 12), 11), 10)))
	if diags, err := env.CheckProg(first, "first.tp"); err != nil || hasErrors(diags) {
		t.Fatalf("first unit failed: %v %v", err, diags)
	}

	second := prog(stmts(10, expStmt(name("shared", 10), 10)))
	if diags, err := env.CheckProg(second, "second.tp"); err != nil || hasErrors(diags) {
		t.Fatalf("second unit should see the committed binding: %v %v", err, diags)
	}
}

func TestResetRestoresNavigationState(t *testing.T) {
	env := newTestEnv(t)
	env.pushClass(env.TEvent)
	env.Func = &Func{BaseName: "stray"}
	env.Reset()
	if env.ClassDef != nil || len(env.ClassStack) != 0 || env.ClassScope != 0 {
		t.Fatalf("reset should leave no class in scope")
	}
	if env.Func != nil {
		t.Fatalf("reset should clear the current function")
	}
	if env.Curr != env.User() || env.NspcTop() != env.Global() {
		t.Fatalf("reset should restore the top-level namespaces")
	}

	// Unloading a unit resets the same way.
	ctx := MakeContext(prog(), "unit.tp")
	if err := env.LoadContext(ctx); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if _, err := env.CheckContext(ctx, DoAll); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if err := env.UnloadContext(); err != nil {
		t.Fatalf("unload failed: %v", err)
	}
	if env.Curr != env.User() || !env.IsGlobal() {
		t.Fatalf("unload should restore the top-level state")
	}
}

func TestDecoupleASTSeversTreeReferences(t *testing.T) {
	env := newTestEnv(t)
	fn := ast.NewFuncDef("ping", "void", nil, block(12), 10)
	tree := prog(fn)
	ctx := MakeContext(tree, "unit.tp")
	if err := env.LoadContext(ctx); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if diags, err := env.CheckContext(ctx, DoAll); err != nil || hasErrors(diags) {
		t.Fatalf("check failed: %v %v", err, diags)
	}
	pingVal, ok := env.User().LookupValue("ping", 1, false)
	if !ok || pingVal.FuncRef == nil {
		t.Fatalf("function value missing")
	}
	if pingVal.FuncRef.Def() == nil {
		t.Fatalf("definition should be attached while the tree lives")
	}
	ctx.DecoupleAST()
	if pingVal.FuncRef.Def() != nil {
		t.Fatalf("decoupling should sever the definition reference")
	}
	if ctx.Tree != nil {
		t.Fatalf("decoupling should drop the tree")
	}
	if err := env.UnloadContext(); err != nil {
		t.Fatalf("unload failed: %v", err)
	}
}
