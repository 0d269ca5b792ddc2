package typecheck

import (
	"fmt"

	"tempo/compiler-go/pkg/ast"
)

// HowMuch restricts what a CheckContext call processes.
type HowMuch int

const (
	// DoAll checks classes and non-class top-level code.
	DoAll HowMuch = iota
	// DoClassesOnly registers class skeletons and stops, for
	// forward-declaration passes across multiple units.
	DoClassesOnly
	// DoNoClasses resumes a unit whose skeletons are already registered,
	// checking class members and bodies along with the rest of the unit.
	DoNoClasses
)

func (h HowMuch) String() string {
	switch h {
	case DoAll:
		return "all"
	case DoClassesOnly:
		return "classes-only"
	case DoNoClasses:
		return "no-classes"
	}
	return "unknown"
}

// Diagnostic is one type-checking finding, keyed to a source position.
// Warnings (e.g. deprecated names under a lenient setting) do not fail the
// unit.
type Diagnostic struct {
	Message   string
	Pos       int
	IsWarning bool
}

func errDiag(pos int, format string, args ...any) Diagnostic {
	return Diagnostic{Message: "typecheck: " + fmt.Sprintf(format, args...), Pos: pos}
}

func warnDiag(pos int, format string, args ...any) Diagnostic {
	return Diagnostic{Message: "typecheck: " + fmt.Sprintf(format, args...), Pos: pos, IsWarning: true}
}

// hasErrors reports whether any diagnostic is fatal.
func hasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if !d.IsWarning {
			return true
		}
	}
	return false
}

// frame is the traversal state threaded through recursive checking calls:
// the namespace receiving additions, the innermost class definition, and the
// innermost function body.
type frame struct {
	nspc     *Namespace
	classDef *Type
	fn       *Func
}

// checker is the per-CheckContext working state.
type checker struct {
	env    *Env
	ctx    *Context
	target *Namespace
	// funcs maps scanned definitions to their descriptors for the body
	// pass; decls maps pre-scanned declarations to their values so the
	// statement pass does not redeclare them.
	funcs map[*ast.FuncDef]*Func
	decls map[*ast.DeclExpression]*Value
	// prescan marks the signature pass: declarations are entered but not
	// yet considered initialized.
	prescan bool
}

func newChecker(env *Env, ctx *Context) *checker {
	return &checker{
		env:    env,
		ctx:    ctx,
		target: env.User(),
		funcs:  make(map[*ast.FuncDef]*Func),
		decls:  make(map[*ast.DeclExpression]*Value),
	}
}

// LoadContext makes ctx the environment's current checking target. At most
// one unit may be loaded at a time; nesting is via the namespace and class
// stacks, never via concurrent contexts.
func (env *Env) LoadContext(ctx *Context) error {
	if ctx == nil {
		return fmt.Errorf("typecheck: load: nil context")
	}
	if !env.IsGlobal() {
		return fmt.Errorf("typecheck: load: context %q is still loaded", env.Context.Filename)
	}
	ctx.Nspc.Parent = env.User()
	env.Contexts = append(env.Contexts, ctx)
	env.Context = ctx
	env.NspcStack = append(env.NspcStack, env.Curr)
	env.Curr = ctx.Nspc
	return nil
}

// UnloadContext pops the current checking target, restoring the global
// context and the environment's navigation state.
func (env *Env) UnloadContext() error {
	if env.IsGlobal() {
		return fmt.Errorf("typecheck: unload: no context loaded")
	}
	env.Context = &env.globalContext
	env.Reset()
	return nil
}

// CheckContext drives ctx through the two-phase state machine. Any fatal
// diagnostic marks the context errored, rolls back every pending addition,
// and releases what the unit created; a clean run through both phases
// commits the unit's bindings atomically and clears its dependency graphs.
// The returned error reports protocol misuse (unloaded context, out-of-order
// phases), never source-level findings.
func (env *Env) CheckContext(ctx *Context, howMuch HowMuch) ([]Diagnostic, error) {
	if ctx == nil || ctx != env.Context {
		return nil, fmt.Errorf("typecheck: check: context not loaded")
	}
	if ctx.Progress == ProgressFullyChecked {
		return nil, fmt.Errorf("typecheck: check: context %q already fully checked", ctx.Filename)
	}
	if ctx.Progress == ProgressNotStarted && howMuch == DoNoClasses {
		return nil, fmt.Errorf("typecheck: check: cannot skip class scan on a %s context", ctx.Progress)
	}
	if ctx.Tree == nil {
		return nil, fmt.Errorf("typecheck: check: context %q has no parse tree", ctx.Filename)
	}

	c := newChecker(env, ctx)
	var diags []Diagnostic

	if ctx.Progress == ProgressNotStarted {
		diags = append(diags, c.scanClasses(ctx.Tree)...)
		if hasErrors(diags) {
			c.fail()
			return diags, nil
		}
		ctx.Progress = ProgressClassesScanned
	}
	if howMuch == DoClassesOnly {
		return diags, nil
	}

	diags = append(diags, c.checkUnit(ctx.Tree)...)
	if hasErrors(diags) {
		c.fail()
		return diags, nil
	}

	ctx.Progress = ProgressFullyChecked
	c.target.Commit()
	ctx.ClearDependencies()
	return diags, nil
}

// fail rolls back everything the unit put in flight.
func (c *checker) fail() {
	c.ctx.HasError = true
	c.target.Rollback()
	c.ctx.Release()
}

// CheckProg composes make + load + check + unload for a one-shot unit.
func (env *Env) CheckProg(tree *ast.Program, filename string) ([]Diagnostic, error) {
	ctx := MakeContext(tree, filename)
	if err := env.LoadContext(ctx); err != nil {
		return nil, err
	}
	diags, err := env.CheckContext(ctx, DoAll)
	if uerr := env.UnloadContext(); uerr != nil && err == nil {
		err = uerr
	}
	return diags, err
}

// CheckStmt checks a single statement against the current environment, for
// interactive sessions. The caller owns commit/rollback of the surrounding
// submission.
func (env *Env) CheckStmt(stmt ast.Statement) []Diagnostic {
	c := newChecker(env, env.Context)
	fr := &frame{nspc: c.target}
	return c.checkStatement(fr, stmt)
}

// CheckExp checks a single expression against the current environment and
// returns its type; nil when the expression does not check.
func (env *Env) CheckExp(exp ast.Expression) (*Type, []Diagnostic) {
	c := newChecker(env, env.Context)
	fr := &frame{nspc: c.target}
	diags, t := c.checkExpression(fr, exp)
	if hasErrors(diags) {
		return nil, diags
	}
	return t, diags
}

// scanClasses is the first pass: register every top-level class's type
// skeleton (name, parent, incomplete) without checking bodies, so classes
// may reference each other regardless of declaration order.
func (c *checker) scanClasses(prog *ast.Program) []Diagnostic {
	var diags []Diagnostic
	classes := make([]*ast.ClassDef, 0, len(prog.Sections))
	for _, sec := range prog.Sections {
		cd, ok := sec.(*ast.ClassDef)
		if !ok {
			continue
		}
		classes = append(classes, cd)
		diags = append(diags, c.scanClassSkeleton(cd)...)
	}
	// Parents resolve after every sibling's name is registered.
	for _, cd := range classes {
		diags = append(diags, c.resolveClassParent(cd)...)
	}
	return diags
}

func (c *checker) scanClassSkeleton(cd *ast.ClassDef) []Diagnostic {
	env := c.env
	if env.CheckReserved(cd.Name) {
		return []Diagnostic{errDiag(cd.Pos(), "class name %q is reserved", cd.Name)}
	}
	if _, dup := c.target.Types.Lookup(cd.Name, 0); dup {
		return []Diagnostic{errDiag(cd.Pos(), "type %q is already defined", cd.Name)}
	}
	t := c.ctx.NewType(env, TeUser, cd.Name, nil, SzWord)
	t.Origin = OriginUser
	t.Owner = c.target
	t.Info = c.ctx.NewNamespace(cd.Name)
	t.Info.Parent = c.target
	t.Info.ClassOf = t
	c.target.Types.Add(cd.Name, t)
	if cd.IsPublic && c.ctx.PublicClassDef == nil {
		c.ctx.PublicClassDef = cd
	}
	return nil
}

func (c *checker) resolveClassParent(cd *ast.ClassDef) []Diagnostic {
	t, ok := c.target.LookupType(cd.Name, 0, false)
	if !ok {
		return nil
	}
	if cd.Parent == "" {
		t.Parent = c.env.TObject
		return nil
	}
	parent, ok := c.target.LookupType(cd.Parent, 1, false)
	if !ok {
		return []Diagnostic{errDiag(cd.Pos(), "undefined parent type %q for class %q", cd.Parent, cd.Name)}
	}
	if !IsObj(parent) {
		return []Diagnostic{errDiag(cd.Pos(), "class %q cannot extend non-object type %q", cd.Name, parent.Name())}
	}
	for p := parent; p != nil; p = p.Parent {
		if p == t {
			return []Diagnostic{errDiag(cd.Pos(), "class %q extends itself through %q", cd.Name, parent.Name())}
		}
	}
	t.Parent = parent
	return nil
}

// checkUnit is the second pass: scan member and function signatures, then
// check every body and every top-level statement. It runs whether the
// skeleton pass happened in this call or in an earlier classes-only call,
// so a unit never commits with unchecked class bodies.
func (c *checker) checkUnit(prog *ast.Program) []Diagnostic {
	var diags []Diagnostic
	top := &frame{nspc: c.target}

	// Signature scan, in declaration order, so bodies anywhere in the unit
	// resolve names declared anywhere at the top level.
	for _, sec := range prog.Sections {
		switch s := sec.(type) {
		case *ast.ClassDef:
			diags = append(diags, c.scanClassMembers(s)...)
		case *ast.FuncDef:
			diags = append(diags, c.scanFuncDef(top, s, nil)...)
		case *ast.StmtList:
			diags = append(diags, c.scanTopDecls(top, s)...)
		}
	}
	if hasErrors(diags) {
		return diags
	}

	// Bodies next, so every function's dependency graph is populated
	// before any top-level call is located against it.
	for _, sec := range prog.Sections {
		switch s := sec.(type) {
		case *ast.ClassDef:
			diags = append(diags, c.checkClassBody(s)...)
		case *ast.FuncDef:
			diags = append(diags, c.checkFuncBody(top, s)...)
		}
	}
	if hasErrors(diags) {
		return diags
	}

	// Top-level statements last, in declaration order.
	for _, sec := range prog.Sections {
		s, ok := sec.(*ast.StmtList)
		if !ok {
			continue
		}
		for _, stmt := range s.Stmts {
			diags = append(diags, c.checkStatement(top, stmt)...)
		}
	}
	return diags
}

// scanTopDecls pre-declares the unit's top-level variables, so function
// bodies earlier in the unit can reference globals declared later; the
// dependency graphs catch any use before initialization.
func (c *checker) scanTopDecls(fr *frame, list *ast.StmtList) []Diagnostic {
	var diags []Diagnostic
	c.prescan = true
	defer func() { c.prescan = false }()
	for _, stmt := range list.Stmts {
		es, ok := stmt.(*ast.ExpStatement)
		if !ok {
			continue
		}
		for _, decl := range declsIn(es.Exp) {
			if decl.TypeName == "auto" {
				// Inferred declarations wait for their initializer.
				continue
			}
			ds, _ := c.checkDeclExpression(fr, decl)
			diags = append(diags, ds...)
		}
	}
	return diags
}

// declsIn collects the declarations within one top-level expression, e.g.
// the target of a chuck assignment.
func declsIn(exp ast.Expression) []*ast.DeclExpression {
	switch e := exp.(type) {
	case *ast.DeclExpression:
		return []*ast.DeclExpression{e}
	case *ast.BinaryExpression:
		return append(declsIn(e.Left), declsIn(e.Right)...)
	}
	return nil
}

// scanClassMembers checks a class's member declarations and method
// signatures, assigns layout offsets, and marks the class complete.
func (c *checker) scanClassMembers(cd *ast.ClassDef) []Diagnostic {
	env := c.env
	t, ok := c.target.LookupType(cd.Name, 0, false)
	if !ok {
		return []Diagnostic{errDiag(cd.Pos(), "class %q was not scanned", cd.Name)}
	}
	if t.Parent != nil && t.Parent.Origin == OriginUser && !t.Parent.IsComplete {
		return []Diagnostic{errDiag(cd.Pos(), "class %q extends %q, which is not yet completely defined", cd.Name, t.Parent.Name())}
	}
	// Instance layout and virtual dispatch continue from the parent's.
	if t.Parent != nil && t.ObjSize < t.Parent.ObjSize {
		t.ObjSize = t.Parent.ObjSize
	}
	if t.Parent != nil && t.Parent.Info != nil && len(t.Info.VTable) == 0 {
		t.Info.VTable = append(t.Info.VTable, t.Parent.Info.VTable...)
	}

	var diags []Diagnostic
	env.pushClass(t)
	fr := &frame{nspc: t.Info, classDef: t}
	for _, stmt := range cd.Body {
		switch s := stmt.(type) {
		case *ast.FuncDef:
			diags = append(diags, c.scanFuncDef(fr, s, t)...)
		case *ast.ExpStatement:
			for _, decl := range declsIn(s.Exp) {
				if decl.TypeName == "auto" {
					diags = append(diags, errDiag(decl.Pos(), "class member %q cannot be declared 'auto'", decl.Name))
					continue
				}
				ds, _ := c.checkDeclExpression(fr, decl)
				diags = append(diags, ds...)
			}
			if _, isDecl := s.Exp.(*ast.DeclExpression); !isDecl {
				t.HasCtor = true
			}
		default:
			t.HasCtor = true
		}
	}
	env.popClass()

	if !hasErrors(diags) {
		t.IsComplete = true
		t.Info.Commit()
	}
	return diags
}

// checkClassBody checks a class's method bodies and its top-level
// (pre-constructor) statements.
func (c *checker) checkClassBody(cd *ast.ClassDef) []Diagnostic {
	t, ok := c.target.LookupType(cd.Name, 0, false)
	if !ok {
		return nil
	}
	var diags []Diagnostic
	c.env.pushClass(t)
	fr := &frame{nspc: t.Info, classDef: t}
	for _, stmt := range cd.Body {
		if fd, ok := stmt.(*ast.FuncDef); ok {
			diags = append(diags, c.checkFuncBody(fr, fd)...)
			continue
		}
		diags = append(diags, c.checkStatement(fr, stmt)...)
	}
	c.env.popClass()
	return diags
}

// scanFuncDef resolves a function definition's signature, validates
// overloads and overrides, and registers its descriptor and value slots.
// class is nil for a top-level function.
func (c *checker) scanFuncDef(fr *frame, def *ast.FuncDef, class *Type) []Diagnostic {
	env := c.env
	var diags []Diagnostic

	if env.CheckReserved(def.Name) {
		return []Diagnostic{errDiag(def.Pos(), "function name %q is reserved", def.Name)}
	}

	ret, ok := c.resolveTypeName(fr, def.RetType, 0)
	if !ok {
		return []Diagnostic{errDiag(def.Pos(), "undefined return type %q for function %q", def.RetType, def.Name)}
	}
	if ret.ID == TeAuto {
		return []Diagnostic{errDiag(def.Pos(), "function %q cannot return 'auto'", def.Name)}
	}

	argTypes := make([]*Type, len(def.Args))
	argNames := make([]string, len(def.Args))
	for i, arg := range def.Args {
		at, ok := c.resolveTypeName(fr, arg.TypeName, arg.ArrayDepth)
		if !ok {
			diags = append(diags, errDiag(arg.Pos(), "undefined type %q for argument %q of function %q", arg.TypeName, arg.Name, def.Name))
			continue
		}
		if IsVoid(at) || at.ID == TeAuto {
			diags = append(diags, errDiag(arg.Pos(), "argument %q of function %q cannot have type %q", arg.Name, def.Name, at.Name()))
			continue
		}
		argTypes[i] = at
		argNames[i] = arg.Name
	}
	if hasErrors(diags) {
		return diags
	}

	where := fr.nspc
	mangleScope := where.Name
	if class != nil {
		mangleScope = class.BaseName
	}

	// Overload bookkeeping against the existing head value, if any.
	overload := 0
	var head *Value
	if existing, ok := where.Values.Lookup(def.Name, 0); ok {
		if existing.FuncRef == nil {
			return []Diagnostic{errDiag(def.Pos(), "function name %q conflicts with a variable in the same scope", def.Name)}
		}
		for g := existing.FuncRef; g != nil; g = g.Next {
			if sameArgTypes(g.ArgTypes, argTypes) {
				return []Diagnostic{errDiag(def.Pos(), "function %q is already defined with this argument list", def.Name)}
			}
		}
		head = existing
		overload = existing.FuncNumOverloads
	}

	fn := c.ctx.NewFunc()
	fn.BaseName = def.Name
	fn.Name = mangleFuncName(def.Name, overload, mangleScope)
	fn.RetType = ret
	fn.ArgTypes = argTypes
	fn.ArgNames = argNames
	fn.IsStatic = def.IsStatic
	fn.IsMember = class != nil && !def.IsStatic
	fn.FuncDefConnect(def)
	c.funcs[def] = fn

	// Override validation against the parent chain.
	if fn.IsMember && class.Parent != nil {
		if up, found := FindValue(class.Parent, def.Name); found {
			if up.FuncRef == nil {
				return []Diagnostic{errDiag(def.Pos(), "function %q conflicts with a member variable of %q", def.Name, up.OwnerClass.Name())}
			}
			for g := up.FuncRef; g != nil; g = g.Next {
				if !sameArgTypes(g.ArgTypes, argTypes) {
					continue
				}
				if !Equals(g.RetType, ret) {
					return []Diagnostic{errDiag(def.Pos(), "function %q overrides %s with mismatched return type %q", def.Name, g.Signature(false, true), ret.Name())}
				}
				if !g.IsMember {
					return []Diagnostic{errDiag(def.Pos(), "function %q cannot override static %s", def.Name, g.Signature(false, true))}
				}
				fn.Up = up
				fn.VTIndex = g.VTIndex
				if fn.VTIndex >= 0 && fn.VTIndex < len(class.Info.VTable) {
					class.Info.VTable[fn.VTIndex] = fn
				}
				break
			}
		}
	}
	if fn.IsMember && fn.VTIndex == NoVTIndex {
		fn.VTIndex = len(class.Info.VTable)
		class.Info.VTable = append(class.Info.VTable, fn)
	}

	mv := c.ctx.NewValue(env.TFunction, fn.Name)
	mv.IsMember = fn.IsMember
	mv.IsStatic = fn.IsStatic
	mv.IsContextGlobal = class == nil
	mv.Owner = where
	mv.OwnerClass = class
	mv.FuncRef = fn
	mv.IsDeclChecked = true
	mv.DependInitWhere = def.Pos()
	fn.ValueRef = mv
	where.Values.Add(fn.Name, mv)
	where.Funcs.Add(fn.Name, fn)

	if head != nil {
		head.FuncNumOverloads++
		tail := head.FuncRef
		for tail.Next != nil {
			tail = tail.Next
		}
		tail.Next = fn
	} else {
		base := c.ctx.NewValue(env.TFunction, def.Name)
		base.IsMember = fn.IsMember
		base.IsStatic = fn.IsStatic
		base.IsContextGlobal = class == nil
		base.Owner = where
		base.OwnerClass = class
		base.FuncRef = fn
		base.IsDeclChecked = true
		base.FuncNumOverloads = 1
		base.DependInitWhere = def.Pos()
		where.Values.Add(def.Name, base)
		where.Funcs.Add(def.Name, fn)
	}
	return diags
}

// checkFuncBody checks a scanned function's body with its arguments in
// scope.
func (c *checker) checkFuncBody(fr *frame, def *ast.FuncDef) []Diagnostic {
	fn := c.funcs[def]
	if fn == nil || def.Body == nil {
		return nil
	}
	env := c.env
	prevFn := env.Func
	env.Func = fn

	fr.nspc.EnterScope()
	inner := &frame{nspc: fr.nspc, classDef: fr.classDef, fn: fn}
	offset := 0
	for i, at := range fn.ArgTypes {
		v := c.ctx.NewValue(at, fn.ArgNames[i])
		v.Owner = fr.nspc
		v.Offset = offset
		offset = NextOffset(offset, at)
		fr.nspc.Values.Add(v.Name, v)
	}
	var diags []Diagnostic
	for _, stmt := range def.Body.Body {
		diags = append(diags, c.checkStatement(inner, stmt)...)
	}
	if err := fr.nspc.ExitScope(); err != nil {
		diags = append(diags, errDiag(def.Pos(), "scope underflow in function %q", fn.BaseName))
	}
	env.Func = prevFn
	return diags
}

// sameArgTypes compares two argument lists as type sequences.
func sameArgTypes(lhs, rhs []*Type) bool {
	if len(lhs) != len(rhs) {
		return false
	}
	for i := range lhs {
		if !Equals(lhs[i], rhs[i]) {
			return false
		}
	}
	return true
}
