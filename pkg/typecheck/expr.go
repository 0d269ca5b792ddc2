package typecheck

import "tempo/compiler-go/pkg/ast"

// durUnits are the built-in duration units.
var durUnits = map[string]bool{
	"samp":   true,
	"ms":     true,
	"second": true,
	"minute": true,
	"hour":   true,
	"day":    true,
	"week":   true,
}

func (c *checker) checkExpression(fr *frame, exp ast.Expression) ([]Diagnostic, *Type) {
	env := c.env
	switch e := exp.(type) {
	case nil:
		return nil, nil
	case *ast.IntLiteral:
		return nil, env.TInt
	case *ast.FloatLiteral:
		return nil, env.TFloat
	case *ast.StringLiteral:
		return nil, env.TString
	case *ast.DurLiteral:
		if !durUnits[e.Unit] {
			return []Diagnostic{errDiag(e.Pos(), "unknown duration unit %q", e.Unit)}, nil
		}
		return nil, env.TDur
	case *ast.ArrayLiteral:
		return c.checkArrayLiteral(fr, e)
	case *ast.NameExpression:
		v, diags := c.resolveName(fr, e.Name, e.Pos())
		if v == nil {
			return diags, nil
		}
		return diags, v.Type
	case *ast.DeclExpression:
		return c.checkDeclExpression(fr, e)
	case *ast.BinaryExpression:
		return c.checkBinaryExpression(fr, e)
	case *ast.CallExpression:
		return c.checkCallExpression(fr, e)
	case *ast.MemberExpression:
		diags, v := c.checkMemberExpression(fr, e)
		if v == nil {
			return diags, nil
		}
		return diags, v.Type
	case *ast.IndexExpression:
		return c.checkIndexExpression(fr, e)
	case *ast.NewExpression:
		return c.checkNewExpression(fr, e)
	default:
		return []Diagnostic{errDiag(exp.Pos(), "unsupported expression %q", exp.NodeType())}, nil
	}
}

// resolveName resolves an unqualified name to a value. Inside a class
// definition the search stops at the class boundary first, then walks the
// inheritance chain, then falls out to the unit/user/global scopes.
func (c *checker) resolveName(fr *frame, name string, pos int) (*Value, []Diagnostic) {
	var diags []Diagnostic

	v, ok := (*Value)(nil), false
	if fr.classDef != nil {
		v, ok = fr.nspc.LookupValue(name, 1, true)
		if !ok {
			v, ok = FindValue(fr.classDef.Parent, name)
		}
	}
	if !ok {
		v, ok = c.target.LookupValue(name, 1, false)
	}
	if !ok {
		if repl, has := c.env.GetDeprecate(name); has {
			diags = append(diags, c.deprecationDiags(name, pos)...)
			if !hasErrors(diags) {
				if rv, rok := c.target.LookupValue(repl, 1, false); rok {
					return rv, diags
				}
			}
			return nil, diags
		}
		return nil, append(diags, errDiag(pos, "undefined variable %q", name))
	}

	// At a unit's top level, a binding may not be used above its own
	// declaration statement.
	if fr.fn == nil && fr.classDef == nil && v.IsContextGlobal && !v.IsDeclChecked {
		return nil, append(diags, errDiag(pos, "%q is used before its declaration", name))
	}

	// Record within-unit dependencies for uses from function bodies and
	// class pre-constructor code.
	if v.DependInitWhere > 0 {
		dep := ValueDependency{Value: v, Where: v.DependInitWhere, UseWhere: pos}
		if fr.fn != nil {
			fr.fn.Depends.Add(dep)
		} else if fr.classDef != nil {
			fr.classDef.Depends.Add(dep)
		}
	}
	return v, diags
}

func (c *checker) checkArrayLiteral(fr *frame, lit *ast.ArrayLiteral) ([]Diagnostic, *Type) {
	env := c.env
	if len(lit.Elements) == 0 {
		return []Diagnostic{errDiag(lit.Pos(), "cannot infer the type of an empty array literal")}, nil
	}
	var diags []Diagnostic
	var elem *Type
	for _, el := range lit.Elements {
		ds, et := c.checkExpression(fr, el)
		diags = append(diags, ds...)
		if et == nil {
			continue
		}
		switch {
		case elem == nil:
			elem = et
		case Equals(elem, et):
		case isNumeric(elem) && isNumeric(et):
			elem = env.TFloat
		default:
			if anc := FindCommonAncestor(elem, et); anc != nil {
				elem = anc
			} else {
				diags = append(diags, errDiag(el.Pos(), "array literal mixes unrelated types %q and %q", elem.Name(), et.Name()))
			}
		}
	}
	if hasErrors(diags) || elem == nil {
		return diags, nil
	}
	return diags, NewArrayType(env, elem, 1)
}

func (c *checker) checkBinaryExpression(fr *frame, b *ast.BinaryExpression) ([]Diagnostic, *Type) {
	if b.Operator == ast.OperatorChuck {
		return c.checkChuck(fr, b)
	}
	if b.Operator == ast.OperatorUnchuck {
		return c.checkUnchuck(fr, b)
	}

	diags, lt := c.checkExpression(fr, b.Left)
	rd, rt := c.checkExpression(fr, b.Right)
	diags = append(diags, rd...)
	if lt == nil || rt == nil {
		return diags, nil
	}
	result, ok := binaryResult(c.env, b.Operator, lt, rt)
	if !ok {
		diags = append(diags, errDiag(b.Pos(), "operator %q undefined for types %q and %q", b.Operator, lt.Name(), rt.Name()))
		return diags, nil
	}
	return diags, result
}

// checkChuck handles `=>`: declaration initialization, assignment, time
// advance, and unit-generator connection.
func (c *checker) checkChuck(fr *frame, b *ast.BinaryExpression) ([]Diagnostic, *Type) {
	env := c.env
	diags, lt := c.checkExpression(fr, b.Left)

	// `... => auto x` and `... => int x` declare-and-initialize.
	if decl, isDecl := b.Right.(*ast.DeclExpression); isDecl {
		var dt *Type
		if decl.TypeName == "auto" {
			if _, done := c.decls[decl]; !done {
				if lt == nil {
					return append(diags, errDiag(decl.Pos(), "cannot infer a type for %q", decl.Name)), nil
				}
				inferred := lt
				if decl.ArrayDepth > 0 {
					inferred = NewArrayType(env, inferred, decl.ArrayDepth)
				}
				if env.CheckReserved(decl.Name) {
					return append(diags, errDiag(decl.Pos(), "variable name %q is reserved", decl.Name)), nil
				}
				if _, dup := fr.nspc.Values.Lookup(decl.Name, 0); dup {
					return append(diags, errDiag(decl.Pos(), "%q is already declared in the same scope", decl.Name)), nil
				}
				dt = c.declareValue(fr, decl, inferred).Type
			} else {
				c.decls[decl].IsDeclChecked = true
				dt = c.decls[decl].Type
			}
		} else {
			dd, t := c.checkDeclExpression(fr, decl)
			diags = append(diags, dd...)
			dt = t
		}
		if lt == nil || dt == nil {
			return diags, dt
		}
		if !assignable(lt, dt) {
			diags = append(diags, errDiag(b.Pos(), "cannot chuck %q to declaration of type %q", lt.Name(), dt.Name()))
			return diags, nil
		}
		return diags, dt
	}

	rd, rt := c.checkExpression(fr, b.Right)
	diags = append(diags, rd...)
	if lt == nil || rt == nil {
		return diags, nil
	}

	// `dur => now` advances time.
	if name, isName := b.Right.(*ast.NameExpression); isName && name.Name == "now" {
		if Isa(lt, env.TDur) || Isa(lt, env.TTime) {
			return diags, env.TTime
		}
		diags = append(diags, errDiag(b.Pos(), "cannot advance time with %q; expected 'dur' or 'time'", lt.Name()))
		return diags, nil
	}

	// Unit-generator connection.
	if Isa(lt, env.TUGen) && Isa(rt, env.TUGen) {
		return diags, rt
	}

	// Plain assignment into an lvalue.
	switch b.Right.(type) {
	case *ast.NameExpression, *ast.MemberExpression, *ast.IndexExpression:
	default:
		diags = append(diags, errDiag(b.Pos(), "cannot chuck into this expression"))
		return diags, nil
	}
	if v := c.lvalueOf(fr, b.Right); v != nil && v.IsConst {
		diags = append(diags, errDiag(b.Pos(), "cannot chuck to constant %q", v.Name))
		return diags, nil
	}
	if !assignable(lt, rt) {
		diags = append(diags, errDiag(b.Pos(), "cannot chuck %q to %q", lt.Name(), rt.Name()))
		return diags, nil
	}
	return diags, rt
}

func (c *checker) checkUnchuck(fr *frame, b *ast.BinaryExpression) ([]Diagnostic, *Type) {
	env := c.env
	diags, lt := c.checkExpression(fr, b.Left)
	rd, rt := c.checkExpression(fr, b.Right)
	diags = append(diags, rd...)
	if lt == nil || rt == nil {
		return diags, nil
	}
	if !Isa(lt, env.TUGen) || !Isa(rt, env.TUGen) {
		diags = append(diags, errDiag(b.Pos(), "operator %q connects unit generators only (got %q and %q)", b.Operator, lt.Name(), rt.Name()))
		return diags, nil
	}
	return diags, rt
}

// lvalueOf returns the already-resolved value behind a simple lvalue
// expression, without re-reporting resolution diagnostics.
func (c *checker) lvalueOf(fr *frame, exp ast.Expression) *Value {
	switch e := exp.(type) {
	case *ast.NameExpression:
		if fr.classDef != nil {
			if v, ok := fr.nspc.LookupValue(e.Name, 1, true); ok {
				return v
			}
			if v, ok := FindValue(fr.classDef.Parent, e.Name); ok {
				return v
			}
		}
		if v, ok := c.target.LookupValue(e.Name, 1, false); ok {
			return v
		}
	case *ast.MemberExpression:
		_, v := c.checkMemberExpression(fr, e)
		return v
	}
	return nil
}

func (c *checker) checkCallExpression(fr *frame, call *ast.CallExpression) ([]Diagnostic, *Type) {
	var diags []Diagnostic
	argTypes := make([]*Type, len(call.Arguments))
	for i, arg := range call.Arguments {
		ds, at := c.checkExpression(fr, arg)
		diags = append(diags, ds...)
		argTypes[i] = at
	}
	if hasErrors(diags) {
		return diags, nil
	}

	var fv *Value
	switch callee := call.Callee.(type) {
	case *ast.NameExpression:
		v, ds := c.resolveName(fr, callee.Name, callee.Pos())
		diags = append(diags, ds...)
		fv = v
	case *ast.MemberExpression:
		ds, v := c.checkMemberExpression(fr, callee)
		diags = append(diags, ds...)
		fv = v
	default:
		return append(diags, errDiag(call.Pos(), "expression is not callable")), nil
	}
	if fv == nil {
		return diags, nil
	}
	if fv.FuncRef == nil {
		return append(diags, errDiag(call.Pos(), "%q is not a function", fv.Name)), nil
	}

	fn := resolveOverload(fv.FuncRef, argTypes)
	if fn == nil {
		return append(diags, errDiag(call.Pos(), "no matching overload of %q for the given arguments", fv.FuncRef.BaseName)), nil
	}

	// Chain this call's dependencies, or locate hazards when the call is a
	// top-level statement.
	switch {
	case fr.fn != nil:
		fr.fn.Depends.AddGraph(&fn.Depends)
	case fr.classDef != nil:
		fr.classDef.Depends.AddGraph(&fn.Depends)
		if dep := fn.Depends.Locate(call.Pos(), true); dep != nil {
			diags = append(diags, errDiag(call.Pos(),
				"calling %q here depends on %q (initialized at position %d; used at position %d)",
				fn.BaseName, dep.Value.Name, dep.Where, dep.UseWhere))
		}
	default:
		if dep := fn.Depends.Locate(call.Pos(), false); dep != nil {
			diags = append(diags, errDiag(call.Pos(),
				"calling %q here depends on %q, which is initialized later at position %d",
				fn.BaseName, dep.Value.Name, dep.Where))
		}
	}
	if hasErrors(diags) {
		return diags, nil
	}
	return diags, fn.RetType
}

// resolveOverload picks the first signature on the chain matching the
// argument types: an exact pass first, then a pass allowing subtyping and
// the int-to-float promotion.
func resolveOverload(head *Func, args []*Type) *Func {
	for fn := head; fn != nil; fn = fn.Next {
		if sameArgTypes(fn.ArgTypes, args) {
			return fn
		}
	}
	for fn := head; fn != nil; fn = fn.Next {
		if len(fn.ArgTypes) != len(args) {
			continue
		}
		match := true
		for i := range args {
			if args[i] == nil || !assignable(args[i], fn.ArgTypes[i]) {
				match = false
				break
			}
		}
		if match {
			return fn
		}
	}
	return nil
}

// checkMemberExpression resolves `base.member`, either through an instance
// or through a class name for static members.
func (c *checker) checkMemberExpression(fr *frame, m *ast.MemberExpression) ([]Diagnostic, *Value) {
	// Class-name base: static access.
	if name, isName := m.Base.(*ast.NameExpression); isName {
		if _, isValue := c.target.LookupValue(name.Name, 1, false); !isValue {
			if ct, isType := c.lookupTypeFor(fr, name.Name); isType {
				v, ok := FindValue(ct, m.Member)
				if !ok {
					return []Diagnostic{errDiag(m.Pos(), "type %q has no member %q", ct.Name(), m.Member)}, nil
				}
				if !v.IsStatic && !v.IsConst {
					return []Diagnostic{errDiag(m.Pos(), "cannot access instance member %q through type %q", m.Member, ct.Name())}, nil
				}
				return nil, v
			}
		}
	}

	diags, bt := c.checkExpression(fr, m.Base)
	if bt == nil {
		return diags, nil
	}
	if !IsObj(bt) {
		return append(diags, errDiag(m.Pos(), "type %q has no members", bt.Name())), nil
	}
	lookupRoot := bt
	if bt.IsArray() {
		lookupRoot = c.env.TArray
	}
	v, ok := FindValue(lookupRoot, m.Member)
	if !ok {
		return append(diags, errDiag(m.Pos(), "type %q has no member %q", bt.Name(), m.Member)), nil
	}
	if v.Access == AccessPrivate && fr.classDef != v.OwnerClass {
		return append(diags, errDiag(m.Pos(), "member %q of type %q is private", m.Member, v.OwnerClass.Name())), nil
	}
	return diags, v
}

func (c *checker) lookupTypeFor(fr *frame, name string) (*Type, bool) {
	return fr.nspc.LookupType(name, 1, false)
}

func (c *checker) checkIndexExpression(fr *frame, idx *ast.IndexExpression) ([]Diagnostic, *Type) {
	env := c.env
	diags, bt := c.checkExpression(fr, idx.Base)
	id, it := c.checkExpression(fr, idx.Index)
	diags = append(diags, id...)
	if bt == nil {
		return diags, nil
	}
	if !bt.IsArray() {
		return append(diags, errDiag(idx.Pos(), "cannot index non-array type %q", bt.Name())), nil
	}
	if it != nil && it.ID != TeInt {
		diags = append(diags, errDiag(idx.Index.Pos(), "array index must be 'int' (got %q)", it.Name()))
	}
	if bt.Array.Depth > 1 {
		return diags, NewArrayType(env, bt.Array.Base, bt.Array.Depth-1)
	}
	return diags, bt.Array.Base
}

func (c *checker) checkNewExpression(fr *frame, n *ast.NewExpression) ([]Diagnostic, *Type) {
	diags := c.deprecationDiags(n.TypeName, n.Pos())
	if hasErrors(diags) {
		return diags, nil
	}
	t, ok := c.resolveTypeName(fr, n.TypeName, 0)
	if !ok {
		return append(diags, errDiag(n.Pos(), "undefined type %q", n.TypeName)), nil
	}
	if !IsObj(t) {
		return append(diags, errDiag(n.Pos(), "cannot instantiate non-object type %q", t.Name())), nil
	}
	if !t.IsComplete {
		return append(diags, errDiag(n.Pos(), "cannot instantiate incomplete type %q", t.Name())), nil
	}
	if fr.fn == nil && fr.classDef == nil {
		if dep := t.Depends.Locate(n.Pos(), false); dep != nil {
			diags = append(diags, errDiag(n.Pos(),
				"instantiating %q here depends on %q, which is initialized later at position %d",
				t.Name(), dep.Value.Name, dep.Where))
		}
	}
	if hasErrors(diags) {
		return diags, nil
	}
	return diags, t
}

func isNumeric(t *Type) bool {
	return t != nil && (t.ID == TeInt || t.ID == TeFloat)
}

// binaryResult computes the result type of an arithmetic, comparison, or
// logical operator, or reports that the pairing is undefined.
func binaryResult(env *Env, op ast.Operator, lt, rt *Type) (*Type, bool) {
	num := func() (*Type, bool) {
		if lt.ID == TeInt && rt.ID == TeInt {
			return env.TInt, true
		}
		if isNumeric(lt) && isNumeric(rt) {
			return env.TFloat, true
		}
		return nil, false
	}
	switch op {
	case ast.OperatorPlus:
		if t, ok := num(); ok {
			return t, true
		}
		switch {
		case lt.ID == TeDur && rt.ID == TeDur:
			return env.TDur, true
		case lt.ID == TeTime && rt.ID == TeDur, lt.ID == TeDur && rt.ID == TeTime:
			return env.TTime, true
		case lt.ID == TeString && rt.ID == TeString:
			return env.TString, true
		}
	case ast.OperatorMinus:
		if t, ok := num(); ok {
			return t, true
		}
		switch {
		case lt.ID == TeDur && rt.ID == TeDur:
			return env.TDur, true
		case lt.ID == TeTime && rt.ID == TeDur:
			return env.TTime, true
		case lt.ID == TeTime && rt.ID == TeTime:
			return env.TDur, true
		}
	case ast.OperatorTimes:
		if t, ok := num(); ok {
			return t, true
		}
		switch {
		case lt.ID == TeDur && isNumeric(rt):
			return env.TDur, true
		case isNumeric(lt) && rt.ID == TeDur:
			return env.TDur, true
		}
	case ast.OperatorDivide:
		if t, ok := num(); ok {
			return t, true
		}
		switch {
		case lt.ID == TeDur && rt.ID == TeDur:
			return env.TFloat, true
		case lt.ID == TeDur && isNumeric(rt):
			return env.TDur, true
		}
	case ast.OperatorPercent:
		switch {
		case lt.ID == TeInt && rt.ID == TeInt:
			return env.TInt, true
		case isNumeric(lt) && isNumeric(rt):
			return env.TFloat, true
		case lt.ID == TeDur && rt.ID == TeDur:
			return env.TDur, true
		}
	case ast.OperatorEq, ast.OperatorNeq:
		if comparable2(lt, rt) || (IsObj(lt) && IsObj(rt)) {
			return env.TInt, true
		}
	case ast.OperatorLt, ast.OperatorGt, ast.OperatorLe, ast.OperatorGe:
		if comparable2(lt, rt) {
			return env.TInt, true
		}
	case ast.OperatorAnd, ast.OperatorOr:
		if lt.ID == TeInt && rt.ID == TeInt {
			return env.TInt, true
		}
	}
	return nil, false
}

// comparable2 reports whether two types can be ordered or equated.
func comparable2(lt, rt *Type) bool {
	if isNumeric(lt) && isNumeric(rt) {
		return true
	}
	if lt.ID == rt.ID {
		switch lt.ID {
		case TeTime, TeDur, TeString, TeInt, TeFloat:
			return true
		}
	}
	return false
}
