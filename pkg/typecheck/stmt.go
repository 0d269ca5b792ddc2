package typecheck

import "tempo/compiler-go/pkg/ast"

func (c *checker) checkStatement(fr *frame, stmt ast.Statement) []Diagnostic {
	switch s := stmt.(type) {
	case nil:
		return nil
	case *ast.ExpStatement:
		diags, _ := c.checkExpression(fr, s.Exp)
		return diags
	case *ast.IfStatement:
		return c.checkIf(fr, s)
	case *ast.WhileStatement:
		return c.checkWhile(fr, s)
	case *ast.ReturnStatement:
		return c.checkReturn(fr, s)
	case *ast.BlockStatement:
		return c.checkBlock(fr, s)
	case *ast.FuncDef:
		return []Diagnostic{errDiag(s.Pos(), "function %q cannot be defined inside a statement body", s.Name)}
	default:
		return []Diagnostic{errDiag(stmt.Pos(), "unsupported statement %q", stmt.NodeType())}
	}
}

func (c *checker) checkIf(fr *frame, s *ast.IfStatement) []Diagnostic {
	diags, ct := c.checkExpression(fr, s.Cond)
	if ct != nil && !isScalar(ct) {
		diags = append(diags, errDiag(s.Cond.Pos(), "'if' condition must be a scalar type (got %q)", ct.Name()))
	}
	fr.nspc.EnterScope()
	diags = append(diags, c.checkStatement(fr, s.Then)...)
	fr.nspc.ExitScope()
	if s.Else != nil {
		fr.nspc.EnterScope()
		diags = append(diags, c.checkStatement(fr, s.Else)...)
		fr.nspc.ExitScope()
	}
	return diags
}

func (c *checker) checkWhile(fr *frame, s *ast.WhileStatement) []Diagnostic {
	diags, ct := c.checkExpression(fr, s.Cond)
	if ct != nil && !isScalar(ct) {
		diags = append(diags, errDiag(s.Cond.Pos(), "'while' condition must be a scalar type (got %q)", ct.Name()))
	}
	fr.nspc.EnterScope()
	diags = append(diags, c.checkStatement(fr, s.Body)...)
	fr.nspc.ExitScope()
	return diags
}

func (c *checker) checkReturn(fr *frame, s *ast.ReturnStatement) []Diagnostic {
	if fr.fn == nil {
		return []Diagnostic{errDiag(s.Pos(), "'return' outside of a function definition")}
	}
	if s.Value == nil {
		if !IsVoid(fr.fn.RetType) {
			return []Diagnostic{errDiag(s.Pos(), "function %q must return a value of type %q", fr.fn.BaseName, fr.fn.RetType.Name())}
		}
		return nil
	}
	diags, vt := c.checkExpression(fr, s.Value)
	if vt == nil {
		return diags
	}
	if IsVoid(fr.fn.RetType) {
		return append(diags, errDiag(s.Pos(), "function %q cannot return a value", fr.fn.BaseName))
	}
	if !assignable(vt, fr.fn.RetType) {
		diags = append(diags, errDiag(s.Pos(), "function %q returns %q, expected %q", fr.fn.BaseName, vt.Name(), fr.fn.RetType.Name()))
	}
	return diags
}

func (c *checker) checkBlock(fr *frame, s *ast.BlockStatement) []Diagnostic {
	fr.nspc.EnterScope()
	var diags []Diagnostic
	for _, stmt := range s.Body {
		diags = append(diags, c.checkStatement(fr, stmt)...)
	}
	fr.nspc.ExitScope()
	return diags
}

// resolveTypeName resolves a type by name with an optional array dimension
// count, honoring the deprecated-name map.
func (c *checker) resolveTypeName(fr *frame, name string, depth int) (*Type, bool) {
	if repl, ok := c.env.GetDeprecate(name); ok {
		name = repl
	}
	t, ok := fr.nspc.LookupType(name, 1, false)
	if !ok {
		return nil, false
	}
	if depth > 0 {
		t = NewArrayType(c.env, t, depth)
	}
	return t, ok
}

// deprecationDiags reports a retired name per the session's deprecation
// level.
func (c *checker) deprecationDiags(name string, pos int) []Diagnostic {
	repl, ok := c.env.GetDeprecate(name)
	if !ok {
		return nil
	}
	switch c.env.DeprecateLevel {
	case DeprecateStop:
		return []Diagnostic{errDiag(pos, "%q is deprecated; use %q", name, repl)}
	case DeprecateWarn:
		return []Diagnostic{warnDiag(pos, "%q is deprecated; use %q instead", name, repl)}
	}
	return nil
}

// checkDeclExpression declares one variable. A declaration already entered
// by a signature pre-scan is marked checked and reused rather than
// redeclared.
func (c *checker) checkDeclExpression(fr *frame, decl *ast.DeclExpression) ([]Diagnostic, *Type) {
	if v, ok := c.decls[decl]; ok {
		v.IsDeclChecked = true
		return nil, v.Type
	}
	env := c.env
	var diags []Diagnostic

	if env.CheckReserved(decl.Name) {
		return append(diags, errDiag(decl.Pos(), "variable name %q is reserved", decl.Name)), nil
	}
	diags = append(diags, c.deprecationDiags(decl.TypeName, decl.Pos())...)
	if hasErrors(diags) {
		return diags, nil
	}

	t, ok := c.resolveTypeName(fr, decl.TypeName, 0)
	if !ok {
		return append(diags, errDiag(decl.Pos(), "undefined type %q in declaration of %q", decl.TypeName, decl.Name)), nil
	}
	if t.ID == TeAuto {
		return append(diags, errDiag(decl.Pos(), "cannot declare %q as 'auto' without an initializer", decl.Name)), nil
	}
	if IsVoid(t) {
		return append(diags, errDiag(decl.Pos(), "cannot declare %q with type 'void'", decl.Name)), nil
	}
	if decl.ArrayDepth < 0 {
		return append(diags, errDiag(decl.Pos(), "malformed array declaration of %q", decl.Name)), nil
	}
	if decl.ArrayDepth > 0 {
		t = NewArrayType(env, t, decl.ArrayDepth)
	}
	if t.Origin == OriginUser && !t.IsComplete && fr.classDef == nil {
		return append(diags, errDiag(decl.Pos(), "type %q is not yet completely defined", t.Name())), nil
	}
	if _, dup := fr.nspc.Values.Lookup(decl.Name, 0); dup {
		return append(diags, errDiag(decl.Pos(), "%q is already declared in the same scope", decl.Name)), nil
	}

	return diags, c.declareValue(fr, decl, t).Type
}

// declareValue binds a checked declaration into the current scope and
// assigns its storage offset.
func (c *checker) declareValue(fr *frame, decl *ast.DeclExpression, t *Type) *Value {
	v := c.ctx.NewValue(t, decl.Name)
	v.IsConst = decl.IsConst
	v.Owner = fr.nspc
	switch {
	case fr.classDef != nil && fr.fn == nil && decl.IsStatic:
		v.IsStatic = true
		v.OwnerClass = fr.classDef
		v.Offset = fr.classDef.Info.ClassDataSize
		fr.classDef.Info.ClassDataSize = NextOffset(v.Offset, t)
		v.DependInitWhere = decl.Pos()
	case fr.classDef != nil && fr.fn == nil:
		v.IsMember = true
		v.OwnerClass = fr.classDef
		v.Offset = fr.classDef.ObjSize
		fr.classDef.ObjSize = NextOffset(v.Offset, t)
		v.DependInitWhere = decl.Pos()
	default:
		if fr.fn == nil && fr.classDef == nil {
			v.IsContextGlobal = true
			v.DependInitWhere = decl.Pos()
		}
		v.Offset = fr.nspc.Offset
		fr.nspc.Offset = NextOffset(v.Offset, t)
	}
	v.IsDeclChecked = !c.prescan
	fr.nspc.Values.Add(decl.Name, v)
	c.decls[decl] = v
	return v
}

// isScalar reports whether t can drive a condition.
func isScalar(t *Type) bool {
	return t != nil && (t.ID == TeInt || t.ID == TeFloat)
}

// assignable reports whether a value of type from may be stored into a slot
// of type to, allowing the implicit int-to-float promotion.
func assignable(from, to *Type) bool {
	if Isa(from, to) {
		return true
	}
	return from != nil && to != nil && from.ID == TeInt && to.ID == TeFloat
}
