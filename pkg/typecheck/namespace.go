package typecheck

// Code is a handle to emitted VM code. The checker stores and forwards these
// handles (pre-constructor and destructor code of a scope) but never
// inspects them; the emitter and the VM own their meaning.
type Code interface{}

// Namespace aggregates the three symbol kinds of one lexical or class scope.
// Parent links are lookup-only back-references; they never imply ownership.
type Namespace struct {
	Types  *Scope[*Type]
	Values *Scope[*Value]
	Funcs  *Scope[*Func]

	// Virtual dispatch table for the class this namespace describes.
	VTable []*Func
	// Static data segment description.
	ClassData     []byte
	ClassDataSize int

	Name    string
	PreCtor Code
	Dtor    Code
	Parent  *Namespace
	// Next free storage offset for bindings declared in this scope.
	Offset int

	// ClassOf is the class type whose members this namespace holds, nil for
	// purely lexical namespaces. Lookups with stayWithinClassDef stop
	// climbing here.
	ClassOf *Type
}

// NewNamespace returns an empty namespace.
func NewNamespace(name string) *Namespace {
	return &Namespace{
		Types:  NewScope[*Type](),
		Values: NewScope[*Value](),
		Funcs:  NewScope[*Func](),
		Name:   name,
	}
}

// EnterScope pushes a lexical frame on all three tables.
func (n *Namespace) EnterScope() {
	n.Types.Push()
	n.Values.Push()
	n.Funcs.Push()
}

// ExitScope pops the innermost lexical frame from all three tables.
func (n *Namespace) ExitScope() error {
	if err := n.Types.Pop(); err != nil {
		return err
	}
	if err := n.Values.Pop(); err != nil {
		return err
	}
	return n.Funcs.Pop()
}

// Commit makes every pending addition in all three tables visible. A
// namespace commits or rolls back only as a unit.
func (n *Namespace) Commit() {
	n.Types.Commit()
	n.Values.Commit()
	n.Funcs.Commit()
}

// Rollback discards every pending addition in all three tables.
func (n *Namespace) Rollback() {
	n.Types.Rollback()
	n.Values.Rollback()
	n.Funcs.Rollback()
}

// LookupType resolves a type name, climbing to parent namespaces when the
// local search is exhausted and climb > 0. stayWithinClassDef stops the
// climb at a class-definition boundary.
func (n *Namespace) LookupType(name string, climb int, stayWithinClassDef bool) (*Type, bool) {
	if t, ok := n.Types.Lookup(name, climb); ok {
		return t, true
	}
	if climb > 0 && n.Parent != nil && !(stayWithinClassDef && n.ClassOf != nil) {
		return n.Parent.LookupType(name, climb, stayWithinClassDef)
	}
	return nil, false
}

// LookupValue resolves a value name; see LookupType for climb semantics.
func (n *Namespace) LookupValue(name string, climb int, stayWithinClassDef bool) (*Value, bool) {
	if v, ok := n.Values.Lookup(name, climb); ok {
		return v, true
	}
	if climb > 0 && n.Parent != nil && !(stayWithinClassDef && n.ClassOf != nil) {
		return n.Parent.LookupValue(name, climb, stayWithinClassDef)
	}
	return nil, false
}

// LookupFunc resolves a function name; see LookupType for climb semantics.
func (n *Namespace) LookupFunc(name string, climb int, stayWithinClassDef bool) (*Func, bool) {
	if f, ok := n.Funcs.Lookup(name, climb); ok {
		return f, true
	}
	if climb > 0 && n.Parent != nil && !(stayWithinClassDef && n.ClassOf != nil) {
		return n.Parent.LookupFunc(name, climb, stayWithinClassDef)
	}
	return nil, false
}

// GetTypes returns the namespace's top-level types.
func (n *Namespace) GetTypes() []*Type {
	return n.Types.GetTopLevel(true)
}

// GetValues returns the namespace's top-level values.
func (n *Namespace) GetValues() []*Value {
	return n.Values.GetTopLevel(true)
}

// GetFuncs returns the namespace's top-level functions, optionally without
// mangled overload entries.
func (n *Namespace) GetFuncs(includeMangled bool) []*Func {
	return n.Funcs.GetTopLevel(includeMangled)
}
