package typecheck

import (
	"fmt"
	"strings"

	"tempo/compiler-go/pkg/ast"
)

// Access is a member's visibility.
type Access int

const (
	AccessPublic Access = iota
	AccessProtected
	AccessPrivate
)

// Value is a named binding in some scope: a variable, a member, or the
// value slot behind a function name.
type Value struct {
	Type *Type
	Name string
	// Offset is relative to the owning namespace's layout and assigned
	// monotonically as bindings are declared.
	Offset int
	// Addr is extension-provided backing storage for static imports.
	Addr any

	IsConst  bool
	IsMember bool
	IsStatic bool
	// IsContextGlobal marks a binding declared at a unit's top level.
	IsContextGlobal bool
	IsDeclChecked   bool
	IsGlobal        bool
	Access          Access

	// Owner is the declaring namespace; OwnerClass the declaring class, if
	// this is a member. Both are lookup back-references.
	Owner      *Namespace
	OwnerClass *Type

	// FuncRef is set when this value names a function; overload count
	// follows the Next chain from that function.
	FuncRef          *Func
	FuncNumOverloads int

	// DependInitWhere is the position at which this value is considered
	// initialized, for within-unit dependency tracking.
	DependInitWhere int

	Doc string
}

// NewValue returns a value of type t named n.
func NewValue(t *Type, name string) *Value {
	return &Value{Type: t, Name: name}
}

// Func is one function definition: one signature in a possibly overloaded
// set.
type Func struct {
	// Name is the mangled in-VM name, e.g. "dump@0@Object".
	Name string
	// BaseName is the source-level name, e.g. "dump".
	BaseName string
	// Code is the emitted or native code handle.
	Code Code

	IsMember bool
	IsStatic bool
	// VTIndex is the slot in the owning class's virtual table, or
	// NoVTIndex.
	VTIndex int

	// Resolved signature; survives AST decoupling.
	RetType  *Type
	ArgTypes []*Type
	ArgNames []string

	// ValueRef is the value slot bound to this function's mangled name.
	ValueRef *Value
	// Next chains same-named functions with different signatures.
	Next *Func
	// Up is the value slot this function overrides in a parent class.
	Up *Value

	// Within-unit value dependencies of the body.
	Depends DependencyGraph

	Doc string

	def *ast.FuncDef
}

// NoVTIndex marks a function without a virtual-table slot.
const NoVTIndex = -1

// NewFunc returns an empty function descriptor.
func NewFunc() *Func {
	return &Func{VTIndex: NoVTIndex}
}

// FuncDefConnect attaches the syntax-tree definition; called when the
// function is type checked.
func (f *Func) FuncDefConnect(def *ast.FuncDef) {
	f.def = def
}

// FuncDefDecouple severs the reference to the syntax tree. The resolved
// signature is retained on the Func, so the tree can be freed independently
// once code generation is done.
func (f *Func) FuncDefDecouple() {
	f.def = nil
}

// Def returns the attached syntax-tree definition. Do not retain it past the
// current checking pass.
func (f *Func) Def() *ast.FuncDef { return f.def }

// NumOverloads counts the signatures on the overload chain starting here.
func (f *Func) NumOverloads() int {
	n := 0
	for g := f; g != nil; g = g.Next {
		n++
	}
	return n
}

// Signature renders a human-readable signature, e.g.
// "void Osc.freq( float f )".
func (f *Func) Signature(incFunDef, incRetType bool) string {
	var b strings.Builder
	if incFunDef {
		b.WriteString("fun ")
	}
	if incRetType && f.RetType != nil {
		b.WriteString(f.RetType.Name())
		b.WriteString(" ")
	}
	if f.ValueRef != nil && f.ValueRef.OwnerClass != nil {
		b.WriteString(f.ValueRef.OwnerClass.BaseName)
		b.WriteString(".")
	}
	b.WriteString(f.BaseName)
	b.WriteString("(")
	for i, at := range f.ArgTypes {
		if i > 0 {
			b.WriteString(",")
		}
		name := ""
		if i < len(f.ArgNames) {
			name = f.ArgNames[i]
		}
		b.WriteString(fmt.Sprintf(" %s %s", at.Name(), name))
	}
	if len(f.ArgTypes) > 0 {
		b.WriteString(" ")
	}
	b.WriteString(")")
	return b.String()
}

// mangleFuncName builds the in-VM overload name.
func mangleFuncName(base string, overload int, where string) string {
	return fmt.Sprintf("%s%s%d%s%s", base, mangleSeparator, overload, mangleSeparator, where)
}
