package typecheck

import (
	"path/filepath"

	"tempo/compiler-go/pkg/ast"
)

// Progress is a context's position in the two-phase checking state machine.
type Progress int

const (
	// ProgressNotStarted: nothing checked yet.
	ProgressNotStarted Progress = iota
	// ProgressClassesScanned: every top-level class has a registered type
	// skeleton; bodies are unchecked.
	ProgressClassesScanned
	// ProgressFullyChecked: class bodies, top-level statements, and
	// function bodies are checked; the unit is ready to commit.
	ProgressFullyChecked
)

func (p Progress) String() string {
	switch p {
	case ProgressNotStarted:
		return "not-started"
	case ProgressClassesScanned:
		return "classes-scanned"
	case ProgressFullyChecked:
		return "fully-checked"
	}
	return "unknown"
}

// Context is the per-unit checking state for one source fragment: a file or
// one interactive submission. It owns its private namespace and records
// every entity the unit created, so a failed or unloaded unit can be
// released as a whole.
type Context struct {
	Filename string
	FullPath string

	// Nspc is the unit's private namespace; lexical frames are pushed on it
	// while the unit is checked.
	Nspc *Namespace

	// Tree is the externally owned parse tree. Severed by DecoupleAST.
	Tree *ast.Program
	// PublicClassDef is the unit's public class declaration, if any.
	PublicClassDef *ast.ClassDef

	Progress Progress
	HasError bool

	// Everything this unit created, for release on rollback or unload.
	newTypes      []*Type
	newValues     []*Value
	newFuncs      []*Func
	newNamespaces []*Namespace
}

// MakeContext wraps an already-parsed tree and its source name in a fresh
// context.
func MakeContext(tree *ast.Program, filename string) *Context {
	full := filename
	if abs, err := filepath.Abs(filename); err == nil {
		full = abs
	}
	return &Context{
		Filename: filename,
		FullPath: full,
		Nspc:     NewNamespace(filename),
		Tree:     tree,
	}
}

// Code returns the unit's top-level code handle.
func (c *Context) Code() Code { return c.Nspc.PreCtor }

// NewType allocates a type tracked by this unit.
func (c *Context) NewType(env *Env, id TeType, name string, parent *Type, size int) *Type {
	t := NewType(env, id, name, parent, size)
	c.newTypes = append(c.newTypes, t)
	return t
}

// NewValue allocates a value tracked by this unit.
func (c *Context) NewValue(t *Type, name string) *Value {
	v := NewValue(t, name)
	c.newValues = append(c.newValues, v)
	return v
}

// NewFunc allocates a function tracked by this unit.
func (c *Context) NewFunc() *Func {
	f := NewFunc()
	c.newFuncs = append(c.newFuncs, f)
	return f
}

// NewNamespace allocates a namespace tracked by this unit.
func (c *Context) NewNamespace(name string) *Namespace {
	n := NewNamespace(name)
	c.newNamespaces = append(c.newNamespaces, n)
	return n
}

// ClearDependencies clears the dependency records of everything the unit
// created. Called once checking completes successfully; dependency hazards
// are defined only within a single unit's load order, so committed bindings
// must not carry their positions into later units.
func (c *Context) ClearDependencies() {
	for _, f := range c.newFuncs {
		f.Depends.Clear()
	}
	for _, t := range c.newTypes {
		t.Depends.Clear()
	}
	for _, v := range c.newValues {
		v.DependInitWhere = 0
	}
}

// DecoupleAST severs every reference into the parse tree, so the tree can
// be freed independently of the entities that survive compilation.
func (c *Context) DecoupleAST() {
	for _, f := range c.newFuncs {
		f.FuncDefDecouple()
	}
	c.Tree = nil
	c.PublicClassDef = nil
}

// Release drops the unit's creation lists. The entities themselves are
// reclaimed once nothing else references them.
func (c *Context) Release() {
	c.newTypes = nil
	c.newValues = nil
	c.newFuncs = nil
	c.newNamespaces = nil
}
