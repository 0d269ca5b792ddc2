// Package dl models natively implemented extensions: the descriptors an
// extension fills in to register classes, methods, and fields with the type
// environment. The loader that discovers extensions on disk and the VM that
// invokes the hooks live outside this module; dl only carries their shape.
package dl

import "fmt"

// CtorFn constructs the native state of one object instance.
type CtorFn func() any

// DtorFn tears down the native state of one object instance.
type DtorFn func(obj any)

// TickFn advances a unit generator by one block of samples.
type TickFn func(obj any, in, out []float32) bool

// CtrlFn reads or writes one unit-generator control parameter.
type CtrlFn func(obj any, arg any) any

// MFunFn implements a member function natively.
type MFunFn func(obj any, args []any) any

// SFunFn implements a static function natively.
type SFunFn func(args []any) any

// Arg is one formal parameter of a native function. TypeName may carry
// trailing "[]" pairs for array parameters.
type Arg struct {
	TypeName string
	Name     string
}

// Func describes one native function. Exactly one of MFn and SFn is set;
// MFn makes it a member function, SFn a static one.
type Func struct {
	Name    string
	RetType string
	Args    []Arg
	Doc     string
	MFn     MFunFn
	SFn     SFunFn
}

// Value describes one native variable.
type Value struct {
	TypeName string
	Name     string
	IsConst  bool
	// Addr is the backing storage for a static variable.
	Addr any
	Doc  string
}

// Ctrl describes one unit-generator control parameter.
type Ctrl struct {
	TypeName string
	Name     string
	Fn       CtrlFn
	Write    bool
	Read     bool
}

// Class describes one class a native extension provides. A non-nil Tick
// makes it a unit-generator class.
type Class struct {
	Name   string
	Parent string
	Doc    string

	Ctor CtorFn
	Dtor DtorFn

	Tick    TickFn
	NumIns  int
	NumOuts int
	Ctrls   []Ctrl

	MFuns []*Func
	SFuns []*Func
	MVars []*Value
	SVars []*Value

	Examples []string
}

// Query collects everything one extension registers. The extension's query
// function appends to it.
type Query struct {
	Classes []*Class
	// Deprecations maps retired names to their replacements.
	Deprecations map[string]string
}

// AddClass appends a class to the query.
func (q *Query) AddClass(c *Class) {
	q.Classes = append(q.Classes, c)
}

// Deprecate records a name replacement.
func (q *Query) Deprecate(former, latter string) {
	if q.Deprecations == nil {
		q.Deprecations = make(map[string]string)
	}
	q.Deprecations[former] = latter
}

// QueryFn is the entry point an extension exports.
type QueryFn func(q *Query) error

// DLL is one loadable native extension.
type DLL struct {
	Name    string
	Version string
	Query   QueryFn
}

// Describe runs the extension's query and returns what it registers.
func (d *DLL) Describe() (*Query, error) {
	if d.Query == nil {
		return nil, fmt.Errorf("dl: extension %q has no query function", d.Name)
	}
	q := &Query{}
	if err := d.Query(q); err != nil {
		return nil, fmt.Errorf("dl: query %s: %w", d.Name, err)
	}
	return q, nil
}
