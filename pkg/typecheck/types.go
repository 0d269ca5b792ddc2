package typecheck

import (
	"strings"

	"tempo/compiler-go/pkg/dl"
)

// TeType identifies the built-in kind of a type.
type TeType int

const (
	TeNone TeType = iota
	TeInt
	TeFloat
	TeTime
	TeDur
	TeString
	TeClass
	TeFunction
	TeObject
	TeUser
	TeArray
	TeNull
	TeUGen
	TeEvent
	TeVoid
	TeShred
	TeIO
	TeVec2
	TeVec3
	TeVec4
	TeAuto
)

// Origin records where a type came from.
type Origin int

const (
	OriginUnknown Origin = iota
	// OriginBuiltin types are registered at Env initialization.
	OriginBuiltin
	// OriginExtension types are imported from a native extension.
	OriginExtension
	// OriginImport types come from imported Tempo library code.
	OriginImport
	// OriginUser types are defined in user code.
	OriginUser
	// OriginGenerated types are compiler-made, e.g. array types.
	OriginGenerated
)

// Storage sizes, in bytes.
const (
	SzWord  = 8
	SzInt   = 8
	SzFloat = 8
	SzTime  = 8
	SzDur   = 8
	SzVec2  = 16
	SzVec3  = 24
	SzVec4  = 32
	SzVoid  = 0
)

// Kind classifies a type's storage word for the emitter.
type Kind int

const (
	KindNone Kind = iota
	KindInt
	KindFloat
	KindVec2
	KindVec3
	KindVec4
)

// ArrayInfo is the payload of an array type: the element type reached by one
// dereference chain and how many dimensions deep the array goes. Base is
// never itself an array; Depth >= 1.
type ArrayInfo struct {
	Base  *Type
	Depth int
}

// UGenInfo is stored with unit-generator types: the audio-rate hooks a
// native extension registered for the class. The checker forwards these to
// the VM untouched.
type UGenInfo struct {
	Tick    dl.TickFn
	NumIns  int
	NumOuts int
}

// Type describes one type known to the environment: a primitive, an object
// class, an array, or a function signature. Exactly one classification holds
// at a time; Array, Info, and FuncInfo are the per-kind payloads.
type Type struct {
	ID       TeType
	BaseName string
	// Parent is the single-inheritance parent, nil for primitives and the
	// universal object root.
	Parent *Type
	Size   int
	// Owner is the namespace the type was declared in (lookup back-ref).
	Owner *Namespace
	// Array is non-nil exactly when this is an array type.
	Array *ArrayInfo
	// ObjSize is the instance size of an object type.
	ObjSize int
	// Info holds an object type's members and methods.
	Info *Namespace
	// FuncInfo is set for function types.
	FuncInfo *Func
	UGen     *UGenInfo

	IsComplete bool
	HasCtor    bool
	HasDtor    bool
	Origin     Origin

	// Within-unit value dependencies of the class's top-level body.
	Depends DependencyGraph

	Doc      string
	Examples []string

	env *Env
}

// NewType returns a type bound to env. Most callers go through
// Context.NewType so the unit can release what it made.
func NewType(env *Env, id TeType, name string, parent *Type, size int) *Type {
	return &Type{ID: id, BaseName: name, Parent: parent, Size: size, env: env}
}

// Name returns the full display name, with a bracket pair per array
// dimension, e.g. "int[][]".
func (t *Type) Name() string {
	if t.Array == nil {
		return t.BaseName
	}
	var b strings.Builder
	b.WriteString(t.BaseName)
	for i := 0; i < t.Array.Depth; i++ {
		b.WriteString("[]")
	}
	return b.String()
}

// IsArray reports whether t is an array type.
func (t *Type) IsArray() bool { return t != nil && t.Array != nil }

// Equals reports type identity: the same registered type, or arrays over
// equal bases with matching depth.
func Equals(lhs, rhs *Type) bool {
	if lhs == nil || rhs == nil {
		return false
	}
	if lhs == rhs {
		return true
	}
	if lhs.Array != nil && rhs.Array != nil {
		return lhs.Array.Depth == rhs.Array.Depth && Equals(lhs.Array.Base, rhs.Array.Base)
	}
	return false
}

// Isa reports whether lhs is rhs or a descendant of rhs. null isa every
// object type.
func Isa(lhs, rhs *Type) bool {
	if lhs == nil || rhs == nil {
		return false
	}
	if Equals(lhs, rhs) {
		return true
	}
	if lhs.ID == TeNull && IsObj(rhs) {
		return true
	}
	for p := lhs.Parent; p != nil; p = p.Parent {
		if Equals(p, rhs) {
			return true
		}
	}
	return false
}

// FindCommonAncestor returns the nearest type both argument types descend
// from, or nil when they share no lineage.
func FindCommonAncestor(lhs, rhs *Type) *Type {
	if lhs == nil || rhs == nil {
		return nil
	}
	for a := lhs; a != nil; a = a.Parent {
		if Isa(rhs, a) {
			return a
		}
	}
	return nil
}

// IsObj reports whether t is an object or array type (reference storage).
func IsObj(t *Type) bool {
	if t == nil {
		return false
	}
	if t.Array != nil {
		return true
	}
	switch t.ID {
	case TeObject, TeString, TeUser, TeArray, TeNull, TeUGen, TeEvent, TeShred, TeIO, TeClass:
		return true
	}
	return false
}

// IsPrim reports whether t is a primitive (non-reference, non-function)
// type.
func IsPrim(t *Type) bool {
	if t == nil {
		return false
	}
	return !IsObj(t) && !IsFunc(t) && !IsVoid(t)
}

// IsFunc reports whether t is a function type.
func IsFunc(t *Type) bool { return t != nil && t.ID == TeFunction }

// IsVoid reports whether t is the void type.
func IsVoid(t *Type) bool { return t != nil && t.ID == TeVoid }

// KindOf returns the storage-word kind the emitter uses for t.
func KindOf(t *Type) Kind {
	if t == nil {
		return KindNone
	}
	switch {
	case IsVoid(t):
		return KindNone
	case t.ID == TeFloat || t.ID == TeTime || t.ID == TeDur:
		return KindFloat
	case t.ID == TeVec2:
		return KindVec2
	case t.ID == TeVec3:
		return KindVec3
	case t.ID == TeVec4:
		return KindVec4
	default:
		// ints, object references, functions: one word
		return KindInt
	}
}

// NextOffset returns the storage offset following a binding of type t placed
// at currentOffset, keeping every slot word-aligned.
func NextOffset(currentOffset int, t *Type) int {
	size := SzWord
	if t != nil {
		size = t.Size
	}
	if size == 0 {
		return currentOffset
	}
	if rem := size % SzWord; rem != 0 {
		size += SzWord - rem
	}
	return currentOffset + size
}

// NewArrayType returns the array type over base with the given dimension
// count. Types are cached per environment, so equal (base, depth) requests
// yield the same identity. Array-of-array bases are flattened into a deeper
// array over the underlying element type.
func NewArrayType(env *Env, base *Type, depth int) *Type {
	if env == nil || base == nil || depth < 1 {
		return nil
	}
	if base.Array != nil {
		depth += base.Array.Depth
		base = base.Array.Base
	}
	key := base.Name() + mangleSeparator + strings.Repeat("[]", depth)
	if t, ok := env.arrayTypes[key]; ok {
		return t
	}
	t := NewType(env, TeArray, base.BaseName, env.TArray, SzWord)
	t.Array = &ArrayInfo{Base: base, Depth: depth}
	t.Owner = env.Global()
	t.Info = env.TArray.Info
	t.IsComplete = true
	t.Origin = OriginGenerated
	env.arrayTypes[key] = t
	return t
}
