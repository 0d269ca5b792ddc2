package typecheck

import (
	"fmt"
	"strings"
)

// Deprecation handling levels.
const (
	DeprecateStop = iota
	DeprecateWarn
	DeprecateIgnore
)

// Carrier binds one session's compiler halves together: the type
// environment plus opaque handles to the VM and the code emitter.
type Carrier struct {
	Env     *Env
	VM      any
	Emitter any
}

// Env is one session's type environment: the global and user namespaces,
// the navigation state of the check in progress, the registry of built-in
// types, and the live contexts. All checking calls on one Env must be
// serialized by the host; the unit of atomicity is a context's
// commit/rollback, not individual table mutations.
type Env struct {
	carrier *Carrier

	globalNspc    *Namespace
	globalContext Context
	userNspc      *Namespace

	// Navigation state while checking.
	NspcStack  []*Namespace
	Curr       *Namespace
	ClassStack []*Type
	ClassDef   *Type
	Func       *Func
	ClassScope int

	// Live contexts, most recently loaded last.
	Contexts []*Context
	Context  *Context

	// Reserved words.
	KeyWords  map[string]bool
	KeyTypes  map[string]bool
	KeyValues map[string]bool

	// Deprecated names and how strictly to treat them.
	Deprecated     map[string]string
	DeprecateLevel int

	arrayTypes map[string]*Type

	// Import protocol state.
	importStack []*Type

	// Built-in type handles.
	TVoid     *Type
	TAuto     *Type
	TInt      *Type
	TFloat    *Type
	TTime     *Type
	TDur      *Type
	TString   *Type
	TNull     *Type
	TFunction *Type
	TObject   *Type
	TArray    *Type
	TEvent    *Type
	TUGen     *Type
	TShred    *Type
	TIO       *Type
	TVec2     *Type
	TVec3     *Type
	TVec4     *Type
}

// Init creates a session's type environment, installs the built-in types
// and reserved words, and binds the environment into the carrier.
func Init(carrier *Carrier) (*Env, error) {
	if carrier == nil {
		return nil, fmt.Errorf("typecheck: init requires a carrier")
	}
	env := &Env{
		carrier:        carrier,
		KeyWords:       make(map[string]bool),
		KeyTypes:       make(map[string]bool),
		KeyValues:      make(map[string]bool),
		Deprecated:     make(map[string]string),
		DeprecateLevel: DeprecateWarn,
		arrayTypes:     make(map[string]*Type),
	}
	env.globalNspc = NewNamespace("global")
	env.globalContext = Context{
		Filename: "@global",
		Nspc:     env.globalNspc,
	}
	env.Context = &env.globalContext
	env.Curr = env.globalNspc
	env.NspcStack = []*Namespace{env.globalNspc}

	if err := env.installBuiltins(); err != nil {
		return nil, err
	}
	env.installReserved()

	// Builtins land in the global commit buffer like any other base-frame
	// addition; make them visible now.
	env.globalNspc.Commit()

	carrier.Env = env
	return env, nil
}

// Shutdown tears down the carrier's environment. The environment keeps no
// external resources; this unbinds it and drops its contexts.
func Shutdown(carrier *Carrier) {
	if carrier == nil || carrier.Env == nil {
		return
	}
	env := carrier.Env
	for _, ctx := range env.Contexts {
		ctx.Release()
	}
	env.Contexts = nil
	env.Context = nil
	carrier.Env = nil
}

// VM returns the carrier's VM handle.
func (env *Env) VM() any { return env.carrier.VM }

// Emitter returns the carrier's code-generator handle.
func (env *Env) Emitter() any { return env.carrier.Emitter }

// Global returns the global namespace.
func (env *Env) Global() *Namespace { return env.globalNspc }

// User returns the user namespace if one is loaded, else the global
// namespace.
func (env *Env) User() *Namespace {
	if env.userNspc != nil {
		return env.userNspc
	}
	return env.globalNspc
}

// IsGlobal reports whether the current context is the built-in global
// context rather than a loaded unit.
func (env *Env) IsGlobal() bool { return env.Context == &env.globalContext }

// LoadUserNamespace layers a secondary top-level scope over the global one,
// for live interactive sessions. Idempotent.
func (env *Env) LoadUserNamespace() {
	if env.userNspc != nil {
		return
	}
	env.userNspc = NewNamespace("user")
	env.userNspc.Parent = env.globalNspc
}

// ClearUserNamespace drops every binding the user namespace accumulated and
// starts a fresh one.
func (env *Env) ClearUserNamespace() {
	if env.userNspc == nil {
		return
	}
	env.userNspc = nil
	env.LoadUserNamespace()
}

// Reset restores the environment's navigation state between units.
func (env *Env) Reset() {
	env.NspcStack = []*Namespace{env.globalNspc}
	env.Curr = env.User()
	env.ClassStack = nil
	env.ClassDef = nil
	env.Func = nil
	env.ClassScope = 0
}

// NspcTop returns the namespace at the top of the namespace stack.
func (env *Env) NspcTop() *Namespace {
	if len(env.NspcStack) == 0 {
		return env.globalNspc
	}
	return env.NspcStack[len(env.NspcStack)-1]
}

// ClassTop returns the class at the top of the class stack, nil outside any
// class definition.
func (env *Env) ClassTop() *Type {
	if len(env.ClassStack) == 0 {
		return nil
	}
	return env.ClassStack[len(env.ClassStack)-1]
}

// pushClass enters a class definition's scope.
func (env *Env) pushClass(t *Type) {
	env.ClassStack = append(env.ClassStack, env.ClassDef)
	env.ClassDef = t
	env.NspcStack = append(env.NspcStack, env.Curr)
	env.Curr = t.Info
	env.ClassScope++
}

// popClass leaves the innermost class definition's scope.
func (env *Env) popClass() {
	if len(env.ClassStack) == 0 {
		return
	}
	env.ClassDef = env.ClassStack[len(env.ClassStack)-1]
	env.ClassStack = env.ClassStack[:len(env.ClassStack)-1]
	env.Curr = env.NspcStack[len(env.NspcStack)-1]
	env.NspcStack = env.NspcStack[:len(env.NspcStack)-1]
	env.ClassScope--
}

// CheckReserved reports whether name is reserved; reserved names cannot be
// redeclared.
func (env *Env) CheckReserved(name string) bool {
	return env.KeyWords[name] || env.KeyTypes[name] || env.KeyValues[name]
}

// EnableReserved toggles a reserved word, for special cases where a
// built-in name must coexist with a user binding. Use with care.
func (env *Env) EnableReserved(name string, reserved bool) {
	if reserved {
		env.KeyValues[name] = true
		return
	}
	delete(env.KeyWords, name)
	delete(env.KeyTypes, name)
	delete(env.KeyValues, name)
}

// RegisterDeprecate maps a retired name to its replacement.
func (env *Env) RegisterDeprecate(former, latter string) {
	env.Deprecated[former] = latter
}

// GetDeprecate returns the replacement for a retired name.
func (env *Env) GetDeprecate(former string) (string, bool) {
	latter, ok := env.Deprecated[former]
	return latter, ok
}

// FindType resolves a type by display name, understanding trailing "[]"
// pairs, e.g. "float[][]". The search climbs from the current namespace.
func (env *Env) FindType(name string) (*Type, bool) {
	base := name
	depth := 0
	for strings.HasSuffix(base, "[]") {
		base = base[:len(base)-2]
		depth++
	}
	where := env.Curr
	if where == nil {
		where = env.User()
	}
	t, ok := where.LookupType(base, 1, false)
	if !ok {
		return nil, false
	}
	if depth > 0 {
		return NewArrayType(env, t, depth), true
	}
	return t, true
}

// FindValue resolves a member value on a type, walking the parent chain.
func FindValue(t *Type, name string) (*Value, bool) {
	for ; t != nil; t = t.Parent {
		if t.Info == nil {
			continue
		}
		if v, ok := t.Info.LookupValue(name, 0, true); ok {
			return v, true
		}
	}
	return nil, false
}
