package typecheck

import (
	"fmt"

	"tempo/compiler-go/pkg/dl"
)

// The import protocol: native extensions describe their classes through the
// dl package, and these calls translate the descriptors into registered
// types. Calls are bracketed: ImportClassBegin (or ImportUGenBegin), then
// member and function imports, then ImportClassEnd. Begins may nest for
// inner classes.

// importTarget is the namespace the next ImportClassBegin registers into:
// the innermost open class, or the global namespace.
func (env *Env) importTarget() *Namespace {
	if len(env.importStack) > 0 {
		return env.importStack[len(env.importStack)-1].Info
	}
	return env.globalNspc
}

// importTop returns the innermost open class.
func (env *Env) importTop() (*Type, error) {
	if len(env.importStack) == 0 {
		return nil, fmt.Errorf("typecheck: import: no class is open")
	}
	return env.importStack[len(env.importStack)-1], nil
}

// resolveImportType resolves a descriptor's type name, understanding
// trailing "[]" pairs, against the global hierarchy.
func (env *Env) resolveImportType(name string) (*Type, error) {
	saved := env.Curr
	env.Curr = env.importTarget()
	t, ok := env.FindType(name)
	env.Curr = saved
	if !ok {
		return nil, fmt.Errorf("typecheck: import: undefined type %q", name)
	}
	return t, nil
}

// ImportClassBegin opens a native object class for member registration.
func (env *Env) ImportClassBegin(name, parentName string, ctor dl.CtorFn, dtor dl.DtorFn, doc string) (*Type, error) {
	if name == "" {
		return nil, fmt.Errorf("typecheck: import: class must have a name")
	}
	target := env.importTarget()
	if _, dup := target.Types.Lookup(name, -1); dup {
		return nil, fmt.Errorf("typecheck: import: type %q is already defined", name)
	}

	parent := env.TObject
	if parentName != "" {
		p, err := env.resolveImportType(parentName)
		if err != nil {
			return nil, err
		}
		if !IsObj(p) {
			return nil, fmt.Errorf("typecheck: import: class %q cannot extend non-object type %q", name, p.Name())
		}
		parent = p
	}

	t := NewType(env, TeUser, name, parent, SzWord)
	t.Origin = OriginExtension
	t.Owner = target
	t.ObjSize = parent.ObjSize
	t.Doc = doc
	t.HasCtor = ctor != nil
	t.HasDtor = dtor != nil
	t.Info = NewNamespace(name)
	t.Info.Parent = target
	t.Info.ClassOf = t
	t.Info.PreCtor = ctor
	t.Info.Dtor = dtor
	if parent.Info != nil {
		t.Info.VTable = append(t.Info.VTable, parent.Info.VTable...)
	}
	target.Types.Add(name, t)

	env.importStack = append(env.importStack, t)
	return t, nil
}

// ImportUGenBegin opens a native unit-generator class. The parent defaults
// to UGen; tick is the audio-rate hook the VM drives.
func (env *Env) ImportUGenBegin(name, parentName, doc string, ctor dl.CtorFn, dtor dl.DtorFn, tick dl.TickFn, numIns, numOuts int) (*Type, error) {
	if parentName == "" {
		parentName = env.TUGen.BaseName
	}
	parent, err := env.resolveImportType(parentName)
	if err != nil {
		return nil, err
	}
	if !Isa(parent, env.TUGen) {
		return nil, fmt.Errorf("typecheck: import: unit generator %q must extend UGen (got %q)", name, parentName)
	}
	t, err := env.ImportClassBegin(name, parentName, ctor, dtor, doc)
	if err != nil {
		return nil, err
	}
	t.UGen = &UGenInfo{Tick: tick, NumIns: numIns, NumOuts: numOuts}
	return t, nil
}

// ImportMFun registers a native member function on the open class.
func (env *Env) ImportMFun(f *dl.Func) error {
	if f == nil || f.MFn == nil {
		return fmt.Errorf("typecheck: import: member function needs an MFn hook")
	}
	return env.importFunc(f, false, f.MFn)
}

// ImportSFun registers a native static function on the open class.
func (env *Env) ImportSFun(f *dl.Func) error {
	if f == nil || f.SFn == nil {
		return fmt.Errorf("typecheck: import: static function needs an SFn hook")
	}
	return env.importFunc(f, true, f.SFn)
}

func (env *Env) importFunc(f *dl.Func, static bool, code Code) error {
	t, err := env.importTop()
	if err != nil {
		return err
	}
	ret, err := env.resolveImportType(f.RetType)
	if err != nil {
		return fmt.Errorf("typecheck: import: function %q: %w", f.Name, err)
	}
	argTypes := make([]*Type, len(f.Args))
	argNames := make([]string, len(f.Args))
	for i, arg := range f.Args {
		at, err := env.resolveImportType(arg.TypeName)
		if err != nil {
			return fmt.Errorf("typecheck: import: argument %q of function %q: %w", arg.Name, f.Name, err)
		}
		if IsVoid(at) {
			return fmt.Errorf("typecheck: import: argument %q of function %q cannot be void", arg.Name, f.Name)
		}
		argTypes[i] = at
		argNames[i] = arg.Name
	}

	info := t.Info
	overload := 0
	var head *Value
	if existing, ok := info.LookupValue(f.Name, 0, true); ok {
		if existing.FuncRef == nil {
			return fmt.Errorf("typecheck: import: function %q conflicts with member variable %q of %q", f.Name, f.Name, t.Name())
		}
		for g := existing.FuncRef; g != nil; g = g.Next {
			if sameArgTypes(g.ArgTypes, argTypes) {
				return fmt.Errorf("typecheck: import: function %q of %q is already defined with this argument list", f.Name, t.Name())
			}
		}
		head = existing
		overload = existing.FuncNumOverloads
	}

	fn := NewFunc()
	fn.BaseName = f.Name
	fn.Name = mangleFuncName(f.Name, overload, t.BaseName)
	fn.RetType = ret
	fn.ArgTypes = argTypes
	fn.ArgNames = argNames
	fn.IsMember = !static
	fn.IsStatic = static
	fn.Code = code
	fn.Doc = f.Doc
	if fn.IsMember {
		fn.VTIndex = len(info.VTable)
		info.VTable = append(info.VTable, fn)
	}

	v := NewValue(env.TFunction, fn.Name)
	v.IsMember = fn.IsMember
	v.IsStatic = static
	v.IsDeclChecked = true
	v.Owner = info
	v.OwnerClass = t
	v.FuncRef = fn
	v.Doc = f.Doc
	fn.ValueRef = v
	info.Values.Add(fn.Name, v)
	info.Funcs.Add(fn.Name, fn)

	if head != nil {
		head.FuncNumOverloads++
		tail := head.FuncRef
		for tail.Next != nil {
			tail = tail.Next
		}
		tail.Next = fn
	} else {
		base := NewValue(env.TFunction, f.Name)
		base.IsMember = fn.IsMember
		base.IsStatic = static
		base.IsDeclChecked = true
		base.Owner = info
		base.OwnerClass = t
		base.FuncRef = fn
		base.FuncNumOverloads = 1
		base.Doc = f.Doc
		info.Values.Add(f.Name, base)
		info.Funcs.Add(f.Name, fn)
	}
	return nil
}

// ImportMVar registers a native member variable on the open class and
// returns its instance offset, which the extension captures for direct
// access from its hooks.
func (env *Env) ImportMVar(typeName, name string, isConst bool, doc string) (int, error) {
	t, err := env.importTop()
	if err != nil {
		return 0, err
	}
	vt, err := env.resolveImportType(typeName)
	if err != nil {
		return 0, fmt.Errorf("typecheck: import: member variable %q: %w", name, err)
	}
	if IsVoid(vt) {
		return 0, fmt.Errorf("typecheck: import: member variable %q cannot be void", name)
	}
	if _, dup := t.Info.LookupValue(name, 0, true); dup {
		return 0, fmt.Errorf("typecheck: import: %q is already a member of %q", name, t.Name())
	}

	v := NewValue(vt, name)
	v.IsMember = true
	v.IsConst = isConst
	v.IsDeclChecked = true
	v.Owner = t.Info
	v.OwnerClass = t
	v.Offset = t.ObjSize
	v.Doc = doc
	t.ObjSize = NextOffset(t.ObjSize, vt)
	t.Info.Values.Add(name, v)
	return v.Offset, nil
}

// ImportSVar registers a native static variable on the open class. addr is
// the extension's backing storage.
func (env *Env) ImportSVar(typeName, name string, isConst bool, addr any, doc string) error {
	t, err := env.importTop()
	if err != nil {
		return err
	}
	vt, err := env.resolveImportType(typeName)
	if err != nil {
		return fmt.Errorf("typecheck: import: static variable %q: %w", name, err)
	}
	if IsVoid(vt) {
		return fmt.Errorf("typecheck: import: static variable %q cannot be void", name)
	}
	if _, dup := t.Info.LookupValue(name, 0, true); dup {
		return fmt.Errorf("typecheck: import: %q is already a member of %q", name, t.Name())
	}

	v := NewValue(vt, name)
	v.IsStatic = true
	v.IsConst = isConst
	v.IsDeclChecked = true
	v.Owner = t.Info
	v.OwnerClass = t
	v.Addr = addr
	v.Offset = t.Info.ClassDataSize
	v.Doc = doc
	t.Info.ClassDataSize = NextOffset(t.Info.ClassDataSize, vt)
	t.Info.Values.Add(name, v)
	return nil
}

// ImportUGenCtrl registers a unit-generator control parameter as accessor
// methods: a setter taking and returning the parameter's type when the
// control is writable, and a zero-argument getter when it is readable.
func (env *Env) ImportUGenCtrl(ctrl dl.Ctrl) error {
	t, err := env.importTop()
	if err != nil {
		return err
	}
	if t.UGen == nil {
		return fmt.Errorf("typecheck: import: %q is not a unit generator; controls need ImportUGenBegin", t.Name())
	}
	if !ctrl.Write && !ctrl.Read {
		return fmt.Errorf("typecheck: import: control %q of %q is neither readable nor writable", ctrl.Name, t.Name())
	}
	if ctrl.Write {
		err := env.importFunc(&dl.Func{
			Name:    ctrl.Name,
			RetType: ctrl.TypeName,
			Args:    []dl.Arg{{TypeName: ctrl.TypeName, Name: "value"}},
		}, false, ctrl.Fn)
		if err != nil {
			return err
		}
	}
	if ctrl.Read {
		err := env.importFunc(&dl.Func{
			Name:    ctrl.Name,
			RetType: ctrl.TypeName,
		}, false, ctrl.Fn)
		if err != nil {
			return err
		}
	}
	return nil
}

// ImportAddEx attaches an example snippet to the open class's
// documentation.
func (env *Env) ImportAddEx(example string) error {
	t, err := env.importTop()
	if err != nil {
		return err
	}
	t.Examples = append(t.Examples, example)
	return nil
}

// ImportClassEnd closes the open class, marking it complete and committing
// its members.
func (env *Env) ImportClassEnd() error {
	t, err := env.importTop()
	if err != nil {
		return err
	}
	env.importStack = env.importStack[:len(env.importStack)-1]
	t.IsComplete = true
	t.Info.Commit()
	return nil
}

// AddDL queries an extension and imports everything it registers. A failed
// import leaves any earlier classes from the same extension in place;
// extension sets are expected to be loaded before user code, where a
// partial load is a fatal session error anyway.
func (env *Env) AddDL(d *dl.DLL) error {
	if d == nil {
		return fmt.Errorf("typecheck: import: nil extension")
	}
	q, err := d.Describe()
	if err != nil {
		return fmt.Errorf("typecheck: import %s: %w", d.Name, err)
	}
	for _, class := range q.Classes {
		if err := env.AddClassFromDL(class); err != nil {
			return fmt.Errorf("typecheck: import %s: %w", d.Name, err)
		}
	}
	for former, latter := range q.Deprecations {
		env.RegisterDeprecate(former, latter)
	}
	env.globalNspc.Commit()
	return nil
}

// AddDLByName imports an extension registered in the process-wide
// registry under the given name.
func (env *Env) AddDLByName(name string) error {
	ext, ok := dl.Lookup(name)
	if !ok {
		return fmt.Errorf("typecheck: import: extension %q is not registered", name)
	}
	return env.AddDL(ext)
}

// AddClassFromDL imports one class descriptor through the begin/end
// protocol.
func (env *Env) AddClassFromDL(class *dl.Class) error {
	if class == nil {
		return fmt.Errorf("typecheck: import: nil class")
	}
	var err error
	if class.Tick != nil {
		_, err = env.ImportUGenBegin(class.Name, class.Parent, class.Doc, class.Ctor, class.Dtor, class.Tick, class.NumIns, class.NumOuts)
	} else {
		_, err = env.ImportClassBegin(class.Name, class.Parent, class.Ctor, class.Dtor, class.Doc)
	}
	if err != nil {
		return err
	}
	for _, ctrl := range class.Ctrls {
		if err := env.ImportUGenCtrl(ctrl); err != nil {
			return err
		}
	}
	for _, f := range class.MFuns {
		if err := env.ImportMFun(f); err != nil {
			return err
		}
	}
	for _, f := range class.SFuns {
		if err := env.ImportSFun(f); err != nil {
			return err
		}
	}
	for _, v := range class.MVars {
		if _, err := env.ImportMVar(v.TypeName, v.Name, v.IsConst, v.Doc); err != nil {
			return err
		}
	}
	for _, v := range class.SVars {
		if err := env.ImportSVar(v.TypeName, v.Name, v.IsConst, v.Addr, v.Doc); err != nil {
			return err
		}
	}
	for _, ex := range class.Examples {
		if err := env.ImportAddEx(ex); err != nil {
			return err
		}
	}
	return env.ImportClassEnd()
}
