package typecheck

import "fmt"

// installBuiltins registers the engine's built-in types and values into the
// global namespace. Called once from Init; the additions sit in the global
// commit buffer until Init commits them.
func (env *Env) installBuiltins() error {
	g := env.globalNspc

	newBuiltin := func(id TeType, name string, parent *Type, size int) *Type {
		t := NewType(env, id, name, parent, size)
		t.Origin = OriginBuiltin
		t.IsComplete = true
		t.Owner = g
		return t
	}
	newObjBuiltin := func(id TeType, name string, parent *Type) *Type {
		t := newBuiltin(id, name, parent, SzWord)
		t.Info = NewNamespace(name)
		t.Info.Parent = g
		t.Info.ClassOf = t
		return t
	}

	// Primitives and special types.
	env.TVoid = newBuiltin(TeVoid, "void", nil, SzVoid)
	env.TAuto = newBuiltin(TeAuto, "auto", nil, SzVoid)
	env.TInt = newBuiltin(TeInt, "int", nil, SzInt)
	env.TFloat = newBuiltin(TeFloat, "float", nil, SzFloat)
	env.TTime = newBuiltin(TeTime, "time", nil, SzTime)
	env.TDur = newBuiltin(TeDur, "dur", nil, SzDur)
	env.TVec2 = newBuiltin(TeVec2, "vec2", nil, SzVec2)
	env.TVec3 = newBuiltin(TeVec3, "vec3", nil, SzVec3)
	env.TVec4 = newBuiltin(TeVec4, "vec4", nil, SzVec4)

	// Object hierarchy.
	env.TObject = newObjBuiltin(TeObject, "Object", nil)
	env.TString = newObjBuiltin(TeString, "string", env.TObject)
	env.TArray = newObjBuiltin(TeArray, "@array", env.TObject)
	env.TFunction = newObjBuiltin(TeFunction, "@function", env.TObject)
	env.TNull = newBuiltin(TeNull, "@null", nil, SzWord)
	env.TEvent = newObjBuiltin(TeEvent, "Event", env.TObject)
	env.TUGen = newObjBuiltin(TeUGen, "UGen", env.TObject)
	env.TShred = newObjBuiltin(TeShred, "Shred", env.TObject)
	env.TIO = newObjBuiltin(TeIO, "IO", env.TObject)

	for _, t := range []*Type{
		env.TVoid, env.TAuto, env.TInt, env.TFloat, env.TTime, env.TDur,
		env.TVec2, env.TVec3, env.TVec4, env.TObject, env.TString,
		env.TArray, env.TFunction, env.TNull, env.TEvent, env.TUGen,
		env.TShred, env.TIO,
	} {
		if _, dup := g.Types.Lookup(t.BaseName, -1); dup {
			return fmt.Errorf("typecheck: duplicate builtin type %q", t.BaseName)
		}
		g.Types.Add(t.BaseName, t)
	}

	// Built-in object methods.
	env.addNativeMethod(env.TObject, "toString", env.TString)
	env.addNativeMethod(env.TEvent, "signal", env.TVoid)
	env.addNativeMethod(env.TEvent, "broadcast", env.TVoid)
	env.addNativeMethod(env.TUGen, "gain", env.TFloat, env.TFloat)
	env.addNativeMethod(env.TUGen, "gain", env.TFloat)
	env.addNativeMethod(env.TUGen, "channels", env.TInt)
	env.addNativeMethod(env.TShred, "id", env.TInt)
	env.addNativeMethod(env.TArray, "size", env.TInt)
	env.addNativeMethod(env.TArray, "cap", env.TInt)

	// Built-in global values: the audio endpoints and the session clock.
	dac := NewValue(env.TUGen, "dac")
	adc := NewValue(env.TUGen, "adc")
	blackhole := NewValue(env.TUGen, "blackhole")
	now := NewValue(env.TTime, "now")
	for _, v := range []*Value{dac, adc, blackhole, now} {
		v.IsGlobal = true
		v.IsConst = true
		v.Owner = g
		g.Values.Add(v.Name, v)
	}

	return nil
}

// addNativeMethod registers a built-in method on a class; its code handle is
// filled in by the VM at boot.
func (env *Env) addNativeMethod(class *Type, name string, ret *Type, args ...*Type) {
	info := class.Info
	fn := NewFunc()
	fn.BaseName = name
	fn.RetType = ret
	fn.ArgTypes = args
	fn.IsMember = true
	fn.VTIndex = len(info.VTable)
	info.VTable = append(info.VTable, fn)

	overload := 0
	if head, ok := info.LookupValue(name, 0, true); ok && head.FuncRef != nil {
		overload = head.FuncNumOverloads
		head.FuncNumOverloads++
		tail := head.FuncRef
		for tail.Next != nil {
			tail = tail.Next
		}
		tail.Next = fn
	}
	fn.Name = mangleFuncName(name, overload, class.BaseName)

	v := NewValue(env.TFunction, fn.Name)
	v.IsMember = true
	v.Owner = info
	v.OwnerClass = class
	v.FuncRef = fn
	fn.ValueRef = v
	info.Values.Add(fn.Name, v)
	info.Funcs.Add(fn.Name, fn)

	if overload == 0 {
		base := NewValue(env.TFunction, name)
		base.IsMember = true
		base.Owner = info
		base.OwnerClass = class
		base.FuncRef = fn
		base.FuncNumOverloads = 1
		info.Values.Add(name, base)
		info.Funcs.Add(name, fn)
	}

	// Members land in the class namespace's commit buffer.
	info.Commit()
}

// installReserved fills the reserved-word tables.
func (env *Env) installReserved() {
	for _, w := range []string{
		"if", "else", "while", "until", "for", "repeat", "break",
		"continue", "return", "fun", "function", "new", "class", "extends",
		"public", "static", "const", "global", "spork",
	} {
		env.KeyWords[w] = true
	}
	for _, w := range []string{
		"int", "float", "time", "dur", "void", "auto", "vec2", "vec3",
		"vec4", "same",
	} {
		env.KeyTypes[w] = true
	}
	for _, w := range []string{
		"now", "me", "true", "false", "maybe", "null", "NULL", "pi",
		"dac", "adc", "blackhole",
	} {
		env.KeyValues[w] = true
	}
}
