// Package luavm runs Lua 5.1 effect scripts on gopher-lua.
package luavm

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/cryguy/livefx/internal/core"
	lua "github.com/yuin/gopher-lua"
)

// luaRuntime implements core.ScriptRuntime on a single LState.
type luaRuntime struct {
	state *lua.LState
}

var _ core.ScriptRuntime = (*luaRuntime)(nil)

// New creates a Lua state with the base, table, string and math libraries.
// io and os are left out; scripts only talk to the host through bindings.
func New(core.Config) (core.ScriptRuntime, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("opening lua library %s: %w", lib.name, err)
		}
	}
	return &luaRuntime{state: L}, nil
}

func (r *luaRuntime) Language() core.Language { return core.LangLua }

// Exec loads source as a chunk and runs it. gopher-lua reports parse and
// compile failures from Load as ApiErrorSyntax.
func (r *luaRuntime) Exec(name, source string) error {
	L := r.state
	fn, err := L.Load(strings.NewReader(source), name)
	if err != nil {
		return &core.CompileError{Path: name, Err: err}
	}
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		return &core.RuntimeError{Path: name, Phase: "load", Err: cleanError(err)}
	}
	L.SetTop(0)
	return nil
}

// cleanError drops the stack traceback gopher-lua appends to runtime errors.
func cleanError(err error) error {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return errors.New(apiErr.Object.String())
	}
	return err
}

// RegisterFunc registers a Go function as a global Lua function. Argument
// and return marshaling mirrors the JS runtimes: int, int64, float64,
// string and bool arguments; a trailing error result raises a Lua error.
func (r *luaRuntime) RegisterFunc(name string, fn any) error {
	fnVal := reflect.ValueOf(fn)
	fnType := fnVal.Type()
	if fnType.Kind() != reflect.Func {
		return fmt.Errorf("RegisterFunc: expected function, got %T", fn)
	}
	errType := reflect.TypeOf((*error)(nil)).Elem()

	r.state.SetGlobal(name, r.state.NewFunction(func(L *lua.LState) int {
		goArgs := make([]reflect.Value, fnType.NumIn())
		for i := range goArgs {
			goArgs[i] = luaToGoArg(L, i+1, fnType.In(i))
		}
		results := fnVal.Call(goArgs)

		n := 0
		for i, res := range results {
			if fnType.Out(i) == errType {
				if !res.IsNil() {
					L.RaiseError("%s", res.Interface().(error).Error())
				}
				continue
			}
			L.Push(goToLuaValue(res))
			n++
		}
		return n
	}))
	return nil
}

func luaToGoArg(L *lua.LState, n int, t reflect.Type) reflect.Value {
	switch t.Kind() {
	case reflect.Int:
		return reflect.ValueOf(L.CheckInt(n))
	case reflect.Int64:
		return reflect.ValueOf(L.CheckInt64(n))
	case reflect.Float64:
		return reflect.ValueOf(float64(L.CheckNumber(n)))
	case reflect.String:
		return reflect.ValueOf(L.CheckString(n))
	case reflect.Bool:
		return reflect.ValueOf(L.ToBool(n))
	default:
		return reflect.Zero(t)
	}
}

func goToLuaValue(v reflect.Value) lua.LValue {
	switch v.Kind() {
	case reflect.Int, reflect.Int32, reflect.Int64:
		return lua.LNumber(v.Int())
	case reflect.Uint, reflect.Uint32, reflect.Uint64:
		return lua.LNumber(v.Uint())
	case reflect.Float32, reflect.Float64:
		return lua.LNumber(v.Float())
	case reflect.String:
		return lua.LString(v.String())
	case reflect.Bool:
		return lua.LBool(v.Bool())
	default:
		return lua.LNil
	}
}

// SetGlobal sets a global variable.
func (r *luaRuntime) SetGlobal(name string, value any) error {
	var lv lua.LValue
	switch v := value.(type) {
	case nil:
		lv = lua.LNil
	case int:
		lv = lua.LNumber(v)
	case int64:
		lv = lua.LNumber(v)
	case uint64:
		lv = lua.LNumber(v)
	case float64:
		lv = lua.LNumber(v)
	case string:
		lv = lua.LString(v)
	case bool:
		lv = lua.LBool(v)
	default:
		return fmt.Errorf("setting %q: unsupported type %T", name, value)
	}
	r.state.SetGlobal(name, lv)
	return nil
}

func (r *luaRuntime) HasFunction(name string) (bool, error) {
	return r.state.GetGlobal(name).Type() == lua.LTFunction, nil
}

// Call invokes a global function in protected mode.
func (r *luaRuntime) Call(name string, args ...any) error {
	L := r.state
	fn := L.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return &core.RuntimeError{Phase: name, Err: fmt.Errorf("%s is not a function", name)}
	}
	largs := make([]lua.LValue, len(args))
	for i, a := range args {
		largs[i] = goToLuaValue(reflect.ValueOf(a))
	}
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, largs...); err != nil {
		return &core.RuntimeError{Phase: name, Err: cleanError(err)}
	}
	return nil
}

func (r *luaRuntime) Close() {
	r.state.Close()
}
