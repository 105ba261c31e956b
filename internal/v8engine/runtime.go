//go:build v8

// Package v8engine runs effect scripts on V8. It is selected with -tags v8.
package v8engine

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/cryguy/livefx/internal/core"
	v8 "github.com/tommie/v8go"
)

// v8Runtime implements core.ScriptRuntime for the V8 engine.
type v8Runtime struct {
	iso *v8.Isolate
	ctx *v8.Context
}

var _ core.ScriptRuntime = (*v8Runtime)(nil)

// New creates an isolate and context honouring cfg.MemoryLimitMB.
func New(cfg core.Config) (core.ScriptRuntime, error) {
	var iso *v8.Isolate
	if cfg.MemoryLimitMB > 0 {
		heapSize := uint64(cfg.MemoryLimitMB) * 1024 * 1024
		iso = v8.NewIsolate(v8.WithResourceConstraints(heapSize/2, heapSize))
	} else {
		iso = v8.NewIsolate()
	}
	return &v8Runtime{iso: iso, ctx: v8.NewContext(iso)}, nil
}

func (r *v8Runtime) Language() core.Language { return core.LangJS }

// Exec compiles source separately from running it, so parse failures are
// reported as compile errors without any text matching.
func (r *v8Runtime) Exec(name, source string) error {
	script, err := r.iso.CompileUnboundScript(source, name, v8.CompileOptions{})
	if err != nil {
		return &core.CompileError{Path: name, Err: err}
	}
	if _, err := script.Run(r.ctx); err != nil {
		return &core.RuntimeError{Path: name, Phase: "load", Err: err}
	}
	return nil
}

// RegisterFunc registers a Go function as a global JavaScript function.
// Uses reflection to inspect the Go function's signature and creates a
// V8 FunctionTemplate that marshals arguments and return values.
//
// Supported Go function signatures:
//   - func(args...) — no return, JS function returns undefined
//   - func(args...) T — single return, JS function returns T
//   - func(args...) (T, error) — on success returns T, on error throws
//
// Supported argument types: string, int, int64, float64, bool
func (r *v8Runtime) RegisterFunc(name string, fn any) error {
	fnVal := reflect.ValueOf(fn)
	fnType := fnVal.Type()

	if fnType.Kind() != reflect.Func {
		return fmt.Errorf("RegisterFunc: expected function, got %T", fn)
	}

	tmpl := v8.NewFunctionTemplate(r.iso, func(info *v8.FunctionCallbackInfo) *v8.Value {
		args := info.Args()

		if len(args) < fnType.NumIn() {
			msg := fmt.Sprintf("%s requires at least %d argument(s), got %d", name, fnType.NumIn(), len(args))
			jsMsg, _ := v8.NewValue(r.iso, msg)
			r.iso.ThrowException(jsMsg)
			return nil
		}

		goArgs := make([]reflect.Value, fnType.NumIn())
		for i := 0; i < fnType.NumIn(); i++ {
			goArgs[i] = jsToGoArg(args[i], fnType.In(i))
		}

		results := fnVal.Call(goArgs)

		switch fnType.NumOut() {
		case 0:
			return nil
		case 1:
			return goToJSValue(r.iso, results[0])
		case 2:
			errVal := results[1]
			if !errVal.IsNil() {
				msg := fmt.Sprintf("calling %s: %s", name, errVal.Interface().(error).Error())
				jsMsg, _ := v8.NewValue(r.iso, msg)
				r.iso.ThrowException(jsMsg)
				return nil
			}
			return goToJSValue(r.iso, results[0])
		default:
			return nil
		}
	})

	return r.ctx.Global().Set(name, tmpl.GetFunction(r.ctx))
}

// SetGlobal sets a global variable on the JS context.
func (r *v8Runtime) SetGlobal(name string, value any) error {
	jsVal, err := goAnyToJSValue(r.iso, core.NormalizeInt(value))
	if err != nil {
		return fmt.Errorf("converting value for %q: %w", name, err)
	}
	return r.ctx.Global().Set(name, jsVal)
}

func (r *v8Runtime) HasFunction(name string) (bool, error) {
	if !core.ValidIdent(name) {
		return false, fmt.Errorf("invalid function name %q", name)
	}
	val, err := r.ctx.RunScript(fmt.Sprintf("typeof %s === 'function'", name), "has_function.js")
	if err != nil {
		return false, err
	}
	return val != nil && val.Boolean(), nil
}

func (r *v8Runtime) Call(name string, args ...any) error {
	if !core.ValidIdent(name) {
		return fmt.Errorf("invalid function name %q", name)
	}
	argList, err := core.JSArgs(args...)
	if err != nil {
		return fmt.Errorf("calling %s: %w", name, err)
	}
	if _, err := r.ctx.RunScript(fmt.Sprintf("void %s(%s);", name, argList), name+".js"); err != nil {
		return &core.RuntimeError{Phase: name, Err: err}
	}
	return nil
}

func (r *v8Runtime) Close() {
	r.ctx.Close()
	r.iso.Dispose()
}

// jsToGoArg converts a V8 value to a Go reflect.Value of the expected type.
func jsToGoArg(val *v8.Value, targetType reflect.Type) reflect.Value {
	switch targetType.Kind() {
	case reflect.String:
		return reflect.ValueOf(val.String())
	case reflect.Int:
		return reflect.ValueOf(int(val.Integer()))
	case reflect.Int64:
		return reflect.ValueOf(val.Integer())
	case reflect.Float64:
		return reflect.ValueOf(val.Number())
	case reflect.Bool:
		return reflect.ValueOf(val.Boolean())
	default:
		return reflect.Zero(targetType)
	}
}

// goToJSValue converts a Go reflect.Value to a V8 value.
func goToJSValue(iso *v8.Isolate, val reflect.Value) *v8.Value {
	if !val.IsValid() {
		return nil
	}
	switch val.Kind() {
	case reflect.String:
		v, _ := v8.NewValue(iso, val.String())
		return v
	case reflect.Int, reflect.Int64, reflect.Int32:
		v, _ := goAnyToJSValue(iso, core.NormalizeInt(val.Int()))
		return v
	case reflect.Uint, reflect.Uint64, reflect.Uint32:
		v, _ := goAnyToJSValue(iso, core.NormalizeInt(val.Uint()))
		return v
	case reflect.Float64, reflect.Float32:
		v, _ := v8.NewValue(iso, val.Float())
		return v
	case reflect.Bool:
		v, _ := v8.NewValue(iso, val.Bool())
		return v
	default:
		return nil
	}
}

var errUnsupportedGlobal = errors.New("unsupported global type")

// goAnyToJSValue converts a Go scalar to a V8 value.
func goAnyToJSValue(iso *v8.Isolate, value any) (*v8.Value, error) {
	if value == nil {
		return v8.Undefined(iso), nil
	}
	switch v := value.(type) {
	case string:
		return v8.NewValue(iso, v)
	case int:
		return v8.NewValue(iso, int32(v))
	case float64:
		return v8.NewValue(iso, v)
	case bool:
		return v8.NewValue(iso, v)
	default:
		return nil, fmt.Errorf("%w: %T", errUnsupportedGlobal, value)
	}
}
