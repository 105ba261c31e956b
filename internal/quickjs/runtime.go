//go:build !v8

// Package quickjs runs effect scripts on the pure-Go QuickJS engine.
package quickjs

import (
	"fmt"

	"github.com/cryguy/livefx/internal/core"
	"modernc.org/quickjs"
)

// qjsRuntime implements core.ScriptRuntime for the QuickJS engine.
type qjsRuntime struct {
	vm *quickjs.VM
}

var _ core.ScriptRuntime = (*qjsRuntime)(nil)

// New creates a QuickJS VM honouring cfg.MemoryLimitMB.
func New(cfg core.Config) (core.ScriptRuntime, error) {
	vm, err := quickjs.NewVM()
	if err != nil {
		return nil, fmt.Errorf("creating QuickJS VM: %w", err)
	}
	if cfg.MemoryLimitMB > 0 {
		vm.SetMemoryLimit(uintptr(cfg.MemoryLimitMB) * 1024 * 1024)
	}
	return &qjsRuntime{vm: vm}, nil
}

func (r *qjsRuntime) Language() core.Language { return core.LangJS }

// eval evaluates JavaScript and discards the result.
func (r *qjsRuntime) eval(js string) error {
	v, err := r.vm.EvalValue(js, quickjs.EvalGlobal)
	if err != nil {
		return err
	}
	v.Free()
	return nil
}

// evalBool evaluates JavaScript and returns the result as a Go bool.
func (r *qjsRuntime) evalBool(js string) (bool, error) {
	result, err := r.vm.Eval(js, quickjs.EvalGlobal)
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("expected bool, got %T", result)
	}
	return b, nil
}

// Exec compiles source as a global script and then runs it, so only parse
// failures become CompileError and anything thrown while running, including
// a SyntaxError from JSON.parse or eval, is a RuntimeError.
func (r *qjsRuntime) Exec(name, source string) error {
	code, err := r.vm.Compile(source, quickjs.EvalGlobal)
	if err != nil {
		return &core.CompileError{Path: name, Err: err}
	}
	v, err := r.vm.EvalBytecodeValue(code)
	if err != nil {
		return &core.RuntimeError{Path: name, Phase: "load", Err: err}
	}
	v.Free()
	return nil
}

// RegisterFunc registers a Go function as a global JavaScript function.
// Multi-value Go returns (T, error) are automatically unwrapped: on success
// returns T, on error throws a TypeError. This is necessary because the
// QuickJS Go wrapper returns multi-value results as JS arrays.
func (r *qjsRuntime) RegisterFunc(name string, fn any) error {
	rawName := "__raw_" + name
	if err := r.vm.RegisterFunc(rawName, fn, false); err != nil {
		return err
	}
	wrapJS := fmt.Sprintf(`(function() {
		var raw = globalThis[%q];
		globalThis[%q] = function() {
			var r = raw.apply(this, arguments);
			if (Array.isArray(r)) {
				if (r[1] !== null && r[1] !== undefined) throw new TypeError("calling %s: " + r[1]);
				return r[0];
			}
			return r;
		};
		delete globalThis[%q];
	})()`, rawName, name, name, rawName)
	return r.eval(wrapJS)
}

// SetGlobal sets a global property on the VM's global object.
func (r *qjsRuntime) SetGlobal(name string, value any) error {
	atom, err := r.vm.NewAtom(name)
	if err != nil {
		return fmt.Errorf("creating atom %q: %w", name, err)
	}
	glob := r.vm.GlobalObject()
	defer glob.Free()
	return glob.SetProperty(atom, core.NormalizeInt(value))
}

// HasFunction checks the name as an expression so that top-level let and
// const bindings, which never land on globalThis, are found as well.
func (r *qjsRuntime) HasFunction(name string) (bool, error) {
	if !core.ValidIdent(name) {
		return false, fmt.Errorf("invalid function name %q", name)
	}
	return r.evalBool(fmt.Sprintf("typeof %s === 'function'", name))
}

// Call invokes a global function by name.
func (r *qjsRuntime) Call(name string, args ...any) error {
	if !core.ValidIdent(name) {
		return fmt.Errorf("invalid function name %q", name)
	}
	argList, err := core.JSArgs(args...)
	if err != nil {
		return fmt.Errorf("calling %s: %w", name, err)
	}
	if err := r.eval(fmt.Sprintf("void %s(%s);", name, argList)); err != nil {
		return &core.RuntimeError{Phase: name, Err: err}
	}
	return nil
}

// Close frees the VM.
func (r *qjsRuntime) Close() {
	r.vm.Close()
}
