package core

// Language identifies the source language a ScriptRuntime executes.
type Language int

const (
	LangJS Language = iota
	LangLua
)

func (l Language) String() string {
	switch l {
	case LangJS:
		return "js"
	case LangLua:
		return "lua"
	default:
		return "unknown"
	}
}

// ScriptRuntime abstracts the scripting engine (QuickJS, V8 or Lua) behind
// a common interface used by the drawing API setup in internal/drawapi and
// by the effect host.
//
// A ScriptRuntime is not safe for concurrent use. All calls must come from
// the single script execution context.
type ScriptRuntime interface {
	// Language reports which glue code the runtime expects.
	Language() Language

	// Exec compiles and runs source as top-level code. Parse failures are
	// returned as *CompileError, everything else as *RuntimeError.
	Exec(name, source string) error

	// RegisterFunc registers a Go function as a global script function.
	// Arguments and return values are marshaled by reflection. A Go
	// function returning (T, error) raises a script error when the error
	// is non-nil.
	RegisterFunc(name string, fn any) error

	// SetGlobal sets a global variable. Basic Go types (string, int,
	// int64, uint64, float64, bool) are converted to script values.
	SetGlobal(name string, value any) error

	// HasFunction reports whether name resolves to a callable global.
	HasFunction(name string) (bool, error)

	// Call invokes the global function name with the given arguments and
	// discards its result. Failures are returned as *RuntimeError.
	Call(name string, args ...any) error

	// Close releases the engine. The runtime is unusable afterwards.
	Close()
}

// RuntimeFactory creates a fresh runtime configured with cfg.
type RuntimeFactory func(cfg Config) (ScriptRuntime, error)
