// Package livefx hosts a live-coded visual effect: a script written in
// JavaScript, TypeScript or Lua draws into a 256-colour indexed framebuffer
// and is reloaded every time its source file changes.
//
// A Host is driven by its owner, one call per frame:
//
//	h, err := livefx.NewHost(cfg, "effects/plasma.js")
//	...
//	if err := h.Init(); err != nil { ... }
//	for {
//		if err := h.Update(); err != nil { log(err) }
//		h.Draw(rgba)
//	}
//
// Scripts see clear, setPixel, getPixel, setPalette, getPalette and
// frameCount, the constants W and H, the frame counter time and a console.
// They may define Init(), called once per load, and Render(ms) (or
// Update(ms)), called every frame with the Unix time in milliseconds.
package livefx

import (
	"fmt"

	"github.com/cryguy/livefx/internal/core"
	"github.com/cryguy/livefx/internal/screen"
)

// Re-exported types so callers only import the root package.
type (
	Config            = core.Config
	FileReadError     = core.FileReadError
	CompileError      = core.CompileError
	RuntimeError      = core.RuntimeError
	SizeMismatchError = core.SizeMismatchError
	WatcherSetupError = core.WatcherSetupError
	RGB               = screen.RGB
)

// ErrIndexOutOfRange is wrapped by every rejected framebuffer or palette access.
var ErrIndexOutOfRange = core.ErrIndexOutOfRange

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config { return core.DefaultConfig() }

// ErrorKind names the category of err: read, compile, runtime, size, watch
// or error.
func ErrorKind(err error) string { return core.ErrorKind(err) }

// ReloadError reports a hot reload that failed. The previous script
// instance is still installed and keeps running.
type ReloadError struct {
	Path string
	Err  error
}

func (e *ReloadError) Error() string {
	return fmt.Sprintf("reloading %s (keeping previous script): %v", e.Path, e.Err)
}

func (e *ReloadError) Unwrap() error { return e.Err }
