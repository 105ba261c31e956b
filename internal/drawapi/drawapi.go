// Package drawapi binds the effect drawing surface into a script runtime.
package drawapi

import (
	"fmt"

	"github.com/cryguy/livefx/internal/core"
	"github.com/cryguy/livefx/internal/screen"
	"github.com/tliron/commonlog"
)

// Env is what the bindings operate on. It is owned by the host and shared
// by reference with every runtime instance it creates.
type Env struct {
	Screen *screen.Screen
	Frame  func() uint64
	Log    commonlog.Logger
}

// SetupFunc installs one group of bindings into rt.
type SetupFunc func(rt core.ScriptRuntime, env *Env) error

// Setups lists the binding groups, in installation order, for a fresh runtime.
var Setups = []SetupFunc{
	SetupDrawing,
	SetupConstants,
	SetupConsole,
}

// Install runs every setup function against rt.
func Install(rt core.ScriptRuntime, env *Env) error {
	for _, setup := range Setups {
		if err := setup(rt, env); err != nil {
			return err
		}
	}
	return nil
}

// rawPrefix marks the Go-backed functions the glue code wraps and hides.
const rawPrefix = "__fx_"

// SetupDrawing registers clear, setPixel, getPixel, setPalette, getPalette
// and frameCount. Every Go function takes the screen lock for the one
// operation it performs.
func SetupDrawing(rt core.ScriptRuntime, env *Env) error {
	scr := env.Screen
	funcs := []struct {
		name string
		fn   any
	}{
		{"clear", func(c int) (int, error) {
			if err := scr.Clear(c); err != nil {
				return 0, fmt.Errorf("clear(%d): %w", c, err)
			}
			return c, nil
		}},
		{"setPixel", func(x, y, c int) (int, error) {
			if err := scr.SetPixel(x, y, c); err != nil {
				return 0, fmt.Errorf("setPixel(%d, %d, %d): %w", x, y, c, err)
			}
			return c, nil
		}},
		{"getPixel", func(x, y int) (int, error) {
			c, err := scr.Pixel(x, y)
			if err != nil {
				return 0, fmt.Errorf("getPixel(%d, %d): %w", x, y, err)
			}
			return c, nil
		}},
		{"setPalette", func(i, r, g, b int) (int, error) {
			if err := scr.SetPalette(i, r, g, b); err != nil {
				return 0, fmt.Errorf("setPalette(%d, %d, %d, %d): %w", i, r, g, b, err)
			}
			return i, nil
		}},
		// Packed as 0xRRGGBB; the glue unpacks it per language.
		{"getPalette", func(i int) (int, error) {
			c, err := scr.Palette(i)
			if err != nil {
				return 0, fmt.Errorf("getPalette(%d): %w", i, err)
			}
			return int(c.R)<<16 | int(c.G)<<8 | int(c.B), nil
		}},
		{"frameCount", func() int {
			return int(env.Frame())
		}},
	}
	for _, f := range funcs {
		if err := rt.RegisterFunc(rawPrefix+f.name, f.fn); err != nil {
			return fmt.Errorf("registering %s: %w", f.name, err)
		}
	}
	return rt.Exec("drawapi", glue(rt.Language(), drawingJS, drawingLua))
}

// SetupConstants seeds W, H and time.
func SetupConstants(rt core.ScriptRuntime, env *Env) error {
	if err := rt.SetGlobal("W", env.Screen.Width()); err != nil {
		return fmt.Errorf("setting W: %w", err)
	}
	if err := rt.SetGlobal("H", env.Screen.Height()); err != nil {
		return fmt.Errorf("setting H: %w", err)
	}
	return PublishFrame(rt, env.Frame())
}

// PublishFrame republishes the frame counter as the global time.
func PublishFrame(rt core.ScriptRuntime, frame uint64) error {
	if err := rt.SetGlobal("time", frame); err != nil {
		return fmt.Errorf("setting time: %w", err)
	}
	return nil
}

// SetupConsole routes console.* (JS) or print/log (Lua) to the host logger.
func SetupConsole(rt core.ScriptRuntime, env *Env) error {
	log := env.Log
	if err := rt.RegisterFunc(rawPrefix+"console", func(level, message string) {
		if log == nil {
			return
		}
		switch level {
		case "error":
			log.Error(message)
		case "warn":
			log.Warning(message)
		case "debug":
			log.Debug(message)
		default:
			log.Notice(message)
		}
	}); err != nil {
		return fmt.Errorf("registering console: %w", err)
	}
	return rt.Exec("console", glue(rt.Language(), consoleJS, consoleLua))
}

func glue(lang core.Language, js, lua string) string {
	if lang == core.LangLua {
		return lua
	}
	return js
}
