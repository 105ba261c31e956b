//go:build !v8

package drawapi

import (
	"errors"
	"strings"
	"testing"

	"github.com/cryguy/livefx/internal/core"
	"github.com/cryguy/livefx/internal/luavm"
	"github.com/cryguy/livefx/internal/quickjs"
	"github.com/cryguy/livefx/internal/screen"
)

var backends = []struct {
	name string
	new  core.RuntimeFactory
}{
	{"quickjs", quickjs.New},
	{"lua", luavm.New},
}

func newTestEnv(t *testing.T, frame uint64) *Env {
	t.Helper()
	scr, err := screen.New(8, 4)
	if err != nil {
		t.Fatal(err)
	}
	return &Env{Screen: scr, Frame: func() uint64 { return frame }}
}

func installed(t *testing.T, factory core.RuntimeFactory, env *Env) core.ScriptRuntime {
	t.Helper()
	rt, err := factory(core.DefaultConfig())
	if err != nil {
		t.Fatalf("creating runtime: %v", err)
	}
	t.Cleanup(rt.Close)
	if err := Install(rt, env); err != nil {
		t.Fatalf("Install: %v", err)
	}
	return rt
}

func TestDrawing_PixelsAndPalette(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			env := newTestEnv(t, 0)
			rt := installed(t, b.new, env)

			src := `clear(3)
setPixel(W - 1, H - 1, 200)
setPalette(200, 1, 2, 3)
setPixel(0, 0, getPixel(W - 1, H - 1))`
			if err := rt.Exec("fx", src); err != nil {
				t.Fatalf("Exec: %v", err)
			}
			if c, _ := env.Screen.Pixel(3, 2); c != 3 {
				t.Errorf("Pixel(3, 2) = %d, want 3", c)
			}
			if c, _ := env.Screen.Pixel(7, 3); c != 200 {
				t.Errorf("Pixel(7, 3) = %d, want 200", c)
			}
			if c, _ := env.Screen.Pixel(0, 0); c != 200 {
				t.Errorf("Pixel(0, 0) = %d, want 200", c)
			}
			if p, _ := env.Screen.Palette(200); p != (screen.RGB{R: 1, G: 2, B: 3}) {
				t.Errorf("Palette(200) = %+v", p)
			}
		})
	}
}

func TestDrawing_OutOfBoundsRaises(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			env := newTestEnv(t, 0)
			rt := installed(t, b.new, env)

			for _, src := range []string{"setPixel(W, 0, 1)", "getPixel(0, H)", "setPalette(256, 0, 0, 0)", "clear(300)", "getPalette(-1)"} {
				err := rt.Exec("fx", src)
				var re *core.RuntimeError
				if !errors.As(err, &re) {
					t.Errorf("%s: err = %v, want RuntimeError", src, err)
					continue
				}
				if !strings.Contains(err.Error(), "index out of range") {
					t.Errorf("%s: err = %v, want index out of range", src, err)
				}
			}
		})
	}
}

func TestDrawing_WideArgumentsRejected(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			env := newTestEnv(t, 0)
			rt := installed(t, b.new, env)

			for _, src := range []string{"setPixel(4294967301, 0, 7)", "setPixel(0/0, 0, 7)", "setPixel(0, 1/0, 7)", "clear(4294967297)", "setPalette(-4294967295, 1, 1, 1)"} {
				err := rt.Exec("fx", src)
				var re *core.RuntimeError
				if !errors.As(err, &re) {
					t.Errorf("%s: err = %v, want RuntimeError", src, err)
					continue
				}
				if !strings.Contains(err.Error(), "index out of range") {
					t.Errorf("%s: err = %v, want index out of range", src, err)
				}
			}
			for x := 0; x < env.Screen.Width(); x++ {
				if c, _ := env.Screen.Pixel(x, 0); c != 0 {
					t.Errorf("Pixel(%d, 0) = %d after rejected calls", x, c)
				}
			}
			if p, _ := env.Screen.Palette(1); p == (screen.RGB{R: 1, G: 1, B: 1}) {
				t.Error("palette entry 1 written by a rejected call")
			}
		})
	}
}

func TestDrawing_JSUndefinedArgumentRejected(t *testing.T) {
	env := newTestEnv(t, 0)
	rt := installed(t, quickjs.New, env)
	for _, src := range []string{"setPixel(undefined, 0, 7)", "setPixel(0, 0)", `setPixel("1", 0, 7)`} {
		if err := rt.Exec("fx.js", src); err == nil || !strings.Contains(err.Error(), "index out of range") {
			t.Errorf("%s: err = %v, want index out of range", src, err)
		}
	}
	if c, _ := env.Screen.Pixel(0, 0); c != 0 {
		t.Errorf("Pixel(0, 0) = %d after rejected calls", c)
	}
}

func TestDrawing_FractionsTruncate(t *testing.T) {
	env := newTestEnv(t, 0)
	rt := installed(t, quickjs.New, env)
	if err := rt.Exec("fx.js", "setPixel(2.9, 1.5, 4.7)"); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if c, _ := env.Screen.Pixel(2, 1); c != 4 {
		t.Errorf("Pixel(2, 1) = %d, want 4", c)
	}
}

func TestGetPalette_Unpacks(t *testing.T) {
	env := newTestEnv(t, 0)
	_ = env.Screen.SetPalette(9, 250, 128, 7)

	js := installed(t, quickjs.New, env)
	var got string
	_ = js.RegisterFunc("report", func(s string) { got = s })
	if err := js.Exec("fx.js", `report(getPalette(9).join(","));`); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if got != "250,128,7" {
		t.Errorf("js getPalette(9) = %s", got)
	}

	lua := installed(t, luavm.New, env)
	_ = lua.RegisterFunc("report", func(s string) { got = s })
	if err := lua.Exec("fx.lua", `local r, g, b = getPalette(9); report(r .. "," .. g .. "," .. b)`); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if got != "250,128,7" {
		t.Errorf("lua getPalette(9) = %s", got)
	}
}

func TestConstantsAndFrame(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			env := newTestEnv(t, 5)
			rt := installed(t, b.new, env)
			var got int
			_ = rt.RegisterFunc("report", func(n int) { got = n })

			if err := rt.Exec("fx", "report(W * 1000 + H * 100 + time + frameCount())"); err != nil {
				t.Fatalf("Exec: %v", err)
			}
			if got != 8*1000+4*100+5+5 {
				t.Errorf("got %d", got)
			}
			if err := PublishFrame(rt, 9); err != nil {
				t.Fatal(err)
			}
			if err := rt.Exec("fx", "report(time)"); err != nil {
				t.Fatal(err)
			}
			if got != 9 {
				t.Errorf("time = %d after PublishFrame(9)", got)
			}
		})
	}
}

func TestRawNamesHidden(t *testing.T) {
	env := newTestEnv(t, 0)
	js := installed(t, quickjs.New, env)
	var got string
	_ = js.RegisterFunc("report", func(s string) { got = s })
	if err := js.Exec("fx.js", `report(typeof __fx_setPixel + "," + typeof __fx_console);`); err != nil {
		t.Fatal(err)
	}
	if got != "undefined,undefined" {
		t.Errorf("raw bindings visible: %s", got)
	}
}
