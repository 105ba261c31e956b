package livefx

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/cryguy/livefx/internal/core"
	"github.com/cryguy/livefx/internal/drawapi"
	"github.com/cryguy/livefx/internal/journal"
	"github.com/cryguy/livefx/internal/luavm"
	"github.com/cryguy/livefx/internal/reload"
	"github.com/cryguy/livefx/internal/screen"
	"github.com/tliron/commonlog"
)

// ErrNotLoaded is returned by Update when no script instance has ever
// loaded successfully.
var ErrNotLoaded = errors.New("no script loaded")

// Per-frame callbacks, in lookup order. _Update is the name older Lua
// effects use.
var frameCallbacks = []string{"Render", "Update", "_Update"}

// Host owns the framebuffer, the palette, the frame counter and the single
// script instance drawing into them.
//
// Init and Update must be called from one goroutine. Draw, Frame and the
// other accessors may be called from any goroutine.
type Host struct {
	cfg     Config
	path    string
	lang    core.Language
	factory core.RuntimeFactory

	scr     *screen.Screen
	env     *drawapi.Env
	watcher *reload.Watcher
	journal *journal.Journal
	log     commonlog.Logger

	frame atomic.Uint64

	rt       core.ScriptRuntime
	callback string // cached per load; "" when the script defines none
}

// NewHost prepares a host for the script at path. It allocates the screen,
// starts watching the file and opens the journal if one is configured, but
// does not load the script; call Init for that.
func NewHost(cfg Config, path string) (*Host, error) {
	cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}
	scr, err := screen.New(cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}

	h := &Host{
		cfg:  cfg,
		path: abs,
		lang: languageFor(abs),
		scr:  scr,
		log:  commonlog.GetLogger("livefx.host"),
	}
	h.factory = newJSRuntime
	if h.lang == core.LangLua {
		h.factory = luavm.New
	}
	h.env = &drawapi.Env{
		Screen: scr,
		Frame:  h.frame.Load,
		Log:    commonlog.GetLogger("livefx.script"),
	}

	if h.watcher, err = reload.New(abs); err != nil {
		return nil, err
	}
	if cfg.Journal != "" {
		if h.journal, err = journal.Open(cfg.Journal); err != nil {
			h.watcher.Close()
			return nil, err
		}
	}
	return h, nil
}

// Init loads the script: it creates a runtime, installs the drawing API,
// executes the top-level code and calls Init() if the script defines it.
// On error no script instance is installed.
func (h *Host) Init() error {
	return h.load()
}

// Update runs one frame. A pending file change is reloaded first; a failed
// reload is reported as *ReloadError while the previous instance keeps
// running. Then the frame counter advances and the script's Render (or
// Update) callback is called with the current Unix time in milliseconds.
func (h *Host) Update() error {
	var reloadErr error
	if h.watcher.TakeDirty() {
		h.log.Infof("change detected, reloading %s", h.path)
		if err := h.load(); err != nil {
			reloadErr = &ReloadError{Path: h.path, Err: err}
		}
	}

	frame := h.frame.Add(1)
	if h.rt == nil {
		if reloadErr != nil {
			return reloadErr
		}
		return ErrNotLoaded
	}
	if err := drawapi.PublishFrame(h.rt, frame); err != nil {
		return errors.Join(reloadErr, err)
	}
	if h.callback == "" {
		return reloadErr
	}
	if err := h.call(h.rt, h.callback, time.Now().UnixMilli()); err != nil {
		return errors.Join(reloadErr, err)
	}
	return reloadErr
}

// Draw resolves every framebuffer cell through the palette into out as
// [r, g, b, 255] quadruplets, row-major. out must be exactly 4*W*H bytes.
func (h *Host) Draw(out []byte) error {
	return h.scr.Draw(out)
}

// Reload schedules a reload on the next Update as if the file had changed.
func (h *Host) Reload() {
	h.watcher.MarkDirty()
}

// Close stops watching, releases the script instance and closes the journal.
func (h *Host) Close() error {
	errs := []error{h.watcher.Close()}
	if h.rt != nil {
		h.rt.Close()
		h.rt = nil
	}
	if h.journal != nil {
		errs = append(errs, h.journal.Close())
	}
	return errors.Join(errs...)
}

func (h *Host) Width() int             { return h.scr.Width() }
func (h *Host) Height() int            { return h.scr.Height() }
func (h *Host) Frame() uint64          { return h.frame.Load() }
func (h *Host) Path() string           { return h.path }
func (h *Host) Screen() *screen.Screen { return h.scr }

// Journal returns the reload journal, or nil when journaling is disabled.
func (h *Host) Journal() *journal.Journal { return h.journal }

// load builds a fresh instance and swaps it in only if every step succeeds.
func (h *Host) load() error {
	start := time.Now()
	src, err := readSource(h.path, h.cfg.MaxScriptSizeKB*1024)
	var (
		rt       core.ScriptRuntime
		callback string
	)
	if err == nil {
		rt, callback, err = h.instantiate(src)
	}
	h.record(start, src, err)
	if err != nil {
		h.log.Errorf("%v", err)
		return err
	}

	if h.rt != nil {
		h.rt.Close()
	}
	h.rt, h.callback = rt, callback
	if err := h.watcher.Rearm(); err != nil {
		h.log.Warningf("%v", err)
	}
	h.log.Noticef("loaded %s (%s, %s) in %s", filepath.Base(h.path), h.lang, callbackName(callback), time.Since(start).Round(time.Millisecond))
	return nil
}

func (h *Host) instantiate(src []byte) (_ core.ScriptRuntime, _ string, err error) {
	code, err := prepareSource(h.path, src)
	if err != nil {
		return nil, "", err
	}
	rt, err := h.factory(h.cfg)
	if err != nil {
		return nil, "", fmt.Errorf("creating %s runtime: %w", h.lang, err)
	}
	defer func() {
		if err != nil {
			rt.Close()
		}
	}()

	if err := drawapi.Install(rt, h.env); err != nil {
		return nil, "", fmt.Errorf("installing drawing API: %w", err)
	}
	if err := h.exec(rt, code); err != nil {
		return nil, "", err
	}
	if ok, err := rt.HasFunction("Init"); err != nil {
		return nil, "", h.runtimeError("Init", err)
	} else if ok {
		if err := h.call(rt, "Init"); err != nil {
			return nil, "", err
		}
	}
	for _, name := range frameCallbacks {
		ok, err := rt.HasFunction(name)
		if err != nil {
			return nil, "", h.runtimeError(name, err)
		}
		if ok {
			return rt, name, nil
		}
	}
	return rt, "", nil
}

func (h *Host) exec(rt core.ScriptRuntime, code string) (err error) {
	defer h.recoverPanic("load", &err)
	return rt.Exec(h.path, code)
}

// call invokes a script callback, attributing any failure to the script path.
func (h *Host) call(rt core.ScriptRuntime, name string, args ...any) (err error) {
	defer h.recoverPanic(name, &err)
	if err := rt.Call(name, args...); err != nil {
		return h.runtimeError(name, err)
	}
	return nil
}

func (h *Host) runtimeError(phase string, err error) error {
	var re *core.RuntimeError
	if errors.As(err, &re) {
		if re.Path == "" {
			re.Path = h.path
		}
		return err
	}
	return &core.RuntimeError{Path: h.path, Phase: phase, Err: err}
}

// recoverPanic turns a panic inside a Go binding or an engine into a
// RuntimeError so the host keeps running.
func (h *Host) recoverPanic(phase string, err *error) {
	if r := recover(); r != nil {
		*err = &core.RuntimeError{Path: h.path, Phase: phase, Err: fmt.Errorf("panic: %v", r)}
	}
}

func (h *Host) record(start time.Time, src []byte, err error) {
	if h.journal == nil {
		return
	}
	e := journal.Entry{
		Path:     h.path,
		LoadedAt: start,
		OK:       err == nil,
		Kind:     core.ErrorKind(err),
		Duration: time.Since(start),
		Source:   src,
	}
	if err != nil {
		e.Message = err.Error()
	}
	if _, jerr := h.journal.Record(e); jerr != nil {
		h.log.Warningf("journal: %v", jerr)
	}
}

func callbackName(name string) string {
	if name == "" {
		return "no frame callback"
	}
	return name
}
