// livefx runs a live-coded visual effect and reloads it whenever the
// script file changes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cryguy/livefx"
	"github.com/cryguy/livefx/internal/preview"
	"github.com/tliron/commonlog"
)

const defaultScript = "effects/plasma.js"

var log = commonlog.GetLogger("livefx")

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) > 0 {
		switch args[0] {
		case "history":
			return runHistory(args[1:])
		case "restore":
			return runRestore(args[1:])
		}
	}

	fs := flag.NewFlagSet("livefx", flag.ContinueOnError)
	configPath := fs.String("config", "", "TOML config file (default "+livefx.DefaultConfigFile+" if present)")
	scale := fs.Int("scale", 0, "window pixels per framebuffer pixel")
	headless := fs.Bool("headless", false, "run without a window")
	previewAddr := fs.String("preview", "", "serve a live preview on this address, e.g. 127.0.0.1:8080")
	journalPath := fs.String("journal", "", "record every load in this SQLite journal")
	verbosity := fs.Int("v", 0, "log verbosity (-4 silent, 0 notices, 2 debug)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: livefx [options] [script]\n")
		fmt.Fprintf(os.Stderr, "       livefx history [-journal file] [-n count]\n")
		fmt.Fprintf(os.Stderr, "       livefx restore [-journal file] [-o file] <id>\n\n")
		fmt.Fprintf(os.Stderr, "Runs script (default %s) and reloads it on every change.\n", defaultScript)
		fmt.Fprintf(os.Stderr, "Window keys: Esc quit, P pause, Space step, S snapshot, R reload.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scale":
			cfg.Scale = *scale
		case "preview":
			cfg.Preview = *previewAddr
		case "journal":
			cfg.Journal = *journalPath
		case "v":
			cfg.Verbosity = *verbosity
		}
	})
	livefx.ConfigureLogging(cfg.Verbosity)

	script := defaultScript
	if fs.NArg() > 0 {
		script = fs.Arg(0)
	}

	host, err := livefx.NewHost(cfg, script)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer host.Close()
	if err := host.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", livefx.ErrorKind(err), err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := &player{host: host, errs: errorLog{logf: log.Errorf, noticef: log.Noticef}}
	if cfg.Preview != "" {
		p.preview = preview.New(host.Screen())
		go func() {
			if err := p.preview.ListenAndServe(ctx, cfg.Preview); err != nil {
				log.Errorf("preview: %v", err)
			}
		}()
	}

	if *headless {
		err = runHeadless(ctx, p, cfg)
	} else {
		err = runWindow(ctx, p, cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// loadConfig reads path, or livefx.toml when path is empty and the file
// exists, or falls back to the built-in defaults.
func loadConfig(path string) (livefx.Config, error) {
	if path == "" {
		if _, err := os.Stat(livefx.DefaultConfigFile); err != nil {
			return livefx.DefaultConfig(), nil
		}
		path = livefx.DefaultConfigFile
	}
	return livefx.LoadConfig(path)
}

// player drives the host once per frame and fans frames out to the preview.
type player struct {
	host    *livefx.Host
	preview *preview.Server
	errs    errorLog
	paused  bool
}

func (p *player) step() {
	p.errs.report(p.host.Update())
	if p.preview != nil {
		if err := p.preview.Publish(); err != nil {
			log.Errorf("preview: %v", err)
		}
	}
}

func runHeadless(ctx context.Context, p *player, cfg livefx.Config) error {
	ticker := time.NewTicker(time.Second / time.Duration(cfg.FPS))
	defer ticker.Stop()
	log.Noticef("running %s headless at %d fps", p.host.Path(), cfg.FPS)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.step()
		}
	}
}

// errorLog logs update errors once per distinct message so a script that
// fails every frame does not flood the log.
type errorLog struct {
	logf    func(format string, args ...any)
	noticef func(format string, args ...any)
	last    string
	repeats int
}

func (l *errorLog) report(err error) {
	if err == nil {
		if l.last != "" {
			l.noticef("script recovered after %d failing frames", l.repeats)
			l.last, l.repeats = "", 0
		}
		return
	}
	msg := err.Error()
	if msg == l.last {
		l.repeats++
		return
	}
	l.last, l.repeats = msg, 1
	l.logf("[%s] %s", livefx.ErrorKind(err), msg)
}
