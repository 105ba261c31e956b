//go:build !nosdl

package main

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/cryguy/livefx"
	"github.com/veandco/go-sdl2/sdl"
)

// SDL must be driven from the main thread.
func init() {
	runtime.LockOSThread()
}

func runWindow(ctx context.Context, p *player, cfg livefx.Config) error {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return fmt.Errorf("initialising SDL: %w", err)
	}
	defer sdl.Quit()

	w, h := int32(p.host.Width()), int32(p.host.Height())
	window, err := sdl.CreateWindow(cfg.Title,
		int32(sdl.WINDOWPOS_UNDEFINED), int32(sdl.WINDOWPOS_UNDEFINED),
		w*int32(cfg.Scale), h*int32(cfg.Scale),
		uint32(sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE))
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	defer window.Destroy()

	renderer, err := sdl.CreateRenderer(window, -1, uint32(sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC))
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	defer renderer.Destroy()
	// the renderer scales the framebuffer to whatever size the window is
	if err := renderer.SetLogicalSize(w, h); err != nil {
		return fmt.Errorf("setting logical size: %w", err)
	}

	// ABGR8888 is byte order R, G, B, A on little-endian machines, which is
	// the layout Host.Draw produces
	texture, err := renderer.CreateTexture(uint32(sdl.PIXELFORMAT_ABGR8888), int(sdl.TEXTUREACCESS_STREAMING), w, h)
	if err != nil {
		return fmt.Errorf("creating texture: %w", err)
	}
	defer texture.Destroy()

	rgba := make([]byte, 4*int(w)*int(h))
	frameTime := time.Second / time.Duration(cfg.FPS)
	log.Noticef("running %s in a %dx%d window", p.host.Path(), w*int32(cfg.Scale), h*int32(cfg.Scale))

	for {
		start := time.Now()
		if ctx.Err() != nil {
			return nil
		}
		for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
			switch ev := ev.(type) {
			case *sdl.QuitEvent:
				return nil
			case *sdl.KeyboardEvent:
				if ev.Type != sdl.KEYDOWN || ev.Repeat != 0 {
					continue
				}
				switch ev.Keysym.Sym {
				case sdl.K_ESCAPE:
					return nil
				case sdl.K_p:
					p.paused = !p.paused
					log.Infof("paused: %v", p.paused)
				case sdl.K_SPACE:
					p.paused = true
					p.step()
				case sdl.K_r:
					p.host.Reload()
				case sdl.K_s:
					if path, err := saveSnapshot(p.host, cfg.Scale, "."); err != nil {
						log.Errorf("snapshot: %v", err)
					} else {
						log.Noticef("saved %s", path)
					}
				}
			}
		}

		if !p.paused {
			p.step()
		}
		if err := upload(texture, p.host, rgba, int(w), int(h)); err != nil {
			return err
		}
		renderer.Clear()
		renderer.Copy(texture, nil, nil)
		renderer.Present()

		// vsync usually paces the loop; this covers drivers without it
		if d := frameTime - time.Since(start); d > 0 {
			time.Sleep(d)
		}
	}
}

// upload draws straight into the texture when its rows are packed, and
// through rgba otherwise.
func upload(texture *sdl.Texture, host *livefx.Host, rgba []byte, w, h int) error {
	pixels, pitch, err := texture.Lock(nil)
	if err != nil {
		return fmt.Errorf("locking texture: %w", err)
	}
	defer texture.Unlock()
	if pitch == 4*w {
		return host.Draw(pixels[:4*w*h])
	}
	if err := host.Draw(rgba); err != nil {
		return err
	}
	for y := 0; y < h; y++ {
		copy(pixels[y*pitch:], rgba[y*4*w:(y+1)*4*w])
	}
	return nil
}
