// Package screen holds the paletted framebuffer shared between the script
// execution context and the presentation loop.
package screen

import (
	"fmt"
	"sync"

	"github.com/cryguy/livefx/internal/core"
)

// PaletteSize is the fixed number of palette entries.
const PaletteSize = 256

// RGB is a single palette entry.
type RGB struct {
	R, G, B uint8
}

// Screen is a width x height grid of palette indices plus a 256 entry
// palette. A single mutex guards both; it is taken for each individual
// operation and never held across calls, so a Draw running concurrently
// with a script callback may observe a partially updated frame.
type Screen struct {
	mu      sync.Mutex
	width   int
	height  int
	pixels  []uint8
	palette [PaletteSize]RGB
}

// New allocates a zero-filled framebuffer with the default palette.
func New(width, height int) (*Screen, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("screen size must be positive, got %dx%d", width, height)
	}
	s := &Screen{
		width:  width,
		height: height,
		pixels: make([]uint8, width*height),
	}
	s.palette = DefaultPalette()
	return s, nil
}

// DefaultPalette returns the startup palette: the low nibble of the index
// ramps red, the high nibble ramps blue.
func DefaultPalette() [PaletteSize]RGB {
	var p [PaletteSize]RGB
	for c := range p {
		p[c] = RGB{R: uint8(c%16) * 16, G: 0, B: uint8(c/16) * 16}
	}
	return p
}

func (s *Screen) Width() int  { return s.width }
func (s *Screen) Height() int { return s.height }

// BufferSize returns the RGBA byte count Draw expects.
func (s *Screen) BufferSize() int { return 4 * s.width * s.height }

func checkColor(what string, v int) error {
	if v < 0 || v >= PaletteSize {
		return fmt.Errorf("%w: %s %d not in [0, 255]", core.ErrIndexOutOfRange, what, v)
	}
	return nil
}

func (s *Screen) offset(x, y int) (int, error) {
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		return 0, fmt.Errorf("%w: pixel (%d, %d) outside %dx%d", core.ErrIndexOutOfRange, x, y, s.width, s.height)
	}
	return x + s.width*y, nil
}

// Clear sets every cell to color.
func (s *Screen) Clear(color int) error {
	if err := checkColor("color", color); err != nil {
		return err
	}
	c := uint8(color)
	s.mu.Lock()
	for i := range s.pixels {
		s.pixels[i] = c
	}
	s.mu.Unlock()
	return nil
}

// SetPixel writes one cell.
func (s *Screen) SetPixel(x, y, color int) error {
	if err := checkColor("color", color); err != nil {
		return err
	}
	i, err := s.offset(x, y)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.pixels[i] = uint8(color)
	s.mu.Unlock()
	return nil
}

// Pixel reads one cell.
func (s *Screen) Pixel(x, y int) (int, error) {
	i, err := s.offset(x, y)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	c := s.pixels[i]
	s.mu.Unlock()
	return int(c), nil
}

// SetPalette overwrites palette entry i.
func (s *Screen) SetPalette(i, r, g, b int) error {
	if err := checkColor("palette index", i); err != nil {
		return err
	}
	for _, c := range [...]struct {
		name string
		v    int
	}{{"red", r}, {"green", g}, {"blue", b}} {
		if c.v < 0 || c.v > 255 {
			return fmt.Errorf("%w: %s component %d not in [0, 255]", core.ErrIndexOutOfRange, c.name, c.v)
		}
	}
	s.mu.Lock()
	s.palette[i] = RGB{R: uint8(r), G: uint8(g), B: uint8(b)}
	s.mu.Unlock()
	return nil
}

// Palette reads palette entry i.
func (s *Screen) Palette(i int) (RGB, error) {
	if err := checkColor("palette index", i); err != nil {
		return RGB{}, err
	}
	s.mu.Lock()
	c := s.palette[i]
	s.mu.Unlock()
	return c, nil
}

// Draw resolves every cell through the palette and writes [r, g, b, 255]
// into out in row-major order. out must be exactly BufferSize bytes; on a
// mismatch nothing is written.
func (s *Screen) Draw(out []byte) error {
	if len(out) != s.BufferSize() {
		return &core.SizeMismatchError{Got: len(out), Want: s.BufferSize()}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.pixels {
		p := s.palette[c]
		o := out[i*4 : i*4+4 : i*4+4]
		o[0] = p.R
		o[1] = p.G
		o[2] = p.B
		o[3] = 255
	}
	return nil
}

// Snapshot copies the indices into pixels and the palette as packed RGB
// triples into palette, both under one lock acquisition. pixels must hold
// width*height bytes and palette 3*PaletteSize bytes.
func (s *Screen) Snapshot(pixels, palette []byte) error {
	if len(pixels) != len(s.pixels) {
		return &core.SizeMismatchError{Got: len(pixels), Want: len(s.pixels)}
	}
	if len(palette) != 3*PaletteSize {
		return &core.SizeMismatchError{Got: len(palette), Want: 3 * PaletteSize}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(pixels, s.pixels)
	for i, c := range s.palette {
		palette[i*3] = c.R
		palette[i*3+1] = c.G
		palette[i*3+2] = c.B
	}
	return nil
}
