package screen

import (
	"errors"
	"sync"
	"testing"

	"github.com/cryguy/livefx/internal/core"
)

func newTestScreen(t *testing.T, w, h int) *Screen {
	t.Helper()
	s, err := New(w, h)
	if err != nil {
		t.Fatalf("New(%d, %d): %v", w, h, err)
	}
	return s
}

func TestNew_RejectsEmpty(t *testing.T) {
	if _, err := New(0, 10); err == nil {
		t.Error("expected error for zero width")
	}
	if _, err := New(10, -1); err == nil {
		t.Error("expected error for negative height")
	}
}

func TestDefaultPalette(t *testing.T) {
	s := newTestScreen(t, 4, 4)
	for _, i := range []int{0, 1, 15, 16, 0x5A, 255} {
		got, err := s.Palette(i)
		if err != nil {
			t.Fatalf("Palette(%d): %v", i, err)
		}
		want := RGB{R: uint8(i%16) * 16, B: uint8(i/16) * 16}
		if got != want {
			t.Errorf("Palette(%d) = %+v, want %+v", i, got, want)
		}
	}
}

func TestSetPalette_RoundTrip(t *testing.T) {
	s := newTestScreen(t, 2, 2)
	for i := 0; i < PaletteSize; i++ {
		r, g, b := i, 255-i, (i*7)%256
		if err := s.SetPalette(i, r, g, b); err != nil {
			t.Fatalf("SetPalette(%d): %v", i, err)
		}
		got, err := s.Palette(i)
		if err != nil {
			t.Fatalf("Palette(%d): %v", i, err)
		}
		if got != (RGB{uint8(r), uint8(g), uint8(b)}) {
			t.Fatalf("Palette(%d) = %+v after SetPalette(%d, %d, %d)", i, got, r, g, b)
		}
	}
}

func TestPalette_OutOfRange(t *testing.T) {
	s := newTestScreen(t, 2, 2)
	for _, i := range []int{-1, 256, 1000} {
		if _, err := s.Palette(i); !errors.Is(err, core.ErrIndexOutOfRange) {
			t.Errorf("Palette(%d) err = %v, want ErrIndexOutOfRange", i, err)
		}
		if err := s.SetPalette(i, 0, 0, 0); !errors.Is(err, core.ErrIndexOutOfRange) {
			t.Errorf("SetPalette(%d) err = %v, want ErrIndexOutOfRange", i, err)
		}
	}
	if err := s.SetPalette(3, 0, 256, 0); !errors.Is(err, core.ErrIndexOutOfRange) {
		t.Errorf("SetPalette with green=256 err = %v, want ErrIndexOutOfRange", err)
	}
	if got, _ := s.Palette(3); got != DefaultPalette()[3] {
		t.Errorf("rejected SetPalette modified entry 3: %+v", got)
	}
}

func TestSetPixel_GetPixel(t *testing.T) {
	s := newTestScreen(t, 7, 5)
	for y := 0; y < 5; y++ {
		for x := 0; x < 7; x++ {
			v := (x*31 + y*17) % 256
			if err := s.SetPixel(x, y, v); err != nil {
				t.Fatalf("SetPixel(%d, %d): %v", x, y, err)
			}
			got, err := s.Pixel(x, y)
			if err != nil {
				t.Fatalf("Pixel(%d, %d): %v", x, y, err)
			}
			if got != v {
				t.Errorf("Pixel(%d, %d) = %d, want %d", x, y, got, v)
			}
		}
	}
}

func TestPixel_OutOfBounds(t *testing.T) {
	s := newTestScreen(t, 7, 5)
	cases := [][2]int{{7, 0}, {0, 5}, {-1, 0}, {0, -1}, {100, 100}}
	for _, c := range cases {
		if err := s.SetPixel(c[0], c[1], 1); !errors.Is(err, core.ErrIndexOutOfRange) {
			t.Errorf("SetPixel(%d, %d) err = %v, want ErrIndexOutOfRange", c[0], c[1], err)
		}
		if _, err := s.Pixel(c[0], c[1]); !errors.Is(err, core.ErrIndexOutOfRange) {
			t.Errorf("Pixel(%d, %d) err = %v, want ErrIndexOutOfRange", c[0], c[1], err)
		}
	}
	if err := s.SetPixel(1, 1, 256); !errors.Is(err, core.ErrIndexOutOfRange) {
		t.Errorf("SetPixel color 256 err = %v, want ErrIndexOutOfRange", err)
	}
}

func TestClear(t *testing.T) {
	s := newTestScreen(t, 6, 4)
	_ = s.SetPixel(2, 2, 9)
	if err := s.Clear(42); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			if got, _ := s.Pixel(x, y); got != 42 {
				t.Fatalf("Pixel(%d, %d) = %d after Clear(42)", x, y, got)
			}
		}
	}
	if err := s.Clear(-1); !errors.Is(err, core.ErrIndexOutOfRange) {
		t.Errorf("Clear(-1) err = %v, want ErrIndexOutOfRange", err)
	}
}

func TestDraw_Layout(t *testing.T) {
	s := newTestScreen(t, 5, 3)
	_ = s.SetPalette(1, 10, 20, 30)
	_ = s.SetPalette(2, 40, 50, 60)
	_ = s.SetPixel(4, 0, 1)
	_ = s.SetPixel(0, 2, 2)

	out := make([]byte, s.BufferSize())
	if err := s.Draw(out); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			idx, _ := s.Pixel(x, y)
			p, _ := s.Palette(idx)
			o := 4 * (x + 5*y)
			if out[o] != p.R || out[o+1] != p.G || out[o+2] != p.B || out[o+3] != 255 {
				t.Errorf("(%d, %d) = %v, want %v+255", x, y, out[o:o+4], p)
			}
		}
	}
}

func TestDraw_ClearExample(t *testing.T) {
	s := newTestScreen(t, 320, 240)
	if err := s.Clear(5); err != nil {
		t.Fatal(err)
	}
	out := make([]byte, 4*320*240)
	if err := s.Draw(out); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	p := DefaultPalette()[5]
	for i := 0; i < 320*240; i++ {
		g := out[i*4 : i*4+4]
		if g[0] != p.R || g[1] != p.G || g[2] != p.B || g[3] != 255 {
			t.Fatalf("group %d = %v, want %v+255", i, g, p)
		}
	}
}

func TestDraw_SizeMismatch(t *testing.T) {
	s := newTestScreen(t, 4, 4)
	for _, n := range []int{0, 63, 65} {
		out := make([]byte, n)
		for i := range out {
			out[i] = 0xEE
		}
		err := s.Draw(out)
		var sizeErr *core.SizeMismatchError
		if !errors.As(err, &sizeErr) {
			t.Fatalf("Draw(%d bytes) err = %v, want SizeMismatchError", n, err)
		}
		if sizeErr.Got != n || sizeErr.Want != 64 {
			t.Errorf("SizeMismatchError = %+v", sizeErr)
		}
		for i, b := range out {
			if b != 0xEE {
				t.Fatalf("byte %d written on size mismatch", i)
			}
		}
	}
}

func TestSnapshot(t *testing.T) {
	s := newTestScreen(t, 3, 2)
	_ = s.SetPixel(2, 1, 7)
	_ = s.SetPalette(7, 1, 2, 3)

	pix := make([]byte, 6)
	pal := make([]byte, 768)
	if err := s.Snapshot(pix, pal); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if pix[5] != 7 {
		t.Errorf("pix[5] = %d, want 7", pix[5])
	}
	if pal[21] != 1 || pal[22] != 2 || pal[23] != 3 {
		t.Errorf("palette[7] = %v", pal[21:24])
	}
	if err := s.Snapshot(make([]byte, 5), pal); err == nil {
		t.Error("expected size error for short pixel buffer")
	}
}

func TestConcurrentDrawAndWrite(t *testing.T) {
	s := newTestScreen(t, 64, 64)
	out := make([]byte, s.BufferSize())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = s.SetPixel(i%64, (i/64)%64, i%256)
			_ = s.SetPalette(i%256, i%256, 0, 0)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if err := s.Draw(out); err != nil {
				t.Errorf("Draw: %v", err)
				return
			}
		}
	}()
	wg.Wait()
}
