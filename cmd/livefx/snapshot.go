package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/cryguy/livefx"
	"golang.org/x/image/draw"
)

// saveSnapshot writes the current frame, scaled by scale with nearest
// neighbour sampling, as a PNG in dir and returns its path.
func saveSnapshot(host *livefx.Host, scale int, dir string) (string, error) {
	w, h := host.Width(), host.Height()
	src := image.NewRGBA(image.Rect(0, 0, w, h))
	if err := host.Draw(src.Pix); err != nil {
		return "", err
	}
	img := image.Image(src)
	if scale > 1 {
		dst := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		img = dst
	}

	base := strings.TrimSuffix(filepath.Base(host.Path()), filepath.Ext(host.Path()))
	path := filepath.Join(dir, fmt.Sprintf("%s-%06d.png", base, host.Frame()))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", fmt.Errorf("encoding %s: %w", path, err)
	}
	return path, f.Close()
}
