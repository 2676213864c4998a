// Package capture provides mirror sources: a mapped 16 bpp framebuffer and
// still images.
//
// Sources fill a destination sized rgb565.Image. When the source geometry
// differs from the destination, pixels are resampled with a
// golang.org/x/image/draw scaler.
package capture

import (
	"strings"

	"github.com/go-errors/errors"
	"golang.org/x/image/draw"

	"github.com/flavioheleno/fbmirror/rgb565"
)

// DefaultScaler is used when a nil scaler is given.
var DefaultScaler draw.Scaler = draw.ApproxBiLinear

// ParseScaler returns the scaler named s: "nearest", "approx-bilinear",
// "bilinear" or "catmull-rom".
func ParseScaler(s string) (draw.Scaler, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "_", "-")) {
	case "nearest", "nearest-neighbor":
		return draw.NearestNeighbor, nil
	case "", "approx-bilinear":
		return draw.ApproxBiLinear, nil
	case "bilinear":
		return draw.BiLinear, nil
	case "catmull-rom", "catmullrom":
		return draw.CatmullRom, nil
	}
	return nil, errors.Errorf("capture: unknown scaler %q", s)
}

// copyInto transfers src to dst. Equal sizes are copied row by row,
// converting the layout if needed; other sizes are resampled with s.
func copyInto(dst, src *rgb565.Image, s draw.Scaler) {
	if dst.Rect.Size() != src.Rect.Size() {
		s.Scale(dst, dst.Rect, src, src.Rect, draw.Src, nil)
		return
	}
	h := dst.Rect.Dy()
	if dst.Layout == src.Layout {
		for y := 0; y < h; y++ {
			copy(dst.Row(dst.Rect.Min.Y+y), src.Row(src.Rect.Min.Y+y))
		}
		return
	}
	w := dst.Rect.Dx()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := src.PixelAt(src.Rect.Min.X+x, src.Rect.Min.Y+y)
			dst.SetPixel(dst.Rect.Min.X+x, dst.Rect.Min.Y+y, dst.Layout.Pack(src.Layout.Expand(p)))
		}
	}
}
