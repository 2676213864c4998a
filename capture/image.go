package capture

import (
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"

	"github.com/go-errors/errors"
	_ "golang.org/x/image/bmp" // register decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register decoder
	_ "golang.org/x/image/webp" // register decoder

	"github.com/flavioheleno/fbmirror/rgb565"
)

// Image is a still source. It is rendered once per destination geometry and
// then copied on every capture.
type Image struct {
	img    image.Image
	scaler draw.Scaler
	cache  *rgb565.Image
}

// NewImage returns a source showing img.
func NewImage(img image.Image, scaler draw.Scaler) *Image {
	if scaler == nil {
		scaler = DefaultScaler
	}
	return &Image{img: img, scaler: scaler}
}

// OpenImage decodes the PNG, JPEG, GIF, BMP, TIFF or WebP file at path.
func OpenImage(path string, scaler draw.Scaler) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapPrefix(err, "capture", 0)
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, errors.WrapPrefix(err, "capture: "+path, 0)
	}
	if img.Bounds().Empty() {
		return nil, errors.Errorf("capture: %s: empty %s image", path, format)
	}
	return NewImage(img, scaler), nil
}

// Bounds returns the bounds of the source image.
func (s *Image) Bounds() image.Rectangle {
	return s.img.Bounds()
}

// Capture copies the image, scaled to dst, into dst.
func (s *Image) Capture(dst *rgb565.Image) error {
	if s.cache == nil || s.cache.Rect != dst.Rect || s.cache.Layout != dst.Layout {
		s.cache = s.render(dst.Rect, dst.Layout)
	}
	copyInto(dst, s.cache, s.scaler)
	return nil
}

func (s *Image) render(r image.Rectangle, l rgb565.Layout) *rgb565.Image {
	out := rgb565.NewImage(r, l)
	sb := s.img.Bounds()
	if sb.Size() == r.Size() {
		draw.Draw(out, r, s.img, sb.Min, draw.Src)
	} else {
		s.scaler.Scale(out, r, s.img, sb, draw.Src, nil)
	}
	return out
}
