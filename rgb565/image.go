package rgb565

import (
	"image"
	"image/color"
)

// Color is a packed 16-bit pixel together with its layout.
type Color struct {
	P      uint16
	Layout Layout
}

// RGBA converts the pixel to 16-bit-per-channel opaque RGBA.
func (c Color) RGBA() (r, g, b, a uint32) {
	r8, g8, b8 := c.Layout.Expand(c.P)
	r = uint32(r8) * 0x101
	g = uint32(g8) * 0x101
	b = uint32(b8) * 0x101
	return r, g, b, 0xFFFF
}

// Model returns the color model that converts colors to l.
func (l Layout) Model() color.Model {
	return color.ModelFunc(func(c color.Color) color.Color {
		if p, ok := c.(Color); ok && p.Layout == l {
			return p
		}
		r, g, b, _ := c.RGBA()
		return Color{P: l.Pack(uint8(r>>8), uint8(g>>8), uint8(b>>8)), Layout: l}
	})
}

// Image is a 16-bit image whose pixels are stored little-endian, two bytes
// per pixel, as found in a 16 bpp Linux framebuffer.
type Image struct {
	Pix    []byte          // Pixel data, 2 bytes per pixel
	Stride int             // Bytes per row, at least 2*Rect.Dx()
	Rect   image.Rectangle // Image bounds
	Layout Layout          // Bit layout of every pixel
}

// NewImage allocates an image with the specified bounds and a tight stride.
func NewImage(r image.Rectangle, l Layout) *Image {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return &Image{Rect: r, Layout: l}
	}
	return &Image{
		Pix:    make([]byte, 2*w*h),
		Stride: 2 * w,
		Rect:   r,
		Layout: l,
	}
}

// ColorModel returns the model of the image layout.
func (p *Image) ColorModel() color.Model {
	return p.Layout.Model()
}

// Bounds returns the image bounds.
func (p *Image) Bounds() image.Rectangle {
	return p.Rect
}

// At returns the color of the pixel at (x, y).
func (p *Image) At(x, y int) color.Color {
	return Color{P: p.PixelAt(x, y), Layout: p.Layout}
}

// PixelAt returns the packed pixel at (x, y), or 0 outside the bounds.
func (p *Image) PixelAt(x, y int) uint16 {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return 0
	}
	i := p.PixOffset(x, y)
	return uint16(p.Pix[i]) | uint16(p.Pix[i+1])<<8
}

// Set converts c to the image layout and stores it at (x, y).
func (p *Image) Set(x, y int, c color.Color) {
	p.SetPixel(x, y, p.Layout.Model().Convert(c).(Color).P)
}

// SetPixel stores the packed pixel v at (x, y).
func (p *Image) SetPixel(x, y int, v uint16) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	p.Pix[i] = byte(v)
	p.Pix[i+1] = byte(v >> 8)
}

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (p *Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*2
}

// Row returns the bytes of row y, trimmed to the image width.
func (p *Image) Row(y int) []byte {
	i := (y - p.Rect.Min.Y) * p.Stride
	return p.Pix[i : i+2*p.Rect.Dx()]
}

// Fill sets every pixel of the image to v.
func (p *Image) Fill(v uint16) {
	for y := p.Rect.Min.Y; y < p.Rect.Max.Y; y++ {
		row := p.Row(y)
		for i := 0; i < len(row); i += 2 {
			row[i] = byte(v)
			row[i+1] = byte(v >> 8)
		}
	}
}
