package ssd1322

import (
	"image"
	"image/color"

	"github.com/flavioheleno/fbmirror/rgb565"
)

// Gray4 is one of the 16 gray levels of the controller. Only the low 4 bits
// of Y are used.
type Gray4 struct {
	Y uint8
}

// RGBA implements color.Color.
func (c Gray4) RGBA() (r, g, b, a uint32) {
	y := uint32(c.Y&0x0F) * 0x1111
	return y, y, y, 0xFFFF
}

// Gray4Model converts colors to Gray4 using Rec. 601 luma.
var Gray4Model = color.ModelFunc(func(c color.Color) color.Color {
	if g, ok := c.(Gray4); ok {
		return g
	}
	r, g, b, _ := c.RGBA()
	return Gray4{Y: rgb565.Rec601.Luma(uint8(r>>8), uint8(g>>8), uint8(b>>8)) >> 4}
})

// nibbles is a frame in controller RAM order: two pixels per byte, the left
// pixel in the high nibble.
type nibbles struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

func newNibbles(r image.Rectangle) *nibbles {
	stride := r.Dx() / 2
	return &nibbles{
		Pix:    make([]byte, stride*r.Dy()),
		Stride: stride,
		Rect:   r,
	}
}

func (p *nibbles) ColorModel() color.Model { return Gray4Model }

func (p *nibbles) Bounds() image.Rectangle { return p.Rect }

func (p *nibbles) At(x, y int) color.Color {
	return Gray4{Y: p.level(x, y)}
}

func (p *nibbles) Set(x, y int, c color.Color) {
	p.setLevel(x, y, Gray4Model.Convert(c).(Gray4).Y)
}

func (p *nibbles) level(x, y int) uint8 {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return 0
	}
	i, shift := p.offset(x, y)
	return (p.Pix[i] >> shift) & 0x0F
}

func (p *nibbles) setLevel(x, y int, l uint8) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	i, shift := p.offset(x, y)
	p.Pix[i] = p.Pix[i]&^(0x0F<<shift) | (l&0x0F)<<shift
}

// offset returns the byte holding (x, y) and the shift of its nibble:
// 4 for even columns, 0 for odd ones.
func (p *nibbles) offset(x, y int) (int, uint) {
	x -= p.Rect.Min.X
	return (y-p.Rect.Min.Y)*p.Stride + x/2, uint(4 * (1 - x&1))
}
