package rgb565

import (
	"fmt"
	"strings"
)

// Layout is the bit layout of a 16-bit source pixel.
type Layout uint8

const (
	// RGB565 packs red in bits 15-11, green in 10-5 and blue in 4-0.
	RGB565 Layout = iota
	// RGB555 packs red in bits 14-10, green in 9-5 and blue in 4-0.
	// Bit 15 is padding (or alpha) and is ignored.
	RGB555
)

// ParseLayout parses "565" or "555" (an optional "rgb" prefix is accepted).
func ParseLayout(s string) (Layout, error) {
	switch strings.TrimPrefix(strings.ToLower(s), "rgb") {
	case "565":
		return RGB565, nil
	case "555":
		return RGB555, nil
	}
	return 0, fmt.Errorf("rgb565: unknown layout %q", s)
}

func (l Layout) String() string {
	switch l {
	case RGB565:
		return "RGB565"
	case RGB555:
		return "RGB555"
	}
	return fmt.Sprintf("Layout(%d)", uint8(l))
}

// bits returns the red, green and blue channel widths.
func (l Layout) bits() (r, g, b uint) {
	if l == RGB555 {
		return 5, 5, 5
	}
	return 5, 6, 5
}

// Split returns the native channel codes of p without widening them.
func (l Layout) Split(p uint16) (r, g, b uint8) {
	if l == RGB555 {
		return uint8(p>>10) & 0x1F, uint8(p>>5) & 0x1F, uint8(p) & 0x1F
	}
	return uint8(p>>11) & 0x1F, uint8(p>>5) & 0x3F, uint8(p) & 0x1F
}

// Expand returns the channels of p widened to 8 bits by bit replication.
func (l Layout) Expand(p uint16) (r, g, b uint8) {
	rn, gn, bn := l.bits()
	r, g, b = l.Split(p)
	return expand(r, rn), expand(g, gn), expand(b, bn)
}

// Pack is the inverse of Expand: it truncates 8-bit channels to the layout.
func (l Layout) Pack(r, g, b uint8) uint16 {
	if l == RGB555 {
		return uint16(r>>3)<<10 | uint16(g>>3)<<5 | uint16(b>>3)
	}
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// expand widens an n-bit code (4 <= n <= 8) to 8 bits, repeating its high
// bits in the vacated low bits.
func expand(v uint8, n uint) uint8 {
	return v<<(8-n) | v>>(2*n-8)
}

// Weights are the per-mille red, green and blue luma coefficients.
type Weights struct {
	R, G, B uint32
}

// MaxWeight is the largest coefficient ParseWeights accepts.
const MaxWeight = 1000

var (
	// Rec601 are the ITU-R BT.601 luma weights (0.299, 0.587, 0.114).
	Rec601 = Weights{R: 299, G: 587, B: 114}
	// Legacy are the green-heavy weights (0.2, 0.7, 0.1) used by the raspi2fb
	// family of mirroring tools.
	Legacy = Weights{R: 200, G: 700, B: 100}
)

// ParseWeights parses "rec601", "legacy" or an explicit "R,G,B" per-mille
// triple such as "299,587,114".
func ParseWeights(s string) (Weights, error) {
	switch strings.ToLower(s) {
	case "", "rec601", "bt601":
		return Rec601, nil
	case "legacy", "raspi2fb":
		return Legacy, nil
	}
	var w Weights
	if _, err := fmt.Sscanf(s, "%d,%d,%d", &w.R, &w.G, &w.B); err != nil {
		return Weights{}, fmt.Errorf("rgb565: invalid weights %q: %w", s, err)
	}
	if w.R > MaxWeight || w.G > MaxWeight || w.B > MaxWeight {
		return Weights{}, fmt.Errorf("rgb565: invalid weights %q: each must be at most %d", s, MaxWeight)
	}
	if w.R+w.G+w.B == 0 {
		return Weights{}, fmt.Errorf("rgb565: invalid weights %q: all zero", s)
	}
	return w, nil
}

func (w Weights) String() string {
	return fmt.Sprintf("%d,%d,%d", w.R, w.G, w.B)
}

// Luma returns the weighted sum of 8-bit channels, rounded and clamped to
// [0, 255].
func (w Weights) Luma(r, g, b uint8) uint8 {
	y := (uint64(w.R)*uint64(r) + uint64(w.G)*uint64(g) + uint64(w.B)*uint64(b) + 500) / 1000
	if y > 255 {
		return 255
	}
	return uint8(y)
}

// LumaTable holds the luma of every possible 16-bit pixel for one layout
// and weight triple.
type LumaTable struct {
	layout  Layout
	weights Weights
	y       [1 << 16]uint8
}

// NewLumaTable computes the luma of all 65536 pixel values.
func NewLumaTable(l Layout, w Weights) *LumaTable {
	t := &LumaTable{layout: l, weights: w}
	for p := range t.y {
		r, g, b := l.Expand(uint16(p))
		t.y[p] = w.Luma(r, g, b)
	}
	return t
}

// Luma returns the luma of p.
func (t *LumaTable) Luma(p uint16) uint8 {
	return t.y[p]
}

// Layout returns the layout the table was built for.
func (t *LumaTable) Layout() Layout { return t.layout }

// Weights returns the weights the table was built for.
func (t *LumaTable) Weights() Weights { return t.weights }
