// Package dither maps a luma value and a pixel position to a single output
// bit.
//
// Two strategies are provided. Cutoff is a plain threshold with no spatial
// dependency. Matrix is ordered (Bayer) dithering: each pixel is compared
// against a threshold taken from an N×N table repeated over the image, so a
// uniform gray produces a fixed pattern whose density of lit pixels follows
// the gray level.
//
// Both strategies resolve ties to 0: a pixel is lit only when its value
// strictly exceeds the threshold.
package dither

import (
	"fmt"
	"strings"
)

// Ditherer turns the luma of the pixel at column x, row y into an output
// bit. Implementations are pure and safe for concurrent use.
type Ditherer interface {
	Dither(luma uint8, x, y int) bool
}

// DefaultCutoff is the threshold used by the None method.
const DefaultCutoff = 127

// Cutoff is threshold dithering: a pixel is lit when its luma is strictly
// greater than the cutoff.
type Cutoff uint8

// Dither implements Ditherer.
func (c Cutoff) Dither(luma uint8, _, _ int) bool {
	return luma > uint8(c)
}

func (c Cutoff) String() string {
	return fmt.Sprintf("threshold(%d)", uint8(c))
}

// Method selects a dithering strategy.
type Method uint8

const (
	None Method = iota // threshold, see Cutoff
	Bayer2x2
	Bayer3x3
	Bayer4x4
	Bayer8x8
	Bayer16x16
)

// Methods lists every supported method.
var Methods = []Method{None, Bayer2x2, Bayer3x3, Bayer4x4, Bayer8x8, Bayer16x16}

// ParseMethod parses a method name. Accepted spellings are "none" or
// "threshold", and "NxN", "bayerNxN" or "bayer-NxN" for N in 2, 3, 4, 8, 16.
func ParseMethod(s string) (Method, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(strings.TrimPrefix(s, "bayer"), "-")
	switch s {
	case "none", "threshold":
		return None, nil
	case "2x2":
		return Bayer2x2, nil
	case "3x3":
		return Bayer3x3, nil
	case "4x4":
		return Bayer4x4, nil
	case "8x8":
		return Bayer8x8, nil
	case "16x16":
		return Bayer16x16, nil
	}
	return 0, fmt.Errorf("dither: unknown method %q", s)
}

func (m Method) String() string {
	switch m {
	case None:
		return "none"
	case Bayer2x2:
		return "2x2"
	case Bayer3x3:
		return "3x3"
	case Bayer4x4:
		return "4x4"
	case Bayer8x8:
		return "8x8"
	case Bayer16x16:
		return "16x16"
	}
	return fmt.Sprintf("Method(%d)", uint8(m))
}

// Matrix returns the threshold matrix of an ordered method, or nil for None.
func (m Method) Matrix() *Matrix {
	switch m {
	case Bayer2x2:
		return bayer2
	case Bayer3x3:
		return bayer3
	case Bayer4x4:
		return bayer4
	case Bayer8x8:
		return bayer8
	case Bayer16x16:
		return bayer16
	}
	return nil
}

// New returns the Ditherer for m. cutoff is only used by None.
func New(m Method, cutoff uint8) (Ditherer, error) {
	if m == None {
		return Cutoff(cutoff), nil
	}
	if mx := m.Matrix(); mx != nil {
		return mx, nil
	}
	return nil, fmt.Errorf("dither: unknown method %d", uint8(m))
}
