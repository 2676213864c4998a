package dither

import "fmt"

// Matrix is an N×N ordered dither table holding each threshold code
// 0..N²-1 exactly once.
//
// A luma value is scaled onto the code range with
//
//	scaled = luma * N² / 255   (integer division)
//
// and the pixel is lit when scaled > M[y mod N][x mod N]. Luma 0 therefore
// never lights a pixel, luma 255 lights all of them, and a uniform luma
// lights exactly scaled pixels of every N×N tile, giving N²+1 gray levels.
type Matrix struct {
	n int
	t []uint8
}

var (
	bayer2  = newBayer(2)
	bayer3  = newMatrix(3, []uint8{0, 7, 3, 6, 5, 2, 4, 1, 8})
	bayer4  = newBayer(4)
	bayer8  = newBayer(8)
	bayer16 = newBayer(16)
)

func newMatrix(n int, t []uint8) *Matrix {
	if len(t) != n*n {
		panic(fmt.Sprintf("dither: %dx%d matrix with %d entries", n, n, len(t)))
	}
	return &Matrix{n: n, t: t}
}

// newBayer builds the n×n Bayer index matrix (n a power of two) using the
// recursive construction
//
//	M(2k) = | 4·M(k)+0  4·M(k)+2 |
//	        | 4·M(k)+3  4·M(k)+1 |
func newBayer(n int) *Matrix {
	t := []uint8{0}
	for k := 1; k < n; k *= 2 {
		next := make([]uint8, 4*k*k)
		for y := 0; y < k; y++ {
			for x := 0; x < k; x++ {
				v := 4 * t[y*k+x]
				next[y*2*k+x] = v
				next[y*2*k+x+k] = v + 2
				next[(y+k)*2*k+x] = v + 3
				next[(y+k)*2*k+x+k] = v + 1
			}
		}
		t = next
	}
	return newMatrix(n, t)
}

// Size returns N.
func (m *Matrix) Size() int { return m.n }

// Levels returns the number of distinct gray levels the matrix reproduces.
func (m *Matrix) Levels() int { return m.n*m.n + 1 }

// At returns the threshold code used for the pixel at column x, row y.
// x and y must not be negative.
func (m *Matrix) At(x, y int) int {
	return int(m.t[(y%m.n)*m.n+x%m.n])
}

// Scale maps luma onto the matrix code range [0, N²].
func (m *Matrix) Scale(luma uint8) int {
	return int(luma) * m.n * m.n / 255
}

// Dither implements Ditherer.
func (m *Matrix) Dither(luma uint8, x, y int) bool {
	return m.Scale(luma) > m.At(x, y)
}

func (m *Matrix) String() string {
	return fmt.Sprintf("bayer(%dx%d)", m.n, m.n)
}
