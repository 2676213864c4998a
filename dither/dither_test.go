package dither

import (
	"testing"
)

func TestMatricesArePermutations(t *testing.T) {
	for _, m := range Methods[1:] {
		t.Run(m.String(), func(t *testing.T) {
			mx := m.Matrix()
			n := mx.Size()
			seen := make([]bool, n*n)
			for y := 0; y < n; y++ {
				for x := 0; x < n; x++ {
					v := mx.At(x, y)
					if v < 0 || v >= n*n {
						t.Fatalf("At(%d, %d) = %d, out of range [0, %d)", x, y, v, n*n)
					}
					if seen[v] {
						t.Fatalf("code %d appears twice", v)
					}
					seen[v] = true
				}
			}
			if mx.Levels() != n*n+1 {
				t.Errorf("Levels() = %d, want %d", mx.Levels(), n*n+1)
			}
		})
	}
}

func TestBayer4x4Table(t *testing.T) {
	want := [4][4]int{
		{0, 8, 2, 10},
		{12, 4, 14, 6},
		{3, 11, 1, 9},
		{15, 7, 13, 5},
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := bayer4.At(x, y); got != want[y][x] {
				t.Errorf("At(%d, %d) = %d, want %d", x, y, got, want[y][x])
			}
		}
	}
}

func TestCutoffMonotonic(t *testing.T) {
	for _, c := range []Cutoff{0, 60, DefaultCutoff, 128, 140, 254} {
		lit := false
		for l := 0; l < 256; l++ {
			got := c.Dither(uint8(l), 3, 7)
			if lit && !got {
				t.Fatalf("%v: luma %d turned a lit pixel off", c, l)
			}
			lit = got
			if want := l > int(c); got != want {
				t.Errorf("%v: Dither(%d) = %v, want %v", c, l, got, want)
			}
		}
	}
}

func TestCutoffTieIsDark(t *testing.T) {
	if Cutoff(128).Dither(128, 0, 0) {
		t.Error("luma equal to the cutoff must not light the pixel")
	}
	if !Cutoff(128).Dither(129, 0, 0) {
		t.Error("luma above the cutoff must light the pixel")
	}
}

func TestMatrixMonotonicPerPosition(t *testing.T) {
	for _, m := range Methods[1:] {
		mx := m.Matrix()
		for y := 0; y < mx.Size(); y++ {
			for x := 0; x < mx.Size(); x++ {
				lit := false
				for l := 0; l < 256; l++ {
					got := mx.Dither(uint8(l), x, y)
					if lit && !got {
						t.Fatalf("%v: luma %d at (%d, %d) turned a lit pixel off", m, l, x, y)
					}
					lit = got
				}
			}
		}
	}
}

func TestMatrixExtremes(t *testing.T) {
	for _, m := range Methods[1:] {
		mx := m.Matrix()
		for y := 0; y < 2*mx.Size(); y++ {
			for x := 0; x < 2*mx.Size(); x++ {
				if mx.Dither(0, x, y) {
					t.Fatalf("%v: black lit pixel (%d, %d)", m, x, y)
				}
				if !mx.Dither(255, x, y) {
					t.Fatalf("%v: white left pixel (%d, %d) dark", m, x, y)
				}
			}
		}
	}
}

func TestMatrixPeriodic(t *testing.T) {
	for _, m := range Methods[1:] {
		mx := m.Matrix()
		n := mx.Size()
		for _, l := range []uint8{17, 64, 100, 128, 200, 250} {
			for y := 0; y < n; y++ {
				for x := 0; x < n; x++ {
					want := mx.Dither(l, x, y)
					for _, d := range [][2]int{{n, 0}, {0, n}, {3 * n, 5 * n}} {
						if got := mx.Dither(l, x+d[0], y+d[1]); got != want {
							t.Fatalf("%v luma %d: (%d, %d) = %v but (%d, %d) = %v",
								m, l, x, y, want, x+d[0], y+d[1], got)
						}
					}
				}
			}
		}
	}
}

func TestMatrixTileDensity(t *testing.T) {
	for _, m := range Methods[1:] {
		mx := m.Matrix()
		n := mx.Size()
		for l := 0; l < 256; l++ {
			count := 0
			for y := 0; y < n; y++ {
				for x := 0; x < n; x++ {
					if mx.Dither(uint8(l), x, y) {
						count++
					}
				}
			}
			if want := l * n * n / 255; count != want {
				t.Fatalf("%v luma %d: %d lit pixels per tile, want %d", m, l, count, want)
			}
		}
	}
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{"none", None, false},
		{"threshold", None, false},
		{"2x2", Bayer2x2, false},
		{"bayer-3x3", Bayer3x3, false},
		{"Bayer4x4", Bayer4x4, false},
		{" 8x8 ", Bayer8x8, false},
		{"16x16", Bayer16x16, false},
		{"5x5", 0, true},
		{"floyd", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMethod(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMethod(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseMethod(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMethodStringRoundTrip(t *testing.T) {
	for _, m := range Methods {
		got, err := ParseMethod(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMethod(%q) = %v, %v; want %v", m.String(), got, err, m)
		}
	}
}

func TestNew(t *testing.T) {
	d, err := New(None, 140)
	if err != nil {
		t.Fatalf("New(None) error = %v", err)
	}
	if c, ok := d.(Cutoff); !ok || c != 140 {
		t.Errorf("New(None, 140) = %v, want Cutoff(140)", d)
	}

	d, err = New(Bayer8x8, 0)
	if err != nil {
		t.Fatalf("New(Bayer8x8) error = %v", err)
	}
	if mx, ok := d.(*Matrix); !ok || mx.Size() != 8 {
		t.Errorf("New(Bayer8x8) = %v, want 8x8 matrix", d)
	}

	if _, err := New(Method(42), 0); err == nil {
		t.Error("New(Method(42)) should fail")
	}
}
