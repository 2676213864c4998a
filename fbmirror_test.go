package fbmirror

import (
	"errors"
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavioheleno/fbmirror/dither"
	"github.com/flavioheleno/fbmirror/rgb565"
)

const (
	black = 0x0000
	white = 0xFFFF
)

// fakeSource paints its pixels map over a uniform background.
type fakeSource struct {
	bg     uint16
	pixels map[image.Point]uint16
	err    error
	calls  int
}

func (s *fakeSource) Capture(dst *rgb565.Image) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	dst.Fill(s.bg)
	for p, v := range s.pixels {
		dst.SetPixel(p.X, p.Y, v)
	}
	return nil
}

type store struct {
	i int
	v byte
}

type memRegion struct {
	mem     []byte
	stores  []store
	flushes int
	err     error
}

func newMemRegion(n int) *memRegion {
	return &memRegion{mem: make([]byte, n)}
}

func (r *memRegion) Len() int { return len(r.mem) }

func (r *memRegion) Store(i int, v byte) {
	r.mem[i] = v
	r.stores = append(r.stores, store{i, v})
}

func (r *memRegion) Flush() error {
	r.flushes++
	return r.err
}

func (r *memRegion) reset() { r.stores = nil }

func thresholdOpts(w, h int) *Opts {
	return &Opts{W: w, H: h, Ditherer: dither.Cutoff(dither.DefaultCutoff)}
}

func TestNew(t *testing.T) {
	src := &fakeSource{}
	tests := []struct {
		name string
		dst  Region
		opts *Opts
		err  bool
	}{
		{"defaults", newMemRegion(400 * 240), nil, false},
		{"larger region", newMemRegion(100), thresholdOpts(8, 8), false},
		{"region too small", newMemRegion(63), thresholdOpts(8, 8), true},
		{"zero width", newMemRegion(64), thresholdOpts(0, 8), true},
		{"negative height", newMemRegion(64), thresholdOpts(8, -1), true},
		{"nil region", nil, thresholdOpts(8, 8), true},
		{"bad encoding", newMemRegion(64), &Opts{W: 8, H: 8, Encoding: 7}, true},
		{"bad method", newMemRegion(64), &Opts{W: 8, H: 8, Method: 42}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(src, tt.dst, tt.opts)
			if tt.err {
				assert.Error(t, err)
				assert.Nil(t, m)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, m.String())
		})
	}
}

func TestFirstFrameFull(t *testing.T) {
	const w, h = 8, 4
	dst := newMemRegion(w * h)
	m, err := New(&fakeSource{bg: black}, dst, thresholdOpts(w, h))
	require.NoError(t, err)

	for _, s := range m.Committed() {
		assert.Equal(t, byte(unset), s)
	}

	n, err := m.Step()
	require.NoError(t, err)
	assert.Equal(t, w*h, n)
	require.Len(t, dst.stores, w*h)
	for i, s := range dst.stores {
		assert.Equal(t, store{i, 0}, s, "stores are row-major")
	}
	assert.Equal(t, 1, dst.flushes)
}

func TestFirstFrameCleared(t *testing.T) {
	const w, h = 8, 4
	src := &fakeSource{bg: black, pixels: map[image.Point]uint16{{3, 2}: white}}
	dst := newMemRegion(w * h)
	opts := thresholdOpts(w, h)
	opts.FirstFrame = FirstFrameCleared
	m, err := New(src, dst, opts)
	require.NoError(t, err)

	n, err := m.Step()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []store{{2*w + 3, 1}}, dst.stores)
}

func TestUnchangedFrameWritesNothing(t *testing.T) {
	const w, h = 16, 8
	src := &fakeSource{bg: 0x8410}
	dst := newMemRegion(w * h)
	m, err := New(src, dst, &Opts{W: w, H: h, Method: dither.Bayer4x4})
	require.NoError(t, err)

	_, err = m.Step()
	require.NoError(t, err)
	dst.reset()
	for i := 0; i < 3; i++ {
		n, err := m.Step()
		require.NoError(t, err)
		assert.Zero(t, n)
	}
	assert.Empty(t, dst.stores)
	assert.Equal(t, 4, dst.flushes)
}

func TestSinglePixelChange(t *testing.T) {
	const w, h = 10, 6
	src := &fakeSource{bg: black}
	dst := newMemRegion(w * h)
	m, err := New(src, dst, thresholdOpts(w, h))
	require.NoError(t, err)
	_, err = m.Step()
	require.NoError(t, err)

	dst.reset()
	src.pixels = map[image.Point]uint16{{9, 5}: white}
	n, err := m.Step()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []store{{5*w + 9, 1}}, dst.stores)

	dst.reset()
	src.pixels = nil
	n, err = m.Step()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []store{{5*w + 9, 0}}, dst.stores)
}

func TestEncoding(t *testing.T) {
	tests := []struct {
		enc  Encoding
		want byte
	}{
		{EncodingBit, 1},
		{EncodingByte, 0xFF},
	}
	for _, tt := range tests {
		t.Run(tt.enc.String(), func(t *testing.T) {
			dst := newMemRegion(4)
			opts := thresholdOpts(2, 2)
			opts.Encoding = tt.enc
			m, err := New(&fakeSource{bg: white}, dst, opts)
			require.NoError(t, err)
			_, err = m.Step()
			require.NoError(t, err)
			for _, v := range dst.mem {
				assert.Equal(t, tt.want, v)
			}
		})
	}
}

func TestCutoffTie(t *testing.T) {
	// 0x8410 expands to (132, 130, 132), luma 131 under Rec601.
	tests := []struct {
		cutoff uint8
		lit    bool
	}{
		{130, true},
		{131, false},
		{132, false},
	}
	for _, tt := range tests {
		dst := newMemRegion(1)
		m, err := New(&fakeSource{bg: 0x8410}, dst, &Opts{W: 1, H: 1, Ditherer: dither.Cutoff(tt.cutoff)})
		require.NoError(t, err)
		_, err = m.Step()
		require.NoError(t, err)
		assert.Equal(t, tt.lit, dst.mem[0] == 1, "cutoff %d", tt.cutoff)
	}
}

func TestRegionMatchesCommittedFrame(t *testing.T) {
	const w, h = 24, 12
	rnd := rand.New(rand.NewSource(1))
	src := &fakeSource{}
	dst := newMemRegion(w * h)
	m, err := New(src, dst, &Opts{W: w, H: h, Method: dither.Bayer8x8, Encoding: EncodingByte})
	require.NoError(t, err)

	for frame := 0; frame < 20; frame++ {
		src.bg = uint16(rnd.Intn(1 << 16))
		src.pixels = map[image.Point]uint16{}
		for i := 0; i < 30; i++ {
			src.pixels[image.Pt(rnd.Intn(w), rnd.Intn(h))] = uint16(rnd.Intn(1 << 16))
		}
		_, err := m.Step()
		require.NoError(t, err)
		for i, s := range m.Committed() {
			require.Equal(t, EncodingByte.value(s), dst.mem[i], "frame %d pixel %d", frame, i)
		}
	}
}

func TestStepErrors(t *testing.T) {
	boom := errors.New("boom")

	m, err := New(&fakeSource{err: boom}, newMemRegion(4), thresholdOpts(2, 2))
	require.NoError(t, err)
	_, err = m.Step()
	var ce *CycleError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, Capturing, ce.State)
	assert.ErrorIs(t, err, boom)

	dst := newMemRegion(4)
	dst.err = boom
	m, err = New(&fakeSource{}, dst, thresholdOpts(2, 2))
	require.NoError(t, err)
	n, err := m.Step()
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, Writing, ce.State)
	assert.Equal(t, 4, n)
}

func TestSnapshot(t *testing.T) {
	src := &fakeSource{bg: black, pixels: map[image.Point]uint16{{1, 0}: white}}
	m, err := New(src, newMemRegion(4), thresholdOpts(2, 2))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, m.Snapshot().Pix)

	_, err = m.Step()
	require.NoError(t, err)
	img := m.Snapshot()
	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
	assert.Equal(t, []byte{0, 0xFF, 0, 0}, img.Pix)
}

func TestParseEncodingAndPolicy(t *testing.T) {
	for _, e := range []Encoding{EncodingBit, EncodingByte} {
		got, err := ParseEncoding(e.String())
		require.NoError(t, err)
		assert.Equal(t, e, got)
	}
	_, err := ParseEncoding("nibble")
	assert.Error(t, err)

	for _, p := range []FirstFramePolicy{FirstFrameFull, FirstFrameCleared} {
		got, err := ParseFirstFrame(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err = ParseFirstFrame("random")
	assert.Error(t, err)
}

// litInTile counts the non-zero samples of the n×n tile at (x0, y0).
func litInTile(mem []byte, w, x0, y0, n int) int {
	lit := 0
	for y := y0; y < y0+n; y++ {
		for x := x0; x < x0+n; x++ {
			if mem[y*w+x] != 0 {
				lit++
			}
		}
	}
	return lit
}

func TestScenarios(t *testing.T) {
	const w, h = 16, 16
	all := func(want byte) func(t *testing.T, mem []byte) {
		return func(t *testing.T, mem []byte) {
			for i, v := range mem {
				require.Equal(t, want, v, "pixel %d", i)
			}
		}
	}

	dark := rgb565.RGB565.Pack(64, 64, 64)
	bright := rgb565.RGB565.Pack(192, 192, 192)
	checker := &fakeSource{bg: dark, pixels: map[image.Point]uint16{}}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 1 {
				checker.pixels[image.Pt(x, y)] = bright
			}
		}
	}

	tests := []struct {
		name  string
		src   *fakeSource
		opts  *Opts
		check func(t *testing.T, mem []byte)
	}{
		{"white above cutoff 128", &fakeSource{bg: white}, &Opts{W: w, H: h, Ditherer: dither.Cutoff(128)}, all(1)},
		{"checkerboard bayer 4x4", checker, &Opts{W: w, H: h, Method: dither.Bayer4x4}, func(t *testing.T, mem []byte) {
			for ty := 0; ty < h; ty += 4 {
				for tx := 0; tx < w; tx += 4 {
					assert.InDelta(t, 8, litInTile(mem, w, tx, ty, 4), 1, "tile (%d, %d)", tx, ty)
				}
			}
		}},
	}
	for _, m := range dither.Methods {
		tests = append(tests, struct {
			name  string
			src   *fakeSource
			opts  *Opts
			check func(t *testing.T, mem []byte)
		}{"black " + m.String(), &fakeSource{bg: black}, &Opts{W: w, H: h, Method: m, Cutoff: dither.DefaultCutoff}, all(0)})
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := newMemRegion(w * h)
			m, err := New(tt.src, dst, tt.opts)
			require.NoError(t, err)
			n, err := m.Step()
			require.NoError(t, err)
			assert.Equal(t, w*h, n, "first frame stores every pixel")
			tt.check(t, dst.mem)
		})
	}
}
