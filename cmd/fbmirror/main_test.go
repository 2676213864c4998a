package main

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/flavioheleno/fbmirror"
	"github.com/flavioheleno/fbmirror/dither"
	"github.com/flavioheleno/fbmirror/rgb565"
)

func TestDefaultFlags(t *testing.T) {
	require.NoError(t, rootCmd.Flags().Parse(nil))
	opts, err := options()
	require.NoError(t, err)
	assert.Equal(t, dither.Bayer4x4, opts.Method)
	assert.Equal(t, uint8(dither.DefaultCutoff), opts.Cutoff)
	assert.Equal(t, rgb565.Rec601, opts.Weights)
	assert.Equal(t, fbmirror.EncodingBit, opts.Encoding)
	assert.Equal(t, fbmirror.FirstFrameFull, opts.FirstFrame)
	assert.Equal(t, 10, fpsFlag)
	assert.Equal(t, "/dev/fb1", deviceFlag)
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"threshold", []string{"--dither", "none", "--cutoff", "140"}, false},
		{"legacy weights", []string{"--weights", "legacy", "--encoding", "byte"}, false},
		{"zero fps", []string{"--fps", "0"}, true},
		{"bad dither", []string{"--dither", "5x5"}, true},
		{"bad encoding", []string{"--encoding", "nibble"}, true},
		{"bad first frame", []string{"--first-frame", "maybe"}, true},
		{"bad weights", []string{"--weights", "0,0,0"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := rootCmd.Flags()
			require.NoError(t, f.Parse(tt.args))
			t.Cleanup(func() {
				f.VisitAll(func(fl *pflag.Flag) {
					_ = fl.Value.Set(fl.DefValue)
					fl.Changed = false
				})
			})
			_, err := options()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, l := range []string{"debug", "info", "WARN", "error"} {
		_, err := newLogger(l)
		assert.NoError(t, err, l)
	}
	_, err := newLogger("chatty")
	assert.Error(t, err)
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, 400, orDefault(0, 400))
	assert.Equal(t, 128, orDefault(128, 400))
	assert.Equal(t, 400, orDefault(-1, 400))
}

func TestWriteSnapshot(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 2))
	img.Pix[1] = 0xFF
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "frame.png")
	require.NoError(t, writeSnapshot(pngPath, img))
	f, err := os.Open(pngPath)
	require.NoError(t, err)
	defer f.Close()
	got, format, err := image.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, img.Bounds(), got.Bounds())

	bmpPath := filepath.Join(dir, "frame.bmp")
	require.NoError(t, writeSnapshot(bmpPath, img))
	b, err := os.Open(bmpPath)
	require.NoError(t, err)
	defer b.Close()
	decoded, err := bmp.Decode(b)
	require.NoError(t, err)
	r, _, _, _ := decoded.At(1, 0).RGBA()
	assert.Equal(t, uint32(0xFFFF), r)

	assert.Error(t, writeSnapshot(filepath.Join(dir, "missing", "frame.png"), img))
}
