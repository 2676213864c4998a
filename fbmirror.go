package fbmirror

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/flavioheleno/fbmirror/dither"
	"github.com/flavioheleno/fbmirror/rgb565"
)

// Region is the destination pixel memory, addressed by linear pixel index
// (row-major, one sample per index).
type Region interface {
	// Len returns the number of addressable samples.
	Len() int
	// Store sets the sample at index i to the encoded value v.
	Store(i int, v byte)
}

// Flusher is implemented by regions that buffer stores. Flush is called once
// after every commit.
type Flusher interface {
	Flush() error
}

// Source provides snapshots of the mirrored display.
type Source interface {
	// Capture fills dst with the current source pixels. dst always has the
	// destination geometry.
	Capture(dst *rgb565.Image) error
}

// Encoding is the byte value stored for a lit sample. Dark samples are
// always stored as 0.
type Encoding uint8

const (
	EncodingBit  Encoding = iota // lit samples are stored as 1
	EncodingByte                 // lit samples are stored as 255
)

// ParseEncoding parses "bit" (or "1") and "byte" (or "255").
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(s) {
	case "bit", "1":
		return EncodingBit, nil
	case "byte", "255":
		return EncodingByte, nil
	}
	return 0, fmt.Errorf("fbmirror: unknown encoding %q", s)
}

func (e Encoding) String() string {
	switch e {
	case EncodingBit:
		return "bit"
	case EncodingByte:
		return "byte"
	}
	return fmt.Sprintf("Encoding(%d)", uint8(e))
}

// value returns the stored byte for logical sample s.
func (e Encoding) value(s byte) byte {
	if s == 0 {
		return 0
	}
	if e == EncodingByte {
		return 0xFF
	}
	return 1
}

// FirstFramePolicy decides what the first commit compares against.
type FirstFramePolicy uint8

const (
	// FirstFrameFull stores every pixel on the first commit.
	FirstFrameFull FirstFramePolicy = iota
	// FirstFrameCleared assumes a destination cleared to 0 and stores only
	// lit pixels on the first commit.
	FirstFrameCleared
)

// ParseFirstFrame parses "full" or "cleared".
func ParseFirstFrame(s string) (FirstFramePolicy, error) {
	switch strings.ToLower(s) {
	case "full":
		return FirstFrameFull, nil
	case "cleared":
		return FirstFrameCleared, nil
	}
	return 0, fmt.Errorf("fbmirror: unknown first frame policy %q", s)
}

func (p FirstFramePolicy) String() string {
	switch p {
	case FirstFrameFull:
		return "full"
	case FirstFrameCleared:
		return "cleared"
	}
	return fmt.Sprintf("FirstFramePolicy(%d)", uint8(p))
}

// Opts is the configuration of a Mirror.
type Opts struct {
	// Destination dimensions in pixels
	W int
	H int

	// Source pixel decoding
	Layout  rgb565.Layout
	Weights rgb565.Weights // zero value means rgb565.Rec601

	// Dithering. Ditherer, when set, takes precedence over Method.
	Method   dither.Method
	Cutoff   uint8 // threshold for dither.None
	Ditherer dither.Ditherer

	// Output
	Encoding   Encoding
	FirstFrame FirstFramePolicy

	Logger *slog.Logger // nil means slog.Default()
}

// DefaultOpts matches a 400x240 memory LCD mirroring an RGB565 display.
var DefaultOpts = Opts{
	W:       400,
	H:       240,
	Layout:  rgb565.RGB565,
	Weights: rgb565.Rec601,
	Method:  dither.Bayer4x4,
	Cutoff:  dither.DefaultCutoff,
}

// Mirror is the frame pipeline: it captures a source snapshot, reduces it to
// one bit per pixel and stores the changed pixels to the destination.
//
// A Mirror is not safe for concurrent use.
type Mirror struct {
	src Source
	dst Region

	rect   image.Rectangle
	luma   *rgb565.LumaTable
	dither dither.Ditherer
	enc    Encoding

	snap   *rgb565.Image // capture buffer, reused every cycle
	frames *framePair

	log *slog.Logger
}

// New creates a Mirror reading from src and writing to dst.
//
// opts can be nil to use DefaultOpts.
func New(src Source, dst Region, opts *Opts) (*Mirror, error) {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	if src == nil || dst == nil {
		return nil, errors.New("fbmirror: source and destination are required")
	}
	if opts.W <= 0 || opts.H <= 0 {
		return nil, errors.New("fbmirror: width and height must be positive")
	}
	if n := opts.W * opts.H; dst.Len() < n {
		return nil, fmt.Errorf("fbmirror: destination holds %d samples, %dx%d needs %d", dst.Len(), opts.W, opts.H, n)
	}
	if opts.Encoding > EncodingByte {
		return nil, fmt.Errorf("fbmirror: invalid encoding %v", opts.Encoding)
	}
	if opts.FirstFrame > FirstFrameCleared {
		return nil, fmt.Errorf("fbmirror: invalid first frame policy %v", opts.FirstFrame)
	}

	d := opts.Ditherer
	if d == nil {
		var err error
		if d, err = dither.New(opts.Method, opts.Cutoff); err != nil {
			return nil, fmt.Errorf("fbmirror: %w", err)
		}
	}
	w := opts.Weights
	if w == (rgb565.Weights{}) {
		w = rgb565.Rec601
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	rect := image.Rect(0, 0, opts.W, opts.H)
	m := &Mirror{
		src:    src,
		dst:    dst,
		rect:   rect,
		luma:   rgb565.NewLumaTable(opts.Layout, w),
		dither: d,
		enc:    opts.Encoding,
		snap:   rgb565.NewImage(rect, opts.Layout),
		frames: newFramePair(opts.W*opts.H, opts.FirstFrame),
		log:    log,
	}
	log.Debug("fbmirror: pipeline ready",
		"size", fmt.Sprintf("%dx%d", opts.W, opts.H),
		"layout", opts.Layout,
		"weights", w,
		"dither", d,
		"encoding", opts.Encoding,
		"first_frame", opts.FirstFrame,
	)
	return m, nil
}

// Bounds returns the destination geometry.
func (m *Mirror) Bounds() image.Rectangle {
	return m.rect
}

// Capture takes a snapshot of the source into the capture buffer.
func (m *Mirror) Capture() error {
	return m.src.Capture(m.snap)
}

// Process converts the last snapshot into the current frame.
func (m *Mirror) Process() {
	cur := m.frames.current()
	w, h := m.rect.Dx(), m.rect.Dy()
	for y := 0; y < h; y++ {
		row := m.snap.Row(y)
		out := cur[y*w : (y+1)*w]
		for x := range out {
			p := uint16(row[2*x]) | uint16(row[2*x+1])<<8
			if m.dither.Dither(m.luma.Luma(p), x, y) {
				out[x] = 1
			} else {
				out[x] = 0
			}
		}
	}
}

// Commit stores every sample of the current frame that differs from the
// previously committed frame, flushes the destination if it buffers, and
// makes the current frame the committed one. It returns the number of
// stored samples.
func (m *Mirror) Commit() (int, error) {
	n := m.frames.commit(m.dst, m.enc)
	if f, ok := m.dst.(Flusher); ok {
		if err := f.Flush(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Step runs one full cycle: Capture, Process and Commit.
func (m *Mirror) Step() (int, error) {
	if err := m.Capture(); err != nil {
		return 0, &CycleError{State: Capturing, Err: err}
	}
	m.Process()
	n, err := m.Commit()
	if err != nil {
		return n, &CycleError{State: Writing, Err: err}
	}
	return n, nil
}

// Committed returns the last committed frame, one logical sample (0 or 1)
// per pixel. Before the first commit it holds the first frame marker.
// The slice is owned by the Mirror and is overwritten by the next cycle.
func (m *Mirror) Committed() []byte {
	return m.frames.previous()
}

// Snapshot renders the last committed frame as a gray image, lit samples
// white and everything else black.
func (m *Mirror) Snapshot() *image.Gray {
	img := image.NewGray(m.rect)
	for i, s := range m.frames.previous() {
		if s == 1 {
			img.Pix[i] = 0xFF
		}
	}
	return img
}

// String returns a string representation of the mirror.
func (m *Mirror) String() string {
	return fmt.Sprintf("fbmirror.Mirror{%dx%d, %v}", m.rect.Dx(), m.rect.Dy(), m.dither)
}
