package ssd1322

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

var errHalted = errors.New("ssd1322: halted")

// Opts is the configuration for the SSD1322 display.
type Opts struct {
	// Display dimensions in pixels
	W int // Width (default: 256, must be even and ≤480)
	H int // Height (default: 64, must be ≤128)

	// Rotation and mirroring
	Rotated       bool // 180° rotation
	Sequential    bool // Sequential COM pin configuration
	SwapTopBottom bool // Swap top/bottom display halves

	// Level is the gray level (1-15) of lit mirror samples. 0 means 15.
	Level uint8

	// Optional hardware reset pin
	RST gpio.PinIO
}

// Dev is the device handle for the SSD1322 display.
//
// Dev is a mirror destination: Store updates a shadow frame one sample at a
// time and Flush sends the bounding box of what changed since the previous
// Flush in a single SPI transfer.
type Dev struct {
	c   conn.Conn
	dc  gpio.PinOut
	rst gpio.PinIO

	rect         image.Rectangle
	columnOffset int // centers the panel in the 480 column RAM
	level        uint8

	next *nibbles // pending frame
	last []byte   // frame held by the controller RAM

	halted bool
}

var _ display.Drawer = (*Dev)(nil)

// NewSPI creates a new SSD1322 device connected via SPI.
//
// The SPI port is configured for 10MHz, Mode0, 8-bit transfers. The display
// RAM is cleared and the panel switched on before NewSPI returns.
//
// opts can be nil to use defaults (256x64 display).
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{W: 256, H: 64}
	}
	if opts.W <= 0 || opts.W%2 != 0 || opts.W > 480 {
		return nil, errors.New("ssd1322: width must be even and between 2 and 480")
	}
	if opts.H <= 0 || opts.H > 128 {
		return nil, errors.New("ssd1322: height must be between 1 and 128")
	}
	if opts.Level > 15 {
		return nil, errors.New("ssd1322: level must be between 0 and 15")
	}
	if dc == nil {
		return nil, errors.New("ssd1322: a data/command pin is required")
	}

	c, err := p.Connect(10*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("ssd1322: %w", err)
	}

	level := opts.Level
	if level == 0 {
		level = 15
	}
	rect := image.Rect(0, 0, opts.W, opts.H)
	d := &Dev{
		c:            c,
		dc:           dc,
		rst:          opts.RST,
		rect:         rect,
		columnOffset: (480 - opts.W) / 2,
		level:        level,
		next:         newNibbles(rect),
		last:         make([]byte, opts.W*opts.H/2),
	}
	if err := d.init(opts); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) init(opts *Opts) error {
	if d.rst != nil {
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("ssd1322: failed to pull RST low: %w", err)
		}
		time.Sleep(200 * time.Millisecond)
		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("ssd1322: failed to pull RST high: %w", err)
		}
		time.Sleep(200 * time.Millisecond)
	}

	remap1, remap2 := byte(0x14), byte(0x11)
	if opts.Rotated {
		remap1 = 0x06
	}
	if opts.Sequential {
		remap2 |= 0x01
	}
	if opts.SwapTopBottom {
		remap2 |= 0x02
	}
	cmds := []byte{
		0xFD, 0x12, // unlock
		0xAE,       // display off
		0xB3, 0xF2, // clock divider
		0xCA, byte(opts.H - 1), // mux ratio
		0xA2, 0x00, // display offset
		0xA1, 0x00, // start line
		0xA0, remap1, remap2, // remap, dual COM
		0xAB, 0x01, // internal VDD
		0xB4, 0xA0, 0xFD, // VSL
		0xC1, 0xFF, // contrast
		0xC7, 0x0F, // master contrast
		0xB9,       // default gray table
		0xB1, 0xE2, // phase length
		0xD1, 0x82, 0x20, // enhancement
		0xBB, 0x1F, // pre-charge voltage
		0xB6, 0x08, // second pre-charge
		0xBE, 0x07, // VCOMH
		0xA6, // normal mode
		0xA9, // exit partial mode
	}
	if err := d.sendCommands(cmds); err != nil {
		return err
	}
	if err := d.clearRAM(); err != nil {
		return err
	}
	return d.sendCommand(0xAF)
}

// clearRAM zeroes the panel area of the display RAM.
func (d *Dev) clearRAM() error {
	return d.writeRect(d.rect, make([]byte, len(d.last)))
}

func (d *Dev) sendCommand(cmd byte) error {
	return d.sendCommands([]byte{cmd})
}

func (d *Dev) sendCommands(cmds []byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	return d.c.Tx(cmds, nil)
}

func (d *Dev) sendData(data []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	return d.c.Tx(data, nil)
}

// writeRect sets the RAM window to r and streams pixels into it.
func (d *Dev) writeRect(r image.Rectangle, pixels []byte) error {
	cmds := []byte{
		0x15, byte((r.Min.X + d.columnOffset) / 2), byte((r.Max.X - 1 + d.columnOffset) / 2),
		0x75, byte(r.Min.Y), byte(r.Max.Y - 1),
		0x5C, // write RAM
	}
	if err := d.sendCommands(cmds); err != nil {
		return err
	}
	return d.sendData(pixels)
}

// Len returns the number of pixels of the panel.
func (d *Dev) Len() int {
	return d.rect.Dx() * d.rect.Dy()
}

// Store sets pixel i, counted row-major, to the configured level when v is
// non-zero and to black otherwise. Nothing is sent until Flush.
func (d *Dev) Store(i int, v byte) {
	w := d.rect.Dx()
	var l uint8
	if v != 0 {
		l = d.level
	}
	d.next.setLevel(i%w, i/w, l)
}

// Flush sends the smallest rectangle covering every pixel changed since the
// last Flush.
func (d *Dev) Flush() error {
	if d.halted {
		return errHalted
	}
	r := d.changed()
	if r.Empty() {
		return nil
	}
	if err := d.writeRect(r, d.extract(r)); err != nil {
		return err
	}
	copy(d.last, d.next.Pix)
	return nil
}

// changed returns the bounding box, in pixels, of the bytes that differ
// between the pending frame and the RAM frame. Each byte covers two pixels
// so the box always has even edges.
func (d *Dev) changed() image.Rectangle {
	stride := d.next.Stride
	minB, maxB := stride, -1
	minY, maxY := d.rect.Dy(), -1
	for y := 0; y < d.rect.Dy(); y++ {
		row := d.next.Pix[y*stride : (y+1)*stride]
		old := d.last[y*stride : (y+1)*stride]
		if bytes.Equal(row, old) {
			continue
		}
		minY = min(minY, y)
		maxY = y
		for x := range row {
			if row[x] != old[x] {
				minB = min(minB, x)
				maxB = max(maxB, x)
			}
		}
	}
	if maxY < 0 {
		return image.Rectangle{}
	}
	return image.Rect(2*minB, minY, 2*maxB+2, maxY+1)
}

// extract copies the bytes of r out of the pending frame.
func (d *Dev) extract(r image.Rectangle) []byte {
	stride := d.next.Stride
	w := r.Dx() / 2
	out := make([]byte, 0, w*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := y*stride + r.Min.X/2
		out = append(out, d.next.Pix[i:i+w]...)
	}
	return out
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return Gray4Model
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Draw implements display.Drawer. The image is rendered in 16 gray levels
// into the shadow frame and the changed area is flushed.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return errHalted
	}
	dst = dst.Intersect(d.rect)
	if dst.Empty() {
		return nil
	}
	draw.Draw(d.next, dst, src, sp, draw.Src)
	return d.Flush()
}

// SetContrast sets the display contrast (0-255).
func (d *Dev) SetContrast(contrast byte) error {
	if d.halted {
		return errHalted
	}
	return d.sendCommands([]byte{0xC1, contrast})
}

// Invert inverts the display colors.
func (d *Dev) Invert(invert bool) error {
	if d.halted {
		return errHalted
	}
	mode := byte(0xA6)
	if invert {
		mode = 0xA7
	}
	return d.sendCommand(mode)
}

// Halt powers off the display. The device does not accept further frames.
func (d *Dev) Halt() error {
	d.halted = true
	return d.sendCommand(0xAE)
}

// Close blanks the display RAM and powers the display off.
func (d *Dev) Close() error {
	if d.halted {
		return nil
	}
	clear(d.next.Pix)
	clear(d.last)
	return errors.Join(d.clearRAM(), d.Halt())
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("ssd1322.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}
