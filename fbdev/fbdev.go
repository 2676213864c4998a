// Package fbdev maps Linux framebuffer devices into memory.
//
// A Device opened with Open is a writable destination: it is zeroed on open
// and again on Close, and implements the Len/Store pair expected of a mirror
// destination. OpenSource maps a device read-only for capture.
package fbdev

import (
	"fmt"
	"strings"

	"github.com/go-errors/errors"

	"github.com/flavioheleno/fbmirror/rgb565"
)

// BitField describes where a color channel sits in a pixel.
type BitField struct {
	Offset   uint32
	Length   uint32
	MSBRight uint32
}

// Info is the geometry of a framebuffer, from its fixed and variable screen
// info.
type Info struct {
	ID            string
	Width, Height int // visible resolution
	VirtualWidth  int
	VirtualHeight int
	XOffset       int
	YOffset       int
	BitsPerPixel  int
	LineLength    int // bytes per row
	Size          int // length of the mapped memory
	Red           BitField
	Green         BitField
	Blue          BitField
}

func (i Info) String() string {
	return fmt.Sprintf("%s %dx%d %dbpp line=%d", i.ID, i.Width, i.Height, i.BitsPerPixel, i.LineLength)
}

// Layout returns the 16-bit pixel layout described by the channel bit
// fields. Drivers that leave the bit fields empty are assumed to be RGB565.
func (i Info) Layout() (rgb565.Layout, error) {
	if i.BitsPerPixel != 16 {
		return 0, errors.Errorf("fbdev: %s: %d bits per pixel, need 16", i.ID, i.BitsPerPixel)
	}
	switch {
	case i.Red.Length == 0 && i.Green.Length == 0 && i.Blue.Length == 0:
		return rgb565.RGB565, nil
	case i.Red.Length == 5 && i.Green.Length == 6 && i.Blue.Length == 5:
		return rgb565.RGB565, nil
	case i.Red.Length == 5 && i.Green.Length == 5 && i.Blue.Length == 5:
		return rgb565.RGB555, nil
	}
	return 0, errors.Errorf("fbdev: %s: unsupported channel lengths %d/%d/%d",
		i.ID, i.Red.Length, i.Green.Length, i.Blue.Length)
}

// Pannable reports whether the virtual resolution is larger than the
// visible one, so the visible area can move.
func (i Info) Pannable() bool {
	return i.VirtualWidth > i.Width || i.VirtualHeight > i.Height
}

// Check returns advisory warnings for a framebuffer used as a one byte per
// pixel destination. None of them prevents mirroring.
func (i Info) Check() []string {
	var w []string
	if i.BitsPerPixel != 8 {
		w = append(w, fmt.Sprintf("%d bits per pixel, expected 8", i.BitsPerPixel))
	}
	if i.Width%16 != 0 {
		w = append(w, fmt.Sprintf("width %d is not a multiple of 16", i.Width))
	}
	if bpp := i.BitsPerPixel / 8; bpp > 0 && i.LineLength != i.Width*bpp {
		w = append(w, fmt.Sprintf("line length %d does not match width %d, rows are padded", i.LineLength, i.Width))
	}
	if i.Size < i.Width*i.Height {
		w = append(w, fmt.Sprintf("memory size %d is smaller than %dx%d", i.Size, i.Width, i.Height))
	}
	return w
}

// Device is a mapped framebuffer.
type Device struct {
	path     string
	info     Info
	mem      []byte
	writable bool
	release  func() error
	pan      func() (x, y int, err error)
}

// Path returns the device path.
func (d *Device) Path() string {
	return d.path
}

// Info returns the geometry read at open time or by the last Refresh.
func (d *Device) Info() Info {
	return d.info
}

// Refresh reads the pan offsets again and returns the updated geometry.
// Everything else in Info is fixed while the device is open.
func (d *Device) Refresh() (Info, error) {
	if d.mem == nil {
		return d.info, errors.Errorf("fbdev: %s is closed", d.path)
	}
	if d.pan == nil {
		return d.info, nil
	}
	x, y, err := d.pan()
	if err != nil {
		return d.info, err
	}
	d.info.XOffset, d.info.YOffset = x, y
	return d.info, nil
}

// Bytes returns the mapped memory. It is invalid after Close.
func (d *Device) Bytes() []byte {
	return d.mem
}

// Len returns the number of mapped bytes.
func (d *Device) Len() int {
	return len(d.mem)
}

// Store writes v at byte offset i.
func (d *Device) Store(i int, v byte) {
	d.mem[i] = v
}

// Clear zeroes the mapped memory.
func (d *Device) Clear() error {
	if !d.writable {
		return errors.Errorf("fbdev: %s is mapped read-only", d.path)
	}
	clear(d.mem)
	return nil
}

// Close zeroes a writable device, then unmaps and closes it.
func (d *Device) Close() error {
	if d == nil || d.mem == nil {
		return nil
	}
	if d.writable {
		clear(d.mem)
	}
	var err error
	if d.release != nil {
		err = d.release()
	}
	d.mem = nil
	return err
}

func (d *Device) String() string {
	return "fbdev.Device{" + d.path + ": " + strings.TrimSpace(d.info.String()) + "}"
}

// Open maps the framebuffer at path read-write and zeroes it.
func Open(path string) (*Device, error) {
	d, err := open(path, true)
	if err != nil {
		return nil, err
	}
	clear(d.mem)
	return d, nil
}

// OpenSource maps the framebuffer at path read-only.
func OpenSource(path string) (*Device, error) {
	return open(path, false)
}
