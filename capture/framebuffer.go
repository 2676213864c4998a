package capture

import (
	"image"

	"github.com/go-errors/errors"
	"golang.org/x/image/draw"

	"github.com/flavioheleno/fbmirror/fbdev"
	"github.com/flavioheleno/fbmirror/rgb565"
)

// Framebuffer captures a 16 bpp Linux framebuffer mapped read-only.
type Framebuffer struct {
	dev    *fbdev.Device
	view   *rgb565.Image
	scaler draw.Scaler

	// Set on pannable devices. Pan offsets are read again before every
	// capture so a page-flipping source is followed.
	refresh func() (fbdev.Info, error)
	info    fbdev.Info
	mem     []byte
}

// OpenFramebuffer maps the framebuffer at path. The device must be 16 bits
// per pixel; its channel layout is read from the device.
func OpenFramebuffer(path string, scaler draw.Scaler) (*Framebuffer, error) {
	dev, err := fbdev.OpenSource(path)
	if err != nil {
		return nil, err
	}
	info := dev.Info()
	view, err := viewOf(info, dev.Bytes())
	if err != nil {
		dev.Close()
		return nil, err
	}
	f := newFramebuffer(dev, view, scaler)
	if info.Pannable() {
		f.follow(info, dev.Bytes(), dev.Refresh)
	}
	return f, nil
}

func newFramebuffer(dev *fbdev.Device, view *rgb565.Image, scaler draw.Scaler) *Framebuffer {
	if scaler == nil {
		scaler = DefaultScaler
	}
	return &Framebuffer{dev: dev, view: view, scaler: scaler}
}

// follow makes Capture track the pan offsets reported by refresh.
func (f *Framebuffer) follow(info fbdev.Info, mem []byte, refresh func() (fbdev.Info, error)) {
	f.info, f.mem, f.refresh = info, mem, refresh
}

// repan moves the view when the source has panned since the last capture.
func (f *Framebuffer) repan() error {
	info, err := f.refresh()
	if err != nil {
		return errors.WrapPrefix(err, "capture", 0)
	}
	if info.XOffset == f.info.XOffset && info.YOffset == f.info.YOffset {
		return nil
	}
	view, err := viewOf(info, f.mem)
	if err != nil {
		return err
	}
	f.info, f.view = info, view
	return nil
}

// viewOf returns an image aliasing the visible part of mem.
func viewOf(info fbdev.Info, mem []byte) (*rgb565.Image, error) {
	l, err := info.Layout()
	if err != nil {
		return nil, err
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, errors.Errorf("capture: %s has no visible area", info.ID)
	}
	start := info.YOffset*info.LineLength + info.XOffset*2
	need := start + (info.Height-1)*info.LineLength + 2*info.Width
	if info.LineLength < 2*info.Width || len(mem) < need {
		return nil, errors.Errorf("capture: %s: %d bytes mapped, %dx%d at line length %d needs %d",
			info.ID, len(mem), info.Width, info.Height, info.LineLength, need)
	}
	return &rgb565.Image{
		Pix:    mem[start:need],
		Stride: info.LineLength,
		Rect:   image.Rect(0, 0, info.Width, info.Height),
		Layout: l,
	}, nil
}

// Layout returns the pixel layout of the framebuffer.
func (f *Framebuffer) Layout() rgb565.Layout {
	return f.view.Layout
}

// Bounds returns the visible area of the framebuffer.
func (f *Framebuffer) Bounds() image.Rectangle {
	return f.view.Rect
}

// Capture copies the visible framebuffer into dst.
func (f *Framebuffer) Capture(dst *rgb565.Image) error {
	if f.view == nil {
		return errors.New("capture: framebuffer is closed")
	}
	if f.refresh != nil {
		if err := f.repan(); err != nil {
			return err
		}
	}
	copyInto(dst, f.view, f.scaler)
	return nil
}

// Close unmaps the framebuffer.
func (f *Framebuffer) Close() error {
	f.view = nil
	f.refresh = nil
	if f.dev == nil {
		return nil
	}
	return f.dev.Close()
}
