//go:build linux

package fbdev

import (
	"bytes"
	"os"
	"unsafe"

	"github.com/go-errors/errors"
	"golang.org/x/sys/unix"
)

const (
	ioctlGetVarScreenInfo = 0x4600
	ioctlGetFixScreenInfo = 0x4602
)

// fixScreenInfo mirrors struct fb_fix_screeninfo.
type fixScreenInfo struct {
	ID           [16]byte
	SmemStart    uintptr
	SmemLen      uint32
	Type         uint32
	TypeAux      uint32
	Visual       uint32
	XPanStep     uint16
	YPanStep     uint16
	YWrapStep    uint16
	LineLength   uint32
	MmioStart    uintptr
	MmioLen      uint32
	Accel        uint32
	Capabilities uint16
	Reserved     [2]uint16
}

// varScreenInfo mirrors struct fb_var_screeninfo.
type varScreenInfo struct {
	XRes, YRes               uint32
	XResVirtual, YResVirtual uint32
	XOffset, YOffset         uint32
	BitsPerPixel             uint32
	Grayscale                uint32
	Red, Green, Blue, Transp BitField
	NonStd                   uint32
	Activate                 uint32
	Height, Width            uint32
	AccelFlags               uint32
	PixClock                 uint32
	LeftMargin, RightMargin  uint32
	UpperMargin, LowerMargin uint32
	HSyncLen, VSyncLen       uint32
	Sync                     uint32
	VMode                    uint32
	Rotate                   uint32
	Colorspace               uint32
	Reserved                 [4]uint32
}

func open(path string, writable bool) (*Device, error) {
	flag, prot := os.O_RDONLY, unix.PROT_READ
	if writable {
		flag, prot = os.O_RDWR, unix.PROT_READ|unix.PROT_WRITE
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, errors.WrapPrefix(err, "fbdev", 0)
	}
	var fix fixScreenInfo
	if err := ioctl(f.Fd(), ioctlGetFixScreenInfo, unsafe.Pointer(&fix)); err != nil {
		f.Close()
		return nil, errors.WrapPrefix(err, "fbdev: "+path+": FBIOGET_FSCREENINFO", 0)
	}
	var v varScreenInfo
	if err := ioctl(f.Fd(), ioctlGetVarScreenInfo, unsafe.Pointer(&v)); err != nil {
		f.Close()
		return nil, errors.WrapPrefix(err, "fbdev: "+path+": FBIOGET_VSCREENINFO", 0)
	}
	if fix.SmemLen == 0 {
		f.Close()
		return nil, errors.Errorf("fbdev: %s reports no video memory", path)
	}
	mem, err := unix.Mmap(int(f.Fd()), 0, int(fix.SmemLen), prot, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, errors.WrapPrefix(err, "fbdev: "+path+": mmap", 0)
	}

	d := &Device{
		path:     path,
		info:     newInfo(&fix, &v),
		mem:      mem,
		writable: writable,
	}
	d.release = func() error {
		return errors.Join(unix.Munmap(mem), f.Close())
	}
	d.pan = func() (int, int, error) {
		var v varScreenInfo
		if err := ioctl(f.Fd(), ioctlGetVarScreenInfo, unsafe.Pointer(&v)); err != nil {
			return 0, 0, errors.WrapPrefix(err, "fbdev: "+path+": FBIOGET_VSCREENINFO", 0)
		}
		return int(v.XOffset), int(v.YOffset), nil
	}
	return d, nil
}

func newInfo(fix *fixScreenInfo, v *varScreenInfo) Info {
	id := fix.ID[:]
	if n := bytes.IndexByte(id, 0); n >= 0 {
		id = id[:n]
	}
	return Info{
		ID:            string(id),
		Width:         int(v.XRes),
		Height:        int(v.YRes),
		VirtualWidth:  int(v.XResVirtual),
		VirtualHeight: int(v.YResVirtual),
		XOffset:       int(v.XOffset),
		YOffset:       int(v.YOffset),
		BitsPerPixel:  int(v.BitsPerPixel),
		LineLength:    int(fix.LineLength),
		Size:          int(fix.SmemLen),
		Red:           v.Red,
		Green:         v.Green,
		Blue:          v.Blue,
	}
}

func ioctl(fd, req uintptr, arg unsafe.Pointer) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(arg)); errno != 0 {
		return os.NewSyscallError("ioctl", errno)
	}
	return nil
}
