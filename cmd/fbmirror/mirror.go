package main

import (
	"context"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-errors/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/flavioheleno/fbmirror"
	"github.com/flavioheleno/fbmirror/capture"
	"github.com/flavioheleno/fbmirror/dither"
	"github.com/flavioheleno/fbmirror/fbdev"
	"github.com/flavioheleno/fbmirror/rgb565"
	"github.com/flavioheleno/fbmirror/ssd1322"
)

type destination interface {
	fbmirror.Region
	io.Closer
}

type source interface {
	fbmirror.Source
	io.Closer
}

// mirror sets up the source and destination from the flags and runs the
// pacing loop until ctx is cancelled, --once completes or a cycle fails.
// The destination is closed, and so zeroed, on every return path.
func mirror(ctx context.Context) (err error) {
	log, err := newLogger(logLevelFlag)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	opts, err := options()
	if err != nil {
		return err
	}
	scaler, err := capture.ParseScaler(scalerFlag)
	if err != nil {
		return err
	}

	dst, size, err := openDestination(log)
	if err != nil {
		return errors.WrapPrefix(err, "destination", 0)
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = errors.WrapPrefix(cerr, "close destination", 0)
		}
	}()

	src, layout, err := openSource(scaler)
	if err != nil {
		return errors.WrapPrefix(err, "source", 0)
	}
	defer src.Close()

	opts.W, opts.H = size.X, size.Y
	opts.Logger = log
	if layoutFlag == "auto" {
		opts.Layout = layout
	} else if opts.Layout, err = rgb565.ParseLayout(layoutFlag); err != nil {
		return err
	}

	m, err := fbmirror.New(src, dst, opts)
	if err != nil {
		return errors.Wrap(err, 0)
	}
	log.Info("fbmirror: mirroring", "mirror", m, "fps", fpsFlag, "once", onceFlag)

	p := fbmirror.NewPacer(physic.Frequency(fpsFlag)*physic.Hertz, onceFlag)
	p.Logger = log
	stats, runErr := p.Run(ctx, m)
	log.Info("fbmirror: stopped",
		"frames", stats.Frames,
		"writes", stats.Writes,
		"overruns", stats.Overruns,
		"busy", stats.Busy,
	)
	if snapshotFlag != "" {
		if err := writeSnapshot(snapshotFlag, m.Snapshot()); err != nil {
			return err
		}
		log.Info("fbmirror: snapshot written", "path", snapshotFlag)
	}
	if runErr != nil {
		return errors.Wrap(runErr, 0)
	}
	return nil
}

// options builds the mirror configuration from the flags. Geometry and
// layout are filled in once the devices are open.
func options() (*fbmirror.Opts, error) {
	if fpsFlag <= 0 {
		return nil, errors.Errorf("--fps must be positive, got %d", fpsFlag)
	}
	opts := fbmirror.DefaultOpts
	var err error
	if opts.Method, err = dither.ParseMethod(ditherFlag); err != nil {
		return nil, err
	}
	opts.Cutoff = cutoffFlag
	if opts.Weights, err = rgb565.ParseWeights(weightsFlag); err != nil {
		return nil, err
	}
	if opts.Encoding, err = fbmirror.ParseEncoding(encodingFlag); err != nil {
		return nil, err
	}
	if opts.FirstFrame, err = fbmirror.ParseFirstFrame(firstFrameFlag); err != nil {
		return nil, err
	}
	return &opts, nil
}

func openDestination(log *slog.Logger) (destination, image.Point, error) {
	switch strings.ToLower(panelFlag) {
	case "":
		dev, err := fbdev.Open(deviceFlag)
		if err != nil {
			return nil, image.Point{}, err
		}
		info := dev.Info()
		for _, w := range info.Check() {
			log.Warn("fbmirror: unexpected destination geometry", "device", deviceFlag, "warning", w)
		}
		log.Debug("fbmirror: destination open", "device", dev)
		return dev, image.Pt(orDefault(widthFlag, info.Width), orDefault(heightFlag, info.Height)), nil
	case "ssd1322":
		return openPanel()
	}
	return nil, image.Point{}, errors.Errorf("unknown panel %q", panelFlag)
}

// panel is an SSD1322 together with the SPI port it owns.
type panel struct {
	*ssd1322.Dev
	port spi.PortCloser
}

func (p *panel) Close() error {
	return errors.Join(p.Dev.Close(), p.port.Close())
}

func openPanel() (destination, image.Point, error) {
	if _, err := host.Init(); err != nil {
		return nil, image.Point{}, err
	}
	dc := gpioreg.ByName(dcFlag)
	if dc == nil {
		return nil, image.Point{}, errors.Errorf("unknown DC pin %q", dcFlag)
	}
	var rst gpio.PinIO
	if rstFlag != "" {
		if rst = gpioreg.ByName(rstFlag); rst == nil {
			return nil, image.Point{}, errors.Errorf("unknown RST pin %q", rstFlag)
		}
	}
	port, err := spireg.Open(spiFlag)
	if err != nil {
		return nil, image.Point{}, err
	}
	size := image.Pt(orDefault(widthFlag, 256), orDefault(heightFlag, 64))
	dev, err := ssd1322.NewSPI(port, dc, &ssd1322.Opts{W: size.X, H: size.Y, Level: levelFlag, RST: rst})
	if err != nil {
		port.Close()
		return nil, image.Point{}, err
	}
	return &panel{Dev: dev, port: port}, size, nil
}

// still adapts a capture.Image, which holds no resources, to source.
type still struct {
	*capture.Image
}

func (still) Close() error { return nil }

func openSource(scaler draw.Scaler) (source, rgb565.Layout, error) {
	if imageFlag != "" {
		img, err := capture.OpenImage(imageFlag, scaler)
		if err != nil {
			return nil, 0, err
		}
		return still{img}, rgb565.RGB565, nil
	}
	fb, err := capture.OpenFramebuffer(sourceFlag, scaler)
	if err != nil {
		return nil, 0, err
	}
	return fb, fb.Layout(), nil
}

func writeSnapshot(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapPrefix(err, "snapshot", 0)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp":
		err = bmp.Encode(f, img)
	default:
		err = png.Encode(f, img)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.WrapPrefix(err, "snapshot", 0)
	}
	return nil
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
