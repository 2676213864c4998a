// Command fbmirror mirrors a 16 bpp framebuffer onto a monochrome display.
//
// The destination is a one byte per pixel Linux framebuffer, such as the one
// exposed by a Sharp memory LCD driver, or an SSD1322 OLED panel on SPI.
//
//	fbmirror --source /dev/fb0 --device /dev/fb1 --fps 10 --dither 4x4
//	fbmirror --image splash.png --once --snapshot out.png
//	fbmirror --panel ssd1322 --dc GPIO25 --width 256 --height 64
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/go-errors/errors"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           filepath.Base(os.Args[0]),
	Short:         "mirror a framebuffer onto a monochrome display",
	Long:          "fbmirror captures a 16 bpp framebuffer at a fixed rate, dithers it to one bit per pixel and writes the pixels that changed to a monochrome display.",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mirror(cmd.Context())
	},
}

var (
	fpsFlag        int
	ditherFlag     string
	cutoffFlag     uint8
	onceFlag       bool
	deviceFlag     string
	sourceFlag     string
	imageFlag      string
	widthFlag      int
	heightFlag     int
	encodingFlag   string
	layoutFlag     string
	weightsFlag    string
	firstFrameFlag string
	scalerFlag     string
	panelFlag      string
	spiFlag        string
	dcFlag         string
	rstFlag        string
	levelFlag      uint8
	snapshotFlag   string
	logLevelFlag   string
	debugFlag      bool
)

func init() {
	f := rootCmd.Flags()
	f.IntVar(&fpsFlag, `fps`, 10, `frames per second`)
	f.StringVar(&ditherFlag, `dither`, `4x4`, `dithering: none, 2x2, 3x3, 4x4, 8x8 or 16x16`)
	f.Uint8Var(&cutoffFlag, `cutoff`, 127, `luma threshold used by --dither none`)
	f.BoolVar(&onceFlag, `once`, false, `mirror a single frame and exit`)
	f.StringVar(&deviceFlag, `device`, `/dev/fb1`, `destination framebuffer`)
	f.StringVar(&sourceFlag, `source`, `/dev/fb0`, `source framebuffer`)
	f.StringVar(&imageFlag, `image`, ``, `mirror a still image instead of --source`)
	f.IntVar(&widthFlag, `width`, 0, `destination width, 0 for the device width`)
	f.IntVar(&heightFlag, `height`, 0, `destination height, 0 for the device height`)
	f.StringVar(&encodingFlag, `encoding`, `bit`, `lit pixel value: bit (1) or byte (255)`)
	f.StringVar(&layoutFlag, `layout`, `auto`, `source pixel layout: auto, 565 or 555`)
	f.StringVar(&weightsFlag, `weights`, `rec601`, `luma weights: rec601, legacy or R,G,B per mille`)
	f.StringVar(&firstFrameFlag, `first-frame`, `full`, `first frame policy: full or cleared`)
	f.StringVar(&scalerFlag, `scaler`, `approx-bilinear`, `scaler: nearest, approx-bilinear, bilinear or catmull-rom`)
	f.StringVar(&panelFlag, `panel`, ``, `drive a panel instead of --device: ssd1322`)
	f.StringVar(&spiFlag, `spi`, ``, `SPI port of the panel, empty for the first one`)
	f.StringVar(&dcFlag, `dc`, `GPIO25`, `data/command pin of the panel`)
	f.StringVar(&rstFlag, `rst`, ``, `optional reset pin of the panel`)
	f.Uint8Var(&levelFlag, `level`, 15, `gray level of lit pixels on the panel (1-15)`)
	f.StringVar(&snapshotFlag, `snapshot`, ``, `write the last frame to a .png or .bmp file on exit`)
	f.StringVar(&logLevelFlag, `log-level`, `info`, `log level: debug, info, warn or error`)
	f.BoolVarP(&debugFlag, `debug`, `d`, false, `print error stacks`)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		report(err)
		os.Exit(1)
	}
}

func report(err error) {
	if stackFramer, ok := err.(interface{ ErrorStack() string }); debugFlag && ok {
		fmt.Fprintln(os.Stderr, stackFramer.ErrorStack())
		return
	}
	fmt.Fprintln(os.Stderr, "fbmirror: "+err.Error())
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, errors.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}
