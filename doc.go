// Package fbmirror mirrors a 16-bit color display onto a low resolution
// monochrome display, such as a memory LCD or e-paper panel exposed as a
// secondary Linux framebuffer.
//
// Every frame goes through the same pipeline:
//
//	Source.Capture -> luma per pixel -> dither per pixel -> diff -> Region.Store
//
// The Mirror engine owns two frame buffers. The current frame is computed in
// full before any store happens, then compared with the previously committed
// frame; only samples that changed are stored to the destination Region.
// The two buffers then swap roles, no data is copied.
//
// # First Frame
//
// With FirstFrameFull (the default) the previous frame starts out filled
// with a marker that matches no sample, so the first commit stores every
// pixel exactly once. FirstFrameCleared assumes the destination was just
// cleared to 0 and only stores lit pixels on the first commit.
//
// # Pacing
//
// A Pacer runs the pipeline at a target rate:
//
//	m, err := fbmirror.New(src, dst, &opts)
//	if err != nil {
//		return err
//	}
//	p := fbmirror.NewPacer(10*physic.Hertz, false)
//	stats, err := p.Run(ctx, m)
//
// A cycle that finishes early sleeps for the remainder of the period; a
// cycle that overruns starts the next one immediately. Cancelling ctx stops
// the loop at the next cycle boundary, never in the middle of a frame.
//
// # Destinations
//
// Any type implementing Region can receive frames. The fbdev package maps a
// Linux framebuffer; the ssd1322 package drives an SPI OLED panel and
// implements Flusher to batch stores into a single transfer.
package fbmirror
