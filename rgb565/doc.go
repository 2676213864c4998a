// Package rgb565 decodes 16-bit packed RGB framebuffer pixels into 8-bit
// channels and a luma (grayscale) value.
//
// Two bit layouts are supported, both stored little-endian in memory:
//
//	RGB565: rrrrrggg gggbbbbb  (red 5, green 6, blue 5)
//	RGB555: xrrrrrgg gggbbbbb  (top bit ignored, 5 bits per channel)
//
// Channels are widened to 8 bits by bit replication rather than a plain
// shift, so the lowest native code maps to 0 and the highest to 255:
//
//	5-bit 0b11111 -> 0b11111_111 = 255
//	6-bit 0b100000 -> 0b100000_10 = 130
//
// Luma is a per-mille weighted sum of the widened channels, rounded to the
// nearest integer and clamped to 255. Rec601 (299/587/114) is the default.
// Because the input space is only 65536 values, NewLumaTable precomputes
// the luma of every pixel once per process:
//
//	lt := rgb565.NewLumaTable(rgb565.RGB565, rgb565.Rec601)
//	y := lt.Luma(0xFFFF) // 255
//
// Image wraps a 16-bit pixel buffer (for example a memory mapped
// framebuffer) as a draw.Image so it can be used with the standard image
// packages and with golang.org/x/image/draw scalers.
package rgb565
