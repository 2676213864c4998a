// Package ssd1322 drives a SSD1322 OLED panel over SPI as a mirror
// destination.
//
// The SSD1322 is a 4-bit grayscale controller with 480x128 pixels of RAM.
// Panels narrower than 480 columns are centered in it. Frames are kept in a
// shadow buffer packed the way the controller stores them, two pixels per
// byte with the left pixel in the high nibble:
//
//	Pixels: 0  1  2  3
//	Levels: 5  10 3  12
//	Bytes:  0x5A  0x3C
//
// # Mirroring
//
// Dev implements the Len/Store/Flush destination contract: the mirror
// stores the changed one-bit samples, each lit sample becomes Opts.Level,
// and Flush sends only the bounding box of the bytes that changed since the
// previous Flush, so an idle screen costs no SPI traffic at all.
//
// # Hardware Connection
//
//	Display Pin → System Pin
//	GND         → GND
//	VCC         → 3.3V
//	SCL/CLK     → SPI Clock (SCLK)
//	SDA/MOSI    → SPI Data (MOSI)
//	DC          → GPIO (any available pin)
//	CS          → SPI Chip Select (or GND if always selected)
//	RES         → Optional: GPIO for hardware reset
//
// # Usage
//
//	if _, err := host.Init(); err != nil {
//		return err
//	}
//	port, err := spireg.Open("")
//	if err != nil {
//		return err
//	}
//	defer port.Close()
//	dev, err := ssd1322.NewSPI(port, gpioreg.ByName("GPIO25"), &ssd1322.Opts{W: 256, H: 64})
//	if err != nil {
//		return err
//	}
//	defer dev.Close()
//
// When a reset pin is given in Opts.RST the driver pulls it low for 200ms
// before initialization.
//
// Dev also implements display.Drawer from periph.io, rendering any image in
// 16 gray levels through the same differential path.
//
// # Datasheet
//
// https://www.displayfuture.com/Display/datasheet/controller/SSD1322.pdf
package ssd1322
