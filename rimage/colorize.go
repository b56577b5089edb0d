package rimage

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Default reliable range used by Colorize when the sensor reports none.
const (
	DefaultMinReliable = Depth(500)
	DefaultMaxReliable = Depth(4500)
)

// Palette maps an 8-bit intensity to a display color.
type Palette [256]color.RGBA

// JetPalette returns the blue-cyan-yellow-red palette.
func JetPalette() *Palette {
	var p Palette
	for i := range p {
		v := float64(i) / 255
		c := colorful.Color{
			R: jetChannel(v, 3),
			G: jetChannel(v, 2),
			B: jetChannel(v, 1),
		}
		r, g, b := c.Clamped().RGB255()
		p[i] = color.RGBA{r, g, b, 255}
	}
	return &p
}

func jetChannel(v, center float64) float64 {
	return 1.5 - math.Abs(4*v-center)
}

// HuePalette returns a palette sweeping hue from 30 to 230 degrees at full saturation.
func HuePalette() *Palette {
	var p Palette
	for i := range p {
		ratio := float64(i) / 255
		r, g, b := colorful.Hsv(30+(200.0*ratio), 1.0, 1.0).Clamped().RGB255()
		p[i] = color.RGBA{r, g, b, 255}
	}
	return &p
}

// PaletteNamed returns the palette called name; "" selects jet.
func PaletteNamed(name string) (*Palette, bool) {
	switch name {
	case "", "jet":
		return JetPalette(), true
	case "hue":
		return HuePalette(), true
	default:
		return nil, false
	}
}

// Intensity linearly maps d from [minReliable, maxReliable] onto [0, 255], clamping outside
// the range. An empty or inverted range falls back to the defaults.
func Intensity(d, minReliable, maxReliable Depth) uint8 {
	if maxReliable <= minReliable {
		minReliable, maxReliable = DefaultMinReliable, DefaultMaxReliable
	}
	v := 255 * (float64(d) - float64(minReliable)) / (float64(maxReliable) - float64(minReliable))
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

// Colorize renders dm for debugging: each depth becomes an intensity over the reliable
// range and is then looked up in palette (jet when nil).
func Colorize(dm *DepthMap, minReliable, maxReliable Depth, palette *Palette) *image.RGBA {
	if palette == nil {
		palette = JetPalette()
	}
	img := image.NewRGBA(dm.Bounds())
	for i, z := range dm.data {
		c := palette[Intensity(z, minReliable, maxReliable)]
		copy(img.Pix[4*i:4*i+4], []uint8{c.R, c.G, c.B, c.A})
	}
	return img
}
