// Package color provides the colour conversions used at the decode boundary:
// sRGB transfer curves, CMYK palettes, CIE Lab/LCh and HSV/HSL for the
// non-separable blend modes, and grayscale ramps for palette-less bitplanes.
//
// Components are float64 in [0,1] unless a name says otherwise. Lookup
// tables are built on first use and are read-only afterwards.
package color

// RGB is a colour with components in [0,1], in the space indicated by
// context (perceptual sRGB unless stated).
type RGB struct {
	R, G, B float64
}

// HSV is hue in [0,1) (fraction of a turn), saturation and value in [0,1].
type HSV struct {
	H, S, V float64
}

// HSL is hue in [0,1), saturation and lightness in [0,1].
type HSL struct {
	H, S, L float64
}

// Lab is CIE L*a*b* relative to D65. L is in [0,100].
type Lab struct {
	L, A, B float64
}

// LCh is the cylindrical form of Lab. H is in degrees [0,360).
type LCh struct {
	L, C, H float64
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Quantize8 maps [0,1] to an 8-bit sample with rounding and clamping.
func Quantize8(v float64) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}

// Quantize16 maps [0,1] to a 16-bit sample with rounding and clamping.
func Quantize16(v float64) uint16 {
	return uint16(clamp01(v)*65535 + 0.5)
}
