package color

import (
	"math"
	"sync"
)

// SRGBToLinear converts an sRGB component to linear (EOTF).
// Formula: if s <= 0.04045: s/12.92; else: pow((s+0.055)/1.055, 2.4)
func SRGBToLinear(s float64) float64 {
	if s <= 0.04045 {
		return s / 12.92
	}
	return math.Pow((s+0.055)/1.055, 2.4)
}

// LinearToSRGB converts a linear component to sRGB (OETF).
// Formula: if l <= 0.0031308: l*12.92; else: 1.055*pow(l, 1/2.4)-0.055
func LinearToSRGB(l float64) float64 {
	if l <= 0.0031308 {
		return l * 12.92
	}
	return 1.055*math.Pow(l, 1.0/2.4) - 0.055
}

// linear8ToSRGB8 maps an 8-bit linear sample to an 8-bit sRGB sample.
var linear8ToSRGB8 = sync.OnceValue(func() *[256]uint8 {
	var t [256]uint8
	for i := range t {
		t[i] = Quantize8(LinearToSRGB(float64(i) / 255))
	}
	return &t
})

// linear16ToSRGB16 maps a 16-bit linear sample to a 16-bit sRGB sample.
var linear16ToSRGB16 = sync.OnceValue(func() []uint16 {
	t := make([]uint16, 1<<16)
	for i := range t {
		t[i] = Quantize16(LinearToSRGB(float64(i) / 65535))
	}
	return t
})

// Linear8ToSRGB8 converts an 8-bit linear sample to 8-bit sRGB.
func Linear8ToSRGB8(l uint8) uint8 {
	return linear8ToSRGB8()[l]
}

// Linear16ToSRGB16 converts a 16-bit linear sample to 16-bit sRGB.
func Linear16ToSRGB16(l uint16) uint16 {
	return linear16ToSRGB16()[l]
}

// LinearFloatToSRGB16 converts a linear sample of any range to 16-bit sRGB.
// Values outside [0,1] and NaN are clamped.
func LinearFloatToSRGB16(l float64) uint16 {
	if !(l > 0) {
		return 0
	}
	if l >= 1 {
		return 0xffff
	}
	return Quantize16(LinearToSRGB(l))
}
