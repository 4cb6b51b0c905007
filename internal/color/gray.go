package color

import (
	stdcolor "image/color"
	"sync"
)

// MaxRampBits is the deepest grayscale ramp available.
const MaxRampBits = 8

var grayRamps [MaxRampBits + 1]func() stdcolor.Palette

func init() {
	for bits := 1; bits <= MaxRampBits; bits++ {
		grayRamps[bits] = sync.OnceValue(func() stdcolor.Palette {
			n := 1 << bits
			p := make(stdcolor.Palette, n)
			for i := range p {
				v := uint8(i * 255 / (n - 1))
				p[i] = stdcolor.Gray{Y: v}
			}
			return p
		})
	}
}

// GrayRamp returns the evenly spaced grayscale palette for the given number
// of bits, black to white. The returned palette is shared and must not be
// modified. Bits outside 1..MaxRampBits return nil.
func GrayRamp(bits int) stdcolor.Palette {
	if bits < 1 || bits > MaxRampBits {
		return nil
	}
	return grayRamps[bits]()
}

// ScaleBits maps an n-bit value to 8 bits so that the maximum maps to 255.
func ScaleBits(v uint32, bits int) uint8 {
	if bits <= 0 {
		return 0
	}
	if bits >= 8 {
		return uint8(v >> (bits - 8))
	}
	maxV := uint32(1)<<bits - 1
	return uint8(v * 255 / maxV)
}
