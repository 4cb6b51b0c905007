package blend

import (
	"github.com/gogpu/imgdec/internal/color"
)

// Non-separable modes convert the whole RGB triple to another colour model,
// swap some components from the layer into the canvas colour and convert
// back.

func toRGB(p Pixel, max uint32) color.RGB {
	return color.RGB{R: unit(p[0], max), G: unit(p[1], max), B: unit(p[2], max)}
}

func fromRGB(c color.RGB, a, max uint32) Pixel {
	return Pixel{quantize(c.R, max), quantize(c.G, max), quantize(c.B, max), a}
}

// hsvHue takes the layer hue; a gray layer leaves the canvas colour alone.
func hsvHue(s, d Pixel, max uint32) Pixel {
	sh := toRGB(s, max).ToHSV()
	if sh.S == 0 {
		return Pixel{d[0], d[1], d[2], s[3]}
	}
	dh := toRGB(d, max).ToHSV()
	dh.H = sh.H
	return fromRGB(dh.ToRGB(), s[3], max)
}

func hsvSaturation(s, d Pixel, max uint32) Pixel {
	dh := toRGB(d, max).ToHSV()
	dh.S = toRGB(s, max).ToHSV().S
	return fromRGB(dh.ToRGB(), s[3], max)
}

func hsvValue(s, d Pixel, max uint32) Pixel {
	dh := toRGB(d, max).ToHSV()
	dh.V = toRGB(s, max).ToHSV().V
	return fromRGB(dh.ToRGB(), s[3], max)
}

// hslColor takes hue and saturation from the layer, lightness from the canvas.
func hslColor(s, d Pixel, max uint32) Pixel {
	sl := toRGB(s, max).ToHSL()
	sl.L = toRGB(d, max).ToHSL().L
	return fromRGB(sl.ToRGB(), s[3], max)
}

func lchHue(s, d Pixel, max uint32) Pixel {
	sl := toRGB(s, max).ToLab().ToLCh()
	dl := toRGB(d, max).ToLab().ToLCh()
	if sl.C > 0 {
		dl.H = sl.H
	}
	return fromRGB(dl.ToLab().ToRGB(), s[3], max)
}

func lchChroma(s, d Pixel, max uint32) Pixel {
	dl := toRGB(d, max).ToLab().ToLCh()
	dl.C = toRGB(s, max).ToLab().ToLCh().C
	return fromRGB(dl.ToLab().ToRGB(), s[3], max)
}

func lchColor(s, d Pixel, max uint32) Pixel {
	sl := toRGB(s, max).ToLab().ToLCh()
	sl.L = toRGB(d, max).ToLab().L
	return fromRGB(sl.ToLab().ToRGB(), s[3], max)
}

func lchLightness(s, d Pixel, max uint32) Pixel {
	dl := toRGB(d, max).ToLab()
	dl.L = toRGB(s, max).ToLab().L
	return fromRGB(dl.ToRGB(), s[3], max)
}

// Lum returns the luma of a colour using Rec. 709 coefficients.
func Lum(c color.RGB) float64 {
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}

// ClipColor pulls out-of-range components back into [0,1] while keeping
// the luma.
func ClipColor(c color.RGB) color.RGB {
	l := Lum(c)
	n := min(c.R, c.G, c.B)
	x := max(c.R, c.G, c.B)

	if n < 0 {
		c.R = l + (c.R-l)*l/(l-n)
		c.G = l + (c.G-l)*l/(l-n)
		c.B = l + (c.B-l)*l/(l-n)
	}
	if x > 1 {
		c.R = l + (c.R-l)*(1-l)/(x-l)
		c.G = l + (c.G-l)*(1-l)/(x-l)
		c.B = l + (c.B-l)*(1-l)/(x-l)
	}
	return c
}

// SetLum shifts c to luma l, preserving hue and saturation where possible.
func SetLum(c color.RGB, l float64) color.RGB {
	d := l - Lum(c)
	return ClipColor(color.RGB{R: c.R + d, G: c.G + d, B: c.B + d})
}

func lumaDarken(s, d Pixel, max uint32) Pixel {
	if Lum(toRGB(s, max)) <= Lum(toRGB(d, max)) {
		return s
	}
	return Pixel{d[0], d[1], d[2], s[3]}
}

func lumaLighten(s, d Pixel, max uint32) Pixel {
	if Lum(toRGB(s, max)) >= Lum(toRGB(d, max)) {
		return s
	}
	return Pixel{d[0], d[1], d[2], s[3]}
}

// luminance gives the canvas colour the layer's luma.
func luminance(s, d Pixel, max uint32) Pixel {
	return fromRGB(SetLum(toRGB(d, max), Lum(toRGB(s, max))), s[3], max)
}
