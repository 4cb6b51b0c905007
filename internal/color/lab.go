package color

import "math"

// D65 reference white.
const (
	whiteX = 0.95047
	whiteY = 1.0
	whiteZ = 1.08883
)

const (
	labEpsilon = 216.0 / 24389.0
	labKappa   = 24389.0 / 27.0
)

// ToLab converts perceptual sRGB to CIE Lab.
func (c RGB) ToLab() Lab {
	r := SRGBToLinear(c.R)
	g := SRGBToLinear(c.G)
	b := SRGBToLinear(c.B)

	x := (0.4124564*r + 0.3575761*g + 0.1804375*b) / whiteX
	y := (0.2126729*r + 0.7151522*g + 0.0721750*b) / whiteY
	z := (0.0193339*r + 0.1191920*g + 0.9503041*b) / whiteZ

	fx, fy, fz := labF(x), labF(y), labF(z)
	return Lab{
		L: 116*fy - 16,
		A: 500 * (fx - fy),
		B: 200 * (fy - fz),
	}
}

// ToRGB converts CIE Lab to perceptual sRGB. The result is clamped to [0,1].
func (l Lab) ToRGB() RGB {
	fy := (l.L + 16) / 116
	fx := fy + l.A/500
	fz := fy - l.B/200

	x := labFInv(fx) * whiteX
	y := labFInv(fy) * whiteY
	z := labFInv(fz) * whiteZ

	r := 3.2404542*x - 1.5371385*y - 0.4985314*z
	g := -0.9692660*x + 1.8760108*y + 0.0415560*z
	b := 0.0556434*x - 0.2040259*y + 1.0572252*z

	return RGB{
		R: clamp01(LinearToSRGB(clamp01(r))),
		G: clamp01(LinearToSRGB(clamp01(g))),
		B: clamp01(LinearToSRGB(clamp01(b))),
	}
}

// ToLCh converts Lab to its cylindrical form.
func (l Lab) ToLCh() LCh {
	h := math.Atan2(l.B, l.A) * 180 / math.Pi
	if h < 0 {
		h += 360
	}
	return LCh{L: l.L, C: math.Hypot(l.A, l.B), H: h}
}

// ToLab converts LCh back to Lab.
func (l LCh) ToLab() Lab {
	rad := l.H * math.Pi / 180
	return Lab{L: l.L, A: l.C * math.Cos(rad), B: l.C * math.Sin(rad)}
}

func labF(t float64) float64 {
	if t > labEpsilon {
		return math.Cbrt(t)
	}
	return (labKappa*t + 16) / 116
}

func labFInv(f float64) float64 {
	if f3 := f * f * f; f3 > labEpsilon {
		return f3
	}
	return (116*f - 16) / labKappa
}
