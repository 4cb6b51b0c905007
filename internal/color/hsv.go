package color

import "math"

// ToHSV converts RGB to HSV. Achromatic colours get hue 0.
func (c RGB) ToHSV() HSV {
	hi := max(c.R, c.G, c.B)
	lo := min(c.R, c.G, c.B)
	d := hi - lo

	hsv := HSV{V: hi}
	if hi == 0 || d == 0 {
		return hsv
	}
	hsv.S = d / hi
	hsv.H = hue(c, hi, d)
	return hsv
}

// ToRGB converts HSV to RGB.
func (h HSV) ToRGB() RGB {
	if h.S == 0 {
		return RGB{h.V, h.V, h.V}
	}
	hh := math.Mod(h.H, 1) * 6
	if hh < 0 {
		hh += 6
	}
	i := math.Floor(hh)
	f := hh - i
	p := h.V * (1 - h.S)
	q := h.V * (1 - h.S*f)
	t := h.V * (1 - h.S*(1-f))

	switch int(i) {
	case 0:
		return RGB{h.V, t, p}
	case 1:
		return RGB{q, h.V, p}
	case 2:
		return RGB{p, h.V, t}
	case 3:
		return RGB{p, q, h.V}
	case 4:
		return RGB{t, p, h.V}
	default:
		return RGB{h.V, p, q}
	}
}

// ToHSL converts RGB to HSL. Achromatic colours get hue 0.
func (c RGB) ToHSL() HSL {
	hi := max(c.R, c.G, c.B)
	lo := min(c.R, c.G, c.B)
	d := hi - lo

	hsl := HSL{L: (hi + lo) / 2}
	if d == 0 {
		return hsl
	}
	if hsl.L <= 0.5 {
		hsl.S = d / (hi + lo)
	} else {
		hsl.S = d / (2 - hi - lo)
	}
	hsl.H = hue(c, hi, d)
	return hsl
}

// ToRGB converts HSL to RGB.
func (h HSL) ToRGB() RGB {
	if h.S == 0 {
		return RGB{h.L, h.L, h.L}
	}
	var q float64
	if h.L <= 0.5 {
		q = h.L * (1 + h.S)
	} else {
		q = h.L + h.S - h.L*h.S
	}
	p := 2*h.L - q
	return RGB{
		R: hueToChannel(p, q, h.H+1.0/3),
		G: hueToChannel(p, q, h.H),
		B: hueToChannel(p, q, h.H-1.0/3),
	}
}

// hue returns the hue of c as a fraction of a turn.
func hue(c RGB, hi, d float64) float64 {
	var h float64
	switch hi {
	case c.R:
		h = (c.G - c.B) / d
		if h < 0 {
			h += 6
		}
	case c.G:
		h = (c.B-c.R)/d + 2
	default:
		h = (c.R-c.G)/d + 4
	}
	return h / 6
}

func hueToChannel(p, q, t float64) float64 {
	switch {
	case t < 0:
		t++
	case t > 1:
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}
