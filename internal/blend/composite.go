package blend

import "math"

// Pixel is a straight RGBA pixel at the working depth.
type Pixel [4]uint32

// Row is one span of a layer merged onto the canvas.
type Row struct {
	// Dst is the canvas span, updated in place.
	Dst []Pixel
	Src []Pixel

	// Mask holds per-pixel layer mask values; nil means fully opaque.
	Mask []uint32

	Opacity uint32

	// X and Y are the canvas coordinates of Dst[0].
	X, Y int

	// Max is 255 or 65535.
	Max uint32
}

// effectiveAlpha returns the layer alpha that reaches the composite law.
// Modes that do not affect alpha first clip a to the canvas alpha da; the
// opacity and then the mask scale the result.
func effectiveAlpha(in Info, a, da, opacity, mask, max uint32) uint32 {
	if !in.AffectsAlpha {
		a = min(a, da)
	}
	if opacity == max && mask == max {
		return a
	}
	return mulDiv3(a, opacity, mask, max)
}

// Composite merges one layer pixel onto one canvas pixel with mode m.
// Unknown modes composite as Normal. For Dissolve the pixel's canvas
// position selects the random value; MergeRow is cheaper for whole rows.
func Composite(dst, src Pixel, opacity, mask uint32, m Mode, x, y int, max uint32) Pixel {
	in := info(m)
	sa := effectiveAlpha(in, src[3], dst[3], opacity, mask, max)
	if m == Dissolve {
		ds := newDissolve(y, x)
		sa = dissolveAlpha(ds.next(), sa, max)
	}
	return apply(in, src, dst, sa, max)
}

// MergeRow merges r.Src onto r.Dst with mode m. Src and Mask must be at
// least as long as Dst.
func MergeRow(m Mode, r Row) {
	in := info(m)
	var ds dissolveStream
	dissolve := m == Dissolve
	if dissolve {
		ds = newDissolve(r.Y, r.X)
	}
	for i := range r.Dst {
		mask := r.Max
		if r.Mask != nil {
			mask = r.Mask[i]
		}
		s := r.Src[i]
		sa := effectiveAlpha(in, s[3], r.Dst[i][3], r.Opacity, mask, r.Max)
		if dissolve {
			sa = dissolveAlpha(ds.next(), sa, r.Max)
		}
		r.Dst[i] = apply(in, s, r.Dst[i], sa, r.Max)
	}
}

func info(m Mode) Info {
	if in, ok := Lookup(m); ok {
		return in
	}
	return modeTable[Normal]
}

// apply is the generic composite law:
//
//	new_a  = da + (max-da)*sa/max
//	colour = d + (f(s,d) - d) * sa/new_a
//
// sa has already been through effectiveAlpha. Modes that do not affect
// alpha keep da.
func apply(in Info, s, d Pixel, sa, max uint32) Pixel {
	if sa == 0 {
		return d
	}
	if in.Composite != nil {
		return in.Composite(s, d, sa, max)
	}
	c := s
	if in.Func != nil {
		c = in.Func(s, d, max)
	}
	da := d[3]
	na := da + mulDiv(max-da, sa, max)
	if na == 0 {
		return d
	}
	ratio := float64(sa) / float64(na)
	out := Pixel{
		lerp(d[0], c[0], ratio),
		lerp(d[1], c[1], ratio),
		lerp(d[2], c[2], ratio),
		da,
	}
	if in.AffectsAlpha {
		out[3] = na
	}
	return out
}

// lerp moves a toward b by t in [0,1], rounded.
func lerp(a, b uint32, t float64) uint32 {
	v := float64(a) + (float64(b)-float64(a))*t
	if v <= 0 {
		return 0
	}
	return uint32(math.Round(v))
}

// compositeBehind paints the layer underneath the canvas.
func compositeBehind(s, d Pixel, sa, max uint32) Pixel {
	da := d[3]
	na := da + mulDiv(max-da, sa, max)
	if na == 0 {
		return d
	}
	ratio := float64(da) / float64(na)
	return Pixel{
		lerp(s[0], d[0], ratio),
		lerp(s[1], d[1], ratio),
		lerp(s[2], d[2], ratio),
		na,
	}
}

// compositeErase removes canvas alpha in proportion to the layer alpha.
func compositeErase(s, d Pixel, sa, max uint32) Pixel {
	d[3] -= mulDiv(d[3], sa, max)
	return d
}

// compositeMerge adds the alphas and weighs the colours by them.
func compositeMerge(s, d Pixel, sa, max uint32) Pixel {
	na := addClamp(sa, d[3], max)
	dw := uint64(na - sa)
	out := Pixel{0, 0, 0, na}
	for c := range 3 {
		out[c] = uint32((uint64(s[c])*uint64(sa) + uint64(d[c])*dw + uint64(na)/2) / uint64(na))
	}
	return out
}

// compositeSplit subtracts the layer alpha from the canvas alpha.
func compositeSplit(s, d Pixel, sa, max uint32) Pixel {
	d[3] = subClamp(d[3], sa)
	return d
}

// compositeColorErase removes the layer colour from the canvas, turning it
// into transparency the way colour-to-alpha does.
func compositeColorErase(s, d Pixel, sa, max uint32) Pixel {
	const eps = 1e-6
	var col, v [3]float64
	alpha := 0.0
	for c := range 3 {
		col[c] = unit(s[c], max)
		v[c] = unit(d[c], max)
		var a float64
		switch {
		case col[c] < eps:
			a = v[c]
		case v[c] > col[c]:
			a = (v[c] - col[c]) / (1 - col[c])
		case v[c] < col[c]:
			a = (col[c] - v[c]) / col[c]
		}
		alpha = math.Max(alpha, a)
	}

	var res Pixel
	if alpha > eps {
		for c := range 3 {
			res[c] = quantize((v[c]-col[c])/alpha+col[c], max)
		}
	}
	res[3] = quantize(unit(d[3], max)*alpha, max)

	t := unit(sa, max)
	return Pixel{
		lerp(d[0], res[0], t),
		lerp(d[1], res[1], t),
		lerp(d[2], res[2], t),
		lerp(d[3], res[3], t),
	}
}
