package blend

// Separable modes operate on each colour channel independently.
// s is the layer channel, d the canvas channel.

// separable lifts a per-channel function to a Func.
func separable(fn func(s, d, max uint32) uint32) Func {
	return func(s, d Pixel, max uint32) Pixel {
		return Pixel{fn(s[0], d[0], max), fn(s[1], d[1], max), fn(s[2], d[2], max), s[3]}
	}
}

// multiply: S * D
func multiply(s, d, max uint32) uint32 {
	return mulDiv(s, d, max)
}

// screen: 1 - (1-S)*(1-D)
func screen(s, d, max uint32) uint32 {
	return max - mulDiv(max-s, max-d, max)
}

// softOverlay is the legacy overlay, which GIMP computes as a soft light:
// D * (D + 2*S*(1-D))
func softOverlay(s, d, max uint32) uint32 {
	return min(mulDiv(d, d+mulDiv(2*s, max-d, max), max), max)
}

// overlay is HardLight with the layers swapped.
func overlay(s, d, max uint32) uint32 {
	return hardLight(d, s, max)
}

func difference(s, d, max uint32) uint32 {
	if s > d {
		return s - d
	}
	return d - s
}

func addition(s, d, max uint32) uint32 {
	return addClamp(s, d, max)
}

// subtract: D - S
func subtract(s, d, max uint32) uint32 {
	return subClamp(d, s)
}

func darken(s, d, max uint32) uint32 {
	return min(s, d)
}

func lighten(s, d, max uint32) uint32 {
	return larger(s, d)
}

// divide: D / S
func divide(s, d, max uint32) uint32 {
	return divClamp(d, max+1, s+1, max)
}

// dodge: D / (1 - S)
func dodge(s, d, max uint32) uint32 {
	return divClamp(d, max+1, max+1-s, max)
}

// burn: 1 - (1 - D) / S
func burn(s, d, max uint32) uint32 {
	return max - divClamp(max-d, max+1, s+1, max)
}

// hardLight multiplies or screens depending on the layer channel.
func hardLight(s, d, max uint32) uint32 {
	if s > half(max) {
		return max - mulDiv(max-d, 2*(max-s), max)
	}
	return min(mulDiv(d, 2*s, max), max)
}

// softLight is GIMP's legacy soft light: a blend of multiply and screen
// weighted by the canvas channel.
func softLight(s, d, max uint32) uint32 {
	m := mulDiv(s, d, max)
	sc := screen(s, d, max)
	return min(mulDiv(max-d, m, max)+mulDiv(d, sc, max), max)
}

func grainExtract(s, d, max uint32) uint32 {
	return clampInt(int64(d)-int64(s)+int64(half(max)), max)
}

func grainMerge(s, d, max uint32) uint32 {
	return clampInt(int64(d)+int64(s)-int64(half(max)), max)
}

// vividLight burns below the midpoint and dodges above it.
func vividLight(s, d, max uint32) uint32 {
	h := half(max)
	if s < h {
		return burn(2*s, d, max)
	}
	return dodge(min(2*(s-h), max), d, max)
}

// pinLight replaces dark canvas with dark layer and light with light.
func pinLight(s, d, max uint32) uint32 {
	h := half(max)
	if s < h {
		return min(d, 2*s)
	}
	return larger(d, 2*(s-h))
}

// linearLight: D + 2*S - 1
func linearLight(s, d, max uint32) uint32 {
	return clampInt(int64(d)+2*int64(s)-int64(max), max)
}

// hardMix thresholds S + D at 1.
func hardMix(s, d, max uint32) uint32 {
	if s+d < max {
		return 0
	}
	return max
}

// exclusion: S + D - 2*S*D
func exclusion(s, d, max uint32) uint32 {
	return clampInt(int64(s)+int64(d)-2*int64(mulDiv(s, d, max)), max)
}

// linearBurn: S + D - 1
func linearBurn(s, d, max uint32) uint32 {
	return clampInt(int64(s)+int64(d)-int64(max), max)
}

// larger is the builtin max, which the depth parameter shadows here.
func larger(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
