package blend

// Channel arithmetic at a variable working depth.
//
// Every helper takes the depth maximum (255 or 65535). Products are formed in
// uint64 so 16-bit inputs never overflow.

// mulDiv returns a*b/max rounded to nearest.
func mulDiv(a, b, max uint32) uint32 {
	return uint32((uint64(a)*uint64(b) + uint64(max)/2) / uint64(max))
}

// mulDiv3 returns a*b*c/max² rounded to nearest.
func mulDiv3(a, b, c, max uint32) uint32 {
	m := uint64(max)
	return uint32((uint64(a)*uint64(b)*uint64(c) + m*m/2) / (m * m))
}

// half returns the depth midpoint used by the grain and light modes:
// 128 at 8 bits, 32768 at 16 bits.
func half(max uint32) uint32 {
	return (max + 1) / 2
}

// clampInt clamps v to [0, max].
func clampInt(v int64, max uint32) uint32 {
	if v < 0 {
		return 0
	}
	if v > int64(max) {
		return max
	}
	return uint32(v)
}

// addClamp adds two channels and clamps to max.
func addClamp(a, b, max uint32) uint32 {
	return min(a+b, max)
}

// subClamp subtracts b from a, clamping to 0.
func subClamp(a, b uint32) uint32 {
	if b >= a {
		return 0
	}
	return a - b
}

// divClamp returns a*scale/b clamped to max; b == 0 yields max.
func divClamp(a, scale, b, max uint32) uint32 {
	if b == 0 {
		return max
	}
	return min(uint32(uint64(a)*uint64(scale)/uint64(b)), max)
}

// unit maps a channel to [0,1].
func unit(v, max uint32) float64 {
	return float64(v) / float64(max)
}

// quantize maps [0,1] back to a channel with rounding and clamping.
func quantize(f float64, max uint32) uint32 {
	switch {
	case !(f > 0):
		return 0
	case f >= 1:
		return max
	default:
		return uint32(f*float64(max) + 0.5)
	}
}
