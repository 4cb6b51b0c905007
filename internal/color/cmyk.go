package color

// CMYKToRGB converts an 8-bit CMYK palette entry to RGB.
func CMYKToRGB(c, m, y, k uint8) (r, g, b uint8) {
	ik := 255 - uint32(k)
	r = uint8((255 - uint32(c)) * ik / 255)
	g = uint8((255 - uint32(m)) * ik / 255)
	b = uint8((255 - uint32(y)) * ik / 255)
	return r, g, b
}
