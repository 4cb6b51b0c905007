package image

import (
	"image"
	"image/color"
)

// ToStdImage converts the buffer to the matching standard library image:
// *image.Gray, *image.Gray16, *image.Paletted, *image.NRGBA or
// *image.NRGBA64. Pixel data is copied.
func (b *ImageBuf) ToStdImage() image.Image {
	rect := image.Rect(0, 0, b.width, b.height)

	switch b.format {
	case FormatGray8:
		gray := image.NewGray(rect)
		b.copyRows(gray.Pix, gray.Stride)
		return gray

	case FormatGray16:
		gray16 := image.NewGray16(rect)
		b.copyRows(gray16.Pix, gray16.Stride)
		return gray16

	case FormatIndexed8:
		pal := b.palette
		if len(pal) == 0 {
			pal = color.Palette{color.Black}
		}
		paletted := image.NewPaletted(rect, pal)
		b.copyRows(paletted.Pix, paletted.Stride)
		return paletted

	case FormatRGBA8:
		nrgba := image.NewNRGBA(rect)
		b.copyRows(nrgba.Pix, nrgba.Stride)
		return nrgba

	case FormatRGBA16:
		nrgba64 := image.NewNRGBA64(rect)
		b.copyRows(nrgba64.Pix, nrgba64.Stride)
		return nrgba64

	case FormatRGB8:
		// Expand to NRGBA (opaque)
		nrgba := image.NewNRGBA(rect)
		for y := range b.height {
			row := b.RowBytes(y)
			dst := nrgba.Pix[y*nrgba.Stride:]
			for x := range b.width {
				copy(dst[x*4:x*4+3], row[x*3:x*3+3])
				dst[x*4+3] = 0xff
			}
		}
		return nrgba

	case FormatRGB16:
		nrgba64 := image.NewNRGBA64(rect)
		for y := range b.height {
			row := b.RowBytes(y)
			dst := nrgba64.Pix[y*nrgba64.Stride:]
			for x := range b.width {
				copy(dst[x*8:x*8+6], row[x*6:x*6+6])
				dst[x*8+6] = 0xff
				dst[x*8+7] = 0xff
			}
		}
		return nrgba64

	default:
		return image.NewNRGBA(rect)
	}
}

// copyRows copies tightly packed rows into a destination with its own stride.
func (b *ImageBuf) copyRows(dst []byte, dstStride int) {
	if b.stride == dstStride {
		copy(dst, b.data)
		return
	}
	for y := range b.height {
		copy(dst[y*dstStride:], b.RowBytes(y))
	}
}
