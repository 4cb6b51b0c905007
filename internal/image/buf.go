package image

import (
	"errors"
	"image/color"
)

// Common errors for image operations.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("image: invalid dimensions")

	// ErrInvalidFormat is returned when the format is not recognized.
	ErrInvalidFormat = errors.New("image: invalid format")

	// ErrOutOfBounds is returned when pixel coordinates are outside image bounds.
	ErrOutOfBounds = errors.New("image: coordinates out of bounds")
)

// ImageBuf is a row-major pixel buffer with an optional palette.
//
// ImageBuf is not safe for concurrent mutation. Decoders own their buffer
// until it is handed to the caller, after which it is treated as immutable.
type ImageBuf struct {
	data    []byte
	width   int
	height  int
	stride  int
	format  Format
	palette color.Palette
}

// NewImageBuf creates a new image buffer with the given dimensions and format.
// It does not apply any size ceiling; use Limits.NewImageBuf for untrusted
// dimensions.
func NewImageBuf(width, height int, format Format) (*ImageBuf, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsValid() {
		return nil, ErrInvalidFormat
	}

	stride := format.RowBytes(width)
	return &ImageBuf{
		data:   make([]byte, stride*height),
		width:  width,
		height: height,
		stride: stride,
		format: format,
	}, nil
}

// Width returns the image width in pixels.
func (b *ImageBuf) Width() int {
	return b.width
}

// Height returns the image height in pixels.
func (b *ImageBuf) Height() int {
	return b.height
}

// Stride returns the number of bytes per row (including padding).
func (b *ImageBuf) Stride() int {
	return b.stride
}

// Format returns the pixel format.
func (b *ImageBuf) Format() Format {
	return b.format
}

// Bounds returns the image dimensions as (width, height).
func (b *ImageBuf) Bounds() (int, int) {
	return b.width, b.height
}

// Data returns the raw pixel data slice.
func (b *ImageBuf) Data() []byte {
	return b.data
}

// Palette returns the palette of an indexed buffer.
func (b *ImageBuf) Palette() color.Palette {
	return b.palette
}

// SetPalette attaches a palette. Only indexed buffers keep one.
func (b *ImageBuf) SetPalette(p color.Palette) {
	if b.format.IsIndexed() {
		b.palette = p
	}
}

// RowBytes returns a slice of the pixel data for row y.
// Returns nil if y is out of bounds.
func (b *ImageBuf) RowBytes(y int) []byte {
	if y < 0 || y >= b.height {
		return nil
	}
	start := y * b.stride
	return b.data[start : start+b.format.RowBytes(b.width)]
}

// PixelOffset returns the byte offset of pixel (x, y) in the data slice.
// Returns -1 if coordinates are out of bounds.
func (b *ImageBuf) PixelOffset(x, y int) int {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return -1
	}
	return y*b.stride + x*b.format.BytesPerPixel()
}

// PixelBytes returns a slice of the raw bytes for pixel (x, y).
// Returns nil if coordinates are out of bounds.
func (b *ImageBuf) PixelBytes(x, y int) []byte {
	offset := b.PixelOffset(x, y)
	if offset < 0 {
		return nil
	}
	return b.data[offset : offset+b.format.BytesPerPixel()]
}

// RGBA64At returns the straight-alpha colour at (x, y) with 16-bit channels.
// Indexed pixels are resolved through the palette; missing entries are
// transparent black.
func (b *ImageBuf) RGBA64At(x, y int) color.NRGBA64 {
	p := b.PixelBytes(x, y)
	if p == nil {
		return color.NRGBA64{}
	}

	switch b.format {
	case FormatGray8:
		v := expand8(p[0])
		return color.NRGBA64{R: v, G: v, B: v, A: 0xffff}
	case FormatGray16:
		v := be16(p)
		return color.NRGBA64{R: v, G: v, B: v, A: 0xffff}
	case FormatIndexed8:
		if int(p[0]) >= len(b.palette) {
			return color.NRGBA64{}
		}
		return color.NRGBA64Model.Convert(b.palette[p[0]]).(color.NRGBA64)
	case FormatRGB8:
		return color.NRGBA64{R: expand8(p[0]), G: expand8(p[1]), B: expand8(p[2]), A: 0xffff}
	case FormatRGBA8:
		return color.NRGBA64{R: expand8(p[0]), G: expand8(p[1]), B: expand8(p[2]), A: expand8(p[3])}
	case FormatRGB16:
		return color.NRGBA64{R: be16(p), G: be16(p[2:]), B: be16(p[4:]), A: 0xffff}
	case FormatRGBA16:
		return color.NRGBA64{R: be16(p), G: be16(p[2:]), B: be16(p[4:]), A: be16(p[6:])}
	default:
		return color.NRGBA64{}
	}
}

// Clear sets all pixels to zero.
func (b *ImageBuf) Clear() {
	clear(b.data)
}

func expand8(v uint8) uint16 {
	return uint16(v) * 0x101
}

func be16(p []byte) uint16 {
	return uint16(p[0])<<8 | uint16(p[1])
}
