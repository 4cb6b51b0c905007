// Package image provides the decoded raster buffer shared by the IFF and XCF
// decoders.
//
// Buffers are allocated only after their size has been checked against a
// Limits ceiling. Sixteen-bit samples are stored big-endian, matching the
// layout of the standard library's Gray16 and NRGBA64 images.
package image

// Format represents a pixel storage format.
type Format uint8

const (
	// FormatGray8 is 8-bit grayscale (1 byte per pixel).
	FormatGray8 Format = iota

	// FormatGray16 is 16-bit grayscale (2 bytes per pixel).
	FormatGray16

	// FormatIndexed8 is an 8-bit palette index (1 byte per pixel).
	FormatIndexed8

	// FormatRGB8 is 24-bit RGB (3 bytes per pixel, no alpha).
	FormatRGB8

	// FormatRGBA8 is 32-bit RGBA, straight alpha (4 bytes per pixel).
	FormatRGBA8

	// FormatRGB16 is 48-bit RGB (6 bytes per pixel).
	FormatRGB16

	// FormatRGBA16 is 64-bit RGBA, straight alpha (8 bytes per pixel).
	FormatRGBA16

	// formatCount is the number of formats (for internal use).
	formatCount
)

// FormatInfo contains metadata about a pixel format.
type FormatInfo struct {
	// BytesPerPixel is the number of bytes per pixel.
	BytesPerPixel int

	// Channels is the number of stored channels.
	Channels int

	// HasAlpha indicates if the format has an alpha channel.
	HasAlpha bool

	// IsGrayscale indicates if this is a grayscale format.
	IsGrayscale bool

	// IsIndexed indicates that pixels are palette indices.
	IsIndexed bool

	// BitsPerChannel is the number of bits per channel.
	BitsPerChannel int
}

// formatInfoTable contains metadata for each format.
var formatInfoTable = [formatCount]FormatInfo{
	FormatGray8: {
		BytesPerPixel:  1,
		Channels:       1,
		IsGrayscale:    true,
		BitsPerChannel: 8,
	},
	FormatGray16: {
		BytesPerPixel:  2,
		Channels:       1,
		IsGrayscale:    true,
		BitsPerChannel: 16,
	},
	FormatIndexed8: {
		BytesPerPixel:  1,
		Channels:       1,
		IsIndexed:      true,
		BitsPerChannel: 8,
	},
	FormatRGB8: {
		BytesPerPixel:  3,
		Channels:       3,
		BitsPerChannel: 8,
	},
	FormatRGBA8: {
		BytesPerPixel:  4,
		Channels:       4,
		HasAlpha:       true,
		BitsPerChannel: 8,
	},
	FormatRGB16: {
		BytesPerPixel:  6,
		Channels:       3,
		BitsPerChannel: 16,
	},
	FormatRGBA16: {
		BytesPerPixel:  8,
		Channels:       4,
		HasAlpha:       true,
		BitsPerChannel: 16,
	},
}

// Info returns the FormatInfo for this format.
func (f Format) Info() FormatInfo {
	if f >= formatCount {
		return FormatInfo{}
	}
	return formatInfoTable[f]
}

// BytesPerPixel returns the number of bytes per pixel for this format.
func (f Format) BytesPerPixel() int {
	return f.Info().BytesPerPixel
}

// Channels returns the number of stored channels.
func (f Format) Channels() int {
	return f.Info().Channels
}

// HasAlpha returns true if this format has an alpha channel.
func (f Format) HasAlpha() bool {
	return f.Info().HasAlpha
}

// IsGrayscale returns true if this is a grayscale format.
func (f Format) IsGrayscale() bool {
	return f.Info().IsGrayscale
}

// IsIndexed returns true if pixels are palette indices.
func (f Format) IsIndexed() bool {
	return f.Info().IsIndexed
}

// BitsPerChannel returns the number of bits per channel.
func (f Format) BitsPerChannel() int {
	return f.Info().BitsPerChannel
}

// String returns a string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatGray8:
		return "Gray8"
	case FormatGray16:
		return "Gray16"
	case FormatIndexed8:
		return "Indexed8"
	case FormatRGB8:
		return "RGB8"
	case FormatRGBA8:
		return "RGBA8"
	case FormatRGB16:
		return "RGB16"
	case FormatRGBA16:
		return "RGBA16"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the format is a valid known format.
func (f Format) IsValid() bool {
	return f < formatCount
}

// RowBytes calculates the number of bytes needed for a row of the given width.
func (f Format) RowBytes(width int) int {
	return width * f.BytesPerPixel()
}

// Deep returns the 16-bit counterpart of an 8-bit format.
func (f Format) Deep() Format {
	switch f {
	case FormatGray8:
		return FormatGray16
	case FormatRGB8:
		return FormatRGB16
	case FormatRGBA8:
		return FormatRGBA16
	default:
		return f
	}
}
