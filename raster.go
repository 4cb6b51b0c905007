package imgdec

import (
	stdimage "image"
	"image/color"

	"github.com/gogpu/imgdec/internal/image"
)

// Format is the pixel layout of a decoded raster. 16-bit channels are
// big-endian; alpha is straight, not premultiplied.
type Format = image.Format

// Pixel formats produced by the decoders.
const (
	FormatGray8    = image.FormatGray8
	FormatGray16   = image.FormatGray16
	FormatIndexed8 = image.FormatIndexed8
	FormatRGB8     = image.FormatRGB8
	FormatRGBA8    = image.FormatRGBA8
	FormatRGB16    = image.FormatRGB16
	FormatRGBA16   = image.FormatRGBA16
)

// Metadata is the side-channel information decoded along with the pixels.
type Metadata struct {
	Container Container

	// FormType is the IFF form type ("ILBM", "PBM ", "CIMG", ...) or "XCF".
	FormType string

	// ResolutionX and ResolutionY are in dots per metre; zero when unknown.
	ResolutionX, ResolutionY float64

	// ICC is the embedded colour profile, if any.
	ICC []byte

	// Orientation is the EXIF-style orientation, 1 through 8. The supported
	// containers carry no transform, so it is always 1.
	Orientation int

	// Text holds free-text fields: "Name", "Author", "Annotation",
	// "Copyright", "Version", "Date" (IFF) and "Comment" (XCF).
	Text map[string]string

	// Frame is the decoded frame and Frames the number of frames.
	Frame, Frames int

	// Layers is the number of XCF layers in the file, Merged the number that
	// reached the composite.
	Layers, Merged int

	// Warnings lists recoverable failures, such as XCF layers left out of a
	// partial composite.
	Warnings []string
}

// Config is the result of DecodeConfig.
type Config struct {
	Width, Height int
	Format        Format
	Metadata      Metadata
}

// Raster is a decoded image. It is owned by the caller and not modified by
// imgdec after Decode returns.
type Raster struct {
	Width, Height int
	Format        Format
	Metadata      Metadata

	buf *image.ImageBuf
}

// Pix returns the pixel buffer, row-major, Stride bytes per row.
func (r *Raster) Pix() []byte {
	return r.buf.Data()
}

// Stride returns the number of bytes between rows.
func (r *Raster) Stride() int {
	return r.buf.Stride()
}

// Row returns the pixels of row y.
func (r *Raster) Row(y int) []byte {
	return r.buf.RowBytes(y)
}

// Palette returns the palette of a FormatIndexed8 raster, or nil.
func (r *Raster) Palette() color.Palette {
	return r.buf.Palette()
}

// At returns the colour at (x, y) widened to 16 bits per channel.
func (r *Raster) At(x, y int) color.NRGBA64 {
	return r.buf.RGBA64At(x, y)
}

// Image returns r as a standard library image: *image.Gray, *image.Gray16,
// *image.Paletted, *image.NRGBA or *image.NRGBA64. The pixels are copied.
func (r *Raster) Image() stdimage.Image {
	return r.buf.ToStdImage()
}
