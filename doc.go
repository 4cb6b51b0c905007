// Package imgdec decodes chunked IFF images and layered GIMP XCF images into
// flat rasters.
//
// # Overview
//
// imgdec is a pure Go decoder for two container families:
//   - IFF-85 and its Maya variants: ILBM, PBM, ACBM, RGB8, RGBN and CIMG
//     forms inside FORM, FOR4 or FOR8 groups, including HAM, extra
//     half-brite, per-line palettes and deep bitplanes.
//   - GIMP XCF: every visible layer is decoded from its tiles and merged
//     bottom to top with the layer's opacity, mask and blend mode.
//
// # Quick Start
//
//	f, err := os.Open("picture.iff")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	r, err := imgdec.Decode(ctx, f)
//	if err != nil {
//	    return err
//	}
//	img := r.Image() // *image.NRGBA, *image.Paletted, ...
//
// Importing the package also registers "iff" and "xcf" with image.Decode.
//
// # Limits
//
// Every raster and layer buffer is checked against a byte ceiling
// (WithMaxAlloc, 256 MiB by default) and an optional pixel ceiling
// (WithMaxPixels) before it is allocated. WithMaxBytes caps the bytes read
// from the source, and ctx is checked once per scanline and once per tile.
//
// # Errors
//
// Failures wrap one of ErrStructural, ErrTruncated, ErrUnsupported,
// ErrResourceLimit or ErrCorruptRLE; test them with errors.Is. A *Error
// carries the operation and byte offset.
//
// # Logging
//
// The package is silent by default. SetLogger or WithLogger enable
// structured diagnostics through log/slog.
package imgdec

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"
)
