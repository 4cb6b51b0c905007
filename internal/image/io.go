package image

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// ErrUnsupportedOutput is returned for an output format that cannot be written.
var ErrUnsupportedOutput = errors.New("image: unsupported output format")

// OutputFormat is a file format decoded rasters can be written as.
type OutputFormat uint8

const (
	// OutputPNG keeps 16-bit depth.
	OutputPNG OutputFormat = iota

	// OutputTIFF writes deflate-compressed TIFF and keeps 16-bit depth.
	OutputTIFF

	// OutputBMP is 8-bit only.
	OutputBMP
)

func (f OutputFormat) String() string {
	switch f {
	case OutputPNG:
		return "png"
	case OutputTIFF:
		return "tiff"
	case OutputBMP:
		return "bmp"
	default:
		return fmt.Sprintf("OutputFormat(%d)", f)
	}
}

// OutputFormatFor picks the output format from a file extension.
func OutputFormatFor(path string) (OutputFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return OutputPNG, nil
	case ".tif", ".tiff":
		return OutputTIFF, nil
	case ".bmp":
		return OutputBMP, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedOutput, filepath.Ext(path))
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f OutputFormat) error {
	var err error
	switch f {
	case OutputPNG:
		err = png.Encode(w, img)
	case OutputTIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case OutputBMP:
		err = bmp.Encode(w, img)
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedOutput, f)
	}
	if err != nil {
		return fmt.Errorf("image: encode %s: %w", f, err)
	}
	return nil
}

// Encode writes the buffer to w in format f.
func (b *ImageBuf) Encode(w io.Writer, f OutputFormat) error {
	return Encode(w, b.ToStdImage(), f)
}

// Save writes img to path in the format named by its extension.
func Save(path string, img image.Image) error {
	f, err := OutputFormatFor(path)
	if err != nil {
		return err
	}
	out, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("image: create file: %w", err)
	}

	if err := Encode(out, img, f); err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}

// Scaled resamples img by factor with a Catmull-Rom kernel. The result is
// an *image.NRGBA64 so 16-bit sources keep their depth; each side is at
// least one pixel.
func Scaled(img image.Image, factor float64) image.Image {
	src := img.Bounds()
	w := max(1, int(math.Round(float64(src.Dx())*factor)))
	h := max(1, int(math.Round(float64(src.Dy())*factor)))
	dst := image.NewNRGBA64(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
	return dst
}
