package image

import (
	"math"
	"math/bits"

	"github.com/gogpu/imgdec/internal/fault"
)

// DefaultMaxAlloc is the default ceiling on a single raster or layer buffer.
const DefaultMaxAlloc = 256 << 20

// Limits caps the size of buffers created from dimensions read out of a file.
// The zero value applies DefaultMaxAlloc and no pixel ceiling.
type Limits struct {
	// MaxBytes is the largest buffer, in bytes. Zero means DefaultMaxAlloc;
	// negative means unlimited.
	MaxBytes int64

	// MaxPixels is the largest width*height. Zero means unlimited.
	MaxPixels int64
}

func (l Limits) maxBytes() uint64 {
	switch {
	case l.MaxBytes == 0:
		return DefaultMaxAlloc
	case l.MaxBytes < 0:
		return math.MaxInt
	default:
		return uint64(l.MaxBytes)
	}
}

// Check reports whether a width x height buffer of format f fits the limits.
// The product is computed without overflow, so hostile dimensions such as
// 1e6 x 1e6 are rejected before anything is allocated.
func (l Limits) Check(width, height int, f Format) error {
	if width <= 0 || height <= 0 {
		return fault.New(fault.KindStructural, "image: limits", "invalid dimensions %dx%d", width, height)
	}
	if !f.IsValid() {
		return fault.New(fault.KindStructural, "image: limits", "invalid format %d", f)
	}

	hi, pixels := bits.Mul64(uint64(width), uint64(height))
	if hi != 0 {
		return fault.New(fault.KindResourceLimit, "image: limits", "%dx%d overflows", width, height)
	}
	if l.MaxPixels > 0 && pixels > uint64(l.MaxPixels) {
		return fault.New(fault.KindResourceLimit, "image: limits",
			"%dx%d is %d pixels, ceiling %d", width, height, pixels, l.MaxPixels)
	}

	hi, size := bits.Mul64(pixels, uint64(f.BytesPerPixel()))
	if hi != 0 || size > l.maxBytes() {
		return fault.New(fault.KindResourceLimit, "image: limits",
			"%dx%d %s needs more than %d bytes", width, height, f, l.maxBytes())
	}
	return nil
}

// NewImageBuf checks the limits and allocates a buffer.
func (l Limits) NewImageBuf(width, height int, f Format) (*ImageBuf, error) {
	if err := l.Check(width, height, f); err != nil {
		return nil, err
	}
	return NewImageBuf(width, height, f)
}
