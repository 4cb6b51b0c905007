package imgdec

import (
	"log/slog"

	"github.com/gogpu/imgdec/internal/image"
)

// DefaultMaxAlloc is the default ceiling on a single raster or layer buffer.
const DefaultMaxAlloc = image.DefaultMaxAlloc

// Option configures a Decode, DecodeConfig or DecodeFile call.
// Use functional options to customize limits and diagnostics.
//
// Example:
//
//	// Default limits, silent
//	r, err := imgdec.Decode(ctx, f)
//
//	// Second frame, 64 MiB ceiling, debug logging
//	r, err := imgdec.Decode(ctx, f,
//	    imgdec.WithFrame(1),
//	    imgdec.WithMaxAlloc(64<<20),
//	    imgdec.WithLogger(logger))
type Option func(*options)

// options holds the configuration of one decode call.
type options struct {
	maxAlloc  int64
	maxPixels int64
	maxBytes  int64
	frame     int
	logger    *slog.Logger
	pool      *Pool
}

// defaultOptions returns the default decode options.
func defaultOptions() options {
	return options{
		maxAlloc: DefaultMaxAlloc,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = Logger()
	}
	return o
}

func (o options) limits() image.Limits {
	return image.Limits{MaxBytes: o.maxAlloc, MaxPixels: o.maxPixels}
}

func (o options) imagePool() *image.Pool {
	if o.pool == nil {
		return image.Default()
	}
	return o.pool
}

// WithMaxAlloc sets the largest raster or layer buffer, in bytes, that a
// decode may allocate. The check happens before allocation, so a file that
// declares huge dimensions fails with ErrResourceLimit without using memory.
// A negative value removes the ceiling.
func WithMaxAlloc(n int64) Option {
	return func(o *options) {
		if n == 0 {
			n = DefaultMaxAlloc
		}
		o.maxAlloc = n
	}
}

// WithMaxPixels sets the largest width*height a decode accepts.
// Zero, the default, means no pixel ceiling.
func WithMaxPixels(n int64) Option {
	return func(o *options) {
		o.maxPixels = max(n, 0)
	}
}

// WithMaxBytes caps the number of bytes read from the source.
// Zero, the default, means unlimited.
func WithMaxBytes(n int64) Option {
	return func(o *options) {
		o.maxBytes = max(n, 0)
	}
}

// WithFrame selects the image form to decode in a multi-frame IFF file.
// Frames are counted in file order from zero. XCF files have one frame.
func WithFrame(i int) Option {
	return func(o *options) {
		o.frame = i
	}
}

// WithLogger sets the logger for a single call, overriding SetLogger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithPool sets the scratch buffer pool. Decodes running concurrently may
// share one pool.
//
// Example:
//
//	pool := imgdec.NewPool(4)
//	for _, f := range files {
//	    go imgdec.DecodeFile(ctx, f, imgdec.WithPool(pool))
//	}
func WithPool(p *Pool) Option {
	return func(o *options) {
		o.pool = p
	}
}

// Pool recycles layer buffers and scratch rows between decodes.
// It is safe for concurrent use.
type Pool = image.Pool

// NewPool returns a pool that keeps up to maxPerBucket buffers per size.
func NewPool(maxPerBucket int) *Pool {
	return image.NewPool(maxPerBucket)
}
