package xcf

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/imgdec/internal/blend"
	"github.com/gogpu/imgdec/internal/fault"
	"github.com/gogpu/imgdec/internal/image"
	"github.com/gogpu/imgdec/internal/stream"
)

// Options configures Decode and Config.
type Options struct {
	// Limits is checked before the canvas and every layer buffer.
	Limits image.Limits

	// Pool supplies layer buffers and tile scratch. Nil uses image.Default().
	Pool *image.Pool

	// Logger receives per-layer debug records and the partial composite
	// warning. Nil discards.
	Logger *slog.Logger
}

// Info describes an XCF image.
type Info struct {
	Width, Height int

	// Format is FormatRGBA8 for 8-bit precisions and FormatRGBA16 otherwise.
	Format      image.Format
	Version     int
	BaseType    BaseType
	Precision   Precision
	Compression Compression

	// Layers is the number of layers in the file, Merged the number that
	// reached the canvas.
	Layers, Merged int

	// ResolutionX and ResolutionY are in dots per metre; zero when unknown.
	ResolutionX, ResolutionY float64

	ICC     []byte
	Comment string

	// Warnings lists layers that failed after the canvas was initialised.
	Warnings []string
}

type decoder struct {
	r      *stream.Reader
	opts   Options
	pool   *image.Pool
	log    *slog.Logger
	header Header
	props  imageProps
	layers []int64
	tiles  tileReader
	info   Info

	deep   bool
	max    uint32
	format image.Format

	canvas  *image.ImageBuf
	dstRow  []blend.Pixel
	srcRow  []blend.Pixel
	maskRow []uint32
}

func open(r *stream.Reader, opts Options) (*decoder, error) {
	d := &decoder{r: r, opts: opts, pool: opts.Pool, log: opts.Logger}
	if d.pool == nil {
		d.pool = image.Default()
	}
	if d.log == nil {
		d.log = slog.New(slog.DiscardHandler)
	}

	var err error
	if d.header, err = readHeader(r); err != nil {
		return nil, err
	}
	if d.props, err = readImageProps(r); err != nil {
		return nil, err
	}
	if d.header.BaseType == BaseIndexed && d.props.colormap == nil {
		return nil, fault.New(fault.KindStructural, "xcf: colormap", "indexed image without colormap")
	}
	if d.layers, err = readPointers(r, d.header); err != nil {
		return nil, err
	}

	d.deep = d.header.Precision.Deep()
	d.max, d.format = 0xff, image.FormatRGBA8
	if d.deep {
		d.max, d.format = 0xffff, image.FormatRGBA16
	}
	d.tiles = tileReader{r: r, compression: d.props.compression, pool: d.pool}
	d.info = Info{
		Width:       d.header.Width,
		Height:      d.header.Height,
		Format:      d.format,
		Version:     d.header.Version,
		BaseType:    d.header.BaseType,
		Precision:   d.header.Precision,
		Compression: d.props.compression,
		Layers:      len(d.layers),
		ResolutionX: dotsPerMetre(d.props.xres),
		ResolutionY: dotsPerMetre(d.props.yres),
		ICC:         d.props.icc,
		Comment:     d.props.comment,
	}
	d.log.Debug("xcf: image",
		"version", d.header.Version,
		"width", d.header.Width,
		"height", d.header.Height,
		"base", d.header.BaseType.String(),
		"precision", d.header.Precision.String(),
		"compression", d.props.compression.String(),
		"layers", len(d.layers))
	return d, nil
}

// Config reads the header and image properties without decoding layers.
func Config(r *stream.Reader, opts Options) (Info, error) {
	d, err := open(r, opts)
	if err != nil {
		return Info{}, err
	}
	return d.info, nil
}

// Decode flattens every visible layer onto a canvas of the image size.
//
// Layers are merged bottom to top; the bottom-most visible layer
// initialises the canvas. A failure while loading that layer fails the
// decode. A failure in a higher layer stops merging and returns the canvas
// as merged so far, with the failure logged and listed in Info.Warnings.
// Cancellation and resource limits are always fatal.
func Decode(r *stream.Reader, opts Options) (*image.ImageBuf, Info, error) {
	d, err := open(r, opts)
	if err != nil {
		return nil, Info{}, err
	}
	canvas, err := opts.Limits.NewImageBuf(d.header.Width, d.header.Height, d.format)
	if err != nil {
		return nil, d.info, err
	}
	d.canvas = canvas
	d.dstRow = make([]blend.Pixel, d.header.Width)
	d.srcRow = make([]blend.Pixel, d.header.Width)
	d.maskRow = make([]uint32, d.header.Width)

	merged := 0
	// Pointers are stored top-most first.
	for i := len(d.layers) - 1; i >= 0; i-- {
		l := &layerLoader{d: d, ptr: d.layers[i], base: merged == 0}
		err := l.run()
		if err == nil {
			if l.state == stateMerged {
				merged++
			}
			d.log.Debug("xcf: layer",
				"index", i,
				"name", l.layer.Name,
				"type", l.layer.Type.String(),
				"mode", l.layer.Mode.String(),
				"state", l.state.String())
			continue
		}
		if merged == 0 || !recoverable(err) {
			return nil, d.info, err
		}
		d.log.Warn("xcf: partial composite",
			"index", i,
			"name", l.layer.Name,
			"state", l.state.String(),
			"merged", merged,
			"err", err)
		d.info.Warnings = append(d.info.Warnings,
			fmt.Sprintf("layer %d %q failed in %s: %v", i, l.layer.Name, l.state, err))
		break
	}
	d.info.Merged = merged
	return canvas, d.info, nil
}

// recoverable reports whether a layer failure may leave a partial canvas.
func recoverable(err error) bool {
	switch fault.KindOf(err) {
	case fault.KindStructural, fault.KindTruncated, fault.KindUnsupported, fault.KindCorruptRLE:
		return true
	}
	return false
}

// merge composites the decoded layer onto the canvas, clipped to both.
func (d *decoder) merge(l *layerLoader) {
	ly := l.layer
	mode := ly.Mode
	if l.base && mode != blend.Dissolve {
		mode = blend.Normal
	}

	x0, x1 := max(ly.X, 0), min(ly.X+ly.Width, d.header.Width)
	y0, y1 := max(ly.Y, 0), min(ly.Y+ly.Height, d.header.Height)
	if x0 >= x1 || y0 >= y1 {
		return
	}
	n := x1 - x0
	dst, src := d.dstRow[:n], d.srcRow[:n]

	for y := y0; y < y1; y++ {
		crow := d.canvas.RowBytes(y)
		lrow := l.pix.RowBytes(y - ly.Y)
		for i := range n {
			dst[i] = getPixel(crow, x0+i, d.deep)
			src[i] = getPixel(lrow, x0-ly.X+i, d.deep)
		}

		var mask []uint32
		if l.mask != nil {
			mask = d.maskRow[:n]
			mrow := l.mask.RowBytes(y - ly.Y)
			for i := range n {
				lx := x0 - ly.X + i
				if d.deep {
					mask[i] = uint32(be.Uint16(mrow[2*lx:]))
				} else {
					mask[i] = uint32(mrow[lx])
				}
			}
		}

		blend.MergeRow(mode, blend.Row{
			Dst:     dst,
			Src:     src,
			Mask:    mask,
			Opacity: ly.Opacity,
			X:       x0,
			Y:       y,
			Max:     d.max,
		})
		for i := range n {
			putPixel(crow, x0+i, dst[i], d.deep)
		}
	}
}
