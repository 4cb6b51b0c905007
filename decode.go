package imgdec

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gogpu/imgdec/internal/chunk"
	"github.com/gogpu/imgdec/internal/fault"
	"github.com/gogpu/imgdec/internal/iff"
	"github.com/gogpu/imgdec/internal/image"
	"github.com/gogpu/imgdec/internal/stream"
	"github.com/gogpu/imgdec/internal/xcf"
)

// Decode reads an IFF or XCF image from r and returns the decoded raster.
//
// r must be seekable: chunk and tile offsets are followed directly. Decoding
// is single-threaded and checks ctx once per scanline or tile; a cancelled
// context fails with an error wrapping both ErrResourceLimit and ctx.Err().
//
// On failure no raster is returned, except that an XCF layer failing after
// the canvas was initialised leaves it out of the composite and records a
// warning in Metadata.Warnings.
func Decode(ctx context.Context, r io.ReadSeeker, opts ...Option) (*Raster, error) {
	d, err := newDecoder(ctx, r, opts)
	if err != nil {
		return nil, err
	}

	var (
		buf *image.ImageBuf
		md  Metadata
	)
	switch d.container {
	case ContainerIFF:
		var tree []*chunk.Chunk
		tree, err = d.parseIFF()
		if err != nil {
			return nil, err
		}
		var info iff.Info
		buf, info, err = iff.Decode(d.src, tree, d.iffOptions())
		if err != nil {
			return nil, fmt.Errorf("imgdec: decode IFF: %w", err)
		}
		md = iffMetadata(info)
	case ContainerXCF:
		if err = d.xcfFrame(); err != nil {
			return nil, err
		}
		var info xcf.Info
		buf, info, err = xcf.Decode(d.src, d.xcfOptions())
		if err != nil {
			return nil, fmt.Errorf("imgdec: decode XCF: %w", err)
		}
		md = xcfMetadata(info)
	}

	d.opts.logger.Debug("imgdec: decoded",
		"container", d.container.String(),
		"width", buf.Width(),
		"height", buf.Height(),
		"format", buf.Format().String(),
		"warnings", len(md.Warnings))
	return &Raster{
		Width:    buf.Width(),
		Height:   buf.Height(),
		Format:   buf.Format(),
		Metadata: md,
		buf:      buf,
	}, nil
}

// DecodeConfig returns the dimensions, pixel format and metadata of the
// image in r without decoding or allocating pixels. For XCF files Merged is
// zero and Warnings empty, since no layer is composited.
func DecodeConfig(ctx context.Context, r io.ReadSeeker, opts ...Option) (Config, error) {
	d, err := newDecoder(ctx, r, opts)
	if err != nil {
		return Config{}, err
	}

	switch d.container {
	case ContainerIFF:
		tree, err := d.parseIFF()
		if err != nil {
			return Config{}, err
		}
		info, err := iff.Config(d.src, tree, d.iffOptions())
		if err != nil {
			return Config{}, fmt.Errorf("imgdec: decode IFF config: %w", err)
		}
		return Config{Width: info.Width, Height: info.Height, Format: info.Format, Metadata: iffMetadata(info)}, nil
	default:
		if err := d.xcfFrame(); err != nil {
			return Config{}, err
		}
		info, err := xcf.Config(d.src, d.xcfOptions())
		if err != nil {
			return Config{}, fmt.Errorf("imgdec: decode XCF config: %w", err)
		}
		return Config{Width: info.Width, Height: info.Height, Format: info.Format, Metadata: xcfMetadata(info)}, nil
	}
}

// DecodeFile opens path and decodes it.
func DecodeFile(ctx context.Context, path string, opts ...Option) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imgdec: %w", err)
	}
	defer f.Close()

	return Decode(ctx, f, opts...)
}

// decoder carries the state shared by Decode and DecodeConfig.
type decoder struct {
	opts      options
	container Container
	src       *stream.Reader
}

func newDecoder(ctx context.Context, r io.ReadSeeker, opts []Option) (*decoder, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	o := buildOptions(opts)

	c, err := Sniff(r)
	if err != nil {
		return nil, err
	}
	src, err := stream.New(r, stream.Options{MaxBytes: o.maxBytes, Context: ctx})
	if err != nil {
		return nil, fmt.Errorf("imgdec: %w", err)
	}
	o.logger.Debug("imgdec: open", "container", c.String(), "size", src.Size())
	return &decoder{opts: o, container: c, src: src}, nil
}

func (d *decoder) parseIFF() ([]*chunk.Chunk, error) {
	tree, err := chunk.Parse(d.src, chunk.Options{Logger: d.opts.logger})
	if err != nil {
		return nil, fmt.Errorf("imgdec: parse IFF: %w", err)
	}
	return tree, nil
}

func (d *decoder) iffOptions() iff.Options {
	return iff.Options{
		Frame:  d.opts.frame,
		Limits: d.opts.limits(),
		Pool:   d.opts.imagePool(),
		Logger: d.opts.logger,
	}
}

func (d *decoder) xcfOptions() xcf.Options {
	return xcf.Options{
		Limits: d.opts.limits(),
		Pool:   d.opts.imagePool(),
		Logger: d.opts.logger,
	}
}

// xcfFrame rejects frame selections other than 0; an XCF file is one image.
func (d *decoder) xcfFrame() error {
	if d.opts.frame != 0 {
		return fault.New(fault.KindStructural, "imgdec: decode XCF", "frame %d of 1", d.opts.frame)
	}
	return nil
}

func iffMetadata(info iff.Info) Metadata {
	return Metadata{
		Container:   ContainerIFF,
		FormType:    info.FormType.String(),
		ResolutionX: info.ResolutionX,
		ResolutionY: info.ResolutionY,
		Orientation: 1,
		Text:        info.Text,
		Frame:       info.Frame,
		Frames:      info.Frames,
	}
}

func xcfMetadata(info xcf.Info) Metadata {
	md := Metadata{
		Container:   ContainerXCF,
		FormType:    "XCF",
		ResolutionX: info.ResolutionX,
		ResolutionY: info.ResolutionY,
		ICC:         info.ICC,
		Orientation: 1,
		Frames:      1,
		Layers:      info.Layers,
		Merged:      info.Merged,
		Warnings:    info.Warnings,
	}
	if info.Comment != "" {
		md.Text = map[string]string{"Comment": info.Comment}
	}
	return md
}
