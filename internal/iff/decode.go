package iff

import (
	stdcolor "image/color"
	"log/slog"

	"github.com/gogpu/imgdec/internal/chunk"
	"github.com/gogpu/imgdec/internal/color"
	"github.com/gogpu/imgdec/internal/fault"
	"github.com/gogpu/imgdec/internal/image"
	"github.com/gogpu/imgdec/internal/stream"
)

// Options configures Decode and Config.
type Options struct {
	// Frame selects the image form to decode, in file order.
	Frame int

	// Limits is checked before the raster is allocated.
	Limits image.Limits

	// Pool supplies scratch rows and tiles. Nil uses image.Default().
	Pool *image.Pool

	// Logger receives debug records about the frame layout. Nil discards.
	Logger *slog.Logger
}

// Info describes a decoded or inspected frame.
type Info struct {
	Width, Height int
	Format        image.Format
	Path          Path
	FormType      chunk.Tag

	// Frame is the selected frame, Frames the number of image forms.
	Frame, Frames int

	// Header is the BMHD of bitmap forms. CIMG frames fill Width, Height,
	// AspectX and AspectY from their TBHD.
	Header BitmapHeader
	Mode   uint32

	// ResolutionX and ResolutionY are in dots per metre; zero when unknown.
	ResolutionX, ResolutionY float64

	Text map[string]string
}

// frameDecoder holds the per-call state of one frame decode.
type frameDecoder struct {
	src   *stream.Reader
	frame chunk.Frame
	form  *chunk.Chunk
	info  Info
	pool  *image.Pool
	log   *slog.Logger

	pal   Palette
	base  Palette // pal padded to the plane count
	lines linePalettes
	tile  TileHeader // CIMG only
}

func newFrameDecoder(src *stream.Reader, tree []*chunk.Chunk, opts Options) (*frameDecoder, error) {
	frames := chunk.Frames(tree, imageForms...)
	if len(frames) == 0 {
		return nil, fault.New(fault.KindUnsupported, "iff: decode", "no image form")
	}
	if opts.Frame < 0 || opts.Frame >= len(frames) {
		return nil, fault.New(fault.KindStructural, "iff: decode", "frame %d of %d", opts.Frame, len(frames))
	}

	fd := &frameDecoder{
		src:   src,
		frame: frames[opts.Frame],
		pool:  opts.Pool,
		log:   opts.Logger,
	}
	if fd.pool == nil {
		fd.pool = image.Default()
	}
	if fd.log == nil {
		fd.log = slog.New(slog.DiscardHandler)
	}
	fd.form = fd.frame.Form
	fd.info = Info{
		FormType: fd.form.FormType,
		Frame:    opts.Frame,
		Frames:   len(frames),
		Text:     frameText(fd.frame, tree),
	}
	fd.info.ResolutionX, fd.info.ResolutionY = parseDPI(fd.frame.Find(tagDPI))

	if fd.form.FormType == FormCIMG {
		if err := fd.setupCIMG(); err != nil {
			return nil, err
		}
	} else if err := fd.setupBitmap(); err != nil {
		return nil, err
	}

	fd.log.Debug("iff: frame",
		"form", fd.form.FormType.String(),
		"frame", opts.Frame,
		"frames", len(frames),
		"width", fd.info.Width,
		"height", fd.info.Height,
		"format", fd.info.Format.String(),
		"path", fd.info.Path.String())
	return fd, nil
}

func (fd *frameDecoder) setupBitmap() error {
	bmhd := fd.frame.Find(tagBMHD)
	if bmhd == nil {
		return fault.New(fault.KindStructural, "iff: "+fd.form.FormType.String(), "no BMHD chunk")
	}
	h, err := ParseBitmapHeader(bmhd.Data())
	if err != nil {
		return err
	}
	mode := parseCAMG(fd.frame.Find(tagCAMG))
	fd.pal = framePalette(fd.frame)
	fd.lines = frameLinePalettes(fd.frame)
	if h.Planes > 8 {
		fd.lines = nil
	} else {
		fd.base = fd.pal.pad(1 << h.Planes)
	}

	sel, err := SelectFormat(h, fd.pal, mode, fd.form.FormType, len(fd.lines) > 0)
	if err != nil {
		return err
	}
	fd.info.Width, fd.info.Height = h.Width, h.Height
	fd.info.Format, fd.info.Path = sel.Format, sel.Path
	fd.info.Header = h
	fd.info.Mode = mode
	return nil
}

// Config returns the frame description without decoding pixels.
func Config(src *stream.Reader, tree []*chunk.Chunk, opts Options) (Info, error) {
	fd, err := newFrameDecoder(src, tree, opts)
	if err != nil {
		return Info{}, err
	}
	return fd.info, nil
}

// Decode decodes the selected frame of tree.
func Decode(src *stream.Reader, tree []*chunk.Chunk, opts Options) (*image.ImageBuf, Info, error) {
	fd, err := newFrameDecoder(src, tree, opts)
	if err != nil {
		return nil, Info{}, err
	}
	buf, err := opts.Limits.NewImageBuf(fd.info.Width, fd.info.Height, fd.info.Format)
	if err != nil {
		return nil, fd.info, err
	}
	if fd.info.FormType == FormCIMG {
		err = fd.decodeCIMG(buf)
	} else {
		err = fd.decodeBitmap(buf)
	}
	if err != nil {
		return nil, fd.info, err
	}
	return buf, fd.info, nil
}

// indexedPalette returns the palette attached to an Indexed8 raster.
func (fd *frameDecoder) indexedPalette() Palette {
	h := fd.info.Header
	var p Palette
	switch fd.info.Path {
	case PathChunky:
		p = fd.pal.pad(256)
	case PathHalfBrite:
		p = fd.pal.halfBrite(1 << (h.Planes - 1))
	default:
		p = fd.pal.pad(1 << h.Planes)
	}
	if h.Masking == MaskTransparentColor && h.TransparentIndex < len(p) {
		p[h.TransparentIndex].A = 0
	}
	return p
}

func (fd *frameDecoder) decodeBitmap(buf *image.ImageBuf) error {
	sd, err := fd.newScanlineDecoder()
	if err != nil {
		return err
	}
	defer sd.release()

	h := fd.info.Header
	w := h.Width

	var emit func(out []byte, y int, idx []uint64)
	switch fd.info.Path {
	case PathIndexed, PathHalfBrite:
		emit = emitIndexed
	case PathGray:
		emit = grayEmitter(h.Planes)
	case PathHAM:
		emit = fd.emitHAM
	case PathLinePalette:
		emit = fd.emitLinePalette
	case PathDeep:
		emit = deepEmitter(h.Planes)
	}
	if buf.Format() == image.FormatIndexed8 {
		buf.SetPalette(fd.indexedPalette().Std())
	}

	idx := make([]uint64, h.RowBytes()*8)
	for y := range h.Height {
		if err := fd.src.Check(); err != nil {
			return err
		}
		row, err := sd.next()
		if err != nil {
			return err
		}
		out := buf.RowBytes(y)
		switch fd.info.Path {
		case PathChunky:
			copy(out, row[:w])
		case PathAmigaRGB:
			copy(out, row[:3*w])
		default:
			deinterleave(idx, row, sd.rowBytes, h.Planes)
			emit(out, y, idx[:w])
		}
	}
	return nil
}

// deinterleave merges the first planes bitplanes of row into per-pixel
// values. Bit p of idx[x] is pixel x of plane p.
func deinterleave(idx []uint64, row []byte, rowBytes, planes int) {
	clear(idx)
	for p := range planes {
		bit := uint64(1) << p
		plane := row[p*rowBytes : (p+1)*rowBytes]
		for i, b := range plane {
			if b == 0 {
				continue
			}
			px := idx[i*8 : i*8+8]
			for k := range 8 {
				if b&(0x80>>k) != 0 {
					px[k] |= bit
				}
			}
		}
	}
}

func emitIndexed(out []byte, _ int, idx []uint64) {
	for x, v := range idx {
		out[x] = uint8(v)
	}
}

func grayEmitter(planes int) func([]byte, int, []uint64) {
	ramp := color.GrayRamp(planes)
	levels := make([]uint8, len(ramp))
	for i, c := range ramp {
		levels[i] = stdcolor.GrayModel.Convert(c).(stdcolor.Gray).Y
	}
	return func(out []byte, _ int, idx []uint64) {
		for x, v := range idx {
			out[x] = levels[v]
		}
	}
}

// rowPalette returns the palette in effect on scanline y.
func (fd *frameDecoder) rowPalette(y int) Palette {
	if line := fd.lines.forRow(y, fd.info.Height); line != nil {
		return merge(fd.base, line)
	}
	return fd.base
}

// emitHAM decodes one hold-and-modify row. The top two plane bits select
// the operation; the remaining bits are a palette index or a new component.
func (fd *frameDecoder) emitHAM(out []byte, y int, idx []uint64) {
	planes := fd.info.Header.Planes
	bits := planes - 2
	mask := uint64(1)<<bits - 1
	pal := fd.rowPalette(y)

	c := pal[0]
	r, g, b := c.R, c.G, c.B
	for x, v := range idx {
		val := v & mask
		switch v >> bits {
		case 0:
			e := pal[val]
			r, g, b = e.R, e.G, e.B
		case 1:
			r = color.ScaleBits(uint32(val), bits)
		case 2:
			b = color.ScaleBits(uint32(val), bits)
		case 3:
			g = color.ScaleBits(uint32(val), bits)
		}
		out[3*x], out[3*x+1], out[3*x+2] = r, g, b
	}
}

func (fd *frameDecoder) emitLinePalette(out []byte, y int, idx []uint64) {
	pal := fd.rowPalette(y)
	for x, v := range idx {
		c := pal[v]
		out[3*x], out[3*x+1], out[3*x+2] = c.R, c.G, c.B
	}
}

// deepEmitter returns the emitter for direct-colour bitplanes: 8 or 16
// planes per channel, least significant plane first, red first.
func deepEmitter(planes int) func([]byte, int, []uint64) {
	bits, channels := 8, 3
	switch planes {
	case 32:
		channels = 4
	case 48:
		bits = 16
	case 64:
		bits, channels = 16, 4
	}
	mask := uint64(1)<<bits - 1
	return func(out []byte, _ int, idx []uint64) {
		if bits == 8 {
			for x, v := range idx {
				px := out[x*channels : (x+1)*channels]
				for c := range px {
					px[c] = uint8(v >> (8 * c))
				}
			}
			return
		}
		for x, v := range idx {
			px := out[x*channels*2 : (x+1)*channels*2]
			for c := range channels {
				be.PutUint16(px[2*c:], uint16(v>>(16*c)&mask))
			}
		}
	}
}
