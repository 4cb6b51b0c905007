package xcf

import (
	"math"
	"strconv"

	"github.com/gogpu/imgdec/internal/blend"
	"github.com/gogpu/imgdec/internal/fault"
	"github.com/gogpu/imgdec/internal/image"
)

// LayerType is the pixel layout of a layer.
type LayerType uint32

const (
	LayerRGB LayerType = iota
	LayerRGBA
	LayerGray
	LayerGrayA
	LayerIndexed
	LayerIndexedA
)

var layerTypeNames = [...]string{"rgb", "rgba", "gray", "graya", "indexed", "indexeda"}

func (t LayerType) String() string {
	if int(t) < len(layerTypeNames) {
		return layerTypeNames[t]
	}
	return "layer(" + strconv.Itoa(int(t)) + ")"
}

// Channels returns the stored channels per pixel.
func (t LayerType) Channels() int {
	switch t {
	case LayerRGB:
		return 3
	case LayerRGBA:
		return 4
	case LayerGray, LayerIndexed:
		return 1
	case LayerGrayA, LayerIndexedA:
		return 2
	}
	return 0
}

// HasAlpha reports whether the last channel is alpha.
func (t LayerType) HasAlpha() bool {
	return t == LayerRGBA || t == LayerGrayA || t == LayerIndexedA
}

// Layer is the parsed description of one layer.
type Layer struct {
	Name          string
	Width, Height int
	Type          LayerType

	// X and Y are the canvas offset of the layer's top-left pixel.
	X, Y int

	// Opacity is at the working depth of the image.
	Opacity   uint32
	Mode      blend.Mode
	Visible   bool
	ApplyMask bool
	Group     bool

	hierarchy int64
	mask      int64
}

// layerState is the progress of one layer through the decoder.
type layerState uint8

const (
	stateHeader layerState = iota
	stateProperties
	stateOffsets
	stateTileGrid
	stateMaskGrid
	stateMerge
	stateMerged
	stateSkipped
)

var stateNames = [...]string{"header", "properties", "offsets", "tiles", "mask", "merge", "merged", "skipped"}

func (s layerState) String() string {
	return stateNames[s]
}

func (s layerState) terminal() bool {
	return s == stateMerged || s == stateSkipped
}

// layerLoader walks one layer from its header to the canvas.
type layerLoader struct {
	d     *decoder
	ptr   int64
	state layerState
	layer Layer

	// base makes the layer initialise the canvas.
	base bool

	pix  *image.ImageBuf
	mask *image.ImageBuf
}

func (l *layerLoader) run() error {
	defer l.release()
	for !l.state.terminal() {
		if err := l.step(); err != nil {
			return err
		}
	}
	return nil
}

func (l *layerLoader) release() {
	l.d.pool.Put(l.pix)
	l.d.pool.Put(l.mask)
	l.pix, l.mask = nil, nil
}

func (l *layerLoader) step() error {
	d := l.d
	switch l.state {
	case stateHeader:
		if err := d.r.SeekTo(l.ptr); err != nil {
			return err
		}
		w, err := d.r.U32()
		if err != nil {
			return err
		}
		h, err := d.r.U32()
		if err != nil {
			return err
		}
		t, err := d.r.U32()
		if err != nil {
			return err
		}
		name, err := readString(d.r)
		if err != nil {
			return err
		}
		l.layer = Layer{
			Name:    name,
			Width:   int(w),
			Height:  int(h),
			Type:    LayerType(t),
			Opacity: d.max,
			Visible: true,
		}
		if l.layer.Type.Channels() == 0 {
			return fault.At(fault.KindUnsupported, "xcf: layer", l.ptr, "pixel type %d", t)
		}
		l.state = stateProperties

	case stateProperties:
		if err := readProperties(d.r, l.property); err != nil {
			return err
		}
		l.state = stateOffsets

	case stateOffsets:
		var err error
		if l.layer.hierarchy, err = readPointer(d.r, d.header); err != nil {
			return err
		}
		if l.layer.mask, err = readPointer(d.r, d.header); err != nil {
			return err
		}
		switch {
		case l.layer.Group, !l.layer.Visible, l.layer.Opacity == 0, l.layer.Width == 0, l.layer.Height == 0:
			l.state = stateSkipped
		case l.layer.hierarchy == 0:
			return fault.At(fault.KindStructural, "xcf: layer", l.ptr, "layer %q has no pixels", l.layer.Name)
		default:
			l.state = stateTileGrid
		}

	case stateTileGrid:
		if err := l.decodePixels(); err != nil {
			return err
		}
		l.state = stateMerge
		if l.layer.ApplyMask && l.layer.mask != 0 {
			l.state = stateMaskGrid
		}

	case stateMaskGrid:
		if err := l.decodeMask(); err != nil {
			return err
		}
		l.state = stateMerge

	case stateMerge:
		d.merge(l)
		l.state = stateMerged
	}
	return nil
}

func (l *layerLoader) property(p property) error {
	top := l.d.max
	switch p.id {
	case propOpacity:
		v, err := p.u32()
		if err != nil {
			return err
		}
		v = min(v, 255)
		if top == 0xffff {
			v *= 0x101
		}
		l.layer.Opacity = v
	case propFloatOpacity:
		f, err := p.f32(0)
		if err != nil {
			return err
		}
		if !math.IsNaN(float64(f)) {
			l.layer.Opacity = uint32(math.Round(float64(top) * min(max(float64(f), 0), 1)))
		}
	case propMode:
		v, err := p.u32()
		if err != nil {
			return err
		}
		l.layer.Mode = blend.Mode(v)
	case propVisible:
		v, err := p.u32()
		if err != nil {
			return err
		}
		l.layer.Visible = v != 0
	case propApplyMask:
		v, err := p.u32()
		if err != nil {
			return err
		}
		l.layer.ApplyMask = v != 0
	case propOffsets:
		if err := p.need(8); err != nil {
			return err
		}
		l.layer.X = int(int32(be.Uint32(p.payload)))
		l.layer.Y = int(int32(be.Uint32(p.payload[4:])))
	case propGroupItem:
		l.layer.Group = true
	}
	return nil
}

// decodePixels decodes the layer tiles into an RGBA buffer at the working
// depth.
func (l *layerLoader) decodePixels() error {
	d := l.d
	ly := l.layer
	comp := d.header.Precision.Component
	if (ly.Type == LayerIndexed || ly.Type == LayerIndexedA) && comp != U8 {
		return fault.At(fault.KindUnsupported, "xcf: layer", l.ptr, "indexed layer at %s", d.header.Precision)
	}
	bpp := ly.Type.Channels() * comp.Size()
	lv, err := readLevel(d.r, d.header, ly.hierarchy, ly.Width, ly.Height, bpp)
	if err != nil {
		return err
	}
	if err := d.opts.Limits.Check(ly.Width, ly.Height, d.format); err != nil {
		return err
	}
	l.pix = d.pool.Get(ly.Width, ly.Height, d.format)

	pr := pixelReader{prec: d.header.Precision, typ: ly.Type, cmap: d.props.colormap, max: d.max}
	raw := d.pool.Bytes(TileSize * TileSize * bpp)
	defer d.pool.PutBytes(raw)

	for i := range lv.tiles {
		if err := d.r.Check(); err != nil {
			return err
		}
		rc := TileRect(i, ly.Width, ly.Height)
		tile := raw[:rc.W*rc.H*bpp]
		if err := d.tiles.read(lv, i, tile); err != nil {
			return err
		}
		for ty := range rc.H {
			src := tile[ty*rc.W*bpp:]
			dst := l.pix.RowBytes(rc.Y + ty)
			for tx := range rc.W {
				putPixel(dst, rc.X+tx, pr.pixel(src[tx*bpp:]), d.deep)
			}
		}
	}
	return nil
}

// decodeMask decodes the layer mask channel into a gray buffer.
func (l *layerLoader) decodeMask() error {
	d := l.d
	ly := l.layer
	ptr := ly.mask
	if err := d.r.SeekTo(ptr); err != nil {
		return err
	}
	w, err := d.r.U32()
	if err != nil {
		return err
	}
	h, err := d.r.U32()
	if err != nil {
		return err
	}
	if int(w) != ly.Width || int(h) != ly.Height {
		return fault.At(fault.KindStructural, "xcf: mask", ptr, "size %dx%d, layer is %dx%d", w, h, ly.Width, ly.Height)
	}
	if _, err := readString(d.r); err != nil {
		return err
	}
	if err := readProperties(d.r, func(property) error { return nil }); err != nil {
		return err
	}
	hptr, err := readPointer(d.r, d.header)
	if err != nil {
		return err
	}

	prec := d.header.Precision
	bpp := prec.Component.Size()
	lv, err := readLevel(d.r, d.header, hptr, ly.Width, ly.Height, bpp)
	if err != nil {
		return err
	}
	gray := image.FormatGray8
	if d.deep {
		gray = image.FormatGray16
	}
	if err := d.opts.Limits.Check(ly.Width, ly.Height, gray); err != nil {
		return err
	}
	l.mask = d.pool.Get(ly.Width, ly.Height, gray)

	raw := d.pool.Bytes(TileSize * TileSize * bpp)
	defer d.pool.PutBytes(raw)
	for i := range lv.tiles {
		if err := d.r.Check(); err != nil {
			return err
		}
		rc := TileRect(i, ly.Width, ly.Height)
		tile := raw[:rc.W*rc.H*bpp]
		if err := d.tiles.read(lv, i, tile); err != nil {
			return err
		}
		for ty := range rc.H {
			src := tile[ty*rc.W*bpp:]
			dst := l.mask.RowBytes(rc.Y + ty)
			for tx := range rc.W {
				v := prec.sample(src[tx*bpp:], false)
				if d.deep {
					be.PutUint16(dst[2*(rc.X+tx):], uint16(v))
				} else {
					dst[rc.X+tx] = uint8(v)
				}
			}
		}
	}
	return nil
}

// pixelReader converts stored pixels to working-depth RGBA.
type pixelReader struct {
	prec Precision
	typ  LayerType
	cmap []byte
	max  uint32
}

func (pr pixelReader) pixel(b []byte) blend.Pixel {
	s := pr.prec.Component.Size()
	var p blend.Pixel
	alpha := 3
	switch pr.typ {
	case LayerRGB, LayerRGBA:
		for c := range 3 {
			p[c] = pr.prec.sample(b[c*s:], true)
		}
	case LayerGray, LayerGrayA:
		v := pr.prec.sample(b, true)
		p[0], p[1], p[2] = v, v, v
		alpha = 1
	case LayerIndexed, LayerIndexedA:
		if i := int(b[0]) * 3; i+2 < len(pr.cmap) {
			p[0], p[1], p[2] = uint32(pr.cmap[i]), uint32(pr.cmap[i+1]), uint32(pr.cmap[i+2])
		}
		alpha = 1
	}
	p[3] = pr.max
	if pr.typ.HasAlpha() {
		p[3] = pr.prec.sample(b[alpha*s:], false)
	}
	return p
}

func putPixel(row []byte, x int, p blend.Pixel, deep bool) {
	if deep {
		px := row[8*x : 8*x+8]
		for c, v := range p {
			be.PutUint16(px[2*c:], uint16(v))
		}
		return
	}
	px := row[4*x : 4*x+4]
	for c, v := range p {
		px[c] = uint8(v)
	}
}

func getPixel(row []byte, x int, deep bool) blend.Pixel {
	var p blend.Pixel
	if deep {
		px := row[8*x : 8*x+8]
		for c := range p {
			p[c] = uint32(be.Uint16(px[2*c:]))
		}
		return p
	}
	px := row[4*x : 4*x+4]
	for c := range p {
		p[c] = uint32(px[c])
	}
	return p
}
