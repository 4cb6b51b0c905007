package xcf

import (
	"bytes"
	"math"

	"github.com/gogpu/imgdec/internal/fault"
	"github.com/gogpu/imgdec/internal/stream"
)

// Property identifiers used by the decoder. Others are skipped.
const (
	propEnd          = 0
	propColormap     = 1
	propOpacity      = 6
	propMode         = 7
	propVisible      = 8
	propApplyMask    = 11
	propOffsets      = 15
	propCompression  = 17
	propResolution   = 19
	propParasites    = 21
	propGroupItem    = 29
	propFloatOpacity = 33
)

// Compression is the tile encoding of the whole file.
type Compression uint8

const (
	CompressNone Compression = iota
	CompressRLE
	CompressZlib
	CompressFractal
)

func (c Compression) String() string {
	switch c {
	case CompressNone:
		return "none"
	case CompressRLE:
		return "rle"
	case CompressZlib:
		return "zlib"
	case CompressFractal:
		return "fractal"
	}
	return "unknown"
}

// Parasite names surfaced as metadata.
const (
	parasiteICC     = "icc-profile"
	parasiteComment = "gimp-comment"
)

// maxProperty bounds a single property payload.
const maxProperty = 64 << 20

type property struct {
	id      uint32
	offset  int64
	payload []byte
}

// readProperties reads a property list up to and including PROP_END and
// calls fn for every other property. COLORMAP is read by its entry count,
// since old writers stored a wrong length for it.
func readProperties(r *stream.Reader, fn func(property) error) error {
	for {
		if err := r.Check(); err != nil {
			return err
		}
		off := r.Pos()
		id, err := r.U32()
		if err != nil {
			return err
		}
		n, err := r.U32()
		if err != nil {
			return err
		}
		if id == propEnd {
			return nil
		}

		var payload []byte
		if id == propColormap {
			payload, err = readColormapPayload(r, off)
		} else {
			if n > maxProperty {
				return fault.At(fault.KindStructural, "xcf: property", off, "property %d has length %d", id, n)
			}
			payload, err = r.Bytes(int64(n))
		}
		if err != nil {
			return err
		}
		if err := fn(property{id: id, offset: off, payload: payload}); err != nil {
			return err
		}
	}
}

func readColormapPayload(r *stream.Reader, off int64) ([]byte, error) {
	count, err := r.U32()
	if err != nil {
		return nil, err
	}
	if count > 256 {
		return nil, fault.At(fault.KindStructural, "xcf: colormap", off, "%d entries", count)
	}
	entries, err := r.Bytes(int64(count) * 3)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, 4, 4+len(entries))
	be.PutUint32(payload, count)
	return append(payload, entries...), nil
}

func (p property) need(n int) error {
	if len(p.payload) < n {
		return fault.At(fault.KindTruncated, "xcf: property", p.offset,
			"property %d has %d bytes, need %d", p.id, len(p.payload), n)
	}
	return nil
}

func (p property) u32() (uint32, error) {
	if err := p.need(4); err != nil {
		return 0, err
	}
	return be.Uint32(p.payload), nil
}

func (p property) f32(i int) (float32, error) {
	if err := p.need(4 * (i + 1)); err != nil {
		return 0, err
	}
	return math.Float32frombits(be.Uint32(p.payload[4*i:])), nil
}

// parasite is one named attachment of a PARASITES property.
type parasite struct {
	name  string
	flags uint32
	data  []byte
}

func parseParasites(p property) ([]parasite, error) {
	var out []parasite
	b := p.payload
	for len(b) > 0 {
		if len(b) < 4 {
			return out, fault.At(fault.KindTruncated, "xcf: parasite", p.offset, "name length past property end")
		}
		n := int(be.Uint32(b))
		b = b[4:]
		if len(b) < n+8 {
			return out, fault.At(fault.KindTruncated, "xcf: parasite", p.offset, "parasite header past property end")
		}
		name := string(bytes.TrimRight(b[:n], "\x00"))
		b = b[n:]
		flags, size := be.Uint32(b), int(be.Uint32(b[4:]))
		b = b[8:]
		if len(b) < size {
			return out, fault.At(fault.KindTruncated, "xcf: parasite", p.offset, "parasite %q data past property end", name)
		}
		out = append(out, parasite{name: name, flags: flags, data: b[:size:size]})
		b = b[size:]
	}
	return out, nil
}

// imageProps is what the decoder keeps from the image property list.
type imageProps struct {
	compression Compression
	colormap    []byte // 3 bytes per entry
	xres, yres  float32
	icc         []byte
	comment     string
}

func readImageProps(r *stream.Reader) (imageProps, error) {
	var ip imageProps
	err := readProperties(r, func(p property) error {
		switch p.id {
		case propColormap:
			ip.colormap = p.payload[4:]
		case propCompression:
			if err := p.need(1); err != nil {
				return err
			}
			ip.compression = Compression(p.payload[0])
			if ip.compression == CompressFractal {
				return fault.At(fault.KindUnsupported, "xcf: compression", p.offset, "fractal compression")
			}
			if ip.compression > CompressFractal {
				return fault.At(fault.KindUnsupported, "xcf: compression", p.offset, "compression %d", p.payload[0])
			}
		case propResolution:
			var err error
			if ip.xres, err = p.f32(0); err != nil {
				return err
			}
			if ip.yres, err = p.f32(1); err != nil {
				return err
			}
		case propParasites:
			ps, err := parseParasites(p)
			if err != nil {
				return err
			}
			for _, ps := range ps {
				switch ps.name {
				case parasiteICC:
					ip.icc = ps.data
				case parasiteComment:
					ip.comment = string(bytes.TrimRight(ps.data, "\x00"))
				}
			}
		}
		return nil
	})
	return ip, err
}

// dotsPerMetre converts a resolution in pixels per inch.
func dotsPerMetre(ppi float32) float64 {
	if ppi <= 0 || math.IsNaN(float64(ppi)) || math.IsInf(float64(ppi), 0) {
		return 0
	}
	return float64(ppi) / 0.0254
}
