package iff

import (
	"github.com/gogpu/imgdec/internal/chunk"
	"github.com/gogpu/imgdec/internal/fault"
	"github.com/gogpu/imgdec/internal/image"
	"github.com/gogpu/imgdec/internal/rle"
)

// Maya TBHD flags.
const (
	TileRGB   uint32 = 0x1
	TileAlpha uint32 = 0x2
	TileZBuf  uint32 = 0x4
)

// TileHeader is the TBHD chunk of a Maya CIMG image.
type TileHeader struct {
	Width, Height int
	PrNum, PrDen  int // pixel aspect ratio
	Flags         uint32
	Bytes         int // 0: 8-bit channels, 1: 16-bit channels
	Tiles         int
	Compression   uint32
}

const tbhdSize = 24

// ParseTileHeader decodes a TBHD payload.
func ParseTileHeader(b []byte) (TileHeader, error) {
	if len(b) < tbhdSize {
		return TileHeader{}, fault.New(fault.KindTruncated, "iff: TBHD", "%d bytes, need %d", len(b), tbhdSize)
	}
	th := TileHeader{
		Width:       int(be.Uint32(b[0:])),
		Height:      int(be.Uint32(b[4:])),
		PrNum:       int(be.Uint16(b[8:])),
		PrDen:       int(be.Uint16(b[10:])),
		Flags:       be.Uint32(b[12:]),
		Bytes:       int(be.Uint16(b[16:])),
		Tiles:       int(be.Uint16(b[18:])),
		Compression: be.Uint32(b[20:]),
	}
	switch {
	case th.Width == 0 || th.Height == 0:
		return th, fault.New(fault.KindStructural, "iff: TBHD", "empty image %dx%d", th.Width, th.Height)
	case th.Flags&TileRGB == 0:
		return th, fault.New(fault.KindUnsupported, "iff: TBHD", "flags %#x without RGB", th.Flags)
	case th.Bytes > 1:
		return th, fault.New(fault.KindUnsupported, "iff: TBHD", "channel size %d", th.Bytes)
	case th.Compression > 1:
		return th, fault.New(fault.KindUnsupported, "iff: TBHD", "compression %d", th.Compression)
	}
	return th, nil
}

// Format returns the raster format for the tile header.
func (th TileHeader) Format() image.Format {
	f := image.FormatRGB8
	if th.Flags&TileAlpha != 0 {
		f = image.FormatRGBA8
	}
	if th.Bytes == 1 {
		f = f.Deep()
	}
	return f
}

func (fd *frameDecoder) setupCIMG() error {
	c := fd.frame.Find(tagTBHD)
	if c == nil {
		return fault.New(fault.KindStructural, "iff: CIMG", "no TBHD chunk")
	}
	th, err := ParseTileHeader(c.Data())
	if err != nil {
		return err
	}
	fd.tile = th
	fd.info.Width, fd.info.Height = th.Width, th.Height
	fd.info.Format = th.Format()
	fd.info.Path = PathDeep
	fd.info.Header = BitmapHeader{
		Width:   th.Width,
		Height:  th.Height,
		AspectX: th.PrNum,
		AspectY: th.PrDen,
	}
	return nil
}

// decodeCIMG copies every RGBA tile into buf. Tiles are stored bottom-up
// with the channels of each pixel in reverse order. A compressed tile holds
// one run-length plane per pixel byte.
func (fd *frameDecoder) decodeCIMG(buf *image.ImageBuf) error {
	th := fd.tile
	format := th.Format()
	pixBytes := format.BytesPerPixel()
	sample := format.BitsPerChannel() / 8

	tiles := chunk.FindAll(fd.form.Children, tagRGBA)
	if len(tiles) != th.Tiles {
		fd.log.Debug("iff: CIMG tile count", "declared", th.Tiles, "found", len(tiles))
	}

	for i, c := range tiles {
		if err := fd.src.Check(); err != nil {
			return err
		}
		data, err := c.ReadAll(fd.src)
		if err != nil {
			return err
		}
		if len(data) < 8 {
			return fault.At(fault.KindTruncated, "iff: RGBA", c.Offset, "tile %d header", i)
		}
		x1, y1 := int(be.Uint16(data[0:])), int(be.Uint16(data[2:]))
		x2, y2 := int(be.Uint16(data[4:])), int(be.Uint16(data[6:]))
		if x1 > x2 || y1 > y2 || x2 >= th.Width || y2 >= th.Height {
			return fault.At(fault.KindStructural, "iff: RGBA", c.Offset,
				"tile %d rect (%d,%d)-(%d,%d) outside %dx%d", i, x1, y1, x2, y2, th.Width, th.Height)
		}
		tw, tht := x2-x1+1, y2-y1+1
		n := tw * tht * pixBytes

		if err := fd.decodeTile(buf, data[8:], n, tw, tht, x1, y1, pixBytes, sample); err != nil {
			return err
		}
	}
	return nil
}

func (fd *frameDecoder) decodeTile(buf *image.ImageBuf, payload []byte, n, tw, tht, x1, y1, pixBytes, sample int) error {
	scratch := fd.pool.Bytes(n)
	defer fd.pool.PutBytes(scratch)

	// planar reports whether byte j of pixel p lives at j*tw*tht+p.
	planar := false
	switch {
	case len(payload) == n:
		copy(scratch, payload)
	case fd.tile.Compression == 1:
		written, _ := rle.UnpackMaya(scratch, payload)
		if written != n {
			return fault.New(fault.KindCorruptRLE, "iff: RGBA", "tile decoded to %d of %d bytes", written, n)
		}
		planar = true
	default:
		return fault.New(fault.KindTruncated, "iff: RGBA", "tile has %d of %d bytes", len(payload), n)
	}

	channels := pixBytes / sample
	height := fd.tile.Height
	for ty := range tht {
		out := buf.RowBytes(height - 1 - (y1 + ty))
		for tx := range tw {
			p := ty*tw + tx
			dst := out[(x1+tx)*pixBytes : (x1+tx+1)*pixBytes]
			for j := range pixBytes {
				var v byte
				if planar {
					v = scratch[j*tw*tht+p]
				} else {
					v = scratch[p*pixBytes+j]
				}
				// stored byte j is byte j%sample of channel (channels-1-j/sample)
				c := channels - 1 - j/sample
				dst[c*sample+j%sample] = v
			}
		}
	}
	return nil
}
