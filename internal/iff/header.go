// Package iff decodes the image forms of the EA IFF-85 family: Amiga ILBM,
// PBM and ACBM bitmaps, the RGB8/RGBN true-colour forms and Maya CIMG tiled
// images.
//
// The package works on a chunk tree built by the chunk package. Each image
// form is one frame; header and palette chunks are looked up strictly inside
// the frame, falling back to PROP chunks of the enclosing lists.
package iff

import (
	"encoding/binary"

	"github.com/gogpu/imgdec/internal/chunk"
	"github.com/gogpu/imgdec/internal/fault"
)

var be = binary.BigEndian

// Chunk tags read by the decoder.
var (
	tagBMHD = chunk.MakeTag("BMHD")
	tagCMAP = chunk.MakeTag("CMAP")
	tagCMYK = chunk.MakeTag("CMYK")
	tagCAMG = chunk.MakeTag("CAMG")
	tagBODY = chunk.MakeTag("BODY")
	tagABIT = chunk.MakeTag("ABIT")
	tagCTBL = chunk.MakeTag("CTBL")
	tagSHAM = chunk.MakeTag("SHAM")
	tagDPI  = chunk.MakeTag("DPI ")
	tagTBHD = chunk.MakeTag("TBHD")
	tagRGBA = chunk.MakeTag("RGBA")
	tagVDAT = chunk.MakeTag("VDAT")
)

// Form types of the image forms.
var (
	FormILBM = chunk.MakeTag("ILBM")
	FormPBM  = chunk.MakeTag("PBM ")
	FormACBM = chunk.MakeTag("ACBM")
	FormRGB8 = chunk.MakeTag("RGB8")
	FormRGBN = chunk.MakeTag("RGBN")
	FormCIMG = chunk.MakeTag("CIMG")
)

// imageForms lists every form type treated as a frame.
var imageForms = []chunk.Tag{FormILBM, FormPBM, FormACBM, FormRGB8, FormRGBN, FormCIMG}

// Masking is the BMHD masking technique.
type Masking uint8

const (
	MaskNone Masking = iota
	MaskHasMask
	MaskTransparentColor
	MaskLasso
)

// Compression is the BMHD body compression.
type Compression uint8

const (
	CompressNone     Compression = 0
	CompressByteRun1 Compression = 1
	CompressVDAT     Compression = 2
	CompressRGBN     Compression = 4 // RGB8 and RGBN run-length bodies
)

// CAMG viewport mode bits.
const (
	ModeEHB uint32 = 0x0080 // extra half-brite
	ModeHAM uint32 = 0x0800 // hold-and-modify
)

// BitmapHeader is the BMHD chunk.
type BitmapHeader struct {
	Width, Height    int
	X, Y             int
	Planes           int
	Masking          Masking
	Compression      Compression
	TransparentIndex int
	AspectX, AspectY int
	PageWidth        int
	PageHeight       int
}

const bmhdSize = 20

// ParseBitmapHeader decodes a BMHD payload.
func ParseBitmapHeader(b []byte) (BitmapHeader, error) {
	if len(b) < bmhdSize {
		return BitmapHeader{}, fault.New(fault.KindTruncated, "iff: BMHD", "%d bytes, need %d", len(b), bmhdSize)
	}
	h := BitmapHeader{
		Width:            int(be.Uint16(b[0:])),
		Height:           int(be.Uint16(b[2:])),
		X:                int(int16(be.Uint16(b[4:]))),
		Y:                int(int16(be.Uint16(b[6:]))),
		Planes:           int(b[8]),
		Masking:          Masking(b[9]),
		Compression:      Compression(b[10]),
		TransparentIndex: int(be.Uint16(b[12:])),
		AspectX:          int(b[14]),
		AspectY:          int(b[15]),
		PageWidth:        int(int16(be.Uint16(b[16:]))),
		PageHeight:       int(int16(be.Uint16(b[18:]))),
	}
	if h.Width == 0 || h.Height == 0 {
		return h, fault.New(fault.KindStructural, "iff: BMHD", "empty image %dx%d", h.Width, h.Height)
	}
	if h.Planes == 0 || h.Planes > 64 {
		return h, fault.New(fault.KindUnsupported, "iff: BMHD", "%d planes", h.Planes)
	}
	return h, nil
}

// RowBytes returns the bytes in one plane row: the width rounded up to a
// 16-bit word.
func (h BitmapHeader) RowBytes() int {
	return (h.Width + 15) / 16 * 2
}

// planeCount is the number of stored planes per row, mask plane included.
func (h BitmapHeader) planeCount() int {
	if h.Masking == MaskHasMask {
		return h.Planes + 1
	}
	return h.Planes
}

// parseCAMG returns the viewport mode, or 0 without a CAMG chunk.
func parseCAMG(c *chunk.Chunk) uint32 {
	if c == nil || len(c.Data()) < 4 {
		return 0
	}
	return be.Uint32(c.Data())
}

// parseDPI returns the resolution in dots per metre.
func parseDPI(c *chunk.Chunk) (x, y float64) {
	if c == nil || len(c.Data()) < 4 {
		return 0, 0
	}
	b := c.Data()
	return dpiToDPM(be.Uint16(b[0:])), dpiToDPM(be.Uint16(b[2:]))
}

func dpiToDPM(v uint16) float64 {
	return float64(v) / 0.0254
}
