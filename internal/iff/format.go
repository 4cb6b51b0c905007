package iff

import (
	"github.com/gogpu/imgdec/internal/chunk"
	"github.com/gogpu/imgdec/internal/fault"
	"github.com/gogpu/imgdec/internal/image"
)

// Path is the pixel path chosen for a frame.
type Path uint8

const (
	PathGray        Path = iota // bitplanes through a grayscale ramp
	PathIndexed                 // bitplanes as palette indices
	PathHalfBrite               // indices into a synthesised half-brite palette
	PathHAM                     // hold-and-modify to RGB
	PathLinePalette             // indices through a per-scanline palette to RGB
	PathDeep                    // 24 to 64 planes holding direct colour
	PathChunky                  // PBM: one byte per pixel
	PathAmigaRGB                // RGB8/RGBN run-length body
)

var pathNames = [...]string{
	PathGray:        "gray",
	PathIndexed:     "indexed",
	PathHalfBrite:   "half-brite",
	PathHAM:         "ham",
	PathLinePalette: "line-palette",
	PathDeep:        "deep",
	PathChunky:      "chunky",
	PathAmigaRGB:    "amiga-rgb",
}

func (p Path) String() string {
	if int(p) < len(pathNames) {
		return pathNames[p]
	}
	return "unknown"
}

// Selection is the output format and pixel path for a frame.
type Selection struct {
	Format image.Format
	Path   Path
}

// SelectFormat chooses the output format from the header, palette, CAMG
// mode and form type. perLine reports a CTBL or SHAM chunk.
func SelectFormat(h BitmapHeader, pal Palette, mode uint32, form chunk.Tag, perLine bool) (Selection, error) {
	switch form {
	case FormRGB8, FormRGBN:
		if h.Compression != CompressRGBN {
			return Selection{}, fault.New(fault.KindUnsupported, "iff: select", "%s body compression %d", form, h.Compression)
		}
		return Selection{image.FormatRGB8, PathAmigaRGB}, nil
	case FormPBM:
		if h.Planes != 8 {
			return Selection{}, fault.New(fault.KindUnsupported, "iff: select", "PBM with %d planes", h.Planes)
		}
		if len(pal) > 0 {
			return Selection{image.FormatIndexed8, PathChunky}, nil
		}
		return Selection{image.FormatGray8, PathChunky}, nil
	}

	switch p := h.Planes; {
	case p >= 1 && p <= 8:
		switch {
		case mode&ModeHAM != 0 && p >= 5 && (len(pal) > 0 || perLine):
			return Selection{image.FormatRGB8, PathHAM}, nil
		case perLine:
			return Selection{image.FormatRGB8, PathLinePalette}, nil
		case mode&ModeEHB != 0 && len(pal) > 0 && len(pal) <= 1<<(p-1):
			return Selection{image.FormatIndexed8, PathHalfBrite}, nil
		case len(pal) > 0:
			return Selection{image.FormatIndexed8, PathIndexed}, nil
		case mode&ModeHAM != 0:
			return Selection{}, fault.New(fault.KindUnsupported, "iff: select", "HAM with %d planes and no palette", p)
		default:
			return Selection{image.FormatGray8, PathGray}, nil
		}
	case p == 24 || p == 25:
		return Selection{image.FormatRGB8, PathDeep}, nil
	case p == 32:
		return Selection{image.FormatRGBA8, PathDeep}, nil
	case p == 48:
		return Selection{image.FormatRGB16, PathDeep}, nil
	case p == 64:
		return Selection{image.FormatRGBA16, PathDeep}, nil
	}
	return Selection{}, fault.New(fault.KindUnsupported, "iff: select", "%d planes in %s", h.Planes, form)
}
