package iff

import (
	stdcolor "image/color"

	"github.com/gogpu/imgdec/internal/chunk"
	"github.com/gogpu/imgdec/internal/color"
)

// Palette is a colour map. Entries are straight alpha so that a transparent
// colour keeps its RGB value.
type Palette []stdcolor.NRGBA

// parseCMAP decodes a CMAP chunk of RGB triples.
//
// Early Amiga software wrote 4-bit components in the high nibble only. When
// every low nibble is zero the components are rescaled to the full range.
func parseCMAP(b []byte) Palette {
	n := len(b) / 3
	p := make(Palette, n)
	shifted := n > 0
	for i := range n {
		r, g, bl := b[3*i], b[3*i+1], b[3*i+2]
		if r&0x0f != 0 || g&0x0f != 0 || bl&0x0f != 0 {
			shifted = false
		}
		p[i] = stdcolor.NRGBA{R: r, G: g, B: bl, A: 0xff}
	}
	if shifted {
		for i := range p {
			p[i].R |= p[i].R >> 4
			p[i].G |= p[i].G >> 4
			p[i].B |= p[i].B >> 4
		}
	}
	return p
}

// parseCMYK decodes a CMYK chunk of 4-byte entries into RGB.
func parseCMYK(b []byte) Palette {
	n := len(b) / 4
	p := make(Palette, n)
	for i := range n {
		r, g, bl := color.CMYKToRGB(b[4*i], b[4*i+1], b[4*i+2], b[4*i+3])
		p[i] = stdcolor.NRGBA{R: r, G: g, B: bl, A: 0xff}
	}
	return p
}

// framePalette returns the frame's palette: CMAP if present, else CMYK.
func framePalette(f chunk.Frame) Palette {
	if c := f.Find(tagCMAP); c != nil && len(c.Data()) >= 3 {
		return parseCMAP(c.Data())
	}
	if c := f.Find(tagCMYK); c != nil && len(c.Data()) >= 4 {
		return parseCMYK(c.Data())
	}
	return nil
}

// pad extends p with opaque black to n entries. Longer palettes are cut.
func (p Palette) pad(n int) Palette {
	out := make(Palette, n)
	copy(out, p)
	for i := len(p); i < n; i++ {
		out[i] = stdcolor.NRGBA{A: 0xff}
	}
	return out
}

// halfBrite appends the half-brightness copy of the first n entries.
func (p Palette) halfBrite(n int) Palette {
	out := p.pad(2 * n)
	for i := range n {
		c := out[i]
		out[n+i] = stdcolor.NRGBA{R: c.R >> 1, G: c.G >> 1, B: c.B >> 1, A: 0xff}
	}
	return out
}

// Std converts the palette for an image.Paletted.
func (p Palette) Std() stdcolor.Palette {
	out := make(stdcolor.Palette, len(p))
	for i, c := range p {
		out[i] = c
	}
	return out
}

// linePalettes holds one 16-entry palette per scanline group, from a CTBL
// or SHAM chunk.
type linePalettes []Palette

const linePaletteSize = 16

// parseLinePalettes reads 12-bit Amiga colour words, 16 per line. SHAM has a
// leading version word.
func parseLinePalettes(b []byte, sham bool) linePalettes {
	if sham {
		if len(b) < 2 {
			return nil
		}
		b = b[2:]
	}
	const lineBytes = linePaletteSize * 2
	n := len(b) / lineBytes
	out := make(linePalettes, n)
	for i := range n {
		p := make(Palette, linePaletteSize)
		for j := range p {
			w := be.Uint16(b[i*lineBytes+2*j:])
			p[j] = stdcolor.NRGBA{
				R: uint8(w>>8&0xf) * 17,
				G: uint8(w>>4&0xf) * 17,
				B: uint8(w&0xf) * 17,
				A: 0xff,
			}
		}
		out[i] = p
	}
	return out
}

// frameLinePalettes returns the CTBL or SHAM tables of a frame.
func frameLinePalettes(f chunk.Frame) linePalettes {
	if c := f.Find(tagSHAM); c != nil {
		return parseLinePalettes(c.Data(), true)
	}
	if c := f.Find(tagCTBL); c != nil {
		return parseLinePalettes(c.Data(), false)
	}
	return nil
}

// forRow returns the table for scanline y of an image of the given height.
// Files with fewer tables than lines spread them evenly (interlaced SHAM).
func (lp linePalettes) forRow(y, height int) Palette {
	if len(lp) == 0 {
		return nil
	}
	if len(lp) >= height {
		return lp[y]
	}
	return lp[y*len(lp)/height]
}

// merge overlays the first entries of base with line.
func merge(base, line Palette) Palette {
	out := make(Palette, max(len(base), len(line)))
	copy(out, base)
	copy(out, line)
	return out
}
