package rle

import "github.com/gogpu/imgdec/internal/fault"

// UnpackVDAT decodes one bit-plane stored as an Atari ST "VDAT" vertical
// word RLE stream (ILBM compression 2) into dst, which holds rows scanlines
// of rowBytes bytes each.
//
// The stream starts with a 16-bit command count (including itself), then
// count-2 signed command bytes, then the 16-bit data words. Words fill the
// plane column by column: each 16-pixel column runs from the top row to the
// bottom row before the next column starts.
//
//	cmd == 0   literal run, length in the next data word
//	cmd == 1   repeat run, length in the next data word, value follows
//	cmd <  0   literal run of -cmd words
//	cmd >= 2   repeat run of cmd copies of the next data word
func UnpackVDAT(dst, src []byte, rowBytes, rows int) error {
	if rowBytes%2 != 0 || rows <= 0 || len(dst) < rowBytes*rows {
		return fault.New(fault.KindStructural, "vdat", "plane of %dx%d does not fit %d bytes", rowBytes, rows, len(dst))
	}
	if len(src) < 2 {
		return fault.New(fault.KindTruncated, "vdat", "missing command count")
	}
	cmdCount := int(src[0])<<8 | int(src[1])
	if cmdCount < 2 || cmdCount > len(src) {
		return fault.New(fault.KindCorruptRLE, "vdat", "command count %d outside %d bytes", cmdCount, len(src))
	}
	cmds := src[2:cmdCount]
	data := src[cmdCount:]

	total := (rowBytes / 2) * rows // words in the plane
	k := 0                         // words written
	d := 0                         // data offset

	word := func() (byte, byte, bool) {
		if d+2 > len(data) {
			return 0, 0, false
		}
		hi, lo := data[d], data[d+1]
		d += 2
		return hi, lo, true
	}
	put := func(hi, lo byte) {
		x := k / rows
		y := k % rows
		off := y*rowBytes + x*2
		dst[off] = hi
		dst[off+1] = lo
		k++
	}

	for _, c := range cmds {
		if k >= total {
			break
		}
		cmd := int(int8(c))
		var count int
		literal := false

		switch {
		case cmd == 0 || cmd == 1:
			hi, lo, ok := word()
			if !ok {
				return fault.New(fault.KindTruncated, "vdat", "missing run length")
			}
			count = int(hi)<<8 | int(lo)
			literal = cmd == 0
		case cmd < 0:
			count = -cmd
			literal = true
		default:
			count = cmd
		}

		if count > total-k {
			return fault.New(fault.KindCorruptRLE, "vdat", "run of %d words exceeds %d remaining", count, total-k)
		}

		if literal {
			for ; count > 0; count-- {
				hi, lo, ok := word()
				if !ok {
					return fault.New(fault.KindTruncated, "vdat", "literal run past end of data")
				}
				put(hi, lo)
			}
			continue
		}

		hi, lo, ok := word()
		if !ok {
			return fault.New(fault.KindTruncated, "vdat", "repeat run without value")
		}
		for ; count > 0; count-- {
			put(hi, lo)
		}
	}

	if k < total {
		return fault.New(fault.KindTruncated, "vdat", "plane incomplete: %d of %d words", k, total)
	}
	return nil
}
