package rle

import "io"

// Amiga RGB8 and RGBN bodies store run-length encoded true-colour pixels.
//
// RGB8 packs each run in a 32-bit word: 8 bits each of red, green and blue,
// then a genlock bit and a 7-bit repeat count. RGBN packs it in a 16-bit
// word: 4 bits each of red, green and blue, a genlock bit and a 3-bit count.
// In both schemes a zero count escapes to the next byte, and a zero byte
// escapes to the next big-endian 16-bit word.

// amigaReader emits packed RGB triples from an RGB8 or RGBN stream.
type amigaReader struct {
	br     io.ByteReader
	nibble bool // RGBN
	rgb    [3]byte
	remain int // pixels left in the current run
	offset int // bytes of the current pixel already returned
	err    error
}

// NewRGB8Reader returns a reader producing 3 bytes per pixel from an Amiga
// RGB8 compressed body. Runs may cross scanline boundaries.
func NewRGB8Reader(br io.ByteReader) io.Reader {
	return &amigaReader{br: br}
}

// NewRGBNReader returns a reader producing 3 bytes per pixel from an Amiga
// RGBN compressed body. 4-bit channels are scaled to 8 bits.
func NewRGBNReader(br io.ByteReader) io.Reader {
	return &amigaReader{br: br, nibble: true}
}

// Read implements io.Reader.
func (r *amigaReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if r.remain == 0 {
			if r.err != nil {
				break
			}
			if r.err = r.next(); r.err != nil {
				continue
			}
		}
		c := copy(p[n:], r.rgb[r.offset:])
		n += c
		r.offset += c
		if r.offset == 3 {
			r.offset = 0
			r.remain--
		}
	}
	if n > 0 {
		return n, nil
	}
	return 0, r.err
}

// next reads the next run header.
func (r *amigaReader) next() error {
	var count int
	if r.nibble {
		hi, err := r.br.ReadByte()
		if err != nil {
			return err
		}
		lo, err := r.br.ReadByte()
		if err != nil {
			return truncated("rgbn: run word", err)
		}
		r.rgb[0] = (hi >> 4) * 17
		r.rgb[1] = (hi & 0x0f) * 17
		r.rgb[2] = (lo >> 4) * 17
		count = int(lo & 0x07)
	} else {
		var word [4]byte
		for i := range word {
			b, err := r.br.ReadByte()
			if err != nil {
				if i == 0 {
					return err
				}
				return truncated("rgb8: run word", err)
			}
			word[i] = b
		}
		r.rgb = [3]byte{word[0], word[1], word[2]}
		count = int(word[3] & 0x7f)
	}

	if count == 0 {
		b, err := r.br.ReadByte()
		if err != nil {
			return truncated("amiga: extended count", err)
		}
		count = int(b)
		if count == 0 {
			hi, err := r.br.ReadByte()
			if err != nil {
				return truncated("amiga: extended count", err)
			}
			lo, err := r.br.ReadByte()
			if err != nil {
				return truncated("amiga: extended count", err)
			}
			count = int(hi)<<8 | int(lo)
		}
	}
	r.remain = count
	r.offset = 0
	return nil
}
