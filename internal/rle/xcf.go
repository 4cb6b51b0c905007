package rle

import "github.com/gogpu/imgdec/internal/fault"

// UnpackXCF decodes one RLE-compressed XCF tile.
//
// The tile holds bpp independent byte streams, one per byte of the
// underlying pixel, each covering len(dst)/bpp pixels. Stream i is scattered
// into dst at offsets i, i+bpp, i+2*bpp and so on.
//
// Control byte n >= 128 starts a literal run of 256-n bytes; n == 128 takes
// the length from the next big-endian 16-bit word. n < 128 starts a repeat
// run of n+1 copies of the next byte; n == 127 takes the length from the
// next 16-bit word. A run that would write past the tile or read past src is
// reported as fault.ErrCorruptRLE.
func UnpackXCF(dst, src []byte, bpp int) (consumed int, err error) {
	if bpp <= 0 || len(dst)%bpp != 0 {
		return 0, fault.New(fault.KindCorruptRLE, "xcf rle", "tile size %d is not a multiple of bpp %d", len(dst), bpp)
	}
	pixels := len(dst) / bpp

	for channel := 0; channel < bpp; channel++ {
		pos := channel
		left := pixels

		for left > 0 {
			if consumed >= len(src) {
				return consumed, fault.New(fault.KindCorruptRLE, "xcf rle", "stream ends with %d pixels left in channel %d", left, channel)
			}
			n := int(src[consumed])
			consumed++

			literal := n >= 128
			var length int
			if literal {
				length = 256 - n
			} else {
				length = n + 1
			}
			if length == 128 {
				if consumed+2 > len(src) {
					return consumed, fault.New(fault.KindCorruptRLE, "xcf rle", "missing extended length")
				}
				length = int(src[consumed])<<8 | int(src[consumed+1])
				consumed += 2
			}

			if length > left {
				return consumed, fault.New(fault.KindCorruptRLE, "xcf rle", "run of %d exceeds %d remaining pixels", length, left)
			}
			left -= length

			if literal {
				if consumed+length > len(src) {
					return consumed, fault.New(fault.KindCorruptRLE, "xcf rle", "literal run of %d past end of data", length)
				}
				for _, v := range src[consumed : consumed+length] {
					dst[pos] = v
					pos += bpp
				}
				consumed += length
				continue
			}

			if consumed >= len(src) {
				return consumed, fault.New(fault.KindCorruptRLE, "xcf rle", "repeat run without value")
			}
			v := src[consumed]
			consumed++
			for ; length > 0; length-- {
				dst[pos] = v
				pos += bpp
			}
		}
	}
	return consumed, nil
}
