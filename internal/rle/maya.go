package rle

// UnpackMaya decodes Maya IFF tile RLE from src into dst.
//
// Each packet starts with a length byte whose top bit selects a repeat run
// (set) or a literal run (clear); the run length is the low seven bits plus
// one. Decoding stops when dst is full or src is exhausted.
func UnpackMaya(dst, src []byte) (written, consumed int) {
	for consumed < len(src) && written < len(dst) {
		b := src[consumed]
		consumed++
		count := int(b&0x7f) + 1

		if b&0x80 != 0 {
			if consumed >= len(src) {
				break
			}
			value := src[consumed]
			consumed++
			end := min(written+count, len(dst))
			for i := written; i < end; i++ {
				dst[i] = value
			}
			written = end
			continue
		}

		avail := min(count, len(src)-consumed)
		c := copy(dst[written:], src[consumed:consumed+avail])
		written += c
		consumed += avail
	}
	return written, consumed
}
