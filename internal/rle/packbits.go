// Package rle implements the run-length decompressors used by the chunked and
// tiled image containers.
//
// Each variant is either a pure function over byte slices or a small
// io.Reader that owns its own carry-over state; no variant shares mutable
// state with another.
//
// Bounds discipline: the slice decoders stop the moment the output buffer is
// full and report how many bytes they wrote. A short count is a partial
// result the caller may tolerate or reject; it is not an error by itself.
package rle

import (
	"io"

	"github.com/gogpu/imgdec/internal/fault"
)

// Dialect selects how the PackBits control byte -128 is interpreted.
//
// The PSD/TIFF dialect treats -128 as a no-op. The IFF dialect treats it as
// a run of the following byte with length 1. Decoding a stream with the
// wrong dialect silently corrupts every later row, so callers always choose
// explicitly.
type Dialect uint8

const (
	// DialectTIFF skips -128 control bytes (PSD, TIFF, MacPaint).
	DialectTIFF Dialect = iota

	// DialectIFF decodes -128 as a one-byte run (ILBM ByteRun1).
	DialectIFF
)

// String returns the dialect name.
func (d Dialect) String() string {
	if d == DialectIFF {
		return "iff"
	}
	return "tiff"
}

// maxPacket is the largest output of a single PackBits packet.
const maxPacket = 128

// UnpackBits decodes PackBits data from src into dst.
//
// It returns the number of bytes written to dst and consumed from src.
// Decoding stops when dst is full or src is exhausted; a packet that does
// not fit is written up to the capacity of dst.
func UnpackBits(dst, src []byte, d Dialect) (written, consumed int) {
	for consumed < len(src) && written < len(dst) {
		n := int(int8(src[consumed]))
		consumed++

		switch {
		case n >= 0:
			count := n + 1
			avail := len(src) - consumed
			if count > avail {
				count = avail
			}
			c := copy(dst[written:], src[consumed:consumed+count])
			written += c
			consumed += count
			if c < n+1 {
				return written, consumed
			}

		case n == -128 && d == DialectTIFF:
			// no-op

		default:
			if consumed >= len(src) {
				return written, consumed
			}
			value := src[consumed]
			consumed++
			count := 1 - n
			if n == -128 {
				count = 1
			}
			end := written + count
			if end > len(dst) {
				end = len(dst)
			}
			for i := written; i < end; i++ {
				dst[i] = value
			}
			written = end
		}
	}
	return written, consumed
}

// packBitsReader streams decoded PackBits data. It holds at most one
// decoded packet of carry-over between reads.
type packBitsReader struct {
	br      io.ByteReader
	dialect Dialect
	buf     [maxPacket]byte
	pending []byte
	err     error
}

// NewPackBitsReader returns a reader that decodes PackBits data from br.
//
// A run that decodes to more bytes than the caller asks for is kept and
// returned by the next Read, so callers can slice exact scanlines off the
// stream. A packet cut short by the end of br yields fault.ErrTruncated.
func NewPackBitsReader(br io.ByteReader, d Dialect) io.Reader {
	return &packBitsReader{br: br, dialect: d}
}

// Read implements io.Reader.
func (r *packBitsReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(r.pending) == 0 {
			if r.err != nil {
				break
			}
			r.err = r.fill()
			continue
		}
		c := copy(p[n:], r.pending)
		r.pending = r.pending[c:]
		n += c
	}
	if n > 0 {
		return n, nil
	}
	return 0, r.err
}

// fill decodes the next packet into pending.
func (r *packBitsReader) fill() error {
	b, err := r.br.ReadByte()
	if err != nil {
		return err
	}
	n := int(int8(b))
	switch {
	case n >= 0:
		count := n + 1
		for i := 0; i < count; i++ {
			if r.buf[i], err = r.br.ReadByte(); err != nil {
				return truncated("packbits: literal run", err)
			}
		}
		r.pending = r.buf[:count]

	case n == -128 && r.dialect == DialectTIFF:
		r.pending = r.buf[:0]

	default:
		value, err := r.br.ReadByte()
		if err != nil {
			return truncated("packbits: repeat run", err)
		}
		count := 1 - n
		if n == -128 {
			count = 1
		}
		for i := 0; i < count; i++ {
			r.buf[i] = value
		}
		r.pending = r.buf[:count]
	}
	return nil
}

// truncated classifies an unexpected end of input inside a packet.
func truncated(op string, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return fault.Wrap(fault.KindTruncated, op, io.ErrUnexpectedEOF)
	}
	return fault.Wrap(fault.KindTruncated, op, err)
}
