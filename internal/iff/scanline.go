package iff

import (
	"bufio"
	"bytes"
	"errors"
	"io"

	"github.com/gogpu/imgdec/internal/chunk"
	"github.com/gogpu/imgdec/internal/fault"
	"github.com/gogpu/imgdec/internal/image"
	"github.com/gogpu/imgdec/internal/rle"
	"github.com/gogpu/imgdec/internal/stream"
)

// byteSource is a body reader that also serves single bytes to the run
// length decoders.
type byteSource interface {
	io.Reader
	io.ByteReader
}

// openBody returns a reader over the payload of c, cached or not.
func openBody(src *stream.Reader, c *chunk.Chunk) byteSource {
	if c.Cached() {
		return bytes.NewReader(c.Data())
	}
	return bufio.NewReader(c.Open(src))
}

// scanlineDecoder produces the stored rows of one bitmap body in order.
// A row holds every stored plane, mask included, back to back.
//
// The decoder is owned by a single Decode call. Stream-backed bodies keep
// the run-length carry-over in their reader; VDAT and ACBM bodies are
// decoded to whole planes up front and sliced per row.
type scanlineDecoder struct {
	r        io.Reader // row stream, nil for whole-plane bodies
	planes   []byte    // whole-plane bodies: planeCount * rowBytes * height
	rowBytes int       // bytes per plane row, or per chunky row
	count    int       // stored planes per row
	height   int
	y        int
	row      []byte
	pool     *image.Pool
}

func newRowDecoder(r io.Reader, rowBytes, count, height int, pool *image.Pool) *scanlineDecoder {
	return &scanlineDecoder{
		r:        r,
		rowBytes: rowBytes,
		count:    count,
		height:   height,
		row:      pool.Bytes(rowBytes * count),
		pool:     pool,
	}
}

func newPlaneDecoder(planes []byte, rowBytes, count, height int, pool *image.Pool) *scanlineDecoder {
	return &scanlineDecoder{
		planes:   planes,
		rowBytes: rowBytes,
		count:    count,
		height:   height,
		row:      pool.Bytes(rowBytes * count),
		pool:     pool,
	}
}

// next returns the next stored row. The slice is reused by the next call.
func (d *scanlineDecoder) next() ([]byte, error) {
	if d.y >= d.height {
		return nil, io.EOF
	}
	y := d.y
	d.y++

	if d.r == nil {
		plane := d.rowBytes * d.height
		for p := range d.count {
			off := p*plane + y*d.rowBytes
			copy(d.row[p*d.rowBytes:(p+1)*d.rowBytes], d.planes[off:off+d.rowBytes])
		}
		return d.row, nil
	}

	if _, err := io.ReadFull(d.r, d.row); err != nil {
		if fault.KindOf(err) != 0 {
			return nil, err
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fault.New(fault.KindTruncated, "iff: body", "row %d of %d", y, d.height)
		}
		return nil, fault.Wrap(fault.KindStructural, "iff: body", err)
	}
	return d.row, nil
}

// release returns the row buffer to the pool.
func (d *scanlineDecoder) release() {
	d.pool.PutBytes(d.row)
	d.row = nil
}

// newScanlineDecoder picks the body decoder for the frame's compression.
func (fd *frameDecoder) newScanlineDecoder() (*scanlineDecoder, error) {
	h := fd.info.Header
	rowBytes, count := h.RowBytes(), h.planeCount()

	switch fd.info.Path {
	case PathChunky:
		rowBytes, count = h.Width+h.Width&1, 1
	case PathAmigaRGB:
		rowBytes, count = h.Width*3, 1
	}

	if fd.form.FormType == FormACBM {
		abit := fd.frame.Find(tagABIT)
		if abit == nil {
			return nil, fault.New(fault.KindStructural, "iff: ACBM", "no ABIT chunk")
		}
		data, err := abit.ReadAll(fd.src)
		if err != nil {
			return nil, err
		}
		if need := rowBytes * count * h.Height; len(data) < need {
			return nil, fault.New(fault.KindTruncated, "iff: ABIT", "%d bytes, need %d", len(data), need)
		}
		return newPlaneDecoder(data, rowBytes, count, h.Height, fd.pool), nil
	}

	body := fd.frame.Find(tagBODY)
	if body == nil {
		return nil, fault.New(fault.KindStructural, "iff: "+fd.form.FormType.String(), "no BODY chunk")
	}
	br := openBody(fd.src, body)

	if fd.info.Path == PathAmigaRGB {
		if fd.form.FormType == FormRGBN {
			return newRowDecoder(rle.NewRGBNReader(br), rowBytes, count, h.Height, fd.pool), nil
		}
		return newRowDecoder(rle.NewRGB8Reader(br), rowBytes, count, h.Height, fd.pool), nil
	}

	switch h.Compression {
	case CompressNone:
		return newRowDecoder(br, rowBytes, count, h.Height, fd.pool), nil
	case CompressByteRun1:
		return newRowDecoder(rle.NewPackBitsReader(br, rle.DialectIFF), rowBytes, count, h.Height, fd.pool), nil
	case CompressVDAT:
		if fd.info.Path == PathChunky {
			break
		}
		data, err := body.ReadAll(fd.src)
		if err != nil {
			return nil, err
		}
		planes, err := decodeVDAT(data, rowBytes, count, h.Height)
		if err != nil {
			return nil, err
		}
		return newPlaneDecoder(planes, rowBytes, count, h.Height, fd.pool), nil
	}
	return nil, fault.New(fault.KindUnsupported, "iff: body", "compression %d", h.Compression)
}

// decodeVDAT decodes a BODY made of one VDAT chunk per plane.
func decodeVDAT(body []byte, rowBytes, count, height int) ([]byte, error) {
	plane := rowBytes * height
	out := make([]byte, plane*count)
	off := 0
	for p := range count {
		if off+8 > len(body) {
			return nil, fault.New(fault.KindTruncated, "iff: VDAT", "plane %d of %d missing", p, count)
		}
		if chunk.Tag(body[off:off+4]) != tagVDAT {
			return nil, fault.New(fault.KindStructural, "iff: VDAT", "plane %d has tag %q", p, body[off:off+4])
		}
		n := int(be.Uint32(body[off+4:]))
		off += 8
		if n > len(body)-off {
			return nil, fault.New(fault.KindTruncated, "iff: VDAT", "plane %d length %d", p, n)
		}
		if err := rle.UnpackVDAT(out[p*plane:(p+1)*plane], body[off:off+n], rowBytes, height); err != nil {
			return nil, err
		}
		off += n + n&1
	}
	return out, nil
}
