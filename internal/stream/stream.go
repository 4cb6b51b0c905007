// Package stream provides the random-access byte source used by the container
// parsers.
//
// A Reader wraps an io.ReadSeeker and adds peek-ahead without consuming,
// big-endian integer helpers, a cap on the total number of bytes read and a
// context check used by the decode loops.
package stream

import (
	"context"
	"encoding/binary"
	"errors"
	"io"

	"github.com/gogpu/imgdec/internal/fault"
)

var be = binary.BigEndian

// Reader is a positioned random-access byte source.
//
// Reader is not safe for concurrent use; every decode call owns its Reader.
type Reader struct {
	rs     io.ReadSeeker
	ctx    context.Context
	pos    int64
	size   int64
	peek   []byte // bytes read ahead of pos
	read   int64  // total bytes consumed from rs
	budget int64  // 0 means unlimited
}

// Options configures a Reader.
type Options struct {
	// MaxBytes caps the total number of bytes read from the source.
	// Zero means unlimited.
	MaxBytes int64

	// Context is checked by Check. Nil means context.Background().
	Context context.Context
}

// New returns a Reader positioned at the current offset of rs.
func New(rs io.ReadSeeker, opts Options) (*Reader, error) {
	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fault.Wrap(fault.KindStructural, "stream: seek", err)
	}
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fault.Wrap(fault.KindStructural, "stream: seek", err)
	}
	if _, err := rs.Seek(pos, io.SeekStart); err != nil {
		return nil, fault.Wrap(fault.KindStructural, "stream: seek", err)
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return &Reader{rs: rs, ctx: ctx, pos: pos, size: size, budget: opts.MaxBytes}, nil
}

// Pos returns the current offset.
func (r *Reader) Pos() int64 {
	return r.pos
}

// Size returns the total size of the source.
func (r *Reader) Size() int64 {
	return r.size
}

// Remaining returns the number of bytes between the current offset and the end.
func (r *Reader) Remaining() int64 {
	return r.size - r.pos
}

// Check returns a non-nil error if the decode context is done.
func (r *Reader) Check() error {
	if err := r.ctx.Err(); err != nil {
		return fault.Wrap(fault.KindResourceLimit, "stream: cancelled", err)
	}
	return nil
}

// SeekTo moves to an absolute offset. Seeking past the end is a structural error.
func (r *Reader) SeekTo(offset int64) error {
	if offset < 0 || offset > r.size {
		return fault.At(fault.KindStructural, "stream: seek", offset, "outside stream of %d bytes", r.size)
	}
	if offset == r.pos {
		return nil
	}
	if _, err := r.rs.Seek(offset, io.SeekStart); err != nil {
		return fault.Wrap(fault.KindStructural, "stream: seek", err)
	}
	r.pos = offset
	r.peek = r.peek[:0]
	return nil
}

// Skip advances n bytes.
func (r *Reader) Skip(n int64) error {
	return r.SeekTo(r.pos + n)
}

// allow returns how many of n bytes the read budget still permits. Once
// the budget is spent it returns a resource-limit error.
func (r *Reader) allow(n int) (int, error) {
	if r.budget <= 0 {
		return n, nil
	}
	left := r.budget - r.read
	if left <= 0 {
		return 0, fault.At(fault.KindResourceLimit, "stream: read", r.pos, "byte budget %d exhausted", r.budget)
	}
	return int(min(int64(n), left)), nil
}

// Peek returns the next n bytes without advancing. The returned slice is only
// valid until the next call on r.
func (r *Reader) Peek(n int) ([]byte, error) {
	if len(r.peek) >= n {
		return r.peek[:n], nil
	}
	have := len(r.peek)
	if cap(r.peek) < n {
		grown := make([]byte, have, n)
		copy(grown, r.peek)
		r.peek = grown
	}
	if ok, _ := r.allow(n - have); ok < n-have {
		return nil, fault.At(fault.KindResourceLimit, "stream: peek", r.pos, "byte budget %d exhausted", r.budget)
	}
	r.peek = r.peek[:n]
	m, err := io.ReadFull(r.rs, r.peek[have:])
	r.peek = r.peek[:have+m]
	r.read += int64(m)
	if err != nil {
		return nil, r.truncated("stream: peek", err)
	}
	return r.peek, nil
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	if len(r.peek) > 0 {
		n := copy(p, r.peek)
		r.peek = r.peek[:copy(r.peek, r.peek[n:])]
		r.pos += int64(n)
		return n, nil
	}
	if len(p) == 0 {
		return 0, nil
	}
	allowed, err := r.allow(len(p))
	if err != nil {
		return 0, err
	}
	n, err := r.rs.Read(p[:allowed])
	r.pos += int64(n)
	r.read += int64(n)
	return n, err
}

// ReadByte implements io.ByteReader.
func (r *Reader) ReadByte() (byte, error) {
	var b [1]byte
	if err := r.ReadFull(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadFull reads exactly len(p) bytes.
func (r *Reader) ReadFull(p []byte) error {
	if _, err := io.ReadFull(r, p); err != nil {
		return r.truncated("stream: read", err)
	}
	return nil
}

// ReadAt implements io.ReaderAt without moving the current offset.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > r.size {
		return 0, fault.At(fault.KindStructural, "stream: read at", off, "outside stream of %d bytes", r.size)
	}
	saved := r.pos
	if err := r.SeekTo(off); err != nil {
		return 0, err
	}
	n, err := io.ReadFull(r, p)
	if serr := r.SeekTo(saved); serr != nil && err == nil {
		err = serr
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	return n, err
}

// Bytes reads n bytes into a new slice.
func (r *Reader) Bytes(n int64) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, fault.At(fault.KindTruncated, "stream: bytes", r.pos, "need %d bytes, have %d", n, r.Remaining())
	}
	buf := make([]byte, n)
	if err := r.ReadFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// U8 reads one byte.
func (r *Reader) U8() (uint8, error) {
	return r.ReadByte()
}

// U16 reads a big-endian uint16.
func (r *Reader) U16() (uint16, error) {
	var b [2]byte
	if err := r.ReadFull(b[:]); err != nil {
		return 0, err
	}
	return be.Uint16(b[:]), nil
}

// U32 reads a big-endian uint32.
func (r *Reader) U32() (uint32, error) {
	var b [4]byte
	if err := r.ReadFull(b[:]); err != nil {
		return 0, err
	}
	return be.Uint32(b[:]), nil
}

// I32 reads a big-endian int32.
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err //nolint:gosec // two's complement reinterpretation
}

// U64 reads a big-endian uint64.
func (r *Reader) U64() (uint64, error) {
	var b [8]byte
	if err := r.ReadFull(b[:]); err != nil {
		return 0, err
	}
	return be.Uint64(b[:]), nil
}

// truncated classifies a short read.
func (r *Reader) truncated(op string, err error) error {
	if fault.KindOf(err) != 0 {
		return err
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &fault.Error{Kind: fault.KindTruncated, Op: op, Offset: r.pos, Err: io.ErrUnexpectedEOF}
	}
	return &fault.Error{Kind: fault.KindStructural, Op: op, Offset: r.pos, Err: err}
}
