// Package xcf decodes GIMP XCF images by flattening their layers.
//
// A file is a header, an image property list and a list of layer pointers.
// Every layer stores its pixels as a hierarchy of 64x64 tiles, optionally
// compressed with a per-byte RLE or zlib, at one of several precisions.
// Layers are converted to an 8- or 16-bit working depth and merged bottom
// to top through the blend package.
package xcf

import (
	"encoding/binary"
	"strconv"

	"github.com/gogpu/imgdec/internal/fault"
	"github.com/gogpu/imgdec/internal/stream"
)

var be = binary.BigEndian

// Magic is the file signature.
const Magic = "gimp xcf "

// BaseType is the image colour model.
type BaseType uint32

const (
	BaseRGB BaseType = iota
	BaseGray
	BaseIndexed
)

func (t BaseType) String() string {
	switch t {
	case BaseRGB:
		return "rgb"
	case BaseGray:
		return "gray"
	case BaseIndexed:
		return "indexed"
	default:
		return "base(" + strconv.Itoa(int(t)) + ")"
	}
}

// Header is the fixed part at the start of a file.
type Header struct {
	// Version is 0 for the original "file" version, N for "v00N".
	Version   int
	Width     int
	Height    int
	BaseType  BaseType
	Precision Precision
}

// wide reports whether file pointers are 64 bits.
func (h Header) wide() bool {
	return h.Version >= 11
}

func readHeader(r *stream.Reader) (Header, error) {
	var h Header
	magic := make([]byte, 14)
	if err := r.ReadFull(magic); err != nil {
		return h, err
	}
	if string(magic[:9]) != Magic {
		return h, fault.At(fault.KindStructural, "xcf: header", 0, "bad magic %q", magic[:9])
	}
	if magic[13] != 0 {
		return h, fault.At(fault.KindStructural, "xcf: header", 13, "version not terminated")
	}
	switch v := string(magic[9:13]); {
	case v == "file":
		h.Version = 0
	case v[0] == 'v':
		n, err := strconv.Atoi(v[1:])
		if err != nil {
			return h, fault.At(fault.KindStructural, "xcf: header", 9, "bad version %q", v)
		}
		h.Version = n
	default:
		return h, fault.At(fault.KindStructural, "xcf: header", 9, "bad version %q", v)
	}

	w, err := r.U32()
	if err != nil {
		return h, err
	}
	ht, err := r.U32()
	if err != nil {
		return h, err
	}
	bt, err := r.U32()
	if err != nil {
		return h, err
	}
	if w == 0 || ht == 0 {
		return h, fault.New(fault.KindStructural, "xcf: header", "image size %dx%d", w, ht)
	}
	h.Width, h.Height, h.BaseType = int(w), int(ht), BaseType(bt)
	if h.BaseType > BaseIndexed {
		return h, fault.New(fault.KindUnsupported, "xcf: header", "base type %d", bt)
	}

	h.Precision = Precision{Component: U8}
	if h.Version >= 4 {
		p, err := r.U32()
		if err != nil {
			return h, err
		}
		if h.Precision, err = parsePrecision(h.Version, p); err != nil {
			return h, err
		}
	}
	return h, nil
}

// readPointer reads a file offset of the header's pointer width.
func readPointer(r *stream.Reader, h Header) (int64, error) {
	if h.wide() {
		v, err := r.U64()
		if err != nil {
			return 0, err
		}
		if v > uint64(r.Size()) {
			return 0, fault.At(fault.KindStructural, "xcf: pointer", r.Pos()-8, "%d outside stream", v)
		}
		return int64(v), nil
	}
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	if int64(v) > r.Size() {
		return 0, fault.At(fault.KindStructural, "xcf: pointer", r.Pos()-4, "%d outside stream", v)
	}
	return int64(v), nil
}

// readPointers reads a zero-terminated pointer list.
func readPointers(r *stream.Reader, h Header) ([]int64, error) {
	var out []int64
	for {
		p, err := readPointer(r, h)
		if err != nil {
			return nil, err
		}
		if p == 0 {
			return out, nil
		}
		out = append(out, p)
	}
}

// readString reads a length-prefixed, NUL-terminated string.
func readString(r *stream.Reader) (string, error) {
	n, err := r.U32()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	b, err := r.Bytes(int64(n))
	if err != nil {
		return "", err
	}
	return string(b[:n-1]), nil
}
