// Package chunk implements a reader for nested tag-length-value containers
// of the IFF family (EA IFF 85 and the Maya 4- and 8-byte aligned variants).
//
// A container is a forest of chunks. Each chunk starts with a 4-byte ASCII
// tag and a big-endian length, followed by the payload and padding up to the
// alignment of the enclosing context. Container chunks (FORM, LIST, CAT,
// PROP and their Maya counterparts) carry a 4-byte form type followed by
// child chunks.
//
// The tree has no parent pointers: alignment and depth are passed down as
// parse context, so chunks only own their children.
package chunk

import (
	"bytes"
	"io"
)

// Tag is a 4-byte chunk identifier.
type Tag [4]byte

// MakeTag returns the tag for a 4-character string.
func MakeTag(s string) Tag {
	var t Tag
	copy(t[:], s)
	return t
}

// String returns the tag as text.
func (t Tag) String() string {
	return string(t[:])
}

// Valid reports whether t is a well-formed tag: printable ASCII only and no
// leading space.
func (t Tag) Valid() bool {
	if t[0] == ' ' {
		return false
	}
	for _, b := range t {
		if b < 0x20 || b > 0x7E {
			return false
		}
	}
	return true
}

// Kind identifies which handler parsed a chunk.
type Kind uint8

const (
	// KindOpaque is the default handler: the payload is stored or skipped.
	KindOpaque Kind = iota

	// KindForm is a FORM/FOR4/FOR8 container.
	KindForm

	// KindList is a LIST/LIS4/LIS8 container.
	KindList

	// KindCat is a CAT/CAT4/CAT8 container.
	KindCat

	// KindProp is a PROP/PRO4/PRO8 container.
	KindProp

	// KindData is a recognised data chunk with a typed decoder elsewhere.
	KindData
)

// IsContainer reports whether the kind holds child chunks.
func (k Kind) IsContainer() bool {
	return k >= KindForm && k <= KindProp
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindOpaque:
		return "opaque"
	case KindForm:
		return "form"
	case KindList:
		return "list"
	case KindCat:
		return "cat"
	case KindProp:
		return "prop"
	case KindData:
		return "data"
	default:
		return "unknown"
	}
}

// MaxCachedSize is the largest payload kept in memory by Parse. Larger
// payloads are read on demand through Open.
const MaxCachedSize = 8 << 20

// Chunk is a node of the container tree.
type Chunk struct {
	Tag      Tag
	Kind     Kind
	FormType Tag    // containers only
	Size     uint64 // declared payload length
	Offset   int64  // absolute offset of the payload
	Align    int    // alignment of the context the chunk lives in
	Depth    int
	Children []*Chunk

	data []byte
}

// NextOffset returns the offset of the next sibling: the end of the payload
// rounded up to the chunk's alignment.
func (c *Chunk) NextOffset() int64 {
	return alignUp(c.Offset+int64(c.Size), c.Align)
}

// Data returns the cached payload, or nil if the payload was not cached.
// Containers are never cached.
func (c *Chunk) Data() []byte {
	return c.data
}

// Cached reports whether the payload is held in memory.
func (c *Chunk) Cached() bool {
	return c.data != nil || c.Size == 0
}

// Open returns a reader over the payload. Cached payloads are served from
// memory; others are read from src on demand.
func (c *Chunk) Open(src io.ReaderAt) *io.SectionReader {
	if c.Cached() {
		return io.NewSectionReader(bytes.NewReader(c.data), 0, int64(len(c.data)))
	}
	return io.NewSectionReader(src, c.Offset, int64(c.Size))
}

// ReadAll returns the payload, reading it from src if it was not cached.
func (c *Chunk) ReadAll(src io.ReaderAt) ([]byte, error) {
	if c.Cached() {
		return c.data, nil
	}
	buf := make([]byte, c.Size)
	if _, err := src.ReadAt(buf, c.Offset); err != nil {
		return nil, err
	}
	return buf, nil
}

// Is reports whether c has the given tag.
func (c *Chunk) Is(tag Tag) bool {
	return c.Tag == tag
}

// alignUp rounds v up to a multiple of align.
func alignUp(v int64, align int) int64 {
	if align <= 1 {
		return v
	}
	a := int64(align)
	return (v + a - 1) / a * a
}
