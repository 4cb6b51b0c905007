package imgdec

import (
	"bytes"
	"io"

	"github.com/gogpu/imgdec/internal/chunk"
	"github.com/gogpu/imgdec/internal/fault"
	"github.com/gogpu/imgdec/internal/xcf"
)

// Container identifies the file family of an input.
type Container uint8

const (
	// ContainerUnknown is neither IFF nor XCF.
	ContainerUnknown Container = iota

	// ContainerIFF is an IFF-85 or Maya IFF chunk forest (FORM, LIST, CAT
	// and their 4- and 8-byte aligned variants at the top level).
	ContainerIFF

	// ContainerXCF is a GIMP XCF file.
	ContainerXCF
)

// String returns the container name.
func (c Container) String() string {
	switch c {
	case ContainerIFF:
		return "IFF"
	case ContainerXCF:
		return "XCF"
	default:
		return "unknown"
	}
}

// sniffLen covers the 14-byte XCF signature and an IFF group header.
const sniffLen = 16

// Sniff identifies the container of r by its leading bytes and restores the
// read position. Unrecognised input returns ContainerUnknown and an error
// wrapping ErrUnsupported.
func Sniff(r io.ReadSeeker) (Container, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return ContainerUnknown, fault.Wrap(fault.KindStructural, "imgdec: sniff", err)
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return ContainerUnknown, fault.Wrap(fault.KindStructural, "imgdec: sniff", err)
	}
	if _, err := r.Seek(pos, io.SeekStart); err != nil {
		return ContainerUnknown, fault.Wrap(fault.KindStructural, "imgdec: sniff", err)
	}
	return sniffBytes(head[:n])
}

func sniffBytes(head []byte) (Container, error) {
	if bytes.HasPrefix(head, []byte(xcf.Magic)) {
		return ContainerXCF, nil
	}
	if len(head) >= 4 {
		switch chunk.TagKind(chunk.Tag(head[:4])) {
		case chunk.KindForm, chunk.KindList, chunk.KindCat:
			return ContainerIFF, nil
		}
	}
	return ContainerUnknown, fault.At(fault.KindUnsupported, "imgdec: sniff", 0, "unrecognised signature %q", head[:min(len(head), 4)])
}
