// Package fault defines the error taxonomy shared by the container parsers
// and pixel decoders.
//
// Every failure surfaced by the decoding engine wraps exactly one of the
// sentinel errors below, so callers can classify it with errors.Is without
// depending on message text.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a decode failure.
type Kind uint8

const (
	// KindStructural covers invalid tags, offsets outside the stream and
	// nesting that cannot degrade gracefully.
	KindStructural Kind = iota + 1

	// KindTruncated means the stream ended before a declared length was
	// satisfied.
	KindTruncated

	// KindUnsupported is a recognised but unimplemented variant.
	KindUnsupported

	// KindResourceLimit means declared sizes exceed a configured ceiling.
	KindResourceLimit

	// KindCorruptRLE means a run is inconsistent with the remaining space.
	KindCorruptRLE
)

// Sentinel errors, one per Kind.
var (
	ErrStructural    = errors.New("structural error")
	ErrTruncated     = errors.New("truncated input")
	ErrUnsupported   = errors.New("unsupported variant")
	ErrResourceLimit = errors.New("resource limit exceeded")
	ErrCorruptRLE    = errors.New("corrupted RLE data")
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "StructuralError"
	case KindTruncated:
		return "TruncatedInput"
	case KindUnsupported:
		return "UnsupportedVariant"
	case KindResourceLimit:
		return "ResourceLimitExceeded"
	case KindCorruptRLE:
		return "CorruptedRLE"
	default:
		return "Unknown"
	}
}

// Sentinel returns the sentinel error for k, or nil for an unknown kind.
func (k Kind) Sentinel() error {
	switch k {
	case KindStructural:
		return ErrStructural
	case KindTruncated:
		return ErrTruncated
	case KindUnsupported:
		return ErrUnsupported
	case KindResourceLimit:
		return ErrResourceLimit
	case KindCorruptRLE:
		return ErrCorruptRLE
	default:
		return nil
	}
}

// Error is a classified decode failure with the operation and stream offset
// at which it was detected. Offset is -1 when unknown.
type Error struct {
	Kind   Kind
	Op     string
	Offset int64
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Sentinel().Error()
	if e.Offset >= 0 {
		msg = fmt.Sprintf("%s at offset %d", msg, e.Offset)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel error for e.Kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.Sentinel()
}

// New returns a classified error without stream position.
func New(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Offset: -1, Err: fmt.Errorf(format, args...)}
}

// At returns a classified error detected at the given stream offset.
func At(kind Kind, op string, offset int64, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Offset: offset, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies err. A nil err yields nil. If err is already classified
// it is returned with op prepended to its message, keeping its kind.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &Error{Kind: kind, Op: op, Offset: -1, Err: err}
}

// KindOf returns the kind of err, or 0 if err is not classified.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	for _, k := range []Kind{KindStructural, KindTruncated, KindUnsupported, KindResourceLimit, KindCorruptRLE} {
		if errors.Is(err, k.Sentinel()) {
			return k
		}
	}
	return 0
}
