package imgdec

import "github.com/gogpu/imgdec/internal/fault"

// Decode failures wrap exactly one of these sentinels.
var (
	// ErrStructural reports an invalid tag, an offset or size pointing outside
	// the stream, or a missing mandatory chunk.
	ErrStructural = fault.ErrStructural

	// ErrTruncated reports a stream that ends before a declared length.
	ErrTruncated = fault.ErrTruncated

	// ErrUnsupported reports a recognised but unimplemented variant.
	ErrUnsupported = fault.ErrUnsupported

	// ErrResourceLimit reports dimensions, sizes or budgets over a ceiling,
	// or a cancelled context.
	ErrResourceLimit = fault.ErrResourceLimit

	// ErrCorruptRLE reports run-length data inconsistent with its output.
	ErrCorruptRLE = fault.ErrCorruptRLE
)

// Error is the concrete error type returned by decodes. It carries the
// operation and, when known, the byte offset of the failure.
type Error = fault.Error
