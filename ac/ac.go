// Package ac implements an adaptive arithmetic (range) coder operating on unsigned 32-bit intervals,
// in the byte-exact stream format used by compressed point cloud files.
//
// A coding session binds an Encoder to a sink or a Decoder to a source, creates its models through
// the same Encoder or Decoder, and then codes symbols, bits, raw fields and integer corrections in
// whatever order the caller's predictor dictates:
//
//	enc := ac.NewEncoder(w)
//	m, _ := enc.CreateSymbolModel(17)
//	m.Init()
//	enc.EncodeSymbol(m, 3)
//	enc.Done()
//
// The stream carries no framing. A Decoder must issue exactly the same sequence of calls, with
// identically configured and initialized models, as the Encoder that produced the stream.
// A mismatch is not detected; it silently produces wrong values.
// None of the types in this package are safe for concurrent use.
package ac

import (
	"github.com/pkg/errors"
)

const (
	// MinLength is the interval width below which the coder renormalizes.
	MinLength uint32 = 0x01000000
	// MaxLength is the interval width at the start of a session.
	MaxLength uint32 = 0xFFFFFFFF

	bitLengthShift = 13
	bitMaxCount    = 1 << bitLengthShift

	symbolLengthShift = 15
	symbolMaxCount    = 1 << symbolLengthShift

	// MaxSymbols is the largest alphabet a SymbolModel supports.
	MaxSymbols = 1 << 11
)

var (
	// ErrInvalidSymbolCount is returned when a SymbolModel alphabet is outside [2, MaxSymbols].
	ErrInvalidSymbolCount = errors.New("invalid number of symbols")

	// ErrInvalidBits is returned for raw field widths outside [1, 32] and invalid corrector configurations.
	ErrInvalidBits = errors.New("invalid number of bits")

	// ErrTruncated is returned when the source runs out of bytes during priming or renormalization.
	// The decoder state is undefined afterwards.
	ErrTruncated = errors.New("truncated arithmetic coded stream")

	// ErrCorrupt is returned when a raw field decodes to a value that cannot have been written.
	ErrCorrupt = errors.New("corrupt arithmetic coded stream")

	// ErrDirection is returned when an IntegerCorrector is driven in the opposite direction of its codec.
	ErrDirection = errors.New("corrector used in the wrong coding direction")
)

// A Codec is the side of a coding session that creates models.
// Models must know whether they are driven by an Encoder or a Decoder,
// since only decoding models carry a lookup table.
// Both *Encoder and *Decoder implement Codec.
type Codec interface {
	// Compressing reports whether the codec is an Encoder.
	Compressing() bool

	// CreateSymbolModel returns an uninitialized adaptive model over symbols symbols.
	CreateSymbolModel(symbols uint32) (*SymbolModel, error)

	// CreateBitModel returns an uninitialized adaptive binary model.
	CreateBitModel() *BitModel

	// NewIntegerCorrector returns an IntegerCorrector bound to the codec.
	NewIntegerCorrector(bits uint32, opts ...IntegerOption) (*IntegerCorrector, error)
}
