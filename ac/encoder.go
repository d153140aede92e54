package ac

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

// bufferSize is half of the encoder's output ring.
// A half is written to the sink only once the other half has filled,
// so a carry can always reach at least bufferSize pending bytes.
const bufferSize = 1024

var errFinished = errors.New("encoder used after Done")

// An Encoder narrows the interval [base, base+length) once per coded value and
// shifts settled bytes into a ring buffer that is flushed to the sink one half at a time.
type Encoder struct {
	w   io.Writer
	err error

	buf [2 * bufferSize]byte
	out int // next write position in buf
	end int // position at which the next half is flushed

	base   uint32
	length uint32
}

var _ Codec = (*Encoder)(nil)

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	e := &Encoder{}
	e.Init(w)
	return e
}

// Init starts a new session writing to w. Any state of a previous session is discarded.
func (e *Encoder) Init(w io.Writer) {
	e.w = w
	e.err = nil
	e.out = 0
	e.end = len(e.buf)
	e.base = 0
	e.length = MaxLength
}

// Compressing returns true.
func (e *Encoder) Compressing() bool { return true }

// CreateSymbolModel returns an encoding model over symbols symbols.
func (e *Encoder) CreateSymbolModel(symbols uint32) (*SymbolModel, error) {
	return NewSymbolModel(symbols, true)
}

// CreateBitModel returns a new BitModel.
func (e *Encoder) CreateBitModel() *BitModel {
	return NewBitModel()
}

// NewIntegerCorrector returns an IntegerCorrector that compresses through e.
func (e *Encoder) NewIntegerCorrector(bits uint32, opts ...IntegerOption) (*IntegerCorrector, error) {
	return newIntegerCorrector(e, nil, bits, opts...)
}

// EncodeSymbol codes sym, which must be below m.Symbols(), and updates m.
func (e *Encoder) EncodeSymbol(m *SymbolModel, sym uint32) error {
	if sym >= m.symbols {
		panic(errors.Errorf("symbol %d out of range for %d symbols", sym, m.symbols))
	}

	initBase := e.base
	if sym == m.lastSymbol {
		x := m.distribution[sym] * (e.length >> symbolLengthShift)
		e.base += x
		e.length -= x
	} else {
		e.length >>= symbolLengthShift
		x := m.distribution[sym] * e.length
		e.base += x
		e.length = m.distribution[sym+1]*e.length - x
	}
	if initBase > e.base {
		e.propagateCarry()
	}
	err := e.settle()
	m.observe(sym)
	return err
}

// EncodeBit codes the low bit of bit and updates m.
func (e *Encoder) EncodeBit(m *BitModel, bit uint32) error {
	bit &= 1
	x := m.bit0Prob * (e.length >> bitLengthShift)
	if bit == 0 {
		e.length = x
	} else {
		initBase := e.base
		e.base += x
		e.length -= x
		if initBase > e.base {
			e.propagateCarry()
		}
	}
	err := e.settle()
	m.observe(bit)
	return err
}

// WriteBits codes sym, which must fit in bits bits, with uniform probability.
// bits must be in [1, 32].
func (e *Encoder) WriteBits(bits, sym uint32) error {
	if bits == 0 || bits > 32 {
		panic(errors.Wrapf(ErrInvalidBits, "%d", bits))
	}
	if bits < 32 && sym >= 1<<bits {
		panic(errors.Errorf("value %d does not fit in %d bits", sym, bits))
	}
	if bits > 19 {
		if err := e.WriteShort(uint16(sym)); err != nil {
			return err
		}
		sym >>= 16
		bits -= 16
	}
	return e.writeRaw(bits, sym)
}

// WriteShort codes a 16-bit value with uniform probability.
func (e *Encoder) WriteShort(sym uint16) error {
	return e.writeRaw(16, uint32(sym))
}

// WriteInt codes a 32-bit value as two shorts, low half first.
func (e *Encoder) WriteInt(sym uint32) error {
	if err := e.WriteShort(uint16(sym)); err != nil {
		return err
	}
	return e.WriteShort(uint16(sym >> 16))
}

// WriteInt64 codes a 64-bit value as two ints, low half first.
func (e *Encoder) WriteInt64(sym uint64) error {
	if err := e.WriteInt(uint32(sym)); err != nil {
		return err
	}
	return e.WriteInt(uint32(sym >> 32))
}

// WriteFloat codes the IEEE 754 bits of f.
func (e *Encoder) WriteFloat(f float32) error {
	return e.WriteInt(math.Float32bits(f))
}

// WriteDouble codes the IEEE 754 bits of f.
func (e *Encoder) WriteDouble(f float64) error {
	return e.WriteInt64(math.Float64bits(f))
}

func (e *Encoder) writeRaw(bits, sym uint32) error {
	initBase := e.base
	e.length >>= bits
	e.base += sym * e.length
	if initBase > e.base {
		e.propagateCarry()
	}
	return e.settle()
}

// Done terminates the session: it emits the bytes that pin down the final interval,
// flushes the ring and appends the zero bytes the decoder's 4-byte priming read expects.
// The Encoder must be re-initialized with Init before it is used again; until then every call returns an error.
func (e *Encoder) Done() error {
	if e.err != nil {
		return e.err
	}

	initBase := e.base
	anotherByte := true
	if e.length > 2*MinLength {
		e.base += MinLength
		e.length = MinLength >> 1
	} else {
		e.base += MinLength >> 1
		e.length = MinLength >> 9
		anotherByte = false
	}
	if initBase > e.base {
		e.propagateCarry()
	}
	if err := e.renormalize(); err != nil {
		return err
	}

	if e.end != len(e.buf) {
		if err := e.write(e.buf[bufferSize:]); err != nil {
			return err
		}
	}
	if e.out > 0 {
		if err := e.write(e.buf[:e.out]); err != nil {
			return err
		}
	}

	trailer := []byte{0, 0, 0}
	if !anotherByte {
		trailer = trailer[:2]
	}
	if err := e.write(trailer); err != nil {
		return err
	}
	e.w = nil
	e.err = errFinished
	return nil
}

// settle renormalizes if the interval fell below MinLength and reports any sticky error.
func (e *Encoder) settle() error {
	if e.length < MinLength {
		if err := e.renormalize(); err != nil {
			return err
		}
	}
	return e.err
}

// propagateCarry adds one to the pending output, turning trailing 0xFF bytes into zeros.
// Pending bytes run from the start of the unflushed half of the ring up to out.
func (e *Encoder) propagateCarry() {
	pending := e.out - e.end%len(e.buf)
	if pending < 0 {
		pending += len(e.buf)
	}
	p := e.out - 1
	for ; pending > 0; pending-- {
		if p < 0 {
			p = len(e.buf) - 1
		}
		if e.buf[p] != 0xFF {
			e.buf[p]++
			return
		}
		e.buf[p] = 0
		p--
	}
	panic("ac: carry propagated past the buffered output")
}

func (e *Encoder) renormalize() error {
	for {
		e.buf[e.out] = byte(e.base >> 24)
		e.out++
		if e.out == e.end {
			if err := e.flushHalf(); err != nil {
				return err
			}
		}
		e.base <<= 8
		e.length <<= 8
		if e.length >= MinLength {
			return nil
		}
	}
}

// flushHalf writes out the half of the ring that is about to be overwritten.
func (e *Encoder) flushHalf() error {
	if e.out == len(e.buf) {
		e.out = 0
	}
	e.end = e.out + bufferSize
	return e.write(e.buf[e.out:e.end])
}

func (e *Encoder) write(p []byte) error {
	if e.err != nil {
		return e.err
	}
	if _, err := e.w.Write(p); err != nil {
		e.err = errors.Wrap(err, "writing arithmetic coded stream")
	}
	return e.err
}
