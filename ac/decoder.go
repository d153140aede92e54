package ac

import (
	"bufio"
	"io"
	"math"

	"github.com/pkg/errors"
)

// A Decoder mirrors an Encoder: it tracks the offset of the coded point inside the current
// interval and reads one byte from the source for every byte the Encoder shifted out.
type Decoder struct {
	r      io.ByteReader
	value  uint32
	length uint32
}

var _ Codec = (*Decoder)(nil)

// NewDecoder returns a Decoder primed with the first four bytes of r.
// If r is not an io.ByteReader it is buffered, and the Decoder may read past the end of the coded stream.
func NewDecoder(r io.Reader) (*Decoder, error) {
	d := &Decoder{}
	if err := d.Init(r); err != nil {
		return nil, err
	}
	return d, nil
}

// Init starts a new session reading from r.
func (d *Decoder) Init(r io.Reader) error {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	d.r = br
	d.length = MaxLength
	d.value = 0
	for i := 0; i < 4; i++ {
		b, err := d.readByte()
		if err != nil {
			return errors.Wrap(err, "priming decoder")
		}
		d.value = d.value<<8 | uint32(b)
	}
	return nil
}

// Done ends the session. The Decoder must be re-initialized with Init before it is used again.
func (d *Decoder) Done() {
	d.r = nil
}

// Compressing returns false.
func (d *Decoder) Compressing() bool { return false }

// CreateSymbolModel returns a decoding model over symbols symbols.
func (d *Decoder) CreateSymbolModel(symbols uint32) (*SymbolModel, error) {
	return NewSymbolModel(symbols, false)
}

// CreateBitModel returns a new BitModel.
func (d *Decoder) CreateBitModel() *BitModel {
	return NewBitModel()
}

// NewIntegerCorrector returns an IntegerCorrector that decompresses through d.
func (d *Decoder) NewIntegerCorrector(bits uint32, opts ...IntegerOption) (*IntegerCorrector, error) {
	return newIntegerCorrector(nil, d, bits, opts...)
}

// DecodeSymbol decodes a symbol coded with m and updates m.
func (d *Decoder) DecodeSymbol(m *SymbolModel) (uint32, error) {
	fullLength := d.length
	d.length >>= symbolLengthShift
	sym, x, y := m.locate(d.value, d.length, fullLength)

	d.value -= x
	d.length = y - x
	err := d.settle()
	m.observe(sym)
	return sym, err
}

// DecodeBit decodes a bit coded with m and updates m.
func (d *Decoder) DecodeBit(m *BitModel) (uint32, error) {
	x := m.bit0Prob * (d.length >> bitLengthShift)
	var bit uint32
	if d.value < x {
		d.length = x
	} else {
		bit = 1
		d.value -= x
		d.length -= x
	}
	err := d.settle()
	m.observe(bit)
	return bit, err
}

// ReadBits decodes a raw field of bits bits, bits in [1, 32].
func (d *Decoder) ReadBits(bits uint32) (uint32, error) {
	if bits == 0 || bits > 32 {
		panic(errors.Wrapf(ErrInvalidBits, "%d", bits))
	}
	if bits > 19 {
		lo, err := d.ReadShort()
		if err != nil {
			return 0, err
		}
		hi, err := d.readRaw(bits - 16)
		if err != nil {
			return 0, err
		}
		return hi<<16 | uint32(lo), nil
	}
	return d.readRaw(bits)
}

// ReadShort decodes a 16-bit raw field.
func (d *Decoder) ReadShort() (uint16, error) {
	sym, err := d.readRaw(16)
	return uint16(sym), err
}

// ReadInt decodes a 32-bit raw field written by WriteInt.
func (d *Decoder) ReadInt() (uint32, error) {
	lo, err := d.ReadShort()
	if err != nil {
		return 0, err
	}
	hi, err := d.ReadShort()
	if err != nil {
		return 0, err
	}
	return uint32(hi)<<16 | uint32(lo), nil
}

// ReadInt64 decodes a 64-bit raw field written by WriteInt64.
func (d *Decoder) ReadInt64() (uint64, error) {
	lo, err := d.ReadInt()
	if err != nil {
		return 0, err
	}
	hi, err := d.ReadInt()
	if err != nil {
		return 0, err
	}
	return uint64(hi)<<32 | uint64(lo), nil
}

// ReadFloat decodes a float written by WriteFloat.
func (d *Decoder) ReadFloat() (float32, error) {
	u, err := d.ReadInt()
	return math.Float32frombits(u), err
}

// ReadDouble decodes a float written by WriteDouble.
func (d *Decoder) ReadDouble() (float64, error) {
	u, err := d.ReadInt64()
	return math.Float64frombits(u), err
}

func (d *Decoder) readRaw(bits uint32) (uint32, error) {
	d.length >>= bits
	sym := d.value / d.length
	d.value -= d.length * sym
	if err := d.settle(); err != nil {
		return 0, err
	}
	if sym >= 1<<bits {
		return 0, errors.Wrapf(ErrCorrupt, "raw field of %d bits decoded to %d", bits, sym)
	}
	return sym, nil
}

func (d *Decoder) settle() error {
	if d.length >= MinLength {
		return nil
	}
	for {
		b, err := d.readByte()
		if err != nil {
			return errors.Wrap(err, "renormalizing decoder")
		}
		d.value = d.value<<8 | uint32(b)
		d.length <<= 8
		if d.length >= MinLength {
			return nil
		}
	}
}

func (d *Decoder) readByte() (byte, error) {
	if d.r == nil {
		return 0, errors.New("decoder used after Done")
	}
	b, err := d.r.ReadByte()
	if err == io.EOF {
		return 0, ErrTruncated
	}
	return b, err
}
