package ac

import (
	"math"

	"github.com/fumin/lasac/internal/options"
	"github.com/pkg/errors"
)

// maxBitsHigh keeps the high-part models within MaxSymbols.
const maxBitsHigh = 11

// IntegerOption configures an IntegerCorrector.
type IntegerOption = options.Option[*integerConfig]

type integerConfig struct {
	contexts uint32
	bitsHigh uint32
	rng      uint32
}

// WithContexts sets the number of independent contexts for the bit-length model. The default is 1.
func WithContexts(n uint32) IntegerOption {
	return options.New(func(c *integerConfig) error {
		if n == 0 {
			return errors.Wrap(ErrInvalidBits, "corrector needs at least one context")
		}
		c.contexts = n
		return nil
	})
}

// WithBitsHigh sets how many of the high bits of a correction are modeled; lower bits are coded raw.
// The default is 8.
func WithBitsHigh(n uint32) IntegerOption {
	return options.New(func(c *integerConfig) error {
		if n == 0 || n > maxBitsHigh {
			return errors.Wrapf(ErrInvalidBits, "bits high %d", n)
		}
		c.bitsHigh = n
		return nil
	})
}

// WithRange makes the corrector cyclic over [0, r): corrections are wrapped into a window of width r
// and decompressed values are wrapped back into [0, r). It takes precedence over the bit width.
func WithRange(r uint32) IntegerOption {
	return options.NoError(func(c *integerConfig) {
		c.rng = r
	})
}

// An IntegerCorrector codes a signed integer as a correction to a prediction.
//
// The bit length k of the correction is coded first with a per-context SymbolModel.
// Corrections of 0 and 1 (k == 0) are coded with a BitModel. Otherwise the correction is shifted
// into [0, 2^k) and coded with the SymbolModel for k, directly when k does not exceed bits high,
// or as bits-high modeled bits followed by k - bits high raw bits.
type IntegerCorrector struct {
	enc *Encoder
	dec *Decoder

	bits     uint32
	contexts uint32
	bitsHigh uint32
	rng      uint32

	corrBits  uint32
	corrRange uint32
	corrMin   int32
	corrMax   int32

	k uint32

	mBits       []*SymbolModel
	mCorrector0 *BitModel
	mCorrector  []*SymbolModel // indexed by k, entry 0 unused
}

func newIntegerCorrector(enc *Encoder, dec *Decoder, bits uint32, opts ...IntegerOption) (*IntegerCorrector, error) {
	cfg := &integerConfig{contexts: 1, bitsHigh: 8}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	ic := &IntegerCorrector{
		enc:      enc,
		dec:      dec,
		bits:     bits,
		contexts: cfg.contexts,
		bitsHigh: cfg.bitsHigh,
		rng:      cfg.rng,
	}
	switch {
	case cfg.rng != 0:
		ic.corrRange = cfg.rng
		for r := cfg.rng; r != 0; r >>= 1 {
			ic.corrBits++
		}
		if ic.corrRange == 1<<(ic.corrBits-1) {
			ic.corrBits--
		}
		ic.setBounds()
	case bits != 0 && bits < 32:
		ic.corrBits = bits
		ic.corrRange = 1 << bits
		ic.setBounds()
	default:
		ic.corrBits = 32
		ic.corrRange = 0
		ic.corrMin = math.MinInt32
		ic.corrMax = math.MaxInt32
	}
	return ic, nil
}

func (ic *IntegerCorrector) setBounds() {
	lo := -int64(ic.corrRange / 2)
	ic.corrMin = int32(lo)
	ic.corrMax = int32(lo + int64(ic.corrRange) - 1)
}

// Init creates the models on first use and resets all of them to their initial state.
// It must be called before the first Compress or Decompress and on every stream restart.
func (ic *IntegerCorrector) Init() error {
	if ic.mBits == nil {
		if err := ic.createModels(); err != nil {
			return err
		}
	}
	for _, m := range ic.mBits {
		m.Init()
	}
	ic.mCorrector0.Init()
	for _, m := range ic.mCorrector[1:] {
		m.Init()
	}
	ic.k = 0
	return nil
}

func (ic *IntegerCorrector) createModels() error {
	var c Codec = ic.enc
	if ic.enc == nil {
		c = ic.dec
	}

	mBits := make([]*SymbolModel, ic.contexts)
	for i := range mBits {
		m, err := c.CreateSymbolModel(ic.corrBits + 1)
		if err != nil {
			return err
		}
		mBits[i] = m
	}
	mCorrector := make([]*SymbolModel, ic.corrBits+1)
	for k := uint32(1); k <= ic.corrBits; k++ {
		n := k
		if n > ic.bitsHigh {
			n = ic.bitsHigh
		}
		m, err := c.CreateSymbolModel(1 << n)
		if err != nil {
			return err
		}
		mCorrector[k] = m
	}
	ic.mBits = mBits
	ic.mCorrector0 = c.CreateBitModel()
	ic.mCorrector = mCorrector
	return nil
}

// K returns the bit length of the most recently coded correction.
// Predictors use it to pick the context of the next value.
func (ic *IntegerCorrector) K() uint32 { return ic.k }

// Contexts returns the number of bit-length contexts.
func (ic *IntegerCorrector) Contexts() uint32 { return ic.contexts }

// CorrectorBits returns the largest possible bit length of a correction.
func (ic *IntegerCorrector) CorrectorBits() uint32 { return ic.corrBits }

// CorrectorRange returns the width of the correction window, 0 when corrections are unbounded 32-bit values.
func (ic *IntegerCorrector) CorrectorRange() uint32 { return ic.corrRange }

// CorrectorMin returns the smallest correction that is coded without wrapping.
func (ic *IntegerCorrector) CorrectorMin() int32 { return ic.corrMin }

// CorrectorMax returns the largest correction that is coded without wrapping.
func (ic *IntegerCorrector) CorrectorMax() int32 { return ic.corrMax }

// Compress codes real as a correction to pred using the bit-length model of context.
// A correction outside [CorrectorMin, CorrectorMax] is coded modulo CorrectorRange.
func (ic *IntegerCorrector) Compress(pred, real int32, context uint32) error {
	if ic.enc == nil {
		return errors.Wrap(ErrDirection, "compress on a decoding corrector")
	}
	corr := ic.fold(real - pred)
	mBits, err := ic.bitsModel(context)
	if err != nil {
		return err
	}
	return ic.writeCorrector(corr, mBits)
}

// fold maps corr into [corrMin, corrMax] modulo corrRange.
// Full range correctors code every int32 and leave corr as is.
func (ic *IntegerCorrector) fold(corr int32) int32 {
	if ic.corrRange == 0 || (corr >= ic.corrMin && corr <= ic.corrMax) {
		return corr
	}
	r := int64(ic.corrRange)
	off := (int64(corr) - int64(ic.corrMin)) % r
	if off < 0 {
		off += r
	}
	return int32(int64(ic.corrMin) + off)
}

// Decompress decodes a correction with the bit-length model of context and applies it to pred.
// A cyclic corrector wraps the result into [0, range).
func (ic *IntegerCorrector) Decompress(pred int32, context uint32) (int32, error) {
	if ic.dec == nil {
		return 0, errors.Wrap(ErrDirection, "decompress on an encoding corrector")
	}
	mBits, err := ic.bitsModel(context)
	if err != nil {
		return 0, err
	}
	corr, err := ic.readCorrector(mBits)
	if err != nil {
		return 0, err
	}
	real := pred + corr
	if ic.rng != 0 {
		if real < 0 {
			real = int32(uint32(real) + ic.corrRange)
		} else if uint32(real) >= ic.corrRange {
			real = int32(uint32(real) - ic.corrRange)
		}
	}
	return real, nil
}

func (ic *IntegerCorrector) bitsModel(context uint32) (*SymbolModel, error) {
	if ic.mBits == nil {
		return nil, errors.New("corrector used before Init")
	}
	if context >= ic.contexts {
		return nil, errors.Errorf("context %d out of range for %d contexts", context, ic.contexts)
	}
	return ic.mBits[context], nil
}

// bitLength returns the smallest k such that c lies in [-(2^k - 1), 2^k].
func bitLength(c int32) uint32 {
	var c1 uint32
	if c <= 0 {
		c1 = uint32(-int64(c))
	} else {
		c1 = uint32(c - 1)
	}
	var k uint32
	for c1 != 0 {
		c1 >>= 1
		k++
	}
	return k
}

func (ic *IntegerCorrector) writeCorrector(c int32, mBits *SymbolModel) error {
	ic.k = bitLength(c)
	if err := ic.enc.EncodeSymbol(mBits, ic.k); err != nil {
		return err
	}

	if ic.k == 0 {
		return ic.enc.EncodeBit(ic.mCorrector0, uint32(c))
	}
	if ic.k == 32 {
		// only math.MinInt32 needs 32 bits, and k alone identifies it
		return nil
	}

	// [-(2^k - 1), -2^(k-1)] maps to [0, 2^(k-1) - 1] and [2^(k-1) + 1, 2^k] to [2^(k-1), 2^k - 1]
	var u uint32
	if c < 0 {
		u = uint32(int64(c) + (int64(1)<<ic.k - 1))
	} else {
		u = uint32(c - 1)
	}

	if ic.k <= ic.bitsHigh {
		return ic.enc.EncodeSymbol(ic.mCorrector[ic.k], u)
	}
	k1 := ic.k - ic.bitsHigh
	if err := ic.enc.EncodeSymbol(ic.mCorrector[ic.k], u>>k1); err != nil {
		return err
	}
	return ic.enc.WriteBits(k1, u&(1<<k1-1))
}

func (ic *IntegerCorrector) readCorrector(mBits *SymbolModel) (int32, error) {
	k, err := ic.dec.DecodeSymbol(mBits)
	if err != nil {
		return 0, err
	}
	ic.k = k

	if k == 0 {
		bit, err := ic.dec.DecodeBit(ic.mCorrector0)
		return int32(bit), err
	}
	if k == 32 {
		return math.MinInt32, nil
	}

	var u uint32
	if k <= ic.bitsHigh {
		u, err = ic.dec.DecodeSymbol(ic.mCorrector[k])
		if err != nil {
			return 0, err
		}
	} else {
		k1 := k - ic.bitsHigh
		hi, err := ic.dec.DecodeSymbol(ic.mCorrector[k])
		if err != nil {
			return 0, err
		}
		lo, err := ic.dec.ReadBits(k1)
		if err != nil {
			return 0, err
		}
		u = hi<<k1 | lo
	}

	if u >= 1<<(k-1) {
		return int32(int64(u) + 1), nil
	}
	return int32(int64(u) - (int64(1)<<k - 1)), nil
}
