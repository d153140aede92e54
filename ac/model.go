package ac

import (
	"github.com/pkg/errors"
)

// A SymbolModel is an adaptive frequency model over a fixed alphabet of 2 to MaxSymbols symbols.
//
// The cumulative distribution is kept in 15-bit fixed point and is recomputed on a cycle that
// starts short and grows by 5/4 up to 8*(symbols+6) coded symbols, which amortizes the O(n) rescale.
// Models with more than 16 symbols created for decoding also keep a table that maps the top bits of
// a scaled value to a narrow range of candidate symbols.
type SymbolModel struct {
	distribution []uint32
	symbolCount  []uint32
	decoderTable []uint32

	totalCount         uint32
	updateCycle        uint32
	symbolsUntilUpdate uint32

	symbols    uint32
	lastSymbol uint32
	tableSize  uint32
	tableShift uint32
}

// NewSymbolModel returns an adaptive model over symbols symbols.
// Only models created with compress set to false build a decoder table.
// The model is unusable until Init is called.
func NewSymbolModel(symbols uint32, compress bool) (*SymbolModel, error) {
	if symbols < 2 || symbols > MaxSymbols {
		return nil, errors.Wrapf(ErrInvalidSymbolCount, "%d", symbols)
	}

	m := &SymbolModel{
		symbols:    symbols,
		lastSymbol: symbols - 1,
	}
	m.distribution = make([]uint32, symbols)
	m.symbolCount = make([]uint32, symbols)
	if !compress && symbols > 16 {
		tableBits := uint32(3)
		for symbols > 1<<(tableBits+2) {
			tableBits++
		}
		m.tableSize = 1 << tableBits
		m.tableShift = symbolLengthShift - tableBits
		m.decoderTable = make([]uint32, m.tableSize+2)
	}
	return m, nil
}

// Symbols returns the size of the alphabet.
func (m *SymbolModel) Symbols() uint32 {
	return m.symbols
}

// Init resets every symbol count to one.
func (m *SymbolModel) Init() {
	for k := range m.symbolCount {
		m.symbolCount[k] = 1
	}
	m.reset(m.symbols)
}

// InitCounts resets the model to the given initial counts, one per symbol, each at least one.
func (m *SymbolModel) InitCounts(counts []uint32) error {
	if uint32(len(counts)) != m.symbols {
		return errors.Errorf("got %d initial counts for %d symbols", len(counts), m.symbols)
	}
	var total uint64
	for k, c := range counts {
		if c == 0 {
			return errors.Errorf("initial count of symbol %d is zero", k)
		}
		total += uint64(c)
	}
	if total > symbolMaxCount {
		return errors.Errorf("initial counts sum to %d, above %d", total, symbolMaxCount)
	}
	copy(m.symbolCount, counts)
	m.reset(uint32(total))
	return nil
}

// reset seeds the distribution from symbolCount, whose sum is total.
func (m *SymbolModel) reset(total uint32) {
	m.totalCount = 0
	m.updateCycle = total
	m.update()
	m.updateCycle = (m.symbols + 6) >> 1
	m.symbolsUntilUpdate = m.updateCycle
}

// observe counts one coded symbol.
func (m *SymbolModel) observe(sym uint32) {
	m.symbolCount[sym]++
	m.symbolsUntilUpdate--
	if m.symbolsUntilUpdate == 0 {
		m.update()
	}
}

// update folds the symbols counted during the last cycle into the distribution.
func (m *SymbolModel) update() {
	m.totalCount += m.updateCycle
	if m.totalCount > symbolMaxCount {
		m.totalCount = 0
		for n := range m.symbolCount {
			m.symbolCount[n] = (m.symbolCount[n] + 1) >> 1
			m.totalCount += m.symbolCount[n]
		}
	}

	scale := uint32(0x80000000) / m.totalCount
	var sum uint32
	if m.decoderTable == nil {
		for k := uint32(0); k < m.symbols; k++ {
			m.distribution[k] = (scale * sum) >> (31 - symbolLengthShift)
			sum += m.symbolCount[k]
		}
	} else {
		var s uint32
		for k := uint32(0); k < m.symbols; k++ {
			m.distribution[k] = (scale * sum) >> (31 - symbolLengthShift)
			sum += m.symbolCount[k]
			w := m.distribution[k] >> m.tableShift
			for s < w {
				s++
				m.decoderTable[s] = k - 1
			}
		}
		m.decoderTable[0] = 0
		for s <= m.tableSize {
			s++
			m.decoderTable[s] = m.symbols - 1
		}
	}

	m.updateCycle = (5 * m.updateCycle) >> 2
	maxCycle := (m.symbols + 6) << 3
	if m.updateCycle > maxCycle {
		m.updateCycle = maxCycle
	}
	m.symbolsUntilUpdate = m.updateCycle
}

// locate returns the symbol whose scaled interval contains value, together with the interval
// bounds x and y after scaling by length, which must already be shifted by symbolLengthShift.
// fullLength is the unshifted interval width used as the upper bound of the last symbol.
func (m *SymbolModel) locate(value, length, fullLength uint32) (sym, x, y uint32) {
	y = fullLength
	if m.decoderTable != nil {
		dv := value / length
		t := dv >> m.tableShift

		sym = m.decoderTable[t]
		n := m.decoderTable[t+1] + 1
		for n > sym+1 {
			k := (sym + n) >> 1
			if m.distribution[k] > dv {
				n = k
			} else {
				sym = k
			}
		}

		x = m.distribution[sym] * length
		if sym != m.lastSymbol {
			y = m.distribution[sym+1] * length
		}
		return sym, x, y
	}

	n := m.symbols
	k := n >> 1
	for {
		z := length * m.distribution[k]
		if z > value {
			n = k
			y = z
		} else {
			sym = k
			x = z
		}
		k = (sym + n) >> 1
		if k == sym {
			return sym, x, y
		}
	}
}
