package ac

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSymbolModel(t *testing.T) {
	tests := []struct {
		symbols   uint32
		compress  bool
		wantErr   bool
		wantTable bool
	}{
		{symbols: 0, wantErr: true},
		{symbols: 1, wantErr: true},
		{symbols: 2},
		{symbols: 16},
		{symbols: 16, compress: true},
		{symbols: 17, wantTable: true},
		{symbols: 17, compress: true},
		{symbols: 2048, wantTable: true},
		{symbols: 2049, wantErr: true},
	}
	for _, tt := range tests {
		m, err := NewSymbolModel(tt.symbols, tt.compress)
		if tt.wantErr {
			require.Error(t, err, "symbols %d", tt.symbols)
			require.ErrorIs(t, err, ErrInvalidSymbolCount)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tt.symbols, m.Symbols())
		require.Equal(t, tt.wantTable, m.decoderTable != nil, "symbols %d compress %v", tt.symbols, tt.compress)
	}
}

func TestSymbolModelInit(t *testing.T) {
	m, err := NewSymbolModel(10, true)
	require.NoError(t, err)
	m.Init()

	require.Equal(t, uint32(10), m.totalCount)
	require.Equal(t, uint32(8), m.updateCycle)
	require.Equal(t, uint32(8), m.symbolsUntilUpdate)
	require.Equal(t, uint32(0), m.distribution[0])
	for k := 1; k < 10; k++ {
		require.Greater(t, m.distribution[k], m.distribution[k-1])
	}

	// counts persist across symbols until the next update
	m.observe(3)
	m.observe(3)
	require.Equal(t, uint32(3), m.symbolCount[3])

	m.Init()
	require.Equal(t, uint32(1), m.symbolCount[3])
}

func TestSymbolModelInitCounts(t *testing.T) {
	m, err := NewSymbolModel(4, false)
	require.NoError(t, err)

	require.Error(t, m.InitCounts([]uint32{1, 2, 3}))
	require.Error(t, m.InitCounts([]uint32{1, 0, 3, 4}))
	require.Error(t, m.InitCounts([]uint32{1 << 15, 1, 1, 1}))

	require.NoError(t, m.InitCounts([]uint32{10, 20, 30, 40}))
	require.Equal(t, uint32(100), m.totalCount)
	// symbol 3 owns the last 40% of the scaled range
	span := uint32(symbolMaxCount) - m.distribution[3]
	require.InDelta(t, 0.4*symbolMaxCount, float64(span), 2)
}

func checkSymbolModel(t *testing.T, m *SymbolModel) {
	t.Helper()

	require.LessOrEqual(t, m.totalCount, uint32(symbolMaxCount))
	require.Equal(t, uint32(0), m.distribution[0])
	for k := uint32(1); k < m.symbols; k++ {
		require.Greater(t, m.distribution[k], m.distribution[k-1], "symbol %d", k)
	}
	require.Less(t, m.distribution[m.lastSymbol], uint32(symbolMaxCount))

	if m.decoderTable != nil {
		for i := 1; i < len(m.decoderTable); i++ {
			require.GreaterOrEqual(t, m.decoderTable[i], m.decoderTable[i-1])
		}
		require.Equal(t, m.symbols-1, m.decoderTable[len(m.decoderTable)-1])
	}
}

func TestSymbolModelRescaleStability(t *testing.T) {
	for _, symbols := range []uint32{2, 3, 16, 17, 256, 2048} {
		for _, compress := range []bool{true, false} {
			m, err := NewSymbolModel(symbols, compress)
			require.NoError(t, err)
			m.Init()

			rng := rand.New(rand.NewSource(int64(symbols)))
			updates := 0
			for i := 0; i < 100000; i++ {
				// heavily skewed towards small symbols
				sym := uint32(rng.ExpFloat64()*2) % symbols
				m.observe(sym)

				if m.symbolsUntilUpdate != m.updateCycle {
					continue
				}
				updates++
				var sum uint32
				for _, c := range m.symbolCount {
					require.GreaterOrEqual(t, c, uint32(1))
					sum += c
				}
				require.Equal(t, m.totalCount, sum)
				if updates%16 == 0 {
					checkSymbolModel(t, m)
				}
			}
			require.Greater(t, updates, 10)
			checkSymbolModel(t, m)
			require.LessOrEqual(t, m.updateCycle, (symbols+6)<<3)
		}
	}
}

func TestSymbolModelLocate(t *testing.T) {
	// the table lookup and the plain bisection must agree on every value
	table, err := NewSymbolModel(300, false)
	require.NoError(t, err)
	plain, err := NewSymbolModel(300, true)
	require.NoError(t, err)
	table.Init()
	plain.Init()

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5000; i++ {
		sym := uint32(rng.NormFloat64()*20+150) % 300
		table.observe(sym)
		plain.observe(sym)
	}
	require.Equal(t, plain.distribution, table.distribution)

	fullLength := uint32(0x9A3B1C2D)
	length := fullLength >> symbolLengthShift
	for i := 0; i < 20000; i++ {
		value := rng.Uint32() % fullLength
		s1, x1, y1 := table.locate(value, length, fullLength)
		s2, x2, y2 := plain.locate(value, length, fullLength)
		require.Equal(t, s2, s1)
		require.Equal(t, x2, x1)
		require.Equal(t, y2, y1)
		require.LessOrEqual(t, x1, value)
		require.Less(t, value, y1)
	}
}
