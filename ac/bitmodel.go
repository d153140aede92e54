package ac

// A BitModel is an adaptive model of a single binary decision.
// The probability of a zero is kept in 13-bit fixed point.
type BitModel struct {
	bit0Prob  uint32
	bit0Count uint32
	bitCount  uint32

	updateCycle     uint32
	bitsUntilUpdate uint32
}

// NewBitModel returns a BitModel ready for use.
func NewBitModel() *BitModel {
	m := &BitModel{}
	m.Init()
	return m
}

// Init resets the model to even odds.
func (m *BitModel) Init() {
	m.bit0Count = 1
	m.bitCount = 2
	m.bit0Prob = 1 << (bitLengthShift - 1)
	m.updateCycle = 4
	m.bitsUntilUpdate = 4
}

func (m *BitModel) observe(bit uint32) {
	if bit == 0 {
		m.bit0Count++
	}
	m.bitsUntilUpdate--
	if m.bitsUntilUpdate == 0 {
		m.update()
	}
}

func (m *BitModel) update() {
	m.bitCount += m.updateCycle
	if m.bitCount > bitMaxCount {
		m.bitCount = (m.bitCount + 1) >> 1
		m.bit0Count = (m.bit0Count + 1) >> 1
		if m.bit0Count == m.bitCount {
			m.bitCount++
		}
	}

	scale := uint32(0x80000000) / m.bitCount
	m.bit0Prob = (m.bit0Count * scale) >> (31 - bitLengthShift)

	m.updateCycle = (5 * m.updateCycle) >> 2
	if m.updateCycle > 64 {
		m.updateCycle = 64
	}
	m.bitsUntilUpdate = m.updateCycle
}
