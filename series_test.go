package lasac

import (
	"bytes"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/fumin/lasac/ac"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func encodeSeries(t *testing.T, values []int32, cfg Config) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, values, cfg))
	return buf.Bytes()
}

func TestSeriesRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	walk := make([]int32, 10000)
	for i := 1; i < len(walk); i++ {
		walk[i] = walk[i-1] + int32(rng.NormFloat64()*50)
	}
	noise := make([]int32, 5000)
	for i := range noise {
		noise[i] = int32(rng.Uint32())
	}
	small := make([]int32, 5000)
	for i := range small {
		small[i] = int32(rng.Intn(1<<12) - 1<<11)
	}

	tests := []struct {
		name   string
		values []int32
		cfg    Config
	}{
		{"empty", nil, DefaultConfig()},
		{"single", []int32{-42}, DefaultConfig()},
		{"extremes", []int32{math.MinInt32, math.MaxInt32, 0, math.MinInt32, -1}, DefaultConfig()},
		{"random walk", walk, DefaultConfig()},
		{"random walk one context", walk, Config{Bits: 0, Contexts: 1}},
		{"noise", noise, Config{Bits: 32, Contexts: 8}},
		{"small 12 bits", small, Config{Bits: 12, Contexts: 3}},
		{"small 16 bits", small, Config{Bits: 16, Contexts: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream := encodeSeries(t, tt.values, tt.cfg)
			got, err := Decode(bytes.NewReader(stream))
			require.NoError(t, err)
			if len(tt.values) == 0 {
				require.Empty(t, got)
				return
			}
			require.Equal(t, tt.values, got)
		})
	}
}

func TestSeriesCompressesWalk(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	values := make([]int32, 20000)
	values[0] = 1 << 20
	for i := 1; i < len(values); i++ {
		values[i] = values[i-1] + int32(rng.Intn(7)-3)
	}
	stream := encodeSeries(t, values, DefaultConfig())
	// steps of at most 3 need under 3 bits each
	require.Less(t, len(stream), len(values)*3/8+headerSize+64)
}

func TestSeriesHeaderErrors(t *testing.T) {
	stream := encodeSeries(t, []int32{1, 2, 3}, DefaultConfig())

	bad := append([]byte("XSAC"), stream[4:]...)
	_, err := Decode(bytes.NewReader(bad))
	require.Equal(t, ErrMagic, errors.Cause(err))

	bad = append([]byte(nil), stream...)
	bad[4] = 9
	_, err = Decode(bytes.NewReader(bad))
	require.ErrorIs(t, err, ErrVersion)

	bad = append([]byte(nil), stream...)
	bad[6] = 0
	_, err = Decode(bytes.NewReader(bad))
	require.Error(t, err)

	_, err = Decode(bytes.NewReader(stream[:10]))
	require.Error(t, err)
}

func TestSeriesChecksum(t *testing.T) {
	values := make([]int32, 1000)
	for i := range values {
		values[i] = int32(i * i)
	}
	stream := encodeSeries(t, values, DefaultConfig())

	// decoding with a different context count desynchronizes the models
	bad := append([]byte(nil), stream...)
	bad[6] = 2
	_, err := Decode(bytes.NewReader(bad))
	require.Error(t, err)
	cause := errors.Cause(err)
	require.True(t, cause == ErrChecksum || cause == ac.ErrTruncated || cause == ac.ErrCorrupt, "%+v", err)

	bad = append([]byte(nil), stream...)
	bad[12] ^= 1
	_, err = Decode(bytes.NewReader(bad))
	require.ErrorIs(t, err, ErrChecksum)
}

func TestSeriesTruncated(t *testing.T) {
	values := make([]int32, 2000)
	for i := range values {
		values[i] = int32(i * 7919 % 100003)
	}
	stream := encodeSeries(t, values, DefaultConfig())
	_, err := Decode(bytes.NewReader(stream[:len(stream)/2]))
	require.ErrorIs(t, err, ac.ErrTruncated)
}

func TestEncodeRejects(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, Encode(&buf, []int32{1}, Config{Bits: 33, Contexts: 1}))
	require.Error(t, Encode(&buf, []int32{1}, Config{Bits: 16, Contexts: 0}))
	require.Error(t, Encode(&buf, []int32{1}, Config{Bits: 16, Contexts: 256}))
	require.Error(t, Encode(&buf, []int32{1, 1 << 15}, Config{Bits: 16, Contexts: 1}))
	require.NoError(t, Encode(&buf, []int32{-1 << 15, 1<<15 - 1}, Config{Bits: 16, Contexts: 1}))
}

func TestReadValues(t *testing.T) {
	in := "# header\n1\n\n  -20 \n300\n"
	values, err := ReadValues(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, []int32{1, -20, 300}, values)

	_, err = ReadValues(strings.NewReader("1\nx\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")

	_, err = ReadValues(strings.NewReader("4294967296\n"))
	require.Error(t, err)
}

func TestContextOf(t *testing.T) {
	require.Equal(t, uint32(0), contextOf(0, 4))
	require.Equal(t, uint32(0), contextOf(3, 4))
	require.Equal(t, uint32(1), contextOf(4, 4))
	require.Equal(t, uint32(3), contextOf(32, 4))
	require.Equal(t, uint32(0), contextOf(32, 1))
}

func TestSignExtend(t *testing.T) {
	require.Equal(t, int32(-1), signExtend(0xFFFF, 16))
	require.Equal(t, int32(32767), signExtend(32767, 16))
	require.Equal(t, int32(-32768), signExtend(32768, 16))
	require.Equal(t, int32(5), signExtend(5, 9))
	require.Equal(t, int32(-256), signExtend(256, 9))
}
