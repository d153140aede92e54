package baseline

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMeasure(t *testing.T) {
	repetitive := bytes.Repeat([]byte("0123456789abcdef"), 4096)

	results, err := Measure(repetitive)
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, "zstd", results[0].Name)
	require.Equal(t, "s2", results[1].Name)
	require.Equal(t, "lz4", results[2].Name)
	for _, r := range results {
		require.Positive(t, r.Size, r.Name)
		require.Less(t, r.Size, len(repetitive)/10, r.Name)
	}
}

func TestMeasureIncompressible(t *testing.T) {
	raw := make([]byte, 1<<14)
	rand.New(rand.NewSource(1)).Read(raw)

	results, err := Measure(raw)
	require.NoError(t, err)
	for _, r := range results {
		require.GreaterOrEqual(t, r.Size, len(raw)*9/10, r.Name)
	}
}

func TestMeasureEmpty(t *testing.T) {
	results, err := Measure(nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, 0, results[2].Size)
}
