// Package baseline measures general-purpose compressors on the raw bytes of a series,
// so that arithmetic coded sizes can be put in context.
package baseline

import (
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// A Result is the compressed size of the input under one compressor.
type Result struct {
	Name string
	Size int
}

// Measure compresses raw with zstd, s2 and lz4, returning the sizes in that order.
// An lz4 block that does not shrink is reported at the size of the input.
func Measure(raw []byte) ([]Result, error) {
	results := make([]Result, 0, 3)

	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderCRC(false),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, errors.Wrap(err, "zstd")
	}
	results = append(results, Result{Name: "zstd", Size: len(enc.EncodeAll(raw, nil))})
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "zstd")
	}

	results = append(results, Result{Name: "s2", Size: len(s2.Encode(nil, raw))})

	size, err := lz4Size(raw)
	if err != nil {
		return nil, err
	}
	results = append(results, Result{Name: "lz4", Size: size})
	return results, nil
}

func lz4Size(raw []byte) (int, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	var c lz4.Compressor
	dst := make([]byte, lz4.CompressBlockBound(len(raw)))
	n, err := c.CompressBlock(raw, dst)
	if err != nil {
		return 0, errors.Wrap(err, "lz4")
	}
	if n == 0 {
		return len(raw), nil
	}
	return n, nil
}
