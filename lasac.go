// Package lasac compresses integer series with the adaptive arithmetic coder in package ac.
// Each value is predicted by its predecessor and coded as a correction, with the bit length of the
// previous correction selecting the statistics for the next one.
//
// Below is an example of compressing an elevation profile and restoring it:
//
//	go run compress/main.go testdata/elevation.txt > elevation.lsac
//	cat elevation.lsac | go run decompress/main.go > elevation.out
//
// The compressed series starts with a 20-byte header (magic, version, bit width, contexts,
// value count and the xxhash64 of the values) followed by the arithmetic coded body.
// The checksum catches what the coder itself cannot: a stream decoded with a different call sequence.
package lasac
