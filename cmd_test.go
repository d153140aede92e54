package lasac

import (
	"io"
	"os"
	"testing"
)

func TestCompress(t *testing.T) {
	const name = "testdata/elevation.txt"

	// Compress
	f, err := os.CreateTemp("", "lasac.TestCompress.Compress")
	if err != nil {
		t.Fatalf("%v", err)
	}
	defer f.Close()
	defer os.Remove(f.Name())
	if err := Compress(f, name, DefaultConfig()); err != nil {
		t.Fatalf("%v", err)
	}

	// Decompress
	_, err = f.Seek(0, 0)
	if err != nil {
		t.Fatalf("%v", err)
	}
	df, err := os.CreateTemp("", "lasac.TestCompress.Decompress")
	if err != nil {
		t.Fatalf("%v", err)
	}
	defer df.Close()
	defer os.Remove(df.Name())
	if err := Decompress(df, f); err != nil {
		t.Fatalf("%v", err)
	}

	// Check if the decompressed values are the same as the original ones
	_, err = df.Seek(0, 0)
	if err != nil {
		t.Fatalf("%v", err)
	}
	decom, err := ReadValues(df)
	if err != nil {
		t.Fatalf("%v", err)
	}
	elevation, err := ReadFile(name)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if len(decom) != len(elevation) {
		t.Fatalf("%d %d", len(decom), len(elevation))
	}
	for i := range elevation {
		if decom[i] != elevation[i] {
			t.Fatalf("%d %d %d", i, decom[i], elevation[i])
		}
	}

	// The series is smooth and should beat four bytes per value by a wide margin
	fi, err := f.Stat()
	if err != nil {
		t.Fatalf("%v", err)
	}
	if raw := int64(4 * len(elevation)); fi.Size() > raw/2 {
		t.Errorf("compressed %d bytes, raw %d", fi.Size(), raw)
	}
}

func TestDecompressRejectsGarbage(t *testing.T) {
	f, err := os.Open("testdata/elevation.txt")
	if err != nil {
		t.Fatalf("%v", err)
	}
	defer f.Close()
	if err := Decompress(io.Discard, f); err == nil {
		t.Fatalf("expected error")
	}
}
