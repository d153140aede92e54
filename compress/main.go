package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fumin/lasac"
	"github.com/fumin/lasac/internal/baseline"
	"github.com/pkg/errors"
)

var bits = flag.Uint("bits", 32, "width of the values in bits, 0 or 32 for full int32 values")
var contexts = flag.Uint("contexts", 4, "number of bit-length contexts of the corrector")
var verbose = flag.Bool("verbose", false, "verbosity")

type countingWriter struct {
	n int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += len(p)
	return len(p), nil
}

func report(values []int32, cfg lasac.Config) error {
	var cw countingWriter
	if err := lasac.Encode(&cw, values, cfg); err != nil {
		return err
	}
	raw := lasac.RawBytes(values)
	results, err := baseline.Measure(raw)
	if err != nil {
		return errors.Wrap(err, "")
	}

	log.Printf("%d values, raw %d bytes, lasac %d bytes", len(values), len(raw), cw.n)
	for _, r := range results {
		log.Printf("%s %d bytes", r.Name, r.Size)
	}
	return nil
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] filename\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	name := flag.Arg(0)
	if name == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg := lasac.Config{Bits: uint32(*bits), Contexts: uint32(*contexts)}
	values, err := lasac.ReadFile(name)
	if err != nil {
		log.Fatalf("%+v", err)
	}
	if err := lasac.Encode(os.Stdout, values, cfg); err != nil {
		log.Fatalf("%+v", err)
	}
	if *verbose {
		if err := report(values, cfg); err != nil {
			log.Fatalf("%+v", err)
		}
	}
}
