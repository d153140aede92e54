package main

import (
	"flag"
	"log"
	"os"

	"github.com/fumin/lasac"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	flag.Parse()
	if err := lasac.Decompress(os.Stdout, os.Stdin); err != nil {
		log.Fatalf("%+v", err)
	}
}
