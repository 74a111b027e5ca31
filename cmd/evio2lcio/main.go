// Copyright 2025 The go-daq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command evio2lcio converts an EVIO streaming data file to an LCIO one.
package main // import "github.com/go-daq/coda/cmd/evio2lcio"

import (
	"compress/flate"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go-hep.org/x/hep/lcio"

	"github.com/go-daq/coda/evio"
	"github.com/go-daq/coda/internal/xcnv"
)

var (
	msg = log.New(os.Stdout, "evio2lcio: ", 0)
)

func main() {
	var (
		oname = flag.String("o", "out.lcio", "path to output LCIO file")
		compr = flag.Int("lvl", flate.DefaultCompression, "compression level for output LCIO file")
		run   = flag.Int("run", -1, "run number (inferred from the file name if negative)")
	)

	flag.Usage = func() {
		fmt.Printf(`Usage: evio2lcio [OPTIONS] file.evio

ex:
 $> evio2lcio -o out.lcio -lvl=9 ./run_017.evio

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		msg.Fatalf("missing input EVIO file")
	}

	if *oname == "" {
		flag.Usage()
		msg.Fatalf("invalid output LCIO file name")
	}

	err := process(*oname, *compr, *run, flag.Arg(0))
	if err != nil {
		msg.Fatalf("could not convert EVIO file: %+v", err)
	}
}

func process(oname string, lvl, run int, fname string) error {
	f, err := evio.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open EVIO file: %w", err)
	}
	defer f.Close()

	if run < 0 {
		run, err = runNbrFrom(fname)
		if err != nil {
			return fmt.Errorf("could not infer run from %q: %w", fname, err)
		}
	}

	w, err := lcio.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create output LCIO file: %w", err)
	}
	defer w.Close()

	w.SetCompressionLevel(lvl)

	err = xcnv.EVIO2LCIO(w, f, int32(run), msg)
	if err != nil {
		return fmt.Errorf("could not convert EVIO to LCIO: %w", err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("could not close output LCIO file: %w", err)
	}

	return nil
}

// runNbrFrom extracts the run number from file names such as
// "run_017.evio".
func runNbrFrom(fname string) (int, error) {
	name := filepath.Base(fname)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	toks := strings.Split(name, "_")
	for i := len(toks) - 1; i >= 0; i-- {
		if v, err := strconv.Atoi(toks[i]); err == nil {
			return v, nil
		}
	}
	return 0, fmt.Errorf("no run number in %q", fname)
}
