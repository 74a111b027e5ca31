// Copyright 2025 The go-daq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// evio-info displays the file header and record layout of EVIO files.
//
// Usage: evio-info FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> evio-info ./run_017.evio
//	=== ./run_017.evio ===
//	version:       6
//	byte order:    LittleEndian
//	records:       3
//	record    0: offset=0x00000038 events=12 type="ROC Raw Streaming" compression=none
//	[...]
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/go-daq/coda/evio"
)

func main() {
	log.SetPrefix("evio-info: ")
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Printf(`evio-info displays the file header and record layout of EVIO files.

Usage: evio-info FILE1 [FILE2 [FILE3 ...]]

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		log.Fatalf("missing input EVIO file(s)")
	}

	for _, fname := range flag.Args() {
		err := process(fname)
		if err != nil {
			log.Fatalf("could not inspect %q: %+v", fname, err)
		}
	}
}

func process(fname string) error {
	f, err := evio.Open(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	hdr := f.Header
	fmt.Printf("=== %s ===\n", fname)
	fmt.Printf("version:       %d\n", hdr.Version)
	fmt.Printf("byte order:    %v\n", hdr.ByteOrder)
	fmt.Printf("file size:     %d bytes\n", f.Size())
	fmt.Printf("dictionary:    %v\n", hdr.HasDictionary)
	fmt.Printf("first event:   %v\n", hdr.HasFirstEvent)
	fmt.Printf("trailer+index: %v\n", hdr.HasTrailerWithIndex)
	fmt.Printf("records:       %d\n", f.RecordCount())

	for i := 0; i < f.RecordCount(); i++ {
		rec, err := f.Record(i)
		if err != nil {
			return err
		}
		fmt.Printf(
			"record %4d: offset=0x%08x words=%d events=%d type=%q compression=%v last=%v\n",
			i, rec.Offset,
			rec.Header.RecordLength, rec.Header.EventCount,
			rec.Header.EventType(), rec.Header.CompressionType,
			rec.Header.IsLastRecord,
		)
	}

	return nil
}
