// Copyright 2025 The go-daq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// evio-dump displays the bank trees of EVIO events, with a dedicated
// view for ROC time slice banks.
//
// Usage: evio-dump [OPTIONS] FILE
//
// Example:
//
//	$> evio-dump -rec 0 -evt 2 ./run_017.evio
//	record 0, event 2 (offset=0x00001a60, 1232 bytes)
//	bank tag=0xff30 type=bank num=0x01 len=307 [RocTimeSliceBank]
//	  time slice: roc=1 timestamp=1693421112000000000 frame=42 payloads=2
//	  payload 0: module=1 lane=0 port=3 samples=512 (16 x 32)
//	[...]
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"golang.org/x/xerrors"

	"github.com/go-daq/coda/evio"
	"github.com/go-daq/coda/internal/hexdump"
	"github.com/go-daq/coda/roc"
)

func main() {
	log.SetPrefix("evio-dump: ")
	log.SetFlags(0)

	var (
		irec  = flag.Int("rec", -1, "record to dump (-1 for all)")
		ievt  = flag.Int("evt", -1, "event to dump (-1 for all)")
		depth = flag.Int("depth", 8, "maximum bank tree depth")
		hex   = flag.Bool("hex", false, "hex dump each event")
	)

	flag.Usage = func() {
		fmt.Printf(`evio-dump displays the bank trees of EVIO events.

Usage: evio-dump [OPTIONS] FILE

ex:
 $> evio-dump -rec 0 -evt 2 ./run_017.evio

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		log.Fatalf("missing input EVIO file")
	}

	err := process(flag.Arg(0), *irec, *ievt, *depth, *hex)
	if err != nil {
		log.Fatalf("could not dump %q: %+v", flag.Arg(0), err)
	}
}

func process(fname string, irec, ievt, depth int, hex bool) error {
	f, err := evio.Open(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	for i := 0; i < f.RecordCount(); i++ {
		if irec >= 0 && i != irec {
			continue
		}
		rec, err := f.Record(i)
		if err != nil {
			return err
		}
		evts, err := rec.Events()
		if err != nil && !xerrors.Is(err, evio.ErrTruncated) {
			return err
		}
		if err != nil {
			log.Printf("record %d: %+v", i, err)
		}
		for _, ev := range evts {
			if ievt >= 0 && ev.Index != ievt {
				continue
			}
			fmt.Printf("record %d, event %d (offset=0x%08x, %d bytes)\n",
				i, ev.Index, ev.Offset, ev.Length)
			dumpEvent(ev, depth)
			if hex {
				fmt.Print(hexdump.Dump(ev.Bytes(),
					fmt.Sprintf("event %d data", ev.Index)))
			}
		}
	}

	return nil
}

func dumpEvent(ev *evio.Event, depth int) {
	root, err := ev.RootBank()
	if err != nil {
		log.Printf("event %d: %+v", ev.Index, err)
		return
	}
	dumpBank(root, 0, depth)

	if root.Tag != roc.TimeSliceTag {
		return
	}
	tsb, err := roc.Parse(root)
	if err != nil {
		log.Printf("event %d: %+v", ev.Index, err)
		return
	}
	fmt.Printf("  time slice: roc=%d timestamp=%d frame=%d payloads=%d\n",
		tsb.RocID, tsb.Stream.Timestamp, tsb.Stream.FrameNumber,
		len(tsb.Payloads))
	for i, pb := range tsb.Payloads {
		fmt.Printf(
			"  payload %d: module=%d lane=%d port=%d samples=%d (%d x %d)\n",
			i, pb.Info.ModuleID, pb.Info.LaneID, pb.Info.PortNum,
			len(pb.Samples()), pb.Channels, pb.SamplesPerChannel,
		)
	}
}

func dumpBank(b *evio.Bank, level, depth int) {
	indent := strings.Repeat("  ", level)
	class := ""
	if c := b.TagClass(); c != "" {
		class = fmt.Sprintf(" [%s]", c)
	}
	fmt.Printf("%sbank tag=0x%04x type=%v num=0x%02x len=%d%s\n",
		indent, b.Tag, b.Type, b.Num, b.Length, class)

	if !b.IsContainer() || level >= depth {
		return
	}
	children, err := b.Children()
	if err != nil {
		log.Printf("%sbank at offset 0x%x: %+v", indent, b.Offset, err)
	}
	for _, child := range children {
		dumpBank(child, level+1, depth)
	}
}
