// Copyright 2025 The go-daq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// fadc-dump decodes FADC250 payload banks word by word.
//
// Usage: fadc-dump [OPTIONS] FILE
//
// Example:
//
//	$> fadc-dump -payload 0 ./run_017.evio
//	record 0, event 0, payload 0:
//	  0: 80500201 - BLOCK HEADER - slot=10 n_evts=1 n_blk=2
//	  1: 90400001 - EVENT HEADER - slot=8 evt_num=1
//	  2: 98000001 - TRIGGER TIME 1 - time=0x000001
//	[...]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/xerrors"

	"github.com/go-daq/coda/evio"
	"github.com/go-daq/coda/fadc"
	"github.com/go-daq/coda/roc"
)

func main() {
	log.SetPrefix("fadc-dump: ")
	log.SetFlags(0)

	var (
		payload = flag.Int("payload", -1, "payload bank to decode (-1 for all)")
		summary = flag.Bool("summary", false, "print per-channel summaries only")
	)

	flag.Usage = func() {
		fmt.Printf(`fadc-dump decodes FADC250 payload banks word by word.

Usage: fadc-dump [OPTIONS] FILE

ex:
 $> fadc-dump -payload 0 ./run_017.evio

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		log.Fatalf("missing input EVIO file")
	}

	err := process(flag.Arg(0), *payload, *summary)
	if err != nil {
		log.Fatalf("could not decode %q: %+v", flag.Arg(0), err)
	}
}

func process(fname string, payload int, summary bool) error {
	f, err := evio.Open(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	msg := log.New(os.Stdout, "fadc-dump: ", 0)

	for irec := 0; irec < f.RecordCount(); irec++ {
		rec, err := f.Record(irec)
		if err != nil {
			return err
		}
		evts, err := rec.Events()
		if err != nil {
			if xerrors.Is(err, evio.ErrUnsupportedCompression) {
				log.Printf("skipping compressed record %d", irec)
				continue
			}
			return err
		}
		for _, ev := range evts {
			tsb, err := roc.FromEvent(ev)
			if err != nil {
				if xerrors.Is(err, roc.ErrNotTimeSlice) {
					continue
				}
				return err
			}
			for i, pb := range tsb.Payloads {
				if payload >= 0 && i != payload {
					continue
				}
				fmt.Printf("record %d, event %d, payload %d:\n", irec, ev.Index, i)
				err = dumpPayload(pb, msg, summary)
				if err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func dumpPayload(pb *roc.PayloadBank, msg *log.Logger, summary bool) error {
	words, err := pb.Words()
	if err != nil {
		return err
	}

	dec := fadc.New(msg)
	for i, w := range words {
		dec.Decode(w)
		if !summary {
			fmt.Printf("%4d: %08X - %s\n", i, w, describe(&dec.Data))
		}
	}

	fmt.Printf("  mode=%d trig_num=%d trig_time=0x%012x trailer=%v\n",
		dec.Mode(), dec.TrigNum, dec.TrigTime, dec.BlockTrailerFound)
	for ch := 0; ch < fadc.NumChannels; ch++ {
		if dec.NHits[ch] == 0 && dec.NTDCHits[ch] == 0 && len(dec.Raw[ch]) == 0 {
			continue
		}
		fmt.Printf(
			"  chan %2d: hits=%d tdc_hits=%d integral=%d time=%d raw_samples=%d\n",
			ch, dec.NHits[ch], dec.NTDCHits[ch],
			dec.Integral[ch], dec.Time[ch], len(dec.Raw[ch]),
		)
	}
	if dec.ScalerUpdated {
		fmt.Printf("  scalers: %v time=%d trig_count=%d\n",
			dec.Scalers, dec.ScalerTime, dec.ScalerTrigCount)
	}
	return nil
}

func describe(d *fadc.Data) string {
	switch d.Type {
	case fadc.TypeBlockHeader:
		return fmt.Sprintf("BLOCK HEADER - slot=%d n_evts=%d n_blk=%d",
			d.SlotBlkHeader, d.NEvents, d.BlockNum)
	case fadc.TypeBlockTrailer:
		return fmt.Sprintf("BLOCK TRAILER - slot=%d n_words=%d",
			d.SlotBlkTrailer, d.NWords)
	case fadc.TypeEventHeader:
		if d.NewType {
			return fmt.Sprintf("EVENT HEADER 1 - slot=%d evt_num=%d",
				d.SlotEvent, d.EventNum1)
		}
		return fmt.Sprintf("EVENT HEADER 2 - evt_num=%d", d.EventNum2)
	case fadc.TypeTriggerTime:
		if d.NewType {
			return fmt.Sprintf("TRIGGER TIME 1 - time=0x%06x", d.Time1)
		}
		return fmt.Sprintf("TRIGGER TIME 2 - time=0x%06x", d.Time2)
	case fadc.TypeWindowRaw:
		if d.NewType {
			return fmt.Sprintf("WINDOW RAW DATA - chan=%d nsamples=%d",
				d.Chan, d.Width)
		}
		return fmt.Sprintf("RAW SAMPLES - valid=%v adc=%4d valid=%v adc=%4d",
			d.Valid1, d.ADC1, d.Valid2, d.ADC2)
	case fadc.TypeWindowSum:
		return fmt.Sprintf("WINDOW SUM - chan=%d over=%v adc_sum=0x%08x",
			d.Chan, d.Overflow, d.ADCSum)
	case fadc.TypePulseRaw:
		if d.NewType {
			return fmt.Sprintf("PULSE RAW DATA - chan=%d pulse=%d thres_bin=%d",
				d.Chan, d.PulseNum, d.ThresBin)
		}
		return fmt.Sprintf("PULSE RAW SAMPLES - valid=%v adc=%d valid=%v adc=%d",
			d.Valid1, d.ADC1, d.Valid2, d.ADC2)
	case fadc.TypePulseIntegral:
		return fmt.Sprintf("PULSE INTEGRAL - chan=%d pulse=%d quality=%d integral=%d",
			d.Chan, d.PulseNum, d.Quality, d.Integral)
	case fadc.TypePulseTime:
		return fmt.Sprintf("PULSE TIME - chan=%d pulse=%d quality=%d time=%d",
			d.Chan, d.PulseNum, d.Quality, d.Time)
	case fadc.TypeStreamingRaw:
		if d.NewType {
			return fmt.Sprintf("STREAMING RAW - ena_a=%d chan_a=%d ena_b=%d chan_b=%d",
				d.SourceA, d.ChanA, d.SourceB, d.ChanB)
		}
		group := "A"
		if d.Group != 0 {
			group = "B"
		}
		return fmt.Sprintf("RAW SAMPLES %s - valid=%v adc=%d valid=%v adc=%d",
			group, d.Valid1, d.ADC1, d.Valid2, d.ADC2)
	case fadc.TypePulseAmp:
		return fmt.Sprintf("PULSE V - chan=%d pulse=%d vmin=%d vpeak=%d",
			d.Chan, d.PulseNum, d.VMin, d.VPeak)
	case fadc.TypeInternalTrig:
		return fmt.Sprintf("INTERNAL TRIGGER - type=%d state=%d num=%d error=%d",
			d.TrigType, d.TrigState, d.EventNum, d.ErrStatus)
	case fadc.TypeScaler:
		if d.NewType {
			return fmt.Sprintf("SCALER BLOCK - n_words=%d", d.NScaler)
		}
		return "SCALER WORD"
	case fadc.TypeEventTrailer:
		return "END OF EVENT"
	case fadc.TypeDataNotValid:
		return "DATA NOT VALID"
	case fadc.TypeFiller:
		return "FILLER WORD"
	}
	return "UNKNOWN"
}
