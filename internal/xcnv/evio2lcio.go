// Copyright 2025 The go-daq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xcnv converts decoded EVIO data to other event formats.
package xcnv // import "github.com/go-daq/coda/internal/xcnv"

import (
	"log"

	"go-hep.org/x/hep/lcio"
	"golang.org/x/xerrors"

	"github.com/go-daq/coda/evio"
	"github.com/go-daq/coda/fadc"
	"github.com/go-daq/coda/roc"
)

// EVIO2LCIO converts every ROC time slice of f to an LCIO event.
//
// Each payload bank is decoded with its own FADC250 session; the raw
// payload words are written per payload as generic-object data, with the
// decoded trigger time and trigger number in the event parameters.
// Events that are not time slices and compressed records are skipped
// with a message.
func EVIO2LCIO(w *lcio.Writer, f *evio.File, run int32, msg *log.Logger) error {
	var (
		nevt  int32
		wrote bool
	)

	for irec := 0; irec < f.RecordCount(); irec++ {
		rec, err := f.Record(irec)
		if err != nil {
			return xerrors.Errorf("xcnv: could not parse record %d: %w", irec, err)
		}

		evts, err := rec.Events()
		if err != nil {
			if xerrors.Is(err, evio.ErrUnsupportedCompression) {
				msg.Printf("skipping compressed record %d", irec)
				continue
			}
			return xerrors.Errorf("xcnv: could not scan record %d: %w", irec, err)
		}

		for _, ev := range evts {
			tsb, err := roc.FromEvent(ev)
			if err != nil {
				if xerrors.Is(err, roc.ErrNotTimeSlice) {
					msg.Printf("skipping non time-slice event %d of record %d",
						ev.Index, irec)
					continue
				}
				return xerrors.Errorf(
					"xcnv: could not parse event %d of record %d: %w",
					ev.Index, irec, err,
				)
			}

			if !wrote {
				err = w.WriteRunHeader(&lcio.RunHeader{
					RunNumber: run,
					Detector:  "FADC250",
					Params: lcio.Params{
						Ints: map[string][]int32{
							"RocID": {int32(tsb.RocID)},
						},
					},
				})
				if err != nil {
					return xerrors.Errorf("xcnv: could not write run header: %w", err)
				}
				wrote = true
			}

			decs, err := fadc.DecodeBanks(tsb.Payloads, msg)
			if err != nil {
				return xerrors.Errorf(
					"xcnv: could not decode payloads of event %d: %w", ev.Index, err,
				)
			}

			evt := lcio.Event{
				RunNumber:   run,
				EventNumber: nevt,
				TimeStamp:   int64(tsb.Stream.Timestamp),
				Detector:    "FADC250",
			}
			evt.Params.Ints = map[string][]int32{
				"Frame": {int32(tsb.Stream.FrameNumber)},
			}

			raw := &lcio.GenericObject{
				Data: make([]lcio.GenericObjectData, len(tsb.Payloads)),
			}
			for i, pb := range tsb.Payloads {
				words, err := pb.Words()
				if err != nil {
					return xerrors.Errorf(
						"xcnv: could not read payload %d of event %d: %w",
						i, ev.Index, err,
					)
				}
				data := &raw.Data[i]
				data.I32s = make([]int32, len(words))
				for j, word := range words {
					data.I32s[j] = int32(word)
				}
				data.I64s = []int64{int64(decs[i].TrigTime)}
				data.F32s = nil
			}
			evt.Add("FadcRawWords", raw)

			err = w.WriteEvent(&evt)
			if err != nil {
				return xerrors.Errorf(
					"xcnv: could not write LCIO event %d: %w", nevt, err,
				)
			}
			nevt++
		}
	}

	msg.Printf("converted %d events", nevt)
	return nil
}
