// Copyright 2025 The go-daq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fadc

import (
	"io"
	"log"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func decode(words ...uint32) *Decoder {
	dec := New(nil)
	for _, w := range words {
		dec.Decode(w)
	}
	return dec
}

func TestBlockHeader(t *testing.T) {
	// slot 5, block 3, 2 events.
	dec := decode(0x81400302)

	d := dec.Data
	if !d.NewType || d.Type != TypeBlockHeader {
		t.Fatalf("invalid word type: new=%v type=%d", d.NewType, d.Type)
	}
	if got, want := d.SlotBlkHeader, uint32(5); got != want {
		t.Fatalf("invalid slot: got=%d, want=%d", got, want)
	}
	if got, want := d.BlockNum, uint32(3); got != want {
		t.Fatalf("invalid block number: got=%d, want=%d", got, want)
	}
	if got, want := d.NEvents, uint32(2); got != want {
		t.Fatalf("invalid event count: got=%d, want=%d", got, want)
	}
	if got, want := dec.NWords(), 1; got != want {
		t.Fatalf("invalid word count: got=%d, want=%d", got, want)
	}
}

func TestBlockTrailer(t *testing.T) {
	// slot 5, 42 words.
	dec := decode(0x8940002A)

	if !dec.BlockTrailerFound {
		t.Fatalf("block trailer not flagged")
	}
	if got, want := dec.Data.SlotBlkTrailer, uint32(5); got != want {
		t.Fatalf("invalid slot: got=%d, want=%d", got, want)
	}
	if got, want := dec.Data.NWords, uint32(42); got != want {
		t.Fatalf("invalid block word count: got=%d, want=%d", got, want)
	}
}

func TestEventHeader(t *testing.T) {
	// Block header in slot 5, event header in slot 5: consistent.
	dec := decode(
		0x81400302,
		0x80000000|uint32(TypeEventHeader)<<27|5<<22|123,
	)
	if got, want := dec.TrigNum, uint32(123); got != want {
		t.Fatalf("invalid trigger number: got=%d, want=%d", got, want)
	}
	if len(dec.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %q", dec.Warnings)
	}

	// Event header slot differs from the block header slot.
	dec = decode(
		0x81400302,
		0x80000000|uint32(TypeEventHeader)<<27|6<<22|123,
	)
	if got, want := len(dec.Warnings), 1; got != want {
		t.Fatalf("invalid number of warnings: got=%d (%q), want=%d",
			got, dec.Warnings, want)
	}
}

func TestTriggerTime(t *testing.T) {
	dec := decode(0x98000001, 0x00000002)

	if got, want := dec.Data.TimeNow, uint32(2); got != want {
		t.Fatalf("invalid trigger time word count: got=%d, want=%d", got, want)
	}
	if got, want := dec.TrigTime, uint64(0x2000001); got != want {
		t.Fatalf("invalid trigger time: got=0x%x, want=0x%x", got, want)
	}
	if len(dec.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %q", dec.Warnings)
	}

	// A third continuation word is a protocol violation.
	dec.Decode(0x00000003)
	if got, want := len(dec.Warnings), 1; got != want {
		t.Fatalf("invalid number of warnings: got=%d (%q), want=%d",
			got, dec.Warnings, want)
	}
	if got, want := dec.TrigTime, uint64(0x2000001); got != want {
		t.Fatalf("trigger time changed: got=0x%x, want=0x%x", got, want)
	}
}

func TestWindowRaw(t *testing.T) {
	// Channel 3, 4 samples: 100, 200, then 300 and an invalid sample.
	dec := decode(
		0xA1800004,
		100<<16|200,
		300<<16|400|0x2000,
	)

	if got, want := dec.Data.Chan, uint32(3); got != want {
		t.Fatalf("invalid channel: got=%d, want=%d", got, want)
	}
	if got, want := dec.Data.Width, uint32(4); got != want {
		t.Fatalf("invalid window width: got=%d, want=%d", got, want)
	}
	if !dec.Data.Valid1 || dec.Data.Valid2 {
		t.Fatalf("invalid validity bits: valid1=%v valid2=%v",
			dec.Data.Valid1, dec.Data.Valid2)
	}
	if got, want := dec.Raw[3], []uint32{100, 200, 300, 0}; !cmp.Equal(got, want) {
		t.Fatalf("invalid raw samples:\n%s", cmp.Diff(got, want))
	}
	if got, want := dec.NHits[3], 1; got != want {
		t.Fatalf("invalid hit count: got=%d, want=%d", got, want)
	}
	if got, want := dec.Mode(), 1; got != want {
		t.Fatalf("invalid mode: got=%d, want=%d", got, want)
	}
}

func TestPulseRaw(t *testing.T) {
	// Channel 4, pulse 2, threshold bin 100, one sample pair.
	dec := decode(
		0xB2400064,
		1000<<16|2000,
	)

	if got, want := dec.Data.Chan, uint32(4); got != want {
		t.Fatalf("invalid channel: got=%d, want=%d", got, want)
	}
	if got, want := dec.Data.PulseNum, uint32(2); got != want {
		t.Fatalf("invalid pulse number: got=%d, want=%d", got, want)
	}
	if got, want := dec.Data.ThresBin, uint32(100); got != want {
		t.Fatalf("invalid threshold bin: got=%d, want=%d", got, want)
	}
	if dec.Data.ADC1 != 1000 || dec.Data.ADC2 != 2000 {
		t.Fatalf("invalid sample pair: adc1=%d adc2=%d",
			dec.Data.ADC1, dec.Data.ADC2)
	}
	if got, want := dec.Mode(), 2; got != want {
		t.Fatalf("invalid mode: got=%d, want=%d", got, want)
	}
}

func TestPulseIntegralAndTime(t *testing.T) {
	const ch = 2
	mkTime := func(time uint32) uint32 {
		return 0x80000000 | uint32(TypePulseTime)<<27 | ch<<23 | time
	}
	mkIntegral := func(sum uint32) uint32 {
		return 0x80000000 | uint32(TypePulseIntegral)<<27 | ch<<23 | sum
	}

	dec := decode(
		mkTime(321), mkIntegral(1000),
		mkTime(322), mkIntegral(1001),
	)

	if got, want := dec.Integral[ch], uint32(1000); got != want {
		t.Fatalf("invalid first integral: got=%d, want=%d", got, want)
	}
	if got, want := dec.Integral2[ch], uint32(1001); got != want {
		t.Fatalf("invalid second integral: got=%d, want=%d", got, want)
	}
	if got, want := dec.Time[ch], uint32(321); got != want {
		t.Fatalf("invalid first time: got=%d, want=%d", got, want)
	}
	if got, want := dec.Time2[ch], uint32(322); got != want {
		t.Fatalf("invalid second time: got=%d, want=%d", got, want)
	}
	if dec.NHits[ch] != 2 || dec.NTDCHits[ch] != 2 {
		t.Fatalf("invalid hit counts: adc=%d tdc=%d",
			dec.NHits[ch], dec.NTDCHits[ch])
	}
	if len(dec.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %q", dec.Warnings)
	}
	if got, want := dec.Mode(), 3; got != want {
		t.Fatalf("invalid mode: got=%d, want=%d", got, want)
	}

	// An integral with no matching time word raises a hit mismatch.
	dec.Decode(mkIntegral(1002))
	if got, want := len(dec.Warnings), 1; got != want {
		t.Fatalf("invalid number of warnings: got=%d (%q), want=%d",
			got, dec.Warnings, want)
	}
}

func TestWindowSum(t *testing.T) {
	// Channel 6, overflowed sum 12345.
	dec := decode(0xAB403039)

	if got, want := dec.Data.Chan, uint32(6); got != want {
		t.Fatalf("invalid channel: got=%d, want=%d", got, want)
	}
	if !dec.Data.Overflow {
		t.Fatalf("overflow bit not seen")
	}
	if got, want := dec.Data.ADCSum, uint32(12345); got != want {
		t.Fatalf("invalid window sum: got=%d, want=%d", got, want)
	}
}

func TestPulseAmp(t *testing.T) {
	// Channel 1, minimum 100, peak 2000.
	dec := decode(0xD0000000 | 1<<23 | 100<<12 | 2000)

	if got, want := dec.Data.Chan, uint32(1); got != want {
		t.Fatalf("invalid channel: got=%d, want=%d", got, want)
	}
	if got, want := dec.Data.VMin, uint32(100); got != want {
		t.Fatalf("invalid pulse minimum: got=%d, want=%d", got, want)
	}
	if got, want := dec.Data.VPeak, uint32(2000); got != want {
		t.Fatalf("invalid pulse peak: got=%d, want=%d", got, want)
	}
}

func TestInternalTrig(t *testing.T) {
	dec := decode(0xD8000000 | 1<<16 | 77<<4 | 1<<3 | 5)

	d := dec.Data
	if d.TrigType != 5 || d.TrigState != 1 || d.EventNum != 77 || d.ErrStatus != 1 {
		t.Fatalf("invalid internal trigger fields: type=%d state=%d evt=%d err=%d",
			d.TrigType, d.TrigState, d.EventNum, d.ErrStatus)
	}
}

func TestScaler(t *testing.T) {
	words := []uint32{0xE0000012}
	for i := uint32(1); i <= 18; i++ {
		words = append(words, i)
	}
	dec := decode(words...)

	for i, v := range dec.Scalers {
		if got, want := v, uint32(i+1); got != want {
			t.Fatalf("invalid scaler %d: got=%d, want=%d", i, got, want)
		}
	}
	if got, want := dec.ScalerTime, uint32(17); got != want {
		t.Fatalf("invalid scaler timestamp: got=%d, want=%d", got, want)
	}
	if got, want := dec.ScalerTrigCount, uint32(18); got != want {
		t.Fatalf("invalid scaler trigger count: got=%d, want=%d", got, want)
	}
	if !dec.ScalerUpdated {
		t.Fatalf("scaler block not flagged as updated")
	}
	if len(dec.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %q", dec.Warnings)
	}

	// A 19th continuation word overruns the declared block.
	dec.Decode(19)
	if got, want := len(dec.Warnings), 1; got != want {
		t.Fatalf("invalid number of warnings: got=%d (%q), want=%d",
			got, dec.Warnings, want)
	}
}

func TestScalerBadLength(t *testing.T) {
	dec := decode(0xE0000010) // declares 16 words, not 18
	if got, want := len(dec.Warnings), 1; got != want {
		t.Fatalf("invalid number of warnings: got=%d (%q), want=%d",
			got, dec.Warnings, want)
	}
}

func TestModeUndetermined(t *testing.T) {
	if got, want := New(nil).Mode(), -1; got != want {
		t.Fatalf("invalid mode: got=%d, want=%d", got, want)
	}

	// Mixed raw and integral data has no single mode either.
	dec := decode(
		0xA1800002, 100<<16|200,
		0x80000000|uint32(TypePulseIntegral)<<27|1<<23|10,
	)
	if got, want := dec.Mode(), -1; got != want {
		t.Fatalf("invalid mode: got=%d, want=%d", got, want)
	}
}

func TestReset(t *testing.T) {
	dec := decode(0x81400302, 0x98000001, 0x00000002, 0x00000003)
	if dec.NWords() == 0 || len(dec.Warnings) == 0 {
		t.Fatalf("fixture decoded nothing")
	}

	dec.Reset()
	if got, want := dec.NWords(), 0; got != want {
		t.Fatalf("invalid word count after reset: got=%d, want=%d", got, want)
	}
	if len(dec.Warnings) != 0 {
		t.Fatalf("warnings survived reset: %q", dec.Warnings)
	}
	if got, want := dec.TrigTime, uint64(0); got != want {
		t.Fatalf("trigger time survived reset: got=0x%x", got)
	}
}

func TestDecodeDeterminism(t *testing.T) {
	words := []uint32{
		0x81400302, // block header
		0x80000000 | uint32(TypeEventHeader)<<27 | 5<<22 | 123,
		0x98000001, 0x00000002, // trigger time
		0xA1800004, 100<<16 | 200, 300<<16 | 400 | 0x2000, // window raw
		0x8940002A, // block trailer
	}

	msg := log.New(io.Discard, "", 0)
	dec1 := New(msg)
	dec2 := New(msg)
	for _, w := range words {
		dec1.Decode(w)
		dec2.Decode(w)
	}

	diff := cmp.Diff(dec1, dec2,
		cmp.AllowUnexported(Decoder{}),
		cmp.Comparer(func(a, b *log.Logger) bool { return a == b }),
	)
	if diff != "" {
		t.Fatalf("decoders diverged:\n%s", diff)
	}
}
