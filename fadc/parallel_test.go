// Copyright 2025 The go-daq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fadc

import (
	"encoding/binary"
	"testing"

	"github.com/go-daq/coda/evio"
	"github.com/go-daq/coda/roc"
)

func TestDecodeBanks(t *testing.T) {
	// A time slice with two payload banks carrying distinct trigger
	// times: 0x2000001 and 0x4000003.
	payloads := [][]uint32{
		{0x98000001, 0x00000002},
		{0x98000003, 0x00000004},
	}

	var body []uint32
	sib := []uint32{
		0x11223344, 0, // timestamp
		1,            // frame number
		0x41<<24 | 2, // aggregation segment, 2 payloads
		0x101, 0x102,
	}
	body = append(body, uint32(len(sib)+1),
		uint32(roc.TimeSliceTag)<<16|uint32(evio.Uint32)<<8|1)
	body = append(body, sib...)
	for i, p := range payloads {
		body = append(body, uint32(len(p)+1),
			uint32(i+1)<<16|uint32(evio.Unknown32)<<8|1)
		body = append(body, p...)
	}

	words := []uint32{
		uint32(len(body) + 1),
		uint32(roc.TimeSliceTag)<<16 | uint32(evio.Bank0x10)<<8 | 1,
	}
	words = append(words, body...)

	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], w)
	}

	b, err := evio.ParseBank(buf, 0, binary.LittleEndian)
	if err != nil {
		t.Fatalf("could not parse fixture bank: %+v", err)
	}
	tsb, err := roc.Parse(b)
	if err != nil {
		t.Fatalf("could not parse time slice: %+v", err)
	}

	decs, err := DecodeBanks(tsb.Payloads, nil)
	if err != nil {
		t.Fatalf("could not decode payload banks: %+v", err)
	}
	if got, want := len(decs), 2; got != want {
		t.Fatalf("invalid number of decoders: got=%d, want=%d", got, want)
	}
	for i, want := range []uint64{0x2000001, 0x4000003} {
		if got := decs[i].TrigTime; got != want {
			t.Fatalf("invalid trigger time %d: got=0x%x, want=0x%x", i, got, want)
		}
		if got, want := decs[i].NWords(), 2; got != want {
			t.Fatalf("invalid word count %d: got=%d, want=%d", i, got, want)
		}
	}
}
