// Copyright 2025 The go-daq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package evio

import (
	"encoding/binary"
)

// wbuf encodes 32-bit words with the given byte order.
func wbuf(order binary.ByteOrder, words []uint32) []byte {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		order.PutUint32(buf[4*i:], w)
	}
	return buf
}

// bankWords builds the word image of a leaf or container bank.
func bankWords(tag uint16, typ DataType, num uint8, payload []uint32) []uint32 {
	words := make([]uint32, 0, len(payload)+2)
	words = append(words,
		uint32(len(payload)+1),
		uint32(tag)<<16|uint32(typ)<<8|uint32(num),
	)
	return append(words, payload...)
}

// fileHeaderWords builds a 14-word file header.
func fileHeaderWords(nrec, idxLen, usrLen uint32, bits uint32) []uint32 {
	return []uint32{
		FileMagic,
		1, // file number
		FileHeaderWords,
		nrec,
		idxLen,
		bits<<8 | Version,
		usrLen,
		HeaderMagic,
		0, 0, // user register
		0, 0, // trailer position
		0, 0,
	}
}

// recordWords builds a record: a 14-word header, the event index array
// and the event data.
func recordWords(recNum uint32, events [][]uint32, last bool) []uint32 {
	var (
		data  []uint32
		index []uint32
	)
	for _, evt := range events {
		index = append(index, uint32(4*len(evt)))
		data = append(data, evt...)
	}

	bits := uint32(0)
	if last {
		bits |= 0x2
	}

	recLen := uint32(RecordHeaderWords + len(index) + len(data))
	words := []uint32{
		recLen,
		recNum,
		RecordHeaderWords,
		uint32(len(events)),
		uint32(4 * len(index)),
		bits<<8 | Version,
		0, // user header length
		HeaderMagic,
		4 * uint32(len(data)), // uncompressed length
		0,                     // no compression
		0, 0, 0, 0,
	}
	words = append(words, index...)
	return append(words, data...)
}

// simpleEvent builds a one-leaf-bank event holding the given words.
func simpleEvent(tag uint16, num uint8, payload []uint32) []uint32 {
	return bankWords(tag, Uint32, num, payload)
}

// testEvents are the events of the two testFile records.
var testEvents = [][][]uint32{
	{
		simpleEvent(0x0101, 1, []uint32{0xdeadcafe}),
		simpleEvent(0x0102, 2, []uint32{1, 2, 3}),
		simpleEvent(0x0103, 3, []uint32{4, 5}),
	},
	{
		simpleEvent(0x0201, 1, []uint32{6, 7, 8, 9}),
	},
}

// testFile assembles a two-record file image: three events in the
// first record, one in the last.
func testFile(order binary.ByteOrder) []byte {
	words := fileHeaderWords(2, 0, 0, 0)
	words = append(words, recordWords(1, testEvents[0], false)...)
	words = append(words, recordWords(2, testEvents[1], true)...)
	return wbuf(order, words)
}

// testFileIndexed is testFile with a file-level index array instead of
// last-record termination.
func testFileIndexed(order binary.ByteOrder) []byte {
	rec0 := recordWords(1, testEvents[0], false)
	rec1 := recordWords(2, testEvents[1], false)
	words := fileHeaderWords(2, 8, 0, 0)
	words = append(words, uint32(4*len(rec0)), uint32(4*len(rec1)))
	words = append(words, rec0...)
	words = append(words, rec1...)
	return wbuf(order, words)
}
