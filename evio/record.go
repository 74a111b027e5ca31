// Copyright 2025 The go-daq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package evio

import (
	"encoding/binary"

	"golang.org/x/xerrors"
)

// Record is one top-level chunk of an EVIO file: a header, an event
// index array, an optional user header and the event data region.
type Record struct {
	buf []byte

	Offset int // absolute byte offset of the record
	Header *RecordHeader

	IndexStart int // absolute byte offset of the event index array
	IndexEnd   int
	DataStart  int // absolute byte offset of the event data region
	DataEnd    int

	events   []*Event
	eventErr error
	scanned  bool
}

// ParseRecord parses the record starting at the given byte offset of
// buf. The record byte order is detected by its header.
func ParseRecord(buf []byte, offset int) (*Record, error) {
	hdr, err := ParseRecordHeader(buf, offset)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		buf:    buf,
		Offset: offset,
		Header: hdr,
	}
	rec.IndexStart = offset + int(hdr.HeaderLength)*4
	rec.IndexEnd = rec.IndexStart + int(hdr.IndexArrayLength)
	rec.DataStart = rec.IndexEnd + int(hdr.UserHeaderLength)
	rec.DataEnd = offset + int(hdr.RecordLength)*4

	if rec.DataEnd > len(buf) || rec.DataStart > rec.DataEnd {
		return nil, xerrors.Errorf(
			"evio: record at offset 0x%x declares %d words but only %d bytes remain: %w",
			offset, hdr.RecordLength, len(buf)-offset, ErrTruncated,
		)
	}

	return rec, nil
}

// Size returns the total record extent in bytes.
func (rec *Record) Size() int { return int(rec.Header.RecordLength) * 4 }

// EventCount returns the number of entries in the event index array.
func (rec *Record) EventCount() int {
	return int(rec.Header.IndexArrayLength) / 4
}

// Events resolves all event boundaries from the index array.
//
// The index array holds one uint32 byte-length per event; event offsets
// are the cumulative sums starting at the data region. An event whose
// extent would run past the record data region is rejected: Events
// returns the events resolved so far plus ErrTruncated.
//
// Records with a nonzero compression type are opaque: their event data
// cannot be walked and Events returns ErrUnsupportedCompression.
func (rec *Record) Events() ([]*Event, error) {
	if rec.scanned {
		return rec.events, rec.eventErr
	}
	rec.scanned = true

	if rec.Header.CompressionType != CompNone {
		rec.eventErr = xerrors.Errorf(
			"evio: record at offset 0x%x is compressed (%v): %w",
			rec.Offset, rec.Header.CompressionType, ErrUnsupportedCompression,
		)
		return nil, rec.eventErr
	}

	order := rec.Header.ByteOrder
	offset := rec.DataStart
	for i := 0; i < rec.EventCount(); i++ {
		idx := rec.IndexStart + 4*i
		length := int(order.Uint32(rec.buf[idx : idx+4]))
		if offset+length > rec.DataEnd {
			rec.eventErr = xerrors.Errorf(
				"evio: event %d of record at offset 0x%x ends at 0x%x, past the data region end 0x%x: %w",
				i, rec.Offset, offset+length, rec.DataEnd, ErrTruncated,
			)
			break
		}
		rec.events = append(rec.events, &Event{
			buf:    rec.buf,
			order:  order,
			Index:  i,
			Offset: offset,
			Length: length,
		})
		offset += length
	}

	return rec.events, rec.eventErr
}

// Event returns the i-th event of the record.
func (rec *Record) Event(i int) (*Event, error) {
	evts, err := rec.Events()
	if i < 0 || i >= len(evts) {
		if err != nil {
			return nil, err
		}
		return nil, xerrors.Errorf(
			"evio: event index %d out of range (0-%d): %w",
			i, len(evts)-1, ErrOutOfRange,
		)
	}
	return evts[i], nil
}

// Event is a byte range within a record's event data region.
type Event struct {
	buf   []byte
	order binary.ByteOrder

	Index  int // position within the owning record
	Offset int // absolute byte offset
	Length int // length in bytes

	root *Bank
}

// RootBank parses the event's root bank. The bank is parsed on first
// request and cached.
func (ev *Event) RootBank() (*Bank, error) {
	if ev.root != nil {
		return ev.root, nil
	}
	end := ev.Offset + ev.Length
	b, err := ParseBank(ev.buf[:end], ev.Offset, ev.order)
	if err != nil {
		return nil, xerrors.Errorf(
			"evio: could not parse root bank of event %d: %w", ev.Index, err,
		)
	}
	ev.root = b
	return b, nil
}

// Bytes returns the raw event bytes.
func (ev *Event) Bytes() []byte {
	return ev.buf[ev.Offset : ev.Offset+ev.Length]
}
