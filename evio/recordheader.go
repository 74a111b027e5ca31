// Copyright 2025 The go-daq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package evio

import (
	"encoding/binary"

	"golang.org/x/xerrors"
)

// RecordHeader is the 14-word header at the start of each record.
type RecordHeader struct {
	RecordLength     uint32 // record length in words, header included
	RecordNumber     uint32
	HeaderLength     uint32 // header length in words, >= 14
	EventCount       uint32
	IndexArrayLength uint32 // length of the event index array, in bytes
	BitInfo          uint32 // high 24 bits of word 5
	Version          uint32 // low 8 bits of word 5
	UserHeaderLength uint32 // length of the user header, in bytes
	Magic            uint32 // 0xC0DA0100

	UncompressedLength uint32 // uncompressed data length, in bytes
	CompressionType    CompressionType
	CompressedLength   uint32 // compressed data length, in words

	UserRegister1 uint64
	UserRegister2 uint64

	ByteOrder binary.ByteOrder // detected from the header length

	HasDictionary bool
	IsLastRecord  bool
	HasFirstEvent bool
	EventTypeCode uint32 // 4-bit code, see EventTypeName
}

// ParseRecordHeader parses a record header from buf at the given byte
// offset. The byte order is detected by reading the header-length word
// under both orders and keeping whichever yields a value >= 14.
func ParseRecordHeader(buf []byte, offset int) (*RecordHeader, error) {
	const size = RecordHeaderWords * 4
	if offset < 0 || offset+size > len(buf) {
		return nil, xerrors.Errorf(
			"evio: could not read record header at offset 0x%x: %w",
			offset, ErrTruncated,
		)
	}

	raw := buf[offset : offset+size]

	// Trial parse: keep whichever byte order yields a header length
	// >= 14. A short length byte-swaps to a large one, so the magic
	// word has to back the choice.
	plausible := func(o binary.ByteOrder) bool {
		return o.Uint32(raw[8:12]) >= RecordHeaderWords &&
			o.Uint32(raw[28:32]) == HeaderMagic
	}
	var order binary.ByteOrder
	switch {
	case plausible(binary.LittleEndian):
		order = binary.LittleEndian
	case plausible(binary.BigEndian):
		order = binary.BigEndian
	case binary.LittleEndian.Uint32(raw[8:12]) >= RecordHeaderWords:
		order = binary.LittleEndian // let the magic check report it
	case binary.BigEndian.Uint32(raw[8:12]) >= RecordHeaderWords:
		order = binary.BigEndian
	default:
		return nil, xerrors.Errorf(
			"evio: invalid record header length %d at offset 0x%x (want >=%d): %w",
			binary.LittleEndian.Uint32(raw[8:12]), offset,
			RecordHeaderWords, ErrBadHeaderLength,
		)
	}

	hdr := &RecordHeader{
		RecordLength:     order.Uint32(raw[0:4]),
		RecordNumber:     order.Uint32(raw[4:8]),
		HeaderLength:     order.Uint32(raw[8:12]),
		EventCount:       order.Uint32(raw[12:16]),
		IndexArrayLength: order.Uint32(raw[16:20]),
		UserHeaderLength: order.Uint32(raw[24:28]),
		Magic:            order.Uint32(raw[28:32]),
		UserRegister1:    order.Uint64(raw[40:48]),
		UserRegister2:    order.Uint64(raw[48:56]),
		ByteOrder:        order,
	}

	bitVersion := order.Uint32(raw[20:24])
	hdr.Version = bitVersion & 0xFF
	hdr.BitInfo = bitVersion >> 8

	hdr.UncompressedLength = order.Uint32(raw[32:36])
	comp := order.Uint32(raw[36:40])
	hdr.CompressionType = CompressionType(comp >> 28)
	hdr.CompressedLength = comp & 0x0FFFFFFF

	if hdr.Version != Version {
		return nil, xerrors.Errorf(
			"evio: unsupported record version %d at offset 0x%x (want %d): %w",
			hdr.Version, offset, Version, ErrUnsupportedVersion,
		)
	}
	if hdr.Magic != HeaderMagic {
		return nil, xerrors.Errorf(
			"evio: invalid record magic 0x%08x at offset 0x%x (want 0x%08x): %w",
			hdr.Magic, offset, HeaderMagic, ErrBadMagic,
		)
	}

	hdr.HasDictionary = hdr.BitInfo&0x1 != 0
	hdr.IsLastRecord = hdr.BitInfo&0x2 != 0
	hdr.EventTypeCode = (hdr.BitInfo >> 2) & 0xF
	hdr.HasFirstEvent = hdr.BitInfo&0x40 != 0

	return hdr, nil
}

// EventType returns the CODA name of the record's event-type code.
func (hdr *RecordHeader) EventType() string {
	return EventTypeName(hdr.EventTypeCode)
}
