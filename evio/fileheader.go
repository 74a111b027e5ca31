// Copyright 2025 The go-daq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package evio

import (
	"encoding/binary"

	"golang.org/x/xerrors"
)

// FileHeader is the 14-word header at the start of an EVIO v6 file.
type FileHeader struct {
	Magic            uint32 // file-type identifier, "EVIO"
	FileNumber       uint32 // split number
	HeaderLength     uint32 // header length in words
	RecordCount      uint32 // number of records (informational)
	IndexArrayLength uint32 // length of the record index array, in bytes
	BitInfo          uint32 // high 24 bits of word 5
	Version          uint32 // low 8 bits of word 5
	UserHeaderLength uint32 // length of the user header, in bytes
	HeaderMagic2     uint32 // 0xC0DA0100
	UserRegister     uint64
	TrailerPosition  uint64
	UserInt1         uint32
	UserInt2         uint32

	ByteOrder binary.ByteOrder // detected from the file magic

	HasDictionary       bool
	HasFirstEvent       bool
	HasTrailerWithIndex bool
}

// ParseFileHeader parses a file header from buf at the given byte offset.
// The byte order is detected from the file magic word: the header is read
// with whichever order makes word 0 equal FileMagic.
func ParseFileHeader(buf []byte, offset int) (*FileHeader, error) {
	const size = FileHeaderWords * 4
	if offset < 0 || offset+size > len(buf) {
		return nil, xerrors.Errorf(
			"evio: could not read file header at offset 0x%x: %w",
			offset, ErrTruncated,
		)
	}

	raw := buf[offset : offset+size]

	var order binary.ByteOrder
	switch magic := binary.LittleEndian.Uint32(raw[0:4]); {
	case magic == FileMagic:
		order = binary.LittleEndian
	case binary.BigEndian.Uint32(raw[0:4]) == FileMagic:
		order = binary.BigEndian
	default:
		return nil, xerrors.Errorf(
			"evio: invalid file magic 0x%08x at offset 0x%x (want 0x%08x): %w",
			magic, offset, FileMagic, ErrBadMagic,
		)
	}

	hdr := &FileHeader{
		Magic:            order.Uint32(raw[0:4]),
		FileNumber:       order.Uint32(raw[4:8]),
		HeaderLength:     order.Uint32(raw[8:12]),
		RecordCount:      order.Uint32(raw[12:16]),
		IndexArrayLength: order.Uint32(raw[16:20]),
		UserHeaderLength: order.Uint32(raw[24:28]),
		HeaderMagic2:     order.Uint32(raw[28:32]),
		UserRegister:     order.Uint64(raw[32:40]),
		TrailerPosition:  order.Uint64(raw[40:48]),
		UserInt1:         order.Uint32(raw[48:52]),
		UserInt2:         order.Uint32(raw[52:56]),
		ByteOrder:        order,
	}

	bitVersion := order.Uint32(raw[20:24])
	hdr.Version = bitVersion & 0xFF
	hdr.BitInfo = bitVersion >> 8

	if hdr.Version != Version {
		return nil, xerrors.Errorf(
			"evio: unsupported file version %d (want %d): %w",
			hdr.Version, Version, ErrUnsupportedVersion,
		)
	}
	if hdr.HeaderLength < FileHeaderWords {
		return nil, xerrors.Errorf(
			"evio: invalid file header length %d (want >=%d): %w",
			hdr.HeaderLength, FileHeaderWords, ErrBadHeaderLength,
		)
	}

	hdr.HasDictionary = hdr.BitInfo&0x1 != 0
	hdr.HasFirstEvent = hdr.BitInfo&0x2 != 0
	hdr.HasTrailerWithIndex = hdr.BitInfo&0x4 != 0

	return hdr, nil
}
