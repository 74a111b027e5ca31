// Copyright 2025 The go-daq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package evio reads EVIO v6 files, the self-describing binary container
// format produced by the CODA data-acquisition system.
//
// A file is a sequence of records, each holding an event-length index and
// one or more events; an event is a tree of banks, where a bank either
// contains child banks or a typed primitive payload.
package evio // import "github.com/go-daq/coda/evio"

const (
	// FileMagic is the file-type identifier at word 0 of the file
	// header ("EVIO" in ASCII).
	FileMagic uint32 = 0x4556494F

	// HeaderMagic is the magic number carried by both the file header
	// (word 7) and every record header (word 7).
	HeaderMagic uint32 = 0xC0DA0100

	// Version is the supported EVIO major version.
	Version = 6

	// FileHeaderWords and RecordHeaderWords are the fixed sizes, in
	// 32-bit words, of the two header kinds.
	FileHeaderWords   = 14
	RecordHeaderWords = 14
)

// DataType is the 6-bit payload type code of a bank.
type DataType uint8

const (
	Unknown32  DataType = 0x00
	Uint32     DataType = 0x01
	Float32    DataType = 0x02
	CharStar8  DataType = 0x03
	Int16      DataType = 0x04
	Uint16     DataType = 0x05
	Int8       DataType = 0x06
	Uint8      DataType = 0x07
	Float64    DataType = 0x08
	Int64      DataType = 0x09
	Uint64     DataType = 0x0A
	Int32      DataType = 0x0B
	TagSegment DataType = 0x0C
	Segment    DataType = 0x0D
	AltBank    DataType = 0x0E
	Composite  DataType = 0x0F
	Bank0x10   DataType = 0x10
)

// IsContainer reports whether dt is one of the four container encodings.
func (dt DataType) IsContainer() bool {
	switch dt {
	case TagSegment, Segment, AltBank, Bank0x10:
		return true
	}
	return false
}

func (dt DataType) String() string {
	switch dt {
	case Unknown32:
		return "unknown32"
	case Uint32:
		return "uint32"
	case Float32:
		return "float32"
	case CharStar8:
		return "char*"
	case Int16:
		return "int16"
	case Uint16:
		return "uint16"
	case Int8:
		return "int8"
	case Uint8:
		return "uint8"
	case Float64:
		return "float64"
	case Int64:
		return "int64"
	case Uint64:
		return "uint64"
	case Int32:
		return "int32"
	case TagSegment:
		return "tagsegment"
	case Segment:
		return "segment"
	case AltBank:
		return "bank"
	case Composite:
		return "composite"
	case Bank0x10:
		return "bank"
	}
	return "unknown"
}

// CompressionType is the record payload compression scheme.
type CompressionType uint8

const (
	CompNone    CompressionType = 0
	CompLZ4Fast CompressionType = 1
	CompLZ4Best CompressionType = 2
	CompGzip    CompressionType = 3
)

func (ct CompressionType) String() string {
	switch ct {
	case CompNone:
		return "none"
	case CompLZ4Fast:
		return "lz4 (fast)"
	case CompLZ4Best:
		return "lz4 (best)"
	case CompGzip:
		return "gzip"
	}
	return "unknown"
}

// EventTypeName maps the 4-bit event-type code of a record header
// bit-info field to its CODA name.
func EventTypeName(code uint32) string {
	switch code {
	case 0:
		return "ROC Raw"
	case 1:
		return "Physics"
	case 2:
		return "Partial Physics"
	case 3:
		return "Disentangled Physics"
	case 4:
		return "User"
	case 5:
		return "Control"
	case 6:
		return "Mixed"
	case 8:
		return "ROC Raw Streaming"
	case 9:
		return "Physics Streaming"
	case 15:
		return "Other"
	}
	return "Unknown"
}
