// Copyright 2025 The go-daq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package evio

import (
	"golang.org/x/xerrors"

	"github.com/go-daq/coda/internal/hexdump"
	"github.com/go-daq/coda/internal/mmap"
)

// File is a read session over one EVIO file. The file is memory-mapped
// on Open and unmapped on Close; all banks, records and events handed
// out by the session are views into the mapping and must not be used
// after Close.
//
// The mapping is immutable, so views may be read from several goroutines
// at once.
type File struct {
	name string
	mm   *mmap.Handle
	data []byte

	Header *FileHeader

	recOffsets []int
	records    []*Record
}

// Open memory-maps the named file and scans its record structure.
func Open(name string) (*File, error) {
	h, err := mmap.Open(name)
	if err != nil {
		return nil, xerrors.Errorf("evio: could not open %q: %w", name, err)
	}

	f := &File{
		name: name,
		mm:   h,
		data: h.Bytes(),
	}
	if err := f.scanStructure(); err != nil {
		_ = h.Close()
		return nil, err
	}
	return f, nil
}

// FromBytes builds a read session over an in-memory byte region.
func FromBytes(data []byte) (*File, error) {
	f := &File{data: data}
	if err := f.scanStructure(); err != nil {
		return nil, err
	}
	return f, nil
}

// Close releases the underlying mapping. All views into the file are
// invalid afterwards.
func (f *File) Close() error {
	f.data = nil
	if f.mm == nil {
		return nil
	}
	return f.mm.Close()
}

// Name returns the path the session was opened with.
func (f *File) Name() string { return f.name }

// Size returns the file size in bytes.
func (f *File) Size() int { return len(f.data) }

// Bytes returns the underlying byte region.
func (f *File) Bytes() []byte { return f.data }

// scanStructure parses the file header and locates every record, either
// through the file-level index array (one record byte-length per entry)
// or by walking record headers sequentially until the last-record flag
// or the end of the file.
func (f *File) scanStructure() error {
	hdr, err := ParseFileHeader(f.data, 0)
	if err != nil {
		return err
	}
	f.Header = hdr

	offset := int(hdr.HeaderLength) * 4
	index := f.data[min(offset, len(f.data)):]
	if n := int(hdr.IndexArrayLength); n > 0 {
		if n > len(index) {
			return xerrors.Errorf(
				"evio: file index array of %d bytes runs past the end of file: %w",
				n, ErrTruncated,
			)
		}
		index = index[:n]
		offset += n
	} else {
		index = nil
	}
	offset += int(hdr.UserHeaderLength)

	if index != nil {
		// Fast path: record lengths are known without touching their
		// headers.
		for i := 0; i+4 <= len(index); i += 4 {
			length := int(hdr.ByteOrder.Uint32(index[i : i+4]))
			if length == 0 || offset+length > len(f.data) {
				return xerrors.Errorf(
					"evio: file index entry %d declares a record of %d bytes at offset 0x%x: %w",
					i/4, length, offset, ErrTruncated,
				)
			}
			f.recOffsets = append(f.recOffsets, offset)
			offset += length
		}
	} else {
		for offset < len(f.data) {
			rhdr, err := ParseRecordHeader(f.data, offset)
			if err != nil {
				region := f.data[offset:min(offset+RecordHeaderWords*4, len(f.data))]
				return xerrors.Errorf(
					"evio: could not scan record %d at offset 0x%x:\n%s%w",
					len(f.recOffsets), offset,
					hexdump.Dump(region, "record header"), err,
				)
			}
			if rhdr.RecordLength < RecordHeaderWords {
				return xerrors.Errorf(
					"evio: record %d at offset 0x%x declares %d words: %w",
					len(f.recOffsets), offset, rhdr.RecordLength, ErrBadHeaderLength,
				)
			}
			f.recOffsets = append(f.recOffsets, offset)
			offset += int(rhdr.RecordLength) * 4
			if rhdr.IsLastRecord {
				break
			}
		}
	}

	f.records = make([]*Record, len(f.recOffsets))
	return nil
}

// RecordCount returns the number of records discovered by the scan.
func (f *File) RecordCount() int { return len(f.recOffsets) }

// Record returns the i-th record. Records are parsed on first access
// and cached by the session.
func (f *File) Record(i int) (*Record, error) {
	if i < 0 || i >= len(f.recOffsets) {
		return nil, xerrors.Errorf(
			"evio: record index %d out of range (0-%d): %w",
			i, len(f.recOffsets)-1, ErrOutOfRange,
		)
	}
	if f.records[i] != nil {
		return f.records[i], nil
	}
	rec, err := ParseRecord(f.data, f.recOffsets[i])
	if err != nil {
		return nil, err
	}
	f.records[i] = rec
	return rec, nil
}

func min(i, j int) int {
	if i < j {
		return i
	}
	return j
}
