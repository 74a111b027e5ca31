// Copyright 2025 The go-daq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package evio

import (
	"encoding/binary"
	"math"
	"strings"

	"golang.org/x/xerrors"
)

// Bank is one node of the container tree: a 2-word header followed by
// either child banks or a typed primitive payload.
//
// A Bank is a view into the byte region it was parsed from; it borrows
// the region and must not outlive it.
//
// Word 0 of the header holds the bank length in words, not counting the
// length word itself. Word 1 holds tag(16) | pad(2) | type(6) | num(8),
// high bits to low.
type Bank struct {
	buf   []byte
	order binary.ByteOrder

	Offset int    // absolute byte offset of the bank header
	Length uint32 // length in words, exclusive of the length word
	Tag    uint16
	Pad    uint8
	Type   DataType
	Num    uint8

	children []*Bank
	childErr error
	parsed   bool
}

// ParseBank parses a bank header from buf at the given byte offset.
// A header whose declared extent runs past the end of buf yields
// ErrTruncated.
func ParseBank(buf []byte, offset int, order binary.ByteOrder) (*Bank, error) {
	if offset < 0 || offset+8 > len(buf) {
		return nil, xerrors.Errorf(
			"evio: could not read bank header at offset 0x%x: %w",
			offset, ErrTruncated,
		)
	}

	b := &Bank{
		buf:    buf,
		order:  order,
		Offset: offset,
		Length: order.Uint32(buf[offset : offset+4]),
	}

	info := order.Uint32(buf[offset+4 : offset+8])
	b.Tag = uint16(info >> 16)
	b.Pad = uint8((info >> 14) & 0x3)
	b.Type = DataType((info >> 8) & 0x3F)
	b.Num = uint8(info & 0xFF)

	if b.End() > len(buf) {
		return nil, xerrors.Errorf(
			"evio: bank at offset 0x%x declares %d bytes but only %d remain: %w",
			offset, b.Size(), len(buf)-offset, ErrTruncated,
		)
	}

	return b, nil
}

// Size returns the total extent of the bank in bytes, header included.
func (b *Bank) Size() int { return (int(b.Length) + 1) * 4 }

// End returns the absolute byte offset one past the bank.
func (b *Bank) End() int { return b.Offset + b.Size() }

// DataOffset returns the absolute byte offset of the bank payload.
func (b *Bank) DataOffset() int { return b.Offset + 8 }

// DataLength returns the payload length in bytes, pad included.
func (b *Bank) DataLength() int { return b.Size() - 8 }

// IsContainer reports whether the bank holds child banks.
func (b *Bank) IsContainer() bool { return b.Type.IsContainer() }

// TagClass returns the semantic class of tags with high byte 0xFF
// ("RocRawDataRecord", "RocTimeSliceBank", "PhysicsEvent"), or "".
func (b *Bank) TagClass() string {
	if b.Tag&0xFF00 != 0xFF00 {
		return ""
	}
	sub := b.Tag & 0x00FF
	switch {
	case sub == 0x30:
		return "RocTimeSliceBank"
	case sub == 0x31:
		return "PhysicsEvent"
	case sub&0x10 == 0x10:
		return "RocRawDataRecord"
	}
	return ""
}

// Children parses the child banks of a container bank. Children are
// parsed once and cached for the lifetime of the bank.
//
// The children of a well-formed container tile its payload exactly. If a
// child's declared extent would run past the parent boundary, parsing
// stops there and Children returns the banks parsed so far together with
// an ErrTruncated diagnostic. Leaf banks have no children.
func (b *Bank) Children() ([]*Bank, error) {
	if !b.IsContainer() {
		return nil, nil
	}
	if b.parsed {
		return b.children, b.childErr
	}
	b.parsed = true

	end := b.End()
	for off := b.DataOffset(); off < end; {
		child, err := ParseBank(b.buf[:end], off, b.order)
		if err != nil {
			b.childErr = xerrors.Errorf(
				"evio: could not parse child %d of bank at offset 0x%x: %w",
				len(b.children), b.Offset, err,
			)
			break
		}
		b.children = append(b.children, child)
		off = child.End()
	}

	return b.children, b.childErr
}

// DataBytes returns the raw payload bytes, with pad bytes trimmed for
// 8- and 16-bit element types.
func (b *Bank) DataBytes() []byte {
	data := b.buf[b.DataOffset():b.End()]
	switch b.Type {
	case CharStar8, Int8, Uint8, Int16, Uint16:
		if n := int(b.Pad); n <= len(data) {
			data = data[:len(data)-n]
		}
	}
	return data
}

// Text decodes the payload as a null-terminated ASCII string.
func (b *Bank) Text() (string, error) {
	if b.Type != CharStar8 {
		return "", xerrors.Errorf(
			"evio: bank at offset 0x%x holds %v data, not a string",
			b.Offset, b.Type,
		)
	}
	s := string(b.DataBytes())
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return s, nil
}

// Uint32s returns the payload as a 32-bit word array. The payload of
// type Unknown32 banks is exposed as words too.
func (b *Bank) Uint32s() ([]uint32, error) {
	switch b.Type {
	case Unknown32, Uint32, Int32:
	default:
		return nil, xerrors.Errorf(
			"evio: bank at offset 0x%x holds %v data, not 32-bit words",
			b.Offset, b.Type,
		)
	}
	return b.words(), nil
}

// Uint16s reinterprets the raw payload as 16-bit unsigned values,
// regardless of the declared type.
func (b *Bank) Uint16s() []uint16 {
	data := b.DataBytes()
	out := make([]uint16, len(data)/2)
	for i := range out {
		out[i] = b.order.Uint16(data[2*i : 2*i+2])
	}
	return out
}

func (b *Bank) words() []uint32 {
	data := b.DataBytes()
	out := make([]uint32, len(data)/4)
	for i := range out {
		out[i] = b.order.Uint32(data[4*i : 4*i+4])
	}
	return out
}

// Data returns the payload decoded per the bank's data type: a typed
// slice for the ten numeric layouts, a string for char data, and the raw
// payload bytes for types with no native numeric mapping (composite data
// and containers).
func (b *Bank) Data() (interface{}, error) {
	data := b.DataBytes()
	switch b.Type {
	case Unknown32, Uint32:
		return b.words(), nil
	case Int32:
		out := make([]int32, len(data)/4)
		for i := range out {
			out[i] = int32(b.order.Uint32(data[4*i : 4*i+4]))
		}
		return out, nil
	case Float32:
		out := make([]float32, len(data)/4)
		for i := range out {
			out[i] = math.Float32frombits(b.order.Uint32(data[4*i : 4*i+4]))
		}
		return out, nil
	case Float64:
		out := make([]float64, len(data)/8)
		for i := range out {
			out[i] = math.Float64frombits(b.order.Uint64(data[8*i : 8*i+8]))
		}
		return out, nil
	case Int64:
		out := make([]int64, len(data)/8)
		for i := range out {
			out[i] = int64(b.order.Uint64(data[8*i : 8*i+8]))
		}
		return out, nil
	case Uint64:
		out := make([]uint64, len(data)/8)
		for i := range out {
			out[i] = b.order.Uint64(data[8*i : 8*i+8])
		}
		return out, nil
	case Int16:
		out := make([]int16, len(data)/2)
		for i := range out {
			out[i] = int16(b.order.Uint16(data[2*i : 2*i+2]))
		}
		return out, nil
	case Uint16:
		return b.Uint16s(), nil
	case Int8:
		out := make([]int8, len(data))
		for i := range out {
			out[i] = int8(data[i])
		}
		return out, nil
	case Uint8:
		out := make([]uint8, len(data))
		copy(out, data)
		return out, nil
	case CharStar8:
		return b.Text()
	}
	return data, nil
}
