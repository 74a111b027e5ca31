// Copyright 2025 The go-daq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package roc interprets the streaming-mode event shape produced by
// Read-Out Controllers: a ROC time slice bank (tag 0xFF30) holding a
// stream info bank followed by one payload bank per digitizer module.
//
// The interpretation is a reinterpretation of the generic bank tree, not
// a subtype of it: parsing either matches the expected tag exactly or
// fails with ErrNotTimeSlice.
package roc // import "github.com/go-daq/coda/roc"

import (
	"errors"

	"golang.org/x/xerrors"

	"github.com/go-daq/coda/evio"
)

// TimeSliceTag is the bank tag of ROC time slice banks and of the
// stream info bank they carry.
const TimeSliceTag uint16 = 0xFF30

// aggTag is the tag byte of the aggregation segment inside a stream
// info bank.
const aggTag = 0x41

var (
	// ErrNotTimeSlice denotes a bank whose tag is not TimeSliceTag.
	ErrNotTimeSlice = errors.New("roc: not a time slice bank")

	// ErrMalformed denotes a time slice bank whose inner structure does
	// not follow the stream info layout.
	ErrMalformed = errors.New("roc: malformed time slice bank")
)

// PayloadInfo describes one payload stream: which module fed it and over
// which fiber lane and VTP port it arrived.
type PayloadInfo struct {
	ModuleID uint8 // module id, bits 11-8
	Bond     bool  // bond flag, bit 7
	LaneID   uint8 // lane id, bits 6-5
	PortNum  uint8 // port number, bits 4-0
}

// StreamInfoBank carries the time slice metadata: the frame timestamp,
// the frame number and one descriptor per payload bank.
type StreamInfoBank struct {
	Bank *evio.Bank

	Timestamp   uint64 // frame timestamp, ns
	FrameNumber uint32
	Payloads    []PayloadInfo
}

// PayloadBank is one digitizer module's raw data within a time slice.
type PayloadBank struct {
	Bank *evio.Bank
	Info PayloadInfo

	samples []uint16

	// Channels and SamplesPerChannel describe the sample layout when
	// the total sample count divides evenly over the module channels;
	// both are zero otherwise.
	Channels          int
	SamplesPerChannel int
}

// TimeSliceBank is the decoded streaming-mode event shape.
type TimeSliceBank struct {
	Bank *evio.Bank

	RocID    uint8
	Stream   *StreamInfoBank
	Payloads []*PayloadBank
}

// moduleChannels is the channel count of the payload digitizer modules.
const moduleChannels = 16

// FromEvent interprets the event's root bank as a ROC time slice bank.
func FromEvent(ev *evio.Event) (*TimeSliceBank, error) {
	root, err := ev.RootBank()
	if err != nil {
		return nil, xerrors.Errorf("roc: could not parse event root bank: %w", err)
	}
	return Parse(root)
}

// Parse interprets b as a ROC time slice bank.
func Parse(b *evio.Bank) (*TimeSliceBank, error) {
	if b.Tag != TimeSliceTag {
		return nil, xerrors.Errorf(
			"roc: bank at offset 0x%x has tag 0x%04x (want 0x%04x): %w",
			b.Offset, b.Tag, TimeSliceTag, ErrNotTimeSlice,
		)
	}

	children, err := b.Children()
	if err != nil {
		return nil, xerrors.Errorf(
			"roc: could not parse time slice children at offset 0x%x: %w",
			b.Offset, err,
		)
	}
	if len(children) == 0 {
		return nil, xerrors.Errorf(
			"roc: time slice bank at offset 0x%x has no stream info bank: %w",
			b.Offset, ErrMalformed,
		)
	}

	sib, err := parseStreamInfo(children[0])
	if err != nil {
		return nil, err
	}

	tsb := &TimeSliceBank{
		Bank:   b,
		RocID:  b.Num,
		Stream: sib,
	}

	for i, child := range children[1:] {
		pb := &PayloadBank{Bank: child}
		if i < len(sib.Payloads) {
			pb.Info = sib.Payloads[i]
		}
		pb.samples = child.Uint16s()
		if n := len(pb.samples); n > 0 && n%moduleChannels == 0 {
			pb.Channels = moduleChannels
			pb.SamplesPerChannel = n / moduleChannels
		}
		tsb.Payloads = append(tsb.Payloads, pb)
	}

	return tsb, nil
}

// parseStreamInfo decodes a stream info bank: a 64-bit timestamp, the
// frame number, then an aggregation segment holding the payload count
// and one descriptor word per payload.
func parseStreamInfo(b *evio.Bank) (*StreamInfoBank, error) {
	if b.Tag != TimeSliceTag {
		return nil, xerrors.Errorf(
			"roc: stream info bank at offset 0x%x has tag 0x%04x (want 0x%04x): %w",
			b.Offset, b.Tag, TimeSliceTag, ErrNotTimeSlice,
		)
	}

	words, err := b.Uint32s()
	if err != nil {
		return nil, xerrors.Errorf(
			"roc: could not read stream info words at offset 0x%x: %w",
			b.Offset, err,
		)
	}
	if len(words) < 4 {
		return nil, xerrors.Errorf(
			"roc: stream info bank at offset 0x%x holds %d words (want >=4): %w",
			b.Offset, len(words), ErrMalformed,
		)
	}

	sib := &StreamInfoBank{
		Bank:        b,
		Timestamp:   uint64(words[0]) | uint64(words[1])<<32,
		FrameNumber: words[2],
	}

	seg := words[3]
	if seg>>24 != aggTag {
		return nil, xerrors.Errorf(
			"roc: aggregation segment at offset 0x%x has tag 0x%02x (want 0x%02x): %w",
			b.Offset, seg>>24, aggTag, ErrMalformed,
		)
	}
	count := int(seg & 0xFFFF)
	if 4+count > len(words) {
		return nil, xerrors.Errorf(
			"roc: aggregation segment at offset 0x%x declares %d payloads but %d words remain: %w",
			b.Offset, count, len(words)-4, ErrMalformed,
		)
	}

	for _, w := range words[4 : 4+count] {
		sib.Payloads = append(sib.Payloads, PayloadInfo{
			ModuleID: uint8((w >> 8) & 0xF),
			Bond:     (w>>7)&0x1 != 0,
			LaneID:   uint8((w >> 5) & 0x3),
			PortNum:  uint8(w & 0x1F),
		})
	}

	return sib, nil
}

// Words returns the payload as the digitizer's raw 32-bit word stream.
func (pb *PayloadBank) Words() ([]uint32, error) {
	words, err := pb.Bank.Uint32s()
	if err != nil {
		return nil, xerrors.Errorf(
			"roc: could not read payload words at offset 0x%x: %w",
			pb.Bank.Offset, err,
		)
	}
	return words, nil
}

// Samples returns the payload reinterpreted as 16-bit samples.
func (pb *PayloadBank) Samples() []uint16 { return pb.samples }

// Waveform returns the samples of one channel, assuming channel-major
// sample blocks.
func (pb *PayloadBank) Waveform(channel int) ([]uint16, error) {
	if pb.Channels == 0 {
		return nil, xerrors.Errorf(
			"roc: payload at offset 0x%x has no per-channel structure (%d samples): %w",
			pb.Bank.Offset, len(pb.samples), ErrMalformed,
		)
	}
	if channel < 0 || channel >= pb.Channels {
		return nil, xerrors.Errorf(
			"roc: channel %d out of range (0-%d)", channel, pb.Channels-1,
		)
	}
	n := pb.SamplesPerChannel
	return pb.samples[channel*n : (channel+1)*n], nil
}
