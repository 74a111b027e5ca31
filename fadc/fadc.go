// Copyright 2025 The go-daq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fadc decodes the triggered-mode word stream of FADC250 flash
// ADC modules.
//
// The stream is self-describing one word at a time: when bit 31 of a
// word is set, bits 30-27 select a new data type; when it is clear, the
// word continues the data of the last type-defining word. A Decoder
// carries that cross-word state and must therefore be used by a single
// goroutine, one payload bank per session.
package fadc // import "github.com/go-daq/coda/fadc"

import (
	"fmt"
	"io"
	"log"
)

// Word types, bits 30-27 of a type-defining word.
const (
	TypeBlockHeader   = 0
	TypeBlockTrailer  = 1
	TypeEventHeader   = 2
	TypeTriggerTime   = 3
	TypeWindowRaw     = 4
	TypeWindowSum     = 5
	TypePulseRaw      = 6
	TypePulseIntegral = 7
	TypePulseTime     = 8
	TypeStreamingRaw  = 9
	TypePulseAmp      = 10
	TypeInternalTrig  = 11
	TypeScaler        = 12
	TypeEventTrailer  = 13
	TypeDataNotValid  = 14
	TypeFiller        = 15
)

const (
	// NumChannels is the channel count of one FADC250 module.
	NumChannels = 16

	// NumScalers is the number of per-channel scaler registers in a
	// scaler block.
	NumScalers = 16

	// scalerWords is the mandatory word count of a scaler block:
	// 16 channel counters, a timestamp and a trigger count.
	scalerWords = 18

	// maxRaw bounds the per-channel raw sample buffers.
	maxRaw = 4096

	// maxHits is the per-channel hit count above which pulse data is
	// flagged as suspicious.
	maxHits = 10
)

// Special patterns seen in payload word streams.
const (
	EndMarker      uint32 = 0x0000C0F8
	PedestalMarker uint32 = 0x0600C088
)

// Data holds the fields of the most recently decoded word. Only the
// fields belonging to that word's type are meaningful.
type Data struct {
	NewType bool   // word had bit 31 set
	Type    uint32 // current data type

	SlotBlkHeader  uint32 // block header slot
	SlotBlkTrailer uint32 // block trailer slot
	SlotEvent      uint32 // event header slot
	NEvents        uint32 // events in block
	BlockNum       uint32
	NWords         uint32 // words in block, from the trailer

	EventNum1 uint32 // primary event number
	EventNum2 uint32 // secondary event number

	TimeNow uint32 // how many trigger-time words were seen (1 or 2)
	Time1   uint32 // trigger time, low 24 bits
	Time2   uint32 // trigger time, high 24 bits

	Chan   uint32
	Width  uint32 // window width, samples
	Valid1 bool
	ADC1   uint32
	Valid2 bool
	ADC2   uint32

	Overflow bool   // window sum overflow
	ADCSum   uint32 // 22-bit window sum

	PulseNum uint32
	ThresBin uint32 // threshold-crossing bin
	Quality  uint32
	Integral uint32 // 19-bit pulse integral
	Time     uint32 // 16-bit pulse time

	ChanA   uint32 // streaming group A channel
	SourceA uint32
	ChanB   uint32 // streaming group B channel
	SourceB uint32
	Group   uint32 // which group a streaming sample pair belongs to

	VMin  uint32 // 9-bit pulse minimum
	VPeak uint32 // 12-bit pulse peak

	TrigType  uint32 // internal trigger type
	TrigState uint32
	EventNum  uint32 // internal trigger event number
	ErrStatus uint32

	NScaler uint32 // declared scaler block word count
}

// Decoder reconstructs FADC250 quantities from a payload word stream.
//
// One Decoder is one decode session: its cross-word state must not be
// shared between payload banks or goroutines. Use Reset (or a new
// Decoder) before decoding an independent stream.
type Decoder struct {
	// Data holds the fields of the last decoded word.
	Data Data

	msg *log.Logger

	typeLast uint32 // persisted type for continuation words
	timeLast uint32 // trigger-time word counter
	iword    int

	seenWindowRaw bool
	seenPulseRaw  bool
	seenIntegral  bool
	seenTime      bool

	nsamples int
	nraw     int
	oldChan  int32

	// TrigNum is the event number of the last event header.
	TrigNum uint32

	// TrigTime is the 48-bit trigger time, (high << 24) | low.
	TrigTime uint64

	// NHits and NTDCHits count pulse-integral and pulse-time hits per
	// channel; window and pulse raw data count into NHits too.
	NHits    [NumChannels]int
	NTDCHits [NumChannels]int

	// Raw holds the per-channel raw sample buffers filled by window
	// raw data words.
	Raw [NumChannels][]uint32

	// Integral/Time hold the first hit per channel, Integral2/Time2
	// the second.
	Integral  [NumChannels]uint32
	Integral2 [NumChannels]uint32
	Time      [NumChannels]uint32
	Time2     [NumChannels]uint32

	// Scaler block registers.
	Scalers         [NumScalers]uint32
	ScalerTime      uint32
	ScalerTrigCount uint32
	ScalerUpdated   bool
	nscal           int

	// BlockTrailerFound reports whether a block trailer was decoded.
	BlockTrailerFound bool

	// Warnings records the protocol diagnostics raised so far. None of
	// them stops decoding.
	Warnings []string
}

// New returns a decode session. Diagnostics are written to msg; a nil
// msg discards them (they are still recorded in Warnings).
func New(msg *log.Logger) *Decoder {
	if msg == nil {
		msg = log.New(io.Discard, "", 0)
	}
	return &Decoder{
		msg:      msg,
		typeLast: TypeFiller,
		oldChan:  -1,
	}
}

// Reset reinitializes the session for an independent word stream.
func (dec *Decoder) Reset() {
	*dec = *New(dec.msg)
}

// Mode infers the module readout mode from the data types seen so far:
// 1 window raw, 2 pulse raw, 3 pulse integral+time, -1 undetermined.
func (dec *Decoder) Mode() int {
	switch {
	case dec.seenWindowRaw && !dec.seenPulseRaw && !dec.seenIntegral && !dec.seenTime:
		return 1
	case !dec.seenWindowRaw && dec.seenPulseRaw && !dec.seenIntegral && !dec.seenTime:
		return 2
	case !dec.seenWindowRaw && !dec.seenPulseRaw && dec.seenIntegral && dec.seenTime:
		return 3
	}
	return -1
}

func (dec *Decoder) warnf(format string, args ...interface{}) {
	w := fmt.Sprintf(format, args...)
	dec.Warnings = append(dec.Warnings, w)
	dec.msg.Printf("fadc: %s", w)
}

// Decode consumes the next word of the stream. Malformed words degrade
// to diagnostics, never to an error: the decoder must survive hardware
// glitches in multi-megabyte streams.
func (dec *Decoder) Decode(word uint32) {
	d := &dec.Data
	dec.iword++

	if word&0x80000000 != 0 {
		d.NewType = true
		d.Type = (word >> 27) & 0xF
	} else {
		d.NewType = false
		d.Type = dec.typeLast
	}

	switch d.Type {
	case TypeBlockHeader:
		if d.NewType {
			d.SlotBlkHeader = (word >> 22) & 0x1F
			d.BlockNum = (word >> 8) & 0x3FF
			d.NEvents = word & 0xFF
		}

	case TypeBlockTrailer:
		d.SlotBlkTrailer = (word >> 22) & 0x1F
		d.NWords = word & 0x3FFFFF
		dec.BlockTrailerFound = true

	case TypeEventHeader:
		if d.NewType {
			d.SlotEvent = (word >> 22) & 0x1F
			if d.SlotEvent != d.SlotBlkHeader {
				dec.warnf("event slot id %d differs from block slot id %d",
					d.SlotEvent, d.SlotBlkHeader)
			}
			d.EventNum1 = word & 0x3FFFFF
			dec.TrigNum = d.EventNum1
		} else {
			d.EventNum2 = word & 0x3FFFFF
		}

	case TypeTriggerTime:
		switch {
		case d.NewType:
			d.Time1 = word & 0xFFFFFF
			d.TimeNow = 1
			dec.timeLast = 1
		case dec.timeLast == 1:
			d.Time2 = word & 0xFFFFFF
			d.TimeNow = 2
			dec.TrigTime = uint64(d.Time2)<<24 | uint64(d.Time1)
			dec.timeLast = 2
		default:
			dec.warnf("trigger time is more than 2 words")
		}

	case TypeWindowRaw:
		if d.NewType {
			dec.seenWindowRaw = true
			d.Chan = (word >> 23) & 0xF
			d.Width = word & 0xFFF
			dec.nsamples = int(d.Width)

			if int32(d.Chan) != dec.oldChan {
				dec.nraw = 0
				dec.oldChan = int32(d.Chan)
			}
			if d.Chan < NumChannels {
				dec.NHits[d.Chan]++
			} else {
				dec.warnf("window raw channel %d >= %d", d.Chan, NumChannels)
			}
		} else {
			dec.decodeSamplePair(word)
			if d.Chan < NumChannels && dec.nraw+2 <= maxRaw {
				dec.Raw[d.Chan] = append(dec.Raw[d.Chan], d.ADC1, d.ADC2)
				dec.nraw += 2
			} else if dec.nraw+2 > maxRaw {
				dec.warnf("too many raw data words in channel %d", d.Chan)
			}
		}

	case TypeWindowSum:
		d.Chan = (word >> 23) & 0xF
		d.Overflow = word&0x400000 != 0
		d.ADCSum = word & 0x3FFFFF

	case TypePulseRaw:
		if d.NewType {
			dec.seenPulseRaw = true
			d.Chan = (word >> 23) & 0xF
			d.PulseNum = (word >> 21) & 0x3
			d.ThresBin = word & 0x3FF
			if d.Chan < NumChannels {
				dec.NHits[d.Chan]++
			} else {
				dec.warnf("pulse raw channel %d >= %d", d.Chan, NumChannels)
			}
		} else {
			dec.decodeSamplePair(word)
		}

	case TypePulseIntegral:
		dec.seenIntegral = true
		d.Chan = (word >> 23) & 0xF
		d.PulseNum = (word >> 21) & 0x3
		d.Quality = (word >> 19) & 0x3
		d.Integral = word & 0x7FFFF

		if d.Chan >= NumChannels {
			dec.warnf("pulse integral channel %d >= %d", d.Chan, NumChannels)
			break
		}
		dec.NHits[d.Chan]++
		switch n := dec.NHits[d.Chan]; {
		case n == 1:
			dec.Integral[d.Chan] = d.Integral
		case n == 2:
			dec.Integral2[d.Chan] = d.Integral
		case n > maxHits:
			dec.warnf("too many ADC hits (%d) in channel %d", n, d.Chan)
		}
		if dec.NHits[d.Chan] != dec.NTDCHits[d.Chan] {
			dec.warnf("TDC hits %d != ADC hits %d in channel %d",
				dec.NTDCHits[d.Chan], dec.NHits[d.Chan], d.Chan)
		}

	case TypePulseTime:
		dec.seenTime = true
		d.Chan = (word >> 23) & 0xF
		d.PulseNum = (word >> 21) & 0x3
		d.Quality = (word >> 19) & 0x3
		d.Time = word & 0xFFFF

		if d.Chan >= NumChannels {
			dec.warnf("pulse time channel %d >= %d", d.Chan, NumChannels)
			break
		}
		dec.NTDCHits[d.Chan]++
		switch n := dec.NTDCHits[d.Chan]; {
		case n == 1:
			dec.Time[d.Chan] = d.Time
		case n == 2:
			dec.Time2[d.Chan] = d.Time
		case n > maxHits:
			dec.warnf("too many TDC hits (%d) in channel %d", n, d.Chan)
		}

	case TypeStreamingRaw:
		if d.NewType {
			d.ChanA = (word >> 22) & 0xF
			d.SourceA = (word >> 26) & 0x1
			d.ChanB = (word >> 17) & 0xF
			d.SourceB = (word >> 21) & 0x1
		} else {
			dec.decodeSamplePair(word)
			d.Group = (word >> 30) & 0x1
		}

	case TypePulseAmp:
		d.Chan = (word >> 23) & 0xF
		d.PulseNum = (word >> 21) & 0x3
		d.VMin = (word >> 12) & 0x1FF
		d.VPeak = word & 0xFFF

	case TypeInternalTrig:
		d.TrigType = word & 0x7
		d.TrigState = (word >> 3) & 0x1
		d.EventNum = (word >> 4) & 0xFFF
		d.ErrStatus = (word >> 16) & 0x1

	case TypeScaler:
		if d.NewType {
			d.NScaler = word & 0x3F
			if d.NScaler != scalerWords {
				dec.warnf("scaler block declares %d words (want %d)",
					d.NScaler, scalerWords)
			}
			dec.nscal = 0
		} else {
			switch n := dec.nscal; {
			case n < NumScalers:
				dec.Scalers[n] = word
			case n == NumScalers:
				dec.ScalerTime = word
			case n == scalerWords-1:
				dec.ScalerTrigCount = word
				dec.ScalerUpdated = true
			default:
				dec.warnf("scaler block longer than %d words", scalerWords)
			}
			dec.nscal++
		}

	case TypeEventTrailer, TypeDataNotValid, TypeFiller:
		// Recognized, no payload fields.
	}

	dec.typeLast = d.Type
}

// decodeSamplePair unpacks the two 13-bit samples of a continuation
// word. A sample whose validity bit is off decodes as zero.
func (dec *Decoder) decodeSamplePair(word uint32) {
	d := &dec.Data
	d.Valid1 = word&0x20000000 == 0
	d.Valid2 = word&0x2000 == 0
	d.ADC1 = (word >> 16) & 0x1FFF
	d.ADC2 = word & 0x1FFF
	if !d.Valid1 {
		d.ADC1 = 0
	}
	if !d.Valid2 {
		d.ADC2 = 0
	}
}

// NWords returns the number of words decoded so far in this session.
func (dec *Decoder) NWords() int { return dec.iword }
