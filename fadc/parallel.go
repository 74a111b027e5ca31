// Copyright 2025 The go-daq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fadc

import (
	"log"

	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/go-daq/coda/roc"
)

// DecodeBanks decodes the payload banks of one time slice concurrently,
// one Decoder per bank. Decoders are never shared between goroutines;
// the i-th returned decoder holds the accumulated state of the i-th
// payload bank.
func DecodeBanks(banks []*roc.PayloadBank, msg *log.Logger) ([]*Decoder, error) {
	decs := make([]*Decoder, len(banks))

	var grp errgroup.Group
	for i := range banks {
		i, pb := i, banks[i]
		grp.Go(func() error {
			words, err := pb.Words()
			if err != nil {
				return xerrors.Errorf("fadc: could not read payload %d: %w", i, err)
			}
			dec := New(msg)
			for _, w := range words {
				dec.Decode(w)
			}
			decs[i] = dec
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return decs, nil
}
