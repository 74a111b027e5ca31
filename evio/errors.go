// Copyright 2025 The go-daq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package evio

import "errors"

var (
	// ErrBadMagic denotes a file or record header whose magic number
	// does not match under either byte order.
	ErrBadMagic = errors.New("evio: invalid magic number")

	// ErrUnsupportedVersion denotes an EVIO version other than 6.
	ErrUnsupportedVersion = errors.New("evio: unsupported version")

	// ErrBadHeaderLength denotes a header length below the 14-word
	// minimum under both byte orders.
	ErrBadHeaderLength = errors.New("evio: invalid header length")

	// ErrTruncated denotes a structure whose declared extent runs past
	// the end of its enclosing region. Functions returning ErrTruncated
	// also return whatever was parsed before the boundary.
	ErrTruncated = errors.New("evio: truncated structure")

	// ErrOutOfRange denotes a record or event index past the end of the
	// discovered range.
	ErrOutOfRange = errors.New("evio: index out of range")

	// ErrUnsupportedCompression denotes a record with a nonzero
	// compression type. Compression metadata is parsed but record
	// payloads are never decompressed.
	ErrUnsupportedCompression = errors.New("evio: compressed records not supported")
)
