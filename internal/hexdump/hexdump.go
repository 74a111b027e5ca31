// Copyright 2025 The go-daq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hexdump formats byte regions as word-aligned hex dumps for
// error reports and the dump tools.
package hexdump // import "github.com/go-daq/coda/internal/hexdump"

import (
	"fmt"
	"strings"
)

// Dump formats data as rows of four 32-bit words with an ASCII column.
func Dump(data []byte, title string) string {
	var sb strings.Builder
	if title != "" {
		fmt.Fprintf(&sb, "--- %s ---\n", title)
	}
	for row := 0; row*16 < len(data); row++ {
		chunk := data[row*16:]
		if len(chunk) > 16 {
			chunk = chunk[:16]
		}
		fmt.Fprintf(&sb, "%08x  ", row*16)
		for i := 0; i < 16; i += 4 {
			for j := 0; j < 4; j++ {
				if i+j < len(chunk) {
					fmt.Fprintf(&sb, "%02x", chunk[i+j])
				} else {
					sb.WriteString("  ")
				}
			}
			sb.WriteByte(' ')
		}
		sb.WriteByte(' ')
		for _, c := range chunk {
			if c < 0x20 || c > 0x7e {
				c = '.'
			}
			sb.WriteByte(c)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
