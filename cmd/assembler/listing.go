// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/eduproj/educpu/cpu"
)

// writeListing renders prog's listing in the fixed-width format used by
// spec.md 4.3: "AAAA  XX XX ...  source", with the address and byte
// columns blank for lines that emit nothing.
func writeListing(w io.Writer, prog *cpu.Program) error {
	bw := bufio.NewWriter(w)
	for _, rec := range prog.Listing {
		raw := strings.TrimRight(rec.Source, "\r\n")
		switch {
		case rec.HasAddress && len(rec.Bytes) > 0:
			var hex strings.Builder
			for i, b := range rec.Bytes {
				if i > 0 {
					hex.WriteByte(' ')
				}
				fmt.Fprintf(&hex, "%02X", b)
			}
			fmt.Fprintf(bw, "%04X  %-12s  %s\n", rec.Address, hex.String(), raw)
		case rec.HasAddress:
			fmt.Fprintf(bw, "%04X                %s\n", rec.Address, raw)
		default:
			fmt.Fprintf(bw, "                    %s\n", raw)
		}
	}
	return bw.Flush()
}
