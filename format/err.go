// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package format implements the EDU-CPU object file formats: raw
// binary, Intel HEX, and Motorola S-record, as writers over a
// cpu.AddressMap and loaders that recover one, with per-address
// provenance tracking across multi-file loads.
package format

import (
	"errors"

	"github.com/eduproj/educpu/translate"
)

var f = translate.From

var (
	ErrMissingStartCode  = errors.New(f("missing record start code"))
	ErrRecordTooShort    = errors.New(f("record too short"))
	ErrChecksumMismatch  = errors.New(f("checksum mismatch"))
	ErrByteCountMismatch = errors.New(f("byte count mismatch"))
	ErrUnknownRecordType = errors.New(f("unknown record type"))
	ErrMultipleRawFiles  = errors.New(f("raw binary format only supports a single input file"))
)

// ObjectFormatError attaches the offending file and line number to a
// format-level parse error.
type ObjectFormatError struct {
	Path   string
	LineNo int
	Err    error
}

func (e *ObjectFormatError) Error() string {
	return f("%v: line %d: %v", e.Path, e.LineNo, e.Err)
}

func (e *ObjectFormatError) Unwrap() error {
	return e.Err
}

// OverlapError reports that two or more input files wrote to the same
// addresses, grouped by the set of conflicting files, per spec.md 4.4.
type OverlapError struct {
	Files     []string
	Addresses []uint8
	Total     int
}

func (e *OverlapError) Error() string {
	names := ""
	for i, name := range e.Files {
		if i > 0 {
			names += " and "
		}
		names += name
	}
	addrs := ""
	for i, a := range e.Addresses {
		if i > 0 {
			addrs += ", "
		}
		addrs += f("0x%02X", a)
	}
	if e.Total <= len(e.Addresses) {
		return f("overlap between %v at %v", names, addrs)
	}
	return f("overlap between %v at %v, ... (%d addresses total)", names, addrs, e.Total)
}
