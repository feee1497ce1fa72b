package format

import (
	"sort"
	"strconv"
	"strings"

	"github.com/eduproj/educpu/cpu"
)

// Kind names a detected object file format.
type Kind int

const (
	KindBinary Kind = iota
	KindIntelHex
	KindSRecord
)

// DetectFormat chooses a format by file extension first, falling back to
// sniffing the leading byte of the content, per spec.md 4.4.
func DetectFormat(path string, data []byte) Kind {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".hex"):
		return KindIntelHex
	case strings.HasSuffix(lower, ".srec"):
		return KindSRecord
	case strings.HasSuffix(lower, ".bin"):
		return KindBinary
	}

	trimmed := strings.TrimSpace(string(data))
	switch {
	case strings.HasPrefix(trimmed, ":"):
		return KindIntelHex
	case strings.HasPrefix(trimmed, "S"):
		return KindSRecord
	}
	return KindBinary
}

// ParseBinary treats data as a raw memory image starting at address 0,
// truncated to the 256-byte address space.
func ParseBinary(data []byte) cpu.AddressMap {
	out := cpu.AddressMap{}
	for i, b := range data {
		if i >= 256 {
			break
		}
		out[uint8(i)] = b
	}
	return out
}

// ParseIntelHex parses Intel HEX text into an address map, validating
// each record's two's-complement checksum, per spec.md 4.3/4.4.
func ParseIntelHex(path, text string) (cpu.AddressMap, error) {
	out := cpu.AddressMap{}
	for lineNo, line := range strings.Split(text, "\n") {
		lineNo++
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, ":") {
			return nil, &ObjectFormatError{Path: path, LineNo: lineNo, Err: ErrMissingStartCode}
		}
		raw, err := decodeHexString(line[1:])
		if err != nil || len(raw) < 5 {
			return nil, &ObjectFormatError{Path: path, LineNo: lineNo, Err: ErrRecordTooShort}
		}

		byteCount := raw[0]
		addr := int(raw[1])<<8 | int(raw[2])
		recType := raw[3]
		data := raw[4 : len(raw)-1]
		checksum := raw[len(raw)-1]

		if intelChecksum(raw[:len(raw)-1]) != checksum {
			return nil, &ObjectFormatError{Path: path, LineNo: lineNo, Err: ErrChecksumMismatch}
		}
		if len(data) != int(byteCount) {
			return nil, &ObjectFormatError{Path: path, LineNo: lineNo, Err: ErrByteCountMismatch}
		}

		switch recType {
		case 0x01: // EOF
			return out, nil
		case 0x00: // Data
			for i, b := range data {
				a := addr + i
				if a < 256 {
					out[uint8(a)] = b
				}
			}
		}
	}
	return out, nil
}

// ParseSRecord parses Motorola S-record text into an address map,
// validating each record's one's-complement checksum, per spec.md
// 4.3/4.4.
func ParseSRecord(path, text string) (cpu.AddressMap, error) {
	out := cpu.AddressMap{}
	for lineNo, line := range strings.Split(text, "\n") {
		lineNo++
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "S") || len(line) < 2 {
			return nil, &ObjectFormatError{Path: path, LineNo: lineNo, Err: ErrMissingStartCode}
		}
		recType := line[1]
		raw, err := decodeHexString(line[2:])
		if err != nil || len(raw) < 1 {
			return nil, &ObjectFormatError{Path: path, LineNo: lineNo, Err: ErrRecordTooShort}
		}
		byteCount := raw[0]
		if len(raw) != int(byteCount)+1 {
			return nil, &ObjectFormatError{Path: path, LineNo: lineNo, Err: ErrByteCountMismatch}
		}
		if srecChecksum(raw[:len(raw)-1]) != raw[len(raw)-1] {
			return nil, &ObjectFormatError{Path: path, LineNo: lineNo, Err: ErrChecksumMismatch}
		}

		switch recType {
		case '0': // header
			continue
		case '1': // data, 16-bit address
			addr := int(raw[1])<<8 | int(raw[2])
			data := raw[3 : len(raw)-1]
			for i, b := range data {
				a := addr + i
				if a < 256 {
					out[uint8(a)] = b
				}
			}
		case '9': // end
			return out, nil
		default:
			return nil, &ObjectFormatError{Path: path, LineNo: lineNo, Err: ErrUnknownRecordType}
		}
	}
	return out, nil
}

func decodeHexString(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, ErrRecordTooShort
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		v, err := strconv.ParseUint(s[2*i:2*i+2], 16, 8)
		if err != nil {
			return nil, err
		}
		out[i] = byte(v)
	}
	return out, nil
}

// LoadFile detects and parses a single object file.
func LoadFile(path string, data []byte) (cpu.AddressMap, error) {
	switch DetectFormat(path, data) {
	case KindIntelHex:
		return ParseIntelHex(path, string(data))
	case KindSRecord:
		return ParseSRecord(path, string(data))
	default:
		return ParseBinary(data), nil
	}
}

// NamedFile is one input file to LoadFiles, identified by path for
// overlap-error reporting.
type NamedFile struct {
	Path string
	Data []byte
}

const maxOverlapSample = 8

// LoadFiles loads and merges one or more object files, per spec.md 4.4:
// raw binary is single-file only, and addresses written by more than one
// file are reported as an OverlapError.
func LoadFiles(files []NamedFile) (cpu.AddressMap, error) {
	if len(files) > 1 {
		for _, nf := range files {
			if DetectFormat(nf.Path, nf.Data) == KindBinary {
				return nil, ErrMultipleRawFiles
			}
		}
	}

	perFile := make([]cpu.AddressMap, len(files))
	for i, nf := range files {
		m, err := LoadFile(nf.Path, nf.Data)
		if err != nil {
			return nil, err
		}
		perFile[i] = m
	}

	owners := map[uint8][]string{}
	merged := cpu.AddressMap{}
	for i, m := range perFile {
		for addr, val := range m {
			owners[addr] = append(owners[addr], files[i].Path)
			merged[addr] = val
		}
	}

	if err := checkOverlaps(owners); err != nil {
		return nil, err
	}
	return merged, nil
}

// checkOverlaps groups addresses written by more than one file by the
// exact set of conflicting files, returning the first such group as an
// OverlapError capped at maxOverlapSample addresses.
func checkOverlaps(owners map[uint8][]string) error {
	type group struct {
		files []string
		addrs []uint8
	}
	groups := map[string]*group{}
	var order []string

	var conflicted []uint8
	for addr, files := range owners {
		if len(files) > 1 {
			conflicted = append(conflicted, addr)
		}
	}
	if len(conflicted) == 0 {
		return nil
	}
	sort.Slice(conflicted, func(i, j int) bool { return conflicted[i] < conflicted[j] })

	for _, addr := range conflicted {
		files := append([]string(nil), owners[addr]...)
		sort.Strings(files)
		key := strings.Join(files, "\x00")
		g, ok := groups[key]
		if !ok {
			g = &group{files: files}
			groups[key] = g
			order = append(order, key)
		}
		g.addrs = append(g.addrs, addr)
	}

	key := order[0]
	g := groups[key]
	total := len(g.addrs)
	sample := g.addrs
	if total > maxOverlapSample {
		sample = g.addrs[:maxOverlapSample]
	}
	return &OverlapError{Files: g.files, Addresses: sample, Total: total}
}
