package cpu

import "sort"

// SymbolTable maps identifiers to their resolved 8-bit value, populated
// by labels and .EQU directives (spec.md 3).
type SymbolTable map[string]uint8

// AddressMap is a sparse address(0..255) -> byte image, the common
// currency between the assembler, the object writers/loaders, and the
// simulator (spec.md 3, 4.3, 4.4).
type AddressMap map[uint8]uint8

// Clone returns an independent copy of the map, used at the assembler /
// loader / simulator boundaries to preserve the value semantics required
// by spec.md 5.
func (m AddressMap) Clone() AddressMap {
	out := make(AddressMap, len(m))
	for a, b := range m {
		out[a] = b
	}
	return out
}

// Addresses returns the written addresses in ascending order, per the
// Design Note in spec.md 9 ("writers iterate in ascending address
// order").
func (m AddressMap) Addresses() []uint8 {
	out := make([]uint8, 0, len(m))
	for a := range m {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ListingRecord is one line of the advisory assembly listing (spec.md 3,
// 6): the address the line starts at (absent for lines that emit
// nothing), the bytes it emitted, and the original source text.
type ListingRecord struct {
	Address     uint16 // 0..255 valid, negative sentinel via HasAddress
	HasAddress  bool
	Bytes       []byte
	Source      string
}

// Program is the output of a successful two-pass assembly: the
// address-indexed image and its listing (spec.md 3).
type Program struct {
	Image   AddressMap
	Listing []ListingRecord
	Symbols SymbolTable
}
