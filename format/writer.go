package format

import (
	"fmt"
	"strings"

	"github.com/eduproj/educpu/cpu"
)

const srecName = "EDUCPU"

// WriteBinary lays out image as a raw byte slice sized to its highest
// written address, per spec.md 4.3. An empty image produces an empty
// slice.
func WriteBinary(image cpu.AddressMap) []byte {
	addrs := image.Addresses()
	if len(addrs) == 0 {
		return nil
	}
	maxAddr := addrs[len(addrs)-1]
	buf := make([]byte, int(maxAddr)+1)
	for _, a := range addrs {
		buf[a] = image[a]
	}
	return buf
}

// WriteIntelHex renders image as Intel HEX text: type-00 data records of
// up to 16 contiguous bytes each, followed by a type-01 EOF record, per
// spec.md 4.3.
func WriteIntelHex(image cpu.AddressMap) string {
	addrs := image.Addresses()
	if len(addrs) == 0 {
		return ":00000001FF\n"
	}

	var b strings.Builder
	for i := 0; i < len(addrs); {
		base := addrs[i]
		var data []byte
		for i < len(addrs) && int(addrs[i]) == int(base)+len(data) && len(data) < 16 {
			data = append(data, image[addrs[i]])
			i++
		}
		record := make([]byte, 0, 4+len(data))
		record = append(record, byte(len(data)), byte(uint16(base)>>8), byte(base), 0x00)
		record = append(record, data...)
		checksum := intelChecksum(record)
		fmt.Fprintf(&b, ":%s%02X\n", hexBytes(record), checksum)
	}
	b.WriteString(":00000001FF\n")
	return b.String()
}

// WriteSRecord renders image as Motorola S-record text: an S0 header, S1
// data records of up to 16 contiguous bytes with a 16-bit address, and
// an S9 end record, per spec.md 4.3.
func WriteSRecord(image cpu.AddressMap) string {
	var b strings.Builder

	header := []byte(srecName)
	s0 := make([]byte, 0, 3+len(header))
	s0 = append(s0, byte(2+1+len(header)), 0x00, 0x00)
	s0 = append(s0, header...)
	fmt.Fprintf(&b, "S0%s%02X\n", hexBytes(s0), srecChecksum(s0))

	addrs := image.Addresses()
	for i := 0; i < len(addrs); {
		base := addrs[i]
		var data []byte
		for i < len(addrs) && int(addrs[i]) == int(base)+len(data) && len(data) < 16 {
			data = append(data, image[addrs[i]])
			i++
		}
		rec := make([]byte, 0, 3+len(data))
		rec = append(rec, byte(2+len(data)+1), byte(uint16(base)>>8), byte(base))
		rec = append(rec, data...)
		fmt.Fprintf(&b, "S1%s%02X\n", hexBytes(rec), srecChecksum(rec))
	}

	s9 := []byte{0x03, 0x00, 0x00}
	fmt.Fprintf(&b, "S9%s%02X\n", hexBytes(s9), srecChecksum(s9))

	return b.String()
}

func hexBytes(b []byte) string {
	var s strings.Builder
	for _, v := range b {
		fmt.Fprintf(&s, "%02X", v)
	}
	return s.String()
}

// intelChecksum is the two's-complement checksum: (~sum + 1) & 0xFF.
func intelChecksum(record []byte) byte {
	var sum byte
	for _, v := range record {
		sum += v
	}
	return byte(-int(sum)) & 0xFF
}

// srecChecksum is the one's-complement checksum: (~sum) & 0xFF.
func srecChecksum(record []byte) byte {
	var sum byte
	for _, v := range record {
		sum += v
	}
	return ^sum
}
