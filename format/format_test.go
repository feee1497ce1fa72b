package format

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/eduproj/educpu/cpu"
)

func sampleImage() cpu.AddressMap {
	return cpu.AddressMap{0x00: 0x60, 0x01: 0x10, 0x10: 0xA8, 0xFF: 0x00}
}

func TestBinaryRoundTrip(t *testing.T) {
	assert := assert.New(t)

	image := sampleImage()
	data := WriteBinary(image)
	got := ParseBinary(data)

	// Raw binary can't represent holes: every address up to the max
	// written one is present, filled with 0 where nothing was written.
	assert.Equal(byte(0x60), got[0x00])
	assert.Equal(byte(0x10), got[0x01])
	assert.Equal(byte(0xA8), got[0x10])
	assert.Equal(byte(0x00), got[0xFE])
}

func TestIntelHexRoundTrip(t *testing.T) {
	assert := assert.New(t)

	image := sampleImage()
	text := WriteIntelHex(image)

	got, err := ParseIntelHex("test.hex", text)
	assert.NoError(err)
	if diff := cmp.Diff(image, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSRecordRoundTrip(t *testing.T) {
	assert := assert.New(t)

	image := sampleImage()
	text := WriteSRecord(image)

	got, err := ParseSRecord("test.srec", text)
	assert.NoError(err)
	if diff := cmp.Diff(image, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestIntelHexChecksumMismatch(t *testing.T) {
	assert := assert.New(t)

	_, err := ParseIntelHex("bad.hex", ":010000000100\n:00000001FF\n")
	assert.Error(err)
	var oerr *ObjectFormatError
	assert.ErrorAs(err, &oerr)
}

func TestDetectFormat(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(KindIntelHex, DetectFormat("a.hex", nil))
	assert.Equal(KindSRecord, DetectFormat("a.srec", nil))
	assert.Equal(KindBinary, DetectFormat("a.bin", nil))
	assert.Equal(KindIntelHex, DetectFormat("a.obj", []byte(":0000")))
	assert.Equal(KindSRecord, DetectFormat("a.obj", []byte("S00600")))
	assert.Equal(KindBinary, DetectFormat("a.obj", []byte{0x00, 0x01}))
}

func TestLoadFilesDetectsOverlap(t *testing.T) {
	assert := assert.New(t)

	a := NamedFile{Path: "a.hex", Data: []byte(WriteIntelHex(cpu.AddressMap{0x00: 0x11}))}
	b := NamedFile{Path: "b.hex", Data: []byte(WriteIntelHex(cpu.AddressMap{0x00: 0x22}))}

	_, err := LoadFiles([]NamedFile{a, b})
	assert.Error(err)
	var operr *OverlapError
	assert.ErrorAs(err, &operr)
	assert.Equal([]uint8{0x00}, operr.Addresses)
}

func TestLoadFilesRejectsMultipleRawBinary(t *testing.T) {
	assert := assert.New(t)

	a := NamedFile{Path: "a.bin", Data: []byte{0x01}}
	b := NamedFile{Path: "b.bin", Data: []byte{0x02}}

	_, err := LoadFiles([]NamedFile{a, b})
	assert.ErrorIs(err, ErrMultipleRawFiles)
}

func TestLoadFilesMergesNonOverlapping(t *testing.T) {
	assert := assert.New(t)

	a := NamedFile{Path: "a.hex", Data: []byte(WriteIntelHex(cpu.AddressMap{0x00: 0x11}))}
	b := NamedFile{Path: "b.hex", Data: []byte(WriteIntelHex(cpu.AddressMap{0x01: 0x22}))}

	merged, err := LoadFiles([]NamedFile{a, b})
	assert.NoError(err)
	assert.Equal(byte(0x11), merged[0x00])
	assert.Equal(byte(0x22), merged[0x01])
}
