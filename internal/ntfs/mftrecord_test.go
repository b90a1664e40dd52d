package ntfs_test

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"

	"github.com/sscafiti/volex/internal/ntfs"
	"github.com/sscafiti/volex/internal/verrors"
)

const (
	recordBufSize  = 512
	valueOffsetTag = 0x18 // every attribute in these fixtures uses the same 24-byte header
)

func putU32At(b []byte, off int, v uint32) { binary.LittleEndian.PutUint32(b[off:], v) }
func putU64At(b []byte, off int, v uint64) { binary.LittleEndian.PutUint64(b[off:], v) }
func putU16At(b []byte, off int, v uint16) { binary.LittleEndian.PutUint16(b[off:], v) }

// writeAttrHeader writes the common attribute type/length/value-offset
// fields every parser in mftrecord.go reads, and returns the offset right
// after the attribute header where attribute-specific content starts.
func writeAttrHeader(raw []byte, attrOff int, attrType uint32, attrLen uint32) int {
	putU32At(raw, attrOff, attrType)
	putU32At(raw, attrOff+4, attrLen)
	raw[attrOff+0x14] = valueOffsetTag
	return attrOff + valueOffsetTag
}

func writeStandardInformation(raw []byte, attrOff int, created, modified uint64, flags uint32) int {
	base := writeAttrHeader(raw, attrOff, 0x10, 64)
	putU64At(raw, base+0, created)
	putU64At(raw, base+8, modified)
	putU32At(raw, base+32, flags)
	return attrOff + 64
}

func writeFileName(raw []byte, attrOff int, parentID uint64, name string) int {
	units := utf16.Encode([]rune(name))
	attrLen := uint32(valueOffsetTag + 66 + len(units)*2)
	// round up to keep following attributes 8-byte aligned, matching real MFT layout
	if attrLen%8 != 0 {
		attrLen += 8 - attrLen%8
	}
	base := writeAttrHeader(raw, attrOff, 0x30, attrLen)
	putU64At(raw, base+0, parentID&0x0000FFFFFFFFFFFF)
	raw[base+64] = byte(len(units))
	for i, u := range units {
		putU16At(raw, base+66+i*2, u)
	}
	return attrOff + int(attrLen)
}

func writeResidentData(raw []byte, attrOff int, content []byte) int {
	attrLen := uint32(valueOffsetTag + len(content))
	if attrLen%8 != 0 {
		attrLen += 8 - attrLen%8
	}
	base := writeAttrHeader(raw, attrOff, 0x80, attrLen)
	raw[attrOff+0x08] = 0 // resident
	putU32At(raw, attrOff+0x10, uint32(len(content)))
	putU16At(raw, attrOff+0x14, valueOffsetTag)
	copy(raw[base:], content)
	return attrOff + int(attrLen)
}

func writeNonResidentData(raw []byte, attrOff int, logicalSize uint64, runOffset int64, runCount uint64) int {
	const attrLen = 0x50
	writeAttrHeader(raw, attrOff, 0x80, attrLen)
	raw[attrOff+0x08] = 1 // non-resident
	putU64At(raw, attrOff+0x30, logicalSize)
	raw[attrOff+0x40] = 0x44 // length field 4 bytes, offset field 4 bytes
	putU32At(raw, attrOff+0x41, uint32(runCount))
	putU32At(raw, attrOff+0x45, uint32(runOffset))
	return attrOff + attrLen
}

func writeIndexRoot(raw []byte, attrOff int) int {
	const attrLen = 16
	putU32At(raw, attrOff, 0x90)
	putU32At(raw, attrOff+4, attrLen)
	return attrOff + attrLen
}

func writeEndMarker(raw []byte, attrOff int) {
	putU32At(raw, attrOff, 0xFFFFFFFF)
}

func baseRecord(fileID uint64, isDir bool) ([]byte, int) {
	raw := make([]byte, recordBufSize)
	copy(raw[0:4], "FILE")
	const firstAttrOff = 0x38
	putU16At(raw, 0x14, firstAttrOff)
	flags := byte(0x01)
	if isDir {
		flags |= 0x02
	}
	raw[0x16] = flags
	putU32At(raw, 0x2C, uint32(fileID))
	return raw, firstAttrOff
}

func TestParseRecordResidentFile(t *testing.T) {
	raw, off := baseRecord(5, false)
	off = writeStandardInformation(raw, off, 132000000000000000, 132000000000001000, 0x20)
	off = writeFileName(raw, off, 2, "hello.txt")
	off = writeResidentData(raw, off, []byte("hello world"))
	writeEndMarker(raw, off)

	rec, err := ntfs.ParseRecord(raw)
	require.NoError(t, err)
	require.EqualValues(t, 5, rec.FileID)
	require.EqualValues(t, 2, rec.ParentID)
	require.Equal(t, "hello.txt", rec.Name)
	require.False(t, rec.IsDir)
	require.Equal(t, ntfs.DataResident, rec.Data.Kind)
	require.Equal(t, "hello world", string(rec.Data.Resident))
	require.False(t, rec.Created.IsZero())
}

func TestParseRecordDirectoryViaIndexRoot(t *testing.T) {
	raw, off := baseRecord(6, false)
	off = writeStandardInformation(raw, off, 132000000000000000, 132000000000000000, 0x10)
	off = writeFileName(raw, off, 5, "subdir")
	off = writeIndexRoot(raw, off)
	writeEndMarker(raw, off)

	rec, err := ntfs.ParseRecord(raw)
	require.NoError(t, err)
	require.True(t, rec.IsDir)
	require.Equal(t, ntfs.DataAbsent, rec.Data.Kind)
	require.Equal(t, "subdir", rec.Name)
}

func TestParseRecordNonResidentData(t *testing.T) {
	raw, off := baseRecord(7, false)
	off = writeStandardInformation(raw, off, 132000000000000000, 132000000000000000, 0x20)
	off = writeFileName(raw, off, 2, "big.bin")
	off = writeNonResidentData(raw, off, 5000, 10, 3)
	writeEndMarker(raw, off)

	rec, err := ntfs.ParseRecord(raw)
	require.NoError(t, err)
	require.Equal(t, ntfs.DataNonResident, rec.Data.Kind)
	require.EqualValues(t, 5000, rec.Data.LogicalSize)
	require.EqualValues(t, 10, rec.Data.FirstRunClusterOffset)
	require.EqualValues(t, 3, rec.Data.FirstRunClusterCount)
}

func TestParseRecordDeletedIsRejected(t *testing.T) {
	raw, off := baseRecord(8, false)
	raw[0x16] = 0x00 // in-use bit clear
	off = writeFileName(raw, off, 2, "gone.txt")
	writeEndMarker(raw, off)

	_, err := ntfs.ParseRecord(raw)
	require.Error(t, err)
	var verr *verrors.Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, verrors.KindCorruptRecord, verr.Kind)
}

func TestParseRecordMissingFileNameIsRejected(t *testing.T) {
	raw, off := baseRecord(9, false)
	off = writeStandardInformation(raw, off, 1, 1, 0)
	writeEndMarker(raw, off)

	_, err := ntfs.ParseRecord(raw)
	require.Error(t, err)
	var verr *verrors.Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, verrors.KindCorruptRecord, verr.Kind)
}

func TestParseRecordBadSignature(t *testing.T) {
	raw := make([]byte, recordBufSize)
	copy(raw[0:4], "BAAD")
	_, err := ntfs.ParseRecord(raw)
	require.Error(t, err)
}

func TestFiletimeToTimeMatchesUnixEpoch(t *testing.T) {
	// 116444736000000000 100ns ticks since 1601-01-01 is exactly the Unix epoch.
	require.Equal(t, int64(0), ntfsFiletimeUnixSeconds(116444736000000000))
}

// ntfsFiletimeUnixSeconds mirrors the package-private filetimeToTime formula
// to check the boundary condition without exporting it.
func ntfsFiletimeUnixSeconds(ft uint64) int64 {
	return (int64(ft) - 116444736000000000) / 10_000_000
}
