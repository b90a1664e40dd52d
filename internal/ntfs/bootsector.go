// Package ntfs decodes an NTFS volume: boot sector, Master File Table
// record parsing ($STANDARD_INFORMATION, $FILE_NAME, $DATA), assembly of
// records into a parent/child directory tree, path resolution, and
// file-content extraction.
//
// Struct layout follows the same binary.Read-over-a-mirrored-struct idiom
// as internal/fat32, grounded in the teacher's internal/disk.FatBootSector.
package ntfs

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/sscafiti/volex/internal/verrors"
)

// OEMMagic is the fixed 8-byte ASCII label an NTFS boot sector carries at
// offset 0x03.
const OEMMagic = "NTFS    "

// rawBootSector mirrors the on-disk byte layout of the fields this decoder
// consumes, offsets 0x00 through 0x50. The gaps between named fields
// (media descriptor, geometry, and other FAT-legacy BPB fields NTFS leaves
// in place for boot-loader compatibility but never uses) are absorbed into
// the Reserved arrays so binary.Read lands every named field at its
// documented offset.
type rawBootSector struct {
	JmpBoot           [3]byte
	OEMID             [8]byte  // 0x03
	BytesPerSector    uint16   // 0x0B
	SectorsPerCluster uint8    // 0x0D
	Reserved1         [26]byte // 0x0E .. 0x28
	SectorsInVolume   uint64   // 0x28
	MftStartCluster   uint64   // 0x30
	MftMirrorCluster  uint64   // 0x38
	ClustersPerRecord int8     // 0x40
	Reserved2         [3]byte
	ClustersPerIndex  int8 // 0x44, unused by this decoder
	Reserved3         [3]byte
	SerialNumber      uint64 // 0x48
}

// BootSector is the parsed, validated NTFS BIOS Parameter Block.
type BootSector struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	SectorsInVolume   uint64
	MftStartCluster   uint64
	MftMirrorCluster  uint64
	ClustersPerRecord int8
	SerialNumber      uint64
}

const bootSectorReadSize = 0x50

// ParseBootSector validates and decodes the portion of an NTFS boot
// sector this decoder needs. data must be at least bootSectorReadSize
// bytes (callers typically pass the full 512-byte sector).
func ParseBootSector(data []byte) (*BootSector, error) {
	if len(data) < bootSectorReadSize {
		return nil, verrors.Newf(verrors.KindCorruptBootSector,
			"boot sector must be at least %d bytes, got %d", bootSectorReadSize, len(data))
	}

	var raw rawBootSector
	if err := binary.Read(bytes.NewReader(data[:bootSectorReadSize]), binary.LittleEndian, &raw); err != nil {
		return nil, verrors.Wrap(verrors.KindCorruptBootSector, "decoding boot sector", err)
	}

	magic := string(raw.OEMID[:])
	if magic != OEMMagic {
		return nil, verrors.Newf(verrors.KindNotThisFilesystem, "OEM id is %q, want %q", magic, OEMMagic)
	}
	if raw.BytesPerSector == 0 {
		return nil, verrors.New(verrors.KindCorruptBootSector, "bytes_per_sector is zero")
	}
	if raw.SectorsPerCluster == 0 {
		return nil, verrors.New(verrors.KindCorruptBootSector, "sectors_per_cluster is zero")
	}

	return &BootSector{
		BytesPerSector:    raw.BytesPerSector,
		SectorsPerCluster: raw.SectorsPerCluster,
		SectorsInVolume:   raw.SectorsInVolume,
		MftStartCluster:   raw.MftStartCluster,
		MftMirrorCluster:  raw.MftMirrorCluster,
		ClustersPerRecord: raw.ClustersPerRecord,
		SerialNumber:      raw.SerialNumber,
	}, nil
}

// RecordSizeBytes derives the byte size of one MFT record from the signed
// clusters_per_record BPB field: a negative value means "2^|n| bytes"; a
// non-negative one means "n clusters".
func (b *BootSector) RecordSizeBytes() int64 {
	if b.ClustersPerRecord < 0 {
		return int64(math.Pow(2, float64(-b.ClustersPerRecord)))
	}
	return int64(b.ClustersPerRecord) * int64(b.SectorsPerCluster) * int64(b.BytesPerSector)
}

// BytesPerCluster returns SectorsPerCluster * BytesPerSector.
func (b *BootSector) BytesPerCluster() int64 {
	return int64(b.SectorsPerCluster) * int64(b.BytesPerSector)
}

// MftOffset returns the absolute byte offset of MFT record 0.
func (b *BootSector) MftOffset() int64 {
	return int64(b.MftStartCluster) * b.BytesPerCluster()
}
