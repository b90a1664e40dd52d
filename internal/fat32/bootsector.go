// Package fat32 decodes a FAT32 volume: boot sector, File Allocation
// Table, directory entries (including Long File Name reassembly), cluster
// chains, and path resolution/file reads built on top of them.
//
// Struct layout is grounded in the teacher's internal/disk.FatBootSector
// (itself modeled on the Linux kernel's struct fat_boot_sector), trimmed to
// the fields this decoder actually consumes and cross-checked against
// dargueta-disko/drivers/fat/common.go's field validation style.
package fat32

import (
	"bytes"
	"encoding/binary"
	"fmt"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/sscafiti/volex/internal/verrors"
)

const BootSectorSize = 512

// FsTypeLabel is the fixed 8-byte ASCII label a FAT32 boot sector must carry
// at offset 0x52.
const FsTypeLabel = "FAT32   "

// rawBootSector mirrors the on-disk byte layout exactly; binary.Read walks
// its fields in declaration order regardless of Go struct padding, so field
// order here must match the FAT32 BPB's documented byte offsets precisely.
type rawBootSector struct {
	JmpBoot           [3]byte
	OEMName           [8]byte
	BytesPerSector    uint16  // 0x0B
	SectorsPerCluster uint8   // 0x0D
	ReservedSectors   uint16  // 0x0E
	NumFATs           uint8   // 0x10
	RootEntryCount    uint16  // 0x11
	TotalSectors16    uint16  // 0x13
	Media             uint8   // 0x15
	FATSize16         uint16  // 0x16
	SectorsPerTrack   uint16  // 0x18
	NumHeads          uint16  // 0x1A
	HiddenSectors     uint32  // 0x1C
	TotalSectors32    uint32  // 0x20
	FATSize32         uint32  // 0x24
	ExtFlags          uint16  // 0x28
	FSVersion         uint16  // 0x2A
	RootCluster       uint32  // 0x2C
	FSInfoSector      uint16  // 0x30
	BackupBootSector  uint16  // 0x32
	Reserved          [12]byte
	DriveNumber       uint8
	Reserved1         uint8
	BootSignature     uint8
	VolumeID          uint32
	VolumeLabel       [11]byte // 0x47
	FsTypeLabel       [8]byte  // 0x52
}

// BootSector is the parsed, validated FAT32 BIOS Parameter Block.
type BootSector struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	FatCount          uint8
	SectorsPerFat     uint32
	SectorsInVolume   uint32
	RootCluster       uint32
	FsTypeLabel       string
	VolumeLabel       string
}

// ParseBootSector validates and decodes a 512-byte FAT32 boot sector.
func ParseBootSector(data []byte) (*BootSector, error) {
	if len(data) != BootSectorSize {
		return nil, verrors.Newf(verrors.KindCorruptBootSector,
			"boot sector must be %d bytes, got %d", BootSectorSize, len(data))
	}

	var raw rawBootSector
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &raw); err != nil {
		return nil, verrors.Wrap(verrors.KindCorruptBootSector, "decoding boot sector", err)
	}

	label := string(raw.FsTypeLabel[:])
	if label != FsTypeLabel {
		return nil, verrors.Newf(verrors.KindNotThisFilesystem,
			"fs type label is %q, want %q", label, FsTypeLabel)
	}

	var merr *multierror.Error
	if raw.BytesPerSector == 0 {
		merr = multierror.Append(merr, fmt.Errorf("bytes_per_sector is zero"))
	}
	if raw.SectorsPerCluster == 0 {
		merr = multierror.Append(merr, fmt.Errorf("sectors_per_cluster is zero"))
	}
	if raw.NumFATs == 0 {
		merr = multierror.Append(merr, fmt.Errorf("fat_count is zero"))
	}
	if raw.FATSize32 == 0 {
		merr = multierror.Append(merr, fmt.Errorf("sectors_per_fat (32-bit) is zero"))
	}
	if raw.RootCluster < 2 {
		merr = multierror.Append(merr, fmt.Errorf("root_cluster %d is below the first valid cluster (2)", raw.RootCluster))
	}
	if merr.ErrorOrNil() != nil {
		return nil, verrors.Wrap(verrors.KindCorruptBootSector, "invalid FAT32 boot sector", merr)
	}

	sectorsInVolume := raw.TotalSectors32
	if sectorsInVolume == 0 {
		sectorsInVolume = uint32(raw.TotalSectors16)
	}

	return &BootSector{
		BytesPerSector:    raw.BytesPerSector,
		SectorsPerCluster: raw.SectorsPerCluster,
		ReservedSectors:   raw.ReservedSectors,
		FatCount:          raw.NumFATs,
		SectorsPerFat:     raw.FATSize32,
		SectorsInVolume:   sectorsInVolume,
		RootCluster:       raw.RootCluster,
		FsTypeLabel:       label,
		VolumeLabel:       trimSpace(raw.VolumeLabel[:]),
	}, nil
}

// FatRegionOffset returns the absolute byte offset of FAT #0.
func (b *BootSector) FatRegionOffset() int64 {
	return int64(b.ReservedSectors) * int64(b.BytesPerSector)
}

// FatRegionSize returns the byte length of a single FAT copy.
func (b *BootSector) FatRegionSize() int64 {
	return int64(b.SectorsPerFat) * int64(b.BytesPerSector)
}

// DataRegionOffset returns the absolute byte offset of cluster 2.
func (b *BootSector) DataRegionOffset() int64 {
	return (int64(b.ReservedSectors) + int64(b.FatCount)*int64(b.SectorsPerFat)) * int64(b.BytesPerSector)
}

// BytesPerCluster returns SectorsPerCluster * BytesPerSector.
func (b *BootSector) BytesPerCluster() int64 {
	return int64(b.SectorsPerCluster) * int64(b.BytesPerSector)
}

// ClusterOffset returns the absolute byte offset of cluster c (c >= 2):
// (reserved + fat_count*sectors_per_fat + (c-2)*sectors_per_cluster) * bytes_per_sector.
func (b *BootSector) ClusterOffset(c uint32) int64 {
	reserved := int64(b.ReservedSectors)
	fatSectors := int64(b.FatCount) * int64(b.SectorsPerFat)
	dataSectors := int64(c-2) * int64(b.SectorsPerCluster)
	return (reserved + fatSectors + dataSectors) * int64(b.BytesPerSector)
}

// TotalClusters approximates the number of clusters in the data region. It
// bounds cluster-chain traversal against corrupt media and is also reported
// by Volume.Describe; it need not be exact.
func (b *BootSector) TotalClusters() uint32 {
	dataSectors := b.SectorsInVolume - uint32(b.ReservedSectors) - uint32(b.FatCount)*b.SectorsPerFat
	if b.SectorsPerCluster == 0 {
		return 0
	}
	return dataSectors / uint32(b.SectorsPerCluster)
}

func trimSpace(b []byte) string {
	i := len(b)
	for i > 0 && (b[i-1] == ' ' || b[i-1] == 0) {
		i--
	}
	return string(b[:i])
}
