// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package mbr parses a classic Master Boot Record partition table so a
// whole-disk image can be pointed at the partition that actually holds a
// FAT32 or NTFS volume, before the boot-sector probe in internal/volume runs.
// The volume decoders never see the MBR themselves; they only ever read a
// BlockDevice windowed to a single partition's byte range.
package mbr

import (
	"encoding/binary"
	"fmt"

	"github.com/dustin/go-humanize"
)

// PartitionEntry is a single 16-byte entry in the MBR's partition table.
type PartitionEntry struct {
	BootIndicator uint8   // 0x00: 0x80 for bootable, 0x00 for inactive
	StartCHS      [3]byte // 0x01: starting cylinder-head-sector address
	Type          Type    // 0x04: partition type ID (e.g. 0x0B for FAT32, 0x07 for NTFS)
	EndCHS        [3]byte // 0x05: ending cylinder-head-sector address
	StartLBA      [4]byte // 0x08: starting LBA, little-endian uint32
	TotalSectors  [4]byte // 0x0C: total sectors in the partition, little-endian uint32
}

// ReadStartLBA returns the starting LBA of the partition.
func (p *PartitionEntry) ReadStartLBA() uint32 {
	return binary.LittleEndian.Uint32(p.StartLBA[:])
}

// ReadTotalSectors returns the total number of sectors in the partition.
func (p *PartitionEntry) ReadTotalSectors() uint32 {
	return binary.LittleEndian.Uint32(p.TotalSectors[:])
}

// Offset returns the partition's absolute byte offset on the disk, assuming
// 512-byte sectors (the only sector size an MBR partition table can express).
func (p *PartitionEntry) Offset() uint64 {
	return uint64(p.ReadStartLBA()) * 512
}

// Size returns the partition's size in bytes.
func (p *PartitionEntry) Size() uint64 {
	return uint64(p.ReadTotalSectors()) * 512
}

// Empty reports whether this slot holds no partition.
func (p *PartitionEntry) Empty() bool {
	return p.Type == TypeEmpty
}

// String renders a human-readable summary of the partition entry.
func (p *PartitionEntry) String() string {
	bootable := "No"
	if p.BootIndicator == 0x80 {
		bootable = "Yes"
	}
	return fmt.Sprintf("  Bootable: %s (0x%02X)\n"+
		"  Partition Type: 0x%02X (%s)\n"+
		"  Start LBA: %d\n"+
		"  Total Sectors: %d\n"+
		"  Size: %s",
		bootable, p.BootIndicator,
		uint8(p.Type), typeName(p.Type),
		p.ReadStartLBA(),
		p.ReadTotalSectors(),
		humanize.Bytes(p.Size()))
}

// MBR is the Master Boot Record: bootstrap code, an optional disk signature,
// and four primary partition table entries.
type MBR struct {
	BootCode         [440]byte
	DiskSignature    [4]byte
	Reserved         [2]byte
	PartitionEntries [4]PartitionEntry
	Signature        [2]byte
}

// ReadDiskSignature returns the disk signature as a uint32.
func (m *MBR) ReadDiskSignature() uint32 {
	return binary.LittleEndian.Uint32(m.DiskSignature[:])
}

// ReadSignature returns the MBR boot signature (expected 0xAA55).
func (m *MBR) ReadSignature() uint16 {
	return binary.LittleEndian.Uint16(m.Signature[:])
}

// String renders a human-readable summary of the whole MBR.
func (m *MBR) String() string {
	s := fmt.Sprintf("--- Master Boot Record ---\nDisk Signature: 0x%08X\nMBR Signature: 0x%04X\n",
		m.ReadDiskSignature(), m.ReadSignature())
	for i, entry := range m.PartitionEntries {
		if entry.Empty() {
			continue
		}
		s += fmt.Sprintf("\nPartition %d:\n%s\n", i+1, entry.String())
	}
	return s
}

const (
	mbrSize            = 512
	signatureOffset    = 0x1FE
	partitionTableBase = 0x1BE
	partitionEntrySize = 16
)

// Parse decodes a 512-byte MBR sector. It returns an error if the trailing
// 0xAA55 signature is missing, since that means the sector isn't an MBR at
// all (most likely it's a FAT32/NTFS boot sector directly, i.e. the image
// already starts at a volume rather than a partitioned disk).
func Parse(data []byte) (*MBR, error) {
	if len(data) != mbrSize {
		return nil, fmt.Errorf("mbr: expected %d bytes, got %d", mbrSize, len(data))
	}

	var m MBR
	copy(m.BootCode[:], data[0x000:0x1B8])
	copy(m.DiskSignature[:], data[0x1B8:0x1BC])
	copy(m.Reserved[:], data[0x1BC:0x1BE])

	for i := 0; i < 4; i++ {
		entryOffset := partitionTableBase + i*partitionEntrySize
		entryBytes := data[entryOffset : entryOffset+partitionEntrySize]

		m.PartitionEntries[i].BootIndicator = entryBytes[0x00]
		copy(m.PartitionEntries[i].StartCHS[:], entryBytes[0x01:0x04])
		m.PartitionEntries[i].Type = Type(entryBytes[0x04])
		copy(m.PartitionEntries[i].EndCHS[:], entryBytes[0x05:0x08])
		copy(m.PartitionEntries[i].StartLBA[:], entryBytes[0x08:0x0C])
		copy(m.PartitionEntries[i].TotalSectors[:], entryBytes[0x0C:0x10])
	}

	copy(m.Signature[:], data[signatureOffset:signatureOffset+2])
	if m.ReadSignature() != 0xAA55 {
		return nil, fmt.Errorf("mbr: invalid signature: expected 0xAA55, got 0x%04X", m.ReadSignature())
	}
	return &m, nil
}

// FilesystemPartitions returns the non-empty partition entries whose type
// byte is known to hold a FAT32 or NTFS filesystem, in table order. The
// caller still has to probe the boot sector at each offset to tell FAT32
// from NTFS (and from anything else) — this only narrows the search.
func (m *MBR) FilesystemPartitions() []PartitionEntry {
	var out []PartitionEntry
	for _, e := range m.PartitionEntries {
		if e.Empty() {
			continue
		}
		switch e.Type {
		case TypeFAT32CHS, TypeFAT32LBA, TypeNTFSHPFSexFATQNX:
			out = append(out, e)
		}
	}
	return out
}

// Type is an MBR partition type byte (the legacy "system ID").
type Type uint8

const (
	TypeEmpty                 Type = 0x00
	TypeFAT12                 Type = 0x01
	TypeFAT16LessThan32MB     Type = 0x04
	TypeExtendedCHS           Type = 0x05
	TypeFAT16GreaterThan32MB  Type = 0x06
	TypeNTFSHPFSexFATQNX      Type = 0x07
	TypeFAT32CHS              Type = 0x0B
	TypeFAT32LBA              Type = 0x0C
	TypeFAT16LBA              Type = 0x0E
	TypeExtendedLBA           Type = 0x0F
	TypeLinuxSwap             Type = 0x82
	TypeLinuxFilesystem       Type = 0x83
	TypeGPTProtectiveMBR      Type = 0xEE
	TypeEFISystemPartition    Type = 0xEF
)

func typeName(t Type) string {
	switch t {
	case TypeEmpty:
		return "Empty"
	case TypeFAT12:
		return "FAT12"
	case TypeFAT16LessThan32MB:
		return "FAT16 (<32MB)"
	case TypeExtendedCHS:
		return "Extended (CHS)"
	case TypeFAT16GreaterThan32MB:
		return "FAT16 (>32MB)"
	case TypeNTFSHPFSexFATQNX:
		return "NTFS/HPFS/exFAT/QNX"
	case TypeFAT32CHS:
		return "FAT32 (CHS)"
	case TypeFAT32LBA:
		return "FAT32 (LBA)"
	case TypeFAT16LBA:
		return "FAT16 (LBA)"
	case TypeExtendedLBA:
		return "Extended (LBA)"
	case TypeLinuxSwap:
		return "Linux swap"
	case TypeLinuxFilesystem:
		return "Linux filesystem"
	case TypeGPTProtectiveMBR:
		return "GPT Protective MBR"
	case TypeEFISystemPartition:
		return "EFI System Partition"
	default:
		return "Unknown"
	}
}
