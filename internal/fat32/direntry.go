package fat32

import (
	"encoding/binary"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/sscafiti/volex/internal/vfs"
)

const entrySize = 32

const (
	nameEmpty   = 0x00
	nameDeleted = 0xE5
	attrLfn     = 0x0F
	lfnLastFlag = 0x40
	lfnOrdinalMask = 0x1F
)

// entryKind tags what a raw 32-byte directory slot turned out to be.
type entryKind int

const (
	kindEmpty entryKind = iota
	kindDeleted
	kindVolumeLabel
	kindLfnFragment
	kindShort
)

// rawEntry is the classified result of parsing one 32-byte slot.
type rawEntry struct {
	kind entryKind

	// valid when kind == kindLfnFragment
	lfnOrdinal int
	lfnLast    bool
	lfnChars   string

	// valid when kind == kindShort
	short shortEntry
}

// shortEntry is a decoded 8.3 directory entry, before any LFN is attached.
type shortEntry struct {
	Name8        string
	Ext3         string
	Attr         vfs.AttrSet
	Created      time.Time
	Accessed     time.Time
	Modified     time.Time
	StartCluster uint32
	Size         uint32
}

// ShortName returns "NAME.EXT" (or just "NAME" with no extension), the
// fallback used when no LFN fragments preceded this entry.
func (s shortEntry) ShortName() string {
	name := strings.TrimRight(s.Name8, " ")
	ext := strings.TrimRight(s.Ext3, " ")
	if ext == "" {
		return name
	}
	return name + "." + ext
}

// parseRawEntry classifies one 32-byte directory slot.
func parseRawEntry(b []byte) rawEntry {
	if len(b) != entrySize {
		panic("fat32: directory entry must be exactly 32 bytes")
	}

	if b[0] == nameEmpty {
		return rawEntry{kind: kindEmpty}
	}
	if b[0] == nameDeleted {
		return rawEntry{kind: kindDeleted}
	}

	attr := b[11]
	if attr == attrLfn {
		ordinal := int(b[0] & lfnOrdinalMask)
		last := b[0]&lfnLastFlag != 0
		chars := decodeLfnChars(b)
		return rawEntry{kind: kindLfnFragment, lfnOrdinal: ordinal, lfnLast: last, lfnChars: chars}
	}
	if vfs.AttrSet(attr).Has(vfs.AttrVolumeLabel) {
		return rawEntry{kind: kindVolumeLabel}
	}

	return rawEntry{kind: kindShort, short: decodeShortEntry(b)}
}

// decodeLfnChars pulls the UTF-16LE code units out of an LFN fragment's
// three discontiguous byte ranges, stopping at the first 0xFFFF terminator
// pair and trimming trailing NULs.
func decodeLfnChars(b []byte) string {
	var units []uint16
	// collect reads UTF-16LE units from the half-open byte range [start, end),
	// returning false as soon as the 0xFFFF terminator pair is seen.
	collect := func(start, end int) bool {
		for i := start; i < end; i += 2 {
			u := binary.LittleEndian.Uint16(b[i : i+2])
			if u == 0xFFFF {
				return false
			}
			units = append(units, u)
		}
		return true
	}

	if collect(1, 11) && collect(14, 26) {
		collect(28, 32)
	}
	return trimUtf16(units)
}

func trimUtf16(units []uint16) string {
	for len(units) > 0 && units[len(units)-1] == 0x0000 {
		units = units[:len(units)-1]
	}
	return string(utf16.Decode(units))
}

func decodeShortEntry(b []byte) shortEntry {
	attr := vfs.AttrSet(b[11])

	createTime24 := uint32(b[13]) | uint32(b[14])<<8 | uint32(b[15])<<16
	createDate := binary.LittleEndian.Uint16(b[16:18])
	accessDate := binary.LittleEndian.Uint16(b[18:20])
	clusterHigh := binary.LittleEndian.Uint16(b[20:22])
	modTime16 := binary.LittleEndian.Uint16(b[22:24])
	modDate := binary.LittleEndian.Uint16(b[24:26])
	clusterLow := binary.LittleEndian.Uint16(b[26:28])
	size := binary.LittleEndian.Uint32(b[28:32])

	return shortEntry{
		Name8:        string(b[0:8]),
		Ext3:         string(b[8:11]),
		Attr:         attr,
		Created:      decodeCreateTime(createTime24, createDate),
		Accessed:     decodeDosDate(accessDate),
		Modified:     decodeModTime(modTime16, modDate),
		StartCluster: uint32(clusterHigh)<<16 | uint32(clusterLow),
		Size:         size,
	}
}

// decodeDosDate decodes the standard FAT DOS date format: year = 1980 +
// bits[15..9], month = bits[8..5], day = bits[4..0].
func decodeDosDate(raw uint16) time.Time {
	year := 1980 + int(raw>>9)
	month := int((raw >> 5) & 0x0F)
	day := int(raw & 0x1F)
	if month == 0 || day == 0 {
		return time.Time{}
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// decodeCreateTime decodes the 24-bit creation time the way the source
// treats it: h=bits[23..19], m=bits[18..13], s=bits[12..7], ms=bits[6..0].
// This deviates from the Microsoft on-disk format's 16-bit time + 8-bit
// tenths field; preserved intentionally.
func decodeCreateTime(raw24 uint32, date uint16) time.Time {
	d := decodeDosDate(date)
	if d.IsZero() {
		return time.Time{}
	}
	hour := int((raw24 >> 19) & 0x1F)
	minute := int((raw24 >> 13) & 0x3F)
	second := int((raw24 >> 7) & 0x3F)
	ms := int(raw24 & 0x7F)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, second, ms*1_000_000, time.UTC)
}

// decodeModTime decodes the 16-bit modified time: hour=bits[15..11],
// minute=bits[10..5], second=bits[4..0]*2.
func decodeModTime(raw16 uint16, date uint16) time.Time {
	d := decodeDosDate(date)
	if d.IsZero() {
		return time.Time{}
	}
	hour := int((raw16 >> 11) & 0x1F)
	minute := int((raw16 >> 5) & 0x3F)
	second := int(raw16&0x1F) * 2
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, second, 0, time.UTC)
}
