package ntfs

import (
	"encoding/binary"
	"time"
	"unicode/utf16"

	"github.com/sscafiti/volex/internal/verrors"
	"github.com/sscafiti/volex/internal/vfs"
)

const (
	recordSignature = "FILE"

	flagInUse     = 0x01
	flagDirectory = 0x02

	attrStandardInformation = 0x10
	attrFileName            = 0x30
	attrAttributeList       = 0x40
	attrData                = 0x80
	attrIndexRoot           = 0x90
	attrEndMarker           = 0xFFFFFFFF
)

// dataKind tags a $DATA attribute's residency.
type dataKind int

const (
	DataAbsent dataKind = iota
	DataResident
	DataNonResident
)

// DataDescriptor describes a file's $DATA attribute: inline bytes, or a
// single cluster run, or no $DATA attribute at all (a pure index node).
type DataDescriptor struct {
	Kind dataKind

	Resident []byte

	LogicalSize           uint64
	FirstRunClusterOffset int64
	FirstRunClusterCount  uint64
}

// Record is one parsed MFT record.
type Record struct {
	FileID   uint64
	InUse    bool
	IsDir    bool
	ParentID uint64
	Name     string
	Attrs    vfs.AttrSet
	Created  time.Time
	Modified time.Time
	Data     DataDescriptor
}

// windowsEpochOffset100ns is the number of 100ns ticks between the
// Windows FILETIME epoch (1601-01-01) and the Unix epoch (1970-01-01).
const windowsEpochOffset100ns = 116444736000000000

// filetimeToTime converts a Windows FILETIME to a UTC time.Time:
// unix_seconds = (filetime - offset) / 10_000_000, integer division.
func filetimeToTime(ft uint64) time.Time {
	unixSeconds := (int64(ft) - windowsEpochOffset100ns) / 10_000_000
	return time.Unix(unixSeconds, 0).UTC()
}

// sliceAt returns raw[off:off+n], failing with CorruptRecord instead of
// panicking when the record is too short or the offset has wrapped.
func sliceAt(raw []byte, off, n int) ([]byte, error) {
	if off < 0 || n < 0 || off+n > len(raw) {
		return nil, verrors.Newf(verrors.KindCorruptRecord,
			"field at offset %d length %d exceeds record length %d", off, n, len(raw))
	}
	return raw[off : off+n], nil
}

// ParseRecord decodes one record_size-byte MFT slab. Deleted records
// (in-use bit clear) and records failing to decode a required field are
// reported as CorruptRecord errors; the enumerator in Volume.Open treats
// any error here as "skip this record".
func ParseRecord(raw []byte) (*Record, error) {
	sig, err := sliceAt(raw, 0, 4)
	if err != nil {
		return nil, err
	}
	if string(sig) != recordSignature {
		return nil, verrors.Newf(verrors.KindCorruptRecord, "bad record signature %q", sig)
	}

	flagsB, err := sliceAt(raw, 0x16, 1)
	if err != nil {
		return nil, err
	}
	flags := flagsB[0]
	if flags&flagInUse == 0 {
		return nil, verrors.New(verrors.KindCorruptRecord, "record is not in use (deleted)")
	}

	firstAttrOffB, err := sliceAt(raw, 0x14, 2)
	if err != nil {
		return nil, err
	}
	firstAttrOff := int(binary.LittleEndian.Uint16(firstAttrOffB))

	fileIDB, err := sliceAt(raw, 0x2C, 4)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		FileID: uint64(binary.LittleEndian.Uint32(fileIDB)),
		InUse:  true,
		IsDir:  flags&flagDirectory != 0,
	}

	var sawFileName, sawIndexRoot bool

	off := firstAttrOff
	for {
		typeB, err := sliceAt(raw, off, 4)
		if err != nil {
			break
		}
		attrType := binary.LittleEndian.Uint32(typeB)
		if attrType == attrEndMarker {
			break
		}

		lenB, err := sliceAt(raw, off+4, 4)
		if err != nil {
			return nil, err
		}
		attrLen := binary.LittleEndian.Uint32(lenB)
		if attrLen == 0 {
			return nil, verrors.Newf(verrors.KindCorruptRecord, "zero-length attribute at offset %d", off)
		}

		switch attrType {
		case attrAttributeList:
			// tolerated and skipped; this decoder never needs to follow it.

		case attrStandardInformation:
			if err := parseStandardInformation(raw, off, rec); err != nil {
				return nil, err
			}

		case attrFileName:
			if err := parseFileName(raw, off, rec); err != nil {
				return nil, err
			}
			sawFileName = true

		case attrData:
			if err := parseData(raw, off, rec); err != nil {
				return nil, err
			}

		case attrIndexRoot:
			sawIndexRoot = true
		}

		off += int(attrLen)
		if off >= len(raw) {
			break
		}
	}

	if !sawFileName {
		return nil, verrors.New(verrors.KindCorruptRecord, "record has no $FILE_NAME attribute")
	}
	if rec.Data.Kind == DataAbsent && sawIndexRoot {
		rec.IsDir = true
	}

	return rec, nil
}

func parseStandardInformation(raw []byte, attrOff int, rec *Record) error {
	valOffB, err := sliceAt(raw, attrOff+0x14, 1)
	if err != nil {
		return err
	}
	base := attrOff + int(valOffB[0])

	created, err := sliceAt(raw, base+0, 8)
	if err != nil {
		return err
	}
	modified, err := sliceAt(raw, base+8, 8)
	if err != nil {
		return err
	}
	flagsB, err := sliceAt(raw, base+32, 4)
	if err != nil {
		return err
	}

	rec.Created = filetimeToTime(binary.LittleEndian.Uint64(created))
	rec.Modified = filetimeToTime(binary.LittleEndian.Uint64(modified))
	rec.Attrs = vfs.AttrSet(binary.LittleEndian.Uint32(flagsB) & 0xFFFF)
	if rec.IsDir {
		rec.Attrs |= vfs.AttrDirectory
	}
	return nil
}

func parseFileName(raw []byte, attrOff int, rec *Record) error {
	valOffB, err := sliceAt(raw, attrOff+0x14, 1)
	if err != nil {
		return err
	}
	base := attrOff + int(valOffB[0])

	parentRefB, err := sliceAt(raw, base+0, 8)
	if err != nil {
		return err
	}
	nameLenB, err := sliceAt(raw, base+64, 1)
	if err != nil {
		return err
	}
	nameLen := int(nameLenB[0])

	nameBytes, err := sliceAt(raw, base+66, nameLen*2)
	if err != nil {
		return err
	}

	units := make([]uint16, nameLen)
	for i := 0; i < nameLen; i++ {
		units[i] = binary.LittleEndian.Uint16(nameBytes[i*2 : i*2+2])
	}

	rec.ParentID = binary.LittleEndian.Uint64(parentRefB) & 0x0000FFFFFFFFFFFF
	rec.Name = string(utf16.Decode(units))
	return nil
}

func parseData(raw []byte, attrOff int, rec *Record) error {
	nonResB, err := sliceAt(raw, attrOff+0x08, 1)
	if err != nil {
		return err
	}

	if nonResB[0] == 0 {
		sizeB, err := sliceAt(raw, attrOff+0x10, 4)
		if err != nil {
			return err
		}
		valOffB, err := sliceAt(raw, attrOff+0x14, 2)
		if err != nil {
			return err
		}
		size := int(binary.LittleEndian.Uint32(sizeB))
		valOff := attrOff + int(binary.LittleEndian.Uint16(valOffB))

		value, err := sliceAt(raw, valOff, size)
		if err != nil {
			return err
		}
		data := make([]byte, size)
		copy(data, value)

		rec.Data = DataDescriptor{Kind: DataResident, Resident: data, LogicalSize: uint64(size)}
		return nil
	}

	realSizeB, err := sliceAt(raw, attrOff+0x30, 8)
	if err != nil {
		return err
	}
	realSize := binary.LittleEndian.Uint64(realSizeB)

	hlB, err := sliceAt(raw, attrOff+0x40, 1)
	if err != nil {
		return err
	}
	hl := hlB[0]
	sizeFieldLen := int(hl & 0x0F)
	offFieldLen := int(hl >> 4)

	cursor := attrOff + 0x41
	lenB, err := sliceAt(raw, cursor, sizeFieldLen)
	if err != nil {
		return err
	}
	runLength := decodeLEUnsigned(lenB)
	cursor += sizeFieldLen

	offB, err := sliceAt(raw, cursor, offFieldLen)
	if err != nil {
		return err
	}
	runOffset := decodeLESigned(offB)

	rec.Data = DataDescriptor{
		Kind:                  DataNonResident,
		LogicalSize:           realSize,
		FirstRunClusterOffset: runOffset,
		FirstRunClusterCount:  runLength,
	}
	return nil
}

func decodeLEUnsigned(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func decodeLESigned(b []byte) int64 {
	if len(b) == 0 {
		return 0
	}
	v := decodeLEUnsigned(b)
	if b[len(b)-1]&0x80 != 0 {
		v |= ^uint64(0) << (8 * uint(len(b)))
	}
	return int64(v)
}
