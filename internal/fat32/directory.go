package fat32

import (
	"strings"

	"github.com/sscafiti/volex/internal/verrors"
	"github.com/sscafiti/volex/internal/vfs"
)

// Entry is a short directory entry with its reassembled long name attached.
type Entry struct {
	LongName string
	short    shortEntry
}

// Name returns the display name: the reassembled LFN, or the 8.3 short
// name when no LFN fragments preceded this entry.
func (e Entry) Name() string { return e.LongName }

// IsActive reports whether e would show up in a normal directory listing:
// not Empty/Deleted/VolumeLabel (those never reach Entry) and not SYSTEM.
// `.` and `..` are intentionally not filtered here; the shell filters them
// when printing trees.
func (e Entry) IsActive() bool {
	return !e.short.Attr.Has(vfs.AttrSystem)
}

func (e Entry) IsDir() bool          { return e.short.Attr.Has(vfs.AttrDirectory) }
func (e Entry) StartCluster() uint32 { return e.short.StartCluster }
func (e Entry) Size() uint32         { return e.short.Size }
func (e Entry) Attr() vfs.AttrSet    { return e.short.Attr }
func (e Entry) Modified() vfs.Timestamp { return e.short.Modified }

// Directory is the parsed, ordered contents of one FAT32 cluster chain's
// worth of 32-byte directory entries, with LFN fragments folded into the
// short entries they precede.
type Directory struct {
	Entries []Entry
}

// ParseDirectory scans raw (the concatenated bytes of a directory's cluster
// chain) and reassembles long file names from their 0x41..-tagged LFN
// fragments.
//
// The scan deliberately does not stop at the first 0x00 name byte the way
// the on-disk FAT format says it should: it continues to the end of the
// buffer, which means recently-deleted entries sitting in unused tail space
// can surface. This is a preserved source quirk, not a bug to fix here.
func ParseDirectory(raw []byte) (*Directory, error) {
	if len(raw)%entrySize != 0 {
		return nil, verrors.Newf(verrors.KindCorruptRecord,
			"directory data length %d is not a multiple of %d", len(raw), entrySize)
	}

	dir := &Directory{}
	var pendingLongName string

	for off := 0; off+entrySize <= len(raw); off += entrySize {
		slot := parseRawEntry(raw[off : off+entrySize])

		switch slot.kind {
		case kindEmpty, kindDeleted, kindVolumeLabel:
			pendingLongName = ""

		case kindLfnFragment:
			pendingLongName = slot.lfnChars + pendingLongName

		case kindShort:
			longName := pendingLongName
			if longName == "" {
				longName = slot.short.ShortName()
			}
			dir.Entries = append(dir.Entries, Entry{LongName: longName, short: slot.short})
			pendingLongName = ""
		}
	}

	return dir, nil
}

// Lookup performs a case-insensitive exact match against each entry's long
// name.
func (d *Directory) Lookup(name string) (Entry, bool) {
	for _, e := range d.Entries {
		if strings.EqualFold(e.LongName, name) {
			return e, true
		}
	}
	return Entry{}, false
}

// Active returns only the entries a normal listing would show: active
// entries, per Entry.IsActive.
func (d *Directory) Active() []Entry {
	var out []Entry
	for _, e := range d.Entries {
		if e.IsActive() {
			out = append(out, e)
		}
	}
	return out
}
