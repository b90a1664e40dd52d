// Package vfs defines the decoder-agnostic contract the FAT32 and NTFS
// backends both implement, plus the BlockDevice implementations they read
// through. The façade that picks between the backends by probing a boot
// sector is internal/volume.
package vfs

import "time"

// BlockDevice is a seekable byte-addressable reader over a raw volume.
// Implementations may buffer; callers never assume they do. Not safe for
// concurrent use, and neither are the Volume implementations built on it;
// callers serialize access (the FUSE mount holds a mutex around every
// Volume call).
type BlockDevice interface {
	// ReadAt reads exactly len(p) bytes starting at absolute byte offset
	// off, or returns an error (including io.EOF if the device is shorter
	// than off+len(p)).
	ReadAt(p []byte, off int64) (int, error)

	// Size returns the total byte length of the device, when known. A
	// value of -1 means unknown (e.g. unseekable stream).
	Size() int64
}

// AttrSet is a bit-flag set over DOS/NTFS file attributes. The first six
// bits follow DOS attribute byte conventions so both backends share the
// same presentation layer; NTFS contributes the extra high bits.
type AttrSet uint32

const (
	AttrReadOnly AttrSet = 1 << iota
	AttrHidden
	AttrSystem
	AttrVolumeLabel
	AttrDirectory
	AttrArchive
	AttrDevice
	AttrNormal
	AttrTemporary
	AttrSparse
	AttrReparse
	AttrCompressed
	AttrOffline
	AttrNotIndexed
	AttrEncrypted
)

// Has reports whether every bit in other is set in a.
func (a AttrSet) Has(other AttrSet) bool {
	return a&other == other
}

func (a AttrSet) String() string {
	letter := func(set bool, ch byte) byte {
		if set {
			return ch
		}
		return '-'
	}
	return string([]byte{
		letter(a.Has(AttrDirectory), 'd'),
		letter(a.Has(AttrReadOnly), 'r'),
		letter(a.Has(AttrHidden), 'h'),
		letter(a.Has(AttrSystem), 's'),
		letter(a.Has(AttrArchive), 'a'),
		letter(a.Has(AttrCompressed), 'c'),
		letter(a.Has(AttrEncrypted), 'e'),
	})
}

// ProgressFunc reports enumeration progress (done of total units) during a
// potentially slow Open, such as NTFS MFT record enumeration. Implementations
// must return quickly; Open calls it synchronously on its own goroutine.
type ProgressFunc func(done, total int64)

// Timestamp is a calendar date/time at seconds resolution, the precision
// both FAT32 and NTFS ultimately expose through this package even though
// NTFS stores 100ns ticks internally.
type Timestamp = time.Time

// DirEntry is one row of a directory listing.
type DirEntry struct {
	Name     string
	Flags    AttrSet
	Size     uint64
	Modified Timestamp
	// Locator is an advisory on-disk locator used for display (ls -l style
	// output): the first sector of the entry's start cluster on FAT32, the
	// MFT file id on NTFS. It is never required for correctness and callers
	// must not depend on its exact meaning across backends.
	Locator uint64
}

// IsDir reports whether the entry names a directory.
func (e DirEntry) IsDir() bool {
	return e.Flags.Has(AttrDirectory)
}

// DirListing is an ordered sequence of directory entries.
type DirListing []DirEntry

// Volume is the uniform contract consumed by the shell and the FUSE mount,
// regardless of which on-disk filesystem backs it.
type Volume interface {
	// List returns the contents of path, or the current directory when
	// path is empty.
	List(path string) (DirListing, error)

	// ChangeDir updates the current directory to path. Fails if the
	// target does not exist or is not a directory.
	ChangeDir(path string) error

	// Cwd returns the current directory's canonical path, e.g. `C:\Users\alice`.
	Cwd() string

	// ReadFile returns the full contents of the regular file at path.
	ReadFile(path string) ([]byte, error)

	// ReadTextFile is like ReadFile but requires the content to decode as
	// valid UTF-8, failing with a NotText error otherwise.
	ReadTextFile(path string) (string, error)

	// Describe returns a multi-line human-readable summary of the volume
	// (kind, label, key boot-sector fields).
	Describe() string

	// Close releases the underlying BlockDevice.
	Close() error
}
