// Package volume implements the Volume façade: it probes a block device's
// boot sector and dispatches to whichever of internal/fat32 or internal/ntfs
// recognizes the magic.
package volume

import (
	"github.com/sscafiti/volex/internal/fat32"
	"github.com/sscafiti/volex/internal/ntfs"
	"github.com/sscafiti/volex/internal/verrors"
	"github.com/sscafiti/volex/internal/vfs"
)

const (
	probeOffset = 3
	probeLen    = 8
	fatLabel    = "FAT32   "
	ntfsMagic   = "NTFS    "
)

// Open probes dev's boot sector at bytes [3..11) and constructs whichever
// decoder's magic matches, or fails with UnsupportedVolume.
func Open(dev vfs.BlockDevice) (vfs.Volume, error) {
	return OpenWithProgress(dev, nil)
}

// OpenWithProgress is Open, additionally reporting progress while the NTFS
// decoder enumerates the MFT (onProgress may be nil). FAT32's open sequence
// only ever reads a boot sector, a FAT, and the root directory, none of
// which warrant progress reporting, so onProgress is ignored on that path.
func OpenWithProgress(dev vfs.BlockDevice, onProgress vfs.ProgressFunc) (vfs.Volume, error) {
	probe := make([]byte, probeLen)
	if _, err := dev.ReadAt(probe, probeOffset); err != nil {
		return nil, verrors.Wrap(verrors.KindIO, "probing boot sector", err)
	}

	switch string(probe) {
	case fatLabel:
		return fat32.Open(dev)
	case ntfsMagic:
		return ntfs.OpenWithProgress(dev, onProgress)
	default:
		return nil, verrors.Newf(verrors.KindUnsupportedVolume,
			"boot sector magic %q matches neither FAT32 nor NTFS", probe)
	}
}
