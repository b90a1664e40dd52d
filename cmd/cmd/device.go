package cmd

import (
	"os"

	"github.com/sscafiti/volex/internal/fsio"
	"github.com/sscafiti/volex/internal/logger"
	"github.com/sscafiti/volex/internal/mbr"
	"github.com/sscafiti/volex/internal/vfs"
	"github.com/sscafiti/volex/internal/volume"
	"github.com/sscafiti/volex/pkg/pbar"
)

var log = logger.New(os.Stdout, logger.InfoLevel)

// openVolume opens path (a raw device or disk-image file, normalized for
// the host platform) and decodes whichever of FAT32/NTFS its boot sector
// names. If the image is a partitioned whole disk (an MBR sector rather
// than a volume boot sector), the first recognized FAT32/NTFS partition is
// windowed in and opened instead. When showProgress is set, MFT enumeration
// on an NTFS volume renders a progress bar to stdout, since scanning every
// MFT record up front can take a while on a large volume; FAT32's open
// sequence is cheap enough that showProgress has no visible effect there.
// The returned close func releases the underlying device handle.
func openVolume(path string, showProgress bool) (vfs.Volume, func() error, error) {
	dev, err := vfs.Open(fsio.Open, fsio.NormalizeVolumePath(path))
	if err != nil {
		return nil, nil, err
	}

	target, err := resolveVolumeDevice(dev)
	if err != nil {
		dev.Close()
		return nil, nil, err
	}

	var onProgress vfs.ProgressFunc
	if showProgress {
		bar := pbar.NewProgressBarState(0)
		onProgress = bar.AsVolumeProgress()
		defer func() {
			if onProgress != nil {
				bar.Finish()
			}
		}()
	}

	vol, err := volume.OpenWithProgress(target, onProgress)
	if err != nil {
		dev.Close()
		return nil, nil, err
	}
	return vol, dev.Close, nil
}

// resolveVolumeDevice inspects the first sector of dev: if it is a classic
// MBR, it windows dev to the first FAT32/NTFS partition it lists;
// otherwise dev is assumed to already start at a volume boot sector.
func resolveVolumeDevice(dev vfs.BlockDevice) (vfs.BlockDevice, error) {
	sector := make([]byte, 512)
	if _, err := dev.ReadAt(sector, 0); err != nil {
		return nil, err
	}

	table, err := mbr.Parse(sector)
	if err != nil {
		return dev, nil // not an MBR; treat dev as a bare volume
	}

	partitions := table.FilesystemPartitions()
	if len(partitions) == 0 {
		log.Warn("MBR found but no FAT32/NTFS partition recognized; probing disk start directly")
		return dev, nil
	}
	first := partitions[0]
	log.Infof("MBR partition table found, using first FAT32/NTFS partition at LBA %d (%d bytes)",
		first.ReadStartLBA(), first.Size())
	return vfs.Window(dev, int64(first.Offset()), int64(first.Size())), nil
}
