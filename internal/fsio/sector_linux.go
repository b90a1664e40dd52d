//go:build linux
// +build linux

package fsio

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

// SectorSize returns the logical sector size of a Linux block device via the
// BLKSSZGET ioctl. Regular files (disk images) don't support this ioctl;
// callers should fall back to DefaultSectorSize in that case.
//
// Adapted from internal/disk/stat.go's GetSectorSizeLinux.
func SectorSize(f *os.File) (int64, error) {
	const blkSSZGet = 0x1268 // BLKSSZGET, _IO(0x12, 104)
	var sectorSize uint32
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), blkSSZGet, uintptr(unsafe.Pointer(&sectorSize)))
	if errno != 0 {
		return 0, fmt.Errorf("ioctl BLKSSZGET failed: %w", errno)
	}
	return int64(sectorSize), nil
}
