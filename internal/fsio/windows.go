//go:build windows
// +build windows

package fsio

import (
	"fmt"
	"os"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// winFile is a raw handle to a Windows volume (e.g. `\\.\C:`), opened
// GENERIC_READ/shared so the owning OS can keep using the volume while we
// read it. Reads go through overlapped I/O with sector-aligned offsets
// because Windows rejects unaligned reads against raw volumes.
type winFile struct {
	handle windows.Handle
}

type winFileInfo struct {
	size int64
	sys  any
}

func (fi *winFileInfo) Name() string       { return "" }
func (fi *winFileInfo) Size() int64        { return fi.size }
func (fi *winFileInfo) Mode() os.FileMode  { return 0 }
func (fi *winFileInfo) ModTime() time.Time { return time.Time{} }
func (fi *winFileInfo) IsDir() bool        { return false }
func (fi *winFileInfo) Sys() any           { return fi.sys }

// Open opens a Windows volume path for raw reading.
func Open(path string) (File, error) {
	handle, err := windows.CreateFile(
		windows.StringToUTF16Ptr(path),
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		0,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	return &winFile{handle: handle}, nil
}

const sectorAlignment = 512

// ReadAt reads from an arbitrary byte offset by rounding out to sector
// boundaries and trimming the aligned buffer down to the requested window.
func (d *winFile) ReadAt(p []byte, off int64) (int, error) {
	alignedOffset := off / sectorAlignment * sectorAlignment
	alignmentDiff := int(off - alignedOffset)
	alignedSize := ((len(p) + alignmentDiff + sectorAlignment - 1) / sectorAlignment) * sectorAlignment

	buf := make([]byte, alignedSize)

	var bytesRead uint32
	ov := new(windows.Overlapped)
	ov.Offset = uint32(alignedOffset)
	ov.OffsetHigh = uint32(alignedOffset >> 32)

	err := windows.ReadFile(d.handle, buf, &bytesRead, ov)
	if err != nil {
		if err == syscall.ERROR_IO_PENDING {
			err = windows.GetOverlappedResult(d.handle, ov, &bytesRead, true)
		}
		if err != nil {
			return 0, fmt.Errorf("aligned read failed: %w", err)
		}
	}
	return copy(p, buf[alignmentDiff:]), nil
}

const ioctlDiskGetDriveGeometry = 0x70000

type diskGeometry struct {
	Cylinders         int64
	MediaType         uint32
	TracksPerCylinder uint32
	SectorsPerTrack   uint32
	BytesPerSector    uint32
}

func (d *winFile) Stat() (os.FileInfo, error) {
	var geometry diskGeometry
	var bytesReturned uint32

	err := windows.DeviceIoControl(
		d.handle,
		ioctlDiskGetDriveGeometry,
		nil,
		0,
		(*byte)(unsafe.Pointer(&geometry)),
		uint32(unsafe.Sizeof(geometry)),
		&bytesReturned,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("DeviceIoControl(IOCTL_DISK_GET_DRIVE_GEOMETRY) failed: %w", err)
	}

	size := geometry.Cylinders * int64(geometry.TracksPerCylinder) * int64(geometry.SectorsPerTrack) * int64(geometry.BytesPerSector)
	return &winFileInfo{size: size, sys: geometry}, nil
}

func (d *winFile) Close() error {
	return windows.CloseHandle(d.handle)
}
