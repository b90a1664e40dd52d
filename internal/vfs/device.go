package vfs

import (
	"fmt"

	"github.com/sscafiti/volex/internal/fsio"
	"github.com/sscafiti/volex/internal/verrors"
)

// RawDevice is the default BlockDevice: a thin wrapper over an fsio.File
// that turns short reads into verrors.KindIO; a failed Stat leaves Size()
// at -1 (unknown). It owns the File for its whole lifetime and releases it
// on Close.
type RawDevice struct {
	f    fsio.File
	size int64
}

// NewRawDevice takes ownership of f. The caller must not use f directly
// afterwards.
func NewRawDevice(f fsio.File) (*RawDevice, error) {
	info, err := f.Stat()
	size := int64(-1)
	if err == nil {
		size = info.Size()
	}
	return &RawDevice{f: f, size: size}, nil
}

// Open opens path with opener and wraps the result in a RawDevice.
func Open(opener fsio.Opener, path string) (*RawDevice, error) {
	f, err := opener(path)
	if err != nil {
		return nil, verrors.Wrap(verrors.KindIO, fmt.Sprintf("opening %q", path), err)
	}
	return NewRawDevice(f)
}

func (d *RawDevice) ReadAt(p []byte, off int64) (int, error) {
	n, err := d.f.ReadAt(p, off)
	if err != nil && n < len(p) {
		return n, verrors.Wrap(verrors.KindIO, fmt.Sprintf("read %d bytes at offset %d", len(p), off), err)
	}
	return n, nil
}

func (d *RawDevice) Size() int64 {
	return d.size
}

// Close releases the underlying device handle.
func (d *RawDevice) Close() error {
	return d.f.Close()
}

// Window returns a BlockDevice whose byte 0 is byte `offset` of d, and whose
// Size() is `size` (or the remainder of d if size < 0). Used to point a
// decoder at a single MBR partition within a whole-disk image.
func Window(d BlockDevice, offset int64, size int64) BlockDevice {
	total := size
	if total < 0 && d.Size() >= 0 {
		total = d.Size() - offset
	}
	return &windowedDevice{inner: d, offset: offset, size: total}
}

type windowedDevice struct {
	inner  BlockDevice
	offset int64
	size   int64
}

func (w *windowedDevice) ReadAt(p []byte, off int64) (int, error) {
	return w.inner.ReadAt(p, w.offset+off)
}

func (w *windowedDevice) Size() int64 {
	return w.size
}
