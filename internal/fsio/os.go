//go:build !windows
// +build !windows

package fsio

import "os"

// Open opens path with the standard library on every non-Windows target.
// Raw block devices on Linux/macOS are ordinary files from the os package's
// point of view; no ioctl is required to read them, only to learn their
// native sector size (see SectorSize).
func Open(path string) (File, error) {
	return os.Open(path)
}
