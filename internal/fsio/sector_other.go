//go:build !linux
// +build !linux

package fsio

import (
	"errors"
	"os"
)

// SectorSize is unavailable outside Linux; callers fall back to
// DefaultSectorSize.
func SectorSize(f *os.File) (int64, error) {
	return 0, errors.New("sector size detection not supported on this platform")
}
