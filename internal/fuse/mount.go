//go:build !linux
// +build !linux

package fuse

import (
	"fmt"

	"github.com/sscafiti/volex/internal/vfs"
)

func Mount(mountpoint string, vol vfs.Volume) error {
	return fmt.Errorf("FUSE mount is only supported on Linux")
}
