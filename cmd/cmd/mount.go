// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package cmd

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sscafiti/volex/internal/fuse"
)

func DefineMountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mount <volume_path>",
		Short: "Mount a FAT32/NTFS volume as a live read-only filesystem",
		Long: `The 'mount' command decodes a FAT32 or NTFS volume and projects its
directory tree read-only via FUSE, at --mountpoint or a name derived from
the volume path.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunMount,
	}

	cmd.Flags().StringP("mountpoint", "m", "", "Absolute path to the directory where the volume will be mounted. If not specified, a default will be generated.")
	cmd.Flags().Bool("progress", false, "Show a progress bar while enumerating the MFT (NTFS only)")
	return cmd
}

func RunMount(cmd *cobra.Command, args []string) error {
	showProgress, _ := cmd.Flags().GetBool("progress")
	vol, closeVol, err := openVolume(args[0], showProgress)
	if err != nil {
		return err
	}
	defer closeVol()

	mountpoint, _ := cmd.Flags().GetString("mountpoint")
	if mountpoint == "" {
		mountpoint = getMountpoint(args[0])
	}

	log.Infof("mounting %s at %s (read-only)", args[0], mountpoint)
	return fuse.Mount(mountpoint, vol)
}

// getMountpoint derives a mountpoint name from a volume path by stripping
// the extension (if any) and appending "_mnt".
func getMountpoint(volumePath string) string {
	baseName := filepath.Base(volumePath)
	ext := filepath.Ext(baseName)
	return strings.TrimSuffix(baseName, ext) + "_mnt"
}
