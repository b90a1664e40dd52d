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
	"fmt"

	"github.com/spf13/cobra"
)

func DefineFsstatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "fsstat <volume_path>",
		Short:        "Print a summary of a FAT32/NTFS volume's boot sector and layout",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunFsstat,
	}

	cmd.Flags().Bool("progress", false, "Show a progress bar while enumerating the MFT (NTFS only)")
	return cmd
}

func RunFsstat(cmd *cobra.Command, args []string) error {
	showProgress, _ := cmd.Flags().GetBool("progress")
	vol, closeVol, err := openVolume(args[0], showProgress)
	if err != nil {
		return err
	}
	defer closeVol()

	fmt.Print(vol.Describe())
	return nil
}
