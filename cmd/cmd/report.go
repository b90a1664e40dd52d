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
	"os"

	"github.com/spf13/cobra"

	"github.com/sscafiti/volex/internal/vfs"
	"github.com/sscafiti/volex/pkg/dfxml"
)

func DefineReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "report <volume_path>",
		Short:        "Walk a FAT32/NTFS volume's directory tree and emit a DFXML report",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunReport,
	}

	cmd.Flags().StringP("output", "o", "", "Write the report to this file instead of stdout")
	return cmd
}

func RunReport(cmd *cobra.Command, args []string) error {
	vol, closeVol, err := openVolume(args[0], false)
	if err != nil {
		return err
	}
	defer closeVol()

	out := cmd.OutOrStdout()
	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	w := dfxml.NewDFXMLWriter(out)
	hdr := dfxml.DFXMLHeader{
		XmlOutput: dfxml.XmlOutputVersion,
		Metadata:  dfxml.DefaultMetadata,
		Creator: dfxml.Creator{
			Package:              AppName,
			ExecutionEnvironment: dfxml.GetExecEnv(),
		},
		Source: dfxml.Source{ImageFilename: args[0]},
	}
	if err := w.WriteHeader(hdr); err != nil {
		return err
	}

	if err := walkReport(vol, "", w); err != nil {
		return err
	}

	log.Infof("wrote DFXML report for %s", args[0])
	return w.Close()
}

// walkReport descends the volume's directory tree depth-first, writing one
// DFXML fileobject per entry (directories included, per DFXML convention).
func walkReport(vol vfs.Volume, path string, w *dfxml.DFXMLWriter) error {
	listing, err := vol.List(path)
	if err != nil {
		return err
	}
	for _, e := range listing {
		full := path + "/" + e.Name
		if err := w.WriteFileObject(dfxml.FileObject{Filename: full, FileSize: e.Size}); err != nil {
			return err
		}
		if e.IsDir() {
			if err := walkReport(vol, full, w); err != nil {
				return err
			}
		}
	}
	return nil
}
