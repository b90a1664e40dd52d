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
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sscafiti/volex/internal/vfs"
	ioutil "github.com/sscafiti/volex/pkg/util/io"
)

func DefineShellCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "shell <volume_path>",
		Short:        "Open an interactive read-only shell against a FAT32/NTFS volume",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunShell,
	}

	cmd.Flags().Bool("progress", false, "Show a progress bar while enumerating the MFT (NTFS only)")
	return cmd
}

func RunShell(cmd *cobra.Command, args []string) error {
	showProgress, _ := cmd.Flags().GetBool("progress")
	vol, closeVol, err := openVolume(args[0], showProgress)
	if err != nil {
		return err
	}
	defer closeVol()

	sh := &shell{vol: vol, out: cmd.OutOrStdout()}
	sh.loop()
	return nil
}

// shell is a minimal command loop over a vfs.Volume, in the spirit of the
// teacher's cobra.Command tree: each shell command is just another small
// RunE-shaped function, dispatched by name instead of by cobra.
type shell struct {
	vol vfs.Volume
	out interface {
		Write([]byte) (int, error)
	}
}

func (s *shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *shell) loop() {
	scanner := bufio.NewScanner(os.Stdin)
	s.printf("%s\n", s.vol.Describe())
	for {
		s.printf("%s> ", s.vol.Cwd())
		if !scanner.Scan() {
			s.printf("\n")
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		cmdName, cmdArgs := fields[0], fields[1:]
		switch cmdName {
		case "bye", "exit", "quit":
			return
		case "ls":
			s.cmdLs(cmdArgs)
		case "cd":
			s.cmdCd(cmdArgs)
		case "pwd", "cwd":
			s.printf("%s\n", s.vol.Cwd())
		case "tree":
			s.cmdTree(cmdArgs)
		case "cat":
			s.cmdCat(cmdArgs)
		case "xxd":
			s.cmdXxd(cmdArgs)
		case "echo":
			s.printf("%s\n", strings.Join(cmdArgs, " "))
		case "fsstat":
			s.printf("%s\n", s.vol.Describe())
		case "get":
			s.cmdGet(cmdArgs)
		default:
			s.printf("unknown command: %s (try ls, cd, pwd, tree, cat, xxd, get, echo, fsstat, bye)\n", cmdName)
		}
	}
}

func (s *shell) path(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

func (s *shell) cmdLs(args []string) {
	listing, err := s.vol.List(s.path(args))
	if err != nil {
		s.printf("ls: %s\n", err)
		return
	}
	for _, e := range listing {
		s.printf("%s  %10s  %s  %s\n",
			e.Flags,
			humanize.Bytes(e.Size),
			e.Modified.Format("2006-01-02 15:04:05"),
			e.Name)
	}
}

func (s *shell) cmdCd(args []string) {
	if len(args) == 0 {
		s.printf("cd: missing path\n")
		return
	}
	if err := s.vol.ChangeDir(args[0]); err != nil {
		s.printf("cd: %s\n", err)
	}
}

func (s *shell) cmdTree(args []string) {
	root := s.path(args)
	if err := s.printTree(root, ""); err != nil {
		s.printf("tree: %s\n", err)
	}
}

func (s *shell) printTree(path, indent string) error {
	listing, err := s.vol.List(path)
	if err != nil {
		return err
	}
	var entries vfs.DirListing
	for _, e := range listing {
		if e.Name != "." && e.Name != ".." {
			entries = append(entries, e)
		}
	}
	for i, e := range entries {
		branch := "├── "
		childIndent := indent + "│   "
		if i == len(entries)-1 {
			branch = "└── "
			childIndent = indent + "    "
		}
		s.printf("%s%s%s\n", indent, branch, e.Name)
		if e.IsDir() {
			childPath := strings.TrimSuffix(path, "/") + "/" + e.Name
			if err := s.printTree(childPath, childIndent); err != nil {
				s.printf("%s(error: %s)\n", childIndent, err)
			}
		}
	}
	return nil
}

func (s *shell) cmdCat(args []string) {
	if len(args) == 0 {
		s.printf("cat: missing path\n")
		return
	}
	text, err := s.vol.ReadTextFile(args[0])
	if err != nil {
		s.printf("cat: %s\n", err)
		return
	}
	s.printf("%s\n", text)
}

func (s *shell) cmdXxd(args []string) {
	if len(args) == 0 {
		s.printf("xxd: missing path\n")
		return
	}
	data, err := s.vol.ReadFile(args[0])
	if err != nil {
		s.printf("xxd: %s\n", err)
		return
	}
	s.printf("%s", hexdump(data))
}

func (s *shell) cmdGet(args []string) {
	if len(args) < 2 {
		s.printf("get: usage: get <volume_path> <local_path>\n")
		return
	}
	data, err := s.vol.ReadFile(args[0])
	if err != nil {
		s.printf("get: %s\n", err)
		return
	}
	if err := ioutil.CopyFile(args[1], bytes.NewReader(data)); err != nil {
		s.printf("get: %s\n", err)
		return
	}
	s.printf("wrote %s (%s)\n", args[1], humanize.Bytes(uint64(len(data))))
}

// hexdump renders data the way the classic "xxd" tool does: 16 bytes per
// line, offset, hex pairs, and an ASCII gutter.
func hexdump(data []byte) string {
	var b strings.Builder
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		line := data[off:end]

		fmt.Fprintf(&b, "%08x: ", off)
		for i := 0; i < 16; i++ {
			if i < len(line) {
				fmt.Fprintf(&b, "%02x", line[i])
			} else {
				b.WriteString("  ")
			}
			if i%2 == 1 {
				b.WriteByte(' ')
			}
		}
		b.WriteString(" ")
		for _, c := range line {
			if c >= 0x20 && c < 0x7f {
				b.WriteByte(c)
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
