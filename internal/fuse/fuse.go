//go:build linux
// +build linux

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
package fuse

import (
	"context"
	"os"
	"path"
	"sort"
	"sync"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"

	"github.com/sscafiti/volex/internal/vfs"
)

// VolumeFS projects a decoded vfs.Volume as a live, read-only FUSE
// filesystem. Unlike the flat recovered-file mount this is adapted from,
// it serves the volume's actual nested directory tree: Lookup and
// ReadDirAll call straight through to Volume.List, and file reads call
// Volume.ReadFile.
type VolumeFS struct {
	vol vfs.Volume

	mtx sync.Mutex // serializes access to vol, which is not safe for concurrent use
}

func (vfs *VolumeFS) Root() (fs.Node, error) {
	return &Dir{fs: vfs}, nil
}

// Dir implements both fs.Node and fs.HandleReadDirAller for one directory
// path within the mounted volume.
type Dir struct {
	fs   *VolumeFS
	path string
}

func (*Dir) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = os.ModeDir | 0555
	return nil
}

func (d *Dir) Lookup(ctx context.Context, name string) (fs.Node, error) {
	d.fs.mtx.Lock()
	entries, err := d.fs.vol.List(d.path)
	d.fs.mtx.Unlock()
	if err != nil {
		return nil, fuse.ENOENT
	}

	for _, e := range entries {
		if e.Name != name {
			continue
		}
		childPath := path.Join(d.path, name)
		if e.IsDir() {
			return &Dir{fs: d.fs, path: childPath}, nil
		}
		return &File{fs: d.fs, path: childPath, size: e.Size}, nil
	}
	return nil, fuse.ENOENT
}

func (d *Dir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	d.fs.mtx.Lock()
	entries, err := d.fs.vol.List(d.path)
	d.fs.mtx.Unlock()
	if err != nil {
		return nil, err
	}

	dirEntries := make([]fuse.Dirent, len(entries))
	for i, e := range entries {
		typ := fuse.DT_File
		if e.IsDir() {
			typ = fuse.DT_Dir
		}
		dirEntries[i] = fuse.Dirent{Inode: uint64(i + 1), Name: e.Name, Type: typ}
	}
	sort.Slice(dirEntries, func(i, j int) bool {
		return dirEntries[i].Name < dirEntries[j].Name
	})
	return dirEntries, nil
}

// File implements both fs.Node and fs.HandleReader for one regular file
// within the mounted volume.
type File struct {
	fs   *VolumeFS
	path string
	size uint64
}

func (f *File) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = 0444
	a.Size = f.size
	return nil
}

// Read reads the whole file from the backing Volume and serves the
// requested window out of it. The Volume contract has no partial-read
// operation, so this is a whole-file read per request; acceptable for a
// read-only exploration tool over files of forensic-case size.
func (f *File) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	f.fs.mtx.Lock()
	data, err := f.fs.vol.ReadFile(f.path)
	f.fs.mtx.Unlock()
	if err != nil {
		return err
	}

	offset := req.Offset
	if offset >= int64(len(data)) {
		resp.Data = []byte{}
		return nil
	}

	end := offset + int64(req.Size)
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	resp.Data = data[offset:end]
	return nil
}
