package fat32

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/sscafiti/volex/internal/verrors"
	"github.com/sscafiti/volex/internal/vfs"
	"github.com/sscafiti/volex/pkg/reader"
)

// Volume is the vfs.Volume implementation for a FAT32 filesystem. It holds
// the boot sector and FAT #0 in memory for the life of the volume and
// caches each directory it has read, keyed by the start cluster of that
// directory's cluster chain.
type Volume struct {
	dev  vfs.BlockDevice
	boot *BootSector
	fat  *Table

	dirCache map[uint32]*Directory

	// cwdClusters is the stack of directory clusters from the root (index 0)
	// down to the current directory (last index). cwdNames holds the
	// matching display names, one shorter since the root has none.
	cwdClusters []uint32
	cwdNames    []string
}

// Open reads the boot sector, loads FAT #0, and eagerly materializes the
// root directory.
func Open(dev vfs.BlockDevice) (*Volume, error) {
	bootRaw := make([]byte, BootSectorSize)
	if _, err := dev.ReadAt(bootRaw, 0); err != nil {
		return nil, verrors.Wrap(verrors.KindIO, "reading FAT32 boot sector", err)
	}
	boot, err := ParseBootSector(bootRaw)
	if err != nil {
		return nil, err
	}

	fatRaw := make([]byte, boot.FatRegionSize())
	if _, err := dev.ReadAt(fatRaw, boot.FatRegionOffset()); err != nil {
		return nil, verrors.Wrap(verrors.KindIO, "reading FAT region", err)
	}
	fat := DecodeTable(fatRaw, boot.TotalClusters())

	v := &Volume{
		dev:         dev,
		boot:        boot,
		fat:         fat,
		dirCache:    make(map[uint32]*Directory),
		cwdClusters: []uint32{boot.RootCluster},
	}

	if _, err := v.getDirectory(boot.RootCluster); err != nil {
		return nil, err
	}
	return v, nil
}

// effectiveCluster translates the FAT convention where a subdirectory's
// recorded start cluster of 0 means "the root directory".
func (v *Volume) effectiveCluster(c uint32) uint32 {
	if c == 0 {
		return v.boot.RootCluster
	}
	return c
}

func (v *Volume) getDirectory(cluster uint32) (*Directory, error) {
	cluster = v.effectiveCluster(cluster)
	if d, ok := v.dirCache[cluster]; ok {
		return d, nil
	}
	raw, err := v.readClusterChain(cluster)
	if err != nil {
		return nil, err
	}
	dir, err := ParseDirectory(raw)
	if err != nil {
		return nil, err
	}
	v.dirCache[cluster] = dir
	return dir, nil
}

// readClusterChain concatenates every cluster in the chain starting at
// start into one contiguous byte slice, via the same multi-reader splice
// the teacher uses to stitch together a recovered file's fragments.
func (v *Volume) readClusterChain(start uint32) ([]byte, error) {
	chain, err := v.fat.ChainFrom(start)
	if err != nil {
		return nil, err
	}

	clusterSize := v.boot.BytesPerCluster()
	readers := make([]io.ReadSeeker, len(chain))
	sizes := make([]int64, len(chain))
	for i, c := range chain {
		readers[i] = io.NewSectionReader(readerAtFunc(v.dev.ReadAt), v.boot.ClusterOffset(c), clusterSize)
		sizes[i] = clusterSize
	}

	mrs := reader.NewMultiReadSeeker(readers, sizes)
	out, err := io.ReadAll(mrs)
	if err != nil {
		return nil, verrors.Wrap(verrors.KindIO, "reading cluster chain", err)
	}
	return out, nil
}

// readerAtFunc adapts a ReadAt method value to io.ReaderAt.
type readerAtFunc func(p []byte, off int64) (int, error)

func (f readerAtFunc) ReadAt(p []byte, off int64) (int, error) { return f(p, off) }

// resolved is the outcome of walking a path from some starting directory.
type resolved struct {
	clusters []uint32 // directory stack after the walk (root..terminal dir)
	names    []string
	entry    *Entry // non-nil when the last segment named a concrete entry
}

func splitPath(path string) []string {
	var out []string
	for _, seg := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		out = append(out, seg)
	}
	return out
}

// resolve walks path from the current directory, whether or not it starts
// with a separator (leading and trailing separators are dropped, so "/SUB"
// and "SUB" resolve alike): case-insensitive segment lookup, `.` a no-op,
// `..` popping the directory stack.
func (v *Volume) resolve(path string) (resolved, error) {
	segments := splitPath(path)

	clusters := append([]uint32(nil), v.cwdClusters...)
	names := append([]string(nil), v.cwdNames...)
	var entry *Entry

	for i, seg := range segments {
		isLast := i == len(segments)-1
		entry = nil

		switch seg {
		case ".":
			continue
		case "..":
			if len(clusters) > 1 {
				clusters = clusters[:len(clusters)-1]
				names = names[:len(names)-1]
			}
			continue
		default:
			dir, err := v.getDirectory(clusters[len(clusters)-1])
			if err != nil {
				return resolved{}, err
			}
			found, ok := dir.Lookup(seg)
			if !ok {
				return resolved{}, verrors.Newf(verrors.KindNotFound, "no such file or directory: %q", seg)
			}
			if !isLast && !found.IsDir() {
				return resolved{}, verrors.Newf(verrors.KindNotADirectory, "%q is not a directory", seg)
			}
			e := found
			entry = &e
			if found.IsDir() {
				clusters = append(clusters, v.effectiveCluster(found.StartCluster()))
				names = append(names, found.Name())
			}
		}
	}

	return resolved{clusters: clusters, names: names, entry: entry}, nil
}

// ChangeDir implements vfs.Volume.
func (v *Volume) ChangeDir(path string) error {
	res, err := v.resolve(path)
	if err != nil {
		return err
	}
	if res.entry != nil && !res.entry.IsDir() {
		return verrors.Newf(verrors.KindNotADirectory, "%q is not a directory", res.entry.Name())
	}
	v.cwdClusters = res.clusters
	v.cwdNames = res.names
	return nil
}

// Cwd implements vfs.Volume.
func (v *Volume) Cwd() string {
	drive := v.boot.VolumeLabel
	if drive == "" {
		drive = "FAT32"
	}
	if len(v.cwdNames) == 0 {
		return drive + `:\`
	}
	return drive + `:\` + strings.Join(v.cwdNames, `\`)
}

// List implements vfs.Volume.
func (v *Volume) List(path string) (vfs.DirListing, error) {
	res, err := v.resolve(path)
	if err != nil {
		return nil, err
	}
	if res.entry != nil && !res.entry.IsDir() {
		return nil, verrors.Newf(verrors.KindNotADirectory, "%q is not a directory", res.entry.Name())
	}

	dir, err := v.getDirectory(res.clusters[len(res.clusters)-1])
	if err != nil {
		return nil, err
	}

	out := make(vfs.DirListing, 0, len(dir.Entries))
	for _, e := range dir.Active() {
		out = append(out, vfs.DirEntry{
			Name:     e.Name(),
			Flags:    e.Attr(),
			Size:     uint64(e.Size()),
			Modified: e.Modified(),
			Locator:  uint64(v.boot.ClusterOffset(v.effectiveCluster(e.StartCluster())) / int64(v.boot.BytesPerSector)),
		})
	}
	return out, nil
}

// ReadFile implements vfs.Volume.
func (v *Volume) ReadFile(path string) ([]byte, error) {
	res, err := v.resolve(path)
	if err != nil {
		return nil, err
	}
	if res.entry == nil {
		return nil, verrors.Newf(verrors.KindNotFound, "no file named in path %q", path)
	}
	if res.entry.IsDir() {
		return nil, verrors.Newf(verrors.KindIsADirectory, "%q is a directory", res.entry.Name())
	}

	data, err := v.readClusterChain(res.entry.StartCluster())
	if err != nil {
		return nil, err
	}
	size := int(res.entry.Size())
	if size < len(data) {
		data = data[:size]
	}
	return data, nil
}

// ReadTextFile implements vfs.Volume.
func (v *Volume) ReadTextFile(path string) (string, error) {
	data, err := v.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", verrors.Newf(verrors.KindNotText, "%q is not valid UTF-8 text", path)
	}
	return string(data), nil
}

// Describe implements vfs.Volume.
func (v *Volume) Describe() string {
	var b strings.Builder
	b.WriteString("filesystem:        FAT32\n")
	if v.boot.VolumeLabel != "" {
		b.WriteString("volume label:      " + v.boot.VolumeLabel + "\n")
	}
	b.WriteString("bytes per sector:  " + humanize.Comma(int64(v.boot.BytesPerSector)) + "\n")
	b.WriteString("sectors/cluster:   " + humanize.Comma(int64(v.boot.SectorsPerCluster)) + "\n")
	b.WriteString("cluster size:      " + humanize.Bytes(uint64(v.boot.BytesPerCluster())) + "\n")
	b.WriteString("fat count:         " + humanize.Comma(int64(v.boot.FatCount)) + "\n")
	b.WriteString("root cluster:      " + humanize.Comma(int64(v.boot.RootCluster)) + "\n")
	b.WriteString("total clusters:    " + humanize.Comma(int64(v.boot.TotalClusters())) + "\n")
	b.WriteString("volume size:       " + humanize.Bytes(uint64(v.boot.SectorsInVolume)*uint64(v.boot.BytesPerSector)) + "\n")
	return b.String()
}

// Close implements vfs.Volume.
func (v *Volume) Close() error {
	if closer, ok := v.dev.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
