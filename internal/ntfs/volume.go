package ntfs

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/sscafiti/volex/internal/verrors"
	"github.com/sscafiti/volex/internal/vfs"
)

// Volume is the vfs.Volume implementation for an NTFS filesystem. Unlike
// FAT32, the whole directory tree is built once at open and never
// mutated afterwards.
type Volume struct {
	dev  vfs.BlockDevice
	boot *BootSector
	tree *Tree

	volumeName string
	cwd        *Record
}

// Open reads the boot sector, locates the self-describing MFT record,
// derives the record count from its $DATA run, decodes every record in
// range, and builds the directory tree.
// Open is OpenWithProgress with no progress reporting.
func Open(dev vfs.BlockDevice) (*Volume, error) {
	return OpenWithProgress(dev, nil)
}

// OpenWithProgress is Open, additionally invoking onProgress after each MFT
// record is read so a caller enumerating a large volume can show feedback.
// onProgress may be nil.
func OpenWithProgress(dev vfs.BlockDevice, onProgress vfs.ProgressFunc) (*Volume, error) {
	bootRaw := make([]byte, 512)
	if _, err := dev.ReadAt(bootRaw, 0); err != nil {
		return nil, verrors.Wrap(verrors.KindIO, "reading NTFS boot sector", err)
	}
	boot, err := ParseBootSector(bootRaw)
	if err != nil {
		return nil, err
	}

	recordSize := boot.RecordSizeBytes()
	mftOffset := boot.MftOffset()

	mft0Raw := make([]byte, recordSize)
	if _, err := dev.ReadAt(mft0Raw, mftOffset); err != nil {
		return nil, verrors.Wrap(verrors.KindIO, "reading MFT self-description record", err)
	}
	mft0, err := ParseRecord(mft0Raw)
	if err != nil {
		return nil, verrors.Wrap(verrors.KindCorruptRecord, "parsing MFT self-description record", err)
	}
	if mft0.Data.Kind != DataNonResident {
		return nil, verrors.New(verrors.KindCorruptRecord, "MFT self-description record has no non-resident $DATA run")
	}

	mftTotalBytes := mft0.Data.FirstRunClusterCount * uint64(boot.BytesPerCluster())
	recordCount := int64(mftTotalBytes) / recordSize

	records := make([]*Record, 0, recordCount)
	raw := make([]byte, recordSize)
	for i := int64(0); i < recordCount; i++ {
		if _, err := dev.ReadAt(raw, mftOffset+i*recordSize); err != nil {
			break // truncated MFT region; enumerate what we could read
		}
		rec, err := ParseRecord(raw)
		if err == nil {
			records = append(records, rec)
		} // deleted, corrupt, or missing $FILE_NAME: skip

		if onProgress != nil {
			onProgress(i+1, recordCount)
		}
	}

	tree, err := BuildTree(records)
	if err != nil {
		return nil, err
	}

	return &Volume{
		dev:        dev,
		boot:       boot,
		tree:       tree,
		volumeName: fmt.Sprintf("NTFS-%08X", uint32(boot.SerialNumber)),
		cwd:        tree.Root(),
	}, nil
}

func splitPath(path string) []string {
	var out []string
	for _, seg := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		out = append(out, seg)
	}
	return out
}

func findChild(children []*Record, name string) *Record {
	for _, c := range children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// resolve walks path from the current directory: `.` is a no-op, `..`
// follows parent_id, a leading segment matching the volume name restarts
// at the tree root, and every other segment is a case-sensitive exact
// match against the current directory's children.
func (v *Volume) resolve(path string) (*Record, error) {
	segments := splitPath(path)
	cur := v.cwd

	if len(segments) > 0 && strings.EqualFold(segments[0], v.volumeName) {
		cur = v.tree.Root()
		segments = segments[1:]
	}

	for i, seg := range segments {
		isLast := i == len(segments)-1

		switch seg {
		case ".":
			continue
		case "..":
			if parent, ok := v.tree.ByID(cur.ParentID); ok {
				cur = parent
			}
			continue
		default:
			child := findChild(v.tree.Children(cur.FileID), seg)
			if child == nil {
				return nil, verrors.Newf(verrors.KindNotFound, "no such file or directory: %q", seg)
			}
			if !isLast && !child.IsDir {
				return nil, verrors.Newf(verrors.KindNotADirectory, "%q is not a directory", seg)
			}
			cur = child
		}
	}

	return cur, nil
}

// ChangeDir implements vfs.Volume.
func (v *Volume) ChangeDir(path string) error {
	rec, err := v.resolve(path)
	if err != nil {
		return err
	}
	if !rec.IsDir {
		return verrors.Newf(verrors.KindNotADirectory, "%q is not a directory", rec.Name)
	}
	v.cwd = rec
	return nil
}

// Cwd implements vfs.Volume.
func (v *Volume) Cwd() string {
	var names []string
	cur := v.cwd
	for cur.FileID != v.tree.Root().FileID {
		names = append([]string{cur.Name}, names...)
		parent, ok := v.tree.ByID(cur.ParentID)
		if !ok {
			break
		}
		cur = parent
	}
	if len(names) == 0 {
		return v.volumeName + `\`
	}
	return v.volumeName + `\` + strings.Join(names, `\`)
}

func dataSize(d DataDescriptor) uint64 {
	switch d.Kind {
	case DataResident:
		return uint64(len(d.Resident))
	case DataNonResident:
		return d.LogicalSize
	default:
		return 0
	}
}

// List implements vfs.Volume.
func (v *Volume) List(path string) (vfs.DirListing, error) {
	rec, err := v.resolve(path)
	if err != nil {
		return nil, err
	}
	if !rec.IsDir {
		return nil, verrors.Newf(verrors.KindNotADirectory, "%q is not a directory", rec.Name)
	}

	children := v.tree.Children(rec.FileID)
	out := make(vfs.DirListing, 0, len(children))
	for _, c := range children {
		flags := c.Attrs
		if c.IsDir {
			flags |= vfs.AttrDirectory
		}
		out = append(out, vfs.DirEntry{
			Name:     c.Name,
			Flags:    flags,
			Size:     dataSize(c.Data),
			Modified: c.Modified,
			Locator:  c.FileID,
		})
	}
	return out, nil
}

// ReadFile implements vfs.Volume.
func (v *Volume) ReadFile(path string) ([]byte, error) {
	rec, err := v.resolve(path)
	if err != nil {
		return nil, err
	}
	if rec.IsDir {
		return nil, verrors.Newf(verrors.KindIsADirectory, "%q is a directory", rec.Name)
	}

	switch rec.Data.Kind {
	case DataResident:
		out := make([]byte, len(rec.Data.Resident))
		copy(out, rec.Data.Resident)
		return out, nil

	case DataNonResident:
		runBytes := rec.Data.FirstRunClusterCount * uint64(v.boot.BytesPerCluster())
		if rec.Data.LogicalSize > runBytes {
			return nil, verrors.Newf(verrors.KindUnsupportedLayout,
				"%q needs %d bytes but the first data run only covers %d (multi-run files are unsupported)",
				rec.Name, rec.Data.LogicalSize, runBytes)
		}
		offset := rec.Data.FirstRunClusterOffset * int64(v.boot.BytesPerCluster())
		size := rec.Data.LogicalSize
		buf := make([]byte, size)
		if _, err := v.dev.ReadAt(buf, offset); err != nil {
			return nil, verrors.Wrap(verrors.KindIO, fmt.Sprintf("reading %q data run", rec.Name), err)
		}
		return buf, nil

	default:
		return nil, verrors.Newf(verrors.KindCorruptRecord, "%q has no $DATA attribute", rec.Name)
	}
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
	b.WriteString("filesystem:        NTFS\n")
	b.WriteString("volume name:       " + v.volumeName + "\n")
	b.WriteString("bytes per sector:  " + humanize.Comma(int64(v.boot.BytesPerSector)) + "\n")
	b.WriteString("sectors/cluster:   " + humanize.Comma(int64(v.boot.SectorsPerCluster)) + "\n")
	b.WriteString("cluster size:      " + humanize.Bytes(uint64(v.boot.BytesPerCluster())) + "\n")
	b.WriteString("mft record size:   " + humanize.Bytes(uint64(v.boot.RecordSizeBytes())) + "\n")
	b.WriteString("mft records:       " + humanize.Comma(int64(len(v.tree.byID))) + "\n")
	b.WriteString("volume size:       " + humanize.Bytes(v.boot.SectorsInVolume*uint64(v.boot.BytesPerSector)) + "\n")
	return b.String()
}

// Close implements vfs.Volume.
func (v *Volume) Close() error {
	if closer, ok := v.dev.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
