package ntfs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sscafiti/volex/internal/ntfs"
	"github.com/sscafiti/volex/internal/verrors"
	"github.com/sscafiti/volex/internal/vfs"
)

// buildNtfsVolumeImage assembles a minimal NTFS image with a 512-byte MFT
// record size (clusters_per_record = -9): record 0 is the self-describing
// $MFT entry (non-resident $DATA spanning 8 records), record 5 is the
// self-referential root directory, records 6 and 7 are files under the
// root. Records 1-4 are left zeroed and are skipped by the decoder as
// corrupt.
func buildNtfsVolumeImage(t *testing.T) *vfs.MemDevice {
	t.Helper()

	const (
		bytesPerSector    = 512
		sectorsPerCluster = 1
		clustersPerRecord = -9
		mftStartCluster   = 4
		recordCount       = 8
	)

	bootRaw := buildBootSector(bytesPerSector, sectorsPerCluster, 10_000, mftStartCluster, clustersPerRecord, 0xABCD1234)
	boot, err := ntfs.ParseBootSector(bootRaw)
	require.NoError(t, err)

	recordSize := int(boot.RecordSizeBytes())
	mftOffset := int(boot.MftOffset())

	img := make([]byte, mftOffset+recordCount*recordSize)
	copy(img, bootRaw)

	rec0, off := baseRecord(0, false)
	off = writeStandardInformation(rec0, off, 1, 1, 0x20)
	off = writeFileName(rec0, off, 1, "$MFT")
	off = writeNonResidentData(rec0, off, uint64(recordCount*recordSize), 0, uint64(recordCount))
	writeEndMarker(rec0, off)
	copy(img[mftOffset:], rec0)

	rec5, off := baseRecord(5, true)
	off = writeStandardInformation(rec5, off, 1, 1, 0x10)
	off = writeFileName(rec5, off, 5, ".")
	off = writeIndexRoot(rec5, off)
	writeEndMarker(rec5, off)
	copy(img[mftOffset+5*recordSize:], rec5)

	rec6, off := baseRecord(6, false)
	off = writeStandardInformation(rec6, off, 1, 1, 0x20)
	off = writeFileName(rec6, off, 5, "file.txt")
	off = writeResidentData(rec6, off, []byte("hello ntfs volume"))
	writeEndMarker(rec6, off)
	copy(img[mftOffset+6*recordSize:], rec6)

	// declared 5000 bytes but only one run cluster (512 bytes) backing it
	rec7, off := baseRecord(7, false)
	off = writeStandardInformation(rec7, off, 1, 1, 0x20)
	off = writeFileName(rec7, off, 5, "big.bin")
	off = writeNonResidentData(rec7, off, 5000, 0, 1)
	writeEndMarker(rec7, off)
	copy(img[mftOffset+7*recordSize:], rec7)

	return vfs.NewMemDevice(img)
}

func TestNtfsVolumeOpenAndListRoot(t *testing.T) {
	dev := buildNtfsVolumeImage(t)
	vol, err := ntfs.Open(dev)
	require.NoError(t, err)

	listing, err := vol.List("")
	require.NoError(t, err)
	require.Len(t, listing, 2)
	byName := map[string]vfs.DirEntry{}
	for _, e := range listing {
		byName[e.Name] = e
	}
	require.EqualValues(t, len("hello ntfs volume"), byName["file.txt"].Size)
	require.EqualValues(t, 5000, byName["big.bin"].Size)
}

func TestNtfsVolumeOpenWithProgressReportsEveryRecord(t *testing.T) {
	dev := buildNtfsVolumeImage(t)
	var calls []int64
	vol, err := ntfs.OpenWithProgress(dev, func(done, total int64) {
		calls = append(calls, done)
		require.EqualValues(t, 8, total)
	})
	require.NoError(t, err)
	require.NotNil(t, vol)
	require.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8}, calls)
}

func TestNtfsVolumeReadFile(t *testing.T) {
	dev := buildNtfsVolumeImage(t)
	vol, err := ntfs.Open(dev)
	require.NoError(t, err)

	data, err := vol.ReadFile("file.txt")
	require.NoError(t, err)
	require.Equal(t, "hello ntfs volume", string(data))

	text, err := vol.ReadTextFile("file.txt")
	require.NoError(t, err)
	require.Equal(t, "hello ntfs volume", text)
}

func TestNtfsVolumeChangeDirAndDotDot(t *testing.T) {
	dev := buildNtfsVolumeImage(t)
	vol, err := ntfs.Open(dev)
	require.NoError(t, err)

	require.Equal(t, vol.Cwd(), vol.Cwd()) // root cwd is stable across calls
	err = vol.ChangeDir("..")
	require.NoError(t, err) // at root, ".." resolves to the root itself (its parent_id is its own file_id)
}

func TestNtfsVolumeReadFileOnDirectoryFails(t *testing.T) {
	dev := buildNtfsVolumeImage(t)
	vol, err := ntfs.Open(dev)
	require.NoError(t, err)

	_, err = vol.ReadFile(".")
	require.Error(t, err)
}

func TestNtfsVolumeChangeDirIntoFileFails(t *testing.T) {
	dev := buildNtfsVolumeImage(t)
	vol, err := ntfs.Open(dev)
	require.NoError(t, err)

	err = vol.ChangeDir("file.txt")
	require.Error(t, err)
	var verr *verrors.Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, verrors.KindNotADirectory, verr.Kind)
}

func TestNtfsVolumeNotFound(t *testing.T) {
	dev := buildNtfsVolumeImage(t)
	vol, err := ntfs.Open(dev)
	require.NoError(t, err)

	_, err = vol.ReadFile("nope.txt")
	require.Error(t, err)
	var verr *verrors.Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, verrors.KindNotFound, verr.Kind)
}

func TestNtfsVolumeDescribeMentionsFilesystem(t *testing.T) {
	dev := buildNtfsVolumeImage(t)
	vol, err := ntfs.Open(dev)
	require.NoError(t, err)
	require.Contains(t, vol.Describe(), "NTFS")
}

func TestNtfsVolumeUnsupportedLayoutOnOversizedRun(t *testing.T) {
	dev := buildNtfsVolumeImage(t)
	vol, err := ntfs.Open(dev)
	require.NoError(t, err)

	_, err = vol.ReadFile("big.bin")
	require.Error(t, err)
	var verr *verrors.Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, verrors.KindUnsupportedLayout, verr.Kind)
}
