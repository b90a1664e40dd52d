package fat32_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sscafiti/volex/internal/fat32"
	"github.com/sscafiti/volex/internal/verrors"
	"github.com/sscafiti/volex/internal/vfs"
)

// buildVolumeImage assembles a minimal FAT32 image:
//
//	cluster 2 (root):    "SUB" (dir, cluster 3), "FILE.TXT" (cluster 4, "hello world")
//	cluster 3 (SUB):     "NESTED.TXT" (cluster 5, spans clusters 5 and 6)
//	cluster 5,6 (NESTED.TXT content, 700 bytes total, one cluster = 512 bytes)
func buildVolumeImage(t *testing.T) *vfs.MemDevice {
	t.Helper()

	const (
		bytesPerSector    = 512
		sectorsPerCluster = 1
		reservedSectors   = 1
		numFATs           = 1
		fatSize32         = 1 // 128 entries @ 4 bytes, plenty for 7 clusters
		rootCluster       = 2
	)

	bootRaw := buildBootSector(bytesPerSector, sectorsPerCluster, reservedSectors, numFATs, fatSize32, rootCluster, "TESTVOL")
	boot, err := fat32.ParseBootSector(bootRaw)
	require.NoError(t, err)

	fileContent := []byte("hello world")
	nestedContent := make([]byte, 700)
	for i := range nestedContent {
		nestedContent[i] = byte('A' + i%26)
	}

	rootDir := append(
		shortEntryBytes("SUB", "", vfs.AttrDirectory, 3, 0),
		shortEntryBytes("FILE", "TXT", 0, 4, uint32(len(fileContent)))...,
	)
	subDir := shortEntryBytes("NESTED", "TXT", 0, 5, uint32(len(nestedContent)))

	fatEntries := make([]uint32, 7)
	fatEntries[2] = 0x0FFFFFFF // root: single cluster
	fatEntries[3] = 0x0FFFFFFF // SUB: single cluster
	fatEntries[4] = 0x0FFFFFFF // FILE.TXT: single cluster
	fatEntries[5] = 6          // NESTED.TXT: cluster 5 -> 6
	fatEntries[6] = 0x0FFFFFFF
	fatRaw := encodeTable(fatEntries...)

	total := int(boot.ClusterOffset(7))
	img := make([]byte, total)
	copy(img, bootRaw)
	copy(img[boot.FatRegionOffset():], fatRaw)
	copy(img[boot.ClusterOffset(2):], rootDir)
	copy(img[boot.ClusterOffset(3):], subDir)
	copy(img[boot.ClusterOffset(4):], fileContent)
	copy(img[boot.ClusterOffset(5):], nestedContent[:512])
	copy(img[boot.ClusterOffset(6):], nestedContent[512:])

	return vfs.NewMemDevice(img)
}

func TestVolumeOpenAndListRoot(t *testing.T) {
	dev := buildVolumeImage(t)
	vol, err := fat32.Open(dev)
	require.NoError(t, err)

	listing, err := vol.List("")
	require.NoError(t, err)
	names := map[string]vfs.DirEntry{}
	for _, e := range listing {
		names[e.Name] = e
	}
	require.Contains(t, names, "SUB")
	require.True(t, names["SUB"].IsDir())
	require.Contains(t, names, "FILE.TXT")
	require.EqualValues(t, 11, names["FILE.TXT"].Size)
}

func TestVolumeReadFile(t *testing.T) {
	dev := buildVolumeImage(t)
	vol, err := fat32.Open(dev)
	require.NoError(t, err)

	data, err := vol.ReadFile("FILE.TXT")
	require.NoError(t, err)
	require.Equal(t, "hello world", string(data))

	text, err := vol.ReadTextFile("FILE.TXT")
	require.NoError(t, err)
	require.Equal(t, "hello world", text)
}

func TestVolumeReadFileAcrossClusterChain(t *testing.T) {
	dev := buildVolumeImage(t)
	vol, err := fat32.Open(dev)
	require.NoError(t, err)

	require.NoError(t, vol.ChangeDir("SUB"))
	data, err := vol.ReadFile("NESTED.TXT")
	require.NoError(t, err)
	require.Len(t, data, 700)
	require.Equal(t, byte('A'), data[0])
	require.Equal(t, byte('A'+699%26), data[699])
}

func TestVolumeChangeDirAndDotDot(t *testing.T) {
	dev := buildVolumeImage(t)
	vol, err := fat32.Open(dev)
	require.NoError(t, err)

	require.NoError(t, vol.ChangeDir("SUB"))
	require.Equal(t, `TESTVOL:\SUB`, vol.Cwd())

	require.NoError(t, vol.ChangeDir(".."))
	require.Equal(t, `TESTVOL:\`, vol.Cwd())
}

func TestVolumeReadFileOnDirectoryFails(t *testing.T) {
	dev := buildVolumeImage(t)
	vol, err := fat32.Open(dev)
	require.NoError(t, err)

	_, err = vol.ReadFile("SUB")
	require.Error(t, err)
	var verr *verrors.Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, verrors.KindIsADirectory, verr.Kind)
}

func TestVolumeChangeDirIntoFileFails(t *testing.T) {
	dev := buildVolumeImage(t)
	vol, err := fat32.Open(dev)
	require.NoError(t, err)

	err = vol.ChangeDir("FILE.TXT")
	require.Error(t, err)
	var verr *verrors.Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, verrors.KindNotADirectory, verr.Kind)
}

func TestVolumeNotFound(t *testing.T) {
	dev := buildVolumeImage(t)
	vol, err := fat32.Open(dev)
	require.NoError(t, err)

	_, err = vol.ReadFile("NOPE.TXT")
	require.Error(t, err)
	var verr *verrors.Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, verrors.KindNotFound, verr.Kind)
}

func TestVolumeDescribeMentionsFilesystem(t *testing.T) {
	dev := buildVolumeImage(t)
	vol, err := fat32.Open(dev)
	require.NoError(t, err)
	require.Contains(t, vol.Describe(), "FAT32")
}

