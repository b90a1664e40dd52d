package vfs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sscafiti/volex/internal/fsio"
	"github.com/sscafiti/volex/internal/verrors"
	"github.com/sscafiti/volex/internal/vfs"
)

func writeTempFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "device.img")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestRawDeviceOpenReadsAndReportsSize(t *testing.T) {
	path := writeTempFile(t, []byte("0123456789"))

	dev, err := vfs.Open(fsio.Open, path)
	require.NoError(t, err)
	defer dev.Close()

	require.EqualValues(t, 10, dev.Size())

	buf := make([]byte, 4)
	n, err := dev.ReadAt(buf, 3)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, "3456", string(buf))
}

func TestRawDeviceReadPastEndIsIOError(t *testing.T) {
	path := writeTempFile(t, []byte("short"))

	dev, err := vfs.Open(fsio.Open, path)
	require.NoError(t, err)
	defer dev.Close()

	buf := make([]byte, 100)
	_, err = dev.ReadAt(buf, 0)
	require.Error(t, err)
	var verr *verrors.Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, verrors.KindIO, verr.Kind)
}

func TestRawDeviceOpenMissingFileIsIOError(t *testing.T) {
	_, err := vfs.Open(fsio.Open, filepath.Join(t.TempDir(), "nope.img"))
	require.Error(t, err)
	var verr *verrors.Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, verrors.KindIO, verr.Kind)
}

func TestRawDeviceCloseReleasesHandle(t *testing.T) {
	path := writeTempFile(t, []byte("data"))
	dev, err := vfs.Open(fsio.Open, path)
	require.NoError(t, err)
	require.NoError(t, dev.Close())
}

func TestWindowOffsetsReads(t *testing.T) {
	inner := vfs.NewMemDevice([]byte("ABCDEFGHIJ"))
	windowed := vfs.Window(inner, 3, 4) // "DEFG"

	require.EqualValues(t, 4, windowed.Size())

	buf := make([]byte, 2)
	n, err := windowed.ReadAt(buf, 1)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, "EF", string(buf))
}

func TestWindowSizeDefaultsToInnerRemainder(t *testing.T) {
	inner := vfs.NewMemDevice([]byte("ABCDEFGHIJ"))
	windowed := vfs.Window(inner, 3, -1)
	require.EqualValues(t, 7, windowed.Size())
}
