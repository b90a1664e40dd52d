package io_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	ioutil "github.com/sscafiti/volex/pkg/util/io"
)

func TestCopyFileWritesReaderContents(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out.bin")
	content := bytes.Repeat([]byte("forensic-data"), 4096)

	require.NoError(t, ioutil.CopyFile(target, bytes.NewReader(content)))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func TestCopyFileTruncatesExistingFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out.bin")
	require.NoError(t, os.WriteFile(target, []byte("old content that is long"), 0644))

	require.NoError(t, ioutil.CopyFile(target, bytes.NewReader([]byte("new"))))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "new", string(got))
}

func TestCopyFileFailsOnUnwritableDirectory(t *testing.T) {
	err := ioutil.CopyFile(filepath.Join(t.TempDir(), "missing-dir", "out.bin"), bytes.NewReader([]byte("x")))
	require.Error(t, err)
}
