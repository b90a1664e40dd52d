package mbr_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sscafiti/volex/internal/mbr"
)

func buildMBR(entries ...struct {
	typ   mbr.Type
	lba   uint32
	count uint32
}) []byte {
	data := make([]byte, 512)
	for i, e := range entries {
		off := 0x1BE + i*16
		data[off] = 0x00
		data[off+0x04] = byte(e.typ)
		binary.LittleEndian.PutUint32(data[off+0x08:], e.lba)
		binary.LittleEndian.PutUint32(data[off+0x0C:], e.count)
	}
	binary.LittleEndian.PutUint16(data[0x1FE:], 0xAA55)
	return data
}

func TestParseValidMBR(t *testing.T) {
	data := buildMBR(struct {
		typ   mbr.Type
		lba   uint32
		count uint32
	}{mbr.TypeFAT32LBA, 2048, 1_000_000})

	m, err := mbr.Parse(data)
	require.NoError(t, err)
	require.EqualValues(t, 0xAA55, m.ReadSignature())

	parts := m.FilesystemPartitions()
	require.Len(t, parts, 1)
	require.Equal(t, mbr.TypeFAT32LBA, parts[0].Type)
	require.EqualValues(t, 2048*512, parts[0].Offset())
	require.EqualValues(t, 1_000_000*512, parts[0].Size())
}

func TestParseRejectsMissingSignature(t *testing.T) {
	data := make([]byte, 512)
	_, err := mbr.Parse(data)
	require.Error(t, err)
}

func TestParseRejectsWrongLength(t *testing.T) {
	_, err := mbr.Parse(make([]byte, 100))
	require.Error(t, err)
}

func TestFilesystemPartitionsSkipsNonFilesystemTypes(t *testing.T) {
	data := buildMBR(
		struct {
			typ   mbr.Type
			lba   uint32
			count uint32
		}{mbr.TypeLinuxSwap, 1000, 500},
		struct {
			typ   mbr.Type
			lba   uint32
			count uint32
		}{mbr.TypeNTFSHPFSexFATQNX, 2000, 1000},
	)

	m, err := mbr.Parse(data)
	require.NoError(t, err)

	parts := m.FilesystemPartitions()
	require.Len(t, parts, 1)
	require.Equal(t, mbr.TypeNTFSHPFSexFATQNX, parts[0].Type)
}

func TestFilesystemPartitionsEmptyWhenNoEntries(t *testing.T) {
	data := buildMBR()
	m, err := mbr.Parse(data)
	require.NoError(t, err)
	require.Empty(t, m.FilesystemPartitions())
}

func TestPartitionEntryStringMentionsType(t *testing.T) {
	data := buildMBR(struct {
		typ   mbr.Type
		lba   uint32
		count uint32
	}{mbr.TypeFAT32LBA, 2048, 1000})

	m, err := mbr.Parse(data)
	require.NoError(t, err)
	require.Contains(t, m.PartitionEntries[0].String(), "FAT32")
}
