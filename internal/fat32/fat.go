package fat32

import (
	"encoding/binary"

	"github.com/sscafiti/volex/internal/verrors"
)

// End-of-chain and bad-cluster sentinels for 32-bit FAT entries. Only the
// low 28 bits are meaningful on disk and the top 4 bits are reserved;
// entries are compared here as full 32-bit values, without masking.
const (
	badCluster    = 0x0FFFFFF7
	endOfChainMin = 0x0FFFFFF8
)

// Table is the decoded FAT region: one little-endian uint32 per cluster.
type Table struct {
	entries       []uint32
	totalClusters uint32
}

// DecodeTable interprets raw (the bytes of FAT #0) as an array of
// little-endian 32-bit cluster entries. totalClusters bounds chain
// traversal against corrupt media.
func DecodeTable(raw []byte, totalClusters uint32) *Table {
	count := len(raw) / 4
	entries := make([]uint32, count)
	for i := 0; i < count; i++ {
		entries[i] = binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
	}
	return &Table{entries: entries, totalClusters: totalClusters}
}

func isEndOfChain(v uint32) bool {
	return v >= endOfChainMin || v == badCluster
}

// ChainFrom returns the finite sequence [start, fat[start], fat[fat[start]], …]
// stopping before the first entry that is an end-of-chain or bad-cluster
// sentinel. Free (0) or reserved (1) clusters appearing mid-chain are
// corruption, as is a chain longer than the volume's total cluster count.
func (t *Table) ChainFrom(start uint32) ([]uint32, error) {
	var chain []uint32
	cur := start
	limit := t.totalClusters
	if limit == 0 {
		limit = uint32(len(t.entries))
	}

	for {
		if uint32(len(chain)) >= limit {
			return nil, verrors.Newf(verrors.KindCorruptChain,
				"cluster chain from %d exceeds volume cluster count (%d)", start, t.totalClusters)
		}
		chain = append(chain, cur)

		if int(cur) < 0 || int(cur) >= len(t.entries) {
			return nil, verrors.Newf(verrors.KindCorruptChain, "cluster %d is out of range", cur)
		}
		next := t.entries[cur]
		if isEndOfChain(next) {
			return chain, nil
		}
		if next == 0 || next == 1 {
			return nil, verrors.Newf(verrors.KindCorruptChain,
				"cluster chain from %d hit reserved/free cluster %d mid-chain", start, next)
		}
		cur = next
	}
}
