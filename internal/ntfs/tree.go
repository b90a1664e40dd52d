package ntfs

import "github.com/sscafiti/volex/internal/verrors"

// Tree is the parent/child graph built once from a volume's successfully
// parsed MftRecords, keyed by file_id. Immutable after construction.
// Records are held by pointer in a file_id map, children in a separate
// file_id-keyed map, and the root as a plain pointer; the root is never
// linked as its own child, so its self-referencing parent_id builds no
// cycle.
type Tree struct {
	byID     map[uint64]*Record
	children map[uint64][]*Record
	root     *Record
}

// BuildTree indexes records by file_id and links each to its parent's
// children list. The unique record with parent_id == file_id is the root.
func BuildTree(records []*Record) (*Tree, error) {
	t := &Tree{
		byID:     make(map[uint64]*Record, len(records)),
		children: make(map[uint64][]*Record),
	}

	for _, r := range records {
		t.byID[r.FileID] = r
	}

	for _, r := range records {
		if r.ParentID == r.FileID {
			if t.root != nil {
				return nil, verrors.Newf(verrors.KindCorruptRecord,
					"multiple self-referential records (%d and %d)", t.root.FileID, r.FileID)
			}
			t.root = r
			continue
		}
		if _, ok := t.byID[r.ParentID]; ok {
			t.children[r.ParentID] = append(t.children[r.ParentID], r)
		}
	}

	if t.root == nil {
		return nil, verrors.New(verrors.KindCorruptRecord, "no self-referential root record found")
	}
	return t, nil
}

// Root returns the volume's root directory record.
func (t *Tree) Root() *Record { return t.root }

// ByID looks up a record by file_id.
func (t *Tree) ByID(id uint64) (*Record, bool) {
	r, ok := t.byID[id]
	return r, ok
}

// Children returns the records whose parent_id is id, in enumeration order.
func (t *Tree) Children(id uint64) []*Record {
	return t.children[id]
}
