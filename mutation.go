package widerow

import (
	"time"

	"github.com/drpcorg/widerow/rows"
)

// RangeDeletion deletes the rows in [From, To) in table order, written at
// Timestamp. A nil bound is open.
type RangeDeletion struct {
	From      rows.Clustering
	To        rows.Clustering
	Timestamp int64
}

func (rd *RangeDeletion) Contains(cmp rows.Comparator, ck rows.Clustering) bool {
	if rd.From != nil && cmp(ck, rd.From) < 0 {
		return false
	}
	return rd.To == nil || cmp(ck, rd.To) < 0
}

// Mutation is one write to one partition.
type Mutation struct {
	PartitionKey []byte
	// PartitionDeletion deletes the partition at this time, 0 for none.
	PartitionDeletion int64
	RangeDeletions    []RangeDeletion
	// Rows are fragments: inserts, updates, row deletions, static rows.
	Rows []*rows.Row
	// Timestamp is the write time of cells that carry none.
	Timestamp int64
}

// Timestamp converts a wall clock time to a write timestamp.
func Timestamp(t time.Time) int64 {
	return t.UnixMicro()
}

// fragment returns the row as written by the mutation: unstamped cells get
// the mutation timestamp and the mutation's own deletions are folded in.
// The caller's row is never modified.
func (m *Mutation) fragment(cmp rows.Comparator, row *rows.Row) *rows.Row {
	out := row.Clone()
	for i := range out.Cells {
		if out.Cells[i].Timestamp == 0 {
			out.Cells[i].Timestamp = m.Timestamp
		}
	}
	deletion := m.PartitionDeletion
	if !out.Static {
		for i := range m.RangeDeletions {
			if m.RangeDeletions[i].Contains(cmp, out.Clustering) {
				deletion = max(deletion, m.RangeDeletions[i].Timestamp)
			}
		}
	}
	out.Deletion = max(out.Deletion, deletion)
	return out
}
