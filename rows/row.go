package rows

import (
	"bytes"
	"slices"
	"time"
)

type Cell struct {
	Column    string
	Value     []byte
	Timestamp int64
	// ExpiresAt is a unix time in seconds, 0 for cells that never expire.
	ExpiresAt int64
	Tombstone bool
}

func (c *Cell) expired(sec int64) bool {
	return c.ExpiresAt != 0 && sec >= c.ExpiresAt
}

// IsLive reports whether the cell survives a row deletion at time deletion
// and is visible at sec.
func (c *Cell) IsLive(deletion, sec int64) bool {
	return !c.Tombstone && c.Timestamp > deletion && !c.expired(sec)
}

// wins reports whether c supersedes other.
func (c *Cell) wins(other *Cell) bool {
	if c.Timestamp != other.Timestamp {
		return c.Timestamp > other.Timestamp
	}
	if c.Tombstone != other.Tombstone {
		return c.Tombstone
	}
	return bytes.Compare(c.Value, other.Value) > 0
}

// Liveness is the primary key marker written by full inserts.
// A zero Timestamp means no marker.
type Liveness struct {
	Timestamp int64
	ExpiresAt int64
}

func (l Liveness) IsEmpty() bool {
	return l.Timestamp == 0
}

func (l Liveness) IsLive(deletion, sec int64) bool {
	if l.IsEmpty() || l.Timestamp <= deletion {
		return false
	}
	return l.ExpiresAt == 0 || sec < l.ExpiresAt
}

type Row struct {
	Clustering Clustering
	// Static rows hold partition-wide columns, they have no clustering.
	Static   bool
	Liveness Liveness
	// Deletion shadows everything written at or before it, 0 is none.
	Deletion int64
	// Cells are kept sorted by column name.
	Cells []Cell
}

func NewRow(clustering Clustering, cells ...Cell) *Row {
	row := &Row{Clustering: clustering}
	for _, cell := range cells {
		row.SetCell(cell)
	}
	return row
}

func (r *Row) Cell(column string) *Cell {
	i, ok := slices.BinarySearchFunc(r.Cells, column, func(c Cell, name string) int {
		return compareStrings(c.Column, name)
	})
	if !ok {
		return nil
	}
	return &r.Cells[i]
}

// SetCell puts cell into the row, replacing a cell of the same column.
func (r *Row) SetCell(cell Cell) {
	i, ok := slices.BinarySearchFunc(r.Cells, cell.Column, func(c Cell, name string) int {
		return compareStrings(c.Column, name)
	})
	if ok {
		r.Cells[i] = cell
		return
	}
	r.Cells = slices.Insert(r.Cells, i, cell)
}

// IsRowDeletion reports a fragment that only deletes the row.
func (r *Row) IsRowDeletion() bool {
	return r.Deletion != 0 && r.Liveness.IsEmpty() && len(r.Cells) == 0
}

func (r *Row) HasLiveData(now time.Time) bool {
	sec := now.Unix()
	if r.Liveness.IsLive(r.Deletion, sec) {
		return true
	}
	for i := range r.Cells {
		if r.Cells[i].IsLive(r.Deletion, sec) {
			return true
		}
	}
	return false
}

// LiveCells returns the cells visible at now.
func (r *Row) LiveCells(now time.Time) []Cell {
	sec := now.Unix()
	var live []Cell
	for _, cell := range r.Cells {
		if cell.IsLive(r.Deletion, sec) {
			live = append(live, cell)
		}
	}
	return live
}

// Purge returns a copy of the row with everything written at or before
// deletion removed. The row deletion becomes the later of the two.
func (r *Row) Purge(deletion int64) *Row {
	out := &Row{
		Clustering: r.Clustering,
		Static:     r.Static,
		Liveness:   r.Liveness,
		Deletion:   max(r.Deletion, deletion),
	}
	if out.Liveness.Timestamp <= out.Deletion {
		out.Liveness = Liveness{}
	}
	for _, cell := range r.Cells {
		if cell.Timestamp > out.Deletion {
			out.Cells = append(out.Cells, cell)
		}
	}
	return out
}

// Expire returns a copy of the row as seen at now: expired cells turn into
// tombstones written at the same time, an expired marker is dropped.
func (r *Row) Expire(now time.Time) *Row {
	sec := now.Unix()
	out := r.Clone()
	if out.Liveness.ExpiresAt != 0 && sec >= out.Liveness.ExpiresAt {
		out.Liveness = Liveness{}
	}
	for i := range out.Cells {
		cell := &out.Cells[i]
		if !cell.Tombstone && cell.expired(sec) {
			*cell = Cell{Column: cell.Column, Timestamp: cell.Timestamp, Tombstone: true}
		}
	}
	return out
}

// Timestamps returns the oldest and the newest write time the fragment
// carries: cells, the marker and the row deletion. Both are 0 for an empty
// fragment.
func (r *Row) Timestamps() (oldest, newest int64) {
	see := func(ts int64) {
		if ts == 0 {
			return
		}
		if oldest == 0 || ts < oldest {
			oldest = ts
		}
		newest = max(newest, ts)
	}
	see(r.Liveness.Timestamp)
	see(r.Deletion)
	for i := range r.Cells {
		see(r.Cells[i].Timestamp)
	}
	return
}

func (r *Row) Clone() *Row {
	out := *r
	out.Clustering = slices.Clone(r.Clustering)
	out.Cells = slices.Clone(r.Cells)
	return &out
}

// Merge reconciles two versions of the same row. Neither input is modified.
func Merge(older, newer *Row) *Row {
	out := &Row{
		Clustering: older.Clustering,
		Static:     older.Static || newer.Static,
		Liveness:   older.Liveness,
		Deletion:   max(older.Deletion, newer.Deletion),
		Cells:      slices.Clone(older.Cells),
	}
	if len(out.Clustering) == 0 {
		out.Clustering = newer.Clustering
	}
	nl := newer.Liveness
	if nl.Timestamp > out.Liveness.Timestamp ||
		nl.Timestamp == out.Liveness.Timestamp && nl.ExpiresAt == 0 && out.Liveness.ExpiresAt != 0 {
		out.Liveness = nl
	}
	for _, cell := range newer.Cells {
		prev := out.Cell(cell.Column)
		if prev == nil || cell.wins(prev) {
			out.SetCell(cell)
		}
	}
	return out.Purge(out.Deletion)
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
