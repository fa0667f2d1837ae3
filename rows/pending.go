package rows

import "iter"

// Resolution is the state of one clustering in a PendingTable:
// either Pending or Resolved.
type Resolution interface {
	resolution()
}

// Pending marks a row whose final content is only known after a read.
type Pending struct{}

// Resolved carries the final content of a row.
type Resolved struct {
	Row *Row
}

func (Pending) resolution()  {}
func (Resolved) resolution() {}

// PendingTable maps clusterings to resolutions, remembering the order in
// which clusterings were first put. Overwriting keeps the original position.
type PendingTable struct {
	order   []Clustering
	entries map[string]Resolution
}

func NewPendingTable() *PendingTable {
	return &PendingTable{entries: make(map[string]Resolution)}
}

func (t *PendingTable) Put(key Clustering, res Resolution) {
	k := string(key)
	if _, ok := t.entries[k]; !ok {
		t.order = append(t.order, key)
	}
	t.entries[k] = res
}

func (t *PendingTable) Get(key Clustering) (Resolution, bool) {
	res, ok := t.entries[string(key)]
	return res, ok
}

func (t *PendingTable) Len() int {
	return len(t.order)
}

// All yields entries in first-put order.
func (t *PendingTable) All() iter.Seq2[Clustering, Resolution] {
	return func(yield func(Clustering, Resolution) bool) {
		for _, key := range t.order {
			if !yield(key, t.entries[string(key)]) {
				return
			}
		}
	}
}

func (t *PendingTable) Clear() {
	t.order = t.order[:0]
	clear(t.entries)
}
