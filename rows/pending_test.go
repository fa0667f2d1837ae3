package rows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingTableInsertionOrder(t *testing.T) {
	table := NewPendingTable()
	r2 := NewRow(Clustering("2"))
	table.Put(Clustering("3"), Pending{})
	table.Put(Clustering("1"), Resolved{Row: NewRow(Clustering("1"))})
	table.Put(Clustering("2"), Resolved{Row: r2})
	// overwrite keeps the first position
	table.Put(Clustering("3"), Resolved{Row: NewRow(Clustering("3"))})

	var keys []string
	for key := range table.All() {
		keys = append(keys, key.String())
	}
	assert.Equal(t, []string{"3", "1", "2"}, keys)

	res, ok := table.Get(Clustering("2"))
	require.True(t, ok)
	assert.Same(t, r2, res.(Resolved).Row)
}

func TestPendingTableOverwriteToPending(t *testing.T) {
	table := NewPendingTable()
	table.Put(Clustering("k"), Resolved{Row: NewRow(Clustering("k"))})
	table.Put(Clustering("k"), Pending{})
	res, ok := table.Get(Clustering("k"))
	require.True(t, ok)
	assert.IsType(t, Pending{}, res)
	assert.Equal(t, 1, table.Len())
}

func TestPendingTableClear(t *testing.T) {
	table := NewPendingTable()
	table.Put(Clustering("a"), Pending{})
	table.Clear()
	assert.Equal(t, 0, table.Len())
	_, ok := table.Get(Clustering("a"))
	assert.False(t, ok)

	table.Put(Clustering("b"), Pending{})
	var keys []string
	for key := range table.All() {
		keys = append(keys, key.String())
	}
	assert.Equal(t, []string{"b"}, keys)
}
