package rows

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func collect(s *KeySet) []string {
	var out []string
	for key := range s.All() {
		out = append(out, key.String())
	}
	return out
}

func TestKeySetOrder(t *testing.T) {
	set := NewKeySet(Ascending)
	for _, k := range []string{"c", "a", "b", "a"} {
		set.Add(Clustering(k))
	}
	assert.Equal(t, []string{"a", "b", "c"}, collect(set))
	assert.Equal(t, 3, set.Len())
	assert.True(t, set.Contains(Clustering("b")))
	assert.False(t, set.Contains(Clustering("d")))
	assert.False(t, set.Add(Clustering("c")))
}

func TestKeySetComparator(t *testing.T) {
	set := NewKeySet(Descending)
	for _, k := range []string{"a", "c", "b"} {
		set.Add(Clustering(k))
	}
	assert.Equal(t, []string{"c", "b", "a"}, collect(set))

	byLen := NewKeySet(func(a, b Clustering) int { return len(a) - len(b) })
	byLen.Add(Clustering("ccc"))
	byLen.Add(Clustering("a"))
	byLen.Add(Clustering("bb"))
	assert.True(t, slices.Equal([]string{"a", "bb", "ccc"}, collect(byLen)))
}

func TestKeySetClear(t *testing.T) {
	set := NewKeySet(nil)
	set.Add(Clustering("a"))
	set.Clear()
	assert.True(t, set.IsEmpty())
	assert.Empty(t, collect(set))
	set.Add(Clustering("b"))
	assert.Equal(t, []string{"b"}, collect(set))
}
