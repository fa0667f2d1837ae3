package rows

import (
	"bytes"
	"iter"
	"slices"
)

// Clustering identifies a row inside a partition.
type Clustering []byte

func (c Clustering) String() string {
	return string(c)
}

// Comparator orders clusterings the way the table stores them.
type Comparator func(a, b Clustering) int

func Ascending(a, b Clustering) int {
	return bytes.Compare(a, b)
}

func Descending(a, b Clustering) int {
	return bytes.Compare(b, a)
}

// KeySet is a sorted set of clusterings. Not safe for concurrent use.
type KeySet struct {
	cmp  Comparator
	keys []Clustering
}

func NewKeySet(cmp Comparator) *KeySet {
	if cmp == nil {
		cmp = Ascending
	}
	return &KeySet{cmp: cmp}
}

func (s *KeySet) Comparator() Comparator {
	return s.cmp
}

// Add inserts key, reporting false if it was already there.
func (s *KeySet) Add(key Clustering) bool {
	i, ok := slices.BinarySearchFunc(s.keys, key, s.cmp)
	if ok {
		return false
	}
	s.keys = slices.Insert(s.keys, i, key)
	return true
}

func (s *KeySet) Contains(key Clustering) bool {
	_, ok := slices.BinarySearchFunc(s.keys, key, s.cmp)
	return ok
}

func (s *KeySet) Len() int {
	return len(s.keys)
}

func (s *KeySet) IsEmpty() bool {
	return len(s.keys) == 0
}

// All yields the keys in comparator order.
func (s *KeySet) All() iter.Seq[Clustering] {
	return slices.Values(s.keys)
}

func (s *KeySet) Clear() {
	s.keys = s.keys[:0]
}
