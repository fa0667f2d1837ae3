package storage

import (
	"encoding/binary"

	"github.com/drpcorg/widerow/rows"
)

// Key layout, pk is prefixed with its u16 big-endian length:
//
//	'R' len pk clustering   -> encoded row
//	'S' len pk              -> encoded static row
//	'P' len pk              -> partition deletion time (u64 BE)
//	'W' len pk              -> newest write time in the partition (u64 BE)
const (
	prefixRow       = 'R'
	prefixStatic    = 'S'
	prefixPartition = 'P'
	prefixWatermark = 'W'
)

func partitionPrefix(lit byte, pk []byte) []byte {
	key := make([]byte, 0, 3+len(pk)+16)
	key = append(key, lit)
	key = binary.BigEndian.AppendUint16(key, uint16(len(pk)))
	return append(key, pk...)
}

func RowKey(pk []byte, ck rows.Clustering) []byte {
	return append(partitionPrefix(prefixRow, pk), ck...)
}

func StaticKey(pk []byte) []byte {
	return partitionPrefix(prefixStatic, pk)
}

func PartitionKey(pk []byte) []byte {
	return partitionPrefix(prefixPartition, pk)
}

func WatermarkKey(pk []byte) []byte {
	return partitionPrefix(prefixWatermark, pk)
}

// RowKeyClustering cuts the clustering off a row key of partition pk.
func RowKeyClustering(pk, key []byte) rows.Clustering {
	n := 3 + len(pk)
	if len(key) < n {
		return nil
	}
	return append(rows.Clustering{}, key[n:]...)
}

// upperBound returns the smallest key greater than every key with prefix.
func upperBound(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
