package index

import (
	"encoding/binary"

	"github.com/cespare/xxhash"
	"github.com/drpcorg/widerow/rows"
)

func appendLen(key []byte, b []byte) []byte {
	key = binary.BigEndian.AppendUint16(key, uint16(len(b)))
	return append(key, b...)
}

// docSuffix addresses a document: len + pk + clustering.
func docSuffix(pk []byte, ck rows.Clustering) []byte {
	return append(appendLen(make([]byte, 0, 2+len(pk)+len(ck)), pk), ck...)
}

func docKey(pk []byte, ck rows.Clustering) []byte {
	return append([]byte{'I', 'D'}, docSuffix(pk, ck)...)
}

func docPrefix(pk []byte) []byte {
	return appendLen([]byte{'I', 'D'}, pk)
}

func termPrefix(column string, value []byte) []byte {
	key := appendLen([]byte{'I', 'H'}, []byte(column))
	return binary.BigEndian.AppendUint64(key, xxhash.Sum64(value))
}

func postingKey(column string, value []byte, pk []byte, ck rows.Clustering) []byte {
	return append(termPrefix(column, value), docSuffix(pk, ck)...)
}

func parseDocSuffix(suffix []byte) (DocRef, bool) {
	if len(suffix) < 2 {
		return DocRef{}, false
	}
	n := int(binary.BigEndian.Uint16(suffix))
	if len(suffix) < 2+n {
		return DocRef{}, false
	}
	return DocRef{
		Partition:  append([]byte{}, suffix[2:2+n]...),
		Clustering: append(rows.Clustering{}, suffix[2+n:]...),
	}, true
}

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
