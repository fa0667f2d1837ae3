package index

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/drpcorg/widerow/protocol"
	"github.com/drpcorg/widerow/rows"
	"github.com/drpcorg/widerow/widerow_errors"
)

type Term struct {
	Column string
	Value  []byte
}

func (t Term) cacheKey() string {
	return t.Column + "\x00" + string(t.Value)
}

func (t Term) String() string {
	return fmt.Sprintf("%s=%q", t.Column, t.Value)
}

// DocRef points at an indexed row.
type DocRef struct {
	Partition  []byte
	Clustering rows.Clustering
}

func (d DocRef) String() string {
	return fmt.Sprintf("%s/%s", d.Partition, d.Clustering)
}

func compareDocRefs(a, b DocRef) int {
	if c := bytes.Compare(a.Partition, b.Partition); c != 0 {
		return c
	}
	return bytes.Compare(a.Clustering, b.Clustering)
}

func encodeTerms(terms []Term) []byte {
	var buf []byte
	for _, term := range terms {
		buf = protocol.Append(buf, 'T',
			protocol.Record('N', []byte(term.Column)),
			protocol.Record('V', term.Value),
		)
	}
	return buf
}

func decodeTerms(data []byte) ([]Term, error) {
	var terms []Term
	for len(data) > 0 {
		body, rest, err := protocol.TakeWary('T', data)
		if err != nil {
			return nil, errors.Join(widerow_errors.ErrBadRow, err)
		}
		name, body, err := protocol.TakeWary('N', body)
		if err != nil {
			return nil, errors.Join(widerow_errors.ErrBadRow, err)
		}
		value, _, err := protocol.TakeWary('V', body)
		if err != nil {
			return nil, errors.Join(widerow_errors.ErrBadRow, err)
		}
		terms = append(terms, Term{Column: string(name), Value: append([]byte{}, value...)})
		data = rest
	}
	return terms, nil
}
