package storage

import (
	"encoding/binary"
	"io"

	"github.com/cockroachdb/pebble"
	"github.com/drpcorg/widerow/rows"
	"github.com/pkg/errors"
)

const MergerName = "widerow.rows"

var Merger = &pebble.Merger{
	Name:  MergerName,
	Merge: merger,
}

func merger(key, value []byte) (pebble.ValueMerger, error) {
	var lit byte
	if len(key) > 0 {
		lit = key[0]
	}
	pma := PebbleMergeAdaptor{
		lit:  lit,
		vals: [][]byte{clone(value)},
	}
	return &pma, nil
}

// PebbleMergeAdaptor folds stored operands of one key, oldest first.
type PebbleMergeAdaptor struct {
	lit  byte
	vals [][]byte
}

func clone(value []byte) []byte {
	target := make([]byte, len(value))
	copy(target, value)
	return target
}

func (a *PebbleMergeAdaptor) MergeNewer(value []byte) error {
	a.vals = append(a.vals, clone(value))
	return nil
}

func (a *PebbleMergeAdaptor) MergeOlder(value []byte) error {
	a.vals = append([][]byte{clone(value)}, a.vals...)
	return nil
}

func (a *PebbleMergeAdaptor) Finish(includesBase bool) (res []byte, cl io.Closer, err error) {
	if len(a.vals) == 0 {
		return nil, nil, nil
	}
	if a.lit == prefixPartition || a.lit == prefixWatermark {
		return mergeTimes(a.vals), nil, nil
	}
	res, err = mergeRows(a.vals)
	return res, nil, err
}

func mergeTimes(vals [][]byte) []byte {
	var latest uint64
	for _, v := range vals {
		if len(v) == 8 {
			latest = max(latest, binary.BigEndian.Uint64(v))
		}
	}
	return binary.BigEndian.AppendUint64(nil, latest)
}

func mergeRows(vals [][]byte) ([]byte, error) {
	var acc *rows.Row
	for _, v := range vals {
		row, err := rows.Decode(v)
		if err != nil {
			return nil, errors.Wrap(err, "merge rows")
		}
		if acc == nil {
			acc = row
		} else {
			acc = rows.Merge(acc, row)
		}
	}
	return rows.Encode(acc), nil
}
