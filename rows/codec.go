package rows

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/drpcorg/widerow/protocol"
	"github.com/drpcorg/widerow/widerow_errors"
)

// Row value layout, all records in long/short form:
//
//	K clustering
//	F flags (1 byte, bit 0 static)        optional
//	L marker timestamp, expiry (2x u64)   optional
//	D deletion (u64)                      optional
//	C cell*  ->  N name, T ts+expiry+tombstone, V value
const (
	litClustering = 'K'
	litFlags      = 'F'
	litLiveness   = 'L'
	litDeletion   = 'D'
	litCell       = 'C'
	litName       = 'N'
	litTime       = 'T'
	litValue      = 'V'
)

const flagStatic = 1

func Encode(row *Row) []byte {
	buf := protocol.Record(litClustering, row.Clustering)
	if row.Static {
		buf = protocol.Append(buf, litFlags, []byte{flagStatic})
	}
	if !row.Liveness.IsEmpty() {
		var l [16]byte
		binary.BigEndian.PutUint64(l[:8], uint64(row.Liveness.Timestamp))
		binary.BigEndian.PutUint64(l[8:], uint64(row.Liveness.ExpiresAt))
		buf = protocol.Append(buf, litLiveness, l[:])
	}
	if row.Deletion != 0 {
		buf = protocol.Append(buf, litDeletion, binary.BigEndian.AppendUint64(nil, uint64(row.Deletion)))
	}
	for i := range row.Cells {
		buf = protocol.Append(buf, litCell, encodeCell(&row.Cells[i]))
	}
	return buf
}

func encodeCell(cell *Cell) []byte {
	var t [17]byte
	binary.BigEndian.PutUint64(t[:8], uint64(cell.Timestamp))
	binary.BigEndian.PutUint64(t[8:16], uint64(cell.ExpiresAt))
	if cell.Tombstone {
		t[16] = 1
	}
	return protocol.Concat(
		protocol.Record(litName, []byte(cell.Column)),
		protocol.Record(litTime, t[:]),
		protocol.Record(litValue, cell.Value),
	)
}

func badRow(format string, args ...any) error {
	return errors.Join(widerow_errors.ErrBadRow, fmt.Errorf(format, args...))
}

func Decode(data []byte) (*Row, error) {
	row := &Row{}
	body, rest, err := protocol.TakeWary(litClustering, data)
	if err != nil {
		return nil, badRow("clustering: %w", err)
	}
	row.Clustering = append(Clustering{}, body...)
	for len(rest) > 0 {
		var lit byte
		lit, body, rest, err = protocol.TakeAnyWary(rest)
		if err != nil {
			return nil, badRow("record: %w", err)
		}
		switch lit {
		case litFlags:
			row.Static = len(body) > 0 && body[0]&flagStatic != 0
		case litLiveness:
			if len(body) != 16 {
				return nil, badRow("liveness length %d", len(body))
			}
			row.Liveness.Timestamp = int64(binary.BigEndian.Uint64(body[:8]))
			row.Liveness.ExpiresAt = int64(binary.BigEndian.Uint64(body[8:]))
		case litDeletion:
			if len(body) != 8 {
				return nil, badRow("deletion length %d", len(body))
			}
			row.Deletion = int64(binary.BigEndian.Uint64(body))
		case litCell:
			cell, err := decodeCell(body)
			if err != nil {
				return nil, err
			}
			row.SetCell(cell)
		default:
			return nil, badRow("unexpected record %c", lit)
		}
	}
	return row, nil
}

func decodeCell(data []byte) (cell Cell, err error) {
	name, rest, err := protocol.TakeWary(litName, data)
	if err != nil {
		return cell, badRow("cell name: %w", err)
	}
	t, rest, err := protocol.TakeWary(litTime, rest)
	if err != nil || len(t) != 17 {
		return cell, badRow("cell %s time", name)
	}
	value, _, err := protocol.TakeWary(litValue, rest)
	if err != nil {
		return cell, badRow("cell %s value: %w", name, err)
	}
	cell.Column = string(name)
	cell.Timestamp = int64(binary.BigEndian.Uint64(t[:8]))
	cell.ExpiresAt = int64(binary.BigEndian.Uint64(t[8:16]))
	cell.Tombstone = t[16] == 1
	if len(value) > 0 {
		cell.Value = append([]byte{}, value...)
	}
	return cell, nil
}
