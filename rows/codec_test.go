package rows

import (
	"bytes"
	"testing"

	"github.com/drpcorg/widerow/widerow_errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	row := &Row{
		Clustering: Clustering("2024-01-01"),
		Liveness:   Liveness{Timestamp: 1000, ExpiresAt: 2000},
		Deletion:   10,
		Cells: []Cell{
			{Column: "body", Value: bytes.Repeat([]byte("x"), 300), Timestamp: 1001},
			{Column: "gone", Timestamp: 1002, Tombstone: true},
			{Column: "title", Value: []byte("hi"), Timestamp: 1003, ExpiresAt: 5000},
		},
	}
	decoded, err := Decode(Encode(row))
	require.NoError(t, err)
	assert.Equal(t, row, decoded)
}

func TestEncodeDecodeStatic(t *testing.T) {
	row := &Row{Static: true, Cells: []Cell{{Column: "owner", Value: []byte("me"), Timestamp: 1}}}
	decoded, err := Decode(Encode(row))
	require.NoError(t, err)
	assert.True(t, decoded.Static)
	assert.Empty(t, decoded.Clustering)
	assert.Equal(t, []byte("me"), decoded.Cell("owner").Value)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte{0x01, 0x02, 0x03})
	assert.ErrorIs(t, err, widerow_errors.ErrBadRow)

	data := Encode(NewRow(Clustering("k"), Cell{Column: "a", Value: []byte("v"), Timestamp: 1}))
	_, err = Decode(data[:len(data)-2])
	assert.ErrorIs(t, err, widerow_errors.ErrBadRow)
}
