package storage

import (
	"encoding/binary"
	"testing"

	"github.com/drpcorg/widerow/rows"
	"github.com/drpcorg/widerow/widerow_errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeAdaptorOrder(t *testing.T) {
	key := RowKey([]byte("p"), rows.Clustering("1"))
	mid := rows.Encode(rows.NewRow(rows.Clustering("1"), cell("a", "mid", 2)))
	old := rows.Encode(rows.NewRow(rows.Clustering("1"), cell("a", "old", 1), cell("b", "kept", 1)))
	fresh := rows.Encode(&rows.Row{Clustering: rows.Clustering("1"), Deletion: 3})

	vm, err := merger(key, mid)
	require.NoError(t, err)
	require.NoError(t, vm.MergeOlder(old))
	require.NoError(t, vm.MergeNewer(fresh))
	res, closer, err := vm.Finish(true)
	require.NoError(t, err)
	assert.Nil(t, closer)

	row, err := rows.Decode(res)
	require.NoError(t, err)
	assert.Equal(t, int64(3), row.Deletion)
	assert.Empty(t, row.Cells)
}

func TestMergeAdaptorTimes(t *testing.T) {
	enc := func(ts uint64) []byte { return binary.BigEndian.AppendUint64(nil, ts) }
	for _, key := range [][]byte{PartitionKey([]byte("p")), WatermarkKey([]byte("p"))} {
		vm, err := merger(key, enc(7))
		require.NoError(t, err)
		require.NoError(t, vm.MergeNewer(enc(4)))
		require.NoError(t, vm.MergeOlder(enc(9)))
		res, _, err := vm.Finish(false)
		require.NoError(t, err)
		assert.Equal(t, uint64(9), binary.BigEndian.Uint64(res), "key %q", key)
	}
}

func TestMergeAdaptorBadRow(t *testing.T) {
	vm, err := merger(RowKey([]byte("p"), rows.Clustering("1")), []byte{0x01})
	require.NoError(t, err)
	_, _, err = vm.Finish(true)
	assert.ErrorIs(t, err, widerow_errors.ErrBadRow)
}
