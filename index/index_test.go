package index

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/drpcorg/widerow/rows"
	"github.com/drpcorg/widerow/widerow_errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Unix(1_700_000_000, 0)

func openIndex(t *testing.T, columns ...string) *Index {
	ix, err := Open("index", Options{
		Columns: columns,
		Pebble:  pebble.Options{FS: vfs.NewMem()},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

func row(ck string, cells ...rows.Cell) *rows.Row {
	return rows.NewRow(rows.Clustering(ck), cells...)
}

func cell(col, val string, ts int64) rows.Cell {
	return rows.Cell{Column: col, Value: []byte(val), Timestamp: ts}
}

func ref(pk, ck string) DocRef {
	return DocRef{Partition: []byte(pk), Clustering: rows.Clustering(ck)}
}

func TestNeedsReadBeforeWrite(t *testing.T) {
	ix := openIndex(t, "name", "city")
	assert.True(t, ix.NeedsReadBeforeWrite(row("1", cell("name", "a", 1))))
	assert.True(t, ix.NeedsReadBeforeWrite(row("1", cell("other", "a", 1))))
	assert.False(t, ix.NeedsReadBeforeWrite(row("1", cell("name", "a", 1), cell("city", "b", 1))))
	assert.False(t, ix.NeedsReadBeforeWrite(row("1",
		rows.Cell{Column: "name", Timestamp: 1, Tombstone: true},
		rows.Cell{Column: "city", Timestamp: 1, Tombstone: true},
	)))
	assert.True(t, ix.NeedsReadBeforeWrite(&rows.Row{Clustering: rows.Clustering("1"), Deletion: 3}))
	assert.True(t, ix.NeedsReadBeforeWrite(&rows.Row{
		Clustering: rows.Clustering("1"),
		Deletion:   3,
		Cells:      []rows.Cell{cell("name", "a", 4)},
	}))
}

func TestUpsertAndLookup(t *testing.T) {
	ctx := context.Background()
	ix := openIndex(t, "name", "city")
	require.NoError(t, ix.Upsert(ctx, []byte("p"), row("1", cell("name", "ann", 1), cell("city", "oslo", 1), cell("age", "30", 1)), now))
	require.NoError(t, ix.Upsert(ctx, []byte("p"), row("2", cell("name", "bob", 1), cell("city", "oslo", 1)), now))
	require.NoError(t, ix.Upsert(ctx, []byte("q"), row("1", cell("city", "oslo", 1)), now))

	refs, err := ix.Lookup("city", []byte("oslo"))
	require.NoError(t, err)
	assert.Equal(t, []DocRef{ref("p", "1"), ref("p", "2"), ref("q", "1")}, refs)

	terms, ok, err := ix.Document([]byte("p"), rows.Clustering("1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []Term{{Column: "city", Value: []byte("oslo")}, {Column: "name", Value: []byte("ann")}}, terms)

	_, err = ix.Lookup("age", []byte("30"))
	assert.ErrorIs(t, err, widerow_errors.ErrUnknownColumn)
}

func TestUpsertReplacesDocument(t *testing.T) {
	ctx := context.Background()
	ix := openIndex(t, "name")
	require.NoError(t, ix.Upsert(ctx, []byte("p"), row("1", cell("name", "ann", 1)), now))

	// warm the cache, the next upsert must drop it
	refs, err := ix.Lookup("name", []byte("ann"))
	require.NoError(t, err)
	assert.Len(t, refs, 1)

	require.NoError(t, ix.Upsert(ctx, []byte("p"), row("1", cell("name", "anna", 2)), now))
	refs, err = ix.Lookup("name", []byte("ann"))
	require.NoError(t, err)
	assert.Empty(t, refs)
	refs, err = ix.Lookup("name", []byte("anna"))
	require.NoError(t, err)
	assert.Equal(t, []DocRef{ref("p", "1")}, refs)
}

func TestUpsertSkipsDeadCells(t *testing.T) {
	ctx := context.Background()
	ix := openIndex(t, "name", "city")
	r := row("1",
		rows.Cell{Column: "name", Timestamp: 2, Tombstone: true},
		rows.Cell{Column: "city", Value: []byte("rome"), Timestamp: 2, ExpiresAt: now.Unix()},
		cell("age", "3", 2),
	)
	require.NoError(t, ix.Upsert(ctx, []byte("p"), r, now))
	terms, ok, err := ix.Document([]byte("p"), rows.Clustering("1"))
	require.NoError(t, err)
	assert.True(t, ok, "a live row keeps a document even without indexed values")
	assert.Empty(t, terms)
	refs, err := ix.Lookup("city", []byte("rome"))
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	ix := openIndex(t, "name")
	require.NoError(t, ix.Upsert(ctx, []byte("p"), row("1", cell("name", "ann", 1)), now))
	_, err := ix.Lookup("name", []byte("ann"))
	require.NoError(t, err)

	require.NoError(t, ix.Delete(ctx, []byte("p"), row("1")))
	_, ok, err := ix.Document([]byte("p"), rows.Clustering("1"))
	require.NoError(t, err)
	assert.False(t, ok)
	refs, err := ix.Lookup("name", []byte("ann"))
	require.NoError(t, err)
	assert.Empty(t, refs)

	// deleting a missing document is fine
	require.NoError(t, ix.Delete(ctx, []byte("p"), row("404")))
}

func TestDeletePartition(t *testing.T) {
	ctx := context.Background()
	ix := openIndex(t, "name")
	require.NoError(t, ix.Upsert(ctx, []byte("p"), row("1", cell("name", "ann", 1)), now))
	require.NoError(t, ix.Upsert(ctx, []byte("p"), row("2", cell("name", "ann", 1)), now))
	require.NoError(t, ix.Upsert(ctx, []byte("pp"), row("1", cell("name", "ann", 1)), now))

	require.NoError(t, ix.DeletePartition(ctx, []byte("p")))
	refs, err := ix.Lookup("name", []byte("ann"))
	require.NoError(t, err)
	assert.Equal(t, []DocRef{ref("pp", "1")}, refs)
	_, ok, err := ix.Document([]byte("p"), rows.Clustering("2"))
	require.NoError(t, err)
	assert.False(t, ok)

	// an empty partition is a no-op
	require.NoError(t, ix.DeletePartition(ctx, []byte("nothing")))
}

func TestLookupCache(t *testing.T) {
	ctx := context.Background()
	ix := openIndex(t, "name")
	require.NoError(t, ix.Upsert(ctx, []byte("p"), row("1", cell("name", "ann", 1)), now))
	hits := testutil.ToFloat64(LookupCache.WithLabelValues("hit"))
	_, err := ix.Lookup("name", []byte("ann"))
	require.NoError(t, err)
	_, err = ix.Lookup("name", []byte("ann"))
	require.NoError(t, err)
	assert.Equal(t, hits+1, testutil.ToFloat64(LookupCache.WithLabelValues("hit")))
}

func TestTermsCodec(t *testing.T) {
	terms := []Term{{Column: "a", Value: []byte("x")}, {Column: "b", Value: nil}}
	decoded, err := decodeTerms(encodeTerms(terms))
	require.NoError(t, err)
	assert.Equal(t, "a", decoded[0].Column)
	assert.Equal(t, []byte("x"), decoded[0].Value)
	assert.Empty(t, decoded[1].Value)

	_, err = decodeTerms([]byte{'Z'})
	assert.ErrorIs(t, err, widerow_errors.ErrBadRow)
}

func TestParseDocSuffix(t *testing.T) {
	got, ok := parseDocSuffix(docSuffix([]byte("part"), rows.Clustering("ck")))
	require.True(t, ok)
	assert.Equal(t, ref("part", "ck"), got)
	_, ok = parseDocSuffix([]byte{0, 9, 'x'})
	assert.False(t, ok)
}

func TestClosedIndex(t *testing.T) {
	ix, err := Open("index", Options{Pebble: pebble.Options{FS: vfs.NewMem()}})
	require.NoError(t, err)
	require.NoError(t, ix.Close())
	assert.ErrorIs(t, ix.Upsert(context.Background(), []byte("p"), row("1"), now), widerow_errors.ErrClosed)
	assert.ErrorIs(t, ix.Close(), widerow_errors.ErrClosed)
}
