// Package storage keeps wide-row partitions in Pebble.
//
// Row fragments are written with Pebble merges; the registered merger
// reconciles every stored version of a row with rows.Merge, so a partial
// update never needs a read to be persisted. Partition deletions are kept
// as a single deletion time per partition and are applied to rows at read
// time.
package storage

import (
	"context"
	"encoding/binary"
	"iter"
	"slices"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/drpcorg/widerow/rows"
	"github.com/drpcorg/widerow/utils"
	"github.com/drpcorg/widerow/widerow_errors"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

var ErrClosed = widerow_errors.ErrClosed

type Options struct {
	Comparator rows.Comparator
	// Sync makes every commit wait for the WAL fsync.
	Sync   bool
	Logger utils.Logger
	// Pebble is the base engine configuration; the merger is always ours.
	Pebble pebble.Options
}

func (o *Options) SetDefaults() {
	if o.Comparator == nil {
		o.Comparator = rows.Ascending
	}
}

type Table struct {
	db    *pebble.DB
	cmp   rows.Comparator
	wo    *pebble.WriteOptions
	log   utils.Logger
	locks *xsync.MapOf[string, *partitionLock]
}

func Open(dir string, opts Options) (*Table, error) {
	opts.SetDefaults()
	popts := opts.Pebble
	popts.Merger = Merger
	db, err := pebble.Open(dir, &popts)
	if err != nil {
		return nil, errors.Wrapf(err, "open table at %s", dir)
	}
	return &Table{
		db:    db,
		cmp:   opts.Comparator,
		wo:    &pebble.WriteOptions{Sync: opts.Sync},
		log:   opts.Logger,
		locks: xsync.NewMapOf[string, *partitionLock](),
	}, nil
}

func (t *Table) Close() error {
	if t.db == nil {
		return ErrClosed
	}
	err := t.db.Close()
	t.db = nil
	return err
}

func (t *Table) Database() *pebble.DB {
	return t.db
}

// Clusterings returns an empty key set in table order.
func (t *Table) Clusterings() *rows.KeySet {
	return rows.NewKeySet(t.cmp)
}

func (t *Table) Comparator() rows.Comparator {
	return t.cmp
}

// Batch collects the writes of one scope; nothing is visible before Commit.
type Batch struct {
	scope  *Scope
	b      *pebble.Batch
	newest int64
	done   bool
}

func (s *Scope) NewBatch() *Batch {
	return &Batch{scope: s, b: s.table.db.NewBatch()}
}

// DeletePartition shadows everything in the partition written at or before ts.
func (b *Batch) DeletePartition(ts int64) error {
	b.newest = max(b.newest, ts)
	return b.b.Merge(
		PartitionKey(b.scope.Partition),
		binary.BigEndian.AppendUint64(nil, uint64(ts)),
		nil,
	)
}

// PutRow merges a row fragment into the stored row. Static rows go to the
// partition static row.
func (b *Batch) PutRow(row *rows.Row) error {
	key := StaticKey(b.scope.Partition)
	if !row.Static {
		key = RowKey(b.scope.Partition, row.Clustering)
	}
	_, newest := row.Timestamps()
	b.newest = max(b.newest, newest)
	return b.b.Merge(key, rows.Encode(row), nil)
}

func (b *Batch) Empty() bool {
	return b.b.Empty()
}

// Commit applies the batch. Later reads in the scope see it.
func (b *Batch) Commit() error {
	if b.done {
		return nil
	}
	defer b.Close()
	if b.scope.snap != nil {
		_ = b.scope.snap.Close()
		b.scope.snap = nil
	}
	if b.b.Empty() {
		return nil
	}
	if b.newest > 0 {
		err := b.b.Merge(WatermarkKey(b.scope.Partition), binary.BigEndian.AppendUint64(nil, uint64(b.newest)), nil)
		if err != nil {
			return errors.Wrap(err, "commit batch")
		}
	}
	return errors.Wrap(b.b.Commit(b.scope.table.wo), "commit batch")
}

// Close drops an uncommitted batch.
func (b *Batch) Close() error {
	if b.done {
		return nil
	}
	b.done = true
	return b.b.Close()
}

func getRow(reader pebble.Reader, key []byte) (*rows.Row, error) {
	val, closer, err := reader.Get(key)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return rows.Decode(val)
}

func partitionDeletion(reader pebble.Reader, pk []byte) (int64, error) {
	return getTime(reader, PartitionKey(pk))
}

func getTime(reader pebble.Reader, key []byte) (int64, error) {
	val, closer, err := reader.Get(key)
	if err == pebble.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer closer.Close()
	if len(val) != 8 {
		return 0, widerow_errors.ErrBadRow
	}
	return int64(binary.BigEndian.Uint64(val)), nil
}

// Watermark returns the newest write time committed to the partition of
// the scope, 0 for a partition never written. Every stored cell, marker and
// deletion of the partition is at or before it.
func (t *Table) Watermark(scope *Scope) (int64, error) {
	if t.db == nil {
		return 0, ErrClosed
	}
	ts, err := getTime(t.db, WatermarkKey(scope.Partition))
	return ts, errors.Wrap(err, "read watermark")
}

// Get returns the stored row with the partition deletion applied, or nil.
func (t *Table) Get(pk []byte, ck rows.Clustering) (*rows.Row, error) {
	if t.db == nil {
		return nil, ErrClosed
	}
	return t.get(t.db, pk, RowKey(pk, ck))
}

func (t *Table) GetStatic(pk []byte) (*rows.Row, error) {
	if t.db == nil {
		return nil, ErrClosed
	}
	return t.get(t.db, pk, StaticKey(pk))
}

func (t *Table) get(reader pebble.Reader, pk, key []byte) (*rows.Row, error) {
	pdel, err := partitionDeletion(reader, pk)
	if err != nil {
		return nil, errors.Wrap(err, "read partition deletion")
	}
	row, err := getRow(reader, key)
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read row")
	}
	return row.Purge(pdel), nil
}

// Read yields the stored versions of keys as seen at now, in key set order.
// Keys never written are skipped.
func (t *Table) Read(ctx context.Context, pk []byte, keys *rows.KeySet, now time.Time, scope *Scope) iter.Seq2[*rows.Row, error] {
	return func(yield func(*rows.Row, error) bool) {
		if t.db == nil {
			yield(nil, ErrClosed)
			return
		}
		reader := scope.Reader()
		pdel, err := partitionDeletion(reader, pk)
		if err != nil {
			yield(nil, errors.Wrap(err, "read partition deletion"))
			return
		}
		for ck := range keys.All() {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			row, err := getRow(reader, RowKey(pk, ck))
			if err == pebble.ErrNotFound {
				continue
			}
			if err != nil {
				yield(nil, errors.Wrapf(err, "read row %s", ck))
				return
			}
			if !yield(row.Purge(pdel).Expire(now), nil) {
				return
			}
		}
	}
}

// Scan lists the clusterings stored in the partition of the scope within
// [from, to) in table order. A nil bound is open.
func (t *Table) Scan(scope *Scope, from, to rows.Clustering) ([]rows.Clustering, error) {
	prefix := RowKey(scope.Partition, nil)
	it, err := t.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upperBound(prefix),
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan partition")
	}
	defer it.Close()
	var keys []rows.Clustering
	for valid := it.First(); valid; valid = it.Next() {
		ck := RowKeyClustering(scope.Partition, it.Key())
		if from != nil && t.cmp(ck, from) < 0 {
			continue
		}
		if to != nil && t.cmp(ck, to) >= 0 {
			continue
		}
		keys = append(keys, ck)
	}
	slices.SortFunc(keys, t.cmp)
	return keys, errors.Wrap(it.Error(), "scan partition")
}
