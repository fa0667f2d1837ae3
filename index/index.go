package index

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/drpcorg/widerow/rows"
	"github.com/drpcorg/widerow/utils"
	"github.com/drpcorg/widerow/widerow_errors"
	lru "github.com/hashicorp/golang-lru/v2"
	pkgerrors "github.com/pkg/errors"
)

type Options struct {
	// Columns lists the indexed columns.
	Columns   []string
	CacheSize int
	Sync      bool
	Logger    utils.Logger
	Pebble    pebble.Options
}

func (o *Options) SetDefaults() {
	if o.CacheSize <= 0 {
		o.CacheSize = 10000
	}
}

type Index struct {
	db      *pebble.DB
	columns []string
	wo      *pebble.WriteOptions
	cache   *lru.Cache[string, []DocRef]
	log     utils.Logger
}

func Open(dir string, opts Options) (*Index, error) {
	opts.SetDefaults()
	popts := opts.Pebble
	db, err := pebble.Open(dir, &popts)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "open index at %s", dir)
	}
	cache, _ := lru.New[string, []DocRef](opts.CacheSize)
	columns := slices.Clone(opts.Columns)
	slices.Sort(columns)
	return &Index{
		db:      db,
		columns: slices.Compact(columns),
		wo:      &pebble.WriteOptions{Sync: opts.Sync},
		cache:   cache,
		log:     opts.Logger,
	}, nil
}

func (ix *Index) Close() error {
	if ix.db == nil {
		return widerow_errors.ErrClosed
	}
	err := ix.db.Close()
	ix.db = nil
	return err
}

func (ix *Index) Database() *pebble.DB {
	return ix.db
}

func (ix *Index) Columns() []string {
	return ix.columns
}

func (ix *Index) Indexes(column string) bool {
	_, ok := slices.BinarySearch(ix.columns, column)
	return ok
}

// NeedsReadBeforeWrite is false for a fragment that carries a cell for
// every indexed column. A fragment missing one may be masking or revealing
// stored cells; a pure row deletion carries none.
func (ix *Index) NeedsReadBeforeWrite(row *rows.Row) bool {
	for _, column := range ix.columns {
		if row.Cell(column) == nil {
			return true
		}
	}
	return false
}

// Terms returns the indexed terms of the row's cells live at now.
func (ix *Index) Terms(row *rows.Row, now time.Time) []Term {
	var terms []Term
	for _, cell := range row.LiveCells(now) {
		if ix.Indexes(cell.Column) {
			terms = append(terms, Term{Column: cell.Column, Value: cell.Value})
		}
	}
	return terms
}

// removeDoc stages the removal of the stored document and its postings.
// It returns the terms the document had.
func (ix *Index) removeDoc(batch *pebble.Batch, pk []byte, ck rows.Clustering) ([]Term, error) {
	key := docKey(pk, ck)
	val, closer, err := ix.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	terms, err := decodeTerms(val)
	_ = closer.Close()
	if err != nil {
		return nil, err
	}
	for _, term := range terms {
		if err := batch.Delete(postingKey(term.Column, term.Value, pk, ck), nil); err != nil {
			return nil, err
		}
	}
	PostingsRemoved.Add(float64(len(terms)))
	return terms, batch.Delete(key, nil)
}

func (ix *Index) commit(batch *pebble.Batch, touched []Term) error {
	err := batch.Commit(ix.wo)
	for _, term := range touched {
		ix.cache.Remove(term.cacheKey())
	}
	return err
}

// Upsert replaces the document of the row with the row's live indexed cells.
func (ix *Index) Upsert(ctx context.Context, pk []byte, row *rows.Row, now time.Time) error {
	if ix.db == nil {
		return widerow_errors.ErrClosed
	}
	batch := ix.db.NewBatch()
	defer batch.Close()
	old, err := ix.removeDoc(batch, pk, row.Clustering)
	if err != nil {
		return pkgerrors.Wrapf(err, "upsert %s: remove old document", row.Clustering)
	}
	terms := ix.Terms(row, now)
	for _, term := range terms {
		if err := batch.Set(postingKey(term.Column, term.Value, pk, row.Clustering), term.Value, nil); err != nil {
			return pkgerrors.Wrapf(err, "upsert %s", row.Clustering)
		}
	}
	if err := batch.Set(docKey(pk, row.Clustering), encodeTerms(terms), nil); err != nil {
		return pkgerrors.Wrapf(err, "upsert %s", row.Clustering)
	}
	if err := ix.commit(batch, append(old, terms...)); err != nil {
		return pkgerrors.Wrapf(err, "upsert %s: commit", row.Clustering)
	}
	Writes.WithLabelValues("upsert").Inc()
	PostingsWritten.Add(float64(len(terms)))
	return nil
}

// Delete removes the document of the row, if any.
func (ix *Index) Delete(ctx context.Context, pk []byte, row *rows.Row) error {
	if ix.db == nil {
		return widerow_errors.ErrClosed
	}
	batch := ix.db.NewBatch()
	defer batch.Close()
	old, err := ix.removeDoc(batch, pk, row.Clustering)
	if err != nil {
		return pkgerrors.Wrapf(err, "delete %s", row.Clustering)
	}
	if err := ix.commit(batch, old); err != nil {
		return pkgerrors.Wrapf(err, "delete %s: commit", row.Clustering)
	}
	Writes.WithLabelValues("delete").Inc()
	return nil
}

// DeletePartition removes every document of the partition.
func (ix *Index) DeletePartition(ctx context.Context, pk []byte) error {
	if ix.db == nil {
		return widerow_errors.ErrClosed
	}
	prefix := docPrefix(pk)
	it, err := ix.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upperBound(prefix),
	})
	if err != nil {
		return pkgerrors.Wrap(err, "delete partition")
	}
	batch := ix.db.NewBatch()
	defer batch.Close()
	var touched []Term
	docs := 0
	for valid := it.First(); valid; valid = it.Next() {
		ck := rows.Clustering(it.Key()[len(prefix):])
		terms, err := decodeTerms(it.Value())
		if err != nil {
			_ = it.Close()
			return pkgerrors.Wrapf(err, "delete partition: document %s", ck)
		}
		for _, term := range terms {
			if err := batch.Delete(postingKey(term.Column, term.Value, pk, ck), nil); err != nil {
				_ = it.Close()
				return pkgerrors.Wrap(err, "delete partition")
			}
		}
		touched = append(touched, terms...)
		docs++
	}
	if err := errors.Join(it.Error(), it.Close()); err != nil {
		return pkgerrors.Wrap(err, "delete partition")
	}
	if docs == 0 {
		return nil
	}
	if err := batch.DeleteRange(prefix, upperBound(prefix), nil); err != nil {
		return pkgerrors.Wrap(err, "delete partition")
	}
	if err := ix.commit(batch, touched); err != nil {
		return pkgerrors.Wrap(err, "delete partition: commit")
	}
	Writes.WithLabelValues("delete_partition").Inc()
	PostingsRemoved.Add(float64(len(touched)))
	if ix.log != nil {
		ix.log.DebugCtx(ctx, "partition removed from index", "documents", docs, "postings", len(touched))
	}
	return nil
}

// Document returns the terms of an indexed row.
func (ix *Index) Document(pk []byte, ck rows.Clustering) (terms []Term, ok bool, err error) {
	if ix.db == nil {
		return nil, false, widerow_errors.ErrClosed
	}
	val, closer, err := ix.db.Get(docKey(pk, ck))
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()
	terms, err = decodeTerms(val)
	return terms, err == nil, err
}

// Lookup lists the documents holding value in column, sorted by partition
// and clustering.
func (ix *Index) Lookup(column string, value []byte) ([]DocRef, error) {
	if ix.db == nil {
		return nil, widerow_errors.ErrClosed
	}
	if !ix.Indexes(column) {
		return nil, errors.Join(widerow_errors.ErrUnknownColumn, fmt.Errorf("column %q", column))
	}
	term := Term{Column: column, Value: value}
	if refs, ok := ix.cache.Get(term.cacheKey()); ok {
		LookupCache.WithLabelValues("hit").Inc()
		return refs, nil
	}
	LookupCache.WithLabelValues("miss").Inc()
	prefix := termPrefix(column, value)
	it, err := ix.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upperBound(prefix),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "lookup")
	}
	defer it.Close()
	refs := []DocRef{}
	for valid := it.First(); valid; valid = it.Next() {
		if !bytes.Equal(it.Value(), value) {
			continue
		}
		ref, ok := parseDocSuffix(it.Key()[len(prefix):])
		if !ok {
			return nil, errors.Join(widerow_errors.ErrBadRow, fmt.Errorf("posting key %x", it.Key()))
		}
		refs = append(refs, ref)
	}
	if err := it.Error(); err != nil {
		return nil, pkgerrors.Wrap(err, "lookup")
	}
	slices.SortFunc(refs, compareDocRefs)
	ix.cache.Add(term.cacheKey(), refs)
	return refs, nil
}
