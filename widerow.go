// Package widerow keeps a secondary index consistent with a wide-row table.
//
// Every mutation is persisted to the row table first and then replayed
// through a writer.Wide, which decides per row whether the index can be
// updated from the mutation alone or needs the merged row read back.
package widerow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/drpcorg/widerow/index"
	"github.com/drpcorg/widerow/rows"
	"github.com/drpcorg/widerow/storage"
	"github.com/drpcorg/widerow/utils"
	"github.com/drpcorg/widerow/widerow_errors"
	"github.com/drpcorg/widerow/writer"
	"github.com/prometheus/client_golang/prometheus"
)

var ErrClosed = widerow_errors.ErrClosed

type DB struct {
	opts  Options
	log   utils.Logger
	table *storage.Table
	index *index.Index

	lock   sync.RWMutex
	closed bool
}

func Open(opts Options) (*DB, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	table, err := storage.Open(filepath.Join(opts.Dir, "rows"), storage.Options{
		Comparator: opts.Comparator(),
		Sync:       opts.Sync,
		Logger:     opts.Logger,
		Pebble:     opts.Pebble,
	})
	if err != nil {
		return nil, err
	}
	ix, err := index.Open(filepath.Join(opts.Dir, "index"), index.Options{
		Columns:   opts.IndexedColumns,
		CacheSize: opts.LookupCacheSize,
		Sync:      opts.Sync,
		Logger:    opts.Logger,
		Pebble:    opts.Pebble,
	})
	if err != nil {
		_ = table.Close()
		return nil, err
	}
	opts.Logger.Info("opened", "dir", opts.Dir, "indexed", ix.Columns(), "order", opts.ClusteringOrder)
	return &DB{
		opts:  opts,
		log:   opts.Logger,
		table: table,
		index: ix,
	}, nil
}

func (db *DB) Close() error {
	db.lock.Lock()
	defer db.lock.Unlock()
	if db.closed {
		return ErrClosed
	}
	db.closed = true
	return errors.Join(db.table.Close(), db.index.Close())
}

func (db *DB) Logger() utils.Logger {
	return db.log
}

func (db *DB) Options() Options {
	return db.opts
}

// Apply persists the mutation and brings the index up to date with it.
// A failed Apply may leave the index behind the table; applying the same
// mutation again repairs it.
func (db *DB) Apply(ctx context.Context, m Mutation) error {
	if len(m.PartitionKey) == 0 {
		return widerow_errors.ErrNoPartitionKey
	}
	db.lock.RLock()
	defer db.lock.RUnlock()
	if db.closed {
		return ErrClosed
	}

	scope, err := db.table.Begin(ctx, m.PartitionKey)
	if err != nil {
		return err
	}
	defer scope.Close()
	ctx = utils.WithDefaultArgs(ctx, "partition", string(m.PartitionKey), "op", scope.ID.String())

	watermark, err := db.table.Watermark(scope)
	if err != nil {
		return err
	}
	fragments, err := db.persist(scope, &m)
	if err != nil {
		db.log.ErrorCtx(ctx, "persist failed", "err", err)
		return err
	}

	now := db.opts.Clock()
	service := NewService(db.table, db.index, db.log, watermark, now)
	w := writer.NewWide(service, m.PartitionKey, now, scope)
	if m.PartitionDeletion != 0 {
		if err := w.OnPartitionDelete(ctx); err != nil {
			return err
		}
	}
	for _, row := range fragments {
		w.OnRowMutation(ctx, row)
	}
	if err := w.Finish(ctx); err != nil {
		return err
	}
	stats := w.Stats()
	db.log.DebugCtx(ctx, "applied",
		"fragments", len(fragments), "read", stats.Read,
		"upserts", stats.Upserts, "deletes", stats.Deletes)
	return nil
}

// persist writes the mutation in one batch and returns the row fragments
// it amounts to: a deletion for every stored row under a range deletion,
// then the mutation rows.
func (db *DB) persist(scope *storage.Scope, m *Mutation) ([]*rows.Row, error) {
	cmp := db.table.Comparator()
	batch := scope.NewBatch()
	defer batch.Close()

	if m.PartitionDeletion != 0 {
		if err := batch.DeletePartition(m.PartitionDeletion); err != nil {
			return nil, err
		}
	}
	var fragments []*rows.Row
	for _, rd := range m.RangeDeletions {
		keys, err := db.table.Scan(scope, rd.From, rd.To)
		if err != nil {
			return nil, err
		}
		for _, ck := range keys {
			fragments = append(fragments, &rows.Row{Clustering: ck, Deletion: rd.Timestamp})
		}
	}
	for _, row := range m.Rows {
		if !row.Static && row.Clustering == nil {
			return nil, errors.Join(widerow_errors.ErrBadRow, fmt.Errorf("row without clustering"))
		}
		fragments = append(fragments, m.fragment(cmp, row))
	}
	for _, row := range fragments {
		if err := batch.PutRow(row); err != nil {
			return nil, err
		}
	}
	return fragments, batch.Commit()
}

// Get returns the stored row, nil if there is none.
func (db *DB) Get(pk []byte, ck rows.Clustering) (*rows.Row, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	if db.closed {
		return nil, ErrClosed
	}
	return db.table.Get(pk, ck)
}

func (db *DB) GetStatic(pk []byte) (*rows.Row, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	if db.closed {
		return nil, ErrClosed
	}
	return db.table.GetStatic(pk)
}

func (db *DB) Lookup(column string, value []byte) ([]index.DocRef, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	if db.closed {
		return nil, ErrClosed
	}
	return db.index.Lookup(column, value)
}

func (db *DB) Document(pk []byte, ck rows.Clustering) ([]index.Term, bool, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	if db.closed {
		return nil, false, ErrClosed
	}
	return db.index.Document(pk, ck)
}

// Metrics returns the collectors of the writer, the index and both stores.
func (db *DB) Metrics() []prometheus.Collector {
	collectors := append(writer.Collectors(), index.Collectors()...)
	return append(collectors,
		storage.NewCollector(db.table.Database(), db.opts.Name+"_rows"),
		storage.NewCollector(db.index.Database(), db.opts.Name+"_index"),
	)
}
