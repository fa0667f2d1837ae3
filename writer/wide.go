package writer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/drpcorg/widerow/rows"
	"github.com/drpcorg/widerow/widerow_errors"
)

type Stats struct {
	Read    int
	Upserts int
	Deletes int
	Skipped int
}

// Wide collects the row fragments of one partition mutation and settles
// them against the index once the mutation is done. A Wide belongs to a
// single operation and is not safe for concurrent use.
type Wide struct {
	service Service
	key     []byte
	now     time.Time
	scope   Scope

	toRead   *rows.KeySet
	rows     *rows.PendingTable
	finished bool
	stats    Stats
}

func NewWide(service Service, key []byte, now time.Time, scope Scope) *Wide {
	return &Wide{
		service: service,
		key:     key,
		now:     now,
		scope:   scope,
		toRead:  service.Clusterings(),
		rows:    rows.NewPendingTable(),
	}
}

// OnPartitionDelete drops the whole partition from the index and forgets
// every row seen so far. A finished writer returns ErrWriterFinished.
func (w *Wide) OnPartitionDelete(ctx context.Context) error {
	if w.finished {
		w.service.Logger().WarnCtx(ctx, "partition delete after finish refused")
		return widerow_errors.ErrWriterFinished
	}
	PartitionDeletes.Inc()
	err := w.service.DeletePartition(ctx, w.key)
	w.toRead.Clear()
	w.rows.Clear()
	if err != nil {
		Failures.WithLabelValues("partition_delete").Inc()
		return errors.Join(widerow_errors.ErrWriteFailure, fmt.Errorf("partition delete: %w", err))
	}
	return nil
}

// OnRowMutation records one row fragment. Static rows are ignored.
func (w *Wide) OnRowMutation(ctx context.Context, row *rows.Row) {
	if w.finished {
		w.service.Logger().WarnCtx(ctx, "row mutation after finish ignored", "clustering", row.Clustering.String())
		return
	}
	if row.Static {
		return
	}
	if w.service.NeedsReadBeforeWrite(w.key, row) {
		w.toRead.Add(row.Clustering)
		w.rows.Put(row.Clustering, rows.Pending{})
	} else {
		w.rows.Put(row.Clustering, rows.Resolved{Row: row})
	}
}

// Finish reads the rows that need it and writes every resolved row to the
// index in the order the rows first arrived. A read error aborts before any
// index write; a write error stops the loop, earlier writes stay applied.
func (w *Wide) Finish(ctx context.Context) error {
	if w.finished {
		return widerow_errors.ErrWriterFinished
	}
	w.finished = true
	start := time.Now()
	defer func() {
		FinishDuration.Observe(time.Since(start).Seconds())
	}()
	log := w.service.Logger()

	if !w.toRead.IsEmpty() {
		BatchedReads.Inc()
		log.DebugCtx(ctx, "reading rows before write", "keys", w.toRead.Len())
		for row, err := range w.service.Read(ctx, w.key, w.toRead, w.now, w.scope) {
			if err != nil {
				Failures.WithLabelValues("read").Inc()
				log.ErrorCtx(ctx, "batched read failed", "error", err)
				return errors.Join(widerow_errors.ErrReadFailure, err)
			}
			w.rows.Put(row.Clustering, rows.Resolved{Row: row})
			w.stats.Read++
			RowsRead.Inc()
		}
	}

	decisions := Decide(w.rows, w.now)
	w.stats.Skipped = w.rows.Len() - len(decisions)
	SkippedRows.Add(float64(w.stats.Skipped))
	for _, d := range decisions {
		var err error
		switch d.Op {
		case OpUpsert:
			err = w.service.Upsert(ctx, w.key, d.Row, w.now)
		case OpDelete:
			err = w.service.Delete(ctx, w.key, d.Row)
		}
		if err != nil {
			Failures.WithLabelValues(d.Op.String()).Inc()
			log.ErrorCtx(ctx, "index write failed", "op", d.Op.String(), "clustering", d.Clustering.String(), "error", err)
			return errors.Join(widerow_errors.ErrWriteFailure, fmt.Errorf("%s %s: %w", d.Op, d.Clustering, err))
		}
		Decisions.WithLabelValues(d.Op.String()).Inc()
		if d.Op == OpUpsert {
			w.stats.Upserts++
		} else {
			w.stats.Deletes++
		}
	}
	log.DebugCtx(ctx, "index writer finished",
		"read", w.stats.Read,
		"upserts", w.stats.Upserts,
		"deletes", w.stats.Deletes,
		"skipped", w.stats.Skipped,
	)
	return nil
}

func (w *Wide) Stats() Stats {
	return w.stats
}
