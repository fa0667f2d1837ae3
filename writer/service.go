package writer

import (
	"context"
	"iter"
	"time"

	"github.com/drpcorg/widerow/rows"
	"github.com/drpcorg/widerow/utils"
)

// Scope is the storage token of one write operation. Batched reads run
// under it; the writer never looks inside.
type Scope any

// Service is what a writer needs from the table and its index.
type Service interface {
	// Clusterings returns an empty key set ordered by the table comparator.
	Clusterings() *rows.KeySet
	// NeedsReadBeforeWrite reports whether the fragment alone cannot tell
	// the final content of the row.
	NeedsReadBeforeWrite(key []byte, row *rows.Row) bool
	// Read yields the persisted rows for keys, at most one per key, in any
	// order. Keys with nothing persisted are left out.
	Read(ctx context.Context, key []byte, keys *rows.KeySet, now time.Time, scope Scope) iter.Seq2[*rows.Row, error]
	Upsert(ctx context.Context, key []byte, row *rows.Row, now time.Time) error
	Delete(ctx context.Context, key []byte, row *rows.Row) error
	DeletePartition(ctx context.Context, key []byte) error
	Logger() utils.Logger
}
