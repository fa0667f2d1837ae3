package widerow

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/drpcorg/widerow/index"
	"github.com/drpcorg/widerow/rows"
	"github.com/drpcorg/widerow/storage"
	"github.com/drpcorg/widerow/utils"
	"github.com/drpcorg/widerow/writer"
)

// Service serves the index writer of one mutation from the row table and
// the index. watermark is the newest write time the partition had before
// the mutation was committed.
type Service struct {
	table     *storage.Table
	index     *index.Index
	log       utils.Logger
	watermark int64
	now       time.Time
	seen      map[string]struct{}
}

var _ writer.Service = (*Service)(nil)

func NewService(table *storage.Table, ix *index.Index, log utils.Logger, watermark int64, now time.Time) *Service {
	return &Service{
		table:     table,
		index:     ix,
		log:       log,
		watermark: watermark,
		now:       now,
		seen:      make(map[string]struct{}),
	}
}

func (s *Service) Clusterings() *rows.KeySet {
	return s.table.Clusterings()
}

// NeedsReadBeforeWrite is false only for a fragment that settles its row on
// its own: it is the first fragment of the row in the mutation, it carries
// every indexed column, everything in it is newer than anything stored in
// the partition, and it is live. Stored cells then lose to it and the row
// stays live whatever else is stored.
func (s *Service) NeedsReadBeforeWrite(key []byte, row *rows.Row) bool {
	ck := string(row.Clustering)
	_, again := s.seen[ck]
	s.seen[ck] = struct{}{}
	if again || s.index.NeedsReadBeforeWrite(row) {
		return true
	}
	oldest, _ := row.Timestamps()
	return oldest <= s.watermark || !row.HasLiveData(s.now)
}

func (s *Service) Read(ctx context.Context, key []byte, keys *rows.KeySet, now time.Time, scope writer.Scope) iter.Seq2[*rows.Row, error] {
	sc, ok := scope.(*storage.Scope)
	if !ok {
		return func(yield func(*rows.Row, error) bool) {
			yield(nil, fmt.Errorf("unexpected scope %T", scope))
		}
	}
	return s.table.Read(ctx, key, keys, now, sc)
}

func (s *Service) Upsert(ctx context.Context, key []byte, row *rows.Row, now time.Time) error {
	return s.index.Upsert(ctx, key, row, now)
}

func (s *Service) Delete(ctx context.Context, key []byte, row *rows.Row) error {
	return s.index.Delete(ctx, key, row)
}

func (s *Service) DeletePartition(ctx context.Context, key []byte) error {
	return s.index.DeletePartition(ctx, key)
}

func (s *Service) Logger() utils.Logger {
	return s.log
}
