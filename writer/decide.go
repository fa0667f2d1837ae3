package writer

import (
	"time"

	"github.com/drpcorg/widerow/rows"
)

type Op byte

const (
	OpUpsert Op = 'U'
	OpDelete Op = 'D'
)

func (op Op) String() string {
	switch op {
	case OpUpsert:
		return "upsert"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

type Decision struct {
	Clustering rows.Clustering
	Op         Op
	Row        *rows.Row
}

// Decide turns a pending table into index operations, in table order.
// Rows still pending are skipped: nothing was persisted for them.
func Decide(table *rows.PendingTable, now time.Time) []Decision {
	decisions := make([]Decision, 0, table.Len())
	for clustering, res := range table.All() {
		resolved, ok := res.(rows.Resolved)
		if !ok {
			continue
		}
		op := OpDelete
		if resolved.Row.HasLiveData(now) {
			op = OpUpsert
		}
		decisions = append(decisions, Decision{
			Clustering: clustering,
			Op:         op,
			Row:        resolved.Row,
		})
	}
	return decisions
}
