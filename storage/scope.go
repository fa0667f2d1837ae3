package storage

import (
	"context"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"
)

// Scope spans one write operation on one partition. It holds the partition
// lock, so writes of other operations on the partition wait until Close.
// Reads under the scope share one snapshot taken at the first read, which
// is after the operation has committed its own writes.
type Scope struct {
	ID        uuid.UUID
	Partition []byte

	table  *Table
	lock   *partitionLock
	snap   *pebble.Snapshot
	closed bool
}

// partitionLock is shared by the scopes of one partition. refs counts the
// scopes holding or waiting for it and only changes inside locks.Compute,
// so the entry leaves the map with its last scope.
type partitionLock struct {
	sync.Mutex
	refs int
}

// Begin opens a scope on partition pk, waiting for the partition lock.
func (t *Table) Begin(ctx context.Context, pk []byte) (*Scope, error) {
	if t.db == nil {
		return nil, ErrClosed
	}
	lock, _ := t.locks.Compute(string(pk), func(lock *partitionLock, loaded bool) (*partitionLock, bool) {
		if !loaded {
			lock = &partitionLock{}
		}
		lock.refs++
		return lock, false
	})
	lock.Lock()
	return &Scope{
		ID:        uuid.Must(uuid.NewV7()),
		Partition: pk,
		table:     t,
		lock:      lock,
	}, nil
}

func (s *Scope) Reader() pebble.Reader {
	if s.snap == nil {
		s.snap = s.table.db.NewSnapshot()
	}
	return s.snap
}

func (s *Scope) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var err error
	if s.snap != nil {
		err = s.snap.Close()
		s.snap = nil
	}
	s.lock.Unlock()
	s.table.locks.Compute(string(s.Partition), func(lock *partitionLock, loaded bool) (*partitionLock, bool) {
		if !loaded {
			return nil, true
		}
		lock.refs--
		return lock, lock.refs == 0
	})
	return err
}
