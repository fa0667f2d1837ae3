// Provides common widerow errors definitions.
package widerow_errors

import "errors"

var (
	ErrReadFailure    = errors.New("widerow: batched read failed")
	ErrWriteFailure   = errors.New("widerow: index write failed")
	ErrWriterFinished = errors.New("widerow: index writer already finished")

	ErrClosed         = errors.New("widerow: database is not open")
	ErrBadRow         = errors.New("widerow: bad row encoding")
	ErrNoPartitionKey = errors.New("widerow: empty partition key")
	ErrUnknownColumn  = errors.New("widerow: column is not indexed")
	ErrBadOptions     = errors.New("widerow: bad options")
)
