// Package rows holds the wide-row data model shared by the storage table,
// the secondary index and the index writer.
//
// # Rows and liveness
//
// A Row is addressed by its Clustering inside a partition. It carries an
// optional primary key liveness marker, an optional row deletion time and
// a set of cells. Write times are microseconds; expiry times are unix
// seconds. A row has live data at a time point when the marker or at least
// one cell is newer than the row deletion, is not a tombstone and has not
// expired.
//
// Two versions of the same row are reconciled with Merge: cell by cell,
// the later write wins, a tombstone wins a tie.
//
// # Writer state
//
// KeySet is the ordered set of clusterings that must be read back from
// storage, ordered by the table Comparator. PendingTable maps clusterings to
// a Resolution in first-seen order; the order is the emission order of the
// index writer.
package rows
