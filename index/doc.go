// Package index keeps the secondary index of a wide-row table.
//
// # Documents
//
// Every indexed row is a document addressed by partition key and
// clustering. A document lists the (column, value) terms of the row's live
// cells in the indexed columns. A row that is live but has no indexed values
// still gets an empty document.
//
// # Key layout in Pebble
//
// All keys start with 'I'. Partition keys and column names are prefixed
// with their u16 big-endian length.
//
//   - Document: "ID" + len + pk + clustering -> TLV list of terms
//
//   - Posting:  "IH" + len + column + xxhash64(value) + len + pk +
//     clustering -> raw value. The raw value is compared on lookup, so hash
//     collisions never surface.
//
// # Writes
//
// Upsert, Delete and DeletePartition each commit one Pebble batch: the
// postings of the previous document version are removed together with the
// document itself, so a document and its postings never disagree. There is
// no atomicity across calls.
//
// # Lookups
//
// Lookup resolves a column value to the documents holding it. Results are
// cached in an LRU; every write drops the cached entries of the terms it
// touches.
package index
