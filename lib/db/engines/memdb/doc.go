// Package memdb implements db.RowDB as an in-memory database.
//
// Rows are kept in one xsync.MapOf per object type, keyed by id. Reads go
// directly to the maps. Writes are serialized by a single mutex so that a
// batch is validated completely against the current state before any row is
// changed: either the whole batch is applied or the database is untouched.
// Readers take the read side of that mutex, so a half applied batch is never
// visible.
//
// Per table statistics (row count, payload size distribution) are tracked
// with go-metrics and reported through GetInfo.
//
// Snapshots (Save / Load) are written as a short magic header followed by a
// JSON document with all sequences and rows. The format is only meant to
// round trip between memdb instances, e.g. for raft snapshots.
package memdb
