// Package pgstore implements store.IStore on PostgreSQL using pgx.
//
// Rows live in a single table (DefaultTable) keyed by (type, id) with the
// fields kept as JSONB. Every batch runs in one transaction: each statement is
// restricted by its row condition and must affect exactly one row, otherwise
// the transaction is rolled back and the call fails with RetCNotFound or
// RetCConflict.
//
// Named sequences map to PostgreSQL sequences (prefixed with "duid_seq_") and
// are advanced with nextval, so any number of dUID processes connected to the
// same database share a never repeating counter. Values consumed by a rolled
// back transaction are lost, which only leaves gaps.
//
// Conditions are translated to SQL with all values passed as arguments. A
// missing field compares as NULL, so "eq" never matches it and "ne" always does.
package pgstore
