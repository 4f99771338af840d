// Package store provides the interface the persistence core uses to write
// objects: batch insert, batch update-by-condition, batch delete-by-condition,
// reads, and the named sequences that back id allocation.
// It serves as an abstraction layer over db.RowDB implementations and remote
// backends, adding write index management and standardized error reporting.
//
// Key Components:
//
//   - IStore Interface: The core abstraction. Batch methods take aligned
//     slices of payloads and conditions; each batch is applied all-or-nothing.
//
//   - Error System: A structured error reporting mechanism using typed error codes
//     (RetCode) and descriptive messages. FromDBError maps db errors to codes.
//
//   - DBFactory: A function type that abstracts the creation of underlying db.RowDB
//     instances.
//
// Implementations:
//
//   - Local Store (lstore): uses a db.RowDB directly. Single process only.
//
//   - Distributed Store (dstore): replicates every write through the Dragonboat
//     RAFT library. A batch is one raft proposal, and sequences are replicated
//     state, so all servers of a shard share one never repeating counter.
//
//   - PostgreSQL Store (pgstore): keeps rows in a table and draws sequence values
//     from PostgreSQL sequences (nextval). Batches run in one transaction.
//
//   - RPC Store (see rpc/client): forwards all calls to a dUID server.
package store
