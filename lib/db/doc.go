// Package db provides a standardized interface for row database implementations.
// It defines the RowDB interface that the stores (see package store) use to keep
// persisted objects and the sequences the id allocator draws its seeds from.
//
// The package focuses on:
//   - A unified interface for row operations addressed by (type, id)
//   - Conditional, all-or-nothing batch writes (update and delete by condition)
//   - Named, monotonically increasing sequences
//   - Feature discovery through capability flags
//   - Standardized persistence operations (Save, Load) used for raft snapshots
//
// Key Components:
//
//   - RowDB Interface: The core interface that all database implementations must satisfy.
//     Insert adds rows, Update and Delete take Mutations (a row plus the condition
//     that has to select its persisted version), Get and Select read rows and
//     NextValue advances a sequence.
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     can advertise through the SupportsFeature method.
//
//   - Database Information: The DatabaseInfo structure provides standardized
//     reporting on database state, including size statistics, implementation type,
//     and implementation-specific metadata.
//
// Note on write indexes:
//
//	All write operations take a write-index parameter. For the distributed store this
//	is the raft log index, which makes every replica apply the same writes with the
//	same indexes. It is stored on each row and is used to order snapshots.
//
// Implementations:
//
//   - memdb: in-memory engine built on xsync maps, see package engines/memdb.
package db
