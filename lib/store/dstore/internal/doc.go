// Package internal provides the communication protocol structures and serialization
// logic for the dstore package. It defines the wire format used to transmit operations
// between the store client and the distributed state machine.
//
// This package is intended for internal use by the dstore implementation and should
// not be imported directly by external code.
//
// The package consists of two main components:
//
//   - Command System: Defines write operations (Insert, Update, Delete, NextValue)
//     that modify the state of the database. Every command carries a whole batch, is
//     proposed to the RAFT cluster, executed on the state machine, and produces a
//     result that is returned to the client.
//
//   - Query System: Defines read operations (Get, Select, GetDBInfo) that retrieve data from
//     the database without modifying its state. Queries are executed locally on the
//     statemachine and therefore do not require serialization.
//
// Command Format:
//
//	Commands are serialized into a binary header followed by a JSON body:
//
//	- 1 byte: Command type (Insert, Update, Delete, NextValue)
//	- 4 bytes: Sequence name length (uint32, big endian)
//	- N bytes: Sequence name (only present for NextValue)
//	- M bytes: JSON array of db.Mutation (only present for batch operations)
//
//	The result of a NextValue command carries the new value as 8 bytes (big endian)
//	in the result data. See EncodeValue and DecodeValue.
//
// Query Format:
//
//	Queries use a simpler structure as they are not persisted in the RAFT log:
//
//	- Type: The query operation to perform (Get, Select, GetDBInfo)
//	- ObjType, ID, Condition: The arguments of the query
//
// Type Mapping:
//
//	The package provides bidirectional mapping between:
//	- Command types and db.Feature (db.RowDB) flags for feature detection
//	- String representations for logging and debugging
//
// Thread Safety:
//
//	The types in this package are not thread-safe and should not be shared
//	across goroutines without external synchronization. However, this is not
//	typically an issue as the RAFT protocol ensures sequential processing of
//	commands on the state machine.
package internal
