// Package rpc lets processes on different hosts share one store, and with it
// the id sequence and the object rows.
//
// Subpackages:
//
//   - common: the Message protocol, server and client configuration, logging.
//
//   - transport: the transport abstraction and its HTTP implementation.
//
//   - serializer: JSON and gob encodings of Message.
//
//   - client: a store.IStore that forwards every call to a server shard.
//
//   - server: the server hosting lstore, dstore and pgstore shards.
package rpc
