// Package lstore implements store.IStore on top of a local db.RowDB.
//
// The store keeps its own write index, incremented atomically for every write,
// and hands it to the database as the logical timestamp of the change. All
// atomicity guarantees (all-or-nothing batches, unique sequence values) come
// from the database.
//
// Usage:
//
//	s := lstore.NewLocalStore(func() db.RowDB { return memdb.NewMemDB() })
//	seed, err := s.NextValue("objectidseed")
//
// The local store only serves a single process. To share sequences and rows
// between several processes, serve it through the rpc package or use dstore
// or pgstore.
package lstore
