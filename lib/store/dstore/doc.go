// Package dstore keeps rows in a db.RowDB replicated by a Dragonboat raft shard.
// It implements store.IStore for deployments where several duid servers share one
// id space and object table.
//
// Every write call becomes exactly one raft proposal:
//
//	Insert, BatchUpdate, BatchDelete -> one Command holding the whole batch
//	NextValue                        -> one Command naming the sequence
//
// The state machine (RowStateMachine) applies a Command to its local RowDB and
// encodes the outcome in sm.Result.Value (0 = ok, otherwise a store.RetCode) and
// sm.Result.Data (the sequence value or an error message). A batch is one log
// entry, so every replica applies it all-or-nothing and the raft log index is
// used as the write index of the rows.
//
// Sequences live in the replicated state. Two clients of the same shard can
// therefore never draw the same value, which is what makes the block allocator
// safe across servers.
//
// Get and Select use SyncRead. GetDBInfo uses StaleRead since the numbers are
// informational only. Proposals and reads that fail with ErrSystemBusy are
// retried a few times before the error is returned.
//
// Snapshots are written with RowDB.Save and restored with RowDB.Load, so the
// shard can be rebuilt from snapshot plus log tail after a restart.
//
// Example:
//
//	nh, err := dragonboat.NewNodeHost(nodeHostConfig)
//	if err != nil { ... }
//
//	err = nh.StartConcurrentReplica(members, false,
//	    dstore.CreateStateMaschineFactory(func() db.RowDB { return memdb.NewMemDB() }),
//	    shardConfig)
//	if err != nil { ... }
//
//	s := dstore.NewDistributedStore(nh, shardID, 5*time.Second)
//
// For a single process use lstore, for durable storage outside raft use pgstore.
package dstore
