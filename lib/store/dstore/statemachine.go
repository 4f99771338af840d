package dstore

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ValentinKolb/dUID/lib/db"
	"github.com/ValentinKolb/dUID/lib/store"
	"github.com/ValentinKolb/dUID/lib/store/dstore/internal"
	sm "github.com/lni/dragonboat/v4/statemachine"
)

// --------------------------------------------------------------------------
// State Machine Implementation
// --------------------------------------------------------------------------

// RowStateMachine is a state machine implementation for Dragonboat RAFT
type RowStateMachine struct {
	replicaID uint64
	shardID   uint64
	database  db.RowDB // the actual dataStorage
}

// CreateStateMaschineFactory returns a function that can be used by dragenboat to create a new standmaschine for a node host
// The factory pattern is used to enable the caller to pass an interchangeable dbFactory
func CreateStateMaschineFactory(dbFactory store.DBFactory) func(shardID uint64, replicaID uint64) sm.IConcurrentStateMachine {
	return func(shardID uint64, replicaID uint64) sm.IConcurrentStateMachine {
		return &RowStateMachine{
			replicaID: replicaID,
			shardID:   shardID,
			database:  dbFactory(),
		}
	}
}

// Lookup handles read-only queries by mapping each Query operation to the corresponding RowDB method.
func (fsm *RowStateMachine) Lookup(itf interface{}) (interface{}, error) {

	// try to parse Query into Query struct
	q, ok := itf.(internal.Query)
	if !ok {
		return nil, store.NewError(store.RetCInternalError, fmt.Sprintf("invalid Query type: %T", itf))
	}

	switch q.Type {
	case internal.QueryTGet:
		if !fsm.database.SupportsFeature(db.FeatureGet) {
			return nil, store.NewError(store.RetCUnsupportedOperation, "Get operation is not supported")
		}
		row, ok := fsm.database.Get(q.ObjType, q.ID)
		if !ok {
			return (*db.Row)(nil), nil
		}
		return &row, nil
	case internal.QueryTSelect:
		if !fsm.database.SupportsFeature(db.FeatureSelect) {
			return nil, store.NewError(store.RetCUnsupportedOperation, "Select operation is not supported")
		}
		if err := q.Condition.Validate(); err != nil {
			return nil, store.NewError(store.RetCInvalidOperation, err.Error())
		}
		return fsm.database.Select(q.ObjType, q.Condition), nil
	case internal.QueryTGetDBInfo:
		return fsm.database.GetInfo(), nil
	default:
		return nil, store.NewError(store.RetCInvalidOperation, fmt.Sprintf("unknown Query operation: %d", q.Type))
	}
}

// Update handles write commands on the RowDB instance
// All write operations are serialized into []byte and are accessible via the entries struct
func (fsm *RowStateMachine) Update(entries []sm.Entry) ([]sm.Entry, error) {

	// Nothing to do
	if len(entries) == 0 {
		return entries, nil
	}

	// Stats
	start := time.Now()

	for idx, e := range entries {
		entries[idx].Result = fsm.apply(e)
	}

	// Log if the update took long
	if elapsed := time.Since(start); elapsed > time.Millisecond {
		log.Infof("Statemashine took long to update. Batch updated %d entries, took %.2fms:", len(entries), float64(elapsed)/float64(time.Millisecond))
	}
	return entries, nil
}

// apply executes a single raft log entry. Errors are reported through the result,
// the store client converts them back into a *store.Error.
func (fsm *RowStateMachine) apply(e sm.Entry) sm.Result {
	if len(e.Cmd) == 0 {
		return sm.Result{Value: uint64(store.RetCInvalidOperation), Data: []byte("empty command ignored")}
	}

	cmd := internal.Command{}
	if err := cmd.Deserialize(e.Cmd); err != nil {
		return sm.Result{Value: uint64(store.RetCInternalError), Data: []byte(fmt.Sprintf("failed to deserialize command: %v", err))}
	}

	// Check if the db supports the operation
	feat, err := cmd.Type.ToDBFeature()
	if err != nil {
		return sm.Result{
			Value: uint64(store.RetCInvalidOperation),
			Data:  []byte(fmt.Sprintf("unknown Command operation: %s", cmd.Type)),
		}
	}
	if !fsm.database.SupportsFeature(feat) {
		return sm.Result{
			Value: uint64(store.RetCUnsupportedOperation),
			Data:  []byte(fmt.Sprintf("%s operation is not suported", cmd.Type)),
		}
	}

	switch cmd.Type {
	case internal.CommandTInsert:
		err = fsm.database.Insert(cmd.Rows(), e.Index)
	case internal.CommandTUpdate:
		err = fsm.database.Update(cmd.Mutations, e.Index)
	case internal.CommandTDelete:
		err = fsm.database.Delete(cmd.Mutations, e.Index)
	case internal.CommandTNextValue:
		if cmd.Sequence == "" {
			return sm.Result{Value: uint64(store.RetCInvalidOperation), Data: []byte("sequence name is empty")}
		}
		v := fsm.database.NextValue(cmd.Sequence, e.Index)
		return sm.Result{Value: uint64(store.RetCSuccess), Data: internal.EncodeValue(v)}
	}

	if err != nil {
		var se *store.Error
		errors.As(store.FromDBError(err), &se)
		return sm.Result{Value: uint64(se.Code), Data: []byte(se.Msg)}
	}
	return sm.Result{
		Value: uint64(store.RetCSuccess),
		Data:  []byte(fmt.Sprintf("%s: %d rows", cmd.Type, len(cmd.Mutations))),
	}
}

// PrepareSnapshot is not used. We don't need to prepare anything since we use fuzzy snapshotting
func (fsm *RowStateMachine) PrepareSnapshot() (interface{}, error) {
	return nil, nil
}

// SaveSnapshot saves a fuzzy db snapshot to the writer
func (fsm *RowStateMachine) SaveSnapshot(_ interface{}, writer io.Writer, _ sm.ISnapshotFileCollection, _ <-chan struct{}) error {
	if !fsm.database.SupportsFeature(db.FeatureSave) {
		return fmt.Errorf("the used RowDB implemantation does not supports Save() operations")
	}
	return fsm.database.Save(writer)
}

// RecoverFromSnapshot restores the database from a snapshot.
func (fsm *RowStateMachine) RecoverFromSnapshot(r io.Reader, _ []sm.SnapshotFile, _ <-chan struct{}) error {
	if !fsm.database.SupportsFeature(db.FeatureLoad) {
		return fmt.Errorf("the used RowDB implemantation does not supports Load() operations")
	}
	return fsm.database.Load(r)
}

// Close performs any necessary cleanup.
func (fsm *RowStateMachine) Close() error {
	return fsm.database.Close()
}
