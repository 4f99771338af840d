package lstore

import (
	"sync/atomic"

	"github.com/ValentinKolb/dUID/lib/cond"
	"github.com/ValentinKolb/dUID/lib/db"
	"github.com/ValentinKolb/dUID/lib/store"
)

type storeImpl struct {
	db    db.RowDB
	index atomic.Uint64
}

// NewLocalStore creates a new local store instance.
// This store implementation is not distributed and only works on a single node.
func NewLocalStore(factory store.DBFactory) store.IStore {
	return &storeImpl{
		db:    factory(),
		index: atomic.Uint64{},
	}
}

// incAndGetIndex increments the index and returns the new value.
// It is used to ensure that each write operation has a unique index.
//
// Thread-safety: This method is thread-safe since it uses atomic operations.
func (s *storeImpl) incAndGetIndex() uint64 {
	return s.index.Add(1)
}

func (s *storeImpl) unsupported(op string) error {
	return store.NewError(store.RetCUnsupportedOperation, op+" operation is not supported")
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Insert(payloads []db.Row) error {
	if !s.db.SupportsFeature(db.FeatureInsert) {
		return s.unsupported("Insert")
	}
	return store.FromDBError(s.db.Insert(payloads, s.incAndGetIndex()))
}

func (s *storeImpl) BatchUpdate(payloads []db.Row, conditions []cond.Condition) error {
	if !s.db.SupportsFeature(db.FeatureUpdate) {
		return s.unsupported("BatchUpdate")
	}
	if err := store.CheckBatch(payloads, conditions); err != nil {
		return err
	}
	return store.FromDBError(s.db.Update(store.Mutations(payloads, conditions), s.incAndGetIndex()))
}

func (s *storeImpl) BatchDelete(payloads []db.Row, conditions []cond.Condition) error {
	if !s.db.SupportsFeature(db.FeatureDelete) {
		return s.unsupported("BatchDelete")
	}
	if err := store.CheckBatch(payloads, conditions); err != nil {
		return err
	}
	return store.FromDBError(s.db.Delete(store.Mutations(payloads, conditions), s.incAndGetIndex()))
}

func (s *storeImpl) Get(objType, id string) (db.Row, bool, error) {
	if !s.db.SupportsFeature(db.FeatureGet) {
		return db.Row{}, false, s.unsupported("Get")
	}
	row, ok := s.db.Get(objType, id)
	return row, ok, nil
}

func (s *storeImpl) Select(objType string, c cond.Condition) ([]db.Row, error) {
	if !s.db.SupportsFeature(db.FeatureSelect) {
		return nil, s.unsupported("Select")
	}
	if err := c.Validate(); err != nil {
		return nil, store.NewError(store.RetCInvalidOperation, err.Error())
	}
	return s.db.Select(objType, c), nil
}

func (s *storeImpl) NextValue(sequence string) (int64, error) {
	if !s.db.SupportsFeature(db.FeatureSequence) {
		return 0, s.unsupported("NextValue")
	}
	if sequence == "" {
		return 0, store.NewError(store.RetCInvalidOperation, "sequence name is empty")
	}
	return s.db.NextValue(sequence, s.incAndGetIndex()), nil
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	return s.db.GetInfo(), nil
}
