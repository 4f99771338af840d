package dstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ValentinKolb/dUID/lib/cond"
	"github.com/ValentinKolb/dUID/lib/db"
	"github.com/ValentinKolb/dUID/lib/store"
	"github.com/ValentinKolb/dUID/lib/store/dstore/internal"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/client"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	retries = 5
	log     = logger.GetLogger("store")
)

// storeImpl is the concrete implementation of the distributed store.
// It encapsulates a Dragonboat NodeHost which is used to communicate with the state machine.
type storeImpl struct {
	nh      *dragonboat.NodeHost
	shardID uint64
	cs      *client.Session
	timeout time.Duration
}

// NewDistributedStore creates a new distributed store instance which uses raft consensus to ensure strict linearizability
// across multiple nodes.
func NewDistributedStore(nh *dragonboat.NodeHost, shardID uint64, timeout time.Duration) store.IStore {
	cs := nh.GetNoOPSession(shardID)
	return &storeImpl{
		nh:      nh,
		shardID: shardID,
		cs:      cs,
		timeout: timeout,
	}
}

// --------------------------------------------------------------------------
// Internal write and read operations (used by interface methods)
// --------------------------------------------------------------------------

// write serializes a Command and sends it via SyncPropose.
// It returns the result data on success or a *store.Error.
func (s *storeImpl) write(cmd internal.Command) ([]byte, error) {
	data, err := cmd.Serialize()
	if err != nil {
		return nil, store.NewError(store.RetCInvalidOperation, err.Error())
	}

	for i := 0; i < retries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)

		res, err := s.nh.SyncPropose(ctx, s.cs, data)
		cancel()

		// Check for system busy errors
		if errors.Is(err, dragonboat.ErrSystemBusy) {
			log.Infof("SyncPropose: System busy, retrying (%d/%d)...", i+1, retries)
			time.Sleep(s.timeout / 10)
			continue
		}

		if err != nil {
			return nil, store.NewError(store.RetCInternalError, err.Error())
		}
		if res.Value != uint64(store.RetCSuccess) {
			return nil, store.NewError(store.RetCode(res.Value), string(res.Data))
		}
		return res.Data, nil
	}
	return nil, store.NewError(store.RetCInternalError, "timeout")
}

// read is a generic helper function queries the statemachine
// and attempts to convert the response into the expected type R.
//
// This function uses the SyncRead function (dragenboat) by default to Query the state machine.
// If linearizability is not required, the stale parameter can be set to true to use the faster StaleRead function.
//
// Is the read operation fails due to a system busy error, the function retries up to 5 times.
//
// It returns the response of type R and a error (nil on success).
func read[R any](r *storeImpl, q internal.Query, stale bool) (R, error) {
	var zero R
	for i := 0; i < retries; i++ {

		var res interface{}
		var err error

		// Query the standmaschine, use StaleRead if stale is set otherwise use SyncRead (default)
		if stale {
			res, err = r.nh.StaleRead(r.shardID, q)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
			res, err = r.nh.SyncRead(ctx, r.shardID, q)
			cancel()
		}

		// Check for system busy errors
		if errors.Is(err, dragonboat.ErrSystemBusy) {
			log.Infof("SyncRead: System busy, retrying (%d/%d)...", i+1, retries)
			time.Sleep(r.timeout / 10)
			continue
		}

		if err != nil {
			var se *store.Error
			if errors.As(err, &se) {
				return zero, se
			}
			return zero, store.NewError(store.RetCInternalError, err.Error())
		}

		// The state machine is expected to return the response in the expected type R.
		casted, ok := res.(R)
		if !ok {
			return zero, store.NewError(store.RetCInternalError,
				fmt.Sprintf("unexpected type: received %T, expected %T", res, zero))
		}
		return casted, nil
	}
	return zero, store.NewError(store.RetCInternalError, "timeout")
}

// batch builds the command for a conditional batch write.
func batch(t internal.CommandType, payloads []db.Row, conditions []cond.Condition) (internal.Command, error) {
	if err := store.CheckBatch(payloads, conditions); err != nil {
		return internal.Command{}, err
	}
	return internal.Command{Type: t, Mutations: store.Mutations(payloads, conditions)}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docs see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Insert(payloads []db.Row) error {
	mutations := make([]db.Mutation, len(payloads))
	for i, row := range payloads {
		mutations[i] = db.Mutation{Row: row}
	}
	_, err := s.write(internal.Command{Type: internal.CommandTInsert, Mutations: mutations})
	return err
}

func (s *storeImpl) BatchUpdate(payloads []db.Row, conditions []cond.Condition) error {
	cmd, err := batch(internal.CommandTUpdate, payloads, conditions)
	if err != nil {
		return err
	}
	_, err = s.write(cmd)
	return err
}

func (s *storeImpl) BatchDelete(payloads []db.Row, conditions []cond.Condition) error {
	cmd, err := batch(internal.CommandTDelete, payloads, conditions)
	if err != nil {
		return err
	}
	_, err = s.write(cmd)
	return err
}

func (s *storeImpl) Get(objType, id string) (db.Row, bool, error) {
	res, err := read[*db.Row](s, internal.Query{
		Type:    internal.QueryTGet,
		ObjType: objType,
		ID:      id,
	}, false)
	if err != nil || res == nil {
		return db.Row{}, false, err
	}
	return *res, true, nil
}

func (s *storeImpl) Select(objType string, c cond.Condition) ([]db.Row, error) {
	return read[[]db.Row](s, internal.Query{
		Type:      internal.QueryTSelect,
		ObjType:   objType,
		Condition: c,
	}, false)
}

func (s *storeImpl) NextValue(sequence string) (int64, error) {
	data, err := s.write(internal.Command{Type: internal.CommandTNextValue, Sequence: sequence})
	if err != nil {
		return 0, err
	}
	v, err := internal.DecodeValue(data)
	if err != nil {
		return 0, store.NewError(store.RetCInternalError, err.Error())
	}
	return v, nil
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	return read[db.DatabaseInfo](
		s,
		internal.Query{
			Type: internal.QueryTGetDBInfo,
		},
		true, // Note: allow for stale reads
	)
}
