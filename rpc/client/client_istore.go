package client

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/dUID/lib/cond"
	"github.com/ValentinKolb/dUID/lib/db"
	"github.com/ValentinKolb/dUID/lib/store"
	"github.com/ValentinKolb/dUID/rpc/common"
	"github.com/ValentinKolb/dUID/rpc/serializer"
	"github.com/ValentinKolb/dUID/rpc/transport"
)

// NewRPCStore connects the transport and returns a store.IStore that forwards
// every call to the shard shardID of the server. The returned store also
// implements io.Closer to release the transport.
func NewRPCStore(
	shardID uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (store.IStore, error) {
	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	return &rpcStore{
		rpcClientAdapter{
			shardID:    shardID,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}, nil
}

type rpcStore struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcStore) Insert(payloads []db.Row) error {
	_, err := i.invoke(common.NewInsertRequest(payloads))
	return err
}

func (i *rpcStore) BatchUpdate(payloads []db.Row, conditions []cond.Condition) error {
	if err := store.CheckBatch(payloads, conditions); err != nil {
		return err
	}
	_, err := i.invoke(common.NewUpdateRequest(payloads, conditions))
	return err
}

func (i *rpcStore) BatchDelete(payloads []db.Row, conditions []cond.Condition) error {
	if err := store.CheckBatch(payloads, conditions); err != nil {
		return err
	}
	_, err := i.invoke(common.NewDeleteRequest(payloads, conditions))
	return err
}

func (i *rpcStore) Get(objType, id string) (db.Row, bool, error) {
	resp, err := i.invoke(common.NewGetRequest(objType, id))
	if err != nil {
		return db.Row{}, false, err
	}
	if !resp.Ok || len(resp.Rows) == 0 {
		return db.Row{}, false, nil
	}
	return resp.Rows[0], true, nil
}

func (i *rpcStore) Select(objType string, c cond.Condition) ([]db.Row, error) {
	resp, err := i.invoke(common.NewSelectRequest(objType, c))
	if err != nil {
		return nil, err
	}
	return resp.Rows, nil
}

func (i *rpcStore) NextValue(sequence string) (int64, error) {
	resp, err := i.invoke(common.NewNextValueRequest(sequence))
	if err != nil {
		return 0, err
	}
	return resp.Value, nil
}

func (i *rpcStore) GetDBInfo() (db.DatabaseInfo, error) {
	resp, err := i.invoke(common.NewDBInfoRequest())
	if err != nil {
		return db.DatabaseInfo{}, err
	}
	var info db.DatabaseInfo
	if err := json.Unmarshal(resp.Meta, &info); err != nil {
		return db.DatabaseInfo{}, fmt.Errorf("failed to decode db info: %w", err)
	}
	return info, nil
}

// Close releases the transport
func (i *rpcStore) Close() error {
	return i.transport.Close()
}
