package server

import (
	"fmt"

	"github.com/ValentinKolb/dUID/lib/cond"
	"github.com/ValentinKolb/dUID/lib/store"
	"github.com/ValentinKolb/dUID/rpc/common"
)

func NewIStoreServerAdapter() IRPCServerAdapter {
	return &iStoreServerAdapterImpl{}
}

type iStoreServerAdapterImpl struct{}

func (adapter *iStoreServerAdapterImpl) Handle(req *common.Message, s store.IStore) *common.Message {
	if s == nil {
		return common.NewErrorResponse("handler: store is nil")
	}

	switch req.MsgType {
	case common.MsgTInsert:
		return common.NewInsertResponse(s.Insert(req.Rows))
	case common.MsgTUpdate:
		return common.NewUpdateResponse(s.BatchUpdate(req.Rows, req.Conditions))
	case common.MsgTDelete:
		return common.NewDeleteResponse(s.BatchDelete(req.Rows, req.Conditions))
	case common.MsgTGet:
		row, ok, err := s.Get(req.ObjType, req.ID)
		return common.NewGetResponse(row, ok, err)
	case common.MsgTSelect:
		c := cond.True()
		if req.Condition != nil {
			c = *req.Condition
		}
		rows, err := s.Select(req.ObjType, c)
		return common.NewSelectResponse(rows, err)
	case common.MsgTNextValue:
		value, err := s.NextValue(req.Sequence)
		return common.NewNextValueResponse(value, err)
	case common.MsgTDBInfo:
		info, err := s.GetDBInfo()
		return common.NewDBInfoResponse(info, err)
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC IStoreAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}
