package client

import (
	"fmt"

	"github.com/ValentinKolb/dUID/rpc/common"
	"github.com/ValentinKolb/dUID/rpc/serializer"
	"github.com/ValentinKolb/dUID/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc")
)

// rpcClientAdapter holds everything a client needs to reach one shard
type rpcClientAdapter struct {
	shardID    uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

func (a *rpcClientAdapter) invoke(req *common.Message) (*common.Message, error) {
	return invokeRPCRequest(a.shardID, req, a.transport, a.serializer)
}

// invokeRPCRequest sends a request and decodes the response.
// Error responses are returned as errors, store errors keep their return code.
// The type of a successful response must match the type of the request.
func invokeRPCRequest(shardID uint64, req *common.Message, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) (*common.Message, error) {
	reqBytes, err := serializer.Serialize(*req)
	if err != nil {
		return nil, err
	}

	respBytes, err := transport.Send(shardID, reqBytes)
	if err != nil {
		return nil, err
	}

	resp := &common.Message{}
	if err = serializer.Deserialize(respBytes, resp); err != nil {
		return nil, fmt.Errorf("RPC IStoreAdapter - Error: %s", err)
	}

	if err := resp.AsError(); err != nil {
		Logger.Debugf("%s request to shard %d failed: %v", req.MsgType, shardID, err)
		return nil, err
	}

	if resp.MsgType != req.MsgType {
		return nil, fmt.Errorf("RPC IStoreAdapter - Unexpected message type: %s, expected %s", resp.MsgType, req.MsgType)
	}

	return resp, nil
}
