package transport

import (
	"github.com/ValentinKolb/dUID/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc handles one serialized request for a shard and returns the serialized response
type ServerHandleFunc func(shardID uint64, req []byte) (resp []byte)

// IRPCServerTransport is the interface for the server side of a transport
type IRPCServerTransport interface {
	// RegisterHandler registers the handler called for every received request.
	// The transport is responsible for extracting the shard ID.
	RegisterHandler(handler ServerHandleFunc)
	// Listen starts the transport and blocks while serving requests
	Listen(config common.ServerConfig) error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the client side of a transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send sends a request to the server and returns the response
	Send(shardID uint64, req []byte) (resp []byte, err error)
	// Close closes the transport connection
	Close() error
}
