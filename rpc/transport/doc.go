// Package transport defines how serialized messages travel between RPC
// clients and servers. A server transport hands every request to a
// ServerHandleFunc together with the addressed shard; a client transport
// sends bytes to a shard and returns the answer. The http subpackage is the
// implementation used by the duid binary.
package transport
