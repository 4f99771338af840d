package server

import (
	"github.com/ValentinKolb/dUID/lib/store"
	"github.com/ValentinKolb/dUID/rpc/common"
)

// IRPCServerAdapter translates request messages into calls on a store.IStore.
// Errors are never returned directly, they are set on the response.
type IRPCServerAdapter interface {
	Handle(req *common.Message, store store.IStore) (resp *common.Message)
}
