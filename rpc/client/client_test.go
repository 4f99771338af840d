package client_test

import (
	"errors"
	"testing"

	"github.com/ValentinKolb/dUID/lib/cond"
	"github.com/ValentinKolb/dUID/lib/db"
	"github.com/ValentinKolb/dUID/lib/store"
	storetesting "github.com/ValentinKolb/dUID/lib/store/testing"
	"github.com/ValentinKolb/dUID/rpc/client"
	"github.com/ValentinKolb/dUID/rpc/common"
	"github.com/ValentinKolb/dUID/rpc/serializer"
	"github.com/ValentinKolb/dUID/rpc/server"
	"github.com/ValentinKolb/dUID/rpc/transport"
	"github.com/matryer/is"
)

// loopback connects a client transport directly to the handler a server registered
type loopback struct {
	handler transport.ServerHandleFunc
	closed  bool
}

func (l *loopback) RegisterHandler(handler transport.ServerHandleFunc) { l.handler = handler }
func (l *loopback) Listen(common.ServerConfig) error                  { return nil }
func (l *loopback) Connect(common.ClientConfig) error                 { return nil }
func (l *loopback) Close() error                                      { l.closed = true; return nil }

func (l *loopback) Send(shardID uint64, req []byte) ([]byte, error) {
	if l.closed {
		return nil, errors.New("loopback closed")
	}
	return l.handler(shardID, req), nil
}

const shardID = 100

func newRPCStore(t *testing.T, s serializer.IRPCSerializer) store.IStore {
	t.Helper()
	lb := &loopback{}
	srv := server.NewRPCServer(common.ServerConfig{
		Shards:   []common.ServerShard{{ShardID: shardID, Type: common.ShardTypeLocalIStore}},
		LogLevel: "error",
	}, lb, s)
	if err := srv.Init(); err != nil {
		t.Fatalf("server init: %v", err)
	}
	t.Cleanup(srv.Close)

	st, err := client.NewRPCStore(shardID, common.ClientConfig{}, lb, s)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return st
}

func TestRPCStore(t *testing.T) {
	serializers := map[string]func() serializer.IRPCSerializer{
		"json": serializer.NewJSONSerializer,
		"gob":  serializer.NewGOBSerializer,
	}
	for name, factory := range serializers {
		t.Run(name, func(t *testing.T) {
			st := newRPCStore(t, factory())
			storetesting.RunStoreTests(t, "rpc", func(*testing.T) store.IStore { return st })
		})
	}
}

func TestUnknownShard(t *testing.T) {
	is := is.New(t)
	s := serializer.NewJSONSerializer()
	lb := &loopback{}
	srv := server.NewRPCServer(common.ServerConfig{LogLevel: "error"}, lb, s)
	is.NoErr(srv.Init())

	st, err := client.NewRPCStore(7, common.ClientConfig{}, lb, s)
	is.NoErr(err)
	_, err = st.NextValue("objectidseed")
	is.True(err != nil)
	var se *store.Error
	is.True(!errors.As(err, &se)) // transport level errors are not store errors
}

func TestStoreErrorCodes(t *testing.T) {
	is := is.New(t)
	st := newRPCStore(t, serializer.NewJSONSerializer())

	rows := []db.Row{{Type: "customer", ID: "2400"}}
	is.NoErr(st.Insert(rows))
	is.True(store.IsCode(st.Insert(rows), store.RetCConflict))

	err := st.BatchDelete([]db.Row{{Type: "customer", ID: "2401"}}, []cond.Condition{cond.IDCondition("2401")})
	is.True(store.IsCode(err, store.RetCNotFound))
}

func TestGetDBInfo(t *testing.T) {
	is := is.New(t)
	st := newRPCStore(t, serializer.NewGOBSerializer())

	info, err := st.GetDBInfo()
	is.NoErr(err)
	is.Equal(info.DbType, db.ImplMemDB)
}

func TestClose(t *testing.T) {
	is := is.New(t)
	st := newRPCStore(t, serializer.NewJSONSerializer())

	closer, ok := st.(interface{ Close() error })
	is.True(ok)
	is.NoErr(closer.Close())
	_, err := st.NextValue("objectidseed")
	is.True(err != nil)
}
