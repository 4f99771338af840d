package server

import (
	"context"
	"fmt"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ValentinKolb/dUID/lib/db"
	"github.com/ValentinKolb/dUID/lib/db/engines/memdb"
	"github.com/ValentinKolb/dUID/lib/store"
	"github.com/ValentinKolb/dUID/lib/store/dstore"
	"github.com/ValentinKolb/dUID/lib/store/lstore"
	"github.com/ValentinKolb/dUID/lib/store/pgstore"
	"github.com/ValentinKolb/dUID/rpc/common"
	"github.com/ValentinKolb/dUID/rpc/serializer"
	"github.com/ValentinKolb/dUID/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc")

// serverShard is one shard served by the RPC server: the store it
// encapsulates and the adapter that handles requests for the store
type serverShard struct {
	Store   store.IStore
	Adapter IRPCServerAdapter
}

// NewRPCServer creates a new RPC server
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		http.NewHttpServerTransport(),
//		serializer.NewJSONSerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     xsync.NewMapOf[uint64, serverShard](),
	}
}

// RPCServer routes requests of a transport to the stores of its shards.
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]
	nodeHost   *dragonboat.NodeHost
	closers    []func()
}

// handle decodes a request, dispatches it to the shard and encodes the response
func (s *RPCServer) handle(shardID uint64, req []byte) []byte {
	var respMsg *common.Message

	shard, ok := s.shards.Load(shardID)
	if !ok {
		respMsg = common.NewErrorResponse(fmt.Sprintf("shard %d not found", shardID))
	} else {
		var msg common.Message
		if err := s.serializer.Deserialize(req, &msg); err != nil {
			respMsg = common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
		} else {
			metrics.GetOrCreateCounter(fmt.Sprintf(`duid_rpc_requests_total{type=%q}`, msg.MsgType)).Inc()
			respMsg = shard.Adapter.Handle(&msg, shard.Store)
		}
	}
	if respMsg.AsError() != nil {
		metrics.GetOrCreateCounter(fmt.Sprintf(`duid_rpc_errors_total{type=%q}`, respMsg.MsgType)).Inc()
	}

	val, err := s.serializer.Serialize(*respMsg)
	if err != nil {
		Logger.Errorf("failed to serialize response: %v", err)
		val, _ = s.serializer.Serialize(*common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err)))
	}
	return val
}

// newShardStore creates the store of one shard
func (s *RPCServer) newShardStore(shard common.ServerShard, timeout time.Duration) (store.IStore, error) {
	switch shard.Type {
	case common.ShardTypeLocalIStore:
		return lstore.NewLocalStore(func() db.RowDB { return memdb.NewMemDB() }), nil

	case common.ShardTypeRemoteIStore:
		if s.nodeHost == nil {
			return nil, fmt.Errorf("node host is nil, cannot create replicated store")
		}
		factory := dstore.CreateStateMaschineFactory(func() db.RowDB { return memdb.NewMemDB() })
		if err := s.nodeHost.StartConcurrentReplica(s.config.ClusterMembers, false, factory, s.config.ToDragonboatConfig(shard.ShardID)); err != nil {
			return nil, fmt.Errorf("failed to start shard %d: %w", shard.ShardID, err)
		}
		return dstore.NewDistributedStore(s.nodeHost, shard.ShardID, timeout), nil

	case common.ShardTypePostgresIStore:
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		pg, closeFn, err := pgstore.NewPostgresStore(ctx, pgstore.Config{
			DSN:     s.config.PostgresDSN,
			Table:   s.config.PostgresTable,
			Timeout: timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect shard %d to postgres: %w", shard.ShardID, err)
		}
		s.closers = append(s.closers, closeFn)
		return pg, nil

	default:
		return nil, fmt.Errorf("invalid shard type: %s", shard.Type)
	}
}

// Init creates all shards and registers the request handler at the transport.
// Serve calls it, it is exported for embedding the server without a listener.
func (s *RPCServer) Init() error {
	if err := common.InitLoggers(s.config.LogLevel); err != nil {
		return err
	}
	Logger.Infof("Created RPC Server")
	Logger.Infof("%s", s.config.String())

	if s.config.HasRemoteShard() {
		nh, err := dragonboat.NewNodeHost(s.config.ToNodeHostConfig())
		if err != nil {
			return fmt.Errorf("failed to create node host: %w", err)
		}
		s.nodeHost = nh
	}

	timeout := time.Duration(s.config.TimeoutSecond) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	for _, shardConfig := range s.config.Shards {
		st, err := s.newShardStore(shardConfig, timeout)
		if err != nil {
			s.Close()
			return err
		}
		s.shards.Store(shardConfig.ShardID, serverShard{
			Store:   st,
			Adapter: NewIStoreServerAdapter(),
		})
		Logger.Infof("created %s for shard %d", shardConfig.Type, shardConfig.ShardID)
	}

	s.transport.RegisterHandler(s.handle)
	Logger.Infof("dUID setup completed successfully")
	return nil
}

// Serve initializes the shards and blocks in the transport listener
func (s *RPCServer) Serve() error {
	if err := s.Init(); err != nil {
		return err
	}
	defer s.Close()
	return s.transport.Listen(s.config)
}

// Close releases the connections of all shards
func (s *RPCServer) Close() {
	for _, closeFn := range s.closers {
		closeFn()
	}
	s.closers = nil
	if s.nodeHost != nil {
		s.nodeHost.Close()
		s.nodeHost = nil
	}
}
