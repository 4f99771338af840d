// Package client implements store.IStore on top of the RPC layer.
//
// NewRPCStore returns a store whose every call is sent to one shard of a
// dUID server. Store errors keep their return code across the wire, so
// store.IsCode works on the errors returned by the client the same way it
// does for a local store:
//
//	conf := common.ClientConfig{
//	  Endpoints:     []string{"http://localhost:8080"},
//	  TimeoutSecond: 5,
//	  RetryCount:    3,
//	}
//
//	s, err := client.NewRPCStore(100, conf, http.NewHttpClientTransport(), serializer.NewJSONSerializer())
//	if err != nil {
//	  return err
//	}
//	src := seq.FromStore(s, seq.DefaultName)
//	ids := alloc.New(src)
//
// The client is safe for concurrent use.
package client
