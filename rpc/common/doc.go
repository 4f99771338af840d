/*
Package common holds the types shared by the RPC server, client and transports.

Message is the single request and response type. A request carries the
arguments of one store.IStore operation (rows, aligned conditions, an
object type and id, a sequence name). A response carries the result and,
on failure, the error text plus the store.RetCode so the client can rebuild
a *store.Error:

	req := common.NewNextValueRequest("objectidseed")
	resp := adapter.Handle(req, s)
	if err := resp.AsError(); err != nil {
		return err
	}
	seed := resp.Value

The package also contains ServerConfig and ClientConfig, and the logger
factory that every binary installs with InitLoggers.
*/
package common
