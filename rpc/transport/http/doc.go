// Package http implements the RPC transports over HTTP.
//
// The server is a chi router. Every request is a POST to /{shardId} whose
// body is one serialized common.Message; the response body is the
// serialized answer. With ServerConfig.Metrics set, the router also serves
// the process metrics in Prometheus text format on GET /metrics.
//
// The client sends requests round-robin to its endpoints and retries
// failed connections RetryCount times. It is safe for concurrent use.
package http
