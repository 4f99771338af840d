// Package alloc implements the id allocator.
//
// An Allocator owns the seed state of one process: the current seed and the
// number of ids issued from it. A seed is fetched from a seq.ISequenceSource and
// expanded locally into BlockSize consecutive ids (seed*BlockSize + increment),
// so only one call in BlockSize reaches the shared source.
//
// The whole critical section (exhaustion check, fetch, increment) runs under one
// mutex. Seeds larger than MaxSeed are rejected with ErrSeedOverflow instead of
// wrapping around.
//
// Counters for issued ids, fetched seeds and fetch failures are registered with
// github.com/VictoriaMetrics/metrics and exported by the HTTP transport.
package alloc
