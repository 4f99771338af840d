// Package fseq implements a sequence source backed by a plain file.
//
// The counter is kept as decimal text. Every NextValue call takes an exclusive
// lock on "<path>.lock" (github.com/gofrs/flock), reads the counter, writes the
// incremented value through a rename and releases the lock. Any number of
// processes on the same host can therefore share one sequence. It is meant for
// single host deployments and tools, a cluster should use a store sequence.
package fseq
