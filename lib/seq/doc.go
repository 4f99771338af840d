// Package seq defines the sequence sources the id allocator fetches its seeds from.
//
// A source is a durable, never repeating counter shared by every process that
// allocates ids for the same deployment. FromStore turns the named sequence of
// any store.IStore (local, raft replicated, PostgreSQL or remote via RPC) into a
// source. Package fseq provides a source for processes sharing one host.
package seq
