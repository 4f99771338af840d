// Package cond contains the small filter language used to target persisted
// rows, and the builder that composes the per row condition used by update,
// refresh and delete.
//
// A Condition is a plain tree (no interfaces) so it can travel unchanged
// through the raft log, the rpc serializers and the yaml type definitions.
// Only what the row operations need is supported: field equality and
// inequality combined with and / or / not.
package cond
