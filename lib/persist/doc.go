// Package persist implements the batch persistence coordinator.
//
// The Coordinator runs insert, update, refresh and delete over aligned slices
// of objects and their identity properties and submits each batch to a
// store.IStore in a single call:
//
//   - Insert validates the whole batch first (PlanInsert, no side effects),
//     then assigns ids in order (InsertPlan.Execute) and inserts all rows.
//   - Update and Refresh build the row condition of every object, run the
//     update (resp. refresh) triggers of its type in registration order and
//     submit all (row, condition) pairs with one BatchUpdate. A trigger that
//     changes the id fails the call before the store is contacted.
//   - Delete and DeleteBatch write one audit line per object
//     ("DELETING OBJECT ID=<id>, <owned sub-objects>") with Errorf to the audit
//     logger, then submit one BatchDelete. DeleteBatch buffers the lines and
//     writes them every DefaultAuditFlushSize entries and once at the end. The
//     audit trail is written before the store call.
//
// Objects move through the states Unpersisted, Persisted and Deleted. Insert
// only accepts unpersisted objects, all other operations only persisted ones.
// Store errors are returned unchanged, the coordinator never retries.
package persist
