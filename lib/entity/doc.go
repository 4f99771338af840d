// Package entity provides the object model the persistence core works on.
//
// A Type names a kind of object and carries its universal condition (computed
// per operation from the context, e.g. tenant scoping or soft delete filters)
// and two independent, ordered trigger lists: update triggers for user driven
// changes and refresh triggers for system driven recomputation. Triggers are
// statically typed values registered during initialization.
//
// An Object is the in-memory payload of one row together with its id and its
// lifecycle State (Unpersisted, Persisted, Deleted).
//
// Types can be defined in YAML (LoadTypes). Trigger references in the file are
// resolved through a Registry when the file is loaded, never at call time.
package entity
