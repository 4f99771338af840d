package cond

import "context"

// UniversalSource provides the type wide condition applied to every row
// operation of an object type (tenant scoping, soft delete, ...).
// Implementations return nil when the type has no such condition.
type UniversalSource interface {
	UniversalCondition(ctx context.Context) *Condition
}

// IDCondition returns the equality condition on the id field.
func IDCondition(id string) Condition {
	return Equals(IDField, id)
}

// BuildRowCondition composes the filter selecting the single persisted row
// with the given id. The universal condition is requested from the source on
// every call and never cached, so two rows of one batch never share a tree.
func BuildRowCondition(ctx context.Context, source UniversalSource, id string) Condition {
	idCondition := IDCondition(id)
	if source == nil {
		return idCondition
	}
	universal := source.UniversalCondition(ctx)
	if universal == nil {
		return idCondition
	}
	return And(*universal, idCondition)
}
