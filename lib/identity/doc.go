// Package identity binds allocated ids to objects.
//
// A Property belongs to exactly one entity.Object. Assign draws a number from
// the allocator, encodes it with ident.Encode ("2" + lowercase hex) and stores
// it on the object. An object that already carries an id is rejected with
// ErrAlreadyAssigned and keeps its id.
//
// AssignBatch works in two passes: CheckBatch validates every element before
// the first id is drawn, so a rejected batch leaves all objects untouched.
package identity
