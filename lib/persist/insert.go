package persist

import (
	"fmt"

	"github.com/ValentinKolb/dUID/lib/db"
	"github.com/ValentinKolb/dUID/lib/entity"
	"github.com/ValentinKolb/dUID/lib/identity"
)

// InsertPlan is the result of the validation phase of an insert.
// Nothing has been changed when a plan exists, Execute performs the assignment phase.
type InsertPlan struct {
	objects []*entity.Object
	props   []*identity.Property
}

// PlanInsert validates an insert batch without side effects.
func PlanInsert(objs []*entity.Object, props []*identity.Property) (*InsertPlan, error) {
	if objs == nil || props == nil {
		return nil, ErrNilBatch
	}
	if len(objs) != len(props) {
		return nil, fmt.Errorf("%w: %d objects but %d identity properties", ErrShapeMismatch, len(objs), len(props))
	}
	for i, obj := range objs {
		if obj == nil {
			return nil, fmt.Errorf("%w: element %d", ErrNilBatch, i)
		}
		if obj.State() == entity.StateDeleted {
			return nil, fmt.Errorf("%w: %s", ErrDeleted, obj)
		}
		if obj.State() != entity.StateUnpersisted || !obj.ID.Empty() {
			return nil, fmt.Errorf("Try to insert an already persisted object %s inside batch, ID = %s: %w",
				obj.Type().Name(), obj.ID, identity.ErrAlreadyAssigned)
		}
	}
	if err := identity.CheckBatch(objs, props); err != nil {
		return nil, err
	}
	return &InsertPlan{objects: objs, props: props}, nil
}

// Len returns the number of objects in the plan.
func (p *InsertPlan) Len() int {
	return len(p.objects)
}

// Execute assigns ids to all objects in order and returns their rows.
// An allocator failure aborts the insert, objects assigned before it keep their ids.
func (p *InsertPlan) Execute() ([]db.Row, error) {
	if err := identity.AssignBatch(p.objects, p.props); err != nil {
		return nil, err
	}
	rows := make([]db.Row, len(p.objects))
	for i, obj := range p.objects {
		rows[i] = obj.Row()
	}
	return rows, nil
}
