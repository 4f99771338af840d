package identity

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/dUID/lib/entity"
	"github.com/ValentinKolb/dUID/lib/ident"
)

var (
	ErrAlreadyAssigned = errors.New("id already assigned")
	ErrShapeMismatch   = errors.New("batch shape mismatch")
	ErrUnbound         = errors.New("identity property belongs to another object")
)

// IDAllocator hands out unique id numbers, see alloc.Allocator.
type IDAllocator interface {
	NextID() (int64, error)
}

// StoredObject is the stored-object facet of an object. Other properties of
// the object reach it through the identity property.
type StoredObject interface {
	Object() *entity.Object
}

// Property binds one allocated id to one object.
type Property struct {
	allocator IDAllocator
	object    *entity.Object
	stored    StoredObject
}

// New creates the identity property of an object.
func New(allocator IDAllocator, obj *entity.Object) *Property {
	return &Property{allocator: allocator, object: obj}
}

// Object returns the object the property belongs to.
func (p *Property) Object() *entity.Object {
	return p.object
}

// ID returns the id of the object, empty before Assign.
func (p *Property) ID() ident.ID {
	return p.object.ID
}

// Assigned reports whether the object carries an id.
func (p *Property) Assigned() bool {
	return !p.object.ID.Empty()
}

// SetStoredObject links the dependent stored object.
func (p *Property) SetStoredObject(s StoredObject) {
	p.stored = s
}

// StoredObject returns the linked stored object, nil if none was set.
func (p *Property) StoredObject() StoredObject {
	return p.stored
}

// Assign allocates a new id and stores it on the object.
// It fails if the object already carries an id, which is left unchanged.
func (p *Property) Assign() (ident.ID, error) {
	if p.Assigned() {
		return "", fmt.Errorf("%w: %s", ErrAlreadyAssigned, p.object)
	}
	return p.assign()
}

func (p *Property) assign() (ident.ID, error) {
	number, err := p.allocator.NextID()
	if err != nil {
		return "", err
	}
	id, err := ident.Encode(number)
	if err != nil {
		return "", err
	}
	p.object.ID = id
	return id, nil
}

// CheckBatch validates a batch for assignment without changing anything:
// both slices must have the same length, props[i] must belong to objs[i]
// and no object may carry an id yet.
func CheckBatch(objs []*entity.Object, props []*Property) error {
	if len(objs) != len(props) {
		return fmt.Errorf("%w: %d objects but %d identity properties", ErrShapeMismatch, len(objs), len(props))
	}
	for i, p := range props {
		if p == nil || objs[i] == nil || p.object != objs[i] {
			return fmt.Errorf("%w: element %d", ErrUnbound, i)
		}
		if p.Assigned() {
			return fmt.Errorf("%w: element %d, %s", ErrAlreadyAssigned, i, p.object)
		}
	}
	return nil
}

// AssignBatch assigns ids to all objects in order. The whole batch is
// validated first: if any element fails, no object receives an id.
// An allocator failure during assignment leaves the earlier objects assigned.
func AssignBatch(objs []*entity.Object, props []*Property) error {
	if err := CheckBatch(objs, props); err != nil {
		return err
	}
	for i, p := range props {
		if _, err := p.assign(); err != nil {
			return fmt.Errorf("failed to assign id to element %d: %w", i, err)
		}
	}
	return nil
}
