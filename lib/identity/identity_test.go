package identity

import (
	"errors"
	"testing"

	"github.com/ValentinKolb/dUID/lib/alloc"
	"github.com/ValentinKolb/dUID/lib/entity"
	"github.com/ValentinKolb/dUID/lib/ident"
	"github.com/ValentinKolb/dUID/lib/seq"
	"github.com/matryer/is"
)

var orderType = entity.NewType("order")

func newAllocator() *alloc.Allocator {
	var next int64
	return alloc.New(seq.SourceFunc(func() (int64, error) {
		next++
		return next, nil
	}))
}

type failingAllocator struct{}

func (failingAllocator) NextID() (int64, error) { return 0, errors.New("sequence down") }

func TestAssign(t *testing.T) {
	is := is.New(t)
	obj := entity.NewObject(orderType, nil)
	p := New(newAllocator(), obj)

	id, err := p.Assign()
	is.NoErr(err)
	is.Equal(id, ident.ID("2400")) // seed 1 -> 1024 -> 0x400
	is.Equal(p.ID(), id)
	is.Equal(obj.ID, id)

	// round trip of the encoding
	n, err := ident.Decode(id)
	is.NoErr(err)
	again, err := ident.Encode(n)
	is.NoErr(err)
	is.Equal(again, id)
}

func TestAssignTwiceFails(t *testing.T) {
	is := is.New(t)
	obj := entity.NewObject(orderType, nil)
	p := New(newAllocator(), obj)

	first, err := p.Assign()
	is.NoErr(err)
	_, err = p.Assign()
	is.True(errors.Is(err, ErrAlreadyAssigned))
	is.Equal(p.ID(), first) // existing id is unchanged
}

func TestAssignAllocatorFailure(t *testing.T) {
	is := is.New(t)
	obj := entity.NewObject(orderType, nil)
	p := New(failingAllocator{}, obj)
	_, err := p.Assign()
	is.True(err != nil)
	is.True(obj.ID.Empty())
}

func TestAssignBatch(t *testing.T) {
	is := is.New(t)
	a := newAllocator()
	objs, props := batch(a, 3)

	is.NoErr(AssignBatch(objs, props))
	seen := map[ident.ID]bool{}
	for _, o := range objs {
		is.Equal(o.ID.Version(), ident.VersionSequence)
		is.True(!seen[o.ID])
		seen[o.ID] = true
	}
	is.Equal(objs[0].ID, ident.ID("2400"))
	is.Equal(objs[2].ID, ident.ID("2402"))
}

func TestAssignBatchAllOrNothing(t *testing.T) {
	is := is.New(t)
	a := newAllocator()
	objs, props := batch(a, 4)
	objs[2].ID = "2999"

	err := AssignBatch(objs, props)
	is.True(errors.Is(err, ErrAlreadyAssigned))
	for i, o := range objs {
		if i == 2 {
			is.Equal(o.ID, ident.ID("2999"))
			continue
		}
		is.True(o.ID.Empty()) // no element receives an id
	}
	seed, _ := a.State()
	is.Equal(seed, int64(-1)) // allocator was never called
}

func TestCheckBatch(t *testing.T) {
	a := newAllocator()
	objs, props := batch(a, 2)
	other := entity.NewObject(orderType, nil)

	tests := []struct {
		name  string
		objs  []*entity.Object
		props []*Property
		want  error
	}{
		{"ok", objs, props, nil},
		{"empty", nil, nil, nil},
		{"length mismatch", objs, props[:1], ErrShapeMismatch},
		{"unbound property", []*entity.Object{objs[0], other}, props, ErrUnbound},
		{"nil property", objs, []*Property{props[0], nil}, ErrUnbound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckBatch(tt.objs, tt.props)
			if tt.want == nil && err != nil {
				t.Fatalf("CheckBatch() error = %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("CheckBatch() error = %v, want %v", err, tt.want)
			}
		})
	}
}

type storedFacet struct{ obj *entity.Object }

func (s storedFacet) Object() *entity.Object { return s.obj }

func TestStoredObject(t *testing.T) {
	is := is.New(t)
	obj := entity.NewObject(orderType, nil)
	p := New(newAllocator(), obj)
	is.True(p.StoredObject() == nil)
	p.SetStoredObject(storedFacet{obj: obj})
	is.Equal(p.StoredObject().Object(), obj)
}

func batch(a IDAllocator, n int) ([]*entity.Object, []*Property) {
	objs := make([]*entity.Object, n)
	props := make([]*Property, n)
	for i := range objs {
		objs[i] = entity.NewObject(orderType, nil)
		props[i] = New(a, objs[i])
	}
	return objs, props
}
