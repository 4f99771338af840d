package obj

import (
	"context"
	"fmt"
	"strings"

	"github.com/ValentinKolb/dUID/lib/alloc"
	"github.com/ValentinKolb/dUID/lib/cond"
	"github.com/ValentinKolb/dUID/lib/db"
	"github.com/ValentinKolb/dUID/lib/entity"
	"github.com/ValentinKolb/dUID/lib/identity"
	"github.com/ValentinKolb/dUID/lib/persist"
	"github.com/ValentinKolb/dUID/lib/store"
)

// session bundles everything the object commands work with
type session struct {
	store store.IStore
	types entity.Types
	ids   *alloc.Allocator
	coord *persist.Coordinator
}

func newSession(s store.IStore, types entity.Types, ids *alloc.Allocator, opts ...persist.Option) *session {
	return &session{
		store: s,
		types: types,
		ids:   ids,
		coord: persist.NewCoordinator(s, opts...),
	}
}

// parseAssignments parses "field=value" arguments. Values may contain '='.
func parseAssignments(args []string) (map[string]string, error) {
	fields := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid assignment %q (expected field=value)", arg)
		}
		if k == cond.IDField {
			return nil, fmt.Errorf("the field %q is reserved", cond.IDField)
		}
		fields[k] = v
	}
	return fields, nil
}

// load fetches persisted objects. Rows hidden by the universal condition are not found.
func (s *session) load(ctx context.Context, t *entity.Type, ids []string) ([]*entity.Object, []*identity.Property, error) {
	objs := make([]*entity.Object, len(ids))
	props := make([]*identity.Property, len(ids))
	universal := t.UniversalCondition(ctx)
	for i, id := range ids {
		row, ok, err := s.store.Get(t.Name(), id)
		if err != nil {
			return nil, nil, err
		}
		if !ok || (universal != nil && !universal.Match(row)) {
			return nil, nil, fmt.Errorf("%s[%s] not found", t.Name(), id)
		}
		objs[i] = entity.Load(t, row)
		props[i] = identity.New(s.ids, objs[i])
	}
	return objs, props, nil
}

func (s *session) insert(ctx context.Context, typeName string, fields map[string]string) (*entity.Object, error) {
	t, err := s.types.Get(typeName)
	if err != nil {
		return nil, err
	}
	if fields == nil {
		fields = make(map[string]string)
	}
	if tenant, ok := entity.TenantFrom(ctx); ok && t.TenantField() != "" {
		if _, set := fields[t.TenantField()]; !set {
			fields[t.TenantField()] = tenant
		}
	}
	obj := entity.NewObject(t, fields)
	prop := identity.New(s.ids, obj)
	if err := s.coord.Insert(ctx, []*entity.Object{obj}, []*identity.Property{prop}); err != nil {
		return nil, err
	}
	return obj, nil
}

func (s *session) update(ctx context.Context, typeName, id string, fields map[string]string) (*entity.Object, error) {
	t, err := s.types.Get(typeName)
	if err != nil {
		return nil, err
	}
	objs, props, err := s.load(ctx, t, []string{id})
	if err != nil {
		return nil, err
	}
	for k, v := range fields {
		objs[0].Set(k, v)
	}
	if err := s.coord.Update(ctx, objs[0], props[0]); err != nil {
		return nil, err
	}
	return objs[0], nil
}

func (s *session) refresh(ctx context.Context, typeName, id string) (*entity.Object, error) {
	t, err := s.types.Get(typeName)
	if err != nil {
		return nil, err
	}
	objs, props, err := s.load(ctx, t, []string{id})
	if err != nil {
		return nil, err
	}
	if err := s.coord.Refresh(ctx, objs[0], props[0]); err != nil {
		return nil, err
	}
	return objs[0], nil
}

func (s *session) delete(ctx context.Context, typeName string, ids []string) error {
	t, err := s.types.Get(typeName)
	if err != nil {
		return err
	}
	objs, props, err := s.load(ctx, t, ids)
	if err != nil {
		return err
	}
	if len(objs) == 1 {
		return s.coord.Delete(ctx, objs[0], props[0])
	}
	return s.coord.DeleteBatch(ctx, objs, props)
}

func (s *session) get(ctx context.Context, typeName, id string) (*entity.Object, error) {
	t, err := s.types.Get(typeName)
	if err != nil {
		return nil, err
	}
	objs, _, err := s.load(ctx, t, []string{id})
	if err != nil {
		return nil, err
	}
	return objs[0], nil
}

// selectRows returns the rows matching all filters and the universal condition of the type
func (s *session) selectRows(ctx context.Context, typeName string, filters map[string]string) ([]db.Row, error) {
	t, err := s.types.Get(typeName)
	if err != nil {
		return nil, err
	}
	args := make([]cond.Condition, 0, len(filters)+1)
	for k, v := range filters {
		args = append(args, cond.Equals(k, v))
	}
	if universal := t.UniversalCondition(ctx); universal != nil {
		args = append(args, *universal)
	}

	c := cond.True()
	if len(args) > 0 {
		c = cond.And(args...)
	}
	return s.store.Select(t.Name(), c)
}

// format renders an object as "type[id] field=value, ..."
func format(obj *entity.Object) string {
	return fmt.Sprintf("%s %s", obj, obj.Row().Describe())
}
