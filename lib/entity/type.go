package entity

import (
	"context"
	"strings"

	"github.com/ValentinKolb/dUID/lib/cond"
)

// UniversalFunc computes the universal condition of a type for one operation.
// It returns nil if the type has no universal condition in this context.
type UniversalFunc func(ctx context.Context) *cond.Condition

// Type describes a kind of persisted object: its name, its universal
// condition and its trigger lists. Triggers are registered while the
// program initializes and are not changed afterwards.
type Type struct {
	name            string
	tenantField     string
	universal       UniversalFunc
	owned           []string
	updateTriggers  []Trigger
	refreshTriggers []Trigger
}

// Option configures a Type.
type Option func(t *Type)

// WithUniversal sets the function computing the universal condition.
func WithUniversal(fn UniversalFunc) Option {
	return func(t *Type) { t.universal = fn }
}

// WithStaticUniversal uses the same universal condition for every operation.
func WithStaticUniversal(c cond.Condition) Option {
	return WithUniversal(func(context.Context) *cond.Condition {
		cp := c
		return &cp
	})
}

// WithTenantScope restricts all row operations to the tenant carried by the context
// (see WithTenant). Without a tenant in the context the type has no universal condition.
func WithTenantScope(field string) Option {
	return func(t *Type) {
		t.tenantField = field
		t.universal = func(ctx context.Context) *cond.Condition {
			return tenantCondition(ctx, field)
		}
	}
}

func tenantCondition(ctx context.Context, field string) *cond.Condition {
	tenant, ok := TenantFrom(ctx)
	if !ok {
		return nil
	}
	c := cond.Equals(field, tenant)
	return &c
}

// WithOwned names the fields that hold the owned sub-objects of the type.
// They make up the description written to the audit trail on delete.
func WithOwned(fields ...string) Option {
	return func(t *Type) { t.owned = append(t.owned, fields...) }
}

// NewType creates a type.
func NewType(name string, opts ...Option) *Type {
	t := &Type{name: name}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the name of the type.
func (t *Type) Name() string {
	return t.name
}

// TenantField returns the field scoping the type to a tenant, empty if unscoped.
func (t *Type) TenantField() string {
	return t.tenantField
}

// UniversalCondition returns the universal condition for this operation, computed anew on every call.
func (t *Type) UniversalCondition(ctx context.Context) *cond.Condition {
	if t.universal == nil {
		return nil
	}
	return t.universal(ctx)
}

// OnUpdate appends triggers to the update list.
func (t *Type) OnUpdate(triggers ...Trigger) *Type {
	t.updateTriggers = append(t.updateTriggers, triggers...)
	return t
}

// OnRefresh appends triggers to the refresh list.
func (t *Type) OnRefresh(triggers ...Trigger) *Type {
	t.refreshTriggers = append(t.refreshTriggers, triggers...)
	return t
}

// UpdateTriggers returns the update triggers in registration order.
func (t *Type) UpdateTriggers() []Trigger {
	return append([]Trigger(nil), t.updateTriggers...)
}

// RefreshTriggers returns the refresh triggers in registration order.
func (t *Type) RefreshTriggers() []Trigger {
	return append([]Trigger(nil), t.refreshTriggers...)
}

// Describe renders the owned sub-objects of an object as "field=value, ...".
// Types without owned fields describe all fields.
func (t *Type) Describe(obj *Object) string {
	if len(t.owned) == 0 {
		return obj.Row().Describe()
	}
	parts := make([]string, 0, len(t.owned))
	for _, f := range t.owned {
		if v, ok := obj.Get(f); ok {
			parts = append(parts, f+"="+v)
		}
	}
	return strings.Join(parts, ", ")
}

// --------------------------------------------------------------------------
// Context
// --------------------------------------------------------------------------

type tenantKey struct{}

// WithTenant returns a context carrying the tenant used by tenant scoped types.
func WithTenant(ctx context.Context, tenant string) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenant)
}

// TenantFrom returns the tenant of the context.
func TenantFrom(ctx context.Context) (string, bool) {
	tenant, ok := ctx.Value(tenantKey{}).(string)
	return tenant, ok && tenant != ""
}
