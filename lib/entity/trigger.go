package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Trigger is a named callback run against an object as part of an update or refresh.
// Triggers may change the fields of the object but never its id.
type Trigger interface {
	Name() string
	Execute(obj *Object) error
}

type funcTrigger struct {
	name string
	fn   func(obj *Object) error
}

// NewTrigger wraps a function as a Trigger.
func NewTrigger(name string, fn func(obj *Object) error) Trigger {
	return &funcTrigger{name: name, fn: fn}
}

func (t *funcTrigger) Name() string              { return t.name }
func (t *funcTrigger) Execute(obj *Object) error { return t.fn(obj) }

// --------------------------------------------------------------------------
// Registry
// --------------------------------------------------------------------------

// TriggerFactory builds a trigger from the argument of a trigger reference ("name:arg").
type TriggerFactory func(arg string) (Trigger, error)

// Registry maps trigger names used in type definitions to factories.
// References are resolved once when the definitions are loaded.
type Registry struct {
	factories map[string]TriggerFactory
}

// NewRegistry returns a registry with the built-in triggers:
//
//	touch[:field]         sets field (default "updated_at") to the current UTC time
//	set:field=value       sets field to a constant
//	increment:field       adds one to a numeric field (missing counts as 0)
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]TriggerFactory)}
	r.Register("touch", touchTrigger)
	r.Register("set", setTrigger)
	r.Register("increment", incrementTrigger)
	return r
}

// Register adds or replaces a factory.
func (r *Registry) Register(name string, f TriggerFactory) {
	r.factories[name] = f
}

// Resolve builds the trigger for a reference of the form "name" or "name:arg".
func (r *Registry) Resolve(ref string) (Trigger, error) {
	name, arg, _ := strings.Cut(ref, ":")
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown trigger %q", name)
	}
	t, err := f(arg)
	if err != nil {
		return nil, fmt.Errorf("trigger %q: %w", ref, err)
	}
	return t, nil
}

func touchTrigger(field string) (Trigger, error) {
	if field == "" {
		field = "updated_at"
	}
	return NewTrigger("touch:"+field, func(obj *Object) error {
		obj.Set(field, time.Now().UTC().Format(time.RFC3339Nano))
		return nil
	}), nil
}

func setTrigger(arg string) (Trigger, error) {
	field, value, ok := strings.Cut(arg, "=")
	if !ok || field == "" {
		return nil, fmt.Errorf("expected field=value, got %q", arg)
	}
	return NewTrigger("set:"+arg, func(obj *Object) error {
		obj.Set(field, value)
		return nil
	}), nil
}

func incrementTrigger(field string) (Trigger, error) {
	if field == "" {
		return nil, fmt.Errorf("missing field")
	}
	return NewTrigger("increment:"+field, func(obj *Object) error {
		n := int64(0)
		if v, ok := obj.Get(field); ok && v != "" {
			var err error
			if n, err = strconv.ParseInt(v, 10, 64); err != nil {
				return fmt.Errorf("field %s is not numeric: %q", field, v)
			}
		}
		obj.Set(field, strconv.FormatInt(n+1, 10))
		return nil
	}), nil
}
