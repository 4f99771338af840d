package entity

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/ValentinKolb/dUID/lib/cond"
	"gopkg.in/yaml.v3"
)

// TypeDefinition is the YAML form of a type.
//
//	types:
//	  - name: order
//	    tenantField: tenant          # scope rows to the tenant of the context
//	    universal:                   # static universal condition
//	      op: ne
//	      field: state
//	      value: archived
//	    owned: [lines, notes]
//	    onUpdate: [touch, increment:revision]
//	    onRefresh: ["set:recomputed=true"]
type TypeDefinition struct {
	Name        string          `yaml:"name"`
	TenantField string          `yaml:"tenantField,omitempty"`
	Universal   *cond.Condition `yaml:"universal,omitempty"`
	Owned       []string        `yaml:"owned,omitempty"`
	OnUpdate    []string        `yaml:"onUpdate,omitempty"`
	OnRefresh   []string        `yaml:"onRefresh,omitempty"`
}

// Definitions is the root of a type definition file.
type Definitions struct {
	Types []TypeDefinition `yaml:"types"`
}

// Types is a set of types by name.
type Types map[string]*Type

// Get returns the type with the given name.
func (ts Types) Get(name string) (*Type, error) {
	t, ok := ts[name]
	if !ok {
		return nil, fmt.Errorf("unknown object type %q", name)
	}
	return t, nil
}

// Names returns the sorted type names.
func (ts Types) Names() []string {
	names := make([]string, 0, len(ts))
	for name := range ts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadTypesFile reads type definitions from a YAML file.
func LoadTypesFile(path string, registry *Registry) (Types, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open type definitions: %w", err)
	}
	defer f.Close()
	return LoadTypes(f, registry)
}

// LoadTypes reads type definitions and resolves all trigger references.
// Unknown keys, duplicate names and unknown triggers are errors.
func LoadTypes(r io.Reader, registry *Registry) (Types, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if registry == nil {
		registry = NewRegistry()
	}

	var defs Definitions
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	if err := dec.Decode(&defs); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse type definitions: %w", err)
	}

	types := make(Types, len(defs.Types))
	for _, def := range defs.Types {
		if def.Name == "" {
			return nil, fmt.Errorf("type definition without name")
		}
		if _, dup := types[def.Name]; dup {
			return nil, fmt.Errorf("duplicate type %q", def.Name)
		}
		t, err := def.build(registry)
		if err != nil {
			return nil, fmt.Errorf("type %q: %w", def.Name, err)
		}
		types[def.Name] = t
	}
	return types, nil
}

func (def TypeDefinition) build(registry *Registry) (*Type, error) {
	var opts []Option
	switch {
	case def.Universal != nil && def.TenantField != "":
		static := *def.Universal
		if err := static.Validate(); err != nil {
			return nil, err
		}
		field := def.TenantField
		opts = append(opts, WithUniversal(func(ctx context.Context) *cond.Condition {
			if scoped := tenantCondition(ctx, field); scoped != nil {
				c := cond.And(static, *scoped)
				return &c
			}
			cp := static
			return &cp
		}))
		opts = append(opts, func(t *Type) { t.tenantField = field })
	case def.Universal != nil:
		if err := def.Universal.Validate(); err != nil {
			return nil, err
		}
		opts = append(opts, WithStaticUniversal(*def.Universal))
	case def.TenantField != "":
		opts = append(opts, WithTenantScope(def.TenantField))
	}
	if len(def.Owned) > 0 {
		opts = append(opts, WithOwned(def.Owned...))
	}

	t := NewType(def.Name, opts...)
	for _, ref := range def.OnUpdate {
		trigger, err := registry.Resolve(ref)
		if err != nil {
			return nil, err
		}
		t.OnUpdate(trigger)
	}
	for _, ref := range def.OnRefresh {
		trigger, err := registry.Resolve(ref)
		if err != nil {
			return nil, err
		}
		t.OnRefresh(trigger)
	}
	return t, nil
}
