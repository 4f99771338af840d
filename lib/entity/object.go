package entity

import (
	"fmt"

	"github.com/ValentinKolb/dUID/lib/db"
	"github.com/ValentinKolb/dUID/lib/ident"
)

// State is the lifecycle stage of an object.
type State uint8

const (
	StateUnpersisted State = iota // created, never inserted
	StatePersisted                // inserted, may be updated, refreshed or deleted
	StateDeleted                  // terminal
)

func (s State) String() string {
	switch s {
	case StateUnpersisted:
		return "Unpersisted"
	case StatePersisted:
		return "Persisted"
	case StateDeleted:
		return "Deleted"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// Object is the in-memory payload of one row.
// ID is empty until the object is inserted.
type Object struct {
	ID     ident.ID
	Fields map[string]string

	typ   *Type
	state State
}

// NewObject creates an unpersisted object of the given type.
func NewObject(t *Type, fields map[string]string) *Object {
	if fields == nil {
		fields = make(map[string]string)
	}
	return &Object{typ: t, Fields: fields}
}

// Load wraps a persisted row of the given type.
func Load(t *Type, row db.Row) *Object {
	obj := NewObject(t, row.Clone().Fields)
	obj.ID = ident.ID(row.ID)
	obj.state = StatePersisted
	return obj
}

func (o *Object) Type() *Type  { return o.typ }
func (o *Object) State() State { return o.state }

// SetState moves the object to another lifecycle stage. Only the persistence layer calls it.
func (o *Object) SetState(s State) {
	o.state = s
}

func (o *Object) Get(field string) (string, bool) {
	v, ok := o.Fields[field]
	return v, ok
}

func (o *Object) Set(field, value string) {
	if o.Fields == nil {
		o.Fields = make(map[string]string)
	}
	o.Fields[field] = value
}

// Row returns a copy of the object as a row.
func (o *Object) Row() db.Row {
	return db.Row{Type: o.typ.Name(), ID: o.ID.String(), Fields: o.Fields}.Clone()
}

func (o *Object) String() string {
	return fmt.Sprintf("%s[%s]", o.typ.Name(), o.ID)
}
