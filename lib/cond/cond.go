package cond

import (
	"fmt"
	"strings"
)

// IDField is the name of the field holding the object id of a row.
const IDField = "id"

// Op is the operator of a condition node.
type Op string

const (
	OpTrue      Op = "true" // matches every row
	OpEquals    Op = "eq"
	OpNotEquals Op = "ne"
	OpAnd       Op = "and"
	OpOr        Op = "or"
	OpNot       Op = "not"
)

// Row is anything a condition can be evaluated against.
type Row interface {
	// Lookup returns the value of a field and whether the field is set.
	Lookup(field string) (value string, ok bool)
}

// Condition is one node of a filter expression.
type Condition struct {
	Op    Op          `json:"op" yaml:"op"`
	Field string      `json:"field,omitempty" yaml:"field,omitempty"`
	Value string      `json:"value,omitempty" yaml:"value,omitempty"`
	Args  []Condition `json:"args,omitempty" yaml:"args,omitempty"`
}

// --------------------------------------------------------------------------
// Constructors
// --------------------------------------------------------------------------

// True returns a condition matching every row.
func True() Condition {
	return Condition{Op: OpTrue}
}

// Equals matches rows whose field is set and equal to value.
func Equals(field, value string) Condition {
	return Condition{Op: OpEquals, Field: field, Value: value}
}

// NotEquals matches rows whose field is unset or different from value.
func NotEquals(field, value string) Condition {
	return Condition{Op: OpNotEquals, Field: field, Value: value}
}

// And matches rows matched by all arguments.
func And(args ...Condition) Condition {
	return Condition{Op: OpAnd, Args: args}
}

// Or matches rows matched by at least one argument.
func Or(args ...Condition) Condition {
	return Condition{Op: OpOr, Args: args}
}

// Not negates a condition.
func Not(c Condition) Condition {
	return Condition{Op: OpNot, Args: []Condition{c}}
}

// --------------------------------------------------------------------------
// Evaluation
// --------------------------------------------------------------------------

// Validate checks the structure of the tree.
func (c Condition) Validate() error {
	switch c.Op {
	case OpTrue:
		return nil
	case OpEquals, OpNotEquals:
		if c.Field == "" {
			return fmt.Errorf("condition %s without field", c.Op)
		}
		return nil
	case OpAnd, OpOr:
		if len(c.Args) == 0 {
			return fmt.Errorf("condition %s without arguments", c.Op)
		}
	case OpNot:
		if len(c.Args) != 1 {
			return fmt.Errorf("condition not expects 1 argument, got %d", len(c.Args))
		}
	default:
		return fmt.Errorf("unknown condition operator %q", c.Op)
	}
	for _, arg := range c.Args {
		if err := arg.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Match evaluates the condition against a row. Invalid trees never match.
func (c Condition) Match(row Row) bool {
	switch c.Op {
	case OpTrue:
		return true
	case OpEquals:
		v, ok := row.Lookup(c.Field)
		return ok && v == c.Value
	case OpNotEquals:
		v, ok := row.Lookup(c.Field)
		return !ok || v != c.Value
	case OpAnd:
		if len(c.Args) == 0 {
			return false
		}
		for _, arg := range c.Args {
			if !arg.Match(row) {
				return false
			}
		}
		return true
	case OpOr:
		for _, arg := range c.Args {
			if arg.Match(row) {
				return true
			}
		}
		return false
	case OpNot:
		if len(c.Args) != 1 {
			return false
		}
		return !c.Args[0].Match(row)
	default:
		return false
	}
}

func (c Condition) String() string {
	switch c.Op {
	case OpTrue:
		return "TRUE"
	case OpEquals:
		return fmt.Sprintf("%s = %q", c.Field, c.Value)
	case OpNotEquals:
		return fmt.Sprintf("%s != %q", c.Field, c.Value)
	case OpAnd, OpOr:
		parts := make([]string, len(c.Args))
		for i, arg := range c.Args {
			parts[i] = arg.String()
		}
		return "(" + strings.Join(parts, " "+strings.ToUpper(string(c.Op))+" ") + ")"
	case OpNot:
		if len(c.Args) == 1 {
			return "NOT " + c.Args[0].String()
		}
	}
	return fmt.Sprintf("INVALID(%s)", c.Op)
}

// Fields is a plain map row, handy for tests and for payload field maps.
type Fields map[string]string

func (f Fields) Lookup(field string) (string, bool) {
	v, ok := f[field]
	return v, ok
}
