package cond

import (
	"context"
	"testing"

	"github.com/matryer/is"
)

func TestMatch(t *testing.T) {
	row := Fields{IDField: "2400", "tenant": "acme", "state": "open"}

	tests := []struct {
		name string
		c    Condition
		want bool
	}{
		{name: "true", c: True(), want: true},
		{name: "equals", c: Equals("tenant", "acme"), want: true},
		{name: "equals other value", c: Equals("tenant", "other"), want: false},
		{name: "equals missing field", c: Equals("missing", ""), want: false},
		{name: "not equals", c: NotEquals("state", "deleted"), want: true},
		{name: "not equals missing field", c: NotEquals("deleted", "true"), want: true},
		{name: "and", c: And(Equals("tenant", "acme"), IDCondition("2400")), want: true},
		{name: "and one false", c: And(Equals("tenant", "acme"), IDCondition("2401")), want: false},
		{name: "empty and", c: And(), want: false},
		{name: "or", c: Or(IDCondition("2401"), IDCondition("2400")), want: true},
		{name: "empty or", c: Or(), want: false},
		{name: "not", c: Not(Equals("state", "closed")), want: true},
		{name: "unknown op", c: Condition{Op: "like"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Match(row); got != tt.want {
				t.Errorf("%s.Match() = %v, want %v", tt.c, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	is := is.New(t)

	is.NoErr(And(Equals("a", "b"), Not(True())).Validate())
	is.True(Equals("", "x").Validate() != nil)
	is.True(And().Validate() != nil)
	is.True(Condition{Op: OpNot}.Validate() != nil)
	is.True(Condition{Op: "like"}.Validate() != nil)
	is.True(Or(Equals("a", "b"), Condition{Op: OpEquals}).Validate() != nil)
}

func TestString(t *testing.T) {
	is := is.New(t)
	c := And(Equals("tenant", "acme"), Not(Equals(IDField, "2400")))
	is.Equal(c.String(), `(tenant = "acme" AND NOT id = "2400")`)
}

// countingSource hands out a fresh universal condition on every call.
type countingSource struct {
	calls int
	field string
}

func (s *countingSource) UniversalCondition(_ context.Context) *Condition {
	s.calls++
	if s.field == "" {
		return nil
	}
	c := Equals(s.field, "acme")
	return &c
}

func TestBuildRowConditionWithoutUniversal(t *testing.T) {
	is := is.New(t)
	source := &countingSource{}

	c := BuildRowCondition(context.Background(), source, "2400")

	is.Equal(c.Op, OpEquals)
	is.Equal(c.Field, IDField)
	is.Equal(c.Value, "2400")
	is.Equal(source.calls, 1)
}

func TestBuildRowConditionNilSource(t *testing.T) {
	is := is.New(t)
	c := BuildRowCondition(context.Background(), nil, "2401")
	is.Equal(c.String(), IDCondition("2401").String())
}

func TestBuildRowConditionWithUniversal(t *testing.T) {
	is := is.New(t)
	source := &countingSource{field: "tenant"}
	ctx := context.Background()

	first := BuildRowCondition(ctx, source, "2400")
	second := BuildRowCondition(ctx, source, "2401")

	is.Equal(first.Op, OpAnd)
	is.Equal(len(first.Args), 2)
	is.Equal(first.Args[0].String(), `tenant = "acme"`)
	is.Equal(first.Args[1].String(), `id = "2400"`)
	is.Equal(second.Args[1].String(), `id = "2401"`)

	// fetched fresh for every row
	is.Equal(source.calls, 2)

	is.True(first.Match(Fields{IDField: "2400", "tenant": "acme"}))
	is.True(!first.Match(Fields{IDField: "2400", "tenant": "other"}))
	is.True(!first.Match(Fields{IDField: "2401", "tenant": "acme"}))
}
