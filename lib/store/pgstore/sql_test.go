package pgstore

import (
	"reflect"
	"testing"

	"github.com/ValentinKolb/dUID/lib/cond"
)

func TestWhereBuilder(t *testing.T) {
	tests := []struct {
		name     string
		cond     cond.Condition
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "true",
			cond:    cond.True(),
			wantSQL: "TRUE",
		},
		{
			name:     "id equals",
			cond:     cond.IDCondition("2400"),
			wantSQL:  "(id IS NOT DISTINCT FROM $1)",
			wantArgs: []any{"2400"},
		},
		{
			name:     "field not equals",
			cond:     cond.NotEquals("state", "deleted"),
			wantSQL:  "(fields->>$1 IS DISTINCT FROM $2)",
			wantArgs: []any{"state", "deleted"},
		},
		{
			name:     "and with not",
			cond:     cond.And(cond.Equals("tenant", "acme"), cond.Not(cond.IDCondition("2400"))),
			wantSQL:  "((fields->>$1 IS NOT DISTINCT FROM $2) AND (NOT (id IS NOT DISTINCT FROM $3)))",
			wantArgs: []any{"tenant", "acme", "2400"},
		},
		{
			name:     "or",
			cond:     cond.Or(cond.IDCondition("21"), cond.IDCondition("22")),
			wantSQL:  "((id IS NOT DISTINCT FROM $1) OR (id IS NOT DISTINCT FROM $2))",
			wantArgs: []any{"21", "22"},
		},
		{
			name:    "empty and",
			cond:    cond.Condition{Op: cond.OpAnd},
			wantSQL: "FALSE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &whereBuilder{}
			if got := b.build(tt.cond); got != tt.wantSQL {
				t.Errorf("build() = %q, want %q", got, tt.wantSQL)
			}
			if len(b.args) != len(tt.wantArgs) || (len(b.args) > 0 && !reflect.DeepEqual(b.args, tt.wantArgs)) {
				t.Errorf("args = %v, want %v", b.args, tt.wantArgs)
			}
		})
	}
}

func TestWhereBuilderContinuesNumbering(t *testing.T) {
	b := &whereBuilder{}
	prefix := b.arg("order")
	got := b.build(cond.Equals("tenant", "acme"))
	if prefix != "$1" || got != "(fields->>$2 IS NOT DISTINCT FROM $3)" {
		t.Errorf("prefix = %s, build() = %s", prefix, got)
	}
}

func TestSequenceIdent(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"objectidseed", `"duid_seq_objectidseed"`, false},
		{"seq_2", `"duid_seq_seq_2"`, false},
		{"", "", true},
		{"Upper", "", true},
		{"drop table;", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sequenceIdent(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("sequenceIdent(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("sequenceIdent(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}
