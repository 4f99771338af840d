package pgstore

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ValentinKolb/dUID/lib/cond"
	"github.com/jackc/pgx/v5"
)

// DefaultTable is the table rows are stored in if no other name is configured.
const DefaultTable = "duid_rows"

// sequencePrefix is prepended to every sequence name to keep them apart from other sequences in the schema.
const sequencePrefix = "duid_seq_"

var sequenceName = regexp.MustCompile(`^[a-z0-9_]{1,48}$`)

// sequenceIdent returns the quoted PostgreSQL identifier for a named sequence.
func sequenceIdent(name string) (string, error) {
	if !sequenceName.MatchString(name) {
		return "", fmt.Errorf("invalid sequence name %q (allowed: lowercase letters, digits and underscores)", name)
	}
	return pgx.Identifier{sequencePrefix + name}.Sanitize(), nil
}

// schemaSQL returns the statement that creates the row table.
func schemaSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	type   TEXT   NOT NULL,
	id     TEXT   NOT NULL,
	fields JSONB  NOT NULL DEFAULT '{}'::jsonb,
	idx    BIGINT NOT NULL DEFAULT 1,
	PRIMARY KEY (type, id)
)`, pgx.Identifier{table}.Sanitize())
}

// whereBuilder translates conditions into SQL. Values are never inlined,
// they are collected as positional arguments.
type whereBuilder struct {
	args []any
}

func (b *whereBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// field returns the SQL expression for a row field.
// A missing field evaluates to NULL which is handled by IS [NOT] DISTINCT FROM.
func (b *whereBuilder) field(name string) string {
	if name == cond.IDField {
		return "id"
	}
	return "fields->>" + b.arg(name)
}

// build returns the SQL for a validated condition. The result never evaluates to NULL.
func (b *whereBuilder) build(c cond.Condition) string {
	switch c.Op {
	case cond.OpTrue:
		return "TRUE"
	case cond.OpEquals:
		return fmt.Sprintf("(%s IS NOT DISTINCT FROM %s)", b.field(c.Field), b.arg(c.Value))
	case cond.OpNotEquals:
		return fmt.Sprintf("(%s IS DISTINCT FROM %s)", b.field(c.Field), b.arg(c.Value))
	case cond.OpAnd, cond.OpOr:
		if len(c.Args) == 0 {
			return "FALSE"
		}
		parts := make([]string, len(c.Args))
		for i, arg := range c.Args {
			parts[i] = b.build(arg)
		}
		sep := " AND "
		if c.Op == cond.OpOr {
			sep = " OR "
		}
		return "(" + strings.Join(parts, sep) + ")"
	case cond.OpNot:
		if len(c.Args) != 1 {
			return "FALSE"
		}
		return "(NOT " + b.build(c.Args[0]) + ")"
	default:
		return "FALSE"
	}
}
