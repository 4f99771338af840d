package internal

import "github.com/ValentinKolb/dUID/lib/cond"

// QueryType defines the possible queries for the state machine.
type QueryType uint8

const (
	QueryTGet       QueryType = iota // Retrieve a row by type and id.
	QueryTSelect                     // Retrieve all rows of a type matched by a condition.
	QueryTGetDBInfo                  // Retrieve metadata about the database underlying the machine.
)

func (q QueryType) String() string {
	switch q {
	case QueryTGet:
		return "Get"
	case QueryTSelect:
		return "Select"
	case QueryTGetDBInfo:
		return "GetDBInfo"
	default:
		return "Unknown"
	}
}

// Query defines the structure for lookup requests (read-only) sent via SyncRead or ReadStale
type Query struct {
	Type      QueryType      // The type of Query to perform.
	ObjType   string         // The object type (empty for GetDBInfo).
	ID        string         // The row id (only for Get).
	Condition cond.Condition // The row filter (only for Select).
}
