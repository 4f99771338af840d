package store

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/dUID/lib/cond"
	"github.com/ValentinKolb/dUID/lib/db"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory is a function type that creates a new db used by the store.
// This is used to abstract the creation of the db from the store implementation.
type DBFactory func() db.RowDB

// IStore is the interface the persistence core talks to.
// Batch methods take aligned slices: payloads[i] is applied under conditions[i].
// A batch is all-or-nothing for every implementation in this module.
// All methods return a *Error (nil on success).
type IStore interface {
	// Insert persists new rows. Fails with RetCConflict if a row already exists.
	Insert(payloads []db.Row) (err error)
	// BatchUpdate replaces the stored fields of every payload whose persisted row is
	// selected by the corresponding condition. Fails with RetCNotFound otherwise.
	BatchUpdate(payloads []db.Row, conditions []cond.Condition) (err error)
	// BatchDelete removes every row selected by the corresponding condition.
	// Fails with RetCNotFound if a condition does not select its row.
	BatchDelete(payloads []db.Row, conditions []cond.Condition) (err error)
	// Get returns a row by type and id. The boolean return value indicates whether the row was found.
	Get(objType, id string) (row db.Row, loaded bool, err error)
	// Select returns the rows of a type matched by the condition, ordered by id.
	Select(objType string, c cond.Condition) (rows []db.Row, err error)
	// NextValue advances the named sequence and returns the new value.
	// The same value is never returned twice, across all clients of the store.
	NextValue(sequence string) (value int64, err error)
	// GetDBInfo returns metadata about the database underlying the store.
	// It is not guaranteed that all fields are filled in or that the information is up-to-date!
	GetDBInfo() (info db.DatabaseInfo, err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new StoreError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// FromDBError converts an error of a db.RowDB into a *Error with a matching code.
// A nil error stays nil.
func FromDBError(err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	switch {
	case errors.Is(err, db.ErrNotFound):
		return NewError(RetCNotFound, err.Error())
	case errors.Is(err, db.ErrConflict):
		return NewError(RetCConflict, err.Error())
	case errors.Is(err, db.ErrInvalid):
		return NewError(RetCInvalidOperation, err.Error())
	default:
		return NewError(RetCInternalError, err.Error())
	}
}

// IsCode reports whether err is a *Error with the given code.
func IsCode(err error, code RetCode) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == code
}

// CheckBatch validates the shape of a conditional batch.
func CheckBatch(payloads []db.Row, conditions []cond.Condition) error {
	if len(payloads) != len(conditions) {
		return NewError(RetCInvalidOperation,
			fmt.Sprintf("payload batch length %d is not consistent with condition batch length %d", len(payloads), len(conditions)))
	}
	return nil
}

// Mutations zips payloads and conditions. The shape must have been checked.
func Mutations(payloads []db.Row, conditions []cond.Condition) []db.Mutation {
	mutations := make([]db.Mutation, len(payloads))
	for i := range payloads {
		mutations[i] = db.Mutation{Row: payloads[i], Condition: conditions[i]}
	}
	return mutations
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by underlying database.
	RetCInvalidOperation                    // 3: Invalid operation.
	RetCNotFound                            // 4: A condition did not select its row.
	RetCConflict                            // 5: The row already exists.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCNotFound:
		return "NotFound"
	case RetCConflict:
		return "Conflict"
	default:
		return "Unknown"
	}
}
