package db

import (
	"errors"
	"io"

	"github.com/ValentinKolb/dUID/lib/cond"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplMemDB    Implementation = "memdb"
	ImplPostgres Implementation = "postgres" // used by the pgstore, which is not a RowDB
)

// Feature represents database features as bit flags
type Feature uint64

const (
	FeatureInsert   Feature = 1 << iota // Support for Insert operations
	FeatureUpdate                       // Support for conditional Update operations
	FeatureDelete                       // Support for conditional Delete operations
	FeatureGet                          // Support for Get operations
	FeatureSelect                       // Support for Select operations
	FeatureSequence                     // Support for named sequences
	FeatureSave                         // Support for Save operations
	FeatureLoad                         // Support for Load operations
)

func (f Feature) String() string {
	switch f {
	case FeatureInsert:
		return "Insert"
	case FeatureUpdate:
		return "Update"
	case FeatureDelete:
		return "Delete"
	case FeatureGet:
		return "Get"
	case FeatureSelect:
		return "Select"
	case FeatureSequence:
		return "Sequence"
	case FeatureSave:
		return "Save"
	case FeatureLoad:
		return "Load"
	default:
		return "Unknown"
	}
}

type DatabaseInfo struct {
	SizeBytes         int            `json:"size_bytes"`
	DbType            Implementation `json:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// Errors reported by write operations. Implementations wrap them with details.
var (
	ErrNotFound = errors.New("row not found or not matched by condition")
	ErrConflict = errors.New("row already exists")
	ErrInvalid  = errors.New("invalid row")
)

// Mutation pairs a row with the condition that must select its persisted
// version for the mutation to apply.
type Mutation struct {
	Row       Row            `json:"row"`
	Condition cond.Condition `json:"condition"`
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// RowDB defines an interface for row database implementations.
// Rows are addressed by (type, id). All batch writes are all-or-nothing:
// either every element of the batch is applied or none is.
type RowDB interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Insert adds new rows. It fails with ErrConflict if any row already exists
	// (or appears twice in the batch) and with ErrInvalid if a row has no type or id.
	// The writeIndex parameter is used as a logical timestamp for the rows.
	Insert(rows []Row, writeIndex uint64) (err error)

	// Update replaces the fields of existing rows. For every mutation the
	// persisted row with the same type and id must exist and be matched by the
	// condition, otherwise ErrNotFound is returned and nothing is changed.
	Update(mutations []Mutation, writeIndex uint64) (err error)

	// Delete removes existing rows, with the same matching rules as Update.
	Delete(mutations []Mutation, writeIndex uint64) (err error)

	// NextValue increments the named sequence and returns the new value.
	// Sequences start at 1 and never hand out a value twice.
	NextValue(sequence string, writeIndex uint64) (value int64)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get retrieves a row by type and id.
	Get(objType, id string) (row Row, loaded bool)

	// Select returns all rows of a type matched by the condition, ordered by id.
	Select(objType string, c cond.Condition) (rows []Row)

	// --------------------------------------------------------------------------
	// Persistence Operations
	// --------------------------------------------------------------------------

	// Save persists the current state of the database to the provided io.Writer.
	Save(w io.Writer) (err error)

	// Load restores the database state data provided by an io.Reader.
	Load(r io.Reader) (err error)

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the database implementation supports the specified feature.
	// Multiple features can be checked at once using bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)

	// --------------------------------------------------------------------------
	// Write Index Operations
	// --------------------------------------------------------------------------

	// SetWriteIdx sets the current index of the database only if the provided index is greater than the current index.
	SetWriteIdx(index uint64)

	// WriteIdx returns the current index of the database .
	WriteIdx() (index uint64)

	// Close closes the database.
	Close() (err error)
}
