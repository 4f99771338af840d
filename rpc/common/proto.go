package common

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ValentinKolb/dUID/lib/cond"
	"github.com/ValentinKolb/dUID/lib/db"
	"github.com/ValentinKolb/dUID/lib/store"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	ObjType    string           `json:"obj_type,omitempty"`   // Used for: Get, Select
	ID         string           `json:"id,omitempty"`         // Used for: Get
	Sequence   string           `json:"sequence,omitempty"`   // Used for: NextValue
	Rows       []db.Row         `json:"rows,omitempty"`       // Used for: Insert, Update, Delete (request), Get, Select (response)
	Conditions []cond.Condition `json:"conditions,omitempty"` // Used for: Update, Delete (aligned with Rows)
	Condition  *cond.Condition  `json:"condition,omitempty"`  // Used for: Select
	Value      int64            `json:"value,omitempty"`      // Used for: NextValue (response)

	// Response only fields
	Ok   bool          `json:"ok,omitempty"`   // Used for: Get responses
	Code store.RetCode `json:"code,omitempty"` // Return code of a store error, 0 otherwise
	Err  string        `json:"err,omitempty"`  // Empty if no error, otherwise contains the error message

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Used for: DBInfo (response, JSON encoded db.DatabaseInfo)
}

// setErr stores an error in a response. Store errors keep their return code.
func (m *Message) setErr(err error) *Message {
	if err == nil {
		return m
	}
	var se *store.Error
	if errors.As(err, &se) {
		m.Code = se.Code
		m.Err = se.Msg
		return m
	}
	m.Err = err.Error()
	return m
}

// AsError returns the error carried by a response, nil if there is none.
// Store errors are rebuilt as *store.Error.
func (m *Message) AsError() error {
	if m.MsgType != MsgTError && m.Err == "" {
		return nil
	}
	if m.Code != store.RetCSuccess {
		return store.NewError(m.Code, m.Err)
	}
	return errors.New(m.Err)
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewInsertRequest creates a new Insert request
func NewInsertRequest(rows []db.Row) *Message {
	return &Message{
		MsgType: MsgTInsert,
		Rows:    rows,
	}
}

// NewInsertResponse creates a new Insert response
func NewInsertResponse(err error) *Message {
	return (&Message{MsgType: MsgTInsert}).setErr(err)
}

// NewUpdateRequest creates a new Update request
func NewUpdateRequest(rows []db.Row, conditions []cond.Condition) *Message {
	return &Message{
		MsgType:    MsgTUpdate,
		Rows:       rows,
		Conditions: conditions,
	}
}

// NewUpdateResponse creates a new Update response
func NewUpdateResponse(err error) *Message {
	return (&Message{MsgType: MsgTUpdate}).setErr(err)
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(rows []db.Row, conditions []cond.Condition) *Message {
	return &Message{
		MsgType:    MsgTDelete,
		Rows:       rows,
		Conditions: conditions,
	}
}

// NewDeleteResponse creates a new Delete response
func NewDeleteResponse(err error) *Message {
	return (&Message{MsgType: MsgTDelete}).setErr(err)
}

// NewGetRequest creates a new Get request
func NewGetRequest(objType, id string) *Message {
	return &Message{
		MsgType: MsgTGet,
		ObjType: objType,
		ID:      id,
	}
}

// NewGetResponse creates a new Get response
func NewGetResponse(row db.Row, ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTGet,
		Ok:      ok,
	}
	if ok {
		msg.Rows = []db.Row{row}
	}
	return msg.setErr(err)
}

// NewSelectRequest creates a new Select request
func NewSelectRequest(objType string, c cond.Condition) *Message {
	return &Message{
		MsgType:   MsgTSelect,
		ObjType:   objType,
		Condition: &c,
	}
}

// NewSelectResponse creates a new Select response
func NewSelectResponse(rows []db.Row, err error) *Message {
	return (&Message{MsgType: MsgTSelect, Rows: rows}).setErr(err)
}

// NewNextValueRequest creates a new NextValue request
func NewNextValueRequest(sequence string) *Message {
	return &Message{
		MsgType:  MsgTNextValue,
		Sequence: sequence,
	}
}

// NewNextValueResponse creates a new NextValue response
func NewNextValueResponse(value int64, err error) *Message {
	return (&Message{MsgType: MsgTNextValue, Value: value}).setErr(err)
}

// NewDBInfoRequest creates a new DBInfo request
func NewDBInfoRequest() *Message {
	return &Message{MsgType: MsgTDBInfo}
}

// NewDBInfoResponse creates a new DBInfo response
func NewDBInfoResponse(info db.DatabaseInfo, err error) *Message {
	msg := &Message{MsgType: MsgTDBInfo}
	if err != nil {
		return msg.setErr(err)
	}
	meta, err := json.Marshal(info)
	if err != nil {
		return msg.setErr(fmt.Errorf("failed to encode db info: %w", err))
	}
	msg.Meta = meta
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

var messageTypeNames = map[MessageType]string{
	MsgTSuccess:   "success",
	MsgTError:     "error",
	MsgTInsert:    "insert",
	MsgTUpdate:    "update",
	MsgTDelete:    "delete",
	MsgTGet:       "get",
	MsgTSelect:    "select",
	MsgTNextValue: "nextValue",
	MsgTDBInfo:    "dbInfo",
}

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for typ, name := range messageTypeNames {
		if name == s {
			*t = typ
			return nil
		}
	}
	return fmt.Errorf("unknown message type: %s", s)
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// IStore operations

	MsgTInsert    // Insert a batch of rows
	MsgTUpdate    // Update a batch of rows under conditions
	MsgTDelete    // Delete a batch of rows under conditions
	MsgTGet       // Get a row by type and id
	MsgTSelect    // Select rows of a type by condition
	MsgTNextValue // Advance a named sequence
	MsgTDBInfo    // Retrieve information about the database of the shard
)
