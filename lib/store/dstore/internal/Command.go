package internal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/dUID/lib/db"
)

// CommandType defines the possible operations for the state machine.
type CommandType uint8

const (
	CommandTInsert    CommandType = iota // Insert a batch of new rows.
	CommandTUpdate                       // Update a batch of rows under conditions.
	CommandTDelete                       // Delete a batch of rows under conditions.
	CommandTNextValue                    // Advance a named sequence.
)

func (ct CommandType) String() string {
	switch ct {
	case CommandTInsert:
		return "Insert"
	case CommandTUpdate:
		return "Update"
	case CommandTDelete:
		return "Delete"
	case CommandTNextValue:
		return "NextValue"
	default:
		return fmt.Sprintf("Unknown(%d)", ct)
	}
}

// ToDBFeature converts a CommandType to the corresponding db.Feature.
// This can be used for checking if the database supports a certain operation.
func (ct CommandType) ToDBFeature() (db.Feature, error) {
	switch ct {
	case CommandTInsert:
		return db.FeatureInsert, nil
	case CommandTUpdate:
		return db.FeatureUpdate, nil
	case CommandTDelete:
		return db.FeatureDelete, nil
	case CommandTNextValue:
		return db.FeatureSequence, nil
	default:
		return 0, fmt.Errorf("unknown command type %d", ct)
	}
}

// headerSize is Type + SequenceLen
const headerSize = 1 + 4

// Command represents a command to be executed by the state machine (a single entry in the raft log).
// A whole batch is one command, so it is applied atomically on every replica.
type Command struct {
	Type      CommandType
	Sequence  string        // only set for CommandTNextValue
	Mutations []db.Mutation // the batch, conditions are ignored for CommandTInsert
}

// Rows returns the rows of the batch.
func (command *Command) Rows() []db.Row {
	rows := make([]db.Row, len(command.Mutations))
	for i, m := range command.Mutations {
		rows[i] = m.Row
	}
	return rows
}

// Serialize serializes a command into a byte array with the format:
// 1 byte for operation type,
// 4 bytes for sequence name length (big endian),
// N bytes for sequence name,
// M bytes for the JSON encoded batch (optional)
func (command *Command) Serialize() ([]byte, error) {
	var body []byte
	if len(command.Mutations) > 0 {
		var err error
		if body, err = json.Marshal(command.Mutations); err != nil {
			return nil, fmt.Errorf("failed to encode batch: %w", err)
		}
	}

	result := make([]byte, headerSize+len(command.Sequence)+len(body))
	result[0] = byte(command.Type)
	binary.BigEndian.PutUint32(result[1:5], uint32(len(command.Sequence)))
	copy(result[headerSize:], command.Sequence)
	copy(result[headerSize+len(command.Sequence):], body)
	return result, nil
}

// Deserialize extracts all Command fields from a byte array.
func (command *Command) Deserialize(data []byte) error {
	if len(data) < headerSize {
		return fmt.Errorf("data too short for command")
	}

	command.Type = CommandType(data[0])
	seqLen := binary.BigEndian.Uint32(data[1:5])
	if len(data) < headerSize+int(seqLen) {
		return fmt.Errorf("data too short for sequence name of length %d", seqLen)
	}
	command.Sequence = string(data[headerSize : headerSize+seqLen])

	command.Mutations = nil
	if body := data[headerSize+int(seqLen):]; len(body) > 0 {
		if err := json.Unmarshal(body, &command.Mutations); err != nil {
			return fmt.Errorf("failed to decode batch: %w", err)
		}
	}
	return nil
}

// EncodeValue encodes a sequence value for the result data of a command.
func EncodeValue(v int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(v))
	return buf
}

// DecodeValue is the inverse of EncodeValue.
func DecodeValue(data []byte) (int64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("invalid sequence value of %d bytes", len(data))
	}
	return int64(binary.BigEndian.Uint64(data)), nil
}
