package internal

import (
	"encoding/binary"
	"reflect"
	"testing"

	"github.com/ValentinKolb/dUID/lib/cond"
	"github.com/ValentinKolb/dUID/lib/db"
)

// TestSerializeDeserialize tests both Serialize and Deserialize methods
func TestSerializeDeserialize(t *testing.T) {
	tests := []struct {
		name    string
		command Command
	}{
		{
			name: "Insert batch",
			command: Command{
				Type: CommandTInsert,
				Mutations: []db.Mutation{
					{Row: db.Row{Type: "order", ID: "2400", Fields: map[string]string{"tenant": "acme"}}},
					{Row: db.Row{Type: "order", ID: "2401"}},
				},
			},
		},
		{
			name: "Update with nested condition",
			command: Command{
				Type: CommandTUpdate,
				Mutations: []db.Mutation{{
					Row:       db.Row{Type: "order", ID: "2400", Fields: map[string]string{"state": "paid"}},
					Condition: cond.And(cond.Equals("tenant", "acme"), cond.IDCondition("2400")),
				}},
			},
		},
		{
			name: "Delete without fields",
			command: Command{
				Type: CommandTDelete,
				Mutations: []db.Mutation{{
					Row:       db.Row{Type: "order", ID: "2400"},
					Condition: cond.IDCondition("2400"),
				}},
			},
		},
		{
			name:    "NextValue",
			command: Command{Type: CommandTNextValue, Sequence: "objectidseed"},
		},
		{
			name:    "Unicode sequence name",
			command: Command{Type: CommandTNextValue, Sequence: "你好世界"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.command.Serialize()
			if err != nil {
				t.Fatalf("Serialize() error = %v", err)
			}

			var got Command
			if err := got.Deserialize(data); err != nil {
				t.Fatalf("Deserialize() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.command) {
				t.Errorf("Deserialize() = %+v, want %+v", got, tt.command)
			}
		})
	}
}

// TestSerializeHeader checks the binary layout of the header
func TestSerializeHeader(t *testing.T) {
	cmd := Command{Type: CommandTNextValue, Sequence: "seq"}
	data, err := cmd.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != headerSize+3 {
		t.Fatalf("len = %d, want %d", len(data), headerSize+3)
	}
	if CommandType(data[0]) != CommandTNextValue {
		t.Errorf("type byte = %d", data[0])
	}
	if n := binary.BigEndian.Uint32(data[1:5]); n != 3 {
		t.Errorf("sequence length = %d, want 3", n)
	}
	if string(data[headerSize:]) != "seq" {
		t.Errorf("sequence = %q", data[headerSize:])
	}
}

// TestDeserializeErrors tests deserialization of malformed data
func TestDeserializeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"short header", []byte{0, 0, 0}},
		{"sequence length exceeds data", []byte{byte(CommandTNextValue), 0, 0, 0, 10, 'a'}},
		{"invalid body", append([]byte{byte(CommandTInsert), 0, 0, 0, 0}, []byte("{not json")...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cmd Command
			if err := cmd.Deserialize(tt.data); err == nil {
				t.Errorf("Deserialize(%v) expected error", tt.data)
			}
		})
	}
}

// TestCommandTypeToDBFeature tests the feature mapping
func TestCommandTypeToDBFeature(t *testing.T) {
	tests := []struct {
		ct      CommandType
		feature db.Feature
		wantErr bool
	}{
		{CommandTInsert, db.FeatureInsert, false},
		{CommandTUpdate, db.FeatureUpdate, false},
		{CommandTDelete, db.FeatureDelete, false},
		{CommandTNextValue, db.FeatureSequence, false},
		{CommandType(99), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.ct.String(), func(t *testing.T) {
			f, err := tt.ct.ToDBFeature()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ToDBFeature() error = %v, wantErr %v", err, tt.wantErr)
			}
			if f != tt.feature {
				t.Errorf("ToDBFeature() = %v, want %v", f, tt.feature)
			}
		})
	}
}

func TestValueEncoding(t *testing.T) {
	for _, v := range []int64{1, 1024, 1<<53 + 7, 1<<63 - 1} {
		got, err := DecodeValue(EncodeValue(v))
		if err != nil || got != v {
			t.Errorf("DecodeValue(EncodeValue(%d)) = %d, %v", v, got, err)
		}
	}
	if _, err := DecodeValue([]byte{1, 2}); err == nil {
		t.Error("DecodeValue() expected error for short data")
	}
}

func TestRows(t *testing.T) {
	cmd := Command{Mutations: []db.Mutation{{Row: db.Row{Type: "a", ID: "21"}}, {Row: db.Row{Type: "a", ID: "22"}}}}
	rows := cmd.Rows()
	if len(rows) != 2 || rows[1].ID != "22" {
		t.Errorf("Rows() = %v", rows)
	}
}
