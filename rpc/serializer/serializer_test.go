package serializer

import (
	"reflect"
	"testing"

	"github.com/ValentinKolb/dUID/lib/cond"
	"github.com/ValentinKolb/dUID/lib/db"
	"github.com/ValentinKolb/dUID/lib/store"
	"github.com/ValentinKolb/dUID/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON": NewJSONSerializer,
	"GOB":  NewGOBSerializer,
}

func testRow(id string) db.Row {
	return db.Row{
		Type:   "customer",
		ID:     id,
		Fields: map[string]string{"name": "alice", "tenant": "t1"},
		Index:  7,
	}
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	selectCond := cond.And(cond.Equals("tenant", "t1"), cond.Not(cond.Equals("name", "bob")))
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Insert request
		{
			MsgType: common.MsgTInsert,
			Rows:    []db.Row{testRow("2a"), testRow("2b")},
		},

		// Update request with aligned conditions
		{
			MsgType:    common.MsgTUpdate,
			Rows:       []db.Row{testRow("2a")},
			Conditions: []cond.Condition{cond.And(cond.IDCondition("2a"), cond.Equals("tenant", "t1"))},
		},

		// Select request
		{
			MsgType:   common.MsgTSelect,
			ObjType:   "customer",
			Condition: &selectCond,
		},

		// Get response
		{
			MsgType: common.MsgTGet,
			Rows:    []db.Row{testRow("2c")},
			Ok:      true,
		},

		// NextValue response
		{
			MsgType: common.MsgTNextValue,
			Value:   1 << 40,
		},

		// Store error response
		{
			MsgType: common.MsgTDelete,
			Code:    store.RetCNotFound,
			Err:     "row 2a not matched by condition",
		},

		// Error response
		{
			MsgType: common.MsgTError,
			Err:     "test error message",
		},

		// DBInfo response
		{
			MsgType: common.MsgTDBInfo,
			Meta:    []byte(`{"db_type":"memdb"}`),
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				var result common.Message
				if err = serializer.Deserialize(data, &result); err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for msgType := common.MsgTSuccess; msgType <= common.MsgTDBInfo; msgType++ {
				data, err := serializer.Serialize(common.Message{MsgType: msgType})
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType, err)
					continue
				}

				var result common.Message
				if err = serializer.Deserialize(data, &result); err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType, err)
					continue
				}

				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s", msgType, result.MsgType)
				}
			}
		})
	}
}

// TestStoreErrorSurvivesRoundTrip checks that a store error keeps its code across the wire
func TestStoreErrorSurvivesRoundTrip(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()
			resp := common.NewUpdateResponse(store.NewError(store.RetCNotFound, "no row"))

			data, err := serializer.Serialize(*resp)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}
			var result common.Message
			if err := serializer.Deserialize(data, &result); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			err = result.AsError()
			if !store.IsCode(err, store.RetCNotFound) {
				t.Fatalf("expected not found store error, got %v", err)
			}
		})
	}
}

func TestInvalidData(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			var msg common.Message
			if err := factory().Deserialize([]byte{0xff, 0x00, 0x13}, &msg); err == nil {
				t.Errorf("Expected error for corrupt data")
			}
		})
	}
}

func TestJSONUnknownMessageType(t *testing.T) {
	var msg common.Message
	if err := NewJSONSerializer().Deserialize([]byte(`{"msg_type":"lock"}`), &msg); err == nil {
		t.Errorf("Expected error for unknown message type")
	}
}
