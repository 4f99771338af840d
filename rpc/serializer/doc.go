// Package serializer encodes common.Message values for the RPC transports.
//
// Two implementations are available:
//
//   - jsonSerializerImpl: JSON encoding. Message types are written by name,
//     which keeps requests readable when debugging with curl.
//
//   - gobSerializerImpl: Go's gob encoding. Smaller payloads for messages
//     carrying many rows, only usable between Go processes.
//
// Both are stateless and safe for concurrent use. Client and server must
// be started with the same serializer:
//
//	s := serializer.NewJSONSerializer()
//	data, err := s.Serialize(*common.NewNextValueRequest("objectidseed"))
//	...
//	var msg common.Message
//	err = s.Deserialize(data, &msg)
package serializer
