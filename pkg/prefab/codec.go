package prefab

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes one stored value to an opaque payload and back. Payloads are
// self-contained per value; the surrounding prefab document records the type
// they decode into.
type Codec interface {
	// Name identifies the codec inside a prefab document so the restoring
	// side can pick the matching decoder.
	Name() string
	// Encode serializes the value a pointer references.
	Encode(ptr any) ([]byte, error)
	// Decode deserializes a payload into the value a pointer references.
	Decode(payload []byte, ptr any) error
}

type jsonCodec struct{}

func (jsonCodec) Name() string                 { return "json" }
func (jsonCodec) Encode(ptr any) ([]byte, error) { return json.Marshal(ptr) }
func (jsonCodec) Decode(payload []byte, ptr any) error {
	return json.Unmarshal(payload, ptr)
}

// JSON encodes payloads with encoding/json. Readable, self-describing,
// larger on the wire.
var JSON Codec = jsonCodec{}

type msgpackCodec struct{}

func (msgpackCodec) Name() string                 { return "msgpack" }
func (msgpackCodec) Encode(ptr any) ([]byte, error) { return msgpack.Marshal(ptr) }
func (msgpackCodec) Decode(payload []byte, ptr any) error {
	return msgpack.Unmarshal(payload, ptr)
}

// Msgpack encodes payloads with MessagePack. Compact, binary.
var Msgpack Codec = msgpackCodec{}

// CodecByName resolves a codec name recorded in a prefab document.
func CodecByName(name string) (Codec, error) {
	switch name {
	case JSON.Name():
		return JSON, nil
	case Msgpack.Name():
		return Msgpack, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}
