// Package wire encodes match messages as google.protobuf.Struct values so
// clients need no generated code beyond the well-known types.
package wire

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Marshal encodes v through its JSON shape into a binary Struct message.
func Marshal(v any) ([]byte, error) {
	st, err := toStruct(v)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(st)
}

// Unmarshal decodes a binary Struct message into v. Empty data leaves v untouched.
func Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	st := &structpb.Struct{}
	if err := proto.Unmarshal(data, st); err != nil {
		return fmt.Errorf("decode struct: %w", err)
	}
	return fromStruct(st, v)
}

func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%T is not an object: %w", v, err)
	}
	return structpb.NewStruct(fields)
}

func fromStruct(st *structpb.Struct, v any) error {
	raw, err := protojson.Marshal(st)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}
