// Package api holds the request boundary: wire types, the gRPC service
// descriptors and the JSON codec they are served with.
package api

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// CodecName is the gRPC content-subtype clients select with
// grpc.CallContentSubtype(api.CodecName), i.e. "application/grpc+json".
const CodecName = "json"

// jsonCodec lets the plain Go wire types travel over gRPC. Proto messages
// (health checks, reflection) are encoded with protojson so they stay
// readable by the same client.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return protojson.Marshal(m)
	}
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if m, ok := v.(proto.Message); ok {
		return protojson.Unmarshal(data, m)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
