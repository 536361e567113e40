package api

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is the content-subtype clients must request
// (grpc.CallContentSubtype(api.CodecName)).
const CodecName = "mimir-wire"

// wireMessage is implemented by every request/response type in this
// package.
type wireMessage interface {
	MarshalWire() []byte
	UnmarshalWire([]byte) error
}

// Codec marshals the package's hand-framed wire messages for grpc.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(wireMessage)
	if !ok {
		return nil, fmt.Errorf("api: cannot marshal %T", v)
	}
	return m.MarshalWire(), nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(wireMessage)
	if !ok {
		return fmt.Errorf("api: cannot unmarshal into %T", v)
	}
	return m.UnmarshalWire(data)
}

func (Codec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(Codec{})
}
