package match

import (
	"github.com/bytedance/sonic"
)

// Codec is the connect codec for the match service. It replaces the
// default protobuf-JSON codec because messages are plain Go structs.
type Codec struct{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	return sonic.Unmarshal(data, v)
}
