package wire

import "fmt"

// Codec encodes and decodes ordered Command batches. Both variants (JSON,
// protobuf) preserve command order and produce deterministic byte output
// for a given input, so identical inbound batches yield byte-identical
// outbound batches.
type Codec interface {
	// Decode parses a framed batch into an ordered slice of commands.
	Decode(data []byte) ([]*Command, error)
	// Encode serializes an ordered slice of commands into a framed batch.
	Encode(commands []*Command) ([]byte, error)
}

// CodecName identifies a Codec variant, matching the RR_CODEC environment
// value that selects it.
type CodecName string

const (
	// CodecJSON is the default codec, selected by any RR_CODEC value other
	// than "protobuf" (including an absent RR_CODEC).
	CodecJSON CodecName = "json"
	// CodecProtobuf is selected when RR_CODEC is exactly "protobuf".
	CodecProtobuf CodecName = "protobuf"
)

// Select returns the Codec named by name. An unrecognized name degrades to
// the JSON codec rather than raising an error, matching spec.md's directive
// that an unknown codec value should degrade to the default, not fail.
func Select(name CodecName) Codec {
	if name == CodecProtobuf {
		return NewProtobufCodec()
	}
	return NewJSONCodec()
}

// SelectFromEnv mirrors Select but reads the codec name from the RR_CODEC
// environment variable's value directly, for callers that already resolved
// the raw string via config.FromEnv's Codec field.
func SelectFromEnv(raw string) Codec {
	return Select(CodecName(raw))
}

func decodeError(codec string, err error) error {
	return fmt.Errorf("wire: %s decode: %w", codec, err)
}

func encodeError(codec string, err error) error {
	return fmt.Errorf("wire: %s encode: %w", codec, err)
}
