package wire

import (
	"testing"

	commonpb "go.temporal.io/api/common/v1"
	"github.com/stretchr/testify/require"
)

func sampleBatch() []*Command {
	return []*Command{
		{
			ID:   1,
			Name: "StartWorkflow",
			Options: map[string]any{
				"id": "wf-1",
			},
			Payloads: []*commonpb.Payload{
				{Metadata: map[string][]byte{"encoding": []byte("json/plain")}, Data: []byte(`"hello world"`)},
			},
			Header: Header{"taskQueue": "default"},
		},
		{
			ID:       1,
			Payloads: []*commonpb.Payload{{Data: []byte(`"HELLO WORLD"`)}},
		},
	}
}

func TestJSONCodecRoundTrip(t *testing.T) {
	codec := NewJSONCodec()
	batch := sampleBatch()

	data, err := codec.Encode(batch)
	require.NoError(t, err)

	decoded, err := codec.Decode(data)
	require.NoError(t, err)
	require.Len(t, decoded, len(batch))
	require.Equal(t, batch[0].Name, decoded[0].Name)
	require.Equal(t, batch[0].Header, decoded[0].Header)
	require.Equal(t, batch[0].Payloads[0].Data, decoded[0].Payloads[0].Data)
	require.Equal(t, batch[1].ID, decoded[1].ID)
	require.False(t, decoded[1].IsRequest())
}

func TestJSONCodecDeterministic(t *testing.T) {
	codec := NewJSONCodec()
	batch := sampleBatch()

	first, err := codec.Encode(batch)
	require.NoError(t, err)
	second, err := codec.Encode(batch)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestProtobufCodecRoundTrip(t *testing.T) {
	codec := NewProtobufCodec()
	batch := sampleBatch()

	data, err := codec.Encode(batch)
	require.NoError(t, err)

	decoded, err := codec.Decode(data)
	require.NoError(t, err)
	require.Len(t, decoded, len(batch))
	require.Equal(t, batch[0].Name, decoded[0].Name)
	require.Equal(t, batch[0].Header, decoded[0].Header)
	require.Equal(t, batch[0].Payloads[0].Data, decoded[0].Payloads[0].Data)
}

func TestProtobufCodecDeterministic(t *testing.T) {
	codec := NewProtobufCodec()
	batch := sampleBatch()

	first, err := codec.Encode(batch)
	require.NoError(t, err)
	second, err := codec.Encode(batch)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestSelectDegradesUnknownCodec(t *testing.T) {
	codec := Select(CodecName("bogus"))
	_, ok := codec.(*jsonCodec)
	require.True(t, ok)
}

func TestSelectProtobuf(t *testing.T) {
	codec := Select(CodecProtobuf)
	_, ok := codec.(*protobufCodec)
	require.True(t, ok)
}

func TestEmptyBatchDecode(t *testing.T) {
	codec := NewJSONCodec()
	decoded, err := codec.Decode(nil)
	require.NoError(t, err)
	require.Empty(t, decoded)
}
