package wire

import (
	"encoding/json"
	"fmt"
	"sort"

	commonpb "go.temporal.io/api/common/v1"
	failurepb "go.temporal.io/api/failure/v1"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
)

// Field numbers for the hand-encoded Command wire message. The Command
// envelope is owned by this module rather than shared with other generated
// protobuf clients, so it is encoded directly with protowire's primitives
// instead of through a protoc-generated type: this keeps the wire format
// byte-stable without a build-time codegen step while still exercising the
// same google.golang.org/protobuf runtime the embedded Payload and Failure
// sub-messages use.
const (
	fieldID      protowire.Number = 1
	fieldCommand protowire.Number = 2
	fieldOptions protowire.Number = 3
	fieldPayload protowire.Number = 4
	fieldHeader  protowire.Number = 5
	fieldFailure protowire.Number = 6
	headerFieldK protowire.Number = 1
	headerFieldV protowire.Number = 2

	// batchEntryField tags each length-delimited Command entry in the
	// outer repeated batch field. It happens to share protowire.Number 1
	// with fieldID, but the two are unrelated: fieldID tags a Command's
	// own ID subfield, batchEntryField tags one whole Command within the
	// batch message that wraps it.
	batchEntryField protowire.Number = 1
)

var deterministic = proto.MarshalOptions{Deterministic: true}

// protobufCodec implements Codec by wrapping each Command as one
// length-delimited entry in a repeated field-1 batch message.
type protobufCodec struct{}

// NewProtobufCodec constructs the protobuf wire codec, selected when
// RR_CODEC is exactly "protobuf".
func NewProtobufCodec() Codec {
	return &protobufCodec{}
}

func (c *protobufCodec) Encode(commands []*Command) ([]byte, error) {
	var out []byte
	for i, cmd := range commands {
		data, err := encodeCommand(cmd)
		if err != nil {
			return nil, encodeError("protobuf", fmt.Errorf("command[%d]: %w", i, err))
		}
		out = protowire.AppendTag(out, batchEntryField, protowire.BytesType)
		out = protowire.AppendBytes(out, data)
	}
	return out, nil
}

func (c *protobufCodec) Decode(data []byte) ([]*Command, error) {
	var commands []*Command
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, decodeError("protobuf", protowire.ParseError(n))
		}
		data = data[n:]
		if num != batchEntryField || typ != protowire.BytesType {
			skip := protowire.ConsumeFieldValue(num, typ, data)
			if skip < 0 {
				return nil, decodeError("protobuf", protowire.ParseError(skip))
			}
			data = data[skip:]
			continue
		}
		body, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, decodeError("protobuf", protowire.ParseError(n))
		}
		data = data[n:]
		cmd, err := decodeCommand(body)
		if err != nil {
			return nil, decodeError("protobuf", fmt.Errorf("command[%d]: %w", len(commands), err))
		}
		commands = append(commands, cmd)
	}
	return commands, nil
}

func encodeCommand(cmd *Command) ([]byte, error) {
	var b []byte
	if cmd.ID != 0 {
		b = protowire.AppendTag(b, fieldID, protowire.VarintType)
		b = protowire.AppendVarint(b, cmd.ID)
	}
	if cmd.Name != "" {
		b = protowire.AppendTag(b, fieldCommand, protowire.BytesType)
		b = protowire.AppendBytes(b, []byte(cmd.Name))
	}
	if len(cmd.Options) > 0 {
		optJSON, err := json.Marshal(cmd.Options)
		if err != nil {
			return nil, fmt.Errorf("marshal options: %w", err)
		}
		b = protowire.AppendTag(b, fieldOptions, protowire.BytesType)
		b = protowire.AppendBytes(b, optJSON)
	}
	for _, p := range cmd.Payloads {
		data, err := deterministic.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, data)
	}
	if len(cmd.Header) > 0 {
		keys := make([]string, 0, len(cmd.Header))
		for k := range cmd.Header {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			entry := encodeHeaderEntry(k, cmd.Header[k])
			b = protowire.AppendTag(b, fieldHeader, protowire.BytesType)
			b = protowire.AppendBytes(b, entry)
		}
	}
	if cmd.Failure != nil {
		data, err := deterministic.Marshal(cmd.Failure)
		if err != nil {
			return nil, fmt.Errorf("marshal failure: %w", err)
		}
		b = protowire.AppendTag(b, fieldFailure, protowire.BytesType)
		b = protowire.AppendBytes(b, data)
	}
	return b, nil
}

func decodeCommand(data []byte) (*Command, error) {
	cmd := &Command{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case fieldID:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			cmd.ID = v
			data = data[n:]
		case fieldCommand:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			cmd.Name = string(v)
			data = data[n:]
		case fieldOptions:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			if err := json.Unmarshal(v, &cmd.Options); err != nil {
				return nil, fmt.Errorf("unmarshal options: %w", err)
			}
			data = data[n:]
		case fieldPayload:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			p := &commonpb.Payload{}
			if err := proto.Unmarshal(v, p); err != nil {
				return nil, fmt.Errorf("unmarshal payload: %w", err)
			}
			cmd.Payloads = append(cmd.Payloads, p)
			data = data[n:]
		case fieldHeader:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			k, val, err := decodeHeaderEntry(v)
			if err != nil {
				return nil, fmt.Errorf("unmarshal header entry: %w", err)
			}
			if cmd.Header == nil {
				cmd.Header = Header{}
			}
			cmd.Header[k] = val
			data = data[n:]
		case fieldFailure:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			f := &failurepb.Failure{}
			if err := proto.Unmarshal(v, f); err != nil {
				return nil, fmt.Errorf("unmarshal failure: %w", err)
			}
			cmd.Failure = f
			data = data[n:]
		default:
			skip := protowire.ConsumeFieldValue(num, typ, data)
			if skip < 0 {
				return nil, protowire.ParseError(skip)
			}
			data = data[skip:]
		}
	}
	return cmd, nil
}

func encodeHeaderEntry(k, v string) []byte {
	var e []byte
	e = protowire.AppendTag(e, headerFieldK, protowire.BytesType)
	e = protowire.AppendBytes(e, []byte(k))
	e = protowire.AppendTag(e, headerFieldV, protowire.BytesType)
	e = protowire.AppendBytes(e, []byte(v))
	return e
}

func decodeHeaderEntry(data []byte) (key, value string, err error) {
	for len(data) > 0 {
		num, _, n := protowire.ConsumeTag(data)
		if n < 0 {
			return "", "", protowire.ParseError(n)
		}
		data = data[n:]
		v, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return "", "", protowire.ParseError(n)
		}
		switch num {
		case headerFieldK:
			key = string(v)
		case headerFieldV:
			value = string(v)
		}
		data = data[n:]
	}
	return key, value, nil
}
