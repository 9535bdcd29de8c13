package wire

import (
	"encoding/json"
	"fmt"

	commonpb "go.temporal.io/api/common/v1"
	failurepb "go.temporal.io/api/failure/v1"
	"google.golang.org/protobuf/encoding/protojson"
)

// jsonCommand is the wire shape of a Command under the JSON codec, matching
// the codec-agnostic format from spec.md §6: id, command, options?,
// payloads?, header?, failure?. Payload and Failure sub-messages are
// rendered with protojson since they are Temporal wire proto types; the
// envelope itself is plain encoding/json.
type jsonCommand struct {
	ID       uint64            `json:"id"`
	Command  string            `json:"command,omitempty"`
	Options  map[string]any    `json:"options,omitempty"`
	Payloads []json.RawMessage `json:"payloads,omitempty"`
	Header   map[string]string `json:"header,omitempty"`
	Failure  json.RawMessage   `json:"failure,omitempty"`
}

// jsonCodec implements Codec by framing commands as a top-level JSON array.
// encoding/json sorts map keys when marshaling, and protojson sorts proto
// map fields, so a given command batch always serializes to the same bytes.
type jsonCodec struct {
	marshal   protojson.MarshalOptions
	unmarshal protojson.UnmarshalOptions
}

// NewJSONCodec constructs the JSON wire codec, the default when RR_CODEC is
// unset or set to any value other than "protobuf".
func NewJSONCodec() Codec {
	return &jsonCodec{
		marshal:   protojson.MarshalOptions{UseProtoNames: true},
		unmarshal: protojson.UnmarshalOptions{DiscardUnknown: true},
	}
}

func (c *jsonCodec) Decode(data []byte) ([]*Command, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var wire []jsonCommand
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, decodeError("json", err)
	}
	commands := make([]*Command, 0, len(wire))
	for i, w := range wire {
		cmd, err := c.fromWire(w)
		if err != nil {
			return nil, decodeError("json", fmt.Errorf("command[%d]: %w", i, err))
		}
		commands = append(commands, cmd)
	}
	return commands, nil
}

func (c *jsonCodec) Encode(commands []*Command) ([]byte, error) {
	wire := make([]jsonCommand, 0, len(commands))
	for i, cmd := range commands {
		w, err := c.toWire(cmd)
		if err != nil {
			return nil, encodeError("json", fmt.Errorf("command[%d]: %w", i, err))
		}
		wire = append(wire, w)
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return nil, encodeError("json", err)
	}
	return data, nil
}

func (c *jsonCodec) toWire(cmd *Command) (jsonCommand, error) {
	w := jsonCommand{
		ID:      cmd.ID,
		Command: cmd.Name,
		Options: cmd.Options,
		Header:  map[string]string(cmd.Header),
	}
	for _, p := range cmd.Payloads {
		raw, err := c.marshal.Marshal(p)
		if err != nil {
			return jsonCommand{}, fmt.Errorf("marshal payload: %w", err)
		}
		w.Payloads = append(w.Payloads, raw)
	}
	if cmd.Failure != nil {
		raw, err := c.marshal.Marshal(cmd.Failure)
		if err != nil {
			return jsonCommand{}, fmt.Errorf("marshal failure: %w", err)
		}
		w.Failure = raw
	}
	return w, nil
}

func (c *jsonCodec) fromWire(w jsonCommand) (*Command, error) {
	cmd := &Command{
		ID:      w.ID,
		Name:    w.Command,
		Options: w.Options,
		Header:  Header(w.Header),
	}
	for _, raw := range w.Payloads {
		p := &commonpb.Payload{}
		if err := c.unmarshal.Unmarshal(raw, p); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		cmd.Payloads = append(cmd.Payloads, p)
	}
	if len(w.Failure) > 0 {
		f := &failurepb.Failure{}
		if err := c.unmarshal.Unmarshal(w.Failure, f); err != nil {
			return nil, fmt.Errorf("unmarshal failure: %w", err)
		}
		cmd.Failure = f
	}
	return cmd, nil
}
