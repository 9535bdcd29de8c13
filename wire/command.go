// Package wire defines the codec-agnostic Command envelope exchanged with
// the host process, and the two codec implementations (JSON, protobuf)
// that frame it on the wire.
package wire

import (
	commonpb "go.temporal.io/api/common/v1"
	failurepb "go.temporal.io/api/failure/v1"
)

type (
	// Header is a free-form string map. Two keys carry semantic meaning to
	// the core: "taskQueue" (routes a request to a specific worker) and any
	// correlation/context keys the host layers on top.
	Header map[string]string

	// Command is the tagged record delivered across the host boundary. A
	// Command with a non-empty Name is a request; a Command with a zero
	// Name and a non-zero ID that matches a prior outbound request is a
	// response, carrying either Payloads (success) or Failure (error).
	Command struct {
		// ID correlates a response to the request that produced it. On the
		// server path it is assigned by the host; on the client path it is
		// assigned by Client.Request.
		ID uint64
		// Name is the request kind (e.g. "StartWorkflow", "InvokeActivity",
		// "GetWorkerInfo"). Empty on a response.
		Name string
		// Options carries request-specific parameters that do not belong in
		// Payloads (e.g. workflow ID, run ID, retry policy hints).
		Options map[string]any
		// Payloads holds the request or successful-response body, encoded
		// through the DataConverter by the caller.
		Payloads []*commonpb.Payload
		// Header carries per-command routing and correlation metadata.
		Header Header
		// Failure is set on a failed response; nil otherwise.
		Failure *failurepb.Failure
	}
)

// IsRequest reports whether c is an inbound/outbound request rather than a
// correlated response.
func (c *Command) IsRequest() bool {
	return c.Name != ""
}

// IsFailure reports whether c is a response carrying a failure.
func (c *Command) IsFailure() bool {
	return !c.IsRequest() && c.Failure != nil
}

// TaskQueue returns the "taskQueue" header value and whether it was present.
func (h Header) TaskQueue() (string, bool) {
	if h == nil {
		return "", false
	}
	v, ok := h["taskQueue"]
	return v, ok
}

// NewResponse builds a successful response Command correlated to requestID.
func NewResponse(requestID uint64, payloads ...*commonpb.Payload) *Command {
	return &Command{ID: requestID, Payloads: payloads}
}

// NewFailureResponse builds a failed response Command correlated to requestID.
func NewFailureResponse(requestID uint64, failure *failurepb.Failure) *Command {
	return &Command{ID: requestID, Failure: failure}
}
