package wire

import (
	"encoding/json"

	commonpb "go.temporal.io/api/common/v1"
)

type startedAck struct {
	WorkflowID string `json:"workflowId"`
	RunID      string `json:"runId"`
}

// MustEncodeStarted builds the Payload carried by a StartWorkflow response
// whose workflow suspended before completing. It never fails: its input is
// two plain strings.
func MustEncodeStarted(workflowID, runID string) *commonpb.Payload {
	data, err := json.Marshal(startedAck{WorkflowID: workflowID, RunID: runID})
	if err != nil {
		panic(err)
	}
	return &commonpb.Payload{
		Metadata: map[string][]byte{"encoding": []byte("json/plain")},
		Data:     data,
	}
}
