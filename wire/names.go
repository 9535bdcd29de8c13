package wire

// Request kinds recognized by Router and Worker. These are the values a
// Command's Name takes when IsRequest reports true.
const (
	CommandStartWorkflow     = "StartWorkflow"
	CommandSignalWithStart   = "SignalWithStart"
	CommandSignalWorkflow    = "SignalWorkflow"
	CommandQueryWorkflow     = "QueryWorkflow"
	CommandCancelWorkflow    = "CancelWorkflow"
	CommandTerminateWorkflow = "TerminateWorkflow"
	CommandInvokeActivity    = "InvokeActivity"
	CommandGetWorkerInfo     = "GetWorkerInfo"

	// CommandCompleteWorkflow is issued by the worker, through Client, when a
	// workflow execution whose start was answered with "Started" reaches a
	// terminal state. It is a request from the
	// worker's side of the wire, not a response, since the host assigned no
	// id to a StartWorkflow that later suspended and resumed across ticks.
	CommandCompleteWorkflow = "CompleteWorkflow"
)

// OptionWorkflowID and OptionRunID are the well-known Options keys carrying
// workflow identity across StartWorkflow/SignalWorkflow/QueryWorkflow/
// CancelWorkflow/TerminateWorkflow/SignalWithStart/CompleteWorkflow commands.
const (
	OptionWorkflowID   = "workflowId"
	OptionRunID        = "runId"
	OptionWorkflowType = "workflowType"
	OptionSignalName   = "signalName"
	OptionQueryName    = "queryName"
	OptionActivityName = "activityName"
)
