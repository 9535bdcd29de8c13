package wire

import (
	failurepb "go.temporal.io/api/failure/v1"
	"go.temporal.io/sdk/temporal"
)

// failureConverter turns Go errors into wire Failure messages and back,
// reusing the Temporal SDK's own failure encoding so hosts speaking the
// Temporal failure wire format need no bespoke decoder.
var failureConverter = temporal.GetDefaultFailureConverter()

// ErrInvalidArgument builds the Failure for a malformed or ill-typed request
// header or option (spec error kind InvalidArgument).
func ErrInvalidArgument(msg string) *failurepb.Failure {
	return failureConverter.ErrorToFailure(temporal.NewApplicationError(msg, "InvalidArgument", false, nil))
}

// ErrNotFound builds the Failure for a request routed to an unregistered
// task queue (spec error kind NotFound, an OutOfRange-class failure).
func ErrNotFound(msg string) *failurepb.Failure {
	return failureConverter.ErrorToFailure(temporal.NewApplicationError(msg, "NotFound", false, nil))
}

// ErrIllegalState builds the Failure for a signal/query against a workflow
// execution that has not started or has already terminated.
func ErrIllegalState(msg string) *failurepb.Failure {
	return failureConverter.ErrorToFailure(temporal.NewApplicationError(msg, "IllegalState", false, nil))
}

// ErrAlreadyStarted builds the Failure surfaced to a caller that starts a
// workflow ID which is already running.
func ErrAlreadyStarted(msg string) *failurepb.Failure {
	return failureConverter.ErrorToFailure(temporal.NewApplicationError(msg, "AlreadyStarted", true, nil))
}

// ErrNotImplemented builds the Failure for an unrecognized request kind.
func ErrNotImplemented(msg string) *failurepb.Failure {
	return failureConverter.ErrorToFailure(temporal.NewApplicationError(msg, "NotImplemented", true, nil))
}

// ErrProtocolError builds the Failure for an inbound response with no
// matching pending slot in the client's promise table.
func ErrProtocolError(msg string) *failurepb.Failure {
	return failureConverter.ErrorToFailure(temporal.NewApplicationError(msg, "ProtocolError", true, nil))
}

// ErrCanceled builds the Failure delivered when a pending request is
// canceled without a host response arriving in time.
func ErrCanceled(msg string) *failurepb.Failure {
	return failureConverter.ErrorToFailure(temporal.NewCanceledError(msg))
}

// ErrTerminated builds the Failure for a Terminated terminal workflow state.
func ErrTerminated(reason string) *failurepb.Failure {
	return failureConverter.ErrorToFailure(temporal.NewApplicationError(reason, "Terminated", true, nil))
}

// FailureFromError converts an arbitrary Go error, typically returned by a
// user handler, into a wire Failure.
func FailureFromError(err error) *failurepb.Failure {
	if err == nil {
		return nil
	}
	return failureConverter.ErrorToFailure(err)
}

// ErrorFromFailure converts a wire Failure back into a Go error, used by the
// Client to hand a failed correlated response back to workflow code.
func ErrorFromFailure(f *failurepb.Failure) error {
	if f == nil {
		return nil
	}
	return failureConverter.FailureToError(f)
}
