package transport

import "context"

// NoopRpcConnection is used when the host process offers no out-of-band
// RPC channel; every call fails immediately rather than blocking.
type NoopRpcConnection struct{}

func (NoopRpcConnection) Call(_ context.Context, method string, _ []byte) ([]byte, error) {
	return nil, &UnsupportedRpcError{Method: method}
}

// UnsupportedRpcError is returned by NoopRpcConnection.Call.
type UnsupportedRpcError struct {
	Method string
}

func (e *UnsupportedRpcError) Error() string {
	return "transport: no rpc connection configured for method " + e.Method
}
