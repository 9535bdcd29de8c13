// Package dataconverter wires the Temporal SDK's DataConverter type
// (spec.md §3) into the worker core, so user handlers encode/decode
// Payloads the same way real Temporal SDKs do, and payload metadata such
// as encoding and codec headers stays wire-compatible with a real Temporal
// cluster if the host ever forwards it there.
package dataconverter

import (
	"go.temporal.io/sdk/converter"
)

// DataConverter is a re-export of the SDK type, kept as a named alias so
// callers depend on this package rather than reaching into the SDK
// directly for the one type they need.
type DataConverter = converter.DataConverter

// Default returns the SDK's default converter: JSON payloads for plain
// values, with the standard proto-JSON encoding for proto.Message values.
// Factory.New installs this unless a caller supplies its own converter via
// factory.WithDataConverter, and every Worker it creates shares that one
// instance (spec.md §4.1: "Constructed with a DataConverter"; §4.5:
// "Handlers receive: the request payloads decoded via the DataConverter").
func Default() DataConverter {
	return converter.GetDefaultDataConverter()
}
