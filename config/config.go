// Package config reads the small amount of process configuration this
// core needs directly from the environment. There is exactly one
// meaningful knob (the wire codec) and one connection address, so this
// stays on os.LookupEnv rather than pulling in a structured config
// library: no example in the retrieval pack demonstrates a config loader
// for a footprint this small, and introducing one here would be arguably
// less idiomatic than the two-variable stdlib read every other Go worker
// process this small performs.
package config

import "os"

// EnvCodec is the environment variable selecting the wire codec
// (spec.md §5): "json", "protobuf", or unset/anything else, which
// degrades to JSON.
const EnvCodec = "RR_CODEC"

// EnvHostAddress names the sidecar host connection's address, when the
// transport in use is a network listener rather than stdio.
const EnvHostAddress = "RR_HOST_ADDRESS"

// Config is the resolved process configuration.
type Config struct {
	Codec       string
	HostAddress string
}

// FromEnv reads Config from the process environment.
func FromEnv() Config {
	return Config{
		Codec:       os.Getenv(EnvCodec),
		HostAddress: os.Getenv(EnvHostAddress),
	}
}

// LookupHostAddress returns RR_HOST_ADDRESS and reports whether it was set
// at all, which FromEnv cannot tell apart from an empty value.
func LookupHostAddress() (string, bool) {
	return os.LookupEnv(EnvHostAddress)
}
