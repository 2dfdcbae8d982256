// Package plugin runs WebAssembly line parsers for hslog.
//
// A plugin is a wasm module exporting abi_version, alloc, free and
// parse_line. The host writes {"line": "..."} at InputRegion and
// parse_line returns (out_len << 32) | out_ptr pointing at
// {"ok": true, "events": [{"name": "...", "data": {...}}]}.
package plugin

import (
	"errors"
	"fmt"
)

var (
	// ErrABIVersionMismatch indicates the plugin was built for another ABI.
	ErrABIVersionMismatch = errors.New("abi version mismatch")

	// ErrTimeout indicates parse_line ran past the configured timeout.
	ErrTimeout = errors.New("plugin timeout")

	// ErrFileTooLarge indicates the wasm file exceeds MaxFileSize.
	ErrFileTooLarge = errors.New("wasm file too large")

	// ErrClosed is returned by ParseLine after Close.
	ErrClosed = errors.New("plugin is closed")
)

// ABIError reports a module that does not follow the plugin ABI.
type ABIError struct {
	Function string
	Reason   string
}

func (e *ABIError) Error() string {
	return fmt.Sprintf("abi error in %s: %s", e.Function, e.Reason)
}

// PluginError is an error the plugin itself reported with ok=false.
type PluginError struct {
	Code    string
	Message string
}

func (e *PluginError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("plugin error %s: %s", e.Code, e.Message)
	}
	return "plugin error: " + e.Message
}

// RuntimeError wraps a wazero failure.
type RuntimeError struct {
	Op  string
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("wasm runtime error during %s: %v", e.Op, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}
