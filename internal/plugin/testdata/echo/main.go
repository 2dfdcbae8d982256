//go:build tinygo

// Command echo is a test plugin that returns every line as an "echo" event.
package main

import (
	"encoding/json"
	"unsafe"
)

const inputRegion = 0x10000

var heap uintptr = 0x20000

//export abi_version
func abiVersion() uint32 { return 1 }

//export alloc
func alloc(size uint32) uint32 {
	p := uint32(heap)
	heap += uintptr(size)
	return p
}

//export free
func free(ptr, size uint32) {}

type event struct {
	Name string            `json:"name"`
	Data map[string]string `json:"data"`
}

type output struct {
	Ok     bool    `json:"ok"`
	Events []event `json:"events,omitempty"`
	Error  string  `json:"error,omitempty"`
}

//export parse_line
func parseLine(ptr, n uint32) uint64 {
	in := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), n)
	var input struct {
		Line string `json:"line"`
	}
	if err := json.Unmarshal(in, &input); err != nil {
		return write(output{Error: "invalid input"})
	}
	return write(output{Ok: true, Events: []event{{
		Name: "echo",
		Data: map[string]string{"line": input.Line},
	}}})
}

func write(out output) uint64 {
	b, _ := json.Marshal(out)
	p := alloc(uint32(len(b)))
	copy(unsafe.Slice((*byte)(unsafe.Pointer(uintptr(p))), len(b)), b)
	return uint64(len(b))<<32 | uint64(p)
}

func main() {}
