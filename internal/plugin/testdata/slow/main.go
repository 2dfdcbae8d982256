//go:build tinygo

// Command slow is a test plugin whose parse_line never returns.
package main

//export abi_version
func abiVersion() uint32 { return 1 }

//export alloc
func alloc(size uint32) uint32 { return 0x20000 }

//export free
func free(ptr, size uint32) {}

//export parse_line
func parseLine(ptr, n uint32) uint64 {
	for {
	}
}

func main() {}
