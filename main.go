// Package main provides the entry point for psxsim, a MIPS R3000A CPU core
// simulator built on Akita.
//
// For the full CLI, use: go run ./cmd/psxsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("psxsim - MIPS R3000A CPU core simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: psxsim [options] [program.exe|program.elf]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -bios      Path to a 512KB BIOS image")
	fmt.Println("  -config    Path to machine configuration JSON file")
	fmt.Println("  -timing    Path to timing configuration JSON file")
	fmt.Println("  -cycles    Cycle budget")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/psxsim' for the full CLI, or")
	fmt.Println("'go run ./cmd/psxdis' to disassemble an image.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/psxsim' instead.")
	}
}
