// Command psxdis disassembles a PS-X EXE, a MIPS ELF or a raw binary image
// such as a BIOS.
//
// Usage:
//
//	psxdis [-base addr] [-start addr] [-count n] <file>
package main

import (
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sarchlab/psxsim/insts"
	"github.com/sarchlab/psxsim/loader"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// region is a run of code at a known address.
type region struct {
	base uint32
	data []byte
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("psxdis", flag.ContinueOnError)
	fs.SetOutput(stderr)
	base := fs.String("base", "0xBFC00000", "Load address for raw images")
	start := fs.String("start", "", "First address to print (default: start of image)")
	count := fs.Int("count", 0, "Number of instructions to print (0 = all)")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: psxdis [options] <file>\n")
		_, _ = fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	baseAddr, err := parseAddr(*base)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: -base: %v\n", err)
		return 2
	}

	regions, err := readRegions(fs.Arg(0), baseAddr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	var from uint32
	hasStart := *start != ""
	if hasStart {
		if from, err = parseAddr(*start); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: -start: %v\n", err)
			return 2
		}
	}

	printed := 0
	for _, r := range regions {
		for off := 0; off+4 <= len(r.data); off += 4 {
			addr := r.base + uint32(off)
			if hasStart && addr < from {
				continue
			}
			if *count > 0 && printed == *count {
				return 0
			}
			inst := insts.Instruction(binary.LittleEndian.Uint32(r.data[off:]))
			_, _ = fmt.Fprintf(stdout, "%08x: %08x  %s\n", addr, inst.Word(), inst.Disassemble(addr))
			printed++
		}
	}

	return 0
}

// readRegions returns the code of an EXE payload, the executable segments
// of an ELF, or a raw image placed at base.
func readRegions(path string, base uint32) ([]region, error) {
	img, err := loader.Open(path)
	if err == nil {
		switch img := img.(type) {
		case *loader.EXE:
			return []region{{base: img.Dest, data: img.Payload}}, nil
		case *loader.Program:
			var regions []region
			for _, seg := range img.Segments {
				if seg.Flags&loader.SegmentFlagExecute != 0 {
					regions = append(regions, region{base: seg.VirtAddr, data: seg.Data})
				}
			}
			return regions, nil
		}
	}
	if !isRaw(err) {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []region{{base: base, data: data}}, nil
}

// isRaw reports whether a load error means the file is a plain image.
func isRaw(err error) bool {
	return errors.Is(err, loader.ErrBadMagic) ||
		errors.Is(err, loader.ErrBadSize) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF)
}

func parseAddr(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
