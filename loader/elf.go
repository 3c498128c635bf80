package loader

import (
	"debug/elf"
	"fmt"
	"io"

	"github.com/sarchlab/psxsim/bus"
	"github.com/sarchlab/psxsim/emu"
)

// DefaultStackTop is the stack pointer given to ELF programs, just below
// the top of KSEG0 RAM.
const DefaultStackTop = 0x801FFFF0

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// Segment represents a loadable segment from an ELF binary.
type Segment struct {
	// VirtAddr is the virtual address where this segment should be loaded.
	VirtAddr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Program represents a loaded ELF program ready for execution.
type Program struct {
	// EntryPoint is the address where execution should begin.
	EntryPoint uint32
	// Segments contains all loadable segments from the ELF file.
	Segments []Segment
	// GP is the value of the _gp symbol, or zero.
	GP uint32
	// InitialSP is the initial stack pointer value.
	InitialSP uint32
}

// LoadELF parses a little-endian MIPS ELF32 binary.
func LoadELF(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("not a 32-bit ELF file")
	}
	if f.Data != elf.ELFDATA2LSB {
		return nil, fmt.Errorf("not a little-endian ELF file")
	}
	if f.Machine != elf.EM_MIPS {
		return nil, fmt.Errorf("not a MIPS ELF file (machine type: %v)", f.Machine)
	}

	prog := &Program{
		EntryPoint: uint32(f.Entry),
		InitialSP:  DefaultStackTop,
	}

	// Symbol tables are optional; stripped binaries simply keep GP at 0.
	if syms, err := f.Symbols(); err == nil {
		for _, sym := range syms {
			if sym.Name == "_gp" {
				prog.GP = uint32(sym.Value)
				break
			}
		}
	}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		prog.Segments = append(prog.Segments, Segment{
			VirtAddr: uint32(phdr.Vaddr),
			Data:     data,
			MemSize:  uint32(phdr.Memsz),
			Flags:    flags,
		})
	}

	return prog, nil
}

// Entry returns the initial program counter.
func (p *Program) Entry() uint32 {
	return p.EntryPoint
}

// Inject copies every segment into RAM, zeroing BSS, and points the CPU
// at the entry.
func (p *Program) Inject(cpu *emu.CPU, ram *bus.Memory) error {
	for _, seg := range p.Segments {
		size := seg.MemSize
		if size < uint32(len(seg.Data)) {
			size = uint32(len(seg.Data))
		}
		if err := copyToRAM(ram, seg.VirtAddr, seg.Data, size); err != nil {
			return err
		}
	}

	cpu.SetPC(p.EntryPoint)
	cpu.SetReg(regGP, p.GP)
	cpu.SetReg(regSP, p.InitialSP)
	cpu.SetReg(regFP, p.InitialSP)
	return nil
}
