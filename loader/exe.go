// Package loader reads boot executables and BIOS images and injects them
// into a machine.
package loader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/psxsim/bus"
	"github.com/sarchlab/psxsim/emu"
)

// EXEHeaderSize is the size of the PS-X EXE header. The payload starts
// right after it.
const EXEHeaderSize = 0x800

// EXEMagic identifies a PS-X EXE.
const EXEMagic = "PS-X EXE"

// Register numbers set up on injection.
const (
	regGP = 28
	regSP = 29
	regFP = 30
)

var (
	// ErrBadMagic is returned for files that do not start with EXEMagic.
	ErrBadMagic = errors.New("bad executable magic")

	// ErrBadSize is returned when the payload size is not a multiple of
	// EXEHeaderSize or disagrees with the file length.
	ErrBadSize = errors.New("bad executable size")

	// ErrOutOfRAM is returned when a payload does not fit in main RAM.
	ErrOutOfRAM = errors.New("payload does not fit in RAM")
)

// Image is a program that can be placed into a machine.
type Image interface {
	Entry() uint32
	Inject(cpu *emu.CPU, ram *bus.Memory) error
}

// EXE is a parsed PS-X EXE.
type EXE struct {
	PC       uint32
	GP       uint32
	Dest     uint32
	Size     uint32
	SPBase   uint32
	SPOffset uint32
	Payload  []byte
}

// ParseEXE decodes a PS-X EXE from data.
func ParseEXE(data []byte) (*EXE, error) {
	if len(data) < EXEHeaderSize {
		return nil, fmt.Errorf("%w: file is %d bytes, header needs %d",
			ErrBadSize, len(data), EXEHeaderSize)
	}
	if !bytes.HasPrefix(data, []byte(EXEMagic)) {
		return nil, ErrBadMagic
	}

	le := binary.LittleEndian
	exe := &EXE{
		PC:       le.Uint32(data[0x10:]),
		GP:       le.Uint32(data[0x14:]),
		Dest:     le.Uint32(data[0x18:]),
		Size:     le.Uint32(data[0x1C:]),
		SPBase:   le.Uint32(data[0x30:]),
		SPOffset: le.Uint32(data[0x34:]),
	}

	if exe.Size%EXEHeaderSize != 0 {
		return nil, fmt.Errorf("%w: 0x%x is not a multiple of 0x%x",
			ErrBadSize, exe.Size, EXEHeaderSize)
	}
	payload := data[EXEHeaderSize:]
	if uint64(len(payload)) < uint64(exe.Size) {
		return nil, fmt.Errorf("%w: header says 0x%x bytes, file has 0x%x",
			ErrBadSize, exe.Size, len(payload))
	}
	exe.Payload = payload[:exe.Size]

	return exe, nil
}

// LoadEXE reads and parses a PS-X EXE file.
func LoadEXE(path string) (*EXE, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read executable: %w", err)
	}
	exe, err := ParseEXE(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return exe, nil
}

// Entry returns the initial program counter.
func (e *EXE) Entry() uint32 {
	return e.PC
}

// SP returns the initial stack pointer, and false when the header leaves
// the stack to the caller.
func (e *EXE) SP() (uint32, bool) {
	if e.SPBase == 0 {
		return 0, false
	}
	return e.SPBase + e.SPOffset, true
}

// Inject copies the payload into RAM and points the CPU at it.
func (e *EXE) Inject(cpu *emu.CPU, ram *bus.Memory) error {
	if err := copyToRAM(ram, e.Dest, e.Payload, uint32(len(e.Payload))); err != nil {
		return err
	}

	cpu.SetPC(e.PC)
	cpu.SetReg(regGP, e.GP)
	if sp, ok := e.SP(); ok {
		cpu.SetReg(regSP, sp)
		cpu.SetReg(regFP, sp)
	}
	return nil
}

// copyToRAM places data at the RAM location addr maps to and zero-fills
// up to memSize bytes.
func copyToRAM(ram *bus.Memory, addr uint32, data []byte, memSize uint32) error {
	phys := bus.MaskRegion(addr)
	end := uint64(phys) + uint64(memSize)
	if end > uint64(ram.Size()) {
		return fmt.Errorf("%w: 0x%08x+0x%x", ErrOutOfRAM, addr, memSize)
	}

	dst := ram.Bytes()[phys:end]
	n := copy(dst, data)
	clear(dst[n:])
	return nil
}

// Open loads either a PS-X EXE or a MIPS ELF from path, chosen by its
// magic bytes.
func Open(path string) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open executable: %w", err)
	}
	magic := make([]byte, len(EXEMagic))
	_, err = io.ReadFull(f, magic)
	_ = f.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read executable: %w", err)
	}

	if bytes.HasPrefix(magic, []byte("\x7fELF")) {
		return LoadELF(path)
	}
	return LoadEXE(path)
}
