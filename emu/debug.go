package emu

import (
	"fmt"
	"strings"

	"github.com/sarchlab/psxsim/insts"
)

// Debug register indices, in the order debuggers expect them.
const (
	DebugSR       = 32
	DebugLO       = 33
	DebugHI       = 34
	DebugBadVaddr = 35
	DebugCause    = 36
	DebugPC       = 37

	NumDebugRegisters = 38
)

var debugNames = [NumDebugRegisters - 32]string{"sr", "lo", "hi", "bad", "cause", "pc"}

// DebugRegisterName returns the display name of debug register i.
func DebugRegisterName(i int) string {
	if i < 32 {
		return insts.RegName(uint8(i))
	}
	if i < NumDebugRegisters {
		return debugNames[i-32]
	}
	return fmt.Sprintf("r%d", i)
}

// DebugRegister returns register i of the debug view: 0-31 are the
// general-purpose registers, followed by status, LO, HI, BadVaddr, cause
// and PC. The second result is false for an index past the end.
func (c *CPU) DebugRegister(i int) (uint32, bool) {
	switch {
	case i >= 0 && i < 32:
		return c.regFile.Read(uint8(i)), true
	case i == DebugSR:
		return uint32(c.cop0.Status()), true
	case i == DebugLO:
		return c.regFile.LO, true
	case i == DebugHI:
		return c.regFile.HI, true
	case i == DebugBadVaddr:
		return c.cop0.BadVaddr(), true
	case i == DebugCause:
		return uint32(c.cop0.Cause()), true
	case i == DebugPC:
		return c.pc, true
	default:
		return 0, false
	}
}

// DebugRegisters returns the whole debug view.
func (c *CPU) DebugRegisters() [NumDebugRegisters]uint32 {
	var regs [NumDebugRegisters]uint32
	for i := range regs {
		regs[i], _ = c.DebugRegister(i)
	}
	return regs
}

// FatalError stops emulation. It carries the register state at the time
// of the failure.
type FatalError struct {
	PC        uint32
	Inst      insts.Instruction
	Registers [NumDebugRegisters]uint32
	Err       error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("emu: fatal error at pc=0x%08x (%s): %v", e.PC, e.Inst.Disassemble(e.PC), e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Dump formats the register state four registers per line.
func (e *FatalError) Dump() string {
	var sb strings.Builder
	for i, v := range e.Registers {
		fmt.Fprintf(&sb, "%6s=%08x", DebugRegisterName(i), v)
		if i%4 == 3 || i == len(e.Registers)-1 {
			sb.WriteByte('\n')
		} else {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}
