package insts

import "fmt"

var regNames = [32]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

// RegName returns the ABI name of a general-purpose register, with the
// leading '$'.
func RegName(reg uint8) string {
	return "$" + regNames[reg&0x1F]
}

// RegIndex returns the register index for an ABI name such as "t0" or
// "$sp". The second result is false if the name is unknown.
func RegIndex(name string) (uint8, bool) {
	if len(name) > 0 && name[0] == '$' {
		name = name[1:]
	}
	for i, n := range regNames {
		if n == name {
			return uint8(i), true
		}
	}
	if name == "s8" {
		return 30, true
	}
	return 0, false
}

// String disassembles the instruction. Branch targets are printed as
// signed word offsets; use Disassemble for absolute targets.
func (i Instruction) String() string {
	return i.format(0, false)
}

// Disassemble renders the instruction as if it were located at pc, so
// branch and jump targets are shown as absolute addresses.
func (i Instruction) Disassemble(pc uint32) string {
	return i.format(pc, true)
}

func (i Instruction) format(pc uint32, absolute bool) string {
	name := i.Mnemonic()
	if uint32(i) == 0 {
		return "nop"
	}

	rs, rt, rd := RegName(i.Rs()), RegName(i.Rt()), RegName(i.Rd())

	branch := func() string {
		off := int32(i.ImmSE()) << 2
		if absolute {
			return fmt.Sprintf("0x%08x", pc+4+uint32(off))
		}
		return fmt.Sprintf("%+d", off)
	}

	switch op := i.Opcode(); op {
	case OpSpecial:
		switch i.Funct() {
		case FnSLL, FnSRL, FnSRA:
			return fmt.Sprintf("%s %s, %s, %d", name, rd, rt, i.Shamt())
		case FnSLLV, FnSRLV, FnSRAV:
			return fmt.Sprintf("%s %s, %s, %s", name, rd, rt, rs)
		case FnJR:
			return fmt.Sprintf("%s %s", name, rs)
		case FnJALR:
			return fmt.Sprintf("%s %s, %s", name, rd, rs)
		case FnSYSCALL, FnBREAK:
			return fmt.Sprintf("%s 0x%x", name, (uint32(i)>>6)&0xFFFFF)
		case FnMFHI, FnMFLO:
			return fmt.Sprintf("%s %s", name, rd)
		case FnMTHI, FnMTLO:
			return fmt.Sprintf("%s %s", name, rs)
		case FnMULT, FnMULTU, FnDIV, FnDIVU:
			return fmt.Sprintf("%s %s, %s", name, rs, rt)
		}
		if name == "illegal" {
			return fmt.Sprintf("illegal 0x%08x", uint32(i))
		}
		return fmt.Sprintf("%s %s, %s, %s", name, rd, rs, rt)

	case OpRegImm:
		return fmt.Sprintf("%s %s, %s", name, rs, branch())

	case OpJ, OpJAL:
		if absolute {
			return fmt.Sprintf("%s 0x%08x", name, (pc+4)&0xF0000000|i.Target()<<2)
		}
		return fmt.Sprintf("%s 0x%07x", name, i.Target()<<2)

	case OpBEQ, OpBNE:
		return fmt.Sprintf("%s %s, %s, %s", name, rs, rt, branch())

	case OpBLEZ, OpBGTZ:
		return fmt.Sprintf("%s %s, %s", name, rs, branch())

	case OpADDI, OpADDIU, OpSLTI, OpSLTIU:
		return fmt.Sprintf("%s %s, %s, %d", name, rt, rs, int32(i.ImmSE()))

	case OpANDI, OpORI, OpXORI:
		return fmt.Sprintf("%s %s, %s, 0x%x", name, rt, rs, i.Imm())

	case OpLUI:
		return fmt.Sprintf("%s %s, 0x%x", name, rt, i.Imm())

	case OpCOP0, OpCOP1, OpCOP2, OpCOP3:
		if i.IsCopCommand() {
			if name == "rfe" {
				return name
			}
			return fmt.Sprintf("%s 0x%07x", name, i.CopCommand())
		}
		if name == "illegal" {
			return fmt.Sprintf("illegal 0x%08x", uint32(i))
		}
		return fmt.Sprintf("%s %s, $%d", name, rt, i.Rd())

	case OpLWC0, OpLWC1, OpLWC2, OpLWC3, OpSWC0, OpSWC1, OpSWC2, OpSWC3:
		return fmt.Sprintf("%s $%d, %d(%s)", name, i.Rt(), int32(i.ImmSE()), rs)
	}

	if name == "illegal" {
		return fmt.Sprintf("illegal 0x%08x", uint32(i))
	}
	// Remaining opcodes are loads and stores.
	return fmt.Sprintf("%s %s, %d(%s)", name, rt, int32(i.ImmSE()), rs)
}
