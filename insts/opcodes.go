package insts

// Primary opcodes, bits [31:26].
const (
	OpSpecial uint32 = 0x00 // Dispatch on Funct
	OpRegImm  uint32 = 0x01 // Dispatch on Rt (BLTZ, BGEZ, BLTZAL, BGEZAL)
	OpJ       uint32 = 0x02
	OpJAL     uint32 = 0x03
	OpBEQ     uint32 = 0x04
	OpBNE     uint32 = 0x05
	OpBLEZ    uint32 = 0x06
	OpBGTZ    uint32 = 0x07
	OpADDI    uint32 = 0x08
	OpADDIU   uint32 = 0x09
	OpSLTI    uint32 = 0x0A
	OpSLTIU   uint32 = 0x0B
	OpANDI    uint32 = 0x0C
	OpORI     uint32 = 0x0D
	OpXORI    uint32 = 0x0E
	OpLUI     uint32 = 0x0F
	OpCOP0    uint32 = 0x10
	OpCOP1    uint32 = 0x11
	OpCOP2    uint32 = 0x12
	OpCOP3    uint32 = 0x13
	OpLB      uint32 = 0x20
	OpLH      uint32 = 0x21
	OpLWL     uint32 = 0x22
	OpLW      uint32 = 0x23
	OpLBU     uint32 = 0x24
	OpLHU     uint32 = 0x25
	OpLWR     uint32 = 0x26
	OpSB      uint32 = 0x28
	OpSH      uint32 = 0x29
	OpSWL     uint32 = 0x2A
	OpSW      uint32 = 0x2B
	OpSWR     uint32 = 0x2E
	OpLWC0    uint32 = 0x30
	OpLWC1    uint32 = 0x31
	OpLWC2    uint32 = 0x32
	OpLWC3    uint32 = 0x33
	OpSWC0    uint32 = 0x38
	OpSWC1    uint32 = 0x39
	OpSWC2    uint32 = 0x3A
	OpSWC3    uint32 = 0x3B
)

// Secondary function codes for OpSpecial, bits [5:0].
const (
	FnSLL     uint32 = 0x00
	FnSRL     uint32 = 0x02
	FnSRA     uint32 = 0x03
	FnSLLV    uint32 = 0x04
	FnSRLV    uint32 = 0x06
	FnSRAV    uint32 = 0x07
	FnJR      uint32 = 0x08
	FnJALR    uint32 = 0x09
	FnSYSCALL uint32 = 0x0C
	FnBREAK   uint32 = 0x0D
	FnMFHI    uint32 = 0x10
	FnMTHI    uint32 = 0x11
	FnMFLO    uint32 = 0x12
	FnMTLO    uint32 = 0x13
	FnMULT    uint32 = 0x18
	FnMULTU   uint32 = 0x19
	FnDIV     uint32 = 0x1A
	FnDIVU    uint32 = 0x1B
	FnADD     uint32 = 0x20
	FnADDU    uint32 = 0x21
	FnSUB     uint32 = 0x22
	FnSUBU    uint32 = 0x23
	FnAND     uint32 = 0x24
	FnOR      uint32 = 0x25
	FnXOR     uint32 = 0x26
	FnNOR     uint32 = 0x27
	FnSLT     uint32 = 0x2A
	FnSLTU    uint32 = 0x2B
)

// Coprocessor sub-opcodes, bits [25:21].
const (
	CopMF uint32 = 0x00 // Move from coprocessor data register
	CopCF uint32 = 0x02 // Move from coprocessor control register
	CopMT uint32 = 0x04 // Move to coprocessor data register
	CopCT uint32 = 0x06 // Move to coprocessor control register
	CopBC uint32 = 0x08 // Branch on coprocessor condition
)

// Cop0RFE is the COP0 command function code for Return From Exception.
const Cop0RFE uint32 = 0x10

var specialNames = map[uint32]string{
	FnSLL: "sll", FnSRL: "srl", FnSRA: "sra",
	FnSLLV: "sllv", FnSRLV: "srlv", FnSRAV: "srav",
	FnJR: "jr", FnJALR: "jalr",
	FnSYSCALL: "syscall", FnBREAK: "break",
	FnMFHI: "mfhi", FnMTHI: "mthi", FnMFLO: "mflo", FnMTLO: "mtlo",
	FnMULT: "mult", FnMULTU: "multu", FnDIV: "div", FnDIVU: "divu",
	FnADD: "add", FnADDU: "addu", FnSUB: "sub", FnSUBU: "subu",
	FnAND: "and", FnOR: "or", FnXOR: "xor", FnNOR: "nor",
	FnSLT: "slt", FnSLTU: "sltu",
}

var primaryNames = map[uint32]string{
	OpJ: "j", OpJAL: "jal",
	OpBEQ: "beq", OpBNE: "bne", OpBLEZ: "blez", OpBGTZ: "bgtz",
	OpADDI: "addi", OpADDIU: "addiu", OpSLTI: "slti", OpSLTIU: "sltiu",
	OpANDI: "andi", OpORI: "ori", OpXORI: "xori", OpLUI: "lui",
	OpLB: "lb", OpLH: "lh", OpLWL: "lwl", OpLW: "lw",
	OpLBU: "lbu", OpLHU: "lhu", OpLWR: "lwr",
	OpSB: "sb", OpSH: "sh", OpSWL: "swl", OpSW: "sw", OpSWR: "swr",
	OpLWC0: "lwc0", OpLWC1: "lwc1", OpLWC2: "lwc2", OpLWC3: "lwc3",
	OpSWC0: "swc0", OpSWC1: "swc1", OpSWC2: "swc2", OpSWC3: "swc3",
}

// Mnemonic returns the assembler mnemonic of the instruction, or "illegal"
// for a reserved encoding.
func (i Instruction) Mnemonic() string {
	switch op := i.Opcode(); op {
	case OpSpecial:
		if name, ok := specialNames[i.Funct()]; ok {
			return name
		}
		return "illegal"
	case OpRegImm:
		return regImmName(i.Rt())
	case OpCOP0, OpCOP1, OpCOP2, OpCOP3:
		return copName(i)
	default:
		if name, ok := primaryNames[op]; ok {
			return name
		}
		return "illegal"
	}
}

// regImmName decodes BcondZ. Only bit 0 (GEZ vs LTZ) and whether bits
// [4:1] equal 0b1000 (link) matter to the R3000A.
func regImmName(rt uint8) string {
	name := "bltz"
	if rt&1 != 0 {
		name = "bgez"
	}
	if rt&0x1E == 0x10 {
		name += "al"
	}
	return name
}

func copName(i Instruction) string {
	n := i.CopNum()
	if i.IsCopCommand() {
		if n == 0 && i.Funct() == Cop0RFE {
			return "rfe"
		}
		return "cop" + string(rune('0'+n))
	}

	var prefix string
	switch i.CopOp() {
	case CopMF:
		prefix = "mfc"
	case CopCF:
		prefix = "cfc"
	case CopMT:
		prefix = "mtc"
	case CopCT:
		prefix = "ctc"
	case CopBC:
		prefix = "bc"
	default:
		return "illegal"
	}
	return prefix + string(rune('0'+n))
}
