package insts

// Instruction is a raw MIPS-I instruction word.
type Instruction uint32

// Opcode returns the primary opcode, bits [31:26].
func (i Instruction) Opcode() uint32 {
	return uint32(i) >> 26
}

// Rs returns the source register index, bits [25:21].
func (i Instruction) Rs() uint8 {
	return uint8((uint32(i) >> 21) & 0x1F)
}

// Rt returns the target register index, bits [20:16].
func (i Instruction) Rt() uint8 {
	return uint8((uint32(i) >> 16) & 0x1F)
}

// Rd returns the destination register index, bits [15:11].
func (i Instruction) Rd() uint8 {
	return uint8((uint32(i) >> 11) & 0x1F)
}

// Shamt returns the shift amount, bits [10:6].
func (i Instruction) Shamt() uint32 {
	return (uint32(i) >> 6) & 0x1F
}

// Funct returns the secondary function code, bits [5:0].
func (i Instruction) Funct() uint32 {
	return uint32(i) & 0x3F
}

// Imm returns the zero-extended 16-bit immediate, bits [15:0].
func (i Instruction) Imm() uint32 {
	return uint32(i) & 0xFFFF
}

// ImmSE returns the 16-bit immediate sign-extended to 32 bits.
func (i Instruction) ImmSE() uint32 {
	return uint32(int32(int16(uint32(i) & 0xFFFF)))
}

// Target returns the 26-bit jump target, bits [25:0].
func (i Instruction) Target() uint32 {
	return uint32(i) & 0x3FFFFFF
}

// CopOp returns the coprocessor sub-opcode, bits [25:21].
// It occupies the same position as Rs.
func (i Instruction) CopOp() uint32 {
	return (uint32(i) >> 21) & 0x1F
}

// CopNum returns the coprocessor number encoded in bits [27:26] of
// COPz, LWCz and SWCz instructions.
func (i Instruction) CopNum() uint32 {
	return (uint32(i) >> 26) & 0x3
}

// IsCopCommand reports whether bit 25 is set, which marks a coprocessor
// command (for example COP0 RFE or a COP2 GTE operation) rather than a
// register move.
func (i Instruction) IsCopCommand() bool {
	return uint32(i)&(1<<25) != 0
}

// CopCommand returns the 25-bit coprocessor command field, bits [24:0].
func (i Instruction) CopCommand() uint32 {
	return uint32(i) & 0x1FFFFFF
}

// Word returns the raw instruction word.
func (i Instruction) Word() uint32 {
	return uint32(i)
}
