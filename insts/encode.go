package insts

// EncodeR builds an R-type (OpSpecial) instruction.
// Format: 000000 | rs | rt | rd | shamt | funct
func EncodeR(funct uint32, rs, rt, rd uint8, shamt uint32) Instruction {
	return Instruction(uint32(rs&0x1F)<<21 | uint32(rt&0x1F)<<16 |
		uint32(rd&0x1F)<<11 | (shamt&0x1F)<<6 | funct&0x3F)
}

// EncodeI builds an I-type instruction.
// Format: opcode | rs | rt | imm16
func EncodeI(op uint32, rs, rt uint8, imm uint16) Instruction {
	return Instruction((op&0x3F)<<26 | uint32(rs&0x1F)<<21 |
		uint32(rt&0x1F)<<16 | uint32(imm))
}

// EncodeJ builds a J-type instruction. target is a byte address; only
// bits [27:2] are encoded.
func EncodeJ(op uint32, target uint32) Instruction {
	return Instruction((op&0x3F)<<26 | (target>>2)&0x3FFFFFF)
}

// EncodeCop builds a coprocessor register move such as MTC0 or MFC2.
func EncodeCop(cop uint32, copOp uint32, rt, rd uint8) Instruction {
	return Instruction((OpCOP0+(cop&3))<<26 | (copOp&0x1F)<<21 |
		uint32(rt&0x1F)<<16 | uint32(rd&0x1F)<<11)
}

// EncodeBranch builds a conditional branch whose offset is expressed in
// instructions relative to the delay slot.
func EncodeBranch(op uint32, rs, rt uint8, offset int16) Instruction {
	return EncodeI(op, rs, rt, uint16(offset))
}

// Common encodings used when assembling test programs by hand.

// NOP returns the canonical no-op, sll $zero, $zero, 0.
func NOP() Instruction { return 0 }

// ADDIU encodes addiu rt, rs, imm.
func ADDIU(rt, rs uint8, imm int16) Instruction {
	return EncodeI(OpADDIU, rs, rt, uint16(imm))
}

// ADDI encodes addi rt, rs, imm.
func ADDI(rt, rs uint8, imm int16) Instruction {
	return EncodeI(OpADDI, rs, rt, uint16(imm))
}

// ORI encodes ori rt, rs, imm.
func ORI(rt, rs uint8, imm uint16) Instruction {
	return EncodeI(OpORI, rs, rt, imm)
}

// LUI encodes lui rt, imm.
func LUI(rt uint8, imm uint16) Instruction {
	return EncodeI(OpLUI, 0, rt, imm)
}

// LW encodes lw rt, offset(base).
func LW(rt, base uint8, offset int16) Instruction {
	return EncodeI(OpLW, base, rt, uint16(offset))
}

// SW encodes sw rt, offset(base).
func SW(rt, base uint8, offset int16) Instruction {
	return EncodeI(OpSW, base, rt, uint16(offset))
}

// ADD encodes add rd, rs, rt.
func ADD(rd, rs, rt uint8) Instruction { return EncodeR(FnADD, rs, rt, rd, 0) }

// ADDU encodes addu rd, rs, rt.
func ADDU(rd, rs, rt uint8) Instruction { return EncodeR(FnADDU, rs, rt, rd, 0) }

// SUB encodes sub rd, rs, rt.
func SUB(rd, rs, rt uint8) Instruction { return EncodeR(FnSUB, rs, rt, rd, 0) }

// DIV encodes div rs, rt.
func DIV(rs, rt uint8) Instruction { return EncodeR(FnDIV, rs, rt, 0, 0) }

// DIVU encodes divu rs, rt.
func DIVU(rs, rt uint8) Instruction { return EncodeR(FnDIVU, rs, rt, 0, 0) }

// MULT encodes mult rs, rt.
func MULT(rs, rt uint8) Instruction { return EncodeR(FnMULT, rs, rt, 0, 0) }

// MFLO encodes mflo rd.
func MFLO(rd uint8) Instruction { return EncodeR(FnMFLO, 0, 0, rd, 0) }

// MFHI encodes mfhi rd.
func MFHI(rd uint8) Instruction { return EncodeR(FnMFHI, 0, 0, rd, 0) }

// JR encodes jr rs.
func JR(rs uint8) Instruction { return EncodeR(FnJR, rs, 0, 0, 0) }

// SYSCALL encodes syscall.
func SYSCALL() Instruction { return EncodeR(FnSYSCALL, 0, 0, 0, 0) }

// BREAK encodes break.
func BREAK() Instruction { return EncodeR(FnBREAK, 0, 0, 0, 0) }

// BEQ encodes beq rs, rt, offset.
func BEQ(rs, rt uint8, offset int16) Instruction { return EncodeBranch(OpBEQ, rs, rt, offset) }

// BNE encodes bne rs, rt, offset.
func BNE(rs, rt uint8, offset int16) Instruction { return EncodeBranch(OpBNE, rs, rt, offset) }

// J encodes j target.
func J(target uint32) Instruction { return EncodeJ(OpJ, target) }

// JAL encodes jal target.
func JAL(target uint32) Instruction { return EncodeJ(OpJAL, target) }

// MTC0 encodes mtc0 rt, cop0reg.
func MTC0(rt, rd uint8) Instruction { return EncodeCop(0, CopMT, rt, rd) }

// MFC0 encodes mfc0 rt, cop0reg.
func MFC0(rt, rd uint8) Instruction { return EncodeCop(0, CopMF, rt, rd) }

// RFE encodes the COP0 return-from-exception command.
func RFE() Instruction {
	return Instruction(OpCOP0<<26 | 1<<25 | Cop0RFE)
}

// Words converts instructions to raw words in program order.
func Words(program ...Instruction) []uint32 {
	words := make([]uint32, len(program))
	for n, inst := range program {
		words[n] = uint32(inst)
	}
	return words
}

// Bytes converts instructions to little-endian bytes in program order.
func Bytes(program ...Instruction) []byte {
	out := make([]byte, 0, 4*len(program))
	for _, inst := range program {
		w := uint32(inst)
		out = append(out, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	return out
}
