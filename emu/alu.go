package emu

// ALU implements the R3000A integer arithmetic, logic, shift and
// multiply/divide operations.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// addOverflows reports signed overflow of a+b=r: both operands share a
// sign and the result's sign differs.
func addOverflows(a, b, r uint32) bool {
	return (^(a^b)&(a^r))&0x80000000 != 0
}

// subOverflows reports signed overflow of a-b=r: the operands differ in
// sign and the result's sign differs from a.
func subOverflows(a, b, r uint32) bool {
	return ((a^b)&(a^r))&0x80000000 != 0
}

// ADD performs rd = rs + rt. It returns false, leaving rd untouched, on
// signed overflow.
func (a *ALU) ADD(rd, rs, rt uint8) bool {
	op1 := a.regFile.Read(rs)
	op2 := a.regFile.Read(rt)
	result := op1 + op2
	if addOverflows(op1, op2, result) {
		return false
	}
	a.regFile.Write(rd, result)
	return true
}

// ADDU performs rd = rs + rt without trapping.
func (a *ALU) ADDU(rd, rs, rt uint8) {
	a.regFile.Write(rd, a.regFile.Read(rs)+a.regFile.Read(rt))
}

// SUB performs rd = rs - rt. It returns false, leaving rd untouched, on
// signed overflow.
func (a *ALU) SUB(rd, rs, rt uint8) bool {
	op1 := a.regFile.Read(rs)
	op2 := a.regFile.Read(rt)
	result := op1 - op2
	if subOverflows(op1, op2, result) {
		return false
	}
	a.regFile.Write(rd, result)
	return true
}

// SUBU performs rd = rs - rt without trapping.
func (a *ALU) SUBU(rd, rs, rt uint8) {
	a.regFile.Write(rd, a.regFile.Read(rs)-a.regFile.Read(rt))
}

// ADDI performs rt = rs + imm. imm is already sign-extended. It returns
// false on signed overflow.
func (a *ALU) ADDI(rt, rs uint8, imm uint32) bool {
	op1 := a.regFile.Read(rs)
	result := op1 + imm
	if addOverflows(op1, imm, result) {
		return false
	}
	a.regFile.Write(rt, result)
	return true
}

// ADDIU performs rt = rs + imm without trapping.
func (a *ALU) ADDIU(rt, rs uint8, imm uint32) {
	a.regFile.Write(rt, a.regFile.Read(rs)+imm)
}

// AND performs rd = rs & rt.
func (a *ALU) AND(rd, rs, rt uint8) {
	a.regFile.Write(rd, a.regFile.Read(rs)&a.regFile.Read(rt))
}

// OR performs rd = rs | rt.
func (a *ALU) OR(rd, rs, rt uint8) {
	a.regFile.Write(rd, a.regFile.Read(rs)|a.regFile.Read(rt))
}

// XOR performs rd = rs ^ rt.
func (a *ALU) XOR(rd, rs, rt uint8) {
	a.regFile.Write(rd, a.regFile.Read(rs)^a.regFile.Read(rt))
}

// NOR performs rd = ^(rs | rt).
func (a *ALU) NOR(rd, rs, rt uint8) {
	a.regFile.Write(rd, ^(a.regFile.Read(rs) | a.regFile.Read(rt)))
}

// ANDI performs rt = rs & imm (zero-extended).
func (a *ALU) ANDI(rt, rs uint8, imm uint32) {
	a.regFile.Write(rt, a.regFile.Read(rs)&imm)
}

// ORI performs rt = rs | imm (zero-extended).
func (a *ALU) ORI(rt, rs uint8, imm uint32) {
	a.regFile.Write(rt, a.regFile.Read(rs)|imm)
}

// XORI performs rt = rs ^ imm (zero-extended).
func (a *ALU) XORI(rt, rs uint8, imm uint32) {
	a.regFile.Write(rt, a.regFile.Read(rs)^imm)
}

// LUI performs rt = imm << 16.
func (a *ALU) LUI(rt uint8, imm uint32) {
	a.regFile.Write(rt, imm<<16)
}

func bool32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// SLT performs rd = (int32(rs) < int32(rt)).
func (a *ALU) SLT(rd, rs, rt uint8) {
	a.regFile.Write(rd, bool32(int32(a.regFile.Read(rs)) < int32(a.regFile.Read(rt))))
}

// SLTU performs rd = (rs < rt), unsigned.
func (a *ALU) SLTU(rd, rs, rt uint8) {
	a.regFile.Write(rd, bool32(a.regFile.Read(rs) < a.regFile.Read(rt)))
}

// SLTI performs rt = (int32(rs) < int32(imm)).
func (a *ALU) SLTI(rt, rs uint8, imm uint32) {
	a.regFile.Write(rt, bool32(int32(a.regFile.Read(rs)) < int32(imm)))
}

// SLTIU performs rt = (rs < imm), unsigned. imm is sign-extended first.
func (a *ALU) SLTIU(rt, rs uint8, imm uint32) {
	a.regFile.Write(rt, bool32(a.regFile.Read(rs) < imm))
}

// SLL performs rd = rt << shamt.
func (a *ALU) SLL(rd, rt uint8, shamt uint32) {
	a.regFile.Write(rd, a.regFile.Read(rt)<<shamt)
}

// SRL performs rd = rt >> shamt (logical).
func (a *ALU) SRL(rd, rt uint8, shamt uint32) {
	a.regFile.Write(rd, a.regFile.Read(rt)>>shamt)
}

// SRA performs rd = rt >> shamt (arithmetic).
func (a *ALU) SRA(rd, rt uint8, shamt uint32) {
	a.regFile.Write(rd, uint32(int32(a.regFile.Read(rt))>>shamt))
}

// SLLV performs rd = rt << (rs & 31).
func (a *ALU) SLLV(rd, rt, rs uint8) {
	a.SLL(rd, rt, a.regFile.Read(rs)&31)
}

// SRLV performs rd = rt >> (rs & 31) (logical).
func (a *ALU) SRLV(rd, rt, rs uint8) {
	a.SRL(rd, rt, a.regFile.Read(rs)&31)
}

// SRAV performs rd = rt >> (rs & 31) (arithmetic).
func (a *ALU) SRAV(rd, rt, rs uint8) {
	a.SRA(rd, rt, a.regFile.Read(rs)&31)
}

// MULT performs HI:LO = int32(rs) * int32(rt).
func (a *ALU) MULT(rs, rt uint8) {
	product := uint64(int64(int32(a.regFile.Read(rs))) * int64(int32(a.regFile.Read(rt))))
	a.regFile.HI = uint32(product >> 32)
	a.regFile.LO = uint32(product)
}

// MULTU performs HI:LO = rs * rt, unsigned.
func (a *ALU) MULTU(rs, rt uint8) {
	product := uint64(a.regFile.Read(rs)) * uint64(a.regFile.Read(rt))
	a.regFile.HI = uint32(product >> 32)
	a.regFile.LO = uint32(product)
}

// DIV performs LO = rs / rt, HI = rs % rt, signed. Division by zero and
// INT32_MIN / -1 do not trap; they produce the values the hardware
// divider leaves behind.
func (a *ALU) DIV(rs, rt uint8) {
	n := int32(a.regFile.Read(rs))
	d := int32(a.regFile.Read(rt))

	switch {
	case d == 0:
		a.regFile.HI = uint32(n)
		if n >= 0 {
			a.regFile.LO = 0xFFFFFFFF
		} else {
			a.regFile.LO = 1
		}
	case uint32(n) == 0x80000000 && d == -1:
		a.regFile.HI = 0
		a.regFile.LO = 0x80000000
	default:
		a.regFile.HI = uint32(n % d)
		a.regFile.LO = uint32(n / d)
	}
}

// DIVU performs LO = rs / rt, HI = rs % rt, unsigned. Division by zero
// gives HI = rs, LO = 0xFFFFFFFF.
func (a *ALU) DIVU(rs, rt uint8) {
	n := a.regFile.Read(rs)
	d := a.regFile.Read(rt)

	if d == 0 {
		a.regFile.HI = n
		a.regFile.LO = 0xFFFFFFFF
		return
	}
	a.regFile.HI = n % d
	a.regFile.LO = n / d
}

// MFHI performs rd = HI.
func (a *ALU) MFHI(rd uint8) {
	a.regFile.Write(rd, a.regFile.HI)
}

// MFLO performs rd = LO.
func (a *ALU) MFLO(rd uint8) {
	a.regFile.Write(rd, a.regFile.LO)
}

// MTHI performs HI = rs.
func (a *ALU) MTHI(rs uint8) {
	a.regFile.HI = a.regFile.Read(rs)
}

// MTLO performs LO = rs.
func (a *ALU) MTLO(rs uint8) {
	a.regFile.LO = a.regFile.Read(rs)
}
