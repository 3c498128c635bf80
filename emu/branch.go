package emu

// BranchUnit implements R3000A branches and jumps. Nothing here changes
// the PC directly: a taken branch latches its target, which the CPU
// applies once the delay slot instruction has retired.
type BranchUnit struct {
	regFile *RegFile

	// branch is set by any branch or jump, taken or not, so the next
	// instruction knows it sits in a delay slot.
	branch bool
	taken  bool
	target uint32
}

// NewBranchUnit creates a new BranchUnit connected to the given register file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// latch records the outcome of a branch at pc.
func (b *BranchUnit) latch(cond bool, target uint32) {
	b.branch = true
	if cond {
		b.taken = true
		b.target = target
	}
}

// take consumes the latch. It returns whether the instruction that just
// executed is in a delay slot, and the pending target if the branch was
// taken.
func (b *BranchUnit) take() (delaySlot, taken bool, target uint32) {
	delaySlot, taken, target = b.branch, b.taken, b.target
	b.clear()
	return delaySlot, taken, target
}

func (b *BranchUnit) clear() {
	b.branch = false
	b.taken = false
	b.target = 0
}

// relative computes the target of a conditional branch at pc.
func relative(pc, imm uint32) uint32 {
	return pc + 4 + imm<<2
}

// J jumps within the current 256MB segment.
func (b *BranchUnit) J(pc, target uint32) {
	b.latch(true, (pc+4)&0xF0000000|target<<2)
}

// JAL jumps and stores the return address in $ra.
func (b *BranchUnit) JAL(pc, target uint32) {
	b.regFile.Write(31, pc+8)
	b.J(pc, target)
}

// JR jumps to the address held in rs.
func (b *BranchUnit) JR(rs uint8) {
	b.latch(true, b.regFile.Read(rs))
}

// JALR jumps to rs and stores the return address in rd.
func (b *BranchUnit) JALR(pc uint32, rd, rs uint8) {
	target := b.regFile.Read(rs)
	b.regFile.Write(rd, pc+8)
	b.latch(true, target)
}

// BEQ branches if rs == rt.
func (b *BranchUnit) BEQ(pc uint32, rs, rt uint8, imm uint32) {
	b.latch(b.regFile.Read(rs) == b.regFile.Read(rt), relative(pc, imm))
}

// BNE branches if rs != rt.
func (b *BranchUnit) BNE(pc uint32, rs, rt uint8, imm uint32) {
	b.latch(b.regFile.Read(rs) != b.regFile.Read(rt), relative(pc, imm))
}

// BLEZ branches if int32(rs) <= 0.
func (b *BranchUnit) BLEZ(pc uint32, rs uint8, imm uint32) {
	b.latch(int32(b.regFile.Read(rs)) <= 0, relative(pc, imm))
}

// BGTZ branches if int32(rs) > 0.
func (b *BranchUnit) BGTZ(pc uint32, rs uint8, imm uint32) {
	b.latch(int32(b.regFile.Read(rs)) > 0, relative(pc, imm))
}

// RegImm executes BLTZ, BGEZ, BLTZAL and BGEZAL. Bit 0 of rt selects
// "greater or equal"; rt values 0x10 and 0x11 also link. The linking
// variants write $ra whether or not the branch is taken.
func (b *BranchUnit) RegImm(pc uint32, rs, rt uint8, imm uint32) {
	value := int32(b.regFile.Read(rs))
	cond := value < 0
	if rt&1 != 0 {
		cond = value >= 0
	}

	if rt&0x1E == 0x10 {
		b.regFile.Write(31, pc+8)
	}

	b.latch(cond, relative(pc, imm))
}
