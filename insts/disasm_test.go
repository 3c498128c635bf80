package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/psxsim/insts"
)

var _ = Describe("Disassembler", func() {
	DescribeTable("String",
		func(inst insts.Instruction, text string) {
			Expect(inst.String()).To(Equal(text))
		},
		Entry("nop", insts.NOP(), "nop"),
		Entry("addiu", insts.ADDIU(8, 0, 5), "addiu $t0, $zero, 5"),
		Entry("negative addiu", insts.ADDIU(29, 29, -16), "addiu $sp, $sp, -16"),
		Entry("ori", insts.ORI(8, 8, 0xBEEF), "ori $t0, $t0, 0xbeef"),
		Entry("lui", insts.LUI(4, 0x8001), "lui $a0, 0x8001"),
		Entry("addu", insts.ADDU(2, 4, 5), "addu $v0, $a0, $a1"),
		Entry("lw", insts.LW(8, 4, 8), "lw $t0, 8($a0)"),
		Entry("sw", insts.SW(31, 29, -4), "sw $ra, -4($sp)"),
		Entry("jr", insts.JR(31), "jr $ra"),
		Entry("div", insts.DIV(8, 9), "div $t0, $t1"),
		Entry("mflo", insts.MFLO(10), "mflo $t2"),
		Entry("mtc0", insts.MTC0(8, 12), "mtc0 $t0, $12"),
		Entry("rfe", insts.RFE(), "rfe"),
		Entry("beq", insts.BEQ(8, 9, -2), "beq $t0, $t1, -8"),
		Entry("illegal", insts.Instruction(0xFC000000), "illegal 0xfc000000"),
	)

	It("should resolve branch targets relative to the delay slot", func() {
		inst := insts.BNE(8, 0, 3)
		Expect(inst.Disassemble(0x80010000)).To(Equal("bne $t0, $zero, 0x80010010"))
	})

	It("should resolve jump targets inside the current 256MB segment", func() {
		inst := insts.J(0x00010040)
		Expect(inst.Disassemble(0xBFC00000)).To(Equal("j 0xb0010040"))
	})
})
