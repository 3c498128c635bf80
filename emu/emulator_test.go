package emu_test

import (
	"bytes"
	"errors"
	"io"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/psxsim/bus"
	"github.com/sarchlab/psxsim/cop0"
	"github.com/sarchlab/psxsim/emu"
	"github.com/sarchlab/psxsim/insts"
)

const entry = uint32(0x1000)

type testRig struct {
	cpu *emu.CPU
	ram *bus.Memory
	c0  *cop0.Cop0
	irq *bus.IRQController
	ic  *bus.Interconnect
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newRig(opts ...emu.Option) *testRig {
	bios, err := bus.NewBIOS(make([]byte, bus.BIOSSize))
	Expect(err).NotTo(HaveOccurred())

	r := &testRig{ram: bus.NewRAM(), irq: bus.NewIRQController()}
	r.c0 = cop0.New(cop0.WithLogger(quietLogger()), cop0.WithIRQLine(r.irq))
	// Programs run from RAM with the handlers there, as after boot.
	r.c0.SetStatus(0)
	r.ic = bus.NewInterconnect(r.c0, map[bus.RangeID]bus.Device{
		bus.RangeRAM:        r.ram,
		bus.RangeBIOS:       bios,
		bus.RangeIRQControl: r.irq,
	})

	opts = append([]emu.Option{emu.WithLogger(quietLogger())}, opts...)
	r.cpu = emu.New(r.ic, r.c0, opts...)
	r.cpu.SetPC(entry)
	return r
}

func (r *testRig) load(addr uint32, program ...insts.Instruction) {
	copy(r.ram.Bytes()[addr:], insts.Bytes(program...))
}

func (r *testRig) steps(n int) emu.StepResult {
	var result emu.StepResult
	for i := 0; i < n; i++ {
		result = r.cpu.Step()
		Expect(result.Err).NotTo(HaveOccurred())
	}
	return result
}

func (r *testRig) word(addr uint32) uint32 {
	v, err := r.ram.Load(bus.Word, addr)
	Expect(err).NotTo(HaveOccurred())
	return v
}

var _ = Describe("CPU", func() {
	var r *testRig

	BeforeEach(func() {
		r = newRig()
	})

	Describe("New", func() {
		It("should start at the reset vector", func() {
			cpu := emu.New(r.ic, r.c0)
			Expect(cpu.PC()).To(Equal(emu.ResetVector))
			Expect(cpu.RegFile()).NotTo(BeNil())
			Expect(cpu.Cop0()).To(BeIdenticalTo(r.c0))
			Expect(cpu.Bus()).To(BeIdenticalTo(r.ic))
		})
	})

	Describe("Reset", func() {
		It("should clear registers and restore BEV", func() {
			r.cpu.SetReg(5, 42)
			r.cpu.Reset()

			Expect(r.cpu.Reg(5)).To(BeZero())
			Expect(r.cpu.PC()).To(Equal(emu.ResetVector))
			Expect(r.c0.Status().BootVectors()).To(BeTrue())
			Expect(r.cpu.InstructionCount()).To(BeZero())
		})
	})

	Describe("ALU instructions", func() {
		It("should execute ADDIU and advance the PC", func() {
			r.load(entry, insts.ADDIU(1, 0, -3))
			r.steps(1)

			Expect(r.cpu.Reg(1)).To(Equal(uint32(0xFFFFFFFD)))
			Expect(r.cpu.PC()).To(Equal(entry + 4))
			Expect(r.cpu.InstructionCount()).To(Equal(uint64(1)))
		})

		It("should build constants with LUI and ORI", func() {
			r.load(entry, insts.LUI(1, 0x1234), insts.ORI(1, 1, 0xABCD))
			r.steps(2)

			Expect(r.cpu.Reg(1)).To(Equal(uint32(0x1234ABCD)))
		})

		It("should ignore writes to $zero", func() {
			r.load(entry, insts.ADDIU(0, 0, 7))
			r.steps(1)

			Expect(r.cpu.Reg(0)).To(BeZero())
		})

		It("should trap ADD on signed overflow and leave rd untouched", func() {
			r.cpu.SetReg(1, 0x7FFFFFFF)
			r.cpu.SetReg(2, 1)
			r.cpu.SetReg(3, 0x1234)
			r.load(entry, insts.ADD(3, 1, 2))

			result := r.steps(1)

			Expect(result.Raised).To(BeTrue())
			Expect(result.Exception).To(Equal(cop0.ExcOverflow))
			Expect(r.cpu.Reg(3)).To(Equal(uint32(0x1234)))
			Expect(r.cpu.PC()).To(Equal(cop0.VectorRAM))
			Expect(r.c0.EPC()).To(Equal(entry))
			Expect(r.c0.Cause().ExceptionCode()).To(Equal(cop0.ExcOverflow))
		})

		It("should wrap ADDU without trapping", func() {
			r.cpu.SetReg(1, 0x7FFFFFFF)
			r.cpu.SetReg(2, 1)
			r.load(entry, insts.ADDU(3, 1, 2))

			result := r.steps(1)

			Expect(result.Raised).To(BeFalse())
			Expect(r.cpu.Reg(3)).To(Equal(uint32(0x80000000)))
		})

		It("should trap SUB on signed overflow", func() {
			r.cpu.SetReg(1, 0x80000000)
			r.cpu.SetReg(2, 1)
			r.load(entry, insts.SUB(3, 1, 2))

			result := r.steps(1)

			Expect(result.Exception).To(Equal(cop0.ExcOverflow))
			Expect(r.cpu.Reg(3)).To(BeZero())
		})

		It("should trap ADDI on signed overflow", func() {
			r.cpu.SetReg(1, 0x80000000)
			r.load(entry, insts.ADDI(2, 1, -1))

			result := r.steps(1)

			Expect(result.Exception).To(Equal(cop0.ExcOverflow))
		})

		It("should compare signed and unsigned", func() {
			r.cpu.SetReg(1, 0xFFFFFFFF)
			r.cpu.SetReg(2, 1)
			r.load(entry,
				insts.EncodeR(insts.FnSLT, 1, 2, 3, 0),
				insts.EncodeR(insts.FnSLTU, 1, 2, 4, 0),
				insts.EncodeI(insts.OpSLTIU, 2, 5, 0xFFFF),
			)
			r.steps(3)

			Expect(r.cpu.Reg(3)).To(Equal(uint32(1)))
			Expect(r.cpu.Reg(4)).To(BeZero())
			Expect(r.cpu.Reg(5)).To(Equal(uint32(1)))
		})

		It("should shift", func() {
			r.cpu.SetReg(1, 0x80000010)
			r.cpu.SetReg(2, 36)
			r.load(entry,
				insts.EncodeR(insts.FnSRA, 0, 1, 3, 4),
				insts.EncodeR(insts.FnSRL, 0, 1, 4, 4),
				insts.EncodeR(insts.FnSLLV, 2, 1, 5, 0),
			)
			r.steps(3)

			Expect(r.cpu.Reg(3)).To(Equal(uint32(0xF8000001)))
			Expect(r.cpu.Reg(4)).To(Equal(uint32(0x08000001)))
			Expect(r.cpu.Reg(5)).To(Equal(uint32(0x00000100)))
		})
	})

	Describe("multiply and divide", func() {
		DescribeTable("DIV",
			func(n, d, lo, hi uint32) {
				r.cpu.SetReg(1, n)
				r.cpu.SetReg(2, d)
				r.load(entry, insts.DIV(1, 2), insts.MFLO(3), insts.MFHI(4))
				r.steps(3)

				Expect(r.cpu.Reg(3)).To(Equal(lo))
				Expect(r.cpu.Reg(4)).To(Equal(hi))
			},
			Entry("positive by zero", uint32(5), uint32(0), uint32(0xFFFFFFFF), uint32(5)),
			Entry("negative by zero", uint32(0xFFFFFFFB), uint32(0), uint32(1), uint32(0xFFFFFFFB)),
			Entry("INT32_MIN by -1", uint32(0x80000000), uint32(0xFFFFFFFF), uint32(0x80000000), uint32(0)),
			Entry("truncating", uint32(7), uint32(0xFFFFFFFE), uint32(0xFFFFFFFD), uint32(1)),
		)

		It("should give HI = dividend and LO = all ones for DIVU by zero", func() {
			r.cpu.SetReg(1, 0x80000005)
			r.load(entry, insts.DIVU(1, 0), insts.MFLO(3), insts.MFHI(4))
			r.steps(3)

			Expect(r.cpu.Reg(3)).To(Equal(uint32(0xFFFFFFFF)))
			Expect(r.cpu.Reg(4)).To(Equal(uint32(0x80000005)))
		})

		It("should produce a signed 64-bit product", func() {
			r.cpu.SetReg(1, 0xFFFFFFFE)
			r.cpu.SetReg(2, 3)
			r.load(entry, insts.MULT(1, 2), insts.MFLO(3), insts.MFHI(4))
			r.steps(3)

			Expect(r.cpu.Reg(3)).To(Equal(uint32(0xFFFFFFFA)))
			Expect(r.cpu.Reg(4)).To(Equal(uint32(0xFFFFFFFF)))
		})

		It("should produce an unsigned 64-bit product", func() {
			r.cpu.SetReg(1, 0xFFFFFFFF)
			r.cpu.SetReg(2, 2)
			r.load(entry, insts.EncodeR(insts.FnMULTU, 1, 2, 0, 0))
			r.steps(1)

			Expect(r.cpu.RegFile().HI).To(Equal(uint32(1)))
			Expect(r.cpu.RegFile().LO).To(Equal(uint32(0xFFFFFFFE)))
		})
	})

	Describe("load delay slot", func() {
		BeforeEach(func() {
			copy(r.ram.Bytes()[0x100:], []byte{0xEF, 0xBE, 0xAD, 0xDE, 0x11, 0, 0, 0})
			r.cpu.SetReg(1, 0x100)
			r.cpu.SetReg(2, 7)
		})

		It("should show the old value to the next instruction only", func() {
			r.load(entry,
				insts.LW(2, 1, 0),
				insts.ADDU(3, 2, 0),
				insts.ADDU(4, 2, 0),
			)
			r.steps(3)

			Expect(r.cpu.Reg(3)).To(Equal(uint32(7)))
			Expect(r.cpu.Reg(4)).To(Equal(uint32(0xDEADBEEF)))
			Expect(r.cpu.Reg(2)).To(Equal(uint32(0xDEADBEEF)))
		})

		It("should cancel the load when the delay slot writes the register", func() {
			r.load(entry,
				insts.LW(2, 1, 0),
				insts.ADDIU(2, 0, 5),
				insts.NOP(),
				insts.NOP(),
			)
			r.steps(4)

			Expect(r.cpu.Reg(2)).To(Equal(uint32(5)))
		})

		It("should let the second of two loads to a register win", func() {
			r.load(entry,
				insts.LW(2, 1, 0),
				insts.LW(2, 1, 4),
				insts.NOP(),
				insts.NOP(),
			)
			r.steps(4)

			Expect(r.cpu.Reg(2)).To(Equal(uint32(0x11)))
		})

		It("should sign-extend LB and LH and zero-extend LBU and LHU", func() {
			r.load(entry,
				insts.EncodeI(insts.OpLB, 1, 3, 3),
				insts.EncodeI(insts.OpLBU, 1, 4, 3),
				insts.EncodeI(insts.OpLH, 1, 5, 2),
				insts.EncodeI(insts.OpLHU, 1, 6, 2),
				insts.NOP(),
			)
			r.steps(5)

			Expect(r.cpu.Reg(3)).To(Equal(uint32(0xFFFFFFDE)))
			Expect(r.cpu.Reg(4)).To(Equal(uint32(0xDE)))
			Expect(r.cpu.Reg(5)).To(Equal(uint32(0xFFFFDEAD)))
			Expect(r.cpu.Reg(6)).To(Equal(uint32(0xDEAD)))
		})
	})

	Describe("unaligned loads and stores", func() {
		BeforeEach(func() {
			copy(r.ram.Bytes()[0x100:], []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77})
			r.cpu.SetReg(1, 0x100)
		})

		It("should merge an LWR/LWL pair through the in-flight value", func() {
			r.load(entry,
				insts.EncodeI(insts.OpLWR, 1, 2, 1),
				insts.EncodeI(insts.OpLWL, 1, 2, 4),
				insts.NOP(),
			)
			r.steps(3)

			Expect(r.cpu.Reg(2)).To(Equal(uint32(0x44332211)))
		})

		It("should store an unaligned word with SWR/SWL", func() {
			r.cpu.SetReg(2, 0xAABBCCDD)
			r.load(entry,
				insts.EncodeI(insts.OpSWR, 1, 2, 1),
				insts.EncodeI(insts.OpSWL, 1, 2, 4),
			)
			r.steps(2)

			Expect(r.ram.Bytes()[0x100:0x106]).To(Equal([]byte{0x00, 0xDD, 0xCC, 0xBB, 0xAA, 0x55}))
		})

		It("should never trap on unaligned addresses", func() {
			r.load(entry, insts.EncodeI(insts.OpLWL, 1, 2, 3))
			result := r.steps(1)

			Expect(result.Raised).To(BeFalse())
		})
	})

	Describe("stores", func() {
		It("should write bytes, halfwords and words", func() {
			r.cpu.SetReg(1, 0x200)
			r.cpu.SetReg(2, 0xCAFEF00D)
			r.load(entry,
				insts.SW(2, 1, 0),
				insts.EncodeI(insts.OpSH, 1, 2, 4),
				insts.EncodeI(insts.OpSB, 1, 2, 6),
			)
			r.steps(3)

			Expect(r.word(0x200)).To(Equal(uint32(0xCAFEF00D)))
			Expect(r.word(0x204)).To(Equal(uint32(0x000DF00D)))
		})

		It("should suppress stores while the cache is isolated", func() {
			r.c0.SetStatus(cop0.StatusIsC)
			r.cpu.SetReg(1, 0x200)
			r.cpu.SetReg(2, 0xFFFFFFFF)
			r.load(entry, insts.SW(2, 1, 0))
			r.steps(1)

			Expect(r.word(0x200)).To(BeZero())
		})
	})

	Describe("alignment", func() {
		It("should raise LoadAddress for a misaligned LW", func() {
			r.cpu.SetReg(1, 0x102)
			r.cpu.SetReg(2, 9)
			r.load(entry, insts.LW(2, 1, 0), insts.NOP())

			result := r.steps(1)

			Expect(result.Exception).To(Equal(cop0.ExcLoadAddress))
			Expect(r.c0.BadVaddr()).To(Equal(uint32(0x102)))
			Expect(r.cpu.PC()).To(Equal(cop0.VectorRAM))
			Expect(r.cpu.Reg(2)).To(Equal(uint32(9)))
		})

		It("should raise StoreAddress for a misaligned SH", func() {
			r.cpu.SetReg(1, 0x101)
			r.load(entry, insts.EncodeI(insts.OpSH, 1, 2, 0))

			result := r.steps(1)

			Expect(result.Exception).To(Equal(cop0.ExcStoreAddress))
			Expect(r.c0.BadVaddr()).To(Equal(uint32(0x101)))
		})

		It("should raise LoadAddress for a misaligned PC", func() {
			r.cpu.SetPC(entry + 2)

			result := r.steps(1)

			Expect(result.Exception).To(Equal(cop0.ExcLoadAddress))
			Expect(r.c0.BadVaddr()).To(Equal(entry + 2))
			Expect(r.c0.EPC()).To(Equal(entry + 2))
		})
	})

	Describe("branch delay slot", func() {
		It("should execute exactly one instruction before the target", func() {
			r.load(entry,
				insts.BEQ(0, 0, 2),
				insts.ADDIU(1, 0, 1),
				insts.ADDIU(2, 0, 2),
				insts.ADDIU(3, 0, 3),
			)

			r.steps(1)
			Expect(r.cpu.PC()).To(Equal(entry + 4))

			r.steps(2)
			Expect(r.cpu.Reg(1)).To(Equal(uint32(1)))
			Expect(r.cpu.Reg(2)).To(BeZero())
			Expect(r.cpu.Reg(3)).To(Equal(uint32(3)))
			Expect(r.cpu.PC()).To(Equal(entry + 16))
		})

		It("should fall through when the branch is not taken", func() {
			r.cpu.SetReg(1, 1)
			r.load(entry,
				insts.BEQ(1, 0, 10),
				insts.NOP(),
				insts.ADDIU(2, 0, 2),
			)
			r.steps(3)

			Expect(r.cpu.Reg(2)).To(Equal(uint32(2)))
		})

		It("should link JAL to PC+8", func() {
			r.load(entry, insts.JAL(0x2000), insts.NOP())
			r.steps(2)

			Expect(r.cpu.Reg(31)).To(Equal(entry + 8))
			Expect(r.cpu.PC()).To(Equal(uint32(0x2000)))
		})

		It("should link JALR to rd", func() {
			r.cpu.SetReg(1, 0x3000)
			r.load(entry, insts.EncodeR(insts.FnJALR, 1, 0, 7, 0), insts.NOP())
			r.steps(2)

			Expect(r.cpu.Reg(7)).To(Equal(entry + 8))
			Expect(r.cpu.PC()).To(Equal(uint32(0x3000)))
		})

		It("should align the JR target down to a word", func() {
			r.cpu.SetReg(1, 0x2003)
			r.load(entry, insts.JR(1), insts.NOP())
			r.steps(2)

			Expect(r.cpu.PC()).To(Equal(uint32(0x2000)))
		})

		It("should link BLTZAL even when not taken", func() {
			r.cpu.SetReg(1, 5)
			r.load(entry, insts.EncodeI(insts.OpRegImm, 1, 0x10, 4), insts.NOP())
			r.steps(2)

			Expect(r.cpu.Reg(31)).To(Equal(entry + 8))
			Expect(r.cpu.PC()).To(Equal(entry + 8))
		})

		It("should take BGEZ on zero", func() {
			r.load(entry, insts.EncodeI(insts.OpRegImm, 0, 0x01, 4), insts.NOP())
			r.steps(2)

			Expect(r.cpu.PC()).To(Equal(entry + 4 + 16))
		})

		It("should point EPC at the branch for an exception in the delay slot", func() {
			r.load(entry, insts.BEQ(0, 0, 8), insts.SYSCALL())

			r.steps(1)
			result := r.steps(1)

			Expect(result.Exception).To(Equal(cop0.ExcSyscall))
			Expect(r.c0.EPC()).To(Equal(entry))
			Expect(r.c0.Cause().InDelaySlot()).To(BeTrue())
			Expect(r.cpu.PC()).To(Equal(cop0.VectorRAM))
		})
	})

	Describe("exceptions", func() {
		It("should raise Syscall and Break", func() {
			r.load(entry, insts.SYSCALL())
			Expect(r.steps(1).Exception).To(Equal(cop0.ExcSyscall))
			Expect(r.c0.Cause().InDelaySlot()).To(BeFalse())

			r.cpu.SetPC(entry + 4)
			r.load(entry+4, insts.BREAK())
			Expect(r.steps(1).Exception).To(Equal(cop0.ExcBreak))
		})

		It("should raise IllegalInstruction for reserved opcodes", func() {
			r.load(entry, insts.Instruction(0xFC000000))
			Expect(r.steps(1).Exception).To(Equal(cop0.ExcIllegalInstruction))
		})

		It("should raise IllegalInstruction for reserved function codes", func() {
			r.load(entry, insts.EncodeR(0x3F, 0, 0, 0, 0))
			Expect(r.steps(1).Exception).To(Equal(cop0.ExcIllegalInstruction))
		})

		It("should use the ROM vector when BEV is set", func() {
			r.c0.SetStatus(cop0.StatusBEV)
			r.load(entry, insts.SYSCALL())
			r.steps(1)

			Expect(r.cpu.PC()).To(Equal(cop0.VectorROM))
		})

		It("should restore the mode stack with RFE", func() {
			r.c0.SetStatus(cop0.StatusIEc | cop0.StatusKUc)
			r.load(entry, insts.SYSCALL())
			r.load(cop0.VectorRAM&0x1FFFFFFF, insts.RFE())

			r.steps(1)
			Expect(r.c0.Status().Mode()).To(Equal(uint32(0x0C)))

			r.steps(1)
			Expect(r.c0.Status().Mode()).To(Equal(uint32(0x03)))
			Expect(r.c0.Status().InterruptsEnabled()).To(BeTrue())
			Expect(r.c0.Status().UserMode()).To(BeTrue())
		})

		It("should take a pending interrupt instead of fetching", func() {
			r.c0.SetStatus(cop0.StatusIEc | 1<<10)
			r.irq.Raise(bus.IRQVBlank)
			Expect(r.irq.Store(bus.Word, 4, 1)).To(Succeed())
			r.load(entry, insts.ADDIU(1, 0, 1))

			result := r.steps(1)

			Expect(result.Exception).To(Equal(cop0.ExcInterrupt))
			Expect(r.cpu.Reg(1)).To(BeZero())
			Expect(r.c0.EPC()).To(Equal(entry))
			Expect(r.cpu.PC()).To(Equal(cop0.VectorRAM))
			Expect(r.cpu.InstructionCount()).To(BeZero())
		})

		It("should ignore interrupts while IEc is clear", func() {
			r.c0.SetStatus(1 << 10)
			r.irq.Raise(bus.IRQVBlank)
			Expect(r.irq.Store(bus.Word, 4, 1)).To(Succeed())
			r.load(entry, insts.ADDIU(1, 0, 1))

			result := r.steps(1)

			Expect(result.Raised).To(BeFalse())
			Expect(r.cpu.Reg(1)).To(Equal(uint32(1)))
		})
	})

	Describe("coprocessor 0", func() {
		It("should move from COP0 through the load delay slot", func() {
			r.c0.SetStatus(cop0.StatusBEV | cop0.StatusIEc)
			r.cpu.SetReg(2, 3)
			r.load(entry,
				insts.MFC0(2, cop0.RegSR),
				insts.ADDU(3, 2, 0),
				insts.NOP(),
			)
			r.steps(3)

			Expect(r.cpu.Reg(3)).To(Equal(uint32(3)))
			Expect(r.cpu.Reg(2)).To(Equal(uint32(cop0.StatusBEV | cop0.StatusIEc)))
		})

		It("should write status with MTC0", func() {
			r.cpu.SetReg(1, uint32(cop0.StatusIsC))
			r.load(entry, insts.MTC0(1, cop0.RegSR))
			r.steps(1)

			Expect(r.c0.CacheIsolated()).To(BeTrue())
		})

		It("should raise CoprocessorError for COP0 in user mode", func() {
			r.c0.SetStatus(cop0.StatusKUc)
			r.load(entry, insts.MFC0(1, cop0.RegSR))

			result := r.steps(1)

			Expect(result.Exception).To(Equal(cop0.ExcCoprocessorError))
			Expect(r.c0.Cause().Coprocessor()).To(BeZero())
		})

		It("should raise CoprocessorError for COP1 and COP3", func() {
			r.load(entry, insts.EncodeCop(1, insts.CopMF, 1, 0))

			result := r.steps(1)

			Expect(result.Exception).To(Equal(cop0.ExcCoprocessorError))
			Expect(r.c0.Cause().Coprocessor()).To(Equal(uint32(1)))
		})

		It("should raise CoprocessorError for LWC3", func() {
			r.load(entry, insts.EncodeI(insts.OpLWC3, 0, 0, 0))

			Expect(r.steps(1).Exception).To(Equal(cop0.ExcCoprocessorError))
			Expect(r.c0.Cause().Coprocessor()).To(Equal(uint32(3)))
		})
	})

	Describe("coprocessor 2", func() {
		It("should be unusable without a plug-in", func() {
			r.c0.SetStatus(cop0.StatusCU2)
			r.load(entry, insts.EncodeCop(2, insts.CopMT, 1, 0))

			result := r.steps(1)

			Expect(result.Exception).To(Equal(cop0.ExcCoprocessorError))
			Expect(r.c0.Cause().Coprocessor()).To(Equal(uint32(2)))
		})

		Context("with a plug-in", func() {
			var gte *fakeGTE

			BeforeEach(func() {
				gte = newFakeGTE()
				r = newRig(emu.WithCoprocessor2(gte))
				r.c0.SetStatus(cop0.StatusCU2)
			})

			It("should be unusable while CU2 is clear", func() {
				r.c0.SetStatus(0)
				r.load(entry, insts.EncodeCop(2, insts.CopMT, 1, 0))

				Expect(r.steps(1).Exception).To(Equal(cop0.ExcCoprocessorError))
			})

			It("should move data and control registers", func() {
				r.cpu.SetReg(1, 0x55)
				gte.control[3] = 0x77
				r.load(entry,
					insts.EncodeCop(2, insts.CopMT, 1, 9),
					insts.EncodeCop(2, insts.CopMF, 2, 9),
					insts.EncodeCop(2, insts.CopCF, 3, 3),
					insts.NOP(),
				)
				r.steps(4)

				Expect(gte.data[9]).To(Equal(uint32(0x55)))
				Expect(r.cpu.Reg(2)).To(Equal(uint32(0x55)))
				Expect(r.cpu.Reg(3)).To(Equal(uint32(0x77)))
			})

			It("should forward commands", func() {
				r.load(entry, insts.Instruction(insts.OpCOP2<<26|1<<25|0x0180001))
				r.steps(1)

				Expect(gte.commands).To(Equal([]uint32{0x0180001}))
			})

			It("should load and store words with LWC2 and SWC2", func() {
				copy(r.ram.Bytes()[0x100:], []byte{0x78, 0x56, 0x34, 0x12})
				r.cpu.SetReg(1, 0x100)
				r.load(entry,
					insts.EncodeI(insts.OpLWC2, 1, 4, 0),
					insts.EncodeI(insts.OpSWC2, 1, 4, 8),
				)
				r.steps(2)

				Expect(gte.data[4]).To(Equal(uint32(0x12345678)))
				Expect(r.word(0x108)).To(Equal(uint32(0x12345678)))
			})
		})
	})

	Describe("fatal errors", func() {
		It("should stop on an unmapped load with a register dump", func() {
			r.cpu.SetReg(1, 0x1F801810)
			r.load(entry, insts.LW(2, 1, 0))

			result := r.cpu.Step()

			Expect(errors.Is(result.Err, bus.ErrUnmapped)).To(BeTrue())
			var fatal *emu.FatalError
			Expect(errors.As(result.Err, &fatal)).To(BeTrue())
			Expect(fatal.PC).To(Equal(entry))
			Expect(fatal.Registers[1]).To(Equal(uint32(0x1F801810)))
			Expect(fatal.Registers[emu.DebugPC]).To(Equal(entry))
			Expect(fatal.Dump()).To(ContainSubstring("$at=1f801810"))
			Expect(fatal.Error()).To(ContainSubstring("lw"))
		})

		It("should stop on a store to the BIOS", func() {
			r.cpu.SetReg(1, 0xBFC00000)
			r.load(entry, insts.SW(0, 1, 0))

			result := r.cpu.Step()

			Expect(errors.Is(result.Err, bus.ErrReadOnly)).To(BeTrue())
		})

		It("should log the dump from Run", func() {
			var buf bytes.Buffer
			logger := logrus.New()
			logger.SetOutput(&buf)
			r = newRig(emu.WithLogger(logger))
			r.cpu.SetPC(0x40000000)

			err := r.cpu.Run()

			Expect(errors.Is(err, bus.ErrUnmapped)).To(BeTrue())
			Expect(buf.String()).To(ContainSubstring("emulation stopped"))
			Expect(buf.String()).To(ContainSubstring("pc=40000000"))
		})
	})

	Describe("limits", func() {
		It("should stop after the maximum instruction count", func() {
			r = newRig(emu.WithMaxInstructions(2))

			Expect(r.cpu.Step().Err).NotTo(HaveOccurred())
			Expect(r.cpu.Step().Err).NotTo(HaveOccurred())
			Expect(r.cpu.Run()).To(MatchError(emu.ErrInstructionLimit))
		})
	})

	Describe("instruction cache", func() {
		It("should fetch cached segments through the cache when enabled", func() {
			cache := &fakeCache{enabled: true, word: uint32(insts.ADDIU(1, 0, 9))}
			r = newRig(emu.WithInstructionCache(cache))

			r.steps(1)

			Expect(cache.fetches).To(Equal([]uint32{entry}))
			Expect(r.cpu.Reg(1)).To(Equal(uint32(9)))
		})

		It("should bypass the cache for KSEG1", func() {
			cache := &fakeCache{enabled: true}
			r = newRig(emu.WithInstructionCache(cache))
			r.load(entry, insts.ADDIU(1, 0, 4))
			r.cpu.SetPC(0xA0000000 | entry)

			r.steps(1)

			Expect(cache.fetches).To(BeEmpty())
			Expect(r.cpu.Reg(1)).To(Equal(uint32(4)))
		})

		It("should bypass the cache while disabled", func() {
			cache := &fakeCache{}
			r = newRig(emu.WithInstructionCache(cache))
			r.load(entry, insts.NOP())

			r.steps(1)

			Expect(cache.fetches).To(BeEmpty())
		})
	})
})

type fakeGTE struct {
	data, control [32]uint32
	commands      []uint32
}

func newFakeGTE() *fakeGTE { return &fakeGTE{} }

func (g *fakeGTE) ReadData(reg uint8) uint32 { return g.data[reg] }
func (g *fakeGTE) WriteData(reg uint8, v uint32) { g.data[reg] = v }
func (g *fakeGTE) ReadControl(reg uint8) uint32 { return g.control[reg] }
func (g *fakeGTE) WriteControl(reg uint8, v uint32) { g.control[reg] = v }
func (g *fakeGTE) Command(cmd uint32) { g.commands = append(g.commands, cmd) }

type fakeCache struct {
	enabled bool
	word    uint32
	fetches []uint32
}

func (c *fakeCache) Enabled() bool { return c.enabled }

func (c *fakeCache) Fetch(addr uint32) (uint32, error) {
	c.fetches = append(c.fetches, addr)
	return c.word, nil
}
