package emu

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/psxsim/bus"
	"github.com/sarchlab/psxsim/cop0"
	"github.com/sarchlab/psxsim/insts"
)

// ResetVector is the PC after reset: the first word of the BIOS ROM.
const ResetVector uint32 = 0xBFC00000

// ErrInstructionLimit is returned by Step once the configured maximum
// number of instructions has executed.
var ErrInstructionLimit = errors.New("emu: max instructions reached")

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Raised is true if the step entered an exception handler.
	Raised bool

	// Exception is the exception taken when Raised is true.
	Exception cop0.Exception

	// Err is set if emulation cannot continue. Bus failures arrive as
	// *FatalError.
	Err error
}

// InstructionCache serves instruction fetches from the cached segments
// while the cache control register enables it.
type InstructionCache interface {
	Enabled() bool
	Fetch(addr uint32) (uint32, error)
}

// CPU executes R3000A instructions functionally.
type CPU struct {
	regFile *RegFile
	bus     *bus.Interconnect
	cop0    *cop0.Cop0
	cop2    Coprocessor2
	icache  InstructionCache

	// Execution units
	alu        *ALU
	lsu        *LoadStoreUnit
	branchUnit *BranchUnit

	pc uint32

	// State of the instruction being executed.
	current     uint32
	inst        insts.Instruction
	operand     uint32
	executed    bool
	inDelaySlot bool
	raised      bool
	exception   cop0.Exception

	logger *logrus.Logger

	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// Option is a functional option for configuring the CPU.
type Option func(*CPU)

// WithLogger sets the logger. Instruction traces are emitted at trace
// level and fatal register dumps at error level.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *CPU) {
		c.logger = logger
	}
}

// WithCoprocessor2 plugs in a geometry coprocessor. Without one, every
// COP2 instruction raises CoprocessorError.
func WithCoprocessor2(cop2 Coprocessor2) Option {
	return func(c *CPU) {
		c.cop2 = cop2
	}
}

// WithInstructionCache routes cached fetches through ic.
func WithInstructionCache(ic InstructionCache) Option {
	return func(c *CPU) {
		c.icache = ic
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) Option {
	return func(c *CPU) {
		c.maxInstructions = max
	}
}

// New creates a CPU attached to an interconnect and COP0. The CPU
// borrows both; it starts at ResetVector.
func New(ic *bus.Interconnect, c0 *cop0.Cop0, opts ...Option) *CPU {
	regFile := &RegFile{}

	c := &CPU{
		regFile: regFile,
		bus:     ic,
		cop0:    c0,
		pc:      ResetVector,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.SetLevel(logrus.WarnLevel)
	}

	c.alu = NewALU(regFile)
	c.lsu = NewLoadStoreUnit(regFile, ic)
	c.branchUnit = NewBranchUnit(regFile)

	return c
}

// RegFile returns the CPU's register file.
func (c *CPU) RegFile() *RegFile {
	return c.regFile
}

// Cop0 returns the coprocessor 0 the CPU is attached to.
func (c *CPU) Cop0() *cop0.Cop0 {
	return c.cop0
}

// Bus returns the interconnect the CPU is attached to.
func (c *CPU) Bus() *bus.Interconnect {
	return c.bus
}

// PC returns the address of the next instruction.
func (c *CPU) PC() uint32 {
	return c.pc
}

// SetPC redirects execution. Any latched branch is discarded.
func (c *CPU) SetPC(pc uint32) {
	c.pc = pc
	c.branchUnit.clear()
}

// Reg reads a general-purpose register.
func (c *CPU) Reg(reg uint8) uint32 {
	return c.regFile.Read(reg)
}

// SetReg writes a general-purpose register.
func (c *CPU) SetReg(reg uint8, value uint32) {
	c.regFile.Write(reg, value)
}

// InstructionCount returns the number of instructions executed.
func (c *CPU) InstructionCount() uint64 {
	return c.instructionCount
}

// Reset puts the CPU and COP0 in their power-on state.
func (c *CPU) Reset() {
	c.regFile.Reset()
	c.branchUnit.clear()
	c.cop0.Reset()
	c.pc = ResetVector
	c.raised = false
	c.instructionCount = 0
}

// Step executes a single instruction, or takes a pending interrupt.
func (c *CPU) Step() StepResult {
	if c.maxInstructions > 0 && c.instructionCount >= c.maxInstructions {
		return StepResult{Err: ErrInstructionLimit}
	}

	inDelaySlot, taken, target := c.branchUnit.take()
	c.current = c.pc
	c.inDelaySlot = inDelaySlot
	c.inst = 0
	c.executed = false

	if c.cop0.InterruptsPending() {
		c.raise(cop0.ExcInterrupt)
	} else {
		if err := c.fetchAndExecute(); err != nil {
			return StepResult{Err: c.fatal(err)}
		}
		c.instructionCount++
	}

	c.regFile.Advance()

	if c.raised {
		c.raised = false
		c.branchUnit.clear()
		return StepResult{Raised: true, Exception: c.exception}
	}

	if taken {
		c.pc = target &^ 3
	} else {
		c.pc += 4
	}

	return StepResult{}
}

// Executed returns the instruction the last step ran and the value its rs
// operand held when it issued. ok is false if the step took an interrupt
// or faulted before the instruction was fetched.
func (c *CPU) Executed() (inst insts.Instruction, rs uint32, ok bool) {
	return c.inst, c.operand, c.executed
}

// Run executes instructions until an error occurs. A fatal error is
// logged together with the register dump before it is returned.
func (c *CPU) Run() error {
	for {
		result := c.Step()
		if result.Err == nil {
			continue
		}

		var fatal *FatalError
		if errors.As(result.Err, &fatal) {
			c.logger.WithError(fatal.Err).WithField("pc", fatal.PC).Error("emu: emulation stopped")
			c.logger.Error("registers:\n" + fatal.Dump())
		}
		return result.Err
	}
}

func (c *CPU) fatal(err error) *FatalError {
	return &FatalError{
		PC:        c.current,
		Inst:      c.inst,
		Registers: c.DebugRegisters(),
		Err:       err,
	}
}

func (c *CPU) fetchAndExecute() error {
	if c.current&3 != 0 {
		c.raiseAddress(cop0.ExcLoadAddress, c.current)
		return nil
	}

	inst, err := c.fetch(c.current)
	if err != nil {
		return err
	}
	c.inst = inst
	c.operand = c.regFile.Read(inst.Rs())
	c.executed = true

	if c.logger.IsLevelEnabled(logrus.TraceLevel) {
		c.logger.WithFields(logrus.Fields{
			"pc":   c.current,
			"inst": inst.Disassemble(c.current),
		}).Trace("emu: step")
	}

	return c.execute(inst)
}

func (c *CPU) fetch(pc uint32) (insts.Instruction, error) {
	if c.icache != nil && bus.Cached(pc) && c.icache.Enabled() {
		word, err := c.icache.Fetch(pc)
		return insts.Instruction(word), err
	}

	word, err := bus.Load[uint32](c.bus, pc)
	return insts.Instruction(word), err
}

// raise enters the exception handler for the current instruction.
func (c *CPU) raise(exc cop0.Exception) {
	c.pc = c.cop0.EnterException(exc, c.current, c.inDelaySlot)
	c.raised = true
	c.exception = exc
}

func (c *CPU) raiseAddress(exc cop0.Exception, addr uint32) {
	c.cop0.SetBadVaddr(addr)
	c.raise(exc)
}

func (c *CPU) raiseCoprocessor(n uint32) {
	c.pc = c.cop0.EnterCoprocessorException(n, c.current, c.inDelaySlot)
	c.raised = true
	c.exception = cop0.ExcCoprocessorError
}

// execute dispatches on the primary opcode.
func (c *CPU) execute(inst insts.Instruction) error {
	pc := c.current
	rs, rt := inst.Rs(), inst.Rt()

	switch inst.Opcode() {
	case insts.OpSpecial:
		c.executeSpecial(inst)
	case insts.OpRegImm:
		c.branchUnit.RegImm(pc, rs, rt, inst.ImmSE())
	case insts.OpJ:
		c.branchUnit.J(pc, inst.Target())
	case insts.OpJAL:
		c.branchUnit.JAL(pc, inst.Target())
	case insts.OpBEQ:
		c.branchUnit.BEQ(pc, rs, rt, inst.ImmSE())
	case insts.OpBNE:
		c.branchUnit.BNE(pc, rs, rt, inst.ImmSE())
	case insts.OpBLEZ:
		c.branchUnit.BLEZ(pc, rs, inst.ImmSE())
	case insts.OpBGTZ:
		c.branchUnit.BGTZ(pc, rs, inst.ImmSE())
	case insts.OpADDI:
		if !c.alu.ADDI(rt, rs, inst.ImmSE()) {
			c.raise(cop0.ExcOverflow)
		}
	case insts.OpADDIU:
		c.alu.ADDIU(rt, rs, inst.ImmSE())
	case insts.OpSLTI:
		c.alu.SLTI(rt, rs, inst.ImmSE())
	case insts.OpSLTIU:
		c.alu.SLTIU(rt, rs, inst.ImmSE())
	case insts.OpANDI:
		c.alu.ANDI(rt, rs, inst.Imm())
	case insts.OpORI:
		c.alu.ORI(rt, rs, inst.Imm())
	case insts.OpXORI:
		c.alu.XORI(rt, rs, inst.Imm())
	case insts.OpLUI:
		c.alu.LUI(rt, inst.Imm())
	case insts.OpCOP0:
		c.executeCop0(inst)
	case insts.OpCOP1, insts.OpCOP3:
		c.raiseCoprocessor(inst.CopNum())
	case insts.OpCOP2:
		c.executeCop2(inst)
	case insts.OpLB, insts.OpLH, insts.OpLWL, insts.OpLW,
		insts.OpLBU, insts.OpLHU, insts.OpLWR:
		return c.executeLoad(inst)
	case insts.OpSB, insts.OpSH, insts.OpSWL, insts.OpSW, insts.OpSWR:
		return c.executeStore(inst)
	case insts.OpLWC2:
		return c.executeLWC2(inst, c.address(inst))
	case insts.OpSWC2:
		return c.executeSWC2(inst, c.address(inst))
	case insts.OpLWC0, insts.OpLWC1, insts.OpLWC3,
		insts.OpSWC0, insts.OpSWC1, insts.OpSWC3:
		c.raiseCoprocessor(inst.CopNum())
	default:
		c.raise(cop0.ExcIllegalInstruction)
	}

	return nil
}

// executeSpecial dispatches opcode 0 on the function field.
func (c *CPU) executeSpecial(inst insts.Instruction) {
	rs, rt, rd := inst.Rs(), inst.Rt(), inst.Rd()

	switch inst.Funct() {
	case insts.FnSLL:
		c.alu.SLL(rd, rt, inst.Shamt())
	case insts.FnSRL:
		c.alu.SRL(rd, rt, inst.Shamt())
	case insts.FnSRA:
		c.alu.SRA(rd, rt, inst.Shamt())
	case insts.FnSLLV:
		c.alu.SLLV(rd, rt, rs)
	case insts.FnSRLV:
		c.alu.SRLV(rd, rt, rs)
	case insts.FnSRAV:
		c.alu.SRAV(rd, rt, rs)
	case insts.FnJR:
		c.branchUnit.JR(rs)
	case insts.FnJALR:
		c.branchUnit.JALR(c.current, rd, rs)
	case insts.FnSYSCALL:
		c.raise(cop0.ExcSyscall)
	case insts.FnBREAK:
		c.raise(cop0.ExcBreak)
	case insts.FnMFHI:
		c.alu.MFHI(rd)
	case insts.FnMTHI:
		c.alu.MTHI(rs)
	case insts.FnMFLO:
		c.alu.MFLO(rd)
	case insts.FnMTLO:
		c.alu.MTLO(rs)
	case insts.FnMULT:
		c.alu.MULT(rs, rt)
	case insts.FnMULTU:
		c.alu.MULTU(rs, rt)
	case insts.FnDIV:
		c.alu.DIV(rs, rt)
	case insts.FnDIVU:
		c.alu.DIVU(rs, rt)
	case insts.FnADD:
		if !c.alu.ADD(rd, rs, rt) {
			c.raise(cop0.ExcOverflow)
		}
	case insts.FnADDU:
		c.alu.ADDU(rd, rs, rt)
	case insts.FnSUB:
		if !c.alu.SUB(rd, rs, rt) {
			c.raise(cop0.ExcOverflow)
		}
	case insts.FnSUBU:
		c.alu.SUBU(rd, rs, rt)
	case insts.FnAND:
		c.alu.AND(rd, rs, rt)
	case insts.FnOR:
		c.alu.OR(rd, rs, rt)
	case insts.FnXOR:
		c.alu.XOR(rd, rs, rt)
	case insts.FnNOR:
		c.alu.NOR(rd, rs, rt)
	case insts.FnSLT:
		c.alu.SLT(rd, rs, rt)
	case insts.FnSLTU:
		c.alu.SLTU(rd, rs, rt)
	default:
		c.raise(cop0.ExcIllegalInstruction)
	}
}

// address computes base + offset for loads and stores.
func (c *CPU) address(inst insts.Instruction) uint32 {
	return c.regFile.Read(inst.Rs()) + inst.ImmSE()
}

func (c *CPU) executeLoad(inst insts.Instruction) error {
	rt := inst.Rt()
	addr := c.address(inst)

	var (
		aligned = true
		err     error
	)

	switch inst.Opcode() {
	case insts.OpLB:
		err = c.lsu.LB(rt, addr)
	case insts.OpLBU:
		err = c.lsu.LBU(rt, addr)
	case insts.OpLH:
		aligned, err = c.lsu.LH(rt, addr)
	case insts.OpLHU:
		aligned, err = c.lsu.LHU(rt, addr)
	case insts.OpLW:
		aligned, err = c.lsu.LW(rt, addr)
	case insts.OpLWL:
		err = c.lsu.LWL(rt, addr)
	case insts.OpLWR:
		err = c.lsu.LWR(rt, addr)
	}

	if !aligned {
		c.raiseAddress(cop0.ExcLoadAddress, addr)
	}
	return err
}

func (c *CPU) executeStore(inst insts.Instruction) error {
	rt := inst.Rt()
	addr := c.address(inst)

	var (
		aligned = true
		err     error
	)

	switch inst.Opcode() {
	case insts.OpSB:
		err = c.lsu.SB(rt, addr)
	case insts.OpSH:
		aligned, err = c.lsu.SH(rt, addr)
	case insts.OpSW:
		aligned, err = c.lsu.SW(rt, addr)
	case insts.OpSWL:
		err = c.lsu.SWL(rt, addr)
	case insts.OpSWR:
		err = c.lsu.SWR(rt, addr)
	}

	if !aligned {
		c.raiseAddress(cop0.ExcStoreAddress, addr)
	}
	return err
}
